package service

import (
	"time"

	"go-inventory-loans/internal/model"
	"go-inventory-loans/internal/repository"
	"go-inventory-loans/pkg/cache"
)

// Cache TTLs. Invalidation after each mutation is best-effort, so every
// report carries an expiry as the staleness backstop.
const (
	statisticsTTL = 5 * time.Minute
	summaryTTL    = 3 * time.Minute
	movementTTL   = 10 * time.Minute
)

const defaultMovementDays = 7

type ReportService interface {
	GetItemStatistics() (*ItemStatistics, error)
	GetDashboardSummary() (*DashboardSummary, error)
	GetStockMovement(days int) ([]repository.StockMovementData, error)
}

// ItemStatistics untuk overview stats
type ItemStatistics struct {
	TotalItems      int64 `json:"total_items"`
	TotalStock      int64 `json:"total_stock"`
	LowStockItems   int64 `json:"low_stock_items"`
	OutOfStockItems int64 `json:"out_of_stock_items"`
	AveragePrice    int64 `json:"average_price"`
}

type DashboardSummary struct {
	TotalItems      int64 `json:"total_items"`
	TotalStock      int64 `json:"total_stock"`
	TotalValuation  int64 `json:"total_valuation"`
	PendingRequests int64 `json:"pending_requests"`
	ActiveLoans     int64 `json:"active_loans"`
	OverdueLoans    int64 `json:"overdue_loans"`
}

type reportService struct {
	itemRepo   repository.ItemRepository
	loanRepo   repository.LoanRepository
	ledgerRepo repository.LedgerRepository
	cache      *cache.ReportCache
}

func NewReportService(
	itemRepo repository.ItemRepository,
	loanRepo repository.LoanRepository,
	ledgerRepo repository.LedgerRepository,
	reportCache *cache.ReportCache,
) ReportService {
	return &reportService{
		itemRepo:   itemRepo,
		loanRepo:   loanRepo,
		ledgerRepo: ledgerRepo,
		cache:      reportCache,
	}
}

func (s *reportService) GetItemStatistics() (*ItemStatistics, error) {
	var stats ItemStatistics
	if s.cache.Get(cache.KeyItemStatistics, &stats) {
		return &stats, nil
	}

	var err error
	if stats.TotalItems, err = s.itemRepo.CountAll(); err != nil {
		return nil, err
	}
	if stats.TotalStock, err = s.itemRepo.SumStock(); err != nil {
		return nil, err
	}
	if stats.LowStockItems, err = s.itemRepo.CountLowStock(); err != nil {
		return nil, err
	}
	if stats.OutOfStockItems, err = s.itemRepo.CountOutOfStock(); err != nil {
		return nil, err
	}
	if stats.AveragePrice, err = s.itemRepo.AveragePrice(); err != nil {
		return nil, err
	}

	s.cache.Set(cache.KeyItemStatistics, &stats, statisticsTTL)
	return &stats, nil
}

func (s *reportService) GetDashboardSummary() (*DashboardSummary, error) {
	var summary DashboardSummary
	if s.cache.Get(cache.KeyDashboardSummary, &summary) {
		return &summary, nil
	}

	var err error
	if summary.TotalItems, err = s.itemRepo.CountAll(); err != nil {
		return nil, err
	}
	if summary.TotalStock, err = s.itemRepo.SumStock(); err != nil {
		return nil, err
	}
	if summary.TotalValuation, err = s.itemRepo.TotalValuation(); err != nil {
		return nil, err
	}
	if summary.PendingRequests, err = s.loanRepo.CountByStatus(model.LoanPending); err != nil {
		return nil, err
	}
	if summary.ActiveLoans, err = s.loanRepo.CountByStatus(model.LoanBorrowed); err != nil {
		return nil, err
	}
	if summary.OverdueLoans, err = s.loanRepo.CountOverdue(); err != nil {
		return nil, err
	}

	s.cache.Set(cache.KeyDashboardSummary, &summary, summaryTTL)
	return &summary, nil
}

// GetStockMovement aggregates ledger traffic per day. Only the default
// dashboard window is cached so the invalidation key set stays fixed.
func (s *reportService) GetStockMovement(days int) ([]repository.StockMovementData, error) {
	if days <= 0 {
		days = defaultMovementDays
	}

	var data []repository.StockMovementData
	if days == defaultMovementDays && s.cache.Get(cache.KeyStockMovement, &data) {
		return data, nil
	}

	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	data, err := s.ledgerRepo.GetStockMovement(startDate, endDate)
	if err != nil {
		return nil, err
	}

	if days == defaultMovementDays {
		s.cache.Set(cache.KeyStockMovement, data, movementTTL)
	}
	return data, nil
}
