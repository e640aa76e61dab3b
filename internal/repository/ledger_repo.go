package repository

import (
	"time"

	"go-inventory-loans/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LedgerRepository interface {
	Append(tx *gorm.DB, entry *model.LedgerEntry) error
	FindAll() ([]model.LedgerEntry, error)
	FindByID(id uuid.UUID) (*model.LedgerEntry, error)
	FindByItem(itemID uuid.UUID) ([]model.LedgerEntry, error)
	CountByItem(itemID uuid.UUID) (int64, error)
	GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error)
}

// StockMovementData untuk chart data
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type ledgerRepo struct {
	db *gorm.DB
}

func NewLedgerRepo(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{db}
}

// Append writes an entry inside the caller's transaction. The ledger is
// append-only, there is no Update or Delete.
func (r *ledgerRepo) Append(tx *gorm.DB, entry *model.LedgerEntry) error {
	return tx.Create(entry).Error
}

func (r *ledgerRepo) FindAll() ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := r.db.Preload("Item").Preload("User").Order("created_at DESC").Find(&entries).Error
	return entries, err
}

func (r *ledgerRepo) FindByID(id uuid.UUID) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	err := r.db.Preload("Item").Preload("User").First(&entry, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ledgerRepo) FindByItem(itemID uuid.UUID) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := r.db.Preload("User").Where("item_id = ?", itemID).Order("created_at DESC").Find(&entries).Error
	return entries, err
}

func (r *ledgerRepo) CountByItem(itemID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.Model(&model.LedgerEntry{}).Where("item_id = ?", itemID).Count(&n).Error
	return n, err
}

func (r *ledgerRepo) GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	// Query untuk aggregate entries per hari
	rows, err := r.db.Model(&model.LedgerEntry{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN direction = 'IN' THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN direction = 'OUT' THEN quantity ELSE 0 END), 0) as outbound
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, nil
}
