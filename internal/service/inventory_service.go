package service

import (
	"errors"

	"go-inventory-loans/internal/model"
	"go-inventory-loans/internal/repository"
	"go-inventory-loans/internal/ws"
	"go-inventory-loans/pkg/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InventoryService interface {
	CreateItem(req *CreateItemInput, actorID string) (*model.Item, error)
	UpdateItem(id uuid.UUID, req *UpdateItemInput, actorID string) (*model.Item, error)
	DeleteItem(id uuid.UUID) error
	AdjustStock(req *AdjustStockInput) (*model.Item, error)
	GetItems(statusFilter, search string) ([]model.Item, error)
	GetItem(id uuid.UUID) (*model.Item, error)
	LowStockItems(limit int) ([]model.Item, error)
	GetLedger() ([]model.LedgerEntry, error)
	GetItemLedger(itemID uuid.UUID) ([]model.LedgerEntry, error)
}

type CreateItemInput struct {
	Name    string `json:"name" validate:"required"`
	Stock   int    `json:"stock" validate:"gte=0"`
	Price   int64  `json:"price" validate:"gte=0"`
	Minimum *int   `json:"minimum" validate:"omitempty,gte=0"`
}

type UpdateItemInput struct {
	Name    *string `json:"name"`
	Price   *int64  `json:"price" validate:"omitempty,gte=0"`
	Minimum *int    `json:"minimum" validate:"omitempty,gte=0"`
}

type AdjustStockInput struct {
	ItemID    uuid.UUID             `json:"item_id" validate:"uuid_required"`
	Quantity  int                   `json:"quantity" validate:"required,gt=0"`
	Direction model.LedgerDirection `json:"direction" validate:"required,oneof=IN OUT"`
	Note      string                `json:"note"`
	ActorID   *uuid.UUID            `json:"actor_id"` // optional, anonymous adjustments allowed
}

type inventoryService struct {
	itemRepo   repository.ItemRepository
	ledgerRepo repository.LedgerRepository
	loanRepo   repository.LoanRepository
	userRepo   repository.UserRepository
	db         *gorm.DB
	wsHub      *ws.Hub
	reports    cache.Invalidator
}

func NewInventoryService(
	itemRepo repository.ItemRepository,
	ledgerRepo repository.LedgerRepository,
	loanRepo repository.LoanRepository,
	userRepo repository.UserRepository,
	db *gorm.DB,
	hub *ws.Hub,
	reports cache.Invalidator,
) InventoryService {
	return &inventoryService{
		itemRepo:   itemRepo,
		ledgerRepo: ledgerRepo,
		loanRepo:   loanRepo,
		userRepo:   userRepo,
		db:         db,
		wsHub:      hub,
		reports:    reports,
	}
}

func (s *inventoryService) dataChanged() {
	if s.reports != nil {
		s.reports.InvalidateReports()
	}
}

func (s *inventoryService) CreateItem(req *CreateItemInput, actorID string) (*model.Item, error) {
	if err := validateInput(req); err != nil {
		return nil, err
	}

	// Item names are unique regardless of case
	existing, _ := s.itemRepo.FindByName(req.Name)
	if existing != nil && existing.ID != uuid.Nil {
		return nil, ErrDuplicateItemName
	}

	minimum := model.DefaultMinimumStock
	if req.Minimum != nil {
		minimum = *req.Minimum
	}

	item := &model.Item{
		Name:    req.Name,
		Stock:   req.Stock,
		Price:   req.Price,
		Minimum: minimum,
	}
	item.CreatedBy = actorID
	item.UpdatedBy = actorID

	if err := s.itemRepo.Create(item); err != nil {
		return nil, err
	}

	s.dataChanged()
	return item, nil
}

func (s *inventoryService) UpdateItem(id uuid.UUID, req *UpdateItemInput, actorID string) (*model.Item, error) {
	if err := validateInput(req); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.FindByID(id)
	if err != nil {
		return nil, ErrItemNotFound
	}

	// Only the edited columns are written. Stock is deliberately absent:
	// it moves exclusively through the guarded increment/decrement paths,
	// so a detail edit can never clobber a concurrent stock mutation.
	updates := map[string]interface{}{}
	if req.Name != nil && *req.Name != item.Name {
		existing, _ := s.itemRepo.FindByName(*req.Name)
		if existing != nil && existing.ID != uuid.Nil && existing.ID != item.ID {
			return nil, ErrDuplicateItemName
		}
		updates["name"] = *req.Name
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Minimum != nil {
		updates["minimum"] = *req.Minimum
	}
	if len(updates) == 0 {
		return item, nil
	}
	updates["updated_by"] = actorID

	found, err := s.itemRepo.UpdateDetails(item.ID, updates)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrConflict
	}

	item, err = s.itemRepo.FindByID(item.ID)
	if err != nil {
		return nil, err
	}

	s.dataChanged()
	return item, nil
}

// DeleteItem removes an item only when nothing references it: no approved or
// borrowed loan, and no ledger history (the audit trail outlives the item).
func (s *inventoryService) DeleteItem(id uuid.UUID) error {
	item, err := s.itemRepo.FindByID(id)
	if err != nil {
		return ErrItemNotFound
	}

	activeLoans, err := s.loanRepo.CountActiveByItem(item.ID)
	if err != nil {
		return err
	}
	if activeLoans > 0 {
		return ErrItemHasActiveLoans
	}

	history, err := s.ledgerRepo.CountByItem(item.ID)
	if err != nil {
		return err
	}
	if history > 0 {
		return ErrItemHasHistory
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.itemRepo.Delete(tx, item.ID)
	})
	if err != nil {
		return err
	}

	s.dataChanged()
	go s.wsHub.Publish(ws.EventItemDeleted, map[string]interface{}{
		"item_id": item.ID,
		"name":    item.Name,
	})

	return nil
}

// AdjustStock applies a manual stock correction: one guarded stock update and
// one ledger entry, committed together or not at all.
func (s *inventoryService) AdjustStock(req *AdjustStockInput) (*model.Item, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if req.Direction != model.LedgerIn && req.Direction != model.LedgerOut {
		return nil, ErrInvalidDirection
	}

	item, err := s.itemRepo.FindByID(req.ItemID)
	if err != nil {
		return nil, ErrItemNotFound
	}

	actor := "system"
	if req.ActorID != nil {
		user, err := s.userRepo.FindByID(*req.ActorID)
		if err != nil {
			return nil, ErrUserNotFound
		}
		actor = user.ID.String()
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if req.Direction == model.LedgerOut {
			if err := s.itemRepo.DecrementStock(tx, item.ID, req.Quantity, actor); err != nil {
				if errors.Is(err, repository.ErrStockGuardFailed) {
					return ErrInsufficientStock
				}
				return err
			}
		} else {
			if err := s.itemRepo.IncrementStock(tx, item.ID, req.Quantity, actor); err != nil {
				if errors.Is(err, repository.ErrStockGuardFailed) {
					return ErrItemNotFound
				}
				return err
			}
		}

		entry := &model.LedgerEntry{
			ItemID:    item.ID,
			Direction: req.Direction,
			Quantity:  req.Quantity,
			Note:      req.Note,
			UserID:    req.ActorID,
		}
		entry.CreatedBy = actor
		return s.ledgerRepo.Append(tx, entry)
	})
	if err != nil {
		return nil, err
	}

	// Updated snapshot after commit
	item, err = s.itemRepo.FindByID(item.ID)
	if err != nil {
		return nil, err
	}

	s.dataChanged()
	go s.wsHub.Publish(ws.EventStockAdjusted, map[string]interface{}{
		"item_id":   item.ID,
		"name":      item.Name,
		"direction": req.Direction,
		"quantity":  req.Quantity,
		"new_stock": item.Stock,
	})

	return item, nil
}

func (s *inventoryService) GetItems(statusFilter, search string) ([]model.Item, error) {
	return s.itemRepo.FindAll(statusFilter, search)
}

func (s *inventoryService) GetItem(id uuid.UUID) (*model.Item, error) {
	item, err := s.itemRepo.FindByID(id)
	if err != nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func (s *inventoryService) LowStockItems(limit int) ([]model.Item, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.itemRepo.FindLowStock(limit)
}

func (s *inventoryService) GetLedger() ([]model.LedgerEntry, error) {
	return s.ledgerRepo.FindAll()
}

func (s *inventoryService) GetItemLedger(itemID uuid.UUID) ([]model.LedgerEntry, error) {
	if _, err := s.itemRepo.FindByID(itemID); err != nil {
		return nil, ErrItemNotFound
	}
	return s.ledgerRepo.FindByItem(itemID)
}
