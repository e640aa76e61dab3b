package repository

import (
	"errors"

	"go-inventory-loans/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrStockGuardFailed is returned when a guarded stock update matched no row,
// either the item is gone or the stock precondition no longer holds.
var ErrStockGuardFailed = errors.New("stock precondition failed")

type ItemRepository interface {
	Create(item *model.Item) error
	FindAll(statusFilter, search string) ([]model.Item, error)
	FindByID(id uuid.UUID) (*model.Item, error)
	FindByName(name string) (*model.Item, error)
	FindLowStock(limit int) ([]model.Item, error)
	UpdateDetails(id uuid.UUID, updates map[string]interface{}) (bool, error)
	Delete(tx *gorm.DB, id uuid.UUID) error
	DecrementStock(tx *gorm.DB, id uuid.UUID, qty int, updatedBy string) error
	IncrementStock(tx *gorm.DB, id uuid.UUID, qty int, updatedBy string) error
	CountAll() (int64, error)
	SumStock() (int64, error)
	CountLowStock() (int64, error)
	CountOutOfStock() (int64, error)
	AveragePrice() (int64, error)
	TotalValuation() (int64, error)
}

type itemRepo struct {
	db *gorm.DB
}

func NewItemRepo(db *gorm.DB) ItemRepository {
	return &itemRepo{db}
}

func (r *itemRepo) Create(item *model.Item) error {
	return r.db.Create(item).Error
}

func (r *itemRepo) FindAll(statusFilter, search string) ([]model.Item, error) {
	var items []model.Item
	q := r.db.Order("name ASC")
	if search != "" {
		q = q.Where("lower(name) LIKE lower(?)", "%"+search+"%")
	}
	switch statusFilter {
	case model.StockLow:
		q = q.Where("stock > 0 AND stock <= minimum")
	case model.StockOutOfStock:
		q = q.Where("stock <= 0")
	case model.StockAvailable:
		q = q.Where("stock > minimum")
	}
	err := q.Find(&items).Error
	return items, err
}

func (r *itemRepo) FindByID(id uuid.UUID) (*model.Item, error) {
	var item model.Item
	err := r.db.First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByName matches case-insensitively, item names are unique regardless of case
func (r *itemRepo) FindByName(name string) (*model.Item, error) {
	var item model.Item
	err := r.db.First(&item, "lower(name) = lower(?)", name).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) FindLowStock(limit int) ([]model.Item, error) {
	var items []model.Item
	err := r.db.Where("stock <= minimum").Order("stock ASC").Limit(limit).Find(&items).Error
	return items, err
}

// UpdateDetails writes only the given columns. Stock never goes through
// here, it only moves via the guarded increment/decrement paths so every
// stock change stays paired with a ledger entry. Returns false when the
// item no longer exists.
func (r *itemRepo) UpdateDetails(id uuid.UUID, updates map[string]interface{}) (bool, error) {
	res := r.db.Model(&model.Item{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *itemRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.Item{}, "id = ?", id).Error
}

// DecrementStock menerima *gorm.DB (tx) agar bisa berjalan dalam transaksi.
// The WHERE guard keeps stock from ever going negative; zero rows affected
// means the precondition was lost to a concurrent writer.
func (r *itemRepo) DecrementStock(tx *gorm.DB, id uuid.UUID, qty int, updatedBy string) error {
	res := tx.Model(&model.Item{}).
		Where("id = ? AND stock >= ?", id, qty).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockGuardFailed
	}
	return nil
}

func (r *itemRepo) IncrementStock(tx *gorm.DB, id uuid.UUID, qty int, updatedBy string) error {
	res := tx.Model(&model.Item{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", qty),
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockGuardFailed
	}
	return nil
}

func (r *itemRepo) CountAll() (int64, error) {
	var n int64
	err := r.db.Model(&model.Item{}).Count(&n).Error
	return n, err
}

func (r *itemRepo) SumStock() (int64, error) {
	var total int64
	err := r.db.Model(&model.Item{}).Select("COALESCE(SUM(stock), 0)").Scan(&total).Error
	return total, err
}

func (r *itemRepo) CountLowStock() (int64, error) {
	var n int64
	err := r.db.Model(&model.Item{}).Where("stock > 0 AND stock <= minimum").Count(&n).Error
	return n, err
}

func (r *itemRepo) CountOutOfStock() (int64, error) {
	var n int64
	err := r.db.Model(&model.Item{}).Where("stock <= 0").Count(&n).Error
	return n, err
}

func (r *itemRepo) AveragePrice() (int64, error) {
	var avg int64
	err := r.db.Model(&model.Item{}).Select("COALESCE(CAST(AVG(price) AS BIGINT), 0)").Scan(&avg).Error
	return avg, err
}

// TotalValuation is SUM(stock * price) across all items
func (r *itemRepo) TotalValuation() (int64, error) {
	var total int64
	err := r.db.Model(&model.Item{}).Select("COALESCE(SUM(stock * price), 0)").Scan(&total).Error
	return total, err
}
