package repository

import (
	"time"

	"go-inventory-loans/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoanFilter narrows loan listings. Zero values mean "no filter".
type LoanFilter struct {
	BorrowerID  *uuid.UUID
	Status      model.LoanStatus
	OverdueOnly bool
}

type LoanRepository interface {
	Create(loan *model.Loan) error
	FindByID(id uuid.UUID) (*model.Loan, error)
	FindAll(filter LoanFilter) ([]model.Loan, error)
	FindOverdue() ([]model.Loan, error)
	UpdateStatusGuarded(tx *gorm.DB, id uuid.UUID, from, to model.LoanStatus, updates map[string]interface{}) (bool, error)
	CountActiveByItem(itemID uuid.UUID) (int64, error)
	CountByStatus(status model.LoanStatus) (int64, error)
	CountOverdue() (int64, error)
}

type loanRepo struct {
	db *gorm.DB
}

func NewLoanRepo(db *gorm.DB) LoanRepository {
	return &loanRepo{db}
}

func (r *loanRepo) Create(loan *model.Loan) error {
	return r.db.Create(loan).Error
}

func (r *loanRepo) FindByID(id uuid.UUID) (*model.Loan, error) {
	var loan model.Loan
	err := r.db.Preload("Item").Preload("Borrower").Preload("Verifier").First(&loan, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepo) FindAll(filter LoanFilter) ([]model.Loan, error) {
	var loans []model.Loan
	q := r.db.Preload("Item").Preload("Borrower").Preload("Verifier").Order("requested_at DESC")
	if filter.BorrowerID != nil {
		q = q.Where("borrower_id = ?", *filter.BorrowerID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.OverdueOnly {
		q = q.Where("status = ? AND requested_at < ?", model.LoanBorrowed, time.Now().Add(-model.LoanGracePeriod))
	}
	err := q.Find(&loans).Error
	return loans, err
}

func (r *loanRepo) FindOverdue() ([]model.Loan, error) {
	return r.FindAll(LoanFilter{OverdueOnly: true})
}

// UpdateStatusGuarded moves a loan from one status to another in a single
// statement. It returns false when no row matched, i.e. the loan is gone or
// another writer already moved it out of the expected status.
func (r *loanRepo) UpdateStatusGuarded(tx *gorm.DB, id uuid.UUID, from, to model.LoanStatus, updates map[string]interface{}) (bool, error) {
	values := map[string]interface{}{"status": to}
	for k, v := range updates {
		values[k] = v
	}
	res := tx.Model(&model.Loan{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountActiveByItem counts loans still holding or about to hold stock
func (r *loanRepo) CountActiveByItem(itemID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.Model(&model.Loan{}).
		Where("item_id = ? AND status IN ?", itemID, []model.LoanStatus{model.LoanApproved, model.LoanBorrowed}).
		Count(&n).Error
	return n, err
}

func (r *loanRepo) CountByStatus(status model.LoanStatus) (int64, error) {
	var n int64
	err := r.db.Model(&model.Loan{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *loanRepo) CountOverdue() (int64, error) {
	var n int64
	err := r.db.Model(&model.Loan{}).
		Where("status = ? AND requested_at < ?", model.LoanBorrowed, time.Now().Add(-model.LoanGracePeriod)).
		Count(&n).Error
	return n, err
}
