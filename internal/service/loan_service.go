package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-inventory-loans/internal/model"
	"go-inventory-loans/internal/repository"
	"go-inventory-loans/internal/ws"
	"go-inventory-loans/pkg/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	notePickup  = "loan pickup"
	noteReturn  = "loan return"
	noteQtyEdit = "loan quantity adjusted"
)

type LoanService interface {
	RequestLoan(req *RequestLoanInput) (*model.Loan, error)
	VerifyLoan(loanID, adminID uuid.UUID, decision model.LoanStatus, rejectionReason string) (*model.Loan, error)
	MarkPickedUp(loanID uuid.UUID) (*model.Loan, error)
	ReturnLoan(loanID uuid.UUID) (*model.Loan, error)
	ExtendLoan(loanID uuid.UUID) (*model.Loan, error)
	UpdateQuantity(loanID uuid.UUID, newQuantity int) (*model.Loan, error)
	GetLoan(id uuid.UUID) (*model.Loan, error)
	ListLoans(filter repository.LoanFilter) ([]model.Loan, error)
	ListOverdue() ([]model.Loan, error)
}

type RequestLoanInput struct {
	ItemID     string `json:"item_id" validate:"required"`
	BorrowerID string `json:"borrower_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
	Reason     string `json:"reason" validate:"required"`
	Note       string `json:"note"`
}

type loanService struct {
	loanRepo   repository.LoanRepository
	itemRepo   repository.ItemRepository
	ledgerRepo repository.LedgerRepository
	userRepo   repository.UserRepository
	db         *gorm.DB
	wsHub      *ws.Hub
	reports    cache.Invalidator
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	itemRepo repository.ItemRepository,
	ledgerRepo repository.LedgerRepository,
	userRepo repository.UserRepository,
	db *gorm.DB,
	hub *ws.Hub,
	reports cache.Invalidator,
) LoanService {
	return &loanService{
		loanRepo:   loanRepo,
		itemRepo:   itemRepo,
		ledgerRepo: ledgerRepo,
		userRepo:   userRepo,
		db:         db,
		wsHub:      hub,
		reports:    reports,
	}
}

// dataChanged signals the reporting layer after a committed mutation
func (s *loanService) dataChanged() {
	if s.reports != nil {
		s.reports.InvalidateReports()
	}
}

func (s *loanService) RequestLoan(req *RequestLoanInput) (*model.Loan, error) {
	// 1. Validate input struct
	if err := validateInput(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, ErrMissingReason
	}

	// 2. Parse IDs
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return nil, ErrItemNotFound
	}
	borrowerID, err := uuid.Parse(req.BorrowerID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	// 3. Check referenced rows exist
	item, err := s.itemRepo.FindByID(itemID)
	if err != nil {
		return nil, ErrItemNotFound
	}
	borrower, err := s.userRepo.FindByID(borrowerID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	// 4. Create the pending request. Stock is not touched here, it is only
	// committed at pickup so multiple requests can coexist.
	loan := &model.Loan{
		ItemID:      item.ID,
		BorrowerID:  borrower.ID,
		Quantity:    req.Quantity,
		Status:      model.LoanPending,
		Reason:      req.Reason,
		Note:        req.Note,
		RequestedAt: time.Now(),
	}
	loan.CreatedBy = borrower.ID.String()
	loan.UpdatedBy = borrower.ID.String()

	if err := s.loanRepo.Create(loan); err != nil {
		return nil, err
	}

	loan, err = s.loanRepo.FindByID(loan.ID)
	if err != nil {
		return nil, err
	}

	s.dataChanged()
	go s.wsHub.Publish(ws.EventLoanRequested, map[string]interface{}{
		"loan_id":  loan.ID,
		"item":     item.Name,
		"borrower": borrower.Name,
		"quantity": loan.Quantity,
	})

	return loan, nil
}

func (s *loanService) VerifyLoan(loanID, adminID uuid.UUID, decision model.LoanStatus, rejectionReason string) (*model.Loan, error) {
	// 1. The verifier must hold the admin role, explicitly
	admin, err := s.userRepo.FindByID(adminID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}

	// 2. Only approve/reject are verification decisions
	if decision != model.LoanApproved && decision != model.LoanRejected {
		return nil, ErrInvalidDecision
	}

	loan, err := s.loanRepo.FindByID(loanID)
	if err != nil {
		return nil, ErrLoanNotFound
	}
	if !loan.Status.CanTransitionTo(decision) {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	updates := map[string]interface{}{
		"verifier_id": admin.ID,
		"verified_at": now,
		"updated_by":  admin.ID.String(),
	}

	switch decision {
	case model.LoanApproved:
		// Early rejection of hopeless approvals. Stock is checked again at
		// pickup, approval itself still moves no stock.
		if loan.Item.Stock < loan.Quantity {
			return nil, ErrInsufficientStock
		}
	case model.LoanRejected:
		if strings.TrimSpace(rejectionReason) == "" {
			return nil, ErrMissingRejectionReason
		}
		updates["rejection_reason"] = rejectionReason
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		moved, err := s.loanRepo.UpdateStatusGuarded(tx, loan.ID, model.LoanPending, decision, updates)
		if err != nil {
			return err
		}
		if !moved {
			return ErrConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	loan, err = s.loanRepo.FindByID(loan.ID)
	if err != nil {
		return nil, err
	}

	s.dataChanged()
	go s.wsHub.Publish(ws.EventLoanVerified, map[string]interface{}{
		"loan_id":  loan.ID,
		"decision": decision,
		"verifier": admin.Name,
	})

	return loan, nil
}

func (s *loanService) MarkPickedUp(loanID uuid.UUID) (*model.Loan, error) {
	loan, err := s.loanRepo.FindByID(loanID)
	if err != nil {
		return nil, ErrLoanNotFound
	}
	if !loan.Status.CanTransitionTo(model.LoanBorrowed) || loan.Status != model.LoanApproved {
		return nil, ErrInvalidTransition
	}

	// Stock commits here. The decrement is guarded inside the transaction so
	// two pickups racing for the same units cannot both succeed.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		moved, err := s.loanRepo.UpdateStatusGuarded(tx, loan.ID, model.LoanApproved, model.LoanBorrowed, nil)
		if err != nil {
			return err
		}
		if !moved {
			return ErrConflict
		}

		if err := s.itemRepo.DecrementStock(tx, loan.ItemID, loan.Quantity, loan.BorrowerID.String()); err != nil {
			if errors.Is(err, repository.ErrStockGuardFailed) {
				return ErrInsufficientStock
			}
			return err
		}

		borrowerID := loan.BorrowerID
		entry := &model.LedgerEntry{
			ItemID:    loan.ItemID,
			Direction: model.LedgerOut,
			Quantity:  loan.Quantity,
			Note:      notePickup,
			UserID:    &borrowerID,
		}
		entry.CreatedBy = borrowerID.String()
		return s.ledgerRepo.Append(tx, entry)
	})
	if err != nil {
		return nil, err
	}

	loan, err = s.loanRepo.FindByID(loan.ID)
	if err != nil {
		return nil, err
	}

	s.dataChanged()
	go s.wsHub.Publish(ws.EventLoanPickedUp, map[string]interface{}{
		"loan_id":   loan.ID,
		"item":      loan.Item.Name,
		"quantity":  loan.Quantity,
		"new_stock": loan.Item.Stock,
	})

	return loan, nil
}

func (s *loanService) ReturnLoan(loanID uuid.UUID) (*model.Loan, error) {
	loan, err := s.loanRepo.FindByID(loanID)
	if err != nil {
		return nil, ErrLoanNotFound
	}
	if loan.Status != model.LoanBorrowed || !loan.Status.CanTransitionTo(model.LoanReturned) {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// The guard makes a double return impossible: the second caller finds
		// the loan already out of borrowed and nothing is re-incremented.
		moved, err := s.loanRepo.UpdateStatusGuarded(tx, loan.ID, model.LoanBorrowed, model.LoanReturned, map[string]interface{}{
			"returned_at": now,
		})
		if err != nil {
			return err
		}
		if !moved {
			return ErrConflict
		}

		if err := s.itemRepo.IncrementStock(tx, loan.ItemID, loan.Quantity, loan.BorrowerID.String()); err != nil {
			if errors.Is(err, repository.ErrStockGuardFailed) {
				return ErrItemNotFound
			}
			return err
		}

		borrowerID := loan.BorrowerID
		entry := &model.LedgerEntry{
			ItemID:    loan.ItemID,
			Direction: model.LedgerIn,
			Quantity:  loan.Quantity,
			Note:      noteReturn,
			UserID:    &borrowerID,
		}
		entry.CreatedBy = borrowerID.String()
		return s.ledgerRepo.Append(tx, entry)
	})
	if err != nil {
		return nil, err
	}

	loan, err = s.loanRepo.FindByID(loan.ID)
	if err != nil {
		return nil, err
	}

	s.dataChanged()
	go s.wsHub.Publish(ws.EventLoanReturned, map[string]interface{}{
		"loan_id":   loan.ID,
		"item":      loan.Item.Name,
		"quantity":  loan.Quantity,
		"new_stock": loan.Item.Stock,
	})

	return loan, nil
}

// ExtendLoan records an extension marker in the note. It deliberately moves
// no dates: the system has no due-date field, so an extension changes
// nothing about overdue computation.
func (s *loanService) ExtendLoan(loanID uuid.UUID) (*model.Loan, error) {
	loan, err := s.loanRepo.FindByID(loanID)
	if err != nil {
		return nil, ErrLoanNotFound
	}
	if loan.Status != model.LoanBorrowed {
		return nil, ErrInvalidTransition
	}
	if loan.IsOverdue() {
		return nil, ErrLoanOverdue
	}

	marker := fmt.Sprintf("[extended %s]", time.Now().Format("2006-01-02"))
	note := marker
	if loan.Note != "" {
		note = loan.Note + " " + marker
	}

	// The borrowed -> borrowed guard writes only the note. If the loan was
	// returned between our read and this write, no row matches and the
	// returned state stays intact.
	moved, err := s.loanRepo.UpdateStatusGuarded(s.db, loan.ID, model.LoanBorrowed, model.LoanBorrowed, map[string]interface{}{
		"note": note,
	})
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, ErrConflict
	}

	loan, err = s.loanRepo.FindByID(loan.ID)
	if err != nil {
		return nil, err
	}

	s.dataChanged()
	return loan, nil
}

func (s *loanService) UpdateQuantity(loanID uuid.UUID, newQuantity int) (*model.Loan, error) {
	if newQuantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	loan, err := s.loanRepo.FindByID(loanID)
	if err != nil {
		return nil, ErrLoanNotFound
	}
	// Quantity edits are the borrowed -> borrowed self-loop
	if loan.Status != model.LoanBorrowed || !loan.Status.CanTransitionTo(model.LoanBorrowed) {
		return nil, ErrInvalidTransition
	}

	delta := newQuantity - loan.Quantity
	if delta == 0 {
		return loan, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		borrowerID := loan.BorrowerID
		entry := &model.LedgerEntry{
			ItemID:   loan.ItemID,
			Note:     noteQtyEdit,
			UserID:   &borrowerID,
			Quantity: delta,
		}
		entry.CreatedBy = borrowerID.String()

		if delta > 0 {
			// Borrowing more, the extra units must be available
			if err := s.itemRepo.DecrementStock(tx, loan.ItemID, delta, borrowerID.String()); err != nil {
				if errors.Is(err, repository.ErrStockGuardFailed) {
					return ErrInsufficientStock
				}
				return err
			}
			entry.Direction = model.LedgerOut
		} else {
			if err := s.itemRepo.IncrementStock(tx, loan.ItemID, -delta, borrowerID.String()); err != nil {
				if errors.Is(err, repository.ErrStockGuardFailed) {
					return ErrItemNotFound
				}
				return err
			}
			entry.Direction = model.LedgerIn
			entry.Quantity = -delta
		}

		moved, err := s.loanRepo.UpdateStatusGuarded(tx, loan.ID, model.LoanBorrowed, model.LoanBorrowed, map[string]interface{}{
			"quantity": newQuantity,
		})
		if err != nil {
			return err
		}
		if !moved {
			return ErrConflict
		}

		return s.ledgerRepo.Append(tx, entry)
	})
	if err != nil {
		return nil, err
	}

	loan, err = s.loanRepo.FindByID(loan.ID)
	if err != nil {
		return nil, err
	}

	s.dataChanged()
	return loan, nil
}

func (s *loanService) GetLoan(id uuid.UUID) (*model.Loan, error) {
	loan, err := s.loanRepo.FindByID(id)
	if err != nil {
		return nil, ErrLoanNotFound
	}
	return loan, nil
}

func (s *loanService) ListLoans(filter repository.LoanFilter) ([]model.Loan, error) {
	return s.loanRepo.FindAll(filter)
}

func (s *loanService) ListOverdue() ([]model.Loan, error) {
	return s.loanRepo.FindOverdue()
}
