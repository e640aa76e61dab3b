package model

import (
	"time"

	"github.com/google/uuid"
)

type LoanStatus string

const (
	LoanPending  LoanStatus = "pending"
	LoanApproved LoanStatus = "approved"
	LoanRejected LoanStatus = "rejected"
	LoanBorrowed LoanStatus = "borrowed"
	LoanReturned LoanStatus = "returned"
)

// LoanGracePeriod is how long a loan may stay borrowed before it counts as overdue
const LoanGracePeriod = 7 * 24 * time.Hour

// loanTransitions is the single source of truth for the loan lifecycle:
//
//	pending -> approved -> borrowed -> returned
//	pending -> rejected
//
// A borrowed loan may also re-enter borrowed (quantity edit).
// Every call site must go through CanTransitionTo, nothing else decides.
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanPending:  {LoanApproved, LoanRejected},
	LoanApproved: {LoanBorrowed},
	LoanBorrowed: {LoanReturned, LoanBorrowed},
	LoanRejected: {},
	LoanReturned: {},
}

// Valid reports whether s is one of the five loan states
func (s LoanStatus) Valid() bool {
	_, ok := loanTransitions[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next
func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	for _, allowed := range loanTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Loan struct {
	BaseModel
	ItemID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"item_id" validate:"uuid_required"`
	Item       Item       `json:"item" validate:"-"` // Relasi - skip validation
	BorrowerID uuid.UUID  `gorm:"type:uuid;not null;index" json:"borrower_id" validate:"uuid_required"`
	Borrower   User       `gorm:"foreignKey:BorrowerID" json:"borrower" validate:"-"`
	Quantity   int        `gorm:"not null" json:"quantity" validate:"required,gt=0"`
	Status     LoanStatus `gorm:"type:varchar(15);not null;default:'pending';index" json:"status"`
	Reason     string     `gorm:"type:text;not null" json:"reason"`
	Note       string     `gorm:"type:text" json:"note"`

	// Admin verification metadata, set when the loan leaves pending
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	VerifierID      *uuid.UUID `gorm:"type:uuid" json:"verifier_id,omitempty"`
	Verifier        *User      `gorm:"foreignKey:VerifierID" json:"verifier,omitempty" validate:"-"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`

	RequestedAt time.Time  `gorm:"not null;index" json:"requested_at"`
	ReturnedAt  *time.Time `json:"returned_at,omitempty"`
}

// IsOverdue reports whether a still-borrowed loan has exceeded the grace period
func (l *Loan) IsOverdue() bool {
	if l.Status != LoanBorrowed {
		return false
	}
	return l.RequestedAt.Before(time.Now().Add(-LoanGracePeriod))
}

// DaysBorrowed counts whole days between request and return (or now)
func (l *Loan) DaysBorrowed() int {
	end := time.Now()
	if l.ReturnedAt != nil {
		end = *l.ReturnedAt
	}
	return int(end.Sub(l.RequestedAt).Hours() / 24)
}

// LoanResponse is the API shape for a loan, including derived fields
type LoanResponse struct {
	Loan
	IsOverdue    bool `json:"is_overdue"`
	DaysBorrowed int  `json:"days_borrowed"`
}

func (l *Loan) ToResponse() LoanResponse {
	return LoanResponse{Loan: *l, IsOverdue: l.IsOverdue(), DaysBorrowed: l.DaysBorrowed()}
}
