package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go-inventory-loans/internal/model"
	"go-inventory-loans/internal/repository"
)

func TestRequestLoan_CreatesPendingWithoutStockChange(t *testing.T) {
	env := newTestEnv(t)
	borrower := env.createUser(t, "budi", model.RoleUser)
	item := env.createItem(t, "Projector", 10, 5)

	loan := env.requestLoan(t, item, borrower, 3)

	if loan.Status != model.LoanPending {
		t.Errorf("new loan status = %s, want pending", loan.Status)
	}
	if got := env.itemStock(t, item.ID); got != 10 {
		t.Errorf("stock after request = %d, want 10 (no stock change at request time)", got)
	}
	if entries := env.ledgerEntries(t, item.ID); len(entries) != 0 {
		t.Errorf("ledger entries after request = %d, want 0", len(entries))
	}
}

func TestRequestLoan_Validation(t *testing.T) {
	env := newTestEnv(t)
	borrower := env.createUser(t, "budi", model.RoleUser)
	item := env.createItem(t, "Projector", 10, 5)

	_, err := env.loanSvc.RequestLoan(&RequestLoanInput{
		ItemID:     item.ID.String(),
		BorrowerID: borrower.ID.String(),
		Quantity:   0,
		Reason:     "field work",
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("zero quantity: got %v, want ErrValidation", err)
	}

	_, err = env.loanSvc.RequestLoan(&RequestLoanInput{
		ItemID:     item.ID.String(),
		BorrowerID: borrower.ID.String(),
		Quantity:   -3,
		Reason:     "field work",
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("negative quantity: got %v, want ErrValidation", err)
	}

	_, err = env.loanSvc.RequestLoan(&RequestLoanInput{
		ItemID:     item.ID.String(),
		BorrowerID: borrower.ID.String(),
		Quantity:   1,
		Reason:     "   ",
	})
	if !errors.Is(err, ErrMissingReason) {
		t.Errorf("blank reason: got %v, want ErrMissingReason", err)
	}
}

func TestRequestLoan_ExceedingStockIsAllowed(t *testing.T) {
	// Scenario B, first half: no stock check at request time
	env := newTestEnv(t)
	borrower := env.createUser(t, "budi", model.RoleUser)
	item := env.createItem(t, "Drill", 2, 5)

	loan := env.requestLoan(t, item, borrower, 5)
	if loan.Status != model.LoanPending {
		t.Errorf("status = %s, want pending", loan.Status)
	}
}

func TestVerifyLoan_ApproveHoldsNoStock(t *testing.T) {
	// Scenario A, approval step
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", model.RoleAdmin)
	borrower := env.createUser(t, "budi", model.RoleUser)
	item := env.createItem(t, "Projector", 10, 5)
	loan := env.requestLoan(t, item, borrower, 3)

	verified, err := env.loanSvc.VerifyLoan(loan.ID, admin.ID, model.LoanApproved, "")
	if err != nil {
		t.Fatalf("VerifyLoan failed: %v", err)
	}
	if verified.Status != model.LoanApproved {
		t.Errorf("status = %s, want approved", verified.Status)
	}
	if verified.VerifierID == nil || *verified.VerifierID != admin.ID {
		t.Error("verifier should be stamped on approval")
	}
	if verified.VerifiedAt == nil {
		t.Error("verified_at should be set on approval")
	}
	if got := env.itemStock(t, item.ID); got != 10 {
		t.Errorf("stock after approval = %d, want 10 (stock commits at pickup)", got)
	}
}

func TestVerifyLoan_InsufficientStock(t *testing.T) {
	// Scenario B, second half
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", model.RoleAdmin)
	borrower := env.createUser(t, "budi", model.RoleUser)
	item := env.createItem(t, "Drill", 2, 5)
	loan := env.requestLoan(t, item, borrower, 5)

	_, err := env.loanSvc.VerifyLoan(loan.ID, admin.ID, model.LoanApproved, "")
	if !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("got %v, want ErrInsufficientStock", err)
	}

	reloaded, _ := env.loans.FindByID(loan.ID)
	if reloaded.Status != model.LoanPending {
		t.Errorf("loan status after failed approval = %s, want pending", reloaded.Status)
	}
}

func TestVerifyLoan_RejectionRequiresReason(t *testing.T) {
	// Scenario C
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", model.RoleAdmin)
	borrower := env.createUser(t, "budi", model.RoleUser)
	item := env.createItem(t, "Projector", 10, 5)
	loan := env.requestLoan(t, item, borrower, 3)

	_, err := env.loanSvc.VerifyLoan(loan.ID, admin.ID, model.LoanRejected, "")
	if !errors.Is(err, ErrMissingRejectionReason) {
		t.Errorf("got %v, want ErrMissingRejectionReason", err)
	}

	reloaded, _ := env.loans.FindByID(loan.ID)
	if reloaded.Status != model.LoanPending {
		t.Errorf("loan status = %s, want pending after failed rejection", reloaded.Status)
	}

	rejected, err := env.loanSvc.VerifyLoan(loan.ID, admin.ID, model.LoanRejected, "item reserved for maintenance")
	if err != nil {
		t.Fatalf("VerifyLoan with reason failed: %v", err)
	}
	if rejected.Status != model.LoanRejected {
		t.Errorf("status = %s, want rejected", rejected.Status)
	}
	if rejected.RejectionReason == "" {
		t.Error("rejection reason should be stored")
	}
}

func TestVerifyLoan_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	borrower := env.createUser(t, "budi", model.RoleUser)
	other := env.createUser(t, "siti", model.RoleUser)
	item := env.createItem(t, "Projector", 10, 5)
	loan := env.requestLoan(t, item, borrower, 3)

	_, err := env.loanSvc.VerifyLoan(loan.ID, other.ID, model.LoanApproved, "")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("got %v, want ErrForbidden", err)
	}
}

func TestVerifyLoan_InvalidDecisionAndState(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", model.RoleAdmin)
	borrower := env.createUser(t, "budi", model.RoleUser)
	item := env.createItem(t, "Projector", 10, 5)
	loan := env.requestLoan(t, item, borrower, 3)

	if _, err := env.loanSvc.VerifyLoan(loan.ID, admin.ID, model.LoanBorrowed, ""); !errors.Is(err, ErrInvalidDecision) {
		t.Errorf("decision=borrowed: got %v, want ErrInvalidDecision", err)
	}

	if _, err := env.loanSvc.VerifyLoan(loan.ID, admin.ID, model.LoanApproved, ""); err != nil {
		t.Fatalf("first approval failed: %v", err)
	}
	// Verifying a non-pending loan is an illegal transition
	if _, err := env.loanSvc.VerifyLoan(loan.ID, admin.ID, model.LoanApproved, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second approval: got %v, want ErrInvalidTransition", err)
	}
}

func TestMarkPickedUp_CommitsStockAndLedger(t *testing.T) {
	// Scenario A, pickup step
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", model.RoleAdmin)
	borrower := env.createUser(t, "budi", model.RoleUser)
	item := env.createItem(t, "Projector", 10, 5)
	loan := env.requestLoan(t, item, borrower, 3)

	if _, err := env.loanSvc.VerifyLoan(loan.ID, admin.ID, model.LoanApproved, ""); err != nil {
		t.Fatalf("approval failed: %v", err)
	}

	picked, err := env.loanSvc.MarkPickedUp(loan.ID)
	if err != nil {
		t.Fatalf("MarkPickedUp failed: %v", err)
	}
	if picked.Status != model.LoanBorrowed {
		t.Errorf("status = %s, want borrowed", picked.Status)
	}
	if got := env.itemStock(t, item.ID); got != 7 {
		t.Errorf("stock after pickup = %d, want 7", got)
	}

	entries := env.ledgerEntries(t, item.ID)
	if len(entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(entries))
	}
	if entries[0].Direction != model.LedgerOut || entries[0].Quantity != 3 {
		t.Errorf("ledger entry = %s/%d, want OUT/3", entries[0].Direction, entries[0].Quantity)
	}

	// 7 > 5, so the item is not low on stock yet
	reloaded, _ := env.items.FindByID(item.ID)
	if reloaded.StockStatus() != model.StockAvailable {
		t.Errorf("stock status = %s, want available", reloaded.StockStatus())
	}
}

func TestMarkPickedUp_RequiresApprovedState(t *testing.T) {
	env := newTestEnv(t)
	borrower := env.createUser(t, "budi", model.RoleUser)
	item := env.createItem(t, "Projector", 10, 5)
	loan := env.requestLoan(t, item, borrower, 3)

	if _, err := env.loanSvc.MarkPickedUp(loan.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pickup of pending loan: got %v, want ErrInvalidTransition", err)
	}
	if got := env.itemStock(t, item.ID); got != 10 {
		t.Errorf("stock after failed pickup = %d, want 10", got)
	}
}

func TestMarkPickedUp_CompetingLoansForSameStock(t *testing.T) {
	// Two approved loans fight over 3 remaining units, only one wins
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", model.RoleAdmin)
	borrower := env.createUser(t, "budi", model.RoleUser)
	item := env.createItem(t, "Cable Tester", 3, 1)

	loanA := env.requestLoan(t, item, borrower, 3)
	loanB := env.requestLoan(t, item, borrower, 3)
	if _, err := env.loanSvc.VerifyLoan(loanA.ID, admin.ID, model.LoanApproved, ""); err != nil {
		t.Fatalf("approval A failed: %v", err)
	}
	if _, err := env.loanSvc.VerifyLoan(loanB.ID, admin.ID, model.LoanApproved, ""); err != nil {
		t.Fatalf("approval B failed: %v", err)
	}

	if _, err := env.loanSvc.MarkPickedUp(loanA.ID); err != nil {
		t.Fatalf("first pickup failed: %v", err)
	}
	if _, err := env.loanSvc.MarkPickedUp(loanB.ID); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("second pickup: got %v, want ErrInsufficientStock", err)
	}

	if got := env.itemStock(t, item.ID); got != 0 {
		t.Errorf("stock = %d, want 0 (decremented exactly once)", got)
	}
	// The losing loan rolled back to approved, no partial state
	reloaded, _ := env.loans.FindByID(loanB.ID)
	if reloaded.Status != model.LoanApproved {
		t.Errorf("losing loan status = %s, want approved", reloaded.Status)
	}
	if entries := env.ledgerEntries(t, item.ID); len(entries) != 1 {
		t.Errorf("ledger entries = %d, want 1", len(entries))
	}
}

func TestReturnLoan_RoundTripRestoresStock(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", model.RoleAdmin)
	borrower := env.createUser(t, "budi", model.RoleUser)
	item := env.createItem(t, "Projector", 10, 5)
	loan := env.requestLoan(t, item, borrower, 3)

	if _, err := env.loanSvc.VerifyLoan(loan.ID, admin.ID, model.LoanApproved, ""); err != nil {
		t.Fatalf("approval failed: %v", err)
	}
	if _, err := env.loanSvc.MarkPickedUp(loan.ID); err != nil {
		t.Fatalf("pickup failed: %v", err)
	}

	returned, err := env.loanSvc.ReturnLoan(loan.ID)
	if err != nil {
		t.Fatalf("ReturnLoan failed: %v", err)
	}
	if returned.Status != model.LoanReturned {
		t.Errorf("status = %s, want returned", returned.Status)
	}
	if returned.ReturnedAt == nil {
		t.Error("returned_at should be set")
	}

	// Stock back where it started
	if got := env.itemStock(t, item.ID); got != 10 {
		t.Errorf("stock after round trip = %d, want 10", got)
	}

	// Exactly two ledger entries, one OUT and one IN, matching quantity
	entries := env.ledgerEntries(t, item.ID)
	if len(entries) != 2 {
		t.Fatalf("ledger entries = %d, want 2", len(entries))
	}
	var ins, outs int
	for _, e := range entries {
		if e.Quantity != 3 {
			t.Errorf("ledger quantity = %d, want 3", e.Quantity)
		}
		switch e.Direction {
		case model.LedgerIn:
			ins++
		case model.LedgerOut:
			outs++
		}
	}
	if ins != 1 || outs != 1 {
		t.Errorf("ledger directions = %d IN / %d OUT, want 1/1", ins, outs)
	}
}

func TestReturnLoan_SecondReturnFailsWithoutDoubleIncrement(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", model.RoleAdmin)
	borrower := env.createUser(t, "budi", model.RoleUser)
	item := env.createItem(t, "Projector", 10, 5)
	loan := env.requestLoan(t, item, borrower, 3)

	if _, err := env.loanSvc.VerifyLoan(loan.ID, admin.ID, model.LoanApproved, ""); err != nil {
		t.Fatalf("approval failed: %v", err)
	}
	if _, err := env.loanSvc.MarkPickedUp(loan.ID); err != nil {
		t.Fatalf("pickup failed: %v", err)
	}
	if _, err := env.loanSvc.ReturnLoan(loan.ID); err != nil {
		t.Fatalf("first return failed: %v", err)
	}

	if _, err := env.loanSvc.ReturnLoan(loan.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second return: got %v, want ErrInvalidTransition", err)
	}
	if got := env.itemStock(t, item.ID); got != 10 {
		t.Errorf("stock after double return = %d, want 10", got)
	}
}

func TestExtendLoan(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", model.RoleAdmin)
	borrower := env.createUser(t, "budi", model.RoleUser)
	item := env.createItem(t, "Projector", 10, 5)
	loan := env.requestLoan(t, item, borrower, 3)

	// Only borrowed loans can be extended
	if _, err := env.loanSvc.ExtendLoan(loan.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("extend pending loan: got %v, want ErrInvalidTransition", err)
	}

	if _, err := env.loanSvc.VerifyLoan(loan.ID, admin.ID, model.LoanApproved, ""); err != nil {
		t.Fatalf("approval failed: %v", err)
	}
	if _, err := env.loanSvc.MarkPickedUp(loan.ID); err != nil {
		t.Fatalf("pickup failed: %v", err)
	}

	extended, err := env.loanSvc.ExtendLoan(loan.ID)
	if err != nil {
		t.Fatalf("ExtendLoan failed: %v", err)
	}
	if !strings.Contains(extended.Note, "[extended ") {
		t.Errorf("note = %q, want extension marker", extended.Note)
	}
	// Extension moves no dates, the loan keeps its original requested_at
	if delta := extended.RequestedAt.Sub(loan.RequestedAt); delta < -time.Second || delta > time.Second {
		t.Error("extension must not shift requested_at")
	}
}

func TestExtendLoan_CannotResurrectReturnedLoan(t *testing.T) {
	// An extend that read the loan as borrowed but writes after a return
	// must match no row: the returned state and its timestamp stay intact.
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", model.RoleAdmin)
	borrower := env.createUser(t, "budi", model.RoleUser)
	item := env.createItem(t, "Projector", 10, 5)
	loan := env.requestLoan(t, item, borrower, 3)

	if _, err := env.loanSvc.VerifyLoan(loan.ID, admin.ID, model.LoanApproved, ""); err != nil {
		t.Fatalf("approval failed: %v", err)
	}
	if _, err := env.loanSvc.MarkPickedUp(loan.ID); err != nil {
		t.Fatalf("pickup failed: %v", err)
	}
	if _, err := env.loanSvc.ReturnLoan(loan.ID); err != nil {
		t.Fatalf("return failed: %v", err)
	}

	// The write an in-flight extend would issue after losing the race
	moved, err := env.loans.UpdateStatusGuarded(env.db, loan.ID, model.LoanBorrowed, model.LoanBorrowed, map[string]interface{}{
		"note": "[extended 2026-01-01]",
	})
	if err != nil {
		t.Fatalf("guarded update failed: %v", err)
	}
	if moved {
		t.Error("guard matched a returned loan, the extend write should be a no-op")
	}

	reloaded, _ := env.loans.FindByID(loan.ID)
	if reloaded.Status != model.LoanReturned {
		t.Errorf("status = %s, want returned", reloaded.Status)
	}
	if reloaded.ReturnedAt == nil {
		t.Error("returned_at must survive the lost extend")
	}
	if reloaded.Note == "[extended 2026-01-01]" {
		t.Error("note must not be overwritten by the lost extend")
	}
	if got := env.itemStock(t, item.ID); got != 10 {
		t.Errorf("stock = %d, want 10", got)
	}
}

func TestExtendLoan_OverdueLoanCannotBeExtended(t *testing.T) {
	// Scenario D
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", model.RoleAdmin)
	borrower := env.createUser(t, "budi", model.RoleUser)
	item := env.createItem(t, "Projector", 10, 5)
	loan := env.requestLoan(t, item, borrower, 3)

	if _, err := env.loanSvc.VerifyLoan(loan.ID, admin.ID, model.LoanApproved, ""); err != nil {
		t.Fatalf("approval failed: %v", err)
	}
	if _, err := env.loanSvc.MarkPickedUp(loan.ID); err != nil {
		t.Fatalf("pickup failed: %v", err)
	}
	env.backdateLoan(t, loan.ID, 8*24*time.Hour)

	reloaded, _ := env.loans.FindByID(loan.ID)
	if !reloaded.IsOverdue() {
		t.Fatal("loan backdated 8 days should be overdue")
	}

	if _, err := env.loanSvc.ExtendLoan(loan.ID); !errors.Is(err, ErrLoanOverdue) {
		t.Errorf("extend overdue loan: got %v, want ErrLoanOverdue", err)
	}
}

func TestUpdateQuantity(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", model.RoleAdmin)
	borrower := env.createUser(t, "budi", model.RoleUser)
	item := env.createItem(t, "Projector", 10, 5)
	loan := env.requestLoan(t, item, borrower, 3)

	if _, err := env.loanSvc.VerifyLoan(loan.ID, admin.ID, model.LoanApproved, ""); err != nil {
		t.Fatalf("approval failed: %v", err)
	}
	if _, err := env.loanSvc.MarkPickedUp(loan.ID); err != nil {
		t.Fatalf("pickup failed: %v", err)
	}
	// stock now 7, loan holds 3

	// Increase: needs 2 more units
	updated, err := env.loanSvc.UpdateQuantity(loan.ID, 5)
	if err != nil {
		t.Fatalf("UpdateQuantity up failed: %v", err)
	}
	if updated.Quantity != 5 {
		t.Errorf("quantity = %d, want 5", updated.Quantity)
	}
	if got := env.itemStock(t, item.ID); got != 5 {
		t.Errorf("stock after increase = %d, want 5", got)
	}

	// Decrease: returns 4 units
	updated, err = env.loanSvc.UpdateQuantity(loan.ID, 1)
	if err != nil {
		t.Fatalf("UpdateQuantity down failed: %v", err)
	}
	if got := env.itemStock(t, item.ID); got != 9 {
		t.Errorf("stock after decrease = %d, want 9", got)
	}

	// Increase beyond availability fails, nothing changes
	if _, err := env.loanSvc.UpdateQuantity(loan.ID, 11); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("oversize increase: got %v, want ErrInsufficientStock", err)
	}
	if got := env.itemStock(t, item.ID); got != 9 {
		t.Errorf("stock after failed increase = %d, want 9", got)
	}

	if _, err := env.loanSvc.UpdateQuantity(loan.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("zero quantity: got %v, want ErrInvalidQuantity", err)
	}
}

func TestListLoans_Filters(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", model.RoleAdmin)
	budi := env.createUser(t, "budi", model.RoleUser)
	siti := env.createUser(t, "siti", model.RoleUser)
	item := env.createItem(t, "Projector", 50, 5)

	budiLoan := env.requestLoan(t, item, budi, 2)
	env.requestLoan(t, item, siti, 1)

	if _, err := env.loanSvc.VerifyLoan(budiLoan.ID, admin.ID, model.LoanApproved, ""); err != nil {
		t.Fatalf("approval failed: %v", err)
	}
	if _, err := env.loanSvc.MarkPickedUp(budiLoan.ID); err != nil {
		t.Fatalf("pickup failed: %v", err)
	}
	env.backdateLoan(t, budiLoan.ID, 9*24*time.Hour)

	byBorrower, err := env.loanSvc.ListLoans(repository.LoanFilter{BorrowerID: &budi.ID})
	if err != nil {
		t.Fatalf("ListLoans by borrower failed: %v", err)
	}
	if len(byBorrower) != 1 || byBorrower[0].BorrowerID != budi.ID {
		t.Errorf("borrower filter returned %d loans", len(byBorrower))
	}

	pending, err := env.loanSvc.ListLoans(repository.LoanFilter{Status: model.LoanPending})
	if err != nil {
		t.Fatalf("ListLoans by status failed: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending filter returned %d loans, want 1", len(pending))
	}

	overdue, err := env.loanSvc.ListOverdue()
	if err != nil {
		t.Fatalf("ListOverdue failed: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != budiLoan.ID {
		t.Errorf("overdue list returned %d loans", len(overdue))
	}
}

func TestLoanMutationsInvalidateReports(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", model.RoleAdmin)
	borrower := env.createUser(t, "budi", model.RoleUser)
	item := env.createItem(t, "Projector", 10, 5)

	loan := env.requestLoan(t, item, borrower, 3)
	if env.cache.calls == 0 {
		t.Error("request should invalidate reports")
	}

	before := env.cache.calls
	if _, err := env.loanSvc.VerifyLoan(loan.ID, admin.ID, model.LoanApproved, ""); err != nil {
		t.Fatalf("approval failed: %v", err)
	}
	if _, err := env.loanSvc.MarkPickedUp(loan.ID); err != nil {
		t.Fatalf("pickup failed: %v", err)
	}
	if _, err := env.loanSvc.ReturnLoan(loan.ID); err != nil {
		t.Fatalf("return failed: %v", err)
	}
	if env.cache.calls != before+3 {
		t.Errorf("invalidations = %d, want %d (one per mutation)", env.cache.calls, before+3)
	}
}
