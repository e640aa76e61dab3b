package service

import (
	"testing"
	"time"

	"go-inventory-loans/internal/model"
	"go-inventory-loans/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeInvalidator records report-cache invalidations
type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) InvalidateReports() { f.calls++ }

type testEnv struct {
	db        *gorm.DB
	items     repository.ItemRepository
	ledger    repository.LedgerRepository
	loans     repository.LoanRepository
	users     repository.UserRepository
	feedback  repository.FeedbackRepository
	inventory InventoryService
	loanSvc   LoanService
	cache     *fakeInvalidator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// A single connection keeps every session on the same in-memory database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.Item{}, &model.LedgerEntry{}, &model.Loan{}, &model.User{}, &model.Feedback{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	items := repository.NewItemRepo(db)
	ledger := repository.NewLedgerRepo(db)
	loans := repository.NewLoanRepo(db)
	users := repository.NewUserRepo(db)
	feedback := repository.NewFeedbackRepo(db)
	fake := &fakeInvalidator{}

	return &testEnv{
		db:        db,
		items:     items,
		ledger:    ledger,
		loans:     loans,
		users:     users,
		feedback:  feedback,
		inventory: NewInventoryService(items, ledger, loans, users, db, nil, fake),
		loanSvc:   NewLoanService(loans, items, ledger, users, db, nil, fake),
		cache:     fake,
	}
}

func (e *testEnv) createUser(t *testing.T, name, role string) *model.User {
	t.Helper()
	user := &model.User{
		Name:     name,
		Email:    name + "@example.com",
		Role:     role,
		IsActive: true,
	}
	if err := user.SetPassword("secret123"); err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := e.users.Create(user); err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

func (e *testEnv) createItem(t *testing.T, name string, stock, minimum int) *model.Item {
	t.Helper()
	item := &model.Item{Name: name, Stock: stock, Minimum: minimum, Price: 1000}
	if err := e.items.Create(item); err != nil {
		t.Fatalf("failed to create item %s: %v", name, err)
	}
	return item
}

func (e *testEnv) requestLoan(t *testing.T, item *model.Item, borrower *model.User, qty int) *model.Loan {
	t.Helper()
	loan, err := e.loanSvc.RequestLoan(&RequestLoanInput{
		ItemID:     item.ID.String(),
		BorrowerID: borrower.ID.String(),
		Quantity:   qty,
		Reason:     "field work",
	})
	if err != nil {
		t.Fatalf("RequestLoan failed: %v", err)
	}
	return loan
}

// backdateLoan pushes requested_at into the past for overdue scenarios
func (e *testEnv) backdateLoan(t *testing.T, loanID uuid.UUID, age time.Duration) {
	t.Helper()
	err := e.db.Model(&model.Loan{}).Where("id = ?", loanID).
		Update("requested_at", time.Now().Add(-age)).Error
	if err != nil {
		t.Fatalf("failed to backdate loan: %v", err)
	}
}

func (e *testEnv) itemStock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	item, err := e.items.FindByID(id)
	if err != nil {
		t.Fatalf("failed to reload item: %v", err)
	}
	return item.Stock
}

func (e *testEnv) ledgerEntries(t *testing.T, itemID uuid.UUID) []model.LedgerEntry {
	t.Helper()
	entries, err := e.ledger.FindByItem(itemID)
	if err != nil {
		t.Fatalf("failed to list ledger entries: %v", err)
	}
	return entries
}
