// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/messmate/internal/models"
)

var (
	// ErrNotFound is wrapped by every lookup that finds no row.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique row would be duplicated.
	ErrAlreadyExists = errors.New("already exists")
)

// ExpenseGuard is evaluated inside the expense insert transaction with the month's
// current deposit and expense totals. A non-nil error aborts the insert.
type ExpenseGuard func(totalDeposit, totalExpenses float64) error

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// MessStore persists messes and memberships.
type MessStore interface {
	// CreateMess stores the mess and its founding manager in one transaction.
	CreateMess(ctx context.Context, mess *models.Mess, manager *models.Member) error
	GetMess(ctx context.Context, messID string) (*models.Mess, error)
	ListMessesForUser(ctx context.Context, userID string) ([]*models.Mess, error)

	AddMember(ctx context.Context, member *models.Member) error
	GetMember(ctx context.Context, messID, userID string) (*models.Member, error)
	// ListMembers returns members joined to their display names. An empty status lists all.
	ListMembers(ctx context.Context, messID string, status models.MemberStatus) ([]*models.Member, error)
	UpdateMember(ctx context.Context, member *models.Member) error
	RemoveMember(ctx context.Context, messID, userID string) error
	// TransferManager promotes toUserID and demotes fromUserID in one transaction.
	TransferManager(ctx context.Context, messID, fromUserID, toUserID string) error
}

// MonthStore persists accounting periods.
type MonthStore interface {
	// StartMonth deactivates the mess's active month, if any, and inserts month as the
	// new active one in one transaction.
	StartMonth(ctx context.Context, month *models.Month) error
	GetMonth(ctx context.Context, monthID string) (*models.Month, error)
	GetActiveMonth(ctx context.Context, messID string) (*models.Month, error)
	ListMonths(ctx context.Context, messID string) ([]*models.Month, error)
	EndMonth(ctx context.Context, monthID string) error
	// DeleteMonth removes the month with its meals, deposits, expenses and schedules.
	DeleteMonth(ctx context.Context, monthID string) error
}

// LedgerStore persists the rows of a month's ledger.
type LedgerStore interface {
	// UpsertMeal inserts or replaces the (month, user, date) meal row.
	UpsertMeal(ctx context.Context, meal *models.Meal) error
	GetMeal(ctx context.Context, mealID string) (*models.Meal, error)
	DeleteMeal(ctx context.Context, mealID string) error
	ListMeals(ctx context.Context, monthID string) ([]*models.Meal, error)

	CreateDeposit(ctx context.Context, deposit *models.Deposit) error
	GetDeposit(ctx context.Context, depositID string) (*models.Deposit, error)
	DeleteDeposit(ctx context.Context, depositID string) error
	ListDeposits(ctx context.Context, monthID string) ([]*models.Deposit, error)

	// CreateExpense runs guard against the month totals, then inserts the expense with
	// its shoppers and allocations, all in one transaction.
	CreateExpense(ctx context.Context, expense *models.Expense, guard ExpenseGuard) error
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	DeleteExpense(ctx context.Context, expenseID string) error
	// ListExpenses returns the month's expenses with shoppers and allocations filled.
	ListExpenses(ctx context.Context, monthID string) ([]*models.Expense, error)
}

// ScheduleStore persists bazaar schedules.
type ScheduleStore interface {
	// CreateSchedules stores the schedules and their shoppers in one transaction.
	CreateSchedules(ctx context.Context, schedules []*models.BazaarSchedule) error
	GetSchedule(ctx context.Context, scheduleID string) (*models.BazaarSchedule, error)
	ListSchedules(ctx context.Context, monthID string) ([]*models.BazaarSchedule, error)
	DeleteSchedule(ctx context.Context, scheduleID string) error
}

// Store defines the full storage surface used by the services.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	MessStore
	MonthStore
	LedgerStore
	ScheduleStore

	// Close releases any resources held by the store.
	Close() error
}
