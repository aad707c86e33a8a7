package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmynk/messmate/internal/models"
	"github.com/mmynk/messmate/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "messmate-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createUser(t *testing.T, store *SQLiteStore, email, name string) *models.User {
	t.Helper()
	user := models.NewUser(email, name, "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

// seedMess creates a mess managed by a user named Alice, an active member Bob and an
// active month, and returns their IDs.
func seedMess(t *testing.T, store *SQLiteStore) (alice, bob *models.User, mess *models.Mess, month *models.Month) {
	t.Helper()
	ctx := context.Background()

	alice = createUser(t, store, "alice@example.com", "Alice")
	bob = createUser(t, store, "bob@example.com", "Bob")

	mess = &models.Mess{Name: "Green House", CreatedBy: alice.ID}
	manager := &models.Member{
		UserID: alice.ID, Role: models.RoleManager, Status: models.StatusActive,
		CanManageMeals: true, CanManageFinance: true, CanManageMembers: true,
	}
	if err := store.CreateMess(ctx, mess, manager); err != nil {
		t.Fatalf("CreateMess failed: %v", err)
	}
	member := &models.Member{MessID: mess.ID, UserID: bob.ID, Role: models.RoleMember, Status: models.StatusActive}
	if err := store.AddMember(ctx, member); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	month = &models.Month{MessID: mess.ID, Name: "January 2025", StartDate: "2025-01-01"}
	if err := store.StartMonth(ctx, month); err != nil {
		t.Fatalf("StartMonth failed: %v", err)
	}
	return alice, bob, mess, month
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := createUser(t, store, "carol@example.com", "Carol")

	t.Run("GetUserByEmail returns stored user", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "carol@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got.ID != user.ID || got.DisplayName != "Carol" {
			t.Errorf("got %+v, want ID %s name Carol", got, user.ID)
		}
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		dup := models.NewUser("carol@example.com", "Other", "hash")
		err := store.CreateUser(ctx, dup)
		if !errors.Is(err, storage.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("missing user is ErrNotFound", func(t *testing.T) {
		_, err := store.GetUserByEmail(ctx, "nobody@example.com")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		_, err = store.GetUserByID(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestMembership(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice, bob, mess, _ := seedMess(t, store)

	t.Run("creator is active manager", func(t *testing.T) {
		m, err := store.GetMember(ctx, mess.ID, alice.ID)
		if err != nil {
			t.Fatalf("GetMember failed: %v", err)
		}
		if !m.IsManager() || !m.IsActive() || m.Name != "Alice" {
			t.Errorf("unexpected manager row: %+v", m)
		}
	})

	t.Run("joining twice is rejected", func(t *testing.T) {
		err := store.AddMember(ctx, &models.Member{MessID: mess.ID, UserID: bob.ID, Role: models.RoleMember, Status: models.StatusPending})
		if !errors.Is(err, storage.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("ListMembers filters by status", func(t *testing.T) {
		carol := createUser(t, store, "carol@example.com", "Carol")
		if err := store.AddMember(ctx, &models.Member{MessID: mess.ID, UserID: carol.ID, Role: models.RoleMember, Status: models.StatusPending}); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}

		all, err := store.ListMembers(ctx, mess.ID, "")
		if err != nil {
			t.Fatalf("ListMembers failed: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 members, got %d", len(all))
		}

		active, err := store.ListMembers(ctx, mess.ID, models.StatusActive)
		if err != nil {
			t.Fatalf("ListMembers failed: %v", err)
		}
		if len(active) != 2 {
			t.Errorf("expected 2 active members, got %d", len(active))
		}
	})

	t.Run("TransferManager swaps roles", func(t *testing.T) {
		if err := store.TransferManager(ctx, mess.ID, alice.ID, bob.ID); err != nil {
			t.Fatalf("TransferManager failed: %v", err)
		}
		a, _ := store.GetMember(ctx, mess.ID, alice.ID)
		b, _ := store.GetMember(ctx, mess.ID, bob.ID)
		if a.IsManager() {
			t.Error("expected Alice to be demoted")
		}
		if !b.IsManager() || !b.CanManageFinance {
			t.Errorf("expected Bob to be manager with all permissions, got %+v", b)
		}
	})

	t.Run("TransferManager to unknown member changes nothing", func(t *testing.T) {
		err := store.TransferManager(ctx, mess.ID, bob.ID, "ghost")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		b, _ := store.GetMember(ctx, mess.ID, bob.ID)
		if !b.IsManager() {
			t.Error("expected Bob to remain manager after failed transfer")
		}
	})
}

func TestMonths(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, _, mess, first := seedMess(t, store)

	second := &models.Month{MessID: mess.ID, Name: "February 2025", StartDate: "2025-02-01"}
	if err := store.StartMonth(ctx, second); err != nil {
		t.Fatalf("StartMonth failed: %v", err)
	}

	active, err := store.GetActiveMonth(ctx, mess.ID)
	if err != nil {
		t.Fatalf("GetActiveMonth failed: %v", err)
	}
	if active.ID != second.ID {
		t.Errorf("active month = %s, want %s", active.ID, second.ID)
	}

	old, err := store.GetMonth(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetMonth failed: %v", err)
	}
	if old.IsActive {
		t.Error("expected previous month to be deactivated")
	}

	months, err := store.ListMonths(ctx, mess.ID)
	if err != nil {
		t.Fatalf("ListMonths failed: %v", err)
	}
	if len(months) != 2 || months[0].ID != second.ID {
		t.Errorf("expected newest month first, got %d months", len(months))
	}

	if err := store.EndMonth(ctx, second.ID); err != nil {
		t.Fatalf("EndMonth failed: %v", err)
	}
	if _, err := store.GetActiveMonth(ctx, mess.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound with no active month, got %v", err)
	}
}

func TestMeals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice, _, _, month := seedMess(t, store)

	meal := &models.Meal{MonthID: month.ID, UserID: alice.ID, Date: "2025-01-02", Breakfast: 1, Lunch: 1}
	if err := store.UpsertMeal(ctx, meal); err != nil {
		t.Fatalf("UpsertMeal failed: %v", err)
	}
	firstID := meal.ID

	again := &models.Meal{MonthID: month.ID, UserID: alice.ID, Date: "2025-01-02", Dinner: 2}
	if err := store.UpsertMeal(ctx, again); err != nil {
		t.Fatalf("UpsertMeal failed: %v", err)
	}
	if again.ID != firstID {
		t.Errorf("upsert created a new row: %s != %s", again.ID, firstID)
	}

	meals, err := store.ListMeals(ctx, month.ID)
	if err != nil {
		t.Fatalf("ListMeals failed: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("expected 1 meal row, got %d", len(meals))
	}
	if meals[0].Units() != 2 || meals[0].Breakfast != 0 {
		t.Errorf("expected quantities to be replaced, got %+v", meals[0])
	}

	if err := store.DeleteMeal(ctx, firstID); err != nil {
		t.Fatalf("DeleteMeal failed: %v", err)
	}
	if err := store.DeleteMeal(ctx, firstID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice, bob, _, month := seedMess(t, store)

	deposit := &models.Deposit{MonthID: month.ID, UserID: alice.ID, Amount: 500, Date: "2025-01-01", CreatedBy: alice.ID}
	if err := store.CreateDeposit(ctx, deposit); err != nil {
		t.Fatalf("CreateDeposit failed: %v", err)
	}

	var seenDeposit, seenExpenses float64
	guard := func(totalDeposit, totalExpenses float64) error {
		seenDeposit, seenExpenses = totalDeposit, totalExpenses
		return nil
	}

	t.Run("shared expense stores allocations", func(t *testing.T) {
		expense := &models.Expense{
			MonthID: month.ID, Date: "2025-01-03", Amount: 100, Category: models.CategoryShared,
			Allocations: []models.Allocation{{UserID: alice.ID, Amount: 50}, {UserID: bob.ID, Amount: 50}},
			CreatedBy:   alice.ID,
		}
		if err := store.CreateExpense(ctx, expense, guard); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if seenDeposit != 500 || seenExpenses != 0 {
			t.Errorf("guard saw deposit=%v expenses=%v, want 500 and 0", seenDeposit, seenExpenses)
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if len(got.Allocations) != 2 || got.Category != models.CategoryShared {
			t.Errorf("unexpected expense: %+v", got)
		}
	})

	t.Run("meal expense stores shoppers", func(t *testing.T) {
		expense := &models.Expense{
			MonthID: month.ID, Date: "2025-01-04", Amount: 80, Category: models.CategoryMeal,
			Shoppers: []string{bob.ID}, CreatedBy: alice.ID,
		}
		if err := store.CreateExpense(ctx, expense, guard); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if seenExpenses != 100 {
			t.Errorf("guard saw expenses=%v, want 100", seenExpenses)
		}
	})

	t.Run("rejecting guard leaves no rows", func(t *testing.T) {
		reject := errors.New("rejected")
		expense := &models.Expense{
			MonthID: month.ID, Date: "2025-01-05", Amount: 1000, Category: models.CategoryIndividual,
			Allocations: []models.Allocation{{UserID: bob.ID, Amount: 1000}}, CreatedBy: alice.ID,
		}
		err := store.CreateExpense(ctx, expense, func(float64, float64) error { return reject })
		if !errors.Is(err, reject) {
			t.Fatalf("expected guard error, got %v", err)
		}
		if _, err := store.GetExpense(ctx, expense.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected rejected expense to be absent, got %v", err)
		}
	})

	t.Run("ListExpenses fills children", func(t *testing.T) {
		expenses, err := store.ListExpenses(ctx, month.ID)
		if err != nil {
			t.Fatalf("ListExpenses failed: %v", err)
		}
		if len(expenses) != 2 {
			t.Fatalf("expected 2 expenses, got %d", len(expenses))
		}
		// newest date first
		if expenses[0].Category != models.CategoryMeal || len(expenses[0].Shoppers) != 1 {
			t.Errorf("unexpected meal expense: %+v", expenses[0])
		}
		if len(expenses[1].Allocations) != 2 {
			t.Errorf("expected 2 allocations, got %d", len(expenses[1].Allocations))
		}
	})

	t.Run("DeleteMonth cascades ledger rows", func(t *testing.T) {
		if err := store.DeleteMonth(ctx, month.ID); err != nil {
			t.Fatalf("DeleteMonth failed: %v", err)
		}
		expenses, err := store.ListExpenses(ctx, month.ID)
		if err != nil {
			t.Fatalf("ListExpenses failed: %v", err)
		}
		if len(expenses) != 0 {
			t.Errorf("expected expenses to cascade, got %d", len(expenses))
		}
		if _, err := store.GetDeposit(ctx, deposit.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected deposit to cascade, got %v", err)
		}
	})
}

func TestSchedules(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice, bob, _, month := seedMess(t, store)

	schedules := []*models.BazaarSchedule{
		{MonthID: month.ID, Date: "2025-01-02", Shoppers: []string{alice.ID, bob.ID}},
		{MonthID: month.ID, Date: "2025-01-01", Shoppers: []string{bob.ID}, Note: "fish"},
	}
	if err := store.CreateSchedules(ctx, schedules); err != nil {
		t.Fatalf("CreateSchedules failed: %v", err)
	}

	list, err := store.ListSchedules(ctx, month.ID)
	if err != nil {
		t.Fatalf("ListSchedules failed: %v", err)
	}
	if len(list) != 2 || list[0].Date != "2025-01-01" {
		t.Fatalf("expected schedules in date order, got %+v", list)
	}
	if len(list[1].Shoppers) != 2 {
		t.Errorf("expected 2 shoppers, got %d", len(list[1].Shoppers))
	}

	t.Run("failed batch stores nothing", func(t *testing.T) {
		bad := []*models.BazaarSchedule{
			{MonthID: month.ID, Date: "2025-01-03", Shoppers: []string{alice.ID}},
			{MonthID: month.ID, Date: "2025-01-04", Shoppers: []string{"ghost"}},
		}
		if err := store.CreateSchedules(ctx, bad); err == nil {
			t.Fatal("expected foreign key failure")
		}
		list, _ := store.ListSchedules(ctx, month.ID)
		if len(list) != 2 {
			t.Errorf("expected batch rollback, got %d schedules", len(list))
		}
	})

	if err := store.DeleteSchedule(ctx, schedules[0].ID); err != nil {
		t.Fatalf("DeleteSchedule failed: %v", err)
	}
	if _, err := store.GetSchedule(ctx, schedules[0].ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
