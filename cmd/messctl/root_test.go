package main

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmynk/messmate/internal/models"
	"github.com/mmynk/messmate/internal/storage/sqlite"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	out, err := run(t, "--help")
	if err != nil {
		t.Fatalf("execute root help: %v", err)
	}
	if !strings.Contains(out, "report") {
		t.Fatalf("expected help to list report, got %q", out)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mess.db")
	for i := 0; i < 2; i++ {
		out, err := run(t, "--db", path, "migrate")
		if err != nil {
			t.Fatalf("migrate run %d failed: %v", i+1, err)
		}
		if !strings.Contains(out, "schema version") {
			t.Fatalf("unexpected output %q", out)
		}
	}
}

func seedMonth(t *testing.T, path string) *models.Month {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.New(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	alice := models.NewUser("alice@example.com", "Alice", "hash")
	bob := models.NewUser("bob@example.com", "Bob", "hash")
	for _, u := range []*models.User{alice, bob} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}
	mess := &models.Mess{Name: "Green House", CreatedBy: alice.ID}
	manager := &models.Member{UserID: alice.ID, Role: models.RoleManager, Status: models.StatusActive}
	if err := store.CreateMess(ctx, mess, manager); err != nil {
		t.Fatalf("CreateMess: %v", err)
	}
	if err := store.AddMember(ctx, &models.Member{MessID: mess.ID, UserID: bob.ID, Role: models.RoleMember, Status: models.StatusActive}); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	month := &models.Month{MessID: mess.ID, Name: "January 2025", StartDate: "2025-01-01"}
	if err := store.StartMonth(ctx, month); err != nil {
		t.Fatalf("StartMonth: %v", err)
	}

	meals := []*models.Meal{
		{MonthID: month.ID, UserID: alice.ID, Date: "2025-01-01", Lunch: 1, Dinner: 1},
		{MonthID: month.ID, UserID: bob.ID, Date: "2025-01-01", Dinner: 1},
	}
	for _, m := range meals {
		if err := store.UpsertMeal(ctx, m); err != nil {
			t.Fatalf("UpsertMeal: %v", err)
		}
	}
	if err := store.CreateDeposit(ctx, &models.Deposit{MonthID: month.ID, UserID: alice.ID, Amount: 150, Date: "2025-01-01", CreatedBy: alice.ID}); err != nil {
		t.Fatalf("CreateDeposit: %v", err)
	}
	expense := &models.Expense{
		MonthID: month.ID, Date: "2025-01-01", Amount: 90, Category: models.CategoryMeal,
		Shoppers: []string{alice.ID}, CreatedBy: alice.ID,
	}
	if err := store.CreateExpense(ctx, expense, nil); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	return month
}

func TestReportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mess.db")
	month := seedMonth(t, path)

	out, err := run(t, "--db", path, "report", "--month", month.ID, "--format", "csv", "--out", "")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", out)
	}
	if !strings.HasPrefix(lines[0], "user_id,name,role,meals") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], ",Alice,manager,2.0,60.00,0.00,0.00,60.00,150.00,90.00") {
		t.Errorf("unexpected Alice row %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], ",Bob,member,1.0,30.00,0.00,0.00,30.00,0.00,-30.00") {
		t.Errorf("unexpected Bob row %q", lines[2])
	}
}

func TestReportErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mess.db")

	if _, err := run(t, "--db", path, "report", "--month", "", "--format", "csv"); err == nil {
		t.Error("expected error without --month")
	}
	if _, err := run(t, "--db", path, "report", "--month", "m1", "--format", "pdf"); err == nil {
		t.Error("expected error for unsupported format")
	}
	if _, err := run(t, "--db", path, "report", "--month", "missing", "--format", "json"); err == nil {
		t.Error("expected error for unknown month")
	}
}

func TestReportLeavesMissingDatabaseAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo", "mess.db")

	_, err := run(t, "--db", path, "report", "--month", "m1", "--format", "json", "--out", "")
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("expected missing database error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Dir(path)); !errors.Is(statErr, fs.ErrNotExist) {
		t.Errorf("report created %s: %v", filepath.Dir(path), statErr)
	}
}

func TestReportWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mess.db")
	month := seedMonth(t, path)
	out := filepath.Join(dir, "january.csv")

	msg, err := run(t, "--db", path, "report", "--month", month.ID, "--format", "csv", "--out", out)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !strings.Contains(msg, "Wrote csv report for January 2025") {
		t.Errorf("unexpected output %q", msg)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.HasPrefix(string(data), "user_id,name,role") {
		t.Errorf("unexpected file contents %q", data)
	}

	if _, err := run(t, "--db", path, "report", "--month", month.ID, "--format", "csv", "--out", filepath.Join(dir, "missing", "x.csv")); err == nil {
		t.Error("expected error writing into a missing directory")
	}
}
