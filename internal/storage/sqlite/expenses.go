package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/messmate/internal/models"
	"github.com/mmynk/messmate/internal/storage"
)

const expenseColumns = `id, month_id, date, amount, category, details, created_by, created_at`

// CreateExpense checks the guard against the month's totals and inserts the expense,
// its shoppers and its allocations in a single transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense, guard storage.ExpenseGuard) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if guard != nil {
			var totalDeposit, totalExpenses float64
			if err := tx.QueryRowContext(ctx,
				"SELECT COALESCE(SUM(amount), 0) FROM deposits WHERE month_id = ?",
				expense.MonthID,
			).Scan(&totalDeposit); err != nil {
				return fmt.Errorf("failed to sum deposits: %w", err)
			}
			if err := tx.QueryRowContext(ctx,
				"SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE month_id = ?",
				expense.MonthID,
			).Scan(&totalExpenses); err != nil {
				return fmt.Errorf("failed to sum expenses: %w", err)
			}
			if err := guard(totalDeposit, totalExpenses); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			expense.ID, expense.MonthID, expense.Date, expense.Amount,
			string(expense.Category), expense.Details, expense.CreatedBy, expense.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		for _, userID := range expense.Shoppers {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO expense_shoppers (expense_id, user_id) VALUES (?, ?)",
				expense.ID, userID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert expense shopper: %w", err)
			}
		}

		for i := range expense.Allocations {
			a := &expense.Allocations[i]
			a.ExpenseID = expense.ID
			_, err = tx.ExecContext(ctx,
				"INSERT INTO expense_allocations (expense_id, user_id, amount) VALUES (?, ?, ?)",
				a.ExpenseID, a.UserID, a.Amount,
			)
			if err != nil {
				return fmt.Errorf("failed to insert expense allocation: %w", err)
			}
		}
		return nil
	})
}

// GetExpense retrieves an expense with its shoppers and allocations.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", expenseID)
	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: expense %s", storage.ErrNotFound, expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	byID := map[string]*models.Expense{expense.ID: expense}
	if err := s.loadShoppers(ctx, "es.expense_id = ?", expenseID, byID); err != nil {
		return nil, err
	}
	if err := s.loadAllocations(ctx, "ea.expense_id = ?", expenseID, byID); err != nil {
		return nil, err
	}
	return expense, nil
}

// DeleteExpense removes an expense; its shoppers and allocations cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	return s.deleteByID(ctx, "expenses", expenseID)
}

// ListExpenses returns the month's expenses, newest date first, with shoppers and
// allocations filled.
func (s *SQLiteStore) ListExpenses(ctx context.Context, monthID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE month_id = ? ORDER BY date DESC, created_at DESC",
		monthID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []*models.Expense
	byID := make(map[string]*models.Expense)
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
		byID[expense.ID] = expense
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	// Children are loaded after the parent rows are closed: the pool has one connection.
	if err := s.loadShoppers(ctx, "e.month_id = ?", monthID, byID); err != nil {
		return nil, err
	}
	if err := s.loadAllocations(ctx, "e.month_id = ?", monthID, byID); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *SQLiteStore) loadShoppers(ctx context.Context, where string, arg string, byID map[string]*models.Expense) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT es.expense_id, es.user_id
		 FROM expense_shoppers es JOIN expenses e ON e.id = es.expense_id
		 WHERE `+where+` ORDER BY es.user_id`,
		arg,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense shoppers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID, userID string
		if err := rows.Scan(&expenseID, &userID); err != nil {
			return fmt.Errorf("failed to scan expense shopper: %w", err)
		}
		if e, ok := byID[expenseID]; ok {
			e.Shoppers = append(e.Shoppers, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense shoppers: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadAllocations(ctx context.Context, where string, arg string, byID map[string]*models.Expense) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ea.expense_id, ea.user_id, ea.amount
		 FROM expense_allocations ea JOIN expenses e ON e.id = ea.expense_id
		 WHERE `+where+` ORDER BY ea.user_id`,
		arg,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense allocations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.Allocation
		if err := rows.Scan(&a.ExpenseID, &a.UserID, &a.Amount); err != nil {
			return fmt.Errorf("failed to scan expense allocation: %w", err)
		}
		if e, ok := byID[a.ExpenseID]; ok {
			e.Allocations = append(e.Allocations, a)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense allocations: %w", err)
	}
	return nil
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	e := &models.Expense{}
	var category string
	err := row.Scan(&e.ID, &e.MonthID, &e.Date, &e.Amount, &category, &e.Details, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Category = models.ExpenseCategory(category)
	return e, nil
}
