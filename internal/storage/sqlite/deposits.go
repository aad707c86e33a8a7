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

const depositColumns = `id, month_id, user_id, amount, date, details, created_by, created_at`

// CreateDeposit persists a new deposit to the database.
func (s *SQLiteStore) CreateDeposit(ctx context.Context, deposit *models.Deposit) error {
	if deposit.ID == "" {
		deposit.ID = uuid.New().String()
	}
	if deposit.CreatedAt == 0 {
		deposit.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO deposits ("+depositColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		deposit.ID, deposit.MonthID, deposit.UserID, deposit.Amount,
		deposit.Date, deposit.Details, deposit.CreatedBy, deposit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert deposit: %w", err)
	}
	return nil
}

// GetDeposit retrieves a deposit by ID.
func (s *SQLiteStore) GetDeposit(ctx context.Context, depositID string) (*models.Deposit, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+depositColumns+" FROM deposits WHERE id = ?", depositID)
	deposit, err := scanDeposit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: deposit %s", storage.ErrNotFound, depositID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	return deposit, nil
}

// DeleteDeposit removes a deposit by ID.
func (s *SQLiteStore) DeleteDeposit(ctx context.Context, depositID string) error {
	return s.deleteByID(ctx, "deposits", depositID)
}

// ListDeposits returns the month's deposits, newest date first.
func (s *SQLiteStore) ListDeposits(ctx context.Context, monthID string) ([]*models.Deposit, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+depositColumns+" FROM deposits WHERE month_id = ? ORDER BY date DESC, created_at DESC",
		monthID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	defer rows.Close()

	var deposits []*models.Deposit
	for rows.Next() {
		deposit, err := scanDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		deposits = append(deposits, deposit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deposits: %w", err)
	}
	return deposits, nil
}

func scanDeposit(row rowScanner) (*models.Deposit, error) {
	d := &models.Deposit{}
	err := row.Scan(&d.ID, &d.MonthID, &d.UserID, &d.Amount, &d.Date, &d.Details, &d.CreatedBy, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}
