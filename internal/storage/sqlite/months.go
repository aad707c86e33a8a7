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

const monthColumns = `id, mess_id, name, start_date, is_active, created_at`

// StartMonth closes the mess's active month and opens month in its place.
func (s *SQLiteStore) StartMonth(ctx context.Context, month *models.Month) error {
	if month.ID == "" {
		month.ID = uuid.New().String()
	}
	if month.CreatedAt == 0 {
		month.CreatedAt = time.Now().Unix()
	}
	month.IsActive = true

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE months SET is_active = 0 WHERE mess_id = ? AND is_active = 1",
			month.MessID,
		); err != nil {
			return fmt.Errorf("failed to deactivate month: %w", err)
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO months ("+monthColumns+") VALUES (?, ?, ?, ?, 1, ?)",
			month.ID, month.MessID, month.Name, month.StartDate, month.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert month: %w", err)
		}
		return nil
	})
}

// GetMonth retrieves a month by ID.
func (s *SQLiteStore) GetMonth(ctx context.Context, monthID string) (*models.Month, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+monthColumns+" FROM months WHERE id = ?", monthID)
	month, err := scanMonth(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: month %s", storage.ErrNotFound, monthID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get month: %w", err)
	}
	return month, nil
}

// GetActiveMonth retrieves the mess's active month.
func (s *SQLiteStore) GetActiveMonth(ctx context.Context, messID string) (*models.Month, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+monthColumns+" FROM months WHERE mess_id = ? AND is_active = 1",
		messID,
	)
	month, err := scanMonth(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: active month for mess %s", storage.ErrNotFound, messID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active month: %w", err)
	}
	return month, nil
}

// ListMonths returns the mess's months, newest first.
func (s *SQLiteStore) ListMonths(ctx context.Context, messID string) ([]*models.Month, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+monthColumns+" FROM months WHERE mess_id = ? ORDER BY start_date DESC, created_at DESC",
		messID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list months: %w", err)
	}
	defer rows.Close()

	var months []*models.Month
	for rows.Next() {
		month, err := scanMonth(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan month: %w", err)
		}
		months = append(months, month)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate months: %w", err)
	}
	return months, nil
}

// EndMonth marks a month inactive.
func (s *SQLiteStore) EndMonth(ctx context.Context, monthID string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE months SET is_active = 0 WHERE id = ?", monthID)
	if err != nil {
		return fmt.Errorf("failed to end month: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: month %s", storage.ErrNotFound, monthID)
	}
	return nil
}

// DeleteMonth removes a month; foreign keys cascade to its rows.
func (s *SQLiteStore) DeleteMonth(ctx context.Context, monthID string) error {
	return s.deleteByID(ctx, "months", monthID)
}

func scanMonth(row rowScanner) (*models.Month, error) {
	month := &models.Month{}
	var active int
	if err := row.Scan(&month.ID, &month.MessID, &month.Name, &month.StartDate, &active, &month.CreatedAt); err != nil {
		return nil, err
	}
	month.IsActive = active != 0
	return month, nil
}
