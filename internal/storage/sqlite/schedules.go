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

// CreateSchedules persists schedules and their shoppers. Either all are stored or none.
func (s *SQLiteStore) CreateSchedules(ctx context.Context, schedules []*models.BazaarSchedule) error {
	now := time.Now().Unix()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, sc := range schedules {
			if sc.ID == "" {
				sc.ID = uuid.New().String()
			}
			if sc.CreatedAt == 0 {
				sc.CreatedAt = now
			}

			_, err := tx.ExecContext(ctx,
				"INSERT INTO bazaar_schedules (id, month_id, date, note, created_at) VALUES (?, ?, ?, ?, ?)",
				sc.ID, sc.MonthID, sc.Date, sc.Note, sc.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert schedule: %w", err)
			}

			for _, userID := range sc.Shoppers {
				_, err = tx.ExecContext(ctx,
					"INSERT INTO schedule_shoppers (schedule_id, user_id) VALUES (?, ?)",
					sc.ID, userID,
				)
				if err != nil {
					return fmt.Errorf("failed to insert schedule shopper: %w", err)
				}
			}
		}
		return nil
	})
}

// GetSchedule retrieves a schedule with its shoppers.
func (s *SQLiteStore) GetSchedule(ctx context.Context, scheduleID string) (*models.BazaarSchedule, error) {
	sc := &models.BazaarSchedule{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, month_id, date, note, created_at FROM bazaar_schedules WHERE id = ?",
		scheduleID,
	).Scan(&sc.ID, &sc.MonthID, &sc.Date, &sc.Note, &sc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: schedule %s", storage.ErrNotFound, scheduleID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	byID := map[string]*models.BazaarSchedule{sc.ID: sc}
	if err := s.loadScheduleShoppers(ctx, "ss.schedule_id = ?", scheduleID, byID); err != nil {
		return nil, err
	}
	return sc, nil
}

// ListSchedules returns the month's schedules in date order.
func (s *SQLiteStore) ListSchedules(ctx context.Context, monthID string) ([]*models.BazaarSchedule, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, month_id, date, note, created_at FROM bazaar_schedules WHERE month_id = ? ORDER BY date, created_at",
		monthID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	var schedules []*models.BazaarSchedule
	byID := make(map[string]*models.BazaarSchedule)
	for rows.Next() {
		sc := &models.BazaarSchedule{}
		if err := rows.Scan(&sc.ID, &sc.MonthID, &sc.Date, &sc.Note, &sc.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, sc)
		byID[sc.ID] = sc
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedules: %w", err)
	}

	if err := s.loadScheduleShoppers(ctx, "bs.month_id = ?", monthID, byID); err != nil {
		return nil, err
	}
	return schedules, nil
}

// DeleteSchedule removes a schedule and its shoppers.
func (s *SQLiteStore) DeleteSchedule(ctx context.Context, scheduleID string) error {
	return s.deleteByID(ctx, "bazaar_schedules", scheduleID)
}

func (s *SQLiteStore) loadScheduleShoppers(ctx context.Context, where, arg string, byID map[string]*models.BazaarSchedule) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ss.schedule_id, ss.user_id
		 FROM schedule_shoppers ss JOIN bazaar_schedules bs ON bs.id = ss.schedule_id
		 WHERE `+where+` ORDER BY ss.user_id`,
		arg,
	)
	if err != nil {
		return fmt.Errorf("failed to get schedule shoppers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var scheduleID, userID string
		if err := rows.Scan(&scheduleID, &userID); err != nil {
			return fmt.Errorf("failed to scan schedule shopper: %w", err)
		}
		if sc, ok := byID[scheduleID]; ok {
			sc.Shoppers = append(sc.Shoppers, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate schedule shoppers: %w", err)
	}
	return nil
}
