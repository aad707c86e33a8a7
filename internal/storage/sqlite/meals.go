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

const mealColumns = `id, month_id, user_id, date, breakfast, lunch, dinner, updated_at`

// UpsertMeal inserts the meal or replaces the quantities of the existing
// (month, user, date) row. meal.ID is set to the stored row's ID.
func (s *SQLiteStore) UpsertMeal(ctx context.Context, meal *models.Meal) error {
	if meal.ID == "" {
		meal.ID = uuid.New().String()
	}
	meal.UpdatedAt = time.Now().Unix()

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO meals (`+mealColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (month_id, user_id, date) DO UPDATE SET
			breakfast = excluded.breakfast,
			lunch = excluded.lunch,
			dinner = excluded.dinner,
			updated_at = excluded.updated_at
		 RETURNING id`,
		meal.ID, meal.MonthID, meal.UserID, meal.Date,
		meal.Breakfast, meal.Lunch, meal.Dinner, meal.UpdatedAt,
	).Scan(&meal.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert meal: %w", err)
	}
	return nil
}

// GetMeal retrieves a meal row by ID.
func (s *SQLiteStore) GetMeal(ctx context.Context, mealID string) (*models.Meal, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+mealColumns+" FROM meals WHERE id = ?", mealID)
	meal, err := scanMeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: meal %s", storage.ErrNotFound, mealID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}
	return meal, nil
}

// DeleteMeal removes a meal row.
func (s *SQLiteStore) DeleteMeal(ctx context.Context, mealID string) error {
	return s.deleteByID(ctx, "meals", mealID)
}

// ListMeals returns every meal row of the month ordered by date.
func (s *SQLiteStore) ListMeals(ctx context.Context, monthID string) ([]*models.Meal, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+mealColumns+" FROM meals WHERE month_id = ? ORDER BY date, user_id",
		monthID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	defer rows.Close()

	var meals []*models.Meal
	for rows.Next() {
		meal, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		meals = append(meals, meal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meals: %w", err)
	}
	return meals, nil
}

func scanMeal(row rowScanner) (*models.Meal, error) {
	meal := &models.Meal{}
	err := row.Scan(&meal.ID, &meal.MonthID, &meal.UserID, &meal.Date,
		&meal.Breakfast, &meal.Lunch, &meal.Dinner, &meal.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return meal, nil
}
