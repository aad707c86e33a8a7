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

const memberColumns = `m.mess_id, m.user_id, u.display_name, m.role, m.status,
	m.can_manage_meals, m.can_manage_finance, m.can_manage_members, m.joined_at`

// CreateMess persists a new mess together with its founding manager.
func (s *SQLiteStore) CreateMess(ctx context.Context, mess *models.Mess, manager *models.Member) error {
	// Generate ID if not set
	if mess.ID == "" {
		mess.ID = uuid.New().String()
	}
	if mess.CreatedAt == 0 {
		mess.CreatedAt = time.Now().Unix()
	}
	manager.MessID = mess.ID

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO messes (id, name, created_by, created_at) VALUES (?, ?, ?, ?)",
			mess.ID, mess.Name, mess.CreatedBy, mess.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert mess: %w", err)
		}
		return insertMember(ctx, tx, manager)
	})
}

// GetMess retrieves a mess by ID.
func (s *SQLiteStore) GetMess(ctx context.Context, messID string) (*models.Mess, error) {
	mess := &models.Mess{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_by, created_at FROM messes WHERE id = ?",
		messID,
	).Scan(&mess.ID, &mess.Name, &mess.CreatedBy, &mess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: mess %s", storage.ErrNotFound, messID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mess: %w", err)
	}
	return mess, nil
}

// ListMessesForUser returns every mess the user has a membership in, pending or active.
func (s *SQLiteStore) ListMessesForUser(ctx context.Context, userID string) ([]*models.Mess, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ms.id, ms.name, ms.created_by, ms.created_at
		 FROM messes ms JOIN members m ON m.mess_id = ms.id
		 WHERE m.user_id = ? ORDER BY ms.created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messes: %w", err)
	}
	defer rows.Close()

	var messes []*models.Mess
	for rows.Next() {
		mess := &models.Mess{}
		if err := rows.Scan(&mess.ID, &mess.Name, &mess.CreatedBy, &mess.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mess: %w", err)
		}
		messes = append(messes, mess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messes: %w", err)
	}
	return messes, nil
}

// AddMember inserts a membership. It fails with storage.ErrAlreadyExists when the user
// already belongs to the mess.
func (s *SQLiteStore) AddMember(ctx context.Context, member *models.Member) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM members WHERE mess_id = ? AND user_id = ?",
			member.MessID, member.UserID,
		).Scan(&exists)
		if err == nil {
			return fmt.Errorf("%w: member %s", storage.ErrAlreadyExists, member.UserID)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		return insertMember(ctx, tx, member)
	})
}

func insertMember(ctx context.Context, tx *sql.Tx, member *models.Member) error {
	if member.JoinedAt == 0 {
		member.JoinedAt = time.Now().Unix()
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO members (mess_id, user_id, role, status, can_manage_meals,
			can_manage_finance, can_manage_members, joined_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		member.MessID, member.UserID, string(member.Role), string(member.Status),
		boolToInt(member.CanManageMeals), boolToInt(member.CanManageFinance),
		boolToInt(member.CanManageMembers), member.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// GetMember retrieves one membership joined to the user's display name.
func (s *SQLiteStore) GetMember(ctx context.Context, messID, userID string) (*models.Member, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+`
		 FROM members m JOIN users u ON u.id = m.user_id
		 WHERE m.mess_id = ? AND m.user_id = ?`,
		messID, userID,
	)
	member, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: member %s", storage.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// ListMembers returns the mess's members ordered by display name.
func (s *SQLiteStore) ListMembers(ctx context.Context, messID string, status models.MemberStatus) ([]*models.Member, error) {
	query := `SELECT ` + memberColumns + `
		FROM members m JOIN users u ON u.id = m.user_id
		WHERE m.mess_id = ?`
	args := []any{messID}
	if status != "" {
		query += " AND m.status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY u.display_name, m.user_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// UpdateMember writes role, status and capability flags of an existing membership.
func (s *SQLiteStore) UpdateMember(ctx context.Context, member *models.Member) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE members SET role = ?, status = ?, can_manage_meals = ?,
			can_manage_finance = ?, can_manage_members = ?
		 WHERE mess_id = ? AND user_id = ?`,
		string(member.Role), string(member.Status),
		boolToInt(member.CanManageMeals), boolToInt(member.CanManageFinance),
		boolToInt(member.CanManageMembers),
		member.MessID, member.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: member %s", storage.ErrNotFound, member.UserID)
	}
	return nil
}

// RemoveMember deletes a membership.
func (s *SQLiteStore) RemoveMember(ctx context.Context, messID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM members WHERE mess_id = ? AND user_id = ?",
		messID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: member %s", storage.ErrNotFound, userID)
	}
	return nil
}

// TransferManager hands the manager role from one active member to another.
// Both updates commit together or not at all.
func (s *SQLiteStore) TransferManager(ctx context.Context, messID, fromUserID, toUserID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE members SET role = 'manager', can_manage_meals = 1,
				can_manage_finance = 1, can_manage_members = 1
			 WHERE mess_id = ? AND user_id = ? AND status = 'active'`,
			messID, toUserID,
		)
		if err != nil {
			return fmt.Errorf("failed to promote member: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: active member %s", storage.ErrNotFound, toUserID)
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE members SET role = 'member'
			 WHERE mess_id = ? AND user_id = ? AND role = 'manager'`,
			messID, fromUserID,
		)
		if err != nil {
			return fmt.Errorf("failed to demote manager: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: manager %s", storage.ErrNotFound, fromUserID)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*models.Member, error) {
	member := &models.Member{}
	var role, status string
	var meals, finance, membersFlag int
	err := row.Scan(
		&member.MessID, &member.UserID, &member.Name, &role, &status,
		&meals, &finance, &membersFlag, &member.JoinedAt,
	)
	if err != nil {
		return nil, err
	}
	member.Role = models.Role(role)
	member.Status = models.MemberStatus(status)
	member.CanManageMeals = meals != 0
	member.CanManageFinance = finance != 0
	member.CanManageMembers = membersFlag != 0
	return member, nil
}
