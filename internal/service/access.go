package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/messmate/internal/authz"
	"github.com/mmynk/messmate/internal/middleware"
	"github.com/mmynk/messmate/internal/models"
	"github.com/mmynk/messmate/internal/storage"
)

const dateLayout = "2006-01-02"

// access resolves the caller's membership and checks it through authz.Authorize.
type access struct {
	store storage.Store
}

func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", ErrUnauthenticated
	}
	return userID, nil
}

// member loads the caller's membership in messID and authorizes c.
func (a access) member(ctx context.Context, messID string, c authz.Capability) (*models.Member, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if messID == "" {
		return nil, invalid("mess_id", "is required")
	}

	actor, err := a.store.GetMember(ctx, messID, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if err := authz.Authorize(actor, messID, c); err != nil {
		return nil, err
	}
	return actor, nil
}

// month loads monthID and authorizes c on its mess. With writable set the month
// must also be active.
func (a access) month(ctx context.Context, monthID string, c authz.Capability, writable bool) (*models.Month, *models.Member, error) {
	if monthID == "" {
		return nil, nil, invalid("month_id", "is required")
	}
	month, err := a.store.GetMonth(ctx, monthID)
	if err != nil {
		return nil, nil, err
	}
	actor, err := a.member(ctx, month.MessID, c)
	if err != nil {
		return nil, nil, err
	}
	if writable && !month.IsActive {
		return nil, nil, ErrNoActiveMonth
	}
	return month, actor, nil
}

// activeMember returns userID's membership in messID or a validation error naming field.
func (a access) activeMember(ctx context.Context, messID, userID, field string) (*models.Member, error) {
	if userID == "" {
		return nil, invalid(field, "is required")
	}
	m, err := a.store.GetMember(ctx, messID, userID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !m.IsActive()) {
		return nil, invalid(field, fmt.Sprintf("%s is not an active member of this mess", userID))
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func validateDate(field, date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return invalid(field, "must be a date in YYYY-MM-DD form")
	}
	return nil
}

// memberNames maps user IDs to display names for every member of the mess.
func (a access) memberNames(ctx context.Context, messID string) (map[string]string, error) {
	members, err := a.store.ListMembers(ctx, messID, "")
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.UserID] = m.Name
	}
	return names, nil
}
