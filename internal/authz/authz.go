// Package authz decides whether a mess member may perform an action.
package authz

import (
	"errors"

	"github.com/mmynk/messmate/internal/models"
)

var (
	ErrNotMember        = errors.New("not an active member of this mess")
	ErrPermissionDenied = errors.New("permission denied")
)

// Capability is an action class a manager can delegate.
type Capability int

const (
	// CapView allows reading the mess's ledger. Every active member has it.
	CapView Capability = iota
	// CapMeals allows recording meals for other members and managing bazaar schedules.
	CapMeals
	// CapFinance allows recording deposits and expenses.
	CapFinance
	// CapMembers allows approving and removing members.
	CapMembers
	// CapManager is reserved to the manager: months, permissions, manager transfer.
	CapManager
)

func (c Capability) String() string {
	switch c {
	case CapView:
		return "view"
	case CapMeals:
		return "manage_meals"
	case CapFinance:
		return "manage_finance"
	case CapMembers:
		return "manage_members"
	case CapManager:
		return "manager"
	}
	return "unknown"
}

// Authorize returns nil when actor may use capability c in the given mess.
// The manager may do everything; other active members need the matching flag.
func Authorize(actor *models.Member, messID string, c Capability) error {
	if actor == nil || actor.MessID != messID || !actor.IsActive() {
		return ErrNotMember
	}
	if actor.IsManager() {
		return nil
	}

	switch c {
	case CapView:
		return nil
	case CapMeals:
		if actor.CanManageMeals {
			return nil
		}
	case CapFinance:
		if actor.CanManageFinance {
			return nil
		}
	case CapMembers:
		if actor.CanManageMembers {
			return nil
		}
	}
	return ErrPermissionDenied
}
