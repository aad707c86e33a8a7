package models

// Role is a member's role inside a mess.
type Role string

const (
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// MemberStatus tracks whether a join request has been approved.
type MemberStatus string

const (
	StatusPending MemberStatus = "pending"
	StatusActive  MemberStatus = "active"
)

// Mess represents a group of people sharing meals and expenses.
type Mess struct {
	// ID is the unique identifier for the mess (UUID format).
	ID string

	// Name is the display name of the mess (e.g., "Green Villa, 3rd floor").
	Name string

	// CreatedBy is the user ID of the founding manager.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the mess was created.
	CreatedAt int64
}

// Member is a user's membership in a mess.
//
// Exactly one active manager per mess is the intended invariant; the storage layer
// keeps it by changing managers only inside a single transaction.
type Member struct {
	MessID string
	UserID string

	// Name is the joined User.DisplayName. It is filled on reads and never stored.
	Name string

	Role   Role
	Status MemberStatus

	// Capability flags delegated by the manager. A manager implicitly has all of them.
	CanManageMeals   bool
	CanManageFinance bool
	CanManageMembers bool

	// JoinedAt is the Unix timestamp of the join request.
	JoinedAt int64
}

// IsManager reports whether the member holds the manager role.
func (m *Member) IsManager() bool {
	return m.Role == RoleManager
}

// IsActive reports whether the membership has been approved.
func (m *Member) IsActive() bool {
	return m.Status == StatusActive
}
