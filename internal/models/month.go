package models

// Month is one accounting period for a mess.
type Month struct {
	ID     string
	MessID string

	// Name is a label such as "October 2026".
	Name string

	// StartDate is the first day of the period in YYYY-MM-DD form.
	StartDate string

	// IsActive marks the period new rows are recorded against. At most one month per
	// mess is active.
	IsActive bool

	CreatedAt int64
}
