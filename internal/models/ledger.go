package models

// ExpenseCategory decides how an expense is charged to members.
type ExpenseCategory string

const (
	// CategoryMeal expenses are absorbed into the month's meal rate.
	CategoryMeal ExpenseCategory = "meal"
	// CategoryShared expenses are split equally across selected members.
	CategoryShared ExpenseCategory = "shared"
	// CategoryIndividual expenses are charged in full to one member.
	CategoryIndividual ExpenseCategory = "individual"
)

// Valid reports whether c is one of the known categories.
func (c ExpenseCategory) Valid() bool {
	switch c {
	case CategoryMeal, CategoryShared, CategoryIndividual:
		return true
	}
	return false
}

// Meal is one member's meal count for one date. Quantities have half-unit resolution.
type Meal struct {
	ID        string
	MonthID   string
	UserID    string
	Date      string // YYYY-MM-DD
	Breakfast float64
	Lunch     float64
	Dinner    float64
	UpdatedAt int64
}

// Units returns the total meal units of the row.
func (m *Meal) Units() float64 {
	return m.Breakfast + m.Lunch + m.Dinner
}

// Expense is money spent out of the mess reserve.
type Expense struct {
	ID       string
	MonthID  string
	Date     string // YYYY-MM-DD
	Amount   float64
	Category ExpenseCategory
	Details  string

	// Shoppers are the user IDs who did the shopping (meal expenses only).
	Shoppers []string

	// Allocations are the per-member shares (shared and individual expenses only).
	Allocations []Allocation

	CreatedBy string
	CreatedAt int64
}

// Allocation records how much of a shared or individual expense one member owes.
// The rows of one expense sum to the expense amount.
type Allocation struct {
	ExpenseID string
	UserID    string
	Amount    float64
}

// Deposit is money a member paid into the mess reserve.
type Deposit struct {
	ID        string
	MonthID   string
	UserID    string
	Amount    float64
	Date      string // YYYY-MM-DD
	Details   string
	CreatedBy string
	CreatedAt int64
}
