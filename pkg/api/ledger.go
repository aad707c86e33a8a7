package api

import "github.com/mmynk/messmate/internal/ledger"

type Meal struct {
	ID        string  `json:"id"`
	MonthID   string  `json:"monthId"`
	UserID    string  `json:"userId"`
	Date      string  `json:"date"`
	Breakfast float64 `json:"breakfast"`
	Lunch     float64 `json:"lunch"`
	Dinner    float64 `json:"dinner"`
	UpdatedAt int64   `json:"updatedAt"`
}

type UpsertMealRequest struct {
	MonthID string `json:"monthId"`
	// UserID defaults to the caller.
	UserID    string  `json:"userId,omitempty"`
	Date      string  `json:"date"`
	Breakfast float64 `json:"breakfast"`
	Lunch     float64 `json:"lunch"`
	Dinner    float64 `json:"dinner"`
}

type MealResponse struct {
	Meal *Meal `json:"meal"`
}

type DeleteMealRequest struct {
	MealID string `json:"mealId"`
}

type ListMealsRequest struct {
	MonthID string `json:"monthId"`
	UserID  string `json:"userId,omitempty"`
}

type ListMealsResponse struct {
	Meals []*Meal `json:"meals"`
}

type Deposit struct {
	ID        string  `json:"id"`
	MonthID   string  `json:"monthId"`
	UserID    string  `json:"userId"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
	Details   string  `json:"details"`
	CreatedBy string  `json:"createdBy"`
	CreatedAt int64   `json:"createdAt"`
}

type AddDepositRequest struct {
	MonthID string  `json:"monthId"`
	UserID  string  `json:"userId"`
	Amount  float64 `json:"amount"`
	Date    string  `json:"date"`
	Details string  `json:"details"`
}

type DepositResponse struct {
	Deposit *Deposit `json:"deposit"`
}

type DeleteDepositRequest struct {
	DepositID string `json:"depositId"`
}

type ListDepositsResponse struct {
	Deposits []*Deposit `json:"deposits"`
}

type Allocation struct {
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
}

type Expense struct {
	ID          string        `json:"id"`
	MonthID     string        `json:"monthId"`
	Date        string        `json:"date"`
	Amount      float64       `json:"amount"`
	Category    string        `json:"category"`
	Details     string        `json:"details"`
	Shoppers    []string      `json:"shoppers"`
	Allocations []*Allocation `json:"allocations"`
	// InvolvedMembers lists display names of the allocation targets, or of the
	// shoppers for meal expenses.
	InvolvedMembers []string `json:"involvedMembers"`
	CreatedBy       string   `json:"createdBy"`
	CreatedAt       int64    `json:"createdAt"`
}

type AddExpenseRequest struct {
	MonthID  string  `json:"monthId"`
	Date     string  `json:"date"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Details  string  `json:"details"`

	Shoppers     []string `json:"shoppers,omitempty"`
	SharedWith   []string `json:"sharedWith,omitempty"`
	TargetMember string   `json:"targetMember,omitempty"`
}

type ExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type DashboardResponse struct {
	Month     *Month         `json:"month"`
	Dashboard *ledger.Result `json:"dashboard"`
}

// SettlementResponse lists the payments that bring every balance of the month to zero.
type SettlementResponse struct {
	Month       *Month            `json:"month"`
	MessBalance float64           `json:"messBalance"`
	Transfers   []ledger.Transfer `json:"transfers"`
}
