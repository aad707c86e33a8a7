// Package ledger computes a mess's monthly accounting from raw rows.
//
// Everything here is a pure function of its inputs: callers fetch the rows of one month
// and the package derives the meal rate, category totals, per-member balances and the
// mess balance. Nothing is persisted and input order never matters.
package ledger

import (
	"sort"

	"github.com/mmynk/messmate/internal/models"
)

// MealRow is one member's meal count on one date.
type MealRow struct {
	UserID    string
	Date      string
	Breakfast float64
	Lunch     float64
	Dinner    float64
}

func (m MealRow) units() float64 {
	return m.Breakfast + m.Lunch + m.Dinner
}

// ExpenseRow is an expense with the fields reconciliation needs.
type ExpenseRow struct {
	Date     string
	Amount   float64
	Category models.ExpenseCategory
}

// DepositRow is a deposit with the fields reconciliation needs.
type DepositRow struct {
	UserID string
	Date   string
	Amount float64
}

// MemberRow is a member joined to its display name.
type MemberRow struct {
	UserID string
	Name   string
	Role   models.Role

	// Former marks a user who left the mess but still owns rows in the month.
	Former bool
}

// AllocationRow is an allocation joined to its parent expense's category.
type AllocationRow struct {
	UserID   string
	Amount   float64
	Category models.ExpenseCategory
}

// Input is the full row set of one month.
type Input struct {
	MonthName string

	// ViewerID selects whose numbers go into Result.MyStats. May be empty.
	ViewerID string

	Meals       []MealRow
	Expenses    []ExpenseRow
	Deposits    []DepositRow
	Members     []MemberRow
	Allocations []AllocationRow
}

// Breakdown holds the month's expense totals per category.
type Breakdown struct {
	MealCost       float64 `json:"mealCost"`
	SharedCost     float64 `json:"sharedCost"`
	IndividualCost float64 `json:"individualCost"`
}

// MyStats is the viewer's own position.
type MyStats struct {
	Meals   float64 `json:"meals"`
	Deposit float64 `json:"deposit"`
	Cost    float64 `json:"cost"`
	Balance float64 `json:"balance"`
}

// MemberSummary is one active member's costs, deposits and balance.
type MemberSummary struct {
	UserID         string      `json:"userId"`
	Name           string      `json:"name"`
	Role           models.Role `json:"role"`
	TotalMeals     float64     `json:"totalMeals"`
	MealCost       float64     `json:"mealCost"`
	SharedCost     float64     `json:"sharedCost"`
	IndividualCost float64     `json:"individualCost"`
	TotalCost      float64     `json:"totalCost"`
	TotalDeposit   float64     `json:"totalDeposit"`
	Balance        float64     `json:"balance"` // Positive = in credit, negative = owes the mess
	Former         bool        `json:"former,omitempty"`
}

// DailyStat sums one calendar date's activity.
type DailyStat struct {
	Date    string  `json:"date"`
	Meals   float64 `json:"meals"`
	Expense float64 `json:"expense"`
	Deposit float64 `json:"deposit"`
}

// Result is the reconciled state of a month.
type Result struct {
	MonthName       string          `json:"monthName"`
	TotalMembers    int             `json:"totalMembers"`
	TotalMeals      float64         `json:"totalMeals"`
	MealRate        float64         `json:"mealRate"`
	TotalDeposit    float64         `json:"totalDeposit"`
	TotalCost       float64         `json:"totalCost"`
	MessBalance     float64         `json:"messBalance"`
	Breakdown       Breakdown       `json:"breakdown"`
	MyStats         MyStats         `json:"myStats"`
	MemberSummaries []MemberSummary `json:"memberSummaries"`
	DailyStats      []DailyStat     `json:"dailyStats"`
}

// Reconcile derives the month's accounting from its rows.
//
// Algorithm:
//   - mealRate = meal-category cost / total meal units (0 when no meals are recorded)
//   - messBalance = deposits - (meal + shared + individual costs)
//   - each member: mealCost = own units x mealRate, shared and individual costs come from
//     the member's allocation rows, balance = own deposits - total cost
//
// Shared and individual costs are netted against the mess balance and also billed to
// members through allocations: the reserve pays first, members repay it.
func Reconcile(in Input) *Result {
	res := &Result{
		MonthName:       in.MonthName,
		MemberSummaries: []MemberSummary{},
		DailyStats:      DailyStats(in.Meals, in.Expenses, in.Deposits),
	}

	unitsByUser := make(map[string]float64)
	for _, m := range in.Meals {
		u := m.units()
		res.TotalMeals += u
		unitsByUser[m.UserID] += u
	}

	for _, e := range in.Expenses {
		switch e.Category {
		case models.CategoryMeal:
			res.Breakdown.MealCost += e.Amount
		case models.CategoryShared:
			res.Breakdown.SharedCost += e.Amount
		case models.CategoryIndividual:
			res.Breakdown.IndividualCost += e.Amount
		}
	}

	if res.TotalMeals > 0 {
		res.MealRate = res.Breakdown.MealCost / res.TotalMeals
	}

	depositByUser := make(map[string]float64)
	for _, d := range in.Deposits {
		res.TotalDeposit += d.Amount
		depositByUser[d.UserID] += d.Amount
	}

	res.TotalCost = res.Breakdown.MealCost + res.Breakdown.SharedCost + res.Breakdown.IndividualCost
	res.MessBalance = res.TotalDeposit - res.TotalCost

	sharedByUser := make(map[string]float64)
	individualByUser := make(map[string]float64)
	for _, a := range in.Allocations {
		switch a.Category {
		case models.CategoryShared:
			sharedByUser[a.UserID] += a.Amount
		case models.CategoryIndividual:
			individualByUser[a.UserID] += a.Amount
		}
	}

	for _, m := range in.Members {
		s := MemberSummary{
			UserID:         m.UserID,
			Name:           m.Name,
			Role:           m.Role,
			TotalMeals:     unitsByUser[m.UserID],
			SharedCost:     sharedByUser[m.UserID],
			IndividualCost: individualByUser[m.UserID],
			TotalDeposit:   depositByUser[m.UserID],
			Former:         m.Former,
		}
		if !m.Former {
			res.TotalMembers++
		}
		s.MealCost = s.TotalMeals * res.MealRate
		s.TotalCost = s.MealCost + s.SharedCost + s.IndividualCost
		s.Balance = s.TotalDeposit - s.TotalCost
		res.MemberSummaries = append(res.MemberSummaries, s)

		if in.ViewerID != "" && m.UserID == in.ViewerID {
			res.MyStats = MyStats{
				Meals:   s.TotalMeals,
				Deposit: s.TotalDeposit,
				Cost:    s.TotalCost,
				Balance: s.Balance,
			}
		}
	}

	sort.Slice(res.MemberSummaries, func(i, j int) bool {
		a, b := res.MemberSummaries[i], res.MemberSummaries[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.UserID < b.UserID
	})

	return res
}

// DailyStats groups rows by date string and returns them in ascending date order.
func DailyStats(meals []MealRow, expenses []ExpenseRow, deposits []DepositRow) []DailyStat {
	byDate := make(map[string]*DailyStat)
	day := func(date string) *DailyStat {
		d, ok := byDate[date]
		if !ok {
			d = &DailyStat{Date: date}
			byDate[date] = d
		}
		return d
	}

	for _, m := range meals {
		day(m.Date).Meals += m.units()
	}
	for _, e := range expenses {
		day(e.Date).Expense += e.Amount
	}
	for _, d := range deposits {
		day(d.Date).Deposit += d.Amount
	}

	stats := make([]DailyStat, 0, len(byDate))
	for _, d := range byDate {
		stats = append(stats, *d)
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Date < stats[j].Date
	})
	return stats
}
