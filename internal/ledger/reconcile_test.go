package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/messmate/internal/models"
)

const tolerance = 1e-6

func members(ids ...string) []MemberRow {
	rows := make([]MemberRow, len(ids))
	for i, id := range ids {
		rows[i] = MemberRow{UserID: id, Name: id, Role: models.RoleMember}
	}
	return rows
}

func findSummary(t *testing.T, res *Result, userID string) MemberSummary {
	t.Helper()
	for _, s := range res.MemberSummaries {
		if s.UserID == userID {
			return s
		}
	}
	t.Fatalf("no summary for %s", userID)
	return MemberSummary{}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name         string
		input        Input
		validateFunc func(t *testing.T, res *Result)
	}{
		{
			name: "no meals gives zero meal rate",
			input: Input{
				Members:  members("alice"),
				Expenses: []ExpenseRow{{Date: "2026-10-01", Amount: 500, Category: models.CategoryMeal}},
			},
			validateFunc: func(t *testing.T, res *Result) {
				assert.Equal(t, 0.0, res.MealRate)
				assert.Equal(t, 0.0, res.TotalMeals)
				alice := findSummary(t, res, "alice")
				assert.Equal(t, 0.0, alice.MealCost)
			},
		},
		{
			name: "meal rate over 100 units and 500 cost",
			input: Input{
				Members: members("alice", "bob"),
				Meals: []MealRow{
					{UserID: "alice", Date: "2026-10-01", Breakfast: 1, Lunch: 4, Dinner: 5},
					{UserID: "bob", Date: "2026-10-01", Breakfast: 30, Lunch: 30, Dinner: 30},
				},
				Expenses: []ExpenseRow{{Date: "2026-10-01", Amount: 500, Category: models.CategoryMeal}},
			},
			validateFunc: func(t *testing.T, res *Result) {
				assert.InDelta(t, 100.0, res.TotalMeals, tolerance)
				assert.InDelta(t, 5.0, res.MealRate, tolerance)
				alice := findSummary(t, res, "alice")
				assert.InDelta(t, 10.0, alice.TotalMeals, tolerance)
				assert.InDelta(t, 50.0, alice.MealCost, tolerance)
				bob := findSummary(t, res, "bob")
				assert.InDelta(t, 450.0, bob.MealCost, tolerance)
			},
		},
		{
			name: "mess balance nets every category",
			input: Input{
				Members: members("alice", "bob", "carol"),
				Deposits: []DepositRow{
					{UserID: "alice", Date: "2026-10-01", Amount: 600},
					{UserID: "bob", Date: "2026-10-02", Amount: 400},
				},
				Expenses: []ExpenseRow{
					{Date: "2026-10-03", Amount: 500, Category: models.CategoryMeal},
					{Date: "2026-10-04", Amount: 300, Category: models.CategoryShared},
				},
				Allocations: []AllocationRow{
					{UserID: "alice", Amount: 100, Category: models.CategoryShared},
					{UserID: "bob", Amount: 100, Category: models.CategoryShared},
					{UserID: "carol", Amount: 100, Category: models.CategoryShared},
				},
			},
			validateFunc: func(t *testing.T, res *Result) {
				assert.InDelta(t, 1000.0, res.TotalDeposit, tolerance)
				assert.InDelta(t, 800.0, res.TotalCost, tolerance)
				assert.InDelta(t, 200.0, res.MessBalance, tolerance)
				assert.InDelta(t, 500.0, res.Breakdown.MealCost, tolerance)
				assert.InDelta(t, 300.0, res.Breakdown.SharedCost, tolerance)
				assert.InDelta(t, 0.0, res.Breakdown.IndividualCost, tolerance)

				carol := findSummary(t, res, "carol")
				assert.InDelta(t, 100.0, carol.SharedCost, tolerance)
				assert.InDelta(t, -100.0, carol.Balance, tolerance)
			},
		},
		{
			name: "individual allocation is charged only to its member",
			input: Input{
				Members:  members("alice", "bob"),
				Deposits: []DepositRow{{UserID: "bob", Date: "2026-10-01", Amount: 250}},
				Expenses: []ExpenseRow{{Date: "2026-10-02", Amount: 120, Category: models.CategoryIndividual}},
				Allocations: []AllocationRow{
					{UserID: "bob", Amount: 120, Category: models.CategoryIndividual},
				},
			},
			validateFunc: func(t *testing.T, res *Result) {
				bob := findSummary(t, res, "bob")
				assert.InDelta(t, 120.0, bob.IndividualCost, tolerance)
				assert.InDelta(t, 120.0, bob.TotalCost, tolerance)
				assert.InDelta(t, 130.0, bob.Balance, tolerance)

				alice := findSummary(t, res, "alice")
				assert.InDelta(t, 0.0, alice.TotalCost, tolerance)
			},
		},
		{
			name: "my stats follow the viewer",
			input: Input{
				ViewerID: "bob",
				Members:  members("alice", "bob"),
				Meals: []MealRow{
					{UserID: "alice", Date: "2026-10-01", Lunch: 2},
					{UserID: "bob", Date: "2026-10-01", Lunch: 1.5, Dinner: 0.5},
				},
				Expenses: []ExpenseRow{{Date: "2026-10-01", Amount: 80, Category: models.CategoryMeal}},
				Deposits: []DepositRow{{UserID: "bob", Date: "2026-10-01", Amount: 100}},
			},
			validateFunc: func(t *testing.T, res *Result) {
				assert.InDelta(t, 2.0, res.MyStats.Meals, tolerance)
				assert.InDelta(t, 40.0, res.MyStats.Cost, tolerance)
				assert.InDelta(t, 100.0, res.MyStats.Deposit, tolerance)
				assert.InDelta(t, 60.0, res.MyStats.Balance, tolerance)
			},
		},
		{
			name: "viewer outside the member list gets zero stats",
			input: Input{
				ViewerID: "mallory",
				Members:  members("alice"),
				Deposits: []DepositRow{{UserID: "alice", Date: "2026-10-01", Amount: 100}},
			},
			validateFunc: func(t *testing.T, res *Result) {
				assert.Equal(t, MyStats{}, res.MyStats)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Reconcile(tt.input)
			require.NotNil(t, res)
			tt.validateFunc(t, res)
		})
	}
}

func TestReconcile_MemberInvariants(t *testing.T) {
	in := Input{
		Members: members("alice", "bob", "carol"),
		Meals: []MealRow{
			{UserID: "alice", Date: "2026-10-01", Breakfast: 1, Lunch: 1, Dinner: 1},
			{UserID: "bob", Date: "2026-10-01", Breakfast: 0.5, Lunch: 1, Dinner: 1},
			{UserID: "carol", Date: "2026-10-02", Lunch: 2, Dinner: 1.5},
			{UserID: "alice", Date: "2026-10-02", Dinner: 1},
		},
		Expenses: []ExpenseRow{
			{Date: "2026-10-01", Amount: 733.33, Category: models.CategoryMeal},
			{Date: "2026-10-02", Amount: 100, Category: models.CategoryShared},
			{Date: "2026-10-02", Amount: 45.5, Category: models.CategoryIndividual},
		},
		Deposits: []DepositRow{
			{UserID: "alice", Date: "2026-10-01", Amount: 500},
			{UserID: "bob", Date: "2026-10-01", Amount: 250.25},
			{UserID: "carol", Date: "2026-10-02", Amount: 300},
		},
		Allocations: []AllocationRow{
			{UserID: "alice", Amount: 100.0 / 3, Category: models.CategoryShared},
			{UserID: "bob", Amount: 100.0 / 3, Category: models.CategoryShared},
			{UserID: "carol", Amount: 100.0 / 3, Category: models.CategoryShared},
			{UserID: "carol", Amount: 45.5, Category: models.CategoryIndividual},
		},
	}

	res := Reconcile(in)

	var mealSum, mealCostSum float64
	for _, s := range res.MemberSummaries {
		assert.InDelta(t, s.MealCost+s.SharedCost+s.IndividualCost, s.TotalCost, tolerance, s.UserID)
		assert.InDelta(t, s.TotalDeposit-s.TotalCost, s.Balance, tolerance, s.UserID)
		mealSum += s.TotalMeals
		mealCostSum += s.MealCost
	}
	assert.InDelta(t, res.TotalMeals, mealSum, tolerance)
	assert.InDelta(t, res.Breakdown.MealCost, mealCostSum, tolerance)

	assert.InDelta(t,
		res.TotalDeposit-(res.Breakdown.MealCost+res.Breakdown.SharedCost+res.Breakdown.IndividualCost),
		res.MessBalance, tolerance)

	// Allocations never move the mess balance.
	withoutAllocations := in
	withoutAllocations.Allocations = nil
	assert.InDelta(t, res.MessBalance, Reconcile(withoutAllocations).MessBalance, tolerance)
}

func TestReconcile_FormerMembers(t *testing.T) {
	in := Input{
		Members: append(members("alice"), MemberRow{UserID: "bob", Name: "bob", Role: models.RoleMember, Former: true}),
		Meals: []MealRow{
			{UserID: "alice", Date: "2026-10-01", Lunch: 1},
			{UserID: "bob", Date: "2026-10-01", Lunch: 1, Dinner: 1},
		},
		Expenses: []ExpenseRow{{Date: "2026-10-01", Amount: 300, Category: models.CategoryMeal}},
		Deposits: []DepositRow{{UserID: "alice", Date: "2026-10-01", Amount: 500}},
	}

	res := Reconcile(in)

	assert.Equal(t, 1, res.TotalMembers)
	require.Len(t, res.MemberSummaries, 2)
	bob := findSummary(t, res, "bob")
	assert.True(t, bob.Former)
	assert.InDelta(t, -200, bob.Balance, tolerance)
	assert.InDelta(t, res.MessBalance, findSummary(t, res, "alice").Balance+bob.Balance, tolerance)
}

func TestReconcile_OrderIndependent(t *testing.T) {
	in := Input{
		Members: []MemberRow{
			{UserID: "u2", Name: "Bob"},
			{UserID: "u1", Name: "Alice"},
		},
		Meals: []MealRow{
			{UserID: "u1", Date: "2026-10-02", Lunch: 1},
			{UserID: "u2", Date: "2026-10-01", Lunch: 1},
		},
		Expenses: []ExpenseRow{
			{Date: "2026-10-02", Amount: 20, Category: models.CategoryMeal},
			{Date: "2026-10-01", Amount: 30, Category: models.CategoryMeal},
		},
	}
	reversed := Input{
		Members:  []MemberRow{in.Members[1], in.Members[0]},
		Meals:    []MealRow{in.Meals[1], in.Meals[0]},
		Expenses: []ExpenseRow{in.Expenses[1], in.Expenses[0]},
	}

	assert.Equal(t, Reconcile(in), Reconcile(reversed))

	res := Reconcile(in)
	require.Len(t, res.MemberSummaries, 2)
	assert.Equal(t, "Alice", res.MemberSummaries[0].Name)
	assert.Equal(t, "Bob", res.MemberSummaries[1].Name)
}

func TestDailyStats(t *testing.T) {
	stats := DailyStats(
		[]MealRow{
			{UserID: "alice", Date: "2026-10-03", Breakfast: 1, Lunch: 1},
			{UserID: "bob", Date: "2026-10-03", Dinner: 1.5},
			{UserID: "bob", Date: "2026-10-01", Lunch: 1},
		},
		[]ExpenseRow{
			{Date: "2026-10-02", Amount: 75, Category: models.CategoryMeal},
			{Date: "2026-10-03", Amount: 25, Category: models.CategoryShared},
		},
		[]DepositRow{
			{UserID: "alice", Date: "2026-10-01", Amount: 500},
		},
	)

	require.Len(t, stats, 3)
	assert.Equal(t, []string{"2026-10-01", "2026-10-02", "2026-10-03"},
		[]string{stats[0].Date, stats[1].Date, stats[2].Date})

	assert.InDelta(t, 1.0, stats[0].Meals, tolerance)
	assert.InDelta(t, 500.0, stats[0].Deposit, tolerance)
	assert.InDelta(t, 75.0, stats[1].Expense, tolerance)
	// Two meal rows on the same date collapse into one entry.
	assert.InDelta(t, 3.5, stats[2].Meals, tolerance)
	assert.InDelta(t, 25.0, stats[2].Expense, tolerance)
}

func TestDailyStats_Empty(t *testing.T) {
	stats := DailyStats(nil, nil, nil)
	assert.NotNil(t, stats)
	assert.Empty(t, stats)
}
