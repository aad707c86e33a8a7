package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/messmate/internal/models"
)

// ValidationError reports a missing or malformed field of a write request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

var (
	ErrInvalidAmount             = &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	ErrInvalidCategory           = &ValidationError{Field: "category", Reason: "must be one of meal, shared, individual"}
	ErrShoppersRequired          = &ValidationError{Field: "shoppers", Reason: "select at least one shopper for a meal expense"}
	ErrAllocationTargetsRequired = &ValidationError{Field: "shared_with", Reason: "select at least one member to split a shared expense"}
	ErrTargetMemberRequired      = &ValidationError{Field: "target_member", Reason: "select the member an individual expense is charged to"}
)

// InsufficientBalanceError is returned when the mess reserve cannot cover a new expense.
type InsufficientBalanceError struct {
	Balance float64
	Amount  float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: current mess balance is %s",
		decimal.NewFromFloat(e.Balance).StringFixed(2))
}

// ExpenseRequest is a new expense before it is written.
type ExpenseRequest struct {
	Amount   float64
	Category models.ExpenseCategory

	// Shoppers is required for meal expenses.
	Shoppers []string

	// SharedWith is the member subset a shared expense is split across.
	SharedWith []string

	// TargetMember receives the full amount of an individual expense.
	TargetMember string
}

// PlanAllocations validates req and returns the allocation rows to store with it.
//
// Meal expenses get no rows: their cost reaches members through the meal rate. Shared
// expenses are split equally, amount/n per selected member. Individual expenses get a
// single row for the full amount.
func PlanAllocations(req ExpenseRequest) ([]models.Allocation, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	switch req.Category {
	case models.CategoryMeal:
		if len(UniqueIDs(req.Shoppers)) == 0 {
			return nil, ErrShoppersRequired
		}
		return nil, nil

	case models.CategoryShared:
		members := UniqueIDs(req.SharedWith)
		if len(members) == 0 {
			return nil, ErrAllocationTargetsRequired
		}
		splitAmount := req.Amount / float64(len(members))
		allocations := make([]models.Allocation, len(members))
		for i, userID := range members {
			allocations[i] = models.Allocation{UserID: userID, Amount: splitAmount}
		}
		return allocations, nil

	case models.CategoryIndividual:
		if req.TargetMember == "" {
			return nil, ErrTargetMemberRequired
		}
		return []models.Allocation{{UserID: req.TargetMember, Amount: req.Amount}}, nil
	}

	return nil, ErrInvalidCategory
}

// balanceEpsilon absorbs float noise from summing many amounts.
const balanceEpsilon = 1e-9

// CheckBalance requires totalDeposit - totalExpenses >= amount.
func CheckBalance(totalDeposit, totalExpenses, amount float64) error {
	balance := totalDeposit - totalExpenses
	if balance+balanceEpsilon < amount {
		return &InsufficientBalanceError{Balance: balance, Amount: amount}
	}
	return nil
}

// UniqueIDs drops empty and repeated IDs, keeping first-seen order.
func UniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
