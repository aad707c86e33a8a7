package service

import (
	"github.com/mmynk/messmate/internal/models"
	"github.com/mmynk/messmate/pkg/api"
)

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toAPIMess(m *models.Mess) *api.Mess {
	return &api.Mess{
		ID:        m.ID,
		Name:      m.Name,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}

func toAPIMember(m *models.Member) *api.Member {
	return &api.Member{
		MessID:           m.MessID,
		UserID:           m.UserID,
		Name:             m.Name,
		Role:             string(m.Role),
		Status:           string(m.Status),
		CanManageMeals:   m.CanManageMeals,
		CanManageFinance: m.CanManageFinance,
		CanManageMembers: m.CanManageMembers,
		JoinedAt:         m.JoinedAt,
	}
}

func toAPIMonth(m *models.Month) *api.Month {
	return &api.Month{
		ID:        m.ID,
		MessID:    m.MessID,
		Name:      m.Name,
		StartDate: m.StartDate,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
	}
}

func toAPIMeal(m *models.Meal) *api.Meal {
	return &api.Meal{
		ID:        m.ID,
		MonthID:   m.MonthID,
		UserID:    m.UserID,
		Date:      m.Date,
		Breakfast: m.Breakfast,
		Lunch:     m.Lunch,
		Dinner:    m.Dinner,
		UpdatedAt: m.UpdatedAt,
	}
}

func toAPIDeposit(d *models.Deposit, names map[string]string) *api.Deposit {
	return &api.Deposit{
		ID:        d.ID,
		MonthID:   d.MonthID,
		UserID:    d.UserID,
		Name:      names[d.UserID],
		Amount:    d.Amount,
		Date:      d.Date,
		Details:   d.Details,
		CreatedBy: d.CreatedBy,
		CreatedAt: d.CreatedAt,
	}
}

// toAPIExpense derives the involved member names from the allocation targets, or
// from the shoppers of a meal expense.
func toAPIExpense(e *models.Expense, names map[string]string) *api.Expense {
	out := &api.Expense{
		ID:              e.ID,
		MonthID:         e.MonthID,
		Date:            e.Date,
		Amount:          e.Amount,
		Category:        string(e.Category),
		Details:         e.Details,
		Shoppers:        append([]string{}, e.Shoppers...),
		Allocations:     make([]*api.Allocation, 0, len(e.Allocations)),
		InvolvedMembers: []string{},
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
	}
	for _, a := range e.Allocations {
		out.Allocations = append(out.Allocations, &api.Allocation{UserID: a.UserID, Amount: a.Amount})
	}

	involved := e.Shoppers
	if e.Category != models.CategoryMeal {
		involved = make([]string, 0, len(e.Allocations))
		for _, a := range e.Allocations {
			involved = append(involved, a.UserID)
		}
	}
	for _, id := range involved {
		out.InvolvedMembers = append(out.InvolvedMembers, displayName(names, id))
	}
	return out
}

func toAPISchedule(s *models.BazaarSchedule, names map[string]string) *api.Schedule {
	out := &api.Schedule{
		ID:           s.ID,
		MonthID:      s.MonthID,
		Date:         s.Date,
		Note:         s.Note,
		Shoppers:     append([]string{}, s.Shoppers...),
		ShopperNames: make([]string, 0, len(s.Shoppers)),
		CreatedAt:    s.CreatedAt,
	}
	for _, id := range s.Shoppers {
		out.ShopperNames = append(out.ShopperNames, displayName(names, id))
	}
	return out
}

// displayName falls back to the ID for users who have since left the mess.
func displayName(names map[string]string, userID string) string {
	if name, ok := names[userID]; ok {
		return name
	}
	return userID
}
