package service

import (
	"context"
	"log/slog"
	"math"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/messmate/internal/authz"
	"github.com/mmynk/messmate/internal/models"
	"github.com/mmynk/messmate/internal/rpc"
	"github.com/mmynk/messmate/internal/storage"
	"github.com/mmynk/messmate/pkg/api"
)

// MealService records members' daily meal counts.
type MealService struct {
	store  storage.Store
	access access
}

// NewMealService creates a new MealService with the given storage backend.
func NewMealService(store storage.Store) *MealService {
	return &MealService{store: store, access: access{store: store}}
}

// NewMealServiceHandler mounts s under the MealService path.
func NewMealServiceHandler(s *MealService, opts ...connect.HandlerOption) (string, http.Handler) {
	return rpc.NewServiceHandler(api.MealServiceName,
		rpc.Unary(api.MealServiceUpsertMealProcedure, s.UpsertMeal, opts...),
		rpc.Unary(api.MealServiceDeleteMealProcedure, s.DeleteMeal, opts...),
		rpc.Unary(api.MealServiceListMealsProcedure, s.ListMeals, opts...),
	)
}

// UpsertMeal sets a member's meal counts for one date. Members edit their own row;
// editing someone else's needs the meals capability.
func (s *MealService) UpsertMeal(ctx context.Context, req *connect.Request[api.UpsertMealRequest]) (*connect.Response[api.MealResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	target := req.Msg.UserID
	if target == "" {
		target = userID
	}

	c := authz.CapView
	if target != userID {
		c = authz.CapMeals
	}
	month, _, err := s.access.month(ctx, req.Msg.MonthID, c, true)
	if err != nil {
		return nil, toConnectError(err)
	}
	if _, err := s.access.activeMember(ctx, month.MessID, target, "user_id"); err != nil {
		return nil, toConnectError(err)
	}
	if err := validateDate("date", req.Msg.Date); err != nil {
		return nil, toConnectError(err)
	}
	for _, q := range []struct {
		field string
		value float64
	}{
		{"breakfast", req.Msg.Breakfast},
		{"lunch", req.Msg.Lunch},
		{"dinner", req.Msg.Dinner},
	} {
		if err := validateQuantity(q.field, q.value); err != nil {
			return nil, toConnectError(err)
		}
	}

	meal := &models.Meal{
		MonthID:   month.ID,
		UserID:    target,
		Date:      req.Msg.Date,
		Breakfast: req.Msg.Breakfast,
		Lunch:     req.Msg.Lunch,
		Dinner:    req.Msg.Dinner,
	}
	if err := s.store.UpsertMeal(ctx, meal); err != nil {
		slog.Error("UpsertMeal failed", "month_id", month.ID, "user_id", target, "error", err)
		return nil, toConnectError(err)
	}

	slog.Debug("Meal recorded", "month_id", month.ID, "user_id", target, "date", meal.Date, "units", meal.Units())
	return connect.NewResponse(&api.MealResponse{Meal: toAPIMeal(meal)}), nil
}

// DeleteMeal removes a meal row.
func (s *MealService) DeleteMeal(ctx context.Context, req *connect.Request[api.DeleteMealRequest]) (*connect.Response[api.Empty], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	meal, err := s.store.GetMeal(ctx, req.Msg.MealID)
	if err != nil {
		return nil, toConnectError(err)
	}

	c := authz.CapView
	if meal.UserID != userID {
		c = authz.CapMeals
	}
	if _, _, err := s.access.month(ctx, meal.MonthID, c, true); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.DeleteMeal(ctx, meal.ID); err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Meal deleted", "meal_id", meal.ID, "by", userID)
	return connect.NewResponse(&api.Empty{}), nil
}

// ListMeals returns the month's meal rows, optionally for one member.
func (s *MealService) ListMeals(ctx context.Context, req *connect.Request[api.ListMealsRequest]) (*connect.Response[api.ListMealsResponse], error) {
	month, _, err := s.access.month(ctx, req.Msg.MonthID, authz.CapView, false)
	if err != nil {
		return nil, toConnectError(err)
	}

	meals, err := s.store.ListMeals(ctx, month.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &api.ListMealsResponse{Meals: make([]*api.Meal, 0, len(meals))}
	for _, m := range meals {
		if req.Msg.UserID != "" && m.UserID != req.Msg.UserID {
			continue
		}
		resp.Meals = append(resp.Meals, toAPIMeal(m))
	}
	return connect.NewResponse(resp), nil
}

// validateQuantity accepts non-negative counts in steps of one half.
func validateQuantity(field string, q float64) error {
	if q < 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return invalid(field, "must not be negative")
	}
	if q*2 != math.Trunc(q*2) {
		return invalid(field, "must be a multiple of 0.5")
	}
	return nil
}
