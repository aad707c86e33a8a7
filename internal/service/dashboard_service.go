package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/messmate/internal/authz"
	"github.com/mmynk/messmate/internal/ledger"
	"github.com/mmynk/messmate/internal/models"
	"github.com/mmynk/messmate/internal/rpc"
	"github.com/mmynk/messmate/internal/storage"
	"github.com/mmynk/messmate/pkg/api"
)

// DashboardService serves the reconciled view of a month.
type DashboardService struct {
	store  storage.Store
	access access
}

// NewDashboardService creates a new DashboardService with the given storage backend.
func NewDashboardService(store storage.Store) *DashboardService {
	return &DashboardService{store: store, access: access{store: store}}
}

// NewDashboardServiceHandler mounts s under the DashboardService path.
func NewDashboardServiceHandler(s *DashboardService, opts ...connect.HandlerOption) (string, http.Handler) {
	return rpc.NewServiceHandler(api.DashboardServiceName,
		rpc.Unary(api.DashboardServiceGetDashboardProcedure, s.GetDashboard, opts...),
		rpc.Unary(api.DashboardServiceGetSettlementProcedure, s.GetSettlement, opts...),
	)
}

// GetDashboard reconciles the month with the caller as viewer.
func (s *DashboardService) GetDashboard(ctx context.Context, req *connect.Request[api.MonthRequest]) (*connect.Response[api.DashboardResponse], error) {
	month, actor, err := s.access.month(ctx, req.Msg.MonthID, authz.CapView, false)
	if err != nil {
		return nil, toConnectError(err)
	}

	result, err := ReconcileMonth(ctx, s.store, month, actor.UserID)
	if err != nil {
		slog.Error("GetDashboard failed", "month_id", month.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Debug("Dashboard computed",
		"month_id", month.ID,
		"members", result.TotalMembers,
		"meal_rate", result.MealRate,
		"mess_balance", result.MessBalance,
	)
	return connect.NewResponse(&api.DashboardResponse{
		Month:     toAPIMonth(month),
		Dashboard: result,
	}), nil
}

// GetSettlement plans the payments that close the month.
func (s *DashboardService) GetSettlement(ctx context.Context, req *connect.Request[api.MonthRequest]) (*connect.Response[api.SettlementResponse], error) {
	month, _, err := s.access.month(ctx, req.Msg.MonthID, authz.CapView, false)
	if err != nil {
		return nil, toConnectError(err)
	}

	result, err := ReconcileMonth(ctx, s.store, month, "")
	if err != nil {
		slog.Error("GetSettlement failed", "month_id", month.ID, "error", err)
		return nil, toConnectError(err)
	}

	transfers := ledger.Settle(result.MemberSummaries)
	if transfers == nil {
		transfers = []ledger.Transfer{}
	}
	return connect.NewResponse(&api.SettlementResponse{
		Month:       toAPIMonth(month),
		MessBalance: result.MessBalance,
		Transfers:   transfers,
	}), nil
}

// ReconcileMonth loads every row of month concurrently and reconciles them.
// viewerID selects whose figures fill MyStats and may be empty.
func ReconcileMonth(ctx context.Context, store storage.Store, month *models.Month, viewerID string) (*ledger.Result, error) {
	var (
		members  []*models.Member
		meals    []*models.Meal
		expenses []*models.Expense
		deposits []*models.Deposit
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = store.ListMembers(gctx, month.MessID, models.StatusActive)
		return err
	})
	g.Go(func() error {
		var err error
		meals, err = store.ListMeals(gctx, month.ID)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = store.ListExpenses(gctx, month.ID)
		return err
	})
	g.Go(func() error {
		var err error
		deposits, err = store.ListDeposits(gctx, month.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	in := ledgerInput(month, viewerID, members, meals, expenses, deposits)
	former, err := formerMembers(ctx, store, in)
	if err != nil {
		return nil, err
	}
	in.Members = append(in.Members, former...)
	return ledger.Reconcile(in), nil
}

// formerMembers returns rows for users who own meals, deposits or allocations in the
// month but are no longer active members, so their share stays in the summaries.
func formerMembers(ctx context.Context, store storage.UserStore, in ledger.Input) ([]ledger.MemberRow, error) {
	seen := make(map[string]bool, len(in.Members))
	for _, m := range in.Members {
		seen[m.UserID] = true
	}
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, m := range in.Meals {
		add(m.UserID)
	}
	for _, d := range in.Deposits {
		add(d.UserID)
	}
	for _, a := range in.Allocations {
		add(a.UserID)
	}

	rows := make([]ledger.MemberRow, 0, len(ids))
	for _, id := range ids {
		row := ledger.MemberRow{UserID: id, Name: id, Role: models.RoleMember, Former: true}
		user, err := store.GetUserByID(ctx, id)
		switch {
		case err == nil:
			row.Name = user.DisplayName
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ledgerInput flattens stored rows into the reconciliation input. Allocations carry
// their parent expense's category.
func ledgerInput(month *models.Month, viewerID string, members []*models.Member, meals []*models.Meal, expenses []*models.Expense, deposits []*models.Deposit) ledger.Input {
	in := ledger.Input{
		MonthName: month.Name,
		ViewerID:  viewerID,
		Meals:     make([]ledger.MealRow, 0, len(meals)),
		Expenses:  make([]ledger.ExpenseRow, 0, len(expenses)),
		Deposits:  make([]ledger.DepositRow, 0, len(deposits)),
		Members:   make([]ledger.MemberRow, 0, len(members)),
	}
	for _, m := range members {
		in.Members = append(in.Members, ledger.MemberRow{UserID: m.UserID, Name: m.Name, Role: m.Role})
	}
	for _, m := range meals {
		in.Meals = append(in.Meals, ledger.MealRow{
			UserID:    m.UserID,
			Date:      m.Date,
			Breakfast: m.Breakfast,
			Lunch:     m.Lunch,
			Dinner:    m.Dinner,
		})
	}
	for _, e := range expenses {
		in.Expenses = append(in.Expenses, ledger.ExpenseRow{Date: e.Date, Amount: e.Amount, Category: e.Category})
		for _, a := range e.Allocations {
			in.Allocations = append(in.Allocations, ledger.AllocationRow{
				UserID:   a.UserID,
				Amount:   a.Amount,
				Category: e.Category,
			})
		}
	}
	for _, d := range deposits {
		in.Deposits = append(in.Deposits, ledger.DepositRow{UserID: d.UserID, Date: d.Date, Amount: d.Amount})
	}
	return in
}
