package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"connectrpc.com/connect"

	"github.com/mmynk/messmate/internal/authz"
	"github.com/mmynk/messmate/internal/ledger"
	"github.com/mmynk/messmate/internal/models"
	"github.com/mmynk/messmate/internal/rpc"
	"github.com/mmynk/messmate/internal/storage"
	"github.com/mmynk/messmate/pkg/api"
)

// FinanceService records deposits and expenses.
type FinanceService struct {
	store  storage.Store
	access access
	locks  monthLocks
}

// NewFinanceService creates a new FinanceService with the given storage backend.
func NewFinanceService(store storage.Store) *FinanceService {
	return &FinanceService{store: store, access: access{store: store}}
}

// NewFinanceServiceHandler mounts s under the FinanceService path.
func NewFinanceServiceHandler(s *FinanceService, opts ...connect.HandlerOption) (string, http.Handler) {
	return rpc.NewServiceHandler(api.FinanceServiceName,
		rpc.Unary(api.FinanceServiceAddDepositProcedure, s.AddDeposit, opts...),
		rpc.Unary(api.FinanceServiceDeleteDepositProcedure, s.DeleteDeposit, opts...),
		rpc.Unary(api.FinanceServiceListDepositsProcedure, s.ListDeposits, opts...),
		rpc.Unary(api.FinanceServiceAddExpenseProcedure, s.AddExpense, opts...),
		rpc.Unary(api.FinanceServiceDeleteExpenseProcedure, s.DeleteExpense, opts...),
		rpc.Unary(api.FinanceServiceListExpensesProcedure, s.ListExpenses, opts...),
	)
}

// AddDeposit records money a member paid into the mess.
func (s *FinanceService) AddDeposit(ctx context.Context, req *connect.Request[api.AddDepositRequest]) (*connect.Response[api.DepositResponse], error) {
	month, actor, err := s.access.month(ctx, req.Msg.MonthID, authz.CapFinance, true)
	if err != nil {
		return nil, toConnectError(err)
	}
	depositor, err := s.access.activeMember(ctx, month.MessID, req.Msg.UserID, "user_id")
	if err != nil {
		return nil, toConnectError(err)
	}
	if req.Msg.Amount <= 0 {
		return nil, toConnectError(ledger.ErrInvalidAmount)
	}
	if err := validateDate("date", req.Msg.Date); err != nil {
		return nil, toConnectError(err)
	}

	deposit := &models.Deposit{
		MonthID:   month.ID,
		UserID:    depositor.UserID,
		Amount:    req.Msg.Amount,
		Date:      req.Msg.Date,
		Details:   strings.TrimSpace(req.Msg.Details),
		CreatedBy: actor.UserID,
	}
	if err := s.store.CreateDeposit(ctx, deposit); err != nil {
		slog.Error("AddDeposit failed", "month_id", month.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Deposit recorded", "deposit_id", deposit.ID, "user_id", deposit.UserID, "amount", deposit.Amount)
	names := map[string]string{depositor.UserID: depositor.Name}
	return connect.NewResponse(&api.DepositResponse{Deposit: toAPIDeposit(deposit, names)}), nil
}

// DeleteDeposit removes a deposit.
func (s *FinanceService) DeleteDeposit(ctx context.Context, req *connect.Request[api.DeleteDepositRequest]) (*connect.Response[api.Empty], error) {
	deposit, err := s.store.GetDeposit(ctx, req.Msg.DepositID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if _, _, err := s.access.month(ctx, deposit.MonthID, authz.CapFinance, true); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.DeleteDeposit(ctx, deposit.ID); err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Deposit deleted", "deposit_id", deposit.ID)
	return connect.NewResponse(&api.Empty{}), nil
}

// ListDeposits returns the month's deposits with depositor names.
func (s *FinanceService) ListDeposits(ctx context.Context, req *connect.Request[api.MonthRequest]) (*connect.Response[api.ListDepositsResponse], error) {
	month, _, err := s.access.month(ctx, req.Msg.MonthID, authz.CapView, false)
	if err != nil {
		return nil, toConnectError(err)
	}

	deposits, err := s.store.ListDeposits(ctx, month.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	names, err := s.access.memberNames(ctx, month.MessID)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &api.ListDepositsResponse{Deposits: make([]*api.Deposit, 0, len(deposits))}
	for _, d := range deposits {
		resp.Deposits = append(resp.Deposits, toAPIDeposit(d, names))
	}
	return connect.NewResponse(resp), nil
}

// AddExpense records a purchase from the mess reserve. The reserve must cover it:
// the month's deposits minus its expenses has to be at least the amount.
func (s *FinanceService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	month, actor, err := s.access.month(ctx, req.Msg.MonthID, authz.CapFinance, true)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := validateDate("date", req.Msg.Date); err != nil {
		return nil, toConnectError(err)
	}

	planReq := ledger.ExpenseRequest{
		Amount:       req.Msg.Amount,
		Category:     models.ExpenseCategory(req.Msg.Category),
		Shoppers:     req.Msg.Shoppers,
		SharedWith:   req.Msg.SharedWith,
		TargetMember: req.Msg.TargetMember,
	}
	allocations, err := ledger.PlanAllocations(planReq)
	if err != nil {
		return nil, toConnectError(err)
	}

	var shoppers []string
	if planReq.Category == models.CategoryMeal {
		shoppers = ledger.UniqueIDs(req.Msg.Shoppers)
	}
	for _, id := range shoppers {
		if _, err := s.access.activeMember(ctx, month.MessID, id, "shoppers"); err != nil {
			return nil, toConnectError(err)
		}
	}
	targetField := "shared_with"
	if planReq.Category == models.CategoryIndividual {
		targetField = "target_member"
	}
	for _, a := range allocations {
		if _, err := s.access.activeMember(ctx, month.MessID, a.UserID, targetField); err != nil {
			return nil, toConnectError(err)
		}
	}

	expense := &models.Expense{
		MonthID:     month.ID,
		Date:        req.Msg.Date,
		Amount:      req.Msg.Amount,
		Category:    planReq.Category,
		Details:     strings.TrimSpace(req.Msg.Details),
		Shoppers:    shoppers,
		Allocations: allocations,
		CreatedBy:   actor.UserID,
	}

	unlock := s.locks.lock(month.ID)
	err = s.store.CreateExpense(ctx, expense, func(totalDeposit, totalExpenses float64) error {
		return ledger.CheckBalance(totalDeposit, totalExpenses, expense.Amount)
	})
	unlock()
	if err != nil {
		slog.Warn("AddExpense rejected", "month_id", month.ID, "amount", expense.Amount, "error", err)
		return nil, toConnectError(err)
	}

	names, err := s.access.memberNames(ctx, month.MessID)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Expense recorded",
		"expense_id", expense.ID,
		"category", expense.Category,
		"amount", expense.Amount,
		"allocations", len(expense.Allocations),
	)
	return connect.NewResponse(&api.ExpenseResponse{Expense: toAPIExpense(expense, names)}), nil
}

// DeleteExpense removes an expense with its allocations and shoppers.
func (s *FinanceService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.Empty], error) {
	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if _, _, err := s.access.month(ctx, expense.MonthID, authz.CapFinance, true); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Expense deleted", "expense_id", expense.ID)
	return connect.NewResponse(&api.Empty{}), nil
}

// ListExpenses returns the month's expenses with their involved members.
func (s *FinanceService) ListExpenses(ctx context.Context, req *connect.Request[api.MonthRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	month, _, err := s.access.month(ctx, req.Msg.MonthID, authz.CapView, false)
	if err != nil {
		return nil, toConnectError(err)
	}

	expenses, err := s.store.ListExpenses(ctx, month.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	names, err := s.access.memberNames(ctx, month.MessID)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &api.ListExpensesResponse{Expenses: make([]*api.Expense, 0, len(expenses))}
	for _, e := range expenses {
		resp.Expenses = append(resp.Expenses, toAPIExpense(e, names))
	}
	return connect.NewResponse(resp), nil
}

// monthLocks serializes expense writes per month within this process. An entry lives
// only while someone holds or waits for it.
type monthLocks struct {
	mu    sync.Mutex
	locks map[string]*monthLock
}

type monthLock struct {
	sync.Mutex
	refs int
}

func (l *monthLocks) lock(monthID string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*monthLock)
	}
	m, ok := l.locks[monthID]
	if !ok {
		m = &monthLock{}
		l.locks[monthID] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, monthID)
		}
		l.mu.Unlock()
	}
}

// held reports how many months currently have a lock entry.
func (l *monthLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
