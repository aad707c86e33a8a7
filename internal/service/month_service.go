package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/messmate/internal/authz"
	"github.com/mmynk/messmate/internal/models"
	"github.com/mmynk/messmate/internal/rpc"
	"github.com/mmynk/messmate/internal/storage"
	"github.com/mmynk/messmate/pkg/api"
)

// MonthService manages a mess's accounting periods.
type MonthService struct {
	store  storage.Store
	access access
}

// NewMonthService creates a new MonthService with the given storage backend.
func NewMonthService(store storage.Store) *MonthService {
	return &MonthService{store: store, access: access{store: store}}
}

// NewMonthServiceHandler mounts s under the MonthService path.
func NewMonthServiceHandler(s *MonthService, opts ...connect.HandlerOption) (string, http.Handler) {
	return rpc.NewServiceHandler(api.MonthServiceName,
		rpc.Unary(api.MonthServiceStartMonthProcedure, s.StartMonth, opts...),
		rpc.Unary(api.MonthServiceEndMonthProcedure, s.EndMonth, opts...),
		rpc.Unary(api.MonthServiceDeleteMonthProcedure, s.DeleteMonth, opts...),
		rpc.Unary(api.MonthServiceListMonthsProcedure, s.ListMonths, opts...),
		rpc.Unary(api.MonthServiceGetActiveMonthProcedure, s.GetActiveMonth, opts...),
	)
}

// StartMonth opens a new active month, closing the current one.
func (s *MonthService) StartMonth(ctx context.Context, req *connect.Request[api.StartMonthRequest]) (*connect.Response[api.MonthResponse], error) {
	if _, err := s.access.member(ctx, req.Msg.MessID, authz.CapManager); err != nil {
		return nil, toConnectError(err)
	}
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, toConnectError(invalid("name", "is required"))
	}
	if err := validateDate("start_date", req.Msg.StartDate); err != nil {
		return nil, toConnectError(err)
	}

	month := &models.Month{MessID: req.Msg.MessID, Name: name, StartDate: req.Msg.StartDate}
	if err := s.store.StartMonth(ctx, month); err != nil {
		slog.Error("StartMonth failed", "mess_id", req.Msg.MessID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Month started", "mess_id", month.MessID, "month_id", month.ID, "name", month.Name)
	return connect.NewResponse(&api.MonthResponse{Month: toAPIMonth(month)}), nil
}

// EndMonth closes a month. Its rows stay readable.
func (s *MonthService) EndMonth(ctx context.Context, req *connect.Request[api.MonthRequest]) (*connect.Response[api.MonthResponse], error) {
	month, _, err := s.access.month(ctx, req.Msg.MonthID, authz.CapManager, true)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.EndMonth(ctx, month.ID); err != nil {
		return nil, toConnectError(err)
	}
	month.IsActive = false

	slog.Info("Month ended", "month_id", month.ID)
	return connect.NewResponse(&api.MonthResponse{Month: toAPIMonth(month)}), nil
}

// DeleteMonth removes a month and every row recorded in it.
func (s *MonthService) DeleteMonth(ctx context.Context, req *connect.Request[api.MonthRequest]) (*connect.Response[api.Empty], error) {
	month, _, err := s.access.month(ctx, req.Msg.MonthID, authz.CapManager, false)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.DeleteMonth(ctx, month.ID); err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Month deleted", "month_id", month.ID, "mess_id", month.MessID)
	return connect.NewResponse(&api.Empty{}), nil
}

// ListMonths returns the mess's months, newest first.
func (s *MonthService) ListMonths(ctx context.Context, req *connect.Request[api.MessRequest]) (*connect.Response[api.ListMonthsResponse], error) {
	if _, err := s.access.member(ctx, req.Msg.MessID, authz.CapView); err != nil {
		return nil, toConnectError(err)
	}

	months, err := s.store.ListMonths(ctx, req.Msg.MessID)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &api.ListMonthsResponse{Months: make([]*api.Month, 0, len(months))}
	for _, m := range months {
		resp.Months = append(resp.Months, toAPIMonth(m))
	}
	return connect.NewResponse(resp), nil
}

// GetActiveMonth returns the mess's active month.
func (s *MonthService) GetActiveMonth(ctx context.Context, req *connect.Request[api.MessRequest]) (*connect.Response[api.MonthResponse], error) {
	if _, err := s.access.member(ctx, req.Msg.MessID, authz.CapView); err != nil {
		return nil, toConnectError(err)
	}

	month, err := s.store.GetActiveMonth(ctx, req.Msg.MessID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, toConnectError(ErrNoActiveMonth)
	}
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.MonthResponse{Month: toAPIMonth(month)}), nil
}
