package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/messmate/internal/authz"
	"github.com/mmynk/messmate/internal/ledger"
	"github.com/mmynk/messmate/internal/models"
	"github.com/mmynk/messmate/internal/rpc"
	"github.com/mmynk/messmate/internal/storage"
	"github.com/mmynk/messmate/pkg/api"
)

// maxRosterDays bounds GenerateRoster's date range.
const maxRosterDays = 62

// ScheduleService plans who does the market shopping on which day.
type ScheduleService struct {
	store  storage.Store
	access access
}

// NewScheduleService creates a new ScheduleService with the given storage backend.
func NewScheduleService(store storage.Store) *ScheduleService {
	return &ScheduleService{store: store, access: access{store: store}}
}

// NewScheduleServiceHandler mounts s under the ScheduleService path.
func NewScheduleServiceHandler(s *ScheduleService, opts ...connect.HandlerOption) (string, http.Handler) {
	return rpc.NewServiceHandler(api.ScheduleServiceName,
		rpc.Unary(api.ScheduleServiceCreateScheduleProcedure, s.CreateSchedule, opts...),
		rpc.Unary(api.ScheduleServiceGenerateRosterProcedure, s.GenerateRoster, opts...),
		rpc.Unary(api.ScheduleServiceListSchedulesProcedure, s.ListSchedules, opts...),
		rpc.Unary(api.ScheduleServiceDeleteScheduleProcedure, s.DeleteSchedule, opts...),
	)
}

// CreateSchedule assigns shoppers to one date.
func (s *ScheduleService) CreateSchedule(ctx context.Context, req *connect.Request[api.CreateScheduleRequest]) (*connect.Response[api.ScheduleResponse], error) {
	month, _, err := s.access.month(ctx, req.Msg.MonthID, authz.CapMeals, true)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := validateDate("date", req.Msg.Date); err != nil {
		return nil, toConnectError(err)
	}
	shoppers := ledger.UniqueIDs(req.Msg.Shoppers)
	if len(shoppers) == 0 {
		return nil, toConnectError(invalid("shoppers", "select at least one shopper"))
	}
	names := make(map[string]string, len(shoppers))
	for _, id := range shoppers {
		m, err := s.access.activeMember(ctx, month.MessID, id, "shoppers")
		if err != nil {
			return nil, toConnectError(err)
		}
		names[id] = m.Name
	}

	schedule := &models.BazaarSchedule{
		MonthID:  month.ID,
		Date:     req.Msg.Date,
		Note:     strings.TrimSpace(req.Msg.Note),
		Shoppers: shoppers,
	}
	if err := s.store.CreateSchedules(ctx, []*models.BazaarSchedule{schedule}); err != nil {
		slog.Error("CreateSchedule failed", "month_id", month.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Schedule created", "schedule_id", schedule.ID, "date", schedule.Date, "shoppers", len(shoppers))
	return connect.NewResponse(&api.ScheduleResponse{Schedule: toAPISchedule(schedule, names)}), nil
}

// GenerateRoster fills a date range round-robin over the active members, ordered
// by name.
func (s *ScheduleService) GenerateRoster(ctx context.Context, req *connect.Request[api.GenerateRosterRequest]) (*connect.Response[api.ListSchedulesResponse], error) {
	month, _, err := s.access.month(ctx, req.Msg.MonthID, authz.CapMeals, true)
	if err != nil {
		return nil, toConnectError(err)
	}
	dates, err := dateRange(req.Msg.StartDate, req.Msg.EndDate)
	if err != nil {
		return nil, toConnectError(err)
	}

	members, err := s.store.ListMembers(ctx, month.MessID, models.StatusActive)
	if err != nil {
		return nil, toConnectError(err)
	}
	ids := make([]string, 0, len(members))
	names := make(map[string]string, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
		names[m.UserID] = m.Name
	}

	days, err := ledger.BazaarRoster(ids, dates, req.Msg.PerDay)
	if err != nil {
		return nil, toConnectError(err)
	}

	note := strings.TrimSpace(req.Msg.Note)
	schedules := make([]*models.BazaarSchedule, 0, len(days))
	for _, d := range days {
		schedules = append(schedules, &models.BazaarSchedule{
			MonthID:  month.ID,
			Date:     d.Date,
			Note:     note,
			Shoppers: d.Shoppers,
		})
	}
	if err := s.store.CreateSchedules(ctx, schedules); err != nil {
		slog.Error("GenerateRoster failed", "month_id", month.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Roster generated", "month_id", month.ID, "days", len(schedules), "per_day", req.Msg.PerDay)
	resp := &api.ListSchedulesResponse{Schedules: make([]*api.Schedule, 0, len(schedules))}
	for _, sc := range schedules {
		resp.Schedules = append(resp.Schedules, toAPISchedule(sc, names))
	}
	return connect.NewResponse(resp), nil
}

// ListSchedules returns the month's schedules in date order.
func (s *ScheduleService) ListSchedules(ctx context.Context, req *connect.Request[api.MonthRequest]) (*connect.Response[api.ListSchedulesResponse], error) {
	month, _, err := s.access.month(ctx, req.Msg.MonthID, authz.CapView, false)
	if err != nil {
		return nil, toConnectError(err)
	}

	schedules, err := s.store.ListSchedules(ctx, month.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	names, err := s.access.memberNames(ctx, month.MessID)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &api.ListSchedulesResponse{Schedules: make([]*api.Schedule, 0, len(schedules))}
	for _, sc := range schedules {
		resp.Schedules = append(resp.Schedules, toAPISchedule(sc, names))
	}
	return connect.NewResponse(resp), nil
}

// DeleteSchedule removes one schedule.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, req *connect.Request[api.DeleteScheduleRequest]) (*connect.Response[api.Empty], error) {
	schedule, err := s.store.GetSchedule(ctx, req.Msg.ScheduleID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if _, _, err := s.access.month(ctx, schedule.MonthID, authz.CapMeals, true); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.DeleteSchedule(ctx, schedule.ID); err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Schedule deleted", "schedule_id", schedule.ID)
	return connect.NewResponse(&api.Empty{}), nil
}

// dateRange lists every date from start to end inclusive.
func dateRange(start, end string) ([]string, error) {
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, invalid("start_date", "must be a date in YYYY-MM-DD form")
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, invalid("end_date", "must be a date in YYYY-MM-DD form")
	}
	if to.Before(from) {
		return nil, invalid("end_date", "must not be before start_date")
	}
	if int(to.Sub(from).Hours()/24) >= maxRosterDays {
		return nil, invalid("end_date", "range is too long")
	}

	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(dateLayout))
	}
	return dates, nil
}
