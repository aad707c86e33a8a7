package service

import (
	"context"
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

// MessService manages messes and their membership.
type MessService struct {
	store  storage.Store
	access access
}

// NewMessService creates a new MessService with the given storage backend.
func NewMessService(store storage.Store) *MessService {
	return &MessService{store: store, access: access{store: store}}
}

// NewMessServiceHandler mounts s under the MessService path.
func NewMessServiceHandler(s *MessService, opts ...connect.HandlerOption) (string, http.Handler) {
	return rpc.NewServiceHandler(api.MessServiceName,
		rpc.Unary(api.MessServiceCreateMessProcedure, s.CreateMess, opts...),
		rpc.Unary(api.MessServiceJoinMessProcedure, s.JoinMess, opts...),
		rpc.Unary(api.MessServiceApproveMemberProcedure, s.ApproveMember, opts...),
		rpc.Unary(api.MessServiceUpdatePermissionsProcedure, s.UpdatePermissions, opts...),
		rpc.Unary(api.MessServiceRemoveMemberProcedure, s.RemoveMember, opts...),
		rpc.Unary(api.MessServiceTransferManagerProcedure, s.TransferManager, opts...),
		rpc.Unary(api.MessServiceListMembersProcedure, s.ListMembers, opts...),
	)
}

// CreateMess creates a mess with the caller as its active manager.
func (s *MessService) CreateMess(ctx context.Context, req *connect.Request[api.CreateMessRequest]) (*connect.Response[api.CreateMessResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, toConnectError(invalid("name", "is required"))
	}

	slog.Info("CreateMess request received", "name", name, "user_id", userID)

	mess := &models.Mess{Name: name, CreatedBy: userID}
	manager := &models.Member{
		UserID:           userID,
		Role:             models.RoleManager,
		Status:           models.StatusActive,
		CanManageMeals:   true,
		CanManageFinance: true,
		CanManageMembers: true,
	}
	if err := s.store.CreateMess(ctx, mess, manager); err != nil {
		slog.Error("CreateMess failed", "error", err)
		return nil, toConnectError(err)
	}

	stored, err := s.store.GetMember(ctx, mess.ID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Mess created", "mess_id", mess.ID)
	return connect.NewResponse(&api.CreateMessResponse{
		Mess:    toAPIMess(mess),
		Manager: toAPIMember(stored),
	}), nil
}

// JoinMess files a pending membership request for the caller.
func (s *MessService) JoinMess(ctx context.Context, req *connect.Request[api.JoinMessRequest]) (*connect.Response[api.MemberResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	if _, err := s.store.GetMess(ctx, req.Msg.MessID); err != nil {
		return nil, toConnectError(err)
	}

	member := &models.Member{
		MessID: req.Msg.MessID,
		UserID: userID,
		Role:   models.RoleMember,
		Status: models.StatusPending,
	}
	if err := s.store.AddMember(ctx, member); err != nil {
		slog.Warn("JoinMess failed", "mess_id", req.Msg.MessID, "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	stored, err := s.store.GetMember(ctx, member.MessID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Join request filed", "mess_id", member.MessID, "user_id", userID)
	return connect.NewResponse(&api.MemberResponse{Member: toAPIMember(stored)}), nil
}

// ApproveMember activates a pending member.
func (s *MessService) ApproveMember(ctx context.Context, req *connect.Request[api.MemberRequest]) (*connect.Response[api.MemberResponse], error) {
	if _, err := s.access.member(ctx, req.Msg.MessID, authz.CapMembers); err != nil {
		return nil, toConnectError(err)
	}

	target, err := s.store.GetMember(ctx, req.Msg.MessID, req.Msg.UserID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !target.IsActive() {
		target.Status = models.StatusActive
		if err := s.store.UpdateMember(ctx, target); err != nil {
			return nil, toConnectError(err)
		}
		slog.Info("Member approved", "mess_id", target.MessID, "user_id", target.UserID)
	}
	return connect.NewResponse(&api.MemberResponse{Member: toAPIMember(target)}), nil
}

// UpdatePermissions sets a member's delegated capabilities. Manager only.
func (s *MessService) UpdatePermissions(ctx context.Context, req *connect.Request[api.UpdatePermissionsRequest]) (*connect.Response[api.MemberResponse], error) {
	if _, err := s.access.member(ctx, req.Msg.MessID, authz.CapManager); err != nil {
		return nil, toConnectError(err)
	}

	target, err := s.store.GetMember(ctx, req.Msg.MessID, req.Msg.UserID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if target.IsManager() {
		return nil, toConnectError(ErrManagerImmutable)
	}

	target.CanManageMeals = req.Msg.CanManageMeals
	target.CanManageFinance = req.Msg.CanManageFinance
	target.CanManageMembers = req.Msg.CanManageMembers
	if err := s.store.UpdateMember(ctx, target); err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Permissions updated",
		"mess_id", target.MessID,
		"user_id", target.UserID,
		"meals", target.CanManageMeals,
		"finance", target.CanManageFinance,
		"members", target.CanManageMembers,
	)
	return connect.NewResponse(&api.MemberResponse{Member: toAPIMember(target)}), nil
}

// RemoveMember removes a member or rejects a pending request. Members may always
// remove themselves; removing others needs the members capability.
func (s *MessService) RemoveMember(ctx context.Context, req *connect.Request[api.MemberRequest]) (*connect.Response[api.Empty], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	target, err := s.store.GetMember(ctx, req.Msg.MessID, req.Msg.UserID)
	if err != nil {
		return nil, toConnectError(err)
	}

	// A pending user withdrawing their own request is not yet a member to authorize.
	withdrawing := target.UserID == userID && !target.IsActive()
	if !withdrawing {
		c := authz.CapMembers
		if target.UserID == userID {
			c = authz.CapView
		}
		if _, err := s.access.member(ctx, req.Msg.MessID, c); err != nil {
			return nil, toConnectError(err)
		}
	}
	if target.IsManager() {
		return nil, toConnectError(ErrManagerImmutable)
	}

	if err := s.store.RemoveMember(ctx, target.MessID, target.UserID); err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Member removed", "mess_id", target.MessID, "user_id", target.UserID, "by", userID)
	return connect.NewResponse(&api.Empty{}), nil
}

// TransferManager hands the manager role to another active member.
func (s *MessService) TransferManager(ctx context.Context, req *connect.Request[api.MemberRequest]) (*connect.Response[api.Empty], error) {
	actor, err := s.access.member(ctx, req.Msg.MessID, authz.CapManager)
	if err != nil {
		return nil, toConnectError(err)
	}
	if req.Msg.UserID == actor.UserID {
		return nil, toConnectError(invalid("user_id", "is already the manager"))
	}
	if _, err := s.access.activeMember(ctx, req.Msg.MessID, req.Msg.UserID, "user_id"); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.TransferManager(ctx, req.Msg.MessID, actor.UserID, req.Msg.UserID); err != nil {
		slog.Error("TransferManager failed", "mess_id", req.Msg.MessID, "error", err)
		return nil, toConnectError(err)
	}
	slog.Info("Manager transferred", "mess_id", req.Msg.MessID, "from", actor.UserID, "to", req.Msg.UserID)
	return connect.NewResponse(&api.Empty{}), nil
}

// ListMembers lists the mess's members, optionally filtered by status.
func (s *MessService) ListMembers(ctx context.Context, req *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error) {
	if _, err := s.access.member(ctx, req.Msg.MessID, authz.CapView); err != nil {
		return nil, toConnectError(err)
	}

	status := models.MemberStatus(req.Msg.Status)
	switch status {
	case "", models.StatusActive, models.StatusPending:
	default:
		return nil, toConnectError(invalid("status", "must be pending or active"))
	}

	members, err := s.store.ListMembers(ctx, req.Msg.MessID, status)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &api.ListMembersResponse{Members: make([]*api.Member, 0, len(members))}
	for _, m := range members {
		resp.Members = append(resp.Members, toAPIMember(m))
	}
	return connect.NewResponse(resp), nil
}
