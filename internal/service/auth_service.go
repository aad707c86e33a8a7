package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/messmate/internal/auth"
	"github.com/mmynk/messmate/internal/middleware"
	"github.com/mmynk/messmate/internal/models"
	"github.com/mmynk/messmate/internal/rpc"
	"github.com/mmynk/messmate/internal/storage"
	"github.com/mmynk/messmate/pkg/api"
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	store         storage.Store
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, store storage.Store, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		store:         store,
		logger:        logger,
	}
}

// NewAuthServiceHandler mounts s. Register and Login must be exempted from RequireAuth.
func NewAuthServiceHandler(s *AuthService, opts ...connect.HandlerOption) (string, http.Handler) {
	return rpc.NewServiceHandler(api.AuthServiceName,
		rpc.Unary(api.AuthServiceRegisterProcedure, s.Register, opts...),
		rpc.Unary(api.AuthServiceLoginProcedure, s.Login, opts...),
		rpc.Unary(api.AuthServiceGetCurrentUserProcedure, s.GetCurrentUser, opts...),
	)
}

// PublicProcedures lists the calls that need no bearer token.
var PublicProcedures = []string{
	api.AuthServiceRegisterProcedure,
	api.AuthServiceLoginProcedure,
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.AuthResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	if strings.TrimSpace(req.Msg.Email) == "" {
		return nil, toConnectError(invalid("email", "is required"))
	}
	if strings.TrimSpace(req.Msg.DisplayName) == "" {
		return nil, toConnectError(invalid("display_name", "is required"))
	}

	user, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailExists) || errors.Is(err, auth.ErrWeakPassword) {
			s.logger.Warn("Registration rejected", "email", req.Msg.Email, "error", err)
		} else {
			s.logger.Error("Registration failed", "email", req.Msg.Email, "error", err)
		}
		return nil, toConnectError(err)
	}

	session, err := s.jwtManager.Issue(user)
	if err != nil {
		s.logger.Error("Failed to issue token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(authResponse(user, session)), nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	session, err := s.jwtManager.Issue(user)
	if err != nil {
		s.logger.Error("Failed to issue token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(authResponse(user, session)), nil
}

// GetCurrentUser returns the caller's account and the messes they belong to.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		// A valid token for a deleted account.
		if errors.Is(err, storage.ErrNotFound) {
			return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
		}
		return nil, toConnectError(err)
	}

	messes, err := s.store.ListMessesForUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list messes", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	resp := &api.GetCurrentUserResponse{
		User:   toAPIUser(user),
		Messes: make([]*api.Mess, 0, len(messes)),
	}
	for _, m := range messes {
		resp.Messes = append(resp.Messes, toAPIMess(m))
	}
	return connect.NewResponse(resp), nil
}

func authResponse(user *models.User, session *auth.Session) *api.AuthResponse {
	return &api.AuthResponse{
		User:      toAPIUser(user),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Unix(),
	}
}
