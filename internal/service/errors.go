package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/messmate/internal/auth"
	"github.com/mmynk/messmate/internal/authz"
	"github.com/mmynk/messmate/internal/ledger"
	"github.com/mmynk/messmate/internal/storage"
)

var (
	// ErrNoActiveMonth is returned when a write targets a month that is not active.
	ErrNoActiveMonth = errors.New("no active month: start a month before recording entries")
	// ErrManagerImmutable guards operations that would leave a mess without a manager.
	ErrManagerImmutable = errors.New("the manager cannot be removed or restricted; transfer the role first")
	ErrUnauthenticated  = errors.New("not signed in")
)

// invalid builds a validation error for a request field.
func invalid(field, reason string) error {
	return &ledger.ValidationError{Field: field, Reason: reason}
}

// toConnectError maps domain and storage errors onto connect codes.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}

	var validation *ledger.ValidationError
	var insufficient *ledger.InsufficientBalanceError
	switch {
	case errors.As(err, &validation),
		errors.Is(err, ledger.ErrInvalidPerDay),
		errors.Is(err, auth.ErrWeakPassword):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.As(err, &insufficient),
		errors.Is(err, ErrNoActiveMonth),
		errors.Is(err, ErrManagerImmutable),
		errors.Is(err, authz.ErrNotMember),
		errors.Is(err, ledger.ErrNoRosterMembers):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, authz.ErrPermissionDenied):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrAlreadyExists), errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
