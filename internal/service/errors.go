package service

import (
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/credix-app/credix/backend/internal/assets"
	"github.com/credix-app/credix/backend/internal/auth"
	"github.com/credix-app/credix/backend/internal/ledger"
	"github.com/credix-app/credix/backend/internal/reconcile"
	"github.com/credix-app/credix/backend/internal/session"
	"github.com/credix-app/credix/backend/internal/sheet"
	"github.com/credix-app/credix/backend/internal/store"
)

// mapError converts a domain error into a connect error. operation names
// the failed step for internal errors.
func mapError(operation string, err error) error {
	if err == nil {
		return nil
	}

	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	var (
		decodeErr  *sheet.DecodeError
		invalidErr *reconcile.ValidationError
		partialErr *reconcile.PersistPartialFailure
	)
	switch {
	case errors.As(err, &decodeErr):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.As(err, &invalidErr), errors.Is(err, ledger.ErrInvalidScope):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.As(err, &partialErr):
		return connect.NewError(connect.CodeAborted,
			fmt.Errorf("%w; stored records for %s were cleared, retry the save", err, partialErr.Scope))
	case errors.Is(err, reconcile.ErrAuthRequired):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, reconcile.ErrPersistInFlight):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, store.ErrBatchTooLarge):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, store.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, session.ErrClosed):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		return connect.NewError(connect.CodeInvalidArgument, err)

	case errors.Is(err, assets.ErrEmpty),
		errors.Is(err, assets.ErrTooLarge),
		errors.Is(err, assets.ErrNotAnImage),
		errors.Is(err, assets.ErrMissingUser):
		return connect.NewError(connect.CodeInvalidArgument, err)
	}

	return connect.NewError(connect.CodeInternal, auth.WrapStoreError(operation, err))
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}
