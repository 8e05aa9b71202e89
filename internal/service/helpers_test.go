package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/credix-app/credix/backend/internal/assets"
	"github.com/credix-app/credix/backend/internal/auth"
	"github.com/credix-app/credix/backend/internal/store"
)

// testContextWithUser creates a context with authenticated user claims for testing
func testContextWithUser(userID string) context.Context {
	return auth.WithUserClaims(context.Background(), &auth.UserClaims{
		UID:   userID,
		Email: userID + "@test.local",
	})
}

// testClock is a fixed time that spends and profiles are stamped with.
var testClock = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

// newTestService wires a service on the given store with in-process
// collaborators.
func newTestService(t *testing.T, s store.Store) (*CredixService, *auth.LocalAuth) {
	t.Helper()
	identity := auth.NewLocalAuth()
	svc := NewCredixService(Deps{
		Store:    s,
		Identity: identity,
		Assets:   assets.NewMemoryUploader("http://assets.test"),
		Logger:   zerolog.Nop(),
	})
	svc.now = func() time.Time { return testClock }
	return svc, identity
}
