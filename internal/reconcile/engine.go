// Package reconcile persists normalized record sets with replace-whole-scope
// semantics: everything stored in the scope is deleted, then the new set is
// written under its storage keys.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/credix-app/credix/backend/internal/ledger"
	"github.com/credix-app/credix/backend/internal/store"
)

var (
	// ErrAuthRequired is returned when Persist is called without a user.
	ErrAuthRequired = errors.New("authentication required")
	// ErrPersistInFlight is returned when the same user and scope already
	// has a persist running.
	ErrPersistInFlight = errors.New("a save for this scope is already in progress")
)

// Stage names the batch of a persist that failed.
type Stage string

// StageWrite is the only stage that can fail after data has changed; a
// failed delete batch leaves the scope untouched.
const StageWrite Stage = "write"

// PersistPartialFailure reports a persist that committed its delete batch
// but failed to write the new records, leaving the scope empty or stale.
// Retrying the same persist is safe.
type PersistPartialFailure struct {
	Scope   ledger.Scope
	Stage   Stage
	Deleted int
	Err     error
}

func (e *PersistPartialFailure) Error() string {
	return fmt.Sprintf("save %s incomplete: %d records deleted, %s batch failed: %v", e.Scope, e.Deleted, e.Stage, e.Err)
}

func (e *PersistPartialFailure) Unwrap() error {
	return e.Err
}

// ValidationError rejects a record set before anything is touched.
type ValidationError struct {
	Scope   ledger.Scope
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid records for %s: %s", e.Scope, strings.Join(e.Reasons, "; "))
}

// Result counts what a persist changed.
type Result struct {
	Deleted int `json:"deleted"`
	Written int `json:"written"`
}

// Engine runs persists against a store.
type Engine struct {
	store store.Store
	log   zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewEngine creates an engine over the given store.
func NewEngine(s store.Store, log zerolog.Logger) *Engine {
	return &Engine{
		store:    s,
		log:      log.With().Str("component", "reconcile").Logger(),
		inFlight: make(map[string]struct{}),
	}
}

// Persist replaces the contents of scope for userID with records. The delete
// and the write are each atomic; a failure between them is reported as
// *PersistPartialFailure.
func (e *Engine) Persist(ctx context.Context, userID string, scope ledger.Scope, records []ledger.Record) (*Result, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrAuthRequired
	}
	if err := Validate(scope, records); err != nil {
		return nil, err
	}

	release, err := e.acquire(userID, scope)
	if err != nil {
		return nil, err
	}
	defer release()

	log := e.log.With().Str("user_id", userID).Str("scope", scope.String()).Logger()

	keys, err := e.store.ListKeys(ctx, userID, scope)
	if err != nil {
		return nil, fmt.Errorf("list stored %s: %w", scope, err)
	}
	if len(keys) > store.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d stored records in %s", store.ErrBatchTooLarge, len(keys), scope)
	}

	if err := e.store.DeleteRecords(ctx, userID, scope.Feed, keys); err != nil {
		log.Error().Err(err).Int("keys", len(keys)).Msg("delete batch failed, scope unchanged")
		return nil, fmt.Errorf("delete stored %s: %w", scope, err)
	}

	if err := e.store.WriteRecords(ctx, userID, scope.Feed, records); err != nil {
		log.Error().Err(err).Int("deleted", len(keys)).Msg("write batch failed after delete")
		return nil, &PersistPartialFailure{Scope: scope, Stage: StageWrite, Deleted: len(keys), Err: err}
	}

	log.Info().Int("deleted", len(keys)).Int("written", len(records)).Msg("scope replaced")
	return &Result{Deleted: len(keys), Written: len(records)}, nil
}

// Validate checks that records can replace scope: every record belongs to
// the scope, is well formed and has a unique storage key.
func Validate(scope ledger.Scope, records []ledger.Record) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	var reasons []string
	if len(records) > store.MaxBatchSize {
		reasons = append(reasons, fmt.Sprintf("%d records exceed the limit of %d", len(records), store.MaxBatchSize))
	}

	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if r == nil {
			reasons = append(reasons, fmt.Sprintf("record %d is empty", i+1))
			continue
		}
		if !scope.Contains(r) {
			reasons = append(reasons, fmt.Sprintf("record %q is outside %s", r.StorageKey(), scope))
			continue
		}
		if err := r.Validate(); err != nil {
			reasons = append(reasons, err.Error())
			continue
		}
		key := r.StorageKey()
		if _, dup := seen[key]; dup {
			reasons = append(reasons, fmt.Sprintf("duplicate key %q", key))
			continue
		}
		seen[key] = struct{}{}
	}

	if len(reasons) > 0 {
		return &ValidationError{Scope: scope, Reasons: reasons}
	}
	return nil
}

func (e *Engine) acquire(userID string, scope ledger.Scope) (func(), error) {
	key := userID + "\x00" + scope.String()

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[key]; busy {
		return nil, ErrPersistInFlight
	}
	e.inFlight[key] = struct{}{}

	return func() {
		e.mu.Lock()
		delete(e.inFlight, key)
		e.mu.Unlock()
	}, nil
}
