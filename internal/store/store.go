package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/credix-app/credix/backend/internal/ledger"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=store

// MaxBatchSize is the largest number of operations a single atomic batch
// may carry. It matches Firestore's per-commit write limit.
const MaxBatchSize = 500

var (
	// ErrNotFound is returned when a single document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBatchTooLarge is returned when a batch exceeds MaxBatchSize.
	ErrBatchTooLarge = errors.New("batch exceeds atomic write limit")
)

// Snapshot is the full record set of one feed at a point in time. A
// snapshot with Err set is the last value sent on its channel.
type Snapshot struct {
	Feed    ledger.Feed
	Records []ledger.Record
	Err     error
}

// Store defines the interface for all database operations used by the service
type Store interface {
	// Feed record operations. DeleteRecords and WriteRecords are each
	// all-or-nothing and reject batches larger than MaxBatchSize.
	ListRecords(ctx context.Context, userID string, scope ledger.Scope) ([]ledger.Record, error)
	ListKeys(ctx context.Context, userID string, scope ledger.Scope) ([]string, error)
	DeleteRecords(ctx context.Context, userID string, feed ledger.Feed, keys []string) error
	WriteRecords(ctx context.Context, userID string, feed ledger.Feed, records []ledger.Record) error

	// Watch delivers the feed's records now and after every change until
	// ctx is done, then closes the channel.
	Watch(ctx context.Context, userID string, feed ledger.Feed) (<-chan Snapshot, error)

	// Budget operations
	GetBudget(ctx context.Context, userID string) (ledger.Budget, error)
	SetBudget(ctx context.Context, userID string, budget ledger.Budget) error

	// Spend operations
	AddSpend(ctx context.Context, userID string, spend ledger.Spend) error
	ListSpends(ctx context.Context, userID string, pageSize int32, pageToken string) ([]ledger.Spend, string, error)

	// Profile operations
	GetProfile(ctx context.Context, userID string) (*ledger.Profile, error)
	UpdateProfile(ctx context.Context, profile *ledger.Profile) error
}

// checkBatch validates the size and feed of a write batch.
func checkBatch(feed ledger.Feed, n int) error {
	if !feed.Valid() {
		return fmt.Errorf("unknown feed %q", feed)
	}
	if n > MaxBatchSize {
		return fmt.Errorf("%w: %d operations, limit %d", ErrBatchTooLarge, n, MaxBatchSize)
	}
	return nil
}

func checkRecords(feed ledger.Feed, records []ledger.Record) error {
	if err := checkBatch(feed, len(records)); err != nil {
		return err
	}
	for _, r := range records {
		if r.Feed() != feed {
			return fmt.Errorf("record %q belongs to feed %s, not %s", r.StorageKey(), r.Feed(), feed)
		}
	}
	return nil
}

// encodeRecord serializes a record for backends that store opaque payloads.
func encodeRecord(r ledger.Record) ([]byte, error) {
	return json.Marshal(r)
}

// decodeRecord is the inverse of encodeRecord for the given feed.
func decodeRecord(feed ledger.Feed, payload []byte) (ledger.Record, error) {
	switch feed {
	case ledger.FeedBills:
		var r ledger.CardMonth
		err := json.Unmarshal(payload, &r)
		return r, err
	case ledger.FeedMonthly:
		var r ledger.MonthExpenditure
		err := json.Unmarshal(payload, &r)
		return r, err
	case ledger.FeedTracks:
		var r ledger.SegmentMonth
		err := json.Unmarshal(payload, &r)
		return r, err
	case ledger.FeedDebts:
		var r ledger.Debt
		err := json.Unmarshal(payload, &r)
		return r, err
	}
	return nil, fmt.Errorf("unknown feed %q", feed)
}

var (
	docIDEscaper   = strings.NewReplacer("%", "%25", "/", "%2F")
	docIDUnescaper = strings.NewReplacer("%2F", "/", "%25", "%")
)

// EscapeDocID makes a storage key safe to use as a document ID.
func EscapeDocID(key string) string {
	escaped := docIDEscaper.Replace(key)
	switch escaped {
	case ".":
		return "%2E"
	case "..":
		return "%2E%2E"
	}
	return escaped
}

// UnescapeDocID reverses EscapeDocID.
func UnescapeDocID(id string) string {
	switch id {
	case "%2E":
		return "."
	case "%2E%2E":
		return ".."
	}
	return docIDUnescaper.Replace(id)
}

// EncodePageToken encodes a document ID into a page token.
func EncodePageToken(docID string) string {
	if docID == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(docID))
}

// DecodePageToken decodes a page token back to a document ID.
func DecodePageToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
