package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/credix-app/credix/backend/internal/ledger"

	_ "modernc.org/sqlite"
)

// DefaultPollInterval is how often SQLite watches re-read their feed.
const DefaultPollInterval = 2 * time.Second

// SQLiteStore implements Store on an embedded SQLite database. It has no
// change feed, so Watch polls.
type SQLiteStore struct {
	db           *sql.DB
	pollInterval time.Duration
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and runs
// migrations.
func NewSQLiteStore(dbPath string, pollInterval time.Duration) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection keeps batches serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &SQLiteStore{db: db, pollInterval: pollInterval}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Feed record operations

func (s *SQLiteStore) ListRecords(ctx context.Context, userID string, scope ledger.Scope) ([]ledger.Record, error) {
	query, args := scopeSQL("record_key, payload", userID, scope)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", scope, err)
	}
	defer rows.Close()

	var out []ledger.Record
	for rows.Next() {
		var key, payload string
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", scope, err)
		}
		r, err := decodeRecord(scope.Feed, []byte(payload))
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", scope.Feed, key, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListKeys(ctx context.Context, userID string, scope ledger.Scope) ([]string, error) {
	query, args := scopeSQL("record_key", userID, scope)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", scope, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan %s: %w", scope, err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func scopeSQL(columns, userID string, scope ledger.Scope) (string, []any) {
	query := "SELECT " + columns + " FROM records WHERE user_id = ? AND feed = ?"
	args := []any{userID, string(scope.Feed)}
	if !scope.All() {
		query += " AND year = ?"
		args = append(args, scope.Year)
	}
	return query + " ORDER BY record_key", args
}

func (s *SQLiteStore) DeleteRecords(ctx context.Context, userID string, feed ledger.Feed, keys []string) error {
	if err := checkBatch(feed, len(keys)); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, "DELETE FROM records WHERE user_id = ? AND feed = ? AND record_key = ?")
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, k := range keys {
			if _, err := stmt.ExecContext(ctx, userID, string(feed), k); err != nil {
				return fmt.Errorf("delete %s/%s: %w", feed, k, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) WriteRecords(ctx context.Context, userID string, feed ledger.Feed, records []ledger.Record) error {
	if err := checkRecords(feed, records); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO records (user_id, feed, record_key, year, payload, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, feed, record_key)
			DO UPDATE SET year = excluded.year, payload = excluded.payload, updated_at = excluded.updated_at`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range records {
			payload, err := encodeRecord(r)
			if err != nil {
				return fmt.Errorf("encode %s/%s: %w", feed, r.StorageKey(), err)
			}
			if _, err := stmt.ExecContext(ctx, userID, string(feed), r.StorageKey(), r.ScopeYear(), string(payload), now); err != nil {
				return fmt.Errorf("write %s/%s: %w", feed, r.StorageKey(), err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Watch(ctx context.Context, userID string, feed ledger.Feed) (<-chan Snapshot, error) {
	if !feed.Valid() {
		return nil, fmt.Errorf("unknown feed %q", feed)
	}

	ch := make(chan Snapshot, 1)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		var last string
		first := true
		for {
			records, err := s.ListRecords(ctx, userID, ledger.FeedScope(feed))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				sendLatest(ctx, ch, Snapshot{Feed: feed, Err: err})
				return
			}
			if fp := fingerprint(records); first || fp != last {
				first = false
				last = fp
				sendLatest(ctx, ch, Snapshot{Feed: feed, Records: records})
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return ch, nil
}

// fingerprint identifies a record set's content for change detection.
func fingerprint(records []ledger.Record) string {
	var b strings.Builder
	for _, r := range records {
		payload, _ := encodeRecord(r)
		b.WriteString(r.StorageKey())
		b.WriteByte(0)
		b.Write(payload)
		b.WriteByte(0)
	}
	return b.String()
}

// Budget operations

func (s *SQLiteStore) GetBudget(ctx context.Context, userID string) (ledger.Budget, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM budgets WHERE user_id = ?", userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Budget{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}

	budget := ledger.Budget{}
	if err := json.Unmarshal([]byte(payload), &budget); err != nil {
		return nil, fmt.Errorf("decode budget: %w", err)
	}
	return budget, nil
}

func (s *SQLiteStore) SetBudget(ctx context.Context, userID string, budget ledger.Budget) error {
	payload, err := json.Marshal(budget)
	if err != nil {
		return fmt.Errorf("encode budget: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, payload) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET payload = excluded.payload`, userID, string(payload))
	if err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return nil
}

// Spend operations

func (s *SQLiteStore) AddSpend(ctx context.Context, userID string, spend ledger.Spend) error {
	payload, err := json.Marshal(spend)
	if err != nil {
		return fmt.Errorf("encode spend: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "INSERT INTO spends (user_id, id, payload) VALUES (?, ?, ?)", userID, spend.ID, string(payload)); err != nil {
		return fmt.Errorf("add spend: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListSpends(ctx context.Context, userID string, pageSize int32, pageToken string) ([]ledger.Spend, string, error) {
	if pageSize <= 0 {
		pageSize = 100
	}
	cursor, err := DecodePageToken(pageToken)
	if err != nil {
		return nil, "", fmt.Errorf("invalid page token: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT payload FROM spends WHERE user_id = ? AND id > ? ORDER BY id LIMIT ?",
		userID, cursor, pageSize+1)
	if err != nil {
		return nil, "", fmt.Errorf("list spends: %w", err)
	}
	defer rows.Close()

	var spends []ledger.Spend
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, "", fmt.Errorf("scan spend: %w", err)
		}
		var spend ledger.Spend
		if err := json.Unmarshal([]byte(payload), &spend); err != nil {
			return nil, "", fmt.Errorf("decode spend: %w", err)
		}
		spends = append(spends, spend)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if int32(len(spends)) > pageSize {
		spends = spends[:pageSize]
		next = EncodePageToken(spends[pageSize-1].ID)
	}
	return spends, next, nil
}

// Profile operations

func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*ledger.Profile, error) {
	var email, url, updated string
	err := s.db.QueryRowContext(ctx,
		"SELECT email, photo_url, updated_at FROM profiles WHERE user_id = ?", userID).
		Scan(&email, &url, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	profile := &ledger.Profile{UserID: userID, Email: email, PhotoURL: url}
	if updated != "" {
		if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			profile.UpdatedAt = t
		}
	}
	return profile, nil
}

func (s *SQLiteStore) UpdateProfile(ctx context.Context, profile *ledger.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, email, photo_url, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			email = excluded.email, photo_url = excluded.photo_url, updated_at = excluded.updated_at`,
		profile.UserID, profile.Email, profile.PhotoURL, profile.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}
