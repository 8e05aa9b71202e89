package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/credix-app/credix/backend/internal/ledger"
)

const (
	usersCollection   = "users"
	budgetsCollection = "budgets"
	budgetDocID       = "budget"
	spendsCollection  = "upiSpends"
	profileCollection = "profile"
	profileDocID      = "img"
)

// FirestoreStore implements the Store interface using Firestore
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store
func NewFirestoreStore(client *firestore.Client) Store {
	return &FirestoreStore{
		client: client,
	}
}

func (s *FirestoreStore) user(userID string) *firestore.DocumentRef {
	return s.client.Collection(usersCollection).Doc(userID)
}

// feed returns users/{uid}/{feed}.
func (s *FirestoreStore) feed(userID string, feed ledger.Feed) *firestore.CollectionRef {
	return s.user(userID).Collection(string(feed))
}

func (s *FirestoreStore) scopeQuery(userID string, scope ledger.Scope) firestore.Query {
	q := s.feed(userID, scope.Feed).Query
	if !scope.All() {
		q = q.Where("year", "==", scope.Year)
	}
	return q
}

// Feed record operations

func (s *FirestoreStore) ListRecords(ctx context.Context, userID string, scope ledger.Scope) ([]ledger.Record, error) {
	docs, err := s.scopeQuery(userID, scope).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", scope, err)
	}
	return decodeDocs(scope.Feed, docs)
}

func (s *FirestoreStore) ListKeys(ctx context.Context, userID string, scope ledger.Scope) ([]string, error) {
	docs, err := s.scopeQuery(userID, scope).Select().Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", scope, err)
	}
	keys := make([]string, 0, len(docs))
	for _, doc := range docs {
		keys = append(keys, UnescapeDocID(doc.Ref.ID))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FirestoreStore) DeleteRecords(ctx context.Context, userID string, feed ledger.Feed, keys []string) error {
	if err := checkBatch(feed, len(keys)); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	col := s.feed(userID, feed)
	err := WithRetry(ctx, DefaultCommitRetryConfig, IsTransient, func(ctx context.Context) error {
		batch := s.client.Batch()
		for _, k := range keys {
			batch.Delete(col.Doc(EscapeDocID(k)))
		}
		_, err := batch.Commit(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to batch delete %s: %w", feed, err)
	}
	return nil
}

func (s *FirestoreStore) WriteRecords(ctx context.Context, userID string, feed ledger.Feed, records []ledger.Record) error {
	if err := checkRecords(feed, records); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	col := s.feed(userID, feed)
	err := WithRetry(ctx, DefaultCommitRetryConfig, IsTransient, func(ctx context.Context) error {
		batch := s.client.Batch()
		for _, r := range records {
			batch.Set(col.Doc(EscapeDocID(r.StorageKey())), r)
		}
		_, err := batch.Commit(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to batch write %s: %w", feed, err)
	}
	return nil
}

func (s *FirestoreStore) Watch(ctx context.Context, userID string, feed ledger.Feed) (<-chan Snapshot, error) {
	if !feed.Valid() {
		return nil, fmt.Errorf("unknown feed %q", feed)
	}

	it := s.feed(userID, feed).Snapshots(ctx)
	ch := make(chan Snapshot, 1)
	go func() {
		defer close(ch)
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				sendLatest(ctx, ch, Snapshot{Feed: feed, Err: fmt.Errorf("watch %s: %w", feed, err)})
				return
			}
			docs, err := qs.Documents.GetAll()
			if err != nil {
				sendLatest(ctx, ch, Snapshot{Feed: feed, Err: fmt.Errorf("read %s snapshot: %w", feed, err)})
				return
			}
			records, err := decodeDocs(feed, docs)
			if err != nil {
				sendLatest(ctx, ch, Snapshot{Feed: feed, Err: err})
				return
			}
			sendLatest(ctx, ch, Snapshot{Feed: feed, Records: records})
		}
	}()
	return ch, nil
}

// Budget operations

func (s *FirestoreStore) GetBudget(ctx context.Context, userID string) (ledger.Budget, error) {
	doc, err := s.user(userID).Collection(budgetsCollection).Doc(budgetDocID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return ledger.Budget{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}

	budget := ledger.Budget{}
	for k, v := range doc.Data() {
		m, ok := ledger.ParseMonth(k)
		if !ok {
			continue
		}
		switch n := v.(type) {
		case int64:
			budget[m] = ledger.Amount(n).Normalize()
		case float64:
			budget[m] = ledger.Amount(n).Normalize()
		}
	}
	return budget, nil
}

func (s *FirestoreStore) SetBudget(ctx context.Context, userID string, budget ledger.Budget) error {
	data := make(map[string]interface{}, len(budget))
	for m, amount := range budget {
		data[string(m)] = float64(amount)
	}
	_, err := s.user(userID).Collection(budgetsCollection).Doc(budgetDocID).Set(ctx, data)
	return err
}

// Spend operations

func (s *FirestoreStore) AddSpend(ctx context.Context, userID string, spend ledger.Spend) error {
	_, err := s.user(userID).Collection(spendsCollection).Doc(spend.ID).Set(ctx, spend)
	return err
}

func (s *FirestoreStore) ListSpends(ctx context.Context, userID string, pageSize int32, pageToken string) ([]ledger.Spend, string, error) {
	if pageSize <= 0 {
		pageSize = 100
	}
	query := s.user(userID).Collection(spendsCollection).OrderBy(firestore.DocumentID, firestore.Asc)
	if pageToken != "" {
		cursor, err := DecodePageToken(pageToken)
		if err != nil {
			return nil, "", fmt.Errorf("invalid page token: %w", err)
		}
		query = query.StartAfter(cursor)
	}

	iter := query.Limit(int(pageSize) + 1).Documents(ctx)
	defer iter.Stop()

	var spends []ledger.Spend
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to list spends: %w", err)
		}
		var spend ledger.Spend
		if err := doc.DataTo(&spend); err != nil {
			return nil, "", fmt.Errorf("failed to parse spend %s: %w", doc.Ref.ID, err)
		}
		if spend.ID == "" {
			spend.ID = doc.Ref.ID
		}
		spends = append(spends, spend)
	}

	var next string
	if int32(len(spends)) > pageSize {
		spends = spends[:pageSize]
		next = EncodePageToken(spends[pageSize-1].ID)
	}
	return spends, next, nil
}

// Profile operations

func (s *FirestoreStore) GetProfile(ctx context.Context, userID string) (*ledger.Profile, error) {
	doc, err := s.user(userID).Collection(profileCollection).Doc(profileDocID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var profile ledger.Profile
	if err := doc.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	profile.UserID = userID
	return &profile, nil
}

func (s *FirestoreStore) UpdateProfile(ctx context.Context, profile *ledger.Profile) error {
	_, err := s.user(profile.UserID).Collection(profileCollection).Doc(profileDocID).Set(ctx, profile)
	return err
}

func decodeDocs(feed ledger.Feed, docs []*firestore.DocumentSnapshot) ([]ledger.Record, error) {
	out := make([]ledger.Record, 0, len(docs))
	for _, doc := range docs {
		r, err := decodeDoc(feed, doc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s/%s: %w", feed, doc.Ref.ID, err)
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StorageKey() < out[j].StorageKey() })
	return out, nil
}

func decodeDoc(feed ledger.Feed, doc *firestore.DocumentSnapshot) (ledger.Record, error) {
	switch feed {
	case ledger.FeedBills:
		var r ledger.CardMonth
		err := doc.DataTo(&r)
		return r, err
	case ledger.FeedMonthly:
		var r ledger.MonthExpenditure
		err := doc.DataTo(&r)
		return r, err
	case ledger.FeedTracks:
		var r ledger.SegmentMonth
		err := doc.DataTo(&r)
		return r, err
	case ledger.FeedDebts:
		var r ledger.Debt
		err := doc.DataTo(&r)
		return r, err
	}
	return nil, fmt.Errorf("unknown feed %q", feed)
}

// sendLatest delivers snap, dropping a pending undelivered snapshot so the
// reader always sees the newest state.
func sendLatest(ctx context.Context, ch chan Snapshot, snap Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		case <-ctx.Done():
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
