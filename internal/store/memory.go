package store

import (
	"context"
	"sort"
	"sync"

	"github.com/credix-app/credix/backend/internal/ledger"
)

type feedKey struct {
	userID string
	feed   ledger.Feed
}

// MemoryStore implements Store interface with in-memory storage
type MemoryStore struct {
	mu sync.RWMutex

	records  map[feedKey]map[string]ledger.Record
	budgets  map[string]ledger.Budget
	spends   map[string]map[string]ledger.Spend
	profiles map[string]*ledger.Profile

	watchMu  sync.Mutex
	watchers map[feedKey]map[int]chan Snapshot
	nextID   int

	// failWrites makes the next WriteRecords call fail; used by tests that
	// exercise partial persistence.
	failWrites error
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[feedKey]map[string]ledger.Record),
		budgets:  make(map[string]ledger.Budget),
		spends:   make(map[string]map[string]ledger.Spend),
		profiles: make(map[string]*ledger.Profile),
		watchers: make(map[feedKey]map[int]chan Snapshot),
	}
}

// FailNextWrite makes the next WriteRecords call return err without
// applying any change.
func (m *MemoryStore) FailNextWrite(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites = err
}

// paginateIDs applies cursor-based pagination to a sorted slice of IDs.
// Returns the paginated IDs and the next page token (empty if no more pages).
func paginateIDs(ids []string, pageSize int32, pageToken string) ([]string, string) {
	if pageSize <= 0 {
		pageSize = 100
	}

	sort.Strings(ids)

	startIdx := 0
	if pageToken != "" {
		cursorID, err := DecodePageToken(pageToken)
		if err == nil {
			startIdx = sort.Search(len(ids), func(i int) bool { return ids[i] > cursorID })
		}
	}
	ids = ids[startIdx:]

	var nextToken string
	if int32(len(ids)) > pageSize {
		nextToken = EncodePageToken(ids[pageSize-1])
		ids = ids[:pageSize]
	}
	return ids, nextToken
}

// Feed record operations

func (m *MemoryStore) ListRecords(ctx context.Context, userID string, scope ledger.Scope) ([]ledger.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(userID, scope), nil
}

func (m *MemoryStore) listLocked(userID string, scope ledger.Scope) []ledger.Record {
	docs := m.records[feedKey{userID, scope.Feed}]
	keys := make([]string, 0, len(docs))
	for k, r := range docs {
		if scope.Contains(r) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make([]ledger.Record, 0, len(keys))
	for _, k := range keys {
		out = append(out, cloneRecord(docs[k]))
	}
	return out
}

func (m *MemoryStore) ListKeys(ctx context.Context, userID string, scope ledger.Scope) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k, r := range m.records[feedKey{userID, scope.Feed}] {
		if scope.Contains(r) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) DeleteRecords(ctx context.Context, userID string, feed ledger.Feed, keys []string) error {
	if err := checkBatch(feed, len(keys)); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	m.mu.Lock()
	fk := feedKey{userID, feed}
	for _, k := range keys {
		delete(m.records[fk], k)
	}
	snap := m.listLocked(userID, ledger.FeedScope(feed))
	m.mu.Unlock()

	m.broadcast(fk, snap)
	return nil
}

func (m *MemoryStore) WriteRecords(ctx context.Context, userID string, feed ledger.Feed, records []ledger.Record) error {
	if err := checkRecords(feed, records); err != nil {
		return err
	}

	m.mu.Lock()
	if err := m.failWrites; err != nil {
		m.failWrites = nil
		m.mu.Unlock()
		return err
	}
	fk := feedKey{userID, feed}
	docs, ok := m.records[fk]
	if !ok {
		docs = make(map[string]ledger.Record)
		m.records[fk] = docs
	}
	for _, r := range records {
		docs[r.StorageKey()] = cloneRecord(r)
	}
	snap := m.listLocked(userID, ledger.FeedScope(feed))
	m.mu.Unlock()

	m.broadcast(fk, snap)
	return nil
}

func (m *MemoryStore) Watch(ctx context.Context, userID string, feed ledger.Feed) (<-chan Snapshot, error) {
	if !feed.Valid() {
		return nil, checkBatch(feed, 0)
	}
	fk := feedKey{userID, feed}

	// Buffered by one: a slow reader only ever misses intermediate
	// snapshots, never the latest.
	ch := make(chan Snapshot, 1)

	m.watchMu.Lock()
	id := m.nextID
	m.nextID++
	if m.watchers[fk] == nil {
		m.watchers[fk] = make(map[int]chan Snapshot)
	}
	m.watchers[fk][id] = ch

	m.mu.RLock()
	ch <- Snapshot{Feed: feed, Records: m.listLocked(userID, ledger.FeedScope(feed))}
	m.mu.RUnlock()
	m.watchMu.Unlock()

	go func() {
		<-ctx.Done()
		m.watchMu.Lock()
		delete(m.watchers[fk], id)
		close(ch)
		m.watchMu.Unlock()
	}()
	return ch, nil
}

func (m *MemoryStore) broadcast(fk feedKey, records []ledger.Record) {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()

	for _, ch := range m.watchers[fk] {
		snap := Snapshot{Feed: fk.feed, Records: cloneRecords(records)}
		select {
		case ch <- snap:
		default:
			// Replace the stale pending snapshot with the latest one.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// Budget operations

func (m *MemoryStore) GetBudget(ctx context.Context, userID string) (ledger.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(ledger.Budget, len(m.budgets[userID]))
	for k, v := range m.budgets[userID] {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) SetBudget(ctx context.Context, userID string, budget ledger.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make(ledger.Budget, len(budget))
	for k, v := range budget {
		stored[k] = v
	}
	m.budgets[userID] = stored
	return nil
}

// Spend operations

func (m *MemoryStore) AddSpend(ctx context.Context, userID string, spend ledger.Spend) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.spends[userID] == nil {
		m.spends[userID] = make(map[string]ledger.Spend)
	}
	m.spends[userID][spend.ID] = spend
	return nil
}

func (m *MemoryStore) ListSpends(ctx context.Context, userID string, pageSize int32, pageToken string) ([]ledger.Spend, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.spends[userID]))
	for id := range m.spends[userID] {
		ids = append(ids, id)
	}
	page, next := paginateIDs(ids, pageSize, pageToken)

	out := make([]ledger.Spend, 0, len(page))
	for _, id := range page {
		out = append(out, m.spends[userID][id])
	}
	return out, next, nil
}

// Profile operations

func (m *MemoryStore) GetProfile(ctx context.Context, userID string) (*ledger.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) UpdateProfile(ctx context.Context, profile *ledger.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *profile
	m.profiles[profile.UserID] = &cp
	return nil
}

func cloneRecords(records []ledger.Record) []ledger.Record {
	out := make([]ledger.Record, len(records))
	for i, r := range records {
		out[i] = cloneRecord(r)
	}
	return out
}

// cloneRecord copies the maps inside a record so callers cannot mutate
// stored state.
func cloneRecord(r ledger.Record) ledger.Record {
	switch v := r.(type) {
	case ledger.CardMonth:
		amounts := make(map[ledger.MonthName]ledger.Amount, len(v.Amounts))
		for k, a := range v.Amounts {
			amounts[k] = a
		}
		v.Amounts = amounts
		return v
	case ledger.SegmentMonth:
		segments := make(map[ledger.SegmentName]ledger.Amount, len(v.Segments))
		for k, a := range v.Segments {
			segments[k] = a
		}
		v.Segments = segments
		return v
	}
	return r
}
