// Package search indexes manually entered spends for full-text lookup.
package search

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/credix-app/credix/backend/internal/ledger"
)

// DefaultIndexName is used when ALGOLIA_INDEX_NAME is unset.
const DefaultIndexName = "credix_spends"

// SearchParams defines the input for a spend search.
type SearchParams struct {
	Query    string
	UserID   string
	Category string
	Month    ledger.MonthName
	// Amount range
	AmountMin float64
	AmountMax float64
	// Pagination (offset-based)
	Page     int
	PageSize int
}

// SearchResponse holds one page of matching spends.
type SearchResponse struct {
	Results    []ledger.Spend `json:"results"`
	TotalCount int            `json:"totalCount"`
	TotalPages int            `json:"totalPages"`
	Page       int            `json:"page"`
}

// Index is a per-user spend search index.
type Index interface {
	IndexSpend(ctx context.Context, userID string, spend ledger.Spend) error
	Search(ctx context.Context, params SearchParams) (*SearchResponse, error)
}

func normalizePaging(params SearchParams) (page, pageSize int) {
	pageSize = params.PageSize
	if pageSize <= 0 {
		pageSize = 25
	}
	if pageSize > 100 {
		pageSize = 100
	}
	page = params.Page
	if page < 0 {
		page = 0
	}
	return page, pageSize
}

// MemoryIndex is the Index used when Algolia is not configured. Matching is
// a case-insensitive substring test over note and category.
type MemoryIndex struct {
	mu     sync.RWMutex
	spends map[string][]ledger.Spend
}

var _ Index = (*MemoryIndex)(nil)

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{spends: make(map[string][]ledger.Spend)}
}

func (m *MemoryIndex) IndexSpend(_ context.Context, userID string, spend ledger.Spend) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.spends[userID]
	for i := range list {
		if list[i].ID == spend.ID {
			list[i] = spend
			return nil
		}
	}
	m.spends[userID] = append(list, spend)
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, params SearchParams) (*SearchResponse, error) {
	page, pageSize := normalizePaging(params)
	query := strings.ToLower(strings.TrimSpace(params.Query))

	m.mu.RLock()
	var hits []ledger.Spend
	for _, s := range m.spends[params.UserID] {
		if matches(s, query, params) {
			hits = append(hits, s)
		}
	}
	m.mu.RUnlock()

	// Most recent first, the same ranking the Algolia index applies.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].CreatedAt.After(hits[j].CreatedAt)
	})

	resp := &SearchResponse{
		Results:    []ledger.Spend{},
		TotalCount: len(hits),
		TotalPages: (len(hits) + pageSize - 1) / pageSize,
		Page:       page,
	}
	start := page * pageSize
	if start < len(hits) {
		end := start + pageSize
		if end > len(hits) {
			end = len(hits)
		}
		resp.Results = hits[start:end]
	}
	return resp, nil
}

func matches(s ledger.Spend, query string, params SearchParams) bool {
	if query != "" &&
		!strings.Contains(strings.ToLower(s.Note), query) &&
		!strings.Contains(strings.ToLower(s.Category), query) {
		return false
	}
	if params.Category != "" && !strings.EqualFold(s.Category, params.Category) {
		return false
	}
	if params.Month != "" && s.Month != params.Month {
		return false
	}
	if params.AmountMin > 0 && float64(s.Amount) < params.AmountMin {
		return false
	}
	if params.AmountMax > 0 && float64(s.Amount) > params.AmountMax {
		return false
	}
	return true
}
