package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/algolia/algoliasearch-client-go/v4/algolia/search"
	"github.com/rs/zerolog"

	"github.com/credix-app/credix/backend/internal/ledger"
)

// Config holds Algolia configuration.
type Config struct {
	AppID     string
	APIKey    string // Admin key; the server both writes and queries
	IndexName string
}

// AlgoliaClient wraps the Algolia search API client.
type AlgoliaClient struct {
	client    *search.APIClient
	indexName string
	log       zerolog.Logger
}

var _ Index = (*AlgoliaClient)(nil)

// NewAlgoliaClient creates a new Algolia search client.
func NewAlgoliaClient(cfg Config, log zerolog.Logger) (*AlgoliaClient, error) {
	if cfg.AppID == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("algolia AppID and APIKey are required")
	}
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}

	client, err := search.NewClient(cfg.AppID, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("creating algolia client: %w", err)
	}

	return &AlgoliaClient{
		client:    client,
		indexName: cfg.IndexName,
		log:       log.With().Str("component", "search").Logger(),
	}, nil
}

// IndexSettings is the single source of truth for the spend index config.
func IndexSettings() *search.IndexSettings {
	return &search.IndexSettings{
		SearchableAttributes: []string{
			"Note",
			"Category",
		},
		AttributesForFaceting: []string{
			"filterOnly(UserId)",
			"searchable(Category)",
			"filterOnly(Month)",
		},
		NumericAttributesForFiltering: []string{
			"Amount",
			"DateUnix",
		},
		// Most recent spends first
		CustomRanking: []string{
			"desc(CreatedUnix)",
		},
		// UserId is filter-only and never returned.
		AttributesToRetrieve: []string{
			"objectID",
			"SpendId",
			"Note",
			"Category",
			"Amount",
			"Date",
			"Month",
			"CreatedUnix",
		},
		AttributesToHighlight: []string{
			"Note",
			"Category",
		},
		HitsPerPage: int32Ptr(25),
	}
}

// ApplySettings pushes IndexSettings to the index.
func (c *AlgoliaClient) ApplySettings(ctx context.Context) error {
	resp, err := c.client.SetSettings(c.client.NewApiSetSettingsRequest(c.indexName, IndexSettings()))
	if err != nil {
		return fmt.Errorf("algolia set settings: %w", err)
	}
	c.log.Info().Str("index", c.indexName).Int64("task_id", resp.TaskID).Msg("index settings applied")
	return nil
}

// IndexSpend adds or replaces the spend's object. Object IDs are scoped by
// user so two users' spends never collide.
func (c *AlgoliaClient) IndexSpend(ctx context.Context, userID string, spend ledger.Spend) error {
	objectID := userID + "_" + spend.ID
	_, err := c.client.AddOrUpdateObject(c.client.NewApiAddOrUpdateObjectRequest(c.indexName, objectID, spendToObject(userID, spend)))
	if err != nil {
		return fmt.Errorf("algolia index spend %s: %w", spend.ID, err)
	}
	return nil
}

// Search performs a full-text search via Algolia.
func (c *AlgoliaClient) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	if params.UserID == "" {
		return nil, fmt.Errorf("algolia search: user id is required")
	}
	page, pageSize := normalizePaging(params)

	searchParams := search.SearchParamsObjectAsSearchParams(
		search.NewSearchParamsObject().
			SetQuery(params.Query).
			SetHitsPerPage(int32(pageSize)).
			SetPage(int32(page)).
			SetFilters(buildFilters(params)),
	)

	resp, err := c.client.SearchSingleIndex(c.client.NewApiSearchSingleIndexRequest(c.indexName).WithSearchParams(searchParams))
	if err != nil {
		return nil, fmt.Errorf("algolia search: %w", err)
	}

	results := make([]ledger.Spend, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		spend, ok := hitToSpend(hit.AdditionalProperties)
		if !ok {
			c.log.Warn().Msg("skipping hit with no spend id")
			continue
		}
		results = append(results, spend)
	}

	totalCount := 0
	if resp.NbHits != nil {
		totalCount = int(*resp.NbHits)
	}
	totalPages := 0
	if resp.NbPages != nil {
		totalPages = int(*resp.NbPages)
	}

	return &SearchResponse{
		Results:    results,
		TotalCount: totalCount,
		TotalPages: totalPages,
		Page:       page,
	}, nil
}

func spendToObject(userID string, s ledger.Spend) map[string]any {
	obj := map[string]any{
		"UserId":      userID,
		"SpendId":     s.ID,
		"Note":        s.Note,
		"Category":    s.Category,
		"Amount":      float64(s.Amount),
		"Date":        s.Date,
		"Month":       string(s.Month),
		"CreatedUnix": s.CreatedAt.Unix(),
	}
	if d, err := time.Parse(ledger.DateLayout, s.Date); err == nil {
		obj["DateUnix"] = d.Unix()
	}
	return obj
}

// buildFilters constructs Algolia filter string from search params.
// UserId is always enforced for security.
func buildFilters(params SearchParams) string {
	parts := []string{fmt.Sprintf("UserId:%q", params.UserID)}

	if params.Category != "" {
		parts = append(parts, fmt.Sprintf("Category:%q", params.Category))
	}
	if params.Month != "" {
		parts = append(parts, fmt.Sprintf("Month:%q", string(params.Month)))
	}

	// Amount range
	if params.AmountMin > 0 {
		parts = append(parts, fmt.Sprintf("Amount >= %f", params.AmountMin))
	}
	if params.AmountMax > 0 {
		parts = append(parts, fmt.Sprintf("Amount <= %f", params.AmountMax))
	}

	return strings.Join(parts, " AND ")
}

// hitToSpend converts an Algolia hit back to a spend.
func hitToSpend(props map[string]any) (ledger.Spend, bool) {
	var s ledger.Spend

	if v, ok := props["SpendId"].(string); ok {
		s.ID = v
	}
	if v, ok := props["Note"].(string); ok {
		s.Note = v
	}
	if v, ok := props["Category"].(string); ok {
		s.Category = v
	}
	if v, ok := props["Amount"].(float64); ok {
		s.Amount = ledger.Amount(v)
	}
	if v, ok := props["Date"].(string); ok {
		s.Date = v
	}
	if v, ok := props["Month"].(string); ok {
		if m, ok := ledger.ParseMonth(v); ok {
			s.Month = m
		}
	}
	if v, ok := props["CreatedUnix"].(float64); ok && v > 0 {
		s.CreatedAt = time.Unix(int64(v), 0).UTC()
	}

	return s, s.ID != ""
}

func int32Ptr(v int32) *int32 { return &v }
