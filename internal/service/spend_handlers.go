package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/credix-app/credix/backend/internal/auth"
	"github.com/credix-app/credix/backend/internal/ledger"
	"github.com/credix-app/credix/backend/internal/search"
	"github.com/credix-app/credix/backend/internal/store"
)

// GetBudget returns the user's monthly budget. A user without one gets an
// empty budget.
func (s *CredixService) GetBudget(ctx context.Context, req *connect.Request[GetBudgetRequest]) (*connect.Response[BudgetResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	budget, err := s.budget(ctx, claims.UID)
	if err != nil {
		return nil, mapError("get budget", err)
	}
	return connect.NewResponse(&BudgetResponse{Budget: budget, Total: budget.Total()}), nil
}

func (s *CredixService) budget(ctx context.Context, userID string) (ledger.Budget, error) {
	budget, err := s.store.GetBudget(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ledger.Budget{}, nil
	}
	if err != nil {
		return nil, err
	}
	if budget == nil {
		budget = ledger.Budget{}
	}
	return budget, nil
}

// UpdateBudget sets one month's budget, or replaces the whole map.
func (s *CredixService) UpdateBudget(ctx context.Context, req *connect.Request[UpdateBudgetRequest]) (*connect.Response[BudgetResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	var budget ledger.Budget
	if req.Msg.Budget != nil {
		budget = make(ledger.Budget, len(req.Msg.Budget))
		for m, a := range req.Msg.Budget {
			month, ok := ledger.ParseMonth(string(m))
			if !ok {
				return nil, invalidArgument("unknown month %q", m)
			}
			budget[month] = a.Normalize()
		}
	} else {
		month, ok := ledger.ParseMonth(string(req.Msg.Month))
		if !ok {
			return nil, invalidArgument("unknown month %q", req.Msg.Month)
		}
		budget, err = s.budget(ctx, claims.UID)
		if err != nil {
			return nil, mapError("get budget", err)
		}
		budget[month] = req.Msg.Amount.Normalize()
	}

	if err := s.store.SetBudget(ctx, claims.UID, budget); err != nil {
		return nil, mapError("update budget", err)
	}
	return connect.NewResponse(&BudgetResponse{Budget: budget, Total: budget.Total()}), nil
}

// AddSpend records a manual payment and indexes it for search.
func (s *CredixService) AddSpend(ctx context.Context, req *connect.Request[AddSpendRequest]) (*connect.Response[AddSpendResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	spend, err := ledger.NewSpend(req.Msg.Amount, req.Msg.Date, req.Msg.Category, req.Msg.Note, s.now())
	if err != nil {
		return nil, invalidArgument("%v", err)
	}
	if err := s.store.AddSpend(ctx, claims.UID, spend); err != nil {
		return nil, mapError("add spend", err)
	}

	// The spend is saved; a stale search index is not worth failing over.
	if err := s.search.IndexSpend(ctx, claims.UID, spend); err != nil {
		s.log.Warn().Err(err).Str("user_id", claims.UID).Str("spend_id", spend.ID).Msg("failed to index spend")
	}

	return connect.NewResponse(&AddSpendResponse{Spend: spend}), nil
}

// ListSpends pages through the user's spends, oldest first.
func (s *CredixService) ListSpends(ctx context.Context, req *connect.Request[ListSpendsRequest]) (*connect.Response[ListSpendsResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	spends, next, err := s.store.ListSpends(ctx, claims.UID, auth.NormalizePageSize(req.Msg.PageSize), req.Msg.PageToken)
	if err != nil {
		return nil, mapError("list spends", err)
	}
	if spends == nil {
		spends = []ledger.Spend{}
	}
	return connect.NewResponse(&ListSpendsResponse{Spends: spends, NextPageToken: next}), nil
}

// SearchSpends runs a full-text query over the caller's spends.
func (s *CredixService) SearchSpends(ctx context.Context, req *connect.Request[SearchSpendsRequest]) (*connect.Response[SearchSpendsResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	var month ledger.MonthName
	if req.Msg.Month != "" {
		m, ok := ledger.ParseMonth(string(req.Msg.Month))
		if !ok {
			return nil, invalidArgument("unknown month %q", req.Msg.Month)
		}
		month = m
	}

	resp, err := s.search.Search(ctx, search.SearchParams{
		Query:     req.Msg.Query,
		UserID:    claims.UID,
		Category:  req.Msg.Category,
		Month:     month,
		AmountMin: req.Msg.AmountMin,
		AmountMax: req.Msg.AmountMax,
		Page:      req.Msg.Page,
		PageSize:  req.Msg.PageSize,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	return connect.NewResponse(resp), nil
}

// allSpends drains every page of the user's spends.
func (s *CredixService) allSpends(ctx context.Context, userID string) ([]ledger.Spend, error) {
	var (
		all   []ledger.Spend
		token string
	)
	for {
		page, next, err := s.store.ListSpends(ctx, userID, store.MaxBatchSize, token)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		token = next
	}
}
