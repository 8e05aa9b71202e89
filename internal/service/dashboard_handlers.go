package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/credix-app/credix/backend/internal/analytics"
	"github.com/credix-app/credix/backend/internal/auth"
	"github.com/credix-app/credix/backend/internal/ledger"
)

// GetDashboard computes every page's figures from the stored records.
func (s *CredixService) GetDashboard(ctx context.Context, req *connect.Request[GetDashboardRequest]) (*connect.Response[GetDashboardResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.Year < 0 {
		return nil, invalidArgument("invalid year %d", req.Msg.Year)
	}

	in, err := s.dashboardInputs(ctx, claims.UID, req.Msg.Year)
	if err != nil {
		return nil, mapError("load dashboard", err)
	}
	dash := analytics.Build(in)
	return connect.NewResponse(&dash), nil
}

func (s *CredixService) dashboardInputs(ctx context.Context, userID string, year int) (analytics.Inputs, error) {
	var in analytics.Inputs

	for _, feed := range ledger.Feeds {
		scope := ledger.Scope{Feed: feed}
		if feed.YearScoped() {
			scope.Year = year
		}
		records, err := s.store.ListRecords(ctx, userID, scope)
		if err != nil {
			return in, err
		}
		for _, r := range records {
			switch v := r.(type) {
			case ledger.CardMonth:
				in.Bills = append(in.Bills, v)
			case ledger.MonthExpenditure:
				in.Monthly = append(in.Monthly, v)
			case ledger.SegmentMonth:
				in.Tracks = append(in.Tracks, v)
			case ledger.Debt:
				in.Debts = append(in.Debts, v)
			}
		}
	}

	budget, err := s.budget(ctx, userID)
	if err != nil {
		return in, err
	}
	in.Budget = budget

	spends, err := s.allSpends(ctx, userID)
	if err != nil {
		return in, err
	}
	in.Spends = spends
	return in, nil
}
