package service

import (
	"context"
	"fmt"

	"connectrpc.com/connect"

	"github.com/credix-app/credix/backend/internal/auth"
	"github.com/credix-app/credix/backend/internal/ingest"
	"github.com/credix-app/credix/backend/internal/ledger"
	"github.com/credix-app/credix/backend/internal/session"
	"github.com/credix-app/credix/backend/internal/sheet"
)

// interpret decodes an uploaded workbook and applies the feed's layout.
func (s *CredixService) interpret(msg *UploadRequest) (ledger.Scope, []ledger.Record, ingest.Report, error) {
	feed, err := ledger.ParseFeed(string(msg.Feed))
	if err != nil {
		return ledger.Scope{}, nil, ingest.Report{}, invalidArgument("%v", err)
	}
	scope := ledger.ScopeFor(feed, msg.Year)
	if err := scope.Validate(); err != nil {
		return ledger.Scope{}, nil, ingest.Report{}, mapError("validate scope", err)
	}

	table, err := sheet.Decode(msg.Data)
	if err != nil {
		return ledger.Scope{}, nil, ingest.Report{}, mapError("decode spreadsheet", err)
	}

	records, report, err := s.interpreter.Interpret(feed, scope.Year, table)
	if err != nil {
		return ledger.Scope{}, nil, ingest.Report{}, invalidArgument("%v", err)
	}
	return scope, records, report, nil
}

// Upload parses a spreadsheet and replaces the feed's scope with its records.
func (s *CredixService) Upload(ctx context.Context, req *connect.Request[UploadRequest]) (*connect.Response[UploadResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	scope, records, report, err := s.interpret(req.Msg)
	if err != nil {
		return nil, err
	}
	// An upload that yields nothing would silently wipe the scope.
	if len(records) == 0 {
		return nil, invalidArgument("no %s records found in %q", scope.Feed, req.Msg.Filename)
	}

	result, err := s.engine.Persist(ctx, claims.UID, scope, records)
	if err != nil {
		return nil, mapError("persist upload", err)
	}

	set, err := ledger.NewRecordSet(scope.Feed, records)
	if err != nil {
		return nil, mapError("pack records", err)
	}

	s.log.Info().
		Str("user_id", claims.UID).
		Str("scope", scope.String()).
		Str("filename", req.Msg.Filename).
		Int("rows", report.RowsSeen).
		Int("skipped", len(report.Skipped)).
		Msg("upload ingested")

	return connect.NewResponse(&UploadResponse{
		Records: set,
		Report:  report,
		Result:  result,
	}), nil
}

// Preview parses a spreadsheet without persisting anything.
func (s *CredixService) Preview(ctx context.Context, req *connect.Request[UploadRequest]) (*connect.Response[UploadResponse], error) {
	if _, err := auth.RequireAuth(ctx); err != nil {
		return nil, err
	}

	scope, records, report, err := s.interpret(req.Msg)
	if err != nil {
		return nil, err
	}
	set, err := ledger.NewRecordSet(scope.Feed, records)
	if err != nil {
		return nil, mapError("pack records", err)
	}
	return connect.NewResponse(&UploadResponse{Records: set, Report: report}), nil
}

// SaveRecords persists a hand-edited table. It replaces the scope exactly
// like an upload, so an empty set clears the scope.
func (s *CredixService) SaveRecords(ctx context.Context, req *connect.Request[SaveRecordsRequest]) (*connect.Response[SaveRecordsResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	scope := req.Msg.Scope
	if err := scope.Validate(); err != nil {
		return nil, mapError("validate scope", err)
	}
	if req.Msg.Records.Feed == "" {
		req.Msg.Records.Feed = scope.Feed
	}
	if req.Msg.Records.Feed != scope.Feed {
		return nil, invalidArgument("records are for feed %s, scope is %s", req.Msg.Records.Feed, scope)
	}
	records, err := req.Msg.Records.Records()
	if err != nil {
		return nil, invalidArgument("%v", err)
	}

	result, err := s.engine.Persist(ctx, claims.UID, scope, records)
	if err != nil {
		return nil, mapError("save records", err)
	}
	return connect.NewResponse(&SaveRecordsResponse{Result: result}), nil
}

// ListRecords returns the stored records of a feed.
func (s *CredixService) ListRecords(ctx context.Context, req *connect.Request[ListRecordsRequest]) (*connect.Response[ListRecordsResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	scope, err := listScope(req.Msg.Feed, req.Msg.Year)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListRecords(ctx, claims.UID, scope)
	if err != nil {
		return nil, mapError("list records", err)
	}
	set, err := ledger.NewRecordSet(scope.Feed, records)
	if err != nil {
		return nil, mapError("pack records", err)
	}
	return connect.NewResponse(&ListRecordsResponse{Records: set}), nil
}

// listScope is the read scope for a feed: one year, or everything when year
// is zero.
func listScope(feed ledger.Feed, year int) (ledger.Scope, error) {
	f, err := ledger.ParseFeed(string(feed))
	if err != nil {
		return ledger.Scope{}, invalidArgument("%v", err)
	}
	if year < 0 || (year > 0 && !f.YearScoped()) {
		return ledger.Scope{}, mapError("validate scope",
			fmt.Errorf("%w: year %d for feed %s", ledger.ErrInvalidScope, year, f))
	}
	return ledger.Scope{Feed: f, Year: year}, nil
}

// Watch streams the feed's full record set now and after every change,
// until the client goes away or the user signs out.
func (s *CredixService) Watch(ctx context.Context, req *connect.Request[WatchRequest], stream *connect.ServerStream[WatchResponse]) error {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return err
	}
	feed, err := ledger.ParseFeed(string(req.Msg.Feed))
	if err != nil {
		return invalidArgument("%v", err)
	}

	sess := s.sessions.Open(claims.UID)
	snapshots, err := sess.Subscribe(ctx, feed)
	if err != nil {
		return mapError("subscribe", err)
	}

	for snap := range snapshots {
		if snap.Err != nil {
			return connect.NewError(connect.CodeUnavailable, fmt.Errorf("watch %s: %w", feed, snap.Err))
		}
		set, err := ledger.NewRecordSet(feed, snap.Records)
		if err != nil {
			return mapError("pack records", err)
		}
		if err := stream.Send(&WatchResponse{Records: set}); err != nil {
			return err
		}
	}

	if ctx.Err() == nil {
		select {
		case <-sess.Done():
			return mapError("watch", session.ErrClosed)
		default:
		}
	}
	return nil
}
