package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/credix-app/credix/backend/internal/ledger"
	"github.com/credix-app/credix/backend/internal/store"
)

func bill(year int, card string, jan ledger.Amount) ledger.CardMonth {
	amounts := make(map[ledger.MonthName]ledger.Amount, 12)
	for _, m := range ledger.Months {
		amounts[m] = 0
	}
	amounts[ledger.January] = jan
	return ledger.CardMonth{Year: year, Card: card, Amounts: amounts}
}

func TestPersistReplacesScope(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	engine := NewEngine(mem, zerolog.Nop())
	scope := ledger.YearScope(ledger.FeedBills, 2024)

	res, err := engine.Persist(ctx, "u1", scope, []ledger.Record{bill(2024, "VISA", 100), bill(2024, "AMEX", 5)})
	require.NoError(t, err)
	assert.Equal(t, &Result{Deleted: 0, Written: 2}, res)

	// AMEX omitted from the second upload must disappear.
	res, err = engine.Persist(ctx, "u1", scope, []ledger.Record{bill(2024, "VISA", 200)})
	require.NoError(t, err)
	assert.Equal(t, &Result{Deleted: 2, Written: 1}, res)

	got, err := mem.ListRecords(ctx, "u1", scope)
	require.NoError(t, err)
	assert.Equal(t, []ledger.Record{bill(2024, "VISA", 200)}, got)
}

func TestPersistIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	engine := NewEngine(mem, zerolog.Nop())
	scope := ledger.FeedScope(ledger.FeedDebts)
	records := []ledger.Record{
		ledger.Debt{Lender: "Axis", Amount: 232000},
		ledger.Debt{Lender: "TGB", Amount: 6444},
	}

	var snapshots [][]ledger.Record
	for i := 0; i < 3; i++ {
		_, err := engine.Persist(ctx, "u1", scope, records)
		require.NoError(t, err)
		got, err := mem.ListRecords(ctx, "u1", scope)
		require.NoError(t, err)
		snapshots = append(snapshots, got)
	}
	assert.Len(t, snapshots[0], 2)
	assert.Equal(t, snapshots[0], snapshots[1])
	assert.Equal(t, snapshots[1], snapshots[2])
}

func TestPersistScopeIsolation(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	engine := NewEngine(mem, zerolog.Nop())

	_, err := engine.Persist(ctx, "u1", ledger.YearScope(ledger.FeedBills, 2023), []ledger.Record{bill(2023, "VISA", 1)})
	require.NoError(t, err)
	_, err = engine.Persist(ctx, "u2", ledger.YearScope(ledger.FeedBills, 2024), []ledger.Record{bill(2024, "VISA", 9)})
	require.NoError(t, err)
	_, err = engine.Persist(ctx, "u1", ledger.YearScope(ledger.FeedMonthly, 2024), []ledger.Record{
		ledger.MonthExpenditure{Year: 2024, Month: "January", Amount: 3},
	})
	require.NoError(t, err)

	_, err = engine.Persist(ctx, "u1", ledger.YearScope(ledger.FeedBills, 2024), []ledger.Record{bill(2024, "AMEX", 2)})
	require.NoError(t, err)

	prior, err := mem.ListRecords(ctx, "u1", ledger.YearScope(ledger.FeedBills, 2023))
	require.NoError(t, err)
	assert.Equal(t, []ledger.Record{bill(2023, "VISA", 1)}, prior)

	otherUser, err := mem.ListRecords(ctx, "u2", ledger.YearScope(ledger.FeedBills, 2024))
	require.NoError(t, err)
	assert.Equal(t, []ledger.Record{bill(2024, "VISA", 9)}, otherUser)

	monthly, err := mem.ListRecords(ctx, "u1", ledger.YearScope(ledger.FeedMonthly, 2024))
	require.NoError(t, err)
	assert.Len(t, monthly, 1)
}

func TestPersistValidation(t *testing.T) {
	engine := NewEngine(store.NewMemoryStore(), zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  string
		scope   ledger.Scope
		records []ledger.Record
		check   func(t *testing.T, err error)
	}{
		{
			name:   "no user",
			userID: "",
			scope:  ledger.FeedScope(ledger.FeedDebts),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrAuthRequired)
			},
		},
		{
			name:   "year scope on scope-less feed",
			userID: "u1",
			scope:  ledger.YearScope(ledger.FeedDebts, 2024),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ledger.ErrInvalidScope)
			},
		},
		{
			name:    "record from another year",
			userID:  "u1",
			scope:   ledger.YearScope(ledger.FeedBills, 2024),
			records: []ledger.Record{bill(2023, "VISA", 1)},
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Contains(t, ve.Reasons[0], "outside bills/2024")
			},
		},
		{
			name:    "record from another feed",
			userID:  "u1",
			scope:   ledger.FeedScope(ledger.FeedDebts),
			records: []ledger.Record{bill(2024, "VISA", 1)},
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				assert.ErrorAs(t, err, &ve)
			},
		},
		{
			name:    "duplicate keys",
			userID:  "u1",
			scope:   ledger.FeedScope(ledger.FeedDebts),
			records: []ledger.Record{ledger.Debt{Lender: "Axis", Amount: 1}, ledger.Debt{Lender: "Axis", Amount: 2}},
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, []string{`duplicate key "Axis"`}, ve.Reasons)
			},
		},
		{
			name:    "blank identity",
			userID:  "u1",
			scope:   ledger.FeedScope(ledger.FeedDebts),
			records: []ledger.Record{ledger.Debt{Lender: " ", Amount: 1}},
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				assert.ErrorAs(t, err, &ve)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := engine.Persist(ctx, tt.userID, tt.scope, tt.records)
			assert.Nil(t, res)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestPersistPartialFailure(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	engine := NewEngine(mem, zerolog.Nop())
	scope := ledger.FeedScope(ledger.FeedDebts)
	records := []ledger.Record{ledger.Debt{Lender: "Axis", Amount: 10}}

	_, err := engine.Persist(ctx, "u1", scope, records)
	require.NoError(t, err)

	boom := errors.New("deadline exceeded")
	mem.FailNextWrite(boom)
	_, err = engine.Persist(ctx, "u1", scope, []ledger.Record{ledger.Debt{Lender: "TGB", Amount: 5}})

	var partial *PersistPartialFailure
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, StageWrite, partial.Stage)
	assert.Equal(t, 1, partial.Deleted)
	assert.ErrorIs(t, err, boom)

	// Retrying converges on the new set.
	res, err := engine.Persist(ctx, "u1", scope, []ledger.Record{ledger.Debt{Lender: "TGB", Amount: 5}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Deleted)

	got, err := mem.ListRecords(ctx, "u1", scope)
	require.NoError(t, err)
	assert.Equal(t, []ledger.Record{ledger.Debt{Lender: "TGB", Amount: 5}}, got)
}

func TestPersistStoreFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := store.NewMockStore(ctrl)
	engine := NewEngine(mockStore, zerolog.Nop())
	scope := ledger.YearScope(ledger.FeedMonthly, 2024)
	records := []ledger.Record{ledger.MonthExpenditure{Year: 2024, Month: "January", Amount: 1}}
	ctx := context.Background()

	t.Run("list failure touches nothing", func(t *testing.T) {
		mockStore.EXPECT().ListKeys(gomock.Any(), "u1", scope).Return(nil, errors.New("unavailable"))
		_, err := engine.Persist(ctx, "u1", scope, records)
		require.Error(t, err)
		var partial *PersistPartialFailure
		assert.False(t, errors.As(err, &partial))
	})

	t.Run("delete failure is not partial", func(t *testing.T) {
		gomock.InOrder(
			mockStore.EXPECT().ListKeys(gomock.Any(), "u1", scope).Return([]string{"2024-January"}, nil),
			mockStore.EXPECT().DeleteRecords(gomock.Any(), "u1", ledger.FeedMonthly, []string{"2024-January"}).Return(errors.New("aborted")),
		)
		_, err := engine.Persist(ctx, "u1", scope, records)
		require.Error(t, err)
		var partial *PersistPartialFailure
		assert.False(t, errors.As(err, &partial))
	})

	t.Run("delete then write in order", func(t *testing.T) {
		gomock.InOrder(
			mockStore.EXPECT().ListKeys(gomock.Any(), "u1", scope).Return([]string{"2024-January", "2024-February"}, nil),
			mockStore.EXPECT().DeleteRecords(gomock.Any(), "u1", ledger.FeedMonthly, []string{"2024-January", "2024-February"}).Return(nil),
			mockStore.EXPECT().WriteRecords(gomock.Any(), "u1", ledger.FeedMonthly, records).Return(nil),
		)
		res, err := engine.Persist(ctx, "u1", scope, records)
		require.NoError(t, err)
		assert.Equal(t, &Result{Deleted: 2, Written: 1}, res)
	})
}

func TestPersistInFlight(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := store.NewMockStore(ctrl)
	engine := NewEngine(mockStore, zerolog.Nop())
	scope := ledger.FeedScope(ledger.FeedDebts)
	ctx := context.Background()

	entered := make(chan struct{})
	unblock := make(chan struct{})
	mockStore.EXPECT().ListKeys(gomock.Any(), "u1", scope).DoAndReturn(
		func(context.Context, string, ledger.Scope) ([]string, error) {
			close(entered)
			<-unblock
			return nil, nil
		})
	mockStore.EXPECT().DeleteRecords(gomock.Any(), "u1", ledger.FeedDebts, gomock.Any()).Return(nil)
	mockStore.EXPECT().WriteRecords(gomock.Any(), "u1", ledger.FeedDebts, gomock.Any()).Return(nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := engine.Persist(ctx, "u1", scope, nil)
		assert.NoError(t, err)
	}()

	<-entered
	_, err := engine.Persist(ctx, "u1", scope, nil)
	assert.ErrorIs(t, err, ErrPersistInFlight)

	close(unblock)
	wg.Wait()
}
