package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credix-app/credix/backend/internal/ledger"
)

// backends returns every Store implementation that runs without external
// services.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "credix.db"), 10*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqliteStore,
	}
}

func bill(year int, card string, jan ledger.Amount) ledger.CardMonth {
	amounts := make(map[ledger.MonthName]ledger.Amount, 12)
	for _, m := range ledger.Months {
		amounts[m] = 0
	}
	amounts[ledger.January] = jan
	return ledger.CardMonth{Year: year, Card: card, Amounts: amounts}
}

func TestRecordsRoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			records := []ledger.Record{
				bill(2024, "VISA", 1000),
				bill(2024, "AMEX", 0),
				bill(2023, "VISA", 50),
			}
			require.NoError(t, s.WriteRecords(ctx, "u1", ledger.FeedBills, records))

			keys, err := s.ListKeys(ctx, "u1", ledger.YearScope(ledger.FeedBills, 2024))
			require.NoError(t, err)
			assert.Equal(t, []string{"2024-AMEX", "2024-VISA"}, keys)

			got, err := s.ListRecords(ctx, "u1", ledger.YearScope(ledger.FeedBills, 2024))
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, bill(2024, "AMEX", 0), got[0])
			assert.Equal(t, bill(2024, "VISA", 1000), got[1])

			all, err := s.ListRecords(ctx, "u1", ledger.FeedScope(ledger.FeedBills))
			require.NoError(t, err)
			assert.Len(t, all, 3)

			other, err := s.ListRecords(ctx, "u2", ledger.YearScope(ledger.FeedBills, 2024))
			require.NoError(t, err)
			assert.Empty(t, other)
		})
	}
}

func TestWriteOverwritesByKey(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.WriteRecords(ctx, "u1", ledger.FeedDebts, []ledger.Record{ledger.Debt{Lender: "Axis", Amount: 10}}))
			require.NoError(t, s.WriteRecords(ctx, "u1", ledger.FeedDebts, []ledger.Record{ledger.Debt{Lender: "Axis", Amount: 20}}))

			got, err := s.ListRecords(ctx, "u1", ledger.FeedScope(ledger.FeedDebts))
			require.NoError(t, err)
			assert.Equal(t, []ledger.Record{ledger.Debt{Lender: "Axis", Amount: 20}}, got)
		})
	}
}

func TestDeleteRecords(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.WriteRecords(ctx, "u1", ledger.FeedDebts, []ledger.Record{
				ledger.Debt{Lender: "Axis", Amount: 10},
				ledger.Debt{Lender: "TGB", Amount: 5},
			}))
			require.NoError(t, s.DeleteRecords(ctx, "u1", ledger.FeedDebts, []string{"Axis", "missing"}))

			keys, err := s.ListKeys(ctx, "u1", ledger.FeedScope(ledger.FeedDebts))
			require.NoError(t, err)
			assert.Equal(t, []string{"TGB"}, keys)
		})
	}
}

func TestBatchLimits(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			records := make([]ledger.Record, MaxBatchSize+1)
			keys := make([]string, MaxBatchSize+1)
			for i := range records {
				records[i] = ledger.MonthExpenditure{Year: 2024, Month: time.Month(i%12 + 1).String() + string(rune('a'+i%26)), Amount: 1}
				keys[i] = records[i].StorageKey()
			}
			assert.ErrorIs(t, s.WriteRecords(ctx, "u1", ledger.FeedMonthly, records), ErrBatchTooLarge)
			assert.ErrorIs(t, s.DeleteRecords(ctx, "u1", ledger.FeedMonthly, keys), ErrBatchTooLarge)

			err := s.WriteRecords(ctx, "u1", ledger.FeedBills, []ledger.Record{ledger.Debt{Lender: "Axis"}})
			assert.Error(t, err)

			got, err := s.ListRecords(ctx, "u1", ledger.FeedScope(ledger.FeedMonthly))
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestSegmentRecordsPreserveMaps(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sm := ledger.NewSegmentMonth(ledger.March)
			sm.Segments[ledger.SegmentRent] = 12000
			require.NoError(t, s.WriteRecords(ctx, "u1", ledger.FeedTracks, []ledger.Record{sm}))

			sm.Segments[ledger.SegmentRent] = 1

			got, err := s.ListRecords(ctx, "u1", ledger.FeedScope(ledger.FeedTracks))
			require.NoError(t, err)
			require.Len(t, got, 1)
			stored := got[0].(ledger.SegmentMonth)
			assert.Equal(t, ledger.Amount(12000), stored.Segments[ledger.SegmentRent])
			assert.Len(t, stored.Segments, 4)
		})
	}
}

func TestBudgetSpendsProfile(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			budget, err := s.GetBudget(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, budget)

			require.NoError(t, s.SetBudget(ctx, "u1", ledger.Budget{ledger.January: 5000, ledger.February: 4000}))
			budget, err = s.GetBudget(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, ledger.Amount(9000), budget.Total())

			base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
			for i := 0; i < 5; i++ {
				sp, err := ledger.NewSpend(ledger.Amount(100+i), "2024-01-15", "Food", "", base.Add(time.Duration(i)*time.Second))
				require.NoError(t, err)
				require.NoError(t, s.AddSpend(ctx, "u1", sp))
			}

			page, next, err := s.ListSpends(ctx, "u1", 2, "")
			require.NoError(t, err)
			require.Len(t, page, 2)
			assert.NotEmpty(t, next)
			assert.Equal(t, ledger.Amount(100), page[0].Amount)

			var all []ledger.Spend
			all = append(all, page...)
			for next != "" {
				page, next, err = s.ListSpends(ctx, "u1", 2, next)
				require.NoError(t, err)
				all = append(all, page...)
			}
			require.Len(t, all, 5)
			assert.Equal(t, ledger.Amount(104), all[4].Amount)

			_, err = s.GetProfile(ctx, "u1")
			assert.ErrorIs(t, err, ErrNotFound)

			now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
			require.NoError(t, s.UpdateProfile(ctx, &ledger.Profile{UserID: "u1", Email: "u1@test.local", PhotoURL: "https://img/u1.png", UpdatedAt: now}))
			profile, err := s.GetProfile(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, "https://img/u1.png", profile.PhotoURL)
			assert.True(t, now.Equal(profile.UpdatedAt))
		})
	}
}

func TestWatch(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			ch, err := s.Watch(ctx, "u1", ledger.FeedDebts)
			require.NoError(t, err)

			first := <-ch
			require.NoError(t, first.Err)
			assert.Empty(t, first.Records)

			require.NoError(t, s.WriteRecords(context.Background(), "u1", ledger.FeedDebts, []ledger.Record{ledger.Debt{Lender: "Axis", Amount: 10}}))

			require.Eventually(t, func() bool {
				select {
				case snap := <-ch:
					return len(snap.Records) == 1
				default:
					return false
				}
			}, 2*time.Second, 5*time.Millisecond)

			cancel()
			require.Eventually(t, func() bool {
				for {
					select {
					case _, ok := <-ch:
						if !ok {
							return true
						}
					default:
						return false
					}
				}
			}, 2*time.Second, 5*time.Millisecond)
		})
	}
}

func TestDocIDEscaping(t *testing.T) {
	tests := []string{"VISA", "2024-HDFC/Regalia", "50%/off", ".", "..", "a%2Fb"}
	for _, key := range tests {
		t.Run(key, func(t *testing.T) {
			id := EscapeDocID(key)
			assert.NotContains(t, id, "/")
			assert.NotEqual(t, ".", id)
			assert.NotEqual(t, "..", id)
			assert.Equal(t, key, UnescapeDocID(id))
		})
	}
}

func TestPaginateIDs(t *testing.T) {
	ids := []string{"3", "1", "2", "5", "4"}
	page, next := paginateIDs(ids, 2, "")
	assert.Equal(t, []string{"1", "2"}, page)

	page, next = paginateIDs([]string{"3", "1", "2", "5", "4"}, 2, next)
	assert.Equal(t, []string{"3", "4"}, page)

	page, next = paginateIDs([]string{"3", "1", "2", "5", "4"}, 2, next)
	assert.Equal(t, []string{"5"}, page)
	assert.Empty(t, next)
}
