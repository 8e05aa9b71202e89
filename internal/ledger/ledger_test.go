package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		label string
		want  MonthName
		ok    bool
	}{
		{"January", January, true},
		{"  march ", March, true},
		{"DECEMBER", December, true},
		{"Jan", "", false},
		{"", "", false},
		{"Grand Total", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := ParseMonth(tt.label)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want Amount
		ok   bool
	}{
		{"plain integer", "1000", 1000, true},
		{"decimal", "12.5", 12.5, true},
		{"thousands separators", "1,23,456", 123456, true},
		{"rupee symbol", "₹ 2,500", 2500, true},
		{"dollar symbol", "$40.25", 40.25, true},
		{"blank", "   ", 0, false},
		{"dash", "-", 0, false},
		{"text", "N/A", 0, false},
		{"negative clamps to zero", "-50", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.cell)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, float64(tt.want), float64(got), 0.0001)
		})
	}

	assert.Equal(t, Amount(0), CoerceAmount("N/A"))
}

func TestStorageKeys(t *testing.T) {
	assert.Equal(t, "2024-VISA", CardMonth{Year: 2024, Card: "VISA"}.StorageKey())
	assert.Equal(t, "2024-Jan-24", MonthExpenditure{Year: 2024, Month: "Jan-24"}.StorageKey())
	assert.Equal(t, "March", SegmentMonth{Month: March}.StorageKey())
	assert.Equal(t, "Gold Loan", Debt{Lender: "Gold Loan"}.StorageKey())
}

func TestScopeValidate(t *testing.T) {
	require.NoError(t, YearScope(FeedBills, 2024).Validate())
	require.NoError(t, FeedScope(FeedDebts).Validate())

	assert.ErrorIs(t, FeedScope(FeedBills).Validate(), ErrInvalidScope)
	assert.ErrorIs(t, YearScope(FeedTracks, 2024).Validate(), ErrInvalidScope)
	assert.ErrorIs(t, Scope{Feed: "cash"}.Validate(), ErrInvalidScope)

	assert.Equal(t, FeedScope(FeedTracks), ScopeFor(FeedTracks, 2024))
	assert.Equal(t, YearScope(FeedMonthly, 2024), ScopeFor(FeedMonthly, 2024))
}

func TestScopeContains(t *testing.T) {
	scope := YearScope(FeedBills, 2024)
	assert.True(t, scope.Contains(CardMonth{Year: 2024, Card: "VISA"}))
	assert.False(t, scope.Contains(CardMonth{Year: 2023, Card: "VISA"}))
	assert.False(t, scope.Contains(MonthExpenditure{Year: 2024, Month: "January"}))
	assert.True(t, FeedScope(FeedDebts).Contains(Debt{Lender: "Axis"}))
}

func TestRecordSetRoundTrip(t *testing.T) {
	records := []Record{
		Debt{Lender: "Axis", Amount: 232000},
		Debt{Lender: "TGB", Amount: 6444},
	}
	set, err := NewRecordSet(FeedDebts, records)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())

	got, err := set.Records()
	require.NoError(t, err)
	assert.Equal(t, records, got)

	_, err = NewRecordSet(FeedBills, records)
	assert.Error(t, err)

	mixed := RecordSet{Feed: FeedDebts, Debts: set.Debts, Bills: []CardMonth{{Year: 2024, Card: "VISA"}}}
	_, err = mixed.Records()
	assert.Error(t, err)
}

func TestNewSpend(t *testing.T) {
	now := time.Date(2024, time.May, 3, 10, 0, 0, 0, time.UTC)

	t.Run("derives month from date", func(t *testing.T) {
		s, err := NewSpend(250, "2024-02-14", "", " groceries ", now)
		require.NoError(t, err)
		assert.Equal(t, February, s.Month)
		assert.Equal(t, DefaultSpendCategory, s.Category)
		assert.Equal(t, "groceries", s.Note)
		assert.NotEmpty(t, s.ID)
	})

	t.Run("defaults to today", func(t *testing.T) {
		s, err := NewSpend(10, "", "Food", "", now)
		require.NoError(t, err)
		assert.Equal(t, "2024-05-03", s.Date)
		assert.Equal(t, May, s.Month)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := NewSpend(0, "", "", "", now)
		assert.Error(t, err)
		_, err = NewSpend(10, "14/02/2024", "", "", now)
		assert.Error(t, err)
	})
}

func TestSegmentMonthZeroFilled(t *testing.T) {
	sm := NewSegmentMonth(April)
	assert.Len(t, sm.Segments, len(Segments))
	assert.Equal(t, Amount(0), sm.Total())
}
