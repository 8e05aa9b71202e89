package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credix-app/credix/backend/internal/ledger"
)

func cardMonth(card string, amounts map[ledger.MonthName]ledger.Amount) ledger.CardMonth {
	full := make(map[ledger.MonthName]ledger.Amount, 12)
	for _, m := range ledger.Months {
		full[m] = amounts[m]
	}
	return ledger.CardMonth{Year: 2024, Card: card, Amounts: full}
}

func TestTotal(t *testing.T) {
	assert.Equal(t, ledger.Amount(0), Total(nil))
	assert.Equal(t, ledger.Amount(0.3), Total([]ledger.Amount{0.1, 0.2}))
	assert.Equal(t, ledger.Amount(1500), Total([]ledger.Amount{1000, 500}))
}

func TestPercentOfTotal(t *testing.T) {
	tests := []struct {
		name   string
		entity ledger.Amount
		grand  ledger.Amount
		want   float64
	}{
		{"zero grand total", 500, 0, 0},
		{"whole", 1000, 1000, 100},
		{"one third", 1, 3, 33.3},
		{"two thirds rounds up", 2, 3, 66.7},
		{"zero entity", 0, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PercentOfTotal(tt.entity, tt.grand))
		})
	}
}

func TestMostLeastUsed(t *testing.T) {
	totals := []EntityTotal{
		{Name: "A", Total: 0},
		{Name: "B", Total: 300},
		{Name: "C", Total: 100},
		{Name: "D", Total: 300},
		{Name: "E", Total: 100},
	}

	most, ok := MostUsed(totals)
	require.True(t, ok)
	assert.Equal(t, "B", most.Name)

	least, ok := LeastUsed(totals)
	require.True(t, ok)
	assert.Equal(t, "C", least.Name)

	assert.Equal(t, []string{"A"}, Unused(totals))

	_, ok = MostUsed([]EntityTotal{{Name: "Z", Total: 0}})
	assert.False(t, ok)
	_, ok = LeastUsed(nil)
	assert.False(t, ok)
}

func TestCardsScenario(t *testing.T) {
	bills := []ledger.CardMonth{
		cardMonth("VISA", map[ledger.MonthName]ledger.Amount{ledger.January: 1000}),
		cardMonth("AMEX", nil),
	}

	summary := Summarize(bills)
	assert.Equal(t, ledger.Amount(1000), summary.TotalSpend)
	require.NotNil(t, summary.MostUsed)
	assert.Equal(t, "VISA", summary.MostUsed.Name)
	require.NotNil(t, summary.LeastUsed)
	assert.Equal(t, "VISA", summary.LeastUsed.Name)
	assert.Equal(t, []string{"AMEX"}, summary.UnusedCards)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, ledger.Amount(0), summary.TotalSpend)
	assert.Nil(t, summary.MostUsed)
	assert.Nil(t, summary.LeastUsed)
	assert.Equal(t, []string{}, summary.UnusedCards)
}

func TestCardTotalsAcrossYears(t *testing.T) {
	a := cardMonth("VISA", map[ledger.MonthName]ledger.Amount{ledger.March: 10})
	b := cardMonth("VISA", map[ledger.MonthName]ledger.Amount{ledger.March: 5})
	b.Year = 2023

	assert.Equal(t, []EntityTotal{{Name: "VISA", Total: 15}}, CardTotals([]ledger.CardMonth{a, b}))
}

func TestCardInsights(t *testing.T) {
	bills := []ledger.CardMonth{
		cardMonth("VISA", map[ledger.MonthName]ledger.Amount{ledger.January: 1000, ledger.February: 500}),
		cardMonth("HDFC", map[ledger.MonthName]ledger.Amount{ledger.June: 500}),
	}
	insights := CardInsights(bills)
	require.Len(t, insights, 2)

	assert.Equal(t, CardInsight{
		Card:           "VISA",
		Total:          1500,
		UsedMonths:     2,
		UnusedMonths:   10,
		AvgPerMonth:    125,
		PercentOfTotal: 75,
	}, insights[0])
	assert.Equal(t, int64(42), insights[1].AvgPerMonth)
	assert.Equal(t, 25.0, insights[1].PercentOfTotal)
}

func TestMonthlyTotals(t *testing.T) {
	bills := []ledger.CardMonth{
		cardMonth("VISA", map[ledger.MonthName]ledger.Amount{ledger.January: 1000}),
		cardMonth("AMEX", map[ledger.MonthName]ledger.Amount{ledger.January: 250, ledger.December: 1}),
	}
	totals := MonthlyTotals(bills)
	require.Len(t, totals, 12)
	assert.Equal(t, MonthAmount{Month: ledger.January, Total: 1250}, totals[0])
	assert.Equal(t, MonthAmount{Month: ledger.December, Total: 1}, totals[11])
}

func TestBudgetVsActual(t *testing.T) {
	budget := ledger.Budget{ledger.January: 1000, ledger.February: 500}
	spends := []ledger.Spend{
		{Month: ledger.January, Amount: 400},
		{Month: ledger.January, Amount: 700},
		{Month: ledger.February, Amount: 100},
		{Month: ledger.March, Amount: 50},
	}

	rows := BudgetVsActual(budget, spends)
	require.Len(t, rows, 12)
	assert.Equal(t, BudgetMonth{Month: ledger.January, Budget: 1000, Actual: 1100, Over: 100}, rows[0])
	assert.Equal(t, BudgetMonth{Month: ledger.February, Budget: 500, Actual: 100, Over: 0}, rows[1])
	assert.Equal(t, BudgetMonth{Month: ledger.March, Budget: 0, Actual: 50, Over: 50}, rows[2])
	assert.Equal(t, BudgetMonth{Month: ledger.April}, rows[3])
}

func TestSegmentTotals(t *testing.T) {
	jan := ledger.NewSegmentMonth(ledger.January)
	jan.Segments[ledger.SegmentRent] = 1000
	jan.Segments[ledger.SegmentKirana] = 500
	feb := ledger.NewSegmentMonth(ledger.February)
	feb.Segments[ledger.SegmentRent] = 800

	totals := SegmentTotals([]ledger.SegmentMonth{jan, feb})
	assert.Equal(t, []EntityTotal{
		{Name: "Rent", Total: 1800},
		{Name: "Kirana", Total: 500},
		{Name: "Petrol", Total: 0},
		{Name: "Online Bills", Total: 0},
	}, totals)
	assert.Equal(t, []string{"Petrol", "Online Bills"}, Unused(totals))

	months := SegmentMonthTotals([]ledger.SegmentMonth{jan, feb})
	assert.Equal(t, ledger.Amount(1500), months[0].Total)
	assert.Equal(t, ledger.Amount(800), months[1].Total)
	assert.Equal(t, ledger.Amount(0), months[2].Total)
}

func TestBuildDashboard(t *testing.T) {
	d := Build(Inputs{
		Bills: []ledger.CardMonth{
			cardMonth("VISA", map[ledger.MonthName]ledger.Amount{ledger.January: 1000}),
			cardMonth("AMEX", nil),
		},
		Monthly: []ledger.MonthExpenditure{
			{Year: 2024, Month: "January", Amount: 12000},
			{Year: 2024, Month: "February", Amount: 9000},
		},
		Debts: []ledger.Debt{
			{Lender: "Axis", Amount: 300},
			{Lender: "TGB", Amount: 100},
		},
		Budget: ledger.Budget{ledger.January: 100},
		Spends: []ledger.Spend{{Month: ledger.January, Amount: 40}},
	})

	assert.Equal(t, ledger.Amount(1000), d.Cards.TotalSpend)
	assert.Equal(t, ledger.Amount(21000), d.ExpenditureTotal)
	assert.Equal(t, ledger.Amount(400), d.TotalDebt)
	assert.Equal(t, []DebtShare{
		{Lender: "Axis", Amount: 300, Percent: 75},
		{Lender: "TGB", Amount: 100, Percent: 25},
	}, d.Debts)
	assert.Equal(t, ledger.Amount(100), d.TotalBudget)
	assert.Equal(t, ledger.Amount(40), d.TotalActual)
	assert.Len(t, d.SegmentTotals, 4)
}
