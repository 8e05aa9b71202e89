// Package analytics derives dashboard figures from normalized records. Every
// function is pure and total over well-formed input.
package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/credix-app/credix/backend/internal/ledger"
)

var hundred = decimal.NewFromInt(100)

// EntityTotal is the summed amount of one card, segment or lender.
type EntityTotal struct {
	Name  string        `json:"name"`
	Total ledger.Amount `json:"total"`
}

// MonthAmount is one calendar month's total.
type MonthAmount struct {
	Month ledger.MonthName `json:"month"`
	Total ledger.Amount    `json:"total"`
}

// Total sums amounts with exact decimal arithmetic.
func Total(amounts []ledger.Amount) ledger.Amount {
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(a.Decimal())
	}
	return ledger.Amount(sum.InexactFloat64())
}

// groupTotals sums amounts by name, keeping names in first-seen order.
type groupTotals struct {
	order []string
	sums  map[string]decimal.Decimal
}

func newGroupTotals() *groupTotals {
	return &groupTotals{sums: make(map[string]decimal.Decimal)}
}

func (g *groupTotals) add(name string, a ledger.Amount) {
	sum, ok := g.sums[name]
	if !ok {
		g.order = append(g.order, name)
	}
	g.sums[name] = sum.Add(a.Decimal())
}

func (g *groupTotals) result() []EntityTotal {
	out := make([]EntityTotal, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, EntityTotal{Name: name, Total: ledger.Amount(g.sums[name].InexactFloat64())})
	}
	return out
}

// CardTotals sums each card's twelve months. A card appearing in several
// years is summed across them.
func CardTotals(bills []ledger.CardMonth) []EntityTotal {
	g := newGroupTotals()
	for _, b := range bills {
		for _, m := range ledger.Months {
			g.add(b.Card, b.Amounts[m])
		}
	}
	return g.result()
}

// SegmentTotals sums each segment across months, in segment display order.
func SegmentTotals(tracks []ledger.SegmentMonth) []EntityTotal {
	g := newGroupTotals()
	for _, s := range ledger.Segments {
		g.add(string(s), 0)
	}
	for _, t := range tracks {
		for _, s := range ledger.Segments {
			g.add(string(s), t.Segments[s])
		}
	}
	return g.result()
}

// SegmentMonthTotals sums all segments per calendar month.
func SegmentMonthTotals(tracks []ledger.SegmentMonth) []MonthAmount {
	byMonth := make(map[ledger.MonthName][]ledger.Amount, len(ledger.Months))
	for _, t := range tracks {
		for _, s := range ledger.Segments {
			byMonth[t.Month] = append(byMonth[t.Month], t.Segments[s])
		}
	}
	out := make([]MonthAmount, 0, len(ledger.Months))
	for _, m := range ledger.Months {
		out = append(out, MonthAmount{Month: m, Total: Total(byMonth[m])})
	}
	return out
}

// DebtTotals sums amounts per lender.
func DebtTotals(debts []ledger.Debt) []EntityTotal {
	g := newGroupTotals()
	for _, d := range debts {
		g.add(d.Lender, d.Amount)
	}
	return g.result()
}

// ExpenditureTotal sums a year's monthly expenditure rows.
func ExpenditureTotal(months []ledger.MonthExpenditure) ledger.Amount {
	amounts := make([]ledger.Amount, len(months))
	for i, m := range months {
		amounts[i] = m.Amount
	}
	return Total(amounts)
}

// GrandTotal sums entity totals.
func GrandTotal(totals []EntityTotal) ledger.Amount {
	amounts := make([]ledger.Amount, len(totals))
	for i, t := range totals {
		amounts[i] = t.Total
	}
	return Total(amounts)
}

// MostUsed returns the entity with the largest non-zero total. On a tie the
// first one in totals wins. ok is false when every total is zero.
func MostUsed(totals []EntityTotal) (best EntityTotal, ok bool) {
	for _, t := range totals {
		if t.Total <= 0 {
			continue
		}
		if !ok || t.Total > best.Total {
			best, ok = t, true
		}
	}
	return best, ok
}

// LeastUsed returns the entity with the smallest non-zero total, first wins
// on a tie.
func LeastUsed(totals []EntityTotal) (least EntityTotal, ok bool) {
	for _, t := range totals {
		if t.Total <= 0 {
			continue
		}
		if !ok || t.Total < least.Total {
			least, ok = t, true
		}
	}
	return least, ok
}

// Unused lists entities whose total is exactly zero, in input order.
func Unused(totals []EntityTotal) []string {
	var out []string
	for _, t := range totals {
		if t.Total == 0 {
			out = append(out, t.Name)
		}
	}
	return out
}

// PercentOfTotal is entity/grand*100 rounded to one decimal place, or zero
// when grand is zero.
func PercentOfTotal(entity, grand ledger.Amount) float64 {
	if grand <= 0 {
		return 0
	}
	return entity.Decimal().Mul(hundred).Div(grand.Decimal()).Round(1).InexactFloat64()
}

// BudgetMonth compares one month's budget with what was spent.
type BudgetMonth struct {
	Month  ledger.MonthName `json:"month"`
	Budget ledger.Amount    `json:"budget"`
	Actual ledger.Amount    `json:"actual"`
	Over   ledger.Amount    `json:"over"`
}

// BudgetVsActual lines up the budget against spends for every month in
// calendar order. Over is max(0, actual-budget).
func BudgetVsActual(budget ledger.Budget, spends []ledger.Spend) []BudgetMonth {
	actuals := make(map[ledger.MonthName][]ledger.Amount)
	for _, s := range spends {
		actuals[s.Month] = append(actuals[s.Month], s.Amount)
	}

	out := make([]BudgetMonth, 0, len(ledger.Months))
	for _, m := range ledger.Months {
		row := BudgetMonth{Month: m, Budget: budget[m], Actual: Total(actuals[m])}
		if over := row.Actual.Decimal().Sub(row.Budget.Decimal()); over.IsPositive() {
			row.Over = ledger.Amount(over.InexactFloat64())
		}
		out = append(out, row)
	}
	return out
}

// MonthlyTotals sums all cards per calendar month.
func MonthlyTotals(bills []ledger.CardMonth) []MonthAmount {
	out := make([]MonthAmount, 0, len(ledger.Months))
	for _, m := range ledger.Months {
		amounts := make([]ledger.Amount, len(bills))
		for i, b := range bills {
			amounts[i] = b.Amounts[m]
		}
		out = append(out, MonthAmount{Month: m, Total: Total(amounts)})
	}
	return out
}

// CardInsight is the per-card breakdown shown under the cards summary.
type CardInsight struct {
	Card           string        `json:"card"`
	Total          ledger.Amount `json:"total"`
	UsedMonths     int           `json:"usedMonths"`
	UnusedMonths   int           `json:"unusedMonths"`
	AvgPerMonth    int64         `json:"avgPerMonth"`
	PercentOfTotal float64       `json:"percentOfTotal"`
}

// CardInsights computes usage figures per bill row. The average is over all
// twelve months, rounded to a whole amount.
func CardInsights(bills []ledger.CardMonth) []CardInsight {
	totals := make([]ledger.Amount, len(bills))
	for i, b := range bills {
		totals[i] = b.Total()
	}
	grand := Total(totals)

	twelve := decimal.NewFromInt(int64(len(ledger.Months)))
	out := make([]CardInsight, 0, len(bills))
	for i, b := range bills {
		in := CardInsight{
			Card:           b.Card,
			Total:          totals[i],
			AvgPerMonth:    totals[i].Decimal().Div(twelve).Round(0).IntPart(),
			PercentOfTotal: PercentOfTotal(totals[i], grand),
		}
		for _, m := range ledger.Months {
			if b.Amounts[m] > 0 {
				in.UsedMonths++
			} else {
				in.UnusedMonths++
			}
		}
		out = append(out, in)
	}
	return out
}

// CardSummary is the headline block of the cards dashboard.
type CardSummary struct {
	TotalSpend  ledger.Amount `json:"totalSpend"`
	MostUsed    *EntityTotal  `json:"mostUsed,omitempty"`
	LeastUsed   *EntityTotal  `json:"leastUsed,omitempty"`
	UnusedCards []string      `json:"unusedCards"`
}

// Summarize builds the cards headline from one year's bills.
func Summarize(bills []ledger.CardMonth) CardSummary {
	totals := CardTotals(bills)
	summary := CardSummary{
		TotalSpend:  GrandTotal(totals),
		UnusedCards: Unused(totals),
	}
	if summary.UnusedCards == nil {
		summary.UnusedCards = []string{}
	}
	if most, ok := MostUsed(totals); ok {
		summary.MostUsed = &most
	}
	if least, ok := LeastUsed(totals); ok {
		summary.LeastUsed = &least
	}
	return summary
}
