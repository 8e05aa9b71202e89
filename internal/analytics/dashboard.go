package analytics

import "github.com/credix-app/credix/backend/internal/ledger"

// Inputs is everything the dashboard is computed from.
type Inputs struct {
	Bills   []ledger.CardMonth
	Monthly []ledger.MonthExpenditure
	Tracks  []ledger.SegmentMonth
	Debts   []ledger.Debt
	Budget  ledger.Budget
	Spends  []ledger.Spend
}

// DebtShare is a lender's outstanding amount and its share of all debt.
type DebtShare struct {
	Lender  string        `json:"lender"`
	Amount  ledger.Amount `json:"amount"`
	Percent float64       `json:"percent"`
}

// Dashboard bundles the figures of every page.
type Dashboard struct {
	Cards              CardSummary   `json:"cards"`
	CardInsights       []CardInsight `json:"cardInsights"`
	MonthlyCardTotals  []MonthAmount `json:"monthlyCardTotals"`
	ExpenditureTotal   ledger.Amount `json:"expenditureTotal"`
	Budget             []BudgetMonth `json:"budget"`
	TotalBudget        ledger.Amount `json:"totalBudget"`
	TotalActual        ledger.Amount `json:"totalActual"`
	SegmentTotals      []EntityTotal `json:"segmentTotals"`
	SegmentMonthTotals []MonthAmount `json:"segmentMonthTotals"`
	Debts              []DebtShare   `json:"debts"`
	TotalDebt          ledger.Amount `json:"totalDebt"`
}

// Build computes the dashboard.
func Build(in Inputs) Dashboard {
	budget := BudgetVsActual(in.Budget, in.Spends)
	var budgets, actuals []ledger.Amount
	for _, b := range budget {
		budgets = append(budgets, b.Budget)
		actuals = append(actuals, b.Actual)
	}

	debtTotals := DebtTotals(in.Debts)
	totalDebt := GrandTotal(debtTotals)
	debts := make([]DebtShare, 0, len(debtTotals))
	for _, d := range debtTotals {
		debts = append(debts, DebtShare{
			Lender:  d.Name,
			Amount:  d.Total,
			Percent: PercentOfTotal(d.Total, totalDebt),
		})
	}

	return Dashboard{
		Cards:              Summarize(in.Bills),
		CardInsights:       CardInsights(in.Bills),
		MonthlyCardTotals:  MonthlyTotals(in.Bills),
		ExpenditureTotal:   ExpenditureTotal(in.Monthly),
		Budget:             budget,
		TotalBudget:        Total(budgets),
		TotalActual:        Total(actuals),
		SegmentTotals:      SegmentTotals(in.Tracks),
		SegmentMonthTotals: SegmentMonthTotals(in.Tracks),
		Debts:              debts,
		TotalDebt:          totalDebt,
	}
}
