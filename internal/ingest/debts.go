package ingest

import (
	"strings"

	"github.com/credix-app/credix/backend/internal/ledger"
)

const (
	debtLenderColumn = "Lender"
	debtAmountColumn = "amount"
)

// Debts reads header-keyed rows with a "Lender" and an "amount" column.
// Rows without a lender or with a non-positive amount are dropped.
func (in *Interpreter) Debts(rows []map[string]string) ([]ledger.Debt, Report) {
	report := Report{Feed: ledger.FeedDebts, RowsSeen: len(rows)}
	out := newKeyedOutput[ledger.Debt]()

	for i, row := range rows {
		rowNum := i + 1
		lender := strings.TrimSpace(row[debtLenderColumn])
		if lender == "" {
			report.skip(rowNum, SkipNoLender, "")
			continue
		}
		amount := ledger.CoerceAmount(row[debtAmountColumn])
		if amount <= 0 {
			report.skip(rowNum, SkipNonPositive, lender)
			continue
		}

		if prev := out.put(rowNum, ledger.Debt{Lender: lender, Amount: amount}); prev > 0 {
			report.skip(prev, SkipDuplicateKey, lender)
		}
	}

	report.Records = len(out.records)
	return out.records, report
}
