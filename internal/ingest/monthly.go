package ingest

import (
	"strings"

	"github.com/credix-app/credix/backend/internal/ledger"
	"github.com/credix-app/credix/backend/internal/sheet"
)

// MonthlyExpenditure reads positional rows whose last two cells are a month
// label and an amount. Repeated header rows, the sheet's own grand total,
// and rows without a usable amount are skipped.
func (in *Interpreter) MonthlyExpenditure(year int, rows []sheet.RawRow) ([]ledger.MonthExpenditure, Report) {
	report := Report{Feed: ledger.FeedMonthly, RowsSeen: len(rows)}
	out := newKeyedOutput[ledger.MonthExpenditure]()

	for i, row := range rows {
		rowNum := i + 1
		if len(row) < 2 {
			if !row.Empty() {
				report.skip(rowNum, SkipShortRow, "")
			}
			continue
		}

		label := row.Cell(len(row) - 2)
		amountCell := row.Cell(len(row) - 1)
		lower := strings.ToLower(label)

		switch {
		case strings.Contains(lower, "grand total"):
			report.skip(rowNum, SkipGrandTotal, label)
			continue
		case lower == "month":
			report.skip(rowNum, SkipHeaderRow, label)
			continue
		case label == "":
			report.skip(rowNum, SkipNoMonth, "")
			continue
		}

		amount, ok := ledger.ParseAmount(amountCell)
		if !ok {
			in.log.Debug().Int("row", rowNum).Str("month", label).Msg("monthly row has no numeric amount, skipping")
			report.skip(rowNum, SkipNoAmount, label)
			continue
		}

		rec := ledger.MonthExpenditure{Year: year, Month: label, Amount: amount}
		if prev := out.put(rowNum, rec); prev > 0 {
			report.skip(prev, SkipDuplicateKey, label)
		}
	}

	report.Records = len(out.records)
	return out.records, report
}
