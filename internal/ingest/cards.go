package ingest

import (
	"strings"

	"github.com/credix-app/credix/backend/internal/ledger"
)

// CardBills reads header-keyed rows with a card-name column and one column
// per month. Missing or non-numeric month cells become zero. Rows without a
// card name are skipped with a warning.
func (in *Interpreter) CardBills(year int, rows []map[string]string) ([]ledger.CardMonth, Report) {
	report := Report{Feed: ledger.FeedBills, RowsSeen: len(rows)}
	out := newKeyedOutput[ledger.CardMonth]()

	for i, row := range rows {
		rowNum := i + 1
		card := in.cardName(row)
		if card == "" {
			in.log.Warn().Int("row", rowNum).Msg("card bill row has no card name, skipping")
			report.skip(rowNum, SkipNoCardName, "")
			continue
		}

		bill := ledger.CardMonth{
			Year:    year,
			Card:    card,
			Amounts: make(map[ledger.MonthName]ledger.Amount, len(ledger.Months)),
		}
		for _, m := range ledger.Months {
			bill.Amounts[m] = 0
		}
		for _, key := range sortedKeys(row) {
			if m, ok := ledger.ParseMonth(key); ok {
				bill.Amounts[m] = ledger.CoerceAmount(row[key])
			}
		}

		if prev := out.put(rowNum, bill); prev > 0 {
			report.skip(prev, SkipDuplicateKey, card)
		}
	}

	report.Records = len(out.records)
	return out.records, report
}

// cardName resolves the card column using the configured header spellings
// in priority order, matching header names case-insensitively.
func (in *Interpreter) cardName(row map[string]string) string {
	keys := sortedKeys(row)
	for _, header := range in.cardHeaders {
		for _, key := range keys {
			if strings.EqualFold(strings.TrimSpace(key), header) {
				if v := strings.TrimSpace(row[key]); v != "" {
					return v
				}
			}
		}
	}
	return ""
}
