package ingest

import (
	"github.com/credix-app/credix/backend/internal/ledger"
	"github.com/credix-app/credix/backend/internal/sheet"
)

// monthCursor is the carry-forward state of the segment layout. The zero
// value is NoActiveMonth; a recognized month label moves it to
// ActiveMonth(name), where it stays until the next recognized label.
type monthCursor struct {
	month ledger.MonthName
}

func (c monthCursor) active() bool {
	return c.month != ""
}

// next returns the cursor after reading a row's month cell. Blank or
// unrecognized labels leave the cursor unchanged.
func (c monthCursor) next(label string) monthCursor {
	if m, ok := ledger.ParseMonth(label); ok {
		return monthCursor{month: m}
	}
	return c
}

// SegmentTracks reads positional (month, segment, amount) triples where the
// month cell is only filled on the first row of each month's block. The
// result always has twelve months in calendar order with every segment
// present; later rows for the same month and segment win. A missing amount
// cell counts as zero.
func (in *Interpreter) SegmentTracks(rows []sheet.RawRow) ([]ledger.SegmentMonth, Report) {
	report := Report{Feed: ledger.FeedTracks, RowsSeen: len(rows)}

	byMonth := make(map[ledger.MonthName]ledger.SegmentMonth, len(ledger.Months))
	for _, m := range ledger.Months {
		byMonth[m] = ledger.NewSegmentMonth(m)
	}

	var cursor monthCursor
	for i, row := range rows {
		rowNum := i + 1
		if row.Empty() {
			continue
		}

		// The cursor moves before any other check so a month label on a
		// short row still opens its block.
		cursor = cursor.next(row.Cell(0))
		if !cursor.active() {
			report.skip(rowNum, SkipNoActiveMonth, row.Cell(0))
			continue
		}

		label := row.Cell(1)
		if label == "" {
			if _, marker := ledger.ParseMonth(row.Cell(0)); marker && row.Cell(2) == "" {
				continue
			}
			report.skip(rowNum, SkipNoSegment, "")
			continue
		}
		segment, ok := in.segmentAliases[in.foldKey(label)]
		if !ok {
			report.skip(rowNum, SkipUnknownSegment, label)
			continue
		}

		byMonth[cursor.month].Segments[segment] = ledger.CoerceAmount(row.Cell(2))
	}

	out := make([]ledger.SegmentMonth, 0, len(ledger.Months))
	for _, m := range ledger.Months {
		out = append(out, byMonth[m])
	}
	report.Records = len(out)
	return out, report
}
