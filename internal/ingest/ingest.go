// Package ingest turns decoded spreadsheet rows into normalized ledger
// records, one interpreter per feed layout.
package ingest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"

	"github.com/credix-app/credix/backend/internal/ledger"
	"github.com/credix-app/credix/backend/internal/sheet"
)

// SkipReason explains why a row produced no record.
type SkipReason string

const (
	SkipNoCardName     SkipReason = "no card name"
	SkipDuplicateKey   SkipReason = "superseded by a later row"
	SkipShortRow       SkipReason = "too few cells"
	SkipHeaderRow      SkipReason = "repeated header row"
	SkipGrandTotal     SkipReason = "grand total row"
	SkipNoMonth        SkipReason = "no month label"
	SkipNoAmount       SkipReason = "missing or non-numeric amount"
	SkipNoActiveMonth  SkipReason = "no month seen yet"
	SkipNoSegment      SkipReason = "no segment label"
	SkipUnknownSegment SkipReason = "unknown segment"
	SkipNoLender       SkipReason = "no lender"
	SkipNonPositive    SkipReason = "amount is not positive"
)

// Skip records one excluded row. Row is 1-based within the rows handed to
// the interpreter.
type Skip struct {
	Row    int        `json:"row"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// Report summarizes an interpretation pass.
type Report struct {
	Feed     ledger.Feed `json:"feed"`
	RowsSeen int         `json:"rowsSeen"`
	Records  int         `json:"records"`
	Skipped  []Skip      `json:"skipped,omitempty"`
}

func (r *Report) skip(row int, reason SkipReason, detail string) {
	r.Skipped = append(r.Skipped, Skip{Row: row, Reason: reason, Detail: detail})
}

// DefaultCardHeaders are the accepted spellings of the card-name column.
var DefaultCardHeaders = []string{"Cards", "Card", "Card Name", "Credit Card", "Name"}

// DefaultSegmentAliases maps folded segment labels to canonical segments.
var DefaultSegmentAliases = map[string]ledger.SegmentName{
	"rent":         ledger.SegmentRent,
	"kirana":       ledger.SegmentKirana,
	"petrol":       ledger.SegmentPetrol,
	"online":       ledger.SegmentOnlineBills,
	"online bills": ledger.SegmentOnlineBills,
}

// Options configures header spellings and aliases.
type Options struct {
	CardHeaders    []string
	SegmentAliases map[string]ledger.SegmentName
}

// DefaultOptions returns the built-in header spellings and aliases.
func DefaultOptions() Options {
	aliases := make(map[string]ledger.SegmentName, len(DefaultSegmentAliases))
	for k, v := range DefaultSegmentAliases {
		aliases[k] = v
	}
	return Options{
		CardHeaders:    append([]string(nil), DefaultCardHeaders...),
		SegmentAliases: aliases,
	}
}

// Interpreter applies the feed layouts. It holds no per-upload state and is
// safe for concurrent use.
type Interpreter struct {
	cardHeaders    []string
	segmentAliases map[string]ledger.SegmentName
	log            zerolog.Logger
}

// New builds an interpreter. Extra card headers are tried after the
// defaults; extra aliases extend the defaults.
func New(opts Options, log zerolog.Logger) *Interpreter {
	defaults := DefaultOptions()
	if len(opts.CardHeaders) == 0 {
		opts.CardHeaders = defaults.CardHeaders
	}
	in := &Interpreter{
		cardHeaders:    opts.CardHeaders,
		segmentAliases: defaults.SegmentAliases,
		log:            log.With().Str("component", "ingest").Logger(),
	}
	for k, v := range opts.SegmentAliases {
		in.segmentAliases[in.foldKey(k)] = v
	}
	return in
}

// foldKey normalizes a label for alias lookup. Casers are stateful, so a
// fresh one is used per call.
func (in *Interpreter) foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Interpret decodes the layout of the given feed from a table. The year is
// required for year-scoped feeds and ignored otherwise.
func (in *Interpreter) Interpret(feed ledger.Feed, year int, table *sheet.Table) ([]ledger.Record, Report, error) {
	if feed.YearScoped() && year <= 0 {
		return nil, Report{Feed: feed}, fmt.Errorf("feed %s requires a year", feed)
	}

	var (
		out    []ledger.Record
		report Report
	)
	switch feed {
	case ledger.FeedBills:
		bills, r := in.CardBills(year, table.Records())
		for _, b := range bills {
			out = append(out, b)
		}
		report = r
	case ledger.FeedMonthly:
		months, r := in.MonthlyExpenditure(year, table.Rows())
		for _, m := range months {
			out = append(out, m)
		}
		report = r
	case ledger.FeedTracks:
		tracks, r := in.SegmentTracks(table.Rows())
		for _, s := range tracks {
			out = append(out, s)
		}
		report = r
	case ledger.FeedDebts:
		debts, r := in.Debts(table.Records())
		for _, d := range debts {
			out = append(out, d)
		}
		report = r
	default:
		return nil, Report{Feed: feed}, fmt.Errorf("unknown feed %q", feed)
	}
	return out, report, nil
}

// sortedKeys returns the keys of a row object in a stable order so that
// interpretation does not depend on map iteration.
func sortedKeys(row map[string]string) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// keyedOutput keeps the last record per storage key in first-seen position.
type keyedOutput[T ledger.Record] struct {
	records []T
	rows    []int
	index   map[string]int
}

func newKeyedOutput[T ledger.Record]() *keyedOutput[T] {
	return &keyedOutput[T]{index: make(map[string]int)}
}

// put stores rec and returns the row it superseded, or zero.
func (o *keyedOutput[T]) put(row int, rec T) int {
	key := rec.StorageKey()
	if i, ok := o.index[key]; ok {
		prev := o.rows[i]
		o.records[i] = rec
		o.rows[i] = row
		return prev
	}
	o.index[key] = len(o.records)
	o.records = append(o.records, rec)
	o.rows = append(o.rows, row)
	return 0
}
