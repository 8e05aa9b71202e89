package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Feed identifies one of the four upload categories.
type Feed string

const (
	FeedBills   Feed = "bills"
	FeedMonthly Feed = "monthly"
	FeedTracks  Feed = "tracks"
	FeedDebts   Feed = "debts"
)

// Feeds lists every feed.
var Feeds = []Feed{FeedBills, FeedMonthly, FeedTracks, FeedDebts}

// ParseFeed validates a feed name.
func ParseFeed(s string) (Feed, error) {
	f := Feed(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("unknown feed %q", s)
	}
	return f, nil
}

// Valid reports whether f is a known feed.
func (f Feed) Valid() bool {
	switch f {
	case FeedBills, FeedMonthly, FeedTracks, FeedDebts:
		return true
	}
	return false
}

// YearScoped reports whether records of this feed are replaced one year at a time.
func (f Feed) YearScoped() bool {
	return f == FeedBills || f == FeedMonthly
}

// Record is a normalized row of one feed. The set of implementations is
// closed: CardMonth, MonthExpenditure, SegmentMonth and Debt.
type Record interface {
	// Feed reports which feed the record belongs to.
	Feed() Feed
	// StorageKey is the durable identity within the feed.
	StorageKey() string
	// ScopeYear is the replacement year, or zero for scope-less feeds.
	ScopeYear() int
	// Validate checks the identity fields.
	Validate() error

	sealed()
}

// CardMonth holds one card's monthly bill amounts for a year.
type CardMonth struct {
	Year    int                  `firestore:"year" json:"year"`
	Card    string               `firestore:"card" json:"card"`
	Amounts map[MonthName]Amount `firestore:"amounts" json:"amounts"`
}

func (CardMonth) Feed() Feed { return FeedBills }

func (c CardMonth) StorageKey() string { return strconv.Itoa(c.Year) + "-" + c.Card }

func (c CardMonth) ScopeYear() int { return c.Year }

func (c CardMonth) Validate() error {
	if c.Year <= 0 {
		return fmt.Errorf("card %q: year is required", c.Card)
	}
	if strings.TrimSpace(c.Card) == "" {
		return errors.New("card name is required")
	}
	for m := range c.Amounts {
		if !m.Valid() {
			return fmt.Errorf("card %q: unknown month %q", c.Card, m)
		}
	}
	return nil
}

// Total sums the twelve monthly amounts.
func (c CardMonth) Total() Amount {
	var total Amount
	for _, m := range Months {
		total += c.Amounts[m]
	}
	return total
}

func (CardMonth) sealed() {}

// MonthExpenditure is the total spent in one month of a year.
type MonthExpenditure struct {
	Year   int    `firestore:"year" json:"year"`
	Month  string `firestore:"month" json:"month"`
	Amount Amount `firestore:"amount" json:"amount"`
}

func (MonthExpenditure) Feed() Feed { return FeedMonthly }

func (m MonthExpenditure) StorageKey() string { return strconv.Itoa(m.Year) + "-" + m.Month }

func (m MonthExpenditure) ScopeYear() int { return m.Year }

func (m MonthExpenditure) Validate() error {
	if m.Year <= 0 {
		return fmt.Errorf("month %q: year is required", m.Month)
	}
	if strings.TrimSpace(m.Month) == "" {
		return errors.New("month label is required")
	}
	return nil
}

func (MonthExpenditure) sealed() {}

// SegmentName is a canonical budget segment.
type SegmentName string

const (
	SegmentRent        SegmentName = "Rent"
	SegmentKirana      SegmentName = "Kirana"
	SegmentPetrol      SegmentName = "Petrol"
	SegmentOnlineBills SegmentName = "Online Bills"
)

// Segments lists the tracked segments in display order.
var Segments = []SegmentName{SegmentRent, SegmentKirana, SegmentPetrol, SegmentOnlineBills}

// SegmentMonth holds the per-segment spend of one calendar month.
type SegmentMonth struct {
	Month    MonthName              `firestore:"month" json:"month"`
	Segments map[SegmentName]Amount `firestore:"segments" json:"segments"`
}

// NewSegmentMonth returns a month with every segment set to zero.
func NewSegmentMonth(month MonthName) SegmentMonth {
	segments := make(map[SegmentName]Amount, len(Segments))
	for _, s := range Segments {
		segments[s] = 0
	}
	return SegmentMonth{Month: month, Segments: segments}
}

func (SegmentMonth) Feed() Feed { return FeedTracks }

func (s SegmentMonth) StorageKey() string { return string(s.Month) }

func (SegmentMonth) ScopeYear() int { return 0 }

func (s SegmentMonth) Validate() error {
	if !s.Month.Valid() {
		return fmt.Errorf("unknown month %q", s.Month)
	}
	return nil
}

// Total sums the segments of the month.
func (s SegmentMonth) Total() Amount {
	var total Amount
	for _, seg := range Segments {
		total += s.Segments[seg]
	}
	return total
}

func (SegmentMonth) sealed() {}

// Debt is the outstanding amount owed to one lender.
type Debt struct {
	Lender string `firestore:"lender" json:"lender"`
	Amount Amount `firestore:"amount" json:"amount"`
}

func (Debt) Feed() Feed { return FeedDebts }

func (d Debt) StorageKey() string { return d.Lender }

func (Debt) ScopeYear() int { return 0 }

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Lender) == "" {
		return errors.New("lender is required")
	}
	return nil
}

func (Debt) sealed() {}
