package ledger

import "fmt"

// RecordSet carries records of a single feed in a serializable form. Only
// the slice matching Feed may be populated.
type RecordSet struct {
	Feed    Feed               `json:"feed"`
	Bills   []CardMonth        `json:"bills,omitempty"`
	Monthly []MonthExpenditure `json:"monthly,omitempty"`
	Tracks  []SegmentMonth     `json:"tracks,omitempty"`
	Debts   []Debt             `json:"debts,omitempty"`
}

// NewRecordSet packs records of one feed. Records of other feeds are an error.
func NewRecordSet(feed Feed, records []Record) (RecordSet, error) {
	set := RecordSet{Feed: feed}
	for _, r := range records {
		if r.Feed() != feed {
			return RecordSet{}, fmt.Errorf("record %q belongs to feed %s, not %s", r.StorageKey(), r.Feed(), feed)
		}
		switch v := r.(type) {
		case CardMonth:
			set.Bills = append(set.Bills, v)
		case MonthExpenditure:
			set.Monthly = append(set.Monthly, v)
		case SegmentMonth:
			set.Tracks = append(set.Tracks, v)
		case Debt:
			set.Debts = append(set.Debts, v)
		}
	}
	return set, nil
}

// Records unpacks the set, rejecting slices that do not match Feed.
func (s RecordSet) Records() ([]Record, error) {
	if !s.Feed.Valid() {
		return nil, fmt.Errorf("unknown feed %q", s.Feed)
	}
	populated := map[Feed]int{
		FeedBills:   len(s.Bills),
		FeedMonthly: len(s.Monthly),
		FeedTracks:  len(s.Tracks),
		FeedDebts:   len(s.Debts),
	}
	for feed, n := range populated {
		if feed != s.Feed && n > 0 {
			return nil, fmt.Errorf("record set for feed %s carries %d %s records", s.Feed, n, feed)
		}
	}

	out := make([]Record, 0, populated[s.Feed])
	switch s.Feed {
	case FeedBills:
		for _, r := range s.Bills {
			out = append(out, r)
		}
	case FeedMonthly:
		for _, r := range s.Monthly {
			out = append(out, r)
		}
	case FeedTracks:
		for _, r := range s.Tracks {
			out = append(out, r)
		}
	case FeedDebts:
		for _, r := range s.Debts {
			out = append(out, r)
		}
	}
	return out, nil
}

// Len returns the number of records in the set.
func (s RecordSet) Len() int {
	return len(s.Bills) + len(s.Monthly) + len(s.Tracks) + len(s.Debts)
}
