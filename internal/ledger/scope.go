package ledger

import (
	"errors"
	"fmt"
)

// ErrInvalidScope is returned for a scope that does not fit its feed.
var ErrInvalidScope = errors.New("invalid scope")

// Scope is the replacement boundary of a persist: one year of a year-scoped
// feed, or the whole collection of a scope-less feed.
type Scope struct {
	Feed Feed `json:"feed"`
	Year int  `json:"year,omitempty"`
}

// YearScope scopes a year-scoped feed to one year.
func YearScope(feed Feed, year int) Scope {
	return Scope{Feed: feed, Year: year}
}

// FeedScope scopes a scope-less feed to all of its records.
func FeedScope(feed Feed) Scope {
	return Scope{Feed: feed}
}

// ScopeFor builds the natural scope of a feed for the given year. The year
// is ignored for scope-less feeds.
func ScopeFor(feed Feed, year int) Scope {
	if feed.YearScoped() {
		return YearScope(feed, year)
	}
	return FeedScope(feed)
}

// All reports whether the scope covers the whole feed collection.
func (s Scope) All() bool {
	return s.Year == 0
}

func (s Scope) Validate() error {
	if !s.Feed.Valid() {
		return fmt.Errorf("%w: unknown feed %q", ErrInvalidScope, s.Feed)
	}
	if s.Feed.YearScoped() && s.Year <= 0 {
		return fmt.Errorf("%w: feed %s requires a year", ErrInvalidScope, s.Feed)
	}
	if !s.Feed.YearScoped() && s.Year != 0 {
		return fmt.Errorf("%w: feed %s is not year scoped", ErrInvalidScope, s.Feed)
	}
	return nil
}

// Contains reports whether r belongs to the scope.
func (s Scope) Contains(r Record) bool {
	if r.Feed() != s.Feed {
		return false
	}
	return s.All() || r.ScopeYear() == s.Year
}

func (s Scope) String() string {
	if s.All() {
		return string(s.Feed)
	}
	return fmt.Sprintf("%s/%d", s.Feed, s.Year)
}
