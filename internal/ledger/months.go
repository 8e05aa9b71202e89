// Package ledger defines the normalized record types shared by ingestion,
// reconciliation, storage and analytics.
package ledger

import (
	"strings"
	"time"
)

// MonthName is a calendar month spelled in full, e.g. "January".
type MonthName string

const (
	January   MonthName = "January"
	February  MonthName = "February"
	March     MonthName = "March"
	April     MonthName = "April"
	May       MonthName = "May"
	June      MonthName = "June"
	July      MonthName = "July"
	August    MonthName = "August"
	September MonthName = "September"
	October   MonthName = "October"
	November  MonthName = "November"
	December  MonthName = "December"
)

// Months lists the twelve months in calendar order.
var Months = [12]MonthName{
	January, February, March, April, May, June,
	July, August, September, October, November, December,
}

// ParseMonth matches a label against the month names, ignoring case and
// surrounding whitespace. Abbreviations are not accepted.
func ParseMonth(label string) (MonthName, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", false
	}
	for _, m := range Months {
		if strings.EqualFold(string(m), label) {
			return m, true
		}
	}
	return "", false
}

// MonthOf returns the month name of t.
func MonthOf(t time.Time) MonthName {
	return Months[t.Month()-1]
}

// Index returns the zero-based calendar position, or -1 for an unknown name.
func (m MonthName) Index() int {
	for i, candidate := range Months {
		if candidate == m {
			return i
		}
	}
	return -1
}

// Valid reports whether m is one of the twelve month names.
func (m MonthName) Valid() bool {
	return m.Index() >= 0
}
