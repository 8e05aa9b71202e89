package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the day format used for spends.
const DateLayout = "2006-01-02"

// DefaultSpendCategory is used when a spend has no category.
const DefaultSpendCategory = "Other"

// Budget maps each month to its planned UPI spend.
type Budget map[MonthName]Amount

// Total sums the budget over the year.
func (b Budget) Total() Amount {
	var total Amount
	for _, m := range Months {
		total += b[m]
	}
	return total
}

// Spend is an ad hoc payment entered by hand. Spends are append-only and
// never reconciled against uploads.
type Spend struct {
	ID        string    `firestore:"id" json:"id"`
	Amount    Amount    `firestore:"amount" json:"amount"`
	Date      string    `firestore:"date" json:"date"`
	Month     MonthName `firestore:"month" json:"month"`
	Category  string    `firestore:"sector" json:"category"`
	Note      string    `firestore:"note" json:"note"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
}

// NewSpend builds a spend keyed by its creation time. An empty date means
// the day of now; the month is derived from the date.
func NewSpend(amount Amount, date, category, note string, now time.Time) (Spend, error) {
	if amount <= 0 {
		return Spend{}, errors.New("spend amount must be positive")
	}

	day := now
	date = strings.TrimSpace(date)
	if date != "" {
		parsed, err := time.Parse(DateLayout, date)
		if err != nil {
			return Spend{}, fmt.Errorf("invalid spend date %q: %w", date, err)
		}
		day = parsed
	}

	category = strings.TrimSpace(category)
	if category == "" {
		category = DefaultSpendCategory
	}

	return Spend{
		ID:        strconv.FormatInt(now.UnixNano(), 10),
		Amount:    amount,
		Date:      day.Format(DateLayout),
		Month:     MonthOf(day),
		Category:  category,
		Note:      strings.TrimSpace(note),
		CreatedAt: now.UTC(),
	}, nil
}

// Profile is the per-user display state.
type Profile struct {
	UserID    string    `firestore:"userId" json:"userId"`
	Email     string    `firestore:"email" json:"email"`
	PhotoURL  string    `firestore:"url" json:"photoUrl"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}
