package domain

import "time"

// UsedQuote records that the user marked a quote as used, and when.
type UsedQuote struct {
	// QuoteID identifies the quote.
	QuoteID string `json:"id"`

	// UsedOn is when the quote was marked used.
	UsedOn time.Time `json:"usedDate"`
}

// LastUsed returns when the collection records the quote as used.
// The second return is false when the quote was never marked.
func LastUsed(used []UsedQuote, quoteID string) (time.Time, bool) {
	for _, u := range used {
		if u.QuoteID == quoteID {
			return u.UsedOn, true
		}
	}

	return time.Time{}, false
}
