package advisor

import (
	"strings"
)

// Keyword lexicons for confirmation parsing. Matching is substring
// containment on the lowercased response, so "proceeding" counts for
// "proceed" and "now" counts for "no". Each keyword counts at most once.
var (
	positiveKeywords = []string{
		"yes", "proceed", "go ahead", "good", "take", "execute",
		"buy", "favorable", "agree", "positive", "recommend",
	}
	negativeKeywords = []string{
		"no", "wait", "avoid", "risky", "caution",
		"don't", "skip", "unfavorable", "hold off", "concern",
	}
)

// Verdict is the parsed outcome of an advisory response.
type Verdict struct {
	Approved      bool
	PositiveCount int
	NegativeCount int
}

// ParseConfirmation scores a free-text advisory response. The trade is
// approved only when positive keywords strictly outnumber negative ones
// and at least one positive keyword is present, so an empty or
// unreadable response always declines.
func ParseConfirmation(response string) Verdict {
	lower := strings.ToLower(response)

	var v Verdict
	for _, kw := range positiveKeywords {
		if strings.Contains(lower, kw) {
			v.PositiveCount++
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(lower, kw) {
			v.NegativeCount++
		}
	}
	v.Approved = v.PositiveCount > v.NegativeCount && v.PositiveCount > 0
	return v
}
