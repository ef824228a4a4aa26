package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseConfirmation(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     bool
	}{
		// Positive responses
		{"clear yes", "Yes, this looks like a good opportunity. I recommend proceeding.", true},
		{"agreement plus proceed", "I agree, go ahead with the trade.", true},
		{"favorable plus take", "This is favorable. Take the trade.", true},
		{"looks good plus execute", "Looks good to me, execute the order.", true},
		{"positive plus buy", "Positive outlook, buy it.", true},

		// Negative responses
		{"clear no plus wait", "No, I would wait for a better price.", false},
		{"avoid", "I recommend avoiding this trade right now.", false},
		{"dont plus risky", "Don't proceed, the market is too risky.", false},
		{"hold off plus unfavorable", "Hold off on this one, conditions are unfavorable.", false},
		{"caution plus skip", "Caution advised. I would skip this opportunity.", false},

		// Mixed responses
		{"caution wins", "This could work but I have some concerns. Proceed with caution.", false},
		{"conditional approval", "It's risky but if you want to proceed, go ahead.", true},
		{"yes wins", "Not ideal timing but yes, you can take it.", true},

		// Edge cases
		{"empty", "", false},
		{"neutral", "The market is volatile.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ParseConfirmation(tt.response)
			assert.Equal(t, tt.want, v.Approved)
		})
	}
}

func TestParseConfirmationCaseInsensitive(t *testing.T) {
	assert.True(t, ParseConfirmation("YES, EXECUTE IT").Approved)
	assert.False(t, ParseConfirmation("RISKY, AVOID").Approved)
}

func TestParseConfirmationTieRejects(t *testing.T) {
	// One positive, one negative: positives must strictly outnumber
	v := ParseConfirmation("buy, but risky")
	assert.Equal(t, 1, v.PositiveCount)
	assert.Equal(t, 1, v.NegativeCount)
	assert.False(t, v.Approved)
}

func TestParseConfirmationCountsKeywordOnce(t *testing.T) {
	v := ParseConfirmation("yes yes yes")
	assert.Equal(t, 1, v.PositiveCount)
	assert.True(t, v.Approved)
}
