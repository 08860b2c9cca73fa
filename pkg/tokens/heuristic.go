package tokens

import (
	"math"

	"mercator-hq/ganymede/pkg/chat"
)

// Default heuristic coefficients. Four characters per token tracks the
// OpenAI rule of thumb for English text; the per-message overhead covers
// role framing and message boundaries.
const (
	DefaultCharsPerToken   = 4.0
	DefaultMessageOverhead = 4
)

// Heuristic is the character-count estimator. It is intentionally coarse:
// admission control only needs the estimate to be stable and in the right
// ballpark, and this stays under a microsecond for typical conversations.
type Heuristic struct {
	charsPerToken   float64
	messageOverhead int
}

// NewHeuristic creates a heuristic estimator with explicit coefficients.
// Non-positive values fall back to the defaults.
func NewHeuristic(charsPerToken float64, messageOverhead int) *Heuristic {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	if messageOverhead <= 0 {
		messageOverhead = DefaultMessageOverhead
	}
	return &Heuristic{
		charsPerToken:   charsPerToken,
		messageOverhead: messageOverhead,
	}
}

// DefaultHeuristic returns the estimator with stock coefficients.
func DefaultHeuristic() *Heuristic {
	return NewHeuristic(DefaultCharsPerToken, DefaultMessageOverhead)
}

// EstimateText estimates tokens for one string: ceil(len/charsPerToken),
// with a one-token floor for non-empty text.
func (h *Heuristic) EstimateText(text string) int {
	if text == "" {
		return 0
	}

	tokens := int(math.Ceil(float64(len(text)) / h.charsPerToken))
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// EstimateMessages sums per-message content estimates plus the fixed
// per-message overhead. Names are counted like content since providers
// transmit them.
func (h *Heuristic) EstimateMessages(messages []chat.Message) int {
	total := 0
	for _, msg := range messages {
		total += h.EstimateText(msg.Content)
		if msg.Name != "" {
			total += h.EstimateText(msg.Name)
		}
		total += h.messageOverhead
	}
	return total
}
