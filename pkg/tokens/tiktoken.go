package tokens

import (
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"mercator-hq/ganymede/pkg/chat"
)

// tiktokenEncoding is the BPE used for estimation regardless of model.
// cl100k_base is close enough across current chat models for admission
// control, and loading one encoding keeps memory flat.
const tiktokenEncoding = "cl100k_base"

// encoder is the slice of the tiktoken API this package needs; tests
// substitute a fake so they never load BPE ranks.
type encoder interface {
	Encode(text string, allowedSpecial, disallowedSpecial []string) []int
}

// Tiktoken estimates tokens with a real BPE encoding. Loading the encoding
// is deferred to first use and happens once; if it fails (no cache and no
// network), the estimator degrades to the heuristic and logs the downgrade.
type Tiktoken struct {
	fallback *Heuristic
	logger   *slog.Logger

	loadOnce sync.Once
	enc      encoder
	loadErr  error

	// load is swappable for tests
	load func() (encoder, error)
}

// NewTiktoken creates a BPE-backed estimator with a heuristic fallback.
func NewTiktoken() *Tiktoken {
	return &Tiktoken{
		fallback: DefaultHeuristic(),
		logger:   slog.Default().With("component", "tokens.tiktoken"),
		load: func() (encoder, error) {
			return tiktoken.GetEncoding(tiktokenEncoding)
		},
	}
}

// EstimateText counts BPE tokens for one string, or defers to the
// heuristic when the encoding is unavailable.
func (t *Tiktoken) EstimateText(text string) int {
	if text == "" {
		return 0
	}

	enc := t.encoding()
	if enc == nil {
		return t.fallback.EstimateText(text)
	}
	return len(enc.Encode(text, nil, nil))
}

// EstimateMessages sums exact content counts plus the same per-message
// overhead the heuristic applies, so switching estimators never changes
// the overhead policy.
func (t *Tiktoken) EstimateMessages(messages []chat.Message) int {
	enc := t.encoding()
	if enc == nil {
		return t.fallback.EstimateMessages(messages)
	}

	total := 0
	for _, msg := range messages {
		if msg.Content != "" {
			total += len(enc.Encode(msg.Content, nil, nil))
		}
		if msg.Name != "" {
			total += len(enc.Encode(msg.Name, nil, nil))
		}
		total += DefaultMessageOverhead
	}
	return total
}

// encoding returns the loaded encoder or nil after a failed load.
func (t *Tiktoken) encoding() encoder {
	t.loadOnce.Do(func() {
		t.enc, t.loadErr = t.load()
		if t.loadErr != nil {
			t.logger.Warn("tiktoken encoding unavailable, using heuristic estimates",
				"encoding", tiktokenEncoding,
				"error", t.loadErr,
			)
			t.enc = nil
		}
	})
	return t.enc
}
