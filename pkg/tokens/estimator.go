// Package tokens estimates prompt token counts for admission control.
//
// Estimates feed the rate limiter's token bucket, not billing: they must be
// deterministic, non-negative, and cheap. The default heuristic counts
// roughly one token per four characters of content plus a fixed per-message
// overhead for role framing. Callers that want exact counts can select the
// tiktoken estimator, which runs real BPE over the content and falls back to
// the heuristic when the encoding cannot be loaded.
package tokens

import "mercator-hq/ganymede/pkg/chat"

// Estimator approximates the prompt tokens of a conversation.
// Implementations must be deterministic and safe for concurrent use.
type Estimator interface {
	// EstimateText estimates tokens for a single text string.
	EstimateText(text string) int

	// EstimateMessages estimates total prompt tokens for a message list,
	// including per-message formatting overhead.
	EstimateMessages(messages []chat.Message) int
}

// Estimator selection names used in configuration.
const (
	EstimatorHeuristic = "heuristic"
	EstimatorTiktoken  = "tiktoken"
)
