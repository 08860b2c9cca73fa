package transport

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mercator-hq/ganymede/pkg/chat"
)

// bodySnippetLen bounds how much of an error body lands in the message.
const bodySnippetLen = 300

// classifyStatus maps a non-2xx response to the error taxonomy:
//
//	401/403          -> Auth
//	429              -> RateLimited (Retry-After parsed when present)
//	other 4xx        -> BadRequest
//	everything else  -> Transient
func classifyStatus(status int, header http.Header, body []byte) *chat.Error {
	snippet := bodySnippet(body)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &chat.Error{
			Kind:       chat.KindAuth,
			HTTPStatus: status,
			Message:    snippet,
		}

	case status == http.StatusTooManyRequests:
		return &chat.Error{
			Kind:       chat.KindRateLimited,
			HTTPStatus: status,
			RetryAfter: ParseRetryAfter(header.Get("Retry-After")),
			Message:    snippet,
		}

	case status >= 400 && status < 500:
		return &chat.Error{
			Kind:       chat.KindBadRequest,
			HTTPStatus: status,
			Message:    snippet,
		}

	default:
		return &chat.Error{
			Kind:       chat.KindTransient,
			HTTPStatus: status,
			Message:    snippet,
		}
	}
}

// classifyTransportError maps a failure with no HTTP status: caller
// cancellation becomes Cancelled, everything below the HTTP layer (DNS,
// TLS, connection reset, timeouts) is endpoint health and therefore
// Transient.
func classifyTransportError(ctx context.Context, err error) *chat.Error {
	if ctx.Err() != nil {
		return &chat.Error{
			Kind:  chat.KindCancelled,
			Cause: ctx.Err(),
		}
	}
	return &chat.Error{
		Kind:  chat.KindTransient,
		Cause: err,
	}
}

// ParseRetryAfter parses a Retry-After header in either delay-seconds or
// HTTP-date form. Unparseable or past values yield zero.
func ParseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > bodySnippetLen {
		s = s[:bodySnippetLen] + "..."
	}
	return s
}
