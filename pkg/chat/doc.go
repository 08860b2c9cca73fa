// Package chat defines the provider-agnostic vocabulary of the runtime:
// conversation messages, tool definitions, completion results, and the
// closed error taxonomy shared by every pipeline stage.
//
// # Messages
//
// A conversation is an ordered, immutable slice of role-tagged messages:
//
//	history := []chat.Message{
//	    {Role: chat.RoleSystem, Content: "You are terse."},
//	    {Role: chat.RoleUser, Content: "Hello!"},
//	}
//
// The runtime never mutates a caller's history; dialect builders copy what
// they need when reshaping it for a provider.
//
// # Errors
//
// Every failure surfaced by the runtime is a *chat.Error carrying a Kind
// from a closed set, the provider and model involved, the attempt number,
// and, where meaningful, the HTTP status and a Retry-After hint:
//
//	_, err := rt.Chat(ctx, history, nil)
//	var cerr *chat.Error
//	if errors.As(err, &cerr) {
//	    switch cerr.Kind {
//	    case chat.KindRateLimited:
//	        // back off, cerr.RetryAfter may be set
//	    case chat.KindAuth:
//	        // fix credentials, retrying will not help
//	    }
//	}
//
// Kinds classify retry behavior: RateLimited, Transient, and Upstream are
// retryable; only Transient and Upstream count toward circuit breakers.
package chat
