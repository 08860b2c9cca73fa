// Package transport is the runtime's outbound HTTP layer: JSON POSTs to
// chat endpoints and GETs for model catalogs, with bounded redirects,
// bounded body capture, connection pooling, and optional client TLS for
// self-hosted endpoints.
//
// Its second job is the classification boundary. No http package type
// leaks upward: a 2xx yields a Response, everything else yields a
// *chat.Error whose Kind encodes the retry decision. Failures below the
// HTTP layer (DNS, TLS handshake, connection reset, timeout) classify as
// Transient unless the caller's context ended, which classifies as
// Cancelled.
package transport
