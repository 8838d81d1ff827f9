// Package auth resolves a Google credential into a capability: the
// authenticated right to call some subset of the Drive, Sheets, and YouTube
// APIs.
//
// Three credential shapes are supported, detected from the payload the way
// Google's own credential files are shaped:
//
//   - an API key (a bare string)
//   - a service account key (JSON with "client_email" and "private_key")
//   - an OAuth client token (JSON with "refresh_token", "client_id", and
//     "client_secret")
//
// The shapes form a tagged union: a Credential is constructed once, resolved
// exactly once by a Resolver into a Capability, and never inspected again.
// Downstream code depends only on the Capability's operations (which API
// families it unlocks, whether mutation is permitted, and the transport
// headers to attach to each request), not on which credential kind produced
// it.
//
// An API-key capability unlocks only read-style operations on public data;
// mutating calls fail with a CapabilityError before any network I/O.
package auth
