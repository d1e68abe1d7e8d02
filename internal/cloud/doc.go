// Package cloud implements the authenticated REST surface of the
// La Marzocco cloud: installation registration, the bearer-token lifecycle
// (sign-in, proactive refresh, expiry), and one-shot API calls.
//
// # Token Lifecycle
//
// Tokens live in memory only and are re-obtained on every start. A token is
// usable while now < expiresAt; within ten minutes of expiry the session
// refreshes proactively, falling back to a full sign-in when the refresh is
// rejected. Only a failed sign-in surfaces as ErrAuthFailed.
//
// # Thread Safety
//
// A Session's token state is mutated only by EnsureValid and the sign-in /
// refresh calls it makes. Callers serialise these; the session performs no
// internal locking. The realtime channel therefore caches the token value
// before its socket callbacks start (see package realtime).
package cloud
