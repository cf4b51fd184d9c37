// Package tokenstore tracks short-lived retry tokens keyed by proposal
// fingerprint.
//
// A token is created when a proposal is blocked and consumed by a matching
// resubmission within the TTL window. At most one live token exists per key;
// re-issuing overwrites the previous token and restarts its TTL. The store
// is shared local state between concurrent guard invocations: Issue is
// atomic, while TryConsume and SweepExpired tolerate a narrow benign race
// where two observers of the same token both win. That is acceptable for
// accidental-rewrite prevention; this is not a security boundary.
package tokenstore

// Store is the retry-token contract consumed by the decision engine.
type Store interface {
	// TryConsume deletes and reports the token for key iff one exists and
	// is younger than the TTL. An expired token found during the check is
	// removed and reported as absent.
	TryConsume(key string) (bool, error)

	// Issue records a token for key with the current time, overwriting any
	// previous token. The new entry must never be observable in a
	// partially-written state.
	Issue(key string) error

	// SweepExpired inspects at most maxChecked entries in unspecified
	// order, removes any whose age has reached the TTL, and returns the
	// number removed. Bounding the inspection keeps each call cheap so
	// repeated calls amortize cleanup.
	SweepExpired(maxChecked int) (int, error)
}
