// Package approval owns the asynchronous lifecycle of pending approval
// requests: creation on a require_approval verdict, expiry sweeps, and
// resolution by a human decision.  Terminal records move to an append-only
// history and are never deleted.
package approval
