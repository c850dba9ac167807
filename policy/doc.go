// Package policy holds the declarative, priority-ordered rule set of the
// approval gate and the evaluator that turns a context into a verdict -
// proceed, require_approval or reject.  Rules can be registered and removed
// at runtime so that policy adjusts without redeploying the engine.
package policy
