// Package risk computes the structured risk profile the policy rules consult.
// Assessment is a pure function over the context snapshot: deterministic for
// identical input, no I/O and no clock dependence.
package risk
