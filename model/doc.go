// Package model contains the shared in-memory representation of an approval
// gate evaluation: the immutable context snapshot describing a user-initiated
// action, the computed risk profile and the audit record of triggered rules.
//
// The types are deliberately free of behaviour beyond snapshotting so that
// every other package can reference them with a single import.
package model
