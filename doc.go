// Package gatekeeper implements the human-in-the-loop approval gate of an
// AI-assisted academic-writing product.  For every user-initiated action
// (a message, or a requested tool invocation) it renders a verdict - proceed
// automatically, hold pending human approval, or reject outright - from a
// declarative, priority-ordered rule set evaluated against session context
// and a computed risk profile.  It also owns the lifecycle of pending
// approval requests and produces the notification payloads surfaced to
// human approvers.
//
// The engine never executes the gated action; callers use the verdict to
// gate their own pipeline and feed human decisions back through Resolve.
package gatekeeper
