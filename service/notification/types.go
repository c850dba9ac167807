package notification

import (
	"time"

	"github.com/scriptoria/gatekeeper/model"
)

// Type of a notification.  A request gets exactly one notification at
// creation; Type is updated in place when the request resolves.
type Type string

const (
	TypeApprovalRequest Type = "approval_request"
	TypeApprovalGranted Type = "approval_granted"
	TypeApprovalDenied  Type = "approval_denied"
	TypeApprovalExpired Type = "approval_expired"
)

// Priority shown to approvers, mapped from the content risk level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Action is an option offered to the approver in the rendering channel.
type Action struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	Action         string `json:"action"` // approval.DecisionAction verb
	RequiresReason bool   `json:"requiresReason,omitempty"`
}

// Notification is the human-facing payload for one approval request.  The
// engine only builds it; rendering and decision collection belong to an
// external channel.
type Notification struct {
	ID            string        `json:"id"`
	RequestID     string        `json:"requestId"`
	Type          Type          `json:"type"`
	Title         string        `json:"title"`
	Message       string        `json:"message"`
	Priority      Priority      `json:"priority"`
	Approvers     []model.Tier  `json:"approvers"`
	CreatedAt     time.Time     `json:"createdAt"`
	ExpiresAt     time.Time     `json:"expiresAt"`
	Actions       []Action      `json:"actions"`
	EstimatedWait time.Duration `json:"estimatedWaitTime"`
}
