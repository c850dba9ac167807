package gatekeeper

import (
	"fmt"
	"time"

	"github.com/scriptoria/gatekeeper/risk"
	"github.com/scriptoria/gatekeeper/service/notification"
)

// Config is a serialisable representation of the engine configuration.  It
// can be populated from JSON or YAML; the zero value is useful - all nested
// fields inherit their package defaults.
type Config struct {
	Approval     ApprovalConfig      `json:"approval" yaml:"approval"`
	Risk         risk.Config         `json:"risk" yaml:"risk"`
	Notification notification.Config `json:"notification" yaml:"notification"`
}

// ApprovalConfig tunes the request lifecycle.
type ApprovalConfig struct {
	// TTL after which a pending request auto-expires.
	TTL time.Duration `json:"ttl" yaml:"ttl"`
	// SweepInterval is the cadence of the background expiry sweep.
	SweepInterval time.Duration `json:"sweepInterval" yaml:"sweepInterval"`
}

// DefaultConfig returns a Config populated with the package defaults:
// 30 minute TTL, 5 minute sweep, 1 hour estimated-wait cap.
func DefaultConfig() *Config {
	return &Config{
		Approval: ApprovalConfig{
			TTL:           30 * time.Minute,
			SweepInterval: 5 * time.Minute,
		},
		Risk: risk.DefaultConfig(),
		Notification: notification.Config{
			MaxEstimatedWait: notification.DefaultMaxEstimatedWait,
		},
	}
}

// Init fills zero-value fields with their package defaults, so a partially
// populated (or zero) Config is usable as-is.
func (c *Config) Init() {
	defaults := DefaultConfig()
	if c.Approval.TTL == 0 {
		c.Approval.TTL = defaults.Approval.TTL
	}
	if c.Approval.SweepInterval == 0 {
		c.Approval.SweepInterval = defaults.Approval.SweepInterval
	}
	if c.Notification.MaxEstimatedWait == 0 {
		c.Notification.MaxEstimatedWait = defaults.Notification.MaxEstimatedWait
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Approval.TTL <= 0 {
		return fmt.Errorf("approval.ttl must be > 0")
	}
	if c.Approval.SweepInterval <= 0 {
		return fmt.Errorf("approval.sweepInterval must be > 0")
	}
	if c.Notification.MaxEstimatedWait <= 0 {
		return fmt.Errorf("notification.maxEstimatedWait must be > 0")
	}
	return nil
}
