package attack

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid attack parameter, raised at construction
// or reconfiguration. The configuration is left untouched when one is
// returned.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid attack parameter %q: %s", e.Param, e.Reason)
}

// CapabilityError reports a classifier that lacks a capability the attack
// requires. Raised at construction only.
type CapabilityError struct {
	Capability string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("classifier does not support %s", e.Capability)
}

// ErrMissingGuide is returned by Generate when no guide samples are
// supplied. The objective is defined relative to the guide representation,
// so there is no meaningful fallback.
var ErrMissingGuide = errors.New("guide samples are required")
