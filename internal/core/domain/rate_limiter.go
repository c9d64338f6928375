// Package domain holds the core entities of the studio site backend.
package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	ActionContact    = "contact"
	ActionNewsletter = "newsletter"

	// AnonymousIdentifier is used when a caller cannot be identified.
	AnonymousIdentifier = "127.0.0.1"
)

// ActionPolicy caps admissions for one action type inside a sliding window.
type ActionPolicy struct {
	Limit  int
	Window time.Duration
}

// RateLimitConfig maps action names to their policy. It is fixed for the
// lifetime of the process.
type RateLimitConfig map[string]ActionPolicy

// DefaultRateLimitConfig mirrors the limits the site launched with.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		ActionContact:    {Limit: 5, Window: time.Hour},
		ActionNewsletter: {Limit: 10, Window: 24 * time.Hour},
	}
}

func (c RateLimitConfig) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("rate limit config must define at least one action")
	}
	for action, policy := range c {
		if strings.TrimSpace(action) == "" {
			return fmt.Errorf("rate limit action name must not be empty")
		}
		if policy.Limit <= 0 || policy.Window <= 0 {
			return fmt.Errorf("rate limit policy for %q must have positive limit and window", action)
		}
	}
	return nil
}

// LongestWindow returns the largest window across all actions.
func (c RateLimitConfig) LongestWindow() time.Duration {
	var longest time.Duration
	for _, policy := range c {
		if policy.Window > longest {
			longest = policy.Window
		}
	}
	return longest
}

func (c RateLimitConfig) Clone() RateLimitConfig {
	clone := make(RateLimitConfig, len(c))
	for k, v := range c {
		clone[k] = v
	}
	return clone
}

// RateKey builds the composite storage key for an action and caller.
func RateKey(action, identifier string) string {
	return fmt.Sprintf("ratelimit:%s:%s", action, strings.ToLower(strings.TrimSpace(identifier)))
}

type Decision struct {
	Allowed    bool
	Action     string
	Identifier string
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds.
func (d Decision) RetryAfterSeconds() int {
	return ceilSeconds(d.RetryAfter)
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	secs := d / time.Second
	if d%time.Second != 0 {
		secs++
	}
	return int(secs)
}
