package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrUnknownAction     = errors.New("unknown rate limit action")
	ErrThrottled         = errors.New("too many requests")
	ErrPostNotFound      = errors.New("post not found")
	ErrSourceUnavailable = errors.New("content source unavailable")
	ErrInvalidLead       = errors.New("invalid lead submission")
	ErrLeadNotSaved      = errors.New("lead could not be saved")
)

// ThrottledError is returned when the caller exhausted an action's quota.
type ThrottledError struct {
	Action     string
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("%s: %s, retry after %ds", ErrThrottled, e.Action, e.RetryAfterSeconds())
}

func (e *ThrottledError) Unwrap() error { return ErrThrottled }

func (e *ThrottledError) RetryAfterSeconds() int {
	return ceilSeconds(e.RetryAfter)
}

// ValidationError lists the offending fields of a lead submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s: %s", ErrInvalidLead, strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidLead }

func IsThrottled(err error) bool {
	return errors.Is(err, ErrThrottled)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrPostNotFound)
}
