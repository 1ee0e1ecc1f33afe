package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrAppNotFound is returned when no container exists for an app.
	ErrAppNotFound = errors.New("app not found")
	// ErrBrandingNotFound is returned by branding stores for unknown tenants.
	ErrBrandingNotFound = errors.New("branding config not found")
)

// PreconditionError reports that a pipeline cannot start from the current
// filesystem state.
type PreconditionError struct {
	Path   string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed: %s: %s", e.Reason, e.Path)
}

// ConfigurationMissingError reports a tenant without branding configuration.
type ConfigurationMissingError struct {
	TenantID string
}

func (e *ConfigurationMissingError) Error() string {
	return fmt.Sprintf("branding config not found for tenant %q", e.TenantID)
}

func (e *ConfigurationMissingError) Unwrap() error { return ErrBrandingNotFound }

// ProcessTimeoutError reports a subprocess killed after exceeding its timeout.
type ProcessTimeoutError struct {
	Argv    []string
	Timeout time.Duration
}

func (e *ProcessTimeoutError) Error() string {
	return fmt.Sprintf("command timeout after %s: %s", e.Timeout, strings.Join(e.Argv, " "))
}

// ProcessExitError reports a subprocess that exited with a non-zero code.
type ProcessExitError struct {
	Code   int
	Argv   []string
	Output string
}

func (e *ProcessExitError) Error() string {
	return fmt.Sprintf("command failed(%d): %s\n%s", e.Code, strings.Join(e.Argv, " "), e.Output)
}

// StageError wraps the failure of one pipeline stage.
type StageError struct {
	Pipeline string
	Stage    string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Pipeline, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
