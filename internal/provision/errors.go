package provision

import (
	"errors"
	"fmt"
)

// Workflow steps reported in StepError. They tell the caller whether funds
// were put at risk: a model failure happens before any wallet exists, an
// exchange failure before the trader exists.
const (
	StepModel    = "model"
	StepExchange = "exchange"
	StepCreate   = "create"
)

// ErrUnknownVenue marks a creation request naming a venue the registry does
// not know.
var ErrUnknownVenue = errors.New("unknown venue")

// ErrExchangeNotConfigured marks a non-wallet venue with no matching exchange
// configuration upstream.
var ErrExchangeNotConfigured = errors.New("exchange not configured")

// MissingConfigError reports a deployment secret required for provisioning
// that the server was not started with. It is an operator problem, not an end
// user one, and maps to a 4xx.
type MissingConfigError struct {
	Name string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("missing server configuration: %s", e.Name)
}

// StepError wraps a workflow failure with the step that produced it.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("trader provisioning failed at %s step: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
