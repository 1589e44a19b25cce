// Package flow implements the setup and options wizards for OpenMediaVault
// configuration entries.
//
// Every step method takes the submitted input, or nil when the form should
// only be displayed, and returns either a form to render or a terminal result.
package flow

import (
	"context"
	"errors"
	"time"

	"omvsetup/omv"
	"omvsetup/state"
)

// ErrUnknownStep is returned when a handler is asked for a step it does not have.
var ErrUnknownStep = errors.New("unknown flow step")

// Handler is a step-driven flow.
type Handler interface {
	// Kind names the flow, "setup" or "options".
	Kind() string
	// InitialStep is the step run when the flow starts.
	InitialStep() string
	// Step runs stepID with input. A nil input only renders the step form.
	Step(ctx context.Context, stepID string, input map[string]interface{}) (*Result, error)
}

// Registry is the part of the entry store the setup flow needs.
type Registry interface {
	ListDisplayNames(ctx context.Context) (map[string]struct{}, error)
	Create(ctx context.Context, title string, data map[string]interface{}) (state.Entry, error)
}

// Connector attempts one connection to an appliance.
type Connector interface {
	Connect(ctx context.Context) bool
	// ErrorCode describes the last failed Connect.
	ErrorCode() string
}

// ConnectorFactory builds a Connector for the given connection parameters.
type ConnectorFactory func(cfg omv.Config) (Connector, error)

// Offloader runs a blocking call away from the caller and waits for it.
type Offloader interface {
	Run(ctx context.Context, fn func() error) error
}

// NewOMVConnectorFactory returns a factory producing omv clients with the given probe timeout.
func NewOMVConnectorFactory(timeout time.Duration) ConnectorFactory {
	return func(cfg omv.Config) (Connector, error) {
		if cfg.Timeout <= 0 {
			cfg.Timeout = timeout
		}
		return omv.NewClient(cfg)
	}
}
