package flow

import (
	"context"
	"fmt"
	"maps"

	"github.com/rs/zerolog"

	"omvsetup/constants"
	"omvsetup/logger"
	"omvsetup/metrics"
	"omvsetup/omv"
)

// SetupFlow registers a new appliance: it collects connection parameters,
// rejects names already in use, probes the appliance and persists the record.
type SetupFlow struct {
	registry  Registry
	connector ConnectorFactory
	offload   Offloader
	log       zerolog.Logger

	// draft holds the last submitted values, used to refill the form after errors.
	draft map[string]interface{}
}

// SetupOption customizes a SetupFlow.
type SetupOption func(*SetupFlow)

// WithLogger replaces the global logger.
func WithLogger(l zerolog.Logger) SetupOption {
	return func(f *SetupFlow) {
		f.log = l
	}
}

// NewSetupFlow creates a setup flow bound to the given collaborators.
func NewSetupFlow(registry Registry, connector ConnectorFactory, offload Offloader, opts ...SetupOption) *SetupFlow {
	f := &SetupFlow{
		registry:  registry,
		connector: connector,
		offload:   offload,
		log:       *logger.Get(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *SetupFlow) Kind() string        { return "setup" }
func (f *SetupFlow) InitialStep() string { return constants.StepUser }

// Step dispatches to the named step.
func (f *SetupFlow) Step(ctx context.Context, stepID string, input map[string]interface{}) (*Result, error) {
	switch stepID {
	case constants.StepUser:
		return f.StepUser(ctx, input)
	case constants.StepImport:
		return f.StepImport(ctx, input)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownStep, stepID)
}

// Draft returns a copy of the last submitted values.
func (f *SetupFlow) Draft() map[string]interface{} {
	return maps.Clone(f.draft)
}

// StepImport re-runs a previously failed setup. It is handled exactly like StepUser.
func (f *SetupFlow) StepImport(ctx context.Context, input map[string]interface{}) (*Result, error) {
	return f.StepUser(ctx, input)
}

// StepUser shows the setup form, or validates a submission and creates the entry.
func (f *SetupFlow) StepUser(ctx context.Context, input map[string]interface{}) (*Result, error) {
	if input == nil {
		metrics.ObserveFlowStep(f.Kind(), constants.StepUser, "form")
		return showForm(setupForm(defaultSetupValues(), map[string]string{})), nil
	}

	values, err := setupForm(defaultSetupValues(), nil).Coerce(input)
	if err != nil {
		return nil, err
	}
	rec, err := RecordFromMap(values)
	if err != nil {
		return nil, err
	}
	f.draft = maps.Clone(values)

	errs := map[string]string{}

	names, err := f.registry.ListDisplayNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list configured instances: %w", err)
	}
	if _, exists := names[rec.DisplayName]; exists {
		errs[constants.ConfName] = constants.ErrNameExists
	}

	ok, code, err := f.testConnection(ctx, rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		f.log.Error().
			Str("host", rec.Host).
			Str("error", code).
			Msgf("OpenMediaVault %s connect error", code)
		errs[constants.ConfHost] = code
	}

	if len(errs) > 0 {
		metrics.ObserveFlowStep(f.Kind(), constants.StepUser, "errors")
		return showForm(setupForm(values, errs)), nil
	}

	data := rec.ToMap()
	entry, err := f.registry.Create(ctx, rec.DisplayName, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create configuration entry: %w", err)
	}

	metrics.ObserveFlowStep(f.Kind(), constants.StepUser, string(ResultCreateEntry))
	return &Result{
		Type:    ResultCreateEntry,
		Title:   rec.DisplayName,
		Data:    data,
		EntryID: entry.ID,
	}, nil
}

// testConnection builds the connector and runs one connection attempt, both offloaded.
func (f *SetupFlow) testConnection(ctx context.Context, rec Record) (bool, string, error) {
	var conn Connector
	if err := f.offload.Run(ctx, func() error {
		c, err := f.connector(rec.OMVConfig())
		if err != nil {
			return err
		}
		conn = c
		return nil
	}); err != nil {
		return false, "", fmt.Errorf("failed to create connectivity client: %w", err)
	}

	var ok bool
	if err := f.offload.Run(ctx, func() error {
		ok = conn.Connect(ctx)
		return nil
	}); err != nil {
		return false, "", fmt.Errorf("connectivity check aborted: %w", err)
	}
	if ok {
		return true, "", nil
	}

	code := conn.ErrorCode()
	if code == "" {
		code = omv.ErrCannotConnect
	}
	return false, code, nil
}

func defaultSetupValues() map[string]interface{} {
	return map[string]interface{}{
		constants.ConfName:      constants.DefaultDeviceName,
		constants.ConfHost:      constants.DefaultHost,
		constants.ConfUsername:  constants.DefaultUsername,
		constants.ConfPassword:  constants.DefaultUsername,
		constants.ConfSSL:       constants.DefaultSSL,
		constants.ConfVerifySSL: constants.DefaultSSLVerify,
	}
}

// setupForm declares the setup fields, prefilled from values.
func setupForm(values map[string]interface{}, errs map[string]string) *Form {
	return &Form{
		StepID: constants.StepUser,
		Fields: []Field{
			{Name: constants.ConfName, Type: FieldString, Required: true, Default: values[constants.ConfName]},
			{Name: constants.ConfHost, Type: FieldString, Required: true, Default: values[constants.ConfHost]},
			{Name: constants.ConfUsername, Type: FieldString, Required: true, Default: values[constants.ConfUsername]},
			{Name: constants.ConfPassword, Type: FieldString, Required: true, Default: values[constants.ConfPassword]},
			{Name: constants.ConfSSL, Type: FieldBoolean, Default: values[constants.ConfSSL]},
			{Name: constants.ConfVerifySSL, Type: FieldBoolean, Default: values[constants.ConfVerifySSL]},
		},
		Errors: errs,
	}
}
