package flow

import (
	"context"
	"fmt"
	"maps"

	"omvsetup/constants"
	"omvsetup/metrics"
	"omvsetup/state"
)

// OptionsFlow adjusts the options of an existing entry. It has a single step
// and never fails: submitted values are merged as-is into the working copy.
type OptionsFlow struct {
	entryID string
	stored  map[string]interface{}
	options map[string]interface{}
}

// NewOptionsFlow binds a flow to entry and copies its current options.
func NewOptionsFlow(entry state.Entry) *OptionsFlow {
	stored := maps.Clone(entry.Options)
	if stored == nil {
		stored = map[string]interface{}{}
	}
	return &OptionsFlow{
		entryID: entry.ID,
		stored:  stored,
		options: maps.Clone(stored),
	}
}

func (f *OptionsFlow) Kind() string        { return "options" }
func (f *OptionsFlow) InitialStep() string { return constants.StepInit }

// EntryID is the entry the flow is bound to.
func (f *OptionsFlow) EntryID() string { return f.entryID }

// Step dispatches to the named step.
func (f *OptionsFlow) Step(ctx context.Context, stepID string, input map[string]interface{}) (*Result, error) {
	switch stepID {
	case constants.StepInit:
		return f.StepInit(ctx, input)
	case constants.StepBasicOptions:
		return f.StepBasicOptions(ctx, input)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownStep, stepID)
}

// StepInit forwards to the basic options step.
func (f *OptionsFlow) StepInit(ctx context.Context, input map[string]interface{}) (*Result, error) {
	return f.StepBasicOptions(ctx, input)
}

// StepBasicOptions shows the options form or merges a submission.
func (f *OptionsFlow) StepBasicOptions(_ context.Context, input map[string]interface{}) (*Result, error) {
	if input != nil {
		maps.Copy(f.options, input)
		metrics.ObserveFlowStep(f.Kind(), constants.StepBasicOptions, string(ResultCreateEntry))
		return &Result{
			Type:    ResultCreateEntry,
			Title:   "",
			Data:    maps.Clone(f.options),
			EntryID: f.entryID,
		}, nil
	}

	metrics.ObserveFlowStep(f.Kind(), constants.StepBasicOptions, "form")
	return showForm(f.optionsForm()), nil
}

func (f *OptionsFlow) optionsForm() *Form {
	return &Form{
		StepID:   constants.StepBasicOptions,
		LastStep: true,
		Fields: []Field{
			{Name: constants.ConfScanInterval, Type: FieldInteger, Default: f.storedOr(constants.ConfScanInterval, constants.DefaultScanInterval)},
			{Name: constants.ConfSmartDisable, Type: FieldBoolean, Default: f.storedOr(constants.ConfSmartDisable, constants.DefaultSmartDisable)},
		},
		Errors: map[string]string{},
	}
}

func (f *OptionsFlow) storedOr(key string, fallback interface{}) interface{} {
	if v, ok := f.stored[key]; ok {
		return v
	}
	return fallback
}
