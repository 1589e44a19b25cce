package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"omvsetup/constants"
	"omvsetup/logger"
	"omvsetup/state"
)

// ErrUnknownFlow is returned for flow IDs that are not in progress.
var ErrUnknownFlow = errors.New("unknown flow")

// Manager tracks flows in progress and routes step submissions to them.
// Steps of a single flow are serialized; different flows run independently.
type Manager struct {
	store     state.EntryStore
	connector ConnectorFactory
	offload   Offloader
	log       zerolog.Logger

	mu    sync.Mutex
	flows map[string]*activeFlow
}

type activeFlow struct {
	id string

	// mu serializes steps.
	mu      sync.Mutex
	handler Handler
	form    *Form
	done    bool

	// commitMu orders abort against writes to the store. It is never held
	// across a connectivity check, so Abort does not wait for one.
	commitMu  sync.Mutex
	aborted   bool
	committed bool
}

// commit runs a store write unless the flow has been aborted.
func (af *activeFlow) commit(fn func() error) error {
	af.commitMu.Lock()
	defer af.commitMu.Unlock()
	if af.aborted {
		return fmt.Errorf("%w: %s was aborted", ErrUnknownFlow, af.id)
	}
	if err := fn(); err != nil {
		return err
	}
	af.committed = true
	return nil
}

// abort marks the flow aborted. It fails once a store write went through.
func (af *activeFlow) abort() bool {
	af.commitMu.Lock()
	defer af.commitMu.Unlock()
	if af.committed {
		return false
	}
	af.aborted = true
	return true
}

func (af *activeFlow) isAborted() bool {
	af.commitMu.Lock()
	defer af.commitMu.Unlock()
	return af.aborted
}

// flowRegistry routes a setup flow's Create through its abort guard.
type flowRegistry struct {
	state.EntryStore
	af *activeFlow
}

func (r flowRegistry) Create(ctx context.Context, title string, data map[string]interface{}) (state.Entry, error) {
	var e state.Entry
	err := r.af.commit(func() error {
		var err error
		e, err = r.EntryStore.Create(ctx, title, data)
		return err
	})
	return e, err
}

// NewManager creates a manager persisting into store.
func NewManager(store state.EntryStore, connector ConnectorFactory, offload Offloader, log zerolog.Logger) *Manager {
	return &Manager{
		store:     store,
		connector: connector,
		offload:   offload,
		log:       log,
		flows:     make(map[string]*activeFlow),
	}
}

// NewDefaultManager uses the global logger.
func NewDefaultManager(store state.EntryStore, connector ConnectorFactory, offload Offloader) *Manager {
	return NewManager(store, connector, offload, *logger.Get())
}

// InitSetup starts a setup flow. source is "user" or "import"; input may be nil.
func (m *Manager) InitSetup(ctx context.Context, source string, input map[string]interface{}) (*Result, error) {
	if source == "" {
		source = constants.StepUser
	}
	if source != constants.StepUser && source != constants.StepImport {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStep, source)
	}
	af := newActiveFlow()
	af.handler = NewSetupFlow(flowRegistry{EntryStore: m.store, af: af}, m.connector, m.offload, WithLogger(m.log))
	return m.start(ctx, af, source, input)
}

// InitOptions starts an options flow for an existing entry.
func (m *Manager) InitOptions(ctx context.Context, entryID string) (*Result, error) {
	entry, err := m.store.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	af := newActiveFlow()
	af.handler = NewOptionsFlow(entry)
	return m.start(ctx, af, constants.StepInit, nil)
}

func newActiveFlow() *activeFlow {
	return &activeFlow{id: uuid.NewString()}
}

func (m *Manager) start(ctx context.Context, af *activeFlow, stepID string, input map[string]interface{}) (*Result, error) {
	af.mu.Lock()
	defer af.mu.Unlock()

	m.log.Debug().Str("flow_id", af.id).Str("handler", af.handler.Kind()).Str("step", stepID).Msg("Flow started")

	res, err := af.handler.Step(ctx, stepID, input)
	if err != nil {
		return nil, err
	}
	return m.finish(ctx, af.id, af, res)
}

// Configure submits input to the step currently shown by flowID.
func (m *Manager) Configure(ctx context.Context, flowID string, input map[string]interface{}) (*Result, error) {
	af, err := m.lookup(flowID)
	if err != nil {
		return nil, err
	}

	af.mu.Lock()
	defer af.mu.Unlock()

	if af.done || af.form == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlow, flowID)
	}
	if input == nil {
		input = map[string]interface{}{}
	}
	values, err := af.form.Coerce(input)
	if err != nil {
		return nil, err
	}

	res, err := af.handler.Step(ctx, af.form.StepID, values)
	if err != nil {
		return nil, err
	}
	return m.finish(ctx, flowID, af, res)
}

// Current re-renders the form a flow is waiting on.
func (m *Manager) Current(flowID string) (*Result, error) {
	af, err := m.lookup(flowID)
	if err != nil {
		return nil, err
	}
	af.mu.Lock()
	defer af.mu.Unlock()
	if af.done || af.form == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlow, flowID)
	}
	return &Result{Type: ResultForm, FlowID: flowID, Handler: af.handler.Kind(), Form: af.form}, nil
}

// Abort drops a flow. A step still running for it keeps running but cannot
// persist anything or put the flow back.
func (m *Manager) Abort(flowID string) error {
	af, err := m.lookup(flowID)
	if err != nil {
		return err
	}
	if !af.abort() {
		return fmt.Errorf("%w: %s already finished", ErrUnknownFlow, flowID)
	}

	m.mu.Lock()
	delete(m.flows, flowID)
	m.mu.Unlock()

	m.log.Debug().Str("flow_id", flowID).Msg("Flow aborted")
	return nil
}

// InProgress returns the number of flows waiting for input.
func (m *Manager) InProgress() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.flows)
}

func (m *Manager) lookup(flowID string) (*activeFlow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	af, ok := m.flows[flowID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlow, flowID)
	}
	return af, nil
}

// finish records the result of a step. Callers hold af.mu.
func (m *Manager) finish(ctx context.Context, flowID string, af *activeFlow, res *Result) (*Result, error) {
	res.FlowID = flowID
	res.Handler = af.handler.Kind()

	if !res.Terminal() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if af.isAborted() {
			return nil, fmt.Errorf("%w: %s was aborted", ErrUnknownFlow, flowID)
		}
		af.form = res.Form
		m.flows[flowID] = af
		return res, nil
	}

	if opts, ok := af.handler.(*OptionsFlow); ok {
		err := af.commit(func() error {
			_, err := m.store.UpdateOptions(ctx, opts.EntryID(), res.Data)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to save options: %w", err)
		}
	}

	af.done = true
	m.mu.Lock()
	delete(m.flows, flowID)
	m.mu.Unlock()

	m.log.Info().
		Str("flow_id", flowID).
		Str("handler", res.Handler).
		Str("title", res.Title).
		Msg("Flow finished")
	return res, nil
}
