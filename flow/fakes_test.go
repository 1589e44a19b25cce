package flow

import (
	"context"
	"sync"

	"omvsetup/constants"
	"omvsetup/omv"
	"omvsetup/state"
)

// fakeRegistry is an in-memory Registry recording every call.
type fakeRegistry struct {
	mu      sync.Mutex
	names   map[string]struct{}
	created []state.Entry
	calls   *[]string

	listErr   error
	createErr error
}

func newFakeRegistry(calls *[]string, names ...string) *fakeRegistry {
	r := &fakeRegistry{names: map[string]struct{}{}, calls: calls}
	for _, n := range names {
		r.names[n] = struct{}{}
	}
	return r
}

func (r *fakeRegistry) record(call string) {
	if r.calls != nil {
		*r.calls = append(*r.calls, call)
	}
}

func (r *fakeRegistry) ListDisplayNames(ctx context.Context) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("list")
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make(map[string]struct{}, len(r.names))
	for n := range r.names {
		out[n] = struct{}{}
	}
	return out, nil
}

func (r *fakeRegistry) Create(ctx context.Context, title string, data map[string]interface{}) (state.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("create")
	if r.createErr != nil {
		return state.Entry{}, r.createErr
	}
	e := state.Entry{ID: "entry-" + title, Title: title, Data: data}
	r.created = append(r.created, e)
	r.names[data[constants.ConfName].(string)] = struct{}{}
	return e, nil
}

// fakeConnector answers Connect with a fixed outcome.
type fakeConnector struct {
	ok       bool
	code     string
	calls    *[]string
	connects *int
	cfg      omv.Config
}

func (c *fakeConnector) Connect(ctx context.Context) bool {
	*c.connects++
	if c.calls != nil {
		*c.calls = append(*c.calls, "connect")
	}
	return c.ok
}

func (c *fakeConnector) ErrorCode() string {
	if c.ok {
		return ""
	}
	return c.code
}

// connectorFactory returns a factory handing out fakeConnectors and keeps them for inspection.
type connectorFactory struct {
	ok       bool
	code     string
	err      error
	calls    *[]string
	created  []*fakeConnector
	connects int
}

func (f *connectorFactory) build(cfg omv.Config) (Connector, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := &fakeConnector{ok: f.ok, code: f.code, calls: f.calls, connects: &f.connects, cfg: cfg}
	f.created = append(f.created, c)
	return c, nil
}

// inlineOffload runs jobs on the calling goroutine and counts them.
type inlineOffload struct {
	runs int
}

func (o *inlineOffload) Run(ctx context.Context, fn func() error) error {
	o.runs++
	return fn()
}

func validInput(name string) map[string]interface{} {
	return map[string]interface{}{
		constants.ConfName:      name,
		constants.ConfHost:      "10.0.0.5",
		constants.ConfUsername:  "admin",
		constants.ConfPassword:  "openmediavault",
		constants.ConfSSL:       false,
		constants.ConfVerifySSL: true,
	}
}

// gatedOffload blocks every job until release is closed and signals entered on the first one.
type gatedOffload struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedOffload() *gatedOffload {
	return &gatedOffload{entered: make(chan struct{}), release: make(chan struct{})}
}

func (o *gatedOffload) Run(ctx context.Context, fn func() error) error {
	o.once.Do(func() { close(o.entered) })
	<-o.release
	return fn()
}
