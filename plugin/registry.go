package plugin

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/plugkit/diag"
	"github.com/zero-day-ai/plugkit/settings"
)

// noConflictMember is the static member that restores an identifier's
// previous implementation.
const noConflictMember = "noConflict"

// Store is the registration surface feature code depends on. *Registry
// implements it; tests may substitute their own.
type Store interface {
	Create(ctx context.Context, id string, impl *Implementation, opts ...RegisterOption) (*Implementation, error)
	Extend(ctx context.Context, id string, cb ExtendFunc, opts ...RegisterOption) (*Implementation, error)
	Replace(ctx context.Context, id string, cb ExtendFunc, opts ...RegisterOption) (*Implementation, error)
	Get(id string) *Implementation
}

// Option configures a Registry.
type Option func(*Registry)

// WithSettings sets the settings handed to every extension callback.
func WithSettings(s *settings.Settings) Option {
	return func(r *Registry) {
		r.settings = s
	}
}

// WithDiagnostics sets the channel failures are reported on.
// If not provided, diag.Default() is used.
func WithDiagnostics(ch *diag.Channel) Option {
	return func(r *Registry) {
		r.diag = ch
	}
}

// WithLogger sets the logger for registration events.
// If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithTracer records a span per registry operation.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Registry) {
		r.tracer = tracer
	}
}

// WithMeter records the plugkit.registry.operations counter.
func WithMeter(meter metric.Meter) Option {
	return func(r *Registry) {
		r.meter = meter
	}
}

// RegisterOption configures a single Create, Extend or Replace call.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	noConflict bool
	source     string
}

// WithNoConflict controls whether the call installs the noConflict static
// member that restores the previous implementation. It defaults to true and
// never overwrites a noConflict member the implementation already has.
func WithNoConflict(allow bool) RegisterOption {
	return func(c *registerConfig) {
		c.noConflict = allow
	}
}

// WithSource names the code unit applying the layer, for Layers and Describe.
func WithSource(source string) RegisterOption {
	return func(c *registerConfig) {
		c.source = source
	}
}

// entry is a registry slot.
type entry struct {
	impl   *Implementation
	layers []Layer

	// held records every implementation that has occupied the slot.
	held map[*Implementation]bool
}

func (e *entry) hold(impl *Implementation) {
	if e.held == nil {
		e.held = make(map[*Implementation]bool)
	}
	e.held[impl] = true
}

// Registry maps plugin identifiers to their active implementation.
//
// Create succeeds only on an empty slot; Extend and Replace only on an
// occupied one. Failures are reported on the diagnostics channel and
// returned as *diag.Error with a nil implementation; they never panic.
//
// Registry is safe for concurrent use. Extension callbacks run without the
// registry lock held, so they may read the registry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry

	settings *settings.Settings
	diag     *diag.Channel
	logger   *slog.Logger
	tracer   trace.Tracer
	meter    metric.Meter
	tel      *telemetry
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{entries: make(map[string]*entry)}
	for _, opt := range opts {
		opt(r)
	}
	if r.settings == nil {
		r.settings = settings.Empty()
	}
	if r.diag == nil {
		r.diag = diag.Default()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	tel, err := newTelemetry(r.tracer, r.meter)
	if err != nil {
		r.logger.Warn("failed to create registry instruments, telemetry disabled", "error", err)
		tel, _ = newTelemetry(nil, nil)
	}
	r.tel = tel
	return r
}

// Settings returns the settings handed to extension callbacks.
func (r *Registry) Settings() *settings.Settings {
	return r.settings
}

// Diagnostics returns the channel failures are reported on.
func (r *Registry) Diagnostics() *diag.Channel {
	return r.diag
}

// Create registers impl under id.
//
// It fails with diag.CodeInvalidIdentifier for an empty id,
// diag.CodeDuplicateIdentifier when id is taken (the installed
// implementation is left untouched), and diag.CodeInvalidImplementation
// when impl has no constructor.
func (r *Registry) Create(ctx context.Context, id string, impl *Implementation, opts ...RegisterOption) (*Implementation, error) {
	ctx, span := r.tel.start(ctx, "create", id)
	defer span.End()

	out, err := r.create(ctx, id, impl, newRegisterConfig(opts))
	r.tel.finish(ctx, span, "create", err)
	return out, err
}

func (r *Registry) create(ctx context.Context, id string, impl *Implementation, cfg registerConfig) (*Implementation, error) {
	if id == "" {
		return nil, r.fail(ctx, diag.Newf(id, "create", diag.CodeInvalidIdentifier, map[string]any{"@id": id}))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; exists {
		return nil, r.fail(ctx, diag.Newf(id, "create", diag.CodeDuplicateIdentifier, map[string]any{"@id": id}))
	}
	if impl == nil || impl.Constructor() == nil {
		return nil, r.fail(ctx, diag.Newf(id, "create", diag.CodeInvalidImplementation, map[string]any{
			"@id":     id,
			"@plugin": describeImplementation(impl),
		}))
	}

	impl.mu.Lock()
	impl.id = id
	impl.installOptionLocked()
	impl.mu.Unlock()

	if cfg.noConflict {
		r.installNoConflictLocked(id, impl, nil)
	}

	e := &entry{
		impl: impl,
		layers: []Layer{{
			Seq:    1,
			Kind:   LayerCreated,
			Source: cfg.source,
			Proto:  impl.Proto().Keys(),
			Static: impl.Static().Keys(),
			At:     time.Now(),
		}},
	}
	e.hold(impl)
	r.entries[id] = e

	r.logger.DebugContext(ctx, "plugin created", "plugin", id, "source", cfg.source)
	return impl, nil
}

// Extend merges the augmentation returned by cb into the implementation
// registered under id and returns that (mutated) implementation.
//
// cb receives the current implementation and the registry settings. The
// call fails with diag.CodeUnknownIdentifier when id is not registered (cb
// is not invoked), diag.CodeInvalidCallback when cb is nil, and
// diag.CodeInvalidExtensionResult when cb returns anything but an
// Augmentation.
func (r *Registry) Extend(ctx context.Context, id string, cb ExtendFunc, opts ...RegisterOption) (*Implementation, error) {
	ctx, span := r.tel.start(ctx, "extend", id)
	defer span.End()

	out, err := r.extend(ctx, id, cb, newRegisterConfig(opts))
	r.tel.finish(ctx, span, "extend", err)
	return out, err
}

func (r *Registry) extend(ctx context.Context, id string, cb ExtendFunc, cfg registerConfig) (*Implementation, error) {
	current, err := r.guardOccupied(ctx, "extend", id, cb)
	if err != nil {
		return nil, err
	}

	payload := cb(current, r.settings)
	aug, ok := augmentation(payload)
	if !ok {
		return nil, r.fail(ctx, diag.Newf(id, "extend", diag.CodeInvalidExtensionResult, map[string]any{
			"@id":  id,
			"@obj": describePayload(payload),
		}))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.guardUnchangedLocked(ctx, "extend", id, current)
	if err != nil {
		return nil, err
	}

	proto, static := current.merge(aug)
	e.layers = append(e.layers, Layer{
		Seq:    len(e.layers) + 1,
		Kind:   LayerExtended,
		Source: cfg.source,
		Proto:  proto,
		Static: static,
		At:     time.Now(),
	})

	r.logger.DebugContext(ctx, "plugin extended",
		"plugin", id,
		"source", cfg.source,
		"proto", proto,
		"static", static)
	return current, nil
}

// Replace swaps the implementation registered under id for the one
// returned by cb and returns it.
//
// The static members of the old implementation are carried forward: they
// seed the new implementation's static surface and the new
// implementation's own static members are merged over them, so its own
// values win. Prototype members are not carried. The new constructor
// shadows the old one, so Call.Super inside it reaches the replaced
// constructor. An implementation that held the slot before keeps its own
// constructor.
//
// The call fails like Extend, except that a result other than a
// Replacement with a constructor (or the current implementation itself)
// yields diag.CodeInvalidReplacement.
func (r *Registry) Replace(ctx context.Context, id string, cb ExtendFunc, opts ...RegisterOption) (*Implementation, error) {
	ctx, span := r.tel.start(ctx, "replace", id)
	defer span.End()

	out, err := r.replace(ctx, id, cb, newRegisterConfig(opts))
	r.tel.finish(ctx, span, "replace", err)
	return out, err
}

func (r *Registry) replace(ctx context.Context, id string, cb ExtendFunc, cfg registerConfig) (*Implementation, error) {
	current, err := r.guardOccupied(ctx, "replace", id, cb)
	if err != nil {
		return nil, err
	}

	payload := cb(current, r.settings)
	next, ok := replacement(payload)
	if !ok || next == current {
		return nil, r.fail(ctx, diag.Newf(id, "replace", diag.CodeInvalidReplacement, map[string]any{
			"@id":     id,
			"@plugin": describePayload(payload),
		}))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.guardUnchangedLocked(ctx, "replace", id, current)
	if err != nil {
		return nil, err
	}

	static := next.carryForward(current, noConflictMember)

	// An implementation returning to the slot already sits below the
	// current constructor, so chaining it again would run it twice.
	next.mu.Lock()
	next.id = id
	if next.ctor.prev == nil && !e.held[next] {
		next.ctor = &Method{fn: next.ctor.fn, prev: current.Constructor()}
	}
	next.mu.Unlock()

	if cfg.noConflict {
		r.installNoConflictLocked(id, next, current)
	}

	e.impl = next
	e.hold(next)
	e.layers = append(e.layers, Layer{
		Seq:    len(e.layers) + 1,
		Kind:   LayerReplaced,
		Source: cfg.source,
		Proto:  next.Proto().Keys(),
		Static: static,
		At:     time.Now(),
	})

	r.logger.DebugContext(ctx, "plugin replaced", "plugin", id, "source", cfg.source)
	return next, nil
}

// guardOccupied enforces the preconditions shared by Extend and Replace.
func (r *Registry) guardOccupied(ctx context.Context, op, id string, cb ExtendFunc) (*Implementation, error) {
	if id == "" {
		return nil, r.fail(ctx, diag.Newf(id, op, diag.CodeInvalidIdentifier, map[string]any{"@id": id}))
	}
	current := r.Get(id)
	if current == nil {
		return nil, r.fail(ctx, diag.Newf(id, op, diag.CodeUnknownIdentifier, map[string]any{"@id": id}))
	}
	if cb == nil {
		return nil, r.fail(ctx, diag.Newf(id, op, diag.CodeInvalidCallback, map[string]any{
			"@id":       id,
			"@callback": nil,
		}))
	}
	return current, nil
}

// guardUnchangedLocked verifies the slot still holds the implementation the
// callback saw. The caller holds r.mu.
func (r *Registry) guardUnchangedLocked(ctx context.Context, op, id string, seen *Implementation) (*entry, error) {
	e, ok := r.entries[id]
	if !ok || e.impl != seen {
		return nil, r.fail(ctx, diag.Newf(id, op, diag.CodeConflict, map[string]any{"@id": id}))
	}
	return e, nil
}

// installNoConflictLocked gives impl a noConflict static member that puts
// prev back under id (or empties the slot when prev is nil) and returns
// impl. An existing noConflict member is kept. The caller holds r.mu.
func (r *Registry) installNoConflictLocked(id string, impl, prev *Implementation) {
	impl.mu.Lock()
	defer impl.mu.Unlock()

	if impl.static.Has(noConflictMember) {
		return
	}
	impl.static.Set(noConflictMember, Fn(func(c *Call) (any, error) {
		r.restore(id, prev)
		return c.Receiver, nil
	}))
}

// restore puts prev back under id.
func (r *Registry) restore(id string, prev *Implementation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev == nil {
		delete(r.entries, id)
		r.logger.Debug("plugin slot restored to empty", "plugin", id)
		return
	}
	e, ok := r.entries[id]
	if !ok {
		e = &entry{}
		r.entries[id] = e
	}
	e.impl = prev
	e.hold(prev)
	r.logger.Debug("plugin slot restored", "plugin", id)
}

// NoConflict runs the noConflict member of the implementation registered
// under id and returns that implementation, which no longer occupies the
// slot. It returns nil when id is empty or has no noConflict member.
func (r *Registry) NoConflict(id string) *Implementation {
	impl := r.Get(id)
	if impl == nil {
		return nil
	}
	if _, err := impl.Call(noConflictMember); err != nil {
		return nil
	}
	return impl
}

// fail reports err on the diagnostics channel and returns it.
func (r *Registry) fail(ctx context.Context, err *diag.Error) error {
	return r.diag.Fatal(ctx, err)
}

// Get returns the active implementation for id, or nil.
func (r *Registry) Get(id string) *Implementation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.entries[id]; ok {
		return e.impl
	}
	return nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	return r.Get(id) != nil
}

// IDs returns the registered identifiers in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Layers returns the registration history of id, oldest first.
func (r *Registry) Layers(id string) []Layer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil
	}
	out := make([]Layer, len(e.layers))
	copy(out, e.layers)
	return out
}

// Reset empties the registry.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*entry)
}

func newRegisterConfig(opts []RegisterOption) registerConfig {
	cfg := registerConfig{noConflict: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func describeImplementation(impl *Implementation) any {
	if impl == nil {
		return nil
	}
	return "implementation without constructor"
}
