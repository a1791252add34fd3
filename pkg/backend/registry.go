package backend

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-spatialaudio/pkg/acoustic"
)

// Switch outcomes reported to the Recorder.
const (
	SwitchOK            = "ok"
	SwitchNotRegistered = "not_registered"
	SwitchUnavailable   = "unavailable"
	SwitchInitFailed    = "init_failed"
)

// Recorder receives registry observations. pkg/metrics provides the
// Prometheus implementation.
type Recorder interface {
	RecordProcess(kind Kind, success bool, elapsed time.Duration)
	RecordSwitch(kind Kind, result string)
	SetActive(kind Kind)
}

type nopRecorder struct{}

func (nopRecorder) RecordProcess(Kind, bool, time.Duration) {}
func (nopRecorder) RecordSwitch(Kind, string)               {}
func (nopRecorder) SetActive(Kind)                          {}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger.With("component", "backend.registry")
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(rec Recorder) RegistryOption {
	return func(r *Registry) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// Registry owns the registered backends and the single active one.
// There is always an active backend: a private Null fallback is installed
// on construction and whenever a switch fails to initialize.
type Registry struct {
	mu       sync.RWMutex
	backends map[Kind]Backend
	order    []Kind
	active   Backend

	logger   *slog.Logger
	recorder Recorder
}

// NewRegistry creates a registry with an initialized Null backend active.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		backends: make(map[Kind]Backend),
		logger:   slog.Default().With("component", "backend.registry"),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.active = r.freshNull()
	r.recorder.SetActive(KindNull)
	return r
}

func (r *Registry) freshNull() Backend {
	n := NewNull(WithLogger(r.logger))
	n.Initialize()
	return n
}

// Register adds or replaces the backend for its kind. It does not initialize
// it. A replaced kind keeps its original position in the listing order.
func (r *Registry) Register(b Backend) error {
	if b == nil {
		return ErrNilBackend
	}
	kind := b.Kind()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[kind]; !exists {
		r.order = append(r.order, kind)
	}
	r.backends[kind] = b
	r.logger.Debug("backend registered", "backend", kind)
	return nil
}

// Registered returns the registered kinds in registration order.
func (r *Registry) Registered() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, len(r.order))
	copy(out, r.order)
	return out
}

// SetActive switches the active backend.
//
// KindNull always succeeds. An unregistered kind returns ErrNotRegistered and
// an unavailable one ErrUnavailable; in both cases the active backend is
// unchanged. Otherwise the current backend is shut down and the requested one
// initialized; if that fails a fresh Null is installed and ErrInitFailed is
// returned.
func (r *Registry) SetActive(kind Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if kind == KindNull {
		r.replaceActive(r.freshNull())
		r.recorder.RecordSwitch(kind, SwitchOK)
		r.logger.Info("switched backend", "backend", kind)
		return nil
	}

	b, ok := r.backends[kind]
	if !ok {
		r.recorder.RecordSwitch(kind, SwitchNotRegistered)
		r.logger.Warn("backend not registered", "backend", kind)
		return fmt.Errorf("%w: %s", ErrNotRegistered, kind)
	}

	if !safeAvailable(b) {
		r.recorder.RecordSwitch(kind, SwitchUnavailable)
		r.logger.Warn("backend not available", "backend", kind)
		return WrapError(kind, ErrUnavailable)
	}

	r.shutdownActive()
	if !safeInit(b.Initialize) {
		r.active = r.freshNull()
		r.recorder.RecordSwitch(kind, SwitchInitFailed)
		r.recorder.SetActive(KindNull)
		r.logger.Error("backend failed to initialize, using null backend", "backend", kind)
		return WrapError(kind, ErrInitFailed)
	}

	r.active = b
	r.recorder.RecordSwitch(kind, SwitchOK)
	r.recorder.SetActive(kind)
	r.logger.Info("switched backend", "backend", kind)
	return nil
}

// replaceActive shuts down the current backend and installs next.
// Caller must hold the write lock.
func (r *Registry) replaceActive(next Backend) {
	r.shutdownActive()
	r.active = next
	r.recorder.SetActive(next.Kind())
}

func (r *Registry) shutdownActive() {
	if r.active != nil {
		safeShutdown(r.active.Shutdown)
	}
}

func safeAvailable(b Backend) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
		}
	}()
	return b.IsAvailable()
}

// Active returns the active backend. Never nil.
func (r *Registry) Active() Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// ActiveKind returns the kind of the active backend.
func (r *Registry) ActiveKind() Kind {
	return r.Active().Kind()
}

// Process runs the active backend under the read lock, so a concurrent
// switch waits for in-flight computations to finish.
func (r *Registry) Process(profile acoustic.Profile, pose acoustic.ListenerPose) Result {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b := r.active
	start := time.Now()
	res := processSafely(b, profile, pose)
	r.recorder.RecordProcess(b.Kind(), res.Success, time.Since(start))
	return res
}

func processSafely(b Backend, profile acoustic.Profile, pose acoustic.ListenerPose) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = failed(fmt.Sprintf("%s processing error: %v", b.Kind(), rec), Info{InfoType: string(b.Kind())})
		}
	}()
	return b.Process(profile, pose)
}

// ListAvailable returns Null's info first, then the info of every available
// registered backend in registration order.
func (r *Registry) ListAvailable() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := []Info{NewNull().Info()}
	for _, kind := range r.order {
		if kind == KindNull {
			continue
		}
		b := r.backends[kind]
		if safeAvailable(b) {
			infos = append(infos, b.Info())
		}
	}
	return infos
}

// CapabilitiesOfActive returns a copy of the active backend's capabilities.
func (r *Registry) CapabilitiesOfActive() Capabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneCaps(r.active.Capabilities())
}

// Close shuts down the active backend and reinstalls Null.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaceActive(r.freshNull())
}
