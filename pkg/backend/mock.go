package backend

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-spatialaudio/pkg/acoustic"
)

// Mock implements Backend for testing.
// All methods can be customized via function fields.
type Mock struct {
	// MockKind is the variant identity the mock registers under.
	MockKind Kind

	// InitializeFunc is called when Initialize is invoked.
	// If nil, initialization succeeds.
	InitializeFunc func() bool

	// ShutdownFunc is called when Shutdown is invoked.
	ShutdownFunc func()

	// ProcessFunc is called when a ready mock processes a request.
	// If nil, returns a successful result echoing the profile name.
	ProcessFunc func(profile acoustic.Profile, pose acoustic.ListenerPose) Result

	// AvailableFunc is called when IsAvailable is invoked.
	// If nil, the mock is available unless InitDecidesAvailability is set.
	AvailableFunc func() bool

	// InitDecidesAvailability decides availability by attempting Initialize
	// when AvailableFunc is nil.
	InitDecidesAvailability bool

	// Caps and Meta are returned by Capabilities and Info.
	Caps Capabilities
	Meta Info

	ready atomic.Bool

	// Tracking
	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Time   time.Time
}

// NewMock creates a mock backend of the given kind with sensible defaults.
func NewMock(kind Kind) *Mock {
	return &Mock{
		MockKind: kind,
		Caps:     Capabilities{CapSpatialPositioning: true},
		Meta: Info{
			InfoName:        "Mock " + string(kind),
			InfoType:        string(kind),
			InfoVersion:     "0.0.0",
			InfoDescription: "Test double",
		},
	}
}

// Kind implements Backend.
func (m *Mock) Kind() Kind { return m.MockKind }

// Initialize calls InitializeFunc and records the call.
func (m *Mock) Initialize() bool {
	m.recordCall("Initialize")
	ok := true
	if m.InitializeFunc != nil {
		ok = m.InitializeFunc()
	}
	m.ready.Store(ok)
	return ok
}

// Shutdown calls ShutdownFunc and records the call.
func (m *Mock) Shutdown() {
	m.recordCall("Shutdown")
	m.ready.Store(false)
	if m.ShutdownFunc != nil {
		m.ShutdownFunc()
	}
}

// Ready reports whether the last Initialize succeeded.
func (m *Mock) Ready() bool {
	return m.ready.Load()
}

// Process calls ProcessFunc and records the call.
func (m *Mock) Process(profile acoustic.Profile, pose acoustic.ListenerPose) Result {
	m.recordCall("Process")
	if !m.Ready() {
		return notReady("Mock", m.Info())
	}
	if m.ProcessFunc != nil {
		return m.ProcessFunc(profile, pose)
	}
	return succeeded("mock processed", Parameters{"name": profile.Name}, m.Info())
}

// IsAvailable calls AvailableFunc and records the call.
func (m *Mock) IsAvailable() bool {
	m.recordCall("IsAvailable")
	if m.AvailableFunc != nil {
		return m.AvailableFunc()
	}
	if m.InitDecidesAvailability {
		return probeAvailable(m)
	}
	return true
}

// Capabilities implements Backend.
func (m *Mock) Capabilities() Capabilities {
	return cloneCaps(m.Caps)
}

// Info implements Backend.
func (m *Mock) Info() Info {
	info := make(Info, len(m.Meta))
	for k, v := range m.Meta {
		info[k] = v
	}
	return info
}

// recordCall adds a call to the tracking list.
func (m *Mock) recordCall(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method: method,
		Time:   time.Now(),
	})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Unavailable returns a mock whose availability probe fails.
func Unavailable(kind Kind) *Mock {
	m := NewMock(kind)
	m.AvailableFunc = func() bool { return false }
	return m
}

// FailingInit returns a mock that is available but fails to initialize.
func FailingInit(kind Kind) *Mock {
	m := NewMock(kind)
	m.InitializeFunc = func() bool { return false }
	return m
}

// Verify Mock implements Backend at compile time.
var _ Backend = (*Mock)(nil)
