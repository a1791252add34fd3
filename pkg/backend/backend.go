// Package backend provides the pluggable spatial-audio computation strategies
// and the registry that selects which one is active.
//
// Every strategy implements the Backend interface, so callers can switch
// between the capability-free Null fallback, the 3D engine (OpenAL-style
// source parameters) and the platform spatial renderer without changing
// their code:
//
//	reg := backend.NewRegistry()
//	reg.Register(backend.NewEngine3D())
//	if err := reg.SetActive(backend.KindEngine3D); err != nil {
//	    // the registry fell back to Null or kept the previous backend
//	}
//	result := reg.Process(profile, pose)
//
// Processing never panics or returns an error to the caller: failures are
// reported through Result.Success and Result.Message.
package backend

import (
	"fmt"
	"maps"
	"strings"

	"github.com/teslashibe/go-spatialaudio/pkg/acoustic"
)

// Kind identifies a backend variant. The set is closed; the registry keys
// backends by Kind rather than by runtime type.
type Kind string

const (
	// KindNull is the always-available fallback.
	KindNull Kind = "none"

	// KindEngine3D is the 3D engine backend producing OpenAL-style source parameters.
	KindEngine3D Kind = "openal"

	// KindRenderer is the platform spatial renderer (Windows Sonic style objects).
	KindRenderer Kind = "windows_spatial"
)

// Kinds lists every known variant in a stable order.
func Kinds() []Kind {
	return []Kind{KindNull, KindEngine3D, KindRenderer}
}

// ParseKind maps a case-insensitive name to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindNull, KindEngine3D, KindRenderer:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// Backend defines the spatial computation contract.
// All implementations must satisfy this interface for seamless switching.
type Backend interface {
	// Kind returns the variant identity used for registry routing.
	Kind() Kind

	// Initialize acquires backend resources. It returns false and leaves the
	// backend not ready on failure; it never panics.
	Initialize() bool

	// Shutdown releases resources. Safe to call when never initialized.
	Shutdown()

	// Process computes spatial parameters for one source and listener.
	// Calling it before a successful Initialize yields a failed Result.
	Process(profile acoustic.Profile, pose acoustic.ListenerPose) Result

	// Capabilities declares supported features. Informational only.
	Capabilities() Capabilities

	// Info returns identity metadata, with live diagnostics when ready.
	Info() Info

	// IsAvailable is a best-effort probe of whether this variant can run here.
	IsAvailable() bool
}

// Capabilities maps a feature name to whether the backend supports it.
type Capabilities map[string]bool

// Capability names shared by the variants.
const (
	CapSpatialPositioning  = "spatial_positioning"
	CapHRTF                = "hrtf_processing"
	CapReverb              = "reverb"
	CapOcclusion           = "occlusion"
	CapRealTime            = "real_time_processing"
	CapDistanceAttenuation = "distance_attenuation"
	CapDoppler             = "doppler_effect"
	CapDirectionalSources  = "directional_sources"
	CapElevation           = "elevation_support"
	CapDolbyAtmos          = "dolby_atmos"
	CapWindowsSonic        = "windows_sonic"
)

// Info is identity metadata: name, type, version, description and
// optional runtime diagnostics.
type Info map[string]string

// Info keys present on every backend.
const (
	InfoName        = "name"
	InfoType        = "type"
	InfoVersion     = "version"
	InfoDescription = "description"
)

// Identity returns only the four identity fields.
func (i Info) Identity() Info {
	return Info{
		InfoName:        i[InfoName],
		InfoType:        i[InfoType],
		InfoVersion:     i[InfoVersion],
		InfoDescription: i[InfoDescription],
	}
}

// Parameters is the backend-specific computed block.
type Parameters map[string]any

// Result is the outcome of one Process call.
// Parameters is always nil when Success is false.
type Result struct {
	Success     bool       `json:"success"`
	Message     string     `json:"message"`
	Parameters  Parameters `json:"processed_audio,omitempty"`
	BackendInfo Info       `json:"backend_info"`
}

// Float reads a numeric parameter, reporting whether it was present.
func (r Result) Float(key string) (float64, bool) {
	v, ok := r.Parameters[key].(float64)
	return v, ok
}

func succeeded(message string, params Parameters, info Info) Result {
	return Result{Success: true, Message: message, Parameters: params, BackendInfo: info}
}

func failed(message string, info Info) Result {
	return Result{Success: false, Message: message, BackendInfo: info}
}

func notReady(name string, info Info) Result {
	return failed(fmt.Sprintf("%s backend not initialized", name), info)
}

// processFunc assembles parameters and a success message.
type processFunc func() (Parameters, string, error)

// safeProcess runs fn and converts errors, panics and non-finite
// parameters into a failed Result.
func safeProcess(name string, info func() Info, fn processFunc) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failed(fmt.Sprintf("%s processing error: %v", name, r), info())
		}
	}()

	params, msg, err := fn()
	if err == nil {
		err = checkFinite(params)
	}
	if err != nil {
		return failed(fmt.Sprintf("%s processing error: %v", name, err), info())
	}
	return succeeded(msg, params, info())
}

// safeInit runs an initializer, treating a panic as failure.
func safeInit(fn func() bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return fn()
}

// safeShutdown runs a shutdown hook, swallowing panics.
func safeShutdown(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

// probeAvailable is the default availability probe: it attempts
// Initialize and reports the result, treating a panic as unavailable.
func probeAvailable(b Backend) bool {
	return safeInit(b.Initialize)
}

func cloneCaps(c Capabilities) Capabilities {
	return maps.Clone(c)
}
