package backend

import (
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-spatialaudio/pkg/acoustic"
	"github.com/teslashibe/go-spatialaudio/pkg/spatial"
)

// OpenAL source defaults reported in the native parameter block.
const (
	alReferenceDistance = 1.0
	alMaxDistance       = 100.0
	alVersion           = "1.1"
)

// Engine3D is the general-purpose 3D engine backend. It holds an open
// playback context while ready and produces OpenAL-style source parameters
// with a stereo pan derived from the relative angle.
type Engine3D struct {
	cfg *Config

	mu     sync.Mutex
	device Device
	ready  atomic.Bool
}

// NewEngine3D creates an uninitialized 3D engine backend.
func NewEngine3D(opts ...Option) *Engine3D {
	return &Engine3D{cfg: newConfig(KindEngine3D, opts)}
}

// Kind implements Backend.
func (e *Engine3D) Kind() Kind { return KindEngine3D }

// Initialize opens the configured playback device.
func (e *Engine3D) Initialize() bool {
	return safeInit(e.initialize)
}

func (e *Engine3D) initialize() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ready.Load() {
		return true
	}
	if e.cfg.DeviceOpener == nil {
		e.cfg.Logger.Warn("no device opener configured")
		return false
	}

	dev, err := e.cfg.DeviceOpener.Open(e.cfg.DeviceName)
	if err != nil {
		e.cfg.Logger.Warn("failed to open playback device", "device", e.cfg.DeviceName, "error", err)
		return false
	}

	e.device = dev
	e.ready.Store(true)
	e.cfg.Logger.Info("3D engine initialized", "device", dev.Name(), "audio_backend", dev.Backend())
	return true
}

// Shutdown closes the playback device.
func (e *Engine3D) Shutdown() {
	safeShutdown(func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		e.ready.Store(false)
		if e.device == nil {
			return
		}
		if err := e.device.Close(); err != nil {
			e.cfg.Logger.Warn("failed to close playback device", "error", err)
		}
		e.device = nil
		e.cfg.Logger.Info("3D engine shut down")
	})
}

// Ready reports whether the engine holds an open device.
func (e *Engine3D) Ready() bool {
	return e.ready.Load()
}

// IsAvailable probes for a playback context without keeping it.
func (e *Engine3D) IsAvailable() (ok bool) {
	if e.Ready() {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	if e.cfg.DeviceOpener == nil {
		return false
	}
	return e.cfg.DeviceOpener.Probe() == nil
}

// Process computes engine source parameters for one source.
func (e *Engine3D) Process(profile acoustic.Profile, pose acoustic.ListenerPose) Result {
	if !e.Ready() {
		return notReady("OpenAL", e.Info())
	}
	return safeProcess("OpenAL", e.Info, func() (Parameters, string, error) {
		if err := validateInputs(profile, pose); err != nil {
			return nil, "", err
		}

		g := measure(profile, pose)
		attenuated := spatial.Attenuate(profile.VolumeDB, g.distance, profile.SpatialFalloff,
			profile.OcclusionFactor, e.cfg.OcclusionPenalty)
		relative := spatial.RelativeAngle(g.delta, pose.Orientation.Yaw)
		doppler := 1.0

		params := baseParameters(profile, pose, g, attenuated)
		params["listener_orientation"] = pose.Orientation.Map()
		params["relative_angle_degrees"] = spatial.Degrees(relative)
		params["pan"] = spatial.Pan(relative)
		params["doppler_shift"] = doppler
		params["reverb_amount"] = profile.ReverbAmount
		params["frequency_range"] = profile.FrequencyRange.Map()
		params["openal_parameters"] = openALParameters(profile, attenuated, doppler)
		params["processing_applied"] = true

		return params, "Audio processed with OpenAL spatial positioning", nil
	})
}

func openALParameters(profile acoustic.Profile, attenuatedDB, pitch float64) map[string]any {
	position := []float64{0, 0, 0}
	if profile.Position != nil {
		position = []float64{profile.Position.X, profile.Position.Y, profile.Position.Z}
	}

	inner, outer, outerGain := 360.0, 360.0, 1.0
	if profile.Directional {
		inner, outer, outerGain = 60.0, 120.0, 0.5
	}

	return map[string]any{
		"AL_POSITION":           position,
		"AL_VELOCITY":           []float64{0, 0, 0},
		"AL_GAIN":               spatial.DBToLinearGain(attenuatedDB),
		"AL_PITCH":              pitch,
		"AL_ROLLOFF_FACTOR":     profile.SpatialFalloff,
		"AL_REFERENCE_DISTANCE": alReferenceDistance,
		"AL_MAX_DISTANCE":       alMaxDistance,
		"AL_CONE_INNER_ANGLE":   inner,
		"AL_CONE_OUTER_ANGLE":   outer,
		"AL_CONE_OUTER_GAIN":    outerGain,
	}
}

// Capabilities implements Backend.
func (e *Engine3D) Capabilities() Capabilities {
	return Capabilities{
		CapSpatialPositioning:  true,
		CapHRTF:                true,
		CapReverb:              true,
		CapOcclusion:           true,
		CapRealTime:            true,
		CapDistanceAttenuation: true,
		CapDoppler:             true,
		CapDirectionalSources:  true,
	}
}

// Info implements Backend. Device diagnostics are included when ready.
func (e *Engine3D) Info() Info {
	info := Info{
		InfoName:        "OpenAL Audio Backend",
		InfoType:        string(KindEngine3D),
		InfoVersion:     "1.0.0",
		InfoDescription: "Cross-platform 3D spatial audio using OpenAL",
	}
	if !e.Ready() {
		return info
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.device != nil {
		info["openal_vendor"] = e.device.Backend()
		info["openal_renderer"] = e.device.Name()
		info["openal_version"] = alVersion
	}
	return info
}

// Verify Engine3D implements Backend at compile time.
var _ Backend = (*Engine3D)(nil)
