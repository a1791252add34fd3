package backend

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-spatialaudio/pkg/acoustic"
	"github.com/teslashibe/go-spatialaudio/pkg/spatial"
)

const reverbEnabledThreshold = 0.1

// rendererDescriptor is the renderer state built on Initialize.
type rendererDescriptor struct {
	format     string
	maxObjects int
	sampleRate int
}

// Renderer is the platform spatial renderer backend (Windows Sonic style
// spatial audio objects with azimuth and elevation). It is only available on
// Windows hosts.
type Renderer struct {
	cfg *Config

	mu    sync.RWMutex
	desc  *rendererDescriptor
	ready atomic.Bool
}

// NewRenderer creates an uninitialized renderer backend.
func NewRenderer(opts ...Option) *Renderer {
	return &Renderer{cfg: newConfig(KindRenderer, opts)}
}

// Kind implements Backend.
func (r *Renderer) Kind() Kind { return KindRenderer }

func (r *Renderer) platform() string {
	if r.cfg.Platform == nil {
		return ""
	}
	return r.cfg.Platform()
}

// IsAvailable reports whether the host platform provides the renderer.
func (r *Renderer) IsAvailable() (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
		}
	}()
	return r.platform() == "windows"
}

// Initialize builds the renderer descriptor. It fails off-platform.
func (r *Renderer) Initialize() bool {
	return safeInit(r.initialize)
}

func (r *Renderer) initialize() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ready.Load() {
		return true
	}
	if r.platform() != "windows" {
		r.cfg.Logger.Warn("spatial renderer not supported on this platform", "platform", r.platform())
		return false
	}
	if r.cfg.MaxObjects <= 0 || r.cfg.SampleRate <= 0 {
		r.cfg.Logger.Warn("invalid renderer format",
			"max_objects", r.cfg.MaxObjects, "sample_rate", r.cfg.SampleRate)
		return false
	}

	r.desc = &rendererDescriptor{
		format:     r.cfg.RendererFormat,
		maxObjects: r.cfg.MaxObjects,
		sampleRate: r.cfg.SampleRate,
	}
	r.ready.Store(true)
	r.cfg.Logger.Info("spatial renderer initialized",
		"format", r.desc.format, "max_objects", r.desc.maxObjects, "sample_rate", r.desc.sampleRate)
	return true
}

// Shutdown releases the descriptor.
func (r *Renderer) Shutdown() {
	safeShutdown(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.desc != nil {
			r.cfg.Logger.Info("spatial renderer shut down")
		}
		r.ready.Store(false)
		r.desc = nil
	})
}

// Ready reports whether the descriptor has been built.
func (r *Renderer) Ready() bool {
	return r.ready.Load()
}

func (r *Renderer) descriptor() rendererDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.desc == nil {
		return rendererDescriptor{}
	}
	return *r.desc
}

// Process computes spatial audio object parameters for one source.
func (r *Renderer) Process(profile acoustic.Profile, pose acoustic.ListenerPose) Result {
	if !r.Ready() {
		return notReady("Windows Spatial Sound", r.Info())
	}
	return safeProcess("Windows Spatial Sound", r.Info, func() (Parameters, string, error) {
		if err := validateInputs(profile, pose); err != nil {
			return nil, "", err
		}

		g := measure(profile, pose)
		attenuated := spatial.Attenuate(profile.VolumeDB, g.distance, profile.SpatialFalloff,
			profile.OcclusionFactor, r.cfg.OcclusionPenalty)
		azimuth, elevation := spatial.AzimuthElevation(g.delta, pose.Orientation.Yaw, pose.Orientation.Pitch)
		desc := r.descriptor()

		params := baseParameters(profile, pose, g, attenuated)
		params["azimuth"] = azimuth
		params["elevation"] = elevation
		params["windows_spatial_parameters"] = rendererParameters(profile, g.distance, attenuated, azimuth, elevation)
		params["processing_applied"] = true
		params["hrtf_enabled"] = true
		params["spatial_format"] = desc.format

		return params, "Audio processed with " + desc.format, nil
	})
}

func rendererParameters(profile acoustic.Profile, distance, attenuatedDB, azimuth, elevation float64) map[string]any {
	pos := spatial.UnitSpherePosition(azimuth, elevation)

	directivity := "Omnidirectional"
	if profile.Directional {
		directivity = "Cardioid"
	}

	return map[string]any{
		"SpatialAudioObjectType": "AudioObject",
		"Position": map[string]any{
			"x":        pos.X,
			"y":        pos.Y,
			"z":        pos.Z,
			"distance": distance,
		},
		"Volume":             spatial.DBToLinearGain(attenuatedDB),
		"AzimuthDegrees":     azimuth,
		"ElevationDegrees":   elevation,
		"DistanceMeters":     distance,
		"DirectivityPattern": directivity,
		"RoomEffects": map[string]any{
			"ReverbEnabled":   profile.ReverbAmount > reverbEnabledThreshold,
			"ReverbLevel":     profile.ReverbAmount,
			"OcclusionFactor": 1 - profile.OcclusionFactor,
		},
		"FrequencyBands": map[string]any{
			"LowPass":  profile.FrequencyRange.High,
			"HighPass": profile.FrequencyRange.Low,
		},
		"EnableHRTF":         true,
		"EnableRoomModeling": true,
	}
}

// Capabilities implements Backend.
func (r *Renderer) Capabilities() Capabilities {
	return Capabilities{
		CapSpatialPositioning:  true,
		CapHRTF:                true,
		CapReverb:              true,
		CapOcclusion:           true,
		CapRealTime:            true,
		CapDistanceAttenuation: true,
		CapElevation:           true,
		CapDolbyAtmos:          false,
		CapWindowsSonic:        true,
	}
}

// Info implements Backend. Renderer format details are included when ready.
func (r *Renderer) Info() Info {
	info := Info{
		InfoName:        "Windows Spatial Sound Backend",
		InfoType:        string(KindRenderer),
		InfoVersion:     "1.0.0",
		InfoDescription: "Native Windows spatial audio using Windows Sonic/Dolby Atmos",
		"platform":      r.platform(),
	}
	if !r.Ready() {
		return info
	}
	desc := r.descriptor()
	info["spatial_format"] = desc.format
	info["max_audio_objects"] = strconv.Itoa(desc.maxObjects)
	info["sample_rate"] = strconv.Itoa(desc.sampleRate)
	return info
}

// Verify Renderer implements Backend at compile time.
var _ Backend = (*Renderer)(nil)
