package backend

import (
	"sync/atomic"

	"github.com/teslashibe/go-spatialaudio/pkg/acoustic"
	"github.com/teslashibe/go-spatialaudio/pkg/spatial"
)

// Null is the fallback backend: it analyzes metadata without any spatial
// rendering. It always initializes and declares no capabilities.
type Null struct {
	ready atomic.Bool
	cfg   *Config
}

// NewNull creates an uninitialized Null backend.
func NewNull(opts ...Option) *Null {
	return &Null{cfg: newConfig(KindNull, opts)}
}

// Kind implements Backend.
func (n *Null) Kind() Kind { return KindNull }

// Initialize always succeeds.
func (n *Null) Initialize() bool {
	n.ready.Store(true)
	return true
}

// Shutdown marks the backend not ready.
func (n *Null) Shutdown() {
	n.ready.Store(false)
}

// Ready reports whether Initialize has run.
func (n *Null) Ready() bool {
	return n.ready.Load()
}

// IsAvailable is always true.
func (n *Null) IsAvailable() bool { return true }

// Process reports distance and linear attenuation only. No occlusion
// penalty, panning or native parameter block is produced.
func (n *Null) Process(profile acoustic.Profile, pose acoustic.ListenerPose) Result {
	if !n.Ready() {
		return notReady("Null", n.Info())
	}
	return safeProcess("Null", n.Info, func() (Parameters, string, error) {
		if err := validateInputs(profile, pose); err != nil {
			return nil, "", err
		}

		g := measure(profile, pose)
		attenuated := spatial.Attenuate(profile.VolumeDB, g.distance, profile.SpatialFalloff,
			profile.OcclusionFactor, n.cfg.OcclusionPenalty)

		params := baseParameters(profile, pose, g, attenuated)
		params["note"] = "Using NullAudioBackend - metadata only, no actual audio processing"

		return params, "Audio metadata analyzed (no backend active)", nil
	})
}

// Capabilities reports every feature as unsupported.
func (n *Null) Capabilities() Capabilities {
	return Capabilities{
		CapSpatialPositioning: false,
		CapHRTF:               false,
		CapReverb:             false,
		CapOcclusion:          false,
		CapRealTime:           false,
	}
}

// Info implements Backend.
func (n *Null) Info() Info {
	return Info{
		InfoName:        "Null Audio Backend",
		InfoType:        string(KindNull),
		InfoVersion:     "1.0.0",
		InfoDescription: "Fallback backend providing metadata analysis without audio processing",
	}
}

// Verify Null implements Backend at compile time.
var _ Backend = (*Null)(nil)
