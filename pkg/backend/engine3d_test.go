package backend_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-spatialaudio/pkg/acoustic"
	"github.com/teslashibe/go-spatialaudio/pkg/backend"
)

func speakers() *backend.StaticOpener {
	return &backend.StaticOpener{BackendName: "alsa", Devices: []string{"Speakers", "Headphones"}}
}

func readyEngine(t *testing.T, opts ...backend.Option) (*backend.Engine3D, *backend.StaticOpener) {
	t.Helper()
	opener := speakers()
	e := backend.NewEngine3D(append([]backend.Option{backend.WithDeviceOpener(opener)}, opts...)...)
	require.True(t, e.Initialize())
	t.Cleanup(e.Shutdown)
	return e, opener
}

func TestEngine3D_Process(t *testing.T) {
	e, _ := readyEngine(t)

	profile := footsteps().WithPosition(acoustic.Vector3{X: 10})
	res := e.Process(profile, origin())
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Audio processed with OpenAL spatial positioning", res.Message)

	distance, _ := res.Float("distance")
	assert.Equal(t, 10.0, distance)

	// -18 - 10*2.5 - (1-0.7)*10
	attenuated, _ := res.Float("attenuated_volume_db")
	assert.InDelta(t, -46.0, attenuated, 1e-9)

	angle, _ := res.Float("relative_angle_degrees")
	assert.InDelta(t, 90.0, angle, 1e-9)
	pan, _ := res.Float("pan")
	assert.InDelta(t, 1.0, pan, 1e-9)

	doppler, _ := res.Float("doppler_shift")
	assert.Equal(t, 1.0, doppler)
	assert.Equal(t, true, res.Parameters["processing_applied"])
	assert.Equal(t, map[string]any{"yaw": 0.0, "pitch": 0.0, "roll": 0.0}, res.Parameters["listener_orientation"])
	assert.Equal(t, map[string]any{"low": 800.0, "high": 3200.0}, res.Parameters["frequency_range"])

	al, ok := res.Parameters["openal_parameters"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []float64{10, 0, 0}, al["AL_POSITION"])
	assert.Equal(t, []float64{0, 0, 0}, al["AL_VELOCITY"])
	assert.InDelta(t, math.Pow(10, -46.0/20), al["AL_GAIN"], 1e-12)
	assert.Equal(t, 2.5, al["AL_ROLLOFF_FACTOR"])
	assert.Equal(t, 1.0, al["AL_REFERENCE_DISTANCE"])
	assert.Equal(t, 100.0, al["AL_MAX_DISTANCE"])
}

func TestEngine3D_Cone(t *testing.T) {
	e, _ := readyEngine(t)

	tests := []struct {
		directional             bool
		inner, outer, outerGain float64
	}{
		{true, 60, 120, 0.5},
		{false, 360, 360, 1.0},
	}
	for _, tt := range tests {
		p := footsteps()
		p.Directional = tt.directional
		res := e.Process(p, origin())
		require.True(t, res.Success)

		al := res.Parameters["openal_parameters"].(map[string]any)
		assert.Equal(t, tt.inner, al["AL_CONE_INNER_ANGLE"])
		assert.Equal(t, tt.outer, al["AL_CONE_OUTER_ANGLE"])
		assert.Equal(t, tt.outerGain, al["AL_CONE_OUTER_GAIN"])
	}
}

func TestEngine3D_RelativeAngleNotWrapped(t *testing.T) {
	e, _ := readyEngine(t)

	// Source to the left, listener at yaw 270: atan2(-1, 0) - 270° = -360°.
	p := footsteps().WithPosition(acoustic.Vector3{X: -1})
	res := e.Process(p, acoustic.NewPose(0, 0, 0, 270, 0, 0))
	require.True(t, res.Success)

	angle, _ := res.Float("relative_angle_degrees")
	assert.InDelta(t, -360.0, angle, 1e-9)
	pan, _ := res.Float("pan")
	assert.InDelta(t, 0.0, pan, 1e-9)
}

func TestEngine3D_OcclusionPenaltyOption(t *testing.T) {
	e, _ := readyEngine(t, backend.WithOcclusionPenalty(0))

	res := e.Process(footsteps().WithPosition(acoustic.Vector3{Z: 10}), origin())
	attenuated, _ := res.Float("attenuated_volume_db")
	assert.Equal(t, -43.0, attenuated)
}

func TestEngine3D_Lifecycle(t *testing.T) {
	opener := speakers()
	e := backend.NewEngine3D(backend.WithDeviceOpener(opener), backend.WithDeviceName("headphones"))

	assert.True(t, e.IsAvailable())
	assert.False(t, e.Ready())
	assert.Empty(t, opener.Opened(), "probe does not keep a device")

	info := e.Info()
	assert.NotContains(t, info, "openal_vendor")

	require.True(t, e.Initialize())
	info = e.Info()
	assert.Equal(t, "alsa", info["openal_vendor"])
	assert.Equal(t, "Headphones", info["openal_renderer"])
	assert.NotEmpty(t, info["openal_version"])

	require.Len(t, opener.Opened(), 1)
	dev := opener.Opened()[0]
	e.Shutdown()
	assert.True(t, dev.Closed())
	assert.False(t, e.Ready())
	assert.NotContains(t, e.Info(), "openal_vendor")

	res := e.Process(footsteps(), origin())
	assert.False(t, res.Success)
	assert.Equal(t, "OpenAL backend not initialized", res.Message)
}

func TestEngine3D_NoDevice(t *testing.T) {
	e := backend.NewEngine3D(backend.WithDeviceOpener(&backend.StaticOpener{BackendName: "alsa"}))
	assert.False(t, e.IsAvailable())
	assert.False(t, e.Initialize())
	assert.False(t, e.Ready())

	e = backend.NewEngine3D(backend.WithDeviceOpener(speakers()), backend.WithDeviceName("HDMI"))
	assert.True(t, e.IsAvailable())
	assert.False(t, e.Initialize(), "named device missing")

	e = backend.NewEngine3D(backend.WithDeviceOpener(nil))
	assert.False(t, e.IsAvailable())
	assert.False(t, e.Initialize())
}

func TestEngine3D_Capabilities(t *testing.T) {
	caps := backend.NewEngine3D(backend.WithDeviceOpener(speakers())).Capabilities()
	for _, name := range []string{
		backend.CapSpatialPositioning, backend.CapHRTF, backend.CapReverb, backend.CapOcclusion,
		backend.CapRealTime, backend.CapDistanceAttenuation, backend.CapDoppler, backend.CapDirectionalSources,
	} {
		assert.True(t, caps[name], name)
	}
}
