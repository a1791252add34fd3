package backend_test

import (
	"errors"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/teslashibe/go-spatialaudio/pkg/acoustic"
	"github.com/teslashibe/go-spatialaudio/pkg/backend"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
	os.Exit(m.Run())
}

func footsteps() acoustic.Profile {
	return acoustic.Profile{
		Name:            "Ash",
		Description:     "Light, quick footsteps",
		FrequencyRange:  acoustic.FrequencyRange{Low: 800, High: 3200},
		VolumeDB:        -18,
		SpatialFalloff:  2.5,
		ReverbAmount:    0.3,
		OcclusionFactor: 0.7,
		Directional:     true,
	}
}

func origin() acoustic.ListenerPose {
	return acoustic.NewPose(0, 0, 0, 0, 0, 0)
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want backend.Kind
		err  bool
	}{
		{"none", backend.KindNull, false},
		{"OpenAL", backend.KindEngine3D, false},
		{" windows_spatial ", backend.KindRenderer, false},
		{"directsound", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := backend.ParseKind(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, backend.ErrUnknownKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKinds(t *testing.T) {
	assert.Equal(t, []backend.Kind{backend.KindNull, backend.KindEngine3D, backend.KindRenderer}, backend.Kinds())
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, backend.WrapError(backend.KindEngine3D, nil))

	err := backend.WrapError(backend.KindEngine3D, backend.ErrNoDevice)
	assert.ErrorIs(t, err, backend.ErrNoDevice)
	assert.Equal(t, "backend [openal]: backend: no playback device", err.Error())

	var be *backend.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, backend.KindEngine3D, be.Kind)
}

func TestInfo_Identity(t *testing.T) {
	info := backend.Info{
		backend.InfoName:        "n",
		backend.InfoType:        "t",
		backend.InfoVersion:     "v",
		backend.InfoDescription: "d",
		"platform":              "linux",
	}
	assert.Equal(t, backend.Info{"name": "n", "type": "t", "version": "v", "description": "d"}, info.Identity())
}

func TestResult_Float(t *testing.T) {
	r := backend.Result{Parameters: backend.Parameters{"distance": 3.5, "note": "x"}}

	v, ok := r.Float("distance")
	assert.True(t, ok)
	assert.Equal(t, 3.5, v)

	_, ok = r.Float("note")
	assert.False(t, ok)

	_, ok = backend.Result{}.Float("distance")
	assert.False(t, ok)
}

func TestAllVariants_FailedResultHasNoParameters(t *testing.T) {
	bad := footsteps()
	bad.ReverbAmount = 2

	variants := []backend.Backend{
		backend.NewNull(),
		backend.NewEngine3D(backend.WithDeviceOpener(&backend.StaticOpener{BackendName: "null", Devices: []string{"Speakers"}})),
		backend.NewRenderer(backend.WithPlatform("windows")),
	}
	for _, b := range variants {
		t.Run(b.Kind().String(), func(t *testing.T) {
			res := b.Process(footsteps(), origin())
			assert.False(t, res.Success, "not ready")
			assert.Nil(t, res.Parameters)
			assert.Contains(t, res.Message, "not initialized")
			assert.Equal(t, b.Kind().String(), res.BackendInfo[backend.InfoType])

			require.True(t, b.Initialize())
			defer b.Shutdown()

			res = b.Process(bad, origin())
			assert.False(t, res.Success)
			assert.Nil(t, res.Parameters)
			assert.Contains(t, res.Message, "processing error")
			assert.Contains(t, res.Message, "ReverbAmount")

			nanPose := acoustic.NewPose(math.NaN(), 0, 0, 0, 0, 0)
			res = b.Process(footsteps(), nanPose)
			assert.False(t, res.Success)
			assert.Nil(t, res.Parameters)
		})
	}
}

func TestAllVariants_ShutdownIsSafe(t *testing.T) {
	variants := []backend.Backend{
		backend.NewNull(),
		backend.NewEngine3D(backend.WithDeviceOpener(&backend.StaticOpener{Err: backend.ErrNoDevice})),
		backend.NewRenderer(backend.WithPlatform("linux")),
	}
	for _, b := range variants {
		t.Run(b.Kind().String(), func(t *testing.T) {
			assert.NotPanics(t, b.Shutdown, "never initialized")
			b.Initialize()
			assert.NotPanics(t, b.Shutdown)
			assert.NotPanics(t, b.Shutdown, "twice")
		})
	}
}

func TestAllVariants_OverflowIsFailedResult(t *testing.T) {
	far := footsteps().WithPosition(acoustic.Vector3{X: 1e308})
	farListener := acoustic.NewPose(-1e308, 0, 0, 0, 0, 0)

	variants := []backend.Backend{
		backend.NewNull(),
		backend.NewEngine3D(backend.WithDeviceOpener(&backend.StaticOpener{BackendName: "null", Devices: []string{"Speakers"}})),
		backend.NewRenderer(backend.WithPlatform("windows")),
	}
	for _, b := range variants {
		t.Run(b.Kind().String(), func(t *testing.T) {
			require.True(t, b.Initialize())
			defer b.Shutdown()

			res := b.Process(far, farListener)
			assert.False(t, res.Success)
			assert.Nil(t, res.Parameters)
			assert.Contains(t, res.Message, "processing error: non-finite geometry")

			// The backend stays usable.
			res = b.Process(footsteps().WithPosition(acoustic.Vector3{X: 10}), origin())
			assert.True(t, res.Success, res.Message)
		})
	}
}
