package backend_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-spatialaudio/pkg/acoustic"
	"github.com/teslashibe/go-spatialaudio/pkg/backend"
)

func TestNull_EndToEnd(t *testing.T) {
	n := backend.NewNull()
	require.True(t, n.Initialize())
	defer n.Shutdown()

	profile := footsteps().WithPosition(acoustic.Vector3{X: 10})
	res := n.Process(profile, origin())

	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Audio metadata analyzed (no backend active)", res.Message)

	distance, _ := res.Float("distance")
	assert.Equal(t, 10.0, distance)

	// No occlusion penalty even though the source is past 5 units.
	attenuated, _ := res.Float("attenuated_volume_db")
	assert.Equal(t, -43.0, attenuated)

	assert.Equal(t, map[string]any{"x": 1.0, "y": 0.0, "z": 0.0}, res.Parameters["direction"])
	assert.Contains(t, res.Parameters, "metadata")
	assert.Contains(t, res.Parameters, "note")
	assert.NotContains(t, res.Parameters, "pan")
	assert.NotContains(t, res.Parameters, "azimuth")
	assert.NotContains(t, res.Parameters, "openal_parameters")
}

func TestNull_NoPosition(t *testing.T) {
	n := backend.NewNull()
	n.Initialize()

	res := n.Process(footsteps(), acoustic.NewPose(3, 4, 5, 90, 0, 0))
	require.True(t, res.Success)

	distance, _ := res.Float("distance")
	assert.Zero(t, distance)
	assert.Equal(t, map[string]any{"x": 0.0, "y": 0.0, "z": 0.0}, res.Parameters["direction"])

	attenuated, _ := res.Float("attenuated_volume_db")
	assert.Equal(t, -18.0, attenuated)
}

func TestNull_Lifecycle(t *testing.T) {
	n := backend.NewNull()
	assert.False(t, n.Ready())
	assert.True(t, n.IsAvailable())
	assert.True(t, n.Initialize())
	assert.True(t, n.Ready())
	n.Shutdown()
	assert.False(t, n.Ready())

	res := n.Process(footsteps(), origin())
	assert.False(t, res.Success)
	assert.Equal(t, "Null backend not initialized", res.Message)
}

func TestNull_Capabilities(t *testing.T) {
	caps := backend.NewNull().Capabilities()
	assert.NotEmpty(t, caps)
	for name, supported := range caps {
		assert.False(t, supported, name)
	}
}

func TestNull_Info(t *testing.T) {
	want := backend.Info{
		"name":        "Null Audio Backend",
		"type":        "none",
		"version":     "1.0.0",
		"description": "Fallback backend providing metadata analysis without audio processing",
	}
	if diff := cmp.Diff(want, backend.NewNull().Info()); diff != "" {
		t.Errorf("Info mismatch (-want +got):\n%s", diff)
	}
}
