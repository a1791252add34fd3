package catalog_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-spatialaudio/pkg/acoustic"
	"github.com/teslashibe/go-spatialaudio/pkg/catalog"
)

func load(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load()
	require.NoError(t, err)
	return c
}

func TestLoad(t *testing.T) {
	c := load(t)

	ops := c.Operators()
	assert.Len(t, ops, 31)
	assert.True(t, sort.StringsAreSorted(ops))
	assert.Contains(t, ops, "Ash")
	assert.Contains(t, ops, "Montagne")

	maps := c.Maps()
	assert.Equal(t, []string{"Bank", "Chalet", "Clubhouse", "Consulate", "Hereford", "House", "Kanal", "Oregon"}, maps)
}

func TestOperator(t *testing.T) {
	c := load(t)

	ash, err := c.Operator("Ash")
	require.NoError(t, err)
	assert.Equal(t, "Ash", ash.Name)
	assert.Equal(t, "Light, quick footsteps with a slight metallic echo from her boots", ash.Description)
	assert.Equal(t, acoustic.FrequencyRange{Low: 800, High: 3200}, ash.FrequencyRange)
	assert.Equal(t, -18.0, ash.VolumeDB)
	assert.Equal(t, 2.5, ash.SpatialFalloff)
	assert.Equal(t, 0.7, ash.OcclusionFactor)
	assert.Equal(t, 1.2, ash.SpeedMultiplier)
	assert.Equal(t, 1, ash.ArmorRating)
	assert.Len(t, ash.SpecialAudioCues, 2)

	_, err = c.Operator("ash")
	assert.ErrorIs(t, err, catalog.ErrNotFound, "lookup is case-sensitive")
}

func TestOperatorProfile(t *testing.T) {
	c := load(t)

	p := c.OperatorProfile("Ash")
	require.NoError(t, p.Validate())
	assert.Equal(t, "Ash", p.Name)
	assert.Nil(t, p.Position)
	assert.True(t, p.Directional)

	unknown := c.OperatorProfile("Ghost")
	require.NoError(t, unknown.Validate())
	assert.Equal(t, "Ghost", unknown.Name)
	assert.Equal(t, "Unknown operator: Ghost", unknown.Description)
	assert.Equal(t, acoustic.FrequencyRange{Low: 300, High: 2000}, unknown.FrequencyRange)
	assert.Equal(t, -15.0, unknown.VolumeDB)
	assert.Equal(t, 2.0, unknown.SpatialFalloff)
	assert.Equal(t, 0.4, unknown.ReverbAmount)
	assert.Equal(t, 0.5, unknown.OcclusionFactor)
	assert.True(t, unknown.Directional)
}

func TestMap(t *testing.T) {
	c := load(t)

	bank, err := c.Map("Bank")
	require.NoError(t, err)
	assert.Equal(t, "Bank", bank.Name)
	assert.Equal(t, -35.0, bank.AmbientVolumeDB)
	assert.Equal(t, 0.8, bank.ReverbCharacteristics["lobby"].Reverb)
	assert.Equal(t, 0.2, bank.SpatialZones["exterior"].Occlusion)
	assert.Len(t, bank.AmbientSounds, 3)

	_, err = c.Map("Atlantis")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestMap_SoundsIn(t *testing.T) {
	bank, err := load(t).Map("Bank")
	require.NoError(t, err)

	names := func(sounds []catalog.AmbientSound) []string {
		out := make([]string, 0, len(sounds))
		for _, s := range sounds {
			out = append(out, s.Name)
		}
		return out
	}

	assert.Equal(t, []string{"city_traffic", "bank_alarm", "hvac_hum"}, names(bank.SoundsIn("all")))
	assert.Equal(t, []string{"city_traffic", "bank_alarm", "hvac_hum"}, names(bank.SoundsIn("")))
	assert.Equal(t, []string{"bank_alarm", "hvac_hum"}, names(bank.SoundsIn("lobby")))
	assert.Equal(t, []string{"hvac_hum"}, names(bank.SoundsIn("roof")))
}

func TestMapAmbientProfiles(t *testing.T) {
	c := load(t)

	profiles := c.MapAmbientProfiles("Bank", "lobby")
	require.Len(t, profiles, 2)

	alarm := profiles[0]
	assert.Equal(t, "Bank_bank_alarm", alarm.Name)
	assert.Equal(t, "Ambient sound: bank_alarm on Bank", alarm.Description)
	assert.Equal(t, acoustic.FrequencyRange{Low: 1200, High: 3500}, alarm.FrequencyRange)
	assert.Equal(t, -25.0, alarm.VolumeDB)
	assert.Equal(t, 1.0, alarm.SpatialFalloff)
	assert.Equal(t, 0.2, alarm.ReverbAmount)
	assert.Equal(t, 0.8, alarm.OcclusionFactor)
	assert.False(t, alarm.Directional)
	require.NoError(t, alarm.Validate())

	assert.Empty(t, c.MapAmbientProfiles("Atlantis", "all"))
	assert.NotNil(t, c.MapAmbientProfiles("Atlantis", "all"))
}

func TestLoadFile_Overrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	data := `
operators:
  Ash:
    description: "Custom Ash"
    frequency_range: {low: 100, high: 200}
    volume_db: -5
    spatial_falloff: 1
    reverb_amount: 0.1
    occlusion_factor: 0.9
    directional: false
  Recruit:
    description: "Generic recruit"
    frequency_range: {low: 300, high: 1800}
    volume_db: -15
    spatial_falloff: 2
    reverb_amount: 0.4
    occlusion_factor: 0.5
    directional: true
maps:
  Plane:
    description: "Presidential plane"
    ambient_frequency_range: {low: 80, high: 3000}
    ambient_volume_db: -30
    ambient_sounds:
      - {name: engines, frequency: {low: 60, high: 400}, volume_db: -28, position: all}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := catalog.LoadFile(path)
	require.NoError(t, err)

	ash, err := c.Operator("Ash")
	require.NoError(t, err)
	assert.Equal(t, "Custom Ash", ash.Description)

	_, err = c.Operator("Recruit")
	assert.NoError(t, err)
	_, err = c.Operator("Thermite")
	assert.NoError(t, err, "embedded entries remain")

	assert.Len(t, c.Operators(), 32)
	assert.Contains(t, c.Maps(), "Plane")
	assert.Len(t, c.MapAmbientProfiles("Plane", "cockpit"), 1)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := catalog.LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("operators: [unclosed"), 0o644))
	_, err = catalog.LoadFile(bad)
	assert.ErrorIs(t, err, catalog.ErrInvalidData)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte(`
operators:
  Loud:
    frequency_range: {low: 3000, high: 100}
    reverb_amount: 0.2
    occlusion_factor: 0.5
`), 0o644))
	_, err = catalog.LoadFile(invalid)
	assert.ErrorIs(t, err, catalog.ErrInvalidData)
	assert.Contains(t, err.Error(), "Loud")
}

func TestRegister(t *testing.T) {
	c := catalog.New()
	assert.Empty(t, c.Operators())

	err := c.RegisterOperator(catalog.Operator{Name: "Bad", FrequencyRange: acoustic.FrequencyRange{Low: 0, High: 10}})
	assert.ErrorIs(t, err, catalog.ErrInvalidData)

	require.NoError(t, c.RegisterOperator(catalog.Operator{
		Name:            "Solo",
		FrequencyRange:  acoustic.FrequencyRange{Low: 100, High: 200},
		OcclusionFactor: 1,
	}))
	c.RegisterMap(catalog.Map{Name: "Range"})

	assert.Equal(t, []string{"Solo"}, c.Operators())
	assert.Equal(t, []string{"Range"}, c.Maps())
}
