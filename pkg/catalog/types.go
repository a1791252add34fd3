// Package catalog provides the static operator and map sound data that
// query requests are resolved against.
package catalog

import "github.com/teslashibe/go-spatialaudio/pkg/acoustic"

// Operator is one operator's movement sound profile plus gameplay data.
type Operator struct {
	Name             string                  `yaml:"-" json:"operator"`
	Description      string                  `yaml:"description" json:"description"`
	FrequencyRange   acoustic.FrequencyRange `yaml:"frequency_range" json:"frequency_range_hz"`
	VolumeDB         float64                 `yaml:"volume_db" json:"volume_db"`
	SpatialFalloff   float64                 `yaml:"spatial_falloff" json:"spatial_falloff"`
	ReverbAmount     float64                 `yaml:"reverb_amount" json:"reverb_amount"`
	OcclusionFactor  float64                 `yaml:"occlusion_factor" json:"occlusion_factor"`
	Directional      bool                    `yaml:"directional" json:"directional"`
	SpeedMultiplier  float64                 `yaml:"speed_multiplier" json:"speed_multiplier"`
	ArmorRating      int                     `yaml:"armor_rating" json:"armor_rating"`
	SpecialAudioCues []string                `yaml:"special_audio_cues" json:"special_audio_cues"`
}

// Profile converts the operator to an acoustic profile with no position.
func (o Operator) Profile() acoustic.Profile {
	return acoustic.Profile{
		Name:            o.Name,
		Description:     o.Description,
		FrequencyRange:  o.FrequencyRange,
		VolumeDB:        o.VolumeDB,
		SpatialFalloff:  o.SpatialFalloff,
		ReverbAmount:    o.ReverbAmount,
		OcclusionFactor: o.OcclusionFactor,
		Directional:     o.Directional,
	}
}

// ReverbZone describes the room acoustics of one named area.
type ReverbZone struct {
	Reverb      float64 `yaml:"reverb" json:"reverb"`
	EchoDelay   float64 `yaml:"echo_delay" json:"echo_delay"`
	Description string  `yaml:"description" json:"description"`
}

// SpatialZone describes how enclosed an area is.
type SpatialZone struct {
	Occlusion     float64 `yaml:"occlusion" json:"occlusion"`
	OutdoorFactor float64 `yaml:"outdoor_factor" json:"outdoor_factor"`
}

// AmbientSound is a background sound placed in a zone, or "all".
type AmbientSound struct {
	Name      string                  `yaml:"name" json:"name"`
	Frequency acoustic.FrequencyRange `yaml:"frequency" json:"frequency"`
	VolumeDB  float64                 `yaml:"volume_db" json:"volume_db"`
	Position  string                  `yaml:"position" json:"position"`
}

// Map is one map's ambient sound data.
type Map struct {
	Name                  string                  `yaml:"-" json:"map"`
	Description           string                  `yaml:"description" json:"description"`
	AmbientFrequencyRange acoustic.FrequencyRange `yaml:"ambient_frequency_range" json:"ambient_frequency_range_hz"`
	AmbientVolumeDB       float64                 `yaml:"ambient_volume_db" json:"ambient_volume_db"`
	ReverbCharacteristics map[string]ReverbZone   `yaml:"reverb_characteristics" json:"reverb_characteristics"`
	SpatialZones          map[string]SpatialZone  `yaml:"spatial_zones" json:"spatial_zones"`
	AmbientSounds         []AmbientSound          `yaml:"ambient_sounds" json:"ambient_sounds"`
}

// AllZones selects every ambient sound regardless of position.
const AllZones = "all"

// SoundsIn returns the ambient sounds audible in zone: those placed in it,
// those placed in "all", or every sound when zone is "all" or empty.
func (m Map) SoundsIn(zone string) []AmbientSound {
	if zone == "" {
		zone = AllZones
	}
	out := make([]AmbientSound, 0, len(m.AmbientSounds))
	for _, s := range m.AmbientSounds {
		if zone == AllZones || s.Position == zone || s.Position == AllZones {
			out = append(out, s)
		}
	}
	return out
}

// document is the on-disk layout of a catalog file.
type document struct {
	Operators map[string]Operator `yaml:"operators"`
	Maps      map[string]Map      `yaml:"maps"`
}
