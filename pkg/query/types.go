package query

import (
	"github.com/teslashibe/go-spatialaudio/pkg/acoustic"
	"github.com/teslashibe/go-spatialaudio/pkg/backend"
	"github.com/teslashibe/go-spatialaudio/pkg/catalog"
)

var validate = acoustic.NewValidator()

// Request asks for the spatial parameters of one operator's sound as heard
// by a listener. Positions and orientation are required.
type Request struct {
	Operator            string                `json:"operator" validate:"required"`
	SourcePosition      *acoustic.Vector3     `json:"source_position" validate:"required"`
	ListenerPosition    *acoustic.Vector3     `json:"listener_position" validate:"required"`
	ListenerOrientation *acoustic.Orientation `json:"listener_orientation" validate:"required"`
}

// Pose builds the listener pose from the request.
func (r Request) Pose() acoustic.ListenerPose {
	var pose acoustic.ListenerPose
	if r.ListenerPosition != nil {
		pose.Position = *r.ListenerPosition
	}
	if r.ListenerOrientation != nil {
		pose.Orientation = *r.ListenerOrientation
	}
	return pose
}

// Output is a processing result flattened for callers. Geometry fields are
// omitted when processing failed; angle fields depend on the backend.
type Output struct {
	RequestID string `json:"request_id"`
	Operator  string `json:"operator"`
	Success   bool   `json:"success"`
	Message   string `json:"message"`

	Distance           *float64          `json:"distance,omitempty"`
	AttenuatedVolumeDB *float64          `json:"attenuated_volume_db,omitempty"`
	Direction          *acoustic.Vector3 `json:"direction,omitempty"`

	Azimuth              *float64 `json:"azimuth,omitempty"`
	Elevation            *float64 `json:"elevation,omitempty"`
	Pan                  *float64 `json:"pan,omitempty"`
	RelativeAngleDegrees *float64 `json:"relative_angle_degrees,omitempty"`

	ProcessedAudio backend.Parameters `json:"processed_audio"`
	BackendInfo    backend.Info       `json:"backend_info"`
}

// flatten lifts the common parameters out of a result.
func flatten(requestID, operator string, res backend.Result) Output {
	out := Output{
		RequestID:      requestID,
		Operator:       operator,
		Success:        res.Success,
		Message:        res.Message,
		ProcessedAudio: res.Parameters,
		BackendInfo:    res.BackendInfo,
	}
	if !res.Success {
		return out
	}

	out.Distance = floatParam(res, "distance")
	out.AttenuatedVolumeDB = floatParam(res, "attenuated_volume_db")
	out.Azimuth = floatParam(res, "azimuth")
	out.Elevation = floatParam(res, "elevation")
	out.Pan = floatParam(res, "pan")
	out.RelativeAngleDegrees = floatParam(res, "relative_angle_degrees")

	if dir, ok := res.Parameters["direction"].(map[string]any); ok {
		x, _ := dir["x"].(float64)
		y, _ := dir["y"].(float64)
		z, _ := dir["z"].(float64)
		out.Direction = &acoustic.Vector3{X: x, Y: y, Z: z}
	}
	return out
}

func floatParam(res backend.Result, key string) *float64 {
	v, ok := res.Float(key)
	if !ok {
		return nil
	}
	return &v
}

// BackendListing is the answer to a backend listing query.
type BackendListing struct {
	Available []backend.Info `json:"available_backends"`
	Active    backend.Info   `json:"active_backend"`
}

// CapabilityReport pairs the active backend with its capabilities.
type CapabilityReport struct {
	Backend      backend.Info         `json:"backend"`
	Capabilities backend.Capabilities `json:"capabilities"`
}

// SwitchResult reports the outcome of a backend switch.
type SwitchResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Backend backend.Info `json:"backend"`
}

// OperatorMetadata is the detailed view of one operator.
type OperatorMetadata struct {
	Operator           string             `json:"operator"`
	Description        string             `json:"description"`
	AudioProperties    AudioProperties    `json:"audio_properties"`
	GameplayProperties GameplayProperties `json:"gameplay_properties"`
	SpecialAudioCues   []string           `json:"special_audio_cues"`
}

// AudioProperties are an operator's acoustic fields.
type AudioProperties struct {
	FrequencyRangeHz acoustic.FrequencyRange `json:"frequency_range_hz"`
	VolumeDB         float64                 `json:"volume_db"`
	SpatialFalloff   float64                 `json:"spatial_falloff"`
	ReverbAmount     float64                 `json:"reverb_amount"`
	OcclusionFactor  float64                 `json:"occlusion_factor"`
	Directional      bool                    `json:"directional"`
}

// GameplayProperties are an operator's non-acoustic fields.
type GameplayProperties struct {
	SpeedMultiplier float64 `json:"speed_multiplier"`
	ArmorRating     int     `json:"armor_rating"`
}

// MapMetadata is the detailed view of one map filtered to a zone.
type MapMetadata struct {
	Map                   string                         `json:"map"`
	Description           string                         `json:"description"`
	AmbientProperties     AmbientProperties              `json:"ambient_properties"`
	ReverbCharacteristics map[string]catalog.ReverbZone  `json:"reverb_characteristics"`
	SpatialZones          map[string]catalog.SpatialZone `json:"spatial_zones"`
	AmbientSounds         []catalog.AmbientSound         `json:"ambient_sounds"`
}

// AmbientProperties are a map's background levels.
type AmbientProperties struct {
	FrequencyRangeHz acoustic.FrequencyRange `json:"frequency_range_hz"`
	AmbientVolumeDB  float64                 `json:"ambient_volume_db"`
}
