// Package acoustic defines the per-request data model consumed by the
// spatial backends: a sound source's acoustic profile and the listener pose.
//
// Values are built per query from lookup data, passed by value into a
// backend and discarded afterwards. Nothing here is persisted.
package acoustic

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidProfile is returned when a profile fails validation.
var ErrInvalidProfile = errors.New("acoustic: invalid profile")

// ErrInvalidPose is returned when a listener pose is not finite.
var ErrInvalidPose = errors.New("acoustic: invalid listener pose")

var validate = NewValidator()

// NewValidator returns a validator with the "finite" tag and the frequency
// range rule registered, for packages that embed acoustic types.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("finite", validateFinite)
	v.RegisterStructValidation(validateFrequencyRange, FrequencyRange{})
	return v
}

func validateFinite(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func validateFrequencyRange(sl validator.StructLevel) {
	fr := sl.Current().Interface().(FrequencyRange)
	if fr.Low > fr.High {
		sl.ReportError(fr.Low, "Low", "low", "lowlehigh", "")
	}
}

// Vector3 is a point or direction in listener space (+Z forward, +X right, +Y up).
type Vector3 struct {
	X float64 `json:"x" yaml:"x" validate:"finite"`
	Y float64 `json:"y" yaml:"y" validate:"finite"`
	Z float64 `json:"z" yaml:"z" validate:"finite"`
}

// Vec converts to a gonum vector.
func (v Vector3) Vec() r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// FromVec converts a gonum vector.
func FromVec(v r3.Vec) Vector3 {
	return Vector3{X: v.X, Y: v.Y, Z: v.Z}
}

// Map renders the vector as {"x","y","z"}.
func (v Vector3) Map() map[string]any {
	return map[string]any{"x": v.X, "y": v.Y, "z": v.Z}
}

// FrequencyRange is the band a source occupies, in Hz.
type FrequencyRange struct {
	Low  float64 `json:"low" yaml:"low" validate:"gt=0,finite"`
	High float64 `json:"high" yaml:"high" validate:"gt=0,finite"`
}

// Map renders the range as {"low","high"}.
func (f FrequencyRange) Map() map[string]any {
	return map[string]any{"low": f.Low, "high": f.High}
}

// Profile describes one sound source's static acoustic properties.
type Profile struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`

	FrequencyRange FrequencyRange `json:"frequency_range"`

	// VolumeDB is the reference loudness; it may be negative.
	VolumeDB float64 `json:"volume_db" validate:"finite"`

	// SpatialFalloff is the dB lost per unit of distance.
	SpatialFalloff float64 `json:"spatial_falloff" validate:"gte=0,finite"`

	ReverbAmount float64 `json:"reverb_amount" validate:"gte=0,lte=1"`

	// OcclusionFactor: 0.0 = fully blocked by material, 1.0 = passes through.
	OcclusionFactor float64 `json:"occlusion_factor" validate:"gte=0,lte=1"`

	// Directional sources emit a cone; others are omnidirectional.
	Directional bool `json:"directional"`

	// Position is nil when the source is co-located with the listener.
	Position *Vector3 `json:"position,omitempty" validate:"omitempty"`
}

// Validate checks ranges and finiteness.
func (p Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, describe(err))
	}
	return nil
}

// WithPosition returns a copy of p placed at pos.
func (p Profile) WithPosition(pos Vector3) Profile {
	p.Position = &pos
	return p
}

// SourceVec returns the position as a gonum vector, or nil when absent.
func (p Profile) SourceVec() *r3.Vec {
	if p.Position == nil {
		return nil
	}
	v := p.Position.Vec()
	return &v
}

// Map renders the profile as the "metadata" block of a result.
func (p Profile) Map() map[string]any {
	var pos any
	if p.Position != nil {
		pos = p.Position.Map()
	}
	return map[string]any{
		"name":             p.Name,
		"description":      p.Description,
		"frequency_range":  p.FrequencyRange.Map(),
		"volume_db":        p.VolumeDB,
		"spatial_falloff":  p.SpatialFalloff,
		"reverb_amount":    p.ReverbAmount,
		"occlusion_factor": p.OcclusionFactor,
		"directional":      p.Directional,
		"position":         pos,
	}
}

// describe flattens validator errors into "Field: tag" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msg := ""
	for i, fe := range verrs {
		if i > 0 {
			msg += "; "
		}
		msg += fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
	}
	return msg
}
