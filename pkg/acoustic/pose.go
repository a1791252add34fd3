package acoustic

import "fmt"

// Orientation is the listener facing in degrees.
type Orientation struct {
	Yaw   float64 `json:"yaw" validate:"finite"`
	Pitch float64 `json:"pitch" validate:"finite"`
	Roll  float64 `json:"roll" validate:"finite"`
}

// Map renders the orientation as {"yaw","pitch","roll"}.
func (o Orientation) Map() map[string]any {
	return map[string]any{"yaw": o.Yaw, "pitch": o.Pitch, "roll": o.Roll}
}

// ListenerPose is where the listener stands and which way it faces.
type ListenerPose struct {
	Position    Vector3     `json:"position"`
	Orientation Orientation `json:"orientation"`
}

// Validate checks that every coordinate is finite.
func (l ListenerPose) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPose, describe(err))
	}
	return nil
}

// NewPose is a convenience constructor.
func NewPose(x, y, z, yaw, pitch, roll float64) ListenerPose {
	return ListenerPose{
		Position:    Vector3{X: x, Y: y, Z: z},
		Orientation: Orientation{Yaw: yaw, Pitch: pitch, Roll: roll},
	}
}
