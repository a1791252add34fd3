package backend

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-spatialaudio/pkg/acoustic"
	"github.com/teslashibe/go-spatialaudio/pkg/spatial"
)

// geometry is the source/listener relationship every variant starts from.
type geometry struct {
	distance  float64
	direction r3.Vec
	delta     r3.Vec
}

func measure(profile acoustic.Profile, pose acoustic.ListenerPose) geometry {
	src := profile.SourceVec()
	listener := pose.Position.Vec()
	distance, direction := spatial.DistanceAndDirection(src, listener)
	return geometry{
		distance:  distance,
		direction: direction,
		delta:     spatial.Displacement(src, listener),
	}
}

// baseParameters is the block shared by every variant.
func baseParameters(profile acoustic.Profile, pose acoustic.ListenerPose, g geometry, attenuatedDB float64) Parameters {
	return Parameters{
		"metadata":             profile.Map(),
		"listener_position":    pose.Position.Map(),
		"distance":             g.distance,
		"direction":            acoustic.FromVec(g.direction).Map(),
		"attenuated_volume_db": attenuatedDB,
	}
}

// validateInputs rejects malformed requests before any math runs.
func validateInputs(profile acoustic.Profile, pose acoustic.ListenerPose) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	return pose.Validate()
}

// errNonFinite marks finite inputs whose computed values overflowed.
var errNonFinite = errors.New("non-finite geometry")

// checkFinite walks assembled parameters and reports the first value that
// is NaN or infinite. Such values cannot be encoded as JSON.
func checkFinite(params Parameters) error {
	return checkFiniteValue("", map[string]any(params))
}

func checkFiniteValue(path string, v any) error {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: %s", errNonFinite, path)
		}
	case Parameters:
		return checkFiniteValue(path, map[string]any(t))
	case map[string]any:
		for k, inner := range t {
			if err := checkFiniteValue(joinPath(path, k), inner); err != nil {
				return err
			}
		}
	case []float64:
		for i, f := range t {
			if err := checkFiniteValue(fmt.Sprintf("%s[%d]", path, i), f); err != nil {
				return err
			}
		}
	case []any:
		for i, inner := range t {
			if err := checkFiniteValue(fmt.Sprintf("%s[%d]", path, i), inner); err != nil {
				return err
			}
		}
	}
	return nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
