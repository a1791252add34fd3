// Package spatial holds the pure geometry and acoustics used by every
// backend: distance and direction between source and listener, angles
// relative to the listener's facing, distance/occlusion attenuation and
// decibel to linear gain conversion.
//
// Coordinates follow the listener convention used throughout the module:
// +Z is forward, +X is right, +Y is up. Angles are degrees unless a name
// says otherwise.
//
// All functions are deterministic and safe for concurrent use.
package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// OcclusionDistance is the distance beyond which the occlusion penalty applies.
// No line-of-sight geometry is modeled; occlusion is purely distance gated.
const OcclusionDistance = 5.0

// Occlusion penalties (dB at occlusion factor 0) per computation mode.
const (
	NoOcclusionPenalty       = 0.0
	Engine3DOcclusionPenalty = 10.0
	RendererOcclusionPenalty = 12.0
)

// DistanceAndDirection returns the Euclidean distance from listener to source
// and the unit vector pointing from listener to source.
// A nil source is treated as co-located with the listener. A zero distance
// yields a zero direction instead of NaN.
func DistanceAndDirection(source *r3.Vec, listener r3.Vec) (float64, r3.Vec) {
	if source == nil {
		return 0, r3.Vec{}
	}
	delta := r3.Sub(*source, listener)
	distance := r3.Norm(delta)
	if distance == 0 {
		return 0, r3.Vec{}
	}
	return distance, r3.Scale(1/distance, delta)
}

// Displacement returns source minus listener, or zero for a nil source.
func Displacement(source *r3.Vec, listener r3.Vec) r3.Vec {
	if source == nil {
		return r3.Vec{}
	}
	return r3.Sub(*source, listener)
}

// AzimuthElevation returns the source angles relative to the listener facing.
// Azimuth uses atan2(dx, dz) minus yaw, wrapped into [-180, 180].
// Elevation is atan2(dy, horizontal distance) minus pitch and is not wrapped.
func AzimuthElevation(direction r3.Vec, yawDeg, pitchDeg float64) (azimuth, elevation float64) {
	azimuth = NormalizeAzimuth(Degrees(math.Atan2(direction.X, direction.Z)) - yawDeg)
	horizontal := math.Hypot(direction.X, direction.Z)
	elevation = Degrees(math.Atan2(direction.Y, horizontal)) - pitchDeg
	return azimuth, elevation
}

// NormalizeAzimuth wraps an angle into [-180, 180] by adding or subtracting
// 360 until in range. Exactly ±180 is left untouched.
func NormalizeAzimuth(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return deg
	}
	for deg > 180 {
		deg -= 360
	}
	for deg < -180 {
		deg += 360
	}
	return deg
}

// RelativeAngle returns the horizontal angle to the source in radians
// relative to the listener yaw. The result is not wrapped.
func RelativeAngle(direction r3.Vec, yawDeg float64) float64 {
	return math.Atan2(direction.X, direction.Z) - Radians(yawDeg)
}

// Attenuate applies linear distance falloff and, past OcclusionDistance,
// an occlusion loss of (1-occlusion)*penalty.
func Attenuate(volumeDB, distance, falloff, occlusion, penalty float64) float64 {
	attenuated := volumeDB - distance*falloff
	if distance > OcclusionDistance {
		attenuated -= (1 - occlusion) * penalty
	}
	return attenuated
}

// DBToLinearGain converts decibels to a linear amplitude clamped to [0, 1].
func DBToLinearGain(db float64) float64 {
	return clamp(math.Pow(10, db/20), 0, 1)
}

// Pan is a cheap stereo pan in [-1, 1] (left to right), not an HRTF.
func Pan(relativeAzimuthRad float64) float64 {
	return math.Sin(relativeAzimuthRad)
}

// UnitSpherePosition converts azimuth/elevation to a point on the unit sphere.
func UnitSpherePosition(azimuthDeg, elevationDeg float64) r3.Vec {
	az := Radians(azimuthDeg)
	el := Radians(elevationDeg)
	return r3.Vec{
		X: math.Cos(el) * math.Sin(az),
		Y: math.Sin(el),
		Z: math.Cos(el) * math.Cos(az),
	}
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
