// Copyright (C) 2025 The Geocoding Authors.

// Package geodata defines the on-disk record layout of the five-table BAN
// hierarchy (Department, Postal, Commune, Voie, Localisation): fixed-point
// coordinates, French bounds checking, and the fixed-width binary encoding
// of each table row. It does not read or write files itself — that is
// lib/store's job — it only knows how to turn a row into bytes and back.
package geodata

import "math"

// FixedScale is the fixed-point scale applied to degrees: stored values are
// round(degrees * FixedScale).
const FixedScale = 1e7

// French bounds (metropolitan + overseas), in degrees.
const (
	MinLon = -62.0
	MaxLon = 55.0
	MinLat = -22.0
	MaxLat = 52.0
)

// ToFixed converts a floating-point degree value to its fixed-point int32
// representation.
func ToFixed(degrees float64) int32 {
	return int32(math.Round(degrees * FixedScale))
}

// ToDegrees converts a fixed-point int32 back to floating-point degrees.
func ToDegrees(fixed int32) float64 {
	return float64(fixed) / FixedScale
}

// InBoundsFixed reports whether the given fixed-point lon/lat pair lies
// within French bounds.
func InBoundsFixed(lon, lat int32) bool {
	lonDeg, latDeg := ToDegrees(lon), ToDegrees(lat)
	return lonDeg >= MinLon && lonDeg <= MaxLon && latDeg >= MinLat && latDeg <= MaxLat
}

// MeanFixed computes the integer arithmetic mean of a set of fixed-point
// values, matching the Python original's int(np.mean(...)).
func MeanFixed(values []int32) int32 {
	if len(values) == 0 {
		return 0
	}
	var sum int64
	for _, v := range values {
		sum += int64(v)
	}
	return int32(sum / int64(len(values)))
}
