// Copyright (C) 2025 The Geocoding Authors.

// Package search implements forward search: resolving a (postal code,
// city, address) triple to a coordinate and a quality code by
// descending the Postal -> Commune -> Voie -> Localisation hierarchy,
// with fuzzy fallback at the Commune and Voie levels (§4.5).
package search

import (
	"math"
	"strconv"
	"strings"

	"github.com/adimajo/geocoding/lib/geodata"
	"github.com/adimajo/geocoding/lib/normalize"
	"github.com/adimajo/geocoding/lib/store"
)

// Quality codes, per §4.5.
const (
	QualityExactAddress  = 1
	QualityStreetNoNum   = 2
	QualityStreetNoInput = 3
	QualityCommune       = 4
	QualityPostalOnly    = 5
	QualityNotFound      = 6
)

// Result is the outcome of a Find call.
type Result struct {
	Longitude float64
	Latitude  float64
	Quality   int
	Commune   string
	Voie      string
}

// Find never fails: every code path returns a Result, with
// Quality == QualityNotFound and NaN coordinates standing in for "no
// match" (§4.5's failure semantics, §7's "Lookup miss" error kind).
func Find(db *store.Database, postal, city, address string) Result {
	code, err := strconv.ParseUint(strings.TrimSpace(postal), 10, 32)
	if err != nil {
		return notFound()
	}

	postalRow, ok := findPostal(db, uint32(code))
	if !ok {
		return notFound()
	}
	p := db.Postal(postalRow)

	communeRow, ok := findCommune(db, p, city)
	if !ok {
		first := db.Commune(int(p.CommuneStart))
		return Result{
			Longitude: geodata.ToDegrees(first.LonMean),
			Latitude:  geodata.ToDegrees(first.LatMean),
			Quality:   QualityPostalOnly,
			Commune:   first.NameDisplay,
		}
	}
	c := db.Commune(communeRow)

	voieRow, ok := findVoie(db, c, address)
	if !ok {
		return Result{
			Longitude: geodata.ToDegrees(c.LonMean),
			Latitude:  geodata.ToDegrees(c.LatMean),
			Quality:   QualityCommune,
			Commune:   c.NameDisplay,
		}
	}
	v := db.Voie(voieRow)

	number, suffix, hasNumber := extractNumber(address)
	if !hasNumber {
		return Result{
			Longitude: geodata.ToDegrees(v.LonMean),
			Latitude:  geodata.ToDegrees(v.LatMean),
			Quality:   QualityStreetNoInput,
			Commune:   c.NameDisplay,
			Voie:      v.NameDisplay,
		}
	}

	locRow, ok := findLocalisation(db, v, number, suffix)
	if !ok {
		return Result{
			Longitude: geodata.ToDegrees(v.LonMean),
			Latitude:  geodata.ToDegrees(v.LatMean),
			Quality:   QualityStreetNoNum,
			Commune:   c.NameDisplay,
			Voie:      v.NameDisplay,
		}
	}
	loc := db.Localisation(locRow)

	return Result{
		Longitude: geodata.ToDegrees(loc.Longitude),
		Latitude:  geodata.ToDegrees(loc.Latitude),
		Quality:   QualityExactAddress,
		Commune:   c.NameDisplay,
		Voie:      v.NameDisplay,
	}
}

func notFound() Result {
	return Result{Longitude: math.NaN(), Latitude: math.NaN(), Quality: QualityNotFound}
}

// findPostal binary-searches the global Postal sort index for code.
func findPostal(db *store.Database, code uint32) (row int, ok bool) {
	n := db.NumPostalIndex()
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		r := int(db.PostalIndex(mid))
		if db.Postal(r).Code < code {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < n {
		r := int(db.PostalIndex(lo))
		if db.Postal(r).Code == code {
			return r, true
		}
	}
	return 0, false
}

// findCommune resolves city within p's commune slice, which the
// Builder guarantees is already sorted by name: exact match first,
// then the best fuzzy match at or above acceptThreshold.
func findCommune(db *store.Database, p geodata.Postal, city string) (int, bool) {
	start, end := int(p.CommuneStart), int(p.CommuneEnd)
	if city == "" {
		// No city given: §4.5 step 2's uniform_commune("") key matches
		// nothing, so this is always the quality-5 boundary case.
		return 0, false
	}
	key := normalize.UniformCommune(city)

	if row, ok := binarySearchByName(start, end, key, func(i int) string { return db.Commune(i).NameNormalized }); ok {
		return row, true
	}

	names := make([]string, end-start)
	for i := start; i < end; i++ {
		names[i-start] = db.Commune(i).NameNormalized
	}
	idx, ok := bestMatch(key, names)
	if !ok {
		return 0, false
	}
	return start + idx, true
}

// findVoie resolves address within c's voie slice the same way
// findCommune resolves city within a commune slice.
func findVoie(db *store.Database, c geodata.Commune, address string) (int, bool) {
	start, end := int(c.VoieStart), int(c.VoieEnd)
	if address == "" {
		return 0, false
	}
	key := normalize.UniformAdresse(address)
	if key == "" {
		return 0, false
	}

	if row, ok := binarySearchByName(start, end, key, func(i int) string { return db.Voie(i).NameNormalized }); ok {
		return row, true
	}

	names := make([]string, end-start)
	for i := start; i < end; i++ {
		names[i-start] = db.Voie(i).NameNormalized
	}
	idx, ok := bestMatch(key, names)
	if !ok {
		return 0, false
	}
	return start + idx, true
}

// findLocalisation resolves (number, suffix) within v's localisation
// slice, also kept sorted by the Builder.
func findLocalisation(db *store.Database, v geodata.Voie, number uint32, suffix string) (int, bool) {
	start, end := int(v.LocStart), int(v.LocEnd)
	lo, hi := start, end
	for lo < hi {
		mid := (lo + hi) / 2
		loc := db.Localisation(mid)
		if less := loc.Number < number || (loc.Number == number && loc.Suffix < suffix); less {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < end {
		loc := db.Localisation(lo)
		if loc.Number == number && loc.Suffix == suffix {
			return lo, true
		}
	}
	return 0, false
}

// binarySearchByName finds the exact match for key among [start, end)
// via at(i), assuming that range is sorted ascending by at's result.
func binarySearchByName(start, end int, key string, at func(i int) string) (int, bool) {
	lo, hi := start, end
	for lo < hi {
		mid := (lo + hi) / 2
		if at(mid) < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < end && at(lo) == key {
		return lo, true
	}
	return 0, false
}

// extractNumber pulls the leading house number out of a raw address
// string (§4.5 step 4), with suffix "B" or "T" when the token right after
// it is "BIS" or "TER". No other suffix is recognized: a bare letter token
// after the number is ignored, and a letter attached to the number
// ("12B") makes the address report no number at all.
func extractNumber(address string) (number uint32, suffix string, ok bool) {
	tokens := strings.Fields(address)
	if len(tokens) == 0 {
		return 0, "", false
	}
	head := strings.TrimSuffix(tokens[0], ",")
	if !isAllDigits(head) {
		return 0, "", false
	}
	n, err := strconv.ParseUint(head, 10, 32)
	if err != nil {
		return 0, "", false
	}
	if len(tokens) > 1 {
		switch strings.ToUpper(strings.TrimSuffix(tokens[1], ",")) {
		case "BIS":
			suffix = "B"
		case "TER":
			suffix = "T"
		}
	}
	return uint32(n), suffix, true
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
