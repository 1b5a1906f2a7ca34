// Copyright (C) 2025 The Geocoding Authors.

// Package banformat parses the two CSV line kinds distributed in a BAN
// department archive into a single typed Record, dropping any row that
// fails parsing or bounds checking rather than surfacing it as an error:
// malformed input rows are expected in bulk open data and are not a
// structural failure of the pipeline.
package banformat

import (
	"strconv"
	"strings"

	"github.com/adimajo/geocoding/lib/geodata"
	"github.com/adimajo/geocoding/lib/normalize"
)

// Kind distinguishes the two BAN CSV file shapes.
type Kind int

const (
	// KindAdresse is a full street+house-number file, "adresses-XX.csv".
	KindAdresse Kind = iota
	// KindLieuDit is a named-place file with no house numbers,
	// "lieux-dits-XX-beta.csv".
	KindLieuDit
)

// DetectKind classifies a decompressed BAN CSV by its filename.
func DetectKind(filename string) (Kind, bool) {
	base := filename
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	switch {
	case strings.HasPrefix(base, "adresses-"):
		return KindAdresse, true
	case strings.HasPrefix(base, "lieux-dits-"):
		return KindLieuDit, true
	default:
		return 0, false
	}
}

// DeptFromFilename extracts the department code embedded in a BAN CSV
// filename ("adresses-01.csv" -> "01", "lieux-dits-2A-beta.csv" -> "2A"),
// per §6's department code grammar.
func DeptFromFilename(filename string) (string, bool) {
	base := filename
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, ".csv")

	switch {
	case strings.HasPrefix(base, "adresses-"):
		return strings.TrimPrefix(base, "adresses-"), true
	case strings.HasPrefix(base, "lieux-dits-"):
		rest := strings.TrimPrefix(base, "lieux-dits-")
		rest = strings.TrimSuffix(rest, "-beta")
		return rest, true
	default:
		return "", false
	}
}

// columns holds the 0-based column indices used by one CSV kind, per
// spec §6.
type columns struct {
	numero     int
	repetition int
	nomVoie    int
	codePostal int
	codeInsee  int
	nomCommune int
	longitude  int
	latitude   int
	hasNumero  bool
}

var columnMaps = map[Kind]columns{
	KindAdresse: {
		numero: 2, repetition: 3, nomVoie: 4, codePostal: 5, codeInsee: 6,
		nomCommune: 7, longitude: 12, latitude: 13, hasNumero: true,
	},
	KindLieuDit: {
		nomVoie: 1, codePostal: 2, codeInsee: 3, nomCommune: 4,
		longitude: 9, latitude: 10, hasNumero: false,
	},
}

// Record is one parsed, normalized BAN row: a candidate Localisation
// together with the postal/commune/voie keys it hangs off of.
type Record struct {
	Postal      uint32
	CommuneNorm string
	CommuneDisp string
	Insee       string
	VoieNorm    string
	VoieDisp    string
	Number      uint32
	Suffix      string
	Lon         int32
	Lat         int32
}

// maxVoieNameLen is the normalized-street-name size cap (§4.1); rows whose
// normalized voie name exceeds it are dropped.
const maxVoieNameLen = geodata.VoieNameSize

// ParseLine parses one semicolon-delimited row of the given kind. It
// returns ok=false if the row fails any of: column count, numeric
// parsing of postal/longitude/latitude, an empty or over-cap street
// name, or out-of-range coordinates.
func ParseLine(kind Kind, fields []string) (Record, bool) {
	cols, ok := columnMaps[kind]
	if !ok {
		return Record{}, false
	}

	need := cols.nomCommune
	for _, c := range []int{cols.nomVoie, cols.codePostal, cols.codeInsee, cols.longitude, cols.latitude} {
		if c > need {
			need = c
		}
	}
	if len(fields) <= need {
		return Record{}, false
	}

	postal, err := strconv.ParseUint(strings.TrimSpace(fields[cols.codePostal]), 10, 32)
	if err != nil {
		return Record{}, false
	}

	lonDeg, err := strconv.ParseFloat(strings.TrimSpace(fields[cols.longitude]), 64)
	if err != nil {
		return Record{}, false
	}
	latDeg, err := strconv.ParseFloat(strings.TrimSpace(fields[cols.latitude]), 64)
	if err != nil {
		return Record{}, false
	}

	lon := geodata.ToFixed(lonDeg)
	lat := geodata.ToFixed(latDeg)
	if !geodata.InBoundsFixed(lon, lat) {
		return Record{}, false
	}

	rawVoie := fields[cols.nomVoie]
	voieNorm := normalize.UniformAdresse(rawVoie)
	voieDisp := normalize.Display(rawVoie)
	if voieNorm == "" || len(voieNorm) > maxVoieNameLen {
		return Record{}, false
	}

	communeRaw := fields[cols.nomCommune]
	communeNorm := normalize.UniformCommune(communeRaw)
	communeDisp := normalize.Display(communeRaw)

	insee := strings.TrimSpace(fields[cols.codeInsee])

	var number uint32
	var suffix string
	if cols.hasNumero {
		n, ok := parseNumero(fields[cols.numero])
		if !ok {
			return Record{}, false
		}
		number = n
		if cols.repetition < len(fields) {
			suffix = repetitionSuffix(fields[cols.repetition])
		}
	}

	return Record{
		Postal:      uint32(postal),
		CommuneNorm: communeNorm,
		CommuneDisp: communeDisp,
		Insee:       insee,
		VoieNorm:    voieNorm,
		VoieDisp:    voieDisp,
		Number:      number,
		Suffix:      suffix,
		Lon:         lon,
		Lat:         lat,
	}, true
}

// parseNumero parses the numero column, which in a well-formed BAN row
// is a bare decimal integer. An empty field coerces to 0, matching the
// lieu-dit convention (§9's "number parsing ambiguity" note); a
// non-empty, non-numeric field is a parse failure and drops the row.
func parseNumero(s string) (uint32, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// repetitionSuffix canonicalizes the BAN "repetition" column ("bis",
// "ter", "B", a blank field, ...) to the single-letter suffix stored on
// a Localisation row.
func repetitionSuffix(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "", "0":
		return ""
	case "BIS":
		return "B"
	case "TER":
		return "T"
	}
	if len(s) > geodata.SuffixSize {
		s = s[:geodata.SuffixSize]
	}
	return s
}
