// Copyright (C) 2025 The Geocoding Authors.

// Package normalize folds raw French address text into the canonical forms
// used for hash-equality and approximate comparison throughout the
// geocoder: Uniform, UniformCommune, and UniformAdresse, plus the
// RemoveSeparators helper used to build display strings.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// communeStopwords are dropped as whole tokens by UniformCommune.
var communeStopwords = map[string]bool{
	"SAINT": true, "SAINTE": true, "ST": true, "STE": true,
	"LE": true, "LA": true, "LES": true,
	"DE": true, "DU": true, "DES": true, "D": true, "L": true,
	"SUR": true, "SOUS": true, "EN": true, "AUX": true,
}

// streetTypePrefixes collapses common street-type words to a short
// canonical abbreviation (one to three letters), applied to the first
// remaining token of UniformAdresse.
var streetTypePrefixes = map[string]string{
	"RUE":       "R",
	"AVENUE":    "AV",
	"BOULEVARD": "BD",
	"PLACE":     "PL",
	"CHEMIN":    "CH",
	"ROUTE":     "RT",
	"ALLEE":     "AL",
	"IMPASSE":   "IMP",
}

// Uniform case-folds s to upper case, strips diacritics via NFD
// decomposition followed by dropping combining marks, replaces any run of
// characters that is neither an ASCII letter nor a digit with a single
// space, and trims the result.
func Uniform(s string) string {
	decomposed := norm.NFD.String(s)

	var stripped strings.Builder
	stripped.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		stripped.WriteRune(r)
	}

	upper := strings.ToUpper(stripped.String())

	var out strings.Builder
	out.Grow(len(upper))
	inRun := false
	for _, r := range upper {
		if isAlnumASCII(r) {
			out.WriteRune(r)
			inRun = false
			continue
		}
		if !inRun {
			out.WriteByte(' ')
			inRun = true
		}
	}

	return strings.TrimSpace(out.String())
}

func isAlnumASCII(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
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

// UniformCommune applies Uniform, then drops stopwords ("SAINT", "LE",
// "DE", ...) that appear as whole tokens. A commune whose name consists
// only of stopword tokens is left unchanged by Uniform, since dropping
// everything would discard the only information available.
func UniformCommune(s string) string {
	u := Uniform(s)
	tokens := strings.Fields(u)

	kept := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !communeStopwords[t] {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return u
	}
	return strings.Join(kept, " ")
}

// UniformAdresse applies Uniform, strips a leading house-number token,
// collapses a leading street-type word ("RUE", "AVENUE", ...) to its
// short canonical form ("R", "AV", ...), and collapses a trailing "BIS"/"TER" token
// to "B"/"T".
func UniformAdresse(s string) string {
	tokens := strings.Fields(Uniform(s))

	if len(tokens) > 0 && isAllDigits(tokens[0]) {
		tokens = tokens[1:]
	}

	if len(tokens) > 0 {
		if canon, ok := streetTypePrefixes[tokens[0]]; ok {
			tokens[0] = canon
		}
	}

	if n := len(tokens); n > 0 {
		switch tokens[n-1] {
		case "BIS":
			tokens[n-1] = "B"
		case "TER":
			tokens[n-1] = "T"
		}
	}

	return strings.Join(tokens, " ")
}

// RemoveSeparators collapses any run of whitespace in s to a single space
// and trims the result. Applied to the output of Uniform it is idempotent,
// and Display relies on exactly that to build the output form used in
// query results.
func RemoveSeparators(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Display builds the display form used in query outputs: the upper-case,
// diacritic-stripped form of s without the lexical canonicalization that
// UniformCommune/UniformAdresse apply.
func Display(s string) string {
	return RemoveSeparators(Uniform(s))
}
