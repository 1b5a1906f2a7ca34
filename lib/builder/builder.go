// Copyright (C) 2025 The Geocoding Authors.

// Package builder aggregates banformat.Records into the five-table BAN
// hierarchy (Department, Postal, Commune, Voie, Localisation) plus the
// sort indices used by forward search, via a four-level nested map kept
// sorted by key at each level, the way the distilled pipeline's
// ban_processing.py aggregation stage works, re-expressed without
// process-level global state (§9's "Global mutable state" note).
package builder

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/adimajo/geocoding/lib/banformat"
	"github.com/adimajo/geocoding/lib/geodata"
	"github.com/adimajo/geocoding/lib/logger"
)

var l = logger.DefaultLogger

type locKey struct {
	number uint32
	suffix string
	lon    int32
	lat    int32
}

type voieAgg struct {
	disp string
	locs map[locKey]struct{}
}

type communeAgg struct {
	disp  string
	insee string
	voies map[string]*voieAgg
}

type postalAgg struct {
	communes map[string]*communeAgg
}

type deptAgg struct {
	postals map[uint32]*postalAgg
}

// Builder accumulates banformat.Records, grouped by department, into the
// nested structure described in the package doc. It is not safe for
// concurrent use: ingestion is a single-threaded build-time step (§5).
type Builder struct {
	depts map[string]*deptAgg
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{depts: make(map[string]*deptAgg)}
}

// Ingest folds every record in recs into the aggregation tree under the
// given department name (e.g. "01", "2A", "971"). Duplicate
// localisations at the same (voie, number, suffix, lon, lat) are
// deduplicated at the leaf.
func (b *Builder) Ingest(dept string, recs []banformat.Record) {
	da, ok := b.depts[dept]
	if !ok {
		da = &deptAgg{postals: make(map[uint32]*postalAgg)}
		b.depts[dept] = da
	}

	for _, rec := range recs {
		pa, ok := da.postals[rec.Postal]
		if !ok {
			pa = &postalAgg{communes: make(map[string]*communeAgg)}
			da.postals[rec.Postal] = pa
		}

		ca, ok := pa.communes[rec.CommuneNorm]
		if !ok {
			ca = &communeAgg{disp: rec.CommuneDisp, insee: rec.Insee, voies: make(map[string]*voieAgg)}
			pa.communes[rec.CommuneNorm] = ca
		}

		va, ok := ca.voies[rec.VoieNorm]
		if !ok {
			va = &voieAgg{disp: rec.VoieDisp, locs: make(map[locKey]struct{})}
			ca.voies[rec.VoieNorm] = va
		}

		va.locs[locKey{number: rec.Number, suffix: rec.Suffix, lon: rec.Lon, lat: rec.Lat}] = struct{}{}
	}
}

// Database is the in-memory result of a Build: the five tables in
// pre-order traversal order, plus the three sort-index permutations
// (over Postal/Commune/Voie) used by forward search's binary search.
type Database struct {
	Departments []geodata.Department
	Postals     []geodata.Postal
	Communes    []geodata.Commune
	Voies       []geodata.Voie
	Locs        []geodata.Localisation

	PostalIndex  []uint32
	CommuneIndex []uint32
	VoieIndex    []uint32
}

// Build performs the single pre-order traversal described in §4.3: every
// level is visited in sorted-key order, contiguous child slices are
// assigned, and mean coordinates are computed ascending from
// Localisation to Voie to Commune. It fails only if no records were
// ever ingested (§7's "Empty build output" error kind).
func (b *Builder) Build() (*Database, error) {
	db := &Database{}

	deptNames := make([]string, 0, len(b.depts))
	for name := range b.depts {
		deptNames = append(deptNames, name)
	}
	sort.Strings(deptNames)

	for _, deptName := range deptNames {
		da := b.depts[deptName]

		postalCodes := make([]uint32, 0, len(da.postals))
		for code := range da.postals {
			postalCodes = append(postalCodes, code)
		}
		sort.Slice(postalCodes, func(i, j int) bool { return postalCodes[i] < postalCodes[j] })

		postalStart := uint32(len(db.Postals))
		for _, code := range postalCodes {
			pa := da.postals[code]

			communeNorms := make([]string, 0, len(pa.communes))
			for norm := range pa.communes {
				communeNorms = append(communeNorms, norm)
			}
			sort.Strings(communeNorms)

			communeStart := uint32(len(db.Communes))
			for _, communeNorm := range communeNorms {
				ca := pa.communes[communeNorm]

				voieNorms := make([]string, 0, len(ca.voies))
				for norm := range ca.voies {
					voieNorms = append(voieNorms, norm)
				}
				sort.Strings(voieNorms)

				voieStart := uint32(len(db.Voies))
				for _, voieNorm := range voieNorms {
					va := ca.voies[voieNorm]

					keys := make([]locKey, 0, len(va.locs))
					for k := range va.locs {
						keys = append(keys, k)
					}
					sort.Slice(keys, func(i, j int) bool {
						if keys[i].number != keys[j].number {
							return keys[i].number < keys[j].number
						}
						return keys[i].suffix < keys[j].suffix
					})

					locStart := uint32(len(db.Locs))
					lons := make([]int32, 0, len(keys))
					lats := make([]int32, 0, len(keys))
					voieID := uint32(len(db.Voies))
					for _, k := range keys {
						db.Locs = append(db.Locs, geodata.Localisation{
							Number:    k.number,
							Suffix:    k.suffix,
							Longitude: k.lon,
							Latitude:  k.lat,
							VoieID:    voieID,
						})
						lons = append(lons, k.lon)
						lats = append(lats, k.lat)
					}
					locEnd := uint32(len(db.Locs))

					db.Voies = append(db.Voies, geodata.Voie{
						NameNormalized: voieNorm,
						NameDisplay:    va.disp,
						LonMean:        geodata.MeanFixed(lons),
						LatMean:        geodata.MeanFixed(lats),
						LocStart:       locStart,
						LocEnd:         locEnd,
						CommuneID:      uint32(len(db.Communes)),
					})
				}
				voieEnd := uint32(len(db.Voies))

				voieLons := make([]int32, 0, voieEnd-voieStart)
				voieLats := make([]int32, 0, voieEnd-voieStart)
				for _, v := range db.Voies[voieStart:voieEnd] {
					voieLons = append(voieLons, v.LonMean)
					voieLats = append(voieLats, v.LatMean)
				}

				db.Communes = append(db.Communes, geodata.Commune{
					NameNormalized: communeNorm,
					NameDisplay:    ca.disp,
					Insee:          ca.insee,
					LonMean:        geodata.MeanFixed(voieLons),
					LatMean:        geodata.MeanFixed(voieLats),
					VoieStart:      voieStart,
					VoieEnd:        voieEnd,
					PostalID:       uint32(len(db.Postals)),
				})
			}
			communeEnd := uint32(len(db.Communes))

			db.Postals = append(db.Postals, geodata.Postal{
				Code:         code,
				CommuneStart: communeStart,
				CommuneEnd:   communeEnd,
				DeptID:       uint32(len(db.Departments)),
			})
		}
		postalEnd := uint32(len(db.Postals))

		db.Departments = append(db.Departments, geodata.Department{
			Name:        deptName,
			PostalStart: postalStart,
			PostalEnd:   postalEnd,
		})
	}

	if len(db.Locs) == 0 {
		return nil, errors.New("builder: no records ingested, refusing to write an empty database")
	}

	db.PostalIndex = sortIndex(len(db.Postals), func(i, j int) bool { return db.Postals[i].Code < db.Postals[j].Code })
	db.CommuneIndex = sortIndex(len(db.Communes), func(i, j int) bool {
		return db.Communes[i].NameNormalized < db.Communes[j].NameNormalized
	})
	db.VoieIndex = sortIndex(len(db.Voies), func(i, j int) bool {
		return db.Voies[i].NameNormalized < db.Voies[j].NameNormalized
	})

	l.Infof("builder: built %d departments, %d postals, %d communes, %d voies, %d localisations",
		len(db.Departments), len(db.Postals), len(db.Communes), len(db.Voies), len(db.Locs))

	return db, nil
}

// sortIndex stable-sorts [0, n) by less, the permutation required by
// §4.3 and tested as a round-trip-to-[0,N) invariant in §8.
func sortIndex(n int, less func(i, j int) bool) []uint32 {
	idx := make([]uint32, n)
	for i := range idx {
		idx[i] = uint32(i)
	}
	sort.SliceStable(idx, func(i, j int) bool { return less(int(idx[i]), int(idx[j])) })
	return idx
}
