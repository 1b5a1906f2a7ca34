// Copyright (C) 2025 The Geocoding Authors.

package geodata

import "encoding/binary"

// On-disk widths of the string fields (§3.2). VoieNameSize is also the
// ingestion cap of §4.1; a commune name longer than CommuneNameSize is
// not dropped at ingestion but is truncated when stored.
const (
	DepartmentNameSize = 3
	InseeSize          = 5
	CommuneNameSize    = 64
	VoieNameSize       = 48
	SuffixSize         = 2
)

func putString(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	n := copy(dst, s)
	_ = n
}

func getString(src []byte) string {
	n := 0
	for n < len(src) && src[n] != 0 {
		n++
	}
	return string(src[:n])
}

// Department is one row of the Department table: a department name and the
// half-open [PostalStart, PostalEnd) slice into the Postal table.
type Department struct {
	Name        string
	PostalStart uint32
	PostalEnd   uint32
}

// DepartmentRecordSize is the fixed on-disk width of a Department row.
const DepartmentRecordSize = DepartmentNameSize + 4 + 4

func (d Department) Marshal(buf []byte) {
	putString(buf[0:DepartmentNameSize], d.Name)
	off := DepartmentNameSize
	binary.LittleEndian.PutUint32(buf[off:], d.PostalStart)
	binary.LittleEndian.PutUint32(buf[off+4:], d.PostalEnd)
}

func UnmarshalDepartment(buf []byte) Department {
	off := DepartmentNameSize
	return Department{
		Name:        getString(buf[0:DepartmentNameSize]),
		PostalStart: binary.LittleEndian.Uint32(buf[off:]),
		PostalEnd:   binary.LittleEndian.Uint32(buf[off+4:]),
	}
}

// Postal is one row of the Postal table: a postal code and the half-open
// [CommuneStart, CommuneEnd) slice into the Commune table.
type Postal struct {
	Code         uint32
	CommuneStart uint32
	CommuneEnd   uint32
	DeptID       uint32
}

const PostalRecordSize = 4 + 4 + 4 + 4

func (p Postal) Marshal(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:], p.Code)
	binary.LittleEndian.PutUint32(buf[4:], p.CommuneStart)
	binary.LittleEndian.PutUint32(buf[8:], p.CommuneEnd)
	binary.LittleEndian.PutUint32(buf[12:], p.DeptID)
}

func UnmarshalPostal(buf []byte) Postal {
	return Postal{
		Code:         binary.LittleEndian.Uint32(buf[0:]),
		CommuneStart: binary.LittleEndian.Uint32(buf[4:]),
		CommuneEnd:   binary.LittleEndian.Uint32(buf[8:]),
		DeptID:       binary.LittleEndian.Uint32(buf[12:]),
	}
}

// Commune is one row of the Commune table.
type Commune struct {
	NameNormalized string
	NameDisplay    string
	Insee          string
	LonMean        int32
	LatMean        int32
	VoieStart      uint32
	VoieEnd        uint32
	PostalID       uint32
}

const CommuneRecordSize = CommuneNameSize + CommuneNameSize + InseeSize + 4 + 4 + 4 + 4 + 4

func (c Commune) Marshal(buf []byte) {
	off := 0
	putString(buf[off:off+CommuneNameSize], c.NameNormalized)
	off += CommuneNameSize
	putString(buf[off:off+CommuneNameSize], c.NameDisplay)
	off += CommuneNameSize
	putString(buf[off:off+InseeSize], c.Insee)
	off += InseeSize
	binary.LittleEndian.PutUint32(buf[off:], uint32(c.LonMean))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(c.LatMean))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], c.VoieStart)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], c.VoieEnd)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], c.PostalID)
}

func UnmarshalCommune(buf []byte) Commune {
	off := 0
	nameNorm := getString(buf[off : off+CommuneNameSize])
	off += CommuneNameSize
	nameDisp := getString(buf[off : off+CommuneNameSize])
	off += CommuneNameSize
	insee := getString(buf[off : off+InseeSize])
	off += InseeSize
	lon := int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	lat := int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	voieStart := binary.LittleEndian.Uint32(buf[off:])
	off += 4
	voieEnd := binary.LittleEndian.Uint32(buf[off:])
	off += 4
	postalID := binary.LittleEndian.Uint32(buf[off:])
	return Commune{
		NameNormalized: nameNorm,
		NameDisplay:    nameDisp,
		Insee:          insee,
		LonMean:        lon,
		LatMean:        lat,
		VoieStart:      voieStart,
		VoieEnd:        voieEnd,
		PostalID:       postalID,
	}
}

// Voie is one row of the Voie (street/lieu-dit) table.
type Voie struct {
	NameNormalized string
	NameDisplay    string
	LonMean        int32
	LatMean        int32
	LocStart       uint32
	LocEnd         uint32
	CommuneID      uint32
}

const VoieRecordSize = VoieNameSize + VoieNameSize + 4 + 4 + 4 + 4 + 4

func (v Voie) Marshal(buf []byte) {
	off := 0
	putString(buf[off:off+VoieNameSize], v.NameNormalized)
	off += VoieNameSize
	putString(buf[off:off+VoieNameSize], v.NameDisplay)
	off += VoieNameSize
	binary.LittleEndian.PutUint32(buf[off:], uint32(v.LonMean))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(v.LatMean))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], v.LocStart)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], v.LocEnd)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], v.CommuneID)
}

func UnmarshalVoie(buf []byte) Voie {
	off := 0
	nameNorm := getString(buf[off : off+VoieNameSize])
	off += VoieNameSize
	nameDisp := getString(buf[off : off+VoieNameSize])
	off += VoieNameSize
	lon := int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	lat := int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	locStart := binary.LittleEndian.Uint32(buf[off:])
	off += 4
	locEnd := binary.LittleEndian.Uint32(buf[off:])
	off += 4
	communeID := binary.LittleEndian.Uint32(buf[off:])
	return Voie{
		NameNormalized: nameNorm,
		NameDisplay:    nameDisp,
		LonMean:        lon,
		LatMean:        lat,
		LocStart:       locStart,
		LocEnd:         locEnd,
		CommuneID:      communeID,
	}
}

// Localisation is one row of the Localisation table: a single geocoded
// point (a house number on a Voie, or a lieu-dit centroid with Number=0,
// Suffix="").
type Localisation struct {
	Number    uint32
	Suffix    string
	Longitude int32
	Latitude  int32
	VoieID    uint32
}

const LocalisationRecordSize = 4 + SuffixSize + 4 + 4 + 4

func (l Localisation) Marshal(buf []byte) {
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], l.Number)
	off += 4
	putString(buf[off:off+SuffixSize], l.Suffix)
	off += SuffixSize
	binary.LittleEndian.PutUint32(buf[off:], uint32(l.Longitude))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(l.Latitude))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], l.VoieID)
}

func UnmarshalLocalisation(buf []byte) Localisation {
	off := 0
	number := binary.LittleEndian.Uint32(buf[off:])
	off += 4
	suffix := getString(buf[off : off+SuffixSize])
	off += SuffixSize
	lon := int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	lat := int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	voieID := binary.LittleEndian.Uint32(buf[off:])
	return Localisation{
		Number:    number,
		Suffix:    suffix,
		Longitude: lon,
		Latitude:  lat,
		VoieID:    voieID,
	}
}
