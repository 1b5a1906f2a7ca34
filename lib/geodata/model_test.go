// Copyright (C) 2025 The Geocoding Authors.

package geodata

import "testing"

func TestFixedPointRoundTrip(t *testing.T) {
	cases := []float64{5.3876, -1.2345, 45.98, 0, -62, 55}
	for _, deg := range cases {
		fixed := ToFixed(deg)
		back := ToDegrees(fixed)
		if diff := back - deg; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("ToDegrees(ToFixed(%v)) = %v, want ~%v", deg, back, deg)
		}
	}
}

func TestInBoundsFixed(t *testing.T) {
	if !InBoundsFixed(ToFixed(2.35), ToFixed(48.85)) {
		t.Errorf("Paris coordinates should be in bounds")
	}
	if InBoundsFixed(ToFixed(200), ToFixed(48.85)) {
		t.Errorf("out-of-range longitude should not be in bounds")
	}
}

func TestMeanFixed(t *testing.T) {
	if got, want := MeanFixed(nil), int32(0); got != want {
		t.Errorf("MeanFixed(nil) = %d, want %d", got, want)
	}
	vals := []int32{10, 20, 30}
	if got, want := MeanFixed(vals), int32(20); got != want {
		t.Errorf("MeanFixed(%v) = %d, want %d", vals, got, want)
	}
}

func TestDepartmentRoundTrip(t *testing.T) {
	d := Department{Name: "01", PostalStart: 3, PostalEnd: 17}
	buf := make([]byte, DepartmentRecordSize)
	d.Marshal(buf)
	got := UnmarshalDepartment(buf)
	if got != d {
		t.Errorf("Department round trip = %+v, want %+v", got, d)
	}
}

func TestPostalRoundTrip(t *testing.T) {
	p := Postal{Code: 1500, CommuneStart: 4, CommuneEnd: 9, DeptID: 2}
	buf := make([]byte, PostalRecordSize)
	p.Marshal(buf)
	if got := UnmarshalPostal(buf); got != p {
		t.Errorf("Postal round trip = %+v, want %+v", got, p)
	}
}

func TestCommuneRoundTrip(t *testing.T) {
	c := Commune{
		NameNormalized: "AMBERIEU EN BUGEY",
		NameDisplay:    "AMBERIEU EN BUGEY",
		Insee:          "01004",
		LonMean:        ToFixed(5.3876),
		LatMean:        ToFixed(45.9607),
		VoieStart:      100,
		VoieEnd:        220,
		PostalID:       7,
	}
	buf := make([]byte, CommuneRecordSize)
	c.Marshal(buf)
	if got := UnmarshalCommune(buf); got != c {
		t.Errorf("Commune round trip = %+v, want %+v", got, c)
	}
}

func TestVoieRoundTrip(t *testing.T) {
	v := Voie{
		NameNormalized: "R PROFESSEUR CHRISTIAN CABROL",
		NameDisplay:    "RUE PROFESSEUR CHRISTIAN CABROL",
		LonMean:        ToFixed(5.38),
		LatMean:        ToFixed(45.98),
		LocStart:       9,
		LocEnd:         11,
		CommuneID:      42,
	}
	buf := make([]byte, VoieRecordSize)
	v.Marshal(buf)
	if got := UnmarshalVoie(buf); got != v {
		t.Errorf("Voie round trip = %+v, want %+v", got, v)
	}
}

func TestLocalisationRoundTrip(t *testing.T) {
	l := Localisation{Number: 12, Suffix: "B", Longitude: ToFixed(5.38), Latitude: ToFixed(45.98), VoieID: 42}
	buf := make([]byte, LocalisationRecordSize)
	l.Marshal(buf)
	if got := UnmarshalLocalisation(buf); got != l {
		t.Errorf("Localisation round trip = %+v, want %+v", got, l)
	}
}

func TestStringFieldTruncation(t *testing.T) {
	long := "THIS NAME IS DEFINITELY LONGER THAN FORTY EIGHT BYTES WIDE"
	v := Voie{NameNormalized: long, NameDisplay: long}
	buf := make([]byte, VoieRecordSize)
	v.Marshal(buf)
	got := UnmarshalVoie(buf)
	if len(got.NameNormalized) > VoieNameSize {
		t.Errorf("NameNormalized not truncated: %q", got.NameNormalized)
	}
	if got.NameNormalized != long[:VoieNameSize] {
		t.Errorf("NameNormalized = %q, want %q", got.NameNormalized, long[:VoieNameSize])
	}
}
