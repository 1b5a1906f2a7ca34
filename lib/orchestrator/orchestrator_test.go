// Copyright (C) 2025 The Geocoding Authors.

package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adimajo/geocoding/lib/locations"
	"github.com/adimajo/geocoding/lib/store"
)

func withTempHome(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	prev := locations.BaseDir()
	locations.SetBaseDir(dir)
	t.Cleanup(func() { locations.SetBaseDir(prev) })
}

const sampleCSV = "id;numero;voie_numero;repetition;nom_voie;code_postal;code_insee;nom_commune;x;y;lon;lon2;longitude;latitude;source;date;nom_complementaire\n" +
	"1;1;1;;R PROFESSEUR CHRISTIAN CABROL;01500;01004;AMBERIEU EN BUGEY;;;;;5.3876;45.9607;;;\n"

func TestIndexAndReversePipeline(t *testing.T) {
	withTempHome(t)
	if err := locations.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}

	raw := locations.Get(locations.RawDir)
	if err := os.WriteFile(filepath.Join(raw, "adresses-01.csv"), []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	if err := Index(); err != nil {
		t.Fatalf("Index: %v", err)
	}

	if err := Reverse(); err != nil {
		t.Fatalf("Reverse: %v", err)
	}

	db, err := store.Open(locations.Get(locations.DatabaseDir))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if db.NumLocs() != 1 {
		t.Fatalf("NumLocs = %d, want 1", db.NumLocs())
	}
	if db.NumKDNodes() != 1 {
		t.Fatalf("NumKDNodes = %d, want 1", db.NumKDNodes())
	}
}

func TestIndexFailsWithoutRawFiles(t *testing.T) {
	withTempHome(t)
	if err := locations.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	if err := Index(); err == nil {
		t.Fatal("expected Index to fail with no decompressed CSVs")
	}
}

func TestIndexFailsOnHeaderOnlyCSV(t *testing.T) {
	withTempHome(t)
	if err := locations.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	raw := locations.Get(locations.RawDir)
	headerOnly := "id;numero;voie_numero;repetition;nom_voie;code_postal;code_insee;nom_commune;x;y;lon;lon2;longitude;latitude;source;date;nom_complementaire\n"
	// A CSV with only a header produces zero records, which Index
	// should reject as an empty build output before Reverse ever runs.
	if err := os.WriteFile(filepath.Join(raw, "adresses-01.csv"), []byte(headerOnly), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := Index(); err == nil {
		t.Fatal("expected Index to fail with an empty build")
	}
}

func TestConfigDownloaderDefaults(t *testing.T) {
	d := Config{}.downloader()
	if d.BaseURL == "" {
		t.Error("expected a default BaseURL")
	}
	if len(d.Depts) == 0 {
		t.Error("expected a default department list")
	}
}

func TestCleanRemovesRawFiles(t *testing.T) {
	withTempHome(t)
	if err := locations.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	raw := locations.Get(locations.RawDir)
	os.WriteFile(filepath.Join(raw, "adresses-01.csv"), []byte("x"), 0o644)

	if err := Clean(); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	entries, _ := os.ReadDir(raw)
	if len(entries) != 0 {
		t.Errorf("expected raw dir empty after Clean, got %v", entries)
	}
}
