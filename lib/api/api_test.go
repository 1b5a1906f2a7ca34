// Copyright (C) 2025 The Geocoding Authors.

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/adimajo/geocoding/lib/banformat"
	"github.com/adimajo/geocoding/lib/builder"
	"github.com/adimajo/geocoding/lib/geodata"
	"github.com/adimajo/geocoding/lib/kdtree"
	"github.com/adimajo/geocoding/lib/reverse"
	"github.com/adimajo/geocoding/lib/store"
)

func testDatabase(t *testing.T) (*store.Database, reverse.Tree) {
	t.Helper()
	b := builder.New()
	b.Ingest("01", []banformat.Record{{
		Postal: 1500, CommuneNorm: "AMBERIEU BUGEY", CommuneDisp: "AMBERIEU EN BUGEY", Insee: "01004",
		VoieNorm: "R PROFESSEUR CHRISTIAN CABROL", VoieDisp: "RUE PROFESSEUR CHRISTIAN CABROL",
		Number: 8, Lon: geodata.ToFixed(5.3876), Lat: geodata.ToFixed(45.9607),
	}})
	db, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	dir := filepath.Join(t.TempDir(), "database")
	if err := store.Write(dir, db); err != nil {
		t.Fatalf("Write: %v", err)
	}
	s, err := store.Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	nodes := kdtree.Build(kdtree.PointsFromLocalisations(db.Locs))
	return s, reverse.FromSlice(nodes)
}

func startTestServer(t *testing.T) string {
	t.Helper()
	db, tree := testDatabase(t)
	svc := New("127.0.0.1:0", db, tree)

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	go func() {
		for svc.listenerAddr == nil {
			time.Sleep(time.Millisecond)
		}
		close(ready)
	}()
	go svc.Serve(ctx)
	t.Cleanup(cancel)

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start")
	}
	return svc.listenerAddr.String()
}

func TestHandleGeocode(t *testing.T) {
	addr := startTestServer(t)
	resp, err := http.Get(fmt.Sprintf("http://%s/geocode?postal=01500&city=Amberieu-en-Bugey&address=8%%20Rue%%20du%%20Professeur%%20Christian%%20Cabrol", addr))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Quality != 1 {
		t.Errorf("Quality = %d, want 1", body.Quality)
	}
}

func TestHandleGeocodeMissingPostal(t *testing.T) {
	addr := startTestServer(t)
	resp, err := http.Get(fmt.Sprintf("http://%s/geocode", addr))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleNear(t *testing.T) {
	addr := startTestServer(t)
	resp, err := http.Get(fmt.Sprintf("http://%s/near?lon=5.3876&lat=45.9607", addr))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body nearResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Commune.Nom == "" {
		t.Error("expected a non-empty commune.nom")
	}
	if body.Voie.Nom == "" {
		t.Error("expected a non-empty voie.nom")
	}
}

func TestHandleNearBadParams(t *testing.T) {
	addr := startTestServer(t)
	resp, err := http.Get(fmt.Sprintf("http://%s/near?lon=abc&lat=45", addr))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleVersion(t *testing.T) {
	addr := startTestServer(t)
	resp, err := http.Get(fmt.Sprintf("http://%s/version", addr))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHandleMetrics(t *testing.T) {
	addr := startTestServer(t)
	resp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
