// Copyright (C) 2025 The Geocoding Authors.

package reverse

import (
	"math"
	"math/rand"
	"testing"

	"github.com/adimajo/geocoding/lib/geodata"
	"github.com/adimajo/geocoding/lib/kdtree"
)

func samplePoints(n int) []kdtree.Point {
	r := rand.New(rand.NewSource(7))
	pts := make([]kdtree.Point, n)
	for i := range pts {
		pts[i] = kdtree.Point{
			Lon:     int32(r.Intn(1170000000) - 620000000),
			Lat:     int32(r.Intn(740000000) - 220000000),
			Payload: uint32(i),
		}
	}
	return pts
}

func sampleLocs(pts []kdtree.Point) []geodata.Localisation {
	locs := make([]geodata.Localisation, len(pts))
	for i, p := range pts {
		locs[i] = geodata.Localisation{Longitude: p.Lon, Latitude: p.Lat, Number: uint32(i)}
	}
	return locs
}

// bruteNearest finds the true nearest point by exhaustive scan, used as
// an oracle to check the tree-pruned search against.
func bruteNearest(pts []kdtree.Point, target kdtree.Point) kdtree.Point {
	best := pts[0]
	bestDist := distSq(point{target.Lon, target.Lat}, best.Lon, best.Lat)
	for _, p := range pts[1:] {
		d := distSq(point{target.Lon, target.Lat}, p.Lon, p.Lat)
		if d < bestDist || (d == bestDist && p.Payload < best.Payload) {
			bestDist = d
			best = p
		}
	}
	return best
}

func TestNearMatchesBruteForce(t *testing.T) {
	pts := samplePoints(200)
	nodes := kdtree.Build(pts)
	tree := FromSlice(nodes)

	queries := samplePoints(20)
	for _, q := range queries {
		var best nearest
		best.idx = -1
		best.distSq = math.MaxInt64
		search(tree, 0, point{q.Lon, q.Lat}, &best)

		want := bruteNearest(pts, q)
		got := tree.KDNode(best.idx)
		if got.Payload != want.Payload {
			t.Errorf("query (%d,%d): tree picked payload %d, brute force picked %d", q.Lon, q.Lat, got.Payload, want.Payload)
		}
	}
}

func TestNearExactStoredCoordinates(t *testing.T) {
	pts := samplePoints(50)
	nodes := kdtree.Build(pts)
	tree := FromSlice(nodes)

	for _, p := range pts {
		var best nearest
		best.idx = -1
		best.distSq = math.MaxInt64
		target := point{p.Lon, p.Lat}
		search(tree, 0, target, &best)
		got := tree.KDNode(best.idx)
		if got.Lon != p.Lon || got.Lat != p.Lat {
			t.Errorf("near(%d,%d) = (%d,%d), want exact match", p.Lon, p.Lat, got.Lon, got.Lat)
		}
	}
}

func TestNearEmptyTreeFails(t *testing.T) {
	_, ok := Near(sliceTree(nil), nil, 2.3, 48.8)
	if ok {
		t.Fatal("Near on empty tree should fail")
	}
}

func TestBBoxDistSqZeroInsideBox(t *testing.T) {
	n := kdtree.Node{BBoxMinLon: -10, BBoxMinLat: -10, BBoxMaxLon: 10, BBoxMaxLat: 10}
	if d := bboxDistSq(point{0, 0}, n); d != 0 {
		t.Errorf("bboxDistSq inside box = %d, want 0", d)
	}
}

func TestBBoxDistSqOutsideBox(t *testing.T) {
	n := kdtree.Node{BBoxMinLon: 0, BBoxMinLat: 0, BBoxMaxLon: 10, BBoxMaxLat: 10}
	if d := bboxDistSq(point{20, 0}, n); d != 100 {
		t.Errorf("bboxDistSq outside box = %d, want 100", d)
	}
}
