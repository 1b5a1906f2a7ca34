// Copyright (C) 2025 The Geocoding Authors.

package kdtree

import (
	"math/rand"
	"testing"
)

func samplePoints(n int) []Point {
	r := rand.New(rand.NewSource(42))
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{
			Lon:     int32(r.Intn(1000000) - 500000),
			Lat:     int32(r.Intn(1000000) - 500000),
			Payload: uint32(i),
		}
	}
	return pts
}

func TestBuildNodeCount(t *testing.T) {
	nodes := Build(samplePoints(10))
	if len(nodes) != 10 {
		t.Fatalf("len(nodes) = %d, want 10", len(nodes))
	}
}

func TestBuildSinglePoint(t *testing.T) {
	nodes := Build([]Point{{Lon: 1, Lat: 2, Payload: 7}})
	if len(nodes) != 1 {
		t.Fatalf("len(nodes) = %d, want 1", len(nodes))
	}
	n := nodes[0]
	if n.Left != noChild || n.Right != noChild {
		t.Errorf("single-node tree should have no children, got %+v", n)
	}
	if n.BBoxMinLon != 1 || n.BBoxMaxLon != 1 || n.BBoxMinLat != 2 || n.BBoxMaxLat != 2 {
		t.Errorf("bbox should collapse to the point, got %+v", n)
	}
}

func TestBuildPanicsOnEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Build(nil) should panic")
		}
	}()
	Build(nil)
}

func TestBBoxTight(t *testing.T) {
	pts := samplePoints(200)
	nodes := Build(pts)
	for i, n := range nodes {
		if n.Lon < n.BBoxMinLon || n.Lon > n.BBoxMaxLon || n.Lat < n.BBoxMinLat || n.Lat > n.BBoxMaxLat {
			t.Fatalf("node %d: point (%d,%d) outside its own bbox %+v", i, n.Lon, n.Lat, n)
		}
		if n.Left != noChild {
			child := nodes[n.Left]
			if child.BBoxMinLon < n.BBoxMinLon || child.BBoxMaxLon > n.BBoxMaxLon ||
				child.BBoxMinLat < n.BBoxMinLat || child.BBoxMaxLat > n.BBoxMaxLat {
				t.Fatalf("node %d: left child bbox %+v not contained in parent bbox %+v", i, child, n)
			}
		}
		if n.Right != noChild {
			child := nodes[n.Right]
			if child.BBoxMinLon < n.BBoxMinLon || child.BBoxMaxLon > n.BBoxMaxLon ||
				child.BBoxMinLat < n.BBoxMinLat || child.BBoxMaxLat > n.BBoxMaxLat {
				t.Fatalf("node %d: right child bbox %+v not contained in parent bbox %+v", i, child, n)
			}
		}
	}
}

func subtreeSize(nodes []Node, i int32) int {
	if i == noChild {
		return 0
	}
	n := nodes[i]
	return 1 + subtreeSize(nodes, n.Left) + subtreeSize(nodes, n.Right)
}

func TestBalance(t *testing.T) {
	nodes := Build(samplePoints(255))
	var check func(i int32)
	check = func(i int32) {
		if i == noChild {
			return
		}
		n := nodes[i]
		l := subtreeSize(nodes, n.Left)
		r := subtreeSize(nodes, n.Right)
		if diff := l - r; diff > 1 || diff < -1 {
			t.Fatalf("node %d unbalanced: left=%d right=%d", i, l, r)
		}
		check(n.Left)
		check(n.Right)
	}
	check(0)
}

func TestAllPayloadsPresent(t *testing.T) {
	pts := samplePoints(64)
	nodes := Build(pts)
	seen := make(map[uint32]bool)
	for _, n := range nodes {
		seen[n.Payload] = true
	}
	for _, p := range pts {
		if !seen[p.Payload] {
			t.Errorf("payload %d missing from tree", p.Payload)
		}
	}
}

func TestNodeCodecRoundTrip(t *testing.T) {
	n := Node{Lon: 10, Lat: -20, BBoxMinLon: 5, BBoxMinLat: -30, BBoxMaxLon: 15, BBoxMaxLat: -10, Axis: 1, Left: 3, Right: -1, Payload: 42}
	buf := make([]byte, NodeRecordSize)
	n.Marshal(buf)
	if got := UnmarshalNode(buf); got != n {
		t.Errorf("Node round trip = %+v, want %+v", got, n)
	}
}
