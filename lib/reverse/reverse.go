// Copyright (C) 2025 The Geocoding Authors.

// Package reverse implements nearest-neighbor reverse geocoding over the
// persisted k-d tree: textbook recursive nearest-neighbor search with
// bounding-box pruning, using squared Euclidean distance in fixed-point
// space (§4.7).
package reverse

import (
	"math"

	"github.com/adimajo/geocoding/lib/geodata"
	"github.com/adimajo/geocoding/lib/kdtree"
	"github.com/adimajo/geocoding/lib/store"
)

// Result is the outcome of a Near call: the nearest Localisation's own
// coordinates plus its resolved ancestry.
type Result struct {
	Longitude float64
	Latitude  float64
	Number    uint32
	Suffix    string
	Commune   string
	Voie      string
}

// Tree is a read-only view over a persisted k-d tree array, independent
// of how it was loaded (memory-mapped via store.Database, which
// implements this interface directly, or in-memory via kdtree.Build for
// tests, wrapped with FromSlice).
type Tree interface {
	NumKDNodes() int
	KDNode(i int) kdtree.Node
}

// sliceTree adapts a plain []kdtree.Node to the Tree interface, mostly
// for tests that build a tree directly with kdtree.Build.
type sliceTree []kdtree.Node

func (s sliceTree) NumKDNodes() int          { return len(s) }
func (s sliceTree) KDNode(i int) kdtree.Node { return s[i] }

// FromSlice wraps an in-memory node slice as a Tree.
func FromSlice(nodes []kdtree.Node) Tree { return sliceTree(nodes) }

// Near finds the Localisation nearest to (lon, lat), given in floating
// degrees, and resolves its commune/voie ancestry by walking back up
// from the Voie/Commune tables via the Localisation's VoieID and the
// Voie's CommuneID. Near fails only if the tree has no nodes (§4.7).
func Near(tree Tree, db *store.Database, lon, lat float64) (Result, bool) {
	if tree.NumKDNodes() == 0 {
		return Result{}, false
	}

	target := point{lon: geodata.ToFixed(lon), lat: geodata.ToFixed(lat)}
	best := nearest{idx: -1, distSq: math.MaxInt64}
	search(tree, 0, target, &best)
	if best.idx < 0 {
		return Result{}, false
	}

	node := tree.KDNode(best.idx)
	loc := db.Localisation(int(node.Payload))
	v := db.Voie(int(loc.VoieID))
	c := db.Commune(int(v.CommuneID))

	return Result{
		Longitude: geodata.ToDegrees(loc.Longitude),
		Latitude:  geodata.ToDegrees(loc.Latitude),
		Number:    loc.Number,
		Suffix:    loc.Suffix,
		Commune:   c.NameDisplay,
		Voie:      v.NameDisplay,
	}, true
}

type point struct {
	lon, lat int32
}

type nearest struct {
	idx    int
	distSq int64
}

func distSq(a point, lon, lat int32) int64 {
	dl := int64(a.lon) - int64(lon)
	dt := int64(a.lat) - int64(lat)
	return dl*dl + dt*dt
}

// bboxDistSq is the squared distance from target to the nearest point
// of node's bounding box, used to prune subtrees that cannot possibly
// contain anything closer than the current best.
func bboxDistSq(target point, n kdtree.Node) int64 {
	clamp := func(v, lo, hi int32) int32 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	cLon := clamp(target.lon, n.BBoxMinLon, n.BBoxMaxLon)
	cLat := clamp(target.lat, n.BBoxMinLat, n.BBoxMaxLat)
	return distSq(target, cLon, cLat)
}

func search(tree Tree, idx int32, target point, best *nearest) {
	if idx < 0 {
		return
	}
	n := tree.KDNode(int(idx))

	if bboxDistSq(target, n) > best.distSq {
		return
	}

	d := distSq(target, n.Lon, n.Lat)
	if d < best.distSq || (d == best.distSq && (best.idx < 0 || n.Payload < tree.KDNode(best.idx).Payload)) {
		best.distSq = d
		best.idx = int(idx)
	}

	var nearChild, farChild int32
	var targetCoord, splitCoord int32
	if n.Axis == 0 {
		targetCoord, splitCoord = target.lon, n.Lon
	} else {
		targetCoord, splitCoord = target.lat, n.Lat
	}
	if targetCoord < splitCoord {
		nearChild, farChild = n.Left, n.Right
	} else {
		nearChild, farChild = n.Right, n.Left
	}

	search(tree, nearChild, target, best)
	search(tree, farChild, target, best)
}
