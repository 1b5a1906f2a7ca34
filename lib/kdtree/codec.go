// Copyright (C) 2025 The Geocoding Authors.

package kdtree

import "encoding/binary"

// NodeRecordSize is the fixed on-disk width of one Node.
const NodeRecordSize = 4*2 + 4*4 + 4 + 4*2 + 4

// Marshal encodes n into buf, which must be at least NodeRecordSize
// bytes long.
func (n Node) Marshal(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:], uint32(n.Lon))
	binary.LittleEndian.PutUint32(buf[4:], uint32(n.Lat))
	binary.LittleEndian.PutUint32(buf[8:], uint32(n.BBoxMinLon))
	binary.LittleEndian.PutUint32(buf[12:], uint32(n.BBoxMinLat))
	binary.LittleEndian.PutUint32(buf[16:], uint32(n.BBoxMaxLon))
	binary.LittleEndian.PutUint32(buf[20:], uint32(n.BBoxMaxLat))
	binary.LittleEndian.PutUint32(buf[24:], uint32(n.Axis))
	binary.LittleEndian.PutUint32(buf[28:], uint32(n.Left))
	binary.LittleEndian.PutUint32(buf[32:], uint32(n.Right))
	binary.LittleEndian.PutUint32(buf[36:], n.Payload)
}

// UnmarshalNode decodes one Node from buf.
func UnmarshalNode(buf []byte) Node {
	return Node{
		Lon:        int32(binary.LittleEndian.Uint32(buf[0:])),
		Lat:        int32(binary.LittleEndian.Uint32(buf[4:])),
		BBoxMinLon: int32(binary.LittleEndian.Uint32(buf[8:])),
		BBoxMinLat: int32(binary.LittleEndian.Uint32(buf[12:])),
		BBoxMaxLon: int32(binary.LittleEndian.Uint32(buf[16:])),
		BBoxMaxLat: int32(binary.LittleEndian.Uint32(buf[20:])),
		Axis:       int32(binary.LittleEndian.Uint32(buf[24:])),
		Left:       int32(binary.LittleEndian.Uint32(buf[28:])),
		Right:      int32(binary.LittleEndian.Uint32(buf[32:])),
		Payload:    binary.LittleEndian.Uint32(buf[36:]),
	}
}
