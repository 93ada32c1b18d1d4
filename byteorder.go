package tiff

import (
	"encoding/binary"
	"math"
)

// ByteOrder identifies the endianness recorded in a TIFF header's first
// two bytes. TIFF only ever uses the two standard binary.ByteOrder
// implementations, so we reuse that interface directly rather than
// inventing our own, following the teacher's practice of building
// directly on binary.ByteOrder instead of wrapping it.
type ByteOrder = binary.ByteOrder

var (
	// LE is the byte order for a file beginning "II".
	LE = binary.LittleEndian
	// BE is the byte order for a file beginning "MM".
	BE = binary.BigEndian
)

// getInt8 through putFloat64 are thin, non-allocating wrappers that
// round out binary.ByteOrder with the signed and floating point views
// TIFF fields need. binary.ByteOrder only defines unsigned accessors.

func getInt8(b []byte) int8 {
	return int8(b[0])
}

func getInt16(b []byte, order ByteOrder) int16 {
	return int16(order.Uint16(b))
}

func putInt16(b []byte, v int16, order ByteOrder) {
	order.PutUint16(b, uint16(v))
}

func getInt32(b []byte, order ByteOrder) int32 {
	return int32(order.Uint32(b))
}

func putInt32(b []byte, v int32, order ByteOrder) {
	order.PutUint32(b, uint32(v))
}

func getInt64(b []byte, order ByteOrder) int64 {
	return int64(order.Uint64(b))
}

func putInt64(b []byte, v int64, order ByteOrder) {
	order.PutUint64(b, uint64(v))
}

func getFloat32(b []byte, order ByteOrder) float32 {
	return math.Float32frombits(order.Uint32(b))
}

func putFloat32(b []byte, v float32, order ByteOrder) {
	order.PutUint32(b, math.Float32bits(v))
}

func getFloat64(b []byte, order ByteOrder) float64 {
	return math.Float64frombits(order.Uint64(b))
}

func putFloat64(b []byte, v float64, order ByteOrder) {
	order.PutUint64(b, math.Float64bits(v))
}

// orderFromPrefix maps the two-byte header prefix to a byte order, the
// Go equivalent of GetHeader's leading switch in the teacher.
func orderFromPrefix(prefix [2]byte) (ByteOrder, bool) {
	switch {
	case prefix[0] == 'I' && prefix[1] == 'I':
		return LE, true
	case prefix[0] == 'M' && prefix[1] == 'M':
		return BE, true
	default:
		return nil, false
	}
}

func prefixFromOrder(order ByteOrder) [2]byte {
	if order == LE {
		return [2]byte{'I', 'I'}
	}
	return [2]byte{'M', 'M'}
}
