package tiff

import (
	"golang.org/x/text/encoding/charmap"
)

// codecEntry is the (unit_size, loader, writer) triple from §4.3. The
// loader decodes a raw payload (plus the order it was written in) into
// a Value; the writer encodes a Value's elements back to bytes.
//
// Grounded on the teacher's dispatch-by-type-id shape in tiff66.go
// (TypeSizes map keyed by Type), generalized per §9's design note into
// explicit loader/writer function pairs built once into a package-level
// table rather than registered by side-effecting init() functions
// scattered across the package.
type codecEntry struct {
	unitSize uint32
	load     func(data []byte, order ByteOrder) Value
	write    func(v Value, order ByteOrder) []byte
}

var codecRegistry map[Type]codecEntry

func init() {
	codecRegistry = map[Type]codecEntry{
		BYTE:      {1, loadByte, writeByte},
		ASCII:     {1, loadASCII, writeASCII},
		SHORT:     basicIntHandler(2, false),
		LONG:      basicIntHandler(4, false),
		RATIONAL:  {8, loadRational, writeRational},
		SBYTE:     basicIntHandler(1, true),
		UNDEFINED: {1, loadUndefined, writeUndefined},
		SSHORT:    basicIntHandler(2, true),
		SLONG:     basicIntHandler(4, true),
		SRATIONAL: {8, loadSignedRational, writeSignedRational},
		FLOAT:     {4, loadFloat, writeFloat},
		DOUBLE:    {8, loadDouble, writeDouble},
		IFDTYPE:   basicIntHandler(4, false),
		LONG8:     basicIntHandler(8, false),
	}
}

// basicIntHandler is the "basic handler factory" from §4.3: every
// fixed-width scalar integer type shares the same unpack-many/pack-many
// path, parameterized only by width and signedness.
func basicIntHandler(width uint32, signed bool) codecEntry {
	return codecEntry{
		unitSize: width,
		load: func(data []byte, order ByteOrder) Value {
			n := len(data) / int(width)
			ints := make([]int64, n)
			for i := 0; i < n; i++ {
				chunk := data[i*int(width):]
				switch width {
				case 1:
					if signed {
						ints[i] = int64(getInt8(chunk))
					} else {
						ints[i] = int64(chunk[0])
					}
				case 2:
					if signed {
						ints[i] = int64(getInt16(chunk, order))
					} else {
						ints[i] = int64(order.Uint16(chunk))
					}
				case 4:
					if signed {
						ints[i] = int64(getInt32(chunk, order))
					} else {
						ints[i] = int64(order.Uint32(chunk))
					}
				case 8:
					if signed {
						ints[i] = getInt64(chunk, order)
					} else {
						ints[i] = int64(order.Uint64(chunk))
					}
				}
			}
			return Value{Ints: ints}
		},
		write: func(v Value, order ByteOrder) []byte {
			out := make([]byte, len(v.Ints)*int(width))
			for i, n := range v.Ints {
				chunk := out[i*int(width):]
				switch width {
				case 1:
					chunk[0] = byte(n)
				case 2:
					order.PutUint16(chunk, uint16(n))
				case 4:
					order.PutUint32(chunk, uint32(n))
				case 8:
					order.PutUint64(chunk, uint64(n))
				}
			}
			return out
		},
	}
}

func loadByte(data []byte, order ByteOrder) Value {
	return Value{Bytes: append([]byte(nil), data...)}
}

func writeByte(v Value, order ByteOrder) []byte {
	if v.Bytes != nil {
		return v.Bytes
	}
	out := make([]byte, len(v.Ints))
	for i, n := range v.Ints {
		out[i] = byte(n)
	}
	return out
}

var latin1Decoder = charmap.ISO8859_1.NewDecoder()

// loadASCII strips one trailing NUL if present and decodes the bytes as
// Latin-1 with replacement, per §4.3.
func loadASCII(data []byte, order ByteOrder) Value {
	if len(data) > 0 && data[len(data)-1] == 0 {
		data = data[:len(data)-1]
	}
	decoded, err := latin1Decoder.Bytes(data)
	if err != nil {
		decoded = data
	}
	return Value{ASCII: string(decoded)}
}

// writeASCII encodes to ASCII with replacement and appends a NUL
// terminator. TIFF ASCII fields are 7-bit; bytes above 0x7F are mapped
// to '?' the way encoding.ASCII's narrower cousin would.
func writeASCII(v Value, order ByteOrder) []byte {
	s := v.ASCII
	out := make([]byte, len(s)+1)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c > 0x7F {
			c = '?'
		}
		out[i] = c
	}
	out[len(s)] = 0
	return out
}

func loadUndefined(data []byte, order ByteOrder) Value {
	return Value{Bytes: append([]byte(nil), data...)}
}

func writeUndefined(v Value, order ByteOrder) []byte {
	if v.Bytes != nil {
		return v.Bytes
	}
	out := make([]byte, len(v.Ints))
	for i, n := range v.Ints {
		out[i] = byte(n)
	}
	return out
}

func loadRational(data []byte, order ByteOrder) Value {
	n := len(data) / 8
	rs := make([]Rational, n)
	for i := 0; i < n; i++ {
		chunk := data[i*8:]
		rs[i] = NewRational(int64(order.Uint32(chunk)), int64(order.Uint32(chunk[4:])))
	}
	return Value{Rationals: rs}
}

func writeRational(v Value, order ByteOrder) []byte {
	out := make([]byte, len(v.Rationals)*8)
	for i, r := range v.Rationals {
		limited := limitUnsignedRational(r, 1<<32-1)
		chunk := out[i*8:]
		order.PutUint32(chunk, uint32(limited.Numerator()))
		order.PutUint32(chunk[4:], uint32(limited.Denominator()))
	}
	return out
}

func loadSignedRational(data []byte, order ByteOrder) Value {
	n := len(data) / 8
	rs := make([]Rational, n)
	for i := 0; i < n; i++ {
		chunk := data[i*8:]
		rs[i] = NewRational(int64(getInt32(chunk, order)), int64(getInt32(chunk[4:], order)))
	}
	return Value{Rationals: rs}
}

func writeSignedRational(v Value, order ByteOrder) []byte {
	out := make([]byte, len(v.Rationals)*8)
	for i, r := range v.Rationals {
		limited := limitSignedRational(r, 1<<31-1, -(1 << 31))
		chunk := out[i*8:]
		order.PutUint32(chunk, uint32(int32(limited.Numerator())))
		order.PutUint32(chunk[4:], uint32(int32(limited.Denominator())))
	}
	return out
}

func loadFloat(data []byte, order ByteOrder) Value {
	n := len(data) / 4
	fs := make([]float64, n)
	for i := 0; i < n; i++ {
		fs[i] = float64(getFloat32(data[i*4:], order))
	}
	return Value{Floats: fs}
}

func writeFloat(v Value, order ByteOrder) []byte {
	out := make([]byte, len(v.Floats)*4)
	for i, f := range v.Floats {
		putFloat32(out[i*4:], float32(f), order)
	}
	return out
}

func loadDouble(data []byte, order ByteOrder) Value {
	n := len(data) / 8
	fs := make([]float64, n)
	for i := 0; i < n; i++ {
		fs[i] = getFloat64(data[i*8:], order)
	}
	return Value{Floats: fs}
}

func writeDouble(v Value, order ByteOrder) []byte {
	out := make([]byte, len(v.Floats)*8)
	for i, f := range v.Floats {
		putFloat64(out[i*8:], f, order)
	}
	return out
}
