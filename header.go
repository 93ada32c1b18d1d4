package tiff

import "io"

// classicMagic/bigMagic are the version fields of the two header
// formats this core recognizes (§3, §4.1).
const (
	classicMagic = 42
	bigMagic     = 43
)

// Header is the decoded 8-byte classic or 16-byte BigTIFF preamble.
type Header struct {
	Order    ByteOrder
	Big      bool
	FirstIFD uint64
}

// ReadHeader parses the file preamble at the start of r, returning the
// byte order, whether it's BigTIFF, and the absolute offset of the
// first IFD. Mirrors the teacher's GetHeader, generalized to also
// recognize the BigTIFF variant (magic 43, 8-byte offset width, and the
// extra "offset byte size / 0" pair BigTIFF inserts after the magic).
func ReadHeader(r io.ReaderAt) (Header, error) {
	buf := make([]byte, 16)
	n, err := r.ReadAt(buf, 0)
	if n < 8 {
		if err != nil {
			return Header{}, newCorruptionErrorf("reading header: %v", err)
		}
		return Header{}, newCorruptionErrorf("file shorter than a TIFF header")
	}

	order, ok := orderFromPrefix([2]byte{buf[0], buf[1]})
	if !ok {
		return Header{}, newSyntaxErrorf("bad byte-order mark %q", buf[0:2])
	}

	magic := order.Uint16(buf[2:4])
	switch magic {
	case classicMagic:
		first := order.Uint32(buf[4:8])
		return Header{Order: order, Big: false, FirstIFD: uint64(first)}, nil
	case bigMagic:
		if n < 16 {
			return Header{}, newCorruptionErrorf("BigTIFF header truncated")
		}
		offsetSize := order.Uint16(buf[4:6])
		if offsetSize != 8 {
			return Header{}, newSyntaxErrorf("unsupported BigTIFF offset size %d", offsetSize)
		}
		if order.Uint16(buf[6:8]) != 0 {
			return Header{}, newSyntaxErrorf("malformed BigTIFF header reserved field")
		}
		first := order.Uint64(buf[8:16])
		return Header{Order: order, Big: true, FirstIFD: first}, nil
	default:
		return Header{}, newSyntaxErrorf("bad magic number %d", magic)
	}
}

// PutHeader serializes h's 8- or 16-byte preamble.
func PutHeader(h Header) []byte {
	prefix := prefixFromOrder(h.Order)
	if !h.Big {
		buf := make([]byte, 8)
		buf[0], buf[1] = prefix[0], prefix[1]
		h.Order.PutUint16(buf[2:4], classicMagic)
		h.Order.PutUint32(buf[4:8], uint32(h.FirstIFD))
		return buf
	}
	buf := make([]byte, 16)
	buf[0], buf[1] = prefix[0], prefix[1]
	h.Order.PutUint16(buf[2:4], bigMagic)
	h.Order.PutUint16(buf[4:6], 8)
	h.Order.PutUint16(buf[6:8], 0)
	h.Order.PutUint64(buf[8:16], h.FirstIFD)
	return buf
}
