package tiff

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// appendPrefixes are the six 4-byte header prefixes §4.7 tolerates when
// opening an existing file to append to, including the two "invalid
// magic, assume an endianness anyway" variants real-world files exhibit.
var appendPrefixes = [][4]byte{
	{'I', 'I', 0x2A, 0x00},
	{'M', 'M', 0x00, 0x2A},
	{'M', 'M', 0x2A, 0x00}, // tolerated: wrong magic byte order
	{'I', 'I', 0x00, 0x2A}, // tolerated: wrong magic byte order
	{'M', 'M', 0x00, 0x2B}, // BigTIFF
	{'I', 'I', 0x2B, 0x00}, // BigTIFF
}

func matchPrefix(p [4]byte) (order ByteOrder, big bool, ok bool) {
	for _, candidate := range appendPrefixes {
		if p == candidate {
			if p[0] == 'I' {
				order = LE
			} else {
				order = BE
			}
			big = p[2] == 0x2B || p[3] == 0x2B
			return order, big, true
		}
	}
	return nil, false, false
}

// AppendingWriter wraps an existing or empty seekable stream and
// accepts a sequence of fully pre-serialized IFD pages, wiring each one
// into the previous page's next_offset slot and relocating every
// offset-bearing tag it carries (§4.7). It is the component that makes
// this format's "pre-compute offsets before bytes exist" constraint
// tractable when a page is composed independently of where it will
// ultimately live in the file.
type AppendingWriter struct {
	f         io.ReadWriteSeeker
	ownsFile  bool
	beginning int64

	isFirst bool
	order   ByteOrder
	big     bool
	prefix  [4]byte

	offsetOfNewPage          int64
	whereToWriteNewIFDOffset int64
}

// NewAppendingWriter wraps f, which may be empty (first page) or an
// existing valid TIFF. ownsFile controls whether Close closes f too,
// implementing §9's scoped-ownership guard.
func NewAppendingWriter(f io.ReadWriteSeeker, ownsFile bool) (*AppendingWriter, error) {
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrap(err, "tiff: locating append writer start position")
	}
	w := &AppendingWriter{f: f, ownsFile: ownsFile, beginning: pos}
	if err := w.setup(); err != nil {
		return nil, err
	}
	return w, nil
}

// OpenAppendingWriter opens (or creates) path and wraps it, taking
// ownership of the resulting file handle.
func OpenAppendingWriter(path string, create bool) (*AppendingWriter, error) {
	flag := os.O_RDWR
	if create {
		flag |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "tiff: opening %s for append", path)
	}
	w, err := NewAppendingWriter(f, true)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *AppendingWriter) setup() error {
	if _, err := w.f.Seek(w.beginning, io.SeekStart); err != nil {
		return err
	}
	var prefix [4]byte
	n, err := io.ReadFull(w.f, prefix[:])
	if n == 0 {
		if err != nil && err != io.EOF {
			return errors.Wrap(err, "tiff: probing append target header")
		}
		w.isFirst = true
		w.offsetOfNewPage = w.beginning
		return nil
	}
	if err != nil {
		return newCorruptionErrorf("truncated TIFF header in append target")
	}

	order, big, ok := matchPrefix(prefix)
	if !ok {
		return newSyntaxErrorf("invalid TIFF file header %q", prefix[:])
	}
	w.isFirst = false
	w.prefix = prefix
	w.order = order
	w.big = big

	if big {
		if _, err := w.f.Seek(4, io.SeekCurrent); err != nil { // offset-size(2) + reserved(2)
			return err
		}
	}
	if err := w.skipIFDs(); err != nil {
		return err
	}
	return w.goToEnd()
}

// skipIFDs walks every existing page's next_offset chain, recording the
// position of the terminating zero slot — the place this writer's new
// page offset will ultimately be written.
func (w *AppendingWriter) skipIFDs() error {
	offsetFieldSize := 4
	countFieldSize := 2
	entrySize := 12
	if w.big {
		offsetFieldSize = 8
		countFieldSize = 8
		entrySize = 20
	}
	for {
		offset, err := w.readUint(offsetFieldSize)
		if err != nil {
			return errors.Wrap(err, "tiff: walking existing IFD chain")
		}
		if offset == 0 {
			cur, err := w.f.Seek(0, io.SeekCurrent)
			if err != nil {
				return err
			}
			w.whereToWriteNewIFDOffset = cur - int64(offsetFieldSize)
			return nil
		}
		if _, err := w.f.Seek(int64(offset), io.SeekStart); err != nil {
			return err
		}
		numTags, err := w.readUint(countFieldSize)
		if err != nil {
			return err
		}
		if _, err := w.f.Seek(int64(numTags)*int64(entrySize), io.SeekCurrent); err != nil {
			return err
		}
	}
}

// goToEnd pads the file to the next 16-byte boundary and records that
// position as the base offset for the page about to be written.
func (w *AppendingWriter) goToEnd() error {
	end, err := w.f.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if rem := end % 16; rem != 0 {
		if _, err := w.f.Write(make([]byte, 16-rem)); err != nil {
			return err
		}
	}
	pos, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	w.offsetOfNewPage = pos
	return nil
}

// Tell reports the caller's write position relative to the start of the
// page currently being written.
func (w *AppendingWriter) Tell() (int64, error) {
	cur, err := w.f.Seek(0, io.SeekCurrent)
	return cur - w.offsetOfNewPage, err
}

// Seek repositions relative to the current page's start (whence ==
// io.SeekStart) or as a pass-through otherwise.
func (w *AppendingWriter) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekStart {
		offset += w.offsetOfNewPage
	}
	abs, err := w.f.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	return abs - w.offsetOfNewPage, nil
}

// Write appends to the page currently under construction.
func (w *AppendingWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

// Finalize wires the just-written page into the chain: it patches the
// previous page's terminating next_offset slot to point at this page,
// then relocates every offset this page's IFD carries by
// offsetOfNewPage (§4.7 steps 1-3). Calling Finalize before any bytes
// have been written for this page is a harmless no-op, so an abandoned
// page never corrupts the file.
func (w *AppendingWriter) Finalize() error {
	if w.isFirst {
		return nil
	}
	if _, err := w.f.Seek(w.offsetOfNewPage, io.SeekStart); err != nil {
		return err
	}
	var prefix [4]byte
	n, err := io.ReadFull(w.f, prefix[:])
	if n == 0 {
		if err != nil && err != io.EOF {
			return err
		}
		return nil
	}
	if err != nil {
		return newCorruptionErrorf("truncated header on new page")
	}
	if prefix != w.prefix {
		return newSyntaxErrorf("new page header does not match the file's header")
	}

	offsetFieldSize := 4
	if w.big {
		if _, err := w.f.Seek(4, io.SeekCurrent); err != nil {
			return err
		}
		offsetFieldSize = 8
	}
	ifdOffset, err := w.readUint(offsetFieldSize)
	if err != nil {
		return err
	}
	absIFDOffset := int64(ifdOffset) + w.offsetOfNewPage

	if _, err := w.f.Seek(w.whereToWriteNewIFDOffset, io.SeekStart); err != nil {
		return err
	}
	if err := w.writeUint(uint64(absIFDOffset), offsetFieldSize); err != nil {
		return err
	}

	if _, err := w.f.Seek(absIFDOffset, io.SeekStart); err != nil {
		return err
	}
	return w.fixIFD()
}

// NewFrame finalizes the current page and resets the writer for the
// next one.
func (w *AppendingWriter) NewFrame() error {
	if err := w.Finalize(); err != nil {
		return err
	}
	return w.setup()
}

// Close finalizes the current page and, if this writer opened the
// underlying file itself, closes it.
func (w *AppendingWriter) Close() error {
	if err := w.Finalize(); err != nil {
		return err
	}
	if w.ownsFile {
		if c, ok := w.f.(io.Closer); ok {
			return c.Close()
		}
	}
	return nil
}

// fixIFD walks the directory at the current position, relocating any
// spilled value's offset by offsetOfNewPage and, for tags in
// rewriteOffsetTags, relocating every value the tag itself stores as an
// offset (§4.7's fix_ifd).
func (w *AppendingWriter) fixIFD() error {
	countFieldSize := 2
	entryCountFieldSize := 4
	valueSlotSize := 4
	if w.big {
		countFieldSize = 8
		entryCountFieldSize = 8
		valueSlotSize = 8
	}

	numTags, err := w.readUint(countFieldSize)
	if err != nil {
		return err
	}

	for i := uint64(0); i < numTags; i++ {
		entryStart, err := w.f.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		tagTypeBuf := make([]byte, 4)
		if _, err := io.ReadFull(w.f, tagTypeBuf); err != nil {
			return err
		}
		tag := Tag(w.order.Uint16(tagTypeBuf[0:2]))
		typ := Type(w.order.Uint16(tagTypeBuf[2:4]))

		count, err := w.readUint(entryCountFieldSize)
		if err != nil {
			return err
		}
		fieldSize := int(typ.Size())
		if fieldSize == 0 {
			fieldSize = 1
		}
		totalSize := uint64(fieldSize) * count
		isLocal := totalSize <= uint64(valueSlotSize)
		typeFieldOffset := entryStart + 2

		var targetOffset int64
		var curPos int64
		if !isLocal {
			raw, err := w.readUint(valueSlotSize)
			if err != nil {
				return err
			}
			targetOffset = int64(raw) + w.offsetOfNewPage
			if err := w.rewriteLast(uint64(targetOffset), valueSlotSize, 0); err != nil {
				return err
			}
			curPos, err = w.f.Seek(0, io.SeekCurrent)
			if err != nil {
				return err
			}
		} else {
			curPos, err = w.f.Seek(0, io.SeekCurrent)
			if err != nil {
				return err
			}
		}

		if rewriteOffsetTags[tag] {
			if isLocal {
				if err := w.fixOffsets(count, fieldSize, typeFieldOffset); err != nil {
					return err
				}
				if _, err := w.f.Seek(curPos+int64(valueSlotSize), io.SeekStart); err != nil {
					return err
				}
			} else {
				if _, err := w.f.Seek(targetOffset, io.SeekStart); err != nil {
					return err
				}
				if err := w.fixOffsets(count, fieldSize, typeFieldOffset); err != nil {
					return err
				}
				if _, err := w.f.Seek(curPos, io.SeekStart); err != nil {
					return err
				}
			}
		} else if isLocal {
			if _, err := w.f.Seek(curPos+int64(valueSlotSize), io.SeekStart); err != nil {
				return err
			}
		}
	}
	return nil
}

// fixOffsets relocates count values of fieldSize bytes each, each one
// itself an offset, by offsetOfNewPage, promoting the field's on-disk
// type when the relocated value overflows its current width (§4.7's
// field-width promotion). typeFieldOffset is where the 2-byte type code
// for this entry lives, rewritten in place on promotion.
func (w *AppendingWriter) fixOffsets(count uint64, fieldSize int, typeFieldOffset int64) error {
	for i := uint64(0); i < count; i++ {
		raw, err := w.readUint(fieldSize)
		if err != nil {
			return err
		}
		offset := raw + uint64(w.offsetOfNewPage)

		newFieldSize := 0
		switch {
		case w.big && (fieldSize == 2 || fieldSize == 4) && offset >= 1<<32:
			newFieldSize = 8
		case fieldSize == 2 && offset >= 1<<16:
			newFieldSize = 4
		}

		if newFieldSize != 0 {
			if count != 1 {
				return newUnsupportedErrorf("not implemented: promoting a multi-value offset field across %d->%d bytes", fieldSize, newFieldSize)
			}
			if err := w.rewriteLast(offset, fieldSize, newFieldSize); err != nil {
				return err
			}
			newType := LONG
			if newFieldSize == 8 {
				newType = LONG8
			}
			if _, err := w.f.Seek(typeFieldOffset, io.SeekStart); err != nil {
				return err
			}
			typeBuf := make([]byte, 2)
			w.order.PutUint16(typeBuf, uint16(newType))
			if _, err := w.f.Write(typeBuf); err != nil {
				return err
			}
		} else {
			if err := w.rewriteLast(offset, fieldSize, 0); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *AppendingWriter) readUint(size int) (uint64, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(w.f, buf); err != nil {
		return 0, err
	}
	return getUintWidth(buf, w.order, size), nil
}

func (w *AppendingWriter) writeUint(v uint64, size int) error {
	buf := make([]byte, size)
	putUintWidth(buf, w.order, size, v)
	_, err := w.f.Write(buf)
	return err
}

// rewriteLast overwrites the fieldSize-wide value just read with value,
// optionally widening it to newFieldSize bytes (0 meaning "keep the
// current width").
func (w *AppendingWriter) rewriteLast(value uint64, fieldSize, newFieldSize int) error {
	if newFieldSize == 0 {
		newFieldSize = fieldSize
	}
	cur, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := w.f.Seek(cur-int64(fieldSize), io.SeekStart); err != nil {
		return err
	}
	buf := make([]byte, newFieldSize)
	putUintWidth(buf, w.order, newFieldSize, value)
	_, err = w.f.Write(buf)
	return err
}

func getUintWidth(b []byte, order ByteOrder, width int) uint64 {
	switch width {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	case 8:
		return order.Uint64(b)
	default:
		panic("tiff: unsupported field width")
	}
}

func putUintWidth(b []byte, order ByteOrder, width int, v uint64) {
	switch width {
	case 1:
		b[0] = byte(v)
	case 2:
		order.PutUint16(b, uint16(v))
	case 4:
		order.PutUint32(b, uint32(v))
	case 8:
		order.PutUint64(b, v)
	default:
		panic("tiff: unsupported field width")
	}
}
