package tiff

import (
	"errors"
	"io"
	"testing"
)

// memFile is a minimal in-memory io.ReadWriteSeeker for exercising
// AppendingWriter without touching the filesystem.
type memFile struct {
	data []byte
	pos  int64
}

func newMemFile(initial []byte) *memFile {
	return &memFile{data: append([]byte(nil), initial...)}
}

func (m *memFile) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	n := copy(m.data[m.pos:end], p)
	m.pos = end
	return n, nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = m.pos + offset
	case io.SeekEnd:
		abs = int64(len(m.data)) + offset
	}
	if abs < 0 {
		return 0, errors.New("tiff test: negative seek")
	}
	m.pos = abs
	return abs, nil
}

func TestAppendingWriterFirstPageIsPassthrough(t *testing.T) {
	mf := newMemFile(nil)
	w, err := NewAppendingWriter(mf, false)
	if err != nil {
		t.Fatalf("NewAppendingWriter: %v", err)
	}
	if !w.isFirst {
		t.Fatalf("expected isFirst on an empty target")
	}

	payload := []byte{'I', 'I', 0x2A, 0x00, 8, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	if _, err := w.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if string(mf.data) != string(payload) {
		t.Errorf("first-page bytes = %v, want %v", mf.data, payload)
	}
}

// buildOneEntryIFDPage builds a page consisting of a classic "II" header
// whose first_ifd field is 8, immediately followed by a single-entry IFD
// (StripOffsets, SHORT, value stripVal) and a zero next_offset.
func buildOneEntryIFDPage(order ByteOrder, stripVal uint32) []byte {
	var buf []byte
	grow := func(b ...byte) { buf = append(buf, b...) }
	grow('I', 'I', 0x2A, 0x00)
	tmp := make([]byte, 4)
	order.PutUint32(tmp, 8) // IFD starts 8 bytes into this page
	grow(tmp...)

	tmp2 := make([]byte, 2)
	order.PutUint16(tmp2, 1) // one entry
	grow(tmp2...)

	entry := make([]byte, 12)
	order.PutUint16(entry[0:2], uint16(StripOffsets))
	order.PutUint16(entry[2:4], uint16(SHORT))
	order.PutUint32(entry[4:8], 1)
	order.PutUint32(entry[8:12], stripVal)
	grow(entry...)

	grow(0, 0, 0, 0) // next_offset
	return buf
}

func TestAppendingWriterRelocatesSecondPage(t *testing.T) {
	order := LE
	// page 1: header + a zero-entry IFD whose next_offset slot is what
	// this test expects the writer to patch.
	page1 := []byte{'I', 'I', 0x2A, 0x00, 8, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	mf := newMemFile(page1)

	w, err := NewAppendingWriter(mf, false)
	if err != nil {
		t.Fatalf("NewAppendingWriter: %v", err)
	}
	if w.isFirst {
		t.Fatalf("expected isFirst == false for a pre-populated target")
	}
	if w.whereToWriteNewIFDOffset != 10 {
		t.Fatalf("whereToWriteNewIFDOffset = %d, want 10", w.whereToWriteNewIFDOffset)
	}
	if w.offsetOfNewPage != 16 {
		t.Fatalf("offsetOfNewPage = %d, want 16 (padded to 16-byte boundary)", w.offsetOfNewPage)
	}

	page2 := buildOneEntryIFDPage(order, 10) // StripOffsets = 10, page-relative
	if _, err := w.Write(page2); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// page 1's terminating next_offset slot should now point at the
	// absolute start of page 2's IFD (16 + 8 = 24).
	if got := order.Uint32(mf.data[10:14]); got != 24 {
		t.Errorf("patched next_offset = %d, want 24", got)
	}

	// page 2's StripOffsets value should be relocated from 10
	// (page-relative) to 26 (10 + offsetOfNewPage).
	stripValPos := int64(16 + 8 + 2 + 8) // page start + ifd offset + count field + tag/type/count
	if got := order.Uint32(mf.data[stripValPos : stripValPos+4]); got != 26 {
		t.Errorf("relocated StripOffsets = %d, want 26", got)
	}
}

func TestFixOffsetsPromotesSingleValueField(t *testing.T) {
	order := LE
	var buf []byte
	tmp2 := make([]byte, 2)
	order.PutUint16(tmp2, 1) // one entry
	buf = append(buf, tmp2...)

	entry := make([]byte, 12)
	order.PutUint16(entry[0:2], uint16(StripOffsets))
	order.PutUint16(entry[2:4], uint16(SHORT))
	order.PutUint32(entry[4:8], 1)
	order.PutUint32(entry[8:12], 10) // page-relative offset, inline as a SHORT
	buf = append(buf, entry...)

	mf := newMemFile(buf)
	w := &AppendingWriter{f: mf, order: order, big: false, offsetOfNewPage: 70000}
	if err := w.fixIFD(); err != nil {
		t.Fatalf("fixIFD: %v", err)
	}

	gotType := order.Uint16(mf.data[4:6])
	if Type(gotType) != LONG {
		t.Errorf("promoted type = %d, want LONG (%d)", gotType, LONG)
	}
	gotVal := order.Uint32(mf.data[10:14])
	if gotVal != 70010 {
		t.Errorf("promoted value = %d, want 70010", gotVal)
	}
}

func TestFixOffsetsRejectsMultiValuePromotion(t *testing.T) {
	order := LE
	var buf []byte
	tmp2 := make([]byte, 2)
	order.PutUint16(tmp2, 1)
	buf = append(buf, tmp2...)

	entry := make([]byte, 12)
	order.PutUint16(entry[0:2], uint16(StripOffsets))
	order.PutUint16(entry[2:4], uint16(SHORT))
	order.PutUint32(entry[4:8], 2) // two values packed into the inline slot
	order.PutUint16(entry[8:10], 10)
	order.PutUint16(entry[10:12], 20)
	buf = append(buf, entry...)

	mf := newMemFile(buf)
	w := &AppendingWriter{f: mf, order: order, big: false, offsetOfNewPage: 70000}
	err := w.fixIFD()
	if err == nil {
		t.Fatalf("expected an UnsupportedError, got nil")
	}
	if _, ok := err.(UnsupportedError); !ok {
		t.Errorf("error = %T, want UnsupportedError", err)
	}
}

func TestMatchPrefixTolerance(t *testing.T) {
	cases := []struct {
		prefix  [4]byte
		wantBig bool
		wantLE  bool
	}{
		{[4]byte{'I', 'I', 0x2A, 0x00}, false, true},
		{[4]byte{'M', 'M', 0x00, 0x2A}, false, false},
		{[4]byte{'M', 'M', 0x2A, 0x00}, false, false},
		{[4]byte{'I', 'I', 0x00, 0x2A}, false, true},
		{[4]byte{'M', 'M', 0x00, 0x2B}, true, false},
		{[4]byte{'I', 'I', 0x2B, 0x00}, true, true},
	}
	for _, c := range cases {
		order, big, ok := matchPrefix(c.prefix)
		if !ok {
			t.Errorf("matchPrefix(%v) rejected, want accepted", c.prefix)
			continue
		}
		if big != c.wantBig {
			t.Errorf("matchPrefix(%v) big = %v, want %v", c.prefix, big, c.wantBig)
		}
		isLE := order == LE
		if isLE != c.wantLE {
			t.Errorf("matchPrefix(%v) little-endian = %v, want %v", c.prefix, isLE, c.wantLE)
		}
	}
	if _, _, ok := matchPrefix([4]byte{'X', 'X', 0, 0}); ok {
		t.Errorf("matchPrefix accepted a bogus prefix")
	}
}
