package tiff

import (
	"bytes"
	"testing"
)

func putClassicEntry(buf *bytes.Buffer, order ByteOrder, tag Tag, typ Type, count uint32, value uint32) {
	tmp := make([]byte, 4)
	order.PutUint16(tmp[0:2], uint16(tag))
	buf.Write(tmp[0:2])
	order.PutUint16(tmp[0:2], uint16(typ))
	buf.Write(tmp[0:2])
	order.PutUint32(tmp, count)
	buf.Write(tmp)
	order.PutUint32(tmp, value)
	buf.Write(tmp)
}

// buildGrayscaleStripFile constructs the file from the project's
// end-to-end scenario 1 (and, with orientation/size overrides, scenario
// 2): a classic LE header, one IFD, and 4 bytes of raw strip data.
func buildGrayscaleStripFile(t *testing.T, width, length, orientation int64) []byte {
	t.Helper()
	order := LE

	type entrySpec struct {
		tag   Tag
		typ   Type
		count uint32
		value uint32
	}
	entries := []entrySpec{
		{ImageWidth, SHORT, 1, uint32(width)},
		{ImageLength, SHORT, 1, uint32(length)},
		{BitsPerSample, SHORT, 1, 8},
		{Compression, SHORT, 1, 1},
		{PhotometricInterpretation, SHORT, 1, 1},
		{StripOffsets, LONG, 1, 0}, // patched below
		{SamplesPerPixel, SHORT, 1, 1},
		{RowsPerStrip, SHORT, 1, uint32(length)},
		{StripByteCounts, LONG, 1, 4},
	}
	if orientation != 0 {
		entries = append(entries, entrySpec{Orientation, SHORT, 1, uint32(orientation)})
	}
	// keep strictly ascending tag order, matching real files
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].tag < entries[j-1].tag; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}

	ifdStart := int64(8)
	countFieldSize := int64(2)
	entrySize := int64(12)
	nextFieldSize := int64(4)
	stripDataOffset := ifdStart + countFieldSize + int64(len(entries))*entrySize + nextFieldSize

	for i := range entries {
		if entries[i].tag == StripOffsets {
			entries[i].value = uint32(stripDataOffset)
		}
	}

	var buf bytes.Buffer
	buf.Write([]byte{'I', 'I'})
	tmp := make([]byte, 4)
	order.PutUint16(tmp[0:2], classicMagic)
	buf.Write(tmp[0:2])
	order.PutUint32(tmp, uint32(ifdStart))
	buf.Write(tmp)

	order.PutUint16(tmp[0:2], uint16(len(entries)))
	buf.Write(tmp[0:2])
	for _, e := range entries {
		putClassicEntry(&buf, order, e.tag, e.typ, e.count, e.value)
	}
	buf.Write([]byte{0, 0, 0, 0}) // next_offset
	buf.Write([]byte{0x00, 0x55, 0xAA, 0xFF})

	return buf.Bytes()
}

func TestScenarioClassicGrayscaleStripRead(t *testing.T) {
	data := buildGrayscaleStripFile(t, 2, 2, 0)
	r := bytes.NewReader(data)

	hdr, err := ReadHeader(r)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if hdr.Big {
		t.Fatalf("expected classic header")
	}

	ifd, _, err := LoadIFD(r, hdr.FirstIFD, hdr.Order, hdr.Big, TIFFSpace)
	if err != nil {
		t.Fatalf("LoadIFD: %v", err)
	}

	setup, err := SetupFrame(ifd)
	if err != nil {
		t.Fatalf("SetupFrame: %v", err)
	}
	if setup.Mode != "L" || setup.RawMode != "L" {
		t.Errorf("mode = (%s,%s), want (L,L)", setup.Mode, setup.RawMode)
	}

	tiles, err := BuildTilePlan(ifd, setup, false)
	if err != nil {
		t.Fatalf("BuildTilePlan: %v", err)
	}
	if len(tiles) != 1 {
		t.Fatalf("expected 1 tile, got %d", len(tiles))
	}

	pixels := make([]byte, 4)
	if _, err := r.ReadAt(pixels, int64(tiles[0].FileOffset)); err != nil {
		t.Fatalf("reading strip data: %v", err)
	}
	want := []byte{0, 0x55, 0xAA, 0xFF}
	if !bytes.Equal(pixels, want) {
		t.Errorf("pixels = %v, want %v", pixels, want)
	}
}

func TestScenarioOrientationSwap(t *testing.T) {
	data := buildGrayscaleStripFile(t, 2, 3, 6)
	r := bytes.NewReader(data)
	hdr, err := ReadHeader(r)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	ifd, _, err := LoadIFD(r, hdr.FirstIFD, hdr.Order, hdr.Big, TIFFSpace)
	if err != nil {
		t.Fatalf("LoadIFD: %v", err)
	}
	setup, err := SetupFrame(ifd)
	if err != nil {
		t.Fatalf("SetupFrame: %v", err)
	}
	if setup.Width != 3 || setup.Height != 2 {
		t.Errorf("logical size = (%d,%d), want (3,2)", setup.Width, setup.Height)
	}
	if setup.TileWidth != 2 || setup.TileHeight != 3 {
		t.Errorf("tile size = (%d,%d), want (2,3)", setup.TileWidth, setup.TileHeight)
	}
}

func TestScenarioInlineVsSpillBoundary(t *testing.T) {
	ifd := NewIFD(LE, false)
	ifd.Set(BitsPerSample, IntsOf(1, 2))
	bytesOut, err := ifd.ToBytes(0)
	if err != nil {
		t.Fatalf("ToBytes (inline case): %v", err)
	}
	// header(2) + 1 entry(12) + next(4) = 18 bytes, no auxiliary data
	if len(bytesOut) != 18 {
		t.Errorf("inline-case size = %d, want 18", len(bytesOut))
	}

	ifd2 := NewIFD(LE, false)
	ifd2.Set(BitsPerSample, IntsOf(1, 2, 3))
	spillBytes, err := ifd2.ToBytes(0)
	if err != nil {
		t.Fatalf("ToBytes (spill case): %v", err)
	}
	// header(2) + 1 entry(12) + next(4) + 6 bytes aux (already even) = 24
	if len(spillBytes) != 24 {
		t.Errorf("spill-case size = %d, want 24", len(spillBytes))
	}

	back, _, err := LoadIFD(bytes.NewReader(spillBytes), 0, LE, false, TIFFSpace)
	if err != nil {
		t.Fatalf("LoadIFD (spill case): %v", err)
	}
	v, ok := back.GetValue(BitsPerSample)
	if !ok || len(v.Ints) != 3 || v.Ints[0] != 1 || v.Ints[1] != 2 || v.Ints[2] != 3 {
		t.Errorf("round trip = %v, want [1 2 3]", v.Ints)
	}
}

func TestIFDSetGetDeleteRoundTrip(t *testing.T) {
	ifd := NewIFD(LE, false)
	ifd.Set(ImageWidth, IntsOf(640))
	ifd.Set(ImageDescription, ASCIIOf("hello"))
	ifd.Set(XResolution, RationalsOf(NewRational(72, 1)))

	data, err := ifd.ToBytes(8)
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}

	// pad the buffer so offset 8 is valid inside it, mirroring a real
	// file where the IFD follows an 8-byte header.
	full := make([]byte, 8+len(data))
	copy(full[8:], data)

	back, _, err := LoadIFD(bytes.NewReader(full), 8, LE, false, TIFFSpace)
	if err != nil {
		t.Fatalf("LoadIFD: %v", err)
	}

	w, ok := back.Get(ImageWidth)
	if !ok || w.(int64) != 640 {
		t.Errorf("ImageWidth = %v, want 640", w)
	}
	desc, ok := back.Get(ImageDescription)
	if !ok || desc.(string) != "hello" {
		t.Errorf("ImageDescription = %v, want hello", desc)
	}
	xres, ok := back.Get(XResolution)
	if !ok {
		t.Fatalf("XResolution missing")
	}
	if r, isRat := xres.(Rational); !isRat || r.Numerator() != 72 {
		t.Errorf("XResolution = %v, want 72/1", xres)
	}

	back.Delete(ImageWidth)
	if _, ok := back.Get(ImageWidth); ok {
		t.Errorf("ImageWidth still present after Delete")
	}
}

func TestSetTruncatesOversizedSingleEntryTag(t *testing.T) {
	ifd := NewIFD(LE, false)
	ifd.Set(ImageWidth, IntsOf(1, 2, 3))
	v, ok := ifd.GetValue(ImageWidth)
	if !ok || len(v.Ints) != 1 || v.Ints[0] != 1 {
		t.Errorf("expected truncation to [1], got %v", v.Ints)
	}
}

func TestTagsAscendingOrder(t *testing.T) {
	ifd := NewIFD(LE, false)
	ifd.Set(StripOffsets, IntsOf(100))
	ifd.Set(ImageWidth, IntsOf(1))
	ifd.Set(Compression, IntsOf(1))
	tags := ifd.Tags()
	for i := 1; i < len(tags); i++ {
		if tags[i-1] >= tags[i] {
			t.Errorf("tags not strictly ascending: %v", tags)
		}
	}
}
