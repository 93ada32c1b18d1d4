package tiff

import (
	"io"
	"sort"

	"github.com/pkg/errors"
)

// classicEntrySize/bigEntrySize are the on-disk sizes of one directory
// entry (§6): tag+type+count+value-or-offset.
const (
	classicEntrySize = 12
	bigEntrySize     = 20
	classicSlotSize  = 4
	bigSlotSize      = 8
)

// entry is an IFD slot before/after lazy decoding. Per §4.4's state
// machine, an entry starts in "Loading" (raw non-nil, decoded false)
// and becomes "Decoded" the first time Get touches it; Set always
// stores a Decoded entry directly (the "Mutated" transition).
type entry struct {
	typ     Type
	raw     []byte
	decoded bool
	value   Value
}

// IFD is an Image File Directory: an ordered-by-tag mapping from TagId
// to a typed value, plus the bookkeeping §3 calls out for multi-page
// traversal and in-place rewriting.
type IFD struct {
	Order      ByteOrder
	Big        bool
	Group      TagSpace
	NextOffset uint64 // absolute offset of the successor IFD, 0 = end of list
	BaseOffset uint64 // absolute offset this IFD was read from

	entries map[Tag]*entry
	// Logf receives non-fatal warnings (truncated tags, "too many
	// values for single-entry tag"). Defaults to a no-op; callers that
	// want visibility set it after construction. LoadIFD constructs its
	// IFD internally, so the warnings it emits while reading (unknown
	// types, truncated tags) go to the default no-op logger.
	Logf func(format string, args ...any)
}

// NewIFD returns an empty IFD ready for Set calls, matching §3's
// lifecycle ("An IFD is created empty...").
func NewIFD(order ByteOrder, big bool) *IFD {
	return &IFD{
		Order:   order,
		Big:     big,
		entries: make(map[Tag]*entry),
		Logf:    func(string, ...any) {},
	}
}

func (d *IFD) logf(format string, args ...any) {
	if d.Logf != nil {
		d.Logf(format, args...)
	}
}

func (d *IFD) slotSize() int {
	if d.Big {
		return bigSlotSize
	}
	return classicSlotSize
}

// entrySize returns the on-disk byte size of one directory entry, and
// countFieldSize the count-field width (2 bytes classic / 8 BigTIFF).
func (d *IFD) entrySize() int {
	if d.Big {
		return bigEntrySize
	}
	return classicEntrySize
}

func (d *IFD) countFieldSize() int {
	if d.Big {
		return 8
	}
	return 2
}

// LoadIFD reads the directory at pos from r and returns it along with
// the absolute offset of the next IFD (0 if none). Per §4.4/§7: a
// truncated directory header aborts the load with an error; a single
// tag whose payload can't be read is skipped with a warning and the
// load continues.
func LoadIFD(r io.ReaderAt, pos uint64, order ByteOrder, big bool, group TagSpace) (*IFD, uint64, error) {
	d := NewIFD(order, big)
	d.Group = group
	d.BaseOffset = pos

	countBuf := make([]byte, d.countFieldSize())
	if _, err := r.ReadAt(countBuf, int64(pos)); err != nil {
		if err == io.EOF {
			return nil, 0, newCorruptionErrorf("truncated IFD header at offset %d", pos)
		}
		return nil, 0, errors.Wrap(err, "tiff: reading IFD entry count")
	}
	var count uint64
	if big {
		count = order.Uint64(countBuf)
	} else {
		count = uint64(order.Uint16(countBuf))
	}

	entriesPos := pos + uint64(d.countFieldSize())
	entrySize := uint64(d.entrySize())
	entryBuf := make([]byte, entrySize)
	for i := uint64(0); i < count; i++ {
		if _, err := r.ReadAt(entryBuf, int64(entriesPos+i*entrySize)); err != nil {
			return nil, 0, errors.Wrap(err, "tiff: reading IFD directory entries")
		}
		tag := Tag(order.Uint16(entryBuf[0:2]))
		typ := Type(order.Uint16(entryBuf[2:4]))

		codec, known := codecRegistry[typ]
		if !known {
			d.logf("tag %s: unsupported type %d, skipping", TagName(tag), typ)
			continue
		}

		var valueCount uint64
		var slot []byte
		if big {
			valueCount = order.Uint64(entryBuf[4:12])
			slot = entryBuf[12:20]
		} else {
			valueCount = uint64(order.Uint32(entryBuf[4:8]))
			slot = entryBuf[8:12]
		}

		size := valueCount * uint64(codec.unitSize)
		var raw []byte
		if size > uint64(d.slotSize()) {
			offset := readUintSlot(slot, order, d.slotSize())
			raw = make([]byte, size)
			if _, err := r.ReadAt(raw, int64(offset)); err != nil {
				d.logf("tag %s: data at offset %d unreadable: %v, skipping", TagName(tag), offset, err)
				continue
			}
		} else {
			raw = append([]byte(nil), slot[:size]...)
		}
		d.entries[tag] = &entry{typ: typ, raw: raw}
	}

	nextBuf := make([]byte, d.countFieldSize()) // next-offset field is same width as offsets (4/8), not count width; fixed below
	nextFieldSize := 4
	if big {
		nextFieldSize = 8
	}
	nextBuf = make([]byte, nextFieldSize)
	nextPos := entriesPos + count*entrySize
	if _, err := r.ReadAt(nextBuf, int64(nextPos)); err != nil {
		return nil, 0, errors.Wrap(err, "tiff: reading next-IFD pointer")
	}
	next := readUintSlot(nextBuf, order, nextFieldSize)
	d.NextOffset = next
	return d, next, nil
}

func readUintSlot(b []byte, order ByteOrder, width int) uint64 {
	switch width {
	case 4:
		return uint64(order.Uint32(b))
	case 8:
		return order.Uint64(b)
	default:
		panic("tiff: invalid slot width")
	}
}

// Len returns the number of tags present (decoded or not).
func (d *IFD) Len() int {
	return len(d.entries)
}

// Tags returns every tag present, in ascending order.
func (d *IFD) Tags() []Tag {
	tags := make([]Tag, 0, len(d.entries))
	for t := range d.entries {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Type returns the stored type of tag, if present.
func (d *IFD) Type(tag Tag) (Type, bool) {
	e, ok := d.entries[tag]
	if !ok {
		return 0, false
	}
	return e.typ, true
}

// Get decodes (lazily, on first access) and returns the value for tag.
// Per §9's "dual legacy/v2 view" decision, this core exposes only the
// non-wrapping view: single-element tuples collapse to the bare scalar.
func (d *IFD) Get(tag Tag) (any, bool) {
	e, ok := d.entries[tag]
	if !ok {
		return nil, false
	}
	if !e.decoded {
		codec, known := codecRegistry[e.typ]
		if !known {
			return nil, false
		}
		e.value = codec.load(e.raw, d.Order)
		e.decoded = true
	}
	return e.value.scalarOrSelf(), true
}

// GetValue is like Get but always returns the full Value, without
// scalar collapsing — useful for callers that need Len()/the raw tuple
// regardless of cardinality.
func (d *IFD) GetValue(tag Tag) (Value, bool) {
	e, ok := d.entries[tag]
	if !ok {
		return Value{}, false
	}
	if !e.decoded {
		codec, known := codecRegistry[e.typ]
		if !known {
			return Value{}, false
		}
		e.value = codec.load(e.raw, d.Order)
		e.decoded = true
	}
	return e.value, true
}

// singleEntryTags lists tags the TIFF spec defines with exactly one
// value, used by Set to decide whether to warn-and-truncate on an
// oversized value (§4.4).
var singleEntryTags = map[Tag]bool{
	ImageWidth: true, ImageLength: true, Compression: true,
	PhotometricInterpretation: true, FillOrder: true, Orientation: true,
	SamplesPerPixel: true, RowsPerStrip: true, PlanarConfiguration: true,
	ResolutionUnit: true, Predictor: true, TileWidth: true, TileLength: true,
	SubIFDs: false, ExifIFD: true, GPSIFD: true,
}

// Set normalizes value to a Value, infers its type from the value (a
// type recorded earlier for tag is replaced), and stores it. A known single-entry tag given more
// than one value is truncated to its first element with a warning
// (§4.4).
func (d *IFD) Set(tag Tag, value Value) {
	d.SetTyped(tag, 0, value)
}

// SetTyped is Set with an explicit type, honoring rather than inferring
// it (§3 "rewriting a value may change the type").
func (d *IFD) SetTyped(tag Tag, typ Type, value Value) {
	if typ == 0 {
		typ = inferType(value)
	}
	if (singleEntryTags[tag] || typ == BYTE) && value.Len() > 1 && value.SubIFD == nil {
		d.logf("tag %s had too many entries: %d, expected 1", TagName(tag), value.Len())
		value = truncateToFirst(value)
	}
	d.entries[tag] = &entry{typ: typ, decoded: true, value: value}
}

func truncateToFirst(v Value) Value {
	switch {
	case len(v.Ints) > 0:
		return Value{Ints: v.Ints[:1]}
	case len(v.Rationals) > 0:
		return Value{Rationals: v.Rationals[:1]}
	case len(v.Floats) > 0:
		return Value{Floats: v.Floats[:1]}
	default:
		return v
	}
}

// SetSubIFD stores a nested directory under tag, serialized as a
// LONG-typed pointer field per §4.4 "Nested IFDs".
func (d *IFD) SetSubIFD(tag Tag, sub *IFD) {
	d.entries[tag] = &entry{typ: LONG, decoded: true, value: Value{SubIFD: sub}}
}

// Delete removes tag entirely.
func (d *IFD) Delete(tag Tag) {
	delete(d.entries, tag)
}

// ---- Serialization (§4.4 "Two-pass serialization") ----

type packedEntry struct {
	tag       Tag
	typ       Type
	count     uint64
	inline    []byte // always slotSize() bytes, left-aligned+padded when used
	aux       []byte // nil when the value fit inline
	isInline  bool
	stripSlot bool // true for the StripOffsets entry, patched after the main loop
}

// ToBytes serializes the directory at baseOffset, implementing §4.4's
// two-pass algorithm: pass 1 encodes every tag's payload and decides
// inline-vs-spill; after the cumulative offset is known, StripOffsets
// (if present) is patched to point past the directory+auxiliary area;
// pass 2 emits the entry table, a zero next-pointer, then the
// auxiliary data, word-padded.
func (d *IFD) ToBytes(baseOffset uint64) ([]byte, error) {
	tags := d.Tags()
	slotSize := uint64(d.slotSize())
	entrySize := uint64(d.entrySize())
	countSize := uint64(d.countFieldSize())

	offset := baseOffset + countSize + uint64(len(tags))*entrySize + slotSize
	packed := make([]packedEntry, 0, len(tags))
	stripIndex := -1

	for _, tag := range tags {
		e := d.entries[tag]
		val, err := d.materialize(tag, e, offset)
		if err != nil {
			return nil, err
		}

		var data []byte
		count := uint64(val.Len())
		if val.SubIFD != nil {
			sub := val.SubIFD
			data, err = sub.ToBytes(offset)
			if err != nil {
				return nil, errors.Wrapf(err, "tiff: serializing sub-IFD under tag %s", TagName(tag))
			}
			count = 1
		} else {
			codec, known := codecRegistry[e.typ]
			if !known {
				return nil, newSyntaxErrorf("tag %s: cannot serialize unknown type %d", TagName(tag), e.typ)
			}
			data = codec.write(val, d.Order)
		}

		pe := packedEntry{tag: tag, typ: e.typ, count: count}
		if tag == StripOffsets {
			stripIndex = len(packed)
			pe.stripSlot = true
		}
		if uint64(len(data)) <= slotSize {
			pe.isInline = true
			pe.inline = make([]byte, slotSize)
			copy(pe.inline, data)
		} else {
			pe.aux = data
			pe.inline = make([]byte, slotSize)
			writeUintSlot(pe.inline, d.Order, int(slotSize), offset)
			padded := (uint64(len(data)) + 1) / 2 * 2
			offset += padded
		}
		packed = append(packed, pe)
	}

	// Patch StripOffsets to point past the end of this directory's
	// serialized footprint (§4.4: "the end-of-IFD position").
	if stripIndex >= 0 {
		pe := &packed[stripIndex]
		codec := codecRegistry[pe.typ]
		if pe.aux != nil {
			decoded := codec.load(pe.aux, d.Order)
			shifted := make([]int64, len(decoded.Ints))
			for i, v := range decoded.Ints {
				shifted[i] = v + int64(offset)
			}
			pe.aux = codec.write(Value{Ints: shifted}, d.Order)
		} else {
			// Decode through the entry's own type rather than treating
			// the inline slot as one slotSize-wide integer: a SHORT (or
			// other sub-slot-width) value sits in the low bytes of the
			// slot, and byte order determines which end those are.
			width := int(pe.typ.Size())
			if width == 0 {
				width = 1
			}
			decoded := codec.load(pe.inline[:width*int(pe.count)], d.Order)
			shifted := make([]int64, len(decoded.Ints))
			for i, v := range decoded.Ints {
				shifted[i] = v + int64(offset)
			}
			encoded := codec.write(Value{Ints: shifted}, d.Order)
			inline := make([]byte, slotSize)
			copy(inline, encoded)
			pe.inline = inline
		}
	}

	out := make([]byte, 0, offset-baseOffset)
	if d.Big {
		countBuf := make([]byte, 8)
		d.Order.PutUint64(countBuf, uint64(len(packed)))
		out = append(out, countBuf...)
	} else {
		countBuf := make([]byte, 2)
		d.Order.PutUint16(countBuf, uint16(len(packed)))
		out = append(out, countBuf...)
	}

	for _, pe := range packed {
		tagBuf := make([]byte, 4)
		d.Order.PutUint16(tagBuf[0:2], uint16(pe.tag))
		d.Order.PutUint16(tagBuf[2:4], uint16(pe.typ))
		out = append(out, tagBuf...)
		countBuf := make([]byte, countSize)
		if d.Big {
			d.Order.PutUint64(countBuf, pe.count)
		} else {
			d.Order.PutUint32(countBuf, uint32(pe.count))
		}
		out = append(out, countBuf...)
		out = append(out, pe.inline...)
	}
	out = append(out, make([]byte, slotSize)...) // next_offset, patched by the caller/writer

	for _, pe := range packed {
		if pe.aux != nil {
			out = append(out, pe.aux...)
			if len(pe.aux)&1 == 1 {
				out = append(out, 0)
			}
		}
	}
	return out, nil
}

// materialize returns the decoded Value for an entry, decoding lazily
// if needed (mirrors Get's lazy-decode but keeps the full tuple).
func (d *IFD) materialize(tag Tag, e *entry, offset uint64) (Value, error) {
	if !e.decoded {
		codec, known := codecRegistry[e.typ]
		if !known {
			return Value{}, newSyntaxErrorf("tag %s: unknown type %d", TagName(tag), e.typ)
		}
		e.value = codec.load(e.raw, d.Order)
		e.decoded = true
	}
	return e.value, nil
}

func writeUintSlot(b []byte, order ByteOrder, width int, v uint64) {
	switch width {
	case 4:
		order.PutUint32(b, uint32(v))
	case 8:
		order.PutUint64(b, v)
	default:
		panic("tiff: invalid slot width")
	}
}
