package tiff

// Tile is one unit of the tile plan handed to an external codec (§6).
// Pixel decompression itself is out of scope for this core; Tile only
// describes where the compressed bytes live and what the codec needs
// to interpret them.
type Tile struct {
	Codec      string
	BBox       [4]int64 // x0, y0, x1, y1
	FileOffset uint64
	CodecArgs  any
}

// RawCodecArgs is the codec_args shape for the raw path (§6): a layout
// string, the row stride (0 meaning "natural", computed by the codec
// from width and bit depth), and the orientation the codec should
// assume when walking rows. A caller wiring in a real codec — e.g. the
// LZW implementation in golang.org/x/image/tiff/lzw — reads RawMode and
// Stride from here.
type RawCodecArgs struct {
	RawMode     string
	Stride      int64
	Orientation int64
}

// LibtiffCodecArgs is the codec_args shape for the forced-libtiff path
// (§6): used for anything other than raw (including JPEG, PackBits,
// Deflate, LZW-via-libtiff) where the codec library handles its own
// directory/strip walking rather than consuming a flat Tile list.
type LibtiffCodecArgs struct {
	RawMode     string
	Compression int64
	FileHandle  any // a seekable stream, or nil meaning "caller reopens by path"
	BaseOffset  uint64
	// Attributes carries tags the codec should honor when it re-derives
	// its own directory view. Tags in blockedCodecAttributes must never
	// appear here (§6).
	Attributes map[Tag]any
}

// blockedCodecAttributes is the set of tags forbidden from CodecArgs'
// Attributes map: they are either meaningless to re-derive (offsets
// the codec computes itself) or would let a caller smuggle in
// structural tags the core already owns.
var blockedCodecAttributes = map[Tag]bool{
	StripOffsets:        true,
	StripByteCounts:     true,
	oSubfileTypeTag:     true,
	ReferenceBlackWhite: true,
	SubIFDs:             true,
}

// transferFunctionTag is carried separately from the named Tag
// constants because it's consulted only for the codec-attribute
// blocklist, never read by the core itself.
const transferFunctionTag Tag = 0x0150

// oSubfileTypeTag is the old-style SubfileType tag (255), the
// predecessor of NewSubfileType (254); like transferFunctionTag it is
// consulted only for the codec-attribute blocklist.
const oSubfileTypeTag Tag = 0x00FF

func init() {
	blockedCodecAttributes[transferFunctionTag] = true
}

// FilterCodecAttributes copies src, dropping any tag in
// blockedCodecAttributes, for building a LibtiffCodecArgs.Attributes
// map from an IFD's tag set.
func FilterCodecAttributes(src map[Tag]any) map[Tag]any {
	out := make(map[Tag]any, len(src))
	for tag, v := range src {
		if blockedCodecAttributes[tag] {
			continue
		}
		out[tag] = v
	}
	return out
}
