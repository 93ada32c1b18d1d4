package tiff

import "fmt"

// Type is a TIFF field type id (§3 TagType). Values and names come
// straight from the TIFF 6.0 spec and its BigTIFF/EXIF supplements, the
// same set the teacher enumerates in tiff66.go plus LONG8 for BigTIFF.
type Type uint16

const (
	BYTE      Type = 1
	ASCII     Type = 2
	SHORT     Type = 3
	LONG      Type = 4
	RATIONAL  Type = 5
	SBYTE     Type = 6
	UNDEFINED Type = 7
	SSHORT    Type = 8
	SLONG     Type = 9
	SRATIONAL Type = 10
	FLOAT     Type = 11
	DOUBLE    Type = 12
	IFDTYPE   Type = 13 // "IFD" in the spec; named IFDTYPE to avoid colliding with the IFD struct.
	LONG8     Type = 16 // BigTIFF
)

var typeNames = map[Type]string{
	BYTE: "BYTE", ASCII: "ASCII", SHORT: "SHORT", LONG: "LONG",
	RATIONAL: "RATIONAL", SBYTE: "SBYTE", UNDEFINED: "UNDEFINED",
	SSHORT: "SSHORT", SLONG: "SLONG", SRATIONAL: "SRATIONAL",
	FLOAT: "FLOAT", DOUBLE: "DOUBLE", IFDTYPE: "IFD", LONG8: "LONG8",
}

// Name returns the TIFF type name, or "Unknown" for an id this core
// doesn't recognize.
func (t Type) Name() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "Unknown"
}

// typeSizes is the byte size of a single value of each type, used both
// to compute field payload sizes and, structurally, to treat IFD and
// LONG8 as LONG/8-byte-LONG for offset purposes (§4.3).
var typeSizes = map[Type]uint32{
	BYTE: 1, ASCII: 1, SHORT: 2, LONG: 4, RATIONAL: 8,
	SBYTE: 1, UNDEFINED: 1, SSHORT: 2, SLONG: 4, SRATIONAL: 8,
	FLOAT: 4, DOUBLE: 8, IFDTYPE: 4, LONG8: 8,
}

// Size returns the byte size of one value of this type, or 0 if unknown.
func (t Type) Size() uint32 {
	return typeSizes[t]
}

func (t Type) IsIntegral() bool {
	switch t {
	case BYTE, SHORT, LONG, SBYTE, SSHORT, SLONG, IFDTYPE, LONG8:
		return true
	}
	return false
}

func (t Type) IsRational() bool {
	return t == RATIONAL || t == SRATIONAL
}

func (t Type) IsFloat() bool {
	return t == FLOAT || t == DOUBLE
}

func (t Type) IsSigned() bool {
	switch t {
	case SBYTE, SSHORT, SLONG, SRATIONAL:
		return true
	}
	return false
}

// Tag is a TIFF field tag id (§3 TagId).
type Tag uint16

// The mandatory/common tags this core consults directly, per spec.md
// §4.6 and §4.7's rewrite set. Private/maker-note tags are out of scope
// (see DESIGN.md).
const (
	NewSubfileType            Tag = 0x0FE
	ImageWidth                Tag = 0x100
	ImageLength               Tag = 0x101
	BitsPerSample             Tag = 0x102
	Compression               Tag = 0x103
	PhotometricInterpretation Tag = 0x106
	FillOrder                 Tag = 0x10A
	ImageDescription          Tag = 0x10E
	Make                      Tag = 0x10F
	Model                     Tag = 0x110
	StripOffsets              Tag = 0x111
	Orientation               Tag = 0x112
	SamplesPerPixel           Tag = 0x115
	RowsPerStrip              Tag = 0x116
	StripByteCounts           Tag = 0x117
	XResolution               Tag = 0x11A
	YResolution               Tag = 0x11B
	PlanarConfiguration       Tag = 0x11C
	FreeOffsets               Tag = 0x120
	FreeByteCounts            Tag = 0x121
	ResolutionUnit            Tag = 0x128
	Software                  Tag = 0x131
	DateTime                  Tag = 0x132
	Artist                    Tag = 0x13B
	Predictor                 Tag = 0x13D
	WhitePoint                Tag = 0x13E
	PrimaryChromaticities     Tag = 0x13F
	ColorMap                  Tag = 0x140
	TileWidth                 Tag = 0x142
	TileLength                Tag = 0x143
	TileOffsets               Tag = 0x144
	TileByteCounts            Tag = 0x145
	SubIFDs                   Tag = 0x14A
	ExtraSamples              Tag = 0x152
	SampleFormat              Tag = 0x153
	JPEGProc                  Tag = 0x200
	JPEGInterchangeFormat     Tag = 0x201
	JPEGInterchangeFormatLen  Tag = 0x202
	JPEGQTables               Tag = 0x207
	JPEGDCTables              Tag = 0x208
	JPEGACTables              Tag = 0x209
	YCbCrCoefficients         Tag = 0x211
	YCbCrSubSampling          Tag = 0x212
	YCbCrPositioning          Tag = 0x213
	ReferenceBlackWhite       Tag = 0x214
	Copyright                 Tag = 0x8298
	ExifIFD                   Tag = 0x8769
	GPSIFD                    Tag = 0x8825
	WindowsMediaPhoto         Tag = 0xBC01
	ImageJMetaDataByteCounts  Tag = 0xC696 // 50838, passed through raw per §9 open question
	ImageJMetaData            Tag = 0xC697 // 50839
)

// tagNames backs TagName, used in log messages and cmd/tiffinfo's pretty printer. Deliberately
// partial: unknown tags print as "Unknown(N)", matching the teacher.
var tagNames = map[Tag]string{
	NewSubfileType: "NewSubfileType", ImageWidth: "ImageWidth",
	ImageLength: "ImageLength", BitsPerSample: "BitsPerSample",
	Compression: "Compression", PhotometricInterpretation: "PhotometricInterpretation",
	FillOrder: "FillOrder", ImageDescription: "ImageDescription",
	Make: "Make", Model: "Model", StripOffsets: "StripOffsets",
	Orientation: "Orientation", SamplesPerPixel: "SamplesPerPixel",
	RowsPerStrip: "RowsPerStrip", StripByteCounts: "StripByteCounts",
	XResolution: "XResolution", YResolution: "YResolution",
	PlanarConfiguration: "PlanarConfiguration", FreeOffsets: "FreeOffsets",
	FreeByteCounts: "FreeByteCounts", ResolutionUnit: "ResolutionUnit",
	Software: "Software", DateTime: "DateTime", Artist: "Artist",
	Predictor: "Predictor", WhitePoint: "WhitePoint",
	PrimaryChromaticities: "PrimaryChromaticities", ColorMap: "ColorMap",
	TileWidth: "TileWidth", TileLength: "TileLength",
	TileOffsets: "TileOffsets", TileByteCounts: "TileByteCounts",
	SubIFDs: "SubIFDs", ExtraSamples: "ExtraSamples",
	SampleFormat: "SampleFormat", JPEGProc: "JPEGProc",
	JPEGInterchangeFormat: "JPEGInterchangeFormat", JPEGQTables: "JPEGQTables",
	JPEGDCTables: "JPEGDCTables", JPEGACTables: "JPEGACTables",
	YCbCrCoefficients: "YCbCrCoefficients", YCbCrSubSampling: "YCbCrSubSampling",
	YCbCrPositioning: "YCbCrPositioning", ReferenceBlackWhite: "ReferenceBlackWhite",
	Copyright: "Copyright", ExifIFD: "ExifIFD", GPSIFD: "GPSIFD",
}

// TagName returns the tag's common name, or "Unknown(N)".
func TagName(t Tag) string {
	if n, ok := tagNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Unknown(%d)", uint16(t))
}

// rewriteOffsetTags is §4.7's set of tags whose *values* are themselves
// file offsets that the appending writer must relocate by the new
// page's base offset.
var rewriteOffsetTags = map[Tag]bool{
	StripOffsets: true,
	FreeOffsets:  true,
	TileOffsets:  true,
	JPEGQTables:  true,
	JPEGDCTables: true,
	JPEGACTables: true,
}

// TagSpace scopes tag-name lookup for sub-directories, per §3's "group"
// field. Reduced from the teacher's full maker-note namespace set
// (DESIGN.md explains the cut): this core only needs to distinguish the
// main IFD from its EXIF/GPS/Interop/SubIFD children for structural
// IsIFDPointer/SubSpace dispatch. TagName does not consult the space.
type TagSpace uint8

const (
	TIFFSpace TagSpace = iota
	ExifSpace
	GPSSpace
	InteropSpace
	UnknownSpace
)

func (s TagSpace) Name() string {
	switch s {
	case TIFFSpace:
		return "TIFF"
	case ExifSpace:
		return "Exif"
	case GPSSpace:
		return "GPS"
	case InteropSpace:
		return "Interop"
	default:
		return "Unknown"
	}
}

const interopIFDTag Tag = 0xA005

// SubSpace returns the tag namespace entered when following a sub-IFD
// pointer field with the given tag, from within a directory of this
// space.
func (s TagSpace) SubSpace(tag Tag) TagSpace {
	switch s {
	case TIFFSpace:
		switch tag {
		case SubIFDs:
			return TIFFSpace
		case ExifIFD:
			return ExifSpace
		case GPSIFD:
			return GPSSpace
		}
	case ExifSpace:
		if tag == interopIFDTag {
			return InteropSpace
		}
	}
	return UnknownSpace
}

// IsIFDPointer reports whether a field with the given tag and type,
// read within a directory of this space, refers to a sub-IFD. TIFF's
// own IFDTYPE type is always a pointer; SubIFDs/ExifIFD/GPSIFD/Interop
// are LONG-typed pointers that are only sub-IFDs by convention.
func (s TagSpace) IsIFDPointer(tag Tag, typ Type) bool {
	if typ == IFDTYPE {
		return true
	}
	switch s {
	case TIFFSpace:
		return tag == SubIFDs || tag == ExifIFD || tag == GPSIFD
	case ExifSpace:
		return tag == interopIFDTag
	}
	return false
}
