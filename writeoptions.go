package tiff

// compressionIDByName is COMPRESSION_INFO_REV: the writer-facing
// compression name to its numeric Compression tag value, grounded in
// original_source's COMPRESSION_INFO table. Names absent here (an
// unrecognized compression) fall back to raw (1).
var compressionIDByName = map[string]int64{
	"raw":                1,
	"tiff_ccitt":         2,
	"group3":             3,
	"group4":             4,
	"tiff_lzw":           5,
	"tiff_jpeg":          6,
	"jpeg":               7,
	"tiff_adobe_deflate": 8,
	"tiff_raw_16":        32771,
	"packbits":           32773,
	"tiff_thunderscan":   32809,
	"tiff_deflate":       32946,
	"tiff_sgilog":        34676,
	"tiff_sgilog24":      34677,
	"lzma":               34925,
	"zstd":               50000,
	"webp":               50001,
}

// normalizeCompressionName applies the two silent upgrades spec.md §6
// calls for before the name is looked up in compressionIDByName.
func normalizeCompressionName(name string) string {
	switch name {
	case "":
		return "raw"
	case "tiff_jpeg":
		return "jpeg"
	case "tiff_deflate":
		return "tiff_adobe_deflate"
	default:
		return name
	}
}

// compressionIDFor resolves a writer-facing compression name to its
// Compression tag value, defaulting unknown names to raw (§6 "Unknown →
// raw").
func compressionIDFor(name string) int64 {
	id, ok := compressionIDByName[normalizeCompressionName(name)]
	if !ok {
		return compressionIDByName["raw"]
	}
	return id
}

// defaultStripSize is §6's "target bytes per strip; default 65536".
const defaultStripSize = 65536

// WriteOptions carries every writer-facing option spec.md §6 enumerates,
// translated into IFD tags by ApplyWriteOptions. Grounded in
// original_source's encoderinfo handling inside _save.
type WriteOptions struct {
	Compression string // raw, jpeg, tiff_lzw, tiff_adobe_deflate, ... — normalized and defaulted to raw
	BigTiff     bool
	Quality     int // 0..100, valid only with Compression == "jpeg"
	HasQuality  bool
	StripSize   int // target bytes per strip; 0 means defaultStripSize

	DPI    [2]float64
	HasDPI bool

	TiffInfo *IFD // pre-filled tags to merge in; EXIFIFD and SampleFormat are dropped

	Description string
	Software    string
	DateTime    string
	Artist      string
	Copyright   string

	Resolution    float64
	HasResolution bool

	XResolution    float64
	HasXResolution bool

	YResolution    float64
	HasYResolution bool

	ResolutionUnit    int64
	HasResolutionUnit bool
}

// droppedSuppliedTags is §6's "EXIFIFD (34665) and SampleFormat (339)
// are dropped from caller-supplied tags."
var droppedSuppliedTags = map[Tag]bool{
	ExifIFD:      true,
	SampleFormat: true,
}

// ApplyWriteOptions translates opts into tags on ifd, in the order
// original_source's _save applies them: merged TiffInfo first (so
// explicit fields below can still override it), then compression,
// quality, dpi, and the named passthroughs.
func ApplyWriteOptions(ifd *IFD, opts WriteOptions) error {
	ifd.Big = opts.BigTiff

	if opts.TiffInfo != nil {
		for _, tag := range opts.TiffInfo.Tags() {
			if droppedSuppliedTags[tag] {
				continue
			}
			v, ok := opts.TiffInfo.GetValue(tag)
			if !ok {
				continue
			}
			typ, _ := opts.TiffInfo.Type(tag)
			ifd.SetTyped(tag, typ, v)
		}
	}

	compressionName := normalizeCompressionName(opts.Compression)
	ifd.Set(Compression, IntsOf(compressionIDFor(compressionName)))

	if opts.HasQuality {
		if opts.Quality < 0 || opts.Quality > 100 {
			return newProgrammerErrorf("invalid quality setting %d: must be 0..100", opts.Quality)
		}
		if compressionName != "jpeg" {
			return newProgrammerErrorf("quality setting only supported for jpeg compression")
		}
		// Quality is libtiff's pseudo-tag (original_source's JPEGQUALITY,
		// id 65537): it configures the external encoder and is never
		// itself an on-disk TIFF tag, so it stays on opts rather than
		// being set on ifd. A caller building a forced-libtiff Tile
		// reads opts.Quality directly for its CodecArgs.Attributes.
	}

	if opts.HasDPI {
		ifd.Set(ResolutionUnit, IntsOf(2))
		ifd.Set(XResolution, RationalsOf(RationalFromFloat(opts.DPI[0], 1)))
		ifd.Set(YResolution, RationalsOf(RationalFromFloat(opts.DPI[1], 1)))
	}

	if opts.Description != "" {
		ifd.Set(ImageDescription, ASCIIOf(opts.Description))
	}
	if opts.HasResolution {
		ifd.Set(XResolution, RationalsOf(RationalFromFloat(opts.Resolution, 1)))
		ifd.Set(YResolution, RationalsOf(RationalFromFloat(opts.Resolution, 1)))
	}
	if opts.HasXResolution {
		ifd.Set(XResolution, RationalsOf(RationalFromFloat(opts.XResolution, 1)))
	}
	if opts.HasYResolution {
		ifd.Set(YResolution, RationalsOf(RationalFromFloat(opts.YResolution, 1)))
	}
	if opts.HasResolutionUnit {
		ifd.Set(ResolutionUnit, IntsOf(opts.ResolutionUnit))
	}
	if opts.Software != "" {
		ifd.Set(Software, ASCIIOf(opts.Software))
	}
	if opts.DateTime != "" {
		ifd.Set(DateTime, ASCIIOf(opts.DateTime))
	}
	if opts.Artist != "" {
		ifd.Set(Artist, ASCIIOf(opts.Artist))
	}
	if opts.Copyright != "" {
		ifd.Set(Copyright, ASCIIOf(opts.Copyright))
	}

	return nil
}

// resolveStripSize returns the configured target strip size, or
// defaultStripSize when unset (§6).
func resolveStripSize(opts WriteOptions) int {
	if opts.StripSize > 0 {
		return opts.StripSize
	}
	return defaultStripSize
}

// RowsPerStrip implements §6's strip-size-to-rows-per-strip rule,
// including the "JPEG encoder expects multiple of 8 rows" adjustment
// from original_source's _save.
func RowsPerStrip(opts WriteOptions, stride, height int64, libtiff bool) int64 {
	if !libtiff {
		if height <= 0 {
			return 1
		}
		return height
	}
	stripSize := int64(resolveStripSize(opts))
	var rows int64
	if stride == 0 {
		rows = 1
	} else {
		rows = stripSize / stride
		if rows > height {
			rows = height
		}
	}
	if normalizeCompressionName(opts.Compression) == "jpeg" {
		rows = ((rows + 7) / 8) * 8
		if rows > height {
			rows = height
		}
	}
	if rows <= 0 {
		rows = 1
	}
	return rows
}
