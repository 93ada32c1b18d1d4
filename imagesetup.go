package tiff

// Compression ids this core needs to recognize by number (§4.6/§6).
const (
	compressionNone = 1
	compressionJPEGOld = 6
	compressionJPEG    = 7
)

const (
	photometricWhiteIsZero = 0
	photometricBlackIsZero = 1
	photometricRGB         = 2
	photometricPalette     = 3
	photometricCMYK        = 5
	photometricYCbCr       = 6
	photometricLAB         = 8
)

// modeKey is the (byte_order, photometric, sample_format, fill_order,
// bits_per_sample..., extra_samples...) tuple the compatibility table is
// keyed on, per §4.6. bits and extra are joined into a string since Go
// map keys can't be slices.
type modeKey struct {
	bigEndian   bool
	photometric int64
	sampleFmt   int64
	fillOrder   int64
	bits        string
	extra       string
}

// modeEntry is the (mode, raw_mode) pair OPEN_INFO yields.
type modeEntry struct {
	mode, rawMode string
}

func joinInts(vs []int64) string {
	out := make([]byte, 0, len(vs)*4)
	for i, v := range vs {
		if i > 0 {
			out = append(out, ',')
		}
		out = appendInt(out, v)
	}
	return string(out)
}

func appendInt(b []byte, v int64) []byte {
	if v == 0 {
		return append(b, '0')
	}
	neg := v < 0
	if neg {
		v = -v
	}
	start := len(b)
	for v > 0 {
		b = append(b, byte('0'+v%10))
		v /= 10
	}
	if neg {
		b = append(b, '-')
	}
	// reverse the appended digits
	for i, j := start, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}

// modeTable is a direct transcription of Pillow's OPEN_INFO, grounded in
// original_source/TiffImagePlugin.py, which this core treats as the
// authoritative pixel-mode compatibility table per §4.6's "static
// lookup table the core consults."
var modeTable map[modeKey]modeEntry

func init() {
	modeTable = make(map[modeKey]modeEntry)
	add := func(big bool, photometric, sampleFmt, fillOrder int64, bits []int64, extra []int64, mode, raw string) {
		modeTable[modeKey{big, photometric, sampleFmt, fillOrder, joinInts(bits), joinInts(extra)}] = modeEntry{mode, raw}
	}
	for _, big := range []bool{false, true} {
		add(big, 0, 1, 1, []int64{1}, nil, "1", "1;I")
		add(big, 0, 1, 2, []int64{1}, nil, "1", "1;IR")
		add(big, 1, 1, 1, []int64{1}, nil, "1", "1")
		add(big, 1, 1, 2, []int64{1}, nil, "1", "1;R")
		add(big, 0, 1, 1, []int64{2}, nil, "L", "L;2I")
		add(big, 0, 1, 2, []int64{2}, nil, "L", "L;2IR")
		add(big, 1, 1, 1, []int64{2}, nil, "L", "L;2")
		add(big, 1, 1, 2, []int64{2}, nil, "L", "L;2R")
		add(big, 0, 1, 1, []int64{4}, nil, "L", "L;4I")
		add(big, 0, 1, 2, []int64{4}, nil, "L", "L;4IR")
		add(big, 1, 1, 1, []int64{4}, nil, "L", "L;4")
		add(big, 1, 1, 2, []int64{4}, nil, "L", "L;4R")
		add(big, 0, 1, 1, []int64{8}, nil, "L", "L;I")
		add(big, 0, 1, 2, []int64{8}, nil, "L", "L;IR")
		add(big, 1, 1, 1, []int64{8}, nil, "L", "L")
		add(big, 1, 2, 1, []int64{8}, nil, "L", "L")
		add(big, 1, 1, 2, []int64{8}, nil, "L", "L;R")
		add(big, 1, 1, 2, []int64{8, 8}, []int64{2}, "LA", "LA")
		add(big, 2, 1, 1, []int64{8, 8, 8}, nil, "RGB", "RGB")
		add(big, 2, 1, 2, []int64{8, 8, 8}, nil, "RGB", "RGB;R")
		add(big, 2, 1, 1, []int64{8, 8, 8, 8}, nil, "RGBA", "RGBA")
		add(big, 2, 1, 1, []int64{8, 8, 8, 8}, []int64{0}, "RGB", "RGBX")
		add(big, 2, 1, 1, []int64{8, 8, 8, 8, 8}, []int64{0, 0}, "RGB", "RGBXX")
		add(big, 2, 1, 1, []int64{8, 8, 8, 8, 8, 8}, []int64{0, 0, 0}, "RGB", "RGBXXX")
		add(big, 2, 1, 1, []int64{8, 8, 8, 8}, []int64{1}, "RGBA", "RGBa")
		add(big, 2, 1, 1, []int64{8, 8, 8, 8, 8}, []int64{1, 0}, "RGBA", "RGBaX")
		add(big, 2, 1, 1, []int64{8, 8, 8, 8, 8, 8}, []int64{1, 0, 0}, "RGBA", "RGBaXX")
		add(big, 2, 1, 1, []int64{8, 8, 8, 8}, []int64{2}, "RGBA", "RGBA")
		add(big, 2, 1, 1, []int64{8, 8, 8, 8, 8}, []int64{2, 0}, "RGBA", "RGBAX")
		add(big, 2, 1, 1, []int64{8, 8, 8, 8, 8, 8}, []int64{2, 0, 0}, "RGBA", "RGBAXX")
		add(big, 2, 1, 1, []int64{8, 8, 8, 8}, []int64{999}, "RGBA", "RGBA") // Corel Draw 10 quirk, §9 open question
		add(big, 3, 1, 1, []int64{1}, nil, "P", "P;1")
		add(big, 3, 1, 2, []int64{1}, nil, "P", "P;1R")
		add(big, 3, 1, 1, []int64{2}, nil, "P", "P;2")
		add(big, 3, 1, 2, []int64{2}, nil, "P", "P;2R")
		add(big, 3, 1, 1, []int64{4}, nil, "P", "P;4")
		add(big, 3, 1, 2, []int64{4}, nil, "P", "P;4R")
		add(big, 3, 1, 1, []int64{8}, nil, "P", "P")
		add(big, 3, 1, 1, []int64{8, 8}, []int64{2}, "PA", "PA")
		add(big, 3, 1, 2, []int64{8}, nil, "P", "P;R")
		add(big, 5, 1, 1, []int64{8, 8, 8, 8}, nil, "CMYK", "CMYK")
		add(big, 5, 1, 1, []int64{8, 8, 8, 8, 8}, []int64{0}, "CMYK", "CMYKX")
		add(big, 5, 1, 1, []int64{8, 8, 8, 8, 8, 8}, []int64{0, 0}, "CMYK", "CMYKXX")
		add(big, 6, 1, 1, []int64{8}, nil, "L", "L")
		add(big, 6, 1, 1, []int64{8, 8, 8}, nil, "RGB", "RGBX")
		add(big, 8, 1, 1, []int64{8, 8, 8}, nil, "LAB", "LAB")
	}
	add(false, 3, 1, 1, []int64{8, 8}, []int64{0}, "P", "PX")
	// Byte-order-dependent 16/32-bit integer and float variants.
	add(false, 1, 1, 1, []int64{12}, nil, "I;16", "I;12")
	add(false, 0, 1, 1, []int64{16}, nil, "I;16", "I;16")
	add(false, 1, 1, 1, []int64{16}, nil, "I;16", "I;16")
	add(true, 1, 1, 1, []int64{16}, nil, "I;16B", "I;16B")
	add(false, 1, 1, 2, []int64{16}, nil, "I;16", "I;16R")
	add(false, 1, 2, 1, []int64{16}, nil, "I", "I;16S")
	add(true, 1, 2, 1, []int64{16}, nil, "I", "I;16BS")
	add(false, 0, 3, 1, []int64{32}, nil, "F", "F;32F")
	add(true, 0, 3, 1, []int64{32}, nil, "F", "F;32BF")
	add(false, 1, 1, 1, []int64{32}, nil, "I", "I;32N")
	add(false, 1, 2, 1, []int64{32}, nil, "I", "I;32S")
	add(true, 1, 2, 1, []int64{32}, nil, "I", "I;32BS")
	add(false, 1, 3, 1, []int64{32}, nil, "F", "F;32F")
	add(true, 1, 3, 1, []int64{32}, nil, "F", "F;32BF")
	add(false, 2, 1, 1, []int64{16, 16, 16}, nil, "RGB", "RGB;16L")
	add(true, 2, 1, 1, []int64{16, 16, 16}, nil, "RGB", "RGB;16B")
	add(false, 2, 1, 1, []int64{16, 16, 16, 16}, nil, "RGBA", "RGBA;16L")
	add(true, 2, 1, 1, []int64{16, 16, 16, 16}, nil, "RGBA", "RGBA;16B")
	add(false, 2, 1, 1, []int64{16, 16, 16, 16}, []int64{0}, "RGB", "RGBX;16L")
	add(true, 2, 1, 1, []int64{16, 16, 16, 16}, []int64{0}, "RGB", "RGBX;16B")
	add(false, 2, 1, 1, []int64{16, 16, 16, 16}, []int64{1}, "RGBA", "RGBa;16L")
	add(true, 2, 1, 1, []int64{16, 16, 16, 16}, []int64{1}, "RGBA", "RGBa;16B")
	add(false, 2, 1, 1, []int64{16, 16, 16, 16}, []int64{2}, "RGBA", "RGBA;16L")
	add(true, 2, 1, 1, []int64{16, 16, 16, 16}, []int64{2}, "RGBA", "RGBA;16B")
	add(false, 5, 1, 1, []int64{16, 16, 16, 16}, nil, "CMYK", "CMYK;16L")
	add(true, 5, 1, 1, []int64{16, 16, 16, 16}, nil, "CMYK", "CMYK;16B")
}

const maxSamplesPerPixel = 6

// FrameSetup is the per-frame result of §4.6's image setup pass: the
// resolved pixel mode and the geometry needed to build a tile plan.
type FrameSetup struct {
	Mode, RawMode         string
	Width, Height         int64 // logical, after orientation swap
	TileWidth, TileHeight int64 // physical, pre-swap
	BitsPerSample         []int64
	SamplesPerPixel       int64
	PlanarConfig          int64
	Photometric           int64
	FillOrder             int64
	Orientation           int64
	DPIx, DPIy            float64
	HasDPI                bool
	Palette               []byte // 3*N bytes, R,G,B interleaved, when mode is P/PA
}

// SetupFrame applies §4.6's rules to the mandatory tags of ifd and
// returns the resolved mode/geometry, or a SyntaxError for a missing
// mandatory tag or an unrecognized mode tuple.
func SetupFrame(ifd *IFD) (*FrameSetup, error) {
	if _, ok := ifd.GetValue(WindowsMediaPhoto); ok {
		return nil, newUnsupportedErrorf("Windows Media Photo content is not supported")
	}

	width, ok := getRequiredInt(ifd, ImageWidth)
	if !ok {
		return nil, newSyntaxErrorf("missing mandatory tag ImageWidth")
	}
	height, ok := getRequiredInt(ifd, ImageLength)
	if !ok {
		return nil, newSyntaxErrorf("missing mandatory tag ImageLength")
	}

	compression := getIntOr(ifd, Compression, compressionNone)
	photometric := getIntOr(ifd, PhotometricInterpretation, photometricBlackIsZero)
	if compression == compressionJPEG || compression == compressionJPEGOld {
		photometric = photometricYCbCr
	}

	samplesPerPixel := getIntOr(ifd, SamplesPerPixel, 1)
	if samplesPerPixel > maxSamplesPerPixel {
		return nil, newSyntaxErrorf("SamplesPerPixel %d exceeds the supported maximum %d", samplesPerPixel, maxSamplesPerPixel)
	}

	bits := getIntsOr(ifd, BitsPerSample, []int64{1})
	bits = normalizeBitsPerSample(bits, samplesPerPixel)

	sampleFormat := getIntsOr(ifd, SampleFormat, []int64{1})
	sampleFormat = collapseSampleFormat(sampleFormat)

	fillOrder := getIntOr(ifd, FillOrder, 1)
	lookupFill := fillOrder
	if lookupFill == 2 {
		lookupFill = 1
	}

	extra := getIntsOr(ifd, ExtraSamples, nil)

	key := modeKey{
		bigEndian:   ifd.Order == BE,
		photometric: photometric,
		sampleFmt:   sampleFormat[0],
		fillOrder:   lookupFill,
		bits:        joinInts(bits),
		extra:       joinInts(extra),
	}
	entry, ok := modeTable[key]
	if !ok {
		return nil, newSyntaxErrorf("unknown pixel mode for photometric=%d bits=%v extra=%v", photometric, bits, extra)
	}
	rawMode := entry.rawMode
	if fillOrder == 2 {
		rawMode = postProcessFillOrderSwap(rawMode, photometric, compression, getIntOr(ifd, PlanarConfiguration, 1))
	}

	fs := &FrameSetup{
		Mode: entry.mode, RawMode: rawMode,
		Width: width, Height: height,
		TileWidth: width, TileHeight: height,
		BitsPerSample:   bits,
		SamplesPerPixel: samplesPerPixel,
		PlanarConfig:    getIntOr(ifd, PlanarConfiguration, 1),
		Photometric:     photometric,
		FillOrder:       fillOrder,
		Orientation:     getIntOr(ifd, Orientation, 1),
	}

	switch fs.Orientation {
	case 5, 6, 7, 8:
		fs.Width, fs.Height = height, width
	}

	applyResolution(ifd, fs)

	if entry.mode == "P" || entry.mode == "PA" {
		fs.Palette = extractPalette(ifd)
	}

	return fs, nil
}

func getRequiredInt(ifd *IFD, tag Tag) (int64, bool) {
	v, ok := ifd.GetValue(tag)
	if !ok || len(v.Ints) == 0 {
		return 0, false
	}
	return v.Ints[0], true
}

func getIntOr(ifd *IFD, tag Tag, def int64) int64 {
	if v, ok := getRequiredInt(ifd, tag); ok {
		return v
	}
	return def
}

func getIntsOr(ifd *IFD, tag Tag, def []int64) []int64 {
	v, ok := ifd.GetValue(tag)
	if !ok || len(v.Ints) == 0 {
		return def
	}
	return v.Ints
}

// normalizeBitsPerSample implements §4.6: truncate if longer than
// SamplesPerPixel, broadcast a single element if shorter.
func normalizeBitsPerSample(bits []int64, samplesPerPixel int64) []int64 {
	n := int(samplesPerPixel)
	if n <= 0 {
		n = 1
	}
	switch {
	case len(bits) > n:
		return append([]int64(nil), bits[:n]...)
	case len(bits) < n && len(bits) == 1:
		out := make([]int64, n)
		for i := range out {
			out[i] = bits[0]
		}
		return out
	default:
		return bits
	}
}

// collapseSampleFormat implements §4.6's uniform-format collapse rule.
func collapseSampleFormat(sf []int64) []int64 {
	if len(sf) <= 1 {
		if len(sf) == 0 {
			return []int64{1}
		}
		return sf
	}
	allOne := true
	for _, v := range sf {
		if v != 1 {
			allOne = false
			break
		}
	}
	if allOne {
		return []int64{1}
	}
	return sf[:1]
}

// postProcessFillOrderSwap implements the raw_mode rewrite that follows
// a FillOrder==2 mode lookup (§4.6).
func postProcessFillOrderSwap(rawMode string, photometric, compression, planarConfig int64) string {
	switch {
	case rawMode == "I;16":
		return "I;16N"
	case len(rawMode) >= 4 && rawMode[len(rawMode)-4:] == ";16B":
		return rawMode[:len(rawMode)-4] + ";16N"
	case len(rawMode) >= 4 && rawMode[len(rawMode)-4:] == ";16L":
		return rawMode[:len(rawMode)-4] + ";16N"
	case photometric == photometricYCbCr && (compression == compressionJPEG || compression == compressionJPEGOld) && planarConfig == 1:
		return "RGB"
	default:
		return rawMode
	}
}

// applyResolution implements §4.6's resolution-unit → DPI rule.
func applyResolution(ifd *IFD, fs *FrameSetup) {
	unit := getIntOr(ifd, ResolutionUnit, 0)
	xv, xok := getRational(ifd, XResolution)
	yv, yok := getRational(ifd, YResolution)
	if !xok || !yok {
		return
	}
	switch unit {
	case 2: // inch
		fs.DPIx, fs.DPIy, fs.HasDPI = xv, yv, true
	case 3: // centimeter
		fs.DPIx, fs.DPIy, fs.HasDPI = xv*2.54, yv*2.54, true
	case 0:
		fs.DPIx, fs.DPIy, fs.HasDPI = xv, yv, true
	default:
		fs.DPIx, fs.DPIy, fs.HasDPI = xv, yv, false
	}
}

func getRational(ifd *IFD, tag Tag) (float64, bool) {
	v, ok := ifd.GetValue(tag)
	if !ok || len(v.Rationals) == 0 {
		return 0, false
	}
	return v.Rationals[0].Float64(), true
}

// extractPalette implements §4.6's ColorMap high-byte extraction.
func extractPalette(ifd *IFD) []byte {
	v, ok := ifd.GetValue(ColorMap)
	if !ok || len(v.Ints) == 0 || len(v.Ints)%3 != 0 {
		return nil
	}
	n := len(v.Ints) / 3
	out := make([]byte, n*3)
	for i := 0; i < n; i++ {
		out[i*3+0] = byte(v.Ints[0*n+i] >> 8)
		out[i*3+1] = byte(v.Ints[1*n+i] >> 8)
		out[i*3+2] = byte(v.Ints[2*n+i] >> 8)
	}
	return out
}

// BuildTilePlan implements §4.6's tile plan synthesis: strips, tiles, or
// a single forced-libtiff tile, driven by the frame's compression and
// layout tags.
func BuildTilePlan(ifd *IFD, fs *FrameSetup, forceLibtiff bool) ([]Tile, error) {
	compression := getIntOr(ifd, Compression, compressionNone)
	if forceLibtiff || compression != compressionNone {
		attrs := make(map[Tag]any, len(ifd.Tags()))
		for _, tag := range ifd.Tags() {
			if v, ok := ifd.Get(tag); ok {
				attrs[tag] = v
			}
		}
		return []Tile{{
			Codec: compressionCodecName(compression),
			BBox:  [4]int64{0, 0, fs.TileWidth, fs.TileHeight},
			CodecArgs: LibtiffCodecArgs{
				RawMode:     fs.RawMode,
				Compression: compression,
				Attributes:  FilterCodecAttributes(attrs),
			},
		}}, nil
	}

	if tileWidth, ok := getRequiredInt(ifd, TileWidth); ok {
		tileLength, ok2 := getRequiredInt(ifd, TileLength)
		if !ok2 {
			return nil, newSyntaxErrorf("TileWidth present without TileLength")
		}
		return buildTileWalk(ifd, fs, tileWidth, tileLength)
	}
	return buildStripWalk(ifd, fs)
}

func compressionCodecName(c int64) string {
	switch c {
	case compressionJPEG, compressionJPEGOld:
		return "jpeg"
	default:
		return "libtiff"
	}
}

func bitsTotal(bits []int64) int64 {
	var total int64
	for _, b := range bits {
		total += b
	}
	return total
}

func buildStripWalk(ifd *IFD, fs *FrameSetup) ([]Tile, error) {
	offsets, ok := ifd.GetValue(StripOffsets)
	if !ok {
		return nil, newSyntaxErrorf("missing mandatory tag StripOffsets for raw strip layout")
	}
	rowsPerStrip := getIntOr(ifd, RowsPerStrip, fs.TileHeight)
	if rowsPerStrip <= 0 {
		return nil, newSyntaxErrorf("RowsPerStrip must be positive")
	}

	stride := fs.TileWidth * bitsTotal(fs.BitsPerSample) / 8

	tiles := make([]Tile, 0, len(offsets.Ints))
	y := int64(0)
	for i, off := range offsets.Ints {
		h := rowsPerStrip
		if y+h > fs.TileHeight {
			h = fs.TileHeight - y
		}
		rowStride := int64(0)
		if i == len(offsets.Ints)-1 {
			rowStride = stride
		}
		tiles = append(tiles, Tile{
			Codec:      "raw",
			BBox:       [4]int64{0, y, fs.TileWidth, y + h},
			FileOffset: uint64(off),
			CodecArgs:  RawCodecArgs{RawMode: fs.RawMode, Stride: rowStride, Orientation: 1},
		})
		y += h
	}
	return tiles, nil
}

func buildTileWalk(ifd *IFD, fs *FrameSetup, tileWidth, tileLength int64) ([]Tile, error) {
	if tileWidth <= 0 || tileLength <= 0 {
		return nil, newSyntaxErrorf("tile dimensions must be positive integers")
	}
	offsets, ok := ifd.GetValue(TileOffsets)
	if !ok {
		return nil, newSyntaxErrorf("missing mandatory tag TileOffsets for raw tile layout")
	}

	cols := (fs.TileWidth + tileWidth - 1) / tileWidth
	rows := (fs.TileHeight + tileLength - 1) / tileLength
	wholeImage := cols == 1 && rows == 1

	planar := fs.PlanarConfig
	bandCount := int64(1)
	if planar == 2 {
		bandCount = fs.SamplesPerPixel
	}

	tiles := make([]Tile, 0, len(offsets.Ints))
	n := len(offsets.Ints)
	if wholeImage && n > bandCount {
		// "when one tile covers the whole image, keep only the last offset" (§4.6)
		if bandCount == 1 {
			offsets.Ints = offsets.Ints[n-1:]
		}
	}

	stride := tileWidth * bitsTotal(fs.BitsPerSample) / 8
	if planar == 2 {
		stride /= bandCount
	}

	planeSize := cols * rows
	for i, off := range offsets.Ints {
		layer := int64(i) / planeSize
		posInPlane := int64(i) % planeSize
		row := posInPlane / cols
		col := posInPlane % cols
		x0 := col * tileWidth
		y0 := row * tileLength
		x1 := x0 + tileWidth
		y1 := y0 + tileLength
		rawMode := fs.RawMode
		if planar == 2 {
			rawMode = layerRawMode(fs.RawMode, layer)
		}
		tiles = append(tiles, Tile{
			Codec:      "raw",
			BBox:       [4]int64{x0, y0, x1, y1},
			FileOffset: uint64(off),
			CodecArgs:  RawCodecArgs{RawMode: rawMode, Stride: stride, Orientation: 1},
		})
	}
	return tiles, nil
}

// layerRawMode cycles through single-band raw modes for planar
// configuration 2: each layer stores one sample of rawMode, addressed by
// character position (e.g. "RGB" splits into "R", "G", "B").
func layerRawMode(rawMode string, layer int64) string {
	if layer < 0 || layer >= int64(len(rawMode)) {
		return rawMode
	}
	return string(rawMode[layer])
}
