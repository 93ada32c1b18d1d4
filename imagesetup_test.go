package tiff

import "testing"

func TestNormalizeBitsPerSampleBroadcastAndTruncate(t *testing.T) {
	if got := normalizeBitsPerSample([]int64{8}, 3); len(got) != 3 || got[0] != 8 || got[2] != 8 {
		t.Errorf("broadcast failed: %v", got)
	}
	if got := normalizeBitsPerSample([]int64{8, 8, 8, 8}, 3); len(got) != 3 {
		t.Errorf("truncate failed: %v", got)
	}
}

func TestCollapseSampleFormatUniform(t *testing.T) {
	if got := collapseSampleFormat([]int64{1, 1, 1}); len(got) != 1 || got[0] != 1 {
		t.Errorf("uniform collapse failed: %v", got)
	}
	if got := collapseSampleFormat([]int64{1, 3}); len(got) != 1 || got[0] != 1 {
		t.Errorf("non-uniform collapse failed: %v", got)
	}
}

func TestSetupFrameMissingMandatoryTag(t *testing.T) {
	ifd := NewIFD(LE, false)
	ifd.Set(ImageLength, IntsOf(2))
	if _, err := SetupFrame(ifd); err == nil {
		t.Errorf("expected an error for missing ImageWidth")
	}
}

func TestSetupFrameSamplesPerPixelClamp(t *testing.T) {
	ifd := NewIFD(LE, false)
	ifd.Set(ImageWidth, IntsOf(1))
	ifd.Set(ImageLength, IntsOf(1))
	ifd.Set(SamplesPerPixel, IntsOf(7))
	if _, err := SetupFrame(ifd); err == nil {
		t.Errorf("expected an error for SamplesPerPixel > 6")
	}
}

func TestSetupFrameRGBMode(t *testing.T) {
	ifd := NewIFD(LE, false)
	ifd.Set(ImageWidth, IntsOf(4))
	ifd.Set(ImageLength, IntsOf(4))
	ifd.Set(PhotometricInterpretation, IntsOf(photometricRGB))
	ifd.Set(SamplesPerPixel, IntsOf(3))
	ifd.Set(BitsPerSample, IntsOf(8, 8, 8))
	setup, err := SetupFrame(ifd)
	if err != nil {
		t.Fatalf("SetupFrame: %v", err)
	}
	if setup.Mode != "RGB" || setup.RawMode != "RGB" {
		t.Errorf("mode = (%s,%s), want (RGB,RGB)", setup.Mode, setup.RawMode)
	}
}

func TestSetupFrameJPEGForcesYCbCr(t *testing.T) {
	ifd := NewIFD(LE, false)
	ifd.Set(ImageWidth, IntsOf(4))
	ifd.Set(ImageLength, IntsOf(4))
	ifd.Set(Compression, IntsOf(compressionJPEG))
	ifd.Set(PhotometricInterpretation, IntsOf(photometricRGB)) // should be overridden
	ifd.Set(SamplesPerPixel, IntsOf(3))
	ifd.Set(BitsPerSample, IntsOf(8, 8, 8))
	setup, err := SetupFrame(ifd)
	if err != nil {
		t.Fatalf("SetupFrame: %v", err)
	}
	if setup.Photometric != photometricYCbCr {
		t.Errorf("photometric = %d, want %d (YCbCr)", setup.Photometric, photometricYCbCr)
	}
}

func TestResolutionUnitDPC(t *testing.T) {
	ifd := NewIFD(LE, false)
	ifd.Set(ResolutionUnit, IntsOf(3))
	ifd.Set(XResolution, RationalsOf(NewRational(10, 1)))
	ifd.Set(YResolution, RationalsOf(NewRational(10, 1)))
	fs := &FrameSetup{}
	applyResolution(ifd, fs)
	if !fs.HasDPI {
		t.Fatalf("expected HasDPI true")
	}
	want := 25.4
	if fs.DPIx != want || fs.DPIy != want {
		t.Errorf("DPI = (%v,%v), want (%v,%v)", fs.DPIx, fs.DPIy, want, want)
	}
}

func TestBuildTilePlanRawStrips(t *testing.T) {
	ifd := NewIFD(LE, false)
	ifd.Set(StripOffsets, IntsOf(100, 200))
	ifd.Set(RowsPerStrip, IntsOf(2))
	fs := &FrameSetup{TileWidth: 4, TileHeight: 4, BitsPerSample: []int64{8}, RawMode: "L"}
	tiles, err := BuildTilePlan(ifd, fs, false)
	if err != nil {
		t.Fatalf("BuildTilePlan: %v", err)
	}
	if len(tiles) != 2 {
		t.Fatalf("expected 2 tiles, got %d", len(tiles))
	}
	if tiles[0].BBox != [4]int64{0, 0, 4, 2} {
		t.Errorf("first tile bbox = %v", tiles[0].BBox)
	}
	if tiles[1].BBox != [4]int64{0, 2, 4, 4} {
		t.Errorf("second tile bbox = %v", tiles[1].BBox)
	}
}

func TestBuildTilePlanForcesLibtiffOnCompression(t *testing.T) {
	ifd := NewIFD(LE, false)
	ifd.Set(Compression, IntsOf(compressionJPEG))
	fs := &FrameSetup{TileWidth: 10, TileHeight: 10, RawMode: "RGB"}
	tiles, err := BuildTilePlan(ifd, fs, false)
	if err != nil {
		t.Fatalf("BuildTilePlan: %v", err)
	}
	if len(tiles) != 1 || tiles[0].Codec != "jpeg" {
		t.Errorf("expected a single jpeg tile, got %+v", tiles)
	}
}
