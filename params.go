package tiff

import (
	"fmt"
	"image/color"
)

// frameParams is the validated, closed set of parameters the strip
// engine needs for one frame. It is derived once from the frame's IFD;
// the raw tag bag never reaches the decode loops.
type frameParams struct {
	width, height int
	rowsPerStrip  int
	stripOffsets  []uint
	stripCounts   []uint
	bitsPerSample []uint
	colorMap      []uint
	compression   uint
	planarConfig  uint
	photometric   uint
	extraSamples  uint
	mode          imageMode
}

// bitsPerPixel is the sum of the frame's BitsPerSample entries.
func (p *frameParams) bitsPerPixel() int {
	var sum int
	for _, b := range p.bitsPerSample {
		sum += int(b)
	}
	return sum
}

// planeCount is the number of sample planes in planar configuration.
func (p *frameParams) planeCount() int {
	return len(p.bitsPerSample)
}

func (p *frameParams) palette() color.Palette {
	n := len(p.colorMap) / 3
	pal := make(color.Palette, n)
	for i := 0; i < n; i++ {
		pal[i] = color.RGBA64{
			R: uint16(p.colorMap[i]),
			G: uint16(p.colorMap[i+n]),
			B: uint16(p.colorMap[i+2*n]),
			A: 0xffff,
		}
	}
	return pal
}

// bytesPerRow is the byte length of one packed pixel row: bit-packed
// rows are padded to the next byte boundary.
func bytesPerRow(widthPixels, bits int) int {
	return (widthPixels*bits + 7) / 8
}

// bufferSize returns the byte size of one decompressed strip (or one
// plane of a strip). For chunky data bits is the sum of all samples'
// depths, for planar data it is the depth of the plane being sized.
func bufferSize(widthPixels, stripHeightRows, bits int) int {
	return bytesPerRow(widthPixels, bits) * stripHeightRows
}

// stripHeight returns the row count of strip-group i of n. All groups
// are rowsPerStrip high except the last one, which is shorter when the
// image height is not an exact multiple of rowsPerStrip.
func stripHeight(i, n, rowsPerStrip, height int) int {
	if i == n-1 {
		if r := height % rowsPerStrip; r != 0 {
			return r
		}
	}
	return rowsPerStrip
}

// resolveParams validates one IFD's tags and extracts the frame
// parameters. All TIFF-tag semantics are decided here.
func resolveParams(d *ifd) (*frameParams, error) {
	if d.has(tTileWidth) || d.has(tTileLength) || d.has(tTileOffsets) || d.has(tTileByteCounts) {
		return nil, UnsupportedError("tiled storage")
	}

	p := &frameParams{
		width:        int(d.firstVal(tImageWidth)),
		height:       int(d.firstVal(tImageLength)),
		compression:  d.firstVal(tCompression),
		photometric:  d.firstVal(tPhotometricInterpretation),
		extraSamples: d.firstVal(tExtraSamples),
	}
	if !d.has(tImageWidth) || p.width <= 0 {
		return nil, FormatError("ImageWidth tag missing or zero")
	}
	if !d.has(tImageLength) || p.height <= 0 {
		return nil, FormatError("ImageLength tag missing or zero")
	}

	bps, ok := d.features[tBitsPerSample]
	if !ok {
		return nil, FormatError("BitsPerSample tag missing")
	}
	p.bitsPerSample = bps.val
	if n := d.firstVal(tSamplesPerPixel); d.has(tSamplesPerPixel) && int(n) != len(p.bitsPerSample) {
		return nil, FormatError("SamplesPerPixel does not match BitsPerSample")
	}

	offsets, ok := d.features[tStripOffsets]
	if !ok {
		return nil, FormatError("StripOffsets tag missing")
	}
	counts, ok := d.features[tStripByteCounts]
	if !ok {
		return nil, FormatError("StripByteCounts tag missing")
	}
	if len(offsets.val) != len(counts.val) {
		return nil, FormatError("StripOffsets and StripByteCounts lengths differ")
	}
	p.stripOffsets = offsets.val
	p.stripCounts = counts.val

	// RowsPerStrip defaults to "infinity", one strip for the whole frame.
	p.rowsPerStrip = int(d.firstVal(tRowsPerStrip))
	if p.rowsPerStrip <= 0 || p.rowsPerStrip > p.height {
		p.rowsPerStrip = p.height
	}
	groups := (p.height + p.rowsPerStrip - 1) / p.rowsPerStrip

	p.planarConfig = d.firstVal(tPlanarConfiguration)
	if p.planarConfig == 0 {
		p.planarConfig = pcChunky
	}
	switch p.planarConfig {
	case pcChunky:
		if len(p.stripOffsets) != groups {
			return nil, FormatError("inconsistent strip count")
		}
	case pcPlanar:
		if len(p.stripOffsets) != groups*p.planeCount() {
			return nil, FormatError("inconsistent strip count for planar data")
		}
	default:
		return nil, UnsupportedError(fmt.Sprintf("planar configuration %d", p.planarConfig))
	}

	if d.firstVal(tPredictor) > prNone {
		return nil, UnsupportedError("predictor")
	}

	// Page 27 of the spec: readers that cannot handle a SampleFormat
	// other than unsigned integer must terminate gracefully. IEEE float
	// is accepted for the 32-bit RGB mode only.
	float := false
	if sf, ok := d.features[tSampleFormat]; ok {
		for _, v := range sf.val {
			switch v {
			case sfUint:
			case sfFloat:
				float = true
			default:
				return nil, UnsupportedError("sample format")
			}
		}
	}

	if err := p.resolveMode(d, float); err != nil {
		return nil, err
	}
	return p, nil
}

// resolveMode determines the image mode from the photometric
// interpretation, bit depths and extra samples.
func (p *frameParams) resolveMode(d *ifd, float bool) error {
	for _, b := range p.bitsPerSample[1:] {
		if b != p.bitsPerSample[0] {
			return UnsupportedError("heterogeneous bits per sample")
		}
	}
	bits := uint(0)
	if len(p.bitsPerSample) > 0 {
		bits = p.bitsPerSample[0]
	}

	switch p.photometric {
	case pWhiteIsZero, pBlackIsZero:
		if float || p.planeCount() != 1 {
			return UnsupportedError("grayscale sample layout")
		}
		switch bits {
		case 1, 2, 4, 8, 16:
		default:
			return UnsupportedError(fmt.Sprintf("%d bits per grayscale sample", bits))
		}
		p.mode = mGray
		if p.photometric == pWhiteIsZero {
			p.mode = mGrayInvert
		}
	case pPaletted:
		if float || p.planeCount() != 1 {
			return UnsupportedError("paletted sample layout")
		}
		switch bits {
		case 1, 2, 4, 8:
		default:
			return UnsupportedError(fmt.Sprintf("%d bits per palette index", bits))
		}
		cm, ok := d.features[tColorMap]
		if !ok {
			return FormatError("ColorMap tag missing")
		}
		if len(cm.val) != 3*(1<<bits) {
			return FormatError("bad ColorMap length")
		}
		p.colorMap = cm.val
		p.mode = mPaletted
	case pRGB:
		if float {
			if bits != 32 || p.planeCount() != 3 {
				return FormatError("invalid BitsPerSample for RGB 32 bits floating-point format")
			}
			p.mode = mRGBFloat
			return nil
		}
		if bits != 8 && bits != 16 {
			return UnsupportedError(fmt.Sprintf("%d bits per RGB sample", bits))
		}
		switch p.planeCount() {
		case 3:
			p.mode = mRGB
		case 4:
			switch p.extraSamples {
			case esAssocAlpha:
				p.mode = mRGBA
			case esUnassocAlpha:
				p.mode = mNRGBA
			default:
				return FormatError("wrong number of samples for RGB")
			}
		default:
			return FormatError("wrong number of samples for RGB")
		}
	case pCMYK:
		if float || p.planeCount() != 4 || bits != 8 {
			return UnsupportedError("CMYK sample layout")
		}
		p.mode = mCMYK
	default:
		return UnsupportedError("color model")
	}
	return nil
}
