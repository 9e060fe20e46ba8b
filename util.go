package tiff

import (
	"fmt"
	"math/big"
)

// A FormatError reports that the input is not a valid TIFF image.
type FormatError string

func (e FormatError) Error() string {
	return fmt.Sprintf("tiff: invalid format: %s", string(e))
}

// An UnsupportedError reports that the input uses a valid but
// unimplemented feature.
type UnsupportedError string

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("tiff: unsupported feature: %s", string(e))
}

// An InternalError reports that an internal error was encountered.
type InternalError string

func (e InternalError) Error() string {
	return fmt.Sprintf("tiff: internal error: %s", string(e))
}

// minInt returns the smaller of x or y.
func minInt(a, b int) int {
	if a <= b {
		return a
	}
	return b
}

func tagname(t uint16) string {
	switch t {
	case tImageWidth:
		return "ImageWidth"
	case tImageLength:
		return "ImageLength"
	case tBitsPerSample:
		return "BitsPerSample"
	case tCompression:
		return "Compression"
	case tPhotometricInterpretation:
		return "PhotometricInterpretation"
	case tStripOffsets:
		return "StripOffsets"
	case tSamplesPerPixel:
		return "SamplesPerPixel"
	case tRowsPerStrip:
		return "RowsPerStrip"
	case tStripByteCounts:
		return "StripByteCounts"
	case tTileWidth:
		return "TileWidth"
	case tTileLength:
		return "TileLength"
	case tTileOffsets:
		return "TileOffsets"
	case tTileByteCounts:
		return "TileByteCounts"
	case tXResolution:
		return "XResolution"
	case tYResolution:
		return "YResolution"
	case tPlanarConfiguration:
		return "PlanarConfiguration"
	case tResolutionUnit:
		return "ResolutionUnit"
	case tPredictor:
		return "Predictor"
	case tColorMap:
		return "ColorMap"
	case tExtraSamples:
		return "ExtraSamples"
	case tSampleFormat:
		return "SampleFormat"
	case tExifIFD:
		return "ExifIFD"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

func valuename(t tag) string {
	var v interface{}
	switch t.id {
	case tPhotometricInterpretation:
		switch t.firstVal() {
		case pWhiteIsZero:
			v = "WhiteIsZero"
		case pBlackIsZero:
			v = "BlackIsZero"
		case pRGB:
			v = "RGB"
		case pPaletted:
			v = "Paletted"
		case pTransMask:
			v = "TransMask"
		case pCMYK:
			v = "CMYK"
		case pYCbCr:
			v = "YCbCr"
		case pCIELab:
			v = "CIE-Lab"
		default:
			v = t.firstVal()
		}
	case tCompression:
		switch t.firstVal() {
		case cNone:
			v = "None"
		case cCCITT:
			v = "CCITT"
		case cG3:
			v = "Group 3 Fax"
		case cG4:
			v = "Group 4 Fax"
		case cLZW:
			v = "LZW"
		case cJPEGOld:
			v = "Old JPEG"
		case cJPEG:
			v = "JPEG"
		case cDeflate:
			v = "Deflate (zlib compression)"
		case cPackBits:
			v = "PackBits"
		case cDeflateOld:
			v = "Old Deflate"
		default:
			v = t.firstVal()
		}
	case tStripOffsets:
		v = fmt.Sprintf("contains %d offset entries", len(t.val))
	case tStripByteCounts:
		v = fmt.Sprintf("contains %d byte-count entries", len(t.val))
	case tColorMap:
		v = fmt.Sprintf("contains %d palette entries", len(t.val))
	case tPlanarConfiguration:
		switch t.firstVal() {
		case pcChunky:
			v = "Contiguous (aka RGBRGBRGBRGB)"
		case pcPlanar:
			v = "Separate (aka RRRRGGGGBBBB)"
		default:
			v = t.firstVal()
		}
	case tResolutionUnit:
		switch t.firstVal() {
		case resNone:
			v = "None"
		case resPerInch:
			v = "Dots per inch"
		case resPerCM:
			v = "Dots per centimeter"
		default:
			v = t.firstVal()
		}
	case tSamplesPerPixel,
		tRowsPerStrip,
		tImageLength,
		tImageWidth:
		v = t.firstVal()
	default:
		v = formatDatatype(t)
	}
	return fmt.Sprintf("%v", v)
}

func formatDatatype(t tag) interface{} {
	switch t.datatype {
	case dtRational:
		sl := make([]*big.Rat, 0, len(t.val))
		for i := range t.val {
			sl = append(sl, t.rational(i))
		}
		return sl
	case dtSRational:
		sl := make([]*big.Rat, 0, len(t.val))
		for i := range t.val {
			sl = append(sl, t.sRational(i))
		}
		return sl
	case dtDouble:
		sl := make([]float64, 0, len(t.val))
		for i := range t.val {
			sl = append(sl, t.double(i))
		}
		return sl
	default:
		return t.val
	}
}
