package tiff

import (
	"encoding/binary"
	"image"
)

// colorDecoder converts one decompressed chunky strip into a
// rectangular region of the destination image. The buffer holds packed
// rows per the frame's bit depth, padded to byte boundaries.
type colorDecoder interface {
	decode(buf []byte, dst image.Image, xmin, ymin, xmax, ymax int) error
}

// planarColorDecoder converts one decompressed strip per sample plane
// into a rectangular region of the destination image. All planes carry
// the same number of rows.
type planarColorDecoder interface {
	decodePlanes(planes [][]byte, dst image.Image, xmin, ymin, xmax, ymax int) error
}

// colorDecoderFor selects the chunky converter for a frame's mode.
func colorDecoderFor(p *frameParams, order binary.ByteOrder) (colorDecoder, error) {
	switch p.mode {
	case mGray, mGrayInvert:
		return &grayDecoder{bpp: p.bitsPerSample[0], invert: p.mode == mGrayInvert, order: order}, nil
	case mPaletted:
		return &palettedDecoder{bpp: p.bitsPerSample[0]}, nil
	case mRGB, mRGBA, mNRGBA:
		return &rgbDecoder{bits: p.bitsPerSample[0], mode: p.mode, order: order}, nil
	case mCMYK:
		return &cmykDecoder{}, nil
	case mRGBFloat:
		return &rgbFloatDecoder{order: order}, nil
	}
	return nil, UnsupportedError("color model")
}

// planarColorDecoderFor selects the planar converter for a frame's mode.
// Single-sample modes have one plane and reuse the chunky converter.
func planarColorDecoderFor(p *frameParams, order binary.ByteOrder) (planarColorDecoder, error) {
	switch p.mode {
	case mGray, mGrayInvert, mPaletted:
		cd, err := colorDecoderFor(p, order)
		if err != nil {
			return nil, err
		}
		return singlePlane{cd}, nil
	case mRGB, mRGBA, mNRGBA:
		if p.bitsPerSample[0] != 8 {
			return nil, UnsupportedError("planar 16-bit samples")
		}
		return &planarRGBDecoder{mode: p.mode}, nil
	case mCMYK:
		return &planarCMYKDecoder{}, nil
	case mRGBFloat:
		return &planarRGBFloatDecoder{order: order}, nil
	}
	return nil, UnsupportedError("color model")
}

// bitReader reads packed samples of arbitrary bit depth from a strip
// buffer, MSB first.
type bitReader struct {
	buf   []byte
	off   int    // Current offset in buf.
	v     uint32 // Buffer value for reading with arbitrary bit depths.
	nbits uint   // Remaining number of bits in v.
}

// readBits reads n bits from the buffer starting at the current offset.
func (b *bitReader) readBits(n uint) uint32 {
	for b.nbits < n {
		b.v <<= 8
		b.v |= uint32(b.buf[b.off])
		b.off++
		b.nbits += 8
	}
	b.nbits -= n
	rv := b.v >> b.nbits
	b.v &^= rv << b.nbits
	return rv
}

// flushBits discards the unread bits in the buffer used by readBits.
// It is used at the end of a line.
func (b *bitReader) flushBits() {
	b.v = 0
	b.nbits = 0
}
