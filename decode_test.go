package tiff

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/mdouchement/hdrtool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAll(t *testing.T, raw []byte) *Image {
	t.Helper()
	img, err := DecodeAll(context.Background(), bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestDecodeGray8MultiStrip(t *testing.T) {
	const w, h, rps = 6, 10, 4 // Strips of [4 4 2] rows.
	b := newBuilder(binary.LittleEndian)
	b.addFrame(grayFrame(w, h, rps), grayStrips(w, h, rps))

	img := decodeAll(t, b.bytes())
	require.Len(t, img.Frames, 1)

	m, ok := img.Frames[0].Image.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, w, h), m.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			assert.Equal(t, uint8(x+y*w), m.GrayAt(x, y).Y, "pixel (%d,%d)", x, y)
		}
	}
}

func TestDecodeGray1BitWhiteIsZero(t *testing.T) {
	// 9 pixels per row: rows are padded to 2 bytes.
	entries := []entry{
		shortE(tImageWidth, 9),
		shortE(tImageLength, 2),
		shortE(tBitsPerSample, 1),
		shortE(tCompression, cNone),
		shortE(tPhotometricInterpretation, pWhiteIsZero),
		shortE(tRowsPerStrip, 2),
	}
	strip := []byte{0xAA, 0x80, 0x00, 0x80} // 101010101 / 000000001
	b := newBuilder(binary.LittleEndian)
	b.addFrame(entries, [][]byte{strip})

	img := decodeAll(t, b.bytes())
	m := img.Frames[0].Image.(*image.Gray)
	for x := 0; x < 9; x++ {
		want := uint8(0xff)
		if x%2 == 0 {
			want = 0 // Set bits mean black in WhiteIsZero.
		}
		assert.Equal(t, want, m.GrayAt(x, 0).Y, "pixel (%d,0)", x)
	}
	assert.Equal(t, uint8(0xff), m.GrayAt(0, 1).Y)
	assert.Equal(t, uint8(0), m.GrayAt(8, 1).Y)
}

func TestDecodePaletted4Bit(t *testing.T) {
	colorMap := make([]uint32, 3*16)
	for i := 0; i < 16; i++ {
		colorMap[i] = uint32(i << 12)
		colorMap[i+16] = uint32(i << 8)
		colorMap[i+32] = uint32(i << 4)
	}
	entries := []entry{
		shortE(tImageWidth, 3),
		shortE(tImageLength, 2),
		shortE(tBitsPerSample, 4),
		shortE(tCompression, cNone),
		shortE(tPhotometricInterpretation, pPaletted),
		shortE(tRowsPerStrip, 2),
		shortE(tColorMap, colorMap...),
	}
	strip := []byte{0x12, 0x30, 0x45, 0x60} // Indices 1,2,3 / 4,5,6.
	b := newBuilder(binary.LittleEndian)
	b.addFrame(entries, [][]byte{strip})

	img := decodeAll(t, b.bytes())
	m := img.Frames[0].Image.(*image.Paletted)
	assert.Equal(t, uint8(1), m.ColorIndexAt(0, 0))
	assert.Equal(t, uint8(2), m.ColorIndexAt(1, 0))
	assert.Equal(t, uint8(3), m.ColorIndexAt(2, 0))
	assert.Equal(t, uint8(6), m.ColorIndexAt(2, 1))
	assert.Len(t, m.Palette, 16)
}

func rgbFrame(width, height, rowsPerStrip int) []entry {
	return []entry{
		shortE(tImageWidth, uint32(width)),
		shortE(tImageLength, uint32(height)),
		shortE(tBitsPerSample, 8, 8, 8),
		shortE(tCompression, cNone),
		shortE(tPhotometricInterpretation, pRGB),
		shortE(tSamplesPerPixel, 3),
		shortE(tRowsPerStrip, uint32(rowsPerStrip)),
	}
}

func TestDecodeRGB8(t *testing.T) {
	b := newBuilder(binary.LittleEndian)
	strip := []byte{
		10, 20, 30, 40, 50, 60,
		70, 80, 90, 100, 110, 120,
	}
	b.addFrame(rgbFrame(2, 2, 2), [][]byte{strip})

	img := decodeAll(t, b.bytes())
	m := img.Frames[0].Image.(*image.RGBA)
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 0xff}, m.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 40, G: 50, B: 60, A: 0xff}, m.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{R: 100, G: 110, B: 120, A: 0xff}, m.RGBAAt(1, 1))
}

func TestDecodeNRGBA(t *testing.T) {
	entries := []entry{
		shortE(tImageWidth, 1),
		shortE(tImageLength, 1),
		shortE(tBitsPerSample, 8, 8, 8, 8),
		shortE(tCompression, cNone),
		shortE(tPhotometricInterpretation, pRGB),
		shortE(tSamplesPerPixel, 4),
		shortE(tExtraSamples, esUnassocAlpha),
		shortE(tRowsPerStrip, 1),
	}
	b := newBuilder(binary.LittleEndian)
	b.addFrame(entries, [][]byte{{10, 20, 30, 128}})

	img := decodeAll(t, b.bytes())
	m := img.Frames[0].Image.(*image.NRGBA)
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 128}, m.NRGBAAt(0, 0))
}

func TestDecodeRGB16BigEndian(t *testing.T) {
	entries := []entry{
		shortE(tImageWidth, 1),
		shortE(tImageLength, 1),
		shortE(tBitsPerSample, 16, 16, 16),
		shortE(tCompression, cNone),
		shortE(tPhotometricInterpretation, pRGB),
		shortE(tRowsPerStrip, 1),
	}
	strip := make([]byte, 6)
	binary.BigEndian.PutUint16(strip[0:], 0x1234)
	binary.BigEndian.PutUint16(strip[2:], 0x5678)
	binary.BigEndian.PutUint16(strip[4:], 0x9abc)
	b := newBuilder(binary.BigEndian)
	b.addFrame(entries, [][]byte{strip})

	img := decodeAll(t, b.bytes())
	m := img.Frames[0].Image.(*image.RGBA64)
	assert.Equal(t, color.RGBA64{R: 0x1234, G: 0x5678, B: 0x9abc, A: 0xffff}, m.RGBA64At(0, 0))
}

func TestDecodeCMYK(t *testing.T) {
	entries := []entry{
		shortE(tImageWidth, 2),
		shortE(tImageLength, 1),
		shortE(tBitsPerSample, 8, 8, 8, 8),
		shortE(tCompression, cNone),
		shortE(tPhotometricInterpretation, pCMYK),
		shortE(tSamplesPerPixel, 4),
		shortE(tRowsPerStrip, 1),
	}
	b := newBuilder(binary.LittleEndian)
	b.addFrame(entries, [][]byte{{1, 2, 3, 4, 5, 6, 7, 8}})

	img := decodeAll(t, b.bytes())
	m := img.Frames[0].Image.(*image.CMYK)
	assert.Equal(t, color.CMYK{C: 1, M: 2, Y: 3, K: 4}, m.CMYKAt(0, 0))
	assert.Equal(t, color.CMYK{C: 5, M: 6, Y: 7, K: 8}, m.CMYKAt(1, 0))
}

func TestDecodePlanarRGB(t *testing.T) {
	// Two strip groups of three planes each: the flat strip order is
	// R0 G0 B0 R1 G1 B1.
	entries := append(rgbFrame(2, 4, 2), shortE(tPlanarConfiguration, pcPlanar))
	strips := [][]byte{
		{1, 2, 3, 4}, {11, 12, 13, 14}, {21, 22, 23, 24}, // Group 0 rows 0-1.
		{5, 6, 7, 8}, {15, 16, 17, 18}, {25, 26, 27, 28}, // Group 1 rows 2-3.
	}
	b := newBuilder(binary.LittleEndian)
	b.addFrame(entries, strips)

	img := decodeAll(t, b.bytes())
	m := img.Frames[0].Image.(*image.RGBA)
	assert.Equal(t, color.RGBA{R: 1, G: 11, B: 21, A: 0xff}, m.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 4, G: 14, B: 24, A: 0xff}, m.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{R: 5, G: 15, B: 25, A: 0xff}, m.RGBAAt(0, 2))
	assert.Equal(t, color.RGBA{R: 8, G: 18, B: 28, A: 0xff}, m.RGBAAt(1, 3))
}

func TestDecodeDeflateStrips(t *testing.T) {
	const w, h, rps = 4, 5, 2
	entries := grayFrame(w, h, rps)
	for i := range entries {
		if entries[i].id == tCompression {
			entries[i] = shortE(tCompression, cDeflate)
		}
	}
	var strips [][]byte
	for _, raw := range grayStrips(w, h, rps) {
		var compressed bytes.Buffer
		zw := zlib.NewWriter(&compressed)
		_, err := zw.Write(raw)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		strips = append(strips, compressed.Bytes())
	}
	b := newBuilder(binary.LittleEndian)
	b.addFrame(entries, strips)

	img := decodeAll(t, b.bytes())
	m := img.Frames[0].Image.(*image.Gray)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			assert.Equal(t, uint8(x+y*w), m.GrayAt(x, y).Y)
		}
	}
}

func TestDecodeLZWStrips(t *testing.T) {
	entries := grayFrame(2, 2, 2)
	for i := range entries {
		if entries[i].id == tCompression {
			entries[i] = shortE(tCompression, cLZW)
		}
	}
	// The strip {1, 2, 3, 4} as 9-bit MSB codes: Clear, the four
	// literals, EOI.
	strip := []byte{0x80, 0x00, 0x40, 0x40, 0x30, 0x24, 0x04}
	b := newBuilder(binary.LittleEndian)
	b.addFrame(entries, [][]byte{strip})

	img := decodeAll(t, b.bytes())
	m := img.Frames[0].Image.(*image.Gray)
	assert.Equal(t, uint8(1), m.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(2), m.GrayAt(1, 0).Y)
	assert.Equal(t, uint8(3), m.GrayAt(0, 1).Y)
	assert.Equal(t, uint8(4), m.GrayAt(1, 1).Y)
}

func TestDecodePackBitsStrips(t *testing.T) {
	const w, h, rps = 4, 4, 2
	entries := grayFrame(w, h, rps)
	for i := range entries {
		if entries[i].id == tCompression {
			entries[i] = shortE(tCompression, cPackBits)
		}
	}
	var strips [][]byte
	for _, raw := range grayStrips(w, h, rps) {
		// One literal run per strip.
		strips = append(strips, append([]byte{byte(len(raw) - 1)}, raw...))
	}
	b := newBuilder(binary.LittleEndian)
	b.addFrame(entries, strips)

	img := decodeAll(t, b.bytes())
	m := img.Frames[0].Image.(*image.Gray)
	assert.Equal(t, uint8(0), m.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(w*h-1), m.GrayAt(w-1, h-1).Y)
}

func TestDecodeMultiFrame(t *testing.T) {
	b := newBuilder(binary.LittleEndian)
	b.addFrame(grayFrame(4, 4, 2), grayStrips(4, 4, 2))
	b.addFrame(grayFrame(4, 4, 2), grayStrips(4, 4, 2))

	img := decodeAll(t, b.bytes())
	assert.Len(t, img.Frames, 2)
	assert.Equal(t, img.Frames[0].Bounds(), img.Frames[1].Bounds())
	assert.Equal(t, 2, img.Meta.FrameCount())
}

func TestDecodeMultiFrameDimensionMismatch(t *testing.T) {
	b := newBuilder(binary.LittleEndian)
	b.addFrame(grayFrame(4, 4, 2), grayStrips(4, 4, 2))
	b.addFrame(grayFrame(2, 2, 2), grayStrips(2, 2, 2))

	img, err := DecodeAll(context.Background(), bytes.NewReader(b.bytes()))
	assert.IsType(t, UnsupportedError(""), err)
	assert.Nil(t, img) // No partial image.
}

func TestDecodeMaxFrames(t *testing.T) {
	b := newBuilder(binary.LittleEndian)
	b.addFrame(grayFrame(4, 4, 2), grayStrips(4, 4, 2))
	b.addFrame(grayFrame(2, 2, 2), grayStrips(2, 2, 2))

	// The mismatching second frame is never reached.
	img, err := DecodeAll(context.Background(), bytes.NewReader(b.bytes()), WithMaxFrames(1))
	require.NoError(t, err)
	assert.Len(t, img.Frames, 1)
}

func TestDecodeCancellation(t *testing.T) {
	b := newBuilder(binary.LittleEndian)
	b.addFrame(grayFrame(4, 4, 2), grayStrips(4, 4, 2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	img, err := DecodeAll(ctx, bytes.NewReader(b.bytes()))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, img)
}

func TestIdentify(t *testing.T) {
	// An unknown compression kind proves that Identify performs no
	// pixel work: DecodeAll rejects the same stream.
	entries := rgbFrame(6, 4, 2)
	for i := range entries {
		if entries[i].id == tCompression {
			entries[i] = shortE(tCompression, 999)
		}
	}
	b := newBuilder(binary.LittleEndian)
	b.addFrame(entries, [][]byte{{0}, {0}})

	info, err := Identify(context.Background(), bytes.NewReader(b.bytes()))
	require.NoError(t, err)
	assert.Equal(t, 6, info.Width)
	assert.Equal(t, 4, info.Height)
	assert.Equal(t, 24, info.BitsPerPixel)
	assert.Equal(t, 1, info.Meta.FrameCount())

	_, err = DecodeAll(context.Background(), bytes.NewReader(b.bytes()))
	assert.IsType(t, UnsupportedError(""), err)
}

func TestDecodeRGBFloat(t *testing.T) {
	const w, h = 16, 16
	entries := []entry{
		shortE(tImageWidth, w),
		shortE(tImageLength, h),
		shortE(tBitsPerSample, 32, 32, 32),
		shortE(tCompression, cNone),
		shortE(tPhotometricInterpretation, pRGB),
		shortE(tSampleFormat, sfFloat, sfFloat, sfFloat),
		shortE(tRowsPerStrip, h),
	}

	pixel := func(x, y, c int) float32 {
		return float32(x+y*w+c) / 8
	}
	strip := make([]byte, 0, w*h*12)
	var tmp [4]byte
	expected := hdr.NewRGB(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(pixel(x, y, c)))
				strip = append(strip, tmp[:]...)
			}
			expected.SetRGB(x, y, hdrcolor.RGB{
				R: float64(pixel(x, y, 0)),
				G: float64(pixel(x, y, 1)),
				B: float64(pixel(x, y, 2)),
			})
		}
	}
	b := newBuilder(binary.LittleEndian)
	b.addFrame(entries, [][]byte{strip})

	img := decodeAll(t, b.bytes())
	m, ok := img.Frames[0].Image.(*hdr.RGB)
	require.True(t, ok)
	assert.Equal(t, float64(1), hdrtool.HDRSSIM(expected, m))
}

func TestDecodeRoundTrip(t *testing.T) {
	// For a single-strip 8-bit chunky image the decoded pixel buffer is
	// the strip payload, byte for byte.
	const w, h = 8, 5
	strips := grayStrips(w, h, h)
	b := newBuilder(binary.LittleEndian)
	b.addFrame(grayFrame(w, h, h), strips)

	img := decodeAll(t, b.bytes())
	m := img.Frames[0].Image.(*image.Gray)
	assert.Empty(t, cmp.Diff(strips[0], m.Pix))
}
