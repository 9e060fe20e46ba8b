package tiff

import (
	"encoding/binary"
	"image"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/format"
	"github.com/mdouchement/hdr/hdrcolor"
)

// rgbFloatDecoder handles 32-bit IEEE floating-point RGB samples, the
// high-dynamic-range flavor of the RGB photometric interpretation.
type rgbFloatDecoder struct {
	order binary.ByteOrder
}

func (d *rgbFloatDecoder) decode(buf []byte, dst image.Image, xmin, ymin, xmax, ymax int) error {
	rMaxX := minInt(xmax, dst.Bounds().Max.X)
	rMaxY := minInt(ymax, dst.Bounds().Max.Y)
	var off int

	m := dst.(*hdr.RGB)
	for y := ymin; y < rMaxY; y++ {
		for x := xmin; x < rMaxX; x++ {
			R, G, B := format.FromBytes(d.order, buf[off:off+12])
			m.SetRGB(x, y, hdrcolor.RGB{R: R, G: G, B: B})
			off += 12 // RGB is hold on 12 Bytes (4 Bytes per channel)
		}
	}
	return nil
}
