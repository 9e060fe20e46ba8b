package tiff

import (
	"image"
	"image/color"
)

type cmykDecoder struct{}

func (cmykDecoder) decode(buf []byte, dst image.Image, xmin, ymin, xmax, ymax int) error {
	rMaxX := minInt(xmax, dst.Bounds().Max.X)
	rMaxY := minInt(ymax, dst.Bounds().Max.Y)
	var off int

	m := dst.(*image.CMYK)
	for y := ymin; y < rMaxY; y++ {
		for x := xmin; x < rMaxX; x++ {
			m.SetCMYK(x, y, color.CMYK{C: buf[off], M: buf[off+1], Y: buf[off+2], K: buf[off+3]})
			off += 4
		}
	}
	return nil
}
