package tiff

import "image"

type palettedDecoder struct {
	bpp uint
}

func (p *palettedDecoder) decode(buf []byte, dst image.Image, xmin, ymin, xmax, ymax int) error {
	rMaxX := minInt(xmax, dst.Bounds().Max.X)
	rMaxY := minInt(ymax, dst.Bounds().Max.Y)
	m := dst.(*image.Paletted)

	if p.bpp == 8 {
		var off int
		for y := ymin; y < rMaxY; y++ {
			for x := xmin; x < rMaxX; x++ {
				m.SetColorIndex(x, y, buf[off])
				off++
			}
		}
		return nil
	}

	br := bitReader{buf: buf}
	for y := ymin; y < rMaxY; y++ {
		for x := xmin; x < rMaxX; x++ {
			m.SetColorIndex(x, y, uint8(br.readBits(p.bpp)))
		}
		br.flushBits()
	}
	return nil
}
