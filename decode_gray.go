package tiff

import (
	"encoding/binary"
	"image"
	"image/color"
)

type grayDecoder struct {
	bpp    uint
	invert bool // WhiteIsZero
	order  binary.ByteOrder
}

func (g *grayDecoder) decode(buf []byte, dst image.Image, xmin, ymin, xmax, ymax int) error {
	rMaxX := minInt(xmax, dst.Bounds().Max.X)
	rMaxY := minInt(ymax, dst.Bounds().Max.Y)
	var off int

	switch g.bpp {
	case 16:
		m := dst.(*image.Gray16)
		for y := ymin; y < rMaxY; y++ {
			for x := xmin; x < rMaxX; x++ {
				v := g.order.Uint16(buf[off : off+2])
				off += 2
				if g.invert {
					v = 0xffff - v
				}
				m.SetGray16(x, y, color.Gray16{Y: v})
			}
		}
	case 8:
		m := dst.(*image.Gray)
		for y := ymin; y < rMaxY; y++ {
			for x := xmin; x < rMaxX; x++ {
				v := buf[off]
				off++
				if g.invert {
					v = 0xff - v
				}
				m.SetGray(x, y, color.Gray{Y: v})
			}
		}
	default:
		// Sub-byte depths are packed MSB first, rows padded to a byte
		// boundary. Samples are spread to the full 8-bit range.
		m := dst.(*image.Gray)
		br := bitReader{buf: buf}
		max := uint32(1)<<g.bpp - 1
		for y := ymin; y < rMaxY; y++ {
			for x := xmin; x < rMaxX; x++ {
				v := uint8(br.readBits(g.bpp) * 0xff / max)
				if g.invert {
					v = 0xff - v
				}
				m.SetGray(x, y, color.Gray{Y: v})
			}
			br.flushBits()
		}
	}

	return nil
}
