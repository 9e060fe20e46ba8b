package tiff

import (
	"encoding/binary"
	"image"
	"image/color"
)

type rgbDecoder struct {
	bits  uint // Per sample: 8 or 16.
	mode  imageMode
	order binary.ByteOrder
}

func (d *rgbDecoder) decode(buf []byte, dst image.Image, xmin, ymin, xmax, ymax int) error {
	rMaxX := minInt(xmax, dst.Bounds().Max.X)
	rMaxY := minInt(ymax, dst.Bounds().Max.Y)
	var off int

	if d.bits == 16 {
		return d.decode16(buf, dst, xmin, ymin, rMaxX, rMaxY)
	}

	switch d.mode {
	case mRGB:
		m := dst.(*image.RGBA)
		for y := ymin; y < rMaxY; y++ {
			for x := xmin; x < rMaxX; x++ {
				m.SetRGBA(x, y, color.RGBA{R: buf[off], G: buf[off+1], B: buf[off+2], A: 0xff})
				off += 3
			}
		}
	case mRGBA:
		m := dst.(*image.RGBA)
		for y := ymin; y < rMaxY; y++ {
			for x := xmin; x < rMaxX; x++ {
				m.SetRGBA(x, y, color.RGBA{R: buf[off], G: buf[off+1], B: buf[off+2], A: buf[off+3]})
				off += 4
			}
		}
	case mNRGBA:
		m := dst.(*image.NRGBA)
		for y := ymin; y < rMaxY; y++ {
			for x := xmin; x < rMaxX; x++ {
				m.SetNRGBA(x, y, color.NRGBA{R: buf[off], G: buf[off+1], B: buf[off+2], A: buf[off+3]})
				off += 4
			}
		}
	default:
		return InternalError("unexpected RGB mode")
	}
	return nil
}

func (d *rgbDecoder) decode16(buf []byte, dst image.Image, xmin, ymin, rMaxX, rMaxY int) error {
	var off int
	sample := func() uint16 {
		v := d.order.Uint16(buf[off : off+2])
		off += 2
		return v
	}

	switch d.mode {
	case mRGB, mRGBA:
		m := dst.(*image.RGBA64)
		for y := ymin; y < rMaxY; y++ {
			for x := xmin; x < rMaxX; x++ {
				c := color.RGBA64{R: sample(), G: sample(), B: sample(), A: 0xffff}
				if d.mode == mRGBA {
					c.A = sample()
				}
				m.SetRGBA64(x, y, c)
			}
		}
	case mNRGBA:
		m := dst.(*image.NRGBA64)
		for y := ymin; y < rMaxY; y++ {
			for x := xmin; x < rMaxX; x++ {
				m.SetNRGBA64(x, y, color.NRGBA64{R: sample(), G: sample(), B: sample(), A: sample()})
			}
		}
	default:
		return InternalError("unexpected RGB mode")
	}
	return nil
}
