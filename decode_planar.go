package tiff

import (
	"encoding/binary"
	"image"
	"image/color"
	"math"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
)

// singlePlane adapts a chunky converter for modes with one sample
// plane, where planar and chunky storage coincide.
type singlePlane struct {
	colorDecoder
}

func (s singlePlane) decodePlanes(planes [][]byte, dst image.Image, xmin, ymin, xmax, ymax int) error {
	return s.decode(planes[0], dst, xmin, ymin, xmax, ymax)
}

type planarRGBDecoder struct {
	mode imageMode
}

func (d *planarRGBDecoder) decodePlanes(planes [][]byte, dst image.Image, xmin, ymin, xmax, ymax int) error {
	rMaxX := minInt(xmax, dst.Bounds().Max.X)
	rMaxY := minInt(ymax, dst.Bounds().Max.Y)
	var off int

	switch d.mode {
	case mRGB:
		m := dst.(*image.RGBA)
		for y := ymin; y < rMaxY; y++ {
			for x := xmin; x < rMaxX; x++ {
				m.SetRGBA(x, y, color.RGBA{R: planes[0][off], G: planes[1][off], B: planes[2][off], A: 0xff})
				off++
			}
		}
	case mRGBA:
		m := dst.(*image.RGBA)
		for y := ymin; y < rMaxY; y++ {
			for x := xmin; x < rMaxX; x++ {
				m.SetRGBA(x, y, color.RGBA{R: planes[0][off], G: planes[1][off], B: planes[2][off], A: planes[3][off]})
				off++
			}
		}
	case mNRGBA:
		m := dst.(*image.NRGBA)
		for y := ymin; y < rMaxY; y++ {
			for x := xmin; x < rMaxX; x++ {
				m.SetNRGBA(x, y, color.NRGBA{R: planes[0][off], G: planes[1][off], B: planes[2][off], A: planes[3][off]})
				off++
			}
		}
	default:
		return InternalError("unexpected RGB mode")
	}
	return nil
}

type planarCMYKDecoder struct{}

func (planarCMYKDecoder) decodePlanes(planes [][]byte, dst image.Image, xmin, ymin, xmax, ymax int) error {
	rMaxX := minInt(xmax, dst.Bounds().Max.X)
	rMaxY := minInt(ymax, dst.Bounds().Max.Y)
	var off int

	m := dst.(*image.CMYK)
	for y := ymin; y < rMaxY; y++ {
		for x := xmin; x < rMaxX; x++ {
			m.SetCMYK(x, y, color.CMYK{C: planes[0][off], M: planes[1][off], Y: planes[2][off], K: planes[3][off]})
			off++
		}
	}
	return nil
}

type planarRGBFloatDecoder struct {
	order binary.ByteOrder
}

func (d *planarRGBFloatDecoder) decodePlanes(planes [][]byte, dst image.Image, xmin, ymin, xmax, ymax int) error {
	rMaxX := minInt(xmax, dst.Bounds().Max.X)
	rMaxY := minInt(ymax, dst.Bounds().Max.Y)
	var off int

	sample := func(plane []byte) float64 {
		return float64(math.Float32frombits(d.order.Uint32(plane[off : off+4])))
	}

	m := dst.(*hdr.RGB)
	for y := ymin; y < rMaxY; y++ {
		for x := xmin; x < rMaxX; x++ {
			m.SetRGB(x, y, hdrcolor.RGB{R: sample(planes[0]), G: sample(planes[1]), B: sample(planes[2])})
			off += 4
		}
	}
	return nil
}
