package tiff

import (
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"io"
	"sort"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
)

// Frame is one decoded image of a multi-frame TIFF together with the
// directory it was derived from.
type Frame struct {
	// Image holds the decoded pixel data. Its concrete type depends on
	// the frame's photometric interpretation and bit depth.
	Image image.Image

	params   *frameParams
	features map[uint16]tag
}

func (f *Frame) Bounds() image.Rectangle {
	return f.Image.Bounds()
}

// BitsPerPixel is the total number of bits per decoded pixel, the sum
// of the frame's BitsPerSample entries.
func (f *Frame) BitsPerPixel() int {
	return f.params.bitsPerPixel()
}

// Tags returns the frame's directory entries, pretty-printed and
// ordered by tag id.
func (f *Frame) Tags() []string {
	ids := make([]int, 0, len(f.features))
	for id := range f.features {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	sl := make([]string, 0, len(ids))
	for _, id := range ids {
		sl = append(sl, f.features[uint16(id)].String())
	}
	return sl
}

// decodeFrame resolves one IFD into a fully decoded frame. Parameter
// resolution failures are fatal, strip-decode failures propagate
// unchanged.
func decodeFrame(ctx context.Context, r io.ReaderAt, order binary.ByteOrder, dir *ifd) (*Frame, error) {
	p, err := resolveParams(dir)
	if err != nil {
		return nil, err
	}

	inf, err := inflatorFor(p.compression)
	if err != nil {
		return nil, err
	}

	dst := p.newImage()
	engine := newStripEngine(r, p, inf)

	switch p.planarConfig {
	case pcPlanar:
		pd, derr := planarColorDecoderFor(p, order)
		if derr != nil {
			return nil, derr
		}
		err = engine.decodePlanar(ctx, dst, pd)
	default:
		cd, derr := colorDecoderFor(p, order)
		if derr != nil {
			return nil, derr
		}
		err = engine.decodeChunky(ctx, dst, cd)
	}
	if err != nil {
		return nil, err
	}

	return &Frame{Image: dst, params: p, features: dir.features}, nil
}

// newImage allocates the frame's pixel buffer. The mode has already
// been validated by resolveParams, so the switch is exhaustive.
func (p *frameParams) newImage() image.Image {
	bounds := image.Rect(0, 0, p.width, p.height)
	switch p.mode {
	case mGray, mGrayInvert:
		if p.bitsPerSample[0] == 16 {
			return image.NewGray16(bounds)
		}
		return image.NewGray(bounds)
	case mPaletted:
		return image.NewPaletted(bounds, p.palette())
	case mRGB, mRGBA:
		if p.bitsPerSample[0] == 16 {
			return image.NewRGBA64(bounds)
		}
		return image.NewRGBA(bounds)
	case mNRGBA:
		if p.bitsPerSample[0] == 16 {
			return image.NewNRGBA64(bounds)
		}
		return image.NewNRGBA(bounds)
	case mCMYK:
		return image.NewCMYK(bounds)
	case mRGBFloat:
		return hdr.NewRGB(bounds)
	}
	return nil
}

// colorModel reports the model matching newImage's allocation.
func (p *frameParams) colorModel() color.Model {
	switch p.mode {
	case mGray, mGrayInvert:
		if p.bitsPerSample[0] == 16 {
			return color.Gray16Model
		}
		return color.GrayModel
	case mPaletted:
		return p.palette()
	case mRGB, mRGBA:
		if p.bitsPerSample[0] == 16 {
			return color.RGBA64Model
		}
		return color.RGBAModel
	case mNRGBA:
		if p.bitsPerSample[0] == 16 {
			return color.NRGBA64Model
		}
		return color.NRGBAModel
	case mCMYK:
		return color.CMYKModel
	case mRGBFloat:
		return hdrcolor.RGBModel
	}
	return nil
}
