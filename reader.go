package tiff

// Resources:
// https://github.com/golang/image/tree/master/tiff
// https://www.fileformat.info/format/tiff/egff.htm
// http://www.awaresystems.be/imaging/tiff.html

import (
	"context"
	"image"
	"io"
)

// Image is a decoded multi-frame TIFF. Every frame has the dimensions
// of the first one.
type Image struct {
	Frames []*Frame
	Meta   *Metadata
}

// ImageInfo describes a stream without decoding pixel data.
type ImageInfo struct {
	Width, Height int
	// BitsPerPixel is the sum of the first frame's BitsPerSample
	// entries.
	BitsPerPixel int
	Meta         *Metadata
}

// An Option configures DecodeAll and Identify.
type Option func(*options)

type options struct {
	ignoreMetadata bool
	maxFrames      int
}

// WithoutMetadata suppresses metadata capture. Validation failures are
// never suppressed.
func WithoutMetadata() Option {
	return func(o *options) { o.ignoreMetadata = true }
}

// WithMaxFrames limits how many frames of the IFD chain are decoded.
func WithMaxFrames(n int) Option {
	return func(o *options) { o.maxFrames = n }
}

func buildOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DecodeAll reads a TIFF stream from r and decodes every frame of its
// IFD chain. Frames whose dimensions differ from the first frame's are
// rejected and a failing frame discards the whole image, no partial
// result is ever returned. The context is checked at frame and strip
// boundaries.
func DecodeAll(ctx context.Context, r io.Reader, opts ...Option) (*Image, error) {
	o := buildOptions(opts)

	d, err := newDirectory(newReaderAt(r))
	if err != nil {
		return nil, err
	}
	dirs := d.ifds
	if o.maxFrames > 0 && len(dirs) > o.maxFrames {
		dirs = dirs[:o.maxFrames]
	}

	img := &Image{Frames: make([]*Frame, 0, len(dirs))}
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := decodeFrame(ctx, d.r, d.byteOrder, dir)
		if err != nil {
			return nil, err
		}
		if len(img.Frames) > 0 && f.Bounds() != img.Frames[0].Bounds() {
			return nil, UnsupportedError("frames of differing dimensions")
		}
		img.Frames = append(img.Frames, f)
	}
	img.Meta = createMetadata(d.r, d.byteOrder, dirs, o.ignoreMetadata)

	return img, nil
}

// Identify reads the directory chain and reports dimensions, bit depth
// and metadata without touching any pixel data: no decompressor or
// color converter ever runs.
func Identify(ctx context.Context, r io.Reader, opts ...Option) (*ImageInfo, error) {
	o := buildOptions(opts)

	d, err := newDirectory(newReaderAt(r))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirs := d.ifds
	if o.maxFrames > 0 && len(dirs) > o.maxFrames {
		dirs = dirs[:o.maxFrames]
	}

	first := dirs[0]
	if !first.has(tImageWidth) || !first.has(tImageLength) {
		return nil, FormatError("missing image dimensions")
	}
	bps, ok := first.features[tBitsPerSample]
	if !ok {
		return nil, FormatError("BitsPerSample tag missing")
	}
	var bits int
	for _, v := range bps.val {
		bits += int(v)
	}

	return &ImageInfo{
		Width:        int(first.firstVal(tImageWidth)),
		Height:       int(first.firstVal(tImageLength)),
		BitsPerPixel: bits,
		Meta:         createMetadata(d.r, d.byteOrder, dirs, o.ignoreMetadata),
	}, nil
}

// Decode reads a TIFF image from r and returns the first frame as an
// image.Image.
func Decode(r io.Reader) (image.Image, error) {
	img, err := DecodeAll(context.Background(), r, WithMaxFrames(1), WithoutMetadata())
	if err != nil {
		return nil, err
	}
	return img.Frames[0].Image, nil
}

// DecodeConfig returns the color model and dimensions of a TIFF image
// without decoding the entire image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	d, err := newDirectory(newReaderAt(r))
	if err != nil {
		return image.Config{}, err
	}
	p, err := resolveParams(d.ifds[0])
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: p.colorModel(),
		Width:      p.width,
		Height:     p.height,
	}, nil
}

func init() {
	image.RegisterFormat("tiff", leHeader, Decode, DecodeConfig)
	image.RegisterFormat("tiff", beHeader, Decode, DecodeConfig)
}
