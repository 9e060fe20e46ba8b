package tiff

import (
	"encoding/binary"
	"io"
	"math/big"

	"github.com/rwcarlsen/goexif/exif"
)

// Metadata aggregates the image-wide concerns of a decoded stream.
type Metadata struct {
	// ByteOrder is the numeric byte order of the source stream.
	ByteOrder binary.ByteOrder

	// XResolution and YResolution are pixels per ResolutionUnit,
	// nil when the source carries no resolution tags.
	XResolution *big.Rat
	YResolution *big.Rat
	// ResolutionUnit defaults to dots per inch (page 18 of the spec).
	ResolutionUnit uint

	// Exif holds the decoded EXIF sub-IFD when one is present and
	// readable, nil otherwise.
	Exif *exif.Exif

	frames []map[uint16]tag
}

// FrameCount is the number of directories found in the stream.
func (m *Metadata) FrameCount() int {
	return len(m.frames)
}

// createMetadata aggregates the per-frame tag bags into image-wide
// metadata. With ignore set only the frame count survives; ignoring
// metadata never suppresses validation elsewhere.
func createMetadata(r io.ReaderAt, order binary.ByteOrder, dirs []*ifd, ignore bool) *Metadata {
	m := &Metadata{
		ByteOrder:      order,
		ResolutionUnit: resPerInch,
		frames:         make([]map[uint16]tag, len(dirs)),
	}
	if ignore {
		return m
	}

	for i, d := range dirs {
		m.frames[i] = d.features
	}

	first := dirs[0]
	if t, ok := first.features[tXResolution]; ok {
		m.XResolution = t.rational(0)
	}
	if t, ok := first.features[tYResolution]; ok {
		m.YResolution = t.rational(0)
	}
	if v := first.firstVal(tResolutionUnit); v != 0 {
		m.ResolutionUnit = v
	}

	if first.has(tExifIFD) {
		// Best effort: EXIF is auxiliary, a broken sub-IFD never fails
		// the decode.
		if x, err := exif.Decode(io.NewSectionReader(r, 0, 1<<48)); err == nil {
			m.Exif = x
		}
	}
	return m
}
