package tiff

import (
	"encoding/binary"
	"sort"
)

// tiffBuilder assembles synthetic TIFF streams for tests: a header,
// strip payloads, and a chained IFD per frame.
type tiffBuilder struct {
	order binary.ByteOrder
	buf   []byte
	patch int // Position of the next-IFD pointer to patch.
}

func newBuilder(order binary.ByteOrder) *tiffBuilder {
	b := &tiffBuilder{order: order, buf: make([]byte, 8)}
	if order == binary.LittleEndian {
		copy(b.buf, leHeader)
	} else {
		copy(b.buf, beHeader)
	}
	b.patch = 4 // The first-IFD offset lives in the header.
	return b
}

func (b *tiffBuilder) bytes() []byte { return b.buf }

type entry struct {
	id   uint16
	typ  uint16
	vals []uint32
}

func shortE(id uint16, vals ...uint32) entry { return entry{id, dtShort, vals} }
func longE(id uint16, vals ...uint32) entry  { return entry{id, dtLong, vals} }

// rationalE packs one unsigned rational (num/den pairs follow in vals).
func rationalE(id uint16, vals ...uint32) entry { return entry{id, dtRational, vals} }

func (e entry) count() uint32 {
	if e.typ == dtRational {
		return uint32(len(e.vals) / 2)
	}
	return uint32(len(e.vals))
}

func (e entry) valueLen() int {
	switch e.typ {
	case dtByte:
		return len(e.vals)
	case dtShort:
		return 2 * len(e.vals)
	default:
		return 4 * len(e.vals)
	}
}

func (b *tiffBuilder) put16(v uint16) {
	var tmp [2]byte
	b.order.PutUint16(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

func (b *tiffBuilder) put32(v uint32) {
	var tmp [4]byte
	b.order.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

func (b *tiffBuilder) writeValues(e entry) {
	for _, v := range e.vals {
		switch e.typ {
		case dtByte:
			b.buf = append(b.buf, byte(v))
		case dtShort:
			b.put16(uint16(v))
		default:
			b.put32(v)
		}
	}
}

// addFrame appends the strip payloads and an IFD describing them. The
// strip offset and byte-count tags are derived from strips, everything
// else comes from entries.
func (b *tiffBuilder) addFrame(entries []entry, strips [][]byte) {
	offsets := make([]uint32, len(strips))
	counts := make([]uint32, len(strips))
	for i, s := range strips {
		offsets[i] = uint32(len(b.buf))
		counts[i] = uint32(len(s))
		b.buf = append(b.buf, s...)
	}
	entries = append(entries, longE(tStripOffsets, offsets...), longE(tStripByteCounts, counts...))
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	// Values wider than the 4-byte entry field are stored out of line,
	// before the IFD.
	excess := make(map[uint16]uint32)
	for _, e := range entries {
		if e.valueLen() > 4 {
			if len(b.buf)%2 == 1 {
				b.buf = append(b.buf, 0)
			}
			excess[e.id] = uint32(len(b.buf))
			b.writeValues(e)
		}
	}

	if len(b.buf)%2 == 1 {
		b.buf = append(b.buf, 0)
	}
	ifdOff := uint32(len(b.buf))
	b.order.PutUint32(b.buf[b.patch:b.patch+4], ifdOff)

	b.put16(uint16(len(entries)))
	for _, e := range entries {
		b.put16(e.id)
		b.put16(e.typ)
		b.put32(e.count())
		if off, ok := excess[e.id]; ok {
			b.put32(off)
		} else {
			start := len(b.buf)
			b.writeValues(e)
			for len(b.buf)-start < 4 {
				b.buf = append(b.buf, 0)
			}
		}
	}
	b.patch = len(b.buf)
	b.put32(0)
}

// grayFrame returns the tag set of an uncompressed 8-bit grayscale
// frame, the workhorse of the decode tests.
func grayFrame(width, height, rowsPerStrip int) []entry {
	return []entry{
		shortE(tImageWidth, uint32(width)),
		shortE(tImageLength, uint32(height)),
		shortE(tBitsPerSample, 8),
		shortE(tCompression, cNone),
		shortE(tPhotometricInterpretation, pBlackIsZero),
		shortE(tSamplesPerPixel, 1),
		shortE(tRowsPerStrip, uint32(rowsPerStrip)),
	}
}

// grayStrips slices a deterministic width×height gradient into strips
// of rowsPerStrip rows.
func grayStrips(width, height, rowsPerStrip int) [][]byte {
	var strips [][]byte
	for y := 0; y < height; y += rowsPerStrip {
		h := minInt(rowsPerStrip, height-y)
		s := make([]byte, 0, width*h)
		for r := 0; r < h; r++ {
			for x := 0; x < width; x++ {
				s = append(s, byte(x+(y+r)*width))
			}
		}
		strips = append(strips, s)
	}
	return strips
}
