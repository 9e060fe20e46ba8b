package tiff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"
)

//------------------------//
// Header parser          //
//------------------------//

type (
	// directory holds the byte order and the ordered IFD chain of one
	// stream. The IFD at index 0 is the first frame.
	directory struct {
		r         io.ReaderAt
		byteOrder binary.ByteOrder
		ifds      []*ifd
	}

	// ifd is one parsed image file directory: a bag of typed tags.
	ifd struct {
		features map[uint16]tag
	}
)

// newDirectory reads the byte-order header and walks the whole IFD chain.
func newDirectory(r io.ReaderAt) (d *directory, err error) {
	d = &directory{r: r}

	p := make([]byte, 8)
	if _, err = d.r.ReadAt(p, 0); err != nil {
		return nil, errors.Wrap(err, "could not read header")
	}
	switch string(p[0:4]) {
	case leHeader:
		d.byteOrder = binary.LittleEndian
	case beHeader:
		d.byteOrder = binary.BigEndian
	default:
		return nil, FormatError("malformed header")
	}

	// Follow the next-IFD chain. Offsets already visited abort the walk,
	// a malformed chain must not loop forever.
	seen := make(map[int64]bool)
	for offset := int64(d.byteOrder.Uint32(p[4:8])); offset != 0; {
		if seen[offset] {
			return nil, FormatError("recursive IFD chain")
		}
		seen[offset] = true

		features, next, err := d.parseIFD(offset)
		if err != nil {
			return nil, err
		}
		d.ifds = append(d.ifds, &ifd{features: features})
		offset = next
	}

	if len(d.ifds) == 0 {
		return nil, FormatError("no image file directory")
	}

	return d, nil
}

// parseIFD reads all entries of the IFD at the given offset and returns
// the parsed tag bag along with the offset of the next IFD in the chain.
func (d *directory) parseIFD(ifdOffset int64) (map[uint16]tag, int64, error) {
	features := make(map[uint16]tag)
	p := make([]byte, 8)

	// The first two bytes contain the number of entries (12 bytes each).
	if _, err := d.r.ReadAt(p[0:2], ifdOffset); err != nil {
		return nil, 0, errors.Wrap(err, "could not read IFD entry count")
	}
	numItems := int(d.byteOrder.Uint16(p[0:2]))

	// All IFD entries are read in one chunk.
	p = make([]byte, ifdLen*numItems)
	if _, err := d.r.ReadAt(p, ifdOffset+2); err != nil {
		return nil, 0, errors.Wrap(err, "could not read IFD entries")
	}

	for i := 0; i < len(p); i += ifdLen {
		if err := d.parseEntry(features, p[i:i+ifdLen]); err != nil {
			return nil, 0, err
		}
	}

	// The entry block is followed by the offset of the next IFD,
	// zero for the last directory of the chain.
	next := make([]byte, 4)
	if _, err := d.r.ReadAt(next, ifdOffset+2+int64(ifdLen*numItems)); err != nil {
		return nil, 0, errors.Wrap(err, "could not read next IFD offset")
	}

	return features, int64(d.byteOrder.Uint32(next)), nil
}

// parseEntry decides whether the IFD entry in p is "interesting" and
// stows away the data in the tag bag.
func (d *directory) parseEntry(features map[uint16]tag, p []byte) error {
	tid := d.byteOrder.Uint16(p[0:2]) // TagID
	switch tid {
	case tImageWidth,
		tImageLength,
		tBitsPerSample,
		tCompression,
		tPhotometricInterpretation,
		tStripOffsets,
		tSamplesPerPixel,
		tRowsPerStrip,
		tStripByteCounts,
		tTileWidth,
		tTileLength,
		tTileOffsets,
		tTileByteCounts,
		tXResolution,
		tYResolution,
		tPlanarConfiguration,
		tResolutionUnit,
		tPredictor,
		tColorMap,
		tExtraSamples,
		tSampleFormat,
		tExifIFD:
		val, dt, err := d.ifdUint(p)
		if err != nil {
			return err
		}
		features[tid] = tag{
			id:       tid,
			datatype: dt,
			val:      val,
		}
	}
	return nil
}

// ifdUint decodes the IFD entry in p, which must be of the Byte, Short,
// Long, Rational or Double type, and returns the decoded uint values
// and their datatype.
func (d *directory) ifdUint(p []byte) (u []uint, dt uint, err error) {
	var raw []byte
	datatype := d.byteOrder.Uint16(p[2:4])
	if int(datatype) >= len(lengths) || lengths[datatype] == 0 {
		return nil, 0, UnsupportedError(fmt.Sprintf("IFD entry datatype %d", datatype))
	}
	count := d.byteOrder.Uint32(p[4:8])
	datalen := uint64(lengths[datatype]) * uint64(count)
	switch {
	case datalen > math.MaxInt32:
		return nil, 0, FormatError("IFD entry value too large")
	case datalen > 4:
		// The IFD contains a pointer to the real value. The value's last
		// byte is read first, a forged count must not size an allocation
		// the stream cannot back.
		voff := int64(d.byteOrder.Uint32(p[8:12]))
		var last [1]byte
		if _, err = d.r.ReadAt(last[:], voff+int64(datalen)-1); err != nil {
			return nil, 0, FormatError("IFD entry value out of bounds")
		}
		raw = make([]byte, datalen)
		if _, err = d.r.ReadAt(raw, voff); err != nil {
			return nil, 0, errors.Wrap(err, "could not read IFD entry value")
		}
	default:
		raw = p[8 : 8+int(datalen)]
	}

	u = make([]uint, count)
	switch datatype {
	case dtByte:
		for i := uint32(0); i < count; i++ {
			u[i] = uint(raw[i])
		}
	case dtShort:
		for i := uint32(0); i < count; i++ {
			u[i] = uint(d.byteOrder.Uint16(raw[2*i : 2*(i+1)]))
		}
	case dtLong:
		for i := uint32(0); i < count; i++ {
			u[i] = uint(d.byteOrder.Uint32(raw[4*i : 4*(i+1)]))
		}
	case dtRational, dtSRational, dtDouble:
		for i := uint32(0); i < count; i++ {
			u[i] = uint(d.byteOrder.Uint64(raw[8*i : 8*(i+1)]))
		}
	default:
		return nil, 0, UnsupportedError("data type")
	}
	return u, uint(datatype), nil
}

// firstVal is a convenient accessor of tag#firstVal().
func (d *ifd) firstVal(tid uint16) uint {
	return d.features[tid].firstVal()
}

func (d *ifd) has(tid uint16) bool {
	_, ok := d.features[tid]
	return ok
}

func (d *ifd) String() string {
	buf := bytes.NewBufferString("== IFD ==\n")
	for _, t := range d.features {
		buf.WriteString(fmt.Sprintf("%v\n", t))
	}
	return buf.String()
}
