package tiff

import (
	"bufio"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/image/tiff/lzw"
)

// inflator expands one strip's compressed bytes into a pre-sized
// destination buffer. Implementations fill dst completely, zero-padding
// when the source runs short.
type inflator interface {
	inflate(r io.ReaderAt, offset, n int64, dst []byte) error
}

// inflatorFor selects the decompressor for a compression kind.
//
// According to the spec, Compression does not have a default value,
// but some tools interpret a missing Compression value as none so we do
// the same.
func inflatorFor(kind uint) (inflator, error) {
	switch kind {
	case cNone, 0:
		return rawInflator{}, nil
	case cLZW:
		return lzwInflator{}, nil
	case cDeflate, cDeflateOld:
		return deflateInflator{}, nil
	case cPackBits:
		return packBitsInflator{}, nil
	default:
		return nil, UnsupportedError(fmt.Sprintf("compression value %d", kind))
	}
}

type rawInflator struct{}

func (rawInflator) inflate(r io.ReaderAt, offset, n int64, dst []byte) error {
	if n > int64(len(dst)) {
		n = int64(len(dst))
	}
	if _, err := r.ReadAt(dst[:n], offset); err != nil {
		return errors.Wrap(err, "could not read strip")
	}
	zeroFill(dst[n:])
	return nil
}

type lzwInflator struct{}

func (lzwInflator) inflate(r io.ReaderAt, offset, n int64, dst []byte) error {
	// TIFF uses the MSB-first LZW variant with deferred code-width
	// increments, which compress/lzw does not speak.
	rc := lzw.NewReader(io.NewSectionReader(r, offset, n), lzw.MSB, 8)
	defer rc.Close()
	return fillExact(rc, dst)
}

type deflateInflator struct{}

func (deflateInflator) inflate(r io.ReaderAt, offset, n int64, dst []byte) error {
	rc, err := zlib.NewReader(io.NewSectionReader(r, offset, n))
	if err != nil {
		return errors.Wrap(err, "could not open deflate strip")
	}
	defer rc.Close()
	return fillExact(rc, dst)
}

type packBitsInflator struct{}

func (packBitsInflator) inflate(r io.ReaderAt, offset, n int64, dst []byte) error {
	raw, err := unpackBits(io.NewSectionReader(r, offset, n))
	if err != nil {
		return err
	}
	m := copy(dst, raw)
	zeroFill(dst[m:])
	return nil
}

// fillExact reads from r until dst is full. A source that ends early
// zero-pads the remainder so the strip always covers its nominal size.
func fillExact(r io.Reader, dst []byte) error {
	n, err := io.ReadFull(r, dst)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		zeroFill(dst[n:])
		return nil
	}
	return errors.Wrap(err, "could not decompress strip")
}

func zeroFill(p []byte) {
	for i := range p {
		p[i] = 0
	}
}

type byteReader interface {
	io.Reader
	io.ByteReader
}

// unpackBits decodes the PackBits-compressed data in src and returns the
// uncompressed data.
//
// The PackBits compression format is described in section 9 (p. 42)
// of the TIFF spec.
func unpackBits(r io.Reader) ([]byte, error) {
	var n int
	buf := make([]byte, 128)
	dst := make([]byte, 0, 1024)
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}

	for {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF {
				return dst, nil
			}
			return nil, err
		}
		code := int(int8(b))
		switch {
		case code >= 0:
			n, err = io.ReadFull(br, buf[:code+1])
			if err != nil {
				return nil, err
			}
			dst = append(dst, buf[:n]...)
		case code == -128:
			// No-op.
		default:
			if b, err = br.ReadByte(); err != nil {
				return nil, err
			}
			for j := 0; j < 1-code; j++ {
				buf[j] = b
			}
			dst = append(dst, buf[:1-code]...)
		}
	}
}
