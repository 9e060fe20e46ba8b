package tiff

import "io"

// buffer buffers an io.Reader to satisfy io.ReaderAt.
type buffer struct {
	r   io.Reader
	buf []byte
}

// fill reads data from b.r until the buffer contains at least end bytes.
// The buffer only grows as bytes actually arrive, so a forged offset
// cannot force an allocation larger than the stream.
func (b *buffer) fill(end int) error {
	for len(b.buf) < end {
		m := len(b.buf)
		next := m + 1<<20
		if next > end {
			next = end
		}
		if next > cap(b.buf) {
			newcap := 1024
			for newcap < next {
				newcap *= 2
			}
			newbuf := make([]byte, next, newcap)
			copy(newbuf, b.buf)
			b.buf = newbuf
		} else {
			b.buf = b.buf[:next]
		}
		if n, err := io.ReadFull(b.r, b.buf[m:next]); err != nil {
			b.buf = b.buf[:m+n]
			return err
		}
	}
	return nil
}

func (b *buffer) ReadAt(p []byte, off int64) (int, error) {
	o := int(off)
	end := o + len(p)
	if int64(end) != off+int64(len(p)) {
		return 0, io.ErrUnexpectedEOF
	}

	if err := b.fill(end); err != nil {
		return 0, err
	}
	return copy(p, b.buf[o:end]), nil
}

// newReaderAt converts an io.Reader into an io.ReaderAt. Readers that
// already provide random access are used as-is, everything else is
// buffered in memory as it is consumed.
func newReaderAt(r io.Reader) io.ReaderAt {
	if ra, ok := r.(io.ReaderAt); ok {
		return ra
	}
	return &buffer{r: r}
}
