package tiff

import (
	"context"
	"image"
	"io"
	"sync"
)

// scratchPool hands out strip-sized scratch buffers. The engine returns
// every buffer it acquired on all exit paths; the default pool recycles
// them across frame decodes.
type scratchPool interface {
	get(n int) []byte
	put(p []byte)
}

type sharedPool struct {
	pool sync.Pool
}

func (s *sharedPool) get(n int) []byte {
	if v := s.pool.Get(); v != nil {
		if b := *(v.(*[]byte)); cap(b) >= n {
			return b[:n]
		}
	}
	return make([]byte, n)
}

func (s *sharedPool) put(p []byte) {
	s.pool.Put(&p)
}

var scratch scratchPool = &sharedPool{}

// stripEngine owns the per-frame strip loops. Strips are processed
// strictly in index order because the scratch buffers are reused across
// iterations.
type stripEngine struct {
	r       io.ReaderAt
	params  *frameParams
	inflate inflator
	pool    scratchPool
}

func newStripEngine(r io.ReaderAt, p *frameParams, inf inflator) *stripEngine {
	return &stripEngine{r: r, params: p, inflate: inf, pool: scratch}
}

// decodeChunky walks the strips in index order, reusing one scratch
// buffer sized for a full-height strip. The last strip may be shorter
// when the image height is not a multiple of RowsPerStrip.
func (e *stripEngine) decodeChunky(ctx context.Context, dst image.Image, cd colorDecoder) error {
	p := e.params
	buf := e.pool.get(bufferSize(p.width, p.rowsPerStrip, p.bitsPerPixel()))
	defer e.pool.put(buf)

	for i := range p.stripOffsets {
		if err := ctx.Err(); err != nil {
			return err
		}
		h := stripHeight(i, len(p.stripOffsets), p.rowsPerStrip, p.height)
		if err := e.inflate.inflate(e.r, int64(p.stripOffsets[i]), int64(p.stripCounts[i]), buf); err != nil {
			return err
		}
		ymin := i * p.rowsPerStrip
		if err := cd.decode(buf, dst, 0, ymin, p.width, ymin+h); err != nil {
			return err
		}
	}
	return nil
}

// decodePlanar walks strip groups. Within a group one strip per sample
// plane is decompressed before the group is color-converted as a unit;
// the flat strip index of plane s in group g is g*planeCount+s.
func (e *stripEngine) decodePlanar(ctx context.Context, dst image.Image, pd planarColorDecoder) error {
	p := e.params
	planes := p.planeCount()
	groups := len(p.stripOffsets) / planes

	bufs := make([][]byte, 0, planes)
	defer func() {
		for _, b := range bufs {
			e.pool.put(b)
		}
	}()
	for s := 0; s < planes; s++ {
		bufs = append(bufs, e.pool.get(bufferSize(p.width, p.rowsPerStrip, int(p.bitsPerSample[s]))))
	}

	for g := 0; g < groups; g++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		h := stripHeight(g, groups, p.rowsPerStrip, p.height)
		for s := 0; s < planes; s++ {
			i := g*planes + s
			if err := e.inflate.inflate(e.r, int64(p.stripOffsets[i]), int64(p.stripCounts[i]), bufs[s]); err != nil {
				return err
			}
		}
		ymin := g * p.rowsPerStrip
		if err := pd.decodePlanes(bufs, dst, 0, ymin, p.width, ymin+h); err != nil {
			return err
		}
	}
	return nil
}
