package decoder

import (
	"github.com/bugVanisher/wallplayer/common/errs"
	"github.com/rs/zerolog/log"
)

// Plane is one byte region of a buffer, memory-mapped for device buffers
// or heap-backed for clones.
type Plane struct {
	Mapping      *PlaneMapping
	Data         []byte
	Length       uint32
	BytesPerLine uint32
	BytesUsed    uint32
}

// Buffer identity is stable by index for the device's lifetime. A clone
// has index -1 and heap planes.
type Buffer struct {
	Index  int
	Queued bool
	Planes []Plane
}

// Buffers drives one side of an open decoder: format negotiation, buffer
// allocation and mapping, queueing and streaming state.
type Buffers struct {
	dev  Device
	side Side
	sid  string

	Format    Format
	Comp      Rect
	HasComp   bool
	MinQueued int

	bufs      []*Buffer
	queued    int
	streaming bool
	last      *Buffer
	clone     *Buffer
}

// NewBuffers ...
func NewBuffers(dev Device, side Side, sid string) *Buffers {
	return &Buffers{dev: dev, side: side, sid: sid}
}

// QueryFormats enumerates the side's pixel formats and reports whether
// desired is among them.
func (b *Buffers) QueryFormats(desired PixFmt) (bool, error) {
	fmts, err := b.dev.EnumFormats(b.side)
	if err != nil {
		return false, errs.Wrapf(err, "enum formats %s", b.side)
	}
	for _, f := range fmts {
		if f == desired {
			return true, nil
		}
	}
	return false, nil
}

// SetFormat negotiates f and reads back what was granted. When getComp is
// set the composition rectangle is read too; a device without one leaves
// HasComp false.
func (b *Buffers) SetFormat(f *Format, getComp bool) error {
	if err := b.dev.SetFormat(b.side, f); err != nil {
		return errs.Wrapf(err, "set format %s", b.side)
	}
	if err := b.dev.GetFormat(b.side, f); err != nil {
		return errs.Wrapf(err, "get format %s", b.side)
	}
	b.Format = *f
	b.HasComp = false
	if getComp {
		if r, err := b.dev.Composition(b.side); err == nil {
			b.Comp = r
			b.HasComp = true
		}
	}
	return nil
}

// Alloc requests count buffers; the device may grant fewer. Alloc(0)
// deallocates.
func (b *Buffers) Alloc(count int) error {
	granted, err := b.dev.RequestBuffers(b.side, count)
	if err != nil {
		return errs.Wrapf(err, "request %d buffers %s", count, b.side)
	}
	if count == 0 {
		b.bufs = nil
		b.queued = 0
		b.last = nil
		return nil
	}
	if granted == 0 {
		return errs.Wrapf(errs.ErrBufferAlloc, "device granted 0 of %d %s buffers", count, b.side)
	}
	if granted < count {
		log.Warn().Str("sid", b.sid).Str("side", b.side.String()).
			Int("requested", count).Int("granted", granted).Msg("buffer under-grant")
	}
	b.bufs = make([]*Buffer, granted)
	for i := range b.bufs {
		b.bufs[i] = &Buffer{Index: i}
	}
	b.queued = 0
	b.last = nil
	return nil
}

// Mmap maps every plane of every allocated buffer. On failure, planes
// mapped so far are released in reverse.
func (b *Buffers) Mmap() error {
	for _, buf := range b.bufs {
		infos, err := b.dev.QueryBuffer(b.side, buf.Index, b.Format.NumPlanes)
		if err != nil {
			b.Unmap()
			return errs.Wrapf(err, "query buffer %d %s", buf.Index, b.side)
		}
		buf.Planes = make([]Plane, len(infos))
		for j, info := range infos {
			m, err := b.dev.MapPlane(info)
			if err != nil {
				b.Unmap()
				return errs.Wrapf(err, "map buffer %d plane %d %s", buf.Index, j, b.side)
			}
			bpl := uint32(0)
			if j < len(b.Format.BytesPerLine) {
				bpl = b.Format.BytesPerLine[j]
			}
			buf.Planes[j] = Plane{
				Mapping:      m,
				Data:         m.Data,
				Length:       info.Length,
				BytesPerLine: bpl,
			}
		}
	}
	return nil
}

// Unmap releases mapped planes in reverse of acquisition.
func (b *Buffers) Unmap() {
	for i := len(b.bufs) - 1; i >= 0; i-- {
		buf := b.bufs[i]
		for j := len(buf.Planes) - 1; j >= 0; j-- {
			if buf.Planes[j].Mapping != nil {
				if err := b.dev.UnmapPlane(buf.Planes[j].Mapping); err != nil {
					log.Warn().Str("sid", b.sid).Err(err).Msg("unmap plane")
				}
			}
		}
		buf.Planes = nil
	}
}

// Len returns the number of allocated buffers.
func (b *Buffers) Len() int {
	return len(b.bufs)
}

// QueuedCount ...
func (b *Buffers) QueuedCount() int {
	return b.queued
}

// Streaming ...
func (b *Buffers) Streaming() bool {
	return b.streaming
}

// Last returns the most recently dequeued buffer, nil after Stop.
func (b *Buffers) Last() *Buffer {
	return b.last
}

// Unqueued returns a buffer not currently queued, nil if all are queued.
func (b *Buffers) Unqueued() *Buffer {
	for _, buf := range b.bufs {
		if !buf.Queued {
			return buf
		}
	}
	return nil
}

// EnqueueMinimum tops the queue up to n buffers from the unqueued pool.
func (b *Buffers) EnqueueMinimum(n int) error {
	for b.queued < n {
		buf := b.Unqueued()
		if buf == nil {
			return nil
		}
		if err := b.Enqueue(buf, nil); err != nil {
			return err
		}
	}
	return nil
}

// Enqueue appends one buffer; ts carries the frame sequence on the input
// side and is nil on the output side.
func (b *Buffers) Enqueue(buf *Buffer, ts *Timestamp) error {
	used := make([]uint32, len(buf.Planes))
	for i := range buf.Planes {
		used[i] = buf.Planes[i].BytesUsed
	}
	var t Timestamp
	if ts != nil {
		t = *ts
	}
	if err := b.dev.Enqueue(b.side, buf.Index, used, t); err != nil {
		return errs.Wrapf(err, "enqueue buffer %d %s", buf.Index, b.side)
	}
	buf.Queued = true
	b.queued++
	if buf == b.last {
		b.last = nil
	}
	return nil
}

// Dequeue pops the oldest completed buffer. The returned error may be one
// of the sentinel kinds (ErrWouldBlock, ErrInvalid, ErrIO, ErrPipe).
func (b *Buffers) Dequeue() (*Buffer, Timestamp, error) {
	d, err := b.dev.Dequeue(b.side)
	if err != nil {
		return nil, Timestamp{}, err
	}
	if d.Index < 0 || d.Index >= len(b.bufs) {
		return nil, Timestamp{}, errs.Wrapf(ErrInvalid, "dequeued index %d of %d", d.Index, len(b.bufs))
	}
	buf := b.bufs[d.Index]
	buf.Queued = false
	b.queued--
	for i := range buf.Planes {
		if i < len(d.BytesUsed) {
			buf.Planes[i].BytesUsed = d.BytesUsed[i]
		}
	}
	b.last = buf
	return buf, d.Timestamp, nil
}

// Start toggles streaming on.
func (b *Buffers) Start() error {
	if b.streaming {
		return nil
	}
	if err := b.dev.StreamOn(b.side); err != nil {
		return errs.Wrapf(err, "stream on %s", b.side)
	}
	b.streaming = true
	return nil
}

// Stop toggles streaming off and returns every buffer to the unqueued
// pool.
func (b *Buffers) Stop() error {
	if !b.streaming {
		return nil
	}
	err := b.dev.StreamOff(b.side)
	b.streaming = false
	for _, buf := range b.bufs {
		buf.Queued = false
	}
	b.queued = 0
	b.last = nil
	if err != nil {
		return errs.Wrapf(err, "stream off %s", b.side)
	}
	return nil
}

// KeepLastAsClone deep-copies src into a reusable heap buffer so src can
// be re-enqueued immediately while the copy stays drawable.
func (b *Buffers) KeepLastAsClone(src *Buffer) *Buffer {
	if src == nil {
		return nil
	}
	if b.clone == nil {
		b.clone = &Buffer{Index: -1}
	}
	c := b.clone
	if len(c.Planes) != len(src.Planes) {
		c.Planes = make([]Plane, len(src.Planes))
	}
	for i := range src.Planes {
		sp := &src.Planes[i]
		cp := &c.Planes[i]
		if uint32(cap(cp.Data)) < sp.Length {
			cp.Data = make([]byte, sp.Length)
		}
		cp.Data = cp.Data[:sp.Length]
		copy(cp.Data, sp.Data)
		cp.Length = sp.Length
		cp.BytesPerLine = sp.BytesPerLine
		cp.BytesUsed = sp.BytesUsed
	}
	return c
}

// Teardown stops streaming, unmaps and frees buffers. Used on close and
// on capture reinitialization after a source change.
func (b *Buffers) Teardown() {
	if b.streaming {
		if err := b.Stop(); err != nil {
			log.Warn().Str("sid", b.sid).Err(err).Msg("stop on teardown")
		}
	}
	b.Unmap()
	if len(b.bufs) > 0 {
		if err := b.Alloc(0); err != nil {
			log.Warn().Str("sid", b.sid).Err(err).Msg("free on teardown")
		}
	}
}

// ReadMinQueued refreshes the authoritative minimum queued count for the
// output side; fewer queued buffers stall the decoder.
func (b *Buffers) ReadMinQueued() int {
	n, err := b.dev.MinOutputBuffers()
	if err != nil || n <= 0 {
		n = 1
	}
	b.MinQueued = n
	return n
}
