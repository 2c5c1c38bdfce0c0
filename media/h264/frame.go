package h264

import (
	"time"
)

// Frame is one access unit: the concatenated Annex-B bytes of its NALs
// plus per-type bookkeeping. Frames cycle between the pool's reusable and
// filled queues without releasing their byte capacity.
type Frame struct {
	Seq  uint64
	Data []byte

	NALUCounts [32]int
	NALUTotal  int
	VCLCount   int

	Invalid     bool
	Independent bool

	ArrivedAt time.Time
	FedAt     time.Time
}

func (f *Frame) reset(seq uint64) {
	f.Seq = seq
	f.Data = f.Data[:0]
	for i := range f.NALUCounts {
		f.NALUCounts[i] = 0
	}
	f.NALUTotal = 0
	f.VCLCount = 0
	f.Invalid = false
	f.Independent = false
	f.ArrivedAt = time.Time{}
	f.FedAt = time.Time{}
}

func (f *Frame) addNALU(typ int) {
	f.NALUCounts[typ]++
	f.NALUTotal++
	if IsVCL(typ) {
		f.VCLCount++
		if typ == NALU_IDR {
			f.Independent = true
		}
	}
}

// acceptable reports whether the closed frame may be fed to a decoder.
// Only two compositions pass: {SPS, PPS, IDR} with any number of SEI, or
// a single non-IDR slice. Everything else is dropped; the filter is known
// to be narrow and is kept that way on purpose.
func (f *Frame) acceptable() bool {
	if len(f.Data) == 0 || f.Invalid || f.VCLCount == 0 {
		return false
	}
	if f.NALUCounts[NALU_SPS] == 1 && f.NALUCounts[NALU_PPS] == 1 && f.NALUCounts[NALU_IDR] == 1 &&
		f.NALUTotal == 3+f.NALUCounts[NALU_SEI] {
		return true
	}
	if f.NALUCounts[NALU_NONIDR] == 1 && f.NALUTotal == 1 {
		return true
	}
	return false
}

// FramePool owns every Frame of one stream and hands them around as two
// queues: filled (completed access units waiting for the decoder) and
// reusable (spent frames keeping their capacity).
type FramePool struct {
	filled   []*Frame
	reusable []*Frame
	nextSeq  uint64
}

// NewFramePool ...
func NewFramePool() *FramePool {
	return &FramePool{nextSeq: 1}
}

// PullForFill returns a reset frame with the next sequence number.
func (p *FramePool) PullForFill() *Frame {
	var f *Frame
	if n := len(p.reusable); n > 0 {
		f = p.reusable[n-1]
		p.reusable = p.reusable[:n-1]
	} else {
		f = &Frame{}
	}
	f.reset(p.nextSeq)
	p.nextSeq++
	return f
}

// PushFilled appends a completed frame to the filled queue.
func (p *FramePool) PushFilled(f *Frame) {
	f.ArrivedAt = time.Now()
	p.filled = append(p.filled, f)
}

// PullFilled pops the oldest completed frame, nil when empty.
func (p *FramePool) PullFilled() *Frame {
	if len(p.filled) == 0 {
		return nil
	}
	f := p.filled[0]
	copy(p.filled, p.filled[1:])
	p.filled = p.filled[:len(p.filled)-1]
	return f
}

// PeekFilled returns the oldest completed frame without removing it.
func (p *FramePool) PeekFilled() *Frame {
	if len(p.filled) == 0 {
		return nil
	}
	return p.filled[0]
}

// FilledCount ...
func (p *FramePool) FilledCount() int {
	return len(p.filled)
}

// Recycle returns a frame to the reusable queue.
func (p *FramePool) Recycle(f *Frame) {
	if f == nil {
		return
	}
	p.reusable = append(p.reusable, f)
}

// DrainFilled recycles every pending filled frame and returns how many
// were dropped.
func (p *FramePool) DrainFilled() int {
	n := len(p.filled)
	for _, f := range p.filled {
		p.reusable = append(p.reusable, f)
	}
	p.filled = p.filled[:0]
	return n
}
