package h264

import (
	"github.com/rs/zerolog/log"
)

// Stats are cumulative parser counters, snapshotted by value.
type Stats struct {
	NALsStarted   uint64 `json:"nals_started"`
	NALsCompleted uint64 `json:"nals_completed"`
	FramesQueued  uint64 `json:"frames_queued"`
	FramesIDR     uint64 `json:"frames_idr"`
	FramesIgnored uint64 `json:"frames_ignored"`
	FramesDrained uint64 `json:"frames_drained"`
}

// Parser consumes an Annex-B byte stream and emits access-unit frames
// into its pool's filled queue. Only the canonical 4-byte start code
// 00 00 00 01 opens a NAL; a bare 3-byte prefix is treated as payload.
type Parser struct {
	pool  *FramePool
	sid   string
	drain bool // drop pending filled frames when an IDR frame arrives

	pendingZeros  int
	awaitingType  bool
	inNAL         bool
	curType       int
	prevType      int
	nalBytes      int
	closeAfterNAL bool
	filling       *Frame

	stats Stats
}

// NewParser creates a parser feeding pool. drainOnIndependent enables the
// resync behavior of network sources: when an IDR frame completes, older
// pending frames are dropped instead of being fed stale after a reconnect.
func NewParser(sid string, pool *FramePool, drainOnIndependent bool) *Parser {
	return &Parser{
		pool:     pool,
		sid:      sid,
		drain:    drainOnIndependent,
		prevType: -1,
	}
}

// Stats returns a snapshot of the counters.
func (p *Parser) Stats() Stats {
	return p.stats
}

// Ingest scans b and returns how many frames were emitted to the filled
// queue during this call.
func (p *Parser) Ingest(b []byte) int {
	emitted := 0
	for _, c := range b {
		if p.awaitingType {
			p.awaitingType = false
			emitted += p.openNALU(NALUType(c), c)
			continue
		}
		if c == 0 {
			p.pendingZeros++
			continue
		}
		if p.pendingZeros >= 3 && c == 1 {
			// start code; zeros beyond the prefix belong to the payload
			if p.inNAL && p.pendingZeros > 3 {
				p.flushZeros(p.pendingZeros - 3)
			}
			p.pendingZeros = 0
			emitted += p.completeNALU()
			p.awaitingType = true
			p.stats.NALsStarted++
			continue
		}
		if p.inNAL {
			p.flushZeros(p.pendingZeros)
			p.pendingZeros = 0
			p.filling.Data = append(p.filling.Data, c)
			p.nalBytes++
		} else {
			p.pendingZeros = 0
		}
	}
	return emitted
}

// Reset clears the scan state and discards the in-progress frame. Called
// after a source error or disconnect.
func (p *Parser) Reset() {
	if p.filling != nil {
		p.pool.Recycle(p.filling)
		p.filling = nil
	}
	p.pendingZeros = 0
	p.awaitingType = false
	p.inNAL = false
	p.curType = 0
	p.prevType = -1
	p.nalBytes = 0
	p.closeAfterNAL = false
}

func (p *Parser) flushZeros(n int) {
	for i := 0; i < n; i++ {
		p.filling.Data = append(p.filling.Data, 0)
	}
	p.nalBytes += n
}

// completeNALU closes the NAL being copied, if any. The frame closes here
// too when the finished NAL was an end-of-sequence.
func (p *Parser) completeNALU() int {
	if !p.inNAL {
		return 0
	}
	p.inNAL = false
	p.stats.NALsCompleted++
	p.prevType = p.curType
	if p.closeAfterNAL {
		p.closeAfterNAL = false
		return p.closeFrame()
	}
	return 0
}

func (p *Parser) openNALU(typ int, header byte) int {
	emitted := 0
	if p.filling != nil {
		if typ == NALU_AUD && len(p.filling.Data) > 0 {
			emitted += p.closeFrame()
		} else if opensAccessUnit(typ) && p.filling.VCLCount >= 1 {
			emitted += p.closeFrame()
		}
	}
	if p.filling == nil {
		p.filling = p.pool.PullForFill()
	}

	switch {
	case typ == NALU_SPSEXT && p.prevType != NALU_SPS:
		p.filling.Invalid = true
	case typ == NALU_AUXPIC && p.filling.VCLCount == 0:
		p.filling.Invalid = true
	case (typ == 0 || typ == NALU_FILLER || typ >= 20) && p.filling.VCLCount == 0:
		p.filling.Invalid = true
	}
	if typ == NALU_EOSEQ {
		p.closeAfterNAL = true
	}

	p.filling.Data = append(p.filling.Data, StartCode...)
	p.filling.Data = append(p.filling.Data, header)
	p.filling.addNALU(typ)
	p.nalBytes = len(StartCode) + 1
	p.curType = typ
	p.inNAL = true
	return emitted
}

func (p *Parser) closeFrame() int {
	f := p.filling
	p.filling = nil
	if f == nil || len(f.Data) == 0 {
		p.pool.Recycle(f)
		return 0
	}
	if !f.acceptable() {
		p.pool.Recycle(f)
		p.stats.FramesIgnored++
		return 0
	}
	if f.Independent {
		p.stats.FramesIDR++
		if p.drain {
			if n := p.pool.DrainFilled(); n > 0 {
				p.stats.FramesDrained += uint64(n)
				log.Debug().Str("sid", p.sid).Int("drained", n).Msg("dropped stale frames before independent frame")
			}
		}
	}
	p.pool.PushFilled(f)
	p.stats.FramesQueued++
	return 1
}
