package h264

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func nalu(typ int, payload ...byte) []byte {
	var refIdc byte
	switch typ {
	case NALU_NONIDR, NALU_IDR, NALU_SPS, NALU_PPS:
		refIdc = 3
	}
	b := append([]byte{0, 0, 0, 1}, byte(typ)|refIdc<<5)
	return append(b, payload...)
}

func idrAccessUnit() []byte {
	var b []byte
	b = append(b, nalu(NALU_SPS, 0x64, 0x00, 0x0a)...)
	b = append(b, nalu(NALU_PPS, 0xe8, 0x43)...)
	b = append(b, nalu(NALU_IDR, 0x88, 0x81, 0x00)...)
	return b
}

func TestParserStartCodeCount(t *testing.T) {
	pool := NewFramePool()
	p := NewParser("test", pool, false)

	var b []byte
	b = append(b, nalu(NALU_SPS, 1, 2, 3)...)
	b = append(b, nalu(NALU_PPS, 4)...)
	// a payload zero ahead of the prefix must not start a second NAL
	b = append(b, 0)
	b = append(b, nalu(NALU_IDR, 5, 6)...)
	b = append(b, nalu(NALU_NONIDR, 7)...)
	p.Ingest(b)

	require.Equal(t, uint64(4), p.Stats().NALsStarted)
	require.Equal(t, uint64(3), p.Stats().NALsCompleted)
}

func TestParserSplitIngest(t *testing.T) {
	pool := NewFramePool()
	p := NewParser("test", pool, false)

	b := idrAccessUnit()
	b = append(b, nalu(NALU_NONIDR, 0x9a, 0x21)...)
	b = append(b, nalu(NALU_AUD, 0xf0)...)

	// feed one byte at a time across call boundaries
	emitted := 0
	for i := range b {
		emitted += p.Ingest(b[i : i+1])
	}
	require.Equal(t, 2, emitted)
	require.Equal(t, uint64(2), p.Stats().FramesQueued)
}

func TestParserAcceptedShapes(t *testing.T) {
	pool := NewFramePool()
	p := NewParser("test", pool, false)

	var b []byte
	b = append(b, idrAccessUnit()...)
	b = append(b, nalu(NALU_NONIDR, 0x9a)...)
	b = append(b, nalu(NALU_NONIDR, 0x9b)...)
	b = append(b, nalu(NALU_AUD, 0xf0)...)
	p.Ingest(b)

	require.Equal(t, uint64(3), p.Stats().FramesQueued)
	require.Equal(t, uint64(1), p.Stats().FramesIDR)

	f1 := pool.PullFilled()
	require.NotNil(t, f1)
	require.True(t, f1.Independent)
	require.Equal(t, 1, f1.NALUCounts[NALU_SPS])
	require.Equal(t, 1, f1.NALUCounts[NALU_PPS])
	require.Equal(t, 1, f1.NALUCounts[NALU_IDR])

	f2 := pool.PullFilled()
	require.NotNil(t, f2)
	require.False(t, f2.Independent)
	require.True(t, f2.Seq > f1.Seq)

	f3 := pool.PullFilled()
	require.NotNil(t, f3)
	require.True(t, f3.Seq > f2.Seq)
	require.Nil(t, pool.PullFilled())
}

func TestParserSEIKeptWithIDR(t *testing.T) {
	pool := NewFramePool()
	p := NewParser("test", pool, false)

	var b []byte
	b = append(b, nalu(NALU_SEI, 0x05, 0x08)...)
	b = append(b, idrAccessUnit()...)
	b = append(b, nalu(NALU_AUD, 0xf0)...)
	p.Ingest(b)

	require.Equal(t, uint64(1), p.Stats().FramesQueued)
	f := pool.PullFilled()
	require.NotNil(t, f)
	require.Equal(t, 1, f.NALUCounts[NALU_SEI])
	require.Equal(t, 4, f.NALUTotal)
}

func TestParserRejectsIncompleteHeaderSet(t *testing.T) {
	pool := NewFramePool()
	p := NewParser("test", pool, false)

	// SPS+PPS without an IDR never passes the filter
	var b []byte
	b = append(b, nalu(NALU_SPS, 1)...)
	b = append(b, nalu(NALU_PPS, 2)...)
	b = append(b, nalu(NALU_NONIDR, 3)...)
	b = append(b, nalu(NALU_AUD, 0xf0)...)
	p.Ingest(b)

	require.Equal(t, uint64(0), p.Stats().FramesQueued)
	require.Equal(t, uint64(1), p.Stats().FramesIgnored)
}

func TestParserInvalidSPSExt(t *testing.T) {
	pool := NewFramePool()
	p := NewParser("test", pool, false)

	// type 13 not immediately after an SPS invalidates the frame
	var b []byte
	b = append(b, nalu(NALU_SPSEXT, 1)...)
	b = append(b, idrAccessUnit()...)
	b = append(b, nalu(NALU_AUD, 0xf0)...)
	p.Ingest(b)

	require.Equal(t, uint64(0), p.Stats().FramesQueued)
	require.Equal(t, uint64(1), p.Stats().FramesIgnored)
}

func TestParserEndOfSequenceClosesAfter(t *testing.T) {
	pool := NewFramePool()
	p := NewParser("test", pool, false)

	var b []byte
	b = append(b, nalu(NALU_NONIDR, 0x9a)...)
	b = append(b, nalu(NALU_EOSEQ)...)
	b = append(b, nalu(NALU_NONIDR, 0x9b)...)
	b = append(b, nalu(NALU_AUD, 0xf0)...)
	p.Ingest(b)

	// the end-of-sequence NAL stays in the frame it ends, which makes
	// that frame unacceptable; the following slice still emits alone
	require.Equal(t, uint64(1), p.Stats().FramesQueued)
	require.Equal(t, uint64(1), p.Stats().FramesIgnored)
	f := pool.PullFilled()
	require.NotNil(t, f)
	require.Equal(t, 1, f.NALUCounts[NALU_NONIDR])
}

func TestParserDrainOnIndependent(t *testing.T) {
	pool := NewFramePool()
	p := NewParser("test", pool, true)

	var b []byte
	b = append(b, nalu(NALU_NONIDR, 0x9a)...)
	b = append(b, nalu(NALU_NONIDR, 0x9b)...)
	b = append(b, idrAccessUnit()...)
	b = append(b, nalu(NALU_AUD, 0xf0)...)
	p.Ingest(b)

	require.Equal(t, uint64(2), p.Stats().FramesDrained)
	f := pool.PullFilled()
	require.NotNil(t, f)
	require.True(t, f.Independent)
	require.Nil(t, pool.PullFilled())
}

func TestParserResetDiscardsFilling(t *testing.T) {
	pool := NewFramePool()
	p := NewParser("test", pool, false)

	p.Ingest(nalu(NALU_NONIDR, 0x9a, 0x9b))
	p.Reset()
	p.Ingest(nalu(NALU_NONIDR, 0x9c))
	p.Ingest(nalu(NALU_AUD, 0xf0))

	require.Equal(t, uint64(1), p.Stats().FramesQueued)
	f := pool.PullFilled()
	require.NotNil(t, f)
	// only the post-reset slice made it out
	require.Equal(t, append([]byte{0, 0, 0, 1, 0x61}, 0x9c), f.Data)
}
