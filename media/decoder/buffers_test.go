package decoder

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func TestTimestampRoundTrip(t *testing.T) {
	for _, seq := range []uint64{0, 1, 999, 1000, 123456789, uint64(1)<<32 - 1} {
		ts := TimestampFromSeq(seq)
		require.Equal(t, seq, ts.Seq())
	}
	ts := TimestampFromSeq(54321)
	require.Equal(t, int64(54), ts.Sec)
	require.Equal(t, int64(321), ts.Usec)
}

func TestBuffersQueryFormats(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dev := NewMockDevice(ctrl)
	dev.EXPECT().EnumFormats(SideOutput).Return([]PixFmt{PixFmtNV12, PixFmtRGB565}, nil).Times(2)

	b := NewBuffers(dev, SideOutput, "s1")
	ok, err := b.QueryFormats(PixFmtRGB565)
	require.Nil(t, err)
	require.True(t, ok)

	ok, err = b.QueryFormats(PixFmtBGRA32)
	require.Nil(t, err)
	require.False(t, ok)
}

func TestBuffersAllocUnderGrant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dev := NewMockDevice(ctrl)
	dev.EXPECT().RequestBuffers(SideInput, 4).Return(3, nil)

	b := NewBuffers(dev, SideInput, "s1")
	require.Nil(t, b.Alloc(4))
	require.Equal(t, 3, b.Len())

	dev.EXPECT().RequestBuffers(SideInput, 2).Return(0, nil)
	require.NotNil(t, b.Alloc(2))
}

func TestBuffersMmapAndQueue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dev := NewMockDevice(ctrl)
	dev.EXPECT().RequestBuffers(SideInput, 2).Return(2, nil)

	b := NewBuffers(dev, SideInput, "s1")
	b.Format = Format{PixFmt: PixFmtH264, NumPlanes: 1, PlaneSizes: []uint32{16}, BytesPerLine: []uint32{0}}
	require.Nil(t, b.Alloc(2))

	for i := 0; i < 2; i++ {
		dev.EXPECT().QueryBuffer(SideInput, i, 1).Return([]PlaneInfo{{Length: 16}}, nil)
		dev.EXPECT().MapPlane(PlaneInfo{Length: 16}).Return(NewPlaneMapping(make([]byte, 16), nil), nil)
	}
	require.Nil(t, b.Mmap())

	dev.EXPECT().Enqueue(SideInput, 0, []uint32{0}, Timestamp{}).Return(nil)
	dev.EXPECT().Enqueue(SideInput, 1, []uint32{0}, Timestamp{}).Return(nil)
	require.Nil(t, b.EnqueueMinimum(2))
	require.Equal(t, 2, b.QueuedCount())
	require.Nil(t, b.Unqueued())

	dev.EXPECT().Dequeue(SideInput).Return(Dequeued{Index: 0, BytesUsed: []uint32{8}, Timestamp: TimestampFromSeq(7)}, nil)
	buf, ts, err := b.Dequeue()
	require.Nil(t, err)
	require.Equal(t, 0, buf.Index)
	require.Equal(t, uint64(7), ts.Seq())
	require.Equal(t, uint32(8), buf.Planes[0].BytesUsed)
	require.Equal(t, 1, b.QueuedCount())
	require.Equal(t, buf, b.Last())
	require.Equal(t, buf, b.Unqueued())
}

func TestBuffersKeepLastAsClone(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dev := NewMockDevice(ctrl)
	b := NewBuffers(dev, SideOutput, "s1")

	src := &Buffer{Index: 1, Planes: []Plane{{
		Data:         []byte{1, 2, 3, 4},
		Length:       4,
		BytesPerLine: 4,
		BytesUsed:    4,
	}}}
	c := b.KeepLastAsClone(src)
	require.Equal(t, -1, c.Index)
	require.Equal(t, src.Planes[0].Data, c.Planes[0].Data)

	// the clone must not alias device memory
	src.Planes[0].Data[0] = 9
	require.Equal(t, byte(1), c.Planes[0].Data[0])

	// and is reused on the next call
	c2 := b.KeepLastAsClone(src)
	require.Equal(t, c, c2)
	require.Equal(t, byte(9), c2.Planes[0].Data[0])
}

func TestBuffersStopReturnsAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dev := NewMockDevice(ctrl)
	dev.EXPECT().RequestBuffers(SideOutput, 2).Return(2, nil)

	b := NewBuffers(dev, SideOutput, "s1")
	b.Format = Format{NumPlanes: 1}
	require.Nil(t, b.Alloc(2))

	dev.EXPECT().Enqueue(SideOutput, 0, gomock.Any(), Timestamp{}).Return(nil)
	dev.EXPECT().Enqueue(SideOutput, 1, gomock.Any(), Timestamp{}).Return(nil)
	require.Nil(t, b.EnqueueMinimum(2))

	dev.EXPECT().StreamOn(SideOutput).Return(nil)
	require.Nil(t, b.Start())
	require.True(t, b.Streaming())

	dev.EXPECT().StreamOff(SideOutput).Return(nil)
	require.Nil(t, b.Stop())
	require.False(t, b.Streaming())
	require.Equal(t, 0, b.QueuedCount())
	require.NotNil(t, b.Unqueued())
}
