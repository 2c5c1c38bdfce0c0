package player

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bugVanisher/wallplayer/media/decoder"
	"github.com/bugVanisher/wallplayer/media/fb"
	"github.com/bugVanisher/wallplayer/media/layout"
	"github.com/bugVanisher/wallplayer/media/stream"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestPollSetDeferredRemoval(t *testing.T) {
	var s pollSet
	s.add(stream.FDDecoder, 1, 7, unix.POLLIN)
	s.add(stream.FDSourceFile, 1, 8, unix.POLLIN)
	s.add(stream.FDSourceSocket, 2, 9, unix.POLLOUT)

	s.remove(8)
	// removed entries stay until compaction but stop polling
	require.Equal(t, 3, len(s.entries))
	fds, idx := s.fds(nil)
	require.Equal(t, 2, len(fds))
	require.Equal(t, int32(7), fds[0].Fd)
	require.Equal(t, int32(9), fds[1].Fd)
	require.Equal(t, 0, idx[0])
	require.Equal(t, 2, idx[1])

	s.compact()
	require.Equal(t, 2, len(s.entries))

	// re-adding a removed fd works
	s.add(stream.FDSourceFile, 1, 8, unix.POLLIN)
	fds, _ = s.fds(nil)
	require.Equal(t, 3, len(fds))
}

func TestPollSetUpdateMask(t *testing.T) {
	var s pollSet
	s.add(stream.FDDecoder, 1, 5, unix.POLLIN)
	s.update(5, unix.POLLIN|unix.POLLOUT)
	fds, _ := s.fds(nil)
	require.Equal(t, unix.POLLIN|unix.POLLOUT, int(fds[0].Events))

	// a zero mask keeps the entry but drops it from the poll call
	s.update(5, 0)
	fds, _ = s.fds(nil)
	require.Equal(t, 0, len(fds))
	require.Equal(t, 1, len(s.entries))
}

func TestIntersect(t *testing.T) {
	x, y, w, h := intersect(0, 0, 100, 50, 60, 20, 100, 100)
	require.Equal(t, []int{60, 20, 40, 30}, []int{x, y, w, h})

	_, _, w, h = intersect(0, 0, 10, 10, 20, 20, 5, 5)
	require.True(t, w <= 0 || h <= 0)
}

func mockDevice(ctrl *gomock.Controller, fd int) *decoder.MockDevice {
	dev := decoder.NewMockDevice(ctrl)
	dev.EXPECT().Fd().Return(fd).AnyTimes()
	dev.EXPECT().EnumFormats(decoder.SideInput).Return([]decoder.PixFmt{decoder.PixFmtH264}, nil).AnyTimes()
	dev.EXPECT().EnumFormats(decoder.SideOutput).Return([]decoder.PixFmt{decoder.PixFmtRGB565}, nil).AnyTimes()
	dev.EXPECT().SetFormat(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	dev.EXPECT().GetFormat(gomock.Any(), gomock.Any()).DoAndReturn(
		func(side decoder.Side, f *decoder.Format) error {
			f.NumPlanes = 1
			f.PlaneSizes = []uint32{1 << 16}
			f.BytesPerLine = []uint32{0}
			return nil
		}).AnyTimes()
	dev.EXPECT().RequestBuffers(gomock.Any(), gomock.Any()).DoAndReturn(
		func(side decoder.Side, count int) (int, error) { return count, nil }).AnyTimes()
	dev.EXPECT().QueryBuffer(gomock.Any(), gomock.Any(), gomock.Any()).Return(
		[]decoder.PlaneInfo{{Length: 1 << 16}}, nil).AnyTimes()
	dev.EXPECT().MapPlane(gomock.Any()).DoAndReturn(
		func(info decoder.PlaneInfo) (*decoder.PlaneMapping, error) {
			return decoder.NewPlaneMapping(make([]byte, info.Length), nil), nil
		}).AnyTimes()
	dev.EXPECT().UnmapPlane(gomock.Any()).Return(nil).AnyTimes()
	dev.EXPECT().SubscribeEvent(gomock.Any()).Return(nil).AnyTimes()
	dev.EXPECT().Dequeue(gomock.Any()).Return(decoder.Dequeued{}, decoder.ErrWouldBlock).AnyTimes()
	dev.EXPECT().StreamOn(gomock.Any()).Return(nil).AnyTimes()
	dev.EXPECT().StreamOff(gomock.Any()).Return(nil).AnyTimes()
	dev.EXPECT().Close().Return(nil).AnyTimes()
	return dev
}

func emptyFile(t *testing.T, name string) string {
	path := filepath.Join(t.TempDir(), name)
	require.Nil(t, os.WriteFile(path, []byte{0, 0, 0, 1, 0x67, 0x64}, 0644))
	return path
}

func TestScheduleDecodersRespectsBudget(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	p := NewPlayer(Config{FramesPerSec: 25, DecodersMax: 1, DecodersToPeekSecs: 2})
	defer p.renderer.Close()

	for i := 1; i <= 3; i++ {
		dev := mockDevice(ctrl, 7+i)
		require.Nil(t, p.AddStream(stream.Config{
			ID:             i,
			SID:            "s",
			URL:            emptyFile(t, "f.h264"),
			IsFile:         true,
			CapturePixFmts: []decoder.PixFmt{decoder.PixFmtRGB565},
			OpenDevice: func(path string) (decoder.Device, error) {
				return dev, nil
			},
		}))
	}

	openCount := func() int {
		n := 0
		for _, s := range p.streams {
			if s.DecoderOpen() {
				n++
			}
		}
		return n
	}

	for tick := 0; tick < 20; tick++ {
		p.scheduleDecoders()
		for _, s := range p.streams {
			s.Tick(40)
		}
		require.True(t, openCount() <= 1)
	}

	// the round-robin grant went to exactly one stream
	peeks := 0
	for _, s := range p.streams {
		if s.PeekActive() || s.DecoderOpen() {
			peeks++
		}
	}
	require.Equal(t, 1, peeks)
}

func TestScheduleDecodersActiveHandoffKeepsBudget(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	p := NewPlayer(Config{FramesPerSec: 25, DecodersMax: 1, DecodersToPeekSecs: 2})
	defer p.renderer.Close()

	g := layout.NewGroup(decoder.PixFmtRGB565, 10000, 1000)
	g.Bounds = fb.Rect{W: 640, H: 480}
	p.AddGroup(g)

	for i := 1; i <= 2; i++ {
		dev := mockDevice(ctrl, 7+i)
		require.Nil(t, p.AddStream(stream.Config{
			ID:             i,
			SID:            "s",
			URL:            emptyFile(t, "f.h264"),
			IsFile:         true,
			CapturePixFmts: []decoder.PixFmt{decoder.PixFmtRGB565},
			OpenDevice: func(path string) (decoder.Device, error) {
				return dev, nil
			},
		}))
	}

	openCount := func() int {
		n := 0
		for _, s := range p.streams {
			if s.DecoderOpen() {
				n++
			}
		}
		return n
	}

	// stream 1 is on screen; its decoder opens
	g.SetStreamSize(1, 640, 480)
	p.scheduleDecoders()
	for _, s := range p.streams {
		s.Tick(40)
	}
	require.True(t, p.streams[0].DecoderOpen())

	// the wall switches to stream 2; stream 1 drains toward close and
	// holds the only slot until its device is actually released
	g.RemoveStream(1)
	g.SetStreamSize(2, 640, 480)
	for i := 0; i < 40; i++ {
		p.scheduleDecoders()
		for _, s := range p.streams {
			s.Tick(40)
		}
		require.True(t, openCount() <= 1)
	}
	require.False(t, p.streams[0].DecoderOpen())
	require.True(t, p.streams[1].DecoderOpen())
}

func TestScheduleDecodersRoundRobinAdvances(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	p := NewPlayer(Config{FramesPerSec: 25, DecodersMax: 2, DecodersToPeekSecs: 1})
	defer p.renderer.Close()

	for i := 1; i <= 4; i++ {
		dev := mockDevice(ctrl, 7+i)
		require.Nil(t, p.AddStream(stream.Config{
			ID:             i,
			SID:            "s",
			URL:            emptyFile(t, "f.h264"),
			IsFile:         true,
			CapturePixFmts: []decoder.PixFmt{decoder.PixFmtRGB565},
			OpenDevice: func(path string) (decoder.Device, error) {
				return dev, nil
			},
		}))
	}

	p.scheduleDecoders()
	require.Equal(t, 1, p.rrCursor)
	p.scheduleDecoders()
	// the first stream keeps its peek, the second gets the new grant and
	// the cursor moves past it
	require.Equal(t, 2, p.rrCursor)
}
