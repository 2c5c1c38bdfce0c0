package render

import (
	"bytes"
	"testing"

	"github.com/bugVanisher/wallplayer/media/fb"
	"github.com/stretchr/testify/require"
)

type memDevice struct {
	info fb.ScreenInfo
	mem  []byte
}

func (d *memDevice) Fd() int                            { return -1 }
func (d *memDevice) ScreenInfo() (fb.ScreenInfo, error) { return d.info, nil }
func (d *memDevice) Map() ([]byte, error)               { return d.mem, nil }
func (d *memDevice) Unmap(b []byte) error               { return nil }
func (d *memDevice) Close() error                       { return nil }

func newTestFB(t *testing.T, w, h uint32) *fb.Framebuffer {
	info := fb.ScreenInfo{
		Width: w, Height: h, BitsPerPixel: 16, BytesPerLine: w * 2,
		RedOffset: 11, RedLen: 5, GreenOffset: 5, GreenLen: 6, BlueOffset: 0, BlueLen: 5,
		MemLen: w * h * 2,
	}
	f, err := fb.NewFramebuffer(&memDevice{info: info, mem: make([]byte, info.MemLen)}, 0, 0)
	require.Nil(t, err)
	return f
}

func patternPlane(w, h int) fb.PlaneView {
	data := make([]byte, w*h*2)
	for i := range data {
		data[i] = byte(i%251 + 1)
	}
	return fb.PlaneView{Data: data, BytesPerLine: w * 2, Width: w, Height: h}
}

func fullCopyOps(f *fb.Framebuffer, src fb.PlaneView) []Op {
	return []Op{{
		FB: f, FBIndex: 0, Dst: f.Target(),
		Src: src, SrcRect: fb.Rect{W: src.Width, H: src.Height},
	}}
}

func TestExecuteSrcMode(t *testing.T) {
	f := newTestFB(t, 16, 8)
	src := patternPlane(16, 8)

	r := NewRenderer(ModeSrc, 0)
	defer r.Close()
	r.Execute(fullCopyOps(f, src))
	require.True(t, bytes.Equal(src.Data, f.Target()))

	s := r.DrawTime()
	require.Equal(t, int64(1), s.Count)
}

func TestExecuteDstModeMatchesSrcMode(t *testing.T) {
	src := patternPlane(16, 8)

	fa := newTestFB(t, 16, 8)
	ra := NewRenderer(ModeSrc, 0)
	defer ra.Close()
	ra.Execute(fullCopyOps(fa, src))

	fd := newTestFB(t, 16, 8)
	rd := NewRenderer(ModeDst, 0)
	defer rd.Close()
	rd.Execute(fullCopyOps(fd, src))

	require.True(t, bytes.Equal(fa.Target(), fd.Target()))
}

func TestBuildLinePlanOrdersByDestination(t *testing.T) {
	f := newTestFB(t, 16, 8)
	src := patternPlane(8, 4)
	ops := []Op{
		{FB: f, FBIndex: 1, Dst: f.Target(), DstY: 2, Src: src, SrcRect: fb.Rect{W: 8, H: 2}},
		{FB: f, FBIndex: 0, Dst: f.Target(), DstY: 0, Src: src, SrcRect: fb.Rect{W: 8, H: 2}},
	}
	lines := BuildLinePlan(ops)
	require.Equal(t, 4, len(lines))
	require.Equal(t, 0, lines[0].FBIndex)
	require.Equal(t, 0, lines[0].DstY)
	require.Equal(t, 1, lines[0].SrcRect.H)
	require.Equal(t, 1, lines[2].FBIndex)
	require.Equal(t, 2, lines[2].DstY)
	require.Equal(t, 3, lines[3].DstY)
}

func TestExecuteShardsAcrossWorkers(t *testing.T) {
	f := newTestFB(t, 64, 32)
	src := patternPlane(64, 32)

	r := NewRenderer(ModeDst, 3)
	defer r.Close()
	for i := 0; i < 10; i++ {
		r.Execute(fullCopyOps(f, src))
	}
	require.True(t, bytes.Equal(src.Data, f.Target()))
	require.Equal(t, int64(10), r.DrawTime().Count)
}
