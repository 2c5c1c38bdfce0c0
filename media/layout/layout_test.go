package layout

import (
	"testing"

	"github.com/bugVanisher/wallplayer/media/decoder"
	"github.com/bugVanisher/wallplayer/media/fb"
	"github.com/stretchr/testify/require"
)

func testGroup(w, h int) *Group {
	g := NewGroup(decoder.PixFmtRGB565, 3000, 1000)
	g.Bounds = fb.Rect{X: 0, Y: 0, W: w, H: h}
	return g
}

func TestLayoutRowsTileGroupWidth(t *testing.T) {
	g := testGroup(1000, 600)
	g.SetStreamSize(1, 400, 300)
	g.SetStreamSize(2, 400, 300)
	g.SetStreamSize(3, 400, 300)

	rows := g.Rows()
	require.Equal(t, 2, len(rows))
	for _, row := range rows {
		total := 0
		for _, r := range row.Rects {
			total += r.W
		}
		require.Equal(t, 1000, total)
	}
	// first row: streams 1 and 2 plus a 200 wide filler
	require.Equal(t, 3, len(rows[0].Rects))
	require.Equal(t, 0, rows[0].Rects[2].StreamID)
	require.Equal(t, 200, rows[0].Rects[2].W)
	// x ordering inside a row
	for _, row := range rows {
		for i := 1; i < len(row.Rects); i++ {
			require.True(t, row.Rects[i-1].X <= row.Rects[i].X)
		}
	}
	require.Equal(t, 600, g.Height())
}

func TestLayoutDeterministic(t *testing.T) {
	g := testGroup(800, 480)
	g.SetStreamSize(3, 300, 200)
	g.SetStreamSize(1, 640, 480)
	g.SetStreamSize(2, 300, 200)

	first := append([]Row(nil), g.Rows()...)
	g.Reorganize()
	require.Equal(t, first, g.Rows())
}

func TestLayoutResizeGrowsRect(t *testing.T) {
	g := testGroup(1400, 800)
	g.SetStreamSize(1, 640, 480)
	g.SetStreamSize(2, 640, 480)
	require.Equal(t, 1, len(g.Rows()))

	g.SetStreamSize(1, 1280, 720)
	rows := g.Rows()
	require.Equal(t, 2, len(rows))
	require.Equal(t, 1280, rows[0].Rects[0].W)
	require.Equal(t, 720, rows[0].Height)
}

func TestAnimationAdvancesRows(t *testing.T) {
	g := NewGroup(decoder.PixFmtRGB565, 100, 50)
	g.Bounds = fb.Rect{W: 400, H: 300}
	g.SetStreamSize(1, 400, 300)
	g.SetStreamSize(2, 400, 300)

	// static during the wait
	g.Tick(40)
	require.Equal(t, 0, g.iRowFirst)
	require.Equal(t, 0, g.yOffset)

	// wait expires, scroll begins
	g.Tick(60)
	require.Equal(t, 0, g.msWait)
	g.Tick(40)
	require.True(t, g.yOffset < 0)

	// run until the next row arrives
	for i := 0; i < 100 && g.iRowFirst == 0; i++ {
		g.Tick(40)
	}
	require.Equal(t, 1, g.iRowFirst)
	require.Equal(t, 0, g.yOffset)
	require.Equal(t, 100, g.msWait)
}

func TestPreRenderWindow(t *testing.T) {
	g := NewGroup(decoder.PixFmtRGB565, 1000, 200)
	g.Bounds = fb.Rect{W: 400, H: 300}
	g.SetStreamSize(1, 400, 300)
	g.SetStreamSize(2, 400, 300)

	require.Nil(t, g.PreRenderRects())
	g.Tick(850)
	// 150ms of wait left, inside the 200ms window: next row reported
	pre := g.PreRenderRects()
	require.NotNil(t, pre)
	require.Equal(t, 2, pre[0].StreamID)

	vis := g.VisibleRects()
	require.Equal(t, 1, vis[0].StreamID)
}

func TestDockedFramebufferBounds(t *testing.T) {
	g := NewGroup(decoder.PixFmtRGB565, 1000, 200)
	a := &fb.Framebuffer{Info: fb.ScreenInfo{Width: 640, Height: 480}}
	b := &fb.Framebuffer{Info: fb.ScreenInfo{Width: 640, Height: 480}}
	g.AddFramebuffer(a, LocFree, 0, 0)
	g.AddFramebuffer(b, LocRight, 0, 0)

	require.Equal(t, 640, b.X)
	require.Equal(t, fb.Rect{X: 0, Y: 0, W: 1280, H: 480}, g.Bounds)
}
