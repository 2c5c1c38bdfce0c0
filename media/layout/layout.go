// Package layout arranges streams onto groups of framebuffers sharing a
// pixel format and animates a vertical scroll across the rows.
package layout

import (
	"sort"

	"github.com/bugVanisher/wallplayer/media/decoder"
	"github.com/bugVanisher/wallplayer/media/fb"
	"github.com/rs/zerolog/log"
)

// Location places a framebuffer relative to the group built so far.
type Location int

const (
	LocFree Location = iota
	LocLeft
	LocRight
	LocTop
	LocBottom
)

// Rect is a rectangle assigned to a stream inside a row; StreamID 0
// marks a filler rect drawn black.
type Rect struct {
	StreamID int
	X, Y     int
	W, H     int
}

// Row is one horizontal band of the layout.
type Row struct {
	YTop   int
	Width  int
	Height int
	Rects  []Rect
}

type streamSize struct {
	id   int
	w, h int
}

// Group owns the framebuffers of one pixel format, the streams rendered
// onto them, the row layout and the scroll cursor.
type Group struct {
	PixFmt decoder.PixFmt
	Closed bool

	FBs    []*fb.Framebuffer
	Bounds fb.Rect

	streams []streamSize
	rows    []Row
	height  int // sum of row heights

	iRowFirst int
	yOffset   int
	msWait    int

	animWaitMs      int
	animPreRenderMs int
}

// NewGroup ...
func NewGroup(pixFmt decoder.PixFmt, animWaitMs, animPreRenderMs int) *Group {
	return &Group{
		PixFmt:          pixFmt,
		animWaitMs:      animWaitMs,
		animPreRenderMs: animPreRenderMs,
		msWait:          animWaitMs,
	}
}

// AddFramebuffer docks f onto the group and grows the aggregate bounds.
// Free placement uses (x, y) as the relative origin.
func (g *Group) AddFramebuffer(f *fb.Framebuffer, loc Location, x, y int) {
	w := int(f.Info.Width)
	h := int(f.Info.Height)
	switch loc {
	case LocFree:
		f.X, f.Y = x, y
	case LocLeft:
		f.X, f.Y = g.Bounds.X-w, g.Bounds.Y
	case LocRight:
		f.X, f.Y = g.Bounds.X+g.Bounds.W, g.Bounds.Y
	case LocTop:
		f.X, f.Y = g.Bounds.X, g.Bounds.Y-h
	case LocBottom:
		f.X, f.Y = g.Bounds.X, g.Bounds.Y+g.Bounds.H
	}
	if len(g.FBs) == 0 {
		g.Bounds = fb.Rect{X: f.X, Y: f.Y, W: w, H: h}
	} else {
		g.Bounds = union(g.Bounds, fb.Rect{X: f.X, Y: f.Y, W: w, H: h})
	}
	g.FBs = append(g.FBs, f)
}

func union(a, b fb.Rect) fb.Rect {
	x1 := a.X
	if b.X < x1 {
		x1 = b.X
	}
	y1 := a.Y
	if b.Y < y1 {
		y1 = b.Y
	}
	x2 := a.X + a.W
	if b.X+b.W > x2 {
		x2 = b.X + b.W
	}
	y2 := a.Y + a.H
	if b.Y+b.H > y2 {
		y2 = b.Y + b.H
	}
	return fb.Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// SetStreamSize registers or updates a stream's composition size and
// rebuilds the rows.
func (g *Group) SetStreamSize(id, w, h int) {
	for i := range g.streams {
		if g.streams[i].id == id {
			if g.streams[i].w == w && g.streams[i].h == h {
				return
			}
			g.streams[i].w, g.streams[i].h = w, h
			g.Reorganize()
			return
		}
	}
	g.streams = append(g.streams, streamSize{id: id, w: w, h: h})
	g.Reorganize()
}

// RemoveStream drops a stream from the layout.
func (g *Group) RemoveStream(id int) {
	for i := range g.streams {
		if g.streams[i].id == id {
			g.streams = append(g.streams[:i], g.streams[i+1:]...)
			g.Reorganize()
			return
		}
	}
}

// HasStream ...
func (g *Group) HasStream(id int) bool {
	for i := range g.streams {
		if g.streams[i].id == id {
			return true
		}
	}
	return false
}

// Rows returns the built rows.
func (g *Group) Rows() []Row {
	return g.rows
}

// Height is the summed row height.
func (g *Group) Height() int {
	return g.height
}

// Reorganize rebuilds the rows with the deterministic greedy packing:
// streams in id order, left to right, a new row when the next stream
// would overflow the group width, gaps filled with zero-id rects.
func (g *Group) Reorganize() {
	g.layoutStart()
	items := make([]streamSize, len(g.streams))
	copy(items, g.streams)
	sort.Slice(items, func(i, j int) bool { return items[i].id < items[j].id })
	for _, it := range items {
		g.layoutAdd(it.id, it.w, it.h)
	}
	g.layoutEnd()
	log.Debug().Int("rows", len(g.rows)).Int("height", g.height).
		Str("pixfmt", g.PixFmt.String()).Msg("layout reorganized")
}

func (g *Group) layoutStart() {
	g.rows = nil
	g.height = 0
}

func (g *Group) layoutAdd(id, w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	if w > g.Bounds.W {
		w = g.Bounds.W
	}
	n := len(g.rows)
	if n == 0 || rowUsed(&g.rows[n-1])+w > g.Bounds.W {
		g.closeRow()
		g.rows = append(g.rows, Row{Width: g.Bounds.W})
		n = len(g.rows)
	}
	row := &g.rows[n-1]
	row.Rects = append(row.Rects, Rect{StreamID: id, X: rowUsed(row), W: w, H: h})
	if h > row.Height {
		row.Height = h
	}
}

func (g *Group) layoutEnd() {
	g.closeRow()
	y := 0
	for i := range g.rows {
		g.rows[i].YTop = y
		y += g.rows[i].Height
	}
	g.height = y
	if g.iRowFirst >= len(g.rows) {
		g.iRowFirst = 0
		g.yOffset = 0
	}
}

// closeRow fills the trailing gap of the last open row with a filler
// rect so the row tiles the group width.
func (g *Group) closeRow() {
	if len(g.rows) == 0 {
		return
	}
	row := &g.rows[len(g.rows)-1]
	if used := rowUsed(row); used < row.Width {
		row.Rects = append(row.Rects, Rect{StreamID: 0, X: used, W: row.Width - used, H: row.Height})
	}
}

func rowUsed(r *Row) int {
	n := 0
	for i := range r.Rects {
		n += r.Rects[i].W
	}
	return n
}

// Tick advances the scroll cursor. During the wait the layout is static;
// afterwards yOffset moves toward the next row top, then the cursor
// advances and the wait rearms.
func (g *Group) Tick(ms int) {
	if len(g.rows) <= 1 || g.height <= 0 {
		return
	}
	if g.msWait > 0 {
		g.msWait -= ms
		return
	}
	step := g.height * ms / 1000
	if step < 1 {
		step = 1
	}
	g.yOffset -= step
	if -g.yOffset >= g.rows[g.iRowFirst].Height {
		g.iRowFirst = (g.iRowFirst + 1) % len(g.rows)
		g.yOffset = 0
		g.msWait = g.animWaitMs
	}
}

// Placed is a rect positioned in group space for one tick.
type Placed struct {
	StreamID int
	X, Y     int
	W, H     int
}

// VisibleRects walks rows from the cursor, modular over the layout
// height, until the group height is covered.
func (g *Group) VisibleRects() []Placed {
	return g.visibleFrom(g.iRowFirst, g.yOffset)
}

func (g *Group) visibleFrom(first, yOffset int) []Placed {
	if len(g.rows) == 0 || g.height <= 0 {
		return nil
	}
	var out []Placed
	y := g.Bounds.Y + yOffset
	for i := 0; y < g.Bounds.Y+g.Bounds.H; i++ {
		row := &g.rows[(first+i)%len(g.rows)]
		for _, r := range row.Rects {
			out = append(out, Placed{
				StreamID: r.StreamID,
				X:        g.Bounds.X + r.X,
				Y:        y,
				W:        r.W,
				H:        r.H,
			})
		}
		y += row.Height
	}
	return out
}

// PreRenderRects reports the rects active after the pending animation
// when the wait is about to end; the player uses it to open decoders for
// streams about to appear. Nil outside the pre-render window.
func (g *Group) PreRenderRects() []Placed {
	if len(g.rows) <= 1 {
		return nil
	}
	if g.msWait <= 0 || g.msWait > g.animPreRenderMs {
		return nil
	}
	return g.visibleFrom((g.iRowFirst+1)%len(g.rows), 0)
}
