// Package player runs the process-wide conductor: the poll loop, the
// tick cadence, the decoder open budget and the shutdown orchestration.
package player

import (
	"sync/atomic"
	"time"

	"github.com/bugVanisher/wallplayer/media/decoder"
	"github.com/bugVanisher/wallplayer/media/fb"
	"github.com/bugVanisher/wallplayer/media/layout"
	"github.com/bugVanisher/wallplayer/media/render"
	"github.com/bugVanisher/wallplayer/media/stream"
	"github.com/bugVanisher/wallplayer/statistics"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

const pollTimeoutMs = 40

// Config ...
type Config struct {
	FramesPerSec       int
	ExtraThreads       int
	DecodersMax        int
	DecodersToPeekSecs int
	DrawMode           render.Mode
	// SecsRun stops the player after this many seconds; 0 runs forever.
	SecsRun int
}

// Player owns the streams, framebuffer groups, the poll set and the
// renderer. Everything but the draw workers runs on the goroutine that
// calls Run.
type Player struct {
	cfg Config

	streams []*stream.Context
	groups  []*layout.Group

	poll     pollSet
	pollBuf  []unix.PollFd
	renderer *render.Renderer

	rrCursor  int
	stopFlag  int32
	stopping  bool
	tickCount uint64
	fps       *statistics.FPS

	msSinceStat int
	msRunTotal  int
	lastPrinted string
	suppressed  int
}

// NewPlayer ...
func NewPlayer(cfg Config) *Player {
	if cfg.FramesPerSec <= 0 {
		cfg.FramesPerSec = 25
	}
	if cfg.DecodersMax <= 0 {
		cfg.DecodersMax = 1
	}
	return &Player{
		cfg:      cfg,
		renderer: render.NewRenderer(cfg.DrawMode, cfg.ExtraThreads),
		fps:      statistics.NewFPS(),
	}
}

// AddGroup registers a framebuffer group.
func (p *Player) AddGroup(g *layout.Group) {
	p.groups = append(p.groups, g)
}

// AddStream builds a stream context wired to this player.
func (p *Player) AddStream(cfg stream.Config) error {
	cfg.OnCompositionSize = p.onCompositionSize
	c, err := stream.NewContext(cfg, p)
	if err != nil {
		return err
	}
	p.streams = append(p.streams, c)
	return nil
}

// Stop asks the player to shut every stream down and exit. Safe from a
// signal handler goroutine.
func (p *Player) Stop() {
	atomic.StoreInt32(&p.stopFlag, 1)
}

func (p *Player) streamByID(id int) *stream.Context {
	for _, s := range p.streams {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

// onCompositionSize places a stream into its pixel-format group when its
// visible size is learned or changes.
func (p *Player) onCompositionSize(id int, pixFmt decoder.PixFmt, w, h int) {
	for _, g := range p.groups {
		if g.PixFmt == pixFmt {
			g.SetStreamSize(id, w, h)
			return
		}
	}
	log.Warn().Int("stream", id).Str("pixfmt", pixFmt.String()).Msg("no group for pixel format")
}

// Run drives the main loop until every stream is terminal. The exit is
// clean only when all streams report permanently-shutdown-complete.
func (p *Player) Run() error {
	defer p.renderer.Close()

	tickMs := 1000 / p.cfg.FramesPerSec
	lastTick := time.Now()

	for {
		p.poll.compact()

		if atomic.LoadInt32(&p.stopFlag) != 0 && !p.stopping {
			log.Info().Msg("stop requested, shutting streams down")
			p.shutdownAll()
		}

		fds, idx := p.poll.fds(p.pollBuf)
		p.pollBuf = fds
		if len(fds) == 0 {
			time.Sleep(time.Duration(tickMs/4+1) * time.Millisecond)
		} else {
			n, err := unix.Poll(fds, pollTimeoutMs)
			if err != nil && err != unix.EINTR {
				log.Error().Err(err).Msg("poll failed")
				return err
			}
			if n > 0 {
				p.dispatch(fds, idx)
			}
		}

		now := time.Now()
		elapsed := int(now.Sub(lastTick).Milliseconds())
		if elapsed >= tickMs {
			lastTick = now
			p.tick(elapsed)
			if p.done() {
				return nil
			}
		}
	}
}

func (p *Player) dispatch(fds []unix.PollFd, idx []int) {
	for i, pfd := range fds {
		if pfd.Revents == 0 {
			continue
		}
		e := p.poll.entries[idx[i]]
		if e.deleted {
			continue
		}
		s := p.streamByID(e.streamID)
		if s == nil {
			continue
		}
		switch e.kind {
		case stream.FDDecoder:
			s.OnDeviceEvents(pfd.Revents)
		case stream.FDSourceFile, stream.FDSourceSocket:
			s.OnSourceEvents(pfd.Revents)
		}
	}
}

func (p *Player) tick(ms int) {
	p.tickCount++
	p.fps.Add()

	if !p.stopping {
		p.scheduleDecoders()
	}

	for _, s := range p.streams {
		s.Tick(ms)
	}
	for _, g := range p.groups {
		g.Tick(ms)
	}

	p.draw()

	p.msRunTotal += ms
	if p.cfg.SecsRun > 0 && p.msRunTotal >= p.cfg.SecsRun*1000 && !p.stopping {
		log.Info().Int("secs", p.cfg.SecsRun).Msg("run duration reached")
		p.shutdownAll()
	}

	p.msSinceStat += ms
	if p.msSinceStat >= 1000 {
		p.msSinceStat = 0
		p.printStats()
	}
}

func (p *Player) shutdownAll() {
	p.stopping = true
	for _, s := range p.streams {
		s.SetDesiredOpen(false)
		s.CancelPeek()
		s.StartShutdown(true)
	}
}

func (p *Player) done() bool {
	if len(p.streams) == 0 {
		return p.stopping
	}
	for _, s := range p.streams {
		if !s.Terminal() {
			return false
		}
	}
	return true
}

// activeStreamIDs collects the streams drawn this tick plus the ones the
// pre-render hint says are about to appear.
func (p *Player) activeStreamIDs() map[int]bool {
	active := make(map[int]bool)
	for _, g := range p.groups {
		for _, r := range g.VisibleRects() {
			if r.StreamID > 0 {
				active[r.StreamID] = true
			}
		}
		for _, r := range g.PreRenderRects() {
			if r.StreamID > 0 {
				active[r.StreamID] = true
			}
		}
	}
	return active
}

// scheduleDecoders enforces the open budget. Priorities, descending:
// open decoders that should stay open, closed decoders about to be
// drawn, peek-flagged decoders, and finally one round-robin peek grant
// for a stream whose composition size is still unknown.
func (p *Player) scheduleDecoders() {
	active := p.activeStreamIDs()
	budget := p.cfg.DecodersMax
	granted := make(map[int]bool)

	// every physically open decoder holds its slot until closeDecoder
	// actually runs; a stream draining toward close still occupies one
	for _, s := range p.streams {
		if s.DecoderOpen() {
			budget--
		}
	}

	// open decoders that should stay open keep their slot
	for _, s := range p.streams {
		if s.DecoderOpen() && (active[s.ID()] || s.PeekActive()) {
			granted[s.ID()] = true
		}
	}
	// closed decoders whose stream will be drawn this tick
	for _, s := range p.streams {
		if budget > 0 && !s.DecoderOpen() && active[s.ID()] && !s.Terminal() && !s.FormatRejected() {
			granted[s.ID()] = true
			budget--
		}
	}
	// closed decoders flagged for active peek
	for _, s := range p.streams {
		if budget > 0 && !s.DecoderOpen() && !granted[s.ID()] && s.PeekActive() {
			granted[s.ID()] = true
			budget--
		}
	}

	// round-robin one extra peek; the cursor survives across ticks so
	// every stream gets its turn eventually
	if budget > 0 && len(p.streams) > 0 {
		n := len(p.streams)
		for i := 0; i < n; i++ {
			s := p.streams[(p.rrCursor+i)%n]
			if s.Terminal() || s.FormatRejected() || s.CompositionKnown() ||
				s.DecoderOpen() || s.PeekActive() || granted[s.ID()] {
				continue
			}
			s.GrantPeek(p.cfg.DecodersToPeekSecs * 1000)
			granted[s.ID()] = true
			budget--
			p.rrCursor = (p.rrCursor + i + 1) % n
			break
		}
	}

	for _, s := range p.streams {
		if granted[s.ID()] {
			s.SetDesiredOpen(true)
		} else {
			s.SetDesiredOpen(false)
			if s.PeekActive() {
				// peek lost the budget this tick
				s.CancelPeek()
			}
		}
	}
}

func intersect(ax, ay, aw, ah, bx, by, bw, bh int) (int, int, int, int) {
	x := ax
	if bx > x {
		x = bx
	}
	y := ay
	if by > y {
		y = by
	}
	x2 := ax + aw
	if bx+bw < x2 {
		x2 = bx + bw
	}
	y2 := ay + ah
	if by+bh < y2 {
		y2 = by + bh
	}
	return x, y, x2 - x, y2 - y
}

// draw assembles this tick's ops from the visible rects of every group
// and hands them to the renderer, then publishes the offscreen shadows.
func (p *Player) draw() {
	var ops []render.Op
	fbIndex := 0
	for _, g := range p.groups {
		for _, placed := range g.VisibleRects() {
			var view fb.PlaneView
			var srcRect fb.Rect
			have := false
			if placed.StreamID > 0 {
				if s := p.streamByID(placed.StreamID); s != nil {
					view, srcRect, have = s.LastFrame()
				}
			}
			for fi, f := range g.FBs {
				ix, iy, iw, ih := intersect(placed.X, placed.Y, placed.W, placed.H,
					f.X, f.Y, int(f.Info.Width), int(f.Info.Height))
				if iw <= 0 || ih <= 0 {
					continue
				}
				dstX, dstY := ix-f.X, iy-f.Y
				offX, offY := ix-placed.X, iy-placed.Y
				w, h := 0, 0
				if have {
					w = srcRect.W - offX
					if w > iw {
						w = iw
					}
					h = srcRect.H - offY
					if h > ih {
						h = ih
					}
				}
				if w < iw || h < ih {
					// black fill only where the picture does not reach, so
					// the two never overlap whatever shard runs them; one
					// line at a time from the scratch row
					bl := f.BlackLine()
					for y := 0; y < ih; y++ {
						x0 := 0
						if w > 0 && y < h {
							x0 = w
						}
						if x0 >= iw {
							continue
						}
						ops = append(ops, render.Op{
							FB: f, FBIndex: fbIndex + fi, Dst: f.Target(),
							DstX: dstX + x0, DstY: dstY + y,
							Src:     bl,
							SrcRect: fb.Rect{X: 0, Y: 0, W: iw - x0, H: 1},
						})
					}
				}
				if w > 0 && h > 0 {
					ops = append(ops, render.Op{
						FB: f, FBIndex: fbIndex + fi, Dst: f.Target(),
						DstX: dstX, DstY: dstY,
						Src:     view,
						SrcRect: fb.Rect{X: srcRect.X + offX, Y: srcRect.Y + offY, W: w, H: h},
					})
				}
			}
		}
		fbIndex += len(g.FBs)
	}

	p.renderer.Execute(ops)
	for _, g := range p.groups {
		for _, f := range g.FBs {
			f.Flip()
		}
	}
}
