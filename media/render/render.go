// Package render schedules and executes the per-tick pixel copies,
// optionally sharded across worker threads.
package render

import (
	"sort"
	"sync"
	"time"

	"github.com/bugVanisher/wallplayer/media/fb"
	"github.com/bugVanisher/wallplayer/statistics"
)

// Mode selects the plan shape.
type Mode int

const (
	// ModeSrc iterates rects in source order; simple and friendly to
	// source memory.
	ModeSrc Mode = iota
	// ModeDst expands rects into per-scan-line records ordered by
	// destination so destination memory is written sequentially.
	ModeDst
)

// Op is one self-contained copy: a rect or a single line. It owns no
// pointer into transient state; the caller guarantees the pixel buffers
// outlive the join.
type Op struct {
	FB      *fb.Framebuffer
	FBIndex int
	Dst     []byte
	DstX    int
	DstY    int
	Src     fb.PlaneView
	SrcRect fb.Rect
}

func (o *Op) run() {
	o.FB.Bitblit(o.Dst, o.DstX, o.DstY, o.Src, o.SrcRect)
}

// BuildLinePlan expands rect ops into one record per destination line,
// grouped by framebuffer and row.
func BuildLinePlan(ops []Op) []Op {
	lines := make([]Op, 0, len(ops)*8)
	for _, op := range ops {
		for y := 0; y < op.SrcRect.H; y++ {
			l := op
			l.DstY = op.DstY + y
			l.SrcRect = fb.Rect{X: op.SrcRect.X, Y: op.SrcRect.Y + y, W: op.SrcRect.W, H: 1}
			lines = append(lines, l)
		}
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].FBIndex != lines[j].FBIndex {
			return lines[i].FBIndex < lines[j].FBIndex
		}
		if lines[i].DstY != lines[j].DstY {
			return lines[i].DstY < lines[j].DstY
		}
		return lines[i].DstX < lines[j].DstX
	})
	return lines
}

type worker struct {
	mu    sync.Mutex
	cond  *sync.Cond
	tasks [][]Op
	stop  bool
}

func newWorker() *worker {
	w := &worker{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *worker) push(ops []Op) {
	w.mu.Lock()
	w.tasks = append(w.tasks, ops)
	w.mu.Unlock()
	w.cond.Signal()
}

func (w *worker) quit() {
	w.mu.Lock()
	w.stop = true
	w.mu.Unlock()
	w.cond.Signal()
}

// Renderer executes draw plans. Ops shard evenly across the workers plus
// the calling thread; the caller waits until the pending counter drains.
type Renderer struct {
	mode    Mode
	workers []*worker

	drawMu   sync.Mutex
	drawCond *sync.Cond
	pending  int

	statsMu  sync.Mutex
	drawTime statistics.MinMaxSum
}

// NewRenderer starts extraThreads workers.
func NewRenderer(mode Mode, extraThreads int) *Renderer {
	r := &Renderer{mode: mode}
	r.drawCond = sync.NewCond(&r.drawMu)
	for i := 0; i < extraThreads; i++ {
		w := newWorker()
		r.workers = append(r.workers, w)
		go r.workerLoop(w)
	}
	return r
}

func (r *Renderer) workerLoop(w *worker) {
	for {
		w.mu.Lock()
		for len(w.tasks) == 0 && !w.stop {
			w.cond.Wait()
		}
		if w.stop && len(w.tasks) == 0 {
			w.mu.Unlock()
			return
		}
		ops := w.tasks[0]
		w.tasks = w.tasks[1:]
		w.mu.Unlock()

		for i := range ops {
			ops[i].run()
		}
		r.done()
	}
}

func (r *Renderer) done() {
	r.drawMu.Lock()
	r.pending--
	last := r.pending == 0
	r.drawMu.Unlock()
	if last {
		r.drawCond.Broadcast()
	}
}

// Execute runs the plan for one tick and records the draw time.
func (r *Renderer) Execute(ops []Op) {
	if len(ops) == 0 {
		return
	}
	begin := time.Now()
	if r.mode == ModeDst {
		ops = BuildLinePlan(ops)
	}

	shards := len(r.workers) + 1
	per := (len(ops) + shards - 1) / shards

	r.drawMu.Lock()
	r.pending = 0
	r.drawMu.Unlock()

	next := per // ops[0:per] runs on the caller
	for _, w := range r.workers {
		if next >= len(ops) {
			break
		}
		end := next + per
		if end > len(ops) {
			end = len(ops)
		}
		r.drawMu.Lock()
		r.pending++
		r.drawMu.Unlock()
		w.push(ops[next:end])
		next = end
	}

	for i := 0; i < per && i < len(ops); i++ {
		ops[i].run()
	}

	r.drawMu.Lock()
	for r.pending > 0 {
		r.drawCond.Wait()
	}
	r.drawMu.Unlock()

	r.statsMu.Lock()
	r.drawTime.Add(time.Since(begin).Microseconds())
	r.statsMu.Unlock()
}

// DrawTime returns and resets the accumulated draw-time statistics in
// microseconds.
func (r *Renderer) DrawTime() statistics.MinMaxSum {
	r.statsMu.Lock()
	s := r.drawTime
	r.drawTime.Reset()
	r.statsMu.Unlock()
	return s
}

// Close stops the workers.
func (r *Renderer) Close() {
	for _, w := range r.workers {
		w.quit()
	}
}
