// Package stream orchestrates one video stream: source ingest, access
// unit parsing, decoder queues and the timers that tie them together.
package stream

import (
	"time"

	"github.com/bugVanisher/wallplayer/common/errs"
	"github.com/bugVanisher/wallplayer/media/decoder"
	"github.com/bugVanisher/wallplayer/media/fb"
	"github.com/bugVanisher/wallplayer/media/h264"
	"github.com/bugVanisher/wallplayer/media/source"
	"github.com/bugVanisher/wallplayer/statistics"
	"github.com/bugVanisher/wallplayer/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// FDKind tags a poll registration so the player can dispatch readiness
// back to the owning stream without raw callbacks.
type FDKind int

const (
	FDDecoder FDKind = iota
	FDSourceFile
	FDSourceSocket
)

// Poller is the narrow player facade streams register descriptors with.
// Remove is deferred: the entry is compacted at the top of the next tick
// so it is safe to call from inside a readiness callback.
type Poller interface {
	Add(kind FDKind, streamID int, fd int, events int16)
	Update(fd int, events int16)
	Remove(fd int)
}

// State of the per-stream machine. The decoder handle may be absent in
// every state except feeding.
type State int

const (
	StateClosed State = iota
	StateOpening
	StateOpenIdle
	StateFeeding
	StateFlushing
	StateShuttingDown
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateOpenIdle:
		return "open-idle"
	case StateFeeding:
		return "feeding"
	case StateFlushing:
		return "flushing"
	case StateShuttingDown:
		return "shutting-down"
	case StateTerminal:
		return "terminal"
	}
	return "unknown"
}

const (
	inputBufCount  = 4
	inputPlaneSize = 1 << 20
	captureSpare   = 2

	flushTimeoutMs    = 250
	shutdownTimeoutMs = 500
)

// Config ...
type Config struct {
	ID         int
	SID        string
	DecoderDev string
	URL        string
	IsFile     bool

	// CapturePixFmts are the candidate decoded formats in group
	// preference order; the first one the device supports wins.
	CapturePixFmts []decoder.PixFmt

	ConnTimeoutSecs       int
	ConnWaitReconnSecs    int
	DecoderTimeoutSecs    int
	DecoderWaitReopenSecs int
	KeepAlive             bool

	FramesSkip    int
	FramesFeedMax int

	SimDecoderTimeout bool

	OpenDevice decoder.OpenFunc

	// OnCompositionSize fires when the stream learns or changes its
	// visible size, so the layout can reorganize.
	OnCompositionSize func(id int, pixFmt decoder.PixFmt, w, h int)
}

// Stats is the per-second snapshot of one stream.
type Stats struct {
	SID        string               `json:"sid"`
	State      string               `json:"state"`
	FramesFed  uint64               `json:"frames_fed"`
	FramesOut  uint64               `json:"frames_out"`
	FedSkipped uint64               `json:"fed_skipped"`
	Proc       statistics.MinMaxSum `json:"proc_ms"`
	Parser     h264.Stats           `json:"parser"`
	BytesRate  uint64               `json:"bytes_rate"`
}

// Context owns everything of one stream and advances it from the player
// tick and poll callbacks. All methods run on the main loop.
type Context struct {
	cfg    Config
	poller Poller

	dev decoder.Device
	in  *decoder.Buffers
	out *decoder.Buffers

	src    source.Source
	pool   *h264.FramePool
	parser *h264.Parser
	flog   FrameLog

	state       State
	desiredOpen bool
	peekMsLeft  int
	fmtRejected bool

	msToReopen    int
	msDecoderIdle int

	needIDR      bool
	skipConsumed int
	fedTotal     uint64

	flush struct {
		active bool
		msLeft int
	}
	shutdown struct {
		active    bool
		permanent bool
		msLeft    int
	}

	lastSeq     uint64
	haveLastSeq bool

	capFmt    decoder.PixFmt
	compW     int
	compH     int
	lastClone *decoder.Buffer
	lastView  fb.PlaneView
	lastRect  fb.Rect
	haveLast  bool

	devFdReg int
	devEvReg int16
	srcFdReg int
	srcEvReg int16

	framesFed  uint64
	framesOut  uint64
	fedSkipped uint64
	procMs     statistics.MinMaxSum
}

// NewContext builds the stream and opens its source. The decoder is not
// opened until the player's budget allows it.
func NewContext(cfg Config, poller Poller) (*Context, error) {
	c := &Context{
		cfg:      cfg,
		poller:   poller,
		pool:     h264.NewFramePool(),
		devFdReg: -1,
		srcFdReg: -1,
	}
	c.parser = h264.NewParser(cfg.SID, c.pool, !cfg.IsFile)

	if cfg.IsFile {
		f, err := source.OpenFile(cfg.SID, cfg.URL)
		if err != nil {
			return nil, err
		}
		c.src = f
	} else {
		host, port, path, err := utils.ExtractHTTPInfo(cfg.URL)
		if err != nil {
			return nil, errs.Wrapf(errs.ErrConnectURL, "url %s: %v", cfg.URL, err)
		}
		c.src = source.NewHTTP(source.HTTPConfig{
			SID:           cfg.SID,
			Host:          host,
			Port:          port,
			Path:          path,
			KeepAlive:     cfg.KeepAlive,
			ConnTimeoutMs: cfg.ConnTimeoutSecs * 1000,
			ReconnWaitMs:  cfg.ConnWaitReconnSecs * 1000,
			OnDisconnect:  c.onSourceDisconnect,
		})
	}
	return c, nil
}

// onSourceDisconnect clears parse state and the in-progress frame after
// any connection loss.
func (c *Context) onSourceDisconnect() {
	c.parser.Reset()
}

// ID ...
func (c *Context) ID() int {
	return c.cfg.ID
}

// SID ...
func (c *Context) SID() string {
	return c.cfg.SID
}

// Terminal reports permanent shutdown completed.
func (c *Context) Terminal() bool {
	return c.state == StateTerminal
}

// DecoderOpen ...
func (c *Context) DecoderOpen() bool {
	return c.dev != nil
}

// ReopenPending reports a transient close waiting out its backoff.
func (c *Context) ReopenPending() bool {
	return c.dev == nil && c.msToReopen > 0
}

// SetDesiredOpen is the player budget's grant to keep the decoder open.
func (c *Context) SetDesiredOpen(open bool) {
	c.desiredOpen = open
}

// DesiredOpen ...
func (c *Context) DesiredOpen() bool {
	return c.desiredOpen
}

// GrantPeek gives the stream a short decode budget so it can learn its
// composition size without staying open.
func (c *Context) GrantPeek(ms int) {
	if ms > c.peekMsLeft {
		c.peekMsLeft = ms
	}
}

// PeekActive ...
func (c *Context) PeekActive() bool {
	return c.peekMsLeft > 0
}

// CancelPeek withdraws a peek budget, typically because it lost the open
// budget to higher-priority streams.
func (c *Context) CancelPeek() {
	c.peekMsLeft = 0
}

// CompositionKnown ...
func (c *Context) CompositionKnown() bool {
	return c.compW > 0 && c.compH > 0
}

// CompositionSize ...
func (c *Context) CompositionSize() (int, int) {
	return c.compW, c.compH
}

// CapturePixFmt is valid once the decoder opened at least once.
func (c *Context) CapturePixFmt() decoder.PixFmt {
	return c.capFmt
}

// FormatRejected reports that the device lacks the input format or every
// candidate capture format; such a stream never opens a decoder.
func (c *Context) FormatRejected() bool {
	return c.fmtRejected
}

func (c *Context) shouldBeOpen() bool {
	if c.fmtRejected || c.state == StateTerminal || c.shutdown.active {
		return false
	}
	return c.desiredOpen || c.peekMsLeft > 0
}

// LastFrame returns a drawable view of the newest decoded picture and
// its visible rectangle. The view stays valid across a transient close
// so a stream keeps its last picture until the capture side changes.
func (c *Context) LastFrame() (fb.PlaneView, fb.Rect, bool) {
	return c.lastView, c.lastRect, c.haveLast
}

// Stats snapshots and resets the per-second counters.
func (c *Context) Stats() Stats {
	s := Stats{
		SID:        c.cfg.SID,
		State:      c.state.String(),
		FramesFed:  c.framesFed,
		FramesOut:  c.framesOut,
		FedSkipped: c.fedSkipped,
		Proc:       c.procMs,
		Parser:     c.parser.Stats(),
		BytesRate:  c.src.BytesRate(),
	}
	c.framesFed = 0
	c.framesOut = 0
	c.fedSkipped = 0
	c.procMs.Reset()
	return s
}

// StartShutdown begins an orderly flush and close. Permanent shutdown
// ends in the terminal state; calling it twice is harmless.
func (c *Context) StartShutdown(permanent bool) {
	if c.state == StateTerminal {
		return
	}
	if c.shutdown.active {
		if permanent && !c.shutdown.permanent {
			c.shutdown.permanent = true
		}
		return
	}
	c.shutdown.active = true
	c.shutdown.permanent = permanent
	c.shutdown.msLeft = shutdownTimeoutMs
	c.flush.active = c.dev != nil
	c.flush.msLeft = flushTimeoutMs
	if c.flush.active {
		c.setState(StateFlushing)
	} else {
		c.setState(StateShuttingDown)
	}
}

func (c *Context) setState(s State) {
	if c.state == s {
		return
	}
	log.Debug().Str("sid", c.cfg.SID).Str("from", c.state.String()).Str("to", s.String()).Msg("stream state")
	c.state = s
}

// Tick advances every timer first, then runs the state transitions they
// unlocked, then refreshes the poll registrations.
func (c *Context) Tick(ms int) {
	// timer advances, all in one place
	if c.msToReopen > 0 {
		c.msToReopen -= ms
	}
	if c.peekMsLeft > 0 {
		c.peekMsLeft -= ms
	}
	if c.flush.active {
		c.flush.msLeft -= ms
	}
	if c.shutdown.active {
		c.shutdown.msLeft -= ms
	}
	if c.decoderBusy() {
		c.msDecoderIdle += ms
	} else {
		c.msDecoderIdle = 0
	}
	c.src.Tick(ms, c.cfg.KeepAlive || c.shouldBeOpen())

	// transitions
	if c.src.Terminal() && !c.shutdown.active && c.state != StateTerminal {
		log.Info().Str("sid", c.cfg.SID).Msg("source closed for good, stopping stream")
		c.StartShutdown(true)
	}

	if c.shutdown.active {
		if c.flush.active {
			c.flushTick()
		}
		if !c.flush.active {
			c.setState(StateShuttingDown)
			c.shutdownTick()
		}
		c.syncPoll()
		return
	}

	if c.dev == nil && c.shouldBeOpen() && c.msToReopen <= 0 {
		c.openDecoder()
	}

	if c.dev != nil && !c.shouldBeOpen() {
		// scrolled off screen or peek budget spent
		c.StartShutdown(false)
	}

	if c.dev != nil && c.decoderTimedOut() {
		log.Warn().Str("sid", c.cfg.SID).Int("ms", c.msDecoderIdle).Msg("decoder inactivity timeout")
		c.msDecoderIdle = 0
		c.StartShutdown(false)
	}

	c.syncPoll()
}

// decoderBusy reports the condition under which decoder inactivity
// accumulates: streaming with fed input and no output arriving.
func (c *Context) decoderBusy() bool {
	if c.dev == nil || c.state != StateFeeding {
		return false
	}
	return c.in != nil && c.in.QueuedCount() > 0
}

func (c *Context) decoderTimedOut() bool {
	if c.cfg.SimDecoderTimeout && c.state == StateFeeding {
		return true
	}
	if c.cfg.DecoderTimeoutSecs <= 0 {
		return false
	}
	return c.msDecoderIdle >= c.cfg.DecoderTimeoutSecs*1000
}

// openDecoder opens the device, negotiates the input format, verifies a
// capture format candidate, allocates and maps input buffers (none
// queued yet) and subscribes to the decoder events.
func (c *Context) openDecoder() {
	c.setState(StateOpening)
	dev, err := c.cfg.OpenDevice(c.cfg.DecoderDev)
	if err != nil {
		log.Error().Str("sid", c.cfg.SID).Err(err).Msg("decoder open failed")
		c.armReopen()
		c.setState(StateClosed)
		return
	}

	in := decoder.NewBuffers(dev, decoder.SideInput, c.cfg.SID)
	ok, err := in.QueryFormats(decoder.PixFmtH264)
	if err != nil {
		log.Error().Str("sid", c.cfg.SID).Err(err).Msg("enum input formats failed")
		dev.Close()
		c.armReopen()
		c.setState(StateClosed)
		return
	}
	if !ok {
		log.Error().Str("sid", c.cfg.SID).Msg("input format unsupported")
		dev.Close()
		c.fmtRejected = true
		c.setState(StateClosed)
		return
	}

	var capOK bool
	out := decoder.NewBuffers(dev, decoder.SideOutput, c.cfg.SID)
	for _, f := range c.cfg.CapturePixFmts {
		if got, qerr := out.QueryFormats(f); qerr == nil && got {
			c.capFmt = f
			capOK = true
			break
		}
	}
	if !capOK {
		log.Error().Str("sid", c.cfg.SID).Msg("no capture format candidate supported")
		dev.Close()
		c.fmtRejected = true
		c.setState(StateClosed)
		return
	}

	inFmt := decoder.Format{
		PixFmt:     decoder.PixFmtH264,
		NumPlanes:  1,
		PlaneSizes: []uint32{inputPlaneSize},
	}
	if err = in.SetFormat(&inFmt, false); err == nil {
		if err = in.Alloc(inputBufCount); err == nil {
			err = in.Mmap()
		}
	}
	if err != nil {
		log.Error().Str("sid", c.cfg.SID).Err(err).Msg("decoder input setup failed")
		in.Teardown()
		dev.Close()
		c.armReopen()
		c.setState(StateClosed)
		return
	}

	if serr := dev.SubscribeEvent(decoder.EventSourceChange); serr != nil {
		log.Warn().Str("sid", c.cfg.SID).Err(serr).Msg("subscribe source change")
	}
	if serr := dev.SubscribeEvent(decoder.EventEOS); serr != nil {
		log.Warn().Str("sid", c.cfg.SID).Err(serr).Msg("subscribe eos")
	}
	c.dev = dev
	c.in = in
	c.out = out
	c.needIDR = true
	c.msDecoderIdle = 0
	c.haveLastSeq = false
	c.flog.Clear()
	c.setState(StateOpenIdle)
	log.Info().Str("sid", c.cfg.SID).Str("dev", c.cfg.DecoderDev).
		Str("capture", c.capFmt.String()).Msg("decoder open")
}

func (c *Context) armReopen() {
	c.msToReopen = c.cfg.DecoderWaitReopenSecs * 1000
	if c.msToReopen <= 0 {
		c.msToReopen = 1000
	}
}

// closeDecoder tears both sides down and releases the device. transient
// arms the reopen backoff; otherwise the close is silent and the budget
// decides when to come back.
func (c *Context) closeDecoder(transient bool) {
	if c.dev == nil {
		return
	}
	if c.out != nil {
		c.out.Teardown()
	}
	if c.in != nil {
		c.in.Teardown()
	}
	if c.devFdReg >= 0 {
		c.poller.Remove(c.devFdReg)
		c.devFdReg = -1
	}
	if err := c.dev.Close(); err != nil {
		log.Warn().Str("sid", c.cfg.SID).Err(err).Msg("decoder close")
	}
	c.dev = nil
	c.in = nil
	c.out = nil
	c.flog.Clear()
	if transient {
		c.armReopen()
	}
	c.setState(StateClosed)
}

// flushTick dequeues every pending input buffer; the hard cap completes
// the flush regardless.
func (c *Context) flushTick() {
	if c.in == nil {
		c.flush.active = false
		return
	}
	for c.in.QueuedCount() > 0 {
		if _, _, err := c.in.Dequeue(); err != nil {
			break
		}
	}
	if c.in.QueuedCount() == 0 {
		c.flush.active = false
		return
	}
	if c.flush.msLeft <= 0 {
		log.Warn().Str("sid", c.cfg.SID).Int("queued", c.in.QueuedCount()).Msg("flush timeout, forcing completion")
		c.flush.active = false
	}
}

func (c *Context) shutdownTick() {
	if c.shutdown.msLeft <= 0 && c.dev != nil {
		log.Warn().Str("sid", c.cfg.SID).Msg("shutdown timeout, forcing completion")
	}
	c.closeDecoder(!c.shutdown.permanent)
	c.shutdown.active = false
	if c.shutdown.permanent {
		c.src.Close()
		c.setState(StateTerminal)
		log.Info().Str("sid", c.cfg.SID).Msg("stream permanently shut down")
	}
}

// OnDeviceEvents dispatches decoder readiness.
func (c *Context) OnDeviceEvents(revents int16) {
	if c.dev == nil {
		return
	}
	if revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
		log.Warn().Str("sid", c.cfg.SID).Msg("decoder device error")
		c.closeDecoder(true)
		return
	}
	if revents&unix.POLLPRI != 0 {
		c.drainEvents()
		if c.dev == nil {
			return
		}
	}
	if revents&unix.POLLOUT != 0 {
		c.feedInput()
	}
	if revents&unix.POLLIN != 0 {
		c.drainOutput()
	}
	c.syncPoll()
}

// OnSourceEvents dispatches file or socket readiness.
func (c *Context) OnSourceEvents(revents int16) {
	before := c.src.Fd()
	c.src.OnEvents(revents, c.parser)
	if c.src.Fd() != before && before >= 0 {
		// socket was closed inside the callback; deferred removal
		c.poller.Remove(before)
		c.srcFdReg = -1
	}
	c.feedInput()
	c.syncPoll()
}

func (c *Context) drainEvents() {
	for {
		kind, err := c.dev.DequeueEvent()
		if err != nil {
			return
		}
		switch kind {
		case decoder.EventSourceChange:
			log.Info().Str("sid", c.cfg.SID).Msg("decoder source change")
			c.reinitCapture()
		case decoder.EventEOS:
			log.Info().Str("sid", c.cfg.SID).Msg("decoder end of stream")
		default:
			return
		}
	}
}

// reinitCapture tears the capture side down (it is implicitly stopped by
// the source change) and rebuilds it with the new coded format.
func (c *Context) reinitCapture() {
	c.out.Teardown()

	f := decoder.Format{}
	if err := c.dev.GetFormat(decoder.SideOutput, &f); err != nil {
		log.Error().Str("sid", c.cfg.SID).Err(err).Msg("get capture format")
		c.closeDecoder(true)
		return
	}
	f.PixFmt = c.capFmt
	if err := c.out.SetFormat(&f, true); err != nil {
		log.Error().Str("sid", c.cfg.SID).Err(err).Msg("set capture format")
		c.closeDecoder(true)
		return
	}
	min := c.out.ReadMinQueued()
	err := c.out.Alloc(min + captureSpare)
	if err == nil {
		err = c.out.Mmap()
	}
	if err == nil {
		err = c.out.EnqueueMinimum(c.out.Len())
	}
	if err == nil {
		err = c.out.Start()
	}
	if err != nil {
		log.Error().Str("sid", c.cfg.SID).Err(err).Msg("capture reinit failed")
		c.closeDecoder(true)
		return
	}

	w := int(c.out.Format.Width)
	h := int(c.out.Format.Height)
	if c.out.HasComp {
		w, h = c.out.Comp.W, c.out.Comp.H
	}
	changed := w != c.compW || h != c.compH
	c.compW, c.compH = w, h
	c.lastClone = nil
	c.haveLast = false
	log.Info().Str("sid", c.cfg.SID).Int("width", w).Int("height", h).
		Int("min_queued", min).Msg("capture ready")
	if changed && c.cfg.OnCompositionSize != nil {
		c.cfg.OnCompositionSize(c.cfg.ID, c.capFmt, w, h)
	}
}

// feedInput copies ready frames into free input buffers until either
// runs out. The first frame after an open must be independent.
func (c *Context) feedInput() {
	if c.dev == nil || c.in == nil || c.shutdown.active || c.flush.active {
		return
	}
	for {
		// reclaim consumed input buffers
		for c.in.QueuedCount() > 0 {
			if _, _, err := c.in.Dequeue(); err != nil {
				break
			}
		}
		if c.cfg.FramesFeedMax > 0 && c.fedTotal >= uint64(c.cfg.FramesFeedMax) {
			log.Info().Str("sid", c.cfg.SID).Uint64("fed", c.fedTotal).Msg("feed limit reached")
			c.StartShutdown(true)
			return
		}
		buf := c.in.Unqueued()
		if buf == nil {
			return
		}
		f := c.pool.PullFilled()
		if f == nil {
			return
		}
		if c.needIDR && !f.Independent {
			c.pool.Recycle(f)
			continue
		}
		if c.skipConsumed < c.cfg.FramesSkip {
			c.skipConsumed++
			c.pool.Recycle(f)
			continue
		}
		if len(f.Data) > len(buf.Planes[0].Data) {
			log.Warn().Str("sid", c.cfg.SID).Int("size", len(f.Data)).Msg("frame larger than input plane, dropped")
			c.pool.Recycle(f)
			continue
		}
		copy(buf.Planes[0].Data, f.Data)
		buf.Planes[0].BytesUsed = uint32(len(f.Data))
		ts := decoder.TimestampFromSeq(f.Seq)
		f.FedAt = time.Now()
		if err := c.in.Enqueue(buf, &ts); err != nil {
			log.Warn().Str("sid", c.cfg.SID).Err(err).Msg("input enqueue failed")
			c.pool.Recycle(f)
			c.closeDecoder(true)
			return
		}
		if err := c.in.Start(); err != nil {
			c.pool.Recycle(f)
			c.closeDecoder(true)
			return
		}
		c.needIDR = false
		c.flog.Add(f.Seq, f.FedAt, f.Independent)
		c.fedTotal++
		c.framesFed++
		c.pool.Recycle(f)
		c.setState(StateFeeding)
	}
}

// drainOutput pulls decoded pictures, reconciles the frame log, keeps
// the newest picture as a clone and requeues so the capture queue stays
// at its minimum.
func (c *Context) drainOutput() {
	if c.out == nil || !c.out.Streaming() {
		return
	}
	for {
		buf, ts, err := c.out.Dequeue()
		if err == decoder.ErrWouldBlock || err == decoder.ErrPipe {
			return
		}
		if err != nil {
			log.Warn().Str("sid", c.cfg.SID).Err(err).Msg("capture dequeue failed")
			c.closeDecoder(true)
			return
		}
		c.msDecoderIdle = 0
		seq := ts.Seq()
		if c.haveLastSeq && seq <= c.lastSeq {
			c.fedSkipped++
		} else {
			c.lastSeq = seq
			c.haveLastSeq = true
		}
		skipped, procMs, found := c.flog.Reconcile(seq, time.Now())
		c.fedSkipped += uint64(skipped)
		if found {
			c.procMs.Add(procMs)
		}
		c.framesOut++
		c.lastClone = c.out.KeepLastAsClone(buf)
		p := &c.lastClone.Planes[0]
		c.lastView = fb.PlaneView{
			Data:         p.Data,
			BytesPerLine: int(p.BytesPerLine),
			Width:        int(c.out.Format.Width),
			Height:       int(c.out.Format.Height),
		}
		c.lastRect = fb.Rect{W: c.lastView.Width, H: c.lastView.Height}
		if c.out.HasComp {
			c.lastRect = fb.Rect{X: c.out.Comp.X, Y: c.out.Comp.Y, W: c.out.Comp.W, H: c.out.Comp.H}
		}
		c.haveLast = true
		if err := c.out.Enqueue(buf, nil); err != nil {
			log.Warn().Str("sid", c.cfg.SID).Err(err).Msg("capture requeue failed")
			c.closeDecoder(true)
			return
		}
	}
}

// devEvents is the decoder poll mask for the current state; input
// readiness is only requested while there is something to feed.
func (c *Context) devEvents() int16 {
	ev := int16(unix.POLLPRI)
	if c.out != nil && c.out.Streaming() {
		ev |= unix.POLLIN
	}
	if c.pool.FilledCount() > 0 && c.in != nil && !c.flush.active && !c.shutdown.active {
		ev |= unix.POLLOUT
	}
	return ev
}

// syncPoll reconciles the poll registrations with the current fds and
// masks.
func (c *Context) syncPoll() {
	// decoder
	if c.dev != nil {
		ev := c.devEvents()
		if c.devFdReg < 0 {
			c.devFdReg = c.dev.Fd()
			c.devEvReg = ev
			c.poller.Add(FDDecoder, c.cfg.ID, c.devFdReg, ev)
		} else if ev != c.devEvReg {
			c.devEvReg = ev
			c.poller.Update(c.devFdReg, ev)
		}
	} else if c.devFdReg >= 0 {
		c.poller.Remove(c.devFdReg)
		c.devFdReg = -1
	}

	// source
	fd := c.src.Fd()
	ev := c.src.PollEvents()
	kind := FDSourceSocket
	if c.cfg.IsFile {
		kind = FDSourceFile
	}
	if fd != c.srcFdReg {
		if c.srcFdReg >= 0 {
			c.poller.Remove(c.srcFdReg)
			c.srcFdReg = -1
		}
		if fd >= 0 {
			c.srcFdReg = fd
			c.srcEvReg = ev
			c.poller.Add(kind, c.cfg.ID, fd, ev)
		}
	} else if fd >= 0 && ev != c.srcEvReg {
		c.srcEvReg = ev
		c.poller.Update(fd, ev)
	}
}
