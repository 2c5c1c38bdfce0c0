package source

import (
	"net"

	"github.com/bugVanisher/wallplayer/statistics"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

type httpState int

const (
	httpIdle httpState = iota
	httpResolving
	httpConnecting
	httpSendRequest
	httpSkipHeaders
	httpBody
)

// header skip machine: consumed bytes until CRLFCRLF, no status parsing
const (
	crlfNone = iota
	crlfCR
	crlfCRLF
	crlfCRLFCR
	crlfDone
)

type resolveResult struct {
	gen  int
	addr [4]byte
	err  error
}

// HTTPConfig ...
type HTTPConfig struct {
	SID       string
	Host      string
	Port      int
	Path      string
	KeepAlive bool
	// ConnTimeoutMs closes the connection when neither a send nor a
	// receive progressed for this long.
	ConnTimeoutMs int
	// ReconnWaitMs arms after every disconnect before the next attempt.
	ReconnWaitMs int
	// OnDisconnect runs after any connection loss so the owner can clear
	// parse state and the in-progress frame.
	OnDisconnect func()
}

// HTTP streams the body of a literal HTTP/1.1 GET over a non-blocking
// socket. The response status and headers are skipped, not parsed.
type HTTP struct {
	cfg HTTPConfig

	state         httpState
	fd            int
	gen           int
	resolveCh     chan resolveResult
	addr          [4]byte
	request       []byte
	reqSent       int
	crlfState     int
	msIdle        int
	msToReconnect int
	rate          *statistics.Bitrate
	buf           [readChunk]byte
}

// NewHTTP creates a disconnected source; the first allowed tick connects.
func NewHTTP(cfg HTTPConfig) *HTTP {
	return &HTTP{
		cfg:       cfg,
		state:     httpIdle,
		fd:        -1,
		resolveCh: make(chan resolveResult, 1),
		request:   []byte("GET " + cfg.Path + " HTTP/1.1\r\nHost: " + cfg.Host + "\r\n\r\n"),
		rate:      statistics.NewBitrate(),
	}
}

func (h *HTTP) Fd() int {
	return h.fd
}

func (h *HTTP) PollEvents() int16 {
	switch h.state {
	case httpConnecting, httpSendRequest:
		return unix.POLLOUT
	case httpSkipHeaders, httpBody:
		return unix.POLLIN
	}
	return 0
}

func (h *HTTP) Tick(ms int, allowReconnect bool) {
	switch h.state {
	case httpIdle:
		if h.msToReconnect > 0 {
			h.msToReconnect -= ms
		}
		if h.msToReconnect <= 0 && allowReconnect {
			h.startResolve()
		}
	case httpResolving:
		select {
		case r := <-h.resolveCh:
			if r.gen != h.gen {
				return // stale lookup from a previous attempt
			}
			if r.err != nil {
				log.Warn().Str("sid", h.cfg.SID).Str("host", h.cfg.Host).Err(r.err).Msg("resolve failed")
				h.backoff()
				return
			}
			h.addr = r.addr
			h.connect()
		default:
		}
	default:
		h.msIdle += ms
		if h.msIdle >= h.cfg.ConnTimeoutMs {
			log.Warn().Str("sid", h.cfg.SID).Int("ms", h.msIdle).Msg("connection inactivity timeout")
			h.disconnect()
		}
	}
}

func (h *HTTP) startResolve() {
	h.state = httpResolving
	h.gen++
	gen := h.gen
	host := h.cfg.Host
	ch := h.resolveCh
	go func() {
		ips, err := net.LookupIP(host)
		r := resolveResult{gen: gen, err: err}
		if err == nil {
			r.err = unix.EHOSTUNREACH
			for _, ip := range ips {
				if v4 := ip.To4(); v4 != nil {
					copy(r.addr[:], v4)
					r.err = nil
					break
				}
			}
		}
		select {
		case ch <- r:
		default:
		}
	}()
}

func (h *HTTP) connect() {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		log.Warn().Str("sid", h.cfg.SID).Err(err).Msg("socket failed")
		h.backoff()
		return
	}
	h.fd = fd
	h.reqSent = 0
	h.crlfState = crlfNone
	h.msIdle = 0
	sa := &unix.SockaddrInet4{Port: h.cfg.Port, Addr: h.addr}
	err = unix.Connect(fd, sa)
	switch err {
	case nil:
		h.state = httpSendRequest
	case unix.EINPROGRESS:
		h.state = httpConnecting
	default:
		log.Warn().Str("sid", h.cfg.SID).Err(err).Msg("connect failed")
		h.disconnect()
	}
}

func (h *HTTP) OnEvents(revents int16, sink Sink) {
	if h.fd < 0 {
		return
	}
	if revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
		log.Warn().Str("sid", h.cfg.SID).Msg("socket error event")
		h.disconnect()
		return
	}
	if revents&unix.POLLOUT != 0 {
		if h.state == httpConnecting {
			soErr, err := unix.GetsockoptInt(h.fd, unix.SOL_SOCKET, unix.SO_ERROR)
			if err != nil || soErr != 0 {
				log.Warn().Str("sid", h.cfg.SID).Int("so_error", soErr).Msg("connect failed")
				h.disconnect()
				return
			}
			h.state = httpSendRequest
			h.msIdle = 0
		}
		if h.state == httpSendRequest {
			h.sendRequest()
		}
	}
	if revents&unix.POLLIN != 0 && (h.state == httpSkipHeaders || h.state == httpBody) {
		h.readBody(sink)
	}
}

func (h *HTTP) sendRequest() {
	n, err := unix.Write(h.fd, h.request[h.reqSent:])
	if err == unix.EAGAIN {
		return
	}
	if err != nil {
		log.Warn().Str("sid", h.cfg.SID).Err(err).Msg("request write failed")
		h.disconnect()
		return
	}
	h.reqSent += n
	h.msIdle = 0
	if h.reqSent == len(h.request) {
		h.state = httpSkipHeaders
	}
}

func (h *HTTP) readBody(sink Sink) {
	n, err := unix.Read(h.fd, h.buf[:])
	if err == unix.EAGAIN {
		return
	}
	if err != nil || n == 0 {
		if err != nil {
			log.Warn().Str("sid", h.cfg.SID).Err(err).Msg("read failed")
		} else {
			log.Info().Str("sid", h.cfg.SID).Msg("server closed connection")
		}
		h.disconnect()
		return
	}
	h.msIdle = 0
	h.rate.Add(uint64(n))
	b := h.buf[:n]
	if h.state == httpSkipHeaders {
		b = h.skipHeaders(b)
		if len(b) == 0 {
			return
		}
	}
	sink.Ingest(b)
}

// skipHeaders consumes bytes until the CRLFCRLF terminator and returns
// what follows it.
func (h *HTTP) skipHeaders(b []byte) []byte {
	for i, c := range b {
		switch c {
		case '\r':
			if h.crlfState == crlfCRLF {
				h.crlfState = crlfCRLFCR
			} else {
				h.crlfState = crlfCR
			}
		case '\n':
			switch h.crlfState {
			case crlfCR:
				h.crlfState = crlfCRLF
			case crlfCRLFCR:
				h.crlfState = crlfDone
				h.state = httpBody
				return b[i+1:]
			default:
				h.crlfState = crlfNone
			}
		default:
			h.crlfState = crlfNone
		}
	}
	return nil
}

func (h *HTTP) backoff() {
	h.state = httpIdle
	h.msToReconnect = h.cfg.ReconnWaitMs
}

// disconnect closes the socket, arms the reconnect timer and tells the
// owner to clear its parse state.
func (h *HTTP) disconnect() {
	if h.fd >= 0 {
		unix.Close(h.fd)
		h.fd = -1
	}
	h.backoff()
	if h.cfg.OnDisconnect != nil {
		h.cfg.OnDisconnect()
	}
}

func (h *HTTP) Connected() bool {
	return h.state == httpSkipHeaders || h.state == httpBody
}

func (h *HTTP) Terminal() bool {
	return false
}

func (h *HTTP) BytesRate() uint64 {
	return h.rate.GetBitrate()
}

func (h *HTTP) Close() {
	if h.fd >= 0 {
		unix.Close(h.fd)
		h.fd = -1
	}
	h.gen++
	h.state = httpIdle
	h.msToReconnect = h.cfg.ReconnWaitMs
}
