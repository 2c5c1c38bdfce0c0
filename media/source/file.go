package source

import (
	"github.com/bugVanisher/wallplayer/common/errs"
	"github.com/bugVanisher/wallplayer/statistics"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

const readChunk = 64 << 10

// File reads a local Annex-B file on readable events. Emitting a frame
// suspends readability until the next tick so ingest stays tied to the
// render cadence. Closing is permanent.
type File struct {
	sid       string
	path      string
	fd        int
	suspended bool
	terminal  bool
	rate      *statistics.Bitrate
	buf       [readChunk]byte
}

// OpenFile opens path non-blocking.
func OpenFile(sid, path string) (*File, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrSourceClosed, "open %s: %v", path, err)
	}
	return &File{sid: sid, path: path, fd: fd, rate: statistics.NewBitrate()}, nil
}

func (f *File) Fd() int {
	return f.fd
}

func (f *File) PollEvents() int16 {
	if f.fd < 0 || f.suspended {
		return 0
	}
	return unix.POLLIN
}

func (f *File) Tick(ms int, allowReconnect bool) {
	f.suspended = false
}

func (f *File) OnEvents(revents int16, sink Sink) {
	if f.fd < 0 {
		return
	}
	n, err := unix.Read(f.fd, f.buf[:])
	if err == unix.EAGAIN {
		return
	}
	if err != nil || n == 0 {
		if err != nil {
			log.Warn().Str("sid", f.sid).Str("path", f.path).Err(err).Msg("file read error")
		} else {
			log.Info().Str("sid", f.sid).Str("path", f.path).Msg("file source end")
		}
		f.Close()
		return
	}
	f.rate.Add(uint64(n))
	if sink.Ingest(f.buf[:n]) > 0 {
		f.suspended = true
	}
}

func (f *File) Connected() bool {
	return f.fd >= 0
}

func (f *File) Terminal() bool {
	return f.terminal
}

func (f *File) BytesRate() uint64 {
	return f.rate.GetBitrate()
}

func (f *File) Close() {
	if f.fd >= 0 {
		unix.Close(f.fd)
		f.fd = -1
	}
	f.terminal = true
}
