package player

import (
	"github.com/bugVanisher/wallplayer/media/stream"
	"golang.org/x/sys/unix"
)

type pollEntry struct {
	fd       int
	events   int16
	kind     stream.FDKind
	streamID int
	deleted  bool
}

// pollSet is the player's descriptor registry. Removal is deferred:
// entries are only marked here and compacted at the top of the next
// tick, which makes Remove safe from inside a readiness callback.
type pollSet struct {
	entries []pollEntry
	dirty   bool
}

func (s *pollSet) add(kind stream.FDKind, streamID, fd int, events int16) {
	for i := range s.entries {
		if s.entries[i].fd == fd && !s.entries[i].deleted {
			s.entries[i] = pollEntry{fd: fd, events: events, kind: kind, streamID: streamID}
			return
		}
	}
	s.entries = append(s.entries, pollEntry{fd: fd, events: events, kind: kind, streamID: streamID})
}

func (s *pollSet) update(fd int, events int16) {
	for i := range s.entries {
		if s.entries[i].fd == fd && !s.entries[i].deleted {
			s.entries[i].events = events
			return
		}
	}
}

func (s *pollSet) remove(fd int) {
	for i := range s.entries {
		if s.entries[i].fd == fd && !s.entries[i].deleted {
			s.entries[i].deleted = true
			s.dirty = true
			return
		}
	}
}

func (s *pollSet) compact() {
	if !s.dirty {
		return
	}
	kept := s.entries[:0]
	for _, e := range s.entries {
		if !e.deleted {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	s.dirty = false
}

// fds builds the unix.PollFd slice for entries that want events.
func (s *pollSet) fds(buf []unix.PollFd) ([]unix.PollFd, []int) {
	buf = buf[:0]
	idx := make([]int, 0, len(s.entries))
	for i, e := range s.entries {
		if e.deleted || e.events == 0 {
			continue
		}
		buf = append(buf, unix.PollFd{Fd: int32(e.fd), Events: e.events})
		idx = append(idx, i)
	}
	return buf, idx
}

// Add implements stream.Poller.
func (p *Player) Add(kind stream.FDKind, streamID, fd int, events int16) {
	p.poll.add(kind, streamID, fd, events)
}

// Update implements stream.Poller.
func (p *Player) Update(fd int, events int16) {
	p.poll.update(fd, events)
}

// Remove implements stream.Poller.
func (p *Player) Remove(fd int) {
	p.poll.remove(fd)
}
