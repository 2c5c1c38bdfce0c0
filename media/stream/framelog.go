package stream

import (
	"time"
)

type logEntry struct {
	Seq         uint64
	FedAt       time.Time
	Independent bool
}

// FrameLog tracks frames fed to the decoder, newest first, and
// reconciles them against dequeued outputs by sequence number. Entries
// older than a dequeued sequence are counted as skipped by the decoder.
type FrameLog struct {
	entries []logEntry
}

// Add records a fed frame at the front.
func (l *FrameLog) Add(seq uint64, fedAt time.Time, independent bool) {
	l.entries = append(l.entries, logEntry{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = logEntry{Seq: seq, FedAt: fedAt, Independent: independent}
}

// Reconcile processes a dequeued output sequence: entries with a smaller
// sequence are dropped and counted, an equal entry yields the processing
// time. A sequence above every tracked entry reports found=false.
func (l *FrameLog) Reconcile(seq uint64, now time.Time) (skipped int, procMs int64, found bool) {
	for len(l.entries) > 0 {
		e := l.entries[len(l.entries)-1] // oldest
		if e.Seq > seq {
			break
		}
		l.entries = l.entries[:len(l.entries)-1]
		if e.Seq == seq {
			procMs = now.Sub(e.FedAt).Milliseconds()
			found = true
			break
		}
		skipped++
	}
	return
}

// Len ...
func (l *FrameLog) Len() int {
	return len(l.entries)
}

// Clear drops every entry.
func (l *FrameLog) Clear() {
	l.entries = l.entries[:0]
}
