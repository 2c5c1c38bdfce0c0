package decoder

import (
	"github.com/pkg/errors"
)

// Side selects one of the two queues of a memory-to-memory decoder:
// input receives compressed access units, output produces decoded pixels.
type Side int

const (
	SideInput Side = iota
	SideOutput
)

func (s Side) String() string {
	if s == SideInput {
		return "input"
	}
	return "output"
}

// PixFmt is a fourcc pixel format code.
type PixFmt uint32

func FourCC(a, b, c, d byte) PixFmt {
	return PixFmt(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

var (
	PixFmtH264   = FourCC('H', '2', '6', '4')
	PixFmtRGB565 = FourCC('R', 'G', 'B', 'P')
	PixFmtBGRA32 = FourCC('B', 'A', '2', '4')
	PixFmtNV12   = FourCC('N', 'V', '1', '2')
)

func (f PixFmt) String() string {
	return string([]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)})
}

// Format describes a negotiated queue format. SetFormat updates it in
// place with what the device actually granted.
type Format struct {
	PixFmt       PixFmt
	Width        uint32
	Height       uint32
	NumPlanes    int
	PlaneSizes   []uint32
	BytesPerLine []uint32
}

// Rect is a pixel rectangle; the composition rect is the visible
// sub-region of a coded frame.
type Rect struct {
	X, Y int
	W, H int
}

// FrameSize is one device-reported frame size descriptor.
type FrameSize struct {
	MinW, MaxW, StepW uint32
	MinH, MaxH, StepH uint32
}

// EventKind ...
type EventKind int

const (
	EventNone EventKind = iota
	EventSourceChange
	EventEOS
)

// PlaneInfo locates one plane of a device buffer for mapping.
type PlaneInfo struct {
	Length    uint32
	MemOffset uint32
}

// PlaneMapping is a mapped plane. Data is the usable window; the
// implementation keeps whatever it needs to unmap the raw region.
type PlaneMapping struct {
	Data []byte
	raw  []byte
}

// NewPlaneMapping is used by device implementations and tests.
func NewPlaneMapping(data, raw []byte) *PlaneMapping {
	return &PlaneMapping{Data: data, raw: raw}
}

// Raw returns the underlying mapped region (nil for heap mappings).
func (m *PlaneMapping) Raw() []byte {
	return m.raw
}

// Timestamp carries the sequence number of a fed frame through the
// decoder: sec = seq / 1000, usec = seq % 1000.
type Timestamp struct {
	Sec  int64
	Usec int64
}

// TimestampFromSeq ...
func TimestampFromSeq(seq uint64) Timestamp {
	return Timestamp{Sec: int64(seq / 1000), Usec: int64(seq % 1000)}
}

// Seq recovers the sequence number encoded in t.
func (t Timestamp) Seq() uint64 {
	return uint64(t.Sec)*1000 + uint64(t.Usec)
}

// Dequeued is the result of a successful Device.Dequeue.
type Dequeued struct {
	Index     int
	BytesUsed []uint32
	Timestamp Timestamp
}

// Dequeue and queue operation failure kinds. Implementations map their
// native errors onto these so callers can branch without knowing the
// backend.
var (
	ErrWouldBlock  = errors.New("decoder: would block")
	ErrInvalid     = errors.New("decoder: invalid state")
	ErrIO          = errors.New("decoder: io error")
	ErrPipe        = errors.New("decoder: last buffer already seen")
	ErrUnsupported = errors.New("decoder: unsupported")
)

// Device is the capability surface of a kernel memory-to-memory video
// decoder. One instance maps to one open decoder handle; Fd is stable for
// its lifetime and pollable.
type Device interface {
	Fd() int
	EnumFormats(side Side) ([]PixFmt, error)
	EnumFrameSizes(fmt PixFmt) ([]FrameSize, error)
	SetFormat(side Side, f *Format) error
	GetFormat(side Side, f *Format) error
	Composition(side Side) (Rect, error)
	SubscribeEvent(kind EventKind) error
	DequeueEvent() (EventKind, error)
	RequestBuffers(side Side, count int) (int, error)
	QueryBuffer(side Side, index int, planes int) ([]PlaneInfo, error)
	MapPlane(info PlaneInfo) (*PlaneMapping, error)
	UnmapPlane(m *PlaneMapping) error
	Enqueue(side Side, index int, bytesUsed []uint32, ts Timestamp) error
	Dequeue(side Side) (Dequeued, error)
	StreamOn(side Side) error
	StreamOff(side Side) error
	MinOutputBuffers() (int, error)
	Close() error
}

// OpenFunc opens a decoder device by path. The player injects the real
// backend; tests inject mocks.
type OpenFunc func(path string) (Device, error)
