//go:build linux

// Package v4l2 backs decoder.Device with a kernel memory-to-memory codec
// through the multi-planar V4L2 ioctl surface.
package v4l2

import (
	"unsafe"

	"github.com/bugVanisher/wallplayer/common/errs"
	"github.com/bugVanisher/wallplayer/media/decoder"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

const (
	bufTypeCaptureMplane = 9  // decoded pixels
	bufTypeOutputMplane  = 10 // compressed bitstream

	memoryMMAP = 1

	eventEOS          = 2
	eventSourceChange = 5

	selTgtCompose = 0x100

	cidMinBuffersForCapture = 0x00990907

	frmSizeTypeDiscrete = 1
)

// ioctl request encoding, dir<<30 | size<<16 | 'V'<<8 | nr
const (
	iocWrite uintptr = 1
	iocRead  uintptr = 2
)

func ioc(dir, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | 'V'<<8 | nr
}

type vPlanePixFormat struct {
	SizeImage    uint32
	BytesPerLine uint32
	_            [6]uint16
}

type vPixFormatMplane struct {
	Width        uint32
	Height       uint32
	PixelFormat  uint32
	Field        uint32
	ColorSpace   uint32
	PlaneFmt     [8]vPlanePixFormat
	NumPlanes    uint8
	Flags        uint8
	YcbcrEnc     uint8
	Quantization uint8
	_            [7]uint8
}

type vFormat struct {
	Typ uint32
	_   [4]byte
	Raw [200]byte
}

func (f *vFormat) pixMP() *vPixFormatMplane {
	return (*vPixFormatMplane)(unsafe.Pointer(&f.Raw[0]))
}

type vRequestBuffers struct {
	Count  uint32
	Typ    uint32
	Memory uint32
	_      [2]uint32
}

type vPlane struct {
	BytesUsed  uint32
	Length     uint32
	M          uint64 // mem_offset / userptr union
	DataOffset uint32
	_          [11]uint32
}

type vBuffer struct {
	Index     uint32
	Typ       uint32
	BytesUsed uint32
	Flags     uint32
	Field     uint32
	_         [4]byte
	TvSec     int64
	TvUsec    int64
	Timecode  [16]byte
	Sequence  uint32
	Memory    uint32
	M         uint64 // planes pointer for mplane queues
	Length    uint32
	Reserved2 uint32
	RequestFD int32
}

type vFmtDesc struct {
	Index       uint32
	Typ         uint32
	Flags       uint32
	Description [32]byte
	PixelFormat uint32
	MbusCode    uint32
	_           [3]uint32
}

type vFrmSizeEnum struct {
	Index       uint32
	PixelFormat uint32
	Typ         uint32
	// stepwise union: min_w, max_w, step_w, min_h, max_h, step_h
	MinW, MaxW, StepW uint32
	MinH, MaxH, StepH uint32
	_                 [2]uint32
}

type vEventSubscription struct {
	Typ   uint32
	ID    uint32
	Flags uint32
	_     [5]uint32
}

type vEvent struct {
	Typ      uint32
	_        [4]byte
	U        [64]byte
	Pending  uint32
	Sequence uint32
	TsSec    int64
	TsNsec   int64
	ID       uint32
	_        [8]uint32
	_        [4]byte
}

type vControl struct {
	ID    uint32
	Value int32
}

type vRect struct {
	Left, Top     int32
	Width, Height uint32
}

type vSelection struct {
	Typ    uint32
	Target uint32
	Flags  uint32
	R      vRect
	_      [9]uint32
}

var (
	vidiocEnumFmt        = ioc(iocRead|iocWrite, 2, unsafe.Sizeof(vFmtDesc{}))
	vidiocGFmt           = ioc(iocRead|iocWrite, 4, unsafe.Sizeof(vFormat{}))
	vidiocSFmt           = ioc(iocRead|iocWrite, 5, unsafe.Sizeof(vFormat{}))
	vidiocReqBufs        = ioc(iocRead|iocWrite, 8, unsafe.Sizeof(vRequestBuffers{}))
	vidiocQueryBuf       = ioc(iocRead|iocWrite, 9, unsafe.Sizeof(vBuffer{}))
	vidiocQBuf           = ioc(iocRead|iocWrite, 15, unsafe.Sizeof(vBuffer{}))
	vidiocDQBuf          = ioc(iocRead|iocWrite, 17, unsafe.Sizeof(vBuffer{}))
	vidiocStreamOn       = ioc(iocWrite, 18, unsafe.Sizeof(int32(0)))
	vidiocStreamOff      = ioc(iocWrite, 19, unsafe.Sizeof(int32(0)))
	vidiocGCtrl          = ioc(iocRead|iocWrite, 27, unsafe.Sizeof(vControl{}))
	vidiocEnumFrameSizes = ioc(iocRead|iocWrite, 74, unsafe.Sizeof(vFrmSizeEnum{}))
	vidiocDQEvent        = ioc(iocRead, 89, unsafe.Sizeof(vEvent{}))
	vidiocSubscribeEvent = ioc(iocWrite, 90, unsafe.Sizeof(vEventSubscription{}))
	vidiocGSelection     = ioc(iocRead|iocWrite, 94, unsafe.Sizeof(vSelection{}))
)

func bufType(side decoder.Side) uint32 {
	if side == decoder.SideInput {
		return bufTypeOutputMplane
	}
	return bufTypeCaptureMplane
}

func mapErrno(errno unix.Errno) error {
	switch errno {
	case unix.EAGAIN, unix.EWOULDBLOCK:
		return decoder.ErrWouldBlock
	case unix.EINVAL:
		return decoder.ErrInvalid
	case unix.EIO:
		return decoder.ErrIO
	case unix.EPIPE:
		return decoder.ErrPipe
	}
	return errno
}

type device struct {
	path string
	fd   int
}

// Open opens the decoder character device non-blocking. It satisfies
// decoder.OpenFunc.
func Open(path string) (decoder.Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrDeviceOpen, "open %s: %v", path, err)
	}
	return &device{path: path, fd: fd}, nil
}

func (d *device) ioctl(req uintptr, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), req, uintptr(arg))
		if errno == 0 {
			return nil
		}
		if errno == unix.EINTR {
			continue
		}
		return mapErrno(errno)
	}
}

func (d *device) Fd() int {
	return d.fd
}

func (d *device) Close() error {
	return unix.Close(d.fd)
}

func (d *device) EnumFormats(side decoder.Side) ([]decoder.PixFmt, error) {
	var out []decoder.PixFmt
	for i := uint32(0); ; i++ {
		desc := vFmtDesc{Index: i, Typ: bufType(side)}
		if err := d.ioctl(vidiocEnumFmt, unsafe.Pointer(&desc)); err != nil {
			if err == decoder.ErrInvalid {
				return out, nil
			}
			return out, err
		}
		out = append(out, decoder.PixFmt(desc.PixelFormat))
	}
}

func (d *device) EnumFrameSizes(fmt decoder.PixFmt) ([]decoder.FrameSize, error) {
	var out []decoder.FrameSize
	for i := uint32(0); ; i++ {
		e := vFrmSizeEnum{Index: i, PixelFormat: uint32(fmt)}
		if err := d.ioctl(vidiocEnumFrameSizes, unsafe.Pointer(&e)); err != nil {
			if err == decoder.ErrInvalid {
				return out, nil
			}
			return out, err
		}
		fs := decoder.FrameSize{
			MinW: e.MinW, MaxW: e.MaxW, StepW: e.StepW,
			MinH: e.MinH, MaxH: e.MaxH, StepH: e.StepH,
		}
		if e.Typ == frmSizeTypeDiscrete {
			// discrete union carries only width and height
			fs = decoder.FrameSize{MinW: e.MinW, MaxW: e.MinW, StepW: 1, MinH: e.MaxW, MaxH: e.MaxW, StepH: 1}
		}
		out = append(out, fs)
	}
}

func (d *device) SetFormat(side decoder.Side, f *decoder.Format) error {
	var vf vFormat
	vf.Typ = bufType(side)
	pm := vf.pixMP()
	pm.Width = f.Width
	pm.Height = f.Height
	pm.PixelFormat = uint32(f.PixFmt)
	pm.NumPlanes = uint8(f.NumPlanes)
	for i := 0; i < f.NumPlanes && i < len(f.PlaneSizes); i++ {
		pm.PlaneFmt[i].SizeImage = f.PlaneSizes[i]
	}
	if err := d.ioctl(vidiocSFmt, unsafe.Pointer(&vf)); err != nil {
		return err
	}
	readFormat(&vf, f)
	return nil
}

func (d *device) GetFormat(side decoder.Side, f *decoder.Format) error {
	var vf vFormat
	vf.Typ = bufType(side)
	if err := d.ioctl(vidiocGFmt, unsafe.Pointer(&vf)); err != nil {
		return err
	}
	readFormat(&vf, f)
	return nil
}

func readFormat(vf *vFormat, f *decoder.Format) {
	pm := vf.pixMP()
	f.PixFmt = decoder.PixFmt(pm.PixelFormat)
	f.Width = pm.Width
	f.Height = pm.Height
	f.NumPlanes = int(pm.NumPlanes)
	f.PlaneSizes = make([]uint32, f.NumPlanes)
	f.BytesPerLine = make([]uint32, f.NumPlanes)
	for i := 0; i < f.NumPlanes; i++ {
		f.PlaneSizes[i] = pm.PlaneFmt[i].SizeImage
		f.BytesPerLine[i] = pm.PlaneFmt[i].BytesPerLine
	}
}

func (d *device) Composition(side decoder.Side) (decoder.Rect, error) {
	sel := vSelection{Typ: bufType(side), Target: selTgtCompose}
	if err := d.ioctl(vidiocGSelection, unsafe.Pointer(&sel)); err != nil {
		return decoder.Rect{}, err
	}
	return decoder.Rect{
		X: int(sel.R.Left), Y: int(sel.R.Top),
		W: int(sel.R.Width), H: int(sel.R.Height),
	}, nil
}

func (d *device) SubscribeEvent(kind decoder.EventKind) error {
	sub := vEventSubscription{}
	switch kind {
	case decoder.EventSourceChange:
		sub.Typ = eventSourceChange
	case decoder.EventEOS:
		sub.Typ = eventEOS
	default:
		return decoder.ErrUnsupported
	}
	return d.ioctl(vidiocSubscribeEvent, unsafe.Pointer(&sub))
}

func (d *device) DequeueEvent() (decoder.EventKind, error) {
	var ev vEvent
	if err := d.ioctl(vidiocDQEvent, unsafe.Pointer(&ev)); err != nil {
		return decoder.EventNone, err
	}
	switch ev.Typ {
	case eventSourceChange:
		return decoder.EventSourceChange, nil
	case eventEOS:
		return decoder.EventEOS, nil
	}
	log.Debug().Str("dev", d.path).Uint32("type", ev.Typ).Msg("unhandled v4l2 event")
	return decoder.EventNone, nil
}

func (d *device) RequestBuffers(side decoder.Side, count int) (int, error) {
	rb := vRequestBuffers{Count: uint32(count), Typ: bufType(side), Memory: memoryMMAP}
	if err := d.ioctl(vidiocReqBufs, unsafe.Pointer(&rb)); err != nil {
		return 0, err
	}
	return int(rb.Count), nil
}

func (d *device) QueryBuffer(side decoder.Side, index, planes int) ([]decoder.PlaneInfo, error) {
	vp := make([]vPlane, planes)
	vb := vBuffer{
		Index:  uint32(index),
		Typ:    bufType(side),
		Memory: memoryMMAP,
		M:      uint64(uintptr(unsafe.Pointer(&vp[0]))),
		Length: uint32(planes),
	}
	if err := d.ioctl(vidiocQueryBuf, unsafe.Pointer(&vb)); err != nil {
		return nil, err
	}
	out := make([]decoder.PlaneInfo, planes)
	for i := range vp {
		out[i] = decoder.PlaneInfo{Length: vp[i].Length, MemOffset: uint32(vp[i].M)}
	}
	return out, nil
}

func (d *device) MapPlane(info decoder.PlaneInfo) (*decoder.PlaneMapping, error) {
	pageMask := int64(unix.Getpagesize() - 1)
	aligned := int64(info.MemOffset) &^ pageMask
	delta := int64(info.MemOffset) - aligned
	raw, err := unix.Mmap(d.fd, aligned, int(int64(info.Length)+delta),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return decoder.NewPlaneMapping(raw[delta:delta+int64(info.Length)], raw), nil
}

func (d *device) UnmapPlane(m *decoder.PlaneMapping) error {
	return unix.Munmap(m.Raw())
}

func (d *device) Enqueue(side decoder.Side, index int, bytesUsed []uint32, ts decoder.Timestamp) error {
	vp := make([]vPlane, len(bytesUsed))
	for i := range bytesUsed {
		vp[i].BytesUsed = bytesUsed[i]
	}
	vb := vBuffer{
		Index:  uint32(index),
		Typ:    bufType(side),
		Memory: memoryMMAP,
		TvSec:  ts.Sec,
		TvUsec: ts.Usec,
		Length: uint32(len(vp)),
	}
	if len(vp) > 0 {
		vb.M = uint64(uintptr(unsafe.Pointer(&vp[0])))
	}
	return d.ioctl(vidiocQBuf, unsafe.Pointer(&vb))
}

func (d *device) Dequeue(side decoder.Side) (decoder.Dequeued, error) {
	vp := make([]vPlane, 8)
	vb := vBuffer{
		Typ:    bufType(side),
		Memory: memoryMMAP,
		M:      uint64(uintptr(unsafe.Pointer(&vp[0]))),
		Length: uint32(len(vp)),
	}
	if err := d.ioctl(vidiocDQBuf, unsafe.Pointer(&vb)); err != nil {
		return decoder.Dequeued{}, err
	}
	used := make([]uint32, vb.Length)
	for i := range used {
		used[i] = vp[i].BytesUsed
	}
	return decoder.Dequeued{
		Index:     int(vb.Index),
		BytesUsed: used,
		Timestamp: decoder.Timestamp{Sec: vb.TvSec, Usec: vb.TvUsec},
	}, nil
}

func (d *device) StreamOn(side decoder.Side) error {
	typ := int32(bufType(side))
	return d.ioctl(vidiocStreamOn, unsafe.Pointer(&typ))
}

func (d *device) StreamOff(side decoder.Side) error {
	typ := int32(bufType(side))
	return d.ioctl(vidiocStreamOff, unsafe.Pointer(&typ))
}

func (d *device) MinOutputBuffers() (int, error) {
	ctrl := vControl{ID: cidMinBuffersForCapture}
	if err := d.ioctl(vidiocGCtrl, unsafe.Pointer(&ctrl)); err != nil {
		return 0, err
	}
	return int(ctrl.Value), nil
}
