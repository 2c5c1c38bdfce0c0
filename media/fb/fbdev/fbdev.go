//go:build linux

// Package fbdev backs fb.Device with the linux framebuffer console
// device.
package fbdev

import (
	"unsafe"

	"github.com/bugVanisher/wallplayer/common/errs"
	"github.com/bugVanisher/wallplayer/media/fb"
	"golang.org/x/sys/unix"
)

const (
	fbioGetVScreenInfo = 0x4600
	fbioGetFScreenInfo = 0x4602
)

type fbBitfield struct {
	Offset   uint32
	Length   uint32
	MsbRight uint32
}

type fbVarScreenInfo struct {
	XRes         uint32
	YRes         uint32
	XResVirtual  uint32
	YResVirtual  uint32
	XOffset      uint32
	YOffset      uint32
	BitsPerPixel uint32
	Grayscale    uint32
	Red          fbBitfield
	Green        fbBitfield
	Blue         fbBitfield
	Transp       fbBitfield
	NonStd       uint32
	Activate     uint32
	Height       uint32
	Width        uint32
	AccelFlags   uint32
	PixClock     uint32
	LeftMargin   uint32
	RightMargin  uint32
	UpperMargin  uint32
	LowerMargin  uint32
	HsyncLen     uint32
	VsyncLen     uint32
	Sync         uint32
	VMode        uint32
	Rotate       uint32
	Colorspace   uint32
	_            [4]uint32
}

type fbFixScreenInfo struct {
	ID           [16]byte
	SmemStart    uint64
	SmemLen      uint32
	Typ          uint32
	TypAux       uint32
	Visual       uint32
	XPanStep     uint16
	YPanStep     uint16
	YWrapStep    uint16
	_            uint16
	LineLength   uint32
	_            [4]byte
	MmioStart    uint64
	MmioLen      uint32
	Accel        uint32
	Capabilities uint16
	_            [2]uint16
	_            [2]byte
}

type device struct {
	path string
	fd   int
}

// Open opens the framebuffer character device. It satisfies fb.OpenFunc.
func Open(path string) (fb.Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrDeviceOpen, "open %s: %v", path, err)
	}
	return &device{path: path, fd: fd}, nil
}

func (d *device) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func (d *device) Fd() int {
	return d.fd
}

func (d *device) ScreenInfo() (fb.ScreenInfo, error) {
	var vinfo fbVarScreenInfo
	if err := d.ioctl(fbioGetVScreenInfo, unsafe.Pointer(&vinfo)); err != nil {
		return fb.ScreenInfo{}, errs.Wrapf(err, "get var screen info %s", d.path)
	}
	var finfo fbFixScreenInfo
	if err := d.ioctl(fbioGetFScreenInfo, unsafe.Pointer(&finfo)); err != nil {
		return fb.ScreenInfo{}, errs.Wrapf(err, "get fix screen info %s", d.path)
	}
	return fb.ScreenInfo{
		Width:        vinfo.XRes,
		Height:       vinfo.YRes,
		BitsPerPixel: vinfo.BitsPerPixel,
		BytesPerLine: finfo.LineLength,
		RedOffset:    vinfo.Red.Offset,
		RedLen:       vinfo.Red.Length,
		GreenOffset:  vinfo.Green.Offset,
		GreenLen:     vinfo.Green.Length,
		BlueOffset:   vinfo.Blue.Offset,
		BlueLen:      vinfo.Blue.Length,
		AlphaOffset:  vinfo.Transp.Offset,
		AlphaLen:     vinfo.Transp.Length,
		MemLen:       finfo.SmemLen,
	}, nil
}

func (d *device) Map() ([]byte, error) {
	info, err := d.ScreenInfo()
	if err != nil {
		return nil, err
	}
	return unix.Mmap(d.fd, 0, int(info.MemLen), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func (d *device) Unmap(b []byte) error {
	return unix.Munmap(b)
}

func (d *device) Close() error {
	return unix.Close(d.fd)
}
