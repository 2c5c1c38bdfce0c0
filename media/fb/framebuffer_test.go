package fb

import (
	"bytes"
	"testing"

	"github.com/bugVanisher/wallplayer/media/decoder"
	"github.com/stretchr/testify/require"
)

type memDevice struct {
	info ScreenInfo
	mem  []byte
}

func (d *memDevice) Fd() int                         { return -1 }
func (d *memDevice) ScreenInfo() (ScreenInfo, error) { return d.info, nil }
func (d *memDevice) Map() ([]byte, error)            { return d.mem, nil }
func (d *memDevice) Unmap(b []byte) error            { return nil }
func (d *memDevice) Close() error                    { return nil }

func rgb565Device(w, h uint32) *memDevice {
	info := ScreenInfo{
		Width: w, Height: h,
		BitsPerPixel: 16, BytesPerLine: w * 2,
		RedOffset: 11, RedLen: 5,
		GreenOffset: 5, GreenLen: 6,
		BlueOffset: 0, BlueLen: 5,
		MemLen: w * h * 2,
	}
	return &memDevice{info: info, mem: make([]byte, info.MemLen)}
}

func TestDerivePixFmt(t *testing.T) {
	f, err := NewFramebuffer(rgb565Device(8, 4), 0, 0)
	require.Nil(t, err)
	require.Equal(t, decoder.PixFmtRGB565, f.PixFmt)

	bgra := &memDevice{info: ScreenInfo{
		Width: 4, Height: 4, BitsPerPixel: 32, BytesPerLine: 16,
		BlueOffset: 0, GreenOffset: 8, RedOffset: 16, AlphaOffset: 24,
		MemLen: 256,
	}}
	bgra.mem = make([]byte, 256)
	f2, err := NewFramebuffer(bgra, 0, 0)
	require.Nil(t, err)
	require.Equal(t, decoder.PixFmtBGRA32, f2.PixFmt)

	_, err = NewFramebuffer(&memDevice{info: ScreenInfo{Width: 4, Height: 4, BitsPerPixel: 24}}, 0, 0)
	require.NotNil(t, err)
}

func srcPlane(w, h int) PlaneView {
	data := make([]byte, w*h*2)
	for i := range data {
		data[i] = byte(i)
	}
	return PlaneView{Data: data, BytesPerLine: w * 2, Width: w, Height: h}
}

func TestBitblitFastPathMatchesMemcpy(t *testing.T) {
	f, err := NewFramebuffer(rgb565Device(8, 4), 0, 0)
	require.Nil(t, err)

	src := srcPlane(8, 4)
	f.Bitblit(f.Target(), 0, 0, src, Rect{X: 0, Y: 0, W: 8, H: 4})

	want := make([]byte, 4*16)
	copy(want, src.Data)
	require.True(t, bytes.Equal(want, f.Target()))
}

func TestBitblitSubRect(t *testing.T) {
	f, err := NewFramebuffer(rgb565Device(8, 4), 0, 0)
	require.Nil(t, err)

	src := srcPlane(4, 4)
	f.Bitblit(f.Target(), 2, 1, src, Rect{X: 1, Y: 2, W: 2, H: 2})

	dst := f.Target()
	// row 1 of dst holds src row 2, columns 1..2
	require.Equal(t, src.Data[2*8+2:2*8+6], dst[1*16+4:1*16+8])
	require.Equal(t, src.Data[3*8+2:3*8+6], dst[2*16+4:2*16+8])
	// outside the rect stays black
	require.Equal(t, []byte{0, 0}, dst[0:2])
}

func TestBitblitClipsAgainstBounds(t *testing.T) {
	f, err := NewFramebuffer(rgb565Device(8, 4), 0, 0)
	require.Nil(t, err)

	src := srcPlane(4, 4)
	// placement partly off the right/bottom edge
	f.Bitblit(f.Target(), 6, 3, src, Rect{X: 0, Y: 0, W: 4, H: 4})
	dst := f.Target()
	require.Equal(t, src.Data[0:4], dst[3*16+12:3*16+16])

	// negative placement clips the source origin
	f2, err := NewFramebuffer(rgb565Device(8, 4), 0, 0)
	require.Nil(t, err)
	f2.Bitblit(f2.Target(), -1, -1, src, Rect{X: 0, Y: 0, W: 4, H: 4})
	require.Equal(t, src.Data[1*8+2:1*8+8], f2.Target()[0:6])

	// fully outside draws nothing
	f3, err := NewFramebuffer(rgb565Device(8, 4), 0, 0)
	require.Nil(t, err)
	f3.Bitblit(f3.Target(), 100, 100, src, Rect{X: 0, Y: 0, W: 4, H: 4})
	require.True(t, bytes.Equal(make([]byte, 4*16), f3.Target()))
}

func TestBlackLineFillsRow(t *testing.T) {
	f, err := NewFramebuffer(rgb565Device(8, 4), 0, 0)
	require.Nil(t, err)

	// dirty the target first
	for i := range f.Target() {
		f.Target()[i] = 0xff
	}
	bl := f.BlackLine()
	for y := 0; y < 4; y++ {
		f.Bitblit(f.Target(), 0, y, bl, Rect{X: 0, Y: 0, W: 8, H: 1})
	}
	require.True(t, bytes.Equal(make([]byte, 4*16), f.Target()))
}
