package fb

import (
	"github.com/bugVanisher/wallplayer/common/errs"
	"github.com/bugVanisher/wallplayer/media/decoder"
	"github.com/rs/zerolog/log"
)

// Rect is a pixel rectangle in surface coordinates.
type Rect struct {
	X, Y int
	W, H int
}

// PlaneView is a read-only view over source pixels for blitting.
type PlaneView struct {
	Data         []byte
	BytesPerLine int
	Width        int
	Height       int
}

// Framebuffer is one physical display surface. Draws go to the offscreen
// shadow; Flip publishes it to the mapped screen.
type Framebuffer struct {
	dev  Device
	Info ScreenInfo

	// PixFmt is derived from bit depth and channel offsets; only streams
	// decoded into this format may render here.
	PixFmt decoder.PixFmt

	// X, Y is the relative origin inside the owning group.
	X, Y int

	screen    []byte
	off       []byte
	blackLine []byte
}

// NewFramebuffer wraps an opened device placed at (x, y) in group space.
func NewFramebuffer(dev Device, x, y int) (*Framebuffer, error) {
	info, err := dev.ScreenInfo()
	if err != nil {
		return nil, errs.Wrapf(err, "screen info")
	}
	pixFmt, err := derivePixFmt(info)
	if err != nil {
		return nil, err
	}
	screen, err := dev.Map()
	if err != nil {
		return nil, errs.Wrapf(err, "map screen")
	}
	f := &Framebuffer{
		dev:       dev,
		Info:      info,
		PixFmt:    pixFmt,
		X:         x,
		Y:         y,
		screen:    screen,
		off:       make([]byte, info.BytesPerLine*info.Height),
		blackLine: make([]byte, info.BytesPerLine),
	}
	log.Info().Uint32("width", info.Width).Uint32("height", info.Height).
		Uint32("bpp", info.BitsPerPixel).Str("pixfmt", pixFmt.String()).Msg("framebuffer ready")
	return f, nil
}

// derivePixFmt maps bit depth plus channel offsets onto a decoder pixel
// format.
func derivePixFmt(info ScreenInfo) (decoder.PixFmt, error) {
	switch info.BitsPerPixel {
	case 16:
		if info.RedOffset == 11 && info.RedLen == 5 &&
			info.GreenOffset == 5 && info.GreenLen == 6 &&
			info.BlueOffset == 0 && info.BlueLen == 5 {
			return decoder.PixFmtRGB565, nil
		}
	case 32:
		if info.BlueOffset == 0 && info.GreenOffset == 8 && info.RedOffset == 16 {
			return decoder.PixFmtBGRA32, nil
		}
	}
	return 0, errs.Wrapf(errs.ErrFormatUnsupported, "%dbpp r%d/g%d/b%d",
		info.BitsPerPixel, info.RedOffset, info.GreenOffset, info.BlueOffset)
}

// BytesPerPixel ...
func (f *Framebuffer) BytesPerPixel() int {
	return int(f.Info.BitsPerPixel) / 8
}

// Target is the surface draws land on.
func (f *Framebuffer) Target() []byte {
	return f.off
}

// BlackLine is a one-row source for filler draws.
func (f *Framebuffer) BlackLine() PlaneView {
	return PlaneView{
		Data:         f.blackLine,
		BytesPerLine: int(f.Info.BytesPerLine),
		Width:        int(f.Info.Width),
		Height:       1,
	}
}

// Flip copies the offscreen shadow to the mapped screen.
func (f *Framebuffer) Flip() {
	copy(f.screen, f.off)
}

// Close unmaps and closes the device.
func (f *Framebuffer) Close() {
	if f.screen != nil {
		if err := f.dev.Unmap(f.screen); err != nil {
			log.Warn().Err(err).Msg("unmap screen")
		}
		f.screen = nil
	}
	if err := f.dev.Close(); err != nil {
		log.Warn().Err(err).Msg("close framebuffer")
	}
}

// Bitblit copies srcRect from src onto dst at (dstX, dstY), clipping both
// rectangles against their surfaces. dst must use this framebuffer's
// geometry.
func (f *Framebuffer) Bitblit(dst []byte, dstX, dstY int, src PlaneView, srcRect Rect) {
	bpp := f.BytesPerPixel()
	srcRect, dstX, dstY = clip(srcRect, src.Width, src.Height, dstX, dstY,
		int(f.Info.Width), int(f.Info.Height))
	if srcRect.W <= 0 || srcRect.H <= 0 {
		return
	}

	dstStride := int(f.Info.BytesPerLine)
	if dstX == 0 && srcRect.X == 0 && src.BytesPerLine == dstStride {
		n := srcRect.H * dstStride
		copy(dst[dstY*dstStride:dstY*dstStride+n], src.Data[srcRect.Y*src.BytesPerLine:srcRect.Y*src.BytesPerLine+n])
		return
	}

	rowBytes := srcRect.W * bpp
	for y := 0; y < srcRect.H; y++ {
		so := (srcRect.Y+y)*src.BytesPerLine + srcRect.X*bpp
		do := (dstY+y)*dstStride + dstX*bpp
		copy(dst[do:do+rowBytes], src.Data[so:so+rowBytes])
	}
}

// BlitLine copies one source row onto one destination row; the line-plan
// renderer uses it so destination memory is walked sequentially.
func (f *Framebuffer) BlitLine(dst []byte, dstX, dstY int, src PlaneView, srcX, srcY, w int) {
	f.Bitblit(dst, dstX, dstY, src, Rect{X: srcX, Y: srcY, W: w, H: 1})
}

// clip trims srcRect to the source bounds and the destination placement
// to the destination bounds, shifting the source origin to match.
func clip(srcRect Rect, srcW, srcH, dstX, dstY, dstW, dstH int) (Rect, int, int) {
	if srcRect.X < 0 {
		srcRect.W += srcRect.X
		srcRect.X = 0
	}
	if srcRect.Y < 0 {
		srcRect.H += srcRect.Y
		srcRect.Y = 0
	}
	if srcRect.X+srcRect.W > srcW {
		srcRect.W = srcW - srcRect.X
	}
	if srcRect.Y+srcRect.H > srcH {
		srcRect.H = srcH - srcRect.Y
	}

	if dstX < 0 {
		srcRect.X -= dstX
		srcRect.W += dstX
		dstX = 0
	}
	if dstY < 0 {
		srcRect.Y -= dstY
		srcRect.H += dstY
		dstY = 0
	}
	if dstX+srcRect.W > dstW {
		srcRect.W = dstW - dstX
	}
	if dstY+srcRect.H > dstH {
		srcRect.H = dstH - dstY
	}
	return srcRect, dstX, dstY
}
