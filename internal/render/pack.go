package render

import (
	"encoding/binary"
	"fmt"
	"image"
)

// PixelFormat is a framebuffer memory layout
type PixelFormat int

const (
	FormatBGRA32 PixelFormat = iota // 4 bytes: B, G, R, A
	FormatRGB565                    // 2 bytes little-endian 5-6-5
)

// String returns the format name
func (f PixelFormat) String() string {
	switch f {
	case FormatBGRA32:
		return "BGRA32"
	case FormatRGB565:
		return "RGB565"
	}
	return fmt.Sprintf("PixelFormat(%d)", int(f))
}

// FormatForDepth selects the pixel format for a framebuffer depth in bytes
func FormatForDepth(bytesPerPixel int) (PixelFormat, error) {
	switch bytesPerPixel {
	case 4:
		return FormatBGRA32, nil
	case 2:
		return FormatRGB565, nil
	}
	return 0, fmt.Errorf("unsupported framebuffer depth: %d bytes per pixel", bytesPerPixel)
}

// BytesPerPixel returns the size of one packed pixel
func (f PixelFormat) BytesPerPixel() int {
	if f == FormatRGB565 {
		return 2
	}
	return 4
}

// RGB565 packs one color into the 5-6-5 layout
func RGB565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// Pack converts img into dst in the given format, row by row. Pixels that do
// not fit in dst are dropped. It returns the number of bytes written.
func Pack(dst []byte, img *image.RGBA, format PixelFormat) int {
	bpp := format.BytesPerPixel()
	w, h := img.Rect.Dx(), img.Rect.Dy()
	n := 0
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			if n+bpp > len(dst) {
				return n
			}
			r, g, b := src[x*4], src[x*4+1], src[x*4+2]
			switch format {
			case FormatRGB565:
				binary.LittleEndian.PutUint16(dst[n:], RGB565(r, g, b))
			default:
				dst[n] = b
				dst[n+1] = g
				dst[n+2] = r
				dst[n+3] = 255
			}
			n += bpp
		}
	}
	return n
}
