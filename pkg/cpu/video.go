package cpu

import (
	"image"
	"image/png"
	"os"
)

// pico8Palette contains the RGB565 equivalents of the Pico-8-inspired 16-color palette.
var pico8Palette = [16]uint16{
	0x0000, // 0  Black
	0x194A, // 1  Dark Blue
	0x792A, // 2  Dark Purple
	0x042A, // 3  Dark Green
	0xAA86, // 4  Brown
	0x5AA9, // 5  Dark Gray
	0xC618, // 6  Light Gray
	0xFF9D, // 7  White
	0xF809, // 8  Red
	0xFD00, // 9  Orange
	0xFF64, // 10 Yellow
	0x0726, // 11 Green
	0x2D7F, // 12 Blue
	0x83B3, // 13 Indigo
	0xFBB5, // 14 Pink
	0xFE75, // 15 Peach
}

// rgb565ToRGBA converts an RGB565 color to four RGBA bytes using bit-expansion.
func rgb565ToRGBA(val uint16) (r, g, b, a byte) {
	r5 := byte((val >> 11) & 0x1F)
	g6 := byte((val >> 5) & 0x3F)
	b5 := byte(val & 0x1F)
	r = (r5 << 3) | (r5 >> 2)
	g = (g6 << 2) | (g6 >> 4)
	b = (b5 << 3) | (b5 >> 2)
	a = 0xFF
	return
}

// CellRGBA maps a framebuffer cell to its color. The low nibble selects the
// palette entry; higher bits are ignored.
func CellRGBA(cell int16) (r, g, b, a byte) {
	return rgb565ToRGBA(pico8Palette[cell&0x0F])
}

// FramebufferRGBA renders the framebuffer one pixel per cell, 40×30 RGBA8888.
func (c *CPU) FramebufferRGBA() []byte {
	fb := c.Framebuffer()
	pixels := make([]byte, FramebufferCells*4)
	for i, cell := range fb {
		pixels[i*4+0], pixels[i*4+1], pixels[i*4+2], pixels[i*4+3] = CellRGBA(cell)
	}
	return pixels
}

func (c *CPU) FramebufferImage() *image.RGBA {
	return &image.RGBA{
		Pix:    c.FramebufferRGBA(),
		Stride: FramebufferCols * 4,
		Rect:   image.Rect(0, 0, FramebufferCols, FramebufferRows),
	}
}

// SaveScreenshot encodes the current framebuffer as a PNG and writes it to filename.
func (c *CPU) SaveScreenshot(filename string) error {
	img := c.FramebufferImage()
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
