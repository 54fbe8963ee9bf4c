package ssd1306axi

import (
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Panel geometry.
const (
	Width      = 128
	Height     = 32
	Pages      = Height / 8
	FrameBytes = Width * Pages
	FrameWords = FrameBytes / 4
)

// PackImage converts a 128x32 image into the words of a full frame.
//
// Bytes are emitted page by page, one byte per column holding eight
// vertical pixels with the top one in the least significant bit. Four
// consecutive bytes form a word, the first one in the most significant
// position. mirror reverses the column order inside each page.
func PackImage(img *image1bit.VerticalLSB, mirror bool) []uint32 {
	words := make([]uint32, FrameWords)
	for p := 0; p < Pages; p++ {
		for i := 0; i < Width; i++ {
			x := i
			if mirror {
				x = Width - 1 - i
			}
			o, _ := img.PixOffset(x, p*8)
			b := img.Pix[o]
			n := p*Width + i
			words[n/4] |= uint32(b) << (24 - 8*uint(n%4))
		}
	}
	return words
}

// WordBytes splits a data word into the bytes the panel receives, in order.
func WordBytes(w uint32) [4]byte {
	return [4]byte{byte(w >> 24), byte(w >> 16), byte(w >> 8), byte(w)}
}
