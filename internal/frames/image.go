package frames

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jypelle/oledanim/internal/ssd1306axi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// PackOpts controls the conversion of images into frames.
type PackOpts struct {
	// Invert swaps On and Off pixels.
	Invert bool
	// Mirror reverses the column order, as the panel wiring may require.
	Mirror bool
}

// FromImage converts the top-left 128x32 area of img into a frame.
func FromImage(img image.Image, d time.Duration, opts PackOpts) Frame {
	var bits *image1bit.VerticalLSB
	if v, ok := img.(*image1bit.VerticalLSB); ok && v.Rect == panelRect {
		bits = image1bit.NewVerticalLSB(panelRect)
		copy(bits.Pix, v.Pix)
	} else {
		bits = image1bit.NewVerticalLSB(panelRect)
		draw.Src.Draw(bits, panelRect, img, img.Bounds().Min)
	}
	if opts.Invert {
		for i := range bits.Pix {
			bits.Pix[i] = ^bits.Pix[i]
		}
	}
	return Frame{Words: ssd1306axi.PackImage(bits, opts.Mirror), Duration: d}
}

var panelRect = image.Rect(0, 0, ssd1306axi.Width, ssd1306axi.Height)

// LoadImage reads an XBM or any image format registered with the image
// package.
func LoadImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("frames: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".xbm") {
		img, err := DecodeXBM(data)
		if err != nil {
			return nil, fmt.Errorf("%w (%s)", err, path)
		}
		return img, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("frames: %s: %w", path, err)
	}
	return img, nil
}

// FromImageFiles builds an animation showing each image for d.
func FromImageFiles(name string, paths []string, d time.Duration, opts PackOpts) (*Animation, error) {
	a := &Animation{Name: name}
	for _, p := range paths {
		img, err := LoadImage(p)
		if err != nil {
			return nil, err
		}
		a.Frames = append(a.Frames, FromImage(img, d, opts))
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}
