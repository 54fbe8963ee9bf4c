package device

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"
	"time"

	"github.com/jypelle/oledanim/internal/oledsim"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
)

var (
	litColor   = color.NRGBA{R: 0x60, G: 0xD0, B: 0xFF, A: 0xFF}
	unlitColor = color.NRGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xFF}
)

// Preview renders the emulated panel in the terminal, one block per
// scale x scale pixels.
type Preview struct {
	lock    sync.Mutex
	panel   *oledsim.Panel
	w       io.Writer
	palette ansi256.Palette
	scale   int
	period  time.Duration

	buf   bytes.Buffer
	lines int

	askDone chan bool
	done    chan bool
}

func NewPreview(panel *oledsim.Panel) *Preview {
	return &Preview{
		panel:   panel,
		w:       colorable.NewColorableStdout(),
		palette: *ansi256.Default,
		scale:   2,
		period:  100 * time.Millisecond,
		askDone: make(chan bool),
		done:    make(chan bool),
	}
}

// Start redraws the preview in place each time the panel changes, at most
// once per period.
func (d *Preview) Start() {
	logrus.Infof("Start preview device")
	go func() {
		ticker := time.NewTicker(d.period)
		defer ticker.Stop()
		dirty := true
		for loop := true; loop; {
			select {
			case <-d.panel.Changed():
				dirty = true
			case <-ticker.C:
				if dirty {
					d.redraw()
					dirty = false
				}
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
}

func (d *Preview) Stop() {
	logrus.Infof("Stop preview device")
	d.askDone <- true
	<-d.done
}

// Show prints the panel once below the current output.
func (d *Preview) Show() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.lines = 0
	d.render(d.panel.Snapshot())
}

func (d *Preview) redraw() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.render(d.panel.Snapshot())
}

func (d *Preview) render(img image.Image) {
	d.buf.Reset()
	if d.lines > 0 {
		fmt.Fprintf(&d.buf, "\033[%dA", d.lines)
	}
	d.lines = renderBlocks(&d.buf, img, &d.palette, d.scale)
	if _, err := d.buf.WriteTo(d.w); err != nil {
		logrus.Debugf("Unable to render preview: %v", err)
	}
}

// renderBlocks writes img as rows of colored blocks and returns the number of
// lines written. A block is lit when any pixel it covers is lit.
func renderBlocks(w *bytes.Buffer, img image.Image, palette *ansi256.Palette, scale int) int {
	b := img.Bounds()
	lines := 0
	for y := b.Min.Y; y < b.Max.Y; y += scale {
		w.WriteString("\r\033[0m")
		for x := b.Min.X; x < b.Max.X; x += scale {
			c := unlitColor
			if anyLit(img, image.Rect(x, y, x+scale, y+scale).Intersect(b)) {
				c = litColor
			}
			w.WriteString(palette.Block(c))
		}
		w.WriteString("\033[0m\n")
		lines++
	}
	return lines
}

func anyLit(img image.Image, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if l, _, _, _ := color.GrayModel.Convert(img.At(x, y)).RGBA(); l > 0x7FFF {
				return true
			}
		}
	}
	return false
}
