package frames

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"time"

	"github.com/fogleman/gg"
	"github.com/hajimehoshi/bitmapfont/v2"
	"github.com/jypelle/oledanim/internal/ssd1306axi"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	panelW = float64(ssd1306axi.Width)
	panelH = float64(ssd1306axi.Height)
)

var white = image.NewUniform(color.White)

func newContext() *gg.Context {
	dc := gg.NewContext(ssd1306axi.Width, ssd1306axi.Height)
	dc.SetColor(color.Black)
	dc.Clear()
	dc.SetColor(color.White)
	dc.SetFontFace(bitmapfont.Face)
	return dc
}

// Label renders text centered on an otherwise black panel image.
func Label(text string) *image.RGBA {
	img := image.NewRGBA(panelRect)
	d := &font.Drawer{Dst: img, Src: white, Face: bitmapfont.Face}
	width := d.MeasureString(text)
	ascent := bitmapfont.Face.Metrics().Ascent
	d.Dot = fixed.Point26_6{
		X: (fixed.I(ssd1306axi.Width) - width) / 2,
		Y: (fixed.I(ssd1306axi.Height) + ascent) / 2,
	}
	d.DrawString(text)
	return img
}

// Scroller scrolls text from right to left, step pixels per frame.
func Scroller(name, text string, step int, d time.Duration, opts PackOpts) *Animation {
	if step <= 0 {
		step = 1
	}
	tw, _ := newContext().MeasureString(text)
	a := &Animation{Name: name}
	for x := panelW; x > -tw; x -= float64(step) {
		dc := newContext()
		dc.DrawStringAnchored(text, x, panelH/2, 0, 0.5)
		a.Frames = append(a.Frames, FromImage(dc.Image(), d, opts))
	}
	return a
}

// Mirror scrolls text on the left half of the panel while its reflection
// scrolls the other way on the right half.
func Mirror(name, text string, d time.Duration, opts PackOpts) *Animation {
	tw, _ := newContext().MeasureString(text)
	a := &Animation{Name: name}
	for x := panelW / 2; x > -tw; x -= 2 {
		half := gg.NewContext(ssd1306axi.Width/2, ssd1306axi.Height)
		half.SetColor(color.White)
		half.SetFontFace(bitmapfont.Face)
		half.DrawStringAnchored(text, x, panelH/2, 0, 0.5)

		dc := newContext()
		dc.DrawImage(half.Image(), 0, 0)
		dc.DrawLine(panelW/2, 2, panelW/2, panelH-2)
		dc.SetLineWidth(1)
		dc.Stroke()
		dc.Push()
		dc.ScaleAbout(-1, 1, panelW/2, panelH/2)
		dc.DrawImage(half.Image(), 0, 0)
		dc.Pop()
		a.Frames = append(a.Frames, FromImage(dc.Image(), d, opts))
	}
	return a
}

// Eyes draws a pair of eyes looking around. blinks eyelid closings are
// spread over the animation; with wideShut the eyes slowly close and reopen
// instead.
func Eyes(name string, blinks int, wideShut bool, d time.Duration, opts PackOpts) *Animation {
	const n = 48
	a := &Animation{Name: name}
	for i := 0; i < n; i++ {
		phase := float64(i) / n
		open := 1.0
		if wideShut {
			open = math.Abs(math.Cos(phase * math.Pi))
		} else if blinks > 0 {
			period := n / blinks
			if period < 4 {
				period = 4
			}
			if k := i % period; k >= period-3 {
				open = []float64{0.5, 0.05, 0.5}[k-(period-3)]
			}
		}
		look := 6 * math.Sin(phase*2*math.Pi)

		dc := newContext()
		for _, cx := range []float64{panelW/2 - 28, panelW/2 + 28} {
			ry := 12 * open
			if ry < 1 {
				ry = 1
			}
			dc.SetColor(color.White)
			dc.DrawEllipse(cx, panelH/2, 22, ry)
			dc.Fill()
			if open > 0.3 {
				dc.SetColor(color.Black)
				dc.DrawCircle(cx+look, panelH/2, 5*open)
				dc.Fill()
			}
		}
		a.Frames = append(a.Frames, FromImage(dc.Image(), d, opts))
	}
	return a
}

// Swarm moves count particles bouncing on the panel borders. The result
// only depends on seed.
func Swarm(name string, count, frameCount int, seed int64, d time.Duration, opts PackOpts) *Animation {
	type particle struct{ x, y, vx, vy float64 }
	r := rand.New(rand.NewSource(seed))
	ps := make([]particle, count)
	for i := range ps {
		ps[i] = particle{
			x:  r.Float64() * panelW,
			y:  r.Float64() * panelH,
			vx: r.Float64()*4 - 2,
			vy: r.Float64()*2 - 1,
		}
	}
	a := &Animation{Name: name}
	for i := 0; i < frameCount; i++ {
		dc := newContext()
		for j := range ps {
			p := &ps[j]
			dc.DrawPoint(p.x, p.y, 1)
			dc.Fill()
			p.x += p.vx
			p.y += p.vy
			if p.x < 0 || p.x >= panelW {
				p.vx = -p.vx
				p.x += 2 * p.vx
			}
			if p.y < 0 || p.y >= panelH {
				p.vy = -p.vy
				p.y += 2 * p.vy
			}
		}
		a.Frames = append(a.Frames, FromImage(dc.Image(), d, opts))
	}
	return a
}

// Still is a single frame animation.
func Still(name string, img image.Image, d time.Duration, opts PackOpts) *Animation {
	return &Animation{Name: name, Frames: []Frame{FromImage(img, d, opts)}}
}

// Builtin returns the animations available without any manifest.
func Builtin(opts PackOpts) []*Animation {
	return []*Animation{
		Eyes("Don't Blink", 2, false, 80*time.Millisecond, opts),
		Mirror("Behind the Mirror", "Behind the Mirror", 40*time.Millisecond, opts),
		Swarm("The Swarm", 40, 60, 1, 50*time.Millisecond, opts),
		Eyes("Eyes Wide Shut", 0, true, 60*time.Millisecond, opts),
	}
}
