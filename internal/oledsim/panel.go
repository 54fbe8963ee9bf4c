// Package oledsim emulates the SSD1306 panel sitting behind the transfer
// peripheral.
//
// A Panel consumes the unit stream produced by a simulated register bank,
// decodes commands, maintains the 128x32 graphic display RAM and renders
// what the physical panel would show.
package oledsim

import (
	"image"
	"sync"

	"github.com/jypelle/oledanim/internal/regio"
	"github.com/jypelle/oledanim/internal/ssd1306axi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Addressing modes selected by MemoryAddressingMode.
const (
	HorizontalAddressing = 0
	VerticalAddressing   = 1
	PageAddressing       = 2
)

// powerUpSequence is what the peripheral sends on its own when the
// power-enable bit is raised.
var powerUpSequence = []byte{
	byte(ssd1306axi.DisplayOff),
	byte(ssd1306axi.ChargePump), 0x14,
	byte(ssd1306axi.PreChargePeriod), 0xF1,
	byte(ssd1306axi.ContrastControl), 0x0F,
	byte(ssd1306axi.SegmentReMap0),
	byte(ssd1306axi.ComOutputScanDirectionNormal),
	byte(ssd1306axi.ComPinsConfiguration), 0x00,
	byte(ssd1306axi.MemoryAddressingMode), 0x00,
	byte(ssd1306axi.DisplayOn),
}

// State is a summary of the panel registers.
type State struct {
	Powered    bool
	DisplayOn  bool
	Inverse    bool
	EntireOn   bool
	SegRemap   bool
	ComRemap   bool
	Contrast   byte
	Addressing int
	// Frames counts the addressing windows completely filled so far.
	Frames int
}

// Panel is an emulated SSD1306 controller with its 128x32 panel.
type Panel struct {
	mu      sync.Mutex
	st      State
	ram     *image1bit.VerticalLSB
	pending []byte

	startLine          int
	colStart, colEnd   int
	pageStart, pageEnd int
	col, page          int

	changed chan struct{}
}

// New returns an unpowered panel with a blank display RAM.
func New() *Panel {
	p := &Panel{
		ram:     image1bit.NewVerticalLSB(image.Rect(0, 0, ssd1306axi.Width, ssd1306axi.Height)),
		changed: make(chan struct{}, 1),
	}
	p.resetWindow()
	return p
}

// PowerChanged implements regio.Sink.
func (p *Panel) PowerChanged(on bool) {
	p.mu.Lock()
	p.st.Powered = on
	p.pending = nil
	if on {
		for _, b := range powerUpSequence {
			p.command(b)
		}
	} else {
		p.st.DisplayOn = false
	}
	p.mu.Unlock()
	p.notify()
}

// Transferred implements regio.Sink.
func (p *Panel) Transferred(t regio.Transfer) {
	p.mu.Lock()
	visible := false
	if !p.st.Powered {
		p.mu.Unlock()
		return
	}
	switch {
	case !t.Data:
		visible = p.command(byte(t.Value))
	case t.Byte:
		visible = p.write(byte(t.Value))
	default:
		for _, b := range ssd1306axi.WordBytes(t.Value) {
			if p.write(b) {
				visible = true
			}
		}
	}
	p.mu.Unlock()
	if visible {
		p.notify()
	}
}

// Changed is signaled, without blocking, whenever the visible content may
// have changed.
func (p *Panel) Changed() <-chan struct{} {
	return p.changed
}

// State returns the current panel registers.
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.st
}

// RAM returns a copy of the display RAM, without any of the display
// transformations.
func (p *Panel) RAM() *image1bit.VerticalLSB {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := image1bit.NewVerticalLSB(p.ram.Rect)
	copy(c.Pix, p.ram.Pix)
	return c
}

// Snapshot renders what the panel shows.
func (p *Panel) Snapshot() *image1bit.VerticalLSB {
	p.mu.Lock()
	defer p.mu.Unlock()
	img := image1bit.NewVerticalLSB(p.ram.Rect)
	if !p.st.Powered || !p.st.DisplayOn {
		return img
	}
	for y := 0; y < ssd1306axi.Height; y++ {
		row := (y + p.startLine) % ssd1306axi.Height
		if p.st.ComRemap {
			row = ssd1306axi.Height - 1 - row
		}
		for x := 0; x < ssd1306axi.Width; x++ {
			var bit image1bit.Bit
			if p.st.EntireOn {
				bit = image1bit.On
			} else {
				col := x
				if p.st.SegRemap {
					col = ssd1306axi.Width - 1 - x
				}
				bit = p.ram.BitAt(col, row)
			}
			if p.st.Inverse {
				bit = !bit
			}
			img.SetBit(x, y, bit)
		}
	}
	return img
}

func (p *Panel) notify() {
	select {
	case p.changed <- struct{}{}:
	default:
	}
}

func (p *Panel) resetWindow() {
	p.colStart, p.colEnd = 0, ssd1306axi.Width-1
	p.pageStart, p.pageEnd = 0, ssd1306axi.Pages-1
	p.col, p.page = 0, 0
}

// command accumulates one command byte and executes the command once all
// its arguments arrived. It reports whether the visible content changed.
func (p *Panel) command(b byte) bool {
	p.pending = append(p.pending, b)
	op := p.pending[0]
	if len(p.pending) <= opcode(op).Arity() {
		return false
	}
	args := p.pending[1:]
	p.pending = nil
	return p.exec(op, args)
}

// opcode folds the opcodes carrying an operand in their low bits.
func opcode(b byte) ssd1306axi.Command {
	switch {
	case b < 0x10:
		return ssd1306axi.LowerColumnStartAddress
	case b < 0x20:
		return ssd1306axi.HigherColumnStartAddress
	case b >= 0x40 && b < 0x80:
		return ssd1306axi.DisplayStartLine
	case b >= 0xB0 && b < 0xB8:
		return ssd1306axi.PageStartAddress
	default:
		return ssd1306axi.Command(b)
	}
}

func (p *Panel) exec(op byte, args []byte) bool {
	switch c := opcode(op); c {
	case ssd1306axi.LowerColumnStartAddress:
		p.col = p.col&0xF0 | int(op&0x0F)
	case ssd1306axi.HigherColumnStartAddress:
		p.col = (p.col&0x0F | int(op&0x07)<<4) % ssd1306axi.Width
	case ssd1306axi.MemoryAddressingMode:
		p.st.Addressing = int(args[0] & 0x03)
		p.resetWindow()
	case ssd1306axi.ColumnAddress:
		p.colStart = int(args[0]) % ssd1306axi.Width
		p.colEnd = int(args[1]) % ssd1306axi.Width
		p.col = p.colStart
	case ssd1306axi.PageAddress:
		p.pageStart = int(args[0]) % ssd1306axi.Pages
		p.pageEnd = int(args[1]) % ssd1306axi.Pages
		p.page = p.pageStart
	case ssd1306axi.DisplayStartLine:
		p.startLine = int(op&0x3F) % ssd1306axi.Height
		return true
	case ssd1306axi.PageStartAddress:
		p.page = int(op&0x07) % ssd1306axi.Pages
	case ssd1306axi.ContrastControl:
		p.st.Contrast = args[0]
	case ssd1306axi.SegmentReMap0, ssd1306axi.SegmentReMap127:
		p.st.SegRemap = c == ssd1306axi.SegmentReMap127
		return true
	case ssd1306axi.ComOutputScanDirectionNormal, ssd1306axi.ComOutputScanDirectionRemapped:
		p.st.ComRemap = c == ssd1306axi.ComOutputScanDirectionRemapped
		return true
	case ssd1306axi.EntireDisplayOn, ssd1306axi.EntireDisplayResume:
		p.st.EntireOn = c == ssd1306axi.EntireDisplayOn
		return true
	case ssd1306axi.NormalDisplay, ssd1306axi.InverseDisplay:
		p.st.Inverse = c == ssd1306axi.InverseDisplay
		return true
	case ssd1306axi.DisplayOn, ssd1306axi.DisplayOff:
		p.st.DisplayOn = c == ssd1306axi.DisplayOn
		return true
	}
	return false
}

// write stores one data byte at the current position and advances it the
// way the selected addressing mode does. It reports whether the window got
// completely filled.
func (p *Panel) write(b byte) bool {
	o, _ := p.ram.PixOffset(p.col, p.page*8)
	p.ram.Pix[o] = b
	wrapped := false
	switch p.st.Addressing {
	case HorizontalAddressing:
		if p.col++; p.col > p.colEnd {
			p.col = p.colStart
			if p.page++; p.page > p.pageEnd {
				p.page = p.pageStart
				wrapped = true
			}
		}
	case VerticalAddressing:
		if p.page++; p.page > p.pageEnd {
			p.page = p.pageStart
			if p.col++; p.col > p.colEnd {
				p.col = p.colStart
				wrapped = true
			}
		}
	default:
		if p.col++; p.col >= ssd1306axi.Width {
			p.col = 0
			wrapped = true
		}
	}
	if wrapped {
		p.st.Frames++
	}
	return wrapped
}
