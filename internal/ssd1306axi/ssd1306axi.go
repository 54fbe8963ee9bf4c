// Package ssd1306axi controls a 128x32 SSD1306 OLED panel wired behind a
// memory-mapped four-register transfer peripheral.
//
// The peripheral runs the panel power-up and power-down sequences by itself
// when its power-enable bit changes. Every other byte reaching the panel is
// pushed by software through a busy-wait handshake: the value is written to
// Payload, the send-request bit is raised in Control, then Status is polled
// until the busy flag drops. The send-request bit is cleared right after the
// first Status read so a unit is never latched twice.
//
// Transfers only happen while the peripheral is powered. Sending anything to
// an unpowered peripheral is a silent no-op.
package ssd1306axi

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"github.com/jypelle/oledanim/internal/regio"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// DefaultTimeout bounds a single handshake when Opts do not specify a
// policy.
const DefaultTimeout = 100 * time.Millisecond

// Opts defines the options for the device.
type Opts struct {
	// Wait is the busy-wait policy. Defaults to Bounded{Timeout: DefaultTimeout}.
	Wait WaitPolicy
	// MirrorColumns reverses the column order of images sent with Draw.
	MirrorColumns bool
}

// Dev is an open handle to the peripheral.
//
// Operations are serialized; a power-off never interleaves a handshake.
type Dev struct {
	mu     sync.Mutex
	bank   regio.Bank
	wait   WaitPolicy
	mirror bool
	// inFlight is set when a wait gave up with the busy flag still raised.
	inFlight bool
}

// New returns a Dev driving the peripheral behind bank.
func New(bank regio.Bank, opts *Opts) *Dev {
	d := &Dev{bank: bank, wait: Bounded{Timeout: DefaultTimeout}}
	if opts != nil {
		if opts.Wait != nil {
			d.wait = opts.Wait
		}
		d.mirror = opts.MirrorColumns
	}
	return d
}

func (d *Dev) String() string {
	return fmt.Sprintf("ssd1306axi.Dev{%s}", d.bank)
}

// PowerOn asks the peripheral to run its power-up sequence.
//
// It returns immediately; the caller is responsible for waiting until the
// panel is ready before sending commands.
func (d *Dev) PowerOn() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bank.WriteRegister(regio.Control, regio.PowerEnable)
}

// PowerOff asks the peripheral to run its power-down sequence.
func (d *Dev) PowerOff() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bank.WriteRegister(regio.Control, ^regio.PowerEnable&^regio.SendRequest)
	d.inFlight = false
}

// Powered reports whether the power-enable bit is set.
func (d *Dev) Powered() bool {
	return d.bank.ReadRegister(regio.Control)&regio.PowerEnable != 0
}

// Send transmits p, one handshake per unit.
//
// The Control register is restored to the value read at the start once all
// units are sent or a unit failed. An error wrapping ErrUnresponsive is
// returned when the wait policy gives up; the remaining units are dropped.
// The next Send first waits, under the same policy, for that unit to
// complete and fails with ErrUnresponsive if it still does not.
func (d *Dev) Send(p Payload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	reg := d.bank.ReadRegister(regio.Control)
	if reg&regio.PowerEnable == 0 {
		return nil
	}
	ctl := p.control(reg)
	var err error
	for i, u := range p.units() {
		if err = d.handshake(ctl, u); err != nil {
			err = fmt.Errorf("ssd1306axi: %s unit %d: %w", p, i, err)
			break
		}
	}
	d.bank.WriteRegister(regio.Control, reg)
	return err
}

// SendCommand sends op followed by args as 8-bit command units.
func (d *Dev) SendCommand(op Command, args ...byte) error {
	return d.Send(Cmd{Op: op, Args: args})
}

// SendWords sends words as 32-bit data units.
func (d *Dev) SendWords(words []uint32) error {
	return d.Send(WordBurst(words))
}

// SendBytes sends b as 8-bit data units.
func (d *Dev) SendBytes(b []byte) error {
	return d.Send(ByteBurst(b))
}

// SendRaw sends a single 8-bit unit, tagged as data or command.
func (d *Dev) SendRaw(v byte, data bool) error {
	return d.Send(RawByte{Value: v, Data: data})
}

// WriteFrame selects the whole panel as the addressing window then sends
// a full frame of words.
func (d *Dev) WriteFrame(words []uint32) error {
	if len(words) != FrameWords {
		return fmt.Errorf("ssd1306axi: frame has %d words, want %d", len(words), FrameWords)
	}
	if err := d.SendCommand(ColumnAddress, 0, Width-1); err != nil {
		return err
	}
	if err := d.SendCommand(PageAddress, 0, Pages-1); err != nil {
		return err
	}
	return d.SendWords(words)
}

// ColorModel implements display.Drawer.
//
// It is a one bit color model, as implemented by image1bit.Bit.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, Width, Height)
}

// Draw implements display.Drawer.
//
// The whole panel is rewritten on every call.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	img := image1bit.NewVerticalLSB(d.Bounds())
	draw.Src.Draw(img, r.Intersect(d.Bounds()), src, sp)
	return d.WriteFrame(PackImage(img, d.mirror))
}

// Halt implements conn.Resource.
//
// It turns the panel display off; the peripheral stays powered.
func (d *Dev) Halt() error {
	return d.SendCommand(DisplayOff)
}

func (d *Dev) handshake(ctl, v uint32) error {
	if d.inFlight {
		if err := d.wait.Wait(d.busy); err != nil {
			return err
		}
		d.inFlight = false
	}
	d.bank.WriteRegister(regio.Payload, v)
	d.bank.WriteRegister(regio.Control, ctl|regio.SendRequest)
	first := true
	err := d.wait.Wait(func() bool {
		busy := d.busy()
		if first {
			first = false
			d.bank.WriteRegister(regio.Control, ctl&^regio.SendRequest)
		}
		return busy
	})
	if err != nil {
		d.inFlight = true
	}
	return err
}

func (d *Dev) busy() bool {
	return d.bank.ReadRegister(regio.Status)&regio.Busy != 0
}

var _ display.Drawer = &Dev{}
var _ conn.Resource = &Dev{}
