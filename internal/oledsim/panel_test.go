package oledsim

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jypelle/oledanim/internal/regio"
	"github.com/jypelle/oledanim/internal/ssd1306axi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

func setup(t *testing.T) (*ssd1306axi.Dev, *Panel) {
	t.Helper()
	p := New()
	bank := regio.NewSim(&regio.SimOpts{BusyPolls: 1, Sink: p})
	d := ssd1306axi.New(bank, &ssd1306axi.Opts{Wait: ssd1306axi.Spin{}})
	d.PowerOn()
	return d, p
}

func testImage() *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, ssd1306axi.Width, ssd1306axi.Height))
	for x := 0; x < 20; x++ {
		img.SetBit(x, x%ssd1306axi.Height, image1bit.On)
	}
	img.SetBit(127, 31, image1bit.On)
	return img
}

func TestPanel_powerUp(t *testing.T) {
	_, p := setup(t)
	want := State{Powered: true, DisplayOn: true, Contrast: 0x0F}
	if diff := cmp.Diff(want, p.State()); diff != "" {
		t.Fatalf("state (-want +got):\n%s", diff)
	}
	select {
	case <-p.Changed():
	default:
		t.Fatal("power-up not signaled")
	}
}

func TestPanel_frame(t *testing.T) {
	d, p := setup(t)
	img := testImage()
	if err := d.WriteFrame(ssd1306axi.PackImage(img, false)); err != nil {
		t.Fatal(err)
	}
	if n := p.State().Frames; n != 1 {
		t.Fatalf("Frames = %d", n)
	}
	if diff := cmp.Diff(img.Pix, p.RAM().Pix); diff != "" {
		t.Fatalf("RAM (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(img.Pix, p.Snapshot().Pix); diff != "" {
		t.Fatalf("snapshot (-want +got):\n%s", diff)
	}
}

func TestPanel_transformations(t *testing.T) {
	d, p := setup(t)
	img := testImage()
	if err := d.WriteFrame(ssd1306axi.PackImage(img, true)); err != nil {
		t.Fatal(err)
	}
	// The mirrored frame shows upright once the segments are remapped.
	if err := d.SendCommand(ssd1306axi.SegmentReMap127); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(img.Pix, p.Snapshot().Pix); diff != "" {
		t.Fatalf("remapped snapshot (-want +got):\n%s", diff)
	}

	if err := d.SendCommand(ssd1306axi.EntireDisplayOn); err != nil {
		t.Fatal(err)
	}
	for i, b := range p.Snapshot().Pix {
		if b != 0xFF {
			t.Fatalf("byte %d = 0x%02x with entire display on", i, b)
		}
	}
	if err := d.SendCommand(ssd1306axi.EntireDisplayResume); err != nil {
		t.Fatal(err)
	}
	if err := d.SendCommand(ssd1306axi.InverseDisplay); err != nil {
		t.Fatal(err)
	}
	if got := p.Snapshot().BitAt(0, 0); got != image1bit.Off {
		t.Fatal("inverse display kept pixel on")
	}
	if got := p.Snapshot().BitAt(1, 0); got != image1bit.On {
		t.Fatal("inverse display kept pixel off")
	}

	d.PowerOff()
	for i, b := range p.Snapshot().Pix {
		if b != 0 {
			t.Fatalf("byte %d = 0x%02x while unpowered", i, b)
		}
	}
}

func TestPanel_pageAddressing(t *testing.T) {
	d, p := setup(t)
	for _, c := range []ssd1306axi.Cmd{
		{Op: ssd1306axi.MemoryAddressingMode, Args: []byte{PageAddressing}},
		{Op: ssd1306axi.PageStartAddress | 2},
		{Op: ssd1306axi.LowerColumnStartAddress | 0x4},
		{Op: ssd1306axi.HigherColumnStartAddress | 0x1},
	} {
		if err := d.Send(c); err != nil {
			t.Fatal(err)
		}
	}
	if err := d.SendBytes([]byte{0x81, 0x42}); err != nil {
		t.Fatal(err)
	}
	ram := p.RAM()
	o, _ := ram.PixOffset(0x14, 16)
	if got := ram.Pix[o]; got != 0x81 {
		t.Fatalf("got 0x%02x", got)
	}
	o, _ = ram.PixOffset(0x15, 16)
	if got := ram.Pix[o]; got != 0x42 {
		t.Fatalf("got 0x%02x", got)
	}
}

func TestPanel_ignoresUnpowered(t *testing.T) {
	p := New()
	p.Transferred(regio.Transfer{Value: 0xFF, Data: true, Byte: true})
	if p.RAM().Pix[0] != 0 {
		t.Fatal("unpowered panel stored data")
	}
}
