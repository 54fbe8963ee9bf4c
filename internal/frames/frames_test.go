package frames

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jypelle/oledanim/internal/ssd1306axi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

func frame(fill uint32, d time.Duration) Frame {
	f := Frame{Words: make([]uint32, ssd1306axi.FrameWords), Duration: d}
	for i := range f.Words {
		f.Words[i] = fill + uint32(i)
	}
	return f
}

func TestNewStore(t *testing.T) {
	if _, err := NewStore(); err == nil {
		t.Fatal("empty store accepted")
	}
	if _, err := NewStore(&Animation{Name: "empty"}); err == nil {
		t.Fatal("animation without frame accepted")
	}
	if _, err := NewStore(&Animation{Name: "short", Frames: []Frame{{Words: []uint32{1}}}}); err == nil {
		t.Fatal("short frame accepted")
	}
	s, err := NewStore(
		&Animation{Name: "a", Frames: []Frame{frame(0, time.Millisecond)}},
		&Animation{Name: "b", Frames: []Frame{frame(0, time.Millisecond), frame(1, 2*time.Millisecond)}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 || s.At(1).Name != "b" {
		t.Fatalf("unexpected store %v", s.Names())
	}
	if d := s.At(1).Duration(); d != 3*time.Millisecond {
		t.Fatalf("Duration() = %s", d)
	}
}

func TestDecode(t *testing.T) {
	a := &Animation{Name: "x", Frames: []Frame{frame(0x100, 30*time.Millisecond), frame(0x200, 0)}}
	data := Encode(a)
	if len(data) != 4+2*(4+512) {
		t.Fatalf("encoded %d bytes", len(data))
	}
	got, err := Decode(data, "x")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if _, err := Decode(data[:len(data)-1], "x"); err == nil {
		t.Fatal("truncated data accepted")
	}
	if _, err := Decode([]byte{1}, "x"); err == nil {
		t.Fatal("data without header accepted")
	}
}

func TestDecodeInc(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("/* generated */\n{\n")
	for f := 0; f < 2; f++ {
		sb.WriteString("    { {")
		for i := 0; i < ssd1306axi.FrameWords; i++ {
			fmt.Fprintf(&sb, "0x%08x, ", uint32(f<<16|i))
		}
		fmt.Fprintf(&sb, "}, %d }, // frame %d\n", 100*(f+1), f)
	}
	sb.WriteString("};\n")

	a, err := DecodeInc(sb.String(), "inc")
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Frames) != 2 {
		t.Fatalf("got %d frames", len(a.Frames))
	}
	if a.Frames[1].Words[5] != 0x10005 || a.Frames[1].Duration != 200*time.Millisecond {
		t.Fatalf("frame 1: 0x%x %s", a.Frames[1].Words[5], a.Frames[1].Duration)
	}
	if _, err := DecodeInc("{ {0x1, 0x2}, 10 }", "bad"); err == nil {
		t.Fatal("short initializer accepted")
	}
}

const xbmX11 = `#define t_width 16
#define t_height 2
static unsigned char t_bits[] = {
   0x01, 0x80, 0x02, 0x00 };
`

const xbmX10 = `#define t_width 16
#define t_height 2
static unsigned short t_bits[] = {
   0x8001, 0x0002 };
`

func TestDecodeXBM(t *testing.T) {
	for _, src := range []string{xbmX11, xbmX10} {
		img, err := DecodeXBM([]byte(src))
		if err != nil {
			t.Fatal(err)
		}
		if img.Bounds() != image.Rect(0, 0, 16, 2) {
			t.Fatalf("bounds %v", img.Bounds())
		}
		var on []image.Point
		for y := 0; y < 2; y++ {
			for x := 0; x < 16; x++ {
				if img.BitAt(x, y) {
					on = append(on, image.Pt(x, y))
				}
			}
		}
		want := []image.Point{{0, 0}, {15, 0}, {1, 1}}
		if diff := cmp.Diff(want, on); diff != "" {
			t.Fatalf("pixels (-want +got):\n%s", diff)
		}
	}
	if _, err := DecodeXBM([]byte("static char x_bits[] = {0};")); err == nil {
		t.Fatal("xbm without dimensions accepted")
	}
}

func TestFromImage(t *testing.T) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, ssd1306axi.Width, ssd1306axi.Height))
	img.SetBit(0, 0, image1bit.On)

	f := FromImage(img, time.Second, PackOpts{})
	if f.Words[0] != 0x01000000 || f.Duration != time.Second {
		t.Fatalf("got 0x%08x %s", f.Words[0], f.Duration)
	}
	f = FromImage(img, 0, PackOpts{Invert: true})
	if f.Words[0] != 0xFEFFFFFF || f.Words[1] != 0xFFFFFFFF {
		t.Fatalf("inverted 0x%08x 0x%08x", f.Words[0], f.Words[1])
	}
	f = FromImage(img, 0, PackOpts{Mirror: true})
	if f.Words[31] != 0x00000001 {
		t.Fatalf("mirrored 0x%08x", f.Words[31])
	}
	if img.BitAt(0, 0) != image1bit.On || img.Pix[1] != 0 {
		t.Fatal("source image modified")
	}
}

func TestGenerators(t *testing.T) {
	anims := append(Builtin(PackOpts{}),
		Scroller("s", "hi", 4, time.Millisecond, PackOpts{}),
		Still("l", Label("oledanim"), time.Second, PackOpts{}),
	)
	s, err := NewStore(anims...)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Don't Blink", "Behind the Mirror", "The Swarm", "Eyes Wide Shut", "s", "l"}, s.Names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	lit := 0
	for _, w := range s.At(5).Frames[0].Words {
		if w != 0 {
			lit++
		}
	}
	if lit == 0 {
		t.Fatal("label rendered nothing")
	}
	a := Swarm("x", 10, 5, 42, time.Millisecond, PackOpts{})
	b := Swarm("x", 10, 5, 42, time.Millisecond, PackOpts{})
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatal("swarm is not deterministic")
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	if err := SaveFile(filepath.Join(dir, "one.oledanim"), &Animation{Frames: []Frame{frame(7, 5*time.Millisecond)}}); err != nil {
		t.Fatal(err)
	}
	xbm := fmt.Sprintf("#define p_width 128\n#define p_height 32\nstatic char p_bits[] = {0x01%s};\n", strings.Repeat(", 0x00", 16*32-1))
	if err := os.WriteFile(filepath.Join(dir, "p.xbm"), []byte(xbm), 0660); err != nil {
		t.Fatal(err)
	}
	manifest := `
animations:
  - name: One
    file: one.oledanim
  - name: Picture
    images: [p.xbm, p.xbm]
    frame_ms: 250
  - name: Hello
    generator: label
`
	path := filepath.Join(dir, "animations.yaml")
	if err := os.WriteFile(path, []byte(manifest), 0660); err != nil {
		t.Fatal(err)
	}
	s, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"One", "Picture", "Hello"}, s.Names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	if f := s.At(0).Frames[0]; f.Words[1] != 8 || f.Duration != 5*time.Millisecond {
		t.Fatalf("binary frame %x %s", f.Words[1], f.Duration)
	}
	pic := s.At(1)
	if len(pic.Frames) != 2 || pic.Frames[0].Duration != 250*time.Millisecond || pic.Frames[0].Words[0] != 0x01000000 {
		t.Fatalf("picture %+v", pic.Frames[0].Words[:1])
	}

	if err := os.WriteFile(path, []byte("animations:\n  - name: Bad\n    generator: nope\n"), 0660); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("unknown generator accepted")
	}
}
