package device

import (
	"bytes"
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jypelle/oledanim/internal/srv/config"
	"github.com/jypelle/oledanim/internal/srv/event"
	"github.com/jypelle/oledanim/internal/ssd1306axi"
	"github.com/maruel/ansi256"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

func TestParseMenuLine(t *testing.T) {
	for _, tc := range []struct {
		line string
		want interface{}
	}{
		{"1", event.MenuEventSelectData{Index: 0}},
		{"  12 ", event.MenuEventSelectData{Index: 11}},
		{"list", event.MenuEventListData{}},
		{"L", event.MenuEventListData{}},
		{"status", event.MenuEventStatusData{}},
		{"show", event.MenuEventShowData{}},
		{"on", event.MenuEventPowerData{On: true}},
		{"off", event.MenuEventPowerData{On: false}},
		{"'quit'", event.MenuEventQuitData{}},
		{"q # bye", event.MenuEventQuitData{}},
		{"cmd InverseDisplay", event.MenuEventCommandData{Op: ssd1306axi.InverseDisplay, Args: []byte{}}},
		{"c contrastcontrol 0x40", event.MenuEventCommandData{Op: ssd1306axi.ContrastControl, Args: []byte{0x40}}},
		{"cmd ColumnAddress 0 127", event.MenuEventCommandData{Op: ssd1306axi.ColumnAddress, Args: []byte{0, 127}}},
	} {
		ev, err := ParseMenuLine(tc.line)
		if err != nil {
			t.Errorf("ParseMenuLine(%q): %v", tc.line, err)
			continue
		}
		if diff := cmp.Diff(tc.want, ev.Data); diff != "" {
			t.Errorf("ParseMenuLine(%q) (-want +got):\n%s", tc.line, diff)
		}
	}

	for _, line := range []string{"0", "-3", "play", "1 2", `"unterminated`,
		"cmd", "cmd Blink", "cmd ContrastControl", "cmd DisplayOn 1", "cmd ContrastControl 256"} {
		if _, err := ParseMenuLine(line); err == nil {
			t.Errorf("ParseMenuLine(%q) accepted", line)
		}
	}
	if _, err := ParseMenuLine("   "); !errors.Is(err, errEmptyLine) {
		t.Errorf("blank line: %v", err)
	}
}

func TestMenu(t *testing.T) {
	var out bytes.Buffer
	d := NewMenu()
	d.in = strings.NewReader("2\nbogus\nstatus\n")
	d.out = &out
	d.Start()

	var got []interface{}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-d.EventChannel():
			got = append(got, ev.Data)
		case <-time.After(5 * time.Second):
			t.Fatal("menu event missing")
		}
	}
	d.StopSendingEvent()

	want := []interface{}{event.MenuEventSelectData{Index: 1}, event.MenuEventStatusData{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("events (-want +got):\n%s", diff)
	}
	if !strings.Contains(out.String(), `unknown command "bogus"`) {
		t.Fatalf("output %q", out.String())
	}
}

func TestButton(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO5", L: gpio.High}
	b, err := NewButton(event.NEXT_BUTTON, pin)
	if err != nil {
		t.Fatal(err)
	}
	if pin.P != gpio.PullUp {
		t.Fatalf("pull %s", pin.P)
	}

	events := make(chan event.ButtonEvent, 10)
	now := time.Now()
	b.Refresh(events, now)
	pin.L = gpio.Low
	for i := 0; i < 4; i++ {
		now = now.Add(100 * time.Millisecond)
		b.Refresh(events, now)
	}
	pin.L = gpio.High
	b.Refresh(events, now.Add(time.Millisecond))
	close(events)

	var got []event.ButtonEvent
	for ev := range events {
		got = append(got, ev)
	}
	want := []event.ButtonEvent{
		{ButtonId: event.NEXT_BUTTON, ButtonEventType: event.PRESS_EVENT_TYPE, PressStepCount: 1},
		{ButtonId: event.NEXT_BUTTON, ButtonEventType: event.PRESS_EVENT_TYPE, PressStepCount: 2},
		{ButtonId: event.NEXT_BUTTON, ButtonEventType: event.RELEASE_EVENT_TYPE, PressStepCount: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("events (-want +got):\n%s", diff)
	}
}

func TestNewSchedule(t *testing.T) {
	if _, err := NewSchedule([]config.ScheduleEntry{{Cron: "not a spec", Animation: "x"}}); err == nil {
		t.Fatal("invalid cron spec accepted")
	}

	d, err := NewSchedule([]config.ScheduleEntry{{Cron: "@every 1s", Animation: "The Swarm"}})
	if err != nil {
		t.Fatal(err)
	}
	d.Start()
	select {
	case ev := <-d.EventChannel():
		if ev.Animation != "The Swarm" {
			t.Fatalf("animation %q", ev.Animation)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("schedule never triggered")
	}
	d.StopSendingEvent()
}

func TestRenderBlocks(t *testing.T) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 4, 4))
	img.SetBit(3, 3, image1bit.On)

	var buf bytes.Buffer
	lines := renderBlocks(&buf, img, ansi256.Default, 2)
	if lines != 2 {
		t.Fatalf("%d lines", lines)
	}
	lit := ansi256.Default.Block(litColor)
	unlit := ansi256.Default.Block(unlitColor)
	want := "\r\033[0m" + unlit + unlit + "\033[0m\n" + "\r\033[0m" + unlit + lit + "\033[0m\n"
	if got := buf.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
