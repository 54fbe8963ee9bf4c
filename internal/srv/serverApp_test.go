package srv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jypelle/oledanim/apimodel"
)

const testParam = `
tick_ms: 1
handshake_timeout_ms: 100
sim_busy_polls: 1
power_on_delay_ms: 0
receive_timeout_ms: 5
preview: false
`

func newTestServerApp(t *testing.T, dir string) *ServerApp {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "param.yaml"), []byte(testParam), 0660); err != nil {
		t.Fatal(err)
	}
	return NewServerApp(dir, false, true)
}

func waitPlayback(t *testing.T, s *ServerApp, cond func(apimodel.Playback) bool) apimodel.Playback {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		p := s.Playback()
		if cond(p) {
			return p
		}
		if time.Now().After(deadline) {
			t.Fatalf("playback stuck at %+v", p)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestServerApp_simulation(t *testing.T) {
	dir := t.TempDir()
	s := newTestServerApp(t, dir)
	if got := len(s.Animations()); got != 4 {
		t.Fatalf("%d built-in animations", got)
	}

	s.Start()
	if p := s.Playback(); p.Animation != -1 || !p.Powered {
		t.Fatalf("playback after start %+v", p)
	}
	if err := s.selectAnimation(len(s.Animations())); err == nil {
		t.Fatal("selection past the last animation accepted")
	}
	if err := s.selectAnimation(2); err != nil {
		t.Fatal(err)
	}
	p := waitPlayback(t, s, func(p apimodel.Playback) bool { return p.Animation == 2 && p.Armed })
	if p.Name != "The Swarm" || p.LastError != "" {
		t.Fatalf("playback %+v", p)
	}
	panel := s.displayDevice.Panel()
	frames := panel.State().Frames
	waitPlayback(t, s, func(apimodel.Playback) bool { return panel.State().Frames > frames+2 })

	if err := s.setDisplayOn(false); err != nil {
		t.Fatal(err)
	}
	if s.Playback().DisplayOn || panel.State().DisplayOn {
		t.Fatal("display still on")
	}
	if err := s.setDisplayOn(true); err != nil {
		t.Fatal(err)
	}

	s.Stop()
	if st := panel.State(); st.Powered {
		t.Fatalf("panel still powered: %+v", st)
	}
	state, err := os.ReadFile(filepath.Join(dir, "state.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(state), "The Swarm") {
		t.Fatalf("state file %q", state)
	}

	// A new server resumes the last animation.
	again := newTestServerApp(t, dir)
	again.Start()
	waitPlayback(t, again, func(p apimodel.Playback) bool { return p.Animation == 2 })
	if err := again.selectNext(); err != nil {
		t.Fatal(err)
	}
	waitPlayback(t, again, func(p apimodel.Playback) bool { return p.Animation == 3 })
	again.Stop()
}

func TestFormatPlayback(t *testing.T) {
	if got := formatPlayback(apimodel.Playback{Animation: -1}); !strings.HasPrefix(got, "No animation selected") {
		t.Fatalf("got %q", got)
	}
	got := formatPlayback(apimodel.Playback{Animation: 0, Name: "Eyes", Frame: 3, LastError: "boom"})
	if !strings.Contains(got, "1. Eyes, frame 3") || !strings.Contains(got, "Last error: boom") {
		t.Fatalf("got %q", got)
	}
}
