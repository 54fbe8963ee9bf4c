package player

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestFrameTimer_rearms(t *testing.T) {
	var calls atomic.Int32
	ft := NewFrameTimer(time.Second, func() time.Duration {
		if calls.Add(1) < 3 {
			return time.Millisecond
		}
		return 0
	})
	defer ft.Close()

	if ft.Active() {
		t.Fatal("new timer is armed")
	}
	if err := ft.ChangePeriod(time.Millisecond); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "dormant timer", func() bool { return calls.Load() == 3 && !ft.Active() })
	time.Sleep(10 * time.Millisecond)
	if n := calls.Load(); n != 3 {
		t.Fatalf("callback ran %d times after returning zero", n)
	}

	if err := ft.ChangePeriod(time.Millisecond); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "re-armed timer", func() bool { return calls.Load() == 4 })
}

func TestFrameTimer_stopWaitsForCallback(t *testing.T) {
	var running, finished atomic.Bool
	release := make(chan struct{})
	ft := NewFrameTimer(time.Second, func() time.Duration {
		running.Store(true)
		<-release
		finished.Store(true)
		return time.Millisecond
	})
	defer ft.Close()

	if err := ft.ChangePeriod(time.Millisecond); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "callback", running.Load)

	stopped := make(chan error)
	go func() { stopped <- ft.Stop() }()
	select {
	case <-stopped:
		t.Fatal("Stop returned while the callback was running")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	if err := <-stopped; err != nil {
		t.Fatal(err)
	}
	if !finished.Load() || ft.Active() {
		t.Fatalf("finished %v active %v", finished.Load(), ft.Active())
	}
}

func TestFrameTimer_busy(t *testing.T) {
	running := make(chan struct{})
	release := make(chan struct{})
	ft := NewFrameTimer(5*time.Millisecond, func() time.Duration {
		close(running)
		<-release
		return 0
	})
	defer ft.Close()

	if err := ft.ChangePeriod(time.Millisecond); err != nil {
		t.Fatal(err)
	}
	<-running
	if err := ft.Stop(); !errors.Is(err, ErrTimerBusy) {
		t.Fatalf("Stop during a long callback = %v", err)
	}
	close(release)
}

func TestFrameTimer_close(t *testing.T) {
	var calls atomic.Int32
	ft := NewFrameTimer(time.Second, func() time.Duration {
		calls.Add(1)
		return time.Millisecond
	})
	if err := ft.ChangePeriod(time.Millisecond); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "first expiry", func() bool { return calls.Load() > 0 })
	ft.Close()
	ft.Close()
	n := calls.Load()
	time.Sleep(10 * time.Millisecond)
	if calls.Load() != n || ft.Active() {
		t.Fatal("timer still running after Close")
	}
	if err := ft.ChangePeriod(time.Millisecond); !errors.Is(err, ErrClosed) {
		t.Fatalf("ChangePeriod after Close = %v", err)
	}
}
