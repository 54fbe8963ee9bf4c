package player

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrTimerBusy is returned when a timer command could not be delivered
	// within the command wait.
	ErrTimerBusy = errors.New("player: timer command not accepted in time")
	// ErrClosed is returned once the player or its timer is shut down.
	ErrClosed = errors.New("player: closed")
)

// Timer is a one-shot, re-armable timer running a callback.
//
// The callback returns the delay after which it must run again, or zero to
// leave the timer dormant.
type Timer interface {
	// ChangePeriod arms the timer to fire after d, whether it was dormant
	// or already armed.
	ChangePeriod(d time.Duration) error
	// Stop disarms the timer. Once it returns no callback is running and
	// none will run until the timer is armed again.
	Stop() error
	// Active reports whether the timer is armed or its callback running.
	Active() bool
	// Close stops the timer for good.
	Close()
}

type timerCmd struct {
	stop   bool
	period time.Duration
	ack    chan struct{}
}

// FrameTimer is a Timer backed by a service goroutine running the callback
// and processing commands one at a time.
type FrameTimer struct {
	callback func() time.Duration
	wait     time.Duration
	active   atomic.Bool

	cmds      chan timerCmd
	askDone   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewFrameTimer starts a dormant timer. wait bounds how long a command may
// wait for the service goroutine, which is busy while the callback runs.
func NewFrameTimer(wait time.Duration, callback func() time.Duration) *FrameTimer {
	t := &FrameTimer{
		callback: callback,
		wait:     wait,
		cmds:     make(chan timerCmd),
		askDone:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go t.run()
	return t
}

// ChangePeriod implements Timer.
func (t *FrameTimer) ChangePeriod(d time.Duration) error {
	return t.send(timerCmd{period: d})
}

// Stop implements Timer.
func (t *FrameTimer) Stop() error {
	return t.send(timerCmd{stop: true})
}

// Active implements Timer.
func (t *FrameTimer) Active() bool {
	return t.active.Load()
}

// Close implements Timer.
func (t *FrameTimer) Close() {
	t.closeOnce.Do(func() {
		close(t.askDone)
		<-t.done
	})
}

func (t *FrameTimer) send(cmd timerCmd) error {
	cmd.ack = make(chan struct{})
	deadline := time.NewTimer(t.wait)
	defer deadline.Stop()
	select {
	case t.cmds <- cmd:
	case <-deadline.C:
		return ErrTimerBusy
	case <-t.done:
		return ErrClosed
	}
	<-cmd.ack
	return nil
}

func (t *FrameTimer) run() {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	var expired <-chan time.Time

	disarm := func() {
		timer.Stop()
		select {
		case <-timer.C:
		default:
		}
		expired = nil
	}
	arm := func(d time.Duration) {
		disarm()
		timer.Reset(d)
		expired = timer.C
		t.active.Store(true)
	}

	for loop := true; loop; {
		select {
		case cmd := <-t.cmds:
			if cmd.stop {
				disarm()
				t.active.Store(false)
			} else {
				arm(cmd.period)
			}
			close(cmd.ack)
		case <-expired:
			expired = nil
			if next := t.callback(); next > 0 {
				arm(next)
			} else {
				t.active.Store(false)
			}
		case <-t.askDone:
			loop = false
		}
	}
	disarm()
	t.active.Store(false)
	close(t.done)
}

var _ Timer = &FrameTimer{}
