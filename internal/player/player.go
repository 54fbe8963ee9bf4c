// Package player plays animations on the panel.
//
// Selections are offered through TrySelect to a single-slot channel and
// consumed by the player goroutine. The player stops the frame timer,
// resets the playback position and arms the timer again. Each expiry of the
// timer sends the current frame and schedules the next one after the frame
// duration.
//
// The playback position is only modified by the player goroutine while the
// timer is stopped, and by the timer callback.
package player

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jypelle/oledanim/internal/frames"
	"github.com/sirupsen/logrus"
)

// ErrOutOfRange is returned by TrySelect for an index that does not match
// any animation.
var ErrOutOfRange = errors.New("player: animation index out of range")

// Display is what the player needs from the panel driver.
type Display interface {
	// WriteFrame selects the whole panel then sends words.
	WriteFrame(words []uint32) error
}

// Library is the read-only set of animations.
type Library interface {
	Len() int
	At(i int) *frames.Animation
}

// Opts defines the player options.
type Opts struct {
	// Tick is the shortest delay the timer is armed with.
	Tick time.Duration
	// ReceiveTimeout bounds each wait for a selection.
	ReceiveTimeout time.Duration
	// CommandWait bounds each timer command.
	CommandWait time.Duration
	// NewTimer creates the frame timer around the frame callback. Defaults
	// to NewFrameTimer.
	NewTimer func(wait time.Duration, callback func() time.Duration) Timer
	// OnSelect is called by the player goroutine once a selection starts
	// playing.
	OnSelect func(index int)
}

// DefaultOpts are used for any zero field of the Opts given to New.
var DefaultOpts = Opts{
	Tick:           10 * time.Millisecond,
	ReceiveTimeout: time.Second,
	CommandWait:    time.Second,
}

// Status is a snapshot of the playback position.
type Status struct {
	// Animation is the selected animation, -1 before the first selection.
	Animation int
	Frame     int
	Armed     bool
	LastError error
}

// Player owns the playback state.
type Player struct {
	display Display
	lib     Library
	opts    Opts

	selections chan int
	timer      Timer

	mu      sync.Mutex
	anim    int
	frame   int
	lastErr error

	stateLock sync.RWMutex
	started   bool
	closed    bool
	askDone   chan struct{}
	done      chan struct{}
}

// New returns a stopped player with no animation selected.
func New(display Display, lib Library, opts *Opts) *Player {
	p := &Player{
		display:    display,
		lib:        lib,
		opts:       DefaultOpts,
		selections: make(chan int, 1),
		anim:       -1,
		askDone:    make(chan struct{}),
		done:       make(chan struct{}),
	}
	if opts != nil {
		if opts.Tick > 0 {
			p.opts.Tick = opts.Tick
		}
		if opts.ReceiveTimeout > 0 {
			p.opts.ReceiveTimeout = opts.ReceiveTimeout
		}
		if opts.CommandWait > 0 {
			p.opts.CommandWait = opts.CommandWait
		}
		p.opts.NewTimer = opts.NewTimer
		p.opts.OnSelect = opts.OnSelect
	}
	newTimer := p.opts.NewTimer
	if newTimer == nil {
		newTimer = func(wait time.Duration, callback func() time.Duration) Timer {
			return NewFrameTimer(wait, callback)
		}
	}
	p.timer = newTimer(p.opts.CommandWait, p.showFrame)
	return p
}

// Len returns the number of selectable animations.
func (p *Player) Len() int {
	return p.lib.Len()
}

// TrySelect offers index to the player without blocking.
//
// It returns ErrOutOfRange when index is not in [0, Len()) and ErrClosed
// after Shutdown. A selection offered while another one is still pending is
// dropped and accepted is false.
func (p *Player) TrySelect(index int) (accepted bool, err error) {
	if n := p.lib.Len(); index < 0 || index >= n {
		return false, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, index, n)
	}
	p.stateLock.RLock()
	defer p.stateLock.RUnlock()
	if p.closed {
		return false, ErrClosed
	}
	select {
	case p.selections <- index:
		return true, nil
	default:
		logrus.Debugf("Selection %d dropped, another one is pending", index)
		return false, nil
	}
}

// Start launches the player goroutine.
func (p *Player) Start() {
	p.stateLock.Lock()
	defer p.stateLock.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true
	logrus.Infof("Start player")
	go p.run()
}

// Status returns the playback position.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{Animation: p.anim, Frame: p.frame, Armed: p.timer.Active(), LastError: p.lastErr}
}

// Shutdown stops the timer and the player goroutine, then closes the
// selection channel. No frame is sent once it returns. It is safe to call
// more than once.
func (p *Player) Shutdown() {
	p.stateLock.Lock()
	if p.closed {
		p.stateLock.Unlock()
		return
	}
	p.closed = true
	started := p.started
	p.stateLock.Unlock()

	logrus.Infof("Stop player")
	if err := p.timer.Stop(); err != nil {
		logrus.Warnf("Unable to stop frame timer: %v", err)
	}
	if started {
		close(p.askDone)
		<-p.done
	}
	// The player goroutine may have re-armed the timer before it exited.
	p.timer.Close()
	close(p.selections)
}

func (p *Player) run() {
	receive := time.NewTimer(p.opts.ReceiveTimeout)
	defer receive.Stop()
	for loop := true; loop; {
		select {
		case index := <-p.selections:
			p.play(index)
		case <-receive.C:
			// Nothing selected, wait again.
		case <-p.askDone:
			loop = false
		}
		receive.Stop()
		select {
		case <-receive.C:
		default:
		}
		receive.Reset(p.opts.ReceiveTimeout)
	}
	close(p.done)
}

// play switches playback to animation index.
func (p *Player) play(index int) {
	p.mu.Lock()
	current := p.anim
	p.mu.Unlock()
	if index == current {
		return
	}
	if n := p.lib.Len(); index < 0 || index >= n {
		logrus.Warnf("Ignore selection %d, only %d animations", index, n)
		return
	}
	if p.timer.Active() {
		if err := p.timer.Stop(); err != nil {
			logrus.Errorf("Unable to stop frame timer, selection %d abandoned: %v", index, err)
			return
		}
	}

	p.mu.Lock()
	p.anim = index
	p.frame = 0
	p.mu.Unlock()
	logrus.Debugf("Play animation %d (%s)", index, p.lib.At(index).Name)

	if err := p.timer.ChangePeriod(p.opts.Tick); err != nil {
		logrus.Errorf("Unable to arm frame timer: %v", err)
		return
	}
	if p.opts.OnSelect != nil {
		p.opts.OnSelect(index)
	}
}

// showFrame is the timer callback: it sends the current frame, advances the
// position and returns the delay before the next frame. The position lock
// is not held during the transfer.
func (p *Player) showFrame() time.Duration {
	p.mu.Lock()
	anim, pos := p.anim, p.frame
	p.mu.Unlock()
	if anim < 0 {
		return 0
	}
	a := p.lib.At(anim)
	f := a.Frames[pos]
	err := p.display.WriteFrame(f.Words)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		if p.lastErr == nil {
			logrus.Errorf("Unable to show frame %d of %s: %v", pos, a.Name, err)
		}
		p.lastErr = err
	} else {
		p.lastErr = nil
	}

	delay := f.Duration
	if delay < p.opts.Tick {
		delay = p.opts.Tick
	}

	p.frame = pos + 1
	if p.frame == len(a.Frames) {
		p.frame = 0
	}
	return delay
}
