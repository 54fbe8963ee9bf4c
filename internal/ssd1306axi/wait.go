package ssd1306axi

import (
	"errors"
	"time"
)

// ErrUnresponsive is returned when the peripheral keeps its busy flag raised
// past the limits of a Bounded wait.
var ErrUnresponsive = errors.New("ssd1306axi: peripheral unresponsive")

// WaitPolicy decides how long to poll the busy flag after a send-request.
//
// busy performs one Status read and reports the busy flag.
type WaitPolicy interface {
	Wait(busy func() bool) error
}

// Spin polls until the peripheral is idle, forever if need be.
type Spin struct{}

// Wait implements WaitPolicy.
func (Spin) Wait(busy func() bool) error {
	for busy() {
	}
	return nil
}

// Bounded polls until the peripheral is idle, giving up after Polls reads
// or once Timeout elapsed, whichever comes first. A zero limit is ignored;
// with both limits zero Bounded behaves like Spin.
type Bounded struct {
	Timeout time.Duration
	Polls   int
}

// Wait implements WaitPolicy.
func (b Bounded) Wait(busy func() bool) error {
	var deadline time.Time
	if b.Timeout > 0 {
		deadline = time.Now().Add(b.Timeout)
	}
	for n := 1; busy(); n++ {
		if b.Polls > 0 && n >= b.Polls {
			return ErrUnresponsive
		}
		if b.Timeout > 0 && time.Now().After(deadline) {
			return ErrUnresponsive
		}
	}
	return nil
}

// PolicyFor returns Spin for a zero timeout and a Bounded wait otherwise.
func PolicyFor(timeout time.Duration) WaitPolicy {
	if timeout <= 0 {
		return Spin{}
	}
	return Bounded{Timeout: timeout}
}
