// Package frames holds the animations played on the panel.
//
// A Frame is a full 128x32 panel payload, already packed in the 32-bit words
// the peripheral transmits, together with how long it stays on screen.
// Animations are built once at startup and never modified afterwards; the
// player only reads them.
package frames

import (
	"errors"
	"fmt"
	"time"

	"github.com/jypelle/oledanim/internal/ssd1306axi"
)

// Frame is one full panel image.
type Frame struct {
	Words    []uint32
	Duration time.Duration
}

// Animation is a named, ordered, non-empty list of frames.
type Animation struct {
	Name   string
	Frames []Frame
}

// Duration returns the time needed to play every frame once.
func (a *Animation) Duration() time.Duration {
	var d time.Duration
	for _, f := range a.Frames {
		d += f.Duration
	}
	return d
}

func (a *Animation) validate() error {
	if len(a.Frames) == 0 {
		return fmt.Errorf("frames: animation %q has no frame", a.Name)
	}
	for i, f := range a.Frames {
		if len(f.Words) != ssd1306axi.FrameWords {
			return fmt.Errorf("frames: animation %q frame %d has %d words, want %d", a.Name, i, len(f.Words), ssd1306axi.FrameWords)
		}
		if f.Duration < 0 {
			return fmt.Errorf("frames: animation %q frame %d has a negative duration", a.Name, i)
		}
	}
	return nil
}

// Store is the read-only ordered set of animations a user can select from.
type Store struct {
	anims []*Animation
}

// NewStore validates anims and returns a Store holding them.
func NewStore(anims ...*Animation) (*Store, error) {
	if len(anims) == 0 {
		return nil, errors.New("frames: no animation")
	}
	for _, a := range anims {
		if err := a.validate(); err != nil {
			return nil, err
		}
	}
	return &Store{anims: anims}, nil
}

// Len returns the number of animations.
func (s *Store) Len() int {
	return len(s.anims)
}

// At returns the animation at index i, which must be in [0, Len()).
func (s *Store) At(i int) *Animation {
	return s.anims[i]
}

// Names returns the animation names, in order.
func (s *Store) Names() []string {
	names := make([]string, len(s.anims))
	for i, a := range s.anims {
		names[i] = a.Name
	}
	return names
}
