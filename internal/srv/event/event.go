package event

import (
	"errors"

	"github.com/jypelle/oledanim/internal/ssd1306axi"
)

// ErrSelectionPending is answered when a selection is dropped because the
// player has not consumed the previous one yet.
var ErrSelectionPending = errors.New("another selection is pending")

// Menu
type MenuEvent struct {
	Data interface{}
}

type MenuEventSelectData struct {
	// Index is zero based.
	Index int
}

type MenuEventListData struct{}
type MenuEventStatusData struct{}
type MenuEventShowData struct{}

type MenuEventPowerData struct {
	On bool
}

type MenuEventQuitData struct{}

// MenuEventCommandData sends a single controller command.
type MenuEventCommandData struct {
	Op   ssd1306axi.Command
	Args []byte
}

// Schedule
type ScheduleEvent struct {
	Animation string
}

// Buttons
type ButtonId int

const (
	NEXT_BUTTON ButtonId = iota
)

type ButtonEventType int

const (
	PRESS_EVENT_TYPE ButtonEventType = iota
	RELEASE_EVENT_TYPE
)

type ButtonEvent struct {
	ButtonId        ButtonId
	ButtonEventType ButtonEventType
	PressStepCount  int64
}

// Api
type ApiEvent struct {
	Result chan error
	Data   interface{}
}

type ApiEventSelectData struct {
	Index int
}

type ApiEventPowerData struct {
	On bool
}
