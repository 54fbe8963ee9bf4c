package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/jypelle/oledanim/internal/srv/event"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const pressStep = 160 * time.Millisecond

type Button struct {
	buttonId       event.ButtonId
	pin            gpio.PinIO
	isPressed      bool
	pressStepCount int64
	lastChange     time.Time
}

// NewButton sets pin as an input with an internal pull up resistor; the
// button is pressed while the pin reads low.
func NewButton(buttonId event.ButtonId, pin gpio.PinIO) (*Button, error) {
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to setup %s button: %w", pin, err)
	}
	return &Button{buttonId: buttonId, pin: pin}, nil
}

// Refresh samples the pin. While pressed it emits a press event every
// pressStep with an increasing step count, then a release event.
func (b *Button) Refresh(buttonEventChannel chan<- event.ButtonEvent, now time.Time) {
	wasPressed := b.isPressed
	b.isPressed = bool(!b.pin.Read())

	if !b.isPressed && wasPressed {
		b.lastChange = now
		buttonEventChannel <- event.ButtonEvent{ButtonId: b.buttonId, ButtonEventType: event.RELEASE_EVENT_TYPE, PressStepCount: b.pressStepCount}
		b.pressStepCount = 0
	} else if b.isPressed && b.lastChange.Add(pressStep).Before(now) {
		b.lastChange = now
		b.pressStepCount++
		buttonEventChannel <- event.ButtonEvent{ButtonId: b.buttonId, ButtonEventType: event.PRESS_EVENT_TYPE, PressStepCount: b.pressStepCount}
	}
}

type Buttons struct {
	lock         sync.RWMutex
	eventChannel chan event.ButtonEvent
	nextPin      string

	buttons []*Button

	checkTicker *time.Ticker

	askDone chan bool
	done    chan bool
}

// NewButtons watches the next animation button on nextPin. No pin is read
// when nextPin is empty or in simulation mode.
func NewButtons(nextPin string, simulation bool) *Buttons {
	device := Buttons{
		eventChannel: make(chan event.ButtonEvent),
		askDone:      make(chan bool),
		done:         make(chan bool),
	}
	if !simulation {
		device.nextPin = nextPin
	}
	if device.nextPin != "" {
		if _, err := host.Init(); err != nil {
			logrus.Fatalf("Unable to initialize host drivers: %v", err)
		}
	}

	return &device
}

func (d *Buttons) Start() {
	logrus.Infof("Start buttons device")

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.nextPin != "" {
		pin := gpioreg.ByName(d.nextPin)
		if pin == nil {
			logrus.Fatalf("Failed to find %s button", d.nextPin)
		}
		button, err := NewButton(event.NEXT_BUTTON, pin)
		if err != nil {
			logrus.Fatal(err)
		}
		d.buttons = append(d.buttons, button)
	}

	// Start periodic check
	d.checkTicker = time.NewTicker(5 * time.Millisecond)
	go func() {
		for loop := true; loop; {
			select {
			case now := <-d.checkTicker.C:
				for _, button := range d.buttons {
					button.Refresh(d.eventChannel, now)
				}
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
}

func (d *Buttons) StopSendingEvent() {
	logrus.Infof("Stop buttons device")

	d.lock.Lock()
	defer d.lock.Unlock()

	d.checkTicker.Stop()
	d.askDone <- true
	<-d.done
}

func (d *Buttons) EventChannel() chan event.ButtonEvent {
	return d.eventChannel
}
