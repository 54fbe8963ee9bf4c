package srv

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/jypelle/oledanim/internal/srv/event"
	"github.com/sirupsen/logrus"
)

// Button press steps, 160ms each.
const (
	longPressStep = 20
)

func (s *ServerApp) eventLoop() {
	for loop := true; loop; {
		select {
		case ev := <-s.menuDevice.EventChannel():
			s.handleMenuEvent(ev)
		case ev := <-s.scheduleDevice.EventChannel():
			logrus.Infof("Receive schedule event: %s", ev.Animation)
			index, ok := s.indexOf(ev.Animation)
			if !ok {
				logrus.Warnf("Scheduled animation %s does not exist", ev.Animation)
				continue
			}
			if err := s.selectAnimation(index); err != nil {
				logrus.Warn(err)
			}
		case ev := <-s.apiDevice.EventChannel():
			switch data := ev.Data.(type) {
			case event.ApiEventSelectData:
				ev.Result <- s.selectAnimation(data.Index)
			case event.ApiEventPowerData:
				ev.Result <- s.setDisplayOn(data.On)
			default:
				ev.Result <- fmt.Errorf("unknown api event %T", data)
			}
		case ev := <-s.buttonsDevice.EventChannel():
			logrus.Debugf("Receive button event: %d, %d, %d", ev.ButtonId, ev.ButtonEventType, ev.PressStepCount)
			switch ev.ButtonId {
			case event.NEXT_BUTTON:
				if ev.ButtonEventType == event.RELEASE_EVENT_TYPE && ev.PressStepCount < longPressStep {
					logrus.Debugf("Next animation")
					if err := s.selectNext(); err != nil {
						logrus.Warn(err)
					}
				} else if ev.ButtonEventType == event.PRESS_EVENT_TYPE && ev.PressStepCount == longPressStep {
					logrus.Debugf("Switch display on/off")
					if err := s.setDisplayOn(!s.displayDevice.IsOn()); err != nil {
						logrus.Warn(err)
					}
				}
			}
		case <-s.eventLoopAskDone:
			loop = false
		}
	}
	s.eventLoopDone <- true
}

func (s *ServerApp) handleMenuEvent(ev event.MenuEvent) {
	switch data := ev.Data.(type) {
	case event.MenuEventSelectData:
		if err := s.selectAnimation(data.Index); err != nil {
			s.menuDevice.Printf("%v\n", err)
		}
	case event.MenuEventListData:
		current := s.player.Status().Animation
		var sb strings.Builder
		for _, a := range s.Animations() {
			marker := " "
			if a.Index == current {
				marker = "*"
			}
			sb.WriteString(marker)
			sb.WriteString(" ")
			sb.WriteString(formatAnimation(a))
		}
		s.menuDevice.Printf("%s", sb.String())
	case event.MenuEventStatusData:
		s.menuDevice.Printf("%s", formatPlayback(s.Playback()))
	case event.MenuEventShowData:
		if s.previewDevice == nil {
			s.menuDevice.Printf("Preview only available in simulation mode\n")
			return
		}
		s.previewDevice.Show()
	case event.MenuEventPowerData:
		if err := s.setDisplayOn(data.On); err != nil {
			s.menuDevice.Printf("%v\n", err)
		}
	case event.MenuEventCommandData:
		if err := s.displayDevice.Driver().SendCommand(data.Op, data.Args...); err != nil {
			s.menuDevice.Printf("%v\n", err)
			return
		}
		s.menuDevice.Printf("%s sent\n", data.Op)
	case event.MenuEventQuitData:
		logrus.Debugf("See you!")
		syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
	}
}
