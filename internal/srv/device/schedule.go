package device

import (
	"fmt"

	"github.com/jypelle/oledanim/internal/srv/config"
	"github.com/jypelle/oledanim/internal/srv/event"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Schedule emits a ScheduleEvent each time one of its cron entries matches.
type Schedule struct {
	eventChannel chan event.ScheduleEvent
	cron         *cron.Cron

	askDone chan bool
}

func NewSchedule(entries []config.ScheduleEntry) (*Schedule, error) {
	d := &Schedule{
		eventChannel: make(chan event.ScheduleEvent),
		cron:         cron.New(cron.WithLogger(cron.PrintfLogger(logrus.StandardLogger()))),
		askDone:      make(chan bool),
	}
	for _, entry := range entries {
		animation := entry.Animation
		_, err := d.cron.AddFunc(entry.Cron, func() {
			logrus.Debugf("Schedule triggered for %s", animation)
			select {
			case d.eventChannel <- event.ScheduleEvent{Animation: animation}:
			case <-d.askDone:
			}
		})
		if err != nil {
			return nil, fmt.Errorf("schedule %q for %s: %w", entry.Cron, animation, err)
		}
	}
	return d, nil
}

func (d *Schedule) Start() {
	logrus.Infof("Start schedule device (%d entries)", len(d.cron.Entries()))
	d.cron.Start()
}

// StopSendingEvent stops the cron scheduler and waits for running jobs.
func (d *Schedule) StopSendingEvent() {
	logrus.Infof("Stop schedule device")
	close(d.askDone)
	<-d.cron.Stop().Done()
}

func (d *Schedule) EventChannel() chan event.ScheduleEvent {
	return d.eventChannel
}
