package srv

import (
	"fmt"
	"image"
	"time"

	"github.com/jypelle/oledanim/apimodel"
	"github.com/jypelle/oledanim/internal/frames"
	"github.com/jypelle/oledanim/internal/images"
	"github.com/jypelle/oledanim/internal/player"
	"github.com/jypelle/oledanim/internal/srv/config"
	"github.com/jypelle/oledanim/internal/srv/device"
	"github.com/jypelle/oledanim/internal/srv/event"
	"github.com/jypelle/oledanim/internal/version"
	"github.com/sirupsen/logrus"
)

const byeDuration = time.Second

type ServerApp struct {
	*config.ServerConfig
	store *frames.Store

	displayDevice  *device.Display
	previewDevice  *device.Preview
	player         *player.Player
	menuDevice     *device.Menu
	scheduleDevice *device.Schedule
	buttonsDevice  *device.Buttons
	apiDevice      *device.Api

	eventLoopAskDone chan bool
	eventLoopDone    chan bool
}

func NewServerApp(configDir string, debugMode bool, simulationMode bool) *ServerApp {

	logrus.Debugf("Creation of oledanim server %s ...", version.AppVersion.String())

	app := &ServerApp{
		eventLoopAskDone: make(chan bool),
		eventLoopDone:    make(chan bool),
		ServerConfig:     config.NewServerConfig(configDir, debugMode, simulationMode),
	}

	var err error
	app.store, err = LoadAnimations(app.ServerConfig)
	if err != nil {
		logrus.Fatalf("Unable to load animations: %v", err)
	}
	logrus.Infof("%d animations loaded", app.store.Len())

	app.displayDevice = device.NewDisplay(app.ServerConfig)
	if panel := app.displayDevice.Panel(); panel != nil {
		app.previewDevice = device.NewPreview(panel)
	}
	app.player = player.New(app.displayDevice.Driver(), app.store, &player.Opts{
		Tick:           app.Tick(),
		ReceiveTimeout: app.ReceiveTimeout(),
		OnSelect: func(index int) {
			app.SetLastAnimation(app.store.At(index).Name)
		},
	})
	app.menuDevice = device.NewMenu()
	app.scheduleDevice, err = device.NewSchedule(app.Schedule)
	if err != nil {
		logrus.Fatalf("Invalid schedule: %v", err)
	}
	app.buttonsDevice = device.NewButtons(app.NextButtonPin, app.SimulationMode)
	app.apiDevice = device.NewApi(app.ServerConfig, app)

	logrus.Debugln("Server created")

	return app
}

// LoadAnimations builds the animations listed by the configured manifest, or
// the built-in ones when there is none.
func LoadAnimations(serverConfig *config.ServerConfig) (*frames.Store, error) {
	manifest := serverConfig.GetCompleteManifestFilename()
	if manifest == "" {
		return frames.NewStore(frames.Builtin(frames.PackOpts{})...)
	}
	logrus.Infof("Load animations from %s", manifest)
	return frames.LoadManifest(manifest)
}

func (s *ServerApp) Start() {
	logrus.Printf("Starting oledanim server ...")

	logrus.Printf("Starting devices ...")

	// Start display device
	s.displayDevice.Start()
	if s.previewDevice != nil && s.Preview {
		s.previewDevice.Start()
	}

	// Start player
	s.player.Start()

	// Start event loop
	go s.eventLoop()

	// Start input devices
	s.menuDevice.Start()
	s.scheduleDevice.Start()
	s.buttonsDevice.Start()
	s.apiDevice.Start()

	s.restoreState()
}

// restoreState resumes the animation playing at the last shutdown, or shows
// the startup screen.
func (s *ServerApp) restoreState() {
	if last := s.LastAnimation(); last != "" {
		if index, ok := s.indexOf(last); ok {
			logrus.Infof("Resume %s", last)
			if err := s.selectAnimation(index); err != nil {
				logrus.Warnf("Unable to resume %s: %v", last, err)
			}
		} else {
			logrus.Warnf("Last animation %s no longer exists", last)
		}
	} else if err := s.displayDevice.ShowImage(images.SplashImage); err != nil {
		logrus.Warnf("Unable to show startup screen: %v", err)
	}

	if !s.DisplayOn() {
		if err := s.displayDevice.SetOff(); err != nil {
			logrus.Warn(err)
		}
	}
}

func (s *ServerApp) Stop() {
	logrus.Printf("Stopping oledanim server ...")

	// Stop input devices
	s.apiDevice.StopSendingEvent()
	s.buttonsDevice.StopSendingEvent()
	s.scheduleDevice.StopSendingEvent()
	s.menuDevice.StopSendingEvent()

	// Stop event loop
	logrus.Infof("Stop event loop")
	s.eventLoopAskDone <- true
	<-s.eventLoopDone

	// Stop player before powering the panel off
	s.player.Shutdown()

	if err := s.displayDevice.ShowImage(images.ByeImage); err != nil {
		logrus.Warnf("Unable to show end screen: %v", err)
	} else {
		time.Sleep(byeDuration)
	}

	if s.previewDevice != nil && s.Preview {
		s.previewDevice.Stop()
	}

	// Stop display device
	s.displayDevice.Stop()

	// Flush config backup
	s.ServerConfig.ServerState.FlushSave()

	logrus.Printf("Server stopped")
}

// selectAnimation makes the panel show its RAM again and offers index to
// the player.
func (s *ServerApp) selectAnimation(index int) error {
	if err := s.displayDevice.Resume(); err != nil {
		logrus.Warnf("Unable to resume display: %v", err)
	}
	accepted, err := s.player.TrySelect(index)
	if err != nil {
		return err
	}
	if !accepted {
		return event.ErrSelectionPending
	}
	return nil
}

func (s *ServerApp) selectNext() error {
	next := s.player.Status().Animation + 1
	if next >= s.store.Len() {
		next = 0
	}
	return s.selectAnimation(next)
}

func (s *ServerApp) setDisplayOn(on bool) error {
	var err error
	if on {
		err = s.displayDevice.SetOn()
	} else {
		err = s.displayDevice.SetOff()
	}
	if err != nil {
		return err
	}
	s.SetDisplayOn(on)
	return nil
}

func (s *ServerApp) indexOf(name string) (int, bool) {
	for i, n := range s.store.Names() {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Animations implements device.PlaybackView.
func (s *ServerApp) Animations() []apimodel.Animation {
	list := make([]apimodel.Animation, s.store.Len())
	for i := range list {
		a := s.store.At(i)
		list[i] = apimodel.Animation{
			Index:      i,
			Name:       a.Name,
			FrameCount: len(a.Frames),
			DurationMs: a.Duration().Milliseconds(),
		}
	}
	return list
}

// Playback implements device.PlaybackView.
func (s *ServerApp) Playback() apimodel.Playback {
	status := s.player.Status()
	p := apimodel.Playback{
		Animation: status.Animation,
		Frame:     status.Frame,
		Armed:     status.Armed,
		Powered:   s.displayDevice.IsPowered(),
		DisplayOn: s.displayDevice.IsOn(),
	}
	if status.Animation >= 0 {
		p.Name = s.store.At(status.Animation).Name
	}
	if status.LastError != nil {
		p.LastError = status.LastError.Error()
	}
	return p
}

// Snapshot implements device.PlaybackView.
func (s *ServerApp) Snapshot() (image.Image, bool) {
	return s.displayDevice.Snapshot()
}

func formatAnimation(a apimodel.Animation) string {
	return fmt.Sprintf("%2d. %s (%d frames, %s)\n", a.Index+1, a.Name, a.FrameCount, time.Duration(a.DurationMs)*time.Millisecond)
}

func formatPlayback(p apimodel.Playback) string {
	if p.Animation < 0 {
		return fmt.Sprintf("No animation selected (display on: %v)\n", p.DisplayOn)
	}
	text := fmt.Sprintf("Playing %d. %s, frame %d (armed: %v, display on: %v)\n", p.Animation+1, p.Name, p.Frame, p.Armed, p.DisplayOn)
	if p.LastError != "" {
		text += fmt.Sprintf("Last error: %s\n", p.LastError)
	}
	return text
}

var _ device.PlaybackView = &ServerApp{}
