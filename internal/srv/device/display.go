package device

import (
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/jypelle/oledanim/internal/oledsim"
	"github.com/jypelle/oledanim/internal/regio"
	"github.com/jypelle/oledanim/internal/srv/config"
	"github.com/jypelle/oledanim/internal/ssd1306axi"
	"github.com/sirupsen/logrus"
	"periph.io/x/host/v3"
)

// Display owns the register bank and the panel driver. In simulation mode
// the bank is simulated and feeds an emulated panel.
type Display struct {
	lock sync.RWMutex
	on   bool

	simulationMode bool
	powerOnDelay   time.Duration

	bank  regio.Bank
	dev   *ssd1306axi.Dev
	panel *oledsim.Panel
}

func NewDisplay(serverConfig *config.ServerConfig) *Display {
	d := &Display{
		simulationMode: serverConfig.SimulationMode,
		powerOnDelay:   serverConfig.PowerOnDelay(),
	}

	if d.simulationMode {
		d.panel = oledsim.New()
		d.bank = regio.NewSim(&regio.SimOpts{BusyPolls: serverConfig.SimBusyPolls, Sink: d.panel})
	} else {
		if _, err := host.Init(); err != nil {
			logrus.Fatalf("Unable to initialize host drivers: %v", err)
		}
		bank, err := regio.OpenMem(serverConfig.BaseAddress)
		if err != nil {
			logrus.Fatalf("Unable to map display peripheral: %v", err)
		}
		d.bank = bank
	}

	d.dev = ssd1306axi.New(d.bank, &ssd1306axi.Opts{
		Wait:          ssd1306axi.PolicyFor(serverConfig.HandshakeTimeout()),
		MirrorColumns: serverConfig.MirrorColumns,
	})
	logrus.Debugf("Display driver: %s", d.dev)

	return d
}

// Start powers the panel up and lights every pixel until something is shown.
func (d *Display) Start() {
	logrus.Infof("Start display device")
	d.lock.Lock()
	defer d.lock.Unlock()

	d.dev.PowerOn()
	time.Sleep(d.powerOnDelay)
	if err := d.dev.SendCommand(ssd1306axi.EntireDisplayOn); err != nil {
		logrus.Errorf("Unable to light the panel: %v", err)
	}
	d.on = true
}

// Stop turns the panel off, powers the peripheral down and releases the
// register bank. The player must be stopped beforehand.
func (d *Display) Stop() {
	logrus.Infof("Stop display device")
	d.lock.Lock()
	defer d.lock.Unlock()

	if err := d.dev.Halt(); err != nil {
		logrus.Warnf("Unable to turn the panel off: %v", err)
	}
	d.dev.PowerOff()
	d.on = false
	if c, ok := d.bank.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logrus.Warnf("Unable to release display peripheral: %v", err)
		}
	}
}

// Driver returns the panel driver the player sends frames through.
func (d *Display) Driver() *ssd1306axi.Dev {
	return d.dev
}

// Resume makes the panel show its display RAM again.
func (d *Display) Resume() error {
	return d.dev.SendCommand(ssd1306axi.EntireDisplayResume)
}

// ShowImage resumes the panel and draws img.
func (d *Display) ShowImage(img image.Image) error {
	if err := d.Resume(); err != nil {
		return err
	}
	return d.dev.Draw(d.dev.Bounds(), img, image.Point{})
}

func (d *Display) SetOn() error {
	return d.setOn(true)
}

func (d *Display) SetOff() error {
	return d.setOn(false)
}

func (d *Display) setOn(on bool) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	op := ssd1306axi.DisplayOff
	if on {
		op = ssd1306axi.DisplayOn
	}
	if err := d.dev.SendCommand(op); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	d.on = on
	return nil
}

func (d *Display) IsOn() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.on
}

func (d *Display) IsPowered() bool {
	return d.dev.Powered()
}

// Panel returns the emulated panel, nil outside simulation mode.
func (d *Display) Panel() *oledsim.Panel {
	return d.panel
}

// Snapshot returns what the emulated panel shows. ok is false outside
// simulation mode.
func (d *Display) Snapshot() (img image.Image, ok bool) {
	if d.panel == nil {
		return nil, false
	}
	return d.panel.Snapshot(), true
}
