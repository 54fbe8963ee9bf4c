package images

import (
	_ "embed"

	"github.com/jypelle/oledanim/internal/frames"
	"github.com/sirupsen/logrus"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

//go:embed splash.xbm
var SplashImgFile []byte

// SplashImage is shown while the animations load.
var SplashImage *image1bit.VerticalLSB

//go:embed bye.xbm
var ByeImgFile []byte

// ByeImage is shown before the panel is powered off.
var ByeImage *image1bit.VerticalLSB

func init() {
	// Load images
	var err error

	SplashImage, err = frames.DecodeXBM(SplashImgFile)
	if err != nil {
		logrus.Panicf("Can't load splash image: %v", err)
	}

	ByeImage, err = frames.DecodeXBM(ByeImgFile)
	if err != nil {
		logrus.Panicf("Can't load bye image: %v", err)
	}
}
