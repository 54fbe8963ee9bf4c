package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jypelle/oledanim/internal/frames"
	"github.com/jypelle/oledanim/internal/srv"
	"github.com/jypelle/oledanim/internal/srv/config"
	"github.com/jypelle/oledanim/internal/version"
	"github.com/sirupsen/logrus"
)

const configSuffix = "oledanim"

func main() {

	// Logger
	logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true})

	mainCommand := filepath.Base(os.Args[0])

	// region Flags and Commands definition

	// Debug Mode
	debugMode := flag.Bool("d", false, "Enable debug mode")

	// Simulation Mode
	simulationMode := flag.Bool("s", false, "Enable simulation mode")

	// User config dir
	defaultConfigDir := "./." + configSuffix
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		defaultConfigDir = filepath.Join(userConfigDir, configSuffix)
	}
	configDir := flag.String("c", defaultConfigDir, "Location of oledanim config folder")

	// Usage
	flag.Usage = func() {
		fmt.Printf("\nUsage: %s [OPTIONS] [COMMAND]\n", mainCommand)
		fmt.Printf("\nAn animation player for SSD1306 panels behind a memory mapped transfer peripheral\n")
		fmt.Printf("\nOptions:\n")
		flag.PrintDefaults()
		fmt.Printf("\nCommands:\n")
		fmt.Printf("  run       Run server\n")
		fmt.Printf("  list      List animations\n")
		fmt.Printf("  convert   Convert images to an animation file\n")
		fmt.Printf("  version   Show the version number\n")
		fmt.Printf("\nRun '%s COMMAND --help' for more information on a command.\n", mainCommand)
	}

	// run command
	runCmd := flag.NewFlagSet("run", flag.ExitOnError)

	runCmd.Usage = func() {
		fmt.Printf("\nUsage: %s run\n", mainCommand)
		fmt.Printf("\nRun the server\n")
	}

	// list command
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	listCmd.Usage = func() {
		fmt.Printf("\nUsage: %s list\n", mainCommand)
		fmt.Printf("\nList the animations the server would play\n")
	}

	// convert command
	convertCmd := flag.NewFlagSet("convert", flag.ExitOnError)
	convertOutput := convertCmd.String("o", "", "Output animation file (required)")
	convertInvert := convertCmd.Bool("invert", false, "Invert pixels")
	convertMirror := convertCmd.Bool("mirror", false, "Mirror columns")
	convertFrameMs := convertCmd.Int64("frame_ms", 0, "Frame duration in milliseconds (default from param file)")

	convertCmd.Usage = func() {
		fmt.Printf("\nUsage: %s convert [OPTIONS] IMAGE...\n", mainCommand)
		fmt.Printf("\nConvert XBM or PNG images, one per frame, to an animation file\n")
		fmt.Printf("\nOptions:\n")
		convertCmd.PrintDefaults()
	}

	// version command
	versionCmd := flag.NewFlagSet("version", flag.ExitOnError)

	versionCmd.Usage = func() {
		fmt.Printf("\nUsage: %s version\n", mainCommand)
		fmt.Printf("\nShow the version information\n")
	}

	// endregion

	// region Flags and Commands Parsing
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	switch flag.Arg(0) {
	case "run":
		parseNoArgs(runCmd, mainCommand)
	case "list":
		parseNoArgs(listCmd, mainCommand)
	case "version":
		parseNoArgs(versionCmd, mainCommand)
	case "convert":
		convertCmd.Parse(flag.Args()[1:])
		if convertCmd.NArg() == 0 || *convertOutput == "" {
			fmt.Printf("\n\"%s %s\" needs an output file and at least one image\n", mainCommand, flag.Arg(0))
			convertCmd.Usage()
			os.Exit(1)
		}
	default:
		fmt.Printf("\n%s is not an oledanim command\n", flag.Args()[0])
		flag.Usage()
		os.Exit(1)
	}
	// endregion

	if *debugMode {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: time.RFC3339Nano})
		logrus.Printf("Debug mode activated")
	}

	switch {
	case versionCmd.Parsed():
		fmt.Printf("Version %s\n", version.AppVersion.String())

	case listCmd.Parsed():
		serverConfig := config.NewServerConfig(*configDir, *debugMode, *simulationMode)
		store, err := srv.LoadAnimations(serverConfig)
		if err != nil {
			logrus.Fatalf("Unable to load animations: %v", err)
		}
		for i := 0; i < store.Len(); i++ {
			a := store.At(i)
			fmt.Printf("%2d. %s (%d frames, %s)\n", i+1, a.Name, len(a.Frames), a.Duration())
		}

	case convertCmd.Parsed():
		serverConfig := config.NewServerConfig(*configDir, *debugMode, *simulationMode)
		opts := frames.PackOpts{
			Invert: *convertInvert || serverConfig.ConvertParam.Invert,
			Mirror: *convertMirror || serverConfig.ConvertParam.Mirror,
		}
		frameMs := *convertFrameMs
		if frameMs <= 0 {
			frameMs = serverConfig.ConvertParam.FrameMs
		}
		name := strings.TrimSuffix(filepath.Base(*convertOutput), filepath.Ext(*convertOutput))
		a, err := frames.FromImageFiles(name, convertCmd.Args(), time.Duration(frameMs)*time.Millisecond, opts)
		if err != nil {
			logrus.Fatalf("Unable to convert images: %v", err)
		}
		if err := frames.SaveFile(*convertOutput, a); err != nil {
			logrus.Fatalf("Unable to save %s: %v", *convertOutput, err)
		}
		logrus.Infof("%d frames written to %s", len(a.Frames), *convertOutput)

	case runCmd.Parsed():
		// Create oledanim server
		serverApp := srv.NewServerApp(*configDir, *debugMode, *simulationMode)

		// Listen stop signal
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

		// Start oledanim server
		serverApp.Start()

		sig := <-ch
		logrus.Infof("Received signal: %v", sig)
		serverApp.Stop()
	}

}

func parseNoArgs(cmd *flag.FlagSet, mainCommand string) {
	cmd.Parse(flag.Args()[1:])
	if cmd.NArg() > 0 {
		fmt.Printf("\n\"%s %s\" accepts no arguments\n", mainCommand, flag.Arg(0))
		cmd.Usage()
		os.Exit(1)
	}
}
