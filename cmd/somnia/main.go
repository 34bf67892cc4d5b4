package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/lixenwraith/somnia/audio"
	"github.com/lixenwraith/somnia/service"
)

var (
	debugFlag     = flag.Bool("debug", false, "Write logs to logs/somnia.log")
	soundFlag     = flag.String("sound", "pink_noise", "Catalog id of the initial sleep sound")
	minutesFlag   = flag.Float64("minutes", 0, "Auto-stop the sleep sound after this many minutes, 0 plays until stopped")
	renderFlag    = flag.String("render", "", "Render to this WAV file instead of opening the terminal UI")
	secondsFlag   = flag.Float64("seconds", 60, "Length of the rendered file in seconds")
	alarmFlag     = flag.Bool("alarm", false, "Render the alarm instead of a sleep sound")
	breathingFlag = flag.String("breathing", "", "Breathing pattern to run while rendering: box, 4-7-8")
	listFlag      = flag.Bool("list", false, "Print the sound catalog and exit")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	logFile := setupLogging(*debugFlag)
	if logFile != nil {
		defer logFile.Close()
	}

	cfg := audio.LoadAudioConfig()

	// Listing needs only the catalog, never the device
	if *listFlag {
		if err := listCatalog(os.Stdout, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "somnia: %v\n", err)
			return 1
		}
		return 0
	}

	args := []any{cfg}

	// Offline rendering pulls frames itself instead of opening a device
	var manual *audio.ManualOutput
	if *renderFlag != "" {
		manual = audio.NewManualOutput()
		args = append(args, audio.WithOutput(manual))
	}

	hub := service.NewHub()
	svc := audio.NewService()
	if err := hub.Register(svc); err != nil {
		fmt.Fprintf(os.Stderr, "somnia: %v\n", err)
		return 1
	}
	if err := hub.InitAll(map[string][]any{svc.Name(): args}); err != nil {
		fmt.Fprintf(os.Stderr, "somnia: %v\n", err)
		return 1
	}
	if err := hub.StartAll(); err != nil {
		fmt.Fprintf(os.Stderr, "somnia: %v\n", err)
		return 1
	}
	defer hub.StopAll()

	catalog := svc.Catalog()

	sound, err := catalog.Lookup(*soundFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "somnia: %v\n", err)
		return 1
	}
	autoStop := time.Duration(*minutesFlag * float64(time.Minute))

	if manual != nil {
		err := renderOffline(svc.Engine(), manual, renderOptions{
			path:      *renderFlag,
			length:    time.Duration(*secondsFlag * float64(time.Second)),
			alarm:     *alarmFlag,
			sound:     sound,
			autoStop:  autoStop,
			breathing: *breathingFlag,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "somnia: %v\n", err)
			return 1
		}
		return 0
	}

	if svc.IsDisabled() {
		fmt.Fprintln(os.Stderr, "somnia: no audio output found, running silent")
	}

	ui, err := newUI(svc.Engine(), catalog, sound, autoStop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "somnia: failed to initialize terminal: %v\n", err)
		return 1
	}

	// Restore the terminal before reporting a crash
	defer func() {
		if r := recover(); r != nil {
			ui.screen.Fini()
			fmt.Fprintf(os.Stderr, "\n\x1b[31mSOMNIA CRASHED: %v\x1b[0m\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	ui.run()
	ui.screen.Fini()
	return 0
}

// listCatalog prints the configured catalog one sound per line
func listCatalog(w io.Writer, cfg *audio.AudioConfig) error {
	catalog, err := audio.LoadConfiguredCatalog(cfg)
	if err != nil {
		return err
	}
	for _, d := range catalog.Sounds() {
		fmt.Fprintf(w, "%-14s %-9s %-14s %s\n", d.ID, d.Kind, d.Label(), d.Description)
	}
	return nil
}
