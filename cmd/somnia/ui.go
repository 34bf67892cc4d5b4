package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/somnia/audio"
)

const (
	uiRefreshInterval = 100 * time.Millisecond
	cueSeconds        = 4.0
	volumeStep        = 0.1
)

var (
	styleText     = tcell.StyleDefault
	styleTitle    = tcell.StyleDefault.Foreground(tcell.ColorLightSkyBlue).Bold(true)
	styleSelected = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorLightSkyBlue)
	styleDim      = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleAlarm    = tcell.StyleDefault.Foreground(tcell.ColorOrangeRed).Bold(true)
	styleBreath   = tcell.StyleDefault.Foreground(tcell.ColorMediumSeaGreen).Bold(true)
	styleError    = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

var helpLines = []string{
	"j/k select  enter/1-9 play  s stop sound  a alarm  x stop alarm  z snooze",
	"i/o breath cue  b box breathing  n 4-7-8 breathing  m mute  +/- volume  q quit",
}

// ui is a thin terminal driver over the engine API
type ui struct {
	screen   tcell.Screen
	engine   *audio.Engine
	sounds   []audio.SoundDescriptor
	selected int
	autoStop time.Duration

	loading <-chan error
	session *audio.BreathingSession
	breath  audio.BreathEvent
	message string
	failed  bool
}

func newUI(engine *audio.Engine, catalog *audio.Catalog, initial audio.SoundDescriptor, autoStop time.Duration) (*ui, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	u := &ui{
		screen:   screen,
		engine:   engine,
		sounds:   catalog.Sounds(),
		autoStop: autoStop,
	}
	for i, d := range u.sounds {
		if d.ID == initial.ID {
			u.selected = i
		}
	}
	return u, nil
}

func (u *ui) run() {
	ticker := time.NewTicker(uiRefreshInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	u.draw()
	for {
		var breathEvents <-chan audio.BreathEvent
		if u.session != nil {
			breathEvents = u.session.Events()
		}

		select {
		case ev := <-eventChan:
			if !u.handleEvent(ev) {
				u.stopBreathing()
				return
			}

		case err := <-u.loading:
			u.loading = nil
			if err != nil {
				u.setError(err)
			}

		case ev, ok := <-breathEvents:
			if !ok {
				u.session = nil
				break
			}
			u.breath = ev

		case <-ticker.C:
		}
		u.draw()
	}
}

func (u *ui) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp:
			u.move(-1)
		case tcell.KeyDown:
			u.move(1)
		case tcell.KeyEnter:
			u.playSelected()
		case tcell.KeyRune:
			return u.handleRune(ev.Rune())
		}

	case *tcell.EventResize:
		u.screen.Sync()
	}
	return true
}

func (u *ui) handleRune(r rune) bool {
	switch {
	case r == 'q':
		return false
	case r >= '1' && r <= '9':
		if i := int(r - '1'); i < len(u.sounds) {
			u.selected = i
			u.playSelected()
		}
	case r == 'j':
		u.move(1)
	case r == 'k':
		u.move(-1)
	case r == 's':
		u.engine.StopSleepSound()
		u.setMessage("sleep sound stopped")
	case r == 'a':
		u.engine.PlayAlarm()
		u.setMessage("alarm ringing")
	case r == 'x':
		u.engine.StopAlarm()
		u.setMessage("alarm stopped")
	case r == 'z':
		if u.engine.SnoozeAlarm() {
			u.setMessage("snoozed")
		} else {
			u.setMessage("nothing to snooze")
		}
	case r == 'i':
		u.engine.PlayBreathCue(audio.BreathIn, cueSeconds)
	case r == 'o':
		u.engine.PlayBreathCue(audio.BreathOut, cueSeconds)
	case r == 'b':
		u.toggleBreathing("box")
	case r == 'n':
		u.toggleBreathing("4-7-8")
	case r == 'm':
		if u.engine.ToggleMute() {
			u.setMessage("muted")
		} else {
			u.setMessage("unmuted")
		}
	case r == '+' || r == '=':
		u.engine.SetVolume(u.engine.Volume() + volumeStep)
	case r == '-':
		u.engine.SetVolume(u.engine.Volume() - volumeStep)
	}
	return true
}

func (u *ui) move(delta int) {
	n := len(u.sounds)
	if n == 0 {
		return
	}
	u.selected = (u.selected + delta + n) % n
}

func (u *ui) playSelected() {
	if len(u.sounds) == 0 {
		return
	}
	d := u.sounds[u.selected]
	u.loading = u.engine.PlaySleepSoundAsync(context.Background(), d, u.autoStop)
	if d.Kind == audio.KindFile && !u.engine.Cache().Cached(d.Source) {
		u.setMessage("loading " + d.Label())
	} else {
		u.setMessage("playing " + d.Label())
	}
}

func (u *ui) toggleBreathing(name string) {
	running := u.session != nil && u.session.Pattern().Name == name
	u.stopBreathing()
	if running {
		u.setMessage("breathing stopped")
		return
	}

	pattern, err := audio.LookupBreathPattern(name)
	if err != nil {
		u.setError(err)
		return
	}
	session, err := u.engine.StartBreathing(pattern)
	if err != nil {
		u.setError(err)
		return
	}
	u.session = session
	u.setMessage("breathing " + name)
}

func (u *ui) stopBreathing() {
	if u.session != nil {
		u.session.Stop()
		u.session = nil
		u.breath = audio.BreathEvent{}
	}
}

func (u *ui) setMessage(msg string) {
	u.message = msg
	u.failed = false
}

func (u *ui) setError(err error) {
	log.Printf("ui: %v", err)
	u.message = err.Error()
	u.failed = true
}

func (u *ui) draw() {
	s := u.screen
	s.Clear()
	width, height := s.Size()

	y := 0
	drawText(s, 1, y, styleTitle, "somnia")
	y += 2

	for i, d := range u.sounds {
		style := styleText
		if i == u.selected {
			style = styleSelected
		}
		line := fmt.Sprintf(" %d  %-14s %-9s", i+1, d.Label(), d.Kind)
		drawText(s, 1, y, style, line)
		drawText(s, 2+len(line), y, styleDim, truncate(d.Description, width-len(line)-3))
		y++
	}
	y++

	e := u.engine
	alarmStyle := styleText
	if e.BusState(audio.BusAlarm) != audio.BusIdle {
		alarmStyle = styleAlarm
	}
	drawText(s, 1, y, alarmStyle, fmt.Sprintf("alarm  %-9s snooze pending: %v", e.BusState(audio.BusAlarm), e.SnoozePending()))
	y++
	drawText(s, 1, y, styleText, fmt.Sprintf("sleep  %-9s auto-stop: %s", e.BusState(audio.BusSleep), formatAutoStop(u.autoStop)))
	y++

	output := "device"
	if e.IsSilent() {
		output = "silent"
	}
	drawText(s, 1, y, styleText, fmt.Sprintf("volume %3.0f%%  muted: %v  output: %s  cues: %d  time: %s",
		e.Volume()*100, e.IsMuted(), output, e.ActiveCues(), e.Now().Truncate(time.Second)))
	y += 2

	if u.session != nil && u.breath.Text != "" {
		drawText(s, 1, y, styleBreath, fmt.Sprintf("%s  %s  %ds  (cycle %d)",
			u.breath.Pattern, u.breath.Text, int(u.breath.Remaining.Seconds()), u.breath.Cycle+1))
	}
	y += 2

	if u.message != "" {
		style := styleDim
		if u.failed {
			style = styleError
		}
		drawText(s, 1, y, style, truncate(u.message, width-2))
	}
	y += 2

	// Metrics fill the remaining rows, two columns
	metrics := e.Stats().Snapshot()
	rows := height - y - len(helpLines) - 1
	col := width / 2
	for i, m := range metrics {
		r, c := i, 0
		if rows > 0 && i >= rows {
			r, c = i-rows, col
		}
		if rows <= 0 || r >= rows {
			break
		}
		drawText(s, 1+c, y+r, styleDim, truncate(m.Name+"="+m.Value, col-2))
	}

	for i, line := range helpLines {
		drawText(s, 1, height-len(helpLines)+i, styleDim, truncate(line, width-2))
	}

	s.Show()
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

func formatAutoStop(d time.Duration) string {
	if d <= 0 {
		return "off"
	}
	return d.String()
}
