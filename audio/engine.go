package audio

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/somnia/constant"
	"github.com/lixenwraith/somnia/status"
)

// Option customizes an Engine at construction
type Option func(*Engine)

// WithOutput replaces the device chosen from AudioConfig.Output
func WithOutput(dev OutputDevice) Option {
	return func(e *Engine) { e.device = dev }
}

// WithFallbackOutput replaces the silent sink used after the device fails
func WithFallbackOutput(dev OutputDevice) Option {
	return func(e *Engine) { e.fallback = dev }
}

// WithFetcher replaces the HTTP fetcher behind the sample cache
func WithFetcher(f Fetcher) Option {
	return func(e *Engine) { e.fetcher = f }
}

// WithLogger sets the engine logger, log.Default() otherwise
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithRegistry publishes engine metrics into reg
func WithRegistry(reg *status.Registry) Option {
	return func(e *Engine) { e.stats = reg }
}

// WithRand makes noise generation reproducible
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// Engine owns the output device, both buses, the sample cache and the timing controller
// Operations and the render path share one lock, so calls and scheduled callbacks are serialized
type Engine struct {
	config *AudioConfig
	format beep.Format
	log    *log.Logger
	stats  *status.Registry
	cache  *SampleCache

	fetcher Fetcher
	master  *masterStream

	outMu     sync.Mutex // device lifecycle; never held together with mu
	device    OutputDevice
	fallback  OutputDevice
	silent    atomic.Bool
	outputErr error // unreported device failure

	closed atomic.Bool
	muted  atomic.Bool
	volume status.AtomicFloat

	mu         sync.Mutex
	rng        *rand.Rand
	sched      *scheduler
	buses      [busCount]*bus
	cues       beep.Mixer
	cueScratch [][2]float64
	sessions   map[*BreathingSession]struct{}
	snooze     *timer
	sleepSeq   uint64 // bumped by every operation that decides the sleep bus
	chainSeq   uint64

	m engineMetrics
}

type engineMetrics struct {
	ops        *atomic.Int64
	superseded *atomic.Int64
	alarms     *atomic.Int64
	snoozes    *atomic.Int64
	sleeps     *atomic.Int64
	failures   *atomic.Int64
	cues       *atomic.Int64
	cuesDone   *atomic.Int64
	live       *atomic.Int64
	silent     *atomic.Bool
	timeline   *status.AtomicFloat
	busStates  [busCount]*status.AtomicString
	sleepSound *status.AtomicString
}

// NewEngine creates an engine; no device is opened until InitOutput or the first play
func NewEngine(cfg *AudioConfig, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultAudioConfig()
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", cfg.SampleRate)
	}

	e := &Engine{
		config: cfg,
		format: beep.Format{
			SampleRate:  beep.SampleRate(cfg.SampleRate),
			NumChannels: constant.AudioChannels,
			Precision:   constant.AudioBitDepth / 8,
		},
		sessions: make(map[*BreathingSession]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.log == nil {
		e.log = log.Default()
	}
	if e.stats == nil {
		e.stats = status.NewRegistry()
	}
	if e.fetcher == nil {
		e.fetcher = NewHTTPFetcher(nil)
	}
	if e.device == nil {
		e.device = NewOutputDevice(cfg.Output)
	}
	if e.fallback == nil {
		e.fallback = NewNullOutput()
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	e.cache = NewSampleCache(e.fetcher, e.format.SampleRate, e.stats)
	e.sched = newScheduler(e.format.SampleRate)
	e.buses[BusAlarm] = newBus(BusAlarm, constant.BusNominalGain, constant.AlarmFadeOut, e.sched, e.log)
	e.buses[BusSleep] = newBus(BusSleep, constant.BusNominalGain, constant.SleepFadeOut, e.sched, e.log)
	e.master = &masterStream{e: e}
	if n, ok := e.device.(failureNotifier); ok {
		n.notifyOnFailure(e.deviceFailed)
	}

	e.muted.Store(!cfg.Enabled)
	e.volume.Set(clampUnit(cfg.MasterVolume))
	e.initMetrics()
	e.publishLocked()

	return e, nil
}

func (e *Engine) initMetrics() {
	r := e.stats
	e.m = engineMetrics{
		ops:        r.Ints.Get("engine.ops"),
		superseded: r.Ints.Get("engine.superseded"),
		alarms:     r.Ints.Get("alarm.rings"),
		snoozes:    r.Ints.Get("alarm.snoozes"),
		sleeps:     r.Ints.Get("sleep.starts"),
		failures:   r.Ints.Get("sleep.failures"),
		cues:       r.Ints.Get("cue.played"),
		cuesDone:   r.Ints.Get("cue.finished"),
		live:       r.Ints.Get("engine.live_chains"),
		silent:     r.Bools.Get("output.silent"),
		timeline:   r.Floats.Get("engine.timeline_s"),
		sleepSound: r.Strings.Get("sleep.sound"),
	}
	for id := BusID(0); id < busCount; id++ {
		e.m.busStates[id] = r.Strings.Get("bus." + id.String())
	}
}

// InitOutput readies the output device, resuming it if suspended
// A device failure is returned wrapped in ErrOutputUnavailable exactly once; the engine then
// continues on the silent fallback so timers and state transitions still run
func (e *Engine) InitOutput() error {
	return e.claimOutput()
}

// ensureOutput readies the device for operations that cannot return an error
// A failure stays pending until InitOutput or an erroring operation hands it back
func (e *Engine) ensureOutput() {
	e.outMu.Lock()
	defer e.outMu.Unlock()

	if !e.closed.Load() {
		e.readyOutputLocked()
	}
}

// claimOutput readies the device and returns a pending failure to the caller
func (e *Engine) claimOutput() error {
	e.outMu.Lock()
	defer e.outMu.Unlock()

	if e.closed.Load() {
		return ErrEngineClosed
	}
	e.readyOutputLocked()
	return e.takeOutputErrLocked()
}

func (e *Engine) readyOutputLocked() {
	err := e.device.EnsureReady(e.format, e.master)
	if err == nil {
		return
	}
	if e.silent.Load() {
		e.log.Printf("audio: fallback output failed: %v", err)
		return
	}
	e.failoverLocked(err)
}

// failoverLocked swaps the failed device for the silent fallback and records the failure
func (e *Engine) failoverLocked(cause error) {
	e.log.Printf("audio: output unavailable, continuing silent: %v", cause)
	e.device.Close()
	e.device = e.fallback
	e.silent.Store(true)
	e.m.silent.Store(true)
	e.outputErr = fmt.Errorf("%w: %v", ErrOutputUnavailable, cause)
	if ferr := e.device.EnsureReady(e.format, e.master); ferr != nil {
		e.log.Printf("audio: fallback output failed: %v", ferr)
	}
}

func (e *Engine) takeOutputErrLocked() error {
	err := e.outputErr
	e.outputErr = nil
	return err
}

// deviceFailed is called by a device whose stream broke after it was readied
func (e *Engine) deviceFailed(err error) {
	e.outMu.Lock()
	defer e.outMu.Unlock()

	if e.closed.Load() || e.silent.Load() {
		return
	}
	e.failoverLocked(err)
}

// Suspend pauses the output device; the timeline stops with it
func (e *Engine) Suspend() error {
	e.outMu.Lock()
	defer e.outMu.Unlock()
	return e.device.Suspend()
}

// PlayAlarm stops the sleep bus immediately and starts the rising wake tone
func (e *Engine) PlayAlarm() {
	e.ensureOutput()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		return
	}
	e.playAlarmLocked()
}

func (e *Engine) playAlarmLocked() {
	e.beginOpLocked()
	e.supersedeSleepLocked()
	e.buses[BusSleep].stop(0)

	now := e.sched.now
	sweep := e.sched.frames(constant.AlarmSweepDuration)

	freq := newParam(constant.AlarmStartFreq)
	freq.exponentialRampTo(now, constant.AlarmEndFreq, sweep)

	c := e.newChainLocked(BusAlarm, "alarm", newSweepOscillator(freq, e.format.SampleRate, now))
	c.freq = freq
	c.gain.setValue(now, constant.AlarmStartGain)
	c.gain.exponentialRampTo(now, constant.AlarmEndGain, sweep)

	e.buses[BusAlarm].start(c, 0, 0)
	e.m.alarms.Add(1)
	e.log.Printf("audio: alarm started at %v", e.sched.elapsed())
	e.publishLocked()
}

// StopAlarm cancels the sweep and fades the alarm out; no-op when idle
// A pending snooze re-ring is cancelled as well
func (e *Engine) StopAlarm() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.beginOpLocked()
	e.buses[BusAlarm].stop(constant.AlarmFadeOut)
	e.publishLocked()
}

// SnoozeAlarm stops a ringing alarm and re-rings it after the configured interval
// Returns false when the alarm is not ringing
func (e *Engine) SnoozeAlarm() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	b := e.buses[BusAlarm]
	if e.closed.Load() || b.state == BusIdle || b.state == BusFadingOut {
		return false
	}

	e.beginOpLocked()
	b.stop(constant.AlarmFadeOut)

	interval := e.config.SnoozeInterval
	e.snooze = e.sched.after(interval, func() {
		e.snooze = nil
		e.log.Printf("audio: snooze elapsed, ringing again")
		e.playAlarmLocked()
	})
	e.m.snoozes.Add(1)
	e.log.Printf("audio: alarm snoozed for %v", interval)
	e.publishLocked()
	return true
}

// SnoozePending reports whether a snooze re-ring is scheduled
func (e *Engine) SnoozePending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snooze.Pending()
}

// PlaySleepSound starts desc on the sleep bus with a fade-in, auto-stopping after duration when > 0
// The alarm is stopped before any decoding. For file samples the current sleep sound fades
// out while the sample is fetched and decoded, so on failure the bus ends idle. A later sleep
// play or stop, or the alarm starting, supersedes a load still in flight: this call then
// returns nil without playing. A pending ErrOutputUnavailable is returned before anything starts
func (e *Engine) PlaySleepSound(ctx context.Context, desc SoundDescriptor, duration time.Duration) error {
	seq, err := e.beginSleep(desc)
	if err != nil {
		return err
	}
	return e.finishSleep(ctx, seq, desc, duration)
}

// PlaySleepSoundAsync orders the request now and loads in the background
// The channel yields the result once and is then closed
func (e *Engine) PlaySleepSoundAsync(ctx context.Context, desc SoundDescriptor, duration time.Duration) <-chan error {
	done := make(chan error, 1)

	seq, err := e.beginSleep(desc)
	if err != nil {
		done <- err
		close(done)
		return done
	}

	go func() {
		defer close(done)
		done <- e.finishSleep(ctx, seq, desc, duration)
	}()
	return done
}

// beginSleep applies everything that must not wait for a sample: exclusion, and for file
// samples the fade-out of the previous sound, so a failed load leaves the bus idle
func (e *Engine) beginSleep(desc SoundDescriptor) (uint64, error) {
	if err := desc.Validate(); err != nil {
		return 0, err
	}
	if err := e.claimOutput(); err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		return 0, ErrEngineClosed
	}

	e.beginOpLocked()
	seq := e.supersedeSleepLocked()
	e.buses[BusAlarm].stop(0)
	if desc.Kind == KindFile {
		e.buses[BusSleep].stop(constant.SleepFadeOut)
	}
	e.publishLocked()
	return seq, nil
}

func (e *Engine) finishSleep(ctx context.Context, seq uint64, desc SoundDescriptor, duration time.Duration) error {
	var sample *DecodedSample
	if desc.Kind == KindFile {
		s, err := e.cache.FetchDecoded(ctx, desc.Source)
		if err != nil {
			e.m.failures.Add(1)
			e.log.Printf("audio: sleep sound %s failed: %v", desc.ID, err)
			return fmt.Errorf("sleep sound %s: %w", desc.ID, err)
		}
		sample = s
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Load() {
		return ErrEngineClosed
	}
	if e.sleepSeq != seq {
		e.m.superseded.Add(1)
		e.log.Printf("audio: sleep sound %s superseded while loading", desc.ID)
		return nil
	}

	src, err := e.sleepSourceLocked(desc, sample)
	if err != nil {
		e.m.failures.Add(1)
		return fmt.Errorf("sleep sound %s: %w", desc.ID, err)
	}

	c := e.newChainLocked(BusSleep, desc.Label(), src)
	e.buses[BusSleep].start(c, constant.SleepFadeIn, duration)
	e.m.sleeps.Add(1)
	e.m.sleepSound.Store(desc.ID)
	e.log.Printf("audio: sleep sound %s started, auto-stop %v", desc.ID, duration)
	e.publishLocked()
	return nil
}

func (e *Engine) sleepSourceLocked(desc SoundDescriptor, sample *DecodedSample) (beep.Streamer, error) {
	sr := e.format.SampleRate
	switch desc.Kind {
	case KindNoise:
		return NoiseLoop(desc.Color, sr, e.rng), nil
	case KindBinaural:
		return Binaural(desc.BaseHz, desc.BeatHz, sr)
	case KindFile:
		return beep.Loop(-1, sample.Streamer()), nil
	}
	return nil, fmt.Errorf("%w: kind %v", ErrInvalidDescriptor, desc.Kind)
}

// StopSleepSound fades the sleep bus out; no-op when idle
func (e *Engine) StopSleepSound() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.beginOpLocked()
	e.supersedeSleepLocked()
	e.buses[BusSleep].stop(constant.SleepFadeOut)
	e.publishLocked()
}

// PlayBreathCue plays a one-shot breath burst outside the buses
func (e *Engine) PlayBreathCue(dir BreathDirection, seconds float64) {
	e.ensureOutput()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		return
	}
	e.playCueLocked(dir, seconds)
}

func (e *Engine) playCueLocked(dir BreathDirection, seconds float64) {
	buf := BreathCue(dir, seconds, e.format.SampleRate, e.rng)
	if len(buf) == 0 {
		return
	}

	cue := beep.Seq(&monoStreamer{buf: buf}, beep.Callback(func() {
		e.m.cuesDone.Add(1)
	}))
	e.cues.Add(newVolume(cue, e.config.CueVolume))
	e.m.cues.Add(1)
}

// BusState returns the state of a bus
func (e *Engine) BusState(id BusID) BusState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id < 0 || id >= busCount {
		return BusIdle
	}
	return e.buses[id].state
}

// LiveChains counts chains connected to the output across both buses, fading ones included
func (e *Engine) LiveChains() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.liveLocked()
}

func (e *Engine) liveLocked() int {
	n := 0
	for _, b := range e.buses {
		n += b.live()
	}
	return n
}

// ActiveCues returns the number of breath cues still sounding
func (e *Engine) ActiveCues() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cues.Len()
}

// Now returns the output timeline position
func (e *Engine) Now() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sched.elapsed()
}

// Format returns the engine's stream format
func (e *Engine) Format() beep.Format {
	return e.format
}

// Stats returns the metrics registry
func (e *Engine) Stats() *status.Registry {
	return e.stats
}

// Cache returns the sample cache
func (e *Engine) Cache() *SampleCache {
	return e.cache
}

// SetVolume sets master volume (0.0-1.0)
func (e *Engine) SetVolume(vol float64) {
	e.volume.Set(clampUnit(vol))
}

// Volume returns master volume
func (e *Engine) Volume() float64 {
	return e.volume.Get()
}

// ToggleMute toggles mute state, returns true if now audible
func (e *Engine) ToggleMute() bool {
	muted := !e.muted.Load()
	e.muted.Store(muted)
	return !muted
}

// IsMuted returns current mute state
func (e *Engine) IsMuted() bool {
	return e.muted.Load()
}

// IsSilent reports whether the engine fell back to the silent sink
func (e *Engine) IsSilent() bool {
	return e.silent.Load()
}

// Close stops everything and releases the device; later operations are no-ops
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	e.mu.Lock()
	for s := range e.sessions {
		s.stopLocked()
	}
	e.cancelSnoozeLocked()
	for _, b := range e.buses {
		b.stop(0)
	}
	e.cues.Clear()
	e.sched.clear()
	e.publishLocked()
	e.mu.Unlock()

	e.outMu.Lock()
	defer e.outMu.Unlock()
	if err := e.device.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

// beginOpLocked counts a bus operation and cancels a pending snooze re-ring
func (e *Engine) beginOpLocked() {
	e.m.ops.Add(1)
	e.cancelSnoozeLocked()
}

// supersedeSleepLocked invalidates any sample load still in flight for the sleep bus
// Only operations that decide the sleep bus call it: a later sleep play or stop, and the
// alarm starting, which silences the sleep bus
func (e *Engine) supersedeSleepLocked() uint64 {
	e.sleepSeq++
	return e.sleepSeq
}

func (e *Engine) cancelSnoozeLocked() {
	if e.snooze != nil {
		e.snooze.Stop()
		e.snooze = nil
	}
}

func (e *Engine) newChainLocked(id BusID, label string, src beep.Streamer) *chain {
	e.chainSeq++
	return newChain(e.chainSeq, id, label, src, 0)
}

// publishLocked mirrors bus state into the registry
func (e *Engine) publishLocked() {
	for id, b := range e.buses {
		e.m.busStates[id].Store(b.state.String())
	}
	e.m.live.Store(int64(e.liveLocked()))
	e.m.timeline.Set(e.sched.elapsed().Seconds())
}
