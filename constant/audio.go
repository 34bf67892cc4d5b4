package constant

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate    = 44100
	AudioChannels      = 2
	AudioBitDepth      = 16
	AudioBytesPerFrame = AudioChannels * (AudioBitDepth / 8) // 4 bytes
)

// Audio Engine Timing
const (
	// AudioBufferDuration is the pull interval of ticker-driven outputs (pipe, null)
	AudioBufferDuration = 50 * time.Millisecond

	// SpeakerBufferDuration is the device buffer handed to the speaker backend
	SpeakerBufferDuration = 100 * time.Millisecond

	// RenderBlockFrames caps a single render pass between scheduler checks
	RenderBlockFrames = 512
)

// Bus Levels
const (
	// BusNominalGain is the steady-state gain of a started chain
	BusNominalGain = 0.5

	// MasterVolumeDefault is applied after bus mixing
	MasterVolumeDefault = 1.0
)

// Sleep Bus Envelope
const (
	SleepFadeIn  = 2 * time.Second
	SleepFadeOut = 2 * time.Second
)

// Alarm Envelope
const (
	AlarmSweepDuration = 30 * time.Second
	AlarmStartFreq     = 300.0 // Hz
	AlarmEndFreq       = 800.0 // Hz
	AlarmStartGain     = 0.001
	AlarmEndGain       = 0.5
	AlarmFadeOut       = 500 * time.Millisecond

	// AlarmSnoozeDefault is the delay before a snoozed alarm rings again
	AlarmSnoozeDefault = 9 * time.Minute
)

// Noise Loop
const (
	// NoiseLoopDuration is the length of a generated noise loop
	NoiseLoopDuration = 2 * time.Second

	// NoiseLoopPadFrames detunes the loop length off round periods (prime)
	NoiseLoopPadFrames = 7

	// NoiseLoopSeam is the head/tail crossfade that hides the loop boundary
	NoiseLoopSeam = 20 * time.Millisecond
)

// Noise Color Filters
const (
	PinkNoiseScale   = 0.11
	PinkNoiseDirect  = 0.5362
	BrownNoiseLeak   = 1.02
	BrownNoiseStep   = 0.02
	BrownNoiseMakeup = 3.5
)

// Breath Cue
const (
	BreathInhaleFreq = 1500.0 // Hz
	BreathExhaleFreq = 800.0  // Hz
	BreathFilterQ    = 1.5
	BreathPeakGain   = 0.15
	BreathAttack     = 500 * time.Millisecond
)

// Breathing Session
const (
	// BreathTickInterval is the countdown granularity published to listeners
	BreathTickInterval = time.Second

	// BreathEventBuffer is the capacity of a session's event channel
	BreathEventBuffer = 16
)

// Output Limiter
const (
	// LimiterKnee is the level above which the soft limiter compresses
	LimiterKnee = 0.8
)
