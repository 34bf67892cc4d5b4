package audio

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/lixenwraith/somnia/constant"
)

// cueVolumeKey is the SOMNIA_BUS_VOLUMES key for breath cues, which bypass the buses
const cueVolumeKey = "cue"

// AudioConfig holds engine settings
type AudioConfig struct {
	Enabled        bool
	MasterVolume   float64
	BusVolumes     map[BusID]float64
	CueVolume      float64
	SampleRate     int
	Output         OutputMode
	SnoozeInterval time.Duration
	CatalogPath    string // empty: embedded catalog
}

// DefaultAudioConfig returns the built-in settings
func DefaultAudioConfig() *AudioConfig {
	return &AudioConfig{
		Enabled:      true,
		MasterVolume: constant.MasterVolumeDefault,
		BusVolumes: map[BusID]float64{
			BusAlarm: 1.0,
			BusSleep: 1.0,
		},
		CueVolume:      1.0,
		SampleRate:     constant.AudioSampleRate,
		Output:         OutputAuto,
		SnoozeInterval: constant.AlarmSnoozeDefault,
	}
}

// BusVolume returns the volume multiplier for id, 1.0 when unset
func (c *AudioConfig) BusVolume(id BusID) float64 {
	if v, ok := c.BusVolumes[id]; ok {
		return v
	}
	return 1.0
}

// LoadAudioConfig loads audio configuration from environment variables
// Malformed values are ignored and leave the default in place
func LoadAudioConfig() *AudioConfig {
	cfg := DefaultAudioConfig()

	if enabled := os.Getenv("SOMNIA_AUDIO_ENABLED"); enabled != "" {
		if val, err := strconv.ParseBool(enabled); err == nil {
			cfg.Enabled = val
		}
	}

	// Master volume is 0-100 in the environment
	if volume := os.Getenv("SOMNIA_MASTER_VOLUME"); volume != "" {
		if val, err := strconv.Atoi(volume); err == nil {
			cfg.MasterVolume = clampUnit(float64(val) / 100.0)
		}
	}

	if busVols := os.Getenv("SOMNIA_BUS_VOLUMES"); busVols != "" {
		var volumes map[string]float64
		if err := json.Unmarshal([]byte(busVols), &volumes); err == nil {
			for _, id := range []BusID{BusAlarm, BusSleep} {
				if v, ok := volumes[id.String()]; ok {
					cfg.BusVolumes[id] = clampUnit(v)
				}
			}
			if v, ok := volumes[cueVolumeKey]; ok {
				cfg.CueVolume = clampUnit(v)
			}
		}
	}

	if sampleRate := os.Getenv("SOMNIA_SAMPLE_RATE"); sampleRate != "" {
		if val, err := strconv.Atoi(sampleRate); err == nil && val > 0 {
			cfg.SampleRate = val
		}
	}

	if output := os.Getenv("SOMNIA_OUTPUT"); output != "" {
		if mode, err := ParseOutputMode(output); err == nil {
			cfg.Output = mode
		}
	}

	if snooze := os.Getenv("SOMNIA_SNOOZE_MINUTES"); snooze != "" {
		if val, err := strconv.ParseFloat(snooze, 64); err == nil && val > 0 {
			cfg.SnoozeInterval = time.Duration(val * float64(time.Minute))
		}
	}

	if catalog := os.Getenv("SOMNIA_CATALOG"); catalog != "" {
		cfg.CatalogPath = catalog
	}

	return cfg
}

// SaveAudioConfig writes cfg back to the environment for child processes
func SaveAudioConfig(cfg *AudioConfig) error {
	volumes := map[string]float64{cueVolumeKey: cfg.CueVolume}
	for id, v := range cfg.BusVolumes {
		volumes[id.String()] = v
	}
	busVols, err := json.Marshal(volumes)
	if err != nil {
		return fmt.Errorf("encode bus volumes: %w", err)
	}

	env := map[string]string{
		"SOMNIA_AUDIO_ENABLED":  strconv.FormatBool(cfg.Enabled),
		"SOMNIA_MASTER_VOLUME":  strconv.Itoa(int(cfg.MasterVolume*100 + 0.5)),
		"SOMNIA_BUS_VOLUMES":    string(busVols),
		"SOMNIA_SAMPLE_RATE":    strconv.Itoa(cfg.SampleRate),
		"SOMNIA_OUTPUT":         string(cfg.Output),
		"SOMNIA_SNOOZE_MINUTES": strconv.FormatFloat(cfg.SnoozeInterval.Minutes(), 'f', -1, 64),
		"SOMNIA_CATALOG":        cfg.CatalogPath,
	}
	for k, v := range env {
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return nil
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
