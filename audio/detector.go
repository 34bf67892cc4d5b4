package audio

import (
	"os"
	"os/exec"
	"runtime"
	"strconv"
)

// BackendType identifies the CLI audio sink behind a pipe output
type BackendType int

const (
	BackendPulse BackendType = iota
	BackendPipeWire
	BackendALSA
	BackendSoX
	BackendFFplay
	BackendOSS
)

// BackendConfig describes how to launch a raw s16le stereo sink
type BackendConfig struct {
	Type BackendType
	Name string
	Path string
	Args []string // nil for OSS: direct device write
}

// lookPath is swapped in tests
var lookPath = exec.LookPath

// DetectBackend finds the first available sink for raw PCM at sampleRate
// Priority: pacat > pw-cat > aplay > play (sox) > ffplay > OSS
func DetectBackend(sampleRate int) (*BackendConfig, error) {
	rate := strconv.Itoa(sampleRate)

	candidates := []BackendConfig{
		{Type: BackendPulse, Name: "pacat", Args: []string{
			"--raw", "--format=s16le", "--rate=" + rate, "--channels=2", "--latency-msec=100", "--playback",
		}},
		{Type: BackendPipeWire, Name: "pw-cat", Args: []string{
			"--playback", "--format=s16", "--rate=" + rate, "--channels=2", "--latency=100ms", "-",
		}},
		{Type: BackendALSA, Name: "aplay", Args: []string{
			"-t", "raw", "-f", "S16_LE", "-r", rate, "-c", "2", "-q",
		}},
		{Type: BackendSoX, Name: "play", Args: []string{
			"-t", "raw", "-e", "signed", "-b", "16", "-c", "2", "-r", rate, "-", "-d", "-q",
		}},
		{Type: BackendFFplay, Name: "ffplay", Args: []string{
			"-nodisp", "-autoexit", "-f", "s16le", "-ac", "2", "-ar", rate,
			"-probesize", "32", "-analyzeduration", "0", "-i", "pipe:0", "-loglevel", "quiet",
		}},
	}

	for _, c := range candidates {
		if p, err := lookPath(c.Name); err == nil {
			cfg := c
			cfg.Path = p
			return &cfg, nil
		}
	}

	if runtime.GOOS == "freebsd" {
		if _, err := os.Stat("/dev/dsp"); err == nil {
			return &BackendConfig{Type: BackendOSS, Name: "oss", Path: "/dev/dsp"}, nil
		}
	}

	return nil, ErrNoAudioBackend
}
