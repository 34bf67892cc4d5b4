package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errUnreachable = errors.New("host unreachable")

// fakeFetcher serves canned bodies by URI and counts requests
type fakeFetcher struct {
	mu      sync.Mutex
	bodies  map[string][]byte
	calls   atomic.Int64
	gate    chan struct{} // when non-nil, Fetch blocks until closed
	started chan struct{} // receives once per call when non-nil
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{bodies: make(map[string][]byte)}
}

func (f *fakeFetcher) set(uri string, body []byte) {
	f.mu.Lock()
	f.bodies[uri] = body
	f.mu.Unlock()
}

func (f *fakeFetcher) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	body, ok := f.bodies[uri]
	f.mu.Unlock()
	if !ok {
		return nil, &FetchError{URI: uri, Err: errUnreachable}
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

// makeWAV encodes a 16-bit stereo PCM sine of the given length
func makeWAV(rate, frames int, freq float64) []byte {
	data := make([]byte, frames*4)
	for i := 0; i < frames; i++ {
		v := int16(math.Sin(2*math.Pi*freq*float64(i)/float64(rate)) * 16000)
		binary.LittleEndian.PutUint16(data[i*4:], uint16(v))
		binary.LittleEndian.PutUint16(data[i*4+2:], uint16(v))
	}

	var buf bytes.Buffer
	w := func(v any) { binary.Write(&buf, binary.LittleEndian, v) }
	buf.WriteString("RIFF")
	w(uint32(36 + len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	w(uint32(16))
	w(uint16(1)) // PCM
	w(uint16(2))
	w(uint32(rate))
	w(uint32(rate * 4))
	w(uint16(4))
	w(uint16(16))
	buf.WriteString("data")
	w(uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// newTestEngine returns an engine on a ManualOutput with output already readied
func newTestEngine(t *testing.T, fetcher Fetcher, cfgs ...*AudioConfig) (*Engine, *ManualOutput) {
	t.Helper()

	cfg := DefaultAudioConfig()
	if len(cfgs) > 0 && cfgs[0] != nil {
		cfg = cfgs[0]
	}
	if fetcher == nil {
		fetcher = newFakeFetcher()
	}

	out := NewManualOutput()
	e, err := NewEngine(cfg,
		WithOutput(out),
		WithFallbackOutput(NewManualOutput()),
		WithFetcher(fetcher),
		WithLogger(quietLogger()),
		WithRand(rand.New(rand.NewSource(1))),
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := e.InitOutput(); err != nil {
		t.Fatalf("InitOutput: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e, out
}

func peak(samples [][2]float64) float64 {
	var p float64
	for _, s := range samples {
		p = math.Max(p, math.Max(math.Abs(s[0]), math.Abs(s[1])))
	}
	return p
}

func expectState(t *testing.T, e *Engine, id BusID, want BusState) {
	t.Helper()
	if got := e.BusState(id); got != want {
		t.Fatalf("At %v: expected %s bus %s, got %s", e.Now(), id, want, got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
