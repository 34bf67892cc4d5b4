package audio

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"golang.org/x/sync/singleflight"

	"github.com/lixenwraith/somnia/status"
)

// DecodedSample is a fully decoded file sample at the engine rate
// Buffers are shared; each playback takes its own cursor via Streamer
type DecodedSample struct {
	URI    string
	Source beep.Format // format of the encoded file
	Buffer *beep.Buffer
}

// Duration returns the playable length
func (s *DecodedSample) Duration() time.Duration {
	return s.Buffer.Format().SampleRate.D(s.Buffer.Len())
}

// Streamer returns an independent cursor over the whole sample
func (s *DecodedSample) Streamer() beep.StreamSeeker {
	return s.Buffer.Streamer(0, s.Buffer.Len())
}

// SampleCache memoizes decoded samples by URI for the process lifetime
// Concurrent first requests for a URI share one fetch; failures are not cached
type SampleCache struct {
	fetcher Fetcher
	rate    beep.SampleRate

	mu    sync.RWMutex
	store map[string]*DecodedSample
	group singleflight.Group

	hits    *atomic.Int64
	misses  *atomic.Int64
	fetches *atomic.Int64
	failed  *atomic.Int64
	entries *atomic.Int64
}

// NewSampleCache creates a cache decoding to rate; reg may be nil
func NewSampleCache(fetcher Fetcher, rate beep.SampleRate, reg *status.Registry) *SampleCache {
	if reg == nil {
		reg = status.NewRegistry()
	}
	return &SampleCache{
		fetcher: fetcher,
		rate:    rate,
		store:   make(map[string]*DecodedSample),
		hits:    reg.Ints.Get("cache.hits"),
		misses:  reg.Ints.Get("cache.misses"),
		fetches: reg.Ints.Get("cache.fetches"),
		failed:  reg.Ints.Get("cache.failures"),
		entries: reg.Ints.Get("cache.entries"),
	}
}

// FetchDecoded returns the decoded sample for uri, fetching and decoding on first use
// Cancelling ctx abandons the wait; a shared fetch keeps running for other callers
func (c *SampleCache) FetchDecoded(ctx context.Context, uri string) (*DecodedSample, error) {
	if s, ok := c.lookup(uri); ok {
		c.hits.Add(1)
		return s, nil
	}
	c.misses.Add(1)

	ch := c.group.DoChan(uri, func() (any, error) {
		// A concurrent flight may have stored it between lookup and DoChan
		if s, ok := c.lookup(uri); ok {
			return s, nil
		}

		s, err := c.load(context.WithoutCancel(ctx), uri)
		if err != nil {
			c.failed.Add(1)
			return nil, err
		}

		c.mu.Lock()
		c.store[uri] = s
		c.entries.Store(int64(len(c.store)))
		c.mu.Unlock()
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, &FetchError{URI: uri, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*DecodedSample), nil
	}
}

// Cached reports whether uri is resolved
func (c *SampleCache) Cached(uri string) bool {
	_, ok := c.lookup(uri)
	return ok
}

// Len returns the number of resolved samples
func (c *SampleCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

func (c *SampleCache) lookup(uri string) (*DecodedSample, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.store[uri]
	return s, ok
}

func (c *SampleCache) load(ctx context.Context, uri string) (*DecodedSample, error) {
	c.fetches.Add(1)

	rc, err := c.fetcher.Fetch(ctx, uri)
	if err != nil {
		if !errors.Is(err, ErrFetch) {
			err = &FetchError{URI: uri, Err: err}
		}
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &FetchError{URI: uri, Err: err}
	}

	return decodeSample(uri, data, c.rate)
}
