package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Fetcher retrieves encoded audio bytes for a URI
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (io.ReadCloser, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, uri string) (io.ReadCloser, error)

func (f FetcherFunc) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	return f(ctx, uri)
}

// HTTPFetcher resolves http(s) URLs over the network and file URLs or bare paths from disk
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns a fetcher using client, or a client with a 30s timeout when nil
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{Client: client}
}

// Fetch implements Fetcher; every failure is a *FetchError
func (f *HTTPFetcher) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, &FetchError{URI: uri, Err: err}
	}

	switch u.Scheme {
	case "http", "https":
		return f.fetchHTTP(ctx, uri)
	case "file":
		return openFile(uri, u.Path)
	case "":
		return openFile(uri, uri)
	default:
		return nil, &FetchError{URI: uri, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
}

func (f *HTTPFetcher) fetchHTTP(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &FetchError{URI: uri, Err: err}
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &FetchError{URI: uri, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &FetchError{URI: uri, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return resp.Body, nil
}

func openFile(uri, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FetchError{URI: uri, Err: err}
	}
	return f, nil
}
