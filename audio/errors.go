package audio

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrFetch             = errors.New("sample fetch failed")
	ErrDecode            = errors.New("sample decode failed")
	ErrOutputUnavailable = errors.New("audio output unavailable")
	ErrNoAudioBackend    = errors.New("no compatible audio backend found")
	ErrPipeClosed        = errors.New("audio pipe closed")
	ErrUnknownSound      = errors.New("unknown sound")
	ErrInvalidDescriptor = errors.New("invalid sound descriptor")
	ErrEngineClosed      = errors.New("audio engine closed")
	ErrInvalidPattern    = errors.New("invalid breathing pattern")
)

// FetchError reports a transport failure retrieving a sample
type FetchError struct {
	URI string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URI, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is matches ErrFetch so callers can test the class without a type switch
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// DecodeError reports bytes that were retrieved but are not playable audio
type DecodeError struct {
	URI string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.URI, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
