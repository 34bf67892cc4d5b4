package audio

import (
	"errors"
	"log"
	"sync/atomic"
)

// Service wraps Engine as a service.Service
// A missing output device degrades to silent operation instead of failing startup
type Service struct {
	engine   *Engine
	catalog  *Catalog
	disabled atomic.Bool
}

// NewService creates an uninitialized audio service
func NewService() *Service {
	return &Service{}
}

// Name implements service.Service
func (s *Service) Name() string {
	return "audio"
}

// Dependencies implements service.Service
func (s *Service) Dependencies() []string {
	return nil
}

// Init implements service.Service
// args[0]: *AudioConfig (nil or absent loads from the environment)
// remaining args: Option values
func (s *Service) Init(args ...any) error {
	cfg := LoadAudioConfig()
	var opts []Option
	for i, arg := range args {
		switch v := arg.(type) {
		case *AudioConfig:
			if i == 0 && v != nil {
				cfg = v
			}
		case Option:
			opts = append(opts, v)
		}
	}

	catalog, err := LoadConfiguredCatalog(cfg)
	if err != nil {
		return err
	}

	engine, err := NewEngine(cfg, opts...)
	if err != nil {
		return err
	}
	s.engine = engine
	s.catalog = catalog
	return nil
}

// Start implements service.Service
// Opens the output device; an unavailable device leaves the engine on its silent sink
func (s *Service) Start() error {
	if s.engine == nil {
		return nil
	}
	if err := s.engine.InitOutput(); err != nil {
		if errors.Is(err, ErrOutputUnavailable) {
			s.disabled.Store(true)
			log.Printf("audio service running silent: %v", err)
			return nil
		}
		return err
	}
	return nil
}

// Stop implements service.Service
func (s *Service) Stop() error {
	if s.engine == nil {
		return nil
	}
	return s.engine.Close()
}

// IsDisabled reports whether the output device could not be opened
func (s *Service) IsDisabled() bool {
	return s.disabled.Load()
}

// Engine returns the engine, nil before Init
func (s *Service) Engine() *Engine {
	return s.engine
}

// Catalog returns the loaded sound catalog, nil before Init
func (s *Service) Catalog() *Catalog {
	return s.catalog
}
