package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestServiceLifecycle verifies Init/Start/Stop with an injected device
func TestServiceLifecycle(t *testing.T) {
	s := NewService()
	if s.Name() != "audio" || s.Dependencies() != nil {
		t.Errorf("Expected audio with no dependencies, got %s %v", s.Name(), s.Dependencies())
	}

	out := NewManualOutput()
	if err := s.Init(DefaultAudioConfig(), WithOutput(out), WithLogger(quietLogger())); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if s.Engine() == nil || s.Catalog().Len() != 9 {
		t.Fatal("Expected engine and embedded catalog")
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.IsDisabled() || out.Readies() != 1 {
		t.Errorf("Expected live output, disabled=%v readies=%d", s.IsDisabled(), out.Readies())
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !errors.Is(s.Engine().InitOutput(), ErrEngineClosed) {
		t.Error("Expected engine closed by Stop")
	}
}

// TestServiceSilentStart verifies a missing device degrades instead of failing
func TestServiceSilentStart(t *testing.T) {
	out := NewManualOutput()
	out.FailWith(errors.New("no card"))

	s := NewService()
	if err := s.Init(nil, WithOutput(out), WithFallbackOutput(NewManualOutput()), WithLogger(quietLogger())); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Expected silent start, got %v", err)
	}
	if !s.IsDisabled() || !s.Engine().IsSilent() {
		t.Error("Expected service disabled and engine silent")
	}
	s.Stop()
}

// TestServiceCatalogPath verifies a configured catalog replaces the embedded one
func TestServiceCatalogPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	os.WriteFile(path, []byte("[[sound]]\nid = \"hum\"\nkind = \"binaural\"\nbase = 60.0\nbeat = 2.0\n"), 0o644)

	cfg := DefaultAudioConfig()
	cfg.CatalogPath = path
	s := NewService()
	if err := s.Init(cfg, WithOutput(NewManualOutput()), WithLogger(quietLogger())); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer s.Stop()
	if _, err := s.Catalog().Lookup("hum"); err != nil {
		t.Errorf("Expected hum, got %v", err)
	}

	cfg.CatalogPath = path + ".missing"
	if err := NewService().Init(cfg); err == nil {
		t.Error("Expected missing catalog error")
	}
}

// TestServiceUninitialized verifies lifecycle calls before Init are no-ops
func TestServiceUninitialized(t *testing.T) {
	s := NewService()
	if s.Start() != nil || s.Stop() != nil {
		t.Error("Expected nil before Init")
	}
}
