package service

import (
	"errors"
	"reflect"
	"testing"
)

type fakeService struct {
	name    string
	deps    []string
	initErr error
	log     *[]string
	args    []any
}

func (f *fakeService) Name() string           { return f.name }
func (f *fakeService) Dependencies() []string { return f.deps }

func (f *fakeService) Init(args ...any) error {
	f.args = args
	*f.log = append(*f.log, "init:"+f.name)
	return f.initErr
}

func (f *fakeService) Start() error {
	*f.log = append(*f.log, "start:"+f.name)
	return nil
}

func (f *fakeService) Stop() error {
	*f.log = append(*f.log, "stop:"+f.name)
	return nil
}

func TestHubLifecycleOrder(t *testing.T) {
	var log []string
	h := NewHub()
	for _, svc := range []*fakeService{
		{name: "ui", deps: []string{"audio"}, log: &log},
		{name: "audio", deps: []string{"catalog"}, log: &log},
		{name: "catalog", log: &log},
	} {
		if err := h.Register(svc); err != nil {
			t.Fatalf("Register %s: %v", svc.name, err)
		}
	}

	if err := h.InitAll(map[string][]any{"audio": {true}}); err != nil {
		t.Fatalf("InitAll: %v", err)
	}
	if err := h.StartAll(); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	h.StopAll()

	want := []string{
		"init:catalog", "init:audio", "init:ui",
		"start:catalog", "start:audio", "start:ui",
		"stop:ui", "stop:audio", "stop:catalog",
	}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("Expected %v, got %v", want, log)
	}

	audio := MustGet[*fakeService](h, "audio")
	if len(audio.args) != 1 || audio.args[0] != true {
		t.Errorf("Expected audio args [true], got %v", audio.args)
	}
}

func TestHubRejectsDuplicate(t *testing.T) {
	var log []string
	h := NewHub()
	h.Register(&fakeService{name: "audio", log: &log})
	if err := h.Register(&fakeService{name: "audio", log: &log}); err == nil {
		t.Error("Expected duplicate registration to fail")
	}
}

func TestHubCycleAndMissingDependency(t *testing.T) {
	var log []string

	h := NewHub()
	h.Register(&fakeService{name: "a", deps: []string{"b"}, log: &log})
	h.Register(&fakeService{name: "b", deps: []string{"a"}, log: &log})
	if err := h.InitAll(nil); err == nil {
		t.Error("Expected circular dependency error")
	}

	h = NewHub()
	h.Register(&fakeService{name: "a", deps: []string{"missing"}, log: &log})
	if err := h.InitAll(nil); err == nil {
		t.Error("Expected missing dependency error")
	}
}

func TestHubInitRollback(t *testing.T) {
	var log []string
	boom := errors.New("boom")

	h := NewHub()
	h.Register(&fakeService{name: "a", log: &log})
	h.Register(&fakeService{name: "b", deps: []string{"a"}, initErr: boom, log: &log})

	err := h.InitAll(nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Expected wrapped init error, got %v", err)
	}
	want := []string{"init:a", "init:b", "stop:a"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("Expected %v, got %v", want, log)
	}
}
