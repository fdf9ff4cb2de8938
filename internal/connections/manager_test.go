package connections

import (
	"context"
	"errors"
	"testing"
)

// stubConnection is a minimal Connection for dispatch tests.
type stubConnection struct {
	name     string
	state    State
	actions  map[string]ActionSpec
	performs int
	lastArgs []any
	result   any
	err      error
}

func newStubConnection(name string) *stubConnection {
	return &stubConnection{
		name: name,
		actions: map[string]ActionSpec{
			"echo": {
				Name: "echo",
				Params: []ParamSpec{
					{Name: "message", Required: true, Description: "text to echo"},
					{Name: "suffix", Required: false, Description: "optional suffix"},
				},
			},
		},
		result: "done",
	}
}

func (s *stubConnection) Name() string                        { return s.name }
func (s *stubConnection) Initialize(context.Context) error    { s.state.SetConnected(true); return nil }
func (s *stubConnection) Shutdown(context.Context) error      { s.state.SetConnected(false); return nil }
func (s *stubConnection) State() *State                       { return &s.state }
func (s *stubConnection) Actions() map[string]ActionSpec      { return s.actions }
func (s *stubConnection) Perform(_ context.Context, _ string, params []any) (any, error) {
	s.performs++
	s.lastArgs = params
	return s.result, s.err
}

func TestPerformAction_UnknownConnection(t *testing.T) {
	m := NewManager()
	_, err := m.PerformAction(context.Background(), "nope", "echo", nil)

	var ucErr *UnknownConnectionError
	if !errors.As(err, &ucErr) {
		t.Fatalf("err = %v, want UnknownConnectionError", err)
	}
	if ucErr.Name != "nope" {
		t.Errorf("error names %q, want nope", ucErr.Name)
	}
}

func TestPerformAction_NotConnected(t *testing.T) {
	m := NewManager()
	m.Register(newStubConnection("svc"))

	_, err := m.PerformAction(context.Background(), "svc", "echo", []any{"hi"})
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}

func TestPerformAction_UnknownAction(t *testing.T) {
	m := NewManager()
	stub := newStubConnection("svc")
	stub.Initialize(context.Background())
	m.Register(stub)

	_, err := m.PerformAction(context.Background(), "svc", "explode", nil)
	var uaErr *UnknownActionError
	if !errors.As(err, &uaErr) {
		t.Fatalf("err = %v, want UnknownActionError", err)
	}
}

func TestPerformAction_MissingParameter(t *testing.T) {
	m := NewManager()
	stub := newStubConnection("svc")
	stub.Initialize(context.Background())
	m.Register(stub)

	_, err := m.PerformAction(context.Background(), "svc", "echo", nil)
	var mpErr *MissingParameterError
	if !errors.As(err, &mpErr) {
		t.Fatalf("err = %v, want MissingParameterError", err)
	}
	if mpErr.Param != "message" {
		t.Errorf("missing param = %q, want message", mpErr.Param)
	}
	if stub.performs != 0 {
		t.Errorf("Perform was called despite missing parameter")
	}
}

func TestPerformAction_PassThrough(t *testing.T) {
	m := NewManager()
	stub := newStubConnection("svc")
	stub.Initialize(context.Background())
	m.Register(stub)

	result, err := m.PerformAction(context.Background(), "svc", "echo", []any{"hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "done" {
		t.Errorf("result = %v, want pass-through value done", result)
	}
	if stub.performs != 1 {
		t.Errorf("performs = %d, want 1", stub.performs)
	}
}

func TestPerformAction_Idempotent(t *testing.T) {
	m := NewManager()
	stub := newStubConnection("svc")
	stub.Initialize(context.Background())
	m.Register(stub)

	for i := 0; i < 3; i++ {
		result, err := m.PerformAction(context.Background(), "svc", "echo", []any{"hi"})
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if result != "done" {
			t.Errorf("call %d: result = %v, want done", i, result)
		}
	}
}

func TestPerformAction_OptionalParamMayBeAbsent(t *testing.T) {
	m := NewManager()
	stub := newStubConnection("svc")
	stub.Initialize(context.Background())
	m.Register(stub)

	if _, err := m.PerformAction(context.Background(), "svc", "echo", []any{"hi"}); err != nil {
		t.Fatalf("optional param absent should pass validation: %v", err)
	}
}

func TestManager_InitializeAllToleratesPartialFailure(t *testing.T) {
	m := NewManager()
	good := newStubConnection("good")
	m.Register(good)
	m.Register(&failingConnection{name: "bad"})

	m.InitializeAll(context.Background())

	if !good.State().Connected() {
		t.Errorf("healthy connection should be up despite sibling failure")
	}
}

type failingConnection struct {
	name  string
	state State
}

func (f *failingConnection) Name() string                     { return f.name }
func (f *failingConnection) Initialize(context.Context) error { return errors.New("boom") }
func (f *failingConnection) Shutdown(context.Context) error   { return nil }
func (f *failingConnection) State() *State                    { return &f.state }
func (f *failingConnection) Actions() map[string]ActionSpec   { return nil }
func (f *failingConnection) Perform(context.Context, string, []any) (any, error) {
	return nil, errors.New("boom")
}
