package notifiers

import (
	"context"
	"errors"
	"testing"
)

type stubPublisher struct {
	id     string
	typ    string
	err    error
	calls  int
	closed bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}
func (s *stubPublisher) Close() error {
	s.closed = true
	return nil
}

func TestDispatcherNotifyContinuesPastFailures(t *testing.T) {
	bad := &stubPublisher{id: "bad", typ: "http", err: errors.New("failed")}
	good := &stubPublisher{id: "ok", typ: "http"}
	d := NewDispatcher(bad, nil, good)
	if d.Len() != 2 {
		t.Fatalf("nil publishers should be dropped, len = %d", d.Len())
	}

	delivered, err := d.Notify(context.Background(), Event{})
	if delivered != 1 || err == nil {
		t.Fatalf("Notify = %d, %v", delivered, err)
	}
	if good.calls != 1 {
		t.Fatalf("sink after a failure was not called")
	}
}

func TestDispatcherCloseAndNil(t *testing.T) {
	pub := &stubPublisher{id: "p", typ: "pubsub"}
	if err := NewDispatcher(pub).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !pub.closed {
		t.Fatalf("publisher not closed")
	}

	var nilDispatcher *Dispatcher
	if n, err := nilDispatcher.Notify(context.Background(), Event{}); n != 0 || err != nil {
		t.Fatalf("nil dispatcher Notify = %d, %v", n, err)
	}
	if nilDispatcher.Len() != 0 || nilDispatcher.Close() != nil {
		t.Fatalf("nil dispatcher should be empty")
	}
}

func TestBuildAllWithDefaultBuilders(t *testing.T) {
	d, err := BuildAll(context.Background(), DefaultBuilders(), []NotifierConfig{
		{ID: "hook", Type: TypeHTTP, HTTP: &HTTPConfig{URL: "https://example.com", Method: "POST", TimeoutSeconds: 1}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if d.Len() != 1 {
		t.Fatalf("expected 1 sink, got %d", d.Len())
	}
}

func TestBuildAllClosesBuiltSinksOnError(t *testing.T) {
	built := &stubPublisher{id: "first", typ: "stub"}
	b := Builders{}
	b.Register("stub", func(context.Context, NotifierConfig, Logger) (Publisher, error) { return built, nil })

	_, err := BuildAll(context.Background(), b, []NotifierConfig{
		{ID: "first", Type: "stub"},
		{ID: "second", Type: "kafka"},
	}, nil)
	if err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if !built.closed {
		t.Fatalf("already built sink should be closed")
	}
}
