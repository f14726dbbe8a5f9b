package api

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Transport executes a built request over TLS. Implementations must not retry or
// modify the request.
type Transport interface {
	Execute(ctx context.Context, req *BuiltRequest) (*ResponseEnvelope, error)
}

// Outcome describes one completed call.
type Outcome struct {
	CallID     string
	Verb       Verb
	Path       string
	ResultKey  string
	StatusCode int
	Err        error
	StartedAt  time.Time
	Elapsed    time.Duration
}

// Observer is notified after every call. Observe must not block for long.
type Observer interface {
	Observe(ctx context.Context, o Outcome)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, o Outcome)

func (f ObserverFunc) Observe(ctx context.Context, o Outcome) { f(ctx, o) }

// Logger defines the logging surface the client relies on.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(log Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithObserver registers an observer for call outcomes.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// Client runs the build, execute and classify pipeline. It is safe for concurrent use.
type Client struct {
	cc        ClientContext
	transport Transport
	observers []Observer
	log       Logger
}

// NewClient returns a client bound to cc and t.
func NewClient(cc ClientContext, t Transport, opts ...Option) *Client {
	c := &Client{cc: cc, transport: t, log: noopLogger{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Context returns the client's ClientContext.
func (c *Client) Context() ClientContext { return c.cc }

// Perform executes d and returns the value under d.ResultKey or a typed error.
func (c *Client) Perform(ctx context.Context, d CallDescriptor) (any, error) {
	if c == nil || c.transport == nil {
		return nil, fmt.Errorf("client is not initialized")
	}

	out := Outcome{
		CallID:    uuid.NewString(),
		Verb:      d.Verb,
		Path:      d.Path,
		ResultKey: d.ResultKey,
		StartedAt: time.Now(),
	}
	result, status, err := c.perform(ctx, d)
	out.StatusCode = status
	out.Err = err
	out.Elapsed = time.Since(out.StartedAt)

	if err != nil {
		c.log.WarnObj("taxjar call failed", "call_error", map[string]any{
			"call_id": out.CallID,
			"verb":    d.Verb.String(),
			"path":    d.Path,
			"status":  status,
			"error":   err.Error(),
		})
	} else {
		c.log.DebugObj("taxjar call completed", "call_result", map[string]any{
			"call_id":    out.CallID,
			"verb":       d.Verb.String(),
			"path":       d.Path,
			"status":     status,
			"elapsed_ms": out.Elapsed.Milliseconds(),
		})
	}

	for _, o := range c.observers {
		o.Observe(ctx, out)
	}
	return result, err
}

func (c *Client) perform(ctx context.Context, d CallDescriptor) (any, int, error) {
	req, err := Build(c.cc, d)
	if err != nil {
		return nil, 0, err
	}

	env, err := c.transport.Execute(ctx, req)
	if err != nil {
		return nil, 0, NewTransportError(err)
	}
	if env == nil {
		return nil, 0, NewTransportError(fmt.Errorf("transport returned no response"))
	}

	result, err := Classify(*env, d.ResultKey)
	return result, env.StatusCode, err
}
