package notifiers

import (
	"context"
	"fmt"
	"strings"
)

// Builder turns a sink declaration into a live Publisher.
type Builder func(ctx context.Context, cfg NotifierConfig, log Logger) (Publisher, error)

// Builders maps sink types to their Builder. Populate it before use; it is not
// safe for concurrent mutation.
type Builders map[string]Builder

// DefaultBuilders knows every sink type shipped with this package.
func DefaultBuilders() Builders {
	return Builders{
		TypeHTTP:   newWebhook,
		TypeSQS:    newSQSPublisher,
		TypeSNS:    newSNSPublisher,
		TypePubSub: newPubSubPublisher,
	}
}

// Register adds or replaces the builder for typ.
func (b Builders) Register(typ string, fn Builder) {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ == "" || fn == nil {
		return
	}
	b[typ] = fn
}

// Build creates the publisher for one sink.
func (b Builders) Build(ctx context.Context, cfg NotifierConfig, log Logger) (Publisher, error) {
	fn, ok := b[strings.ToLower(cfg.Type)]
	if !ok {
		return nil, fmt.Errorf("notifier %q: unknown type %q", cfg.ID, cfg.Type)
	}
	return fn(ctx, cfg, log)
}

// BuildAll creates a Dispatcher over cfgs. When any sink fails to build, the
// ones already created are closed and the error is returned.
func BuildAll(ctx context.Context, b Builders, cfgs []NotifierConfig, log Logger) (*Dispatcher, error) {
	built := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := b.Build(ctx, cfg, log)
		if err != nil {
			_ = NewDispatcher(built...).Close()
			return nil, fmt.Errorf("build notifier %q: %w", cfg.ID, err)
		}
		built = append(built, pub)
	}
	return NewDispatcher(built...), nil
}
