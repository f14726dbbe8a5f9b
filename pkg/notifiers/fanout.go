package notifiers

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Dispatcher delivers each event to every publisher it holds, in order.
// A nil Dispatcher delivers nothing.
type Dispatcher struct {
	sinks []Publisher
}

// NewDispatcher drops nil publishers.
func NewDispatcher(pubs ...Publisher) *Dispatcher {
	d := &Dispatcher{}
	for _, p := range pubs {
		if p != nil {
			d.sinks = append(d.sinks, p)
		}
	}
	return d
}

// Notify sends evt to all sinks. It reports how many accepted it and joins the
// failures of the rest; one failing sink does not stop the others.
func (d *Dispatcher) Notify(ctx context.Context, evt Event) (delivered int, err error) {
	if d == nil {
		return 0, nil
	}
	var failures []error
	for _, p := range d.sinks {
		if perr := p.Publish(ctx, evt); perr != nil {
			failures = append(failures, sinkError(p, perr))
			continue
		}
		delivered++
	}
	return delivered, errors.Join(failures...)
}

// Len is the number of sinks.
func (d *Dispatcher) Len() int {
	if d == nil {
		return 0
	}
	return len(d.sinks)
}

// Close releases sinks that hold client connections.
func (d *Dispatcher) Close() error {
	if d == nil {
		return nil
	}
	var failures []error
	for _, p := range d.sinks {
		c, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			failures = append(failures, sinkError(p, err))
		}
	}
	return errors.Join(failures...)
}

func sinkError(p Publisher, err error) error {
	return fmt.Errorf("%s notifier %q: %w", p.Type(), p.ID(), err)
}
