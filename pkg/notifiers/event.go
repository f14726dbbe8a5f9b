package notifiers

import (
	"errors"
	"time"

	"github.com/samvad-hq/taxjar-adapter/pkg/api"
)

const kindSuccess = "success"

// Event represents the call outcome published downstream.
type Event struct {
	CallID     string    `json:"call_id"`
	Profile    string    `json:"profile,omitempty"`
	Verb       string    `json:"verb"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message,omitempty"`
	Detail     any       `json:"detail,omitempty"`
	ElapsedMS  int64     `json:"elapsed_ms"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent constructs an Event for a completed call.
func NewEvent(profile string, o api.Outcome) Event {
	evt := Event{
		CallID:     o.CallID,
		Profile:    profile,
		Verb:       o.Verb.String(),
		Path:       o.Path,
		StatusCode: o.StatusCode,
		Kind:       kindSuccess,
		ElapsedMS:  o.Elapsed.Milliseconds(),
		OccurredAt: o.StartedAt.UTC(),
	}
	if o.Err == nil {
		return evt
	}

	var apiErr *api.Error
	if errors.As(o.Err, &apiErr) {
		evt.Kind = apiErr.Kind.String()
		evt.Message = apiErr.Message
		evt.Detail = apiErr.Body
		if evt.Message == "" {
			evt.Message = o.Err.Error()
		}
		return evt
	}
	evt.Kind = api.KindTransport.String()
	evt.Message = o.Err.Error()
	return evt
}

// Failed reports whether the event describes a failed call.
func (e Event) Failed() bool { return e.Kind != kindSuccess }
