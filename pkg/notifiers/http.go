package notifiers

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/taxjar-adapter/pkg/httpclient"
)

const webhookErrorBodyLimit = 512

// webhook posts the JSON event to an HTTP endpoint and expects a 2xx answer.
type webhook struct {
	id      string
	target  string
	method  string
	headers map[string]string
	rc      *resty.Client
	log     Logger
}

func newWebhook(_ context.Context, cfg NotifierConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("notifier %q: http section is required", cfg.ID)
	}
	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	return &webhook{
		id:      cfg.ID,
		target:  cfg.HTTP.URL,
		method:  cfg.HTTP.Method,
		headers: cfg.HTTP.Headers,
		rc:      httpclient.NewRestyHTTPClient(timeout),
		log:     ensureLogger(log),
	}, nil
}

func (w *webhook) ID() string   { return w.id }
func (w *webhook) Type() string { return TypeHTTP }

func (w *webhook) Publish(ctx context.Context, evt Event) error {
	resp, err := w.rc.R().
		SetContext(ctx).
		SetHeaders(w.headers).
		SetHeader("Content-Type", "application/json").
		SetBody(evt).
		Execute(w.method, w.target)
	if err != nil {
		return fmt.Errorf("%s %s: %w", w.method, w.target, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%s %s answered %d: %s", w.method, w.target, resp.StatusCode(), truncate(resp.Body(), webhookErrorBodyLimit))
	}

	w.log.DebugObj("webhook accepted event", "notifier_delivery", map[string]any{
		"notifier_id": w.id,
		"call_id":     evt.CallID,
		"status":      resp.StatusCode(),
	})
	return nil
}

// truncate keeps at most n bytes of b without splitting a UTF-8 sequence.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	b = b[:n]
	for len(b) > 0 && !utf8.Valid(b) {
		b = b[:len(b)-1]
	}
	return string(b) + "..."
}
