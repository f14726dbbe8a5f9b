package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/taxjar-adapter/pkg/api"
)

const keepAlive = 30 * time.Second

// RestyTransport adapts resty.Client to the api.Transport interface.
type RestyTransport struct {
	client    *resty.Client
	tlsConfig *tls.Config

	mu       sync.Mutex
	timedOut map[api.Timeouts]*resty.Client
}

// Option configures a RestyTransport.
type Option func(*RestyTransport)

// WithTLSConfig sets the TLS configuration used for every connection.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(t *RestyTransport) {
		if cfg != nil {
			t.tlsConfig = cfg.Clone()
		}
	}
}

// NewRestyTransport creates a transport that uses resty defaults unless a call
// carries its own timeouts.
func NewRestyTransport(opts ...Option) *RestyTransport {
	t := &RestyTransport{}
	for _, opt := range opts {
		opt(t)
	}
	t.client = t.newClient(api.Timeouts{})
	return t
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// Execute performs req once and returns the raw status and body.
func (t *RestyTransport) Execute(ctx context.Context, req *api.BuiltRequest) (*api.ResponseEnvelope, error) {
	if req == nil || req.URL == nil {
		return nil, api.NewTransportError(fmt.Errorf("request is nil"))
	}
	if !strings.EqualFold(req.URL.Scheme, "https") {
		return nil, api.NewTransportError(fmt.Errorf("refusing insecure scheme %q", req.URL.Scheme))
	}

	client := t.clientFor(req.Timeouts)

	r := client.R().
		SetContext(ctx).
		SetHeaders(req.Headers.Map())
	if req.Verb != api.VerbGet {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Verb.Method(), req.FullURL())
	if err != nil {
		return nil, api.NewTransportError(fmt.Errorf("%s %s: %w", req.Verb, req.URL.Redacted(), err))
	}
	return &api.ResponseEnvelope{StatusCode: resp.StatusCode(), Body: resp.Body()}, nil
}

// clientFor returns the shared client for timeouts; one client (and one
// connection pool) exists per distinct timeout set.
func (t *RestyTransport) clientFor(timeouts api.Timeouts) *resty.Client {
	if timeouts.IsZero() {
		return t.client
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.timedOut[timeouts]; ok {
		return c
	}
	if t.timedOut == nil {
		t.timedOut = make(map[api.Timeouts]*resty.Client)
	}
	c := t.newClient(timeouts)
	t.timedOut[timeouts] = c
	return c
}

// CloseIdleConnections releases idle connections held by every client.
func (t *RestyTransport) CloseIdleConnections() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.client.GetClient().CloseIdleConnections()
	for _, c := range t.timedOut {
		c.GetClient().CloseIdleConnections()
	}
}

func (t *RestyTransport) newClient(timeouts api.Timeouts) *resty.Client {
	c := resty.NewWithClient(&http.Client{Transport: newHTTPTransport(timeouts, t.tlsConfig)})
	c.SetRetryCount(0)
	if timeouts.Read > 0 {
		c.SetTimeout(timeouts.Read)
	}
	c.SetPreRequestHook(applyHostHeader)
	return c
}

// applyHostHeader copies the Host header onto the raw request, where net/http reads it.
func applyHostHeader(_ *resty.Client, raw *http.Request) error {
	if host := raw.Header.Get("Host"); host != "" {
		raw.Host = host
	}
	if strings.EqualFold(raw.Header.Get("Connection"), "close") {
		raw.Close = true
	}
	return nil
}

// newHTTPTransport applies t uniformly to every timeout net/http exposes.
func newHTTPTransport(t api.Timeouts, tlsCfg *tls.Config) *http.Transport {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = http.ProxyFromEnvironment
	if tlsCfg != nil {
		tr.TLSClientConfig = tlsCfg.Clone()
	}
	if t.IsZero() {
		return tr
	}
	dialer := &net.Dialer{Timeout: t.Connect, KeepAlive: keepAlive}
	tr.DialContext = dialer.DialContext
	tr.TLSHandshakeTimeout = t.Handshake
	tr.ResponseHeaderTimeout = t.Read
	tr.ExpectContinueTimeout = t.ExpectContinue
	return tr
}
