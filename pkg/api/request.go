package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"
)

const (
	headerUserAgent     = "User-Agent"
	headerAuthorization = "Authorization"
	headerConnection    = "Connection"
	headerContentType   = "Content-Type"
	headerHost          = "Host"

	contentTypeJSON = "application/json; charset=UTF-8"
)

// Timeouts are the per-call transport deadlines. Zero values mean transport defaults.
type Timeouts struct {
	Connect        time.Duration
	Read           time.Duration
	Handshake      time.Duration
	ExpectContinue time.Duration
}

// IsZero reports whether no timeout was requested.
func (t Timeouts) IsZero() bool { return t == Timeouts{} }

func uniformTimeouts(seconds int) Timeouts {
	if seconds <= 0 {
		return Timeouts{}
	}
	d := time.Duration(seconds) * time.Second
	return Timeouts{Connect: d, Read: d, Handshake: d, ExpectContinue: d}
}

// BuiltRequest is a fully specified request, consumed once by a Transport.
type BuiltRequest struct {
	URL      *url.URL
	Verb     Verb
	Headers  Headers
	Body     []byte
	Timeouts Timeouts
}

// FullURL returns the request target as a string.
func (r *BuiltRequest) FullURL() string {
	if r == nil || r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Build assembles the request for d against cc. It performs no I/O.
func Build(cc ClientContext, d CallDescriptor) (*BuiltRequest, error) {
	if d.Verb.Method() == "" {
		return nil, newParseError(0, fmt.Sprintf("unsupported verb %s", d.Verb), nil)
	}

	raw := cc.baseURL() + d.Path
	u, err := url.Parse(raw)
	if err != nil {
		return nil, newParseError(0, fmt.Sprintf("parse url %q", raw), err)
	}
	if u.Host == "" {
		return nil, newParseError(0, fmt.Sprintf("url %q has no host", raw), nil)
	}

	req := &BuiltRequest{
		URL:      u,
		Verb:     d.Verb,
		Headers:  buildHeaders(cc, u),
		Timeouts: uniformTimeouts(d.TimeoutSeconds),
	}

	if d.Verb == VerbGet {
		if len(d.Params) > 0 {
			appendQuery(u, d.Params.encodeForm())
		}
		return req, nil
	}

	body, err := json.Marshal(d.Params)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	req.Body = body
	return req, nil
}

func buildHeaders(cc ClientContext, u *url.URL) Headers {
	h := make(Headers, 0, 5+len(cc.Headers))
	h.Set(headerUserAgent, cc.UserAgent)
	h.Set(headerAuthorization, "Bearer "+cc.APIKey)
	h.Set(headerConnection, "close")
	h.Set(headerContentType, contentTypeJSON)

	names := make([]string, 0, len(cc.Headers))
	for name := range cc.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if http.CanonicalHeaderKey(name) == headerHost {
			continue
		}
		h.Set(name, cc.Headers[name])
	}

	// Host carries the bare hostname; the port stays on the URL.
	h.Set(headerHost, u.Hostname())
	return h
}

// appendQuery extends any existing query literally; nothing is de-duplicated.
func appendQuery(u *url.URL, encoded string) {
	if encoded == "" {
		return
	}
	if u.RawQuery == "" {
		u.RawQuery = encoded
		return
	}
	u.RawQuery = u.RawQuery + "&" + encoded
}
