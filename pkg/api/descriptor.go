// Package api builds TaxJar REST requests and classifies their responses.
package api

import (
	"fmt"
	"net/http"
	"strings"
)

const (
	// DefaultAPIURL is the production endpoint used when ClientContext.BaseURL is empty.
	DefaultAPIURL = "https://api.taxjar.com"
	// SandboxAPIURL is the sandbox endpoint.
	SandboxAPIURL = "https://api.sandbox.taxjar.com"
)

// Verb is the closed set of HTTP verbs the service accepts.
type Verb uint8

const (
	VerbGet Verb = iota + 1
	VerbPatch
	VerbPost
	VerbPut
	VerbDelete
)

// Method returns the HTTP method for v, or "" for an unknown verb.
func (v Verb) Method() string {
	switch v {
	case VerbGet:
		return http.MethodGet
	case VerbPatch:
		return http.MethodPatch
	case VerbPost:
		return http.MethodPost
	case VerbPut:
		return http.MethodPut
	case VerbDelete:
		return http.MethodDelete
	default:
		return ""
	}
}

func (v Verb) String() string {
	if m := v.Method(); m != "" {
		return m
	}
	return fmt.Sprintf("Verb(%d)", uint8(v))
}

// ParseVerb maps an HTTP method name (any case) to a Verb.
func ParseVerb(s string) (Verb, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case http.MethodGet:
		return VerbGet, nil
	case http.MethodPatch:
		return VerbPatch, nil
	case http.MethodPost:
		return VerbPost, nil
	case http.MethodPut:
		return VerbPut, nil
	case http.MethodDelete:
		return VerbDelete, nil
	default:
		return 0, fmt.Errorf("unsupported verb %q", s)
	}
}

// CallDescriptor is the logical description of one API operation.
type CallDescriptor struct {
	Verb Verb
	// Path is appended verbatim to the base URL, e.g. "/v2/rates/90002".
	Path string
	// ResultKey names the top-level response field holding the result.
	ResultKey string
	Params    Params
	// TimeoutSeconds applies to every transport timeout when positive.
	TimeoutSeconds int
}

// ClientContext is the long-lived, read-only account and endpoint configuration
// shared by every call.
type ClientContext struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Headers   map[string]string
}

func (c ClientContext) baseURL() string {
	if c.BaseURL == "" {
		return DefaultAPIURL
	}
	return c.BaseURL
}
