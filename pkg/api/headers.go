package api

import "net/http"

// HeaderField is one request header.
type HeaderField struct {
	Name  string
	Value string
}

// Headers is an ordered header list with case-insensitive names.
type Headers []HeaderField

// Set replaces the value of name in place, or appends it.
func (h *Headers) Set(name, value string) {
	name = http.CanonicalHeaderKey(name)
	for i := range *h {
		if (*h)[i].Name == name {
			(*h)[i].Value = value
			return
		}
	}
	*h = append(*h, HeaderField{Name: name, Value: value})
}

// Get returns the value for name, or "".
func (h Headers) Get(name string) string {
	name = http.CanonicalHeaderKey(name)
	for _, f := range h {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// Map flattens the headers for transports that take a plain map.
func (h Headers) Map() map[string]string {
	out := make(map[string]string, len(h))
	for _, f := range h {
		out[f.Name] = f.Value
	}
	return out
}
