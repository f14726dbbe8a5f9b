package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Param is a single named request parameter.
type Param struct {
	Key   string
	Value any
}

// Params is an ordered parameter mapping. The zero value is an empty mapping.
type Params []Param

// With returns a copy of p with key set to value. An existing key keeps its position.
func (p Params) With(key string, value any) Params {
	out := make(Params, len(p), len(p)+1)
	copy(out, p)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Param{Key: key, Value: value})
}

// Get returns the value stored for key.
func (p Params) Get(key string) (any, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// MarshalJSON renders p as a JSON object in insertion order. Empty params render as {}.
func (p Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal param %q: %w", kv.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseParams decodes a JSON object into Params, keeping top-level key order.
func ParseParams(data []byte) (Params, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("decode params: expected JSON object")
	}

	var out Params
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("decode params: unexpected token %v", tok)
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return nil, fmt.Errorf("decode param %q: %w", key, err)
		}
		out = out.With(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	return out, nil
}

// encodeForm renders p as application/x-www-form-urlencoded in insertion order.
// Slice values repeat the key, so an empty slice emits nothing; nil values emit
// the bare key.
func (p Params) encodeForm() string {
	parts := make([]string, 0, len(p))
	for _, kv := range p {
		key := url.QueryEscape(kv.Key)
		switch v := kv.Value.(type) {
		case nil:
			parts = append(parts, key)
		case []any:
			for _, item := range v {
				parts = append(parts, key+"="+url.QueryEscape(formValue(item)))
			}
		case []string:
			for _, item := range v {
				parts = append(parts, key+"="+url.QueryEscape(item))
			}
		default:
			parts = append(parts, key+"="+url.QueryEscape(formValue(v)))
		}
	}
	return strings.Join(parts, "&")
}

func formValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return fmt.Sprint(t)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}
