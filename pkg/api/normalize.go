package api

// Key is the canonical representation of a response object key.
type Key string

func (k Key) String() string { return string(k) }

// Object is a normalized JSON object.
type Object map[Key]any

// Get looks up name in o.
func (o Object) Get(name string) (any, bool) {
	v, ok := o[Key(name)]
	return v, ok
}

// Text returns the string stored under name, or "".
func (o Object) Text(name string) string {
	if s, ok := o[Key(name)].(string); ok {
		return s
	}
	return ""
}

// Normalize rewrites every object key in v into a Key, depth first.
// Slices are rewritten in place and keep their order and length.
// Normalizing an already normalized value returns an equal value.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(Object, len(t))
		for k, val := range t {
			out[Key(k)] = Normalize(val)
		}
		return out
	case Object:
		out := make(Object, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case []any:
		for i := range t {
			t[i] = Normalize(t[i])
		}
		return t
	default:
		return v
	}
}
