package profiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samvad-hq/taxjar-adapter/pkg/api"
	"gopkg.in/yaml.v3"
)

// Package profiles loads named endpoint profiles (production, sandbox, ...) from YAML/JSON.

// Profile describes one API endpoint and its request decorations.
type Profile struct {
	Name      string            `json:"name" yaml:"name"`
	APIURL    string            `json:"api_url" yaml:"api_url"`
	UserAgent string            `json:"user_agent" yaml:"user_agent"`
	Sandbox   bool              `json:"sandbox" yaml:"sandbox"`
	Headers   map[string]string `json:"headers" yaml:"headers"`
}

type profilesFile struct {
	Profiles []Profile `json:"profiles" yaml:"profiles"`
}

// Registry materializes profile definitions loaded from config files.
type Registry struct {
	mu       sync.RWMutex
	profiles []Profile
	idx      map[string]Profile
}

// LoadRegistry loads the profile registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("profiles file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profiles file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}

	parsed, err := parseProfiles(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Profiles) == 0 {
		return nil, errors.New("profiles file contains no profiles entries")
	}

	reg := &Registry{
		profiles: make([]Profile, len(parsed.Profiles)),
		idx:      make(map[string]Profile, len(parsed.Profiles)),
	}
	for i := range parsed.Profiles {
		p := sanitizeProfile(parsed.Profiles[i])
		if err := validateProfile(p); err != nil {
			return nil, fmt.Errorf("profiles[%d]: %w", i, err)
		}
		if _, exists := reg.idx[p.Name]; exists {
			return nil, fmt.Errorf("duplicate profile name %q", p.Name)
		}
		reg.profiles[i] = p
		reg.idx[p.Name] = p
	}
	return reg, nil
}

type unmarshalFn func([]byte, any) error

func parseProfiles(data []byte, ext string) (profilesFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		ext string
		fn  unmarshalFn
	}{
		{ext: ".yaml", fn: yaml.Unmarshal},
		{ext: ".yml", fn: yaml.Unmarshal},
		{ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var out profilesFile
		if err := d.fn(data, &out); err == nil {
			return out, nil
		}
	}
	return profilesFile{}, errors.New("profiles file format not recognized (expected YAML or JSON)")
}

func sanitizeProfile(p Profile) Profile {
	p.Name = strings.ToLower(strings.TrimSpace(p.Name))
	p.APIURL = strings.TrimRight(strings.TrimSpace(p.APIURL), "/")
	p.UserAgent = strings.TrimSpace(p.UserAgent)

	if len(p.Headers) > 0 {
		headers := make(map[string]string, len(p.Headers))
		for k, v := range p.Headers {
			key := strings.TrimSpace(k)
			val := strings.TrimSpace(v)
			if key == "" || val == "" {
				continue
			}
			headers[key] = val
		}
		p.Headers = headers
	}
	return p
}

func validateProfile(p Profile) error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.APIURL == "" {
		return nil
	}
	u, err := url.Parse(p.APIURL)
	if err != nil {
		return fmt.Errorf("api_url for profile %q: %w", p.Name, err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("api_url for profile %q must be an https URL", p.Name)
	}
	return nil
}

// ByName returns the profile with the given name.
func (r *Registry) ByName(name string) (Profile, bool) {
	if r == nil {
		return Profile{}, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Profile{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.idx[name]
	return p, ok
}

// All returns all configured profiles.
func (r *Registry) All() []Profile {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// BaseURL resolves the endpoint: an explicit api_url wins, then the sandbox flag.
func (p Profile) BaseURL() string {
	switch {
	case p.APIURL != "":
		return p.APIURL
	case p.Sandbox:
		return api.SandboxAPIURL
	default:
		return api.DefaultAPIURL
	}
}

// Context builds the ClientContext for p. The headers map is copied.
func (p Profile) Context(apiKey string) api.ClientContext {
	var headers map[string]string
	if len(p.Headers) > 0 {
		headers = make(map[string]string, len(p.Headers))
		for k, v := range p.Headers {
			headers[k] = v
		}
	}
	return api.ClientContext{
		BaseURL:   p.BaseURL(),
		APIKey:    apiKey,
		UserAgent: p.UserAgent,
		Headers:   headers,
	}
}
