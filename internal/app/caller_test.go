package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/taxjar-adapter/internal/config"
	"github.com/samvad-hq/taxjar-adapter/pkg/api"
	"github.com/samvad-hq/taxjar-adapter/pkg/httpclient"
	"github.com/samvad-hq/taxjar-adapter/pkg/notifiers"
)

func newTaxServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v2/rates/90002":
			fmt.Fprint(w, `{"rate":{"zip":"90002","combined_rate":"0.1025"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":"Not Found","detail":"Resource can not be found","status":404}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func tlsTransport(srv *httptest.Server) api.Transport {
	cfg := srv.Client().Transport.(*http.Transport).TLSClientConfig
	return httpclient.NewRestyTransport(httpclient.WithTLSConfig(cfg.Clone()))
}

func baseConfig(t *testing.T, apiURL string) *config.Config {
	t.Helper()
	return &config.Config{
		APIURL:                 apiURL,
		APIKey:                 "secret",
		UserAgent:              "taxjar-adapter/test",
		NotifyOn:               config.NotifyErrors,
		JournalType:            "bbolt",
		JournalPath:            filepath.Join(t.TempDir(), "journal.db"),
		JournalTTL:             time.Hour,
		JournalCleanupInterval: time.Hour,
	}
}

func TestCallerCallRecordsJournal(t *testing.T) {
	srv := newTaxServer(t)
	caller, err := NewCaller(context.Background(), baseConfig(t, srv.URL), nil, WithTransport(tlsTransport(srv)))
	if err != nil {
		t.Fatalf("NewCaller: %v", err)
	}
	defer caller.Close()

	result, err := caller.Call(context.Background(), api.CallDescriptor{Verb: api.VerbGet, Path: "/v2/rates/90002", ResultKey: "rate"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if rate, ok := result.(api.Object); !ok || rate.Text("combined_rate") != "0.1025" {
		t.Fatalf("result = %#v", result)
	}

	_, err = caller.Call(context.Background(), api.CallDescriptor{Verb: api.VerbGet, Path: "/v2/rates/00000", ResultKey: "rate"})
	if !api.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	entries, err := caller.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 journal entries, got %d", len(entries))
	}
	if entries[0].Path != "/v2/rates/00000" || entries[0].Kind != "not_found" || entries[0].StatusCode != 404 {
		t.Fatalf("newest entry = %+v", entries[0])
	}
	if entries[1].Kind != "" || entries[1].StatusCode != 200 {
		t.Fatalf("oldest entry = %+v", entries[1])
	}
}

func TestCallerNotifiesOnErrors(t *testing.T) {
	srv := newTaxServer(t)

	var (
		mu     sync.Mutex
		events []notifiers.Event
	)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt notifiers.Event
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			t.Errorf("decode event: %v", err)
		}
		mu.Lock()
		events = append(events, evt)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hook.Close()

	notifiersFile := filepath.Join(t.TempDir(), "notifiers.yaml")
	raw := fmt.Sprintf("notifiers:\n  - id: hook\n    type: http\n    http:\n      url: %s\n", hook.URL)
	if err := os.WriteFile(notifiersFile, []byte(raw), 0o644); err != nil {
		t.Fatalf("write notifiers file: %v", err)
	}

	cfg := baseConfig(t, srv.URL)
	cfg.NotifiersFile = notifiersFile
	caller, err := NewCaller(context.Background(), cfg, nil, WithTransport(tlsTransport(srv)))
	if err != nil {
		t.Fatalf("NewCaller: %v", err)
	}
	defer caller.Close()

	if _, err := caller.Call(context.Background(), api.CallDescriptor{Verb: api.VerbGet, Path: "/v2/rates/90002", ResultKey: "rate"}); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if _, err := caller.Call(context.Background(), api.CallDescriptor{Verb: api.VerbPost, Path: "/v2/taxes", ResultKey: "tax"}); err == nil {
		t.Fatalf("expected error for unknown path")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("expected 1 error event, got %d", len(events))
	}
	if events[0].Kind != "not_found" || events[0].Verb != "POST" || events[0].Profile != defaultProfileName {
		t.Fatalf("event = %+v", events[0])
	}
}

func TestCallerBoundsStalledNotifier(t *testing.T) {
	srv := newTaxServer(t)

	release := make(chan struct{})
	stalled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer stalled.Close()
	defer close(release)

	notifiersFile := filepath.Join(t.TempDir(), "notifiers.yaml")
	raw := fmt.Sprintf(`notifiers:
  - id: queue
    type: sqs
    sqs:
      uri: %[1]s/000000000000/calls
      region: us-east-1
      endpoint: %[1]s
      access_key_id: test
      secret_access_key: test
`, stalled.URL)
	if err := os.WriteFile(notifiersFile, []byte(raw), 0o644); err != nil {
		t.Fatalf("write notifiers file: %v", err)
	}

	cfg := baseConfig(t, srv.URL)
	cfg.NotifiersFile = notifiersFile
	cfg.NotifyTimeout = 300 * time.Millisecond
	caller, err := NewCaller(context.Background(), cfg, nil, WithTransport(tlsTransport(srv)))
	if err != nil {
		t.Fatalf("NewCaller: %v", err)
	}
	defer caller.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := caller.Call(ctx, api.CallDescriptor{Verb: api.VerbGet, Path: "/v2/rates/00000", ResultKey: "rate", TimeoutSeconds: 1})
		done <- err
	}()

	select {
	case err := <-done:
		if !api.IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("call blocked on a stalled notifier")
	}
}

func TestCallerProfilesFile(t *testing.T) {
	srv := newTaxServer(t)
	profilesFile := filepath.Join(t.TempDir(), "profiles.yaml")
	raw := fmt.Sprintf("profiles:\n  - name: staging\n    api_url: %s\n    headers:\n      X-Api-Version: \"2022-01-24\"\n", srv.URL)
	if err := os.WriteFile(profilesFile, []byte(raw), 0o644); err != nil {
		t.Fatalf("write profiles file: %v", err)
	}

	cfg := baseConfig(t, "")
	cfg.JournalType = "none"
	cfg.ProfilesFile = profilesFile
	cfg.Profile = "staging"

	caller, err := NewCaller(context.Background(), cfg, nil, WithTransport(tlsTransport(srv)))
	if err != nil {
		t.Fatalf("NewCaller: %v", err)
	}
	defer caller.Close()

	if caller.Profile().UserAgent != "taxjar-adapter/test" {
		t.Fatalf("profile should inherit config user agent, got %q", caller.Profile().UserAgent)
	}
	if _, err := caller.Call(context.Background(), api.CallDescriptor{Verb: api.VerbGet, Path: "/v2/rates/90002", ResultKey: "rate"}); err != nil {
		t.Fatalf("Call: %v", err)
	}

	cfg.Profile = "missing"
	if _, err := NewCaller(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for unknown profile")
	}
}

func TestCallerAppliesConfiguredTimeout(t *testing.T) {
	var gotTimeout time.Duration
	cfg := baseConfig(t, "https://api.example.test")
	cfg.JournalType = "none"
	cfg.Timeout = 7 * time.Second

	transport := transportFunc(func(_ context.Context, req *api.BuiltRequest) (*api.ResponseEnvelope, error) {
		gotTimeout = req.Timeouts.Read
		return &api.ResponseEnvelope{StatusCode: 200, Body: []byte(`{"ok":true}`)}, nil
	})
	caller, err := NewCaller(context.Background(), cfg, nil, WithTransport(transport))
	if err != nil {
		t.Fatalf("NewCaller: %v", err)
	}
	defer caller.Close()

	if _, err := caller.Call(context.Background(), api.CallDescriptor{Verb: api.VerbGet, Path: "/v2/x", ResultKey: "ok"}); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if gotTimeout != 7*time.Second {
		t.Fatalf("expected timeout 7s, got %s", gotTimeout)
	}
}

type transportFunc func(ctx context.Context, req *api.BuiltRequest) (*api.ResponseEnvelope, error)

func (f transportFunc) Execute(ctx context.Context, req *api.BuiltRequest) (*api.ResponseEnvelope, error) {
	return f(ctx, req)
}
