package profiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/samvad-hq/taxjar-adapter/pkg/api"
)

func writeFile(t *testing.T, name, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	path := writeFile(t, "profiles.yaml", `
profiles:
  - name: Production
    user_agent: shop/1.0
    headers:
      x-api-version: "2022-01-24"
      empty: " "
  - name: sandbox
    sandbox: true
  - name: staging
    api_url: https://taxjar.staging.example.com/
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(reg.All()) != 3 {
		t.Fatalf("expected 3 profiles, got %d", len(reg.All()))
	}

	prod, ok := reg.ByName("production")
	if !ok {
		t.Fatalf("production profile missing")
	}
	cc := prod.Context("key")
	if cc.BaseURL != api.DefaultAPIURL || cc.APIKey != "key" || cc.UserAgent != "shop/1.0" {
		t.Fatalf("production context = %+v", cc)
	}
	if len(cc.Headers) != 1 || cc.Headers["x-api-version"] != "2022-01-24" {
		t.Fatalf("headers = %#v", cc.Headers)
	}

	sandbox, _ := reg.ByName("SANDBOX")
	if got := sandbox.BaseURL(); got != api.SandboxAPIURL {
		t.Fatalf("sandbox BaseURL = %s", got)
	}
	staging, _ := reg.ByName("staging")
	if got := staging.BaseURL(); got != "https://taxjar.staging.example.com" {
		t.Fatalf("staging BaseURL = %s", got)
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeFile(t, "profiles.json", `{"profiles":[{"name":"prod"}]}`)
	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if _, ok := reg.ByName("prod"); !ok {
		t.Fatalf("prod profile missing")
	}
}

func TestLoadRegistryRejectsInvalidFiles(t *testing.T) {
	cases := map[string]string{
		"dup.yaml":      "profiles:\n  - name: a\n  - name: A\n",
		"noname.yaml":   "profiles:\n  - api_url: https://x.example.com\n",
		"insecure.yaml": "profiles:\n  - name: a\n    api_url: http://x.example.com\n",
		"empty.yaml":    "profiles: []\n",
	}
	for name, raw := range cases {
		if _, err := LoadRegistry(writeFile(t, name, raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := LoadRegistry(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
