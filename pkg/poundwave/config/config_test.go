package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
listeners:
  - name: web
    address: ":8080"
    service:
      backends:
        - name: app1
          address: "10.0.0.1:8080"
          weight: 2
        - name: app2
          address: "10.0.0.2:8080"
  - name: legacy-redirect
    address: ":8081"
    service:
      redirect:
        target: "https://new.example.com"
        append_path: true
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "poundwave.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadParsesListenersAndBackends(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Listeners) != 2 {
		t.Fatalf("len(Listeners) = %d, want 2", len(cfg.Listeners))
	}
	web := cfg.Listeners[0]
	if len(web.Service.Backends) != 2 {
		t.Errorf("len(Backends) = %d, want 2", len(web.Service.Backends))
	}
	if web.Service.Backends[0].Weight != 2 {
		t.Errorf("Backends[0].Weight = %d, want 2", web.Service.Backends[0].Weight)
	}

	redir := cfg.Listeners[1]
	if redir.Service.Redirect == nil || redir.Service.Redirect.Target != "https://new.example.com" {
		t.Errorf("unexpected redirect service: %+v", redir.Service.Redirect)
	}
}

func TestValidateRejectsServiceWithBothBackendsAndRedirect(t *testing.T) {
	cfg := &Config{
		Listeners: []Listener{{
			Name:    "bad",
			Address: ":9000",
			Service: &Service{
				Backends: []Backend{{Name: "b1", Address: "10.0.0.1:80"}},
				Redirect: &Redirect{Target: "https://example.com"},
			},
		}},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for backends+redirect both set")
	}
}

func TestValidateRejectsMissingService(t *testing.T) {
	cfg := &Config{Listeners: []Listener{{Name: "bad", Address: ":9000"}}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for listener with no service")
	}
}

func TestAccessLogLevelOrDefault(t *testing.T) {
	l := &Listener{}
	if l.AccessLogLevelOrDefault() != 1 {
		t.Errorf("default AccessLogLevel = %d, want 1", l.AccessLogLevelOrDefault())
	}
	level := 3
	l.AccessLogLevel = &level
	if l.AccessLogLevelOrDefault() != 3 {
		t.Errorf("AccessLogLevel = %d, want 3", l.AccessLogLevelOrDefault())
	}
}
