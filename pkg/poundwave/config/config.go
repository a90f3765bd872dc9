// Package config loads a poundwave deployment from a YAML file: one or more
// listeners, each dispatching to a service's backend pool or to a
// redirector, reimagining Pound's pound.cfg ListenHTTP/ListenHTTPS/Service/
// Backend/Redirect stanzas as YAML nodes.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level deployment: every listener poundwave should open.
type Config struct {
	Listeners []Listener `yaml:"listeners"`

	// LogLevel names the diagnostic (not access) log verbosity: one of
	// "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level,omitempty"`
}

// Listener is one address poundwave accepts client connections on.
type Listener struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`

	TLS *TLSConfig `yaml:"tls,omitempty"`

	Service *Service `yaml:"service,omitempty"`

	// AccessLogLevel selects the verbosity for this listener's access log
	// (0-4). Defaults to 1 (basic) if unset.
	AccessLogLevel *int `yaml:"access_log_level,omitempty"`

	// MaxConnections bounds concurrent client connections on this listener.
	// 0 means unbounded.
	MaxConnections int `yaml:"max_connections,omitempty"`

	// MaxRequestBytes bounds a length-framed request body (Pound's
	// max_req); a Content-Length above this is rejected with 501. 0 means
	// unbounded.
	MaxRequestBytes int64 `yaml:"max_request_bytes,omitempty"`

	// HeaderRemove lists regexes matched against header names; a matching
	// header is dropped before the request is forwarded to the backend
	// (Pound's HeadRemove / head_off).
	HeaderRemove []string `yaml:"header_remove,omitempty"`

	// RewriteDestination rewrites a WebDAV Destination header's host to
	// the selected backend's address before forwarding (Pound's
	// rewr_dest).
	RewriteDestination bool `yaml:"rewrite_destination,omitempty"`

	// RewriteLocation rewrites a backend's Location/Content-Location
	// response header to point at the client's own Host and scheme
	// (Pound's rewr_loc / need_rewrite).
	RewriteLocation bool `yaml:"rewrite_location,omitempty"`

	// HTTPSHeader, if set, is a full "Name: value" line appended to every
	// request forwarded to a plaintext backend when this listener
	// terminates client TLS, telling the backend the original request
	// arrived over HTTPS.
	HTTPSHeader string `yaml:"https_header,omitempty"`

	// ErrorPages maps a synthetic-reply status code (414/500/501/503) to
	// the HTML body served for it. A status with no entry falls back to a
	// minimal generated page.
	ErrorPages map[int]string `yaml:"error_pages,omitempty"`
}

// TLSConfig configures client-facing TLS termination for a Listener.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// ClientAuth is one of "none", "request", "require", "require_strict"
	// (tlsterm.ClientAuthLevel).
	ClientAuth string `yaml:"client_auth,omitempty"`

	ClientCAs []string `yaml:"client_cas,omitempty"`
}

// Service names either a backend pool or a redirect target. A Listener
// dispatches to exactly one.
type Service struct {
	Backends   []Backend `yaml:"backends,omitempty"`
	Redirect   *Redirect `yaml:"redirect,omitempty"`
}

// Backend is one backend server a Service can relay to.
type Backend struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Weight  int    `yaml:"weight,omitempty"`

	TLS bool `yaml:"tls,omitempty"`

	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds,omitempty"`
}

// Redirect configures a synthetic redirect service (Pound's Redirect
// backend type).
type Redirect struct {
	Target     string `yaml:"target"`
	AppendPath bool   `yaml:"append_path,omitempty"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the config describes a deployable set of listeners.
func (c *Config) Validate() error {
	if len(c.Listeners) == 0 {
		return fmt.Errorf("config: no listeners defined")
	}
	seen := make(map[string]bool, len(c.Listeners))
	for i := range c.Listeners {
		l := &c.Listeners[i]
		if l.Name == "" {
			return fmt.Errorf("config: listener %d missing name", i)
		}
		if seen[l.Name] {
			return fmt.Errorf("config: duplicate listener name %q", l.Name)
		}
		seen[l.Name] = true

		if l.Address == "" {
			return fmt.Errorf("config: listener %q missing address", l.Name)
		}
		if l.Service == nil {
			return fmt.Errorf("config: listener %q has no service", l.Name)
		}
		if err := l.Service.Validate(l.Name); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a Service names exactly one of a backend pool or a
// redirect target.
func (s *Service) Validate(listenerName string) error {
	hasBackends := len(s.Backends) > 0
	hasRedirect := s.Redirect != nil
	if hasBackends == hasRedirect {
		return fmt.Errorf("config: listener %q service must set exactly one of backends or redirect", listenerName)
	}
	for i, b := range s.Backends {
		if b.Name == "" {
			return fmt.Errorf("config: listener %q backend %d missing name", listenerName, i)
		}
		if b.Address == "" {
			return fmt.Errorf("config: listener %q backend %q missing address", listenerName, b.Name)
		}
	}
	if hasRedirect && s.Redirect.Target == "" {
		return fmt.Errorf("config: listener %q redirect missing target", listenerName)
	}
	return nil
}

// AccessLogLevelOrDefault returns the listener's configured access log
// level, or 1 (basic) if unset.
func (l *Listener) AccessLogLevelOrDefault() int {
	if l.AccessLogLevel == nil {
		return 1
	}
	return *l.AccessLogLevel
}
