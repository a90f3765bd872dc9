package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/poundwave/pkg/poundwave/accesslog"
	"github.com/yourusername/poundwave/pkg/poundwave/backend"
	"github.com/yourusername/poundwave/pkg/poundwave/redirector"
	"github.com/yourusername/poundwave/pkg/poundwave/tlsterm"
	"github.com/yourusername/poundwave/pkg/poundwave/worker"
)

// BuildTLS translates a Listener's TLS stanza into a tlsterm.Config, or nil
// if the listener is plaintext.
func BuildTLS(l *Listener) (*tlsterm.Config, error) {
	if l.TLS == nil {
		return nil, nil
	}

	cfg := tlsterm.NewConfig()
	cfg.CertFile = l.TLS.CertFile
	cfg.KeyFile = l.TLS.KeyFile
	cfg.ClientCAs = l.TLS.ClientCAs

	switch l.TLS.ClientAuth {
	case "", "none":
		cfg.ClientAuth = tlsterm.ClientAuthNone
	case "request":
		cfg.ClientAuth = tlsterm.ClientAuthRequest
	case "require":
		cfg.ClientAuth = tlsterm.ClientAuthRequire
	case "require_strict":
		cfg.ClientAuth = tlsterm.ClientAuthRequireStrict
	default:
		return nil, fmt.Errorf("config: listener %q: unknown client_auth %q", l.Name, l.TLS.ClientAuth)
	}

	return cfg, nil
}

// BuildWorkerConfig translates a Listener's service into a worker.Config
// ready to hand to worker.NewServer, plus the backend.Pool it built (nil for
// a redirect-only service).
func BuildWorkerConfig(l *Listener, log *logrus.Logger) (worker.Config, *backend.Pool, error) {
	cfg := worker.DefaultConfig()
	cfg.Logger = log
	cfg.AccessLogLevel = accesslog.Level(l.AccessLogLevelOrDefault())
	cfg.MaxRequestBytes = l.MaxRequestBytes
	cfg.RewriteDestination = l.RewriteDestination
	cfg.RewriteLocation = l.RewriteLocation
	cfg.HTTPSHeader = l.HTTPSHeader
	cfg.ErrorPages = l.ErrorPages

	for _, pattern := range l.HeaderRemove {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return worker.Config{}, nil, fmt.Errorf("config: listener %q: bad header_remove pattern %q: %w", l.Name, pattern, err)
		}
		cfg.HeaderRemove = append(cfg.HeaderRemove, re)
	}

	if l.Service.Redirect != nil {
		cfg.Redirector = &redirector.Redirector{
			Target:     l.Service.Redirect.Target,
			AppendPath: l.Service.Redirect.AppendPath,
		}
		return cfg, nil, nil
	}

	targets := make([]*backend.Target, 0, len(l.Service.Backends))
	for _, b := range l.Service.Backends {
		t := &backend.Target{
			Name:    b.Name,
			Address: b.Address,
			Weight:  b.Weight,
		}
		if b.ConnectTimeoutSeconds > 0 {
			t.ConnectTimeout = time.Duration(b.ConnectTimeoutSeconds) * time.Second
		} else {
			t.ConnectTimeout = cfg.BackendConnectTimeout
		}
		targets = append(targets, t)
	}

	pool := backend.NewPool(targets)
	cfg.Backends = pool
	return cfg, pool, nil
}
