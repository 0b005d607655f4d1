// Package envsync publishes rendered proxy variables to the places that
// consume them: the process environment and the OS proxy settings.
package envsync

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/rennerdo30/proxyconf/internal/logging"
	"github.com/rennerdo30/proxyconf/internal/netproxy"
	"github.com/rennerdo30/proxyconf/internal/sysproxy"
	"github.com/rennerdo30/proxyconf/internal/util"
)

// Process writes the proxy variables into the process environment, where
// HTTP client libraries and child processes pick them up. Cleared
// variables are set to the empty string rather than unset.
type Process struct {
	setenv func(key, value string) error
}

// NewProcess returns a Process publisher using os.Setenv.
func NewProcess() *Process {
	return &Process{setenv: os.Setenv}
}

// Publish implements netproxy.Publisher.
func (p *Process) Publish(env netproxy.Env) error {
	var errs util.MultiError
	for _, v := range env.Vars() {
		if err := p.setenv(v.Name, v.Value); err != nil {
			errs.Add(fmt.Errorf("setenv %s: %w", v.Name, err))
		}
	}
	return errs.Err()
}

// System mirrors the HTTP proxy into the operating system's proxy
// settings. SOCKS proxies and cleared configurations turn the system
// proxy off.
type System struct {
	mgr    sysproxy.Manager
	logger *slog.Logger

	mu          sync.Mutex
	unsupported bool
}

// NewSystem returns a System publisher driving mgr.
func NewSystem(mgr sysproxy.Manager) *System {
	return &System{
		mgr:    mgr,
		logger: logging.WithComponent("envsync"),
	}
}

// Publish implements netproxy.Publisher. On platforms without system
// proxy support it logs once and succeeds.
func (s *System) Publish(env netproxy.Env) error {
	var err error
	if env.HTTPProxy == "" {
		err = s.mgr.ClearProxy()
	} else {
		var address string
		address, err = hostPort(env.HTTPProxy)
		if err == nil {
			err = s.mgr.SetProxy(address)
		}
	}

	if errors.Is(err, sysproxy.ErrNotSupported) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.unsupported {
			s.unsupported = true
			s.logger.Info("system proxy configuration not supported on this platform")
		}
		return nil
	}
	return err
}

// hostPort strips scheme and credentials from an HTTP proxy string.
func hostPort(proxy string) (string, error) {
	u, err := url.Parse(proxy)
	if err != nil {
		return "", fmt.Errorf("parse proxy string: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("parse proxy string: missing host in %q", proxy)
	}
	return u.Host, nil
}

// ExportLines renders env as POSIX shell export statements.
func ExportLines(env netproxy.Env) []string {
	vars := env.Vars()
	lines := make([]string, 0, len(vars))
	for _, v := range vars {
		lines = append(lines, fmt.Sprintf("export %s=%s", v.Name, shellQuote(v.Value)))
	}
	return lines
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
