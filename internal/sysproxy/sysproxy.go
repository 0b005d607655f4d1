// Package sysproxy points the operating system's proxy settings at an
// HTTP proxy.
package sysproxy

import (
	"github.com/rennerdo30/proxyconf/internal/util"
)

// Manager changes the system-wide HTTP proxy.
type Manager interface {
	// SetProxy sets the system proxy to address (host:port).
	SetProxy(address string) error
	// ClearProxy turns the system proxy off.
	ClearProxy() error
}

// New returns the system proxy manager for the current platform.
func New() Manager {
	return newPlatformManager()
}

// ErrNotSupported is returned on platforms without system proxy support.
var ErrNotSupported = util.ErrUnsupported
