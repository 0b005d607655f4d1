// Package netproxy holds the process-wide proxy configuration: it loads
// the proxy settings from storage, persists changes, and publishes the
// active proxy as http_proxy, https_proxy and sock_proxy.
package netproxy

import (
	"fmt"
	"strings"

	"github.com/rennerdo30/proxyconf/internal/util"
)

// Type identifies the kind of proxy in use.
type Type int

// Proxy types. The numeric values are persisted and must not change.
const (
	None Type = iota
	HTTP
	HTTPPW
	SOCKS5
	SOCKS5PW
	SOCKS4
)

var typeNames = [...]string{
	None:     "none",
	HTTP:     "http",
	HTTPPW:   "http-pw",
	SOCKS5:   "socks5",
	SOCKS5PW: "socks5-pw",
	SOCKS4:   "socks4",
}

// Valid reports whether t is one of the defined proxy types.
func (t Type) Valid() bool {
	return t >= None && t <= SOCKS4
}

// RequiresAuthentication reports whether t carries a username and password.
func (t Type) RequiresAuthentication() bool {
	return t == HTTPPW || t == SOCKS5PW
}

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// ParseType parses a proxy type name as produced by String.
func ParseType(s string) (Type, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range typeNames {
		if n == name {
			return Type(t), nil
		}
	}
	return None, fmt.Errorf("%w: %q", util.ErrInvalidProxyType, s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", util.ErrInvalidProxyType, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Configuration describes where outbound connections are routed.
// Two configurations are the same when all fields are equal.
type Configuration struct {
	Type     Type   `json:"type" yaml:"type"`
	IP       string `json:"ip" yaml:"ip"`
	Port     uint16 `json:"port" yaml:"port"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// Redacted returns a copy with the password masked.
func (c Configuration) Redacted() Configuration {
	if c.Password != "" {
		c.Password = redactedPassword
	}
	return c
}

const redactedPassword = "xxxxx"
