package util

import (
	"net"
	"strings"
)

// IsLoopbackAddress reports whether addr (host or host:port) only accepts
// connections from this machine. Unspecified addresses such as 0.0.0.0
// listen on every interface and are not loopback.
func IsLoopbackAddress(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = strings.Trim(addr, "[]")
	}

	if strings.EqualFold(host, "localhost") {
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback()
}
