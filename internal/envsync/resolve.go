package envsync

import (
	"fmt"
	"net/url"

	"golang.org/x/net/http/httpproxy"

	"github.com/rennerdo30/proxyconf/internal/netproxy"
)

// ProxyFor reports the proxy a Go HTTP client configured from env would use
// for target, following the same rules as http.ProxyFromEnvironment. A nil
// URL means the request goes direct: no proxy applies, or target is a
// loopback host. sock_proxy is not consulted; HTTP clients ignore it.
func ProxyFor(env netproxy.Env, target string) (*url.URL, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse target: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse target: %q is not an absolute URL", target)
	}

	cfg := httpproxy.Config{
		HTTPProxy:  env.HTTPProxy,
		HTTPSProxy: env.HTTPSProxy,
	}
	return cfg.ProxyFunc()(u)
}
