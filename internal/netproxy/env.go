package netproxy

import (
	"fmt"
)

// Environment variable names the active proxy is published under.
const (
	EnvHTTPProxy  = "http_proxy"
	EnvHTTPSProxy = "https_proxy"
	EnvSOCKSProxy = "sock_proxy"
)

// Env is the rendered set of proxy variables. Empty fields mean the
// variable is cleared.
type Env struct {
	HTTPProxy  string
	HTTPSProxy string
	SOCKSProxy string
}

// Var is a single environment variable assignment.
type Var struct {
	Name  string
	Value string
}

// Vars returns the variables in a fixed order.
func (e Env) Vars() []Var {
	return []Var{
		{Name: EnvHTTPProxy, Value: e.HTTPProxy},
		{Name: EnvHTTPSProxy, Value: e.HTTPSProxy},
		{Name: EnvSOCKSProxy, Value: e.SOCKSProxy},
	}
}

// Empty reports whether no proxy is advertised.
func (e Env) Empty() bool {
	return e == Env{}
}

// Publisher applies a rendered Env somewhere: the process environment,
// the OS proxy settings, a test recorder.
type Publisher interface {
	Publish(env Env) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(env Env) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(env Env) error {
	return f(env)
}

// RenderEnv builds the proxy variables for cfg. HTTP proxies are written
// as http://[user:pass@]ip:port to http_proxy and https_proxy; SOCKS5
// proxies as [user:pass@]ip:port to sock_proxy. Disabled, None and SOCKS4
// configurations render nothing.
func RenderEnv(cfg Configuration, disabled bool) Env {
	if disabled {
		return Env{}
	}

	var httpStr, socksStr string
	switch cfg.Type {
	case HTTPPW:
		httpStr = fmt.Sprintf("http://%s:%s@%s:%d", cfg.Username, cfg.Password, cfg.IP, cfg.Port)
	case HTTP:
		httpStr = fmt.Sprintf("http://%s:%d", cfg.IP, cfg.Port)
	case SOCKS5:
		socksStr = fmt.Sprintf("%s:%d", cfg.IP, cfg.Port)
	case SOCKS5PW:
		socksStr = fmt.Sprintf("%s:%s@%s:%d", cfg.Username, cfg.Password, cfg.IP, cfg.Port)
	}

	return Env{
		HTTPProxy:  httpStr,
		HTTPSProxy: httpStr,
		SOCKSProxy: socksStr,
	}
}
