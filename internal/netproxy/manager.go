package netproxy

import (
	"log/slog"
	"sync"

	"github.com/rennerdo30/proxyconf/internal/logging"
	"github.com/rennerdo30/proxyconf/internal/settings"
	"github.com/rennerdo30/proxyconf/internal/util"
)

// Settings keys the proxy state is persisted under.
const (
	KeyDisabled = "Network/Proxy/Disabled"
	KeyType     = "Network/Proxy/Type"
	KeyIP       = "Network/Proxy/IP"
	KeyPort     = "Network/Proxy/Port"
	KeyUsername = "Network/Proxy/Username"
	KeyPassword = "Network/Proxy/Password"
)

// Defaults used when nothing is persisted.
const (
	DefaultIP   = "0.0.0.0"
	DefaultPort = 8080
)

// Manager owns the proxy configuration of the process. It is created once
// by the application's composition root and passed to whoever needs it.
//
// Every mutation follows the same sequence: persist, update memory,
// republish the environment, notify subscribers. Subscribers run after
// the internal lock is released and may call back into the Manager.
type Manager struct {
	store      settings.Storage
	publishers []Publisher
	logger     *slog.Logger

	mu       sync.Mutex
	config   Configuration
	disabled bool
	closed   bool

	nextID      int
	configSubs  []subscription[func()]
	disableSubs []subscription[func(bool)]
}

type subscription[F any] struct {
	id int
	fn F
}

// Option configures a Manager.
type Option func(*Manager)

// WithPublishers sets where the proxy variables are published.
func WithPublishers(publishers ...Publisher) Option {
	return func(m *Manager) {
		m.publishers = append(m.publishers, publishers...)
	}
}

// WithLogger sets the Manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// New loads the proxy state from store and publishes it. Missing values
// take their defaults and a persisted type outside the known range is
// treated as None.
func New(store settings.Storage, opts ...Option) *Manager {
	m := &Manager{store: store}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.WithComponent("netproxy")
	}

	m.disabled = settings.LoadBool(store, KeyDisabled, false)
	m.config.Type = Type(settings.LoadInt(store, KeyType, int(None)))
	if !m.config.Type.Valid() {
		m.logger.Warn("ignoring unknown persisted proxy type", "type", int(m.config.Type))
		m.config.Type = None
	}
	m.config.IP = settings.LoadString(store, KeyIP, DefaultIP)
	m.config.Port = settings.LoadUint16(store, KeyPort, DefaultPort)
	m.config.Username = settings.LoadString(store, KeyUsername, "")
	m.config.Password = settings.LoadString(store, KeyPassword, "")

	m.mu.Lock()
	m.applyLocked()
	m.mu.Unlock()

	return m
}

// Close releases the Manager. Subscribers are dropped and later setter
// calls are ignored. Close is idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.configSubs = nil
	m.disableSubs = nil
	return nil
}

// Configuration returns a copy of the current configuration.
func (m *Manager) Configuration() Configuration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// SetConfiguration replaces the configuration. When cfg equals the
// current configuration nothing is persisted and nobody is notified.
func (m *Manager) SetConfiguration(cfg Configuration) {
	m.mu.Lock()
	if m.closed || cfg == m.config {
		m.mu.Unlock()
		return
	}

	m.store.StoreValue(KeyType, int(cfg.Type))
	m.store.StoreValue(KeyIP, cfg.IP)
	m.store.StoreValue(KeyPort, cfg.Port)
	m.store.StoreValue(KeyUsername, cfg.Username)
	m.store.StoreValue(KeyPassword, cfg.Password)
	m.config = cfg
	m.applyLocked()

	subs := make([]func(), 0, len(m.configSubs))
	for _, s := range m.configSubs {
		subs = append(subs, s.fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// IsDisabled reports whether the proxy is switched off.
func (m *Manager) IsDisabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disabled
}

// SetDisabled switches the proxy off or back on. The environment is
// republished so that it always matches the flag.
func (m *Manager) SetDisabled(disabled bool) {
	m.mu.Lock()
	if m.closed || disabled == m.disabled {
		m.mu.Unlock()
		return
	}

	m.store.StoreValue(KeyDisabled, disabled)
	m.disabled = disabled
	m.applyLocked()

	subs := make([]func(bool), 0, len(m.disableSubs))
	for _, s := range m.disableSubs {
		subs = append(subs, s.fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(disabled)
	}
}

// IsAuthenticationRequired reports whether the configured proxy type
// needs a username and password.
func (m *Manager) IsAuthenticationRequired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config.Type.RequiresAuthentication()
}

// Env renders the proxy variables for the current state without
// publishing them.
func (m *Manager) Env() Env {
	m.mu.Lock()
	defer m.mu.Unlock()
	return RenderEnv(m.config, m.disabled)
}

// ApplyEnvironment republishes the current state to every publisher.
// Failures do not change the stored configuration.
func (m *Manager) ApplyEnvironment() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyLocked()
}

func (m *Manager) applyLocked() error {
	env := RenderEnv(m.config, m.disabled)

	redacted := RenderEnv(m.config.Redacted(), m.disabled)
	switch {
	case redacted.HTTPProxy != "":
		m.logger.Debug("HTTP communications proxy string", "proxy", redacted.HTTPProxy)
	case redacted.SOCKSProxy != "":
		m.logger.Debug("HTTP communications proxy string", "proxy", redacted.SOCKSProxy)
	default:
		m.logger.Debug("Disabling HTTP communications proxy", "type", m.config.Type, "disabled", m.disabled)
	}

	var errs util.MultiError
	for _, p := range m.publishers {
		if err := p.Publish(env); err != nil {
			m.logger.Warn("failed to publish proxy environment", "error", err)
			errs.Add(err)
		}
	}
	return errs.Err()
}

// Subscribe registers fn to be called after every effective
// SetConfiguration. Callbacks carry no payload; read the new value with
// Configuration. The returned func removes the subscription.
func (m *Manager) Subscribe(fn func()) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.configSubs = append(m.configSubs, subscription[func()]{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.configSubs = removeSubscription(m.configSubs, id)
	}
}

// SubscribeDisabled registers fn to be called with the new flag after
// every effective SetDisabled.
func (m *Manager) SubscribeDisabled(fn func(disabled bool)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.disableSubs = append(m.disableSubs, subscription[func(bool)]{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.disableSubs = removeSubscription(m.disableSubs, id)
	}
}

func removeSubscription[F any](subs []subscription[F], id int) []subscription[F] {
	for i, s := range subs {
		if s.id == id {
			return append(subs[:i:i], subs[i+1:]...)
		}
	}
	return subs
}
