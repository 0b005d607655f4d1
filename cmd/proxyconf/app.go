package main

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/rennerdo30/proxyconf/internal/config"
	"github.com/rennerdo30/proxyconf/internal/envsync"
	"github.com/rennerdo30/proxyconf/internal/logging"
	"github.com/rennerdo30/proxyconf/internal/metrics"
	"github.com/rennerdo30/proxyconf/internal/netproxy"
	"github.com/rennerdo30/proxyconf/internal/settings"
	"github.com/rennerdo30/proxyconf/internal/sysproxy"
	"github.com/rennerdo30/proxyconf/internal/util"
)

// app is the composition root: it owns the settings store, the proxy
// manager and everything observing it, and tears them down in reverse.
type app struct {
	cfg     config.Config
	store   *settings.FileStorage
	manager *netproxy.Manager
	metrics *metrics.Metrics

	cancels []func()
}

func openApp(cfg config.Config, fs afero.Fs) (*app, error) {
	store, err := settings.Open(fs, cfg.Settings.Path,
		settings.WithSaveDelay(cfg.Settings.SaveDelay.Duration()))
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}

	logging.Debug("Settings opened", "path", store.Path())

	m := metrics.New()

	var publishers []netproxy.Publisher
	if cfg.Publish.ProcessEnv {
		publishers = append(publishers, m.Instrument(envsync.NewProcess()))
	}
	if cfg.Publish.SystemProxy {
		publishers = append(publishers, m.Instrument(envsync.NewSystem(sysproxy.New())))
	}

	mgr := netproxy.New(store, netproxy.WithPublishers(publishers...))

	a := &app{
		cfg:     cfg,
		store:   store,
		manager: mgr,
		metrics: m,
	}

	a.cancels = append(a.cancels, m.Observe(mgr))

	logger := logging.WithComponent("netproxy")
	a.cancels = append(a.cancels,
		mgr.Subscribe(func() {
			c := mgr.Configuration()
			logger.Info("proxy configuration changed", "type", c.Type, "ip", c.IP, "port", c.Port)
		}),
		mgr.SubscribeDisabled(func(disabled bool) {
			logger.Info("proxy disabled flag changed", "disabled", disabled)
		}),
	)

	return a, nil
}

// Close stops observers, releases the manager and flushes the settings.
func (a *app) Close() error {
	for i := len(a.cancels) - 1; i >= 0; i-- {
		a.cancels[i]()
	}

	var errs util.MultiError
	errs.Add(a.manager.Close())
	errs.Add(a.store.Close())
	return errs.Err()
}
