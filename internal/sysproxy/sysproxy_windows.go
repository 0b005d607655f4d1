//go:build windows

package sysproxy

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/windows/registry"
)

const internetSettingsKey = `Software\Microsoft\Windows\CurrentVersion\Internet Settings`

var (
	modwininet            = syscall.NewLazyDLL("wininet.dll")
	procInternetSetOption = modwininet.NewProc("InternetSetOptionW")
)

const (
	internetOptionSettingsChanged = 39
	internetOptionRefresh         = 37
)

type windowsManager struct{}

func newPlatformManager() Manager {
	return windowsManager{}
}

func (windowsManager) SetProxy(address string) error {
	return updateInternetSettings(func(k registry.Key) error {
		if err := k.SetDWordValue("ProxyEnable", 1); err != nil {
			return fmt.Errorf("set ProxyEnable: %w", err)
		}
		if err := k.SetStringValue("ProxyServer", address); err != nil {
			return fmt.Errorf("set ProxyServer: %w", err)
		}
		return nil
	})
}

func (windowsManager) ClearProxy() error {
	return updateInternetSettings(func(k registry.Key) error {
		if err := k.SetDWordValue("ProxyEnable", 0); err != nil {
			return fmt.Errorf("set ProxyEnable: %w", err)
		}
		return nil
	})
}

// updateInternetSettings applies fn to the WinINet settings key and tells
// running applications to reload them.
func updateInternetSettings(fn func(k registry.Key) error) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, internetSettingsKey, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open registry key: %w", err)
	}
	defer k.Close()

	if err := fn(k); err != nil {
		return err
	}

	// Notification failures are not fatal; settings apply on next read.
	procInternetSetOption.Call(0, internetOptionSettingsChanged, 0, 0)
	procInternetSetOption.Call(0, internetOptionRefresh, 0, 0)
	return nil
}
