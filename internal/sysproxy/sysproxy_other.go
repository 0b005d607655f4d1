//go:build !windows

package sysproxy

type unsupportedManager struct{}

func newPlatformManager() Manager {
	return unsupportedManager{}
}

func (unsupportedManager) SetProxy(string) error {
	return ErrNotSupported
}

func (unsupportedManager) ClearProxy() error {
	return ErrNotSupported
}
