package sysproxy

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rennerdo30/proxyconf/internal/util"
)

func TestNew(t *testing.T) {
	var mgr Manager = New()
	assert.NotNil(t, mgr)
}

func TestErrNotSupported(t *testing.T) {
	assert.ErrorIs(t, ErrNotSupported, util.ErrUnsupported)
	assert.Contains(t, ErrNotSupported.Error(), "not supported")
}

func TestUnsupportedPlatform(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping on Windows to avoid modifying system settings")
	}

	mgr := New()
	assert.ErrorIs(t, mgr.SetProxy("127.0.0.1:8080"), ErrNotSupported)
	assert.ErrorIs(t, mgr.ClearProxy(), ErrNotSupported)
}
