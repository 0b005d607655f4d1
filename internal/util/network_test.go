package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLoopbackAddress(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:7390", true},
		{"127.0.0.1", true},
		{"127.1.2.3:80", true},
		{"localhost:7390", true},
		{"LOCALHOST", true},
		{"[::1]:7390", true},
		{"::1", true},
		{"[::1]", true},
		{"0.0.0.0:7390", false},
		{":7390", false},
		{"[::]:7390", false},
		{"192.168.1.10:7390", false},
		{"example.com:7390", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLoopbackAddress(tt.addr))
		})
	}
}
