package util

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiError(t *testing.T) {
	var m MultiError
	assert.NoError(t, m.Err())
	assert.Equal(t, "", m.Error())

	m.Add(nil)
	assert.NoError(t, m.Err())

	first := errors.New("setenv http_proxy")
	m.Add(first)
	require.Error(t, m.Err())
	assert.Equal(t, "setenv http_proxy", m.Error())

	m.Add(ErrUnsupported)
	assert.Contains(t, m.Error(), "2 errors occurred")
	assert.ErrorIs(t, m.Err(), first)
	assert.ErrorIs(t, m.Err(), ErrUnsupported)
}
