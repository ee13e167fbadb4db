package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	require.NoError(t, ValidatePassword([]byte("S3cure!pw")))
	require.Error(t, ValidatePassword([]byte("short")))
	require.Error(t, ValidatePassword([]byte("has a space")))
	require.Error(t, ValidatePassword([]byte("tab\tinside!")))
}

func TestZeroBytes(t *testing.T) {
	b := []byte("secret")
	ZeroBytes(b)
	require.Equal(t, make([]byte, 6), b)
}
