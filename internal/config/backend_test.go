package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBackendSelector_SetThenGet(t *testing.T) {
	s := NewBackendSelector("claude")
	require.Equal(t, "claude", s.Backend())

	require.NoError(t, s.SetBackend("amp"))
	require.Equal(t, "amp", s.Backend())
}

func TestBackendSelector_RejectsUnknownBackend(t *testing.T) {
	s := NewBackendSelector("claude")

	err := s.SetBackend("not-a-backend")
	require.Error(t, err)
	require.Equal(t, "claude", s.Backend())
}

func TestBackendSelector_EmptySetIsNoOp(t *testing.T) {
	s := NewBackendSelector("claude")

	require.NoError(t, s.SetBackend(""))
	require.Equal(t, "claude", s.Backend())
}
