package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTiered_LocalOnlyRoundTrip(t *testing.T) {
	tiered := NewTiered(NewMemory(), nil)

	require.NoError(t, tiered.Set("products:active", `[{"id":"1"}]`, time.Minute))

	value, found := tiered.Get("products:active")
	require.True(t, found)
	require.Equal(t, `[{"id":"1"}]`, value)
}

func TestTiered_MissAfterDelete(t *testing.T) {
	tiered := NewTiered(NewMemory(), nil)

	require.NoError(t, tiered.Set("dashboard:overview", "{}", time.Minute))
	require.NoError(t, tiered.Delete("dashboard:overview"))

	_, found := tiered.Get("dashboard:overview")
	require.False(t, found)
}

func TestTiered_ExpiredEntryIsGone(t *testing.T) {
	tiered := NewTiered(NewMemory(), nil)

	require.NoError(t, tiered.Set("short-lived", "value", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, found := tiered.Get("short-lived")
	require.False(t, found)
}

func TestMemory_GetUnknownKey(t *testing.T) {
	memory := NewMemory()

	_, found := memory.Get("missing")
	require.False(t, found)
}
