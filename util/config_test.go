package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	InitValidator()

	t.Run("happy case with defaults", func(t *testing.T) {
		t.Setenv("PORT", "8080")
		t.Setenv("ALLOWED_ORIGINS", "")
		t.Setenv("ROOM_IDLE_TTL_MINUTES", "")

		config, err := LoadConfig()
		require.NoError(t, err)
		require.Equal(t, "8080", config.Port)
		require.Empty(t, config.AllowedOrigins)
		require.Equal(t, defaultRoomIdleTTL, config.RoomIdleTTL)
	})

	t.Run("missing port", func(t *testing.T) {
		t.Setenv("PORT", "")

		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("non-numeric port", func(t *testing.T) {
		t.Setenv("PORT", "not-a-port")

		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("origins and ttl parsed", func(t *testing.T) {
		t.Setenv("PORT", "8080")
		t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, http://localhost:3001")
		t.Setenv("ROOM_IDLE_TTL_MINUTES", "5")

		config, err := LoadConfig()
		require.NoError(t, err)
		require.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, config.AllowedOrigins)
		require.Equal(t, 5*time.Minute, config.RoomIdleTTL)
	})
}
