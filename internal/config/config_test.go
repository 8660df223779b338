package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverMongoDB, cfg.Booking.StorageDriver)
	assert.Equal(t, 15*time.Second, cfg.Booking.TransactionTimeout)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.NotEmpty(t, cfg.Booking.EnhancedKeywords)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("BOOKING_TX_TIMEOUT", "3s")
	t.Setenv("ENHANCED_ROUTE_KEYWORDS", "extra, overflow ,")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverMemory, cfg.Booking.StorageDriver)
	assert.Equal(t, 3*time.Second, cfg.Booking.TransactionTimeout)
	assert.Equal(t, []string{"extra", "overflow"}, cfg.Booking.EnhancedKeywords)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("BOOKING_TX_TIMEOUT", "0s")

	_, err := Load()
	assert.Error(t, err)
}
