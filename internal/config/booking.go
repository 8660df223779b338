package config

import (
	"time"
)

const (
	StorageDriverMongoDB = "mongodb"
	StorageDriverMemory  = "memory"
)

type BookingConfig struct {
	StorageDriver      string        `yaml:"storage_driver"`
	TransactionTimeout time.Duration `yaml:"transaction_timeout"`
	TripCacheTTL       time.Duration `yaml:"trip_cache_ttl"`
	EnhancedKeywords   []string      `yaml:"enhanced_keywords"`
}

func loadBookingConfig() *BookingConfig {
	return &BookingConfig{
		StorageDriver:      getEnv("STORAGE_DRIVER", StorageDriverMongoDB),
		TransactionTimeout: getEnvAsDuration("BOOKING_TX_TIMEOUT", 15*time.Second),
		TripCacheTTL:       getEnvAsDuration("TRIP_CACHE_TTL", 5*time.Minute),
		EnhancedKeywords:   getEnvAsSlice("ENHANCED_ROUTE_KEYWORDS", []string{"tăng cường", "tang cuong"}),
	}
}
