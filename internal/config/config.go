package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultPollIntervalMs = 5000
	defaultCacheTTLMs     = 5000
	defaultMaxClients     = 50
	defaultMaxClientsIP   = 5
)

type Config struct {
	AppEnv              string
	Port                string
	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURI  string
	SessionSecret       string
	LogLevel            string
	LogFormat           string

	// PollInterval is the cadence of the centralized poll loop.
	PollInterval time.Duration
	// CacheTTL is the per-entry time-to-live of the request cache.
	CacheTTL time.Duration
	// CentralisedPolling controls whether the poll loop runs at all.
	CentralisedPolling bool

	MaxClients      int
	MaxClientsPerIP int
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		SpotifyClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),
		SpotifyRedirectURI:  getEnv("SPOTIFY_REDIRECT_URI", ""),
		SessionSecret:       getEnv("SESSION_SECRET", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
	}

	pollMs, err := getEnvInt("POLL_INTERVAL_MS", defaultPollIntervalMs)
	if err != nil {
		return nil, err
	}
	if pollMs <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_MS must be positive, got %d", pollMs)
	}
	cfg.PollInterval = time.Duration(pollMs) * time.Millisecond

	ttlMs, err := getEnvInt("CACHE_TTL_MS", defaultCacheTTLMs)
	if err != nil {
		return nil, err
	}
	if ttlMs <= 0 {
		return nil, fmt.Errorf("CACHE_TTL_MS must be positive, got %d", ttlMs)
	}
	cfg.CacheTTL = time.Duration(ttlMs) * time.Millisecond

	cfg.CentralisedPolling, err = getEnvBool("CENTRALISED_POLLING", true)
	if err != nil {
		return nil, err
	}

	cfg.MaxClients, err = getEnvInt("MAX_CLIENTS", defaultMaxClients)
	if err != nil {
		return nil, err
	}
	cfg.MaxClientsPerIP, err = getEnvInt("MAX_CLIENTS_PER_IP", defaultMaxClientsIP)
	if err != nil {
		return nil, err
	}

	if cfg.SpotifyClientID == "" {
		return nil, fmt.Errorf("SPOTIFY_CLIENT_ID is required")
	}
	if cfg.SpotifyClientSecret == "" {
		return nil, fmt.Errorf("SPOTIFY_CLIENT_SECRET is required")
	}
	if cfg.SpotifyRedirectURI == "" {
		return nil, fmt.Errorf("SPOTIFY_REDIRECT_URI is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}
