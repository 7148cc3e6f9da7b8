package config

import (
	"os"
	"strconv"
	"time"
)

// ThrottleConfig controls the fixed-window limiter guarding the login
// endpoint. Counting happens in Redis so limits hold across replicas.
type ThrottleConfig struct {
	Enabled bool
	Limit   int           // attempts allowed per window, per client IP
	Window  time.Duration // window length
	Prefix  string        // Redis key prefix
}

// LoadThrottleConfig reads throttle settings from the environment, applying
// sane floors so misconfiguration cannot zero out the limiter.
func LoadThrottleConfig() ThrottleConfig {
	cfg := ThrottleConfig{
		Enabled: envBool("LOGIN_THROTTLE_ENABLED", true),
		Limit:   envInt("LOGIN_THROTTLE_LIMIT", 10),
		Window:  envDur("LOGIN_THROTTLE_WINDOW", time.Minute),
		Prefix:  envStr("LOGIN_THROTTLE_PREFIX", "portal"),
	}
	if cfg.Limit < 1 {
		cfg.Limit = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return cfg
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
