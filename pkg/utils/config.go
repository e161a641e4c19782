package utils

import (
	"os"
	"strconv"
	"time"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("MANHWATRACK_JWT_SECRET")
	if secret == "" {
		// dev default (change for production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("MANHWATRACK_JWT_ISSUER")
	if issuer == "" {
		issuer = "manhwatrack"
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: durationEnv("MANHWATRACK_JWT_TTL_HOURS", 24) * time.Hour,
	}
}

type ProxyConfig struct {
	BaseURL string // Comick proxy API root
	WebBase string // public site used for generated links
}

func LoadProxyConfig() ProxyConfig {
	base := os.Getenv("MANHWATRACK_PROXY_BASE")
	if base == "" {
		base = "https://comick-api-proxy.notaspider.dev/api"
	}
	web := os.Getenv("MANHWATRACK_WEB_BASE")
	if web == "" {
		web = "https://comick.dev"
	}
	return ProxyConfig{BaseURL: base, WebBase: web}
}

type CheckConfig struct {
	Interval time.Duration // time between scheduled sweeps
	Pacing   time.Duration // delay between per-user notification sends
}

func LoadCheckConfig() CheckConfig {
	return CheckConfig{
		Interval: durationEnv("MANHWATRACK_CHECK_INTERVAL_HOURS", 24) * time.Hour,
		Pacing:   time.Second,
	}
}

func durationEnv(key string, def int64) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(def)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return time.Duration(def)
	}
	return time.Duration(n)
}
