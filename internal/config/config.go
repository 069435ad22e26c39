package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	ListenAddr     string
	APIKeys        []string
	DBPath         string
	ExtractBaseURL string
	ExtractToken   string
	CallbackSecret string
	SubmitRPS      int
	CORSOrigins    []string
}

func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr: getEnv("CITEHUB_LISTEN_ADDR", ":8080"),
		DBPath:     getEnv("CITEHUB_DB_PATH", "citehub.db"),
	}

	rawKeys := getEnv("CITEHUB_API_KEYS", "")
	if rawKeys == "" {
		return nil, errors.New("CITEHUB_API_KEYS must not be empty")
	}
	for _, k := range strings.Split(rawKeys, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			cfg.APIKeys = append(cfg.APIKeys, k)
		}
	}
	if len(cfg.APIKeys) == 0 {
		return nil, errors.New("CITEHUB_API_KEYS contains no valid keys")
	}

	cfg.ExtractBaseURL = getEnv("CITEHUB_EXTRACT_URL", "")
	if cfg.ExtractBaseURL == "" {
		return nil, errors.New("CITEHUB_EXTRACT_URL must not be empty")
	}
	if u, err := url.Parse(cfg.ExtractBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("CITEHUB_EXTRACT_URL %q is not an absolute URL", cfg.ExtractBaseURL)
	}

	cfg.ExtractToken = getEnv("CITEHUB_EXTRACT_TOKEN", "")
	if cfg.ExtractToken == "" {
		return nil, errors.New("CITEHUB_EXTRACT_TOKEN must not be empty")
	}

	cfg.CallbackSecret = getEnv("CITEHUB_CALLBACK_SECRET", "")
	if cfg.CallbackSecret == "" {
		return nil, errors.New("CITEHUB_CALLBACK_SECRET must not be empty")
	}

	var err error
	cfg.SubmitRPS, err = getEnvInt("CITEHUB_SUBMIT_RPS", 5)
	if err != nil {
		return nil, fmt.Errorf("CITEHUB_SUBMIT_RPS: %w", err)
	}
	if cfg.SubmitRPS < 0 {
		return nil, errors.New("CITEHUB_SUBMIT_RPS must be >= 0")
	}

	if rawOrigins := getEnv("CITEHUB_CORS_ORIGINS", ""); rawOrigins != "" {
		for _, o := range strings.Split(rawOrigins, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}
