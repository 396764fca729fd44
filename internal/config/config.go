package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Addr   string
	AppEnv string

	DatabaseURL string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	FrameSampleCount int

	AuthSecret string

	KafkaBrokers []string
	KafkaTopic   string
}

const (
	defaultAddr        = ":8080"
	defaultGeminiModel = "gemini-1.5-pro-latest"
	defaultFrameCount  = 5
	defaultKafkaTopic  = "scene-validator.events"
)

func Load() (Config, error) {
	cfg := Config{
		Addr:             getEnv("SCENE_VALIDATOR_ADDR", defaultAddr),
		AppEnv:           getEnv("APP_ENV", "development"),
		DatabaseURL:      firstNonEmpty(os.Getenv("SCENE_VALIDATOR_DATABASE_URL"), os.Getenv("DATABASE_URL")),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", defaultGeminiModel),
		GeminiBaseURL:    os.Getenv("GEMINI_BASE_URL"),
		FrameSampleCount: getInt("SCENE_VALIDATOR_FRAME_COUNT", defaultFrameCount),
		AuthSecret:       os.Getenv("SCENE_VALIDATOR_SECRET"),
		KafkaBrokers:     splitList(os.Getenv("SCENE_VALIDATOR_KAFKA_BROKERS")),
		KafkaTopic:       getEnv("SCENE_VALIDATOR_KAFKA_TOPIC", defaultKafkaTopic),
	}
	if cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("GEMINI_API_KEY required")
	}
	if cfg.FrameSampleCount <= 0 {
		return Config{}, fmt.Errorf("SCENE_VALIDATOR_FRAME_COUNT must be positive")
	}
	if cfg.AppEnv == "production" && cfg.AuthSecret == "" {
		return Config{}, fmt.Errorf("SCENE_VALIDATOR_SECRET required in production")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
