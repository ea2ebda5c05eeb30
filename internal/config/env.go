package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		logrus.Warnf("Invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return v
}
