package config

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type AppConfig struct {
	Name     string
	Env      string
	Port     string
	BaseURL  string
	LogLevel string
}

var (
	appConfig *AppConfig
	appOnce   sync.Once
)

func LoadAppConfig() *AppConfig {
	appOnce.Do(func() {
		env := getEnv("APP_ENV", "")
		if env == "" {
			env = "development"
			logrus.Warnf("APP_ENV not set, defaulting to %s", env)
		}
		port := getEnv("APP_PORT", ":8080")
		if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
			port = ":" + port
		}
		appConfig = &AppConfig{
			Name:     getEnv("APP_NAME", "interview-proctor"),
			Env:      env,
			Port:     port,
			BaseURL:  getEnv("APP_URL", "http://localhost"+port),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		}
	})
	return appConfig
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// NewLogger builds the process logger. Production logs are JSON.
func (c *AppConfig) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if c.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
