// Package config содержит логику чтения конфигурации сервиса KleanLoop.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress      = "localhost:8080"
	defaultLogLevel        = "info"
	defaultShutdownTimeout = 5 * time.Second
)

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress        string        `env:"RUN_ADDRESS"`
	DatabaseURI       string        `env:"DATABASE_URI"`
	ClassifierAddress string        `env:"CLASSIFIER_ADDRESS"`
	AuthSecret        string        `env:"AUTH_SECRET"`
	AdminSecret       string        `env:"ADMIN_SECRET"`
	LogLevel          string        `env:"LOG_LEVEL"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Значения из окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	envCfg := Config{}
	if err := env.Parse(&envCfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg := &Config{}
	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.ClassifierAddress, "c", "", "plastic classifier address, random mock when empty")
	flag.StringVar(&cfg.AuthSecret, "s", "", "secret for signing user auth cookies")
	flag.StringVar(&cfg.AdminSecret, "k", "", "secret for verifying admin tokens")
	flag.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")
	flag.DurationVar(&cfg.ShutdownTimeout, "t", defaultShutdownTimeout, "graceful shutdown timeout")

	flag.Parse()

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.ClassifierAddress != "" {
		cfg.ClassifierAddress = envCfg.ClassifierAddress
	}
	if envCfg.AuthSecret != "" {
		cfg.AuthSecret = envCfg.AuthSecret
	}
	if envCfg.AdminSecret != "" {
		cfg.AdminSecret = envCfg.AdminSecret
	}
	if envCfg.LogLevel != "" {
		cfg.LogLevel = envCfg.LogLevel
	}
	if envCfg.ShutdownTimeout > 0 {
		cfg.ShutdownTimeout = envCfg.ShutdownTimeout
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	return cfg, nil
}
