package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/reflect-runtime/binder"
	"github.com/wippyai/reflect-runtime/delegate"
	"github.com/wippyai/reflect-runtime/enuminfo"
	"github.com/wippyai/reflect-runtime/image"
	"github.com/wippyai/reflect-runtime/resolver"
	"github.com/wippyai/reflect-runtime/runtime"
	"github.com/wippyai/reflect-runtime/witenv"
)

const configName = "reflect.toml"

// Config is the reflect.toml file.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Runtime RuntimeConfig `toml:"runtime"`
	WIT     WITConfig     `toml:"wit"`
}

type LogConfig struct {
	// Level is debug, info, warn or error.
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

type RuntimeConfig struct {
	StaticSearchAncestors *bool `toml:"static-search-ancestors"`
}

type WITConfig struct {
	// Namespace receives types imported from WIT JSON.
	Namespace string `toml:"namespace"`
}

func defaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "warn"},
		WIT: WITConfig{Namespace: "Wit"},
	}
}

// loadConfig reads path, or reflect.toml in the working directory when path
// is empty. A missing default file is not an error.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	explicit := path != ""
	if !explicit {
		path = configName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", filepath.Base(path), err)
	}
	if cfg.WIT.Namespace == "" {
		cfg.WIT.Namespace = "Wit"
	}
	return cfg, nil
}

// RuntimeOptions merges the config over the runtime defaults.
func (c *Config) RuntimeOptions() runtime.Options {
	opts := runtime.DefaultOptions()
	if c.Runtime.StaticSearchAncestors != nil {
		opts.StaticSearchAncestors = *c.Runtime.StaticSearchAncestors
	}
	return opts
}

// newLogger builds the process logger and installs it in every package.
func newLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}

	resolver.SetLogger(logger.Named("resolver"))
	binder.SetLogger(logger.Named("binder"))
	delegate.SetLogger(logger.Named("delegate"))
	enuminfo.SetLogger(logger.Named("enuminfo"))
	runtime.SetLogger(logger.Named("runtime"))
	image.SetLogger(logger.Named("image"))
	witenv.SetLogger(logger.Named("witenv"))
	return logger, nil
}
