// Package app wires configuration and the long-running preview server.
package app

import (
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/tennisfel/compendium/internal/convert"
)

var moduleIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Config is the full application configuration, loaded from YAML with
// environment expansion.
type Config struct {
	App    AppConfig    `yaml:"app"`
	Export ExportConfig `yaml:"export"`
	Module ModuleConfig `yaml:"module"`
	Assets AssetsConfig `yaml:"assets"`
	Output OutputConfig `yaml:"output"`
	Packs  PacksConfig  `yaml:"packs"`
	Index  IndexConfig  `yaml:"index"`
	Auth   AuthConfig   `yaml:"auth"`
}

type AppConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type ExportConfig struct {
	Path      string `yaml:"path"`
	RegionMap string `yaml:"region_map"`
}

type ModuleConfig struct {
	ID            string              `yaml:"id"`
	Title         string              `yaml:"title"`
	Description   string              `yaml:"description"`
	Version       string              `yaml:"version"`
	Compatibility CompatibilityConfig `yaml:"compatibility"`
}

type CompatibilityConfig struct {
	Minimum  string `yaml:"minimum"`
	Verified string `yaml:"verified"`
}

type AssetsConfig struct {
	Hosts        []string `yaml:"hosts"`
	MaxAttempts  uint     `yaml:"max_attempts"`
	RetryDelayMS int      `yaml:"retry_delay_ms"`
}

// RetryDelay returns the initial retry delay as a duration.
func (a AssetsConfig) RetryDelay() time.Duration {
	return time.Duration(a.RetryDelayMS) * time.Millisecond
}

type OutputConfig struct {
	Dir     string `yaml:"dir"`
	DistDir string `yaml:"dist_dir"`
}

type PacksConfig struct {
	SceneOrder []string `yaml:"scene_order"`
}

type IndexConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	Token string `yaml:"token"`
}

// NewDefaultConfig returns the configuration used when no file is present.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.App.LogLevel = slog.LevelInfo
	cfg.App.HTTP.Port = 8080
	cfg.Export.Path = "legendkeeper/tennisfel.json"
	cfg.Module.ID = "tennisfel"
	cfg.Module.Title = "Tennisfel"
	cfg.Module.Description = "Tennisfel world compendium"
	cfg.Module.Version = "1.0.0"
	cfg.Module.Compatibility.Minimum = "12"
	cfg.Module.Compatibility.Verified = "12.331"
	cfg.Assets.Hosts = []string{"assets.legendkeeper.com"}
	cfg.Assets.MaxAttempts = 3
	cfg.Assets.RetryDelayMS = 500
	cfg.Output.Dir = "."
	cfg.Output.DistDir = "dist"
	cfg.Index.Path = "tennisfel-index.db"
	return cfg
}

// Validate implements the config loader's Validator hook.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.App.HTTP,
		validation.Field(&c.App.HTTP.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Export,
		validation.Field(&c.Export.Path, validation.Required),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Module,
		validation.Field(&c.Module.ID, validation.Required, validation.Match(moduleIDPattern)),
		validation.Field(&c.Module.Title, validation.Required),
		validation.Field(&c.Module.Version, validation.Required),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Module.Compatibility,
		validation.Field(&c.Module.Compatibility.Minimum, validation.Required),
	); err != nil {
		return err
	}
	return validation.ValidateStruct(&c.Assets,
		validation.Field(&c.Assets.Hosts, validation.Required),
		validation.Field(&c.Assets.MaxAttempts, validation.Min(uint(1))),
		validation.Field(&c.Assets.RetryDelayMS, validation.Min(1)),
	)
}

// ConvertOptions maps the configuration onto one pipeline run.
func (c *Config) ConvertOptions() convert.Options {
	return convert.Options{
		ExportPath:     c.Export.Path,
		RegionMap:      c.Export.RegionMap,
		OutputDir:      c.Output.Dir,
		ModuleID:       c.Module.ID,
		ModuleTitle:    c.Module.Title,
		Description:    c.Module.Description,
		Version:        c.Module.Version,
		CompatMin:      c.Module.Compatibility.Minimum,
		CompatVerified: c.Module.Compatibility.Verified,
		AssetHosts:     c.Assets.Hosts,
		MaxAttempts:    c.Assets.MaxAttempts,
		RetryDelay:     c.Assets.RetryDelay(),
		SceneOrder:     c.Packs.SceneOrder,
		IndexPath:      c.Index.Path,
	}
}

// NewLogger builds the application logger at the configured level.
func (c *Config) NewLogger() *slog.Logger {
	return newLogger(c.App.LogLevel)
}
