/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"gocatalog/internal/storage"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type GeneralConfig struct {
	Theme string `yaml:"theme"` // "system" | "light" | "dark"
}

// PathsConfig locates the catalog files. Relative entries are resolved
// against DataDir; an empty DataDir means the working directory.
type PathsConfig struct {
	DataDir       string `yaml:"data_dir"`
	Products      string `yaml:"products"`
	PublishTarget string `yaml:"publish_target"`
	DBBackups     string `yaml:"db_backups"`
	JSBackups     string `yaml:"js_backups"`
	Exports       string `yaml:"exports"`
	Web           string `yaml:"web"`
}

type BackupsConfig struct {
	Keep int `yaml:"keep"` // per backup directory; 0 keeps everything
}

type PreviewConfig struct {
	Addr string `yaml:"addr"`
}

// MirrorConfig points at an optional PostgreSQL copy of the catalog.
type MirrorConfig struct {
	DSN string `yaml:"dsn"`
}

// NotifyConfig configures the publish webhook. An empty URL disables it.
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	TimeoutMS  int    `yaml:"timeout_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Paths         PathsConfig   `yaml:"paths"`
	Backups       BackupsConfig `yaml:"backups"`
	Preview       PreviewConfig `yaml:"preview"`
	Mirror        MirrorConfig  `yaml:"mirror"`
	Notify        NotifyConfig  `yaml:"notify"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults. The layout matches the
// website's expectations: web/js/products.js next to products.json.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system"},
		Paths: PathsConfig{
			Products:      storage.DataFileName,
			PublishTarget: "web/js/products.js",
			DBBackups:     "backups/db_backups",
			JSBackups:     "backups/js_backups",
			Exports:       "exports",
			Web:           "web",
		},
		Backups: BackupsConfig{Keep: storage.DefaultKeepBackups},
		Preview: PreviewConfig{Addr: "127.0.0.1:8765"},
		Notify:  NotifyConfig{TimeoutMS: 1500},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile  = "GCAT_CONFIG"
	EnvDataDir     = "GCAT_DATA_DIR"
	EnvBackupsKeep = "GCAT_BACKUPS_KEEP"
	EnvPreviewAddr = "GCAT_PREVIEW_ADDR"
	EnvTheme       = "GCAT_THEME"
	EnvPGDSN       = "GCAT_PG_DSN"
	EnvWebhookURL  = "GCAT_WEBHOOK_URL"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GCAT_LOG_LEVEL"
	EnvLogFormat = "GCAT_LOG_FORMAT"
	EnvLogSource = "GCAT_LOG_SOURCE"
	EnvLogFile   = "GCAT_LOG_FILE"
)

// ConfigPath returns the per-user config file path. GCAT_CONFIG wins.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoCatalog")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoCatalog")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "gocatalog")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "gocatalog")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the config file at path (ConfigPath when empty), applies
// defaults and merges environment overrides. A missing file is not an
// error; a malformed one is reported while defaults and env still apply.
func Load(path string) (AppConfig, error) {
	cfg := Defaults()
	var loadErr error
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			applyEnvOverrides(&cfg)
			return cfg, err
		}
		path = p
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			loadErr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	case !errors.Is(err, fs.ErrNotExist):
		loadErr = fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, loadErr
}

// Save writes the config YAML to path (ConfigPath when empty).
func Save(cfg AppConfig, path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return storage.WriteFileAtomic(path, data)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if v := strings.ToLower(strings.TrimSpace(src.General.Theme)); v != "" {
		dst.General.Theme = v
	}
	mergePath(&dst.Paths.DataDir, src.Paths.DataDir)
	mergePath(&dst.Paths.Products, src.Paths.Products)
	mergePath(&dst.Paths.PublishTarget, src.Paths.PublishTarget)
	mergePath(&dst.Paths.DBBackups, src.Paths.DBBackups)
	mergePath(&dst.Paths.JSBackups, src.Paths.JSBackups)
	mergePath(&dst.Paths.Exports, src.Paths.Exports)
	mergePath(&dst.Paths.Web, src.Paths.Web)
	// 0 is meaningful (unlimited); negative values are ignored
	if src.Backups.Keep >= 0 {
		dst.Backups.Keep = src.Backups.Keep
	}
	if v := strings.TrimSpace(src.Preview.Addr); v != "" {
		dst.Preview.Addr = v
	}
	if v := strings.TrimSpace(src.Mirror.DSN); v != "" {
		dst.Mirror.DSN = v
	}
	if v := strings.TrimSpace(src.Notify.WebhookURL); v != "" {
		dst.Notify.WebhookURL = v
	}
	if src.Notify.TimeoutMS > 0 {
		dst.Notify.TimeoutMS = src.Notify.TimeoutMS
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func mergePath(dst *string, src string) {
	if v := strings.TrimSpace(src); v != "" {
		*dst = v
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// DotEnvFile is read from the working directory; its GCAT_* entries apply
// where the process environment leaves a variable unset.
const DotEnvFile = ".env"

// lookupEnv returns a getter over the process environment backed by DotEnvFile.
func lookupEnv() func(string) string {
	dot, err := godotenv.Read(DotEnvFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("ignoring unreadable env file", slog.String("file", DotEnvFile), slog.Any("err", err))
	}
	return func(name string) string {
		if v := os.Getenv(name); v != "" {
			return v
		}
		return dot[name]
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	getenv := lookupEnv()
	if v := strings.TrimSpace(getenv(EnvDataDir)); v != "" {
		cfg.Paths.DataDir = v
	}
	if v := strings.TrimSpace(getenv(EnvBackupsKeep)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Backups.Keep = n
		}
	}
	if v := strings.TrimSpace(getenv(EnvPreviewAddr)); v != "" {
		cfg.Preview.Addr = v
	}
	if v := strings.TrimSpace(getenv(EnvTheme)); v != "" {
		cfg.General.Theme = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv(EnvPGDSN)); v != "" {
		cfg.Mirror.DSN = v
	}
	if v := strings.TrimSpace(getenv(EnvWebhookURL)); v != "" {
		cfg.Notify.WebhookURL = v
	}
	// logging overrides
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envByKey = map[string]string{
	"paths.data_dir":     EnvDataDir,
	"backups.keep":       EnvBackupsKeep,
	"preview.addr":       EnvPreviewAddr,
	"general.theme":      EnvTheme,
	"mirror.dsn":         EnvPGDSN,
	"notify.webhook_url": EnvWebhookURL,
	"logging.level":      EnvLogLevel,
	"logging.format":     EnvLogFormat,
	"logging.source":     EnvLogSource,
	"logging.file":       EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envByKey[key]
	if !ok || lookupEnv()(name) == "" {
		return "", false
	}
	return name, true
}

// Layout is PathsConfig resolved to filesystem paths.
type Layout struct {
	Root      string
	Products  string
	Target    string
	DBBackups string
	JSBackups string
	Exports   string
	Web       string
}

// Layout resolves the configured paths. root, when non-empty, replaces
// paths.data_dir (the CLI's --data-dir).
func (c AppConfig) Layout(root string) Layout {
	if strings.TrimSpace(root) == "" {
		root = c.Paths.DataDir
	}
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	at := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, filepath.FromSlash(p))
	}
	return Layout{
		Root:      root,
		Products:  at(c.Paths.Products),
		Target:    at(c.Paths.PublishTarget),
		DBBackups: at(c.Paths.DBBackups),
		JSBackups: at(c.Paths.JSBackups),
		Exports:   at(c.Paths.Exports),
		Web:       at(c.Paths.Web),
	}
}
