// Package config resolves the project root and loads dashboard settings
// from defaults, an optional config file, the environment and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"shimwrapper-dashboard/rc"
	"shimwrapper-dashboard/store"
)

const (
	EnvPrefix = "SHIMWRAPPER"
	// FileDir and FileBase locate the optional config file under the root.
	FileDir  = ".shimwrapper"
	FileBase = "dashboard"
)

// Config is the resolved dashboard configuration.
type Config struct {
	Port          int
	Root          string
	RunnerCommand string
	RunCooldown   time.Duration
	HTTPTimeout   time.Duration
	StaticDir     string
	LogLevel      string
	LogFormat     string
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Command splits RunnerCommand on whitespace.
func (c Config) Command() []string {
	return strings.Fields(c.RunnerCommand)
}

var defaults = []struct {
	key string
	def any
}{
	{"port", 8080},
	{"root", ""},
	{"runner.command", "npx shimwrappercheck run"},
	{"run.cooldown", 30 * time.Second},
	{"http.timeout", 10 * time.Second},
	{"static.dir", ""},
	{"log.level", "info"},
	{"log.format", "console"},
}

// Load builds the configuration. flags may be nil; a flag named after a key
// with dots replaced by dashes (e.g. "log-level") overrides it when set.
// PORT is honoured as an alias of SHIMWRAPPER_PORT.
func Load(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, k := range defaults {
		v.SetDefault(k.key, k.def)
		if flags != nil {
			if f := flags.Lookup(strings.ReplaceAll(k.key, ".", "-")); f != nil {
				if err := v.BindPFlag(k.key, f); err != nil {
					return Config{}, err
				}
			}
		}
	}
	if err := v.BindEnv("port", EnvPrefix+"_PORT", "PORT"); err != nil {
		return Config{}, err
	}

	root := v.GetString("root")
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}
		root = FindRoot(cwd)
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return Config{}, fmt.Errorf("resolve project root: %w", err)
	}
	v.Set("root", root)

	v.SetConfigName(FileBase)
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(root, FileDir))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Port:          v.GetInt("port"),
		Root:          root,
		RunnerCommand: v.GetString("runner.command"),
		RunCooldown:   v.GetDuration("run.cooldown"),
		HTTPTimeout:   v.GetDuration("http.timeout"),
		StaticDir:     v.GetString("static.dir"),
		LogLevel:      v.GetString("log.level"),
		LogFormat:     v.GetString("log.format"),
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.StaticDir != "" && !filepath.IsAbs(cfg.StaticDir) {
		cfg.StaticDir = filepath.Join(root, cfg.StaticDir)
	}
	return cfg, nil
}

// rootMarkers are looked for in order in each directory.
var rootMarkers = []string{store.FileName, rc.FileName, "package.json", ".git"}

// FindRoot walks up from start and returns the first directory holding one
// of the project markers, or start itself when none is found.
func FindRoot(start string) string {
	dir := start
	for {
		for _, m := range rootMarkers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}
