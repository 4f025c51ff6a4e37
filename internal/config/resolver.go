// Package config resolves runtime settings from a YAML file, the
// environment, and CLI flags, recording where each value came from.
// Precedence is CLI over environment over config file over built-in
// default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

type ResolveOptions struct {
	ConfigPath      string
	CLIDataDir      string
	CLIProcessedDir string
	CLITemperature  string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DataDir      ResolvedValue `json:"data_dir"`
	ProcessedDir ResolvedValue `json:"processed_dir"`
	Temperature  ResolvedValue `json:"temperature"`
	LogLevel     ResolvedValue `json:"log_level"`
}

type fileConfig struct {
	DataDir      string `yaml:"data_dir"`
	ProcessedDir string `yaml:"processed_dir"`
	Temperature  string `yaml:"temperature"`
	LogLevel     string `yaml:"log_level"`
}

const (
	defaultDataDir      = "Data"
	defaultProcessedDir = "processed_data"
	defaultTemperature  = "0.5"
)

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".ghosttext", "config.yaml")
}

func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{
		ConfigPath:   path,
		DataDir:      ResolvedValue{Value: defaultDataDir, Source: SourceDefault, From: "built-in default"},
		ProcessedDir: ResolvedValue{Value: defaultProcessedDir, Source: SourceDefault, From: "built-in default"},
		Temperature:  ResolvedValue{Value: defaultTemperature, Source: SourceDefault, From: "built-in default"},
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}
	if cfg != nil {
		apply(&out.DataDir, cfg.DataDir, SourceConfig, path)
		apply(&out.ProcessedDir, cfg.ProcessedDir, SourceConfig, path)
		apply(&out.Temperature, cfg.Temperature, SourceConfig, path)
		apply(&out.LogLevel, cfg.LogLevel, SourceConfig, path)
	}

	applyEnv(&out.DataDir, "GHOSTTEXT_DATA_DIR")
	applyEnv(&out.ProcessedDir, "GHOSTTEXT_PROCESSED_DIR")
	applyEnv(&out.Temperature, "GHOSTTEXT_TEMPERATURE")
	applyEnv(&out.LogLevel, "LOG_LEVEL")

	apply(&out.DataDir, opts.CLIDataDir, SourceCLI, "--data")
	apply(&out.ProcessedDir, opts.CLIProcessedDir, SourceCLI, "--processed")
	apply(&out.Temperature, opts.CLITemperature, SourceCLI, "--temperature")

	out.DataDir.Value = expandUserPath(out.DataDir.Value)
	out.ProcessedDir.Value = expandUserPath(out.ProcessedDir.Value)

	return out, nil
}

// TemperatureSetting parses the resolved temperature into the user dial.
// Unparseable or out-of-range values fall back to the default rather than
// failing resolution.
func (r ResolvedConfig) TemperatureSetting() float64 {
	const fallback = 0.5
	v, err := strconv.ParseFloat(strings.TrimSpace(r.Temperature.Value), 64)
	if err != nil || v < 0.1 || v > 1.0 {
		return fallback
	}
	return v
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
