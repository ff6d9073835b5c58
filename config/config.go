package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// Sync methods.
const (
	SyncMethodGitHub  = "github"
	SyncMethodCommand = "command"
)

// DefaultCachePath is where the source application keeps its cache, relative to $HOME.
const DefaultCachePath = "Library/Application Support/Granola/cache-v3.json"

type Config struct {
	CachePath         string `toml:"cache_path"`
	ExportDir         string `toml:"export_dir"`
	LogFile           string `toml:"log_file"`
	LogLevel          string `toml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat         string `toml:"log_format" validate:"omitempty,oneof=console json"`
	RequireTranscript bool   `toml:"require_transcript"`
	MetricsFile       string `toml:"metrics_file"`
	Sync              SyncConfig

	// Path is the config file that was loaded, empty if none.
	Path string `toml:"-"`

	logFileSet bool
}

// SyncConfig holds the post-export sync options. It is validated when a
// sync is attempted, not at load time, so a bad sync setup never blocks exports.
type SyncConfig struct {
	Enabled      bool   `toml:"sync_enabled" json:"sync_enabled"`
	Method       string `toml:"sync_method" json:"sync_method" validate:"required,oneof=github command"`
	GitHubRepo   string `toml:"github_repo" json:"github_repo" validate:"required_if=Method github"`
	GitHubBranch string `toml:"github_branch" json:"github_branch" validate:"required_if=Method github"`
	GitHubToken  string `toml:"github_token" json:"github_token"`
	Command      string `toml:"sync_command" json:"sync_command" validate:"required_if=Method command"`
	OnNoNew      bool   `toml:"sync_on_no_new" json:"sync_on_no_new"`
}

// fileConfig mirrors the flat on-disk layout shared by the TOML file and the legacy JSON file.
type fileConfig struct {
	CachePath         string `toml:"cache_path" json:"cache_path"`
	ExportDir         string `toml:"export_dir" json:"export_dir"`
	LogFile           string `toml:"log_file" json:"log_file"`
	LogLevel          string `toml:"log_level" json:"log_level"`
	LogFormat         string `toml:"log_format" json:"log_format"`
	RequireTranscript *bool  `toml:"require_transcript" json:"require_transcript"`
	MetricsFile       string `toml:"metrics_file" json:"metrics_file"`
	SyncConfig
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load reads the config file (if any), applies environment overrides and
// validates the result.
func Load() (*Config, error) {
	cfg := Defaults()

	if configPath := configFilePath(); configPath != "" {
		if err := loadFile(configPath, cfg); err != nil {
			return nil, err
		}
		cfg.Path = configPath
	}

	applyEnvOverrides(cfg)
	finalize(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the configuration used when nothing is configured.
func Defaults() *Config {
	home := homeDir()
	return &Config{
		CachePath:         filepath.Join(home, DefaultCachePath),
		ExportDir:         filepath.Join(home, "granola-export"),
		LogLevel:          "warn",
		LogFormat:         "console",
		RequireTranscript: true,
		Sync: SyncConfig{
			GitHubBranch: "main",
		},
	}
}

// Validate checks the options that must be sound before a run starts.
func (c *Config) Validate() error {
	if err := validate.StructExcept(c, "Sync"); err != nil {
		return fmt.Errorf("invalid config: %s", describe(err))
	}
	return nil
}

// Validate checks the sync options for the configured method.
func (s SyncConfig) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid sync config: %s", describe(err))
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_if":
			msgs = append(msgs, fe.Field()+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func loadFile(path string, cfg *Config) error {
	var fc fileConfig
	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
	} else if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	if fc.CachePath != "" {
		cfg.CachePath = fc.CachePath
	}
	if fc.ExportDir != "" {
		cfg.ExportDir = fc.ExportDir
	}
	cfg.LogFile = fc.LogFile
	cfg.logFileSet = fc.LogFile != ""
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		cfg.LogFormat = fc.LogFormat
	}
	if fc.RequireTranscript != nil {
		cfg.RequireTranscript = *fc.RequireTranscript
	}
	cfg.MetricsFile = fc.MetricsFile

	branch := cfg.Sync.GitHubBranch
	cfg.Sync = fc.SyncConfig
	if cfg.Sync.GitHubBranch == "" {
		cfg.Sync.GitHubBranch = branch
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GRANOLA_EXPORT_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("GRANOLA_EXPORT_EXPORT_DIR"); v != "" {
		cfg.ExportDir = v
	}
	if v := os.Getenv("GRANOLA_EXPORT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("GRANOLA_EXPORT_METRICS_FILE"); v != "" {
		cfg.MetricsFile = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.Sync.GitHubToken = v
	}
	if v := os.Getenv("GRANOLA_EXPORT_GITHUB_TOKEN"); v != "" {
		cfg.Sync.GitHubToken = v
	}
}

func finalize(cfg *Config) {
	cfg.CachePath = ExpandTilde(cfg.CachePath)
	cfg.ExportDir = ExpandTilde(cfg.ExportDir)
	cfg.MetricsFile = ExpandTilde(cfg.MetricsFile)
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.ExportDir, "export.log")
	}
	cfg.LogFile = ExpandTilde(cfg.LogFile)
}

// SetExportDir changes the export dir. The run log moves with it unless a
// log file was configured explicitly.
func (c *Config) SetExportDir(dir string) {
	c.ExportDir = ExpandTilde(dir)
	if !c.logFileSet {
		c.LogFile = filepath.Join(c.ExportDir, "export.log")
	}
}

// configFilePath returns the TOML config if present, else the legacy JSON
// config in the home directory, else "".
func configFilePath() string {
	if p := os.Getenv("GRANOLA_EXPORT_CONFIG"); p != "" {
		return ExpandTilde(p)
	}

	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "granola-export")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "granola-export")
	}

	if configDir != "" {
		path := filepath.Join(configDir, "config.toml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		legacy := filepath.Join(home, ".granola-export-config.json")
		if _, err := os.Stat(legacy); err == nil {
			return legacy
		}
	}
	return ""
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// ExpandTilde replaces a leading "~/" with the user's home directory.
func ExpandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
