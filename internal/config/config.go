// Package config loads sqlmeta settings from flags, SQLMETA_ environment
// variables and an optional YAML file, in that order of precedence.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix        = "SQLMETA"
	defaultExtension = "yaml"
	defaultTagName   = "yaml"
)

var databaseURLPattern = regexp.MustCompile(`^(postgres|postgresql|mysql|sqlite)://`)

type Config struct {
	DatabaseURL    string   `yaml:"database_url"`
	Schema         string   `yaml:"schema"`
	Tables         []string `yaml:"tables"`
	Exclude        []string `yaml:"exclude"`
	Format         string   `yaml:"format"`
	Output         string   `yaml:"output"`
	OutputDir      string   `yaml:"output_dir"`
	SplitThreshold int      `yaml:"split_threshold"`
	Log            Log      `yaml:"log"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DatabaseURL,
			validation.Required,
			validation.Match(databaseURLPattern).Error("must start with postgres://, postgresql://, mysql:// or sqlite://"),
		),
		validation.Field(&c.Format, validation.Required, validation.In("text", "markdown", "json")),
		validation.Field(&c.SplitThreshold, validation.Min(0)),
		validation.Field(&c.Output,
			validation.When(c.OutputDir != "", validation.Empty.Error("cannot be combined with output_dir")),
		),
		validation.Field(&c.Log),
	)
}

func (l Log) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.Required, validation.In("trace", "debug", "info", "warn", "error", "disabled")),
		validation.Field(&l.Format, validation.Required, validation.In("console", "json")),
	)
}

// Defaults are applied before any flag, environment variable or file.
var Defaults = map[string]any{
	"database_url":    "",
	"schema":          "",
	"tables":          []string{},
	"exclude":         []string{},
	"format":          "text",
	"output":          "",
	"output_dir":      "",
	"split_threshold": 0,
	"log.level":       "info",
	"log.format":      "console",
}

// FlagKeys maps command-line flag names onto configuration keys.
var FlagKeys = map[string]string{
	"db-url":          "database_url",
	"schema":          "schema",
	"tables":          "tables",
	"exclude":         "exclude",
	"format":          "format",
	"output":          "output",
	"output-dir":      "output_dir",
	"split-threshold": "split_threshold",
	"log-level":       "log.level",
	"log-format":      "log.format",
}

// Load builds the configuration. Flags that exist in flags and were set on
// the command line win over SQLMETA_* environment variables, which win over
// configFile. configFile may be empty.
func Load(flags *pflag.FlagSet, configFile string) (Config, error) {
	v := viper.New()

	for key, value := range Defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // So that env vars are translated properly
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range FlagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s to key %s: %w", name, key, err)
			}
		}
	}

	if configFile != "" {
		if err := checkExtension(configFile); err != nil {
			return Config{}, err
		}
		v.SetConfigFile(configFile)
		v.SetConfigType(defaultExtension)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = defaultTagName
	})
	if err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Tables = trimAll(cfg.Tables)
	cfg.Exclude = trimAll(cfg.Exclude)

	return cfg, nil
}

func checkExtension(configFile string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(configFile), "."))
	if ext != defaultExtension && ext != "yml" {
		return fmt.Errorf("config file must have extension %s, got: %q", defaultExtension, filepath.Ext(configFile))
	}
	return nil
}

// trimAll drops blank entries and surrounding whitespace
func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
