package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Feature table conventions
	RawFileMarker  string `mapstructure:"raw_file_marker" yaml:"raw_file_marker"`
	PeakSuffix     string `mapstructure:"peak_suffix" yaml:"peak_suffix"`
	StripExtension bool   `mapstructure:"strip_extension" yaml:"strip_extension"`
	FeatureIndex   string `mapstructure:"feature_index" yaml:"feature_index"`
	MetadataIndex  string `mapstructure:"metadata_index" yaml:"metadata_index"`
	// Decimal separator for numeric cells: "." or ","
	DecimalSeparator string `mapstructure:"decimal_separator" yaml:"decimal_separator"`

	// Blank removal
	BlankColumn  string   `mapstructure:"blank_column" yaml:"blank_column"`
	BlankValue   string   `mapstructure:"blank_value" yaml:"blank_value"`
	SampleValues []string `mapstructure:"sample_values" yaml:"sample_values"`
	BlankCutoff  float64  `mapstructure:"blank_cutoff" yaml:"blank_cutoff"`

	// Scaling
	MaxMissing float64 `mapstructure:"max_missing" yaml:"max_missing"`
	// Seed for imputation draws; 0 draws a fresh seed per run.
	Seed uint64 `mapstructure:"seed" yaml:"seed"`

	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.metaclean/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Defaults returns the built-in configuration, ignoring files and env.
func Defaults() (*Global, error) {
	var c Global
	if err := withDefaults(viper.New()).Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func withDefaults(v *viper.Viper) *viper.Viper {
	v.SetDefault("raw_file_marker", ".mz")
	v.SetDefault("peak_suffix", " Peak area")
	v.SetDefault("strip_extension", false)
	v.SetDefault("feature_index", "row ID")
	v.SetDefault("metadata_index", "filename")
	v.SetDefault("decimal_separator", ".")
	v.SetDefault("blank_column", "")
	v.SetDefault("blank_value", "BLANK")
	v.SetDefault("sample_values", []string{})
	v.SetDefault("blank_cutoff", 0.3)
	v.SetDefault("max_missing", 0.5)
	v.SetDefault("seed", 0)
	v.SetDefault("output_dir", "metaclean-out")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	return v
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	c, err := LoadUnvalidated(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnvalidated is Load without Validate, so a file holding a bad value can
// still be read and repaired.
func LoadUnvalidated(cfgFile string) (*Global, error) {
	v := withDefaults(viper.New())
	v.SetEnvPrefix("METACLEAN")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; an explicit one must exist.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || cfgFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Validate rejects values the pipeline cannot work with.
func (c *Global) Validate() error {
	if c.BlankCutoff <= 0 {
		return fmt.Errorf("blank_cutoff must be positive, got %v", c.BlankCutoff)
	}
	if c.MaxMissing <= 0 || c.MaxMissing > 1 {
		return fmt.Errorf("max_missing must be in (0, 1], got %v", c.MaxMissing)
	}
	switch c.DecimalSeparator {
	case ".", ",":
	default:
		return fmt.Errorf("decimal_separator must be '.' or ',', got %q", c.DecimalSeparator)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// Decimal returns the decimal separator as a rune.
func (c *Global) Decimal() rune {
	if c.DecimalSeparator == "," {
		return ','
	}
	return '.'
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".metaclean"), nil
}
