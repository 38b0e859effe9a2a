package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/metaclean/internal/config"
	"github.com/spf13/cobra"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set metaclean configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "raw_file_marker: %q\n", cfg.RawFileMarker)
		fmt.Fprintf(out, "peak_suffix: %q\n", cfg.PeakSuffix)
		fmt.Fprintf(out, "strip_extension: %t\n", cfg.StripExtension)
		fmt.Fprintf(out, "feature_index: %s\n", cfg.FeatureIndex)
		fmt.Fprintf(out, "metadata_index: %s\n", cfg.MetadataIndex)
		fmt.Fprintf(out, "decimal_separator: %s\n", cfg.DecimalSeparator)
		if cfg.BlankColumn != "" {
			fmt.Fprintf(out, "blank_column: %s\n", cfg.BlankColumn)
		}
		fmt.Fprintf(out, "blank_value: %s\n", cfg.BlankValue)
		if len(cfg.SampleValues) > 0 {
			fmt.Fprintf(out, "sample_values: %s\n", strings.Join(cfg.SampleValues, ","))
		}
		fmt.Fprintf(out, "blank_cutoff: %.3f\n", cfg.BlankCutoff)
		fmt.Fprintf(out, "max_missing: %.3f\n", cfg.MaxMissing)
		fmt.Fprintf(out, "seed: %d\n", cfg.Seed)
		fmt.Fprintf(out, "output_dir: %s\n", cfg.OutputDir)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", cfg.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			// Skip validation here so a bad value can be overwritten.
			c, err := cfgpkg.LoadUnvalidated(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := setConfigValue(cfg, key, val); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("resolve home dir: %w", err)
			}
			path = filepath.Join(home, ".metaclean", "config.yaml")
		}
		// Refuse to overwrite an existing file.
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat config: %w", err)
		}
		// Defaults only: a stale file must not leak into the new one.
		c, err := cfgpkg.Defaults()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		if err := cfgpkg.Save(c, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Config written: %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "raw_file_marker":
		c.RawFileMarker = val
	case "peak_suffix":
		c.PeakSuffix = val
	case "strip_extension":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for strip_extension: %v", val)
		}
		c.StripExtension = b
	case "feature_index":
		c.FeatureIndex = val
	case "metadata_index":
		c.MetadataIndex = val
	case "decimal_separator":
		c.DecimalSeparator = val
	case "blank_column":
		c.BlankColumn = val
	case "blank_value":
		c.BlankValue = val
	case "sample_values":
		c.SampleValues = nil
		for _, v := range strings.Split(val, ",") {
			if v = strings.TrimSpace(v); v != "" {
				c.SampleValues = append(c.SampleValues, v)
			}
		}
	case "blank_cutoff":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for blank_cutoff: %w", err)
		}
		c.BlankCutoff = f
	case "max_missing":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for max_missing: %w", err)
		}
		c.MaxMissing = f
	case "seed":
		u, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed: %w", err)
		}
		c.Seed = u
	case "output_dir":
		c.OutputDir = val
	case "log_level":
		c.LogLevel = val
	case "log_format":
		c.LogFormat = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}
