package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// ReportConfig controls snapshot collection for one report run.
type ReportConfig struct {
	Profile      string `mapstructure:"profile" validate:"required"`
	LookbackDays int    `mapstructure:"lookback_days"`
	SnapshotName string `mapstructure:"snapshot_name"`
	CachePath    string `mapstructure:"cache_path"`
}

const defaultLookbackDays = 30

func LoadReportConfig(path string) (*ReportConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("lookback_days", defaultLookbackDays)
	v.SetDefault("snapshot_name", "latest")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg ReportConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse report config: %w", err)
	}
	if cfg.Profile == "" {
		return nil, fmt.Errorf("report config %s has no profile", path)
	}
	return &cfg, nil
}
