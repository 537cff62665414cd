package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a yaml configuration file. Fields absent from the
// file keep their defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DriverCount <= 0 {
		return fmt.Errorf("driverCount must be greater than 0")
	}
	if cfg.MaxDrivers > 0 && cfg.DriverCount > cfg.MaxDrivers {
		return fmt.Errorf("driverCount %d exceeds maxDrivers %d", cfg.DriverCount, cfg.MaxDrivers)
	}
	if cfg.DriverSpeedMPS <= 0 {
		return fmt.Errorf("driverSpeedMPS must be greater than 0")
	}
	if cfg.MotionTick.Std() <= 0 {
		return fmt.Errorf("motionTick must be greater than 0")
	}
	if cfg.DispatchInterval.Std() <= 0 {
		return fmt.Errorf("dispatchInterval must be greater than 0")
	}
	if cfg.ReportInterval.Std() <= 0 {
		return fmt.Errorf("reportInterval must be greater than 0")
	}
	if cfg.RouteCallTimeout.Std() <= 0 {
		return fmt.Errorf("routeCallTimeout must be greater than 0")
	}
	if cfg.OSRMURL == "" {
		return fmt.Errorf("osrmURL must be non-empty")
	}
	return nil
}
