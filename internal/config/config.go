package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"fleetsim/internal/domain"
)

// Duration wraps time.Duration so yaml configs can say "5s" or "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the explicit simulation configuration passed to constructors.
// There is no ambient global settings object.
type Config struct {
	DriverCount    int     `yaml:"driverCount"`
	MaxDrivers     int     `yaml:"maxDrivers"`
	DriverSpeedMPS float64 `yaml:"driverSpeedMPS"`

	Home domain.Location `yaml:"home"`

	MotionTick       Duration `yaml:"motionTick"`
	DispatchInterval Duration `yaml:"dispatchInterval"`
	ReportInterval   Duration `yaml:"reportInterval"`
	RouteCallTimeout Duration `yaml:"routeCallTimeout"`

	OSRMURL string `yaml:"osrmURL"`
	Port    string `yaml:"port"`

	DemoOrders bool `yaml:"demoOrders"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		DriverCount:      4,
		MaxDrivers:       32,
		DriverSpeedMPS:   10.0,
		Home:             domain.Location{Lat: 19.075983, Lon: 72.877655, Address: "Mumbai central point"},
		MotionTick:       Duration(time.Second),
		DispatchInterval: Duration(time.Second),
		ReportInterval:   Duration(5 * time.Second),
		RouteCallTimeout: Duration(5 * time.Second),
		OSRMURL:          "http://localhost:5000",
		Port:             "8080",
		DemoOrders:       true,
	}
}
