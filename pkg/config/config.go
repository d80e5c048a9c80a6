package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultPages             = 3
	DefaultBaudRate          = 115200
	DefaultSweepInterval     = Duration(10 * time.Millisecond)
	DefaultAlpha             = 0.3
	DefaultDeadBand          = 0.01
	DefaultDebounce          = Duration(40 * time.Millisecond)
	DefaultHeartbeatInterval = Duration(time.Second)
	DefaultSuppression       = Duration(500 * time.Millisecond)
)

// Duration is a time.Duration that unmarshals from YAML strings like "40ms".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		// Bare integers are taken as nanoseconds.
		var n int64
		if err := value.Decode(&n); err != nil {
			return fmt.Errorf("invalid duration %q", value.Value)
		}
		*d = Duration(n)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Serial configures the device link.
type Serial struct {
	// Port is the serial port path. Empty means auto-detect.
	Port string `yaml:"port"`

	// Baud is the serial baud rate.
	Baud int `yaml:"baud"`

	// TCP, when set, connects to a simulated device at this address
	// instead of opening a serial port.
	TCP string `yaml:"tcp"`
}

// Fader configures position sampling and paging on the device.
type Fader struct {
	// Pages is the number of binding pages the device cycles through.
	Pages uint8 `yaml:"pages"`

	// SweepInterval is the device polling cycle period.
	SweepInterval Duration `yaml:"sweep_interval"`

	// Alpha is the EMA smoothing factor, 0..1.
	Alpha float64 `yaml:"alpha"`

	// DeadBand is the minimum normalized change reported as a movement.
	DeadBand float64 `yaml:"dead_band"`

	// Debounce is the page button debounce timer.
	Debounce Duration `yaml:"debounce"`
}

// Config is the host daemon configuration.
type Config struct {
	Serial Serial `yaml:"serial"`
	Fader  Fader  `yaml:"fader"`

	// HeartbeatInterval is the link heartbeat period. The link is declared
	// lost after three silent intervals.
	HeartbeatInterval Duration `yaml:"heartbeat_interval"`

	// Suppression is the echo suppression window for locally-set volumes.
	Suppression Duration `yaml:"suppression"`

	// StatePath is the JSON state file holding bindings, fader values and
	// the active page. Empty selects a per-user default.
	StatePath string `yaml:"state_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration with all defaults applied.
func Default() Config {
	return Config{
		Serial: Serial{Baud: DefaultBaudRate},
		Fader: Fader{
			Pages:         DefaultPages,
			SweepInterval: DefaultSweepInterval,
			Alpha:         DefaultAlpha,
			DeadBand:      DefaultDeadBand,
			Debounce:      DefaultDebounce,
		},
		HeartbeatInterval: DefaultHeartbeatInterval,
		Suppression:       DefaultSuppression,
		StatePath:         defaultStatePath(),
		LogLevel:          "info",
	}
}

// Load reads the configuration file at path. A missing file yields the
// defaults; set fields override defaults, unset fields keep them.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// applyDefaults re-fills fields an explicit file left zeroed.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}
	if c.Fader.Pages == 0 {
		c.Fader.Pages = def.Fader.Pages
	}
	if c.Fader.SweepInterval == 0 {
		c.Fader.SweepInterval = def.Fader.SweepInterval
	}
	if c.Fader.Alpha == 0 {
		c.Fader.Alpha = def.Fader.Alpha
	}
	if c.Fader.DeadBand == 0 {
		c.Fader.DeadBand = def.Fader.DeadBand
	}
	if c.Fader.Debounce == 0 {
		c.Fader.Debounce = def.Fader.Debounce
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = def.HeartbeatInterval
	}
	if c.Suppression == 0 {
		c.Suppression = def.Suppression
	}
	if c.StatePath == "" {
		c.StatePath = def.StatePath
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// validate rejects out-of-range tunables.
func (c *Config) validate() error {
	if c.Fader.Alpha <= 0 || c.Fader.Alpha > 1 {
		return fmt.Errorf("alpha %g out of range (0, 1]", c.Fader.Alpha)
	}
	if c.Fader.DeadBand < 0 || c.Fader.DeadBand >= 1 {
		return fmt.Errorf("dead_band %g out of range [0, 1)", c.Fader.DeadBand)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// defaultStatePath places the state file under the user config directory.
func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "cybermix-state.json"
	}
	return filepath.Join(dir, "cybermix", "state.json")
}
