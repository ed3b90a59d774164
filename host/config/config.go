// Package config loads the YAML settings shared by the host tools.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"keylock/core"
	"keylock/host/logger"
	"keylock/host/serial"
)

const (
	// DefaultConfigFilename is used when no --config flag is given.
	DefaultConfigFilename = "keylock.yaml"

	// DefaultDevice is the usual USB CDC node on Linux.
	DefaultDevice = "/dev/ttyACM0"

	// DefaultLogLevel is used when log_level is empty.
	DefaultLogLevel = "info"

	// DefaultTimeout bounds one command round trip.
	DefaultTimeout = 2 * time.Second

	// DefaultFilePermissions restricts saved files, which hold the passcode.
	DefaultFilePermissions = 0o600
)

var (
	errConfigIsNotSet  = errors.New("configuration is not set")
	errInvalidLogLevel = errors.New("unknown log level")
	errDigitRange      = errors.New("binding digit must be 0-9")
)

// Config is the whole settings file.
type Config struct {
	LogLevel string        `yaml:"log_level"`
	Timeout  time.Duration `yaml:"timeout"`
	Serial   serial.Config `yaml:"serial"`
	Lock     Lock          `yaml:"lock"`
}

// Lock describes the lock build run by the simulator. Empty fields keep the
// firmware defaults.
type Lock struct {
	Passcode      string        `yaml:"passcode"`
	Hold          time.Duration `yaml:"hold"`
	StrobeWidthUS uint32        `yaml:"strobe_width_us"`
	Servo         Servo         `yaml:"servo"`
	Bindings      []Binding     `yaml:"bindings"`
}

// Servo is the pulse calibration in microseconds.
type Servo struct {
	PeriodUS   uint32 `yaml:"period_us"`
	MinPulseUS uint32 `yaml:"min_pulse_us"`
	MaxPulseUS uint32 `yaml:"max_pulse_us"`
}

// Binding ties one button input to a digit.
type Binding struct {
	Digit int   `yaml:"digit"`
	Group uint8 `yaml:"group"`
	Pin   uint8 `yaml:"pin"`
}

// Default returns a configuration matching the reference firmware build.
func Default() *Config {
	cfg := &Config{
		LogLevel: DefaultLogLevel,
		Timeout:  DefaultTimeout,
		Serial:   serial.DefaultConfig(DefaultDevice),
	}
	cfg.Lock = FromCore(core.DefaultConfig())
	return cfg
}

// FromCore converts a firmware configuration to its YAML form.
func FromCore(c core.Config) Lock {
	l := Lock{
		Passcode:      string(c.Passcode[:]),
		Hold:          time.Duration(core.TimerToUS(c.HoldTicks)) * time.Microsecond,
		StrobeWidthUS: c.StrobeWidthUS,
		Servo: Servo{
			PeriodUS:   c.Servo.PeriodUS,
			MinPulseUS: c.Servo.MinPulseUS,
			MaxPulseUS: c.Servo.MaxPulseUS,
		},
	}
	for _, b := range c.Bindings {
		l.Bindings = append(l.Bindings, Binding{
			Digit: int(b.Digit - '0'),
			Group: uint8(b.Group),
			Pin:   b.Pin,
		})
	}
	return l
}

// Load reads path, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	return Parse(contents)
}

// LoadOptional is Load, except that a missing file yields Default.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes YAML settings, applies defaults and validates the result.
func Parse(contents []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	cfg.ApplyDefaults()
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save validates cfg and writes it to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}
	if path == "" {
		path = DefaultConfigFilename
	}
	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// ApplyDefaults fills every zero field from Default.
func (c *Config) ApplyDefaults() {
	def := Default()

	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.Serial.Device == "" {
		c.Serial.Device = def.Serial.Device
	}
	c.Serial.ApplyDefaults()

	if c.Lock.Passcode == "" {
		c.Lock.Passcode = def.Lock.Passcode
	}
	if c.Lock.Hold <= 0 {
		c.Lock.Hold = def.Lock.Hold
	}
	if c.Lock.StrobeWidthUS == 0 {
		c.Lock.StrobeWidthUS = def.Lock.StrobeWidthUS
	}
	if c.Lock.Servo == (Servo{}) {
		c.Lock.Servo = def.Lock.Servo
	}
	if len(c.Lock.Bindings) == 0 {
		c.Lock.Bindings = def.Lock.Bindings
	}
}

// Validate checks every section; the lock section must build a valid
// core.Config.
func Validate(c *Config) error {
	if c == nil {
		return errConfigIsNotSet
	}
	if _, ok := logger.ParseLogLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errInvalidLogLevel, c.LogLevel)
	}
	if err := c.Serial.Validate(); err != nil {
		return fmt.Errorf("serial: %w", err)
	}
	if _, err := c.Lock.Core(); err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	return nil
}

// Core converts the lock section to a validated firmware configuration.
func (l Lock) Core() (core.Config, error) {
	passcode, err := core.ParsePasscode(l.Passcode)
	if err != nil {
		return core.Config{}, err
	}

	cfg := core.Config{
		Passcode:      passcode,
		HoldTicks:     core.TimerFromDuration(l.Hold),
		StrobeWidthUS: l.StrobeWidthUS,
		Servo: core.ServoConfig{
			PeriodUS:   l.Servo.PeriodUS,
			MinPulseUS: l.Servo.MinPulseUS,
			MaxPulseUS: l.Servo.MaxPulseUS,
		},
	}
	for _, b := range l.Bindings {
		if b.Digit < 0 || b.Digit > 9 {
			return core.Config{}, fmt.Errorf("%w: %d", errDigitRange, b.Digit)
		}
		cfg.Bindings = append(cfg.Bindings, core.ButtonBinding{
			Group: core.PortGroup(b.Group),
			Pin:   b.Pin,
			Digit: core.Digit('0' + b.Digit),
		})
	}

	if err := cfg.Validate(); err != nil {
		return core.Config{}, err
	}
	return cfg, nil
}
