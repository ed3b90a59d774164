// Package serial opens the USB CDC link to the lock.
package serial

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// DefaultBaud is ignored by USB CDC but required by the port API
const DefaultBaud = 250000

// DefaultReadTimeout bounds each blocking read so the transport can stop
const DefaultReadTimeout = 100 * time.Millisecond

var (
	ErrNoDevice    = errors.New("serial device must be set")
	ErrInvalidBaud = errors.New("baud rate must be positive")
)

// Port is what the host transport needs from a serial line.
// Tests substitute one end of a net.Pipe.
type Port interface {
	io.ReadWriteCloser

	// Flush discards data not yet read or written
	Flush() error
}

// Config holds serial port settings as they appear in the YAML file
type Config struct {
	Device        string `yaml:"device"`
	Baud          int    `yaml:"baud"`
	ReadTimeoutMS int    `yaml:"read_timeout_ms"`
}

// DefaultConfig returns settings for device with the default baud and timeout
func DefaultConfig(device string) Config {
	return Config{
		Device:        device,
		Baud:          DefaultBaud,
		ReadTimeoutMS: int(DefaultReadTimeout / time.Millisecond),
	}
}

// ApplyDefaults fills zero fields
func (c *Config) ApplyDefaults() {
	if c.Baud == 0 {
		c.Baud = DefaultBaud
	}
	if c.ReadTimeoutMS == 0 {
		c.ReadTimeoutMS = int(DefaultReadTimeout / time.Millisecond)
	}
}

// Validate checks the settings without touching the device
func (c Config) Validate() error {
	if c.Device == "" {
		return ErrNoDevice
	}
	if c.Baud <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBaud, c.Baud)
	}
	if c.ReadTimeoutMS < 0 {
		return fmt.Errorf("read timeout must not be negative: %d", c.ReadTimeoutMS)
	}
	return nil
}

// ReadTimeout returns the read timeout as a duration
func (c Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMS) * time.Millisecond
}
