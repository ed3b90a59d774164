package serial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig("/dev/ttyACM0")
	require.NoError(t, cfg.Validate())
	require.Equal(t, DefaultBaud, cfg.Baud)
	require.Equal(t, DefaultReadTimeout, cfg.ReadTimeout())
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{Device: "COM3", ReadTimeoutMS: 250}
	cfg.ApplyDefaults()
	require.Equal(t, DefaultBaud, cfg.Baud)
	require.Equal(t, 250*time.Millisecond, cfg.ReadTimeout())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"no device", Config{Baud: 9600}, ErrNoDevice},
		{"zero baud", Config{Device: "/dev/ttyUSB0"}, ErrInvalidBaud},
		{"negative timeout", Config{Device: "/dev/ttyUSB0", Baud: 9600, ReadTimeoutMS: -1}, nil},
		{"ok", Config{Device: "/dev/ttyUSB0", Baud: 9600}, nil},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		switch {
		case tt.wantErr != nil:
			require.ErrorIs(t, err, tt.wantErr, tt.name)
		case tt.cfg.ReadTimeoutMS < 0:
			require.Error(t, err, tt.name)
		default:
			require.NoError(t, err, tt.name)
		}
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := Open(Config{})
	require.ErrorIs(t, err, ErrNoDevice)
}
