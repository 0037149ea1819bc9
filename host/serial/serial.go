// Package serial opens the link to the MCU.
package serial

import (
	"errors"
	"io"
)

// Port is the byte stream to an MCU: a real serial device, or the
// in-process simulator in tests and dry runs.
type Port interface {
	io.ReadWriteCloser

	// Flush pushes out buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate. The KitProg USB-UART bridge accepts any standard rate.
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

var ErrNoDevice = errors.New("serial: no device")

// DefaultConfig returns the settings used by the psoc6 firmware target.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
