package serial

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
	"gopkg.in/Sirupsen/logrus.v0"
)

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port *serial.Port
	cfg  Config
}

// Open opens a native serial port. Reads return io.EOF once ReadTimeout
// elapses without data.
func Open(cfg *Config) (Port, error) {
	if cfg == nil || cfg.Device == "" {
		return nil, ErrNoDevice
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}
	logrus.WithFields(logrus.Fields{"device": cfg.Device, "baud": cfg.Baud}).Debug("serial port open")

	return &NativePort{port: port, cfg: *cfg}, nil
}

func (p *NativePort) Read(b []byte) (int, error)  { return p.port.Read(b) }
func (p *NativePort) Write(b []byte) (int, error) { return p.port.Write(b) }

func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush discards unread input, so that replies to an earlier session are
// not taken for ours.
func (p *NativePort) Flush() error {
	return p.port.Flush()
}

func (p *NativePort) String() string { return p.cfg.Device }
