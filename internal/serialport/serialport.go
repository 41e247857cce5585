// Package serialport opens the serial link to the Firmata host.
package serialport

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// Port is the byte transport between the host and the bridge.
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyAMA0", "COM3")
	Device string

	// Baud rate (57600 for StandardFirmata hosts)
	Baud int

	// Read timeout (0 = blocking)
	ReadTimeout time.Duration
}

// DefaultConfig returns the configuration expected by StandardFirmata hosts.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        57600,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port *serial.Port
	cfg  *Config
}

// Open opens a native serial port
func Open(cfg *Config) (*NativePort, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	return &NativePort{
		port: port,
		cfg:  cfg,
	}, nil
}

func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush discards data received but not yet read.
func (p *NativePort) Flush() error {
	return p.port.Flush()
}

// Device returns the configured device path.
func (p *NativePort) Device() string {
	return p.cfg.Device
}
