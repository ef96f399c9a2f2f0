// Package serial opens the microcontroller link as a raw 8N1 tty.
package serial

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jpillora/backoff"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnsupportedBaud     = errors.New("serial: unsupported baud rate")
	ErrUnsupportedPlatform = errors.New("serial: termios configuration not supported on this platform")
)

// DeviceError reports a failure to open or configure the serial device.
type DeviceError struct {
	Path string
	Op   string
	Err  error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("serial: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// IsDeviceError reports whether err is or wraps a DeviceError.
func IsDeviceError(err error) bool {
	var de *DeviceError
	return errors.As(err, &de)
}

// Config describes the line settings. Framing is always 8 data bits, no
// parity, one stop bit, no flow control.
type Config struct {
	Baud   int
	Settle time.Duration
}

func DefaultConfig() Config {
	return Config{
		Baud:   9600,
		Settle: 100 * time.Millisecond,
	}
}

// SupportedBauds lists the rates accepted by Open.
var SupportedBauds = []int{9600, 19200, 38400, 57600, 115200}

func ValidateBaud(baud int) error {
	for _, b := range SupportedBauds {
		if b == baud {
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrUnsupportedBaud, baud)
}

// Port is an open, configured serial device.
type Port struct {
	f    *os.File
	path string
}

// Open opens path and puts it in raw mode. Every failure is a *DeviceError.
func Open(path string, cfg Config) (*Port, error) {
	if cfg.Baud == 0 {
		cfg.Baud = DefaultConfig().Baud
	}
	if err := ValidateBaud(cfg.Baud); err != nil {
		return nil, &DeviceError{Path: path, Op: "configure", Err: err}
	}
	f, err := os.OpenFile(path, os.O_RDWR|openFlags, 0)
	if err != nil {
		return nil, &DeviceError{Path: path, Op: "open", Err: err}
	}
	if err := configure(f, cfg.Baud); err != nil {
		f.Close()
		return nil, &DeviceError{Path: path, Op: "configure", Err: err}
	}
	if cfg.Settle > 0 {
		time.Sleep(cfg.Settle)
	}
	log.Info().Str("device", path).Int("baud", cfg.Baud).Msg("serial_open")
	return &Port{f: f, path: path}, nil
}

// OpenWithRetry calls Open up to attempts times, backing off between
// failures. The last DeviceError is returned when every attempt fails.
func OpenWithRetry(ctx context.Context, path string, cfg Config, attempts int) (*Port, error) {
	if attempts < 1 {
		attempts = 1
	}
	b := &backoff.Backoff{
		Min:    250 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}
	var lastErr error
	for i := 1; i <= attempts; i++ {
		p, err := Open(path, cfg)
		if err == nil {
			return p, nil
		}
		lastErr = err
		if i == attempts {
			break
		}
		delay := b.Duration()
		log.Warn().Err(err).Int("attempt", i).Dur("retry_in", delay).Msg("serial_open_failed")
		select {
		case <-ctx.Done():
			return nil, &DeviceError{Path: path, Op: "open", Err: ctx.Err()}
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

func (p *Port) Read(b []byte) (int, error) {
	return p.f.Read(b)
}

// Close releases the device. A Read blocked on the port returns once it is
// closed.
func (p *Port) Close() error {
	err := p.f.Close()
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	log.Debug().Str("device", p.path).Msg("serial_close")
	return nil
}

// withFd runs fn on the raw descriptor without switching the file to
// blocking mode, so Close can still interrupt a pending Read.
func withFd(f *os.File, fn func(fd int) error) error {
	rc, err := f.SyscallConn()
	if err != nil {
		return err
	}
	var opErr error
	if err := rc.Control(func(fd uintptr) {
		opErr = fn(int(fd))
	}); err != nil {
		return err
	}
	return opErr
}
