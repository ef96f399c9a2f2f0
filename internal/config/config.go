package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/prt7/internal/console"
	"github.com/danmuck/prt7/internal/decoder"
	"github.com/danmuck/prt7/internal/serial"
)

var ErrInvalidConfig = errors.New("config: invalid")

// Config is the resolved decoder host configuration.
type Config struct {
	Device       string
	Baud         int
	Settle       time.Duration
	OpenAttempts int
	MaxLine      int
	StrictLoad   bool
	EOFPolicy    decoder.EOFPolicy
	Capture      string
	Color        console.ColorMode
	Monitor      MonitorConfig
}

type MonitorConfig struct {
	Addr        string
	CorsOrigins []string
}

func DefaultConfig() Config {
	sc := serial.DefaultConfig()
	return Config{
		Device:       "/dev/ttyUSB0",
		Baud:         sc.Baud,
		Settle:       sc.Settle,
		OpenAttempts: 1,
		MaxLine:      99,
		StrictLoad:   true,
		EOFPolicy:    decoder.EOFEmit,
		Color:        console.ColorAuto,
		Monitor:      MonitorConfig{CorsOrigins: []string{}},
	}
}

type fileConfig struct {
	Device       string      `toml:"device" comment:"device offered at the startup prompt"`
	Baud         int         `toml:"baud" comment:"9600 | 19200 | 38400 | 57600 | 115200"`
	Settle       string      `toml:"settle" comment:"delay after configuring the port"`
	OpenAttempts int         `toml:"open_attempts" comment:"values above 1 retry opening with backoff"`
	MaxLine      int         `toml:"max_line" comment:"longest line before it is split"`
	StrictLoad   bool        `toml:"strict_load" comment:"reject trailing bytes after L,<c>"`
	EOFPolicy    string      `toml:"eof_policy" comment:"emit | fail"`
	Capture      string      `toml:"capture" comment:"file receiving raw serial bytes; empty disables"`
	Color        string      `toml:"color" comment:"auto | always | never"`
	Monitor      fileMonitor `toml:"monitor"`
}

type fileMonitor struct {
	Addr        string   `toml:"addr" comment:"monitor listen address; empty disables"`
	CorsOrigins []string `toml:"cors_origins"`
}

// Load reads a TOML file over DefaultConfig. Keys absent from the file keep
// their defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q in %s", ErrInvalidConfig, undecoded[0].String(), path)
	}

	if meta.IsDefined("device") {
		cfg.Device = strings.TrimSpace(raw.Device)
	}
	if meta.IsDefined("baud") {
		cfg.Baud = raw.Baud
	}
	if meta.IsDefined("settle") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Settle))
		if err != nil {
			return Config{}, fmt.Errorf("parse settle: %w", err)
		}
		cfg.Settle = d
	}
	if meta.IsDefined("open_attempts") {
		cfg.OpenAttempts = raw.OpenAttempts
	}
	if meta.IsDefined("max_line") {
		cfg.MaxLine = raw.MaxLine
	}
	if meta.IsDefined("strict_load") {
		cfg.StrictLoad = raw.StrictLoad
	}
	if meta.IsDefined("eof_policy") {
		p, err := decoder.ParseEOFPolicy(raw.EOFPolicy)
		if err != nil {
			return Config{}, err
		}
		cfg.EOFPolicy = p
	}
	if meta.IsDefined("capture") {
		cfg.Capture = strings.TrimSpace(raw.Capture)
	}
	if meta.IsDefined("color") {
		cfg.Color = console.ParseColorMode(raw.Color)
	}
	if meta.IsDefined("monitor", "addr") {
		cfg.Monitor.Addr = strings.TrimSpace(raw.Monitor.Addr)
	}
	if meta.IsDefined("monitor", "cors_origins") {
		cfg.Monitor.CorsOrigins = normalizeList(raw.Monitor.CorsOrigins)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if err := serial.ValidateBaud(cfg.Baud); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.Settle < 0 {
		return fmt.Errorf("%w: settle must not be negative", ErrInvalidConfig)
	}
	if cfg.OpenAttempts < 1 {
		return fmt.Errorf("%w: open_attempts must be at least 1", ErrInvalidConfig)
	}
	if cfg.MaxLine < 3 {
		return fmt.Errorf("%w: max_line must fit a 3-byte frame", ErrInvalidConfig)
	}
	if _, err := decoder.ParseEOFPolicy(string(cfg.EOFPolicy)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// SerialConfig projects the serial line settings.
func (c Config) SerialConfig() serial.Config {
	return serial.Config{Baud: c.Baud, Settle: c.Settle}
}

// DecoderConfig projects the session settings.
func (c Config) DecoderConfig() decoder.Config {
	cfg := decoder.DefaultConfig()
	cfg.EOFPolicy = c.EOFPolicy
	cfg.Parser.AllowTrailing = !c.StrictLoad
	return cfg
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
