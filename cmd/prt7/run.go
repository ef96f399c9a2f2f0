package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/danmuck/prt7/internal/config"
	"github.com/danmuck/prt7/internal/console"
	"github.com/danmuck/prt7/internal/decoder"
	"github.com/danmuck/prt7/internal/logging"
	"github.com/danmuck/prt7/internal/monitor"
	"github.com/danmuck/prt7/internal/observability"
	"github.com/danmuck/prt7/internal/prompt"
	"github.com/danmuck/prt7/internal/protocol/line"
	"github.com/danmuck/prt7/internal/serial"
	"github.com/rs/zerolog/log"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

type options struct {
	configPath string
	device     string
	replay     string
	monitor    string
	eofPolicy  string
	lenient    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("prt7", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "path to a TOML config file")
	fs.StringVar(&opts.device, "device", "", "serial device path; skips the prompt")
	fs.StringVar(&opts.replay, "replay", "", "decode a recorded capture file instead of a serial device")
	fs.StringVar(&opts.monitor, "monitor", "", "monitor listen address (overrides config)")
	fs.StringVar(&opts.eofPolicy, "eof", "", "behavior when input ends before FIN: emit|fail")
	fs.BoolVar(&opts.lenient, "lenient", false, "accept trailing bytes after L,<c>")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func resolveConfig(opts options) (config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if opts.monitor != "" {
		cfg.Monitor.Addr = strings.TrimSpace(opts.monitor)
	}
	if opts.eofPolicy != "" {
		p, err := decoder.ParseEOFPolicy(opts.eofPolicy)
		if err != nil {
			return config.Config{}, err
		}
		cfg.EOFPolicy = p
	}
	if opts.lenient {
		cfg.StrictLoad = false
	}
	return cfg, config.Validate(cfg)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	logging.ConfigureRuntime()

	cfg, err := resolveConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "prt7: %v\n", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(stdout, console.Title)

	src, err := openSource(ctx, opts, cfg, stdin, stdout)
	if err != nil {
		if errors.Is(err, prompt.ErrCanceled) {
			return exitInterrupted
		}
		log.Error().Err(err).Msg("source_open_failed")
		return exitFailure
	}
	var closeOnce sync.Once
	closeSrc := func() {
		closeOnce.Do(func() {
			if err := src.Close(); err != nil {
				log.Warn().Err(err).Msg("source_close_failed")
			}
		})
	}
	defer closeSrc()
	stopAbort := context.AfterFunc(ctx, closeSrc)
	defer stopAbort()

	var reader io.Reader = src
	if cfg.Capture != "" {
		capture, err := os.OpenFile(cfg.Capture, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Error().Err(err).Str("path", cfg.Capture).Msg("capture_open_failed")
			return exitFailure
		}
		defer capture.Close()
		reader = io.TeeReader(src, capture)
	}

	sinks := decoder.Sinks{console.NewSink(stdout, cfg.Color), observability.NewMetricsSink()}

	var monitorWG sync.WaitGroup
	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer func() {
		stopMonitor()
		monitorWG.Wait()
	}()
	if cfg.Monitor.Addr != "" {
		hub := monitor.NewHub()
		sinks = append(sinks, hub)
		srv := monitor.NewServer(monitor.Config{Addr: cfg.Monitor.Addr, CorsOrigins: cfg.Monitor.CorsOrigins}, hub)
		monitorWG.Add(1)
		go func() {
			defer monitorWG.Done()
			if err := srv.Serve(monitorCtx, nil); err != nil {
				log.Error().Err(err).Msg("monitor_failed")
			}
		}()
	}

	session := decoder.NewSession(cfg.DecoderConfig(), sinks)
	res, err := session.Run(ctx, line.NewReader(reader, cfg.MaxLine))
	closeSrc()

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(stdout, "\n%s\n%s\n", console.MessageHeader, res.Message)
		return exitInterrupted
	default:
		log.Error().Err(err).Str("session", res.SessionID).Msg("session_failed")
		return exitFailure
	}

	fmt.Fprintf(stdout, "\n%s\n", console.ShutdownNotice)
	return exitOK
}

func openSource(ctx context.Context, opts options, cfg config.Config, stdin io.Reader, stdout io.Writer) (io.ReadCloser, error) {
	if opts.replay != "" {
		f, err := os.Open(opts.replay)
		if err != nil {
			fmt.Fprintf(stdout, "\nERROR: No se pudo abrir el archivo %s\n", opts.replay)
			return nil, err
		}
		return f, nil
	}

	device := strings.TrimSpace(opts.device)
	if device == "" {
		d, err := prompt.Device(ctx, stdin, stdout, cfg.Device)
		if err != nil {
			return nil, err
		}
		device = d
	}

	fmt.Fprintf(stdout, "\nConectando al puerto %s...\n", device)
	port, err := serial.OpenWithRetry(ctx, device, cfg.SerialConfig(), cfg.OpenAttempts)
	if err != nil {
		fmt.Fprintf(stdout, "\nERROR: No se pudo abrir el puerto %s\n", device)
		return nil, err
	}
	fmt.Fprintln(stdout, "Conexion establecida!")
	return port, nil
}
