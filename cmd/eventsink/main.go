// Command eventsink reads newline-delimited JSON events and records them through
// an eventsink.Logger, either to stdout or to a size-rotated file.
package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gourdian25/eventsink"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	log "github.com/sirupsen/logrus"
)

// options override the EVENTSINK_* environment; flags left unset keep the
// environment or default value.
type options struct {
	WriteToConsole bool   `long:"console" description:"write records to stdout instead of a file"`
	ContainerName  string `long:"container-name" description:"container name, recorded as App-<name>"`
	Tenant         string `long:"tenant" description:"tenant identifier"`
	StampName      string `long:"stamp-name" description:"deployment stamp name"`
	FilePath       string `long:"file" description:"active log file (default /var/log/eventsink/events.log)"`
	MaxBytes       int64  `long:"max-bytes" description:"rotation threshold in bytes (default 10000000)"`
	BackupCount    int    `long:"backup-count" description:"archived files to keep (default 10)"`
	Input          string `long:"input" short:"i" description:"read events from this file instead of stdin"`
	MetricsAddr    string `long:"metrics-addr" description:"serve prometheus metrics on this address"`
	LogLevel       string `long:"log-level" default:"info" description:"log level"`
}

func main() {
	opts := getCLIArgs()

	level, err := log.ParseLevel(opts.LogLevel)
	if err != nil {
		log.WithError(err).Fatal("Invalid log level")
	}
	log.SetLevel(level)

	if err := run(opts); err != nil {
		log.WithError(err).Fatal("eventsink failed")
	}
}

func getCLIArgs() options {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}
	return opts
}

func run(opts options) error {
	reg := prometheus.NewRegistry()

	cfg := configFromOptions(opts)
	cfg.Registerer = reg
	cfg.Diagnostics = log.StandardLogger()

	logger, err := eventsink.New(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	log.WithFields(log.Fields{
		"mode":          logger.Mode(),
		"roleInstance":  logger.Metadata().RoleInstance(),
		"sourceMoniker": logger.Metadata().SourceMoniker(),
	}).Info("event sink ready")

	input := io.Reader(os.Stdin)
	if opts.Input != "" {
		f, err := os.Open(opts.Input)
		if err != nil {
			return err
		}
		defer f.Close()
		input = f
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return consume(ctx, input, logger)
	})
	if opts.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, opts.MetricsAddr, reg)
		})
	}
	return g.Wait()
}

// configFromOptions layers the command line over ConfigFromEnv.
func configFromOptions(opts options) eventsink.Config {
	cfg := eventsink.ConfigFromEnv(eventsink.DefaultConfig())
	if opts.WriteToConsole {
		cfg.WriteToConsole = true
	}
	if opts.ContainerName != "" {
		cfg.ContainerName = opts.ContainerName
	}
	if opts.Tenant != "" {
		cfg.Tenant = opts.Tenant
	}
	if opts.StampName != "" {
		cfg.StampName = opts.StampName
	}
	if opts.FilePath != "" {
		cfg.FilePath = opts.FilePath
	}
	if opts.MaxBytes != 0 {
		cfg.MaxBytes = opts.MaxBytes
	}
	if opts.BackupCount != 0 {
		cfg.BackupCount = opts.BackupCount
	}
	return cfg
}

// consume logs every event line from r until EOF or ctx is done. Lines that break
// the event contract are reported and skipped.
func consume(ctx context.Context, r io.Reader, logger *eventsink.Logger) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		ev, err := decodeEvent(line)
		if err == nil {
			err = logger.LogEvent(ev)
		}
		if err != nil {
			log.WithError(err).WithField("line", lineNo).Warn("Skipping event")
		}
	}
	logger.Flush()
	return scanner.Err()
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods("GET")

	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
