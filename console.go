package eventsink

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultConsolePrefix marks event lines on stdout so a log collector can pick
// them out of the rest of the process output.
const DefaultConsolePrefix = "MS_EVENTSOURCE_LOGS"

// ConsoleSink writes "<prefix> <line>" records to a stream, normally stdout.
// It is meant for environments without persistent local disk.
type ConsoleSink struct {
	prefix string
	out    io.Writer
	w      *asyncWriter
}

// ConsoleConfig configures a ConsoleSink. Zero values select the defaults.
type ConsoleConfig struct {
	Prefix    string
	Output    io.Writer
	QueueSize int
	Metrics   *Metrics

	// ErrorHandler receives every write failure. When nil, failures are logged to
	// Diagnostics (stderr by default) at a bounded rate.
	ErrorHandler func(error)
	Diagnostics  logrus.FieldLogger
}

// NewConsoleSink starts a console sink and its background writer.
func NewConsoleSink(cfg ConsoleConfig) *ConsoleSink {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultConsolePrefix
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	diag := newDiagnostics(cfg.ErrorHandler, cfg.Diagnostics)

	s := &ConsoleSink{prefix: cfg.Prefix, out: cfg.Output}
	m := cfg.Metrics.forSink("console")
	s.w = newAsyncWriter("console", cfg.QueueSize, func(batch []string) {
		s.writeBatch(batch, m, diag)
	}, m, diag)
	return s
}

// Write queues line for output and returns immediately.
func (s *ConsoleSink) Write(line string) {
	s.w.enqueue(line)
}

func (s *ConsoleSink) writeBatch(batch []string, m sinkMetrics, diag *diagnostics) {
	var b strings.Builder
	for _, line := range batch {
		b.Grow(len(s.prefix) + len(line) + 3)
		b.WriteString(s.prefix)
		b.WriteByte(' ')
		b.WriteString(line)
		b.WriteString(lineTerminator)
	}

	if _, err := io.WriteString(s.out, b.String()); err != nil {
		m.writeErrors.Inc()
		diag.report("console", err)
		return
	}
	m.written.Add(float64(len(batch)))
}

// Flush waits until every previously written line has reached the stream.
func (s *ConsoleSink) Flush() {
	s.w.flush()
}

// Dropped returns the number of lines discarded because the queue was full.
func (s *ConsoleSink) Dropped() int64 {
	return s.w.dropped.Load()
}

// Close drains the queue and stops the background writer. The output stream is
// not closed.
func (s *ConsoleSink) Close() error {
	s.w.close()
	return nil
}
