package eventsink

import (
	"fmt"
	"sync/atomic"
)

// Mode is the destination a Logger was built for. It never changes afterwards.
type Mode int

const (
	FileMode Mode = iota
	ConsoleMode
)

func (m Mode) String() string {
	switch m {
	case FileMode:
		return "file"
	case ConsoleMode:
		return "console"
	default:
		return "unknown"
	}
}

// Logger is the entry point the event source calls once per event.
//
// Log renders the event on the calling goroutine and hands the line to the sink
// chosen at construction. It is safe for concurrent use; the only state shared
// between calls is read-only metadata and the sink's own queue.
type Logger struct {
	mode        Mode
	transformer *Transformer
	sink        Sink
	closed      atomic.Bool
}

// New builds the metadata and the sink selected by cfg.WriteToConsole. In file
// mode the log directory and active file are prepared before New returns.
//
// Example:
//
//	cfg := DefaultConfig()
//	cfg.ContainerName = "c1"
//	cfg.Tenant = "contoso"
//	logger, err := New(cfg)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	err = logger.Log(1, []string{"Function", "DurationMs"}, []interface{}{"Ping", 12})
func New(cfg Config, opts ...TransformerOption) (*Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	metrics, err := NewMetrics(cfg.Registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	var (
		sink Sink
		mode Mode
	)
	if cfg.WriteToConsole {
		mode = ConsoleMode
		sink = NewConsoleSink(ConsoleConfig{
			Prefix:       cfg.ConsolePrefix,
			Output:       cfg.Output,
			QueueSize:    cfg.QueueSize,
			Metrics:      metrics,
			ErrorHandler: cfg.ErrorHandler,
			Diagnostics:  cfg.Diagnostics,
		})
	} else {
		mode = FileMode
		fs, err := NewFileSink(FileConfig{
			Path:         cfg.FilePath,
			MaxBytes:     cfg.MaxBytes,
			BackupCount:  cfg.BackupCount,
			QueueSize:    cfg.QueueSize,
			Metrics:      metrics,
			ErrorHandler: cfg.ErrorHandler,
			Diagnostics:  cfg.Diagnostics,
		})
		if err != nil {
			return nil, err
		}
		sink = fs
	}

	md := NewMetadata(cfg.ContainerName, cfg.Tenant, cfg.StampName)
	return &Logger{
		mode:        mode,
		transformer: NewTransformer(md, opts...),
		sink:        sink,
	}, nil
}

// NewWithSink wires a Logger to an existing sink. The mode is derived from the
// sink type; sinks other than ConsoleSink count as FileMode.
func NewWithSink(md Metadata, sink Sink, opts ...TransformerOption) *Logger {
	mode := FileMode
	if _, ok := sink.(*ConsoleSink); ok {
		mode = ConsoleMode
	}
	return &Logger{
		mode:        mode,
		transformer: NewTransformer(md, opts...),
		sink:        sink,
	}
}

// Log records one event.
//
// The returned error is non-nil only when the event breaks the ingress contract
// (mismatched name/value counts, duplicate names, unsupported value types); such
// an event is not written. Sink failures are never returned.
func (l *Logger) Log(eventID int, fieldNames []string, fieldValues []interface{}) error {
	ev, err := NewEvent(eventID, fieldNames, fieldValues)
	if err != nil {
		return err
	}
	return l.LogEvent(ev)
}

// LogEvent records an event whose values are already typed.
func (l *Logger) LogEvent(ev Event) error {
	line, err := l.transformer.Transform(ev)
	if err != nil {
		return err
	}
	if l.closed.Load() {
		return nil
	}
	l.sink.Write(line)
	return nil
}

// Mode reports which sink the Logger writes to.
func (l *Logger) Mode() Mode { return l.mode }

// Metadata returns the values stamped on every record.
func (l *Logger) Metadata() Metadata { return l.transformer.Metadata() }

// Sink returns the sink the Logger writes to.
func (l *Logger) Sink() Sink { return l.sink }

// Flush waits until every record logged before the call has been handed to the
// destination.
func (l *Logger) Flush() {
	l.sink.Flush()
}

// Close flushes pending records and releases the sink. Later Log calls still
// validate their events but write nothing.
func (l *Logger) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	return l.sink.Close()
}

// IsClosed reports whether Close has been called.
func (l *Logger) IsClosed() bool {
	return l.closed.Load()
}
