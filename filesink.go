package eventsink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	defaultFilePath          = "/var/log/eventsink/events.log"
	defaultMaxBytes    int64 = 10000000
	defaultBackupCount       = 10
)

// FileConfig configures a FileSink. Zero values select the defaults.
//
// Fields:
//   - Path: active log file; archives are written next to it
//   - MaxBytes: size threshold that triggers rotation (default 10,000,000)
//   - BackupCount: archived files to keep (default 10)
//   - QueueSize: pending records before new ones are dropped (default 10000)
//   - ErrorHandler: receives every sink failure; when nil they are logged to
//     Diagnostics (stderr by default) at a bounded rate
type FileConfig struct {
	Path         string
	MaxBytes     int64
	BackupCount  int
	QueueSize    int
	Metrics      *Metrics
	ErrorHandler func(error)
	Diagnostics  logrus.FieldLogger
}

// FileSink appends records to a local file and rotates it by size.
//
// All access to the active file goes through fileMu: the background writer, manual
// Rotate calls and Close never interleave, so a rotation always falls between two
// complete records.
type FileSink struct {
	fileMu      sync.Mutex
	path        string
	maxBytes    int64
	backupCount int
	file        *os.File
	size        int64
	released    bool
	now         func() time.Time
	rename      func(oldpath, newpath string) error
	w           *asyncWriter
	metrics     sinkMetrics
	diag        *diagnostics
}

// NewFileSink creates the log directory if needed, opens the active file for
// appending and starts the background writer.
//
// Example:
//
//	sink, err := NewFileSink(FileConfig{Path: "/var/log/app/events.log"})
//	if err != nil {
//	    return err
//	}
//	defer sink.Close()
func NewFileSink(cfg FileConfig) (*FileSink, error) {
	if cfg.MaxBytes < 0 {
		return nil, fmt.Errorf("%w: MaxBytes cannot be negative", ErrInvalidConfig)
	}
	if cfg.BackupCount < 0 {
		return nil, fmt.Errorf("%w: BackupCount cannot be negative", ErrInvalidConfig)
	}
	if cfg.Path == "" {
		cfg.Path = defaultFilePath
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.BackupCount == 0 {
		cfg.BackupCount = defaultBackupCount
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, size, err := openLogFile(cfg.Path)
	if err != nil {
		return nil, err
	}

	s := &FileSink{
		path:        cfg.Path,
		maxBytes:    cfg.MaxBytes,
		backupCount: cfg.BackupCount,
		file:        file,
		size:        size,
		now:         time.Now,
		rename:      os.Rename,
		metrics:     cfg.Metrics.forSink("file"),
		diag:        newDiagnostics(cfg.ErrorHandler, cfg.Diagnostics),
	}
	s.w = newAsyncWriter("file", cfg.QueueSize, s.writeBatch, s.metrics, s.diag)
	return s, nil
}

func openLogFile(path string) (*os.File, int64, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open log file: %w", err)
	}
	fi, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("failed to get file info: %w", err)
	}
	return file, fi.Size(), nil
}

// Path returns the active log file path.
func (s *FileSink) Path() string { return s.path }

// Write queues line for appending and returns immediately.
func (s *FileSink) Write(line string) {
	s.w.enqueue(line)
}

// writeBatch runs on the background writer. Records destined for the same file
// are coalesced into one write; a rotation flushes what is pending first.
func (s *FileSink) writeBatch(batch []string) {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	pending := make([]byte, 0, 4096)
	records := 0

	for _, line := range batch {
		n := int64(len(line) + len(lineTerminator))
		if current := s.size + int64(len(pending)); current > 0 && current+n > s.maxBytes {
			s.appendLocked(pending, records)
			pending, records = pending[:0], 0
			if err := s.rotateLogFiles(); err != nil {
				s.diag.report("file", fmt.Errorf("log rotation failed: %w", err))
			}
		}
		pending = append(pending, line...)
		pending = append(pending, lineTerminator...)
		records++
	}
	s.appendLocked(pending, records)
}

// appendLocked writes one chunk of whole records to the active file.
// Caller must hold fileMu.
func (s *FileSink) appendLocked(chunk []byte, records int) {
	if records == 0 || s.released {
		return
	}
	if s.file == nil {
		if err := s.reopenLocked(); err != nil {
			s.metrics.writeErrors.Inc()
			s.diag.report("file", err)
			return
		}
	}

	n, err := s.file.Write(chunk)
	s.size += int64(n)
	if err != nil {
		s.metrics.writeErrors.Inc()
		s.diag.report("file", fmt.Errorf("log write error: %w", err))
		return
	}
	s.metrics.written.Add(float64(records))
}

func (s *FileSink) reopenLocked() error {
	file, size, err := openLogFile(s.path)
	if err != nil {
		return err
	}
	s.file, s.size = file, size
	return nil
}

// Rotate archives the active file immediately, regardless of its size. Records
// queued before the call are written first.
func (s *FileSink) Rotate() error {
	if s.w.closed.Load() {
		return ErrClosed
	}
	s.w.flush()

	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	if s.released {
		return ErrClosed
	}
	return s.rotateLogFiles()
}

// Flush waits until every previously written record has been handed to the file.
func (s *FileSink) Flush() {
	s.w.flush()
}

// Dropped returns the number of records discarded because the queue was full.
func (s *FileSink) Dropped() int64 {
	return s.w.dropped.Load()
}

// Close drains pending records, stops the background writer and closes the file.
// Closing an already closed sink is a no-op.
func (s *FileSink) Close() error {
	if !s.w.close() {
		return nil
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	s.released = true
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
