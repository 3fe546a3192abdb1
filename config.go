package eventsink

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Config defines everything the host supplies when it creates a Logger.
//
// Fields:
//   - WriteToConsole: selects the console sink; otherwise records go to FilePath
//   - ContainerName, Tenant, StampName: deployment identity stamped on every record
//   - FilePath: active log file (default "/var/log/eventsink/events.log")
//   - MaxBytes: rotation threshold in bytes (default 10,000,000)
//   - BackupCount: archived files to keep (default 10)
//   - QueueSize: records buffered ahead of the background writer (default 10000)
//   - ConsolePrefix: marker written before each console record (default "MS_EVENTSOURCE_LOGS")
//   - Output: console stream (default os.Stdout)
//   - ErrorHandler: receives sink failures instead of the diagnostics log
//   - Registerer: where sink metrics are registered; nil keeps them private
//   - Diagnostics: logger for sink failures (default logrus to stderr)
//
// Example:
//
//	cfg := DefaultConfig()
//	cfg.ContainerName = "c1"
//	cfg.Tenant = "contoso"
//	cfg.FilePath = "/tmp/events.log"
type Config struct {
	WriteToConsole bool   `json:"write_to_console"`
	ContainerName  string `json:"container_name"`
	Tenant         string `json:"tenant"`
	StampName      string `json:"stamp_name"`
	FilePath       string `json:"file_path"`
	MaxBytes       int64  `json:"max_bytes"`
	BackupCount    int    `json:"backup_count"`
	QueueSize      int    `json:"queue_size"`
	ConsolePrefix  string `json:"console_prefix"`

	Output       io.Writer             `json:"-"`
	ErrorHandler func(error)           `json:"-"`
	Registerer   prometheus.Registerer `json:"-"`
	Diagnostics  logrus.FieldLogger    `json:"-"`
}

// DefaultConfig returns a file-mode configuration with the default path,
// rotation threshold and retention.
func DefaultConfig() Config {
	return Config{
		FilePath:      defaultFilePath,
		MaxBytes:      defaultMaxBytes,
		BackupCount:   defaultBackupCount,
		QueueSize:     defaultQueueSize,
		ConsolePrefix: DefaultConsolePrefix,
	}
}

// Validate reports configuration values that can never work.
func (c *Config) Validate() error {
	if c.MaxBytes < 0 {
		return fmt.Errorf("%w: MaxBytes cannot be negative", ErrInvalidConfig)
	}
	if c.BackupCount < 0 {
		return fmt.Errorf("%w: BackupCount cannot be negative", ErrInvalidConfig)
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("%w: QueueSize cannot be negative", ErrInvalidConfig)
	}
	if strings.ContainsAny(c.ConsolePrefix, "\r\n") {
		return fmt.Errorf("%w: ConsolePrefix cannot contain line breaks", ErrInvalidConfig)
	}
	return nil
}

// WithConfig creates a Logger from a JSON configuration document. Fields missing
// from the document keep their DefaultConfig values.
//
// Example:
//
//	logger, err := WithConfig(`{"write_to_console": true, "container_name": "c1"}`)
func WithConfig(jsonConfig string) (*Logger, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal([]byte(jsonConfig), &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return New(cfg)
}

// Environment variables read by ConfigFromEnv.
const (
	EnvWriteToConsole = "EVENTSINK_WRITE_TO_CONSOLE"
	EnvContainerName  = "EVENTSINK_CONTAINER_NAME"
	EnvTenant         = "EVENTSINK_TENANT"
	EnvStampName      = "EVENTSINK_STAMP_NAME"
	EnvFilePath       = "EVENTSINK_FILE_PATH"
	EnvMaxBytes       = "EVENTSINK_MAX_BYTES"
	EnvBackupCount    = "EVENTSINK_BACKUP_COUNT"
)

// ConfigFromEnv returns base with every EVENTSINK_* variable that is set and
// parses applied on top. Unparseable numeric or boolean values are ignored.
func ConfigFromEnv(base Config) Config {
	if v, ok := os.LookupEnv(EnvWriteToConsole); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			base.WriteToConsole = b
		}
	}
	if v, ok := os.LookupEnv(EnvContainerName); ok {
		base.ContainerName = v
	}
	if v, ok := os.LookupEnv(EnvTenant); ok {
		base.Tenant = v
	}
	if v, ok := os.LookupEnv(EnvStampName); ok {
		base.StampName = v
	}
	if v, ok := os.LookupEnv(EnvFilePath); ok && v != "" {
		base.FilePath = v
	}
	if v, ok := os.LookupEnv(EnvMaxBytes); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			base.MaxBytes = n
		}
	}
	if v, ok := os.LookupEnv(EnvBackupCount); ok {
		if n, err := strconv.Atoi(v); err == nil {
			base.BackupCount = n
		}
	}
	return base
}
