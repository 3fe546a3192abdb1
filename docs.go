// Package eventsink records instrumentation events as single-line JSON.
//
// Overview:
// An in-process event source calls Logger.Log once per event. The logger stamps the
// event with fixed process metadata, renders it as one compact JSON object and
// hands the line to exactly one sink chosen when the logger is created: stdout for
// hosts without persistent disk, or a size-rotated local file.
//
// Key Features:
// - Fixed field order: EventId, TimeStamp, RoleInstance, Tenant, Pid, Tid, then the
//   event's own fields in the order they were supplied
// - One record per line; line breaks inside values are always escaped
// - Closed set of field value kinds (string, integer, float, bool, time)
// - Non-blocking writes through a bounded queue and a single background writer
// - Size-based rotation with bounded retention of archived files
// - Best-effort delivery: sink failures go to an error handler, never to the caller
// - Prometheus counters for written, dropped and failed records and rotations
//
// Getting Started:
//
//	cfg := eventsink.DefaultConfig()
//	cfg.ContainerName = "c1"
//	cfg.Tenant = "contoso"
//	cfg.StampName = "my-stamp-01"
//
//	logger, err := eventsink.New(cfg)
//	if err != nil {
//	    panic(err)
//	}
//	defer logger.Close() // drains queued records
//
//	err = logger.Log(1001,
//	    []string{"FunctionName", "DurationMs"},
//	    []interface{}{"HttpTrigger", 12.5},
//	)
//
// The resulting line:
//
//	{"EventId":1001,"TimeStamp":"2024-05-01T10:00:00.1234567Z","RoleInstance":"App-c1","Tenant":"contoso","Pid":42,"Tid":43,"FunctionName":"HttpTrigger","DurationMs":12.5}
//
// Console mode:
//
// With WriteToConsole set, each record is written to stdout as
//
//	MS_EVENTSOURCE_LOGS {"EventId":1001,...}
//
// Rotation:
//
// In file mode the active file is archived as <name>_<UTC timestamp><ext> before an
// append would push it past MaxBytes (10,000,000 by default). At most BackupCount
// archives (10 by default) are kept; the oldest are deleted first. A record is
// never split across two files.
//
// Errors:
//
// Log returns an error only when the event itself is malformed: field names and
// values of different lengths (ErrFieldCountMismatch), repeated names
// (ErrDuplicateField) or values outside the supported kinds (ErrUnsupportedValue).
// Such events are not written. Disk and stream failures are never returned.
//
// Configuration:
//
// Config can be built in code, loaded from JSON with WithConfig, or overlaid with
// EVENTSINK_* environment variables through ConfigFromEnv.
//
// Thread Safety:
//
// Log may be called from any number of goroutines. Records logged by one goroutine
// are written in the order that goroutine logged them.
package eventsink
