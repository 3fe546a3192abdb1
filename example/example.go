package main

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gourdian25/eventsink"
)

func main() {
	// File mode with a small threshold so rotation is visible
	cfg := eventsink.DefaultConfig()
	cfg.ContainerName = "demo"
	cfg.Tenant = "contoso"
	cfg.StampName = "demo-stamp-01"
	cfg.FilePath = filepath.Join(os.TempDir(), "eventsink-example", "events.log")
	cfg.MaxBytes = 4096
	cfg.BackupCount = 3

	logger, err := eventsink.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	for i := 0; i < 100; i++ {
		err := logger.Log(1001,
			[]string{"FunctionName", "InvocationId", "DurationMs", "Success", "StartTime"},
			[]interface{}{"HttpTrigger", i, 12.5, true, time.Now()},
		)
		if err != nil {
			log.Fatalf("Malformed event: %v", err)
		}
	}

	// Mismatched names and values are rejected, nothing is written
	if err := logger.Log(1002, []string{"a", "b"}, []interface{}{1}); err != nil {
		log.Printf("rejected: %v", err)
	}

	logger.Flush()
	archives, _ := logger.Sink().(*eventsink.FileSink).Archives()
	log.Printf("active file %s, %d archives", cfg.FilePath, len(archives))

	// Console mode writes prefixed lines to stdout
	console, err := eventsink.New(eventsink.Config{WriteToConsole: true, ContainerName: "demo", Tenant: "contoso"})
	if err != nil {
		log.Fatalf("Failed to create console logger: %v", err)
	}
	defer console.Close()

	console.Log(1003, []string{"Message"}, []interface{}{"hello\nworld"})
	console.Flush()
}
