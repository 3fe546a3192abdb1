package eventsink

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestConcurrentLogExactlyOnce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		maxBytes int64
	}{
		{"NoRotation", 0},
		{"WithRotation", 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.MaxBytes = tt.maxBytes
			cfg.BackupCount = 1000

			logger, err := New(cfg)
			require.NoError(t, err)
			defer logger.Close()

			const n = 200
			var g errgroup.Group
			for i := 0; i < n; i++ {
				i := i
				g.Go(func() error {
					return logger.Log(1, []string{"Seq", "Worker"}, []interface{}{i, fmt.Sprintf("w%d", i)})
				})
			}
			require.NoError(t, g.Wait())
			logger.Flush()

			fs := logger.Sink().(*FileSink)
			archives, err := fs.Archives()
			require.NoError(t, err)
			if tt.maxBytes > 0 {
				assert.NotEmpty(t, archives)
			}

			seen := make(map[int]int)
			for _, f := range append(archives, fs.Path()) {
				for _, line := range readLines(t, f) {
					var rec struct {
						Seq int
					}
					require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
					seen[rec.Seq]++
				}
			}

			require.Len(t, seen, n)
			for seq, count := range seen {
				assert.Equal(t, 1, count, "record %d written %d times", seq, count)
			}
		})
	}
}

func TestConcurrentLogPerGoroutineOrder(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	logger, err := New(cfg)
	require.NoError(t, err)
	defer logger.Close()

	const workers, perWorker = 8, 50
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				if err := logger.Log(2, []string{"Worker", "Seq"}, []interface{}{w, i}); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	logger.Flush()

	next := make(map[int]int)
	for _, line := range readLines(t, cfg.FilePath) {
		var rec struct {
			Worker int
			Seq    int
		}
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		assert.Equal(t, next[rec.Worker], rec.Seq, "worker %d out of order", rec.Worker)
		next[rec.Worker] = rec.Seq + 1
	}
	for w := 0; w < workers; w++ {
		assert.Equal(t, perWorker, next[w])
	}
}

func TestConcurrentLogAndClose(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.MaxBytes = 500
	logger, err := New(cfg)
	require.NoError(t, err)

	var g errgroup.Group
	for w := 0; w < 4; w++ {
		g.Go(func() error {
			for i := 0; i < 200; i++ {
				if err := logger.Log(3, []string{"i"}, []interface{}{i}); err != nil {
					return err
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		return logger.Close()
	})
	assert.NoError(t, g.Wait())
}
