package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gourdian25/eventsink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		id     int
		names  []string
		values []interface{}
	}{
		{
			name:   "FieldsObject",
			input:  `{"id": 5, "fields": {"Zeta": "z", "Alpha": 2, "Ratio": 0.25, "Ok": false}}`,
			id:     5,
			names:  []string{"Zeta", "Alpha", "Ratio", "Ok"},
			values: []interface{}{"z", int64(2), 0.25, false},
		},
		{
			name:   "ParallelArrays",
			input:  `{"id": 6, "names": ["a", "b"], "values": [true, "x\ny"]}`,
			id:     6,
			names:  []string{"a", "b"},
			values: []interface{}{true, "x\ny"},
		},
		{
			name:  "NoFields",
			input: `{"id": 7}`,
			id:    7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := decodeEvent([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.id, ev.ID)
			assert.Equal(t, tt.names, ev.FieldNames)

			var got []interface{}
			for _, v := range ev.FieldValues {
				got = append(got, v.Interface())
			}
			assert.Equal(t, tt.values, got)
		})
	}
}

func TestDecodeEventErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"NotJSON", `nope`, nil},
		{"NotObject", `[1,2]`, nil},
		{"MissingID", `{"fields": {}}`, nil},
		{"FractionalID", `{"id": 1.5}`, nil},
		{"NonStringName", `{"id": 1, "names": [1], "values": [1]}`, nil},
		{"Mismatch", `{"id": 1, "names": ["a", "b"], "values": [1]}`, eventsink.ErrFieldCountMismatch},
		{"NullValue", `{"id": 1, "fields": {"a": null}}`, eventsink.ErrUnsupportedValue},
		{"NestedValue", `{"id": 1, "fields": {"a": {"b": 1}}}`, eventsink.ErrUnsupportedValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeEvent([]byte(tt.input))
			require.Error(t, err)
			if tt.want != nil {
				assert.True(t, errors.Is(err, tt.want), "got %v", err)
			}
		})
	}
}

func TestConfigFromOptions(t *testing.T) {
	t.Setenv(eventsink.EnvTenant, "env-tenant")
	t.Setenv(eventsink.EnvContainerName, "env-container")
	t.Setenv(eventsink.EnvMaxBytes, "4096")

	cfg := configFromOptions(options{ContainerName: "flag-container", BackupCount: 3})
	assert.Equal(t, "env-tenant", cfg.Tenant)
	assert.Equal(t, "flag-container", cfg.ContainerName)
	assert.Equal(t, int64(4096), cfg.MaxBytes)
	assert.Equal(t, 3, cfg.BackupCount)
	assert.False(t, cfg.WriteToConsole)
	assert.Equal(t, "/var/log/eventsink/events.log", cfg.FilePath)
}

func TestConsume(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg := eventsink.DefaultConfig()
	cfg.WriteToConsole = true
	cfg.Output = &out
	cfg.FilePath = filepath.Join(t.TempDir(), "unused.log")

	logger, err := eventsink.New(cfg)
	require.NoError(t, err)
	defer logger.Close()

	input := strings.Join([]string{
		`{"id": 1, "fields": {"a": 1}}`,
		``,
		`{"id": 2, "names": ["a"], "values": []}`,
		`{"id": 3, "fields": {"b": "two"}}`,
	}, "\n")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, consume(ctx, strings.NewReader(input), logger))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"EventId":1,`)
	assert.Contains(t, lines[1], `"EventId":3,`)
}
