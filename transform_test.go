package eventsink

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"
)

var frozenTime = time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC)

func newTestTransformer() *Transformer {
	return NewTransformer(
		NewMetadata("c1", "contoso", "my-stamp-01"),
		WithClock(func() time.Time { return frozenTime }),
		WithThreadID(func() int { return 7 }),
	)
}

func mustEvent(t testing.TB, id int, names []string, values ...interface{}) Event {
	t.Helper()
	ev, err := NewEvent(id, names, values)
	require.NoError(t, err)
	return ev
}

// objectKeys returns the keys of a JSON object in document order.
func objectKeys(t *testing.T, line string) []string {
	t.Helper()
	v, err := fastjson.Parse(line)
	require.NoError(t, err)
	obj, err := v.Object()
	require.NoError(t, err)

	var keys []string
	obj.Visit(func(key []byte, _ *fastjson.Value) {
		keys = append(keys, string(key))
	})
	return keys
}

func TestTransformExactOutput(t *testing.T) {
	t.Parallel()

	ev := mustEvent(t, 42,
		[]string{"Name", "Count", "Ratio", "Ok", "At"},
		"a\"b\nc", 3, 0.5, true, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	)

	line, err := newTestTransformer().Transform(ev)
	require.NoError(t, err)

	want := fmt.Sprintf(`{"EventId":42,"TimeStamp":"2024-05-01T10:00:00.123456789Z","RoleInstance":"App-c1","Tenant":"contoso","Pid":%d,"Tid":7,"Name":"a\"b\nc","Count":3,"Ratio":0.5,"Ok":true,"At":"2024-01-02T03:04:05Z"}`, os.Getpid())
	assert.Equal(t, want, line)
}

func TestTransformFieldOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields []string
	}{
		{"NoFields", nil},
		{"OneField", []string{"Only"}},
		{"ReverseAlphabetical", []string{"Zulu", "Yankee", "Alpha"}},
		{"Many", []string{"m", "a", "z", "b", "y", "c", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]interface{}, len(tt.fields))
			for i := range values {
				values[i] = i
			}
			line, err := newTestTransformer().Transform(mustEvent(t, 1, tt.fields, values...))
			require.NoError(t, err)

			want := append([]string{"EventId", "TimeStamp", "RoleInstance", "Tenant", "Pid", "Tid"}, tt.fields...)
			assert.Equal(t, want, objectKeys(t, line))
		})
	}
}

func TestTransformSingleLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
	}{
		{"LF", "first\nsecond"},
		{"CR", "first\rsecond"},
		{"CRLF", "first\r\nsecond\r\n"},
		{"OnlyBreaks", "\n\n\r"},
		{"Control", "bell\x07tab\tnul\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := newTestTransformer().Transform(mustEvent(t, 3, []string{"Message", "Key\nName"}, tt.value, "v"))
			require.NoError(t, err)

			assert.NotContains(t, line, "\n")
			assert.NotContains(t, line, "\r")
			require.True(t, json.Valid([]byte(line)), line)

			var decoded map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(line), &decoded))
			assert.Equal(t, tt.value, decoded["Message"])
			assert.Equal(t, "v", decoded["Key\nName"])
		})
	}
}

func TestTransformIdempotent(t *testing.T) {
	t.Parallel()

	tr := newTestTransformer()
	ev := mustEvent(t, 9, []string{"A", "B"}, "x\ny", 1.5)

	first, err := tr.Transform(ev)
	require.NoError(t, err)
	second, err := tr.Transform(ev)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTransformUsesUTC(t *testing.T) {
	t.Parallel()

	local := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	tr := NewTransformer(NewMetadata("c", "t", ""), WithClock(func() time.Time { return local }))

	line, err := tr.Transform(Event{ID: 1})
	require.NoError(t, err)
	assert.Contains(t, line, `"TimeStamp":"2024-05-01T10:00:00Z"`)
}

func TestTransformRealThreadID(t *testing.T) {
	t.Parallel()

	tr := NewTransformer(NewMetadata("c", "t", ""))
	line, err := tr.Transform(Event{ID: 1})
	require.NoError(t, err)

	v, err := fastjson.Parse(line)
	require.NoError(t, err)
	require.True(t, v.Exists("Tid"))
	if runtime.GOOS == "linux" || runtime.GOOS == "windows" {
		assert.NotZero(t, v.GetInt("Tid"))
	}
}

func TestTransformContractViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ev   Event
		want error
	}{
		{
			name: "MoreNames",
			ev:   Event{ID: 1, FieldNames: []string{"a", "b"}, FieldValues: []Value{Int(1)}},
			want: ErrFieldCountMismatch,
		},
		{
			name: "MoreValues",
			ev:   Event{ID: 1, FieldNames: []string{"a"}, FieldValues: []Value{Int(1), Int(2)}},
			want: ErrFieldCountMismatch,
		},
		{
			name: "DuplicateName",
			ev:   Event{ID: 1, FieldNames: []string{"a", "a"}, FieldValues: []Value{Int(1), Int(2)}},
			want: ErrDuplicateField,
		},
		{
			name: "ShadowsFixedField",
			ev:   Event{ID: 1, FieldNames: []string{"Tenant"}, FieldValues: []Value{String("x")}},
			want: ErrDuplicateField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := newTestTransformer().Transform(tt.ev)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Empty(t, line)
		})
	}
}

func TestNewEventMismatch(t *testing.T) {
	t.Parallel()

	_, err := NewEvent(5, []string{"a", "b", "c"}, []interface{}{1, 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFieldCountMismatch))
	assert.Contains(t, err.Error(), "event 5: 3 names, 2 values")

	// The stack of the offending caller is attached.
	assert.Contains(t, fmt.Sprintf("%+v", err), "TestNewEventMismatch")
}

func TestNewEventUnsupportedValue(t *testing.T) {
	t.Parallel()

	_, err := NewEvent(5, []string{"a"}, []interface{}{[]int{1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedValue))
	assert.True(t, strings.Contains(err.Error(), `field "a"`), err.Error())
}
