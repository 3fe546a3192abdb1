package eventsink

import (
	"strconv"
	"sync"
	"time"
)

// Transformer turns events into canonical single-line JSON records.
//
// A Transformer holds no mutable state and may be used from any number of
// goroutines at once.
type Transformer struct {
	md         Metadata
	now        func() time.Time
	threadID   func() int
	bufferPool sync.Pool
}

// TransformerOption customizes a Transformer.
type TransformerOption func(*Transformer)

// WithClock replaces time.Now as the source of record timestamps.
func WithClock(now func() time.Time) TransformerOption {
	return func(t *Transformer) {
		if now != nil {
			t.now = now
		}
	}
}

// WithThreadID replaces the OS thread id lookup used for the Tid field.
func WithThreadID(fn func() int) TransformerOption {
	return func(t *Transformer) {
		if fn != nil {
			t.threadID = fn
		}
	}
}

// NewTransformer returns a Transformer that stamps records with md.
func NewTransformer(md Metadata, opts ...TransformerOption) *Transformer {
	t := &Transformer{
		md:       md,
		now:      time.Now,
		threadID: currentThreadID,
		bufferPool: sync.Pool{
			New: func() interface{} {
				b := make([]byte, 0, 256)
				return &b
			},
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Metadata returns the metadata stamped on every record.
func (t *Transformer) Metadata() Metadata { return t.md }

// Transform renders ev as one compact JSON object on a single line.
//
// Field order is EventId, TimeStamp, RoleInstance, Tenant, Pid, Tid followed by the
// event's own fields in their original order. An event that breaks the ingress
// contract is rejected and nothing is rendered.
//
// Example output:
//
//	{"EventId":7,"TimeStamp":"2024-05-01T10:00:00Z","RoleInstance":"App-c1","Tenant":"t","Pid":42,"Tid":43,"Name":"x"}
func (t *Transformer) Transform(ev Event) (string, error) {
	if err := ev.Validate(); err != nil {
		return "", err
	}

	buf := t.bufferPool.Get().(*[]byte)
	b := (*buf)[:0]
	b = append(b, '{')
	b = appendKey(b, FieldEventID, true)
	b = strconv.AppendInt(b, int64(ev.ID), 10)
	b = appendKey(b, FieldTimeStamp, false)
	b = appendString(b, t.now().UTC().Format(time.RFC3339Nano))
	b = appendKey(b, FieldRoleInstance, false)
	b = appendString(b, t.md.RoleInstance())
	b = appendKey(b, FieldTenant, false)
	b = appendString(b, t.md.Tenant())
	b = appendKey(b, FieldPid, false)
	b = strconv.AppendInt(b, int64(t.md.Pid()), 10)
	b = appendKey(b, FieldTid, false)
	b = strconv.AppendInt(b, int64(t.threadID()), 10)
	for i, name := range ev.FieldNames {
		b = appendKey(b, name, false)
		b = ev.FieldValues[i].appendJSON(b)
	}
	b = append(b, '}')

	line := string(b)
	*buf = b
	t.bufferPool.Put(buf)
	return line, nil
}

func appendKey(b []byte, key string, first bool) []byte {
	if !first {
		b = append(b, ',')
	}
	b = appendString(b, key)
	return append(b, ':')
}

const hexDigits = "0123456789abcdef"

// appendString writes s as a JSON string literal. Every control character is
// escaped, so the result never contains a raw line break.
func appendString(b []byte, s string) []byte {
	b = append(b, '"')
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' {
			continue
		}
		b = append(b, s[start:i]...)
		switch c {
		case '"', '\\':
			b = append(b, '\\', c)
		case '\n':
			b = append(b, '\\', 'n')
		case '\r':
			b = append(b, '\\', 'r')
		case '\t':
			b = append(b, '\\', 't')
		default:
			b = append(b, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
		}
		start = i + 1
	}
	b = append(b, s[start:]...)
	return append(b, '"')
}
