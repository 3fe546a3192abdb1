package eventsink

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

var (
	// ErrFieldCountMismatch is returned when an event carries a different number of
	// field names and field values. It indicates a defect in the event source.
	ErrFieldCountMismatch = stderrors.New("field name/value count mismatch")

	// ErrDuplicateField is returned when a field name repeats, or collides with one of
	// the fixed fields every record carries.
	ErrDuplicateField = stderrors.New("duplicate field name")

	// ErrUnsupportedValue is returned by ValueOf for Go types outside the closed set
	// of value kinds.
	ErrUnsupportedValue = stderrors.New("unsupported field value type")

	// ErrQueueFull is reported to the error handler when a record is dropped because
	// the sink's write queue is full.
	ErrQueueFull = stderrors.New("write queue full, record dropped")

	// ErrClosed is returned by operations on a sink that has been closed.
	ErrClosed = stderrors.New("sink closed")

	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = stderrors.New("invalid config")
)

// contractViolation attaches the caller's stack to a sentinel so that the upstream
// defect can be located from the error alone. errors.Is still matches the sentinel.
func contractViolation(sentinel error, format string, args ...interface{}) error {
	return errors.Wrapf(sentinel, format, args...)
}
