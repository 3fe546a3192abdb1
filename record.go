package eventsink

// Names of the fixed fields that open every record, in output order.
const (
	FieldEventID      = "EventId"
	FieldTimeStamp    = "TimeStamp"
	FieldRoleInstance = "RoleInstance"
	FieldTenant       = "Tenant"
	FieldPid          = "Pid"
	FieldTid          = "Tid"
)

var fixedFields = [...]string{
	FieldEventID,
	FieldTimeStamp,
	FieldRoleInstance,
	FieldTenant,
	FieldPid,
	FieldTid,
}

// Event is one instrumentation occurrence as delivered by the event source.
// FieldValues[i] is the value of FieldNames[i].
type Event struct {
	ID          int
	FieldNames  []string
	FieldValues []Value
}

// NewEvent builds an Event from loosely typed values, converting each with ValueOf.
// A length mismatch is reported before any conversion.
func NewEvent(id int, names []string, values []interface{}) (Event, error) {
	if len(names) != len(values) {
		return Event{}, contractViolation(ErrFieldCountMismatch,
			"event %d: %d names, %d values", id, len(names), len(values))
	}

	converted := make([]Value, len(values))
	for i, x := range values {
		v, err := ValueOf(x)
		if err != nil {
			return Event{}, contractViolation(err, "event %d: field %q", id, names[i])
		}
		converted[i] = v
	}

	return Event{ID: id, FieldNames: names, FieldValues: converted}, nil
}

// Validate checks the event against the ingress contract: equal name/value counts
// and unique names that do not shadow a fixed field.
func (e Event) Validate() error {
	if len(e.FieldNames) != len(e.FieldValues) {
		return contractViolation(ErrFieldCountMismatch,
			"event %d: %d names, %d values", e.ID, len(e.FieldNames), len(e.FieldValues))
	}

	seen := make(map[string]struct{}, len(e.FieldNames)+len(fixedFields))
	for _, name := range fixedFields {
		seen[name] = struct{}{}
	}
	for _, name := range e.FieldNames {
		if _, dup := seen[name]; dup {
			return contractViolation(ErrDuplicateField, "event %d: field %q", e.ID, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
