package logging

import "github.com/felixgeelhaar/bolt/v3"

// Field attaches structured data to an event.
type Field func(*bolt.Event) *bolt.Event

// Str adds a string under key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str(key, value) }
}

// Int adds an integer under key.
func Int(key string, value int) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Int(key, value) }
}

// omitEmpty drops the field when value is empty.
func omitEmpty(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		if value == "" {
			return e
		}
		return e.Str(key, value)
	}
}

// Workflow field constructors.

func ProposalID(id string) Field { return Str("proposal_id", id) }
func ProposalCode(code string) Field { return omitEmpty("proposal_code", code) }
func Action(action string) Field { return Str("action", action) }
func FromStatus(s string) Field { return Str("from_status", s) }
func ToStatus(s string) Field { return Str("to_status", s) }
func Recipient(id string) Field { return Str("recipient", id) }
func NotificationType(t string) Field { return Str("notification_type", t) }
func ErrorCode(code string) Field { return Str("error_code", code) }
func Component(name string) Field { return Str("component", name) }

// Actor adds the acting user's ID and role.
func Actor(id, role string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str("actor", id).Str("role", role) }
}

// Version adds the stored proposal version.
func Version(v int64) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Int64("version", v) }
}

// ErrorField adds err, or nothing when err is nil.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}
