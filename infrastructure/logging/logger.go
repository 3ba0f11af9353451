// Package logging builds bolt loggers for the workflow engine and the
// structured fields its components attach to events.
package logging

import (
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/felixgeelhaar/bolt/v3"
)

// Config selects a level and output format.
type Config struct {
	// Level is one of trace, debug, info, warn or error.
	Level string
	// Format is json or console.
	Format string
}

// DefaultConfig logs info and above as JSON.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json"}
}

// ParseLevel maps a level name to a bolt level. Unknown names are info.
func ParseLevel(s string) bolt.Level {
	switch strings.ToLower(s) {
	case "trace":
		return bolt.TRACE
	case "debug":
		return bolt.DEBUG
	case "warn", "warning":
		return bolt.WARN
	case "error":
		return bolt.ERROR
	}
	return bolt.INFO
}

// New builds a logger writing to w, or stderr when w is nil.
func New(cfg Config, w io.Writer) *bolt.Logger {
	if w == nil {
		w = os.Stderr
	}
	var h bolt.Handler = bolt.NewJSONHandler(w)
	if cfg.Format == "console" {
		h = bolt.NewConsoleHandler(w)
	}
	return bolt.New(h).SetLevel(ParseLevel(cfg.Level))
}

var fallback atomic.Pointer[bolt.Logger]

// Get returns the process-wide logger used by components built without
// one. It is created from DefaultConfig on first use.
func Get() *bolt.Logger {
	if l := fallback.Load(); l != nil {
		return l
	}
	fallback.CompareAndSwap(nil, New(DefaultConfig(), nil))
	return fallback.Load()
}

// SetDefault replaces the logger returned by Get.
func SetDefault(l *bolt.Logger) {
	if l != nil {
		fallback.Store(l)
	}
}

// Event applies Fields to a bolt event before it is sent.
type Event struct {
	e *bolt.Event
}

// NewEvent wraps e.
func NewEvent(e *bolt.Event) *Event {
	return &Event{e: e}
}

// Add applies f.
func (ev *Event) Add(f Field) *Event {
	ev.e = f(ev.e)
	return ev
}

// With applies fields in order.
func (ev *Event) With(fields ...Field) *Event {
	for _, f := range fields {
		ev.e = f(ev.e)
	}
	return ev
}

// Msg sends the event with msg.
func (ev *Event) Msg(msg string) { ev.e.Msg(msg) }

// Send sends the event without a message.
func (ev *Event) Send() { ev.e.Send() }
