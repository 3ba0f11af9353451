package badger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

func TestOptions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	for _, opt := range []Option{
		WithInMemory(),
		WithDir("/var/lib/workflow"),
		WithSyncWrites(),
		WithKeyPrefix("tenant-a:"),
		WithGC(time.Minute, 0.7),
	} {
		opt(&cfg)
	}

	if cfg.InMemory {
		t.Error("WithDir should switch off in-memory mode")
	}
	if cfg.Dir != "/var/lib/workflow" || !cfg.SyncWrites || cfg.KeyPrefix != "tenant-a:" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.GCInterval != time.Minute || cfg.GCDiscardRatio != 0.7 {
		t.Errorf("GC = %v/%v, want 1m/0.7", cfg.GCInterval, cfg.GCDiscardRatio)
	}
}

func TestLogAdapter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := bolt.New(bolt.NewJSONHandler(&buf)).SetLevel(bolt.WARN)
	adapter := &logAdapter{logger: logger}

	adapter.Errorf("value log %d corrupt\n", 7)
	adapter.Warningf("slow compaction")
	adapter.Infof("replaying memtable")

	out := buf.String()
	if !strings.Contains(out, "value log 7 corrupt") {
		t.Errorf("error line missing: %s", out)
	}
	if strings.Contains(out, `corrupt\n`) {
		t.Errorf("trailing newline not trimmed: %s", out)
	}
	if !strings.Contains(out, "slow compaction") {
		t.Errorf("warning line missing: %s", out)
	}
	if strings.Contains(out, "replaying memtable") {
		t.Errorf("info line should be demoted below warn: %s", out)
	}
	if !strings.Contains(out, "badger") {
		t.Errorf("component field missing: %s", out)
	}
}
