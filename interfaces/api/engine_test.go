package api

import (
	"context"
	"errors"
	"io"
	"testing"

	domainconfig "github.com/YagmurCemGul/boltinsight-production-sub002/domain/config"
	infranotif "github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/notification"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/storage/memory"
	"github.com/YagmurCemGul/boltinsight-production-sub002/infrastructure/telemetry"
)

func testConfig() *AppConfig {
	cfg := DefaultConfig()
	cfg.Users = []domainconfig.UserConfig{
		{ID: "r-1", Name: "Rita", Role: "researcher"},
		{ID: "m-1", Name: "Max", Role: "manager"},
	}
	return cfg
}

func TestBuild_Default(t *testing.T) {
	t.Parallel()

	e, err := Build(context.Background(), nil, WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer e.Close(context.Background())

	if e.Service == nil || e.Directory == nil || e.Inbox == nil {
		t.Fatalf("Build() = %+v", e)
	}
	if _, ok := e.Store.(*memory.ProposalStore); !ok {
		t.Errorf("Store = %T, want *memory.ProposalStore", e.Store)
	}
}

func TestBuild_SubmitNotifiesManager(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, err := Build(ctx, testConfig(), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer e.Close(ctx)

	author, err := e.Directory.Lookup(ctx, "r-1")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	p, err := e.Service.Create(ctx, "Pricing study", author)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	out, err := e.Service.Execute(ctx, p.ID, ActionSubmitToManager, author, ExecuteInputs{ManagerID: "m-1"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out.NewStatus != StatusPendingManager {
		t.Errorf("NewStatus = %s, want pending_manager", out.NewStatus)
	}

	live, err := e.Inbox.ListForRecipient(ctx, "m-1", true)
	if err != nil {
		t.Fatalf("ListForRecipient() error = %v", err)
	}
	if len(live) != 1 {
		t.Errorf("live inbox has %d notifications, want 1", len(live))
	}

	replayed, err := e.ReplayInbox(ctx, "m-1")
	if err != nil {
		t.Fatalf("ReplayInbox() error = %v", err)
	}
	if len(replayed) != 1 || replayed[0].ProposalID != p.ID {
		t.Errorf("ReplayInbox() = %v", replayed)
	}
}

func TestBuild_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Storage.Driver = "cassandra"
	if _, err := Build(context.Background(), cfg, WithLogOutput(io.Discard)); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("Build() error = %v, want ErrValidationFailed", err)
	}
}

func TestBuildStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	if _, _, err := BuildStore(ctx, domainconfig.StorageConfig{Driver: "cassandra"}, nil); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("BuildStore(cassandra) error = %v, want ErrUnknownDriver", err)
	}

	store, closeStore, err := BuildStore(ctx, domainconfig.StorageConfig{Driver: domainconfig.DriverBadger}, nil)
	if err != nil {
		t.Fatalf("BuildStore(badger) error = %v", err)
	}
	if store == nil || closeStore == nil {
		t.Fatal("BuildStore(badger) returned nil store or closer")
	}
	if err := closeStore(ctx); err != nil {
		t.Errorf("close error = %v", err)
	}
}

func TestBuildLocker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     domainconfig.LockConfig
		wantNil bool
		wantErr bool
	}{
		{"none", domainconfig.LockConfig{}, true, false},
		{"explicit none", domainconfig.LockConfig{Driver: "none"}, true, false},
		{"memory", domainconfig.LockConfig{Driver: "memory"}, false, false},
		{"redis without address", domainconfig.LockConfig{Driver: "redis"}, true, true},
		{"unknown", domainconfig.LockConfig{Driver: "zookeeper"}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l, _, err := BuildLocker(tt.cfg, domainconfig.StorageConfig{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("BuildLocker() error = %v, wantErr %v", err, tt.wantErr)
			}
			if (l == nil) != tt.wantNil {
				t.Errorf("BuildLocker() = %v, wantNil %v", l, tt.wantNil)
			}
		})
	}
}

func TestBuildEmitter(t *testing.T) {
	t.Parallel()

	cfg := domainconfig.NotificationConfig{
		Log: true,
		Webhooks: []domainconfig.EndpointConfig{
			{URL: "https://hooks.example.com/a", Enabled: true, Types: []string{"manager_approved"}},
			{URL: "https://hooks.example.com/b", Enabled: false},
		},
	}

	emitter, closeAll, err := BuildEmitter(cfg, memory.NewNotificationInbox(), nil)
	if err != nil {
		t.Fatalf("BuildEmitter() error = %v", err)
	}
	defer closeAll(context.Background())

	multi, ok := emitter.(*infranotif.MultiEmitter)
	if !ok {
		t.Fatalf("emitter = %T, want *MultiEmitter", emitter)
	}
	if multi.Len() != 3 {
		t.Errorf("Len() = %d, want 3 (inbox, log, webhook)", multi.Len())
	}

	endpoints := buildEndpoints(cfg.Webhooks)
	if len(endpoints) != 1 || endpoints[0].Filter == nil {
		t.Errorf("buildEndpoints() = %v", endpoints)
	}
}

func TestBuildDirectory_InvalidRole(t *testing.T) {
	t.Parallel()

	_, err := BuildDirectory([]domainconfig.UserConfig{{ID: "u-1", Role: "owner"}})
	if err == nil {
		t.Error("BuildDirectory() expected error for unknown role")
	}
}

func TestBuildTelemetry(t *testing.T) {
	t.Parallel()

	provider, metrics, err := BuildTelemetry(domainconfig.TelemetryConfig{Metrics: true})
	if err != nil {
		t.Fatalf("BuildTelemetry() error = %v", err)
	}
	defer provider.Shutdown(context.Background())

	if _, ok := metrics.(*telemetry.MetricsProvider); !ok {
		t.Errorf("metrics = %T, want *MetricsProvider", metrics)
	}

	_, noop, err := BuildTelemetry(domainconfig.TelemetryConfig{})
	if err != nil {
		t.Fatalf("BuildTelemetry() error = %v", err)
	}
	if _, ok := noop.(*telemetry.NoopMetricsProvider); !ok {
		t.Errorf("metrics = %T, want *NoopMetricsProvider", noop)
	}
}
