package archive

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/config"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/identity"
	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
)

type recordingUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newRecordingUploader() *recordingUploader {
	return &recordingUploader{objects: map[string][]byte{}, types: map[string]string{}}
}

func (u *recordingUploader) Upload(_ context.Context, key string, body []byte, contentType string) error {
	if u.err != nil {
		return u.err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = body
	u.types[key] = contentType
	return nil
}

func approvedProposal() *proposal.Proposal {
	author := identity.User{ID: "u-1", Name: "Rita", Role: identity.RoleResearcher}
	p := proposal.NewProposal("Brand study", author)
	p.ID = "p-1"
	p.Code = "PRP-20240301-ABCDEF"
	p.Status = proposal.StatusClientApproved
	p.ApprovalHistory = []proposal.AuditRecord{
		{ID: "r-1", Action: proposal.AuditSubmittedToManager, By: author, PreviousStatus: proposal.StatusDraft},
		{ID: "r-2", Action: proposal.AuditManagerApproved, By: author, PreviousStatus: proposal.StatusPendingManager},
		{ID: "r-3", Action: proposal.AuditSubmittedToClient, By: author, PreviousStatus: proposal.StatusManagerApproved},
		{ID: "r-4", Action: proposal.AuditClientApproved, By: author, OnBehalfOfClient: true, PreviousStatus: proposal.StatusPendingClient},
	}
	return p
}

func TestObjectArchiver_Archive(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	up := newRecordingUploader()
	a := NewObjectArchiver(up, WithPrefix("audit"), WithClock(func() time.Time { return at }))

	p := approvedProposal()
	if err := a.Archive(context.Background(), p); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	key := "audit/proposals/PRP-20240301-ABCDEF_p-1.json"
	body, ok := up.objects[key]
	if !ok {
		t.Fatalf("object %s not uploaded; have %v", key, up.objects)
	}
	if up.types[key] != ContentType {
		t.Errorf("content type = %s, want %s", up.types[key], ContentType)
	}

	doc, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !doc.ArchivedAt.Equal(at) {
		t.Errorf("ArchivedAt = %v, want %v", doc.ArchivedAt, at)
	}
	if doc.Proposal.ID != "p-1" || len(doc.History) != 4 {
		t.Errorf("document = %+v", doc)
	}
	if !doc.History[3].OnBehalfOfClient {
		t.Error("client approval should be marked on behalf of client")
	}
}

func TestObjectArchiver_RejectsNonTerminal(t *testing.T) {
	t.Parallel()

	up := newRecordingUploader()
	a := NewObjectArchiver(up)
	p := approvedProposal()
	p.Status = proposal.StatusPendingClient

	if err := a.Archive(context.Background(), p); !errors.Is(err, ErrNothingToArchive) {
		t.Errorf("Archive() error = %v, want ErrNothingToArchive", err)
	}
	if err := a.Archive(context.Background(), nil); !errors.Is(err, ErrNothingToArchive) {
		t.Errorf("Archive(nil) error = %v, want ErrNothingToArchive", err)
	}
	if len(up.objects) != 0 {
		t.Errorf("unexpected uploads: %v", up.objects)
	}
}

func TestObjectArchiver_UploadError(t *testing.T) {
	t.Parallel()

	want := errors.New("bucket gone")
	up := newRecordingUploader()
	up.err = want

	err := NewObjectArchiver(up).Archive(context.Background(), approvedProposal())
	if !errors.Is(err, want) {
		t.Errorf("Archive() error = %v, want %v", err, want)
	}
}

func TestObjectArchiver_KeyWithoutCode(t *testing.T) {
	t.Parallel()

	p := approvedProposal()
	p.Code = ""
	if got := NewObjectArchiver(nil).Key(p); got != "proposals/p-1.json" {
		t.Errorf("Key() = %s", got)
	}
}

func TestFilesystemUploader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	up, err := NewFilesystemUploader(dir)
	if err != nil {
		t.Fatalf("NewFilesystemUploader() error = %v", err)
	}

	a := NewObjectArchiver(up)
	p := approvedProposal()
	if err := a.Archive(context.Background(), p); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	body, err := os.ReadFile(up.Path(a.Key(p)))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	doc, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if doc.Proposal.Status != proposal.StatusClientApproved {
		t.Errorf("status = %s", doc.Proposal.Status)
	}

	// Re-archiving overwrites in place.
	if err := a.Archive(context.Background(), p); err != nil {
		t.Fatalf("second Archive() error = %v", err)
	}
}

func TestFilesystemUploader_RequiresPath(t *testing.T) {
	t.Parallel()
	if _, err := NewFilesystemUploader(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestFilesystemUploader_CanceledContext(t *testing.T) {
	t.Parallel()

	up, err := NewFilesystemUploader(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemUploader() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := up.Upload(ctx, "k.json", []byte("{}"), ContentType); !errors.Is(err, context.Canceled) {
		t.Errorf("Upload() error = %v, want Canceled", err)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	a, err := New(ctx, config.ArchiveConfig{Driver: config.ArchiveNone})
	if err != nil || a != nil {
		t.Errorf("New(none) = %v, %v; want nil, nil", a, err)
	}

	a, err = New(ctx, config.ArchiveConfig{Driver: config.ArchiveFilesystem, Path: t.TempDir()})
	if err != nil || a == nil {
		t.Errorf("New(filesystem) = %v, %v", a, err)
	}

	if _, err := New(ctx, config.ArchiveConfig{Driver: "tape"}); !errors.Is(err, config.ErrUnknownDriver) {
		t.Errorf("New(tape) error = %v, want ErrUnknownDriver", err)
	}
}

func TestNewS3Uploader(t *testing.T) {
	t.Parallel()

	if _, err := NewS3Uploader(context.Background(), S3Config{}); err == nil {
		t.Error("expected error without bucket")
	}

	up, err := NewS3Uploader(context.Background(), S3Config{
		Bucket:          "archive",
		Region:          "eu-west-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Endpoint:        "http://127.0.0.1:9000",
	})
	if err != nil {
		t.Fatalf("NewS3Uploader() error = %v", err)
	}
	if up.bucket != "archive" {
		t.Errorf("bucket = %s", up.bucket)
	}
}

func TestNewAzureUploader(t *testing.T) {
	t.Parallel()

	if _, err := NewAzureUploader(AzureConfig{AccountName: "acct"}); err == nil {
		t.Error("expected error without container")
	}
	if _, err := NewAzureUploader(AzureConfig{Container: "audit"}); err == nil {
		t.Error("expected error without account or connection string")
	}

	conn := "DefaultEndpointsProtocol=https;AccountName=devstore;AccountKey=ZGV2c3RvcmVrZXk=;EndpointSuffix=core.windows.net"
	up, err := NewAzureUploader(AzureConfig{Container: "audit", ConnectionString: conn})
	if err != nil {
		t.Fatalf("NewAzureUploader() error = %v", err)
	}
	if up.container != "audit" {
		t.Errorf("container = %s", up.container)
	}
}

func TestNewGCSUploader_RequiresBucket(t *testing.T) {
	t.Parallel()
	if _, err := NewGCSUploader(context.Background(), GCSConfig{}); err == nil {
		t.Error("expected error without bucket")
	}
}
