// Package archive stores the final audit trail of proposals that reach a
// terminal status in durable object storage.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
)

// ContentType is the media type of archived documents.
const ContentType = "application/json"

// ErrNothingToArchive indicates the proposal is not in an archivable status.
var ErrNothingToArchive = errors.New("proposal is not archivable")

// Archiver persists a proposal's final state and history.
type Archiver interface {
	Archive(ctx context.Context, p *proposal.Proposal) error
}

// Uploader writes one object. Implementations wrap a storage backend.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
}

// Document is the archived representation of a proposal.
type Document struct {
	ArchivedAt time.Time             `json:"archived_at"`
	Proposal   *proposal.Proposal    `json:"proposal"`
	History    []proposal.AuditRecord `json:"history"`
}

// ObjectArchiver encodes proposals as JSON documents and hands them to an
// Uploader.
type ObjectArchiver struct {
	uploader Uploader
	prefix   string
	now      func() time.Time
}

// Option configures an ObjectArchiver.
type Option func(*ObjectArchiver)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(a *ObjectArchiver) {
		a.prefix = prefix
	}
}

// WithClock sets the time source for ArchivedAt.
func WithClock(now func() time.Time) Option {
	return func(a *ObjectArchiver) {
		if now != nil {
			a.now = now
		}
	}
}

// NewObjectArchiver creates an archiver backed by uploader.
func NewObjectArchiver(uploader Uploader, opts ...Option) *ObjectArchiver {
	a := &ObjectArchiver{
		uploader: uploader,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Key returns the object key for p.
func (a *ObjectArchiver) Key(p *proposal.Proposal) string {
	name := p.ID
	if p.Code != "" {
		name = p.Code + "_" + p.ID
	}
	return path.Join(a.prefix, "proposals", name+".json")
}

// Archive uploads p. Only terminal proposals are archived.
func (a *ObjectArchiver) Archive(ctx context.Context, p *proposal.Proposal) error {
	if p == nil || !p.Status.IsTerminal() {
		return ErrNothingToArchive
	}

	body, err := Encode(p, a.now())
	if err != nil {
		return err
	}
	if err := a.uploader.Upload(ctx, a.Key(p), body, ContentType); err != nil {
		return fmt.Errorf("archive %s: %w", p.ID, err)
	}
	return nil
}

// Encode renders the archive document for p.
func Encode(p *proposal.Proposal, at time.Time) ([]byte, error) {
	snapshot := p.Clone()
	doc := Document{
		ArchivedAt: at,
		Proposal:   snapshot,
		History:    snapshot.ApprovalHistory,
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode archive document: %w", err)
	}
	return body, nil
}

// Decode parses an archive document.
func Decode(body []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode archive document: %w", err)
	}
	return &doc, nil
}

var _ Archiver = (*ObjectArchiver)(nil)
