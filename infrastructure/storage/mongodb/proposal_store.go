package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
)

// proposalDocument indexes the queryable fields and carries the full
// proposal as JSON.
type proposalDocument struct {
	ID        string    `bson:"_id"`
	Code      string    `bson:"code,omitempty"`
	Status    string    `bson:"status"`
	AuthorID  string    `bson:"author_id"`
	Version   int64     `bson:"version"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
	Data      []byte    `bson:"data"`
}

// ProposalStore is a MongoDB-backed implementation of proposal.Store.
// Saves are guarded by a version filter on UpdateOne.
type ProposalStore struct {
	collection   *mongo.Collection
	queryTimeout time.Duration
}

// NewProposalStore creates a store on the named collection.
func NewProposalStore(client *Client, collectionName string) *ProposalStore {
	if collectionName == "" {
		collectionName = "proposals"
	}
	return &ProposalStore{
		collection:   client.Collection(collectionName),
		queryTimeout: client.config.QueryTimeout,
	}
}

// EnsureIndexes creates the list indexes.
func (s *ProposalStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	return s.wrapError(err)
}

// Create persists a new proposal.
func (s *ProposalStore) Create(ctx context.Context, p *proposal.Proposal) error {
	if err := p.Validate(); err != nil {
		return err
	}
	doc, err := toDocument(p)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return proposal.ErrProposalExists
		}
		return s.wrapError(err)
	}
	return nil
}

// Load retrieves a proposal by ID.
func (s *ProposalStore) Load(ctx context.Context, id string) (*proposal.Proposal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var doc proposalDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, proposal.ErrNotFound
		}
		return nil, s.wrapError(err)
	}
	return fromDocument(&doc)
}

// Save replaces the document only if its version still matches.
func (s *ProposalStore) Save(ctx context.Context, id string, patch proposal.Patch, expectedVersion int64) error {
	current, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	if current.Version != expectedVersion {
		return proposal.ErrConflict
	}

	doc, err := toDocument(current.Applied(patch))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	result, err := s.collection.ReplaceOne(ctx, versionFilter(id, expectedVersion), doc)
	if err != nil {
		return s.wrapError(err)
	}
	if result.MatchedCount == 0 {
		return proposal.ErrConflict
	}
	return nil
}

// Delete marks a proposal deleted.
func (s *ProposalStore) Delete(ctx context.Context, id string) error {
	current, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := proposal.CheckDeletable(current.Status); err != nil {
		return err
	}
	deleted := current.Clone()
	deleted.Status = proposal.StatusDeleted
	deleted.Version++

	doc, err := toDocument(deleted)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	result, err := s.collection.ReplaceOne(ctx, versionFilter(id, current.Version), doc)
	if err != nil {
		return s.wrapError(err)
	}
	if result.MatchedCount == 0 {
		return proposal.ErrConflict
	}
	return nil
}

// List returns proposals matching the filter, oldest first.
func (s *ProposalStore) List(ctx context.Context, filter proposal.ListFilter) ([]*proposal.Proposal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	cursor, err := s.collection.Find(ctx, buildFilter(filter), buildFindOptions(filter))
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	results := []*proposal.Proposal{}
	for cursor.Next(ctx) {
		var doc proposalDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, s.wrapError(err)
		}
		p, err := fromDocument(&doc)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, s.wrapError(err)
	}
	return results, nil
}

func versionFilter(id string, version int64) bson.M {
	return bson.M{"_id": id, "version": version}
}

func buildFilter(filter proposal.ListFilter) bson.M {
	mongoFilter := bson.M{}

	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			statuses[i] = string(status)
		}
		mongoFilter["status"] = bson.M{"$in": statuses}
	}

	if filter.AuthorID != "" {
		mongoFilter["author_id"] = filter.AuthorID
	}

	created := bson.M{}
	if !filter.FromTime.IsZero() {
		created["$gte"] = filter.FromTime
	}
	if !filter.ToTime.IsZero() {
		created["$lte"] = filter.ToTime
	}
	if len(created) > 0 {
		mongoFilter["created_at"] = created
	}

	return mongoFilter
}

func buildFindOptions(filter proposal.ListFilter) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	return opts
}

func toDocument(p *proposal.Proposal) (*proposalDocument, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal proposal: %w", err)
	}
	return &proposalDocument{
		ID:        p.ID,
		Code:      p.Code,
		Status:    string(p.Status),
		AuthorID:  p.Author.ID,
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Data:      data,
	}, nil
}

func fromDocument(doc *proposalDocument) (*proposal.Proposal, error) {
	var p proposal.Proposal
	if err := json.Unmarshal(doc.Data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal proposal: %w", err)
	}
	return &p, nil
}

func (s *ProposalStore) wrapError(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(proposal.ErrStoreUnavailable, err)
}

var (
	_ proposal.Store   = (*ProposalStore)(nil)
	_ proposal.Deleter = (*ProposalStore)(nil)
)
