package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
)

// proposalItem represents a proposal in DynamoDB.
type proposalItem struct {
	ID        string `dynamodbav:"id"`
	Code      string `dynamodbav:"code,omitempty"`
	Status    string `dynamodbav:"status"`
	AuthorID  string `dynamodbav:"author_id"`
	Version   int64  `dynamodbav:"version"`
	CreatedAt int64  `dynamodbav:"created_at"`
	Data      string `dynamodbav:"data"`
}

// ProposalStore is a DynamoDB-backed implementation of proposal.Store.
// Every write is a conditional PutItem keyed on the stored version.
type ProposalStore struct {
	client       API
	tableName    string
	queryTimeout time.Duration
}

// NewProposalStore creates a store using the client's table.
func NewProposalStore(client *Client) *ProposalStore {
	return NewProposalStoreFromAPI(client.DynamoDB(), client.config.TableName, client.config.QueryTimeout)
}

// NewProposalStoreFromAPI creates a store over any DynamoDB API implementation.
func NewProposalStoreFromAPI(api API, tableName string, queryTimeout time.Duration) *ProposalStore {
	if queryTimeout <= 0 {
		queryTimeout = DefaultConfig().QueryTimeout
	}
	return &ProposalStore{client: api, tableName: tableName, queryTimeout: queryTimeout}
}

// Create persists a new proposal.
func (s *ProposalStore) Create(ctx context.Context, p *proposal.Proposal) error {
	if err := p.Validate(); err != nil {
		return err
	}
	cond := expression.AttributeNotExists(expression.Name("id"))
	err := s.put(ctx, p, cond)

	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return proposal.ErrProposalExists
	}
	return err
}

// Load retrieves a proposal by ID with a consistent read.
func (s *ProposalStore) Load(ctx context.Context, id string) (*proposal.Proposal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, s.wrapError(err)
	}
	if result.Item == nil {
		return nil, proposal.ErrNotFound
	}

	var item proposalItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, err
	}
	return fromItem(&item)
}

// Save writes the patched proposal only if the stored version still matches.
func (s *ProposalStore) Save(ctx context.Context, id string, patch proposal.Patch, expectedVersion int64) error {
	current, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	if current.Version != expectedVersion {
		return proposal.ErrConflict
	}

	err = s.put(ctx, current.Applied(patch), versionCondition(expectedVersion))
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return proposal.ErrConflict
	}
	return err
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

	err = s.put(ctx, deleted, versionCondition(current.Version))
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return proposal.ErrConflict
	}
	return err
}

// List scans the table and returns matching proposals, oldest first.
func (s *ProposalStore) List(ctx context.Context, filter proposal.ListFilter) ([]*proposal.Proposal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	scanInput, err := s.buildScanInput(filter)
	if err != nil {
		return nil, err
	}

	results := []*proposal.Proposal{}
	paginator := dynamodb.NewScanPaginator(s.client, scanInput)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.wrapError(err)
		}
		for _, av := range page.Items {
			var item proposalItem
			if err := attributevalue.UnmarshalMap(av, &item); err != nil {
				return nil, err
			}
			p, err := fromItem(&item)
			if err != nil {
				return nil, err
			}
			if filter.Matches(p) {
				results = append(results, p)
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
	return filter.Page(results), nil
}

func (s *ProposalStore) put(ctx context.Context, p *proposal.Proposal, cond expression.ConditionBuilder) error {
	item, err := toItem(p)
	if err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return err
		}
		return s.wrapError(err)
	}
	return nil
}

func versionCondition(version int64) expression.ConditionBuilder {
	return expression.Name("version").Equal(expression.Value(version))
}

// buildScanInput pushes the status and author filters to DynamoDB. Time
// bounds and paging are applied after the scan.
func (s *ProposalStore) buildScanInput(filter proposal.ListFilter) (*dynamodb.ScanInput, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.tableName)}

	var (
		cond expression.ConditionBuilder
		set  bool
	)
	if len(filter.Status) > 0 {
		for i, st := range filter.Status {
			eq := expression.Name("status").Equal(expression.Value(string(st)))
			if i == 0 {
				cond = eq
			} else {
				cond = cond.Or(eq)
			}
		}
		set = true
	}
	if filter.AuthorID != "" {
		author := expression.Name("author_id").Equal(expression.Value(filter.AuthorID))
		if set {
			cond = cond.And(author)
		} else {
			cond = author
		}
		set = true
	}
	if !set {
		return input, nil
	}

	expr, err := expression.NewBuilder().WithFilter(cond).Build()
	if err != nil {
		return nil, err
	}
	input.FilterExpression = expr.Filter()
	input.ExpressionAttributeNames = expr.Names()
	input.ExpressionAttributeValues = expr.Values()
	return input, nil
}

func toItem(p *proposal.Proposal) (*proposalItem, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal proposal: %w", err)
	}
	return &proposalItem{
		ID:        p.ID,
		Code:      p.Code,
		Status:    string(p.Status),
		AuthorID:  p.Author.ID,
		Version:   p.Version,
		CreatedAt: p.CreatedAt.UnixNano(),
		Data:      string(data),
	}, nil
}

func fromItem(item *proposalItem) (*proposal.Proposal, error) {
	var p proposal.Proposal
	if err := json.Unmarshal([]byte(item.Data), &p); err != nil {
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
