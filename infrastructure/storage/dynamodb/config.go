// Package dynamodb keeps proposals in a DynamoDB table, one item per
// proposal, guarded by conditional writes on the version attribute.
package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Config selects the table and how the SDK reaches it.
type Config struct {
	Region string
	// Endpoint overrides the service endpoint, e.g. DynamoDB Local.
	Endpoint  string
	TableName string
	// QueryTimeout bounds every store call.
	QueryTimeout time.Duration

	// Static credentials; the default chain is used when AccessKeyID is empty.
	AccessKeyID     string
	SecretAccessKey string
}

// DefaultConfig targets workflow_proposals in us-east-1.
func DefaultConfig() Config {
	return Config{Region: "us-east-1", TableName: "workflow_proposals", QueryTimeout: 10 * time.Second}
}

// ConfigOption adjusts a Config.
type ConfigOption func(*Config)

func WithRegion(region string) ConfigOption {
	return func(c *Config) { c.Region = region }
}

func WithEndpoint(endpoint string) ConfigOption {
	return func(c *Config) { c.Endpoint = endpoint }
}

func WithTableName(name string) ConfigOption {
	return func(c *Config) { c.TableName = name }
}

func WithQueryTimeout(d time.Duration) ConfigOption {
	return func(c *Config) { c.QueryTimeout = d }
}

// WithStaticCredentials replaces the default credential chain.
func WithStaticCredentials(accessKeyID, secretAccessKey string) ConfigOption {
	return func(c *Config) {
		c.AccessKeyID = accessKeyID
		c.SecretAccessKey = secretAccessKey
	}
}

// API is the part of the DynamoDB client the store calls.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// tableAPI is what EnsureTable needs.
type tableAPI interface {
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	dynamodb.DescribeTableAPIClient
}

// Client is a configured SDK client bound to one table.
type Client struct {
	client *dynamodb.Client
	config Config
}

// NewClient loads the AWS configuration and builds the SDK client.
func NewClient(ctx context.Context, opts ...ConfigOption) (*Client, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	load := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		load = append(load, awsconfig.WithCredentialsProvider(creds))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, load...)
	if err != nil {
		return nil, err
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Client{client: client, config: cfg}, nil
}

// DynamoDB returns the SDK client.
func (c *Client) DynamoDB() *dynamodb.Client {
	return c.client
}

// EnsureTable creates the table with an on-demand billing mode and waits
// for it to become active. An existing table is left alone.
func (c *Client) EnsureTable(ctx context.Context) error {
	return ensureTable(ctx, c.client, c.config.TableName, 2*time.Minute)
}

func ensureTable(ctx context.Context, api tableAPI, table string, wait time.Duration) error {
	_, err := api.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:            aws.String(table),
		KeySchema:            []types.KeySchemaElement{{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash}},
		AttributeDefinitions: []types.AttributeDefinition{{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS}},
		BillingMode:          types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	switch {
	case errors.As(err, &inUse):
		return nil
	case err != nil:
		return err
	}
	return dynamodb.NewTableExistsWaiter(api).Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, wait)
}
