package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/offeringbowl/backend/internal/infrastructure/config"
	"github.com/offeringbowl/backend/internal/infrastructure/logger"
	"github.com/offeringbowl/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoStore implements Store on Amazon DynamoDB (or DynamoDB Local).
type DynamoStore struct {
	client      DynamoAPI
	tablePrefix string
	logger      *logger.StoreLogger
}

// DynamoStoreOption is a functional option for configuring DynamoStore
type DynamoStoreOption func(*DynamoStore)

// WithLogger sets the operation logger for DynamoStore
func WithLogger(l *logger.StoreLogger) DynamoStoreOption {
	return func(s *DynamoStore) {
		s.logger = l
	}
}

// WithTablePrefix prepends prefix to every table name
func WithTablePrefix(prefix string) DynamoStoreOption {
	return func(s *DynamoStore) {
		s.tablePrefix = prefix
	}
}

// NewDynamoClient builds a DynamoDB client from configuration. Static
// credentials and a custom endpoint are used when configured, which is how
// DynamoDB Local is reached.
func NewDynamoClient(ctx context.Context, cfg *config.DynamoDBConfig) (*dynamodb.Client, error) {
	if cfg == nil {
		return nil, errors.New("dynamodb configuration is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// NewDynamoStore wraps client as a Store
func NewDynamoStore(client DynamoAPI, opts ...DynamoStoreOption) *DynamoStore {
	s := &DynamoStore{
		client: client,
		logger: logger.NewStoreLogger(zap.NewNop(), logger.StoreSilent),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DynamoStore) tableName(table string) *string {
	return aws.String(s.tablePrefix + table)
}

// Get implements Store
func (s *DynamoStore) Get(ctx context.Context, table string, key Key, out any) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "dynamodb.get", "table", table)
	defer span.End()

	begin := time.Now()
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: s.tableName(table),
		Key:       key.attributes(),
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Trace(ctx, "get", table, begin, 0, err)
		return false, fmt.Errorf("get %s: %w", table, err)
	}
	if len(resp.Item) == 0 {
		s.logger.Trace(ctx, "get", table, begin, 0, nil)
		return false, nil
	}
	s.logger.Trace(ctx, "get", table, begin, 1, nil)
	if err := UnmarshalItem(resp.Item, out); err != nil {
		return false, fmt.Errorf("decode %s item: %w", table, err)
	}
	return true, nil
}

// Put implements Store
func (s *DynamoStore) Put(ctx context.Context, table string, item any) error {
	av, err := MarshalItem(item)
	if err != nil {
		return fmt.Errorf("encode %s item: %w", table, err)
	}
	ctx, span := telemetry.StartSpan(ctx, "dynamodb.put", "table", table)
	defer span.End()

	begin := time.Now()
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: s.tableName(table),
		Item:      av,
	})
	s.logger.Trace(ctx, "put", table, begin, 1, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("put %s: %w", table, err)
	}
	return nil
}

// Delete implements Store
func (s *DynamoStore) Delete(ctx context.Context, table string, key Key) error {
	ctx, span := telemetry.StartSpan(ctx, "dynamodb.delete", "table", table)
	defer span.End()

	begin := time.Now()
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: s.tableName(table),
		Key:       key.attributes(),
	})
	s.logger.Trace(ctx, "delete", table, begin, 1, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

// Query implements Store
func (s *DynamoStore) Query(ctx context.Context, q Query) (*Page, error) {
	keyCond := expression.Key(q.Partition.Name).Equal(expression.Value(q.Partition.Value))
	if q.Sort != nil {
		keyCond = keyCond.And(expression.Key(q.Sort.Name).Equal(expression.Value(q.Sort.Value)))
	}

	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if filter, ok := buildFilter(q.Filter); ok {
		builder = builder.WithFilter(filter)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", q.Table, err)
	}

	startKey, err := startKeyFromCursor(q.Cursor)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.QueryInput{
		TableName:                 s.tableName(q.Table),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(q.Ascending),
		ExclusiveStartKey:         startKey,
	}
	if q.Index != "" {
		input.IndexName = aws.String(q.Index)
	}
	if q.Limit > 0 {
		input.Limit = aws.Int32(q.Limit)
	}

	ctx, span := telemetry.StartSpan(ctx, "dynamodb.query", "table", q.Table, "index", q.Index)
	defer span.End()

	begin := time.Now()
	resp, err := s.client.Query(ctx, input)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Trace(ctx, "query", q.Table, begin, 0, err)
		return nil, fmt.Errorf("query %s: %w", q.Table, err)
	}
	s.logger.Trace(ctx, "query", q.Table, begin, len(resp.Items), nil)

	return &Page{
		Items:  resp.Items,
		Cursor: cursorFromEvaluatedKey(resp.LastEvaluatedKey),
	}, nil
}

// Scan implements Store
func (s *DynamoStore) Scan(ctx context.Context, sc Scan) (*Page, error) {
	startKey, err := startKeyFromCursor(sc.Cursor)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.ScanInput{
		TableName:         s.tableName(sc.Table),
		ExclusiveStartKey: startKey,
	}
	if filter, ok := buildFilter(sc.Filter); ok {
		expr, err := expression.NewBuilder().WithFilter(filter).Build()
		if err != nil {
			return nil, fmt.Errorf("build %s scan: %w", sc.Table, err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}
	if sc.Limit > 0 {
		input.Limit = aws.Int32(sc.Limit)
	}

	ctx, span := telemetry.StartSpan(ctx, "dynamodb.scan", "table", sc.Table)
	defer span.End()

	begin := time.Now()
	resp, err := s.client.Scan(ctx, input)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Trace(ctx, "scan", sc.Table, begin, 0, err)
		return nil, fmt.Errorf("scan %s: %w", sc.Table, err)
	}
	s.logger.Trace(ctx, "scan", sc.Table, begin, len(resp.Items), nil)

	return &Page{
		Items:  resp.Items,
		Cursor: cursorFromEvaluatedKey(resp.LastEvaluatedKey),
	}, nil
}

// buildFilter ANDs one equality condition per attribute, in name order
func buildFilter(filter map[string]any) (expression.ConditionBuilder, bool) {
	if len(filter) == 0 {
		return expression.ConditionBuilder{}, false
	}

	names := make([]string, 0, len(filter))
	for name := range filter {
		names = append(names, name)
	}
	sort.Strings(names)

	cond := expression.Name(names[0]).Equal(expression.Value(filter[names[0]]))
	for _, name := range names[1:] {
		cond = cond.And(expression.Name(name).Equal(expression.Value(filter[name])))
	}
	return cond, true
}

var _ Store = (*DynamoStore)(nil)
