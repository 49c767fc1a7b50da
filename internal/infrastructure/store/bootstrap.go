package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// TableAdmin is the subset of the DynamoDB client needed to create tables
type TableAdmin interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// EnsureTables creates every table in Tables that does not exist yet and
// waits for it to become active. Existing tables are left untouched.
func EnsureTables(ctx context.Context, client *dynamodb.Client, prefix string, logger *zap.Logger) error {
	for _, spec := range Tables {
		created, err := ensureTable(ctx, client, prefix, spec)
		if err != nil {
			return err
		}
		name := prefix + spec.Name
		if !created {
			logger.Info("table exists", zap.String("table", name))
			continue
		}

		waiter := dynamodb.NewTableExistsWaiter(client)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)}, 2*time.Minute); err != nil {
			return fmt.Errorf("wait for table %s: %w", name, err)
		}
		logger.Info("table created", zap.String("table", name), zap.Int("indexes", len(spec.Indexes)))
	}
	return nil
}

func ensureTable(ctx context.Context, client TableAdmin, prefix string, spec TableSpec) (bool, error) {
	name := prefix + spec.Name
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
	if err == nil {
		return false, nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return false, fmt.Errorf("describe table %s: %w", name, err)
	}

	if _, err := client.CreateTable(ctx, CreateTableInput(prefix, spec)); err != nil {
		return false, fmt.Errorf("create table %s: %w", name, err)
	}
	return true, nil
}

// CreateTableInput builds the on-demand CreateTable request for spec.
func CreateTableInput(prefix string, spec TableSpec) *dynamodb.CreateTableInput {
	attrs := make([]types.AttributeDefinition, 0, len(spec.KeyAttributes()))
	for _, name := range spec.KeyAttributes() {
		attrs = append(attrs, types.AttributeDefinition{
			AttributeName: aws.String(name),
			AttributeType: types.ScalarAttributeTypeS,
		})
	}

	input := &dynamodb.CreateTableInput{
		TableName:            aws.String(prefix + spec.Name),
		AttributeDefinitions: attrs,
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(spec.HashKey), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	}

	for _, idx := range spec.Indexes {
		schema := []types.KeySchemaElement{
			{AttributeName: aws.String(idx.HashKey), KeyType: types.KeyTypeHash},
		}
		if idx.RangeKey != "" {
			schema = append(schema, types.KeySchemaElement{
				AttributeName: aws.String(idx.RangeKey),
				KeyType:       types.KeyTypeRange,
			})
		}
		input.GlobalSecondaryIndexes = append(input.GlobalSecondaryIndexes, types.GlobalSecondaryIndex{
			IndexName:  aws.String(idx.Name),
			KeySchema:  schema,
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		})
	}

	return input
}
