package nino

import (
	"context"
	"time"

	"github.com/advdv/bwalk"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// StoreConfig configures the store handle.
type StoreConfig struct {
	Table           string
	ConnectAttempts int
}

// DynamoAPI is the part of the DynamoDB client the store uses.
type DynamoAPI interface {
	ExecuteStatement(
		ctx context.Context, params *dynamodb.ExecuteStatementInput, optFns ...func(*dynamodb.Options),
	) (*dynamodb.ExecuteStatementOutput, error)
	DescribeTable(
		ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options),
	) (*dynamodb.DescribeTableOutput, error)
}

// DynamoStore is the shared store handle. Statements are PartiQL and positional "?" parameters
// are bound to the arguments. The client is safe for concurrent use.
type DynamoStore struct {
	client DynamoAPI
	cfg    StoreConfig
}

// NewDynamoStore creates the store handle.
func NewDynamoStore(client DynamoAPI, cfg StoreConfig) *DynamoStore {
	return &DynamoStore{client: client, cfg: cfg}
}

// Table returns the name of the table the store writes to.
func (s *DynamoStore) Table() string { return s.cfg.Table }

// Exec runs a single PartiQL statement.
func (s *DynamoStore) Exec(ctx context.Context, statement string, args ...any) error {
	params, err := attributeValues(args)
	if err != nil {
		return err
	}

	if _, err := s.client.ExecuteStatement(ctx, &dynamodb.ExecuteStatementInput{
		Statement:  aws.String(statement),
		Parameters: params,
	}); err != nil {
		return errors.Wrap(err, "execute statement")
	}

	return nil
}

// Ping checks that the table exists and can be described.
func (s *DynamoStore) Ping(ctx context.Context) error {
	if _, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.cfg.Table),
	}); err != nil {
		return errors.Wrapf(err, "describe table %q", s.cfg.Table)
	}

	return nil
}

var _ bwalk.Store = &DynamoStore{}

// Pinger is implemented by stores that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

var storeRetryInterval = time.Second

// waitForStore pings the store up to attempts times. Stores that cannot be pinged are ready.
func waitForStore(ctx context.Context, store bwalk.Store, attempts int, logs *zap.Logger) error {
	p, ok := store.(Pinger)
	if !ok {
		return nil
	}

	attempts = max(attempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = p.Ping(ctx); err == nil {
			return nil
		}

		logs.Warn("store not ready",
			zap.Int("attempt", attempt),
			zap.Int("attempts", attempts),
			zap.Error(err))

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "waiting for store")
		case <-time.After(storeRetryInterval):
		}
	}

	return errors.Wrapf(err, "store not ready after %d attempts", attempts)
}

// attributeValues binds statement arguments to DynamoDB attribute values. Attribute values are
// passed through and times are stored in UTC.
func attributeValues(args []any) ([]types.AttributeValue, error) {
	if len(args) == 0 {
		return nil, nil
	}

	avs := make([]types.AttributeValue, 0, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case types.AttributeValue:
			avs = append(avs, v)
			continue
		case time.Time:
			arg = v.UTC()
		}

		av, err := attributevalue.Marshal(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d", i)
		}

		avs = append(avs, av)
	}

	return avs, nil
}
