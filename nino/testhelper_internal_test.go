package nino

import (
	"context"
	"sync"

	"github.com/advdv/bwalk"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap/zapcore"
)

type testEnv struct {
	level     zapcore.Level
	otelExp   string
	prop      string
	region    string
	brokerReg string
	broker    BrokerConfig
	opts      bwalk.ServerOptions
}

func (e testEnv) port() int                  { return 7878 }
func (e testEnv) serviceName() string        { return "test" }
func (e testEnv) logLevel() zapcore.Level    { return e.level }
func (e testEnv) otelExporter() string       { return e.otelExp }
func (e testEnv) propagator() string         { return e.prop }
func (e testEnv) brokerRegion() string       { return e.brokerReg }
func (e testEnv) metricsPort() int           { return 0 }
func (e testEnv) brokerConfig() BrokerConfig { return e.broker }

func (e testEnv) serverOptions() bwalk.ServerOptions { return e.opts }

func (e testEnv) awsRegion() string {
	if e.region == "" {
		return "us-east-1"
	}
	return e.region
}

func (e testEnv) storeConfig() StoreConfig {
	return StoreConfig{Table: "projects", ConnectAttempts: 2}
}

var _ Environment = testEnv{}

// fakeDynamo records the statements it is asked to execute.
type fakeDynamo struct {
	mu          sync.Mutex
	statements  []*dynamodb.ExecuteStatementInput
	execErr     error
	describeErr []error
	describes   int
}

func (f *fakeDynamo) ExecuteStatement(
	_ context.Context, params *dynamodb.ExecuteStatementInput, _ ...func(*dynamodb.Options),
) (*dynamodb.ExecuteStatementOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.execErr != nil {
		return nil, f.execErr
	}

	f.statements = append(f.statements, params)
	return &dynamodb.ExecuteStatementOutput{}, nil
}

// DescribeTable fails with the queued errors in order, then succeeds.
func (f *fakeDynamo) DescribeTable(
	context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options),
) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.describes++
	if len(f.describeErr) > 0 {
		err := f.describeErr[0]
		f.describeErr = f.describeErr[1:]
		return nil, err
	}

	return &dynamodb.DescribeTableOutput{}, nil
}

// fakeSQS is an in-memory queue.
type fakeSQS struct {
	mu         sync.Mutex
	sent       []*sqs.SendMessageInput
	deleted    []string
	receive    []*sqs.ReceiveMessageOutput
	receiveErr error
	sendErr    error
	received   chan struct{}
}

func (f *fakeSQS) SendMessage(
	_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options),
) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return nil, f.sendErr
	}

	f.sent = append(f.sent, params)
	return &sqs.SendMessageOutput{}, nil
}

// ReceiveMessage hands out the queued outputs and then blocks until ctx is done.
func (f *fakeSQS) ReceiveMessage(
	ctx context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options),
) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	if f.receiveErr != nil {
		err := f.receiveErr
		f.receiveErr = nil
		f.mu.Unlock()
		return nil, err
	}

	if len(f.receive) > 0 {
		out := f.receive[0]
		f.receive = f.receive[1:]
		f.mu.Unlock()
		return out, nil
	}
	f.mu.Unlock()

	if f.received != nil {
		select {
		case f.received <- struct{}{}:
		default:
		}
	}

	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeSQS) DeleteMessage(
	_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options),
) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, *params.ReceiptHandle)
	return &sqs.DeleteMessageOutput{}, nil
}

// recordingSink keeps every published message.
type recordingSink struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (s *recordingSink) Publish(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.msgs = append(s.msgs, msg)
	return s.err
}

func (s *recordingSink) messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Message(nil), s.msgs...)
}

// memStore records statements and their arguments.
type memStore struct {
	mu    sync.Mutex
	stmts []string
	args  [][]any
	err   error
}

func (s *memStore) Exec(_ context.Context, stmt string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	s.stmts = append(s.stmts, stmt)
	s.args = append(s.args, args)
	return nil
}
