package nino

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/cockroachdb/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// BrokerConfig configures the broker queue.
type BrokerConfig struct {
	QueueURL           string
	QueueURLSecret     string
	QueueURLSecretPath string
	Consume            bool
}

// QueueURL is the resolved url of the broker queue, empty when no broker is configured.
type QueueURL string

// Message is what actions hand to the broker.
type Message struct {
	Sender  string
	Content string
}

// Sink is a fire-and-forget side-effect channel.
type Sink interface {
	Publish(ctx context.Context, msg Message) error
}

// SQSAPI is the part of the SQS client the broker uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(
		ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options),
	) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(
		ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options),
	) (*sqs.DeleteMessageOutput, error)
}

const (
	senderAttribute = "sender"
	messagePrefix   = "Message: "
)

// SQSSink publishes messages to an SQS queue. The sender travels as a message attribute and
// the body is the content prefixed with "Message: ".
type SQSSink struct {
	client   SQSAPI
	queueURL string
}

// NewSQSSink creates a sink for the given queue.
func NewSQSSink(client SQSAPI, queueURL string) *SQSSink {
	return &SQSSink{client: client, queueURL: queueURL}
}

// Publish sends one message.
func (s *SQSSink) Publish(ctx context.Context, msg Message) error {
	if _, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(messagePrefix + msg.Content),
		MessageAttributes: map[string]types.MessageAttributeValue{
			senderAttribute: {DataType: aws.String("String"), StringValue: aws.String(msg.Sender)},
		},
	}); err != nil {
		return errors.Wrapf(err, "send message from %q", msg.Sender)
	}

	return nil
}

// NopSink drops every message. It is used when no queue is configured.
type NopSink struct{}

func (NopSink) Publish(context.Context, Message) error { return nil }

// publish hands msg to the sink. Failures are logged and counted, never returned.
func publish(ctx context.Context, sink Sink, metrics *Metrics, msg Message) {
	err := sink.Publish(ctx, msg)
	metrics.observePublished(msg.Sender, err)

	if err != nil {
		Log(ctx).Warn("failed to publish message", zap.String("sender", msg.Sender), zap.Error(err))
	}
}

const (
	consumerWaitTime    = 20
	consumerMaxMessages = 10
)

var consumerRetryInterval = time.Second

// Consumer long-polls the queue, logs every message and deletes it.
type Consumer struct {
	client   SQSAPI
	queueURL string
	logs     *zap.Logger
	metrics  *Metrics
}

// NewConsumer creates a consumer for the given queue.
func NewConsumer(client SQSAPI, queueURL string, logs *zap.Logger, metrics *Metrics) *Consumer {
	return &Consumer{client: client, queueURL: queueURL, logs: logs.Named("consumer"), metrics: metrics}
}

// Run consumes until ctx is cancelled. Failed receives are retried after a pause.
func (c *Consumer) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := c.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}

			c.logs.Error("failed to receive messages", zap.Error(err))

			select {
			case <-ctx.Done():
				return
			case <-time.After(consumerRetryInterval):
			}
		}
	}
}

func (c *Consumer) poll(ctx context.Context) error {
	out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:                    aws.String(c.queueURL),
		MaxNumberOfMessages:         consumerMaxMessages,
		WaitTimeSeconds:             consumerWaitTime,
		MessageAttributeNames:       []string{senderAttribute},
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{types.MessageSystemAttributeNameSentTimestamp},
	})
	if err != nil {
		return errors.Wrap(err, "receive message")
	}

	for _, msg := range out.Messages {
		c.handle(ctx, msg)
	}

	return nil
}

func (c *Consumer) handle(ctx context.Context, msg types.Message) {
	var sender string
	if attr, ok := msg.MessageAttributes[senderAttribute]; ok {
		sender = aws.ToString(attr.StringValue)
	}

	fields := []zap.Field{
		zap.String("queue", c.queueURL),
		zap.String("message_id", aws.ToString(msg.MessageId)),
		zap.String("sender", sender),
		zap.String("payload", strings.TrimPrefix(aws.ToString(msg.Body), messagePrefix)),
	}

	if ts, ok := msg.Attributes[string(types.MessageSystemAttributeNameSentTimestamp)]; ok {
		fields = append(fields, zap.String("sent_timestamp", ts))
	}

	c.logs.Info("consumed message", fields...)
	c.metrics.observeConsumed()

	if _, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	}); err != nil {
		c.logs.Error("failed to delete message", zap.String("message_id", aws.ToString(msg.MessageId)), zap.Error(err))
	}
}

const queueResolveTimeout = 10 * time.Second

// provideQueueURL resolves the broker queue from the environment, reading the secret when the
// url is not given directly.
func provideQueueURL(env Environment, secrets SecretReader) (QueueURL, error) {
	cfg := env.brokerConfig()
	if cfg.QueueURL != "" || cfg.QueueURLSecret == "" {
		return QueueURL(cfg.QueueURL), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), queueResolveTimeout)
	defer cancel()

	url, err := secretFromReader(ctx, secrets, cfg.QueueURLSecret, cfg.QueueURLSecretPath)
	if err != nil {
		return "", errors.Wrap(err, "resolve broker queue url")
	}

	return QueueURL(url), nil
}

func provideSink(queue QueueURL, client *sqs.Client) Sink {
	if queue == "" {
		return NopSink{}
	}

	return NewSQSSink(client, string(queue))
}

// startConsumerHook runs the consumer for the lifetime of the app when a queue is configured.
func startConsumerHook(
	lc fx.Lifecycle, env Environment, queue QueueURL, client *sqs.Client, logger *zap.Logger, metrics *Metrics,
) {
	if queue == "" || !env.brokerConfig().Consume {
		return
	}

	consumer := NewConsumer(client, string(queue), logger, metrics)
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting consumer", zap.String("queue", string(queue)))
			wg.Add(1)
			go func() {
				defer wg.Done()
				consumer.Run(ctx)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			logger.Info("stopping consumer")
			cancel()
			wg.Wait()
			return nil
		},
	})
}
