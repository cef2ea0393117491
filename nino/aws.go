package nino

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

// ClientOption configures how [AWSClientProvider] builds a client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	region Region
}

// configFor copies base and points it at the configured region. An empty region keeps the
// region of base.
func (c clientConfig) configFor(base aws.Config, env Environment) aws.Config {
	cfg := base.Copy()
	if c.region == nil {
		return cfg
	}

	if region := c.region.resolve(env); region != "" {
		cfg.Region = region
	}

	return cfg
}

// ForRegion makes the client talk to region instead of AWS_REGION.
//
//	nino.WithAWSClient(func(cfg aws.Config) *sqs.Client {
//	    return sqs.NewFromConfig(cfg)
//	}, nino.ForRegion(nino.BrokerRegion()))
func ForRegion(region Region) ClientOption {
	return func(c *clientConfig) { c.region = region }
}

const awsConfigTimeout = 10 * time.Second

// NewAWSConfig loads the shared AWS configuration from the environment and profile files.
func NewAWSConfig(ctx context.Context) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx)
}

// provideAWSConfig loads the AWS configuration once for all clients. Every SDK call becomes a
// child span of the action that made it and carries the trace to AWS.
func provideAWSConfig(tp trace.TracerProvider, prop propagation.TextMapPropagator) (aws.Config, error) {
	ctx, cancel := context.WithTimeout(context.Background(), awsConfigTimeout)
	defer cancel()

	cfg, err := NewAWSConfig(ctx)
	if err != nil {
		return aws.Config{}, err
	}

	otelaws.AppendMiddlewares(&cfg.APIOptions,
		otelaws.WithTracerProvider(tp),
		otelaws.WithTextMapPropagator(prop))

	return cfg, nil
}

// AWSClientProvider provides the client that factory builds to the fx graph. The config handed
// to factory targets AWS_REGION unless [ForRegion] says otherwise. The store and broker
// clients of the app are registered this way.
func AWSClientProvider[T any](factory func(aws.Config) T, opts ...ClientOption) fx.Option {
	cc := clientConfig{region: LocalRegion()}
	for _, opt := range opts {
		opt(&cc)
	}

	return fx.Provide(func(base aws.Config, env Environment) T {
		return factory(cc.configFor(base, env))
	})
}
