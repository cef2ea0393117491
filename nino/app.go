package nino

import (
	"context"

	"github.com/advdv/bwalk"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// App is a ninoverse process: the walking server, the broker consumer and the metrics
// endpoint, started and stopped together.
type App struct {
	app *fx.App
}

// AppConfig collects what the options add to the process.
type AppConfig struct {
	FxOptions []fx.Option
}

// Option customizes an [App].
type Option func(*AppConfig)

// WithAWSClient makes an extra AWS client available to the tree constructor, talking to
// AWS_REGION unless a [ForRegion] option is given:
//
//	nino.WithAWSClient(func(cfg aws.Config) *secretsmanager.Client {
//	    return secretsmanager.NewFromConfig(cfg)
//	}, nino.ForRegion(nino.FixedRegion("eu-west-1")))
func WithAWSClient[T any](factory func(aws.Config) T, opts ...ClientOption) Option {
	return func(c *AppConfig) {
		c.FxOptions = append(c.FxOptions, AWSClientProvider(factory, opts...))
	}
}

// WithFx appends raw fx options, for instance to decorate the [bwalk.Store].
func WithFx(fxOpts ...fx.Option) Option {
	return func(c *AppConfig) {
		c.FxOptions = append(c.FxOptions, fxOpts...)
	}
}

// FxOptions returns the options that make up the DI graph of [NewApp].
//
// The tree constructor can request any types that are provided via fx options and must return
// the *Tree to serve. [NewTree] is the ninoverse tree.
func FxOptions[E Environment](tree any, opts ...Option) []fx.Option {
	var cfg AppConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	baseOpts := make([]fx.Option, 0, 24+len(cfg.FxOptions))
	baseOpts = append(baseOpts, []fx.Option{
		fx.NopLogger,
		fx.Provide(ParseEnv[E]()),
		fx.Provide(func(e E) Environment { return e }),
		fx.Provide(func(e E) (*zap.Logger, error) { return NewLogger(e) }),
		fx.Provide(NewMetrics),
		fx.Provide(NewTracerProvider),
		fx.Provide(NewPropagator),
		fx.Provide(provideAWSConfig),
		fx.Provide(func(cfg aws.Config) (SecretReader, error) {
			return NewAWSSecretReader(cfg)
		}),
		AWSClientProvider(func(cfg aws.Config) *dynamodb.Client {
			return dynamodb.NewFromConfig(cfg)
		}),
		AWSClientProvider(func(cfg aws.Config) *sqs.Client {
			return sqs.NewFromConfig(cfg)
		}, ForRegion(BrokerRegion())),
		fx.Provide(func(client *dynamodb.Client, env Environment) bwalk.Store {
			return NewDynamoStore(client, env.storeConfig())
		}),
		fx.Provide(provideQueueURL),
		fx.Provide(provideSink),
		fx.Provide(NewHandlers),
		fx.Provide(tree),
		fx.Provide(NewServer),
		fx.Invoke(startServerHook),
		fx.Invoke(startConsumerHook),
		fx.Invoke(startMetricsHook),
	}...)

	return append(baseOpts, cfg.FxOptions...)
}

// NewApp creates the ninoverse app with dependency injection.
//
// Example:
//
//	nino.NewApp[nino.BaseEnvironment](nino.NewTree).Run()
//
// A custom tree can reuse the provided handlers:
//
//	nino.NewApp[Env](func(h *nino.Handlers) *nino.Tree {
//	    return bwalk.Root[nino.Body](h.Root, bwalk.Leaf[nino.Body]("hey", h.Hey))
//	}).Run()
func NewApp[E Environment](tree any, opts ...Option) *App {
	return &App{
		app: fx.New(FxOptions[E](tree, opts...)...),
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() {
	a.app.Run()
}

// Start starts the application with the given context and stops it when the context is done.
func (a *App) Start(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.app.StopTimeout())
	defer cancel()

	return a.app.Stop(stopCtx)
}
