package nino

import (
	"time"

	"github.com/advdv/bwalk"
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

// Environment is the configuration of a ninoverse process. Custom environments get it by
// embedding [BaseEnvironment].
type Environment interface {
	port() int
	serviceName() string
	logLevel() zapcore.Level
	otelExporter() string
	propagator() string
	awsRegion() string
	brokerRegion() string
	metricsPort() int
	serverOptions() bwalk.ServerOptions
	storeConfig() StoreConfig
	brokerConfig() BrokerConfig
}

// BaseEnvironment contains the environment variables every ninoverse process reads.
type BaseEnvironment struct {
	Port         int           `env:"SELF_PORT" envDefault:"7878"`
	ServiceName  string        `env:"NINO_SERVICE_NAME" envDefault:"ninoverse"`
	LogLevel     zapcore.Level `env:"NINO_LOG_LEVEL" envDefault:"info"`
	OtelExporter string        `env:"NINO_OTEL_EXPORTER" envDefault:"stdout"`
	Propagator   string        `env:"NINO_PROPAGATOR"`
	AWSRegion    string        `env:"AWS_REGION,required"`

	// Connection handling, see [bwalk.ServerOptions]. Zero values disable the limit.
	ReadBufferSize int           `env:"NINO_READ_BUFFER_SIZE" envDefault:"1024"`
	ConnTimeout    time.Duration `env:"NINO_CONN_TIMEOUT" envDefault:"0s"`
	MaxConns       int           `env:"NINO_MAX_CONNS" envDefault:"0"`
	AcceptRate     float64       `env:"NINO_ACCEPT_RATE" envDefault:"0"`
	AcceptBurst    int           `env:"NINO_ACCEPT_BURST" envDefault:"1"`

	// MetricsPort serves /metrics when set.
	MetricsPort int `env:"NINO_METRICS_PORT" envDefault:"0"`

	StoreTable           string `env:"STORE_TABLE" envDefault:"projects"`
	StoreConnectAttempts int    `env:"STORE_CONNECT_ATTEMPTS" envDefault:"5"`

	// The queue is either given directly or read from a secret, optionally at a gjson path.
	BrokerQueueURL           string `env:"BROKER_QUEUE_URL"`
	BrokerQueueURLSecret     string `env:"BROKER_QUEUE_URL_SECRET"`
	BrokerQueueURLSecretPath string `env:"BROKER_QUEUE_URL_SECRET_PATH"`
	BrokerRegion             string `env:"BROKER_REGION"`
	BrokerConsume            bool   `env:"BROKER_CONSUME" envDefault:"true"`
}

func (e BaseEnvironment) port() int {
	return e.Port
}

func (e BaseEnvironment) serviceName() string {
	return e.ServiceName
}

func (e BaseEnvironment) logLevel() zapcore.Level {
	return e.LogLevel
}

func (e BaseEnvironment) otelExporter() string {
	return e.OtelExporter
}

func (e BaseEnvironment) propagator() string {
	return e.Propagator
}

func (e BaseEnvironment) awsRegion() string {
	return e.AWSRegion
}

func (e BaseEnvironment) brokerRegion() string {
	return e.BrokerRegion
}

func (e BaseEnvironment) metricsPort() int {
	return e.MetricsPort
}

func (e BaseEnvironment) serverOptions() bwalk.ServerOptions {
	return bwalk.ServerOptions{
		ReadBufferSize: e.ReadBufferSize,
		ConnTimeout:    e.ConnTimeout,
		MaxConns:       e.MaxConns,
		AcceptRate:     rate.Limit(e.AcceptRate),
		AcceptBurst:    e.AcceptBurst,
	}
}

func (e BaseEnvironment) storeConfig() StoreConfig {
	return StoreConfig{Table: e.StoreTable, ConnectAttempts: e.StoreConnectAttempts}
}

func (e BaseEnvironment) brokerConfig() BrokerConfig {
	return BrokerConfig{
		QueueURL:           e.BrokerQueueURL,
		QueueURLSecret:     e.BrokerQueueURLSecret,
		QueueURLSecretPath: e.BrokerQueueURLSecretPath,
		Consume:            e.BrokerConsume,
	}
}

var _ Environment = BaseEnvironment{}

// ParseEnv returns an fx constructor that reads E from the process environment.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}
		return e, nil
	}
}
