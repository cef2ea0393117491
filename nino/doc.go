// Package nino wires the ninoverse service: a [bwalk] server backed by a DynamoDB store, a
// broker on SQS and the usual logging, metrics and tracing.
//
// # Overview
//
// A complete process is created in a single call:
//
//	nino.NewApp[nino.BaseEnvironment](nino.NewTree).Run()
//
// The tree constructor is provided to fx like any other constructor, so it can ask for
// [*Handlers] or anything registered with [WithFx] and [WithAWSClient].
//
// # Environment Configuration
//
// Define your environment by embedding [BaseEnvironment]:
//
//	type Env struct {
//	    nino.BaseEnvironment
//	    ArchiveBucket string `env:"ARCHIVE_BUCKET,required"`
//	}
//
// BaseEnvironment provides the following environment variables:
//
//	| Variable                     | Required | Default      | Description                                   |
//	|------------------------------|----------|--------------|-----------------------------------------------|
//	| SELF_PORT                    | No       | 7878         | TCP port the server listens on                |
//	| AWS_REGION                   | Yes      | -            | Region of the store and, by default, the queue|
//	| NINO_SERVICE_NAME            | No       | ninoverse    | Service name for tracing                      |
//	| NINO_LOG_LEVEL               | No       | info         | Log level (debug, info, warn, error)          |
//	| NINO_OTEL_EXPORTER           | No       | stdout       | Trace exporter: stdout, xrayudp or none       |
//	| NINO_PROPAGATOR              | No       | tracecontext | "tracecontext" or "xray", xray for xrayudp    |
//	| NINO_READ_BUFFER_SIZE        | No       | 1024         | Size of the single request read               |
//	| NINO_CONN_TIMEOUT            | No       | 0s           | Deadline per connection, 0 disables it        |
//	| NINO_MAX_CONNS               | No       | 0            | Concurrent connections, 0 is unlimited        |
//	| NINO_ACCEPT_RATE             | No       | 0            | Accepted connections per second, 0 unlimited  |
//	| NINO_ACCEPT_BURST            | No       | 1            | Burst of the accept rate                      |
//	| NINO_METRICS_PORT            | No       | 0            | Serve /metrics on this port when set          |
//	| STORE_TABLE                  | No       | projects     | DynamoDB table projects are written to        |
//	| STORE_CONNECT_ATTEMPTS       | No       | 5            | Store pings before startup fails              |
//	| BROKER_QUEUE_URL             | No       | -            | SQS queue messages are published to           |
//	| BROKER_QUEUE_URL_SECRET      | No       | -            | Secret holding the queue url                  |
//	| BROKER_QUEUE_URL_SECRET_PATH | No       | -            | gjson path of the url inside the secret       |
//	| BROKER_REGION                | No       | AWS_REGION   | Region of the queue                           |
//	| BROKER_CONSUME               | No       | true         | Consume and log the queue in this process     |
//
// Without a queue url the broker drops every message.
//
// # Routes
//
// [NewTree] serves:
//
//	/             GET publishes "Received a message!" as base_endpoint
//	/project/add  POST, stores a project and publishes project_add
//	/echo         answers with the request body
//	/hey          GET, answers "Hey there!"
//
// Every other path answers 404 with "No endpoint available.".
//
// # Logging and Tracing
//
// [Log] returns a zap logger that carries the connection id, the hop of the walk and the trace
// of the current action. Each connection is a server span and every action a child span.
// Incoming trace context is read from the request headers with the configured propagator and
// handed on to AWS calls through otelaws.
//
// # Testing
//
// The ninotest package builds the same DI graph on top of fxtest. Swap the store or the broker
// with fx.Decorate:
//
//	ninotest.SetBaseEnv(t, 18090)
//	app := ninotest.New[nino.BaseEnvironment](t, nino.NewTree,
//	    nino.WithFx(fx.Decorate(func() bwalk.Store { return store })))
//	app.RequireStart()
//	t.Cleanup(app.RequireStop)
package nino
