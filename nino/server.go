package nino

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/advdv/bwalk"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Server is the connection server of the app.
type Server = bwalk.Server[Body]

// ServerParams holds the dependencies for creating the server.
type ServerParams struct {
	fx.In

	Env        Environment
	Tree       *Tree
	Store      bwalk.Store
	Logger     *zap.Logger
	Metrics    *Metrics
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
}

// NewServer creates the server with its middleware and tracing configured.
func NewServer(params ServerParams) *Server {
	opts := params.Env.serverOptions()
	opts.TracerProvider = params.TracerProv
	opts.Propagator = params.Propagator

	srv := bwalk.NewServerWith[Body](params.Tree, params.Store,
		newZapBWalkLogger(params.Logger, params.Metrics), opts)
	srv.Use(withRequestDep(&requestDep{logger: params.Logger}))

	return srv
}

// startServerHook registers lifecycle hooks for the server. The listener only opens once the
// store is ready.
func startServerHook(lc fx.Lifecycle, env Environment, srv *Server, store bwalk.Store, logger *zap.Logger) {
	var (
		cancel context.CancelFunc
		done   = make(chan error, 1)
	)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := waitForStore(ctx, store, env.storeConfig().ConnectAttempts, logger); err != nil {
				return err
			}

			addr := fmt.Sprintf(":%d", env.port())

			var lcfg net.ListenConfig
			ln, err := lcfg.Listen(ctx, "tcp", addr)
			if err != nil {
				return err
			}

			logger.Info("starting server", zap.String("addr", ln.Addr().String()))

			var serveCtx context.Context
			serveCtx, cancel = context.WithCancel(context.Background())
			go func() {
				done <- srv.Serve(serveCtx, ln)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping server")
			cancel()

			select {
			case err := <-done:
				if err != nil {
					logger.Error("server error", zap.Error(err))
				}
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

// MetricsParams holds the dependencies of the metrics server.
type MetricsParams struct {
	fx.In

	Env        Environment
	Metrics    *Metrics
	Logger     *zap.Logger
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
}

// startMetricsHook serves /metrics on NINO_METRICS_PORT when it is set.
func startMetricsHook(lc fx.Lifecycle, params MetricsParams) {
	env, logger := params.Env, params.Logger
	if env.metricsPort() == 0 {
		return
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", env.metricsPort()),
		Handler:           newMetricsHandler(params.Metrics, params.TracerProv, params.Propagator),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting metrics server", zap.String("addr", server.Addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping metrics server")
			return server.Shutdown(ctx)
		},
	})
}

// newMetricsHandler routes /metrics and traces every scrape.
func newMetricsHandler(metrics *Metrics, tp trace.TracerProvider, prop propagation.TextMapPropagator) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler())

	return otelhttp.NewHandler(mux, "metrics",
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithPropagators(prop),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
