package bwalk

import (
	"context"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const tracerName = "github.com/advdv/bwalk"

// ServerOptions configure a [Server]. The zero value serves with the defaults.
type ServerOptions struct {
	// ReadBufferSize is the size of the single read a request must fit in. Defaults to
	// [DefaultReadBufferSize].
	ReadBufferSize int

	// ConnTimeout bounds the handling of one connection, reads and writes included. Zero means
	// no deadline.
	ConnTimeout time.Duration

	// MaxConns bounds the number of connections served at the same time. Zero means no bound.
	MaxConns int

	// AcceptRate limits how many connections are accepted per second, with AcceptBurst
	// connections accepted at once. Zero means no limit.
	AcceptRate  rate.Limit
	AcceptBurst int

	// LegacyHops selects the older hop accounting, see [Walker].
	LegacyHops bool

	// TracerProvider creates the spans of connections and node actions. Defaults to a no-op
	// provider.
	TracerProvider trace.TracerProvider

	// Propagator extracts the trace context from request headers. Defaults to W3C trace context.
	Propagator propagation.TextMapPropagator
}

// Server is the connection entry point: it reads one request per connection, walks the dispatch
// tree with it and closes the connection. The tree and the store are shared by all connections.
type Server[T any] struct {
	root  Node[T]
	store Store
	logs  Logger
	opts  ServerOptions

	tracer     trace.Tracer
	propagator propagation.TextMapPropagator

	middlewares struct {
		captured atomic.Bool
		buffered []Middleware[T]
	}

	walkerOnce sync.Once
	walker     *Walker[T]
}

// NewServer creates a server with default options that logs to the standard logger.
func NewServer[T any](root Node[T], store Store) *Server[T] {
	return NewServerWith(root, store, NewStdLogger(log.Default()), ServerOptions{})
}

// NewServerWith creates a server with custom settings. It panics when LegacyHops is set for a
// [Route] tree.
func NewServerWith[T any](root Node[T], store Store, logs Logger, opts ServerOptions) *Server[T] {
	if _, ok := root.(*Route[T]); ok && opts.LegacyHops {
		panic("bwalk: LegacyHops cannot walk a route tree")
	}

	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = DefaultReadBufferSize
	}

	if opts.AcceptBurst < 1 {
		opts.AcceptBurst = 1
	}

	if opts.TracerProvider == nil {
		opts.TracerProvider = noop.NewTracerProvider()
	}

	if opts.Propagator == nil {
		opts.Propagator = propagation.TraceContext{}
	}

	return &Server[T]{
		root:       root,
		store:      store,
		logs:       logs,
		opts:       opts,
		tracer:     opts.TracerProvider.Tracer(tracerName),
		propagator: opts.Propagator,
	}
}

// Use allows providing of middleware that wraps every node action.
func (s *Server[T]) Use(mw ...Middleware[T]) {
	if s.middlewares.captured.Load() {
		panic("bwalk: cannot call Use() after the server started serving")
	}

	s.middlewares.buffered = append(s.middlewares.buffered, mw...)
}

// Accept errors that time out are retried after a delay that doubles up to maxAcceptDelay.
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Serve accepts connections from ln and serves each of them on its own goroutine until ctx is
// cancelled, it then closes ln and waits for the connections in flight. A failing connection
// never stops the loop. Serve returns nil after cancellation and an [IOError] when accepting
// fails for another reason.
func (s *Server[T]) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	var conns errgroup.Group
	if s.opts.MaxConns > 0 {
		conns.SetLimit(s.opts.MaxConns)
	}

	var limiter *rate.Limiter
	if s.opts.AcceptRate > 0 {
		limiter = rate.NewLimiter(s.opts.AcceptRate, s.opts.AcceptBurst)
	}

	// connections run to completion, cancelling ctx only stops accepting new ones.
	connCtx := context.WithoutCancel(ctx)

	var acceptDelay time.Duration
	for {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				_ = conns.Wait()
				if ctx.Err() != nil {
					return nil
				}

				return errors.Wrap(err, "bwalk: waiting for accept limiter")
			}
		}

		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				_ = conns.Wait()
				return nil
			}

			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				acceptDelay = min(max(2*acceptDelay, minAcceptDelay), maxAcceptDelay)

				select {
				case <-ctx.Done():
				case <-time.After(acceptDelay):
				}

				continue
			}

			_ = conns.Wait()

			return newIOError("accept", "accepting connection", err)
		}

		acceptDelay = 0

		conns.Go(func() error {
			_ = s.ServeConn(connCtx, conn)
			return nil
		})
	}
}

// ServeConn handles exactly one request on conn and always closes it. Errors are reported to
// the logger and returned, they never affect other connections.
func (s *Server[T]) ServeConn(ctx context.Context, conn net.Conn) (err error) {
	start := time.Now()
	info := ConnInfo{ID: uuid.NewString(), Remote: remoteAddr(conn)}
	ctx = withConnID(ctx, info.ID)

	w := NewResponseWriter(conn)

	defer func() {
		_ = conn.Close()

		info.Status = w.Status()
		info.Duration = time.Since(start)

		if err != nil {
			s.logs.LogConnError(info, err)
			return
		}

		s.logs.LogServed(info)
	}()

	if s.opts.ConnTimeout > 0 {
		if err := conn.SetDeadline(start.Add(s.opts.ConnTimeout)); err != nil {
			return newIOError("deadline", "setting connection deadline", err)
		}

		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ConnTimeout)
		defer cancel()
	}

	req, err := ReadRequest[T](conn, s.opts.ReadBufferSize)
	if err != nil {
		return err
	}

	info.Method, info.Path = req.Method(), req.Path()

	ctx = s.propagator.Extract(ctx, req.Header())
	ctx, span := s.tracer.Start(ctx, string(req.Method())+" "+req.Path(),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", string(req.Method())),
			attribute.String("url.path", req.Path()),
			attribute.String("network.peer.address", info.Remote),
			attribute.String("bwalk.conn.id", info.ID),
		))
	defer span.End()

	terminal, err := s.walkerFor().Walk(ctx, s.root, req, s.store, w, Segments(req.Path()))
	if terminal != nil {
		info.Terminal = describe(terminal)
	}

	if err != nil {
		_ = w.Flush()

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return err
	}

	if w.Written() == 0 {
		if err := Respond(w, http.StatusOK, struct{}{}); err != nil {
			s.logs.LogImplicitWriteError(info, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			return err
		}
	}

	if err := w.Flush(); err != nil {
		return newIOError("flush", "flushing response", err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", w.Status()))

	return nil
}

// walkerFor builds the walker on first use, after which no more middleware can be added.
func (s *Server[T]) walkerFor() *Walker[T] {
	s.walkerOnce.Do(func() {
		s.middlewares.captured.Store(true)
		s.walker = &Walker[T]{
			LegacyHops: s.opts.LegacyHops,
			Middleware: append([]Middleware[T]{s.traceAction}, s.middlewares.buffered...),
		}
	})

	return s.walker
}

// traceAction runs every node action in a span of its own.
func (s *Server[T]) traceAction(next Action[T]) Action[T] {
	return func(ctx context.Context, req *Request[T], store Store, w ResponseWriter) error {
		hop, _ := HopFromContext(ctx)

		ctx, span := s.tracer.Start(ctx, "bwalk.action "+hop.Node, trace.WithAttributes(
			attribute.String("bwalk.hop.path", hop.Path),
			attribute.Int("bwalk.hop.depth", hop.Depth),
		))
		defer span.End()

		if err := next(ctx, req, store, w); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			return err
		}

		return nil
	}
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}

	return ""
}

var _ propagation.TextMapCarrier = Header{}
