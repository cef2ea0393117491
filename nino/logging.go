package nino

import (
	"github.com/advdv/bwalk"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger configured from the environment.
// NINO_LOG_LEVEL controls the level (debug, info, warn, error).
func NewLogger(env Environment) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(env.logLevel())
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

type zapLogger struct {
	logs    *zap.Logger
	metrics *Metrics
}

func (l zapLogger) LogConnError(info bwalk.ConnInfo, err error) {
	l.metrics.observeConnError(err)
	l.logs.Error("connection failed", append(connFields(info),
		zap.Stringer("kind", bwalk.KindOf(err)),
		zap.Error(err))...)
}

func (l zapLogger) LogImplicitWriteError(info bwalk.ConnInfo, err error) {
	l.logs.Error("error while writing implicit response", append(connFields(info), zap.Error(err))...)
}

func (l zapLogger) LogServed(info bwalk.ConnInfo) {
	l.metrics.observeServed(info)
	l.logs.Info("served", connFields(info)...)
}

func connFields(info bwalk.ConnInfo) []zap.Field {
	return []zap.Field{
		zap.String("conn_id", info.ID),
		zap.String("remote", info.Remote),
		zap.String("method", string(info.Method)),
		zap.String("path", info.Path),
		zap.Int("status", info.Status),
		zap.String("terminal", info.Terminal),
		zap.Duration("duration", info.Duration),
	}
}

func newZapBWalkLogger(l *zap.Logger, m *Metrics) bwalk.Logger {
	return zapLogger{logs: l.Named("bwalk").Named("nino"), metrics: m}
}
