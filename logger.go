package bwalk

import (
	"log"
	"sync/atomic"
	"testing"
	"time"
)

// ConnInfo describes the handling of one connection.
type ConnInfo struct {
	ID       string
	Remote   string
	Method   Method
	Path     string
	Status   int
	Terminal string
	Duration time.Duration
}

// Logger can be implemented to get informed about important states.
type Logger interface {
	LogConnError(info ConnInfo, err error)
	LogImplicitWriteError(info ConnInfo, err error)
	LogServed(info ConnInfo)
}

type stdLogger struct{ *log.Logger }

func (l stdLogger) LogConnError(info ConnInfo, err error) {
	l.Logger.Printf("bwalk: conn %s from %s failed (%s): %s", info.ID, info.Remote, KindOf(err), err)
}

func (l stdLogger) LogImplicitWriteError(info ConnInfo, err error) {
	l.Logger.Printf("bwalk: conn %s: error while writing implicit response: %s", info.ID, err)
}

func (l stdLogger) LogServed(info ConnInfo) {
	l.Logger.Printf("bwalk: conn %s: %s %s -> %d (%s) in %s",
		info.ID, info.Method, info.Path, info.Status, info.Terminal, info.Duration)
}

func NewStdLogger(l *log.Logger) Logger {
	return stdLogger{l}
}

type TestLogger struct {
	tb testing.TB

	NumLogConnError          int64
	NumLogImplicitWriteError int64
	NumLogServed             int64
}

func NewTestLogger(tb testing.TB) *TestLogger {
	return &TestLogger{tb: tb}
}

func (l *TestLogger) LogConnError(info ConnInfo, err error) {
	atomic.AddInt64(&l.NumLogConnError, 1)
	l.tb.Logf("bwalk: conn %s failed (%s): %s", info.ID, KindOf(err), err)
}

func (l *TestLogger) LogImplicitWriteError(info ConnInfo, err error) {
	atomic.AddInt64(&l.NumLogImplicitWriteError, 1)
	l.tb.Logf("bwalk: conn %s: error while writing implicit response: %s", info.ID, err)
}

func (l *TestLogger) LogServed(info ConnInfo) {
	atomic.AddInt64(&l.NumLogServed, 1)
	l.tb.Logf("bwalk: conn %s: %s %s -> %d (%s)", info.ID, info.Method, info.Path, info.Status, info.Terminal)
}

var _ Logger = &TestLogger{}
