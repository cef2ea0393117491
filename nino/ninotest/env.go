package ninotest

import (
	"strconv"
	"testing"
)

// Env provides a chainable builder for setting [nino.BaseEnvironment] env vars
// via t.Setenv. Create one with [SetBaseEnv].
type Env struct {
	t testing.TB
}

// SetBaseEnv sets all [nino.BaseEnvironment] env vars to sensible test defaults.
// Port is required because each test must use a unique port to avoid collisions.
//
// Defaults:
//   - NINO_SERVICE_NAME: "test"
//   - NINO_OTEL_EXPORTER: "none"
//   - AWS_REGION: "us-east-1"
//   - AWS_ACCESS_KEY_ID: "test"
//   - AWS_SECRET_ACCESS_KEY: "test"
//   - BROKER_QUEUE_URL: "" (messages are dropped)
//   - BROKER_QUEUE_URL_SECRET: ""
//
// Use the returned [Env] to override individual values:
//
//	ninotest.SetBaseEnv(t, 18085).AWSRegion("eu-west-1").ConnTimeout("1s")
func SetBaseEnv(t testing.TB, port int) *Env {
	t.Helper()
	t.Setenv("SELF_PORT", strconv.Itoa(port))
	t.Setenv("NINO_SERVICE_NAME", "test")
	t.Setenv("NINO_OTEL_EXPORTER", "none")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("BROKER_QUEUE_URL", "")
	t.Setenv("BROKER_QUEUE_URL_SECRET", "")
	return &Env{t: t}
}

// ServiceName overrides NINO_SERVICE_NAME.
func (e *Env) ServiceName(name string) *Env {
	e.t.Helper()
	e.t.Setenv("NINO_SERVICE_NAME", name)
	return e
}

// AWSRegion overrides AWS_REGION.
func (e *Env) AWSRegion(region string) *Env {
	e.t.Helper()
	e.t.Setenv("AWS_REGION", region)
	return e
}

// StoreTable overrides STORE_TABLE.
func (e *Env) StoreTable(table string) *Env {
	e.t.Helper()
	e.t.Setenv("STORE_TABLE", table)
	return e
}

// ConnTimeout overrides NINO_CONN_TIMEOUT.
func (e *Env) ConnTimeout(d string) *Env {
	e.t.Helper()
	e.t.Setenv("NINO_CONN_TIMEOUT", d)
	return e
}

// QueueURL overrides BROKER_QUEUE_URL.
func (e *Env) QueueURL(url string) *Env {
	e.t.Helper()
	e.t.Setenv("BROKER_QUEUE_URL", url)
	return e
}
