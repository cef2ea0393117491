// Package ninotest provides test helpers for nino applications.
//
// It constructs the identical DI graph as [nino.NewApp] but uses
// [fxtest.App] which fails the test immediately on DI errors.
//
// Example:
//
//	ninotest.SetBaseEnv(t, 18081)
//	app := ninotest.New[nino.BaseEnvironment](t, nino.NewTree)
//	app.RequireStart()
//	t.Cleanup(app.RequireStop)
package ninotest

import (
	"testing"

	"github.com/advdv/bwalk/nino"
	"go.uber.org/fx/fxtest"
)

// App embeds *fxtest.App for testing nino applications.
type App struct {
	*fxtest.App
}

// New creates a test app with the same DI graph as [nino.NewApp].
func New[E nino.Environment](t testing.TB, tree any, opts ...nino.Option) *App {
	return &App{App: fxtest.New(t, nino.FxOptions[E](tree, opts...)...)}
}
