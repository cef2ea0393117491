package nino_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/advdv/bwalk"
	"github.com/advdv/bwalk/nino"
	"github.com/advdv/bwalk/nino/ninotest"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

type recordingStore struct {
	mu    sync.Mutex
	stmts []string
}

func (s *recordingStore) Exec(_ context.Context, stmt string, _ ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stmts = append(s.stmts, stmt)
	return nil
}

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.stmts)
}

type recordingSink struct {
	mu   sync.Mutex
	msgs []nino.Message
}

func (s *recordingSink) Publish(_ context.Context, msg nino.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *recordingSink) senders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.msgs))
	for _, m := range s.msgs {
		out = append(out, m.Sender)
	}
	return out
}

func dial(t *testing.T, addr, raw string) string {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(raw))
	require.NoError(t, err)

	out, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(out)
}

func TestApp(t *testing.T) {
	ninotest.SetBaseEnv(t, 18791)

	store, sink := &recordingStore{}, &recordingSink{}
	app := ninotest.New[nino.BaseEnvironment](t, nino.NewTree,
		nino.WithFx(
			fx.Decorate(func() bwalk.Store { return store }),
			fx.Decorate(func() nino.Sink { return sink }),
		),
	)

	app.RequireStart()
	t.Cleanup(app.RequireStop)

	addr := "127.0.0.1:18791"

	t.Run("root only", func(t *testing.T) {
		assert.Equal(t, "HTTP/1.1 200\r\n\r\n{}", dial(t, addr, "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	})

	t.Run("project add", func(t *testing.T) {
		out := dial(t, addr, "POST /project/add HTTP/1.1\r\n\r\n"+`{"name":"Ninoverse"}`)
		assert.Contains(t, out, "HTTP/1.1 200\r\n\r\n")
		assert.Contains(t, out, `"name":"Ninoverse"`)
		assert.Equal(t, 1, store.count())
	})

	t.Run("unknown path", func(t *testing.T) {
		assert.Equal(t, "HTTP/1.1 404\r\n\r\n\"No endpoint available.\"", dial(t, addr, "GET /bogus HTTP/1.1\r\n\r\n"))
	})

	t.Run("unsupported version closes without a response", func(t *testing.T) {
		assert.Empty(t, dial(t, addr, "GET / HTTP/2.0\r\n\r\n"))
	})

	t.Run("still serving", func(t *testing.T) {
		assert.Equal(t, "HTTP/1.1 200\r\n\r\n\"Hey there!\"", dial(t, addr, "GET /hey HTTP/1.1\r\n\r\n"))
	})

	assert.Equal(t, []string{
		"base_endpoint", "project_add",
	}, sink.senders())
}

// customEnv extends the base environment with a setting of its own.
type customEnv struct {
	nino.BaseEnvironment
	Greeting string `env:"GREETING,required"`
}

func TestAppCustomTree(t *testing.T) {
	ninotest.SetBaseEnv(t, 18792)
	t.Setenv("GREETING", "Hello!")

	app := ninotest.New[customEnv](t,
		func(env customEnv, h *nino.Handlers, sm *secretsmanager.Client) *nino.Tree {
			assert.Equal(t, "eu-west-1", sm.Options().Region)

			return bwalk.Root[nino.Body](nil,
				bwalk.Leaf[nino.Body]("hey", h.Hey),
				bwalk.Leaf("greet", func(
					_ context.Context, _ *bwalk.Request[nino.Body], _ bwalk.Store, w bwalk.ResponseWriter,
				) error {
					return bwalk.Respond(w, http.StatusOK, env.Greeting)
				}),
			)
		},
		nino.WithAWSClient(func(cfg aws.Config) *secretsmanager.Client {
			return secretsmanager.NewFromConfig(cfg)
		}, nino.ForRegion(nino.FixedRegion("eu-west-1"))),
		nino.WithFx(fx.Decorate(func() bwalk.Store { return &recordingStore{} })),
	)

	app.RequireStart()
	t.Cleanup(app.RequireStop)

	assert.Equal(t, "HTTP/1.1 200\r\n\r\n\"Hello!\"", dial(t, "127.0.0.1:18792", "GET /greet HTTP/1.1\r\n\r\n"))
}

func TestNewAppStart(t *testing.T) {
	ninotest.SetBaseEnv(t, 18793)

	ctx, cancel := context.WithTimeout(t.Context(), 200*time.Millisecond)
	defer cancel()

	app := nino.NewApp[nino.BaseEnvironment](nino.NewTree,
		nino.WithFx(fx.Decorate(func() bwalk.Store { return &recordingStore{} })))
	require.NoError(t, app.Start(ctx))
}
