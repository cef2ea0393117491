package bwalk_test

import (
	"testing"

	"github.com/advdv/bwalk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMount(t *testing.T) {
	var tr trail
	api := bwalk.Root(tr.action("api"), bwalk.Leaf("users", tr.action("users")))
	root := bwalk.Root(tr.action("root")).Mount("/v1/api", api)

	assert.Equal(t, bwalk.RouteBranch, api.Kind())
	assert.Equal(t, "api", api.Segment())
	assert.Equal(t, []string{"/", "/v1", "/v1/api", "/v1/api/users"}, bwalk.Paths(root))

	node, _, err := walk(t, &bwalk.Walker[any]{}, root, "v1", "api", "users")
	require.NoError(t, err)
	assert.Same(t, api.Children()[0], node)
	assert.Equal(t, []string{"root", "api", "users"}, []string(tr))
}

func TestMountReusesBranches(t *testing.T) {
	root := bwalk.Root[any](nil).
		Mount("/v1/a", bwalk.Leaf[any]("", nil)).
		Mount("/v1/b", bwalk.Leaf[any]("", nil))

	require.Len(t, root.Children(), 1)
	assert.Equal(t, []string{"/", "/v1", "/v1/a", "/v1/b"}, bwalk.Paths(root))
}

func TestMountPanics(t *testing.T) {
	assert.PanicsWithValue(t, "bwalk: cannot mount on the root path", func() {
		bwalk.Root[any](nil).Mount("/", bwalk.Root[any](nil))
	})

	assert.PanicsWithValue(t, `bwalk: duplicate segment "a"`, func() {
		bwalk.Root[any](nil).
			Mount("/a", bwalk.Root[any](nil)).
			Mount("/a", bwalk.Root[any](nil))
	})
}
