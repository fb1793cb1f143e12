package syncable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pauldmccarthy/fsleyes-props/pkg/callqueue"
	"github.com/pauldmccarthy/fsleyes-props/pkg/errors"
	"github.com/pauldmccarthy/fsleyes-props/pkg/props"
)

// newDisplaySet builds the property set used throughout these tests. All
// sets in one test share a queue, as bound containers must.
func newDisplaySet(t *testing.T, q *callqueue.Queue) *props.PropertySet {
	t.Helper()
	s, err := props.NewSet(nil, q,
		props.Boolean("visible", true),
		props.Real("brightness", props.NumberOptions{Min: 0.0, Max: 100.0, Default: 50.0}),
		props.Choice("interp", "nearest", "linear"),
	)
	require.NoError(t, err)
	return s
}

func newFamily(t *testing.T, opts Options) (*Syncable, *Syncable) {
	t.Helper()
	q := callqueue.New()
	parent, err := New(newDisplaySet(t, q), nil, Options{})
	require.NoError(t, err)
	child, err := New(newDisplaySet(t, q), parent, opts)
	require.NoError(t, err)
	return parent, child
}

func TestChildStartsSynced(t *testing.T) {
	parent, child := newFamily(t, Options{})

	for _, name := range child.Set().Names() {
		assert.True(t, child.IsSyncedToParent(name), name)
	}
	assert.Equal(t, []*Syncable{child}, parent.Children())
	assert.Same(t, parent, child.Parent())
}

func TestParentChangePropagatesToChild(t *testing.T) {
	parent, child := newFamily(t, Options{})

	require.NoError(t, parent.Set().Set("brightness", 75.0))

	v, err := child.Set().Get("brightness")
	require.NoError(t, err)
	assert.Equal(t, 75.0, v)
}

func TestChildChangePropagatesToParent(t *testing.T) {
	parent, child := newFamily(t, Options{})

	require.NoError(t, child.Set().Set("interp", "linear"))

	v, err := parent.Set().Get("interp")
	require.NoError(t, err)
	assert.Equal(t, "linear", v)
}

func TestInitialBindPushesParentState(t *testing.T) {
	q := callqueue.New()
	parentSet := newDisplaySet(t, q)
	require.NoError(t, parentSet.Set("brightness", 80.0))
	parent, err := New(parentSet, nil, Options{})
	require.NoError(t, err)

	childSet := newDisplaySet(t, q)
	child, err := New(childSet, parent, Options{})
	require.NoError(t, err)

	v, err := child.Set().Get("brightness")
	require.NoError(t, err)
	assert.Equal(t, 80.0, v, "the parent pushes its state at bind time")
}

func TestUnsyncAndResync(t *testing.T) {
	parent, child := newFamily(t, Options{})

	require.NoError(t, child.UnsyncFromParent("brightness"))
	assert.False(t, child.IsSyncedToParent("brightness"))

	require.NoError(t, parent.Set().Set("brightness", 90.0))
	v, _ := child.Set().Get("brightness")
	assert.Equal(t, 50.0, v, "an unsynced property does not follow the parent")

	require.NoError(t, child.SyncToParent("brightness"))
	assert.True(t, child.IsSyncedToParent("brightness"))

	v, _ = child.Set().Get("brightness")
	assert.Equal(t, 90.0, v, "resyncing pulls the parent's current state")
}

func TestNoBind(t *testing.T) {
	parent, child := newFamily(t, Options{NoBind: []string{"visible"}})

	assert.False(t, child.IsSyncedToParent("visible"))
	assert.False(t, child.CanBeSyncedToParent("visible"))
	assert.True(t, child.IsSyncedToParent("brightness"))

	require.NoError(t, parent.Set().Set("visible", false))
	v, _ := child.Set().Get("visible")
	assert.Equal(t, true, v)

	err := child.SyncToParent("visible")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindIllegalSync))
	assert.False(t, child.IsSyncedToParent("visible"))
}

func TestNoUnbind(t *testing.T) {
	_, child := newFamily(t, Options{NoUnbind: []string{"visible"}})

	assert.False(t, child.CanBeUnsyncedFromParent("visible"))

	err := child.UnsyncFromParent("visible")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindIllegalSync))
	assert.True(t, child.IsSyncedToParent("visible"), "sync state is unchanged")
}

func TestNoParentErrors(t *testing.T) {
	parent, _ := newFamily(t, Options{})

	err := parent.SyncToParent("visible")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindIllegalSync))

	err = parent.UnsyncFromParent("visible")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindIllegalSync))
}

func TestUnknownPropertyErrors(t *testing.T) {
	_, child := newFamily(t, Options{})

	err := child.SyncToParent("bogus")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValueNotFound))
}

func TestParentMissingPropertyRejected(t *testing.T) {
	q := callqueue.New()
	small, err := props.NewSet(nil, q, props.Boolean("visible", true))
	require.NoError(t, err)
	parent, err := New(small, nil, Options{})
	require.NoError(t, err)

	_, err = New(newDisplaySet(t, q), parent, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindIllegalSync))
}

func TestSyncChangeListener(t *testing.T) {
	_, child := newFamily(t, Options{})

	var transitions []bool
	require.NoError(t, child.AddSyncChangeListener("brightness", "obs",
		func(value any, _ bool, _ any, _ string) {
			synced, _ := value.(bool)
			transitions = append(transitions, synced)
		}, false))

	require.NoError(t, child.UnsyncFromParent("brightness"))
	require.NoError(t, child.SyncToParent("brightness"))
	// Syncing an already-synced property is a no-op, not a transition.
	require.NoError(t, child.SyncToParent("brightness"))

	assert.Equal(t, []bool{false, true}, transitions)

	child.RemoveSyncChangeListener("brightness", "obs")
	require.NoError(t, child.UnsyncFromParent("brightness"))
	assert.Len(t, transitions, 2)
}

func TestMultipleChildren(t *testing.T) {
	q := callqueue.New()
	parent, err := New(newDisplaySet(t, q), nil, Options{})
	require.NoError(t, err)

	c1, err := New(newDisplaySet(t, q), parent, Options{})
	require.NoError(t, err)
	c2, err := New(newDisplaySet(t, q), parent, Options{})
	require.NoError(t, err)
	assert.Len(t, parent.Children(), 2)

	require.NoError(t, parent.Set().Set("brightness", 10.0))

	v1, _ := c1.Set().Get("brightness")
	v2, _ := c2.Set().Get("brightness")
	assert.Equal(t, 10.0, v1)
	assert.Equal(t, 10.0, v2)

	// Changes propagate between siblings through the parent.
	require.NoError(t, c1.Set().Set("brightness", 20.0))
	vp, _ := parent.Set().Get("brightness")
	v2, _ = c2.Set().Get("brightness")
	assert.Equal(t, 20.0, vp)
	assert.Equal(t, 20.0, v2)
}

func TestDetachFromParent(t *testing.T) {
	parent, child := newFamily(t, Options{NoUnbind: []string{"visible"}})

	child.DetachFromParent()

	assert.Nil(t, child.Parent())
	assert.Empty(t, parent.Children())
	assert.False(t, child.IsSyncedToParent("brightness"))

	require.NoError(t, parent.Set().Set("brightness", 5.0))
	v, _ := child.Set().Get("brightness")
	assert.Equal(t, 50.0, v)

	// Permanently-bound properties stay bound through a detach.
	require.NoError(t, parent.Set().Set("visible", false))
	vv, _ := child.Set().Get("visible")
	assert.Equal(t, false, vv)

	// Detaching twice is a no-op.
	child.DetachFromParent()
}
