package props

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pauldmccarthy/fsleyes-props/pkg/callqueue"
	"github.com/pauldmccarthy/fsleyes-props/pkg/errors"
)

func newDemoSet(t *testing.T) *PropertySet {
	t.Helper()
	s, err := NewSet(nil, callqueue.New(),
		Boolean("enabled", true),
		Int("threads", NumberOptions{Min: 1, Max: 64, Default: 4}),
		Real("threshold", NumberOptions{Min: 0.0, Max: 1.0, Default: 0.5}),
		String("label", StringOptions{MaxLen: 16}),
		Choice("mode", "fast", "accurate"),
		ListOf("weights", Real("", NumberOptions{}), ListOptions{Default: []any{1.0}}),
		Bounds("extent", BoundsOptions{NDims: 2}),
		Point("origin", PointOptions{NDims: 2}),
	)
	require.NoError(t, err)
	return s
}

func TestNewSetInstantiatesDeclarations(t *testing.T) {
	s := newDemoSet(t)

	assert.Equal(t, []string{
		"enabled", "threads", "threshold", "label",
		"mode", "weights", "extent", "origin",
	}, s.Names(), "declaration order is preserved")

	v, err := s.Get("threads")
	require.NoError(t, err)
	assert.Equal(t, 4, v)

	v, err = s.Get("weights")
	require.NoError(t, err)
	assert.Equal(t, []any{1.0}, v)

	assert.True(t, s.Has("mode"))
	assert.False(t, s.Has("bogus"))
}

func TestNewSetRejectsDuplicates(t *testing.T) {
	_, err := NewSet(nil, callqueue.New(),
		Boolean("flag", false),
		Int("flag", NumberOptions{}),
	)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindDuplicateName))
}

func TestNewSetRejectsUnnamed(t *testing.T) {
	_, err := NewSet(nil, callqueue.New(), Int("", NumberOptions{}))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestSetGetUnknownProperty(t *testing.T) {
	s := newDemoSet(t)

	_, err := s.Get("bogus")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValueNotFound))

	err = s.Set("bogus", 1)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValueNotFound))
}

func TestSetPassThrough(t *testing.T) {
	s := newDemoSet(t)

	require.NoError(t, s.Set("threads", "8"))
	v, err := s.Get("threads")
	require.NoError(t, err)
	assert.Equal(t, 8, v)

	err = s.Set("threads", 1000)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestSetListeners(t *testing.T) {
	s := newDemoSet(t)

	var seen []any
	require.NoError(t, s.AddListener("threshold", "obs",
		func(value any, _ bool, _ any, _ string) { seen = append(seen, value) }, false))

	require.NoError(t, s.Set("threshold", 0.75))
	assert.Equal(t, []any{0.75}, seen)

	s.RemoveListener("threshold", "obs")
	require.NoError(t, s.Set("threshold", 0.25))
	assert.Len(t, seen, 1)
}

func TestSetConstraints(t *testing.T) {
	s := newDemoSet(t)

	max, err := s.GetConstraint("threads", AttrMaxVal)
	require.NoError(t, err)
	assert.Equal(t, 64, max)

	require.NoError(t, s.Set("threads", 32))
	require.NoError(t, s.SetConstraint("threads", AttrMaxVal, 16))
	assert.False(t, s.Valid("threads"), "tightening a constraint revalidates")
}

func TestSetListAccess(t *testing.T) {
	s := newDemoSet(t)

	l, err := s.List("weights")
	require.NoError(t, err)
	require.NoError(t, l.Append(2.0))

	v, err := s.Get("weights")
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0}, v)

	_, err = s.List("threads")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestSetGeometryAccess(t *testing.T) {
	s := newDemoSet(t)

	b, err := s.Bounds("extent")
	require.NoError(t, err)
	require.NoError(t, b.SetAxis(0, 0.0, 10.0))

	p, err := s.Point("origin")
	require.NoError(t, err)
	require.NoError(t, p.SetCoord(1, 3.0))

	_, err = s.Bounds("origin")
	require.Error(t, err)
	_, err = s.Point("extent")
	require.Error(t, err)
}

func TestValidateAll(t *testing.T) {
	s := newDemoSet(t)
	assert.Empty(t, s.ValidateAll())

	// Drive two properties invalid through constraint changes, which store
	// the now-invalid values rather than rejecting them.
	require.NoError(t, s.Set("threads", 32))
	require.NoError(t, s.SetConstraint("threads", AttrMaxVal, 16))
	DisableChoice(pv(t, s, "mode"), "fast")

	invalid := s.ValidateAll()
	require.Len(t, invalid, 2)
	assert.Equal(t, "threads", invalid[0].Name)
	assert.Equal(t, "mode", invalid[1].Name)
	assert.Error(t, invalid[0].Err)
}

func pv(t *testing.T, s *PropertySet, name string) Settable {
	t.Helper()
	c, err := s.Container(name)
	require.NoError(t, err)
	return c.PV()
}

func TestSetNotificationControl(t *testing.T) {
	s := newDemoSet(t)

	calls := 0
	require.NoError(t, s.AddListener("enabled", "obs",
		func(any, bool, any, string) { calls++ }, false))

	s.DisableNotification("enabled")
	require.NoError(t, s.Set("enabled", false))
	assert.Zero(t, calls)

	s.EnableNotification("enabled")
	require.NoError(t, s.Notify("enabled"))
	assert.Equal(t, 1, calls)
}

func TestContainersNamedAfterProperties(t *testing.T) {
	s := newDemoSet(t)

	for _, name := range s.Names() {
		c, err := s.Container(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.PV().Name())
	}

	// Listeners see the property name, not a generated id.
	var got string
	require.NoError(t, s.AddListener("threads", "obs",
		func(_ any, _ bool, _ any, name string) { got = name }, false))
	require.NoError(t, s.Set("threads", 8))
	assert.Equal(t, "threads", got)
}
