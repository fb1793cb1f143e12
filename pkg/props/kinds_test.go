package props

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pauldmccarthy/fsleyes-props/pkg/callqueue"
	"github.com/pauldmccarthy/fsleyes-props/pkg/errors"
	"github.com/pauldmccarthy/fsleyes-props/pkg/propval"
)

func instantiate(t *testing.T, p *Property) propval.Container {
	t.Helper()
	c, err := p.instantiate(nil, callqueue.New())
	require.NoError(t, err)
	return c
}

func TestObjectAlwaysNotifies(t *testing.T) {
	c := instantiate(t, Object("obj", "x")).PV()

	calls := 0
	require.NoError(t, c.AddListener("obs", func(any, bool, any, string) { calls++ }, false))

	// Even assigning the identical value counts as a change.
	require.NoError(t, c.Set("x"))
	require.NoError(t, c.Set("x"))

	assert.Equal(t, 2, calls)
}

func TestBooleanCast(t *testing.T) {
	c := instantiate(t, Boolean("flag", false)).PV()

	tests := []struct {
		input any
		want  bool
	}{
		{true, true},
		{"true", true},
		{"false", false},
		{1, true},
		{0, false},
		{0.0, false},
	}
	for _, tt := range tests {
		require.NoError(t, c.Set(tt.input), "input %v", tt.input)
		assert.Equal(t, tt.want, c.Get(), "input %v", tt.input)
	}

	err := c.Set("maybe")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindCast))
}

func TestIntRange(t *testing.T) {
	c := instantiate(t, Int("n", NumberOptions{Min: 0, Max: 10})).PV()
	assert.Equal(t, 5, c.Get(), "default is the midpoint of the range")

	require.NoError(t, c.Set("7"))
	assert.Equal(t, 7, c.Get())

	err := c.Set(11)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
	assert.Equal(t, 7, c.Get())

	err = c.Set(2.5)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindCast))
}

func TestIntClamped(t *testing.T) {
	c := instantiate(t, Int("n", NumberOptions{Min: 0, Max: 10, Clamped: true})).PV()

	require.NoError(t, c.Set(50))
	assert.Equal(t, 10, c.Get())

	require.NoError(t, c.Set(-3))
	assert.Equal(t, 0, c.Get())
}

func TestIntConstraintChangeRevalidates(t *testing.T) {
	c := instantiate(t, Int("n", NumberOptions{Max: 10, AllowInvalid: true})).PV()

	require.NoError(t, c.Set(8))
	require.True(t, c.Valid())

	c.SetAttribute(AttrMaxVal, 5)
	assert.False(t, c.Valid())

	c.SetAttribute(AttrMaxVal, 20)
	assert.True(t, c.Valid())
}

func TestRealPrecisionEquality(t *testing.T) {
	c := instantiate(t, Real("x", NumberOptions{Default: 1.0})).PV()

	calls := 0
	require.NoError(t, c.AddListener("obs", func(any, bool, any, string) { calls++ }, false))

	// Within the default tolerance: no change observed.
	require.NoError(t, c.Set(1.0+1e-12))
	assert.Zero(t, calls)

	require.NoError(t, c.Set(1.5))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1.5, c.Get())
}

func TestRealCastFromString(t *testing.T) {
	c := instantiate(t, Real("x", NumberOptions{})).PV()

	require.NoError(t, c.Set("2.25"))
	assert.Equal(t, 2.25, c.Get())
}

func TestPercentageDefaults(t *testing.T) {
	c := instantiate(t, Percentage("p", NumberOptions{})).PV()
	assert.Equal(t, 50.0, c.Get())

	err := c.Set(150.0)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestStringLength(t *testing.T) {
	c := instantiate(t, String("s", StringOptions{MinLen: 2, MaxLen: 5})).PV()

	require.NoError(t, c.Set("abc"))

	err := c.Set("x")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))

	err = c.Set("toolong")
	require.Error(t, err)

	// The empty string always passes so the property can be unset.
	require.NoError(t, c.Set(""))
}

func TestStringCoercesNonStrings(t *testing.T) {
	c := instantiate(t, String("s", StringOptions{})).PV()

	require.NoError(t, c.Set(42))
	assert.Equal(t, "42", c.Get())

	require.NoError(t, c.Set(nil))
	assert.Equal(t, "", c.Get())
}

func TestChoice(t *testing.T) {
	c := instantiate(t, Choice("mode", "fast", "accurate", "hybrid")).PV()
	assert.Equal(t, "fast", c.Get(), "the first choice is the default")

	require.NoError(t, c.Set("hybrid"))

	err := c.Set("bogus")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
	assert.Equal(t, "hybrid", c.Get())
}

func TestChoiceDisable(t *testing.T) {
	c := instantiate(t, Choice("mode", "fast", "accurate")).PV()

	DisableChoice(c, "accurate")
	err := c.Set("accurate")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))

	EnableChoice(c, "accurate")
	require.NoError(t, c.Set("accurate"))
}

func TestChoiceDisablingCurrentInvalidates(t *testing.T) {
	c := instantiate(t, Choice("mode", "fast", "accurate")).PV()
	require.True(t, c.Valid())

	DisableChoice(c, "fast")
	assert.False(t, c.Valid(), "disabling the current choice revalidates")
}

func TestFilePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "data.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	c := instantiate(t, FilePath("path", FilePathOptions{Exists: true})).PV()

	require.NoError(t, c.Set(file))

	err := c.Set(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))

	err = c.Set(dir)
	require.Error(t, err, "directories are rejected when a file is required")
}

func TestFilePathSuffixes(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "a.txt")
	bin := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(bin, []byte("x"), 0o644))

	c := instantiate(t, FilePath("path", FilePathOptions{
		Exists:   true,
		Suffixes: []string{".txt"},
	})).PV()

	require.NoError(t, c.Set(txt))
	require.Error(t, c.Set(bin))
}

func TestFilePathDirectory(t *testing.T) {
	dir := t.TempDir()
	c := instantiate(t, FilePath("path", FilePathOptions{
		Exists:      true,
		IsDirectory: true,
	})).PV()

	require.NoError(t, c.Set(dir))
	require.Error(t, c.Set(filepath.Join(dir, "missing")))
}

func TestListOf(t *testing.T) {
	p := ListOf("values", Int("", NumberOptions{Min: 0}), ListOptions{
		Default: []any{1, 2},
		MaxLen:  3,
	})
	c := instantiate(t, p)

	l, ok := c.(*propval.List)
	require.True(t, ok)
	assert.Equal(t, []any{1, 2}, l.Values())
	assert.True(t, l.Valid())

	// Items apply the item declaration's cast and validation.
	require.NoError(t, l.Append("3"))
	assert.Equal(t, []any{1, 2, 3}, l.Values())

	err := l.PropertyValueList()[0].Set(-1)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))

	// The length constraint is list-level validity, not a hard failure.
	require.NoError(t, l.Append(4))
	assert.False(t, l.Valid())
}

func TestBoundsAccessors(t *testing.T) {
	c := instantiate(t, Bounds("range", BoundsOptions{NDims: 2}))

	b, ok := c.(*BoundsValue)
	require.True(t, ok)
	assert.Equal(t, 2, b.NDims())
	assert.Equal(t, []any{0.0, 0.0, 0.0, 0.0}, b.Values())

	require.NoError(t, b.SetAxis(0, 1.0, 5.0))
	lo, hi, err := b.Axis(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 5.0, hi)

	require.NoError(t, b.SetHi(1, 9.0))
	hiVal, err := b.Hi(1)
	require.NoError(t, err)
	assert.Equal(t, 9.0, hiVal)

	_, _, err = b.Axis(2)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValueNotFound))
}

func TestBoundsValidation(t *testing.T) {
	c := instantiate(t, Bounds("range", BoundsOptions{NDims: 1, MinDistance: 2.0,
		Default: []any{0.0, 4.0}}))
	b := c.(*BoundsValue)
	require.True(t, b.Valid())

	// Inverted bounds are representable but invalid.
	require.NoError(t, b.SetAxis(0, 5.0, 4.0))
	assert.False(t, b.Valid())

	// Too close together under MinDistance.
	require.NoError(t, b.SetAxis(0, 1.0, 2.0))
	assert.False(t, b.Valid())

	require.NoError(t, b.SetAxis(0, 1.0, 6.0))
	assert.True(t, b.Valid())
}

func TestBoundsLimits(t *testing.T) {
	c := instantiate(t, Bounds("range", BoundsOptions{NDims: 1}))
	b := c.(*BoundsValue)

	require.NoError(t, b.SetLimits(0, 0.0, 10.0))
	min, max, err := b.Limits(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 10.0, max)

	// Items are clamped into the limits.
	require.NoError(t, b.SetHi(0, 50.0))
	hi, err := b.Hi(0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, hi)
}

func TestBoundsOneNotificationPerAxisSet(t *testing.T) {
	c := instantiate(t, Bounds("range", BoundsOptions{NDims: 2}))
	b := c.(*BoundsValue)

	calls := 0
	require.NoError(t, b.AddListener("obs", func(any, bool, any, string) { calls++ }, false))

	require.NoError(t, b.SetAxis(0, 1.0, 2.0))
	assert.Equal(t, 1, calls)
}

func TestBoundsInvalidDims(t *testing.T) {
	_, err := Bounds("range", BoundsOptions{NDims: 5}).instantiate(nil, callqueue.New())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))

	_, err = Bounds("range", BoundsOptions{NDims: 2, Default: []any{0.0, 1.0}}).
		instantiate(nil, callqueue.New())
	require.Error(t, err)
}

func TestPointAccessors(t *testing.T) {
	c := instantiate(t, Point("pos", PointOptions{NDims: 3}))

	p, ok := c.(*PointValue)
	require.True(t, ok)
	assert.Equal(t, 3, p.NDims())
	assert.Equal(t, []any{0.0, 0.0, 0.0}, p.Values())

	require.NoError(t, p.SetCoord(1, 4.0))
	v, err := p.Coord(1)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)

	require.NoError(t, p.SetAll([]any{1.0, 2.0, 3.0}))
	assert.Equal(t, []any{1.0, 2.0, 3.0}, p.Values())

	_, err = p.Coord(3)
	require.Error(t, err)
}

func TestPointInteger(t *testing.T) {
	c := instantiate(t, Point("pos", PointOptions{NDims: 2, Integer: true,
		Default: []any{0, 0}}))
	p := c.(*PointValue)

	require.NoError(t, p.SetCoord(0, "3"))
	v, err := p.Coord(0)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}
