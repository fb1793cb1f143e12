package props

import (
	"fmt"

	"github.com/pauldmccarthy/fsleyes-props/pkg/callqueue"
	"github.com/pauldmccarthy/fsleyes-props/pkg/errors"
	"github.com/pauldmccarthy/fsleyes-props/pkg/propval"
)

// maxDims is the dimension limit for Bounds and Point properties.
const maxDims = 4

// BoundsOptions configures Bounds declarations.
type BoundsOptions struct {
	// NDims is the number of dimensions, 1 to 4. Defaults to 1.
	NDims int
	// Integer stores the bound values as ints instead of float64s.
	Integer bool
	// MinDistance is the smallest allowed gap between the low and high
	// value of each dimension.
	MinDistance float64
	// Default holds 2*NDims values, (lo, hi) per dimension. Defaults to
	// [0, MinDistance] per dimension.
	Default []any
}

// Bounds declares a property representing numeric bounds in up to four
// dimensions, stored as a flat list of (lo, hi) pairs. The instantiated
// container is a *BoundsValue, which adds indexed per-dimension accessors.
func Bounds(name string, opts BoundsOptions) *Property {
	ndims := opts.NDims
	if ndims == 0 {
		ndims = 1
	}

	def := opts.Default
	if def == nil {
		def = make([]any, 0, 2*ndims)
		for i := 0; i < ndims; i++ {
			def = append(def, 0.0, opts.MinDistance)
		}
	}

	p := &Property{
		name:         name,
		defaultValue: def,
		attributes: map[string]any{
			AttrMinLen:      2 * ndims,
			AttrMaxLen:      2 * ndims,
			AttrMinDistance: opts.MinDistance,
		},
		item: boundsItem(opts.Integer),
	}
	p.validate = boundsValidate(ndims)
	p.build = func(p *Property, context any, queue *callqueue.Queue) (propval.Container, error) {
		if err := checkNDims(p.name, ndims, len(def), 2); err != nil {
			return nil, err
		}
		list, err := p.instantiateList(context, queue)
		if err != nil {
			return nil, err
		}
		return &BoundsValue{List: list, ndims: ndims}, nil
	}
	return p
}

// boundsItem is the per-value item declaration shared by Bounds and Point:
// a clamped number with no initial range limits.
func boundsItem(integer bool) *Property {
	opts := NumberOptions{Clamped: true}
	if integer {
		return Int("", opts)
	}
	return Real("", opts)
}

func boundsValidate(ndims int) propval.ValidateFunc {
	return func(ctx any, attrs map[string]any, value any) error {
		if err := validateListLength(ctx, attrs, value); err != nil {
			return err
		}
		vs, _ := value.([]any)
		minDistance, _ := numberAttr(attrs, AttrMinDistance)

		for i := 0; i < ndims && i*2+1 < len(vs); i++ {
			lo, err := toFloat(vs[i*2])
			if err != nil {
				return err
			}
			hi, err := toFloat(vs[i*2+1])
			if err != nil {
				return err
			}
			if lo > hi {
				return fmt.Errorf("low bound must not exceed high bound (dimension %d, %v - %v)", i, lo, hi)
			}
			if hi-lo < minDistance {
				return fmt.Errorf("bounds must be at least %v apart (dimension %d)", minDistance, i)
			}
		}
		return nil
	}
}

func checkNDims(name string, ndims, defLen, stride int) error {
	if ndims < 1 || ndims > maxDims {
		return errors.Errorf("props", errors.KindValidation, name,
			"only 1 to %d dimensions are supported, not %d", maxDims, ndims)
	}
	if defLen != ndims*stride {
		return errors.Errorf("props", errors.KindValidation, name,
			"%d default values are required, got %d", ndims*stride, defLen)
	}
	return nil
}

// BoundsValue wraps the list container of a Bounds property with explicit
// per-dimension accessors. The flat layout is [lo0, hi0, lo1, hi1, ...].
type BoundsValue struct {
	*propval.List

	ndims int
}

// NDims returns the number of dimensions.
func (b *BoundsValue) NDims() int { return b.ndims }

func (b *BoundsValue) checkDim(op string, dim int) error {
	if dim < 0 || dim >= b.ndims {
		return errors.Errorf(op, errors.KindValueNotFound, b.Name(),
			"dimension %d out of range for %d-dimensional bounds", dim, b.ndims)
	}
	return nil
}

// Axis returns the (lo, hi) pair of the given dimension.
func (b *BoundsValue) Axis(dim int) (lo, hi any, err error) {
	if err := b.checkDim("props.BoundsValue.Axis", dim); err != nil {
		return nil, nil, err
	}
	vs := b.Values()
	return vs[dim*2], vs[dim*2+1], nil
}

// SetAxis assigns the (lo, hi) pair of the given dimension, producing a
// single list-level notification.
func (b *BoundsValue) SetAxis(dim int, lo, hi any) error {
	if err := b.checkDim("props.BoundsValue.SetAxis", dim); err != nil {
		return err
	}
	return b.SetSlice(dim*2, []any{lo, hi})
}

// Lo returns the low bound of the given dimension.
func (b *BoundsValue) Lo(dim int) (any, error) {
	lo, _, err := b.Axis(dim)
	return lo, err
}

// Hi returns the high bound of the given dimension.
func (b *BoundsValue) Hi(dim int) (any, error) {
	_, hi, err := b.Axis(dim)
	return hi, err
}

// SetLo assigns the low bound of the given dimension.
func (b *BoundsValue) SetLo(dim int, lo any) error {
	if err := b.checkDim("props.BoundsValue.SetLo", dim); err != nil {
		return err
	}
	return b.SetSlice(dim*2, []any{lo})
}

// SetHi assigns the high bound of the given dimension.
func (b *BoundsValue) SetHi(dim int, hi any) error {
	if err := b.checkDim("props.BoundsValue.SetHi", dim); err != nil {
		return err
	}
	return b.SetSlice(dim*2+1, []any{hi})
}

// Limits returns the (min, max) value limits of the given dimension, if set.
func (b *BoundsValue) Limits(dim int) (min, max any, err error) {
	if err := b.checkDim("props.BoundsValue.Limits", dim); err != nil {
		return nil, nil, err
	}
	item := b.PropertyValueList()[dim*2]
	min, _ = item.GetAttribute(AttrMinVal)
	max, _ = item.GetAttribute(AttrMaxVal)
	return min, max, nil
}

// SetLimits assigns the (min, max) value limits of both items of the given
// dimension, so the low and high values share the same valid range.
func (b *BoundsValue) SetLimits(dim int, min, max any) error {
	if err := b.checkDim("props.BoundsValue.SetLimits", dim); err != nil {
		return err
	}
	for _, item := range b.PropertyValueList()[dim*2 : dim*2+2] {
		item.SetAttribute(AttrMinVal, min)
		item.SetAttribute(AttrMaxVal, max)
	}
	return nil
}

// PointOptions configures Point declarations.
type PointOptions struct {
	// NDims is the number of dimensions, 1 to 4. Defaults to 2.
	NDims int
	// Integer stores the coordinates as ints instead of float64s.
	Integer bool
	// Default holds NDims coordinates. Defaults to the origin.
	Default []any
}

// Point declares a property representing a point in up to four dimensions,
// stored as a list with one coordinate per dimension. The instantiated
// container is a *PointValue with indexed coordinate accessors.
func Point(name string, opts PointOptions) *Property {
	ndims := opts.NDims
	if ndims == 0 {
		ndims = 2
	}

	def := opts.Default
	if def == nil {
		def = make([]any, ndims)
		for i := range def {
			def[i] = 0.0
		}
	}

	p := &Property{
		name:         name,
		defaultValue: def,
		validate:     validateListLength,
		attributes: map[string]any{
			AttrMinLen: ndims,
			AttrMaxLen: ndims,
		},
		item: boundsItem(opts.Integer),
	}
	p.build = func(p *Property, context any, queue *callqueue.Queue) (propval.Container, error) {
		if err := checkNDims(p.name, ndims, len(def), 1); err != nil {
			return nil, err
		}
		list, err := p.instantiateList(context, queue)
		if err != nil {
			return nil, err
		}
		return &PointValue{List: list, ndims: ndims}, nil
	}
	return p
}

// PointValue wraps the list container of a Point property with explicit
// coordinate accessors.
type PointValue struct {
	*propval.List

	ndims int
}

// NDims returns the number of dimensions.
func (p *PointValue) NDims() int { return p.ndims }

func (p *PointValue) checkDim(op string, dim int) error {
	if dim < 0 || dim >= p.ndims {
		return errors.Errorf(op, errors.KindValueNotFound, p.Name(),
			"dimension %d out of range for %d-dimensional point", dim, p.ndims)
	}
	return nil
}

// Coord returns the coordinate of the given dimension.
func (p *PointValue) Coord(dim int) (any, error) {
	if err := p.checkDim("props.PointValue.Coord", dim); err != nil {
		return nil, err
	}
	return p.ValueAt(dim)
}

// SetCoord assigns the coordinate of the given dimension.
func (p *PointValue) SetCoord(dim int, value any) error {
	if err := p.checkDim("props.PointValue.SetCoord", dim); err != nil {
		return err
	}
	return p.SetSlice(dim, []any{value})
}

// SetAll assigns every coordinate at once, producing a single list-level
// notification.
func (p *PointValue) SetAll(values []any) error {
	return p.List.Set(values)
}
