package props

import (
	"fmt"
	"math"
	"strconv"

	"github.com/pauldmccarthy/fsleyes-props/pkg/callqueue"
	"github.com/pauldmccarthy/fsleyes-props/pkg/propval"
)

// Property is a typed property declaration: the name, default value,
// conversion/validation behaviour and constraint attributes of one property,
// independent of any owning instance. A PropertySet instantiates one value
// container per declaration.
type Property struct {
	name         string
	defaultValue any
	cast         propval.CastFunc
	validate     propval.ValidateFunc
	equals       propval.EqualsFunc
	allowInvalid bool
	attributes   map[string]any

	// item is non-nil for list-valued declarations and describes the
	// per-item behaviour.
	item *Property
	// build overrides container construction for list-valued kinds.
	build func(p *Property, context any, queue *callqueue.Queue) (propval.Container, error)
}

// Name returns the declared property name.
func (p *Property) Name() string { return p.name }

// Default returns the declared default value.
func (p *Property) Default() any { return p.defaultValue }

// IsList reports whether the declaration produces a list container.
func (p *Property) IsList() bool { return p.item != nil }

// instantiate creates the value container for one owning instance.
func (p *Property) instantiate(context any, queue *callqueue.Queue) (propval.Container, error) {
	if p.build != nil {
		return p.build(p, context, queue)
	}
	if p.item != nil {
		return p.instantiateList(context, queue)
	}
	return propval.New(context, propval.Options{
		Name:         p.name,
		Value:        p.defaultValue,
		Cast:         p.cast,
		Validate:     p.validate,
		Equals:       p.equals,
		AllowInvalid: p.allowInvalid,
		Attributes:   p.attributes,
		Queue:        queue,
	}), nil
}

func (p *Property) instantiateList(context any, queue *callqueue.Queue) (*propval.List, error) {
	values, _ := p.defaultValue.([]any)
	return propval.NewList(context, propval.ListOptions{
		Name:             p.name,
		Values:           values,
		ItemCast:         p.item.cast,
		ItemValidate:     p.item.validate,
		ItemEquals:       p.item.equals,
		ItemAllowInvalid: p.item.allowInvalid,
		ListValidate:     p.validate,
		ListAttributes:   p.attributes,
		ItemAttributes:   p.item.attributes,
		Queue:            queue,
	})
}

// toFloat coerces numeric and string inputs to a float64.
func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		return strconv.ParseFloat(v, 64)
	}
	return 0, fmt.Errorf("cannot interpret %T as a number", value)
}

// toInt coerces numeric and string inputs to an int. Fractional inputs are
// rejected rather than truncated.
func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case string:
		return strconv.Atoi(v)
	}
	f, err := toFloat(value)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%v is not an integer", value)
	}
	return int(f), nil
}

// clampNumber applies the minval/maxval attributes when the clamped
// attribute is set.
func clampNumber(attrs map[string]any, f float64) float64 {
	clamped, _ := attrs[AttrClamped].(bool)
	if !clamped {
		return f
	}
	if min, ok := numberAttr(attrs, AttrMinVal); ok && f < min {
		return min
	}
	if max, ok := numberAttr(attrs, AttrMaxVal); ok && f > max {
		return max
	}
	return f
}

// numberAttr reads a numeric attribute, tolerating any numeric type.
func numberAttr(attrs map[string]any, name string) (float64, bool) {
	a, ok := attrs[name]
	if !ok || a == nil {
		return 0, false
	}
	f, err := toFloat(a)
	if err != nil {
		return 0, false
	}
	return f, true
}

// checkRange validates a number against the minval/maxval attributes.
func checkRange(attrs map[string]any, f float64) error {
	if min, ok := numberAttr(attrs, AttrMinVal); ok && f < min {
		return fmt.Errorf("must be at least %v", min)
	}
	if max, ok := numberAttr(attrs, AttrMaxVal); ok && f > max {
		return fmt.Errorf("must be at most %v", max)
	}
	return nil
}
