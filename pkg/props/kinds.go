package props

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// Constraint attribute names shared by the typed property kinds. Constraints
// live in the container's attribute map, so changing one at runtime (for
// example raising a maximum) revalidates the stored value.
const (
	AttrMinVal        = "minval"
	AttrMaxVal        = "maxval"
	AttrClamped       = "clamped"
	AttrMinLen        = "minlen"
	AttrMaxLen        = "maxlen"
	AttrChoices       = "choices"
	AttrChoiceEnabled = "choiceEnabled"
	AttrExists        = "exists"
	AttrIsFile        = "isFile"
	AttrSuffixes      = "suffixes"
	AttrMinDistance   = "minDistance"
)

// Object declares a property holding any value. Every write is treated as a
// change, so listeners are always notified, even when the same value is
// assigned twice.
func Object(name string, defaultValue any) *Property {
	return &Property{
		name:         name,
		defaultValue: defaultValue,
		equals:       func(any, any) bool { return false },
		allowInvalid: true,
	}
}

// Boolean declares a bool-valued property. Numeric and string inputs are
// coerced ("true"/"false"/"1"/"0", nonzero numbers).
func Boolean(name string, defaultValue bool) *Property {
	return &Property{
		name:         name,
		defaultValue: defaultValue,
		cast:         castBool,
	}
}

func castBool(_ any, _ map[string]any, value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	}
	if f, err := toFloat(value); err == nil {
		return f != 0, nil
	}
	return nil, fmt.Errorf("cannot interpret %T as a bool", value)
}

// NumberOptions configures Int, Real and Percentage declarations.
type NumberOptions struct {
	// Default is the initial value. If nil it is derived from Min/Max
	// (their midpoint, or whichever is set), falling back to zero.
	Default any
	// Min and Max are the valid range bounds. Either may be nil.
	Min, Max any
	// Clamped clamps assigned values into [Min, Max] instead of marking
	// them invalid.
	Clamped bool
	// AllowInvalid permits out-of-range values to be stored.
	AllowInvalid bool
}

func (o NumberOptions) defaultValue() any {
	if o.Default != nil {
		return o.Default
	}
	min, hasMin := o.Min, o.Min != nil
	max, hasMax := o.Max, o.Max != nil
	switch {
	case hasMin && hasMax:
		fmin, _ := toFloat(min)
		fmax, _ := toFloat(max)
		return (fmin + fmax) / 2
	case hasMin:
		return min
	case hasMax:
		return max
	}
	return 0
}

func (o NumberOptions) attributes() map[string]any {
	return map[string]any{
		AttrMinVal:  o.Min,
		AttrMaxVal:  o.Max,
		AttrClamped: o.Clamped,
	}
}

// Int declares an int-valued property with optional min/max constraints.
func Int(name string, opts NumberOptions) *Property {
	def := opts.defaultValue()
	if f, ok := def.(float64); ok {
		def = int(f)
	}
	return &Property{
		name:         name,
		defaultValue: def,
		cast:         castInt,
		validate:     validateInt,
		allowInvalid: opts.AllowInvalid,
		attributes:   opts.attributes(),
	}
}

func castInt(_ any, attrs map[string]any, value any) (any, error) {
	i, err := toInt(value)
	if err != nil {
		return nil, err
	}
	return int(clampNumber(attrs, float64(i))), nil
}

func validateInt(_ any, attrs map[string]any, value any) error {
	i, ok := value.(int)
	if !ok {
		return fmt.Errorf("must be an int, not %T", value)
	}
	return checkRange(attrs, float64(i))
}

// DefaultPrecision is the equality tolerance of Real properties.
const DefaultPrecision = 1e-9

// Real declares a float64-valued property. Two values within
// DefaultPrecision of each other are considered equal, so tiny floating
// point drift does not trigger notification.
func Real(name string, opts NumberOptions) *Property {
	return RealPrecision(name, DefaultPrecision, opts)
}

// RealPrecision declares a float64-valued property with an explicit
// equality tolerance.
func RealPrecision(name string, precision float64, opts NumberOptions) *Property {
	return &Property{
		name:         name,
		defaultValue: opts.defaultValue(),
		cast:         castReal,
		validate:     validateReal,
		equals:       realEquals(precision),
		allowInvalid: opts.AllowInvalid,
		attributes:   opts.attributes(),
	}
}

func castReal(_ any, attrs map[string]any, value any) (any, error) {
	f, err := toFloat(value)
	if err != nil {
		return nil, err
	}
	return clampNumber(attrs, f), nil
}

func validateReal(_ any, attrs map[string]any, value any) error {
	f, ok := value.(float64)
	if !ok {
		return fmt.Errorf("must be a float64, not %T", value)
	}
	return checkRange(attrs, f)
}

func realEquals(precision float64) func(a, b any) bool {
	return func(a, b any) bool {
		fa, aok := a.(float64)
		fb, bok := b.(float64)
		if !aok || !bok {
			return reflect.DeepEqual(a, b)
		}
		diff := fa - fb
		if diff < 0 {
			diff = -diff
		}
		return diff < precision
	}
}

// Percentage declares a Real property ranging over [0, 100] with a default
// of 50.
func Percentage(name string, opts NumberOptions) *Property {
	if opts.Min == nil {
		opts.Min = 0.0
	}
	if opts.Max == nil {
		opts.Max = 100.0
	}
	if opts.Default == nil {
		opts.Default = 50.0
	}
	return Real(name, opts)
}

// StringOptions configures String and FilePath declarations.
type StringOptions struct {
	Default string
	// MinLen and MaxLen bound the string length. Zero means unbounded.
	MinLen, MaxLen int
	AllowInvalid   bool
}

// String declares a string-valued property with optional length constraints.
func String(name string, opts StringOptions) *Property {
	attrs := map[string]any{}
	if opts.MinLen > 0 {
		attrs[AttrMinLen] = opts.MinLen
	}
	if opts.MaxLen > 0 {
		attrs[AttrMaxLen] = opts.MaxLen
	}
	return &Property{
		name:         name,
		defaultValue: opts.Default,
		cast:         castString,
		validate:     validateString,
		allowInvalid: opts.AllowInvalid,
		attributes:   attrs,
	}
}

func castString(_ any, _ map[string]any, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	}
	return fmt.Sprint(value), nil
}

func validateString(_ any, attrs map[string]any, value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("must be a string, not %T", value)
	}
	// Empty strings are exempt from the length constraints, so "unset" is
	// always representable.
	if s == "" {
		return nil
	}
	if min, ok := attrs[AttrMinLen].(int); ok && len(s) < min {
		return fmt.Errorf("must have length at least %d", min)
	}
	if max, ok := attrs[AttrMaxLen].(int); ok && len(s) > max {
		return fmt.Errorf("must have length at most %d", max)
	}
	return nil
}

// Choice declares a property whose value must be one of a fixed set. The
// first choice is the default. Individual choices can be disabled at
// runtime via DisableChoice.
func Choice(name string, choices ...any) *Property {
	var defaultValue any
	if len(choices) > 0 {
		defaultValue = choices[0]
	}
	enabled := make([]bool, len(choices))
	for i := range enabled {
		enabled[i] = true
	}
	return &Property{
		name:         name,
		defaultValue: defaultValue,
		validate:     validateChoice,
		attributes: map[string]any{
			AttrChoices:       choices,
			AttrChoiceEnabled: enabled,
		},
	}
}

func validateChoice(_ any, attrs map[string]any, value any) error {
	choices, _ := attrs[AttrChoices].([]any)
	enabled, _ := attrs[AttrChoiceEnabled].([]bool)

	if len(choices) == 0 || value == nil {
		return nil
	}
	for i, c := range choices {
		if !reflect.DeepEqual(c, value) {
			continue
		}
		if i < len(enabled) && !enabled[i] {
			return fmt.Errorf("choice is disabled (%v)", value)
		}
		return nil
	}
	return fmt.Errorf("invalid choice (%v)", value)
}

// EnableChoice re-enables a choice on a Choice-valued container.
func EnableChoice(c Settable, choice any) { setChoiceEnabled(c, choice, true) }

// DisableChoice disables a choice on a Choice-valued container. The stored
// value is revalidated, so disabling the current choice marks the container
// invalid.
func DisableChoice(c Settable, choice any) { setChoiceEnabled(c, choice, false) }

// Settable is the constraint surface the choice helpers need.
type Settable interface {
	GetAttribute(name string) (any, bool)
	SetAttribute(name string, value any)
}

func setChoiceEnabled(c Settable, choice any, state bool) {
	rawChoices, _ := c.GetAttribute(AttrChoices)
	rawEnabled, _ := c.GetAttribute(AttrChoiceEnabled)
	choices, _ := rawChoices.([]any)
	enabled, _ := rawEnabled.([]bool)

	out := make([]bool, len(choices))
	copy(out, enabled)
	for i, ch := range choices {
		if reflect.DeepEqual(ch, choice) {
			out[i] = state
		}
	}
	c.SetAttribute(AttrChoiceEnabled, out)
}

// FilePathOptions configures FilePath declarations.
type FilePathOptions struct {
	Default string
	// Exists requires the path to exist on disk.
	Exists bool
	// IsDirectory requires the path to be a directory rather than a file.
	// Only checked when Exists is set.
	IsDirectory bool
	// Suffixes lists acceptable file name suffixes. Only checked for files.
	Suffixes []string
}

// FilePath declares a string property holding a file or directory path,
// optionally required to exist.
func FilePath(name string, opts FilePathOptions) *Property {
	return &Property{
		name:         name,
		defaultValue: opts.Default,
		cast:         castString,
		validate:     validateFilePath,
		attributes: map[string]any{
			AttrExists:   opts.Exists,
			AttrIsFile:   !opts.IsDirectory,
			AttrSuffixes: opts.Suffixes,
		},
	}
}

func validateFilePath(ctx any, attrs map[string]any, value any) error {
	if err := validateString(ctx, attrs, value); err != nil {
		return err
	}
	path, _ := value.(string)
	exists, _ := attrs[AttrExists].(bool)
	if path == "" || !exists {
		return nil
	}

	info, err := os.Stat(path)
	isFile, _ := attrs[AttrIsFile].(bool)

	if isFile {
		if err != nil || info.IsDir() {
			return fmt.Errorf("must be a file (%s)", path)
		}
		suffixes, _ := attrs[AttrSuffixes].([]string)
		if len(suffixes) == 0 {
			return nil
		}
		for _, s := range suffixes {
			if strings.HasSuffix(path, s) {
				return nil
			}
		}
		return fmt.Errorf("must be a file ending in [%s] (%s)",
			strings.Join(suffixes, ","), path)
	}

	if err != nil || !info.IsDir() {
		return fmt.Errorf("must be a directory (%s)", path)
	}
	return nil
}

// ListOptions configures ListOf declarations.
type ListOptions struct {
	// Default is the initial sequence.
	Default []any
	// MinLen and MaxLen bound the list length. Zero means unbounded.
	MinLen, MaxLen int
}

// ListOf declares a list-valued property whose items behave as the given
// item declaration. Item-level casting, validation and equality come from
// the item declaration; the list as a whole is validated against the length
// constraints.
func ListOf(name string, item *Property, opts ListOptions) *Property {
	attrs := map[string]any{}
	if opts.MinLen > 0 {
		attrs[AttrMinLen] = opts.MinLen
	}
	if opts.MaxLen > 0 {
		attrs[AttrMaxLen] = opts.MaxLen
	}
	if item == nil {
		item = &Property{}
	}
	return &Property{
		name:         name,
		defaultValue: opts.Default,
		validate:     validateListLength,
		attributes:   attrs,
		item:         item,
	}
}

func validateListLength(_ any, attrs map[string]any, value any) error {
	vs, ok := value.([]any)
	if !ok {
		return fmt.Errorf("must be a []any, not %T", value)
	}
	if min, ok := attrs[AttrMinLen].(int); ok && len(vs) < min {
		return fmt.Errorf("must have length at least %d", min)
	}
	if max, ok := attrs[AttrMaxLen].(int); ok && len(vs) > max {
		return fmt.Errorf("must have length at most %d", max)
	}
	return nil
}
