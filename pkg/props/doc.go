// Package props provides typed property declarations and the PropertySet
// owner object.
//
// A declaration describes one property: its name, default value, the
// cast/validate/equality behaviour of its type, and its constraint
// attributes. Declarations are plain values and can be shared; a
// PropertySet instantiates each declaration into a live propval container
// for one owning instance:
//
//	set, err := props.NewSet(nil, nil,
//	    props.Boolean("enabled", true),
//	    props.Int("threads", props.NumberOptions{Min: 1, Max: 64}),
//	    props.Choice("mode", "fast", "accurate"),
//	)
//
// Values are read and written by name through the set, with the full
// casting, validation and notification pipeline of the underlying
// containers:
//
//	err = set.Set("threads", "8") // cast from string, range-checked
//	n, _ := set.Get("threads")    // 8
//
// Constraints are ordinary container attributes, so tightening one at
// runtime revalidates the stored value and notifies listeners:
//
//	err = set.SetConstraint("threads", props.AttrMaxVal, 4)
//
// Bounds and Point properties expose their per-dimension values through
// explicit indexed accessors on *BoundsValue and *PointValue.
package props
