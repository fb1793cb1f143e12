// Package propval provides observable, validated property value containers
// and cross-instance binding between them.
//
// This package defines the foundational types of the props framework:
// Value, List, and the Bind/Unbind operations. A container holds one value
// (or an ordered sequence of item containers), casts and validates inputs
// through functions supplied at construction, and notifies registered
// listeners of value and validity changes through a shared notification
// queue.
//
// # Values
//
// A Value encapsulates a single property value:
//
//	v := propval.New(owner, propval.Options{
//	    Name:     "threshold",
//	    Value:    0.5,
//	    Validate: rejectNegative,
//	})
//	v.AddListener("display", onChange, false)
//	err := v.Set(0.9)
//
// Set casts the input, tests validity, and schedules notification only
// when the value or validity actually changed. Listeners run through the
// notification queue (see package callqueue), so a listener that itself
// sets values never recurses: nested changes are delivered after the
// current notification round completes.
//
// # Lists
//
// A List holds an ordered sequence of item Values with positional
// semantics. Structural operations (Insert, Append, Pop, Remove, Move,
// Reorder) notify list-level listeners exactly once per operation, while
// listeners registered directly on items observe only that item.
//
// # Binding
//
// Bind links two containers so changes propagate in both directions. A
// per-pair propagation guard prevents feedback loops, and bound list pairs
// maintain an item correlation map so structural changes replay precisely
// on the other side. Before a bound container's listeners are told of a
// change, the other side is brought in sync, so listeners never observe
// skewed state.
//
// Containers are not safe for concurrent use: the framework is designed
// for single-threaded, reentrant-callback usage.
package propval
