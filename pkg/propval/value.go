package propval

import (
	"fmt"
	"reflect"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"

	"github.com/pauldmccarthy/fsleyes-props/pkg/callqueue"
	"github.com/pauldmccarthy/fsleyes-props/pkg/errors"
)

// CastFunc converts an input into the property's canonical representation.
// It receives the container's context, its current attributes, and the raw
// value, and returns the cast value or an error if conversion is impossible.
// Cast must be idempotent: cast(cast(v)) == cast(v).
type CastFunc func(ctx any, attributes map[string]any, value any) (any, error)

// ValidateFunc tests a cast value against the container's constraints and
// returns an error describing why the value is invalid, or nil.
type ValidateFunc func(ctx any, attributes map[string]any, value any) error

// EqualsFunc reports whether two values are equal. Containers use it to
// decide whether a set() changed anything.
type EqualsFunc func(a, b any) bool

// Listener is notified of value or validity changes. It receives the new
// value, whether that value is valid, the container's context object, and
// the container name.
type Listener func(value any, valid bool, ctx any, name string)

// AttributeListener is notified when a container attribute changes. It
// receives the container's context, the attribute name, and the new
// attribute value.
type AttributeListener func(ctx any, attribute string, value any)

// Listener names reserved for the pre/post-notify hooks.
const (
	preNotifyName  = "prenotify"
	postNotifyName = "postnotify"
)

// listenerRecord holds one registered change listener. Slice position
// preserves registration order across enable/disable cycles.
type listenerRecord struct {
	name    string
	cb      Listener
	enabled bool
}

type attrListenerRecord struct {
	name string
	cb   AttributeListener
}

// Options configures a new Value.
type Options struct {
	// Name is a process-unique container name. A unique name is generated
	// if empty.
	Name string
	// Value is the initial value. It is passed through Cast, and must be
	// castable.
	Value any
	// Cast converts inputs to the canonical representation. Optional.
	Cast CastFunc
	// Validate tests cast values. Optional; if nil every value is valid.
	Validate ValidateFunc
	// Equals tests value equality. Optional; defaults to
	// reflect.DeepEqual.
	Equals EqualsFunc
	// PreNotify is called on value changes before registered listeners.
	PreNotify Listener
	// PostNotify is called on value changes after registered listeners.
	PostNotify Listener
	// AllowInvalid permits the container to store values that fail
	// validation. When false, Set rejects invalid values.
	AllowInvalid bool
	// Attributes are initial constraint/metadata key-value pairs, passed
	// to Cast and Validate.
	Attributes map[string]any
	// Queue is the notification queue. Defaults to callqueue.Default.
	// All containers that may become bound to each other must share a
	// queue, so that their notifications are delivered in one total order.
	Queue *callqueue.Queue
}

// Value encapsulates a single validated, observable property value.
//
// The stored value is always the result of casting the most recently set
// input (or the initial value). Validity is derived from the validate
// function and cached; it is recomputed whenever the value or an attribute
// changes. Listeners are notified, through the notification queue, whenever
// the value or its validity changes.
//
// Value is not safe for concurrent use. It is designed for single-threaded,
// reentrant-callback usage: listeners may freely add or remove listeners,
// or set values on this or other containers, from within their callbacks.
type Value struct {
	context  any
	name     string
	queue    *callqueue.Queue
	cast     CastFunc
	validate ValidateFunc
	equals   EqualsFunc

	preNotify  Listener
	postNotify Listener

	allowInvalid bool
	attributes   map[string]any

	listeners     []*listenerRecord
	attrListeners []*attrListenerRecord

	value        any
	valid        bool
	notification bool
	// mute skips enqueueing entirely. Internal to bulk list assignment,
	// which delivers its own coalesced notifications afterwards.
	mute bool

	// pairs holds active bindings keyed by the other endpoint. pairOrder
	// preserves bind order for deterministic propagation.
	pairs     map[*Value]*pair
	pairOrder []*pair

	// list points back to the owning List when this Value is the
	// list-level container of a List.
	list *List
}

// New creates a Value container. The initial value is cast and validated;
// a cast failure is reported through the error handler and the raw value
// is stored.
func New(context any, opts Options) *Value {
	name := opts.Name
	if name == "" {
		name = fmt.Sprintf("PropertyValue_%s", ulid.Make())
	}

	equals := opts.Equals
	if equals == nil {
		equals = func(a, b any) bool { return reflect.DeepEqual(a, b) }
	}

	attrs := make(map[string]any, len(opts.Attributes))
	for k, a := range opts.Attributes {
		attrs[k] = a
	}

	queue := opts.Queue
	if queue == nil {
		queue = callqueue.Default
	}

	v := &Value{
		context:      context,
		name:         name,
		queue:        queue,
		cast:         opts.Cast,
		validate:     opts.Validate,
		equals:       equals,
		preNotify:    opts.PreNotify,
		postNotify:   opts.PostNotify,
		allowInvalid: opts.AllowInvalid,
		attributes:   attrs,
		notification: true,
		pairs:        make(map[*Value]*pair),
	}

	value := opts.Value
	if v.cast != nil {
		cast, err := v.cast(context, attrs, value)
		if err != nil {
			errors.Report(errors.E("propval.New", errors.KindCast, name, err))
		} else {
			value = cast
		}
	}
	v.value = value
	v.valid = v.checkValid(value) == nil

	return v
}

// PV returns the container itself. It exists so that *Value and *List can
// be handled uniformly through the Container interface.
func (v *Value) PV() *Value { return v }

// Container is satisfied by both *Value and *List.
type Container interface {
	PV() *Value
}

// Name returns the container name.
func (v *Value) Name() string { return v.name }

// Context returns the opaque context object supplied at construction.
func (v *Value) Context() any { return v.context }

// Queue returns the notification queue this container dispatches through.
func (v *Value) Queue() *callqueue.Queue { return v.queue }

// Get returns the current value. It has no side effects.
func (v *Value) Get() any { return v.value }

// Valid returns the cached validity of the current value.
func (v *Value) Valid() bool { return v.valid }

// checkValid runs the validate function against the given value.
func (v *Value) checkValid(value any) error {
	if v.validate == nil {
		return nil
	}
	return v.validate(v.context, v.attributes, value)
}

// Set casts, validates and stores a new value.
//
// If the cast fails, Set returns a cast-kind error and nothing changes. If
// neither the cast value nor its validity differs from the current state,
// Set is a no-op. If the value is invalid and the container does not allow
// invalid values, Set returns a validation-kind error and nothing changes.
// Otherwise the value and validity are updated and notification is
// scheduled on the queue.
//
// When the container is the list-level container of a List, the new value
// must be a []any and the assignment is routed through List.Set, so the
// per-item machinery always applies.
func (v *Value) Set(newValue any) error {
	if v.list != nil {
		values, ok := newValue.([]any)
		if !ok {
			return errors.Errorf("propval.Set", errors.KindCast, v.name,
				"list container requires a []any, got %T", newValue)
		}
		return v.list.Set(values)
	}
	return v.set(newValue)
}

// set is the scalar assignment path, also used by List to commit its
// value snapshot.
func (v *Value) set(newValue any) error {
	const op = "propval.Set"

	if v.cast != nil {
		cast, err := v.cast(v.context, v.attributes, newValue)
		if err != nil {
			return errors.E(op, errors.KindCast, v.name, err)
		}
		newValue = cast
	}

	validErr := v.checkValid(newValue)
	valid := validErr == nil

	if valid == v.valid && v.equals(newValue, v.value) {
		return nil
	}

	if !valid && !v.allowInvalid {
		return errors.E(op, errors.KindValidation, v.name, validErr)
	}

	glog.V(2).Infof("value %s changed: %v -> %v (valid=%v)", v.name, v.value, newValue, valid)

	v.value = newValue
	v.valid = valid
	v.Notify()
	return nil
}

// Revalidate recomputes the validity of the current value without changing
// the value. If the validity changed, listeners are notified.
func (v *Value) Revalidate() {
	valid := v.checkValid(v.value) == nil
	if valid == v.valid {
		return
	}
	glog.V(2).Infof("value %s validity changed: %v -> %v", v.name, v.valid, valid)
	v.valid = valid
	v.Notify()
}

// Notify schedules delivery of the current value and validity to the
// pre-notify hook, every enabled listener in registration order, and the
// post-notify hook.
//
// If this container is bound to others, each bound counterpart is first
// brought in sync, so that listeners on either side always observe
// mutually consistent state. The notification-enabled flag and each
// listener's enabled flag are checked at queue-drain time: disabling after
// a change was made, but before the queue drains, suppresses delivery.
func (v *Value) Notify() {
	if v.mute {
		return
	}
	// Hold the queue so the entire propagation cascade is enqueued before
	// anything is dispatched. Counterpart rounds and this round then drain
	// as one FIFO sequence.
	v.queue.Hold()
	defer v.queue.Release()

	for _, p := range v.pairOrder {
		p.syncFrom(v)
	}

	v.queue.CallAll(v.buildRound())
}

// buildRound captures the current value and assembles the queued calls for
// one notification round.
func (v *Value) buildRound() []callqueue.Call {
	value := v.value
	valid := v.valid

	calls := make([]callqueue.Call, 0, len(v.listeners)+2)

	if v.preNotify != nil {
		cb := v.preNotify
		calls = append(calls, callqueue.Call{
			Desc: fmt.Sprintf("%s (%s)", preNotifyName, v.name),
			Func: func() {
				if v.notification {
					cb(value, valid, v.context, v.name)
				}
			},
		})
	}

	for _, rec := range v.listeners {
		rec := rec
		calls = append(calls, callqueue.Call{
			Desc: fmt.Sprintf("%s (%s)", rec.name, v.name),
			Func: func() {
				if v.notification && rec.enabled {
					rec.cb(value, valid, v.context, v.name)
				}
			},
		})
	}

	if v.postNotify != nil {
		cb := v.postNotify
		calls = append(calls, callqueue.Call{
			Desc: fmt.Sprintf("%s (%s)", postNotifyName, v.name),
			Func: func() {
				if v.notification {
					cb(value, valid, v.context, v.name)
				}
			},
		})
	}

	return calls
}

// AddListener registers a change listener under the given name. It fails
// with a duplicate-name error if a listener of that name already exists
// and overwrite is false, or if the name is reserved for the pre/post
// notify hooks.
func (v *Value) AddListener(name string, cb Listener, overwrite bool) error {
	const op = "propval.AddListener"

	if name == preNotifyName || name == postNotifyName {
		return errors.Errorf(op, errors.KindDuplicateName, v.name,
			"listener name %q is reserved", name)
	}

	glog.V(2).Infof("adding listener on %s: %s", v.name, name)

	for _, rec := range v.listeners {
		if rec.name == name {
			if !overwrite {
				return errors.Errorf(op, errors.KindDuplicateName, v.name,
					"listener %q already exists", name)
			}
			rec.cb = cb
			rec.enabled = true
			return nil
		}
	}

	v.listeners = append(v.listeners, &listenerRecord{
		name:    name,
		cb:      cb,
		enabled: true,
	})
	return nil
}

// RemoveListener removes the named listener. Removing an unknown name is a
// no-op.
func (v *Value) RemoveListener(name string) {
	glog.V(2).Infof("removing listener on %s: %s", v.name, name)
	for i, rec := range v.listeners {
		if rec.name == name {
			v.listeners = append(v.listeners[:i], v.listeners[i+1:]...)
			return
		}
	}
}

// EnableListener re-enables the named listener.
func (v *Value) EnableListener(name string) {
	if rec := v.findListener(name); rec != nil {
		rec.enabled = true
	}
}

// DisableListener disables the named listener without removing it. A
// listener disabled after a change was queued, but before the queue
// drained, does not fire.
func (v *Value) DisableListener(name string) {
	if rec := v.findListener(name); rec != nil {
		rec.enabled = false
	}
}

// HasListener reports whether a listener with the given name is registered.
func (v *Value) HasListener(name string) bool {
	return v.findListener(name) != nil
}

func (v *Value) findListener(name string) *listenerRecord {
	for _, rec := range v.listeners {
		if rec.name == name {
			return rec
		}
	}
	return nil
}

// SetPreNotify replaces the pre-notify hook.
func (v *Value) SetPreNotify(cb Listener) { v.preNotify = cb }

// SetPostNotify replaces the post-notify hook.
func (v *Value) SetPostNotify(cb Listener) { v.postNotify = cb }

// EnableNotification enables delivery of value and attribute notifications.
func (v *Value) EnableNotification() { v.notification = true }

// DisableNotification disables delivery of value and attribute
// notifications. Changes made while disabled still update the value; only
// delivery is suppressed.
func (v *Value) DisableNotification() { v.notification = false }

// NotificationState reports whether notification is currently enabled.
func (v *Value) NotificationState() bool { return v.notification }

// SetNotificationState sets the notification-enabled flag.
func (v *Value) SetNotificationState(enabled bool) { v.notification = enabled }

// GetAttribute returns the named attribute value, and whether it exists.
func (v *Value) GetAttribute(name string) (any, bool) {
	a, ok := v.attributes[name]
	return a, ok
}

// GetAttributes returns a copy of all attributes.
func (v *Value) GetAttributes() map[string]any {
	out := make(map[string]any, len(v.attributes))
	for k, a := range v.attributes {
		out[k] = a
	}
	return out
}

// SetAttributes sets all attributes from the given mapping.
func (v *Value) SetAttributes(attrs map[string]any) {
	for k, a := range attrs {
		v.SetAttribute(k, a)
	}
}

// SetAttribute sets the named attribute. If the value changed, attribute
// listeners are notified and, because attributes can affect validity, the
// container is revalidated.
func (v *Value) SetAttribute(name string, value any) {
	old, ok := v.attributes[name]
	if ok && reflect.DeepEqual(old, value) {
		return
	}

	v.attributes[name] = value

	glog.V(2).Infof("attribute on %s changed: %s = %v", v.name, name, value)

	v.NotifyAttributeListeners(name, value)
	v.Revalidate()
}

// NotifyAttributeListeners schedules delivery of an attribute change to
// all registered attribute listeners, and propagates the change to bound
// containers that sync attributes.
func (v *Value) NotifyAttributeListeners(attribute string, value any) {
	v.queue.Hold()
	defer v.queue.Release()

	for _, p := range v.pairOrder {
		p.syncAttrFrom(v, attribute, value)
	}

	calls := make([]callqueue.Call, 0, len(v.attrListeners))
	for _, rec := range v.attrListeners {
		rec := rec
		calls = append(calls, callqueue.Call{
			Desc: fmt.Sprintf("%s (%s attribute %s)", rec.name, v.name, attribute),
			Func: func() {
				if v.notification {
					rec.cb(v.context, attribute, value)
				}
			},
		})
	}
	v.queue.CallAll(calls)
}

// AddAttributeListener registers a listener for attribute changes. An
// existing listener of the same name is overwritten.
func (v *Value) AddAttributeListener(name string, cb AttributeListener) {
	glog.V(2).Infof("adding attribute listener on %s: %s", v.name, name)
	for _, rec := range v.attrListeners {
		if rec.name == name {
			rec.cb = cb
			return
		}
	}
	v.attrListeners = append(v.attrListeners, &attrListenerRecord{name: name, cb: cb})
}

// RemoveAttributeListener removes the named attribute listener.
func (v *Value) RemoveAttributeListener(name string) {
	for i, rec := range v.attrListeners {
		if rec.name == name {
			v.attrListeners = append(v.attrListeners[:i], v.attrListeners[i+1:]...)
			return
		}
	}
}

// Equals reports whether the given value equals this container's current
// value, using the container's equality function. The other value may be a
// *Value or a Container, in which case its current value is compared.
func (v *Value) Equals(other any) bool {
	if c, ok := other.(Container); ok {
		other = c.PV().Get()
	}
	return v.equals(v.Get(), other)
}

func (v *Value) String() string {
	return fmt.Sprintf("PV(%v)", v.value)
}
