// Package syncable provides parent/child synchronization of property sets.
//
// A Syncable wraps a props.PropertySet. A Syncable constructed with a
// parent starts with every property bound to the parent's corresponding
// property, so parent state flows to all children. Each property carries a
// hidden boolean sync toggle, itself an ordinary observable value, which
// drives bind/unbind against the parent: flip it (via SyncToParent and
// UnsyncFromParent) to connect or disconnect individual properties at
// runtime.
//
// Two property name lists restrict the toggles. Properties in NoBind are
// never bound to the parent and cannot be synced; properties in NoUnbind
// are bound permanently and cannot be unsynced.
package syncable

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/pauldmccarthy/fsleyes-props/pkg/errors"
	"github.com/pauldmccarthy/fsleyes-props/pkg/props"
	"github.com/pauldmccarthy/fsleyes-props/pkg/propval"
)

// syncListener is the name of the internal listener each sync toggle uses
// to drive bind/unbind.
const syncListener = "syncable"

// Options configures a Syncable.
type Options struct {
	// NoBind lists properties which are never bound to the parent.
	NoBind []string
	// NoUnbind lists properties which cannot be unbound from the parent.
	NoUnbind []string
}

// Syncable couples a property set to an optional parent. It is either a
// parent (no parent of its own, tracks children) or a child (bound to its
// parent's properties).
type Syncable struct {
	set      *props.PropertySet
	parent   *Syncable
	children []*Syncable

	nobind   map[string]bool
	nounbind map[string]bool

	// toggles holds the per-property boolean sync state containers.
	toggles map[string]*propval.Value
}

// New wraps the given property set. If parent is non-nil, it must declare
// every property the set declares (properties are matched by name), and
// each bindable property is immediately bound to the parent's.
func New(set *props.PropertySet, parent *Syncable, opts Options) (*Syncable, error) {
	const op = "syncable.New"

	s := &Syncable{
		set:      set,
		parent:   parent,
		nobind:   make(map[string]bool, len(opts.NoBind)),
		nounbind: make(map[string]bool, len(opts.NoUnbind)),
		toggles:  make(map[string]*propval.Value),
	}
	for _, name := range opts.NoBind {
		s.nobind[name] = true
	}
	for _, name := range opts.NoUnbind {
		s.nounbind[name] = true
	}

	if parent == nil {
		return s, nil
	}

	glog.V(2).Infof("binding %d properties to parent", len(set.Names()))

	for _, name := range set.Names() {
		if !parent.set.Has(name) {
			return nil, errors.Errorf(op, errors.KindIllegalSync, name,
				"parent does not declare property %q", name)
		}
		if err := s.initSyncProperty(name); err != nil {
			return nil, err
		}
	}

	parent.children = append(parent.children, s)
	return s, nil
}

// initSyncProperty creates the sync toggle for one property and performs
// the initial bind.
func (s *Syncable) initSyncProperty(name string) error {
	bindable := !s.nobind[name]

	toggle := propval.New(s, propval.Options{
		Value: bindable,
		Queue: s.set.Queue(),
	})
	s.toggles[name] = toggle

	if !bindable {
		return nil
	}

	// The toggle drives bind/unbind. Permanently-bound properties get no
	// listener: their toggle can never change.
	if !s.nounbind[name] {
		err := toggle.AddListener(syncListener, func(value any, _ bool, _ any, _ string) {
			synced, _ := value.(bool)
			s.syncStateChanged(name, synced)
		}, false)
		if err != nil {
			return err
		}
	}

	return s.bindToParent(name, true)
}

// syncStateChanged reacts to a toggle transition by binding or unbinding
// the real property.
func (s *Syncable) syncStateChanged(name string, synced bool) {
	glog.V(2).Infof("sync state of %s changed to %v", name, synced)
	if err := s.bindToParent(name, synced); err != nil {
		errors.Report(errors.E("syncable.syncStateChanged", errors.KindOf(err), name, err))
	}
}

// bindToParent binds or unbinds one property against the parent's
// counterpart. On bind, the parent pushes its current state to the child.
func (s *Syncable) bindToParent(name string, bind bool) error {
	child, err := s.set.Container(name)
	if err != nil {
		return err
	}
	parent, err := s.parent.set.Container(name)
	if err != nil {
		return err
	}
	if !bind {
		propval.Unbind(parent, child)
		return nil
	}
	return propval.Bind(parent, child, nil)
}

// Set returns the wrapped property set.
func (s *Syncable) Set() *props.PropertySet { return s.set }

// Parent returns the parent Syncable, or nil.
func (s *Syncable) Parent() *Syncable { return s.parent }

// Children returns the children currently attached to this parent.
func (s *Syncable) Children() []*Syncable {
	out := make([]*Syncable, len(s.children))
	copy(out, s.children)
	return out
}

// CanBeSyncedToParent reports whether the named property may be bound to
// the parent.
func (s *Syncable) CanBeSyncedToParent(name string) bool {
	return !s.nobind[name]
}

// CanBeUnsyncedFromParent reports whether the named property may be
// unbound from the parent.
func (s *Syncable) CanBeUnsyncedFromParent(name string) bool {
	return !s.nounbind[name]
}

// IsSyncedToParent reports whether the named property is currently synced.
func (s *Syncable) IsSyncedToParent(name string) bool {
	toggle, ok := s.toggles[name]
	if !ok {
		return false
	}
	synced, _ := toggle.Get().(bool)
	return synced
}

// SyncToParent binds the named property to the parent's counterpart. It
// fails with an illegal-sync error if this instance has no parent or the
// property is in the NoBind list.
func (s *Syncable) SyncToParent(name string) error {
	const op = "syncable.SyncToParent"

	toggle, err := s.checkToggle(op, name)
	if err != nil {
		return err
	}
	if s.nobind[name] {
		return errors.Errorf(op, errors.KindIllegalSync, name,
			"%q cannot be bound to the parent", name)
	}
	return toggle.Set(true)
}

// UnsyncFromParent unbinds the named property from the parent's
// counterpart. It fails with an illegal-sync error if this instance has no
// parent or the property is in the NoUnbind list.
func (s *Syncable) UnsyncFromParent(name string) error {
	const op = "syncable.UnsyncFromParent"

	toggle, err := s.checkToggle(op, name)
	if err != nil {
		return err
	}
	if s.nounbind[name] {
		return errors.Errorf(op, errors.KindIllegalSync, name,
			"%q cannot be unbound from the parent", name)
	}
	return toggle.Set(false)
}

func (s *Syncable) checkToggle(op, name string) (*propval.Value, error) {
	if s.parent == nil {
		return nil, errors.Errorf(op, errors.KindIllegalSync, name,
			"this instance has no parent")
	}
	toggle, ok := s.toggles[name]
	if !ok {
		return nil, errors.Errorf(op, errors.KindValueNotFound, name,
			"no property named %q", name)
	}
	return toggle, nil
}

// AddSyncChangeListener registers a listener notified on every sync state
// transition of the named property.
func (s *Syncable) AddSyncChangeListener(name, listener string, cb propval.Listener, overwrite bool) error {
	toggle, ok := s.toggles[name]
	if !ok {
		return errors.Errorf("syncable.AddSyncChangeListener",
			errors.KindValueNotFound, name, "no property named %q", name)
	}
	return toggle.AddListener(listener, cb, overwrite)
}

// RemoveSyncChangeListener removes a sync state listener.
func (s *Syncable) RemoveSyncChangeListener(name, listener string) {
	if toggle, ok := s.toggles[name]; ok {
		toggle.RemoveListener(listener)
	}
}

// DetachFromParent permanently disconnects a child from its parent.
// Properties in the NoUnbind list stay bound. Detaching a parent, or an
// already-detached child, is a no-op.
func (s *Syncable) DetachFromParent() {
	if s.parent == nil {
		return
	}

	for _, name := range s.set.Names() {
		if s.nobind[name] || s.nounbind[name] {
			continue
		}
		toggle := s.toggles[name]
		toggle.RemoveListener(syncListener)
		if synced, _ := toggle.Get().(bool); synced {
			if err := s.bindToParent(name, false); err != nil {
				errors.Report(errors.E("syncable.DetachFromParent",
					errors.KindOf(err), name, err))
			}
			// Keep the toggle truthful without re-triggering bind logic.
			if err := toggle.Set(false); err != nil {
				errors.Report(errors.E("syncable.DetachFromParent",
					errors.KindOf(err), name, err))
			}
		}
	}

	for i, c := range s.parent.children {
		if c == s {
			s.parent.children = append(s.parent.children[:i], s.parent.children[i+1:]...)
			break
		}
	}
	s.parent = nil
}

// String identifies the instance in debug output.
func (s *Syncable) String() string {
	role := "parent"
	if s.parent != nil {
		role = "child"
	}
	return fmt.Sprintf("Syncable(%s, %d properties)", role, len(s.set.Names()))
}
