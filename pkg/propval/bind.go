package propval

import (
	"github.com/golang/glog"

	"github.com/pauldmccarthy/fsleyes-props/pkg/errors"
)

// BindOptions controls what a binding synchronizes.
type BindOptions struct {
	// SyncValue propagates value changes between the bound containers.
	SyncValue bool
	// SyncAttributes propagates attribute changes between the bound
	// containers.
	SyncAttributes bool
}

// pair is an active link between two containers. Changes on one side are
// replayed onto the other at notify time, under a propagation guard that
// blocks the replayed change from bouncing back.
type pair struct {
	a, b   *Value
	la, lb *List

	syncValue      bool
	syncAttributes bool

	// propagating is a reentrancy guard, not a lock: there is no
	// parallelism, only synchronous notify/set/notify chains.
	propagating bool

	// Item correlation maps for list pairs. Correlation is by item
	// identity, not value, so structural changes replay at the right
	// positions even when values repeat.
	fwd map[*Value]*Value // a-side item -> b-side item
	rev map[*Value]*Value // b-side item -> a-side item
}

// Bind links two containers so that changes to one propagate to the other.
// The container on which Bind is invoked (the first argument) pushes its
// current state to the other side, so both sides start consistent.
//
// Both containers must be scalar, or both lists, and must share a
// notification queue. Binding an already-bound pair updates the sync flags
// and is otherwise a no-op. If opts is nil, both value and attribute
// synchronization are enabled.
func Bind(a, b Container, opts *BindOptions) error {
	const op = "propval.Bind"

	if opts == nil {
		opts = &BindOptions{SyncValue: true, SyncAttributes: true}
	}

	av, bv := a.PV(), b.PV()

	if av == bv {
		return errors.Errorf(op, errors.KindValidation, av.name,
			"cannot bind a container to itself")
	}
	if av.queue != bv.queue {
		return errors.Errorf(op, errors.KindValidation, av.name,
			"bound containers must share a notification queue")
	}
	if (av.list == nil) != (bv.list == nil) {
		return errors.Errorf(op, errors.KindValidation, av.name,
			"cannot bind a list container to a scalar container")
	}

	if p, ok := av.pairs[bv]; ok {
		p.syncValue = opts.SyncValue
		p.syncAttributes = opts.SyncAttributes
		return nil
	}

	glog.V(2).Infof("binding %s to %s (value=%v attributes=%v)",
		av.name, bv.name, opts.SyncValue, opts.SyncAttributes)

	p := &pair{
		a:              av,
		b:              bv,
		la:             av.list,
		lb:             bv.list,
		syncValue:      opts.SyncValue,
		syncAttributes: opts.SyncAttributes,
	}
	if p.la != nil {
		p.fwd = make(map[*Value]*Value)
		p.rev = make(map[*Value]*Value)
		// Correlate existing items positionally; the initial replay below
		// reconciles any length difference.
		n := len(p.la.items)
		if len(p.lb.items) < n {
			n = len(p.lb.items)
		}
		for i := 0; i < n; i++ {
			p.fwd[p.la.items[i]] = p.lb.items[i]
			p.rev[p.lb.items[i]] = p.la.items[i]
		}
	}

	av.pairs[bv] = p
	bv.pairs[av] = p
	av.pairOrder = append(av.pairOrder, p)
	bv.pairOrder = append(bv.pairOrder, p)

	// Push a's current state to b.
	av.queue.Hold()
	defer av.queue.Release()

	if p.syncAttributes {
		p.propagating = true
		bv.SetAttributes(av.GetAttributes())
		p.propagating = false
	}
	if p.syncValue {
		p.syncFrom(av)
	}
	return nil
}

// Unbind removes the link between two containers. It is a no-op if the
// containers are not bound.
func Unbind(a, b Container) {
	av, bv := a.PV(), b.PV()

	p, ok := av.pairs[bv]
	if !ok {
		return
	}

	glog.V(2).Infof("unbinding %s from %s", av.name, bv.name)

	delete(av.pairs, bv)
	delete(bv.pairs, av)
	av.pairOrder = removePair(av.pairOrder, p)
	bv.pairOrder = removePair(bv.pairOrder, p)
}

// IsBound reports whether two containers are currently bound.
func IsBound(a, b Container) bool {
	_, ok := a.PV().pairs[b.PV()]
	return ok
}

func removePair(pairs []*pair, p *pair) []*pair {
	for i, q := range pairs {
		if q == p {
			return append(pairs[:i], pairs[i+1:]...)
		}
	}
	return pairs
}

// other returns the opposite endpoint of the pair.
func (p *pair) other(v *Value) *Value {
	if v == p.a {
		return p.b
	}
	return p.a
}

// syncFrom brings the side opposite origin in sync with origin's current
// value. It is called from Notify before origin's listeners are queued, so
// listeners on either side always observe mutually consistent state.
func (p *pair) syncFrom(origin *Value) {
	if p.propagating || !p.syncValue {
		return
	}
	p.propagating = true
	defer func() { p.propagating = false }()

	if p.la != nil {
		p.syncListFrom(origin)
		return
	}
	p.writeTo(p.other(origin), origin.value)
}

// writeTo stores a propagated value on the slave side, using the slave's
// own cast and validate functions, and schedules the slave's notification
// round. Propagation failures are reported, never returned: the change has
// already been committed on the originating side.
func (p *pair) writeTo(slave *Value, value any) {
	const op = "propval.bind.propagate"

	if slave.cast != nil {
		cast, err := slave.cast(slave.context, slave.attributes, value)
		if err != nil {
			errors.Report(errors.E(op, errors.KindCast, slave.name, err))
			return
		}
		value = cast
	}

	validErr := slave.checkValid(value)
	valid := validErr == nil

	if valid == slave.valid && slave.equals(value, slave.value) {
		return
	}
	if !valid && !slave.allowInvalid {
		errors.Report(errors.E(op, errors.KindValidation, slave.name, validErr))
		return
	}

	glog.V(2).Infof("propagating %v to %s", value, slave.name)

	slave.value = value
	slave.valid = valid
	slave.Notify()
}

// syncAttrFrom propagates an attribute change to the opposite side.
func (p *pair) syncAttrFrom(origin *Value, attribute string, value any) {
	if p.propagating || !p.syncAttributes {
		return
	}
	p.propagating = true
	defer func() { p.propagating = false }()

	p.other(origin).SetAttribute(attribute, value)
}

// syncListFrom replays the master side's current item sequence onto the
// slave side: inserts, removals and reorders are applied structurally via
// the correlation map, and mapped items are value-synced individually.
// List-level notification on the slave side is emitted exactly once, after
// the full replay, so external listeners never observe an intermediate
// state.
func (p *pair) syncListFrom(origin *Value) {
	master, slave := p.la, p.lb
	m2s, s2m := p.fwd, p.rev
	if origin == p.b {
		master, slave = p.lb, p.la
		m2s, s2m = p.rev, p.fwd
	}

	structural := false

	// Build the desired slave sequence, creating counterparts for items
	// the master gained.
	desired := make([]*Value, 0, len(master.items))
	for _, m := range master.items {
		s, ok := m2s[m]
		if !ok {
			item, err := slave.newItem(m.Get())
			if err != nil {
				errors.Report(errors.E("propval.bind.replay", errors.KindCast, slave.name, err))
				continue
			}
			m2s[m] = item
			s2m[item] = m
			s = item
			structural = true
		}
		desired = append(desired, s)
	}

	// Drop slave items whose master counterpart is gone.
	keep := make(map[*Value]bool, len(desired))
	for _, s := range desired {
		keep[s] = true
	}
	for _, s := range slave.items {
		if keep[s] {
			continue
		}
		slave.detachItem(s)
		if m, ok := s2m[s]; ok {
			delete(m2s, m)
			delete(s2m, s)
		}
		structural = true
	}

	if !structural && len(desired) == len(slave.items) {
		for i := range desired {
			if desired[i] != slave.items[i] {
				structural = true
				break
			}
		}
	}

	slave.items = desired

	// Per-item value sync for correlated pairs.
	for i, m := range master.items {
		if i >= len(slave.items) {
			break
		}
		s := slave.items[i]
		if slave.itemEquals(s.Get(), m.Get()) {
			continue
		}
		if err := s.Set(m.Get()); err != nil {
			errors.Report(errors.E("propval.bind.replay", errors.KindOf(err), s.name, err))
		}
	}

	// One list-level notification for the whole replay.
	oldSnapshot := slave.Value.value
	oldValid := slave.Value.valid
	slave.refreshState()
	if structural || !slave.listEquals(slave.Value.value, oldSnapshot) || slave.Value.valid != oldValid {
		slave.Value.Notify()
	}
}
