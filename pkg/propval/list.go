package propval

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/oklog/ulid/v2"

	"github.com/pauldmccarthy/fsleyes-props/pkg/callqueue"
	"github.com/pauldmccarthy/fsleyes-props/pkg/errors"
)

// ListOptions configures a new List.
type ListOptions struct {
	// Name is a process-unique container name. A unique name is generated
	// if empty.
	Name string
	// Values are the initial list values.
	Values []any
	// ItemCast casts a single list item. Optional.
	ItemCast CastFunc
	// ItemValidate validates a single list item. Optional.
	ItemValidate ValidateFunc
	// ItemEquals tests equality of two item values. Optional; defaults to
	// reflect.DeepEqual.
	ItemEquals EqualsFunc
	// ListValidate validates the list as a whole. It receives the raw
	// values as a []any. Optional.
	ListValidate ValidateFunc
	// ItemAllowInvalid permits items to store invalid values.
	ItemAllowInvalid bool
	// PreNotify and PostNotify are the list-level notify hooks.
	PreNotify  Listener
	PostNotify Listener
	// ListAttributes are attributes of the list container itself.
	ListAttributes map[string]any
	// ItemAttributes are attributes given to every item container created
	// by the list.
	ItemAttributes map[string]any
	// Queue is the notification queue. Defaults to callqueue.Default.
	Queue *callqueue.Queue
}

// List is a Value which holds an ordered sequence of item Values.
//
// Each item is itself a Value with the item-level cast/validate/equality
// functions supplied at list construction, so listeners may be registered
// on individual items (via PropertyValueList) independently of the
// list-level listeners. List-level listeners are notified once per
// structural change (insert, remove, move, reorder) and whenever any
// single item's value changes.
//
// Structural operations may change the list length freely. Operations that
// only reassign existing items (Set, SetSlice) must preserve length.
//
// Disabling notification on the list suppresses list-level listeners only;
// listeners registered directly on items continue to fire.
type List struct {
	*Value

	itemCast         CastFunc
	itemValidate     ValidateFunc
	itemEqualsFn     EqualsFunc
	itemAllowInvalid bool
	itemAttributes   map[string]any

	items []*Value
}

// NewList creates a List container. Initial values that fail the item cast
// cause an error and no list is created.
func NewList(context any, opts ListOptions) (*List, error) {
	name := opts.Name
	if name == "" {
		name = fmt.Sprintf("PropertyValueList_%s", ulid.Make())
	}

	l := &List{
		itemCast:         opts.ItemCast,
		itemValidate:     opts.ItemValidate,
		itemEqualsFn:     opts.ItemEquals,
		itemAllowInvalid: opts.ItemAllowInvalid,
		itemAttributes:   opts.ItemAttributes,
	}

	// The list container itself must allow invalid values: when a single
	// item changes there is no way to propagate the change to list-level
	// listeners if whole-list validation could reject the transient state.
	l.Value = New(context, Options{
		Name:         name,
		Value:        []any{},
		Equals:       l.listEquals,
		Validate:     opts.ListValidate,
		PreNotify:    opts.PreNotify,
		PostNotify:   opts.PostNotify,
		AllowInvalid: true,
		Attributes:   opts.ListAttributes,
		Queue:        opts.Queue,
	})
	l.Value.list = l

	for _, v := range opts.Values {
		item, err := l.newItem(v)
		if err != nil {
			return nil, err
		}
		l.items = append(l.items, item)
	}
	l.refreshState()

	return l, nil
}

// Get returns the list container itself, which acts as the user-facing
// sequence handle. Use Values for a copy of the raw values.
func (l *List) Get() any { return l }

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// Values returns a copy of the raw item values.
func (l *List) Values() []any {
	out := make([]any, len(l.items))
	for i, item := range l.items {
		out[i] = item.Get()
	}
	return out
}

// PropertyValueList returns a defensive copy of the underlying sequence of
// item containers, permitting listener registration directly on items.
func (l *List) PropertyValueList() []*Value {
	out := make([]*Value, len(l.items))
	copy(out, l.items)
	return out
}

// ValueAt returns the raw value at the given index.
func (l *List) ValueAt(index int) (any, error) {
	idx, err := l.resolveIndex("propval.ValueAt", index)
	if err != nil {
		return nil, err
	}
	return l.items[idx].Get(), nil
}

// IndexOf returns the index of the first item equal to the given value
// under the item equality function, or -1 if there is none.
func (l *List) IndexOf(value any) int {
	for i, item := range l.items {
		if l.itemEquals(item.Get(), value) {
			return i
		}
	}
	return -1
}

// Count returns the number of items equal to the given value.
func (l *List) Count(value any) int {
	n := 0
	for _, item := range l.items {
		if l.itemEquals(item.Get(), value) {
			n++
		}
	}
	return n
}

// Set assigns a value to every existing item. The number of values must
// match the current list length; item-level casting, validation and
// notification apply per item, followed by one list-level notification.
func (l *List) Set(newValues []any) error {
	if len(newValues) != len(l.items) {
		return errors.Errorf("propval.List.Set", errors.KindLengthMismatch, l.name,
			"%d values assigned to list of length %d", len(newValues), len(l.items))
	}
	return l.SetSlice(0, newValues)
}

// SetSlice assigns values to the contiguous sub-range of existing items
// starting at the given index. The operation never changes list length: a
// range extending past the end fails with a length-mismatch error.
func (l *List) SetSlice(index int, values []any) error {
	const op = "propval.List.SetSlice"

	if index < 0 || index+len(values) > len(l.items) {
		return errors.Errorf(op, errors.KindLengthMismatch, l.name,
			"slice [%d:%d) out of range for list of length %d",
			index, index+len(values), len(l.items))
	}

	// Cast everything up front so a cast failure leaves the list untouched.
	cast := make([]any, len(values))
	for i, val := range values {
		c, err := l.castItem(val)
		if err != nil {
			return errors.E(op, errors.KindCast, l.name, err)
		}
		cast[i] = c
	}

	// Assign with item notification suppressed, so the assignment produces
	// one list-level notification rather than one per item. Changed items
	// are re-notified individually below, with their forwarding hook
	// detached to stop each one triggering another list-level round.
	changed := make([]bool, len(cast))
	for i, val := range cast {
		item := l.items[index+i]
		old := item.Get()

		item.mute = true
		err := item.Set(val)
		item.mute = false
		if err != nil {
			return err
		}
		changed[i] = !l.itemEquals(item.Get(), old)
	}

	l.commit()

	for i, item := range l.items[index : index+len(cast)] {
		if !changed[i] {
			continue
		}
		item.SetPostNotify(nil)
		item.Notify()
		item.SetPostNotify(l.itemChanged)
	}
	return nil
}

// Insert inserts the given value before the given index.
func (l *List) Insert(index int, value any) error {
	return l.InsertAll(index, []any{value})
}

// InsertAll inserts all of the given values before the given index.
func (l *List) InsertAll(index int, values []any) error {
	const op = "propval.List.InsertAll"

	if index < 0 || index > len(l.items) {
		return errors.Errorf(op, errors.KindValueNotFound, l.name,
			"index %d out of range for list of length %d", index, len(l.items))
	}

	newItems := make([]*Value, 0, len(values))
	for _, val := range values {
		item, err := l.newItem(val)
		if err != nil {
			return err
		}
		newItems = append(newItems, item)
	}

	items := make([]*Value, 0, len(l.items)+len(newItems))
	items = append(items, l.items[:index]...)
	items = append(items, newItems...)
	items = append(items, l.items[index:]...)
	l.items = items

	l.commit()
	return nil
}

// Append appends the given value to the end of the list.
func (l *List) Append(value any) error {
	return l.InsertAll(len(l.items), []any{value})
}

// Extend appends all of the given values to the end of the list.
func (l *List) Extend(values []any) error {
	return l.InsertAll(len(l.items), values)
}

// Pop removes and returns the value at the given index. Negative indices
// count from the end, so Pop(-1) removes the last item.
func (l *List) Pop(index int) (any, error) {
	idx, err := l.resolveIndex("propval.List.Pop", index)
	if err != nil {
		return nil, err
	}

	item := l.items[idx]
	l.detachItem(item)
	l.items = append(l.items[:idx], l.items[idx+1:]...)

	l.commit()
	return item.Get(), nil
}

// Remove removes the first item equal to the given value, failing with a
// value-not-found error if there is none.
func (l *List) Remove(value any) error {
	idx := l.IndexOf(value)
	if idx < 0 {
		return errors.Errorf("propval.List.Remove", errors.KindValueNotFound, l.name,
			"value %v is not in the list", value)
	}
	_, err := l.Pop(idx)
	return err
}

// RemoveAll removes the first occurrence of each of the given values. If
// any value has no match the list is left unchanged.
func (l *List) RemoveAll(values []any) error {
	const op = "propval.List.RemoveAll"

	work := l.PropertyValueList()
	var removed []*Value

	for _, val := range values {
		found := -1
		for i, item := range work {
			if l.itemEquals(item.Get(), val) {
				found = i
				break
			}
		}
		if found < 0 {
			return errors.Errorf(op, errors.KindValueNotFound, l.name,
				"value %v is not in the list", val)
		}
		removed = append(removed, work[found])
		work = append(work[:found], work[found+1:]...)
	}

	for _, item := range removed {
		l.detachItem(item)
	}
	l.items = work

	l.commit()
	return nil
}

// Move moves the item at index from to index to, repositioning without
// creating or destroying items.
func (l *List) Move(from, to int) error {
	fromIdx, err := l.resolveIndex("propval.List.Move", from)
	if err != nil {
		return err
	}
	toIdx, err := l.resolveIndex("propval.List.Move", to)
	if err != nil {
		return err
	}
	if fromIdx == toIdx {
		return nil
	}

	item := l.items[fromIdx]
	items := append(l.items[:fromIdx:fromIdx], l.items[fromIdx+1:]...)
	items = append(items[:toIdx:toIdx], append([]*Value{item}, items[toIdx:]...)...)
	l.items = items

	l.commit()
	return nil
}

// Reorder permutes the items according to the given sequence of indices,
// which must be a permutation of the current index range. Item identity is
// preserved, so listeners registered on items survive the reorder. A
// single list-level notification is produced.
func (l *List) Reorder(idxs []int) error {
	const op = "propval.List.Reorder"

	if len(idxs) != len(l.items) {
		return errors.Errorf(op, errors.KindInvalidOrder, l.name,
			"indices %v must cover the list range [0..%d]", idxs, len(l.items)-1)
	}

	sorted := make([]int, len(idxs))
	copy(sorted, idxs)
	sort.Ints(sorted)
	identity := true
	for i, idx := range sorted {
		if idx != i {
			return errors.Errorf(op, errors.KindInvalidOrder, l.name,
				"indices %v must cover the list range [0..%d]", idxs, len(l.items)-1)
		}
		if idxs[i] != i {
			identity = false
		}
	}
	if identity {
		return nil
	}

	items := make([]*Value, len(l.items))
	for i, idx := range idxs {
		items[i] = l.items[idx]
	}
	l.items = items

	l.commit()
	return nil
}

// castItem applies the item cast function to a raw value.
func (l *List) castItem(value any) (any, error) {
	if l.itemCast == nil {
		return value, nil
	}
	return l.itemCast(l.context, l.itemAttributes, value)
}

// itemEquals compares two item values, unwrapping containers.
func (l *List) itemEquals(a, b any) bool {
	if c, ok := a.(Container); ok {
		a = c.PV().Get()
	}
	if c, ok := b.(Container); ok {
		b = c.PV().Get()
	}
	if l.itemEqualsFn != nil {
		return l.itemEqualsFn(a, b)
	}
	return reflect.DeepEqual(a, b)
}

// listEquals is the list-level equality function, comparing raw value
// snapshots pairwise with the item equality function.
func (l *List) listEquals(a, b any) bool {
	as, aok := a.([]any)
	bs, bok := b.([]any)
	if !aok || !bok || len(as) != len(bs) {
		return false
	}
	for i := range as {
		if !l.itemEquals(as[i], bs[i]) {
			return false
		}
	}
	return true
}

// newItem wraps a raw value in a new item container. The item forwards its
// own value changes to list-level listeners via its post-notify hook, and
// its attribute changes to the list's attribute listeners.
func (l *List) newItem(value any) (*Value, error) {
	cast, err := l.castItem(value)
	if err != nil {
		return nil, errors.E("propval.List", errors.KindCast, l.name, err)
	}

	item := New(l.context, Options{
		Name:         fmt.Sprintf("%s_Item_%s", l.name, ulid.Make()),
		Value:        cast,
		Cast:         l.itemCast,
		Validate:     l.itemValidate,
		Equals:       l.itemEquals,
		PostNotify:   l.itemChanged,
		AllowInvalid: l.itemAllowInvalid,
		Attributes:   l.itemAttributes,
		Queue:        l.queue,
	})

	item.AddAttributeListener(l.name, func(_ any, attribute string, attValue any) {
		l.NotifyAttributeListeners(attribute, attValue)
	})

	return item, nil
}

// detachItem disconnects a removed item from the list so the item cannot
// notify list-level listeners after removal.
func (l *List) detachItem(item *Value) {
	item.SetPostNotify(nil)
	item.RemoveAttributeListener(l.name)
}

// itemChanged is installed as the post-notify hook of every item. It
// forwards item value changes to list-level listeners.
func (l *List) itemChanged(any, bool, any, string) {
	l.commit()
}

// commit refreshes the list-level value snapshot through the embedded
// container's Set, which revalidates the list and produces exactly one
// list-level notification when the snapshot changed.
func (l *List) commit() {
	// The list container allows invalid values and has no cast, so this
	// cannot fail.
	_ = l.Value.set(l.Values())
}

// refreshState recomputes the embedded container's snapshot and validity
// without notifying. Used during construction and bound-list replay.
func (l *List) refreshState() {
	snapshot := l.Values()
	l.Value.value = snapshot
	l.Value.valid = l.Value.checkValid(snapshot) == nil
}

// resolveIndex normalizes a possibly-negative index and bounds-checks it.
func (l *List) resolveIndex(op string, index int) (int, error) {
	idx := index
	if idx < 0 {
		idx += len(l.items)
	}
	if idx < 0 || idx >= len(l.items) {
		return 0, errors.Errorf(op, errors.KindValueNotFound, l.name,
			"index %d out of range for list of length %d", index, len(l.items))
	}
	return idx, nil
}

func (l *List) String() string {
	return fmt.Sprintf("PVL(%v)", l.Values())
}
