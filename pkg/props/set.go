package props

import (
	"github.com/golang/glog"

	"github.com/pauldmccarthy/fsleyes-props/pkg/callqueue"
	"github.com/pauldmccarthy/fsleyes-props/pkg/errors"
	"github.com/pauldmccarthy/fsleyes-props/pkg/propval"
)

// PropertySet is the owner object of a group of declared properties: it
// instantiates one value container per declaration and exposes pass-through
// access by property name. It is the Go rendering of a "class with property
// declarations" - declarations are shared, the PropertySet is per instance.
type PropertySet struct {
	context    any
	queue      *callqueue.Queue
	order      []string
	decls      map[string]*Property
	containers map[string]propval.Container
}

// NewSet instantiates the given property declarations into a PropertySet.
// The context is passed through to every container. All containers share
// the given queue (callqueue.Default if nil), so bound properties across
// sets notify in one total order.
func NewSet(context any, queue *callqueue.Queue, properties ...*Property) (*PropertySet, error) {
	const op = "props.NewSet"

	if queue == nil {
		queue = callqueue.Default
	}

	s := &PropertySet{
		context:    context,
		queue:      queue,
		decls:      make(map[string]*Property, len(properties)),
		containers: make(map[string]propval.Container, len(properties)),
	}

	for _, p := range properties {
		if p.name == "" {
			return nil, errors.Errorf(op, errors.KindValidation, "",
				"property declarations must be named")
		}
		if _, ok := s.decls[p.name]; ok {
			return nil, errors.Errorf(op, errors.KindDuplicateName, p.name,
				"duplicate property %q", p.name)
		}
		c, err := p.instantiate(context, queue)
		if err != nil {
			return nil, err
		}
		s.order = append(s.order, p.name)
		s.decls[p.name] = p
		s.containers[p.name] = c
	}

	glog.V(2).Infof("property set created with %d properties", len(s.order))
	return s, nil
}

// Names returns the property names in declaration order.
func (s *PropertySet) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Has reports whether the set declares the named property.
func (s *PropertySet) Has(name string) bool {
	_, ok := s.containers[name]
	return ok
}

// Queue returns the notification queue shared by the set's containers.
func (s *PropertySet) Queue() *callqueue.Queue { return s.queue }

// Declaration returns the declaration of the named property.
func (s *PropertySet) Declaration(name string) (*Property, error) {
	p, ok := s.decls[name]
	if !ok {
		return nil, s.unknown("props.Declaration", name)
	}
	return p, nil
}

// Container returns the value container of the named property.
func (s *PropertySet) Container(name string) (propval.Container, error) {
	c, ok := s.containers[name]
	if !ok {
		return nil, s.unknown("props.Container", name)
	}
	return c, nil
}

// List returns the named property's container as a *propval.List, for
// list-valued properties.
func (s *PropertySet) List(name string) (*propval.List, error) {
	c, err := s.Container(name)
	if err != nil {
		return nil, err
	}
	switch v := c.(type) {
	case *propval.List:
		return v, nil
	case *BoundsValue:
		return v.List, nil
	case *PointValue:
		return v.List, nil
	}
	return nil, errors.Errorf("props.List", errors.KindValidation, name,
		"property %q is not list-valued", name)
}

// Bounds returns the named property's container as a *BoundsValue.
func (s *PropertySet) Bounds(name string) (*BoundsValue, error) {
	c, err := s.Container(name)
	if err != nil {
		return nil, err
	}
	b, ok := c.(*BoundsValue)
	if !ok {
		return nil, errors.Errorf("props.Bounds", errors.KindValidation, name,
			"property %q is not a bounds property", name)
	}
	return b, nil
}

// Point returns the named property's container as a *PointValue.
func (s *PropertySet) Point(name string) (*PointValue, error) {
	c, err := s.Container(name)
	if err != nil {
		return nil, err
	}
	p, ok := c.(*PointValue)
	if !ok {
		return nil, errors.Errorf("props.Point", errors.KindValidation, name,
			"property %q is not a point property", name)
	}
	return p, nil
}

// Get returns the current value of the named property. List-valued
// properties yield a snapshot of their raw values.
func (s *PropertySet) Get(name string) (any, error) {
	c, ok := s.containers[name]
	if !ok {
		return nil, s.unknown("props.Get", name)
	}
	if l, err := s.List(name); err == nil {
		return l.Values(), nil
	}
	return c.PV().Get(), nil
}

// Set assigns a new value to the named property. List-valued properties
// take a []any of the current length.
func (s *PropertySet) Set(name string, value any) error {
	c, ok := s.containers[name]
	if !ok {
		return s.unknown("props.Set", name)
	}
	return c.PV().Set(value)
}

// Valid reports whether the named property's current value is valid.
// Unknown names are invalid.
func (s *PropertySet) Valid(name string) bool {
	c, ok := s.containers[name]
	return ok && c.PV().Valid()
}

// AddListener registers a change listener on the named property.
func (s *PropertySet) AddListener(name, listener string, cb propval.Listener, overwrite bool) error {
	c, ok := s.containers[name]
	if !ok {
		return s.unknown("props.AddListener", name)
	}
	return c.PV().AddListener(listener, cb, overwrite)
}

// RemoveListener removes a change listener from the named property.
func (s *PropertySet) RemoveListener(name, listener string) {
	if c, ok := s.containers[name]; ok {
		c.PV().RemoveListener(listener)
	}
}

// GetConstraint returns a constraint attribute of the named property.
func (s *PropertySet) GetConstraint(name, constraint string) (any, error) {
	c, ok := s.containers[name]
	if !ok {
		return nil, s.unknown("props.GetConstraint", name)
	}
	a, _ := c.PV().GetAttribute(constraint)
	return a, nil
}

// SetConstraint assigns a constraint attribute of the named property,
// revalidating its current value.
func (s *PropertySet) SetConstraint(name, constraint string, value any) error {
	c, ok := s.containers[name]
	if !ok {
		return s.unknown("props.SetConstraint", name)
	}
	c.PV().SetAttribute(constraint, value)
	return nil
}

// EnableNotification enables notification on the named property.
func (s *PropertySet) EnableNotification(name string) {
	if c, ok := s.containers[name]; ok {
		c.PV().EnableNotification()
	}
}

// DisableNotification disables notification on the named property.
func (s *PropertySet) DisableNotification(name string) {
	if c, ok := s.containers[name]; ok {
		c.PV().DisableNotification()
	}
}

// Notify triggers a notification round on the named property without
// changing its value.
func (s *PropertySet) Notify(name string) error {
	c, ok := s.containers[name]
	if !ok {
		return s.unknown("props.Notify", name)
	}
	c.PV().Notify()
	return nil
}

// InvalidValue describes one property that failed validation.
type InvalidValue struct {
	Name string
	Err  error
}

// ValidateAll revalidates every property and returns the invalid ones in
// declaration order.
func (s *PropertySet) ValidateAll() []InvalidValue {
	var out []InvalidValue
	for _, name := range s.order {
		c := s.containers[name]
		decl := s.decls[name]
		if decl.validate == nil {
			continue
		}
		value := c.PV().Get()
		if l, err := s.List(name); err == nil {
			value = l.Values()
		}
		if err := decl.validate(s.context, c.PV().GetAttributes(), value); err != nil {
			out = append(out, InvalidValue{Name: name, Err: err})
		}
	}
	return out
}

func (s *PropertySet) unknown(op, name string) error {
	return errors.Errorf(op, errors.KindValueNotFound, name,
		"no property named %q", name)
}
