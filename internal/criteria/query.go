// Package criteria builds typed, unexecuted gorm queries from a generic
// query specification made of a property name and a value holder.
package criteria

// Value is an optional value holder. Get reports false when the holder is empty.
type Value interface {
	Get() (any, bool)
}

// Query is a property/value pair describing a single predicate.
type Query interface {
	Property() string
	Value() Value
}

type optional struct {
	v  any
	ok bool
}

func (o optional) Get() (any, bool) { return o.v, o.ok }

// Some returns a Value holding v.
func Some(v any) Value { return optional{v: v, ok: true} }

// None returns an empty Value.
func None() Value { return optional{} }

type propertyQuery struct {
	property string
	value    Value
}

func (q propertyQuery) Property() string { return q.property }
func (q propertyQuery) Value() Value     { return q.value }

// New returns a Query for property holding value.
func New(property string, value Value) Query {
	if value == nil {
		value = None()
	}
	return propertyQuery{property: property, value: value}
}

// Like returns a Query matching property against pattern.
func Like(property string, pattern any) Query {
	return New(property, Some(pattern))
}
