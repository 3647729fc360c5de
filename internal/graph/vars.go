package graph

import "time"

// VarKind declares the data kind of a graph variable.
type VarKind string

const (
	VarNumber  VarKind = "number"
	VarString  VarKind = "string"
	VarBoolean VarKind = "boolean"
	VarAny     VarKind = "any"
)

// Variable is a named, typed value scoped to one graph. Get/set nodes
// reference variables by name, never by pointer.
type Variable struct {
	Name  string
	Kind  VarKind
	Value any
}

// VarChange is a point-in-time record of a variable assignment. The journal
// is append-only and survives until the variables are reset.
type VarChange struct {
	At       time.Time
	Name     string
	SourceID ID // node that made the change, zero when set directly
	OldValue any
	NewValue any
}

// Variables is the per-graph variable store. Declaration order is stable so
// serialization round-trips deterministically.
type Variables struct {
	order   []string
	byName  map[string]*Variable
	journal []VarChange
}

// NewVariables allocates an empty store.
func NewVariables() *Variables {
	return &Variables{byName: map[string]*Variable{}}
}

// Define declares a new variable. Name collisions are rejected.
func (v *Variables) Define(name string, kind VarKind, value any) error {
	if _, exists := v.byName[name]; exists {
		return ErrDuplicateVariable
	}
	v.byName[name] = &Variable{Name: name, Kind: kind, Value: value}
	v.order = append(v.order, name)
	return nil
}

// Get returns a variable by name.
func (v *Variables) Get(name string) (*Variable, bool) {
	found, ok := v.byName[name]
	return found, ok
}

// Set assigns a new value to an existing variable and journals the change.
// sourceID identifies the node driving the assignment, if any.
func (v *Variables) Set(name string, value any, sourceID ID) error {
	found, ok := v.byName[name]
	if !ok {
		return ErrVariableNotFound
	}
	v.journal = append(v.journal, VarChange{
		At:       time.Now(),
		Name:     name,
		SourceID: sourceID,
		OldValue: found.Value,
		NewValue: value,
	})
	found.Value = value
	return nil
}

// Remove deletes a variable declaration.
func (v *Variables) Remove(name string) error {
	if _, ok := v.byName[name]; !ok {
		return ErrVariableNotFound
	}
	delete(v.byName, name)
	for i, n := range v.order {
		if n == name {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns all variables in declaration order.
func (v *Variables) List() []*Variable {
	out := make([]*Variable, 0, len(v.order))
	for _, name := range v.order {
		out = append(out, v.byName[name])
	}
	return out
}

// Journal returns the assignment history since the last reset.
func (v *Variables) Journal() []VarChange {
	return v.journal
}

// Len returns the number of declared variables.
func (v *Variables) Len() int {
	return len(v.order)
}

func (v *Variables) reset() {
	v.order = nil
	v.byName = map[string]*Variable{}
	v.journal = nil
}
