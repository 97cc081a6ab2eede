package hlo

import "github.com/google/uuid"

// Module is the unit a pass runs over: an ordered collection of
// computations. Each module gets a generated id that trace records and
// diagnostics use to correlate pass runs with their input.
type Module struct {
	id    string
	name  string
	comps []*Computation
}

// NewModule creates an empty module with a fresh id.
func NewModule(name string) *Module {
	return &Module{id: uuid.NewString(), name: name}
}

// ID returns the module's generated identity.
func (m *Module) ID() string { return m.id }

// Name returns the module's name.
func (m *Module) Name() string { return m.name }

// AddComputation appends a computation and returns it for chaining.
func (m *Module) AddComputation(c *Computation) *Computation {
	m.comps = append(m.comps, c)
	return c
}

// NewComputation creates a computation with the given name, appends it and
// returns it.
func (m *Module) NewComputation(name string) *Computation {
	return m.AddComputation(NewComputation(name))
}

// Computations returns the module's computations in insertion order. The
// slice is shared; callers must not modify it.
func (m *Module) Computations() []*Computation { return m.comps }

// Computation returns the computation with the given name, or nil.
func (m *Module) Computation(name string) *Computation {
	for _, c := range m.comps {
		if c.name == name {
			return c
		}
	}
	return nil
}
