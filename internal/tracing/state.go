package tracing

import (
	"github.com/sirkon/vartrace/internal/variables"
)

// state keeps current traces of variables at the walked program point.
type state struct {
	current map[*variables.Variable]TraceID
	order   []*variables.Variable
}

func newState() *state {
	return &state{
		current: map[*variables.Variable]TraceID{},
	}
}

func (s *state) get(v *variables.Variable) (TraceID, bool) {
	id, ok := s.current[v]
	return id, ok
}

func (s *state) set(v *variables.Variable, id TraceID) {
	if _, ok := s.current[v]; !ok {
		s.order = append(s.order, v)
	}
	s.current[v] = id
}

// Clone returns a full copy of the state.
func (s *state) Clone() *state {
	ns := newState()
	for _, v := range s.order {
		ns.set(v, s.current[v])
	}

	return ns
}
