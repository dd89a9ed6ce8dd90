package tracing

import (
	"github.com/sirkon/vartrace/internal/variables"
)

// Fork returns a collection to walk one of alternative paths starting at this point.
// Forks share the arena with the parent.
func (c *Collection) Fork() *Collection {
	return &Collection{
		owner: c.owner,
		arena: c.arena,
		state: c.state.Clone(),
	}
}

// MergeBranches makes the state of the collection a merge of the given paths. A
// variable with the same trace on every path keeps it, others get a merge trace.
func (c *Collection) MergeBranches(paths ...*Collection) {
	if len(paths) == 0 {
		return
	}

	var order []*variables.Variable
	seen := map[*variables.Variable]struct{}{}
	for _, p := range paths {
		for _, v := range p.state.order {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			order = append(order, v)
		}
	}

	merged := newState()
	for _, v := range order {
		preds := make([]TraceID, 0, len(paths))
		same := true
		for _, p := range paths {
			id := p.GetVariableCurrentTrace(v)
			if len(preds) > 0 && preds[0] != id {
				same = false
			}
			preds = append(preds, id)
		}

		if same {
			merged.set(v, preds[0])
			continue
		}

		merged.set(v, c.arena.add(&Trace{
			kind:     TraceMerged,
			variable: v,
			preds:    preds,
		}))
	}

	c.state = merged
	for _, p := range paths {
		c.exits = append(c.exits, p.exits...)
	}
}
