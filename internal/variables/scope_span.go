package variables

import (
	"go/token"

	"github.com/sirkon/rbtree"
)

// scopeSpan stores a [start,end] span of a scope and, if needed, a nested RB-tree
// for spans of scopes defined within.
type scopeSpan struct {
	start token.Pos
	end   token.Pos

	scope    *Scope
	children *rbtree.Tree[*scopeSpan]
}

// Cmp orders spans as "disjoint by position". Overlapping spans compare equal,
// scopes always nest, so overlap means containment.
func (n *scopeSpan) Cmp(other *scopeSpan) int {
	if n.end < other.start {
		return -1
	}
	if n.start > other.end {
		return 1
	}
	return 0
}

func spanContains(a, b *scopeSpan) bool {
	return a.start <= b.start && a.end >= b.end
}

// attachScope inserts the span s into t:
//   - no overlapping entry in t: s becomes a sibling;
//   - s contains the overlapping entry r: r is rewritten in place into s and the
//     old r goes down into its children;
//   - r contains s: s goes down into r children.
func attachScope(t *rbtree.Tree[*scopeSpan], s *scopeSpan) {
	r := t.InsertReturn(s)
	if r == s {
		return
	}

	if spanContains(s, r) {
		old := *r
		*r = *s

		if r.children == nil {
			r.children = rbtree.New[*scopeSpan]()
		}
		attachScope(r.children, &old)
		return
	}

	if spanContains(r, s) {
		if r.children == nil {
			r.children = rbtree.New[*scopeSpan]()
		}
		attachScope(r.children, s)
		return
	}

	Panicf(s.start, "scope %q partially overlaps scope %q", s.scope.Name, r.scope.Name)
}

func searchScope(t *rbtree.Tree[*scopeSpan], pos token.Pos) *Scope {
	probe := &scopeSpan{start: pos, end: pos}
	n := t.Search(probe)
	if n == nil {
		return nil
	}

	if n.children != nil {
		if s := searchScope(n.children, pos); s != nil {
			return s
		}
	}

	return n.scope
}
