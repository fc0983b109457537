package reactive

// scope collects the sources read during one evaluation.
type scope struct {
	owner  key
	record bool
	reads  []key
	seen   map[key]struct{}
}

// tracker is a stack of evaluation scopes. Only the innermost scope records:
// a derived value evaluated inside an effect gets its own scope, and the
// effect then records the derived id itself.
type tracker struct {
	stack []*scope
}

// begin pushes a recording scope for owner and returns a mark for end.
func (t *tracker) begin(owner key) int {
	t.stack = append(t.stack, &scope{owner: owner, record: true})
	return len(t.stack) - 1
}

// suspend pushes a scope that records nothing.
func (t *tracker) suspend() int {
	t.stack = append(t.stack, &scope{})
	return len(t.stack) - 1
}

// end pops back to mark and returns the reads of the scope opened there.
// Scopes above mark (left behind by a recovered panic) are discarded.
func (t *tracker) end(mark int) []key {
	if mark < 0 || mark >= len(t.stack) {
		return nil
	}
	s := t.stack[mark]
	for i := mark; i < len(t.stack); i++ {
		t.stack[i] = nil
	}
	t.stack = t.stack[:mark]
	return s.reads
}

// record notes a read of src in the innermost scope.
func (t *tracker) record(src key) {
	if len(t.stack) == 0 {
		return
	}
	s := t.stack[len(t.stack)-1]
	if !s.record || s.owner == src {
		return
	}
	if s.seen == nil {
		s.seen = make(map[key]struct{}, 4)
	}
	if _, ok := s.seen[src]; ok {
		return
	}
	s.seen[src] = struct{}{}
	s.reads = append(s.reads, src)
}

// active reports whether a recording scope is innermost.
func (t *tracker) active() bool {
	return len(t.stack) > 0 && t.stack[len(t.stack)-1].record
}

// evaluating reports whether owner has an open scope anywhere on the stack.
func (t *tracker) evaluating(owner key) bool {
	for _, s := range t.stack {
		if s.record && s.owner == owner {
			return true
		}
	}
	return false
}
