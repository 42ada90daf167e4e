package workflow

import "fmt"

// Table maps each state to the set of states it may legally move to. All three
// workflow machines (property, transfer, dispute) share this representation so
// illegal edges are rejected in one place instead of ad-hoc status checks.
type Table map[string][]string

// Step validates the edge current -> next. It returns an InvalidTransition
// error when the edge is not listed; the stored state must be left untouched
// by the caller in that case.
func (t Table) Step(current, next string) error {
	for _, allowed := range t[current] {
		if allowed == next {
			return nil
		}
	}
	return NewError(KindInvalidTransition,
		fmt.Sprintf("illegal transition from %q to %q", current, next))
}

// Terminal reports whether the state has no outgoing edges.
func (t Table) Terminal(state string) bool {
	return len(t[state]) == 0
}

// Known reports whether the state appears in the table at all, either as a
// source or as a target.
func (t Table) Known(state string) bool {
	if _, ok := t[state]; ok {
		return true
	}
	for _, targets := range t {
		for _, s := range targets {
			if s == state {
				return true
			}
		}
	}
	return false
}
