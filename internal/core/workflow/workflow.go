// Package workflow provides a stateless transition table. Aggregates keep
// their own status; the table only answers which status a trigger leads to.
package workflow

import (
	"errors"
	"fmt"
	"sort"
)

var ErrInvalidTransition = errors.New("invalid state transition")

// TransitionError names the state and trigger that were refused.
type TransitionError struct {
	From    string
	Trigger string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s from %s", ErrInvalidTransition, e.Trigger, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// Table maps (state, trigger) to the next state.
type Table[S ~string, T ~string] struct {
	edges    map[S]map[T]S
	terminal map[S]bool
}

// StateConfig configures the outgoing edges of one state.
type StateConfig[S ~string, T ~string] struct {
	table *Table[S, T]
	from  S
}

func NewTable[S ~string, T ~string]() *Table[S, T] {
	return &Table[S, T]{
		edges:    make(map[S]map[T]S),
		terminal: make(map[S]bool),
	}
}

func (t *Table[S, T]) Configure(state S) *StateConfig[S, T] {
	if _, ok := t.edges[state]; !ok {
		t.edges[state] = make(map[T]S)
	}
	return &StateConfig[S, T]{table: t, from: state}
}

// Permit adds the edge from --trigger--> to. Configuring the same edge twice panics.
func (c *StateConfig[S, T]) Permit(trigger T, to S) *StateConfig[S, T] {
	if existing, ok := c.table.edges[c.from][trigger]; ok {
		panic(fmt.Sprintf("workflow: %s --%s--> already permits %s", c.from, trigger, existing))
	}
	c.table.edges[c.from][trigger] = to
	return c
}

// Terminal marks the state as having no way out.
func (c *StateConfig[S, T]) Terminal() *StateConfig[S, T] {
	c.table.terminal[c.from] = true
	return c
}

// Next returns the state reached by firing trigger in from.
func (t *Table[S, T]) Next(from S, trigger T) (S, error) {
	if to, ok := t.edges[from][trigger]; ok {
		return to, nil
	}
	return from, &TransitionError{From: string(from), Trigger: string(trigger)}
}

func (t *Table[S, T]) CanFire(from S, trigger T) bool {
	_, ok := t.edges[from][trigger]
	return ok
}

func (t *Table[S, T]) IsTerminal(state S) bool {
	return t.terminal[state]
}

// PermittedTriggers lists the triggers available in state, sorted for stable output.
func (t *Table[S, T]) PermittedTriggers(state S) []T {
	triggers := make([]T, 0, len(t.edges[state]))
	for trigger := range t.edges[state] {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}
