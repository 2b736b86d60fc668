// Package catalog serves the fixed value lists clients need to build forms that
// pass server-side validation.
package catalog

import (
	"github.com/frahmantamala/expense-reconciliation/internal/advance"
	"github.com/frahmantamala/expense-reconciliation/internal/core/workflow"
	"github.com/frahmantamala/expense-reconciliation/internal/expensesheet"
	"github.com/frahmantamala/expense-reconciliation/internal/payment"
)

type Entry struct {
	Value string
}

// StatusEntry describes one workflow state and the actions that leave it.
type StatusEntry struct {
	Value    string
	Terminal bool
	Actions  []string
}

func BillTypes() []Entry {
	types := expensesheet.BillTypes()
	out := make([]Entry, len(types))
	for i, t := range types {
		out[i] = Entry{Value: string(t)}
	}
	return out
}

func PaymentModes() []Entry {
	modes := payment.Modes()
	out := make([]Entry, len(modes))
	for i, m := range modes {
		out[i] = Entry{Value: string(m)}
	}
	return out
}

func SheetStatuses() []StatusEntry {
	return describe(expensesheet.Statuses(), expensesheet.Transitions())
}

func AdvanceStatuses() []StatusEntry {
	return describe(advance.Statuses(), advance.Transitions())
}

func describe[S ~string, T ~string](states []S, table *workflow.Table[S, T]) []StatusEntry {
	out := make([]StatusEntry, len(states))
	for i, s := range states {
		triggers := table.PermittedTriggers(s)
		actions := make([]string, len(triggers))
		for j, t := range triggers {
			actions[j] = string(t)
		}
		out[i] = StatusEntry{Value: string(s), Terminal: table.IsTerminal(s), Actions: actions}
	}
	return out
}
