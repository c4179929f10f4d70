package benefit

import (
	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/source"
)

// =============================================================================
// TERMINATION RULE ENGINE
// =============================================================================
//
//   date == nil                    -> ACTIVE
//   day <= cutoff, ack confirmed   -> EXCLUDE
//   day <= cutoff, ack nil/false   -> FULL_ENTITLEMENT_PENDING_ACK
//   day >  cutoff                  -> FULL_ENTITLEMENT_POST_CUTOFF
//
// Only EXCLUDE removes the employee. The two retained states keep the
// termination date as the upper bound of the active window.

// ClassifyTermination applies the cutoff rule to one termination.
func ClassifyTermination(date *generic.Date, ack *bool, cutoffDay int) generic.TerminationState {
	if date == nil {
		return generic.TerminationActive
	}
	if date.Day() > cutoffDay {
		return generic.TerminationPostCutoff
	}
	if ack != nil && *ack {
		return generic.TerminationExclude
	}
	return generic.TerminationPendingAck
}

// Termination is the classified outcome for one employee.
type Termination struct {
	ID    generic.EmployeeID
	Date  *generic.Date
	Ack   *bool
	State generic.TerminationState
}

// ClassifyTerminations collapses duplicate rows per id (first non-nil date
// and ack win) and classifies each.
func ClassifyTerminations(rows []source.TerminationRow, cutoffDay int) map[generic.EmployeeID]Termination {
	out := make(map[generic.EmployeeID]Termination, len(rows))
	for _, row := range rows {
		if row.ID.IsZero() {
			continue
		}
		term, seen := out[row.ID]
		if !seen {
			term = Termination{ID: row.ID}
		}
		if term.Date == nil && row.Date != nil {
			d := *row.Date
			term.Date = &d
		}
		if term.Ack == nil && row.Ack != nil {
			a := *row.Ack
			term.Ack = &a
		}
		out[row.ID] = term
	}
	for id, term := range out {
		term.State = ClassifyTermination(term.Date, term.Ack, cutoffDay)
		out[id] = term
	}
	return out
}

// applyTerminations is exclusion step 4. EXCLUDE outcomes are removed;
// every other outcome is stamped onto the retained record. It returns the
// number removed and the number of termination rows for unknown ids.
func applyTerminations(t *Table, terms map[generic.EmployeeID]Termination) (removed, skipped int) {
	for id, term := range terms {
		if !t.Contains(id) {
			skipped++
			continue
		}
		t.update(id, func(r *generic.EmployeeRecord) {
			r.Termination = term.State
			r.TerminationAck = term.Ack
			r.TerminationDate = nil
			if term.State != generic.TerminationActive {
				r.TerminationDate = term.Date
			}
		})
	}
	removed = t.remove(StepTerminations, func(r generic.EmployeeRecord) bool {
		return !r.Termination.Retained()
	})
	return removed, skipped
}
