/*
Package benefit implements the eligibility-and-proration engine.

PURPOSE:
  Turns the typed source batches of one competence month into one frozen
  EmployeeRecord per eligible employee: who is eligible, which region
  prices them, how many benefit-days they are owed and what that costs.

PIPELINE (strictly sequential, each stage (Table, batch) -> (Table, StageReport)):
  1. reference    - apply business-day / rate overrides to a copy of the region table
  2. consolidate  - active roster -> base set (status exclusions, region resolution)
  3. admissions   - fold new hires in (role filter, union inheritance)
  4. exclusions   - interns, apprentices, overseas, terminations, leave,
                    excluded roles, full-period vacation (in that order)
  5. vacations    - in-period vacation business days per employee
  6. proration    - entitled days from baseline, active window and vacations
  7. benefit      - daily rate, total, 80/20 split, status note

IMMUTABILITY:
  A stage never mutates its input table. It clones, edits the clone and
  returns it. Every stage overwrites derived fields rather than adding to
  them, so running a stage twice on its own output changes nothing.

REMOVALS:
  The table remembers every id removed and the step that removed it. No
  later stage can bring a removed id back.

SEE ALSO:
  - benefit/engine.go: Orchestration, logging, cancellation
  - generic/types.go: EmployeeRecord
*/
package benefit

import (
	"github.com/warp/benefit-engine/generic"
)

// =============================================================================
// TABLE - The working set threaded through the pipeline
// =============================================================================

// Table is an ordered set of records keyed by employee id.
type Table struct {
	records []generic.EmployeeRecord
	index   map[generic.EmployeeID]int
	removed map[generic.EmployeeID]string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		index:   make(map[generic.EmployeeID]int),
		removed: make(map[generic.EmployeeID]string),
	}
}

// TableOf builds a table from records. Later duplicates are ignored.
func TableOf(records []generic.EmployeeRecord) *Table {
	t := NewTable()
	for _, r := range records {
		if !t.Contains(r.ID) {
			t.put(r.Clone())
		}
	}
	return t
}

func (t *Table) Len() int { return len(t.records) }

// Records returns a copy of the records in table order.
func (t *Table) Records() []generic.EmployeeRecord {
	out := make([]generic.EmployeeRecord, len(t.records))
	for i, r := range t.records {
		out[i] = r.Clone()
	}
	return out
}

// Get returns a copy of the record for id.
func (t *Table) Get(id generic.EmployeeID) (generic.EmployeeRecord, bool) {
	i, ok := t.index[id]
	if !ok {
		return generic.EmployeeRecord{}, false
	}
	return t.records[i].Clone(), true
}

func (t *Table) Contains(id generic.EmployeeID) bool {
	_, ok := t.index[id]
	return ok
}

// RemovedBy returns the step that removed id, if any.
func (t *Table) RemovedBy(id generic.EmployeeID) (string, bool) {
	step, ok := t.removed[id]
	return step, ok
}

// RemovedCount is the number of ids removed so far.
func (t *Table) RemovedCount() int { return len(t.removed) }

// clone copies the table for the next stage.
func (t *Table) clone() *Table {
	c := &Table{
		records: make([]generic.EmployeeRecord, len(t.records)),
		index:   make(map[generic.EmployeeID]int, len(t.index)),
		removed: make(map[generic.EmployeeID]string, len(t.removed)),
	}
	for i, r := range t.records {
		c.records[i] = r.Clone()
		c.index[r.ID] = i
	}
	for id, step := range t.removed {
		c.removed[id] = step
	}
	return c
}

// put appends a new record or replaces an existing one in place.
// Removed ids are refused.
func (t *Table) put(r generic.EmployeeRecord) bool {
	if _, gone := t.removed[r.ID]; gone {
		return false
	}
	if i, ok := t.index[r.ID]; ok {
		t.records[i] = r
		return true
	}
	t.index[r.ID] = len(t.records)
	t.records = append(t.records, r)
	return true
}

// update applies fn to the record for id in place.
func (t *Table) update(id generic.EmployeeID, fn func(*generic.EmployeeRecord)) bool {
	i, ok := t.index[id]
	if !ok {
		return false
	}
	fn(&t.records[i])
	return true
}

// each applies fn to every record in order.
func (t *Table) each(fn func(*generic.EmployeeRecord)) {
	for i := range t.records {
		fn(&t.records[i])
	}
}

// remove drops every record matching pred, remembering step. It returns
// the number removed.
func (t *Table) remove(step string, pred func(generic.EmployeeRecord) bool) int {
	kept := t.records[:0]
	n := 0
	for _, r := range t.records {
		if pred(r) {
			t.removed[r.ID] = step
			n++
			continue
		}
		kept = append(kept, r)
	}
	t.records = kept
	t.reindex()
	return n
}

func (t *Table) reindex() {
	t.index = make(map[generic.EmployeeID]int, len(t.records))
	for i, r := range t.records {
		t.index[r.ID] = i
	}
}

// lastRegion returns the most recently added record with a resolved region.
func (t *Table) lastRegion() (generic.EmployeeRecord, bool) {
	for i := len(t.records) - 1; i >= 0; i-- {
		if t.records[i].Region.Resolved() {
			return t.records[i], true
		}
	}
	return generic.EmployeeRecord{}, false
}
