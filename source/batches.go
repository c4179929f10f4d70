package source

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/normalize"
)

// =============================================================================
// COLUMN ALIASES - Canonical header keys (see normalize.Header)
// =============================================================================

var (
	aliasID           = []string{"matricula", "cadastro", "id", "employee_id"}
	aliasRole         = []string{"titulo_do_cargo", "cargo", "role"}
	aliasStatus       = []string{"desc._situacao", "desc_situacao", "situacao", "status"}
	aliasUnion        = []string{"sindicato", "sindicado", "union"}
	aliasAdmission    = []string{"admissao", "data_admissao", "admission_date"}
	aliasTermination  = []string{"data_demissao", "demissao", "termination_date"}
	aliasAck          = []string{"comunicado_de_desligamento", "comunicado_desligamento", "ack"}
	aliasVacationDays = []string{"dias_de_ferias", "ferias", "vacation_days"}
	aliasStart        = []string{"dt_inicio", "data_inicio", "inicio", "start"}
	aliasEnd          = []string{"dt_fim", "data_fim", "fim", "end"}
	aliasBusinessDays = []string{"dias_uteis", "dias", "business_days"}
	aliasRegion       = []string{"estado", "uf", "region"}
	aliasRate         = []string{"valor", "valor_diario", "daily_rate"}
)

// =============================================================================
// BATCH TYPES - One per dataset, read-only to the engine
// =============================================================================

// ActiveRow is one line of the active roster.
type ActiveRow struct {
	ID     generic.EmployeeID
	Role   string
	Status string
	Union  string
}

// AdmissionRow is one new hire. Union is usually blank in the export.
type AdmissionRow struct {
	ID    generic.EmployeeID
	Date  *generic.Date
	Role  string
	Union string
}

// TerminationRow is one termination. Ack is nil when the column is blank.
type TerminationRow struct {
	ID   generic.EmployeeID
	Date *generic.Date
	Ack  *bool
}

// VacationRow carries either explicit dates or a day count (or both).
type VacationRow struct {
	ID    generic.EmployeeID
	Days  int
	Start *generic.Date
	End   *generic.Date
}

// BusinessDayRow is a per-union baseline override.
type BusinessDayRow struct {
	Union string
	Days  int
}

// RateRow is a per-region daily rate. Region holds the source text
// ("São Paulo", "SP") and is resolved by the caller.
type RateRow struct {
	Region string
	Rate   decimal.Decimal
}

// IDSet is a membership list (interns, apprentices, overseas, leave).
type IDSet map[generic.EmployeeID]struct{}

func (s IDSet) Contains(id generic.EmployeeID) bool {
	_, ok := s[id]
	return ok
}

// Batches is every dataset of a run. A nil slice or set means the source
// was not supplied; the engine skips the corresponding stage.
type Batches struct {
	Active       []ActiveRow
	Admissions   []AdmissionRow
	Terminations []TerminationRow
	Vacations    []VacationRow
	Leave        IDSet
	Interns      IDSet
	Apprentices  IDSet
	Overseas     IDSet
	BusinessDays []BusinessDayRow
	Rates        []RateRow

	// Coerced counts malformed cells that were defaulted, per dataset.
	Coerced map[string]int
}

// =============================================================================
// PARSING
// =============================================================================

// Batches converts a bundle into typed batches. The active roster is
// required; every supplied dataset must carry its required columns.
func (b *Bundle) Batches() (*Batches, error) {
	out := &Batches{Coerced: make(map[string]int)}

	active := b.Table(KindActive)
	if active == nil {
		return nil, fmt.Errorf("%w: active roster", generic.ErrMissingSource)
	}
	var err error
	if out.Active, err = parseActive(active); err != nil {
		return nil, err
	}
	if t := b.Table(KindAdmissions); t != nil {
		if out.Admissions, err = parseAdmissions(t, out.Coerced); err != nil {
			return nil, err
		}
	}
	if t := b.Table(KindTerminations); t != nil {
		if out.Terminations, err = parseTerminations(t, out.Coerced); err != nil {
			return nil, err
		}
	}
	if t := b.Table(KindVacations); t != nil {
		if out.Vacations, err = parseVacations(t, out.Coerced); err != nil {
			return nil, err
		}
	}
	for _, set := range []struct {
		kind Kind
		dst  *IDSet
	}{
		{KindInterns, &out.Interns},
		{KindApprentices, &out.Apprentices},
		{KindOverseas, &out.Overseas},
		{KindLeave, &out.Leave},
	} {
		if t := b.Table(set.kind); t != nil {
			if *set.dst, err = parseIDSet(t); err != nil {
				return nil, err
			}
		}
	}
	if t := b.Table(KindBusinessDays); t != nil {
		if out.BusinessDays, err = parseBusinessDays(t, out.Coerced); err != nil {
			return nil, err
		}
	}
	if t := b.Table(KindRates); t != nil {
		if out.Rates, err = parseRates(t, out.Coerced); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func requireColumn(t *normalize.Table, column string, aliases []string) (int, error) {
	col, ok := t.Column(aliases...)
	if !ok {
		return -1, &generic.MissingColumnError{Dataset: t.Name, Column: column}
	}
	return col, nil
}

func optional(t *normalize.Table, aliases []string) int {
	col, _ := t.Column(aliases...)
	return col
}

func rowID(t *normalize.Table, row []string, col int) generic.EmployeeID {
	return generic.NewEmployeeID(t.Cell(row, col))
}

func parseActive(t *normalize.Table) ([]ActiveRow, error) {
	idCol, err := requireColumn(t, "matricula", aliasID)
	if err != nil {
		return nil, err
	}
	roleCol, err := requireColumn(t, "cargo", aliasRole)
	if err != nil {
		return nil, err
	}
	statusCol, err := requireColumn(t, "situacao", aliasStatus)
	if err != nil {
		return nil, err
	}
	unionCol, err := requireColumn(t, "sindicato", aliasUnion)
	if err != nil {
		return nil, err
	}

	rows := make([]ActiveRow, 0, t.Len())
	for _, r := range t.Rows {
		id := rowID(t, r, idCol)
		if id.IsZero() {
			continue
		}
		rows = append(rows, ActiveRow{
			ID:     id,
			Role:   t.Cell(r, roleCol),
			Status: t.Cell(r, statusCol),
			Union:  t.Cell(r, unionCol),
		})
	}
	return rows, nil
}

func parseAdmissions(t *normalize.Table, coerced map[string]int) ([]AdmissionRow, error) {
	idCol, err := requireColumn(t, "matricula", aliasID)
	if err != nil {
		return nil, err
	}
	dateCol, err := requireColumn(t, "admissao", aliasAdmission)
	if err != nil {
		return nil, err
	}
	roleCol := optional(t, aliasRole)
	unionCol := optional(t, aliasUnion)

	rows := make([]AdmissionRow, 0, t.Len())
	for _, r := range t.Rows {
		id := rowID(t, r, idCol)
		if id.IsZero() {
			continue
		}
		row := AdmissionRow{
			ID:    id,
			Date:  ParseDate(t.Cell(r, dateCol)),
			Role:  t.Cell(r, roleCol),
			Union: t.Cell(r, unionCol),
		}
		if row.Date == nil && t.Cell(r, dateCol) != "" {
			coerced[t.Name]++
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseTerminations(t *normalize.Table, coerced map[string]int) ([]TerminationRow, error) {
	idCol, err := requireColumn(t, "matricula", aliasID)
	if err != nil {
		return nil, err
	}
	dateCol, err := requireColumn(t, "data_demissao", aliasTermination)
	if err != nil {
		return nil, err
	}
	ackCol := optional(t, aliasAck)

	rows := make([]TerminationRow, 0, t.Len())
	for _, r := range t.Rows {
		id := rowID(t, r, idCol)
		if id.IsZero() {
			continue
		}
		row := TerminationRow{
			ID:   id,
			Date: ParseDate(t.Cell(r, dateCol)),
			Ack:  ParseAck(t.Cell(r, ackCol)),
		}
		if row.Date == nil && t.Cell(r, dateCol) != "" {
			coerced[t.Name]++
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseVacations(t *normalize.Table, coerced map[string]int) ([]VacationRow, error) {
	idCol, err := requireColumn(t, "matricula", aliasID)
	if err != nil {
		return nil, err
	}
	daysCol := optional(t, aliasVacationDays)
	startCol := optional(t, aliasStart)
	endCol := optional(t, aliasEnd)
	if daysCol < 0 && (startCol < 0 || endCol < 0) {
		return nil, &generic.MissingColumnError{Dataset: t.Name, Column: "dias_de_ferias or dt_inicio/dt_fim"}
	}

	rows := make([]VacationRow, 0, t.Len())
	for _, r := range t.Rows {
		id := rowID(t, r, idCol)
		if id.IsZero() {
			continue
		}
		row := VacationRow{
			ID:    id,
			Start: ParseDate(t.Cell(r, startCol)),
			End:   ParseDate(t.Cell(r, endCol)),
		}
		if raw := t.Cell(r, daysCol); raw != "" {
			days, ok := ParseInt(raw)
			if !ok || days < 0 {
				coerced[t.Name]++
				days = 0
			}
			row.Days = days
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseIDSet(t *normalize.Table) (IDSet, error) {
	idCol, err := requireColumn(t, "matricula", aliasID)
	if err != nil {
		return nil, err
	}
	set := make(IDSet, t.Len())
	for _, r := range t.Rows {
		if id := rowID(t, r, idCol); !id.IsZero() {
			set[id] = struct{}{}
		}
	}
	return set, nil
}

func parseBusinessDays(t *normalize.Table, coerced map[string]int) ([]BusinessDayRow, error) {
	unionCol, err := requireColumn(t, "sindicato", aliasUnion)
	if err != nil {
		return nil, err
	}
	daysCol, err := requireColumn(t, "dias_uteis", aliasBusinessDays)
	if err != nil {
		return nil, err
	}

	rows := make([]BusinessDayRow, 0, t.Len())
	for _, r := range t.Rows {
		union := t.Cell(r, unionCol)
		if union == "" {
			continue
		}
		days, ok := ParseInt(t.Cell(r, daysCol))
		if !ok || days < 0 {
			coerced[t.Name]++
			continue
		}
		rows = append(rows, BusinessDayRow{Union: union, Days: days})
	}
	return rows, nil
}

func parseRates(t *normalize.Table, coerced map[string]int) ([]RateRow, error) {
	regionCol, err := requireColumn(t, "estado", aliasRegion)
	if err != nil {
		return nil, err
	}
	rateCol, err := requireColumn(t, "valor", aliasRate)
	if err != nil {
		return nil, err
	}

	rows := make([]RateRow, 0, t.Len())
	for _, r := range t.Rows {
		name := t.Cell(r, regionCol)
		if name == "" {
			continue
		}
		rate, ok := ParseMoney(t.Cell(r, rateCol))
		if !ok || rate.IsNegative() {
			coerced[t.Name]++
			continue
		}
		rows = append(rows, RateRow{Region: name, Rate: rate})
	}
	return rows, nil
}
