package benefit

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/normalize"
)

// =============================================================================
// RULES - Parameters of one run
// =============================================================================

// DefaultCutoffDay is the termination-rule decision boundary.
const DefaultCutoffDay = 15

var (
	// DefaultExcludedRoles are matched as substrings of the folded role.
	DefaultExcludedRoles = []string{"DIRETOR", "ESTAGIARIO", "ESTAGIO", "APRENDIZ"}

	// DefaultExcludedStatuses are matched as substrings of the folded status.
	DefaultExcludedStatuses = []string{"LICENCA", "AFASTAD", "AUXILIO"}
)

// Rules are identical for every record of a run.
type Rules struct {
	Period           generic.Period
	CutoffDay        int
	EmployerShare    decimal.Decimal
	ExcludedRoles    []string
	ExcludedStatuses []string
}

// DefaultRules returns the standard rules for a period.
func DefaultRules(period generic.Period) Rules {
	return Rules{
		Period:           period,
		CutoffDay:        DefaultCutoffDay,
		EmployerShare:    generic.EmployerShare,
		ExcludedRoles:    append([]string(nil), DefaultExcludedRoles...),
		ExcludedStatuses: append([]string(nil), DefaultExcludedStatuses...),
	}
}

func (r Rules) Validate() error {
	if err := r.Period.Validate(); err != nil {
		return err
	}
	if r.CutoffDay < 1 || r.CutoffDay > 31 {
		return fmt.Errorf("cutoff day must be in 1..31, got %d", r.CutoffDay)
	}
	if r.EmployerShare.IsNegative() || r.EmployerShare.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("employer share must be in [0, 1], got %s", r.EmployerShare)
	}
	return nil
}

// EmployeeShare is 1 - EmployerShare.
func (r Rules) EmployeeShare() decimal.Decimal {
	return decimal.NewFromInt(1).Sub(r.EmployerShare)
}

// RoleExcluded reports whether a role text matches an excluded keyword.
func (r Rules) RoleExcluded(role string) bool {
	return matchesAny(role, r.ExcludedRoles)
}

// StatusExcluded reports whether a status text matches an excluded keyword.
func (r Rules) StatusExcluded(status string) bool {
	return matchesAny(status, r.ExcludedStatuses)
}

func matchesAny(text string, keywords []string) bool {
	s := normalize.Fold(text)
	if s == "" {
		return false
	}
	for _, k := range keywords {
		if k = normalize.Fold(k); k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}
