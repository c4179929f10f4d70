package region_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/region"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func brazil() []region.Entry {
	return []region.Entry{
		{Definition: region.Definition{Code: "SP", Name: "São Paulo", Chapters: []string{"SINDPD SP"}}, Baseline: 22, DailyRate: decimal.RequireFromString("37.50")},
		{Definition: region.Definition{Code: "RJ", Name: "Rio de Janeiro", Chapters: []string{"SINDPD RJ"}}, Baseline: 21, DailyRate: decimal.RequireFromString("35.00")},
		{Definition: region.Definition{Code: "RS", Name: "Rio Grande do Sul", Chapters: []string{"SINDPPD RS"}}, Baseline: 21, DailyRate: decimal.RequireFromString("35.00")},
		{Definition: region.Definition{Code: "PR", Name: "Paraná", Chapters: []string{"SITEPD PR", "CURITIBA"}}, Baseline: 22, DailyRate: decimal.RequireFromString("35.00")},
	}
}

// =============================================================================
// RESOLVER
// =============================================================================

func TestResolver_Precedence(t *testing.T) {
	tbl := region.NewTable(brazil())

	tests := []struct {
		name  string
		union string
		want  generic.Region
	}{
		{"chapter code", "SINDPD SP - SIND.TRAB.EM PROC DADOS E EMPR.EMPRESAS PROC DADOS ESTADO DE SP", "SP"},
		{"chapter code beats abbreviation", "SINDPPD RS - SINDICATO DOS TRAB. EM PROC. DE DADOS RIO GRANDE DO SUL", "RS"},
		{"chapter alias", "SIND EMPREGADOS CURITIBA", "PR"},
		{"accented region name", "Sindicato dos Trabalhadores de São Paulo", "SP"},
		{"region name without accent", "SINDICATO PARANA", "PR"},
		{"abbreviation at end", "SIND. TRAB. PROC. DADOS RJ", "RJ"},
		{"abbreviation with trailing period", "SIND. TRAB. PROC. DADOS RJ.", "RJ"},
		{"abbreviation at start", "PR SINDICATO", "PR"},
		{"abbreviation inside word", "SPRINT SINDICATO", generic.Unresolved},
		{"unknown", "Local 99 Unknown", generic.Unresolved},
		{"blank", "   ", generic.Unresolved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tbl.Resolve(tt.union))
		})
	}
}

func TestResolver_IsPure(t *testing.T) {
	r := region.NewResolver([]region.Definition{{Code: "SP", Name: "São Paulo"}})
	for i := 0; i < 3; i++ {
		assert.Equal(t, generic.Region("SP"), r.Resolve("sindicato sao paulo"))
	}
}

// =============================================================================
// TABLE
// =============================================================================

func TestTable_BaselineAndRate(t *testing.T) {
	tbl := region.NewTable(brazil())

	// GIVEN: A union-specific baseline override
	tbl.SetUnionBaseline("SINDPD SP - SIND.TRAB", 20)

	// THEN: The override wins for that union only
	assert.Equal(t, 20, tbl.Baseline("SP", "sindpd sp - sind.trab"))
	assert.Equal(t, 22, tbl.Baseline("SP", "Another SP union"))

	// AND: Unknown regions have zero baseline and zero rate
	assert.Equal(t, 0, tbl.Baseline(generic.Unresolved, "SINDPD SP - SIND.TRAB"))
	assert.True(t, tbl.Rate(generic.Unresolved).IsZero())
	assert.True(t, tbl.Rate("SP").Equal(decimal.RequireFromString("37.5")))
}

func TestTable_CloneIsIndependent(t *testing.T) {
	base := region.NewTable(brazil())
	base.AddHoliday(generic.Unresolved, generic.NewDate(2025, time.May, 1), "Dia do Trabalho")

	c := base.Clone()
	require.True(t, c.SetRate("SP", decimal.NewFromInt(40)))
	require.True(t, c.SetBaseline("RJ", 19))
	c.AddHoliday("SP", generic.NewDate(2025, time.April, 21), "Tiradentes")

	assert.True(t, base.Rate("SP").Equal(decimal.RequireFromString("37.5")))
	assert.Equal(t, 21, base.Baseline("RJ", ""))
	assert.Len(t, base.Holidays("SP"), 0)
	assert.Len(t, c.Holidays(generic.Unresolved), 1)
	assert.False(t, c.SetRate("XX", decimal.NewFromInt(1)))
}

func TestTable_NegativeValuesClamp(t *testing.T) {
	tbl := region.NewTable([]region.Entry{{Definition: region.Definition{Code: "SP"}, Baseline: -1, DailyRate: decimal.NewFromInt(-5)}})
	assert.Equal(t, 0, tbl.Baseline("SP", ""))
	assert.True(t, tbl.Rate("SP").IsZero())
}

func TestTable_Named(t *testing.T) {
	tbl := region.NewTable(brazil())

	code, ok := tbl.Named("sao paulo")
	require.True(t, ok)
	assert.Equal(t, generic.Region("SP"), code)

	code, ok = tbl.Named(" pr ")
	require.True(t, ok)
	assert.Equal(t, generic.Region("PR"), code)

	// Union text resolves, but is not a region name
	_, ok = tbl.Named("SINDPD RJ - SINDICATO PROFISSIONAIS")
	assert.False(t, ok)
	_, ok = tbl.Named("")
	assert.False(t, ok)
}
