package factory_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/benefit-engine/factory"
	"github.com/warp/benefit-engine/generic"
)

func TestDefaultTable(t *testing.T) {
	table := factory.DefaultTable()

	assert.Equal(t, 22, table.Baseline("SP", ""))
	assert.Equal(t, 21, table.Baseline("RJ", ""))
	assert.Equal(t, 21, table.Baseline("RS", ""))
	assert.Equal(t, 22, table.Baseline("PR", ""))
	assert.True(t, table.Rate("SP").Equal(decimal.RequireFromString("37.50")))
	assert.True(t, table.Rate("PR").Equal(decimal.RequireFromString("35")))

	assert.Equal(t, generic.Region("PR"), table.Resolve("SITEPD PR - SIND. DOS TRAB. EM EMPR. PRIVADAS DE PROC. DE DADOS DE CURITIBA"))
	assert.Equal(t, generic.Region("RJ"), table.Resolve("SINDPD RJ - SINDICATO PROFISSIONAIS DE PROC DADOS DO RIO DE JANEIRO"))
}

func TestParseRegions_Holidays(t *testing.T) {
	// GIVEN: A region file with a national and a regional holiday
	f := factory.NewRegionFactory()
	table, err := f.ParseRegions(`{
		"regions": [{"code": "sp", "name": "São Paulo", "business_days": 22, "daily_rate": 37.5,
		             "holidays": [{"date": "2025-01-25", "name": "Aniversario"}]}],
		"national_holidays": [{"date": "2025-05-01", "name": "Dia do Trabalho"}]
	}`)
	require.NoError(t, err)

	// THEN: The calendar knows both, codes are upper-cased
	cal := table.Calendar()
	assert.True(t, cal.IsHoliday("SP", generic.NewDate(2025, time.January, 25)))
	assert.True(t, cal.IsHoliday("SP", generic.NewDate(2025, time.May, 1)))
	assert.False(t, cal.IsHoliday("RJ", generic.NewDate(2025, time.January, 25)))
}

func TestParseRegions_Validation(t *testing.T) {
	f := factory.NewRegionFactory()

	tests := []struct {
		name string
		json string
	}{
		{"malformed", `{`},
		{"empty", `{"regions": []}`},
		{"missing code", `{"regions": [{"name": "X"}]}`},
		{"duplicate code", `{"regions": [{"code": "SP"}, {"code": "sp"}]}`},
		{"negative days", `{"regions": [{"code": "SP", "business_days": -1}]}`},
		{"negative rate", `{"regions": [{"code": "SP", "daily_rate": "-1"}]}`},
		{"bad holiday", `{"regions": [{"code": "SP"}], "national_holidays": [{"date": "01/05/2025"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseRegions(tt.json)
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_RoundTripsPreset(t *testing.T) {
	// GIVEN: The preset written to disk through ToJSON
	data, err := json.Marshal(factory.ToJSON(factory.DefaultTable()))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "regions.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	// WHEN: Loading it back
	table, err := factory.NewRegionFactory().LoadFile(path)
	require.NoError(t, err)

	// THEN: Reference data is preserved
	assert.Len(t, table.Regions(), 4)
	assert.Equal(t, generic.Region("PR"), table.Resolve("SIND CURITIBA"))
	assert.True(t, table.Rate("SP").Equal(decimal.RequireFromString("37.5")))
}
