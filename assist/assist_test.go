package assist_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/benefit-engine/assist"
	"github.com/warp/benefit-engine/generic"
)

func records() []generic.EmployeeRecord {
	a := generic.NewEmployeeRecord("100")
	a.Region = "SP"
	a.EntitledDays = 22
	a.DailyRate = decimal.RequireFromString("37.50")
	a.Total = decimal.RequireFromString("825.00")
	a.StatusNote = generic.NoteActive

	b := generic.NewEmployeeRecord("200")
	b.Region = "RJ"
	b.EntitledDays = 10
	b.StatusNote = generic.NoteAdmissionInMonth

	c := generic.NewEmployeeRecord("300")
	c.Region = "RJ"
	c.StatusNote = generic.NoteActive
	return []generic.EmployeeRecord{a, b, c}
}

// =============================================================================
// EXTRACTION
// =============================================================================

func TestExtract(t *testing.T) {
	text := "Sure, here you go:\n```sql\n" +
		"UPDATE report SET status_note = 'checked; ok' WHERE id = '100';\n" +
		"DELETE FROM report;\n" +
		"update report\n  set status_note = 'x';\n" +
		"UPDATE payroll SET total = 0;\n" +
		"```\nLet me know."

	got := assist.Extract(text)

	require.Len(t, got, 2)
	assert.Equal(t, "UPDATE report SET status_note = 'checked; ok' WHERE id = '100'", got[0])
	assert.Equal(t, "update report set status_note = 'x'", got[1])
}

// =============================================================================
// PARSING
// =============================================================================

func TestParse_Accepted(t *testing.T) {
	stmt, err := assist.Parse(`UPDATE report SET status_note = 'O''Brien review' WHERE region IN ('RJ', 'PR')`)

	require.NoError(t, err)
	assert.Equal(t, []assist.Assignment{{Column: "status_note", Value: "O'Brien review"}}, stmt.Set)
	assert.Equal(t, "region", stmt.Where.Column)
	assert.Equal(t, []string{"RJ", "PR"}, stmt.Where.Values)
}

func TestParse_Rejected(t *testing.T) {
	tests := []struct {
		name string
		stmt string
	}{
		{"other table", "UPDATE payroll SET status_note = 'x'"},
		{"derived column", "UPDATE report SET total = 0"},
		{"unknown column", "UPDATE report SET bonus = 1"},
		{"not an update", "DELETE FROM report"},
		{"missing literal", "UPDATE report SET status_note = WHERE id = '1'"},
		{"unterminated string", "UPDATE report SET status_note = 'x"},
		{"trailing input", "UPDATE report SET status_note = 'x' WHERE id = '1' OR 1 = 1"},
		{"bad where operator", "UPDATE report SET status_note = 'x' WHERE id > 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := assist.Parse(tt.stmt)

			require.Error(t, err)
			assert.True(t, errors.Is(err, generic.ErrStatementRejected))
			assert.True(t, generic.IsClientError(err))
		})
	}
}

// =============================================================================
// APPLICATION
// =============================================================================

func TestApply_OverwritesOnCopy(t *testing.T) {
	// GIVEN
	in := records()

	// WHEN
	out := assist.Apply(in, []string{
		"UPDATE report SET status_note = 'reviewed' WHERE region = 'RJ'",
		"UPDATE report SET total = 0",
	})

	// THEN
	assert.Equal(t, 2, out.Rows)
	require.Len(t, out.Applied, 1)
	require.Len(t, out.Rejected, 1)
	assert.Contains(t, out.Rejected[0].Reason, "derived")

	assert.Equal(t, generic.NoteActive, out.Records[0].StatusNote)
	assert.Equal(t, generic.StatusNote("reviewed"), out.Records[1].StatusNote)
	assert.Equal(t, generic.StatusNote("reviewed"), out.Records[2].StatusNote)
	assert.True(t, out.Records[0].Total.Equal(decimal.RequireFromString("825")))

	// input untouched
	assert.Equal(t, generic.NoteAdmissionInMonth, in[1].StatusNote)

	rep := out.Report()
	assert.Equal(t, generic.StageAssist, rep.Stage)
	assert.Equal(t, 1, rep.Skipped)
	assert.Len(t, rep.Warnings, 1)
}

func TestApply_NoWhereMatchesAll(t *testing.T) {
	out := assist.Apply(records(), []string{"UPDATE report SET status_note = 'x'"})

	assert.Equal(t, 3, out.Rows)
	for _, r := range out.Records {
		assert.Equal(t, generic.StatusNote("x"), r.StatusNote)
	}
}

func TestContext(t *testing.T) {
	c := assist.NewContext(records(), 2)

	assert.Equal(t, "report", c.Table)
	require.Len(t, c.Sample, 2)
	assert.Equal(t, "100", c.Sample[0]["id"])
	assert.Equal(t, "825.00", c.Sample[0]["total"])

	writable := 0
	for _, col := range c.Schema {
		if col.Writable {
			writable++
			assert.Equal(t, "status_note", col.Name)
		}
	}
	assert.Equal(t, 1, writable)
}

// =============================================================================
// MODEL BOUNDARY
// =============================================================================

type fakeModel struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeModel) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func TestAssistant_Ask(t *testing.T) {
	// GIVEN a model that answers with one valid and one invalid statement
	m := &fakeModel{reply: "```\nUPDATE report SET status_note = 'flagged' WHERE id = '300';\nUPDATE report SET entitled_days = 99;\n```"}
	a := assist.NewAssistant(m, 1, nil)

	// WHEN
	out, err := a.Ask(context.Background(), records(), "flag employee 300")

	// THEN
	require.NoError(t, err)
	assert.Contains(t, m.prompt, "flag employee 300")
	assert.Contains(t, m.prompt, `"status_note"`)
	assert.Equal(t, 1, out.Rows)
	assert.Len(t, out.Rejected, 1)
	assert.Equal(t, generic.StatusNote("flagged"), out.Records[2].StatusNote)
	assert.Equal(t, 0, out.Records[2].EntitledDays)
}

func TestAssistant_ModelError(t *testing.T) {
	a := assist.NewAssistant(&fakeModel{err: errors.New("offline")}, 0, nil)

	_, err := a.Ask(context.Background(), records(), "anything")

	assert.ErrorContains(t, err, "offline")
}

func TestAssistant_NoModel(t *testing.T) {
	_, err := assist.NewAssistant(nil, 0, nil).Ask(context.Background(), records(), "anything")

	assert.Error(t, err)
}
