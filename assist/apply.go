package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/warp/benefit-engine/generic"
)

// Rejection records a statement that was not applied.
type Rejection struct {
	Statement string `json:"statement"`
	Reason    string `json:"reason"`
}

// Outcome is the result of applying a batch of statements.
type Outcome struct {
	Records  []generic.EmployeeRecord
	Applied  []Statement
	Rejected []Rejection
	Rows     int // row updates across all applied statements
}

// Report converts the outcome into the stage audit line.
func (o Outcome) Report() generic.StageReport {
	rep := generic.StageReport{Stage: generic.StageAssist, Merged: o.Rows, Skipped: len(o.Rejected)}
	for _, r := range o.Rejected {
		rep.Warnings = append(rep.Warnings, r.Reason+": "+r.Statement)
	}
	return rep
}

// Apply validates every statement and applies the valid ones, in order,
// to a copy of records. Invalid statements are reported, never fatal.
func Apply(records []generic.EmployeeRecord, statements []string) Outcome {
	out := Outcome{Records: make([]generic.EmployeeRecord, len(records))}
	for i, r := range records {
		out.Records[i] = r.Clone()
	}

	for _, raw := range statements {
		stmt, err := Parse(raw)
		if err != nil {
			out.Rejected = append(out.Rejected, rejectionOf(raw, err))
			continue
		}
		for i := range out.Records {
			if !stmt.Where.Matches(Row(out.Records[i])) {
				continue
			}
			for _, a := range stmt.Set {
				f, _ := lookup(a.Column)
				f.set(&out.Records[i], a.Value)
			}
			out.Rows++
		}
		out.Applied = append(out.Applied, stmt)
	}
	return out
}

func rejectionOf(raw string, err error) Rejection {
	var se *generic.StatementError
	if errors.As(err, &se) {
		return Rejection{Statement: se.Statement, Reason: se.Reason}
	}
	return Rejection{Statement: raw, Reason: err.Error()}
}

// =============================================================================
// MODEL BOUNDARY
// =============================================================================

// Model is any text-completion backend. The engine never needs one.
type Model interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Assistant asks a Model for UPDATE statements and applies them.
type Assistant struct {
	model      Model
	sampleSize int
	logger     *zap.Logger
}

func NewAssistant(model Model, sampleSize int, logger *zap.Logger) *Assistant {
	if sampleSize <= 0 {
		sampleSize = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{model: model, sampleSize: sampleSize, logger: logger}
}

// Prompt renders the instruction together with the table description.
func Prompt(c Context, instruction string) (string, error) {
	desc, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You may only answer with SQL UPDATE statements against the table %q.\n", c.Table)
	b.WriteString("Columns marked writable are the only ones you may assign.\n\n")
	b.Write(desc)
	b.WriteString("\n\nInstruction: ")
	b.WriteString(instruction)
	b.WriteString("\n")
	return b.String(), nil
}

// Ask sends instruction to the model and applies what comes back.
func (a *Assistant) Ask(ctx context.Context, records []generic.EmployeeRecord, instruction string) (Outcome, error) {
	if a.model == nil {
		return Outcome{}, errors.New("assist: no model configured")
	}
	prompt, err := Prompt(NewContext(records, a.sampleSize), instruction)
	if err != nil {
		return Outcome{}, err
	}
	text, err := a.model.Complete(ctx, prompt)
	if err != nil {
		return Outcome{}, fmt.Errorf("assist: model: %w", err)
	}

	stmts := Extract(text)
	out := Apply(records, stmts)
	a.logger.Info("assist statements applied",
		zap.Int("extracted", len(stmts)),
		zap.Int("applied", len(out.Applied)),
		zap.Int("rejected", len(out.Rejected)),
		zap.Int("rows", out.Rows),
	)
	return out, nil
}
