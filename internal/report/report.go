// Package report renders calibration reports. The field set is fixed by
// the evaluation contract (question, answer, ground truth, correctness,
// hedge score per question, plus the aggregate score); the formatting is
// free, so both a human-readable text form and a machine-readable JSON
// form are provided.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ahrav/go-caliper/internal/domain"
)

// WriteText renders a per-question listing followed by the aggregate
// summary, in input order.
func WriteText(w io.Writer, report *domain.CalibrationReport) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}

	var b strings.Builder

	b.WriteString("--- Calibration Results ---\n")
	if report.Model != "" {
		fmt.Fprintf(&b, "Model: %s\n", report.Model)
	}
	fmt.Fprintf(&b, "Questions: %d\n\n", len(report.Results))

	for _, r := range report.Results {
		fmt.Fprintf(&b, "Question: %s\n", r.Question)
		fmt.Fprintf(&b, "Answer: %s\n", r.Answer)
		if r.GroundTruth != nil {
			fmt.Fprintf(&b, "Ground Truth: %s\n", *r.GroundTruth)
		} else {
			b.WriteString("Ground Truth: (none)\n")
		}
		fmt.Fprintf(&b, "Correct: %t\n", r.IsCorrect)
		fmt.Fprintf(&b, "Hedge Score: %d\n", r.HedgeScore)
		if r.QueryFailed {
			b.WriteString("Query Failed: true\n")
		}
		b.WriteString(strings.Repeat("-", 20))
		b.WriteString("\n")
	}

	s := report.Summary
	fmt.Fprintf(&b, "\nCorrect: %d  Incorrect: %d", s.Correct, s.Incorrect)
	if s.QueryFailures > 0 {
		fmt.Fprintf(&b, "  Query Failures: %d", s.QueryFailures)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Avg Hedge (incorrect): %.2f\n", s.AvgHedgeIncorrect)
	fmt.Fprintf(&b, "Avg Hedge (correct):   %.2f\n", s.AvgHedgeCorrect)
	fmt.Fprintf(&b, "\nOverall Calibration Score: %.2f\n", s.Score)

	if s.Correct == 0 || s.Incorrect == 0 {
		b.WriteString("Note: single-class result set; the score reduces to one group's average and is not informative on its own.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON renders the report as indented JSON.
func WriteJSON(w io.Writer, report *domain.CalibrationReport) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
