package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"goconcord/domain/stats"
)

const rule = "============================================================"

func marker(s CheckStatus) string {
	switch s {
	case CheckPass:
		return "✓"
	case CheckFail:
		return "✗"
	case CheckWarn:
		return "⚠"
	default:
		return "-"
	}
}

func cIndexLine(s stats.PolicySummary) string {
	if s.Evaluated == 0 {
		return fmt.Sprintf("%s C-index: undefined (0 folds evaluated, %d skipped)", s.Label(), len(s.Skipped))
	}
	return fmt.Sprintf("%s C-index: %.3f ± %.3f (%d folds, %d skipped)",
		s.Label(), s.Mean, s.StdDev, s.Evaluated, len(s.Skipped))
}

// RenderText writes the console report. Values are rounded to three
// decimals here only; the report itself keeps full precision.
func RenderText(w io.Writer, r *Report) error {
	var b strings.Builder
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "Drug-Protein Interaction Prediction - Validation Tests")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Run %s\n", r.RunID)

	for _, c := range r.Checks {
		fmt.Fprintf(&b, "\n%s %s: %s\n", marker(c.Status), c.Name, c.Detail)
		for _, d := range c.Details {
			fmt.Fprintf(&b, "    %s\n", d)
		}
	}

	if len(r.Summaries) > 0 {
		fmt.Fprintf(&b, "\nCross-validation (%s)\n", r.Predictor)
		for _, s := range r.Summaries {
			fmt.Fprintf(&b, "  %s\n", cIndexLine(s))
			if s.Pooled != nil {
				fmt.Fprintf(&b, "    pooled over held-out predictions: %.3f\n", *s.Pooled)
			}
		}
	}

	if nb := r.Notebook; nb != nil {
		fmt.Fprintf(&b, "\nNotebook %s: %s\n", nb.Source, nb.Status)
		for _, m := range nb.Metrics {
			if m.Found() {
				fmt.Fprintf(&b, "  ✓ %s C-index found: %g\n", m.Label, m.Value)
			} else {
				fmt.Fprintf(&b, "  ⚠ %s: %s\n", m.Label, m.Reason)
			}
		}
		if nb.Reason != "" {
			fmt.Fprintf(&b, "  %s\n", nb.Reason)
		}
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, rule)
	if r.Passed() {
		fmt.Fprintln(&b, "✓ ALL VALIDATION TESTS PASSED")
	} else {
		fmt.Fprintf(&b, "✗ VALIDATION FAILED: %d check(s) failed\n", len(r.Failed()))
	}
	fmt.Fprintln(&b, rule)

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderMarkdown renders the report as a markdown document
func RenderMarkdown(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Validation run %s\n\n", r.RunID)
	fmt.Fprintf(&b, "Started %s, finished %s.\n\n", r.StartedAt.Format("2006-01-02 15:04:05 MST"), r.FinishedAt.Format("2006-01-02 15:04:05 MST"))
	if r.Passed() {
		b.WriteString("**Result: passed**\n\n")
	} else {
		fmt.Fprintf(&b, "**Result: failed** (%d check(s))\n\n", len(r.Failed()))
	}

	if c := r.Cardinality; c != nil {
		fmt.Fprintf(&b, "%d samples, %d proteins, %d drugs, %d observed pairs.\n\n", c.Samples, c.Proteins, c.Drugs, c.Pairs)
	}

	b.WriteString("## Checks\n\n| Check | Status | Detail |\n|---|---|---|\n")
	for _, c := range r.Checks {
		fmt.Fprintf(&b, "| %s | %s %s | %s |\n", c.Name, marker(c.Status), c.Status, escapeCell(c.Detail))
	}

	if len(r.Summaries) > 0 {
		fmt.Fprintf(&b, "\n## Cross-validation\n\nPredictor: `%s`\n\n", r.Predictor)
		b.WriteString("| Policy | Mean C-index | Std dev | Pooled | Folds | Skipped |\n|---|---|---|---|---|---|\n")
		for _, s := range r.Summaries {
			mean := "undefined"
			if s.Evaluated > 0 {
				mean = fmt.Sprintf("%.3f", s.Mean)
			}
			pooled := "undefined"
			if s.Pooled != nil {
				pooled = fmt.Sprintf("%.3f", *s.Pooled)
			}
			fmt.Fprintf(&b, "| %s | %s | %.3f | %s | %d | %d |\n", s.Label(), mean, s.StdDev, pooled, s.Evaluated, len(s.Skipped))
		}
	}

	if nb := r.Notebook; nb != nil {
		fmt.Fprintf(&b, "\n## Notebook\n\n`%s`: **%s**\n\n", nb.Source, nb.Status)
		for _, m := range nb.Metrics {
			if m.Found() {
				fmt.Fprintf(&b, "- %s: %.3f\n", m.Label, m.Value)
			} else {
				fmt.Fprintf(&b, "- %s: %s\n", m.Label, m.State)
			}
		}
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// RenderHTML renders the markdown report as a complete HTML page
func RenderHTML(r *Report) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Validation run " + r.RunID.String(),
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML([]byte(RenderMarkdown(r)), p, renderer)
}

// WriteJSON writes the report with full-precision values
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
