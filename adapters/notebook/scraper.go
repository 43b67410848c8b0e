package notebook

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// State is the outcome of looking for one labelled value
type State string

const (
	StateFound      State = "found"
	StateNotFound   State = "not_found"
	StateOutOfRange State = "out_of_range"
)

// Metric is one labelled value looked for in rendered output
type Metric struct {
	Label  string  `json:"label"`
	State  State   `json:"state"`
	Value  float64 `json:"value"`
	Reason string  `json:"reason,omitempty"`
}

// Found reports whether a plausible value was extracted
func (m Metric) Found() bool {
	return m.State == StateFound
}

// Status distinguishes a validated run from one that could not be checked
type Status string

const (
	StatusValidated        Status = "validated"
	StatusCouldNotValidate Status = "could_not_validate"
	StatusFailed           Status = "failed"
)

// Result is the outcome of checking one notebook
type Result struct {
	Source  string   `json:"source"`
	Status  Status   `json:"status"`
	Metrics []Metric `json:"metrics"`
	Reason  string   `json:"reason,omitempty"`
}

// DefaultLabels are the cross-validation results the experiment reports
var DefaultLabels = []string{"LODO", "LOPO", "LOOPD"}

// The first whole signed decimal number after "<label>-CV", across line
// breaks. The number must start at a non-digit so that "10.5" is not read
// as "0.5". These patterns are heuristic; structured results are preferred
// when available.
func labelPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)` + regexp.QuoteMeta(label) + `-CV.*?(?:^|[^0-9.\-])(-?[0-9]+\.[0-9]+)`)
}

// Scrape looks for every label in free text. It never fails: a label with
// no match is NotFound, a value outside [0, 1] is OutOfRange.
func Scrape(text string, labels ...string) []Metric {
	if len(labels) == 0 {
		labels = DefaultLabels
	}
	metrics := make([]Metric, 0, len(labels))
	for _, label := range labels {
		metrics = append(metrics, scrapeOne(text, label))
	}
	return metrics
}

func scrapeOne(text, label string) Metric {
	m := labelPattern(label).FindStringSubmatch(text)
	if m == nil {
		return Metric{Label: label, State: StateNotFound, Reason: fmt.Sprintf("%s-CV C-index not found in output", label)}
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Metric{Label: label, State: StateNotFound, Reason: err.Error()}
	}
	if v < 0 || v > 1 {
		return Metric{Label: label, State: StateOutOfRange, Value: v, Reason: fmt.Sprintf("%g is outside [0, 1]", v)}
	}
	return Metric{Label: label, State: StateFound, Value: v}
}

// ExtractOutputs returns the rendered output text of a Jupyter notebook.
// Input that is not a notebook, or a notebook with no outputs, is returned
// as-is so that the scraper can still search it.
func ExtractOutputs(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		return string(raw)
	}
	cells := gjson.GetBytes(raw, "cells")
	if !cells.IsArray() {
		return string(raw)
	}

	var b strings.Builder
	cells.ForEach(func(_, cell gjson.Result) bool {
		cell.Get("outputs").ForEach(func(_, out gjson.Result) bool {
			appendText(&b, out.Get("text"))
			appendText(&b, out.Get("data.text/plain"))
			return true
		})
		return true
	})
	if b.Len() == 0 {
		return string(raw)
	}
	return b.String()
}

// nbformat stores text either as a string or as a list of lines
func appendText(b *strings.Builder, v gjson.Result) {
	switch {
	case v.IsArray():
		v.ForEach(func(_, line gjson.Result) bool {
			b.WriteString(line.String())
			return true
		})
		b.WriteString("\n")
	case v.Exists():
		b.WriteString(v.String())
		b.WriteString("\n")
	}
}

// Evaluate decides the status of a set of metrics. A run is validated only
// when at least one plausible value was found and every found value reaches
// minCIndex. Values below it fail the check; missing or out-of-range values
// only mean the run could not be validated.
func Evaluate(source string, metrics []Metric, minCIndex float64) Result {
	res := Result{Source: source, Metrics: metrics, Status: StatusCouldNotValidate}
	found := 0
	var low []string
	for _, m := range metrics {
		if !m.Found() {
			continue
		}
		found++
		if m.Value < minCIndex {
			low = append(low, fmt.Sprintf("%s C-index out of range: %g", m.Label, m.Value))
		}
	}
	switch {
	case len(low) > 0:
		res.Status = StatusFailed
		res.Reason = strings.Join(low, "; ")
	case found > 0:
		res.Status = StatusValidated
	default:
		res.Reason = "no C-index values found in output"
	}
	return res
}

// CheckText scrapes already-rendered text
func CheckText(source, text string, minCIndex float64) Result {
	return Evaluate(source, Scrape(text), minCIndex)
}

// CheckNotebook reads and scrapes an executed notebook. A missing or
// unreadable file yields CouldNotValidate, never an error.
func CheckNotebook(path string, minCIndex float64) Result {
	raw, err := os.ReadFile(path)
	if err != nil {
		reason := fmt.Sprintf("cannot read %s: %v", path, err)
		if os.IsNotExist(err) {
			reason = fmt.Sprintf("%s not found", path)
		}
		return Result{Source: path, Status: StatusCouldNotValidate, Reason: reason}
	}
	return CheckText(path, ExtractOutputs(raw), minCIndex)
}
