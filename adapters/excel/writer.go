package excel

import (
	"fmt"
	"log"
	"time"

	"github.com/xuri/excelize/v2"

	"goconcord/internal/errors"
	"goconcord/internal/report"
)

const (
	checksSheet  = "Checks"
	summarySheet = "Summary"
)

// SheetName is the per-policy sheet holding fold scores
func SheetName(policy string) string {
	return policy + " folds"
}

// WriteReport exports a report as a workbook: a summary sheet, the checks,
// and one sheet of fold scores per evaluated policy.
func WriteReport(path string, r *report.Report) error {
	start := time.Now()
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "failed to create header style")
	}

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return errors.Wrap(err, "failed to rename default sheet")
	}
	if err := writeSummary(f, r, header); err != nil {
		return err
	}
	if err := writeChecks(f, r, header); err != nil {
		return err
	}
	for _, s := range r.Summaries {
		rows := make([][]interface{}, 0, len(s.Folds)+len(s.Skipped))
		for _, fs := range s.Folds {
			rows = append(rows, []interface{}{fs.Key, fs.TrainSize, fs.TestSize, fs.CIndex, fs.Counts.Concordant, fs.Counts.Discordant, fs.Counts.TiedTruth})
		}
		for _, sk := range s.Skipped {
			rows = append(rows, []interface{}{sk.Key, "", "", "", "", "", "", sk.Reason})
		}
		cols := []interface{}{"Fold", "Train", "Test", "C-index", "Concordant", "Discordant", "Tied truth", "Skipped"}
		if err := writeTable(f, SheetName(s.Policy), cols, rows, header); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "failed to save workbook %s", path)
	}
	log.Printf("[ExcelWriter] Wrote %s (%d sheets) in %.2fms", path, len(f.GetSheetList()), float64(time.Since(start).Nanoseconds())/1e6)
	return nil
}

func writeSummary(f *excelize.File, r *report.Report, header int) error {
	rows := [][]interface{}{
		{"Run", r.RunID.String()},
		{"Started", r.StartedAt.Format(time.RFC3339)},
		{"Finished", r.FinishedAt.Format(time.RFC3339)},
		{"Result", passLabel(r.Passed())},
		{"Predictor", r.Predictor},
	}
	if c := r.Cardinality; c != nil {
		rows = append(rows,
			[]interface{}{"Samples", c.Samples},
			[]interface{}{"Proteins", c.Proteins},
			[]interface{}{"Drugs", c.Drugs},
			[]interface{}{"Observed pairs", c.Pairs},
		)
	}
	for i, row := range rows {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}

	first := len(rows) + 2
	policyCols := []interface{}{"Policy", "Mean C-index", "Std dev", "Pooled C-index", "Folds", "Skipped"}
	if err := setRow(f, summarySheet, first, policyCols); err != nil {
		return err
	}
	if err := styleRow(f, summarySheet, first, len(policyCols), header); err != nil {
		return err
	}
	for i, s := range r.Summaries {
		var mean, pooled interface{} = "undefined", "undefined"
		if s.Evaluated > 0 {
			mean = s.Mean
		}
		if s.Pooled != nil {
			pooled = *s.Pooled
		}
		if err := setRow(f, summarySheet, first+1+i, []interface{}{s.Label(), mean, s.StdDev, pooled, s.Evaluated, len(s.Skipped)}); err != nil {
			return err
		}
	}
	return nil
}

func writeChecks(f *excelize.File, r *report.Report, header int) error {
	rows := make([][]interface{}, 0, len(r.Checks))
	for _, c := range r.Checks {
		rows = append(rows, []interface{}{c.Name, string(c.Status), c.Detail})
	}
	return writeTable(f, checksSheet, []interface{}{"Check", "Status", "Detail"}, rows, header)
}

func writeTable(f *excelize.File, sheet string, cols []interface{}, rows [][]interface{}, header int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return errors.Wrapf(err, "failed to create sheet %s", sheet)
	}
	if err := setRow(f, sheet, 1, cols); err != nil {
		return err
	}
	if err := styleRow(f, sheet, 1, len(cols), header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrap(err, "invalid cell")
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return errors.Wrapf(err, "failed to write %s!%s", sheet, cell)
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, width, style int) error {
	from, _ := excelize.CoordinatesToCellName(1, row)
	to, err := excelize.CoordinatesToCellName(width, row)
	if err != nil {
		return errors.Wrap(err, "invalid cell")
	}
	return f.SetCellStyle(sheet, from, to, style)
}

func passLabel(ok bool) string {
	if ok {
		return "passed"
	}
	return "failed"
}

// ReadChecks loads the check rows back from an exported workbook
func ReadChecks(path string) ([]report.CheckResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open workbook %s", path)
	}
	defer f.Close()

	rows, err := f.GetRows(checksSheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s sheet", checksSheet)
	}
	if len(rows) == 0 {
		return nil, errors.ValidationError(fmt.Sprintf("%s sheet has no header", checksSheet))
	}
	out := make([]report.CheckResult, 0, len(rows)-1)
	for _, row := range rows[1:] {
		for len(row) < 3 {
			row = append(row, "")
		}
		out = append(out, report.CheckResult{Name: row[0], Status: report.CheckStatus(row[1]), Detail: row[2]})
	}
	return out, nil
}
