package datafile

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"gonum.org/v1/gonum/mat"

	"goconcord/domain/core"
	"goconcord/domain/dataset"
	"goconcord/internal/errors"
)

// Paths locates the three aligned input files
type Paths struct {
	Features string `json:"features"`
	Outcomes string `json:"outcomes"`
	Pairs    string `json:"pairs"`
}

// DefaultPaths are the file names the experiment ships with
func DefaultPaths() Paths {
	return Paths{
		Features: "input.data",
		Outcomes: "output.data",
		Pairs:    "pairs.data",
	}
}

// Data is everything loaded from one set of input files
type Data struct {
	Features *mat.Dense
	Samples  *dataset.SampleSet
}

// scanLines calls fn for every non-blank, non-comment line with its 1-based number
func scanLines(r io.Reader, fn func(lineNo int, line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(lineNo, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// parseFinite rejects NaN and infinities, which ParseFloat accepts
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s is not finite", s)
	}
	return v, nil
}

// ReadFeatures parses a whitespace-delimited numeric matrix. Every row must
// have the same number of columns.
func ReadFeatures(r io.Reader) (*mat.Dense, error) {
	var data []float64
	rows, cols := 0, -1
	err := scanLines(r, func(lineNo int, line string) error {
		fields := strings.Fields(line)
		if cols == -1 {
			cols = len(fields)
		} else if len(fields) != cols {
			return errors.ShapeMismatch(fmt.Sprintf("line %d has %d columns, expected %d", lineNo, len(fields), cols))
		}
		for _, f := range fields {
			v, err := parseFinite(f)
			if err != nil {
				return errors.InvalidInput(fmt.Sprintf("line %d: invalid number %q", lineNo, f))
			}
			data = append(data, v)
		}
		rows++
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, errors.InvalidInput("feature matrix is empty")
	}
	return mat.NewDense(rows, cols, data), nil
}

// ReadOutcomes parses a single-column file of real values. Extra columns
// are ignored.
func ReadOutcomes(r io.Reader) ([]float64, error) {
	var out []float64
	err := scanLines(r, func(lineNo int, line string) error {
		first := strings.Fields(line)[0]
		v, err := parseFinite(first)
		if err != nil {
			return errors.InvalidInput(fmt.Sprintf("line %d: invalid outcome %q", lineNo, first))
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

// ReadPairs parses whitespace-delimited (protein, drug) rows. Identifiers
// may be quoted, which allows spaces inside them.
func ReadPairs(r io.Reader) (dataset.PairingTable, error) {
	var table dataset.PairingTable
	err := scanLines(r, func(lineNo int, line string) error {
		fields, err := shellquote.Split(line)
		if err != nil {
			return errors.InvalidInput(fmt.Sprintf("line %d: %v", lineNo, err))
		}
		if len(fields) != 2 {
			return errors.ShapeMismatch(fmt.Sprintf("line %d: expected 2 fields (protein, drug), got %d", lineNo, len(fields)))
		}
		protein, err := core.ParseProteinID(fields[0])
		if err != nil {
			return errors.ShapeMismatch(fmt.Sprintf("line %d: %v", lineNo, err))
		}
		drug, err := core.ParseDrugID(fields[1])
		if err != nil {
			return errors.ShapeMismatch(fmt.Sprintf("line %d: %v", lineNo, err))
		}
		table = append(table, dataset.Pairing{Protein: protein, Drug: drug})
		return nil
	})
	return table, err
}

func withFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()
	v, err := read(f)
	if err != nil {
		return zero, errors.Wrapf(err, "failed to read %s", path)
	}
	return v, nil
}

// LoadFeatures reads the feature matrix file
func LoadFeatures(path string) (*mat.Dense, error) {
	return withFile(path, ReadFeatures)
}

// LoadOutcomes reads the outcome file
func LoadOutcomes(path string) ([]float64, error) {
	return withFile(path, ReadOutcomes)
}

// LoadPairs reads the pairing file
func LoadPairs(path string) (dataset.PairingTable, error) {
	return withFile(path, ReadPairs)
}

// Load reads all three files and aligns them into a sample set. Mismatched
// row counts fail before anything else is computed.
func Load(paths Paths) (*Data, error) {
	features, err := LoadFeatures(paths.Features)
	if err != nil {
		return nil, err
	}
	outcomes, err := LoadOutcomes(paths.Outcomes)
	if err != nil {
		return nil, err
	}
	pairs, err := LoadPairs(paths.Pairs)
	if err != nil {
		return nil, err
	}

	rows, cols := features.Dims()
	set, err := dataset.NewSampleSet(rows, cols, outcomes, pairs)
	if err != nil {
		return nil, err
	}
	return &Data{Features: features, Samples: set}, nil
}
