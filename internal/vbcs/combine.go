package vbcs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
)

// SourceColumn tags each combined row with the file it came from.
const SourceColumn = "Source_File"

// CombineSources are the upload files the combiner picks up, in order.
var CombineSources = []string{
	FileFixed,
	FileKS,
	FileBatch,
	FileURMTopco,
	FileWinco,
	"bulk_vbcs.csv",
	"walmart_vbcs.csv",
	"us_foods_vbcs.csv",
	"ks_organic_vbcs.csv",
}

// CombineResult is the concatenated upload table.
type CombineResult struct {
	Table      *refdata.Table
	Sources    []string
	Missing    []string
	Duplicates int
}

// CombineDir combines whichever CombineSources exist in dir.
func CombineDir(dir string) (*CombineResult, error) {
	var paths, missing []string
	for _, name := range CombineSources {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, name)
			continue
		}
		paths = append(paths, p)
	}
	res, err := Combine(paths)
	if err != nil {
		return nil, err
	}
	res.Missing = missing
	return res, nil
}

// Combine keeps the first FieldCount columns of each file, tags rows with the
// file name, concatenates them aligned by column name and drops exact
// duplicate rows.
func Combine(paths []string) (*CombineResult, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no VBCS files to combine", refdata.ErrMissingInput)
	}

	var header []string
	position := make(map[string]int)
	type part struct {
		name string
		t    *refdata.Table
		cols []int // output position of each kept input column
	}
	parts := make([]part, 0, len(paths))

	for _, p := range paths {
		t, err := refdata.Load(p)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", filepath.Base(p), err)
		}
		keep := len(t.Header)
		if keep > FieldCount {
			keep = FieldCount
		}
		cols := make([]int, keep)
		for i := 0; i < keep; i++ {
			name := t.Header[i]
			pos, ok := position[name]
			if !ok {
				pos = len(header)
				position[name] = pos
				header = append(header, name)
			}
			cols[i] = pos
		}
		parts = append(parts, part{name: filepath.Base(p), t: t, cols: cols})
	}

	out := &refdata.Table{Name: FileCombined, Header: append(header, SourceColumn)}
	seen := make(map[string]struct{})
	res := &CombineResult{Table: out}

	for _, pt := range parts {
		res.Sources = append(res.Sources, pt.name)
		for _, row := range pt.t.Rows {
			rec := make([]string, len(out.Header))
			for i, pos := range pt.cols {
				rec[pos] = refdata.Cell(row, i)
			}
			rec[len(rec)-1] = pt.name

			k := strings.Join(rec, "\x1f")
			if _, dup := seen[k]; dup {
				res.Duplicates++
				continue
			}
			seen[k] = struct{}{}
			out.Rows = append(out.Rows, rec)
		}
	}

	log.Info().
		Strs("sources", res.Sources).
		Int("rows", len(out.Rows)).
		Int("duplicates", res.Duplicates).
		Msg("VBCS files combined")

	return res, nil
}
