package refdata

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// ErrMissingInput is returned when a required reference file is absent or unreadable.
var ErrMissingInput = errors.New("required input missing")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type candidate struct {
	name string
	enc  encoding.Encoding
}

// Tried in order after strict UTF-8.
var latinCandidates = []candidate{
	{name: "windows-1252", enc: charmap.Windows1252},
	{name: "iso-8859-1", enc: charmap.ISO8859_1},
}

// Load reads a CSV or XLSX reference table from path.
func Load(path string) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return LoadXLSX(path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingInput, filepath.Base(path), err)
	}
	return Parse(filepath.Base(path), raw)
}

// LoadCleaned reads a CSV after removing raw bytes 0x80-0x9F, the Windows-1252
// punctuation range that customer extracts exported from the ERP carry.
func LoadCleaned(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingInput, filepath.Base(path), err)
	}
	return Parse(filepath.Base(path), StripControlBytes(raw))
}

// StripControlBytes drops every byte in 0x80-0x9F.
func StripControlBytes(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b >= 0x80 && b <= 0x9F {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Parse decodes raw bytes and reads them as CSV.
func Parse(name string, raw []byte) (*Table, error) {
	text, encName := decode(raw)

	t, err := readCSV(name, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingInput, name, err)
	}
	t.Encoding = encName

	log.Debug().
		Str("file", name).
		Str("encoding", encName).
		Int("rows", len(t.Rows)).
		Int("skipped", t.Skipped).
		Msg("reference table loaded")

	return t, nil
}

// decode returns the text of raw using the first encoding that accepts it.
// The last resort drops whatever does not decode so a run never fails on encoding.
func decode(raw []byte) (string, string) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), "utf-8"
	}

	for _, c := range latinCandidates {
		decoded, err := c.enc.NewDecoder().Bytes(raw)
		if err != nil {
			log.Debug().Err(err).Str("encoding", c.name).Msg("decode attempt failed")
			continue
		}
		return stripControlRunes(string(decoded)), c.name
	}

	return strings.ToValidUTF8(string(raw), ""), "utf-8-lossy"
}

// stripControlRunes removes C1 controls and replacement characters left by a
// single-byte decode.
func stripControlRunes(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 0x80 && r <= 0x9F) || r == utf8.RuneError {
			return -1
		}
		return r
	}, s)
}

func readCSV(name, text string) (*Table, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = false

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty file")
		}
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := &Table{Name: name, Header: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				t.Skipped++
				continue
			}
			return nil, err
		}
		if len(record) > len(header) {
			t.Skipped++
			continue
		}
		row := make([]string, len(header))
		for i := range record {
			row[i] = strings.TrimSpace(record[i])
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// RequireFiles resolves each name inside dir and fails with ErrMissingInput
// listing every absent file.
func RequireFiles(dir string, names ...string) (map[string]string, error) {
	paths := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		p := filepath.Join(dir, name)
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			missing = append(missing, name)
			continue
		}
		paths[name] = p
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, strings.Join(missing, ", "))
	}
	return paths, nil
}

// LoadRequired loads a required table and checks that the named columns exist.
func LoadRequired(path string, columns ...string) (*Table, error) {
	t, err := Load(path)
	if err != nil {
		return nil, err
	}
	if missing := t.Missing(columns...); len(missing) > 0 {
		return nil, MissingColumns(t.Name, missing)
	}
	return t, nil
}

// MissingColumns builds the ErrMissingInput error for absent required columns.
func MissingColumns(file string, missing []string) error {
	return fmt.Errorf("%w: %s lacks columns %s", ErrMissingInput, file, strings.Join(missing, ", "))
}
