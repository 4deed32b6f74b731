package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
)

// PullOptions controls which files are pulled and where they land.
type PullOptions struct {
	FolderID    string
	DownloadDir string
	// Wanted limits the pull to these CSV names; an xlsx with the same stem
	// also satisfies a name. Empty pulls every CSV and xlsx.
	Wanted []string
}

// PullResult lists the local CSVs written and the wanted names not found.
type PullResult struct {
	Files   []string
	Missing []string
}

// Downloader pulls reference inputs from a Drive folder.
type Downloader struct {
	source Source
}

func NewDownloader(s Source) *Downloader {
	return &Downloader{source: s}
}

// Pull downloads CSV files as-is and converts the first sheet of xlsx files
// to CSV next to them.
func (d *Downloader) Pull(ctx context.Context, opts PullOptions) (*PullResult, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := d.source.ListFiles(ctx, opts.FolderID)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(opts.Wanted))
	for _, w := range opts.Wanted {
		wanted[strings.ToLower(w)] = false
	}

	res := &PullResult{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ext := strings.ToLower(filepath.Ext(f.Name))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}
		csvName := strings.TrimSuffix(f.Name, filepath.Ext(f.Name)) + ".csv"
		if len(wanted) > 0 {
			done, ok := wanted[strings.ToLower(csvName)]
			if !ok || done {
				continue
			}
			wanted[strings.ToLower(csvName)] = true
		}

		local := filepath.Join(opts.DownloadDir, f.Name)
		if err := d.download(ctx, f, local); err != nil {
			return nil, err
		}

		if ext == ".xlsx" {
			csvPath := filepath.Join(opts.DownloadDir, csvName)
			if err := refdata.ConvertXLSXToCSV(local, csvPath); err != nil {
				return nil, fmt.Errorf("failed to convert %s to csv: %w", f.Name, err)
			}
			_ = os.Remove(local)
			local = csvPath
		}
		log.Info().Str("file", f.Name).Str("path", local).Msg("drive file pulled")
		res.Files = append(res.Files, local)
	}

	for _, name := range opts.Wanted {
		if !wanted[strings.ToLower(name)] {
			res.Missing = append(res.Missing, name)
		}
	}
	return res, nil
}

func (d *Downloader) download(ctx context.Context, f *File, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", path, err)
	}
	if err := d.source.DownloadFile(ctx, f.ID, out); err != nil {
		out.Close()
		return fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	return out.Close()
}
