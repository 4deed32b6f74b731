package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Publisher uploads finished output files under a run-scoped prefix.
type Publisher struct {
	store  ObjectStorage
	prefix string
}

func NewPublisher(store ObjectStorage, prefix string) *Publisher {
	return &Publisher{store: store, prefix: strings.Trim(prefix, "/")}
}

// Key is the object key of file for a run.
func (p *Publisher) Key(runID, file string) string {
	return path.Join(p.prefix, runID, filepath.Base(file))
}

// Publish uploads each file and returns the keys written. Files must be
// complete before they are published.
func (p *Publisher) Publish(ctx context.Context, runID string, files []string) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return keys, fmt.Errorf("failed to read %s: %w", f, err)
		}
		key := p.Key(runID, f)
		if err := p.store.UploadObject(ctx, key, data); err != nil {
			return keys, err
		}
		log.Info().Str("key", key).Int("bytes", len(data)).Msg("output published")
		keys = append(keys, key)
	}
	return keys, nil
}
