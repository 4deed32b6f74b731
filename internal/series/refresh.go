package series

import (
	"errors"
	"os"
	"time"
)

// NeedsRefresh reports whether the file at path is absent or older than maxAge.
func NeedsRefresh(path string, maxAge time.Duration, now time.Time) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return now.Sub(info.ModTime()) > maxAge, nil
}
