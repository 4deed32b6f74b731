package series

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// APIKeys holds the credentials for both services.
type APIKeys struct {
	FRED string
	EIA  string
}

// Environment variables consulted before the key file.
const (
	EnvFREDKey = "FRED_API_KEY"
	EnvEIAKey  = "EIA_API_KEY"
)

// ErrMissingKey is returned when a service has no key configured.
var ErrMissingKey = errors.New("api key not configured")

// LoadAPIKeys reads keys from the environment first, then from a file of
// "SERVICE: key" lines. Blank lines and # comments are ignored. An empty or
// missing path is not an error.
func LoadAPIKeys(path string) (APIKeys, error) {
	keys := APIKeys{
		FRED: strings.TrimSpace(os.Getenv(EnvFREDKey)),
		EIA:  strings.TrimSpace(os.Getenv(EnvEIAKey)),
	}
	if path == "" || (keys.FRED != "" && keys.EIA != "") {
		return keys, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return keys, nil
	}
	if err != nil {
		return keys, fmt.Errorf("failed to open key file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToUpper(strings.TrimSpace(name)) {
		case "FRED":
			if keys.FRED == "" {
				keys.FRED = value
			}
		case "EIA":
			if keys.EIA == "" {
				keys.EIA = value
			}
		}
	}
	if err := sc.Err(); err != nil {
		return keys, fmt.Errorf("failed to read key file: %w", err)
	}
	return keys, nil
}

// Require reports which keys are missing.
func (k APIKeys) Require() error {
	var missing []string
	if k.FRED == "" {
		missing = append(missing, "FRED")
	}
	if k.EIA == "" {
		missing = append(missing, "EIA")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingKey, strings.Join(missing, ", "))
	}
	return nil
}
