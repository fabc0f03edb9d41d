package cucumber

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoReports is returned when no pattern matched a report file.
var ErrNoReports = errors.New("no cucumber reports matched")

// Glob expands patterns (with ** support) into a sorted, de-duplicated list
// of regular files. Directories are ignored.
func Glob(patterns ...string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			m = filepath.Clean(m)
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}

	if len(files) == 0 {
		return nil, ErrNoReports
	}
	sort.Strings(files)
	return files, nil
}
