package format

import (
	"path/filepath"
	"slices"
	"strings"
)

// DefaultName is used for stdout and for files whose extension no format
// claims
const DefaultName = "json"

// preference orders formats when more than one claims an extension
var preference = []string{"json", "markdown", "taskwarrior"}

// Select picks a format by name. With an empty name it tries the formats in
// order of preference against the extension of path, falling back to JSON.
func Select(name, path string) (Format, error) {
	if name != "" {
		return Create(name)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" {
		for _, candidate := range preference {
			f, err := Create(candidate)
			if err != nil {
				continue
			}
			if slices.Contains(f.Extensions(), ext) {
				return f, nil
			}
		}
	}

	return Create(DefaultName)
}
