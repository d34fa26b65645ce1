package images

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Recognized basenames for artwork shipped alongside the media files
var (
	posterAliases   = []string{"poster", "cover", "folder"}
	backdropAliases = []string{"backdrop", "fanart"}

	// Trailing digits with an optional separator, e.g. "poster2", "poster-10"
	numericSuffix = regexp.MustCompile(`^(.*?)[-_ ]?(\d+)$`)
)

// FromFolder returns artwork files found in an item's own folder, split into
// posters and backdrops. Multiples are ordered by their numeric suffix
// (poster2 before poster10), with the unsuffixed file first.
func FromFolder(dir string) (posters, backdrops []string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil
	}

	type candidate struct {
		path  string
		index int
	}
	var posterHits, backdropHits []candidate

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
			continue
		}

		base := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
		index := 0
		if m := numericSuffix.FindStringSubmatch(base); m != nil {
			if n, err := strconv.Atoi(m[2]); err == nil {
				base = m[1]
				index = n
			}
		}

		path := filepath.Join(dir, name)
		switch {
		case matchesAlias(base, posterAliases):
			posterHits = append(posterHits, candidate{path, index})
		case matchesAlias(base, backdropAliases):
			backdropHits = append(backdropHits, candidate{path, index})
		}
	}

	byIndex := func(hits []candidate) []string {
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].index < hits[j].index })
		paths := make([]string, 0, len(hits))
		for _, h := range hits {
			paths = append(paths, h.path)
		}
		return paths
	}

	return byIndex(posterHits), byIndex(backdropHits)
}

func matchesAlias(base string, aliases []string) bool {
	for _, alias := range aliases {
		if base == alias {
			return true
		}
	}
	return false
}
