package reconcile

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/franz/media-librarian/internal/util"
)

// OverrideFileName is the optional per-item metadata override file
const OverrideFileName = "movie.json"

// override holds user-supplied metadata that takes precedence over anything
// resolved upstream. Absent fields leave the resolved value untouched.
type override struct {
	Title       *string `json:"title"`
	Summary     *string `json:"summary"`
	Rating      *string `json:"rating"`
	ReleaseYear *int    `json:"releaseYear"`
}

// loadOverride reads dir/movie.json, nil when absent or unreadable. A
// malformed override is logged and ignored rather than failing the item.
func loadOverride(dir string) *override {
	data, err := os.ReadFile(filepath.Join(dir, OverrideFileName))
	if err != nil {
		return nil
	}

	var o override
	if err := json.Unmarshal(data, &o); err != nil {
		util.WarnLog("Ignoring malformed %s in %s: %v", OverrideFileName, dir, err)
		return nil
	}
	return &o
}

func (o *override) apply(title, summary, rating *string, releaseYear *int) {
	if o.Title != nil && *o.Title != "" {
		*title = *o.Title
	}
	if o.Summary != nil {
		*summary = *o.Summary
	}
	if o.Rating != nil {
		*rating = *o.Rating
	}
	if o.ReleaseYear != nil && *o.ReleaseYear != 0 {
		*releaseYear = *o.ReleaseYear
	}
}
