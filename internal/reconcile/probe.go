package reconcile

import (
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"

	"github.com/franz/media-librarian/internal/util"
)

// ffprobeOutput is the subset of ffprobe's JSON output we need
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeRuntimeSeconds reads the container duration of a video file via
// ffprobe. Callers treat failures as "runtime unknown", never as fatal.
func ProbeRuntimeSeconds(path string) (int, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return 0, util.ErrNotFound
	}

	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return 0, fmt.Errorf("ffprobe failed: %s", string(exitErr.Stderr))
		}
		return 0, fmt.Errorf("ffprobe execution failed: %w", err)
	}

	var info ffprobeOutput
	if err := json.Unmarshal(output, &info); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if info.Format.Duration == "" || info.Format.Duration == "N/A" {
		return 0, nil
	}
	seconds, err := strconv.ParseFloat(info.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable duration %q: %w", info.Format.Duration, err)
	}
	return int(math.Round(seconds)), nil
}
