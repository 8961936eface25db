package media

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// DurationProbe determines the playtime of an assembled video file. It
// prefers a fast container-metadata read and falls back to an external
// ffprobe invocation when the metadata is missing or fails the
// plausibility checks.
type DurationProbe struct {
	ffprobeBin string
	policy     DurationPolicy
	logger     zerolog.Logger
}

func NewDurationProbe(ffprobeBin string, policy DurationPolicy, logger zerolog.Logger) *DurationProbe {
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}
	return &DurationProbe{
		ffprobeBin: ffprobeBin,
		policy:     policy,
		logger:     logger.With().Str("service", "DurationProbe").Logger(),
	}
}

// ProbeDuration returns the duration of the file in whole seconds. It fails
// if the file is missing or empty, or if neither strategy produces a value
// that passes the plausibility checks.
func (p *DurationProbe) ProbeDuration(ctx context.Context, path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat video file: %w", err)
	}
	if info.Size() == 0 {
		return 0, fmt.Errorf("video file %s is empty", path)
	}

	seconds, primaryErr := p.metadataDuration(path)
	if primaryErr == nil {
		return seconds, nil
	}
	p.logger.Warn().Err(primaryErr).Str("path", path).Msg("Metadata duration rejected, falling back to ffprobe")

	seconds, fallbackErr := p.ffprobeDuration(ctx, path)
	if fallbackErr != nil {
		return 0, fmt.Errorf("duration probe failed: metadata: %v; ffprobe: %w", primaryErr, fallbackErr)
	}
	return seconds, nil
}

func (p *DurationProbe) metadataDuration(path string) (int, error) {
	raw, err := mp4Duration(path)
	if err != nil {
		return 0, err
	}
	if err := p.policy.ValidateProbed(raw); err != nil {
		return 0, err
	}
	return int(math.Round(raw)), nil
}

func (p *DurationProbe) ffprobeDuration(ctx context.Context, path string) (int, error) {
	cmd := exec.CommandContext(ctx, p.ffprobeBin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	raw, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output %q: %w", stdout.String(), err)
	}
	if err := p.policy.ValidateProbed(raw); err != nil {
		return 0, err
	}
	return int(math.Round(raw)), nil
}
