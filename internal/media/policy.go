package media

import (
	"fmt"
	"math"
)

// Default duration thresholds, in seconds. The suspicious and soft-max
// values came out of real incidents where metadata readers returned
// degenerate large durations for certain encodings; lectures are assumed
// to be short-form content, so anything above the soft ceiling is treated
// as measurement error rather than a legitimately long recording.
const (
	DefaultSuspiciousSeconds = 1000
	DefaultSoftMaxSeconds    = 7200  // 2 hours
	DefaultHardMaxSeconds    = 86400 // 24 hours
)

// DurationPolicy holds the plausibility thresholds applied to probed and
// client-supplied durations.
type DurationPolicy struct {
	SuspiciousSeconds int
	SoftMaxSeconds    int
	HardMaxSeconds    int
}

// DefaultDurationPolicy returns the policy with the historical thresholds.
func DefaultDurationPolicy() DurationPolicy {
	return DurationPolicy{
		SuspiciousSeconds: DefaultSuspiciousSeconds,
		SoftMaxSeconds:    DefaultSoftMaxSeconds,
		HardMaxSeconds:    DefaultHardMaxSeconds,
	}
}

// ValidateProbed checks a raw probed duration. A non-nil error means the
// value must not be used and the caller should fall through to the next
// probing strategy.
func (p DurationPolicy) ValidateProbed(seconds float64) error {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Errorf("duration is not a number")
	}
	if seconds <= 0 {
		return fmt.Errorf("duration %.2fs is not positive", seconds)
	}
	if seconds > float64(p.HardMaxSeconds) {
		return fmt.Errorf("duration %.2fs exceeds %ds, metadata is corrupt", seconds, p.HardMaxSeconds)
	}
	if seconds > float64(p.SoftMaxSeconds) {
		return fmt.Errorf("duration %.2fs exceeds %ds, metadata is probably wrong", seconds, p.SoftMaxSeconds)
	}
	return nil
}

// Plausible reports whether a stored duration looks like a known-good
// short-form lecture duration.
func (p DurationPolicy) Plausible(seconds int) bool {
	return seconds > 0 && seconds < p.SuspiciousSeconds
}

// WithinHardMax reports whether a stored duration is usable as a fallback
// when an incoming candidate is rejected.
func (p DurationPolicy) WithinHardMax(seconds int) bool {
	return seconds > 0 && seconds < p.HardMaxSeconds
}

// FormatDuration renders seconds as M:SS, or H:MM:SS for durations of an
// hour or more.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
