package media

import (
	"math"
	"testing"
)

func TestValidateProbed(t *testing.T) {
	policy := DefaultDurationPolicy()

	tests := []struct {
		name    string
		seconds float64
		wantErr bool
	}{
		{"normal lecture", 612, false},
		{"one second", 1, false},
		{"soft ceiling boundary", 7200, false},
		{"just above soft ceiling", 7201, true},
		{"spurious metadata value", 9000, true},
		{"above hard max", 90000, true},
		{"zero", 0, true},
		{"negative", -5, true},
		{"nan", math.NaN(), true},
		{"positive infinity", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.ValidateProbed(tt.seconds)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateProbed(%v) error = %v, wantErr %v", tt.seconds, err, tt.wantErr)
			}
		})
	}
}

func TestPlausible(t *testing.T) {
	policy := DefaultDurationPolicy()

	if !policy.Plausible(45) {
		t.Error("expected 45s to be plausible")
	}
	if !policy.Plausible(999) {
		t.Error("expected 999s to be plausible")
	}
	if policy.Plausible(1000) {
		t.Error("expected 1000s to be suspicious")
	}
	if policy.Plausible(0) {
		t.Error("expected 0s to be implausible")
	}
	if policy.Plausible(-1) {
		t.Error("expected negative duration to be implausible")
	}
}

func TestWithinHardMax(t *testing.T) {
	policy := DefaultDurationPolicy()

	if !policy.WithinHardMax(5000) {
		t.Error("expected 5000s to be within the hard max")
	}
	if policy.WithinHardMax(86400) {
		t.Error("expected 86400s to be rejected")
	}
	if policy.WithinHardMax(0) {
		t.Error("expected 0s to be rejected")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{65, "1:05"},
		{612, "10:12"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{7325, "2:02:05"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
