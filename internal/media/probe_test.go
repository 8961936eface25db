package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
)

// buildMP4 returns the bytes of a minimal MP4 container whose mvhd box
// declares the given duration.
func buildMP4(seconds int) []byte {
	var buf bytes.Buffer

	// ftyp
	binary.Write(&buf, binary.BigEndian, uint32(16))
	buf.WriteString("ftypisom")
	binary.Write(&buf, binary.BigEndian, uint32(1))

	// mvhd version 0: 8-byte header + 32-byte payload
	mvhd := make([]byte, 40)
	binary.BigEndian.PutUint32(mvhd[0:4], 40)
	copy(mvhd[4:8], "mvhd")
	binary.BigEndian.PutUint32(mvhd[20:24], 1000)                 // timescale
	binary.BigEndian.PutUint32(mvhd[24:28], uint32(seconds*1000)) // duration

	// moov wrapping mvhd
	binary.Write(&buf, binary.BigEndian, uint32(8+len(mvhd)))
	buf.WriteString("moov")
	buf.Write(mvhd)

	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func newTestProbe(ffprobeBin string) *DurationProbe {
	return NewDurationProbe(ffprobeBin, DefaultDurationPolicy(), zerolog.Nop())
}

func TestProbeDurationFromMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	writeFile(t, path, buildMP4(125))

	// ffprobe must not be needed when the metadata is good.
	probe := newTestProbe("/nonexistent/ffprobe")
	got, err := probe.ProbeDuration(context.Background(), path)
	if err != nil {
		t.Fatalf("ProbeDuration returned error: %v", err)
	}
	if got != 125 {
		t.Fatalf("expected duration 125, got %d", got)
	}
}

func TestProbeDurationMvhdVersion1(t *testing.T) {
	var buf bytes.Buffer
	mvhd := make([]byte, 8+44)
	binary.BigEndian.PutUint32(mvhd[0:4], uint32(len(mvhd)))
	copy(mvhd[4:8], "mvhd")
	mvhd[8] = 1                                          // version
	binary.BigEndian.PutUint32(mvhd[28:32], 600)         // timescale
	binary.BigEndian.PutUint64(mvhd[32:40], 600*4500/10) // duration: 450s
	binary.Write(&buf, binary.BigEndian, uint32(8+len(mvhd)))
	buf.WriteString("moov")
	buf.Write(mvhd)

	path := filepath.Join(t.TempDir(), "clip.mp4")
	writeFile(t, path, buf.Bytes())

	probe := newTestProbe("/nonexistent/ffprobe")
	got, err := probe.ProbeDuration(context.Background(), path)
	if err != nil {
		t.Fatalf("ProbeDuration returned error: %v", err)
	}
	if got != 450 {
		t.Fatalf("expected duration 450, got %d", got)
	}
}

func TestProbeDurationMissingFile(t *testing.T) {
	probe := newTestProbe("/nonexistent/ffprobe")
	if _, err := probe.ProbeDuration(context.Background(), filepath.Join(t.TempDir(), "absent.mp4")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestProbeDurationEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.mp4")
	writeFile(t, path, nil)

	probe := newTestProbe("/nonexistent/ffprobe")
	if _, err := probe.ProbeDuration(context.Background(), path); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestProbeDurationFallbackToFFprobe(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake ffprobe script requires a POSIX shell")
	}
	dir := t.TempDir()

	// Not an MP4, so the metadata strategy fails and ffprobe decides.
	path := filepath.Join(dir, "clip.webm")
	writeFile(t, path, []byte("not an mp4 container"))

	stub := filepath.Join(dir, "ffprobe")
	writeFile(t, stub, []byte("#!/bin/sh\necho 125.4\n"))
	if err := os.Chmod(stub, 0o755); err != nil {
		t.Fatal(err)
	}

	probe := newTestProbe(stub)
	got, err := probe.ProbeDuration(context.Background(), path)
	if err != nil {
		t.Fatalf("ProbeDuration returned error: %v", err)
	}
	if got != 125 {
		t.Fatalf("expected duration 125, got %d", got)
	}
}

func TestProbeDurationSpuriousMetadataTriggersFallback(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake ffprobe script requires a POSIX shell")
	}
	dir := t.TempDir()

	// Metadata says 9000s, above the 2h soft ceiling; ffprobe knows better.
	path := filepath.Join(dir, "clip.mp4")
	writeFile(t, path, buildMP4(9000))

	stub := filepath.Join(dir, "ffprobe")
	writeFile(t, stub, []byte("#!/bin/sh\necho 612.0\n"))
	if err := os.Chmod(stub, 0o755); err != nil {
		t.Fatal(err)
	}

	probe := newTestProbe(stub)
	got, err := probe.ProbeDuration(context.Background(), path)
	if err != nil {
		t.Fatalf("ProbeDuration returned error: %v", err)
	}
	if got != 612 {
		t.Fatalf("expected duration 612, got %d", got)
	}
}

func TestProbeDurationBothStrategiesFail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	writeFile(t, path, buildMP4(9000))

	probe := newTestProbe("/nonexistent/ffprobe")
	if _, err := probe.ProbeDuration(context.Background(), path); err == nil {
		t.Fatal("expected error when metadata is spurious and ffprobe is unavailable")
	}
}

func TestProbeDurationFallbackResultValidated(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake ffprobe script requires a POSIX shell")
	}
	dir := t.TempDir()

	path := filepath.Join(dir, "clip.webm")
	writeFile(t, path, []byte("not an mp4 container"))

	// ffprobe also reports a spurious value; the probe must reject it.
	stub := filepath.Join(dir, "ffprobe")
	writeFile(t, stub, []byte("#!/bin/sh\necho 9000\n"))
	if err := os.Chmod(stub, 0o755); err != nil {
		t.Fatal(err)
	}

	probe := newTestProbe(stub)
	if _, err := probe.ProbeDuration(context.Background(), path); err == nil {
		t.Fatal("expected error when the fallback result fails validation")
	}
}
