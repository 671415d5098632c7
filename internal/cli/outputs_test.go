package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTutorialFileNameRoundTrip(t *testing.T) {
	ts := time.Date(2026, 8, 26, 14, 30, 5, 0, time.Local)
	name := tutorialFileName("fastapi", ts)
	if name != "fastapi_tutorial_20260826_143005.md" {
		t.Fatalf("name = %q", name)
	}

	m := tutorialFilePattern.FindStringSubmatch(name)
	if m == nil {
		t.Fatal("generated name does not match the listing pattern")
	}
	if m[1] != "fastapi" {
		t.Errorf("project = %q", m[1])
	}
}

func TestScanTutorials(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"alpha_tutorial_20260101_120000.md",
		"beta_tutorial_20260301_120000.md",
		"notes.md",
		"alpha_tutorial.md", // missing timestamp
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := scanTutorials(dir)
	if err != nil {
		t.Fatalf("scanTutorials error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d tutorials, want 2: %+v", len(got), got)
	}
	// Newest first.
	if got[0].Project != "beta" || got[1].Project != "alpha" {
		t.Errorf("order = %s, %s", got[0].Project, got[1].Project)
	}
}

func TestScanTutorialsMissingDir(t *testing.T) {
	got, err := scanTutorials(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing dir must not error: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512B"},
		{2048, "2.0KB"},
		{3 << 20, "3.0MB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.n); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
