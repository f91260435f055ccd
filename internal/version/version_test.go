package version

import (
	"runtime"
	"strings"
	"testing"
)

func withCommit(t *testing.T, commit string) {
	t.Helper()
	orig := Commit
	Commit = commit
	t.Cleanup(func() { Commit = orig })
}

func TestShort(t *testing.T) {
	if got := Short(); got != Version {
		t.Errorf("Short() = %q, want %q", got, Version)
	}
}

func TestInfo(t *testing.T) {
	tests := []struct {
		name    string
		commit  string
		want    []string
		notWant string
	}{
		{
			name:    "long commit is truncated",
			commit:  "abc123456789abcdef",
			want:    []string{"uprava " + Version, "commit: abc1234,", "built: ", runtime.Version()},
			notWant: "abc123456789abcdef",
		},
		{
			name:   "short commit kept",
			commit: "abc",
			want:   []string{"commit: abc,"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withCommit(t, tt.commit)
			got := Info()
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Info() = %q, want it to contain %q", got, w)
				}
			}
			if tt.notWant != "" && strings.Contains(got, tt.notWant) {
				t.Errorf("Info() = %q, must not contain %q", got, tt.notWant)
			}
		})
	}
}

func TestFull(t *testing.T) {
	withCommit(t, "abc123456789abcdef")
	got := Full()

	lines := strings.Split(got, "\n")
	if len(lines) != 5 {
		t.Fatalf("Full() has %d lines, want 5: %q", len(lines), got)
	}
	if lines[0] != "uprava "+Version {
		t.Errorf("first line = %q", lines[0])
	}
	for _, w := range []string{"Commit:     abc123456789abcdef", "Go version: " + runtime.Version(), runtime.GOOS + "/" + runtime.GOARCH} {
		if !strings.Contains(got, w) {
			t.Errorf("Full() missing %q", w)
		}
	}
}
