package version

import (
	"runtime"
	"testing"
)

func TestGetReflectsPackageVars(t *testing.T) {
	origVersion, origCommit, origDate := BuildVersion, Commit, BuildDate
	defer func() {
		BuildVersion, Commit, BuildDate = origVersion, origCommit, origDate
	}()

	BuildVersion = "1.2.3"
	Commit = "abc123"
	BuildDate = "2026-07-30T00:00:00Z"

	info := Get()
	if info.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", info.Version)
	}
	if info.Commit != "abc123" {
		t.Errorf("Commit = %q, want abc123", info.Commit)
	}
	if info.BuildDate != "2026-07-30T00:00:00Z" {
		t.Errorf("BuildDate = %q, want 2026-07-30T00:00:00Z", info.BuildDate)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}

func TestGetDefaults(t *testing.T) {
	if BuildVersion == "" {
		t.Error("BuildVersion default should not be empty")
	}
}
