package version

import (
	"strings"
	"testing"
)

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestBanner(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate }()

	Version, GitCommit, BuildDate = "1.2.3", "abc123", "2024-01-15T10:30:00Z"
	if got, want := Banner(false), "bindgen 1.2.3 (abc123) built 2024-01-15T10:30:00Z"; got != want {
		t.Errorf("Banner = %q, want %q", got, want)
	}

	GitCommit, BuildDate = "", ""
	if got := Banner(false); got != "bindgen 1.2.3" {
		t.Errorf("Banner without build info = %q", got)
	}
}

func TestColored(t *testing.T) {
	origVersion := Version
	defer func() { Version = origVersion }()

	Version = "0.4.1-rc1"
	got := Colored(true)
	if !strings.Contains(got, "\x1b[") || !strings.HasSuffix(got, "-rc1") {
		t.Errorf("Colored = %q", got)
	}
	if Colored(false) != Version {
		t.Errorf("uncoloured version must be unchanged")
	}

	Version = "custom"
	if Colored(true) != "custom" {
		t.Errorf("non-semver versions must pass through")
	}
}
