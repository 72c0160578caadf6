package version

import (
	"strings"
	"testing"
)

func TestDescribe(t *testing.T) {
	oldCommit, oldDate := GitCommit, BuildDate
	defer func() { GitCommit, BuildDate = oldCommit, oldDate }()

	GitCommit, BuildDate = "unknown", "unknown"
	if Full() != Version {
		t.Errorf("Full() = %q without a commit", Full())
	}
	if s := Describe("heatwave"); strings.Contains(s, "commit") || !strings.HasPrefix(s, "heatwave version "+Version) {
		t.Errorf("Unexpected banner %q", s)
	}

	GitCommit, BuildDate = "0123456789abcdef", "2024-05-17"
	if Full() != Version+"-0123456" {
		t.Errorf("Full() = %q", Full())
	}
	s := Describe("heatwave-reader")
	if !strings.Contains(s, "(commit 0123456)") || !strings.Contains(s, "Built: 2024-05-17") {
		t.Errorf("Unexpected banner %q", s)
	}
}
