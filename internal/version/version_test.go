package version

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	switch {
	case info.Version == "":
		t.Error("version should not be empty")
	case info.Commit == "":
		t.Error("commit should not be empty")
	case info.Date == "":
		t.Error("date should not be empty")
	}
}

func TestString(t *testing.T) {
	s := String()
	for _, part := range []string{"version=", "commit=", "date="} {
		if !strings.Contains(s, part) {
			t.Errorf("String should contain %q, got %q", part, s)
		}
	}
	if s != Get().String() {
		t.Errorf("String (%s) should match Get().String()", s)
	}
}

func TestFields(t *testing.T) {
	info := BuildInfo{Version: "v1.2.3", Commit: "abc", Date: "2026-01-01"}
	fields := info.Fields()
	if fields["version"] != "v1.2.3" || fields["commit"] != "abc" || fields["date"] != "2026-01-01" {
		t.Errorf("unexpected fields %v", fields)
	}
}
