package util

import (
	"strings"
	"testing"
)

func TestGenerateRandomHex(t *testing.T) {
	hex := GenerateRandomHex(32)
	if len(hex) != 32 {
		t.Errorf("expected 32 chars, got %d", len(hex))
	}
	for _, c := range hex {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("non-hex character %q in %s", c, hex)
		}
	}

	if GenerateRandomHex(0) != "" {
		t.Error("zero length should produce empty string")
	}
	if GenerateRandomHex(-5) != "" {
		t.Error("negative length should produce empty string")
	}

	// Collisions across a small sample would indicate a broken generator.
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRandomHex(16)
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestGeneratedIDPrefixes(t *testing.T) {
	if id := GenerateSessionID(); !strings.HasPrefix(id, "ts_") || len(id) != 35 {
		t.Errorf("unexpected session ID: %s", id)
	}
	if id := GenerateIssueID(); !strings.HasPrefix(id, "i_") || len(id) != 34 {
		t.Errorf("unexpected issue ID: %s", id)
	}
	if id := GenerateRandomID("x_", 8); !strings.HasPrefix(id, "x_") || len(id) != 10 {
		t.Errorf("unexpected ID: %s", id)
	}
}

func TestParseBoolEnv(t *testing.T) {
	cases := []struct {
		value string
		def   bool
		want  bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{" on ", false, true},
		{"false", true, false},
		{"0", true, false},
		{"no", true, false},
		{"off", true, false},
		{"garbage", true, true},
		{"garbage", false, false},
	}
	for _, tc := range cases {
		t.Setenv("FIXPIPE_TEST_BOOL", tc.value)
		if got := ParseBoolEnv("FIXPIPE_TEST_BOOL", tc.def); got != tc.want {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tc.value, tc.def, got, tc.want)
		}
	}

	if got := ParseBoolEnv("FIXPIPE_TEST_UNSET_BOOL", true); got != true {
		t.Error("unset variable should return the default")
	}
}
