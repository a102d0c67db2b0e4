package util

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"10MB", 10 << 20},
		{"512kb", 512 << 10},
		{"2GB", 2 << 30},
		{" 64 B ", 64},
		{"2048", 2048},
		{"", 7},
		{"lots", 7},
		{"-1MB", 7},
	}
	for _, tt := range tests {
		if got := ParseSize(tt.in, 7); got != tt.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  buy\x00 milk\n "); got != "buy milk" {
		t.Errorf("unexpected %q", got)
	}
}

func TestMaskSecret(t *testing.T) {
	if got := MaskSecret("supersecret", 3); got != "sup***" {
		t.Errorf("unexpected %q", got)
	}
	if got := MaskSecret("ab", 3); got != "***" {
		t.Errorf("short secrets must be fully masked, got %q", got)
	}
}

func TestMaskEmail(t *testing.T) {
	tests := map[string]string{
		"alice@example.com": "a***@example.com",
		"a@x.io":            "***@x.io",
		"no-at-sign":        "n***",
	}
	for in, want := range tests {
		if got := MaskEmail(in); got != want {
			t.Errorf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
