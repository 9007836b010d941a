package staging

import (
	"strings"
	"testing"
	"time"
)

func TestExtForContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"audio/wav", ".wav"},
		{"audio/x-wav", ".wav"},
		{"audio/mpeg", ".mp3"},
		{"audio/ogg", ".ogg"},
		{"audio/flac", ".flac"},
		{"application/octet-stream", ".bin"},
		{"", ".bin"},
	}
	for _, tc := range tests {
		if got := extForContentType(tc.contentType); got != tc.want {
			t.Fatalf("extForContentType(%q) = %q, want %q", tc.contentType, got, tc.want)
		}
	}
}

func TestObjectNameUnique(t *testing.T) {
	now := time.Unix(1700000000, 42)
	a := objectName(now, "audio/wav")
	b := objectName(now, "audio/wav")

	if !strings.HasPrefix(a, "staged/") || !strings.HasSuffix(a, ".wav") {
		t.Fatalf("unexpected object name %q", a)
	}
	if !strings.Contains(a, "1700000000000000042") {
		t.Fatalf("object name %q missing time suffix", a)
	}
	// Same timestamp must still produce distinct names.
	if a == b {
		t.Fatalf("object names collided: %q", a)
	}
}
