package logging

import "testing"

func TestNewAcceptsKnownFormats(t *testing.T) {
	for _, format := range []string{"", "json", "console"} {
		logger, err := New(Config{Level: "debug", Format: format}, "lifecycle")
		if err != nil {
			t.Fatalf("format %q: %v", format, err)
		}
		if !logger.Core().Enabled(-1) {
			t.Fatalf("format %q: expected debug level enabled", format)
		}
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New(Config{Level: "loud", Format: "json"}, ""); err == nil {
		t.Fatal("expected level error")
	}
	if _, err := New(Config{Level: "info", Format: "xml"}, ""); err == nil {
		t.Fatal("expected format error")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("expected no-op logger")
	}
}
