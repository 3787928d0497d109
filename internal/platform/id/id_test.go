package id

import (
	"encoding/base32"
	"strings"
	"testing"
)

func decode(t *testing.T, value string) []byte {
	t.Helper()
	decoded, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(value))
	if err != nil {
		t.Fatalf("decode id: %v", err)
	}
	return decoded
}

func TestNewIDFormat(t *testing.T) {
	value, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if len(value) != 26 {
		t.Fatalf("id length = %d, want 26", len(value))
	}
	for _, r := range value {
		if (r < 'a' || r > 'z') && (r < '2' || r > '7') {
			t.Fatalf("unexpected character %q in id", r)
		}
	}
	if got := len(decode(t, value)); got != 16 {
		t.Fatalf("decoded length = %d, want 16", got)
	}
}

func TestNewIDSetsUUIDVersionAndVariant(t *testing.T) {
	value, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	decoded := decode(t, value)
	if version := decoded[6] >> 4; version != 4 {
		t.Fatalf("version = %d, want 4", version)
	}
	if variant := decoded[8] & 0xC0; variant != 0x80 {
		t.Fatalf("variant = 0x%X, want 0x80", variant)
	}
}

func TestSequenceExhausts(t *testing.T) {
	gen := Sequence("a", "b")
	for _, want := range []string{"a", "b"} {
		got, err := gen()
		if err != nil {
			t.Fatalf("sequence: %v", err)
		}
		if got != want {
			t.Fatalf("id = %q, want %q", got, want)
		}
	}
	if _, err := gen(); err == nil {
		t.Fatal("expected exhausted sequence error")
	}
}
