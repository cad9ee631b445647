package credential

import (
	"errors"
	"strings"
	"testing"
)

func TestLoginAttemptIDRoundTrip(t *testing.T) {
	id, err := NewLoginAttemptID()
	if err != nil {
		t.Fatalf("NewLoginAttemptID: %v", err)
	}
	parsed, err := ParseLoginAttemptID(id.String())
	if err != nil {
		t.Fatalf("ParseLoginAttemptID: %v", err)
	}
	if parsed != id {
		t.Fatalf("round trip mismatch: %q != %q", parsed, id)
	}

	upper, err := ParseLoginAttemptID(strings.ToUpper(id.String()))
	if err != nil {
		t.Fatalf("upper-case uuid rejected: %v", err)
	}
	if upper != id {
		t.Fatal("expected canonical form")
	}
}

func TestNewLoginAttemptIDUnique(t *testing.T) {
	seen := make(map[LoginAttemptID]struct{})
	for i := 0; i < 100; i++ {
		id, err := NewLoginAttemptID()
		if err != nil {
			t.Fatalf("NewLoginAttemptID: %v", err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestParseLoginAttemptIDInvalid(t *testing.T) {
	for _, raw := range []string{"", "abc", "123e4567-e89b-12d3-a456-42661417400g"} {
		if _, err := ParseLoginAttemptID(raw); !errors.Is(err, ErrInvalidLoginAttemptID) {
			t.Errorf("ParseLoginAttemptID(%q): got %v", raw, err)
		}
	}
}

func TestTwoFACode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := NewTwoFACode()
		if err != nil {
			t.Fatalf("NewTwoFACode: %v", err)
		}
		if _, err := ParseTwoFACode(code.String()); err != nil {
			t.Fatalf("generated code %q does not parse: %v", code, err)
		}
	}

	for _, raw := range []string{"", "12345", "1234567", "12a456", " 12345", "١٢٣٤٥٦"} {
		if _, err := ParseTwoFACode(raw); !errors.Is(err, ErrInvalidTwoFACode) {
			t.Errorf("ParseTwoFACode(%q): got %v", raw, err)
		}
	}
	if _, err := ParseTwoFACode("000000"); err != nil {
		t.Fatalf("leading zeros must be accepted: %v", err)
	}
}
