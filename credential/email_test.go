package credential

import (
	"errors"
	"testing"
)

func TestParseEmailValid(t *testing.T) {
	cases := map[string]string{
		"test@example.com":        "test@example.com",
		"  test@example.com  ":    "test@example.com",
		"First.Last@Example.COM":  "First.Last@example.com",
		"user+tag@sub.domain.org": "user+tag@sub.domain.org",
		"x@localhost":             "x@localhost",
		"a1@b-c.io":               "a1@b-c.io",
	}
	for raw, want := range cases {
		got, err := ParseEmail(raw)
		if err != nil {
			t.Errorf("ParseEmail(%q): %v", raw, err)
			continue
		}
		if got.String() != want {
			t.Errorf("ParseEmail(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestParseEmailInvalid(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"testexample.com",
		"@example.com",
		"test@",
		"test@@example.com",
		"Bob <bob@example.com>",
		"test@exa mple.com",
		"test@-example.com",
		"test@example-.com",
		"test@example..com",
		"test@.com",
		"test@[127.0.0.1]",
		"test@exam_ple.com",
	}
	for _, raw := range cases {
		if _, err := ParseEmail(raw); !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("ParseEmail(%q): expected ErrInvalidEmail, got %v", raw, err)
		}
	}
}

func TestEmailEquality(t *testing.T) {
	a := MustParseEmail("user@EXAMPLE.com")
	b := MustParseEmail("user@example.com")
	if a != b {
		t.Fatalf("expected %q == %q", a, b)
	}
	if a.Domain() != "example.com" {
		t.Fatalf("Domain() = %q", a.Domain())
	}
	if (Email{}).IsZero() != true || a.IsZero() {
		t.Fatal("IsZero mismatch")
	}
}

func TestMustParseEmailPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustParseEmail("not-an-email")
}
