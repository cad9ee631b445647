package credential

import (
	"errors"
	"net/mail"
	"strings"
)

// ErrInvalidEmail is returned by ParseEmail for malformed addresses.
var ErrInvalidEmail = errors.New("credential: invalid email")

const (
	maxEmailLength = 254
	maxLabelLength = 63
)

// Email is a syntactically valid address of the form local@domain.
// The zero value is not a valid Email.
type Email struct {
	addr string
}

// ParseEmail trims surrounding whitespace, validates raw and lower-cases
// the domain. Display names and comments are rejected, as is any domain
// that is not made of RFC 1123 host labels.
func ParseEmail(raw string) (Email, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxEmailLength {
		return Email{}, ErrInvalidEmail
	}

	parsed, err := mail.ParseAddress(raw)
	if err != nil || parsed.Name != "" || parsed.Address != raw {
		return Email{}, ErrInvalidEmail
	}

	at := strings.LastIndexByte(raw, '@')
	if at <= 0 || at == len(raw)-1 {
		return Email{}, ErrInvalidEmail
	}
	local, domain := raw[:at], raw[at+1:]
	if !validHost(domain) {
		return Email{}, ErrInvalidEmail
	}

	return Email{addr: local + "@" + strings.ToLower(domain)}, nil
}

// MustParseEmail is like ParseEmail but panics on error. Intended for tests
// and constants.
func MustParseEmail(raw string) Email {
	e, err := ParseEmail(raw)
	if err != nil {
		panic(err)
	}
	return e
}

func (e Email) String() string { return e.addr }

// IsZero reports whether e was never parsed.
func (e Email) IsZero() bool { return e.addr == "" }

// Domain returns the lower-cased host part.
func (e Email) Domain() string {
	return e.addr[strings.LastIndexByte(e.addr, '@')+1:]
}

func validHost(host string) bool {
	if host == "" || len(host) > 253 {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		if len(label) == 0 || len(label) > maxLabelLength {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			switch {
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			default:
				return false
			}
		}
	}
	return true
}
