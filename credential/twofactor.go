package credential

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/MrEthical07/authsvc/internal"
)

// TwoFACodeLength is the number of digits in a second-factor code.
const TwoFACodeLength = 6

var (
	// ErrInvalidLoginAttemptID is returned for ids that are not UUIDs.
	ErrInvalidLoginAttemptID = errors.New("credential: invalid login attempt id")
	// ErrInvalidTwoFACode is returned for codes that are not exactly six digits.
	ErrInvalidTwoFACode = errors.New("credential: invalid 2fa code")
)

// LoginAttemptID names one pending second-factor challenge.
type LoginAttemptID struct {
	id string
}

// NewLoginAttemptID mints a random (version 4) attempt id.
func NewLoginAttemptID() (LoginAttemptID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return LoginAttemptID{}, err
	}
	return LoginAttemptID{id: id.String()}, nil
}

// ParseLoginAttemptID accepts any textual UUID form and returns its
// canonical lower-case representation.
func ParseLoginAttemptID(raw string) (LoginAttemptID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return LoginAttemptID{}, ErrInvalidLoginAttemptID
	}
	return LoginAttemptID{id: id.String()}, nil
}

func (l LoginAttemptID) String() string { return l.id }

// TwoFACode is a six-digit one-time code.
type TwoFACode struct {
	code string
}

// NewTwoFACode draws a code uniformly from 000000-999999.
func NewTwoFACode() (TwoFACode, error) {
	code, err := internal.NewOTP(TwoFACodeLength)
	if err != nil {
		return TwoFACode{}, err
	}
	return TwoFACode{code: code}, nil
}

// ParseTwoFACode accepts exactly six ASCII digits.
func ParseTwoFACode(raw string) (TwoFACode, error) {
	if len(raw) != TwoFACodeLength {
		return TwoFACode{}, ErrInvalidTwoFACode
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return TwoFACode{}, ErrInvalidTwoFACode
		}
	}
	return TwoFACode{code: raw}, nil
}

func (c TwoFACode) String() string { return c.code }

// LogValue implements slog.LogValuer; codes are secrets.
func (c TwoFACode) LogValue() slog.Value { return slog.StringValue("[REDACTED]") }
