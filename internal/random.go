package internal

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

var errOTPDigits = errors.New("invalid otp digits")

// NewOTP returns a uniformly random decimal code of the given width.
// Leading zeros are kept.
func NewOTP(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errOTPDigits
	}

	var b strings.Builder
	b.Grow(digits)

	ten := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
