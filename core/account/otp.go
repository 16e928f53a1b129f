package account

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// One-time codes are 6 digits, delivered out of band (SMS or email) and kept
// hashed at rest so a leaked accounts table does not leak live codes.

var (
	ErrOTPInvalid = errors.New("invalid verification code")
	ErrOTPExpired = errors.New("verification code expired")

	otpMax = big.NewInt(1000000)
)

// generateOTP returns a random zero-padded 6-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// hashOTP binds the code to one account so codes cannot be replayed across accounts.
func hashOTP(accountID, code string) []byte {
	h := hmac.New(sha256.New, secretKey)
	h.Write([]byte(accountID))
	h.Write([]byte(code))
	return h.Sum(nil)
}

// checkOTP verifies code against the account's stored hash and expiry.
func checkOTP(acct Account, code string, now time.Time) error {
	if len(acct.OTPHash) == 0 {
		return ErrOTPInvalid
	}
	if now.After(acct.OTPExpiresAt) {
		return ErrOTPExpired
	}
	if !hmac.Equal(acct.OTPHash, hashOTP(acct.ID, code)) {
		return ErrOTPInvalid
	}
	return nil
}
