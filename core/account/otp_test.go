package account

import (
	"testing"
	"time"
)

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := generateOTP()
		if err != nil {
			t.Fatalf("generateOTP(): %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("generateOTP() = %q, want 6 digits", code)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("generateOTP() = %q, non-digit %q", code, c)
			}
		}
	}
}

func TestCheckOTP(t *testing.T) {
	now := time.Now()
	acct := Account{ID: "acct1"}
	acct.OTPHash = hashOTP(acct.ID, "123456")
	acct.OTPExpiresAt = now.Add(10 * time.Minute)

	other := Account{ID: "acct2", OTPHash: acct.OTPHash, OTPExpiresAt: acct.OTPExpiresAt}

	tests := []struct {
		name    string
		acct    Account
		code    string
		now     time.Time
		wantErr error
	}{
		{name: "no hash stored", acct: Account{ID: "acct1"}, code: "123456", now: now, wantErr: ErrOTPInvalid},
		{name: "expired", acct: acct, code: "123456", now: now.Add(11 * time.Minute), wantErr: ErrOTPExpired},
		{name: "wrong code", acct: acct, code: "654321", now: now, wantErr: ErrOTPInvalid},
		{name: "replayed across accounts", acct: other, code: "123456", now: now, wantErr: ErrOTPInvalid},
		{name: "valid", acct: acct, code: "123456", now: now},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := checkOTP(tt.acct, tt.code, tt.now); err != tt.wantErr {
				t.Errorf("checkOTP() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
