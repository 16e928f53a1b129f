package account

import (
	"testing"
	"time"
)

func TestMakeVerifyToken(t *testing.T) {
	secretKey = []byte("secret")
	passwordResetTimeoutDelta = 3 * 24 * time.Hour

	now := time.Now()
	acct := Account{
		ID:        "7f9c71c9-6f3a-4f0d-9a41-bf5ed1c09dbd",
		Role:      RoleGuardian,
		Phone:     "+2348123456789",
		Email:     "g@test.test",
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	acct.SetActive(true)
	_ = acct.SetPassword("pwd")

	validToken := makeToken(acct)

	// generate an expired token
	dayLate := passwordResetTimeoutDelta + (24 * time.Hour)
	nowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken := makeToken(acct)
	nowFunc = time.Now // reset

	tests := []struct {
		name    string
		acct    Account
		token   string
		wantErr error
	}{
		{name: "no token", acct: acct, wantErr: errInvalidToken},
		{name: "invalid parts len", acct: acct, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", acct: acct, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", acct: acct, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", acct: acct, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired token", acct: acct, token: expiredToken, wantErr: errTokenExpired},
		{name: "valid token", acct: acct, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := verifyToken(tt.acct, tt.token); err != tt.wantErr {
				t.Errorf("verifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTokenInvalidatedByPasswordChange(t *testing.T) {
	acct := Account{ID: "acct1", LastLogin: time.Now()}
	_ = acct.SetPassword("oldpwd")

	token := makeToken(acct)
	if err := verifyToken(acct, token); err != nil {
		t.Fatalf("verifyToken() on fresh token: %v", err)
	}

	_ = acct.SetPassword("newpwd")
	if err := verifyToken(acct, token); err != errInvalidToken {
		t.Errorf("verifyToken() after password change error = %v, wantErr %v", err, errInvalidToken)
	}
}
