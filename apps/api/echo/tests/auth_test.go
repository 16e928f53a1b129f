package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"testing"

	. "github.com/tkamau/tunza/apps/api/echo"
	"github.com/tkamau/tunza/core/account"
	smssvc "github.com/tkamau/tunza/services/sms"
)

var otpRe = regexp.MustCompile(`\b(\d{6})\b`)

// lastOTPFor digs the latest code texted to phone out of the SMS capture buffer.
func lastOTPFor(t *testing.T, phone string) string {
	t.Helper()
	for i := len(smssvc.SentMessages) - 1; i >= 0; i-- {
		msg := smssvc.SentMessages[i]
		if msg.To == phone {
			if m := otpRe.FindStringSubmatch(msg.Body); m != nil {
				return m[1]
			}
		}
	}
	t.Fatalf("no OTP texted to %s", phone)
	return ""
}

func Test_authApi_signupJourney(t *testing.T) {
	smssvc.ClearSentMessages()
	phone := randomPhone()
	national := "0" + phone[len("+234"):]

	// register with the national format; the account is stored in E.164
	body := fmt.Sprintf(`{"phoneNumber": %q, "password": "Abcdef1!"}`, national)
	req, rec := newRequest(http.MethodPost, "/v1/auth/register-guardian", []byte(body))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var reg TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
		t.Fatalf("register: decoding body: %v", err)
	}
	if reg.Token == "" || reg.ID == "" {
		t.Fatalf("register: missing token or id in %s", rec.Body.String())
	}

	// login is blocked until the phone is verified
	creds := fmt.Sprintf(`{"phoneNumber": %q, "password": "Abcdef1!"}`, phone)
	req, rec = newRequest(http.MethodPost, "/v1/auth/login", []byte(creds))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marshallObj(t, httpErr{Message: "phone number not verified"}),
	}, rec)

	// a wrong code is a field error
	bad := fmt.Sprintf(`{"phoneNumber": %q, "otp": "000000"}`, phone)
	req, rec = newRequest(http.MethodPost, "/v1/auth/verify-otp", []byte(bad))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("verify-otp (wrong code): code = %v; body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "otp") {
		t.Errorf("verify-otp (wrong code): body %s misses the otp field", rec.Body.String())
	}

	// the texted code verifies the phone and returns a fresh token
	code := lastOTPFor(t, phone)
	good := fmt.Sprintf(`{"phoneNumber": %q, "otp": %q}`, phone, code)
	req, rec = newRequest(http.MethodPost, "/v1/auth/verify-otp", []byte(good))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify-otp: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var verified TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &verified); err != nil {
		t.Fatalf("verify-otp: decoding body: %v", err)
	}
	if verified.Token == "" {
		t.Fatal("verify-otp: missing fresh token")
	}

	// login now succeeds
	req, rec = newRequest(http.MethodPost, "/v1/auth/login", []byte(creds))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: code = %v; body %s", rec.Code, rec.Body.String())
	}
}

func Test_authApi_register(t *testing.T) {
	existing := createAccount(t, account.RoleGuardian, "Taken", "Abcdef1!")

	tests := []httpTest{
		{
			name: "empty body reports all fields at once", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{
				"phoneNumber": "this field is required",
				"password":    "this field is required",
			}),
		},
		{
			name: "invalid phone", body: []byte(`{"phoneNumber": "12345", "password": "Abcdef1!"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"phoneNumber": "enter a valid phone number"}),
		},
		{
			name: "weak password", body: []byte(fmt.Sprintf(`{"phoneNumber": %q, "password": "weak"}`, randomPhone())),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{
				"password": "password must be at least 8 characters and contain an uppercase letter, a digit and a special character",
			}),
		},
		{
			name: "password mismatch",
			body: []byte(fmt.Sprintf(`{"phoneNumber": %q, "password": "Abcdef1!", "password_confirm": "Abcdef2!"}`, randomPhone())),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "duplicate phone", body: []byte(fmt.Sprintf(`{"phoneNumber": %q, "password": "Abcdef1!"}`, existing.Phone)),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"phoneNumber": "an account with this phone number already exists"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/register-guardian", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_authApi_registerTutor(t *testing.T) {
	smssvc.ClearSentMessages()
	phone := randomPhone()

	body := fmt.Sprintf(`{"phoneNumber": %q, "password": "Abcdef1!"}`, phone)
	req, rec := newRequest(http.MethodPost, "/v1/auth/register-tutor", []byte(body))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register-tutor: code = %v; body %s", rec.Code, rec.Body.String())
	}

	var reg TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	acct, err := acctSvc.GetByID(req.Context(), reg.ID)
	if err != nil {
		t.Fatalf("GetByID(): %v", err)
	}
	if !acct.IsTutor() {
		t.Errorf("role = %q, want %q", acct.Role, account.RoleTutor)
	}
}

func Test_authApi_login(t *testing.T) {
	acct := createAccount(t, account.RoleGuardian, "Login", "Abcdef1!")

	tests := []httpTest{
		{
			name: "unknown phone", body: []byte(`{"phoneNumber": "+2348199999999", "password": "Abcdef1!"}`),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Message: "authentication failed"}),
		},
		{
			name: "wrong password", body: []byte(fmt.Sprintf(`{"phoneNumber": %q, "password": "nope"}`, acct.Phone)),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Message: "authentication failed"}),
		},
		{
			name: "ok", body: []byte(fmt.Sprintf(`{"phoneNumber": %q, "password": "Abcdef1!"}`, acct.Phone)),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_authApi_loginDeactivated(t *testing.T) {
	acct := createAccount(t, account.RoleGuardian, "Inactive", "Abcdef1!")
	acct.SetActive(false)
	if _, err := acctRepo.UpdateAccount(context.Background(), acct); err != nil {
		t.Fatalf("UpdateAccount(): %v", err)
	}

	body := []byte(fmt.Sprintf(`{"phoneNumber": %q, "password": "Abcdef1!"}`, acct.Phone))
	req, rec := newRequest(http.MethodPost, "/v1/auth/login", body)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marshallObj(t, httpErr{Message: "account deactivated"}),
	}, rec)
}

func Test_authApi_resendOTP(t *testing.T) {
	neutral := marshallObj(t, SuccessResponse{Success: "If the phone number is registered, a new code is on its way."})

	tests := []httpTest{
		{name: "unknown phone gets the same answer", body: []byte(`{"phoneNumber": "+2348188888888"}`), wantCode: http.StatusOK, wantData: neutral},
		{name: "known phone", body: []byte(fmt.Sprintf(`{"phoneNumber": %q}`, createAccount(t, account.RoleGuardian, "Resend", "Abcdef1!").Phone)), wantCode: http.StatusOK, wantData: neutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/resend-otp", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_authApi_forgotPassword(t *testing.T) {
	// unknown and known emails are indistinguishable
	req, rec := newRequest(http.MethodPost, "/v1/auth/forgot-password", []byte(`{"email": "ghost@test.test"}`))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("forgot-password: code = %v; body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "an email will arrive in your inbox") {
		t.Errorf("forgot-password: unexpected body %s", rec.Body.String())
	}
}
