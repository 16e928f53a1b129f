package account

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/tkamau/tunza/core"
)

// Roles
const (
	RoleGuardian = "guardian"
	RoleTutor    = "tutor"
)

var AllRoles = []string{RoleGuardian, RoleTutor}

// RateRange is a tutor's hourly rate bracket.
type RateRange struct {
	Min int `json:"min" validate:"omitempty,gte=0"`
	Max int `json:"max" validate:"omitempty,gtefield=Min"`
}

type Account struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Phone     string `json:"phone_number"` // E.164
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Bio       string `json:"bio,omitempty"`

	// guardian-specific
	Relationship string `json:"relationship,omitempty"` // to the child: mother, father, guardian...

	// tutor-specific
	Subjects []string  `json:"subjects,omitempty"`
	Levels   []string  `json:"levels,omitempty"` // levels taught: primary, secondary...
	Rate     RateRange `json:"rate,omitempty"`

	IsActive        *bool `json:"is_active,omitempty"`
	PhoneVerified   bool  `json:"phone_verified"`
	EmailVerified   bool  `json:"email_verified"`
	ProfileComplete bool  `json:"profile_complete"`

	PasswordHash []byte    `json:"-"`
	OTPHash      []byte    `json:"-"`
	OTPExpiresAt time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
	LastLogin time.Time `json:"last_login"` // UTC
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a *Account) SetActive(active bool) { a.IsActive = &active }

func (a *Account) IsGuardian() bool { return a.Role == RoleGuardian }
func (a *Account) IsTutor() bool    { return a.Role == RoleTutor }

// NewRegistration contains what is needed to open an account: a phone number
// and a password. Everything else comes later via profile completion.
type NewRegistration struct {
	Phone           string `json:"phoneNumber" validate:"required,phone"`
	Password        string `json:"password" validate:"required,password"`
	PasswordConfirm string `json:"password_confirm" validate:"omitempty,eqfield=Password"`
}

func (nr *NewRegistration) Validate(validate *validator.Validate, svc Service) error {
	nr.Phone = core.CleanString(nr.Phone)

	if err := validate.Struct(nr); err != nil {
		return err
	}
	phone, err := NormalizePhone(nr.Phone)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "phoneNumber", Error: err.Error()})
	}
	nr.Phone = phone
	return svc.CheckPhoneUniqueness(nr.Phone)
}

type Credentials struct {
	Phone    string `json:"phoneNumber" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Phone = core.CleanString(c.Phone)
	if err := validate.Struct(c); err != nil {
		return err
	}
	if phone, err := NormalizePhone(c.Phone); err == nil {
		c.Phone = phone
	}
	return nil
}

type VerifyOTP struct {
	Phone string `json:"phoneNumber" validate:"required"`
	Code  string `json:"otp" validate:"required,len=6,numeric"`
}

func (v *VerifyOTP) Validate(validate *validator.Validate) error {
	v.Phone = core.CleanString(v.Phone)
	if err := validate.Struct(v); err != nil {
		return err
	}
	if phone, err := NormalizePhone(v.Phone); err == nil {
		v.Phone = phone
	}
	return nil
}

type EmailOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *EmailOTPRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

type VerifyEmailOTP struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"otp" validate:"required,len=6,numeric"`
}

func (v *VerifyEmailOTP) Validate(validate *validator.Validate) error {
	v.Email = core.CleanString(v.Email, true /* lower */)
	return validate.Struct(v)
}

type ResetAccountPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required,password"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetAccountPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

// CompleteGuardianProfile is the full profile payload a guardian submits after
// phone verification.
type CompleteGuardianProfile struct {
	FirstName    string `json:"firstName" validate:"required"`
	LastName     string `json:"lastName" validate:"required"`
	Email        string `json:"email" validate:"omitempty,email"`
	Relationship string `json:"relationship" validate:"required"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	AvatarURL    string `json:"avatarUrl" validate:"omitempty,url"`
}

func (cp *CompleteGuardianProfile) Validate(validate *validator.Validate) error {
	cp.FirstName = core.CleanString(cp.FirstName)
	cp.LastName = core.CleanString(cp.LastName)
	cp.Email = core.CleanString(cp.Email, true /* lower */)
	return validate.Struct(cp)
}

// CompleteTutorProfile is the full profile payload a tutor submits after
// phone verification.
type CompleteTutorProfile struct {
	FirstName string    `json:"firstName" validate:"required"`
	LastName  string    `json:"lastName" validate:"required"`
	Email     string    `json:"email" validate:"omitempty,email"`
	Bio       string    `json:"bio" validate:"omitempty,max=2000"`
	City      string    `json:"city" validate:"required"`
	State     string    `json:"state" validate:"required"`
	Subjects  []string  `json:"subjects" validate:"required,min=1,dive,required"`
	Levels    []string  `json:"levels" validate:"omitempty,dive,required"`
	Rate      RateRange `json:"rate"`
	AvatarURL string    `json:"avatarUrl" validate:"omitempty,url"`
}

func (cp *CompleteTutorProfile) Validate(validate *validator.Validate) error {
	cp.FirstName = core.CleanString(cp.FirstName)
	cp.LastName = core.CleanString(cp.LastName)
	cp.Email = core.CleanString(cp.Email, true /* lower */)
	return validate.Struct(cp)
}

// TutorFilter narrows the tutor directory listing.
// Search does a case-insensitive match on names and bio.
type TutorFilter struct {
	Search  string `query:"search"`
	Subject string `query:"subject"`
}

func (f *TutorFilter) IsEmpty() bool { return f.Search == "" && f.Subject == "" }

func (f *TutorFilter) Clean() {
	f.Search = core.CleanString(f.Search)
	f.Subject = core.CleanString(f.Subject, true /* lower */)
}
