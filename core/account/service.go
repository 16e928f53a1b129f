package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	wrap "github.com/pkg/errors"

	"github.com/tkamau/tunza/core"
)

var (
	// errors
	ErrNotFound        = errors.New("account not found")
	ErrPhoneExists     = errors.New("an account with this phone number already exists")
	ErrEmailExists     = errors.New("an account with this email already exists")
	ErrDeactivated     = errors.New("account deactivated")
	ErrUnknownRole     = errors.New("unknown account role")
	ErrPhoneUnverified = errors.New("phone number not verified")
)

type (
	Repository interface {
		// CheckPhoneUniqueness fails with ErrPhoneExists/ErrEmailExists when
		// another account (not in excludedAccounts) holds the phone or email.
		CheckPhoneUniqueness(ctx context.Context, phone, email string, excludedAccounts ...Account) error
		CreateAccount(ctx context.Context, acct Account) (Account, error)
		GetAccountByID(ctx context.Context, id string) (Account, error)
		GetAccountByPhone(ctx context.Context, phone string) (Account, error)
		GetAccountByEmail(ctx context.Context, email string) (Account, error)
		// FilterTutors applies AND semantics on available TutorFilter fields.
		// TutorFilter.Search matches names and bio case-insensitively.
		FilterTutors(ctx context.Context, filter *TutorFilter, ordering []core.DBOrdering) ([]Account, error)
		UpdateAccount(ctx context.Context, acct Account) (Account, error)
		DeleteAccountsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		CheckPhoneUniqueness(phone string, excludedAccounts ...Account) error
		Register(ctx context.Context, role string, nr NewRegistration) (Account, error)
		GetByID(ctx context.Context, id string) (Account, error)
		GetByPhone(ctx context.Context, phone string) (Account, error)
		GetByEmail(ctx context.Context, email string) (Account, error)
		VerifyOTP(ctx context.Context, data VerifyOTP) (Account, error)
		ResendOTP(ctx context.Context, phone string) error
		SendEmailOTP(ctx context.Context, accountID, email string) error
		VerifyEmailOTP(ctx context.Context, data VerifyEmailOTP) (Account, error)
		RequestPasswordReset(email string) error
		ResetPassword(data ResetAccountPassword) error
		CompleteGuardianProfile(ctx context.Context, id string, data CompleteGuardianProfile) (Account, error)
		CompleteTutorProfile(ctx context.Context, id string, data CompleteTutorProfile) (Account, error)
		Tutors(ctx context.Context, filter *TutorFilter, ordering []core.DBOrdering) ([]Account, error)
		SetLastLogin(ctx context.Context, acct Account) (Account, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		smsSvc  core.SMSService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, smsSvc core.SMSService, conf *core.Config) Service {
	InitTokens(conf.SecretKey, conf.PasswordResetTimeoutDelta)
	if conf.DefaultPhoneRegion != "" {
		DefaultPhoneRegion = conf.DefaultPhoneRegion
	}
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		smsSvc:  smsSvc,
		conf:    conf,
	}
}

func (svc *service) CheckPhoneUniqueness(phone string, excludedAccounts ...Account) error {
	if err := svc.repo.CheckPhoneUniqueness(context.Background(), phone, "", excludedAccounts...); err != nil {
		var field string
		switch err {
		case ErrPhoneExists:
			field = "phoneNumber"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) Register(ctx context.Context, role string, nr NewRegistration) (Account, error) {
	if role != RoleGuardian && role != RoleTutor {
		return Account{}, ErrUnknownRole
	}

	now := time.Now().UTC()
	acct := Account{
		ID:        uuid.New().String(),
		Role:      role,
		Phone:     nr.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	acct.SetActive(true)
	if err := acct.SetPassword(nr.Password); err != nil {
		return Account{}, err
	}

	acct, err := svc.repo.CreateAccount(ctx, acct)
	if err != nil {
		return Account{}, err
	}
	if err = svc.issuePhoneOTP(ctx, acct); err != nil {
		return Account{}, wrap.Wrap(err, "issuing registration OTP")
	}
	return acct, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccountByID(ctx, id)
}

func (svc *service) GetByPhone(ctx context.Context, phone string) (Account, error) {
	return svc.repo.GetAccountByPhone(ctx, phone)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return svc.repo.GetAccountByEmail(ctx, core.CleanString(email, true /* lower */))
}

// issuePhoneOTP stores a fresh hashed code on the account and texts it out.
func (svc *service) issuePhoneOTP(ctx context.Context, acct Account) error {
	code, err := generateOTP()
	if err != nil {
		return err
	}
	acct.OTPHash = hashOTP(acct.ID, code)
	acct.OTPExpiresAt = time.Now().UTC().Add(svc.conf.OTPTimeout)
	acct.UpdatedAt = time.Now().UTC()
	if _, err = svc.repo.UpdateAccount(ctx, acct); err != nil {
		return err
	}

	svc.smsSvc.SendMessages(&core.SMSMessage{
		To:   acct.Phone,
		Body: fmt.Sprintf("Your %s verification code is %s. It expires in %v.", svc.conf.AppName, code, svc.conf.OTPTimeout),
	})
	return nil
}

func (svc *service) VerifyOTP(ctx context.Context, data VerifyOTP) (Account, error) {
	acct, err := svc.repo.GetAccountByPhone(ctx, data.Phone)
	if err != nil {
		return Account{}, err
	}
	if err = checkOTP(acct, data.Code, time.Now().UTC()); err != nil {
		return Account{}, err
	}

	acct.PhoneVerified = true
	acct.OTPHash = nil
	acct.OTPExpiresAt = time.Time{}
	acct.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acct)
}

func (svc *service) ResendOTP(ctx context.Context, phone string) error {
	acct, err := svc.repo.GetAccountByPhone(ctx, phone)
	if err != nil {
		return err
	}
	return svc.issuePhoneOTP(ctx, acct)
}

func (svc *service) SendEmailOTP(ctx context.Context, accountID, email string) error {
	acct, err := svc.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	email = core.CleanString(email, true /* lower */)
	if err = svc.repo.CheckPhoneUniqueness(ctx, "", email, acct); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}
	acct.Email = email
	acct.EmailVerified = false
	acct.OTPHash = hashOTP(acct.ID, code)
	acct.OTPExpiresAt = time.Now().UTC().Add(svc.conf.OTPTimeout)
	acct.UpdatedAt = time.Now().UTC()
	if _, err = svc.repo.UpdateAccount(ctx, acct); err != nil {
		return err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: acct.Email}},
		Subject:      "Verify your email",
		TemplateName: "email_otp",
		TemplateData: struct {
			Code      string
			ExpiresIn time.Duration
		}{code, svc.conf.OTPTimeout},
	})
	return nil
}

func (svc *service) VerifyEmailOTP(ctx context.Context, data VerifyEmailOTP) (Account, error) {
	acct, err := svc.repo.GetAccountByEmail(ctx, data.Email)
	if err != nil {
		return Account{}, err
	}
	if err = checkOTP(acct, data.Code, time.Now().UTC()); err != nil {
		return Account{}, err
	}

	acct.EmailVerified = true
	acct.OTPHash = nil
	acct.OTPExpiresAt = time.Time{}
	acct.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acct)
}

func (svc *service) RequestPasswordReset(email string) error {
	acct, err := svc.repo.GetAccountByEmail(context.Background(), core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	svc.sendPasswordResetMail(acct)
	return nil
}

func (svc *service) sendPasswordResetMail(acct Account) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: acct.FirstName, Address: acct.Email}},
		Subject:      "Password reset",
		TemplateName: "password_reset",
		TemplateData: struct {
			UID   string
			Token string
		}{EncodeUID(acct), makeToken(acct)},
	})
}

func (svc *service) ResetPassword(data ResetAccountPassword) error {
	ctx := context.Background()

	id, err := DecodeUID(data.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	acct, err := svc.repo.GetAccountByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err = verifyToken(acct, data.Token); err != nil {
		return core.NewValidationError(err)
	}

	if err = acct.SetPassword(data.Password); err != nil {
		return err
	}
	acct.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateAccount(ctx, acct)
	return err
}

func (svc *service) CompleteGuardianProfile(ctx context.Context, id string, data CompleteGuardianProfile) (Account, error) {
	acct, err := svc.repo.GetAccountByID(ctx, id)
	if err != nil {
		return Account{}, err
	}

	acct.FirstName = data.FirstName
	acct.LastName = data.LastName
	if data.Email != "" && data.Email != acct.Email {
		acct.Email = data.Email
		acct.EmailVerified = false
	}
	acct.Relationship = data.Relationship
	acct.City = data.City
	acct.State = data.State
	if data.AvatarURL != "" {
		acct.AvatarURL = data.AvatarURL
	}
	acct.ProfileComplete = true
	acct.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acct)
}

func (svc *service) CompleteTutorProfile(ctx context.Context, id string, data CompleteTutorProfile) (Account, error) {
	acct, err := svc.repo.GetAccountByID(ctx, id)
	if err != nil {
		return Account{}, err
	}

	acct.FirstName = data.FirstName
	acct.LastName = data.LastName
	if data.Email != "" && data.Email != acct.Email {
		acct.Email = data.Email
		acct.EmailVerified = false
	}
	acct.Bio = data.Bio
	acct.City = data.City
	acct.State = data.State
	acct.Subjects = data.Subjects
	acct.Levels = data.Levels
	acct.Rate = data.Rate
	if data.AvatarURL != "" {
		acct.AvatarURL = data.AvatarURL
	}
	acct.ProfileComplete = true
	acct.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acct)
}

func (svc *service) Tutors(ctx context.Context, filter *TutorFilter, ordering []core.DBOrdering) ([]Account, error) {
	return svc.repo.FilterTutors(ctx, filter, ordering)
}

func (svc *service) SetLastLogin(ctx context.Context, acct Account) (Account, error) {
	acct.LastLogin = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acct)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAccountsByID(ctx, ids...)
}
