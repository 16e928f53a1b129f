package client

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/tkamau/tunza/core/account"
	"github.com/tkamau/tunza/core/child"
	"github.com/tkamau/tunza/core/onboarding"
	"github.com/tkamau/tunza/core/profile"
)

// decodeRecord maps a profile record onto a request struct. Record keys are
// the wire field names, so a JSON roundtrip lines them up.
func decodeRecord(rec profile.Record, dst interface{}) error {
	data, err := json.Marshal(rec)
	if err == nil {
		err = json.Unmarshal(data, dst)
	}
	return errors.Wrap(err, "decoding profile record")
}

// RegistrationSubmitter finishes a signup flow by creating the account.
type RegistrationSubmitter struct {
	api  *Client
	role string
}

func NewRegistrationSubmitter(api *Client, role string) *RegistrationSubmitter {
	return &RegistrationSubmitter{api: api, role: role}
}

var _ onboarding.Submitter = (*RegistrationSubmitter)(nil)

func (s *RegistrationSubmitter) Submit(ctx context.Context, rec profile.Record) (onboarding.Result, error) {
	var data account.NewRegistration
	if err := decodeRecord(rec, &data); err != nil {
		return onboarding.Result{}, err
	}

	var (
		res AuthResult
		err error
	)
	if s.role == account.RoleTutor {
		res, err = s.api.RegisterTutor(ctx, data)
	} else {
		res, err = s.api.RegisterGuardian(ctx, data)
	}
	if err != nil {
		return onboarding.Result{}, err
	}
	return onboarding.Result{Token: res.Token, Identifier: res.ID}, nil
}

// GuardianOnboardingSubmitter finishes the guardian onboarding flow. The
// earlier steps merged the guardian's details and the OTP into the guardian
// store; the terminal record holds the child profile. Submission verifies the
// phone, completes the guardian profile, then creates the child.
type GuardianOnboardingSubmitter struct {
	api           *Client
	guardianStore *profile.Store
}

func NewGuardianOnboardingSubmitter(api *Client, guardianStore *profile.Store) *GuardianOnboardingSubmitter {
	return &GuardianOnboardingSubmitter{api: api, guardianStore: guardianStore}
}

var _ onboarding.Submitter = (*GuardianOnboardingSubmitter)(nil)

func (s *GuardianOnboardingSubmitter) Submit(ctx context.Context, rec profile.Record) (onboarding.Result, error) {
	guardianRec := s.guardianStore.Get()

	if err := verifyPhone(ctx, s.api, s.guardianStore, guardianRec); err != nil {
		return onboarding.Result{}, err
	}

	var gp account.CompleteGuardianProfile
	if err := decodeRecord(guardianRec, &gp); err != nil {
		return onboarding.Result{}, err
	}
	if _, err := s.api.CompleteGuardianProfile(ctx, gp); err != nil {
		return onboarding.Result{}, err
	}

	var nc child.NewChild
	if err := decodeRecord(rec, &nc); err != nil {
		return onboarding.Result{}, err
	}
	ch, err := s.api.AddChild(ctx, nc)
	if err != nil {
		return onboarding.Result{}, err
	}
	return onboarding.Result{Identifier: ch.ID}, nil
}

// TutorOnboardingSubmitter finishes the tutor onboarding flow: verifies the
// phone, then completes the tutor profile from the accumulated record.
type TutorOnboardingSubmitter struct {
	api   *Client
	store *profile.Store
}

func NewTutorOnboardingSubmitter(api *Client, store *profile.Store) *TutorOnboardingSubmitter {
	return &TutorOnboardingSubmitter{api: api, store: store}
}

var _ onboarding.Submitter = (*TutorOnboardingSubmitter)(nil)

func (s *TutorOnboardingSubmitter) Submit(ctx context.Context, rec profile.Record) (onboarding.Result, error) {
	if err := verifyPhone(ctx, s.api, s.store, rec); err != nil {
		return onboarding.Result{}, err
	}

	var tp account.CompleteTutorProfile
	if err := decodeRecord(rec, &tp); err != nil {
		return onboarding.Result{}, err
	}
	acct, err := s.api.CompleteTutorProfile(ctx, tp)
	if err != nil {
		return onboarding.Result{}, err
	}
	return onboarding.Result{Identifier: acct.ID}, nil
}

// verifyPhone confirms the OTP the verification step merged into the record.
// A record without an OTP means the phone was verified on an earlier attempt.
// On success the spent code is blanked in the store: a retry of the calls
// that follow it must not replay a code the backend already consumed.
func verifyPhone(ctx context.Context, api *Client, store *profile.Store, rec profile.Record) error {
	code, _ := rec["otp"].(string)
	if code == "" {
		return nil
	}
	if _, err := api.VerifyOTP(ctx, account.VerifyOTP{
		Phone: api.Session().Phone(),
		Code:  code,
	}); err != nil {
		return err
	}
	store.Set(profile.Record{"otp": ""})
	return nil
}
