package onboarding

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/tkamau/tunza/core/account"
	"github.com/tkamau/tunza/core/profile"
)

// Navigation targets for the terminal forks.
const (
	RouteVerifyPhone        = "/verify-phone"
	RouteGuardianOnboarding = "/onboarding/guardian"
	RouteGuardianHome       = "/guardian/home"
	RouteChildDashboard     = "/child/dashboard"
	RouteTutorHome          = "/tutor/home"
	RouteTutorProfile       = "/tutor/profile"
)

// Step input shapes. Field names double as record keys through the JSON tags.
type (
	personalInfoStep struct {
		FirstName string `json:"firstName" validate:"required"`
		LastName  string `json:"lastName" validate:"required"`
		Email     string `json:"email" validate:"omitempty,email"`
	}

	guardianInfoStep struct {
		Relationship string `json:"relationship" validate:"required"`
		City         string `json:"city" validate:"required"`
		State        string `json:"state" validate:"required"`
	}

	tutorInfoStep struct {
		Bio      string            `json:"bio" validate:"omitempty,max=2000"`
		City     string            `json:"city" validate:"required"`
		State    string            `json:"state" validate:"required"`
		Subjects []string          `json:"subjects" validate:"required,min=1,dive,required"`
		Levels   []string          `json:"levels" validate:"omitempty,dive,required"`
		Rate     account.RateRange `json:"rate"`
	}

	verificationStep struct {
		Code string `json:"otp" validate:"required,len=6,numeric"`
	}

	childProfileStep struct {
		FirstName string   `json:"firstName" validate:"required"`
		LastName  string   `json:"lastName" validate:"required"`
		Age       int      `json:"age" validate:"required,gte=1,lte=17"`
		About     string   `json:"about" validate:"omitempty,max=2000"`
		Interests []string `json:"interests" validate:"omitempty,dive,required"`
	}
)

// GuardianSignupFlow is the single-step account creation flow: phone and
// password, terminal register call. A token in the response is stored on the
// session; an account identifier advances to phone verification.
func GuardianSignupFlow(
	store *profile.Store,
	session *profile.Session,
	submitter Submitter,
	validate *validator.Validate,
	trans ut.Translator,
) *Machine {
	steps := []StepDef{
		{Name: "register", Bind: func() interface{} { return new(account.NewRegistration) }},
	}
	return newMachine(steps, store, session, submitter, validate, trans,
		RouteVerifyPhone, RouteGuardianOnboarding, "_id")
}

// GuardianOnboardingFlow completes a guardian's profile after signup:
// personal info, guardian info, phone verification, then the child profile
// as the terminal step. The terminal call creates the child; its identifier
// lands in the child store, never the guardian's.
func GuardianOnboardingFlow(
	guardianStore, childStore *profile.Store,
	session *profile.Session,
	submitter Submitter,
	validate *validator.Validate,
	trans ut.Translator,
) *Machine {
	steps := []StepDef{
		{Name: "personal_info", Bind: func() interface{} { return new(personalInfoStep) }},
		{Name: "guardian_info", Bind: func() interface{} { return new(guardianInfoStep) }},
		{Name: "verification", Bind: func() interface{} { return new(verificationStep) }},
		{Name: "child_profile", Bind: func() interface{} { return new(childProfileStep) }, Store: childStore},
	}
	return newMachine(steps, guardianStore, session, submitter, validate, trans,
		RouteChildDashboard, RouteGuardianHome, "childId")
}

// TutorOnboardingFlow completes a tutor's profile: personal info, tutoring
// details, then phone verification as the terminal step.
func TutorOnboardingFlow(
	store *profile.Store,
	session *profile.Session,
	submitter Submitter,
	validate *validator.Validate,
	trans ut.Translator,
) *Machine {
	steps := []StepDef{
		{Name: "personal_info", Bind: func() interface{} { return new(personalInfoStep) }},
		{Name: "tutor_info", Bind: func() interface{} { return new(tutorInfoStep) }},
		{Name: "verification", Bind: func() interface{} { return new(verificationStep) }},
	}
	return newMachine(steps, store, session, submitter, validate, trans,
		RouteTutorHome, RouteTutorProfile, "_id")
}
