package onboarding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	en_locale "github.com/go-playground/locales/en"

	"github.com/tkamau/tunza/core"
	"github.com/tkamau/tunza/core/account"
	"github.com/tkamau/tunza/core/profile"
)

type memStorage struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newMemStorage() *memStorage { return &memStorage{docs: make(map[string][]byte)} }

func (m *memStorage) Read(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[key], nil
}

func (m *memStorage) Write(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = data
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

type submitterMock struct {
	calls int
	rec   profile.Record
	res   Result
	err   error
}

func (s *submitterMock) Submit(_ context.Context, rec profile.Record) (Result, error) {
	s.calls++
	s.rec = rec
	return s.res, s.err
}

func newValidator(t *testing.T) (*validator.Validate, ut.Translator) {
	t.Helper()
	en := en_locale.New()
	trans, ok := ut.New(en, en).GetTranslator("en")
	require.True(t, ok)

	validate := validator.New()
	core.InitValidators(validate, trans)
	account.InitValidators(validate, trans)
	return validate, trans
}

func newSession(t *testing.T, store *profile.Store, storage profile.Storage) *profile.Session {
	t.Helper()
	session := profile.NewSession(storage, nopLogger{}, store)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, session.AwaitHydration(ctx))
	return session
}

func TestGuardianSignupFlowInvalidInputBlocksSubmission(t *testing.T) {
	validate, trans := newValidator(t)
	storage := newMemStorage()
	store := profile.NewStore(storage, nopLogger{}, profile.RoleGuardian)
	session := newSession(t, store, storage)
	sub := &submitterMock{}

	m := GuardianSignupFlow(store, session, sub, validate, trans)

	tests := []struct {
		name       string
		vals       Values
		wantFields []string
	}{
		{name: "all missing", vals: Values{}, wantFields: []string{"phoneNumber", "password"}},
		{name: "bad phone", vals: Values{"phoneNumber": "123", "password": "Abcdef1!"}, wantFields: []string{"phoneNumber"}},
		{name: "weak password", vals: Values{"phoneNumber": "08123456789", "password": "abc"}, wantFields: []string{"password"}},
		{
			name:       "both invalid reported at once",
			vals:       Values{"phoneNumber": "123", "password": "abc"},
			wantFields: []string{"phoneNumber", "password"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, errs := m.Submit(context.Background(), tt.vals)
			assert.Empty(t, route)
			for _, f := range tt.wantFields {
				assert.Contains(t, errs, f)
			}
			assert.Equal(t, errs, m.Errors())
		})
	}
	assert.Zero(t, sub.calls, "invalid input must never reach the network")
}

func TestGuardianSignupFlowSubmit(t *testing.T) {
	validate, trans := newValidator(t)
	storage := newMemStorage()
	store := profile.NewStore(storage, nopLogger{}, profile.RoleGuardian)
	session := newSession(t, store, storage)
	sub := &submitterMock{res: Result{Token: "tok1", Identifier: "acct1"}}

	m := GuardianSignupFlow(store, session, sub, validate, trans)

	route, errs := m.Submit(context.Background(), Values{"phoneNumber": "08123456789", "password": "Abcdef1!"})
	require.Empty(t, errs)
	assert.Equal(t, RouteVerifyPhone, route)
	assert.Equal(t, 1, sub.calls)

	// phone normalized before submission, captured on the session for OTP
	assert.Equal(t, "+2348123456789", sub.rec["phoneNumber"])
	assert.Equal(t, "+2348123456789", session.Phone())

	assert.Equal(t, "tok1", session.Token())
	assert.Equal(t, "acct1", store.Get()["_id"])
}

func TestGuardianSignupFlowSubmitWithoutIdentifier(t *testing.T) {
	validate, trans := newValidator(t)
	storage := newMemStorage()
	store := profile.NewStore(storage, nopLogger{}, profile.RoleGuardian)
	session := newSession(t, store, storage)
	sub := &submitterMock{res: Result{Token: "tok1"}}

	m := GuardianSignupFlow(store, session, sub, validate, trans)

	route, errs := m.Submit(context.Background(), Values{"phoneNumber": "08123456789", "password": "Abcdef1!"})
	require.Empty(t, errs)
	assert.Equal(t, RouteGuardianOnboarding, route)
}

func TestGuardianSignupFlowSubmitError(t *testing.T) {
	validate, trans := newValidator(t)
	storage := newMemStorage()
	store := profile.NewStore(storage, nopLogger{}, profile.RoleGuardian)
	session := newSession(t, store, storage)
	sub := &submitterMock{err: errors.New("phone already registered")}

	m := GuardianSignupFlow(store, session, sub, validate, trans)

	route, errs := m.Submit(context.Background(), Values{"phoneNumber": "08123456789", "password": "Abcdef1!"})
	assert.Empty(t, route)
	assert.Equal(t, "phone already registered", errs[APIErrorField])
	assert.Empty(t, session.Token())
}

func TestMachineNextAndBack(t *testing.T) {
	validate, trans := newValidator(t)
	storage := newMemStorage()
	guardianStore := profile.NewStore(storage, nopLogger{}, profile.RoleGuardian)
	childStore := profile.NewStore(storage, nopLogger{}, profile.RoleChild)
	session := newSession(t, guardianStore, storage)

	m := GuardianOnboardingFlow(guardianStore, childStore, session, &submitterMock{}, validate, trans)

	assert.Equal(t, 1, m.Step())
	assert.Equal(t, 4, m.Steps())
	assert.Equal(t, "personal_info", m.StepName())
	assert.False(t, m.Back(), "Back from the first step exits the flow")

	// all failing fields reported at once
	errs := m.Next(Values{"email": "not-an-email"})
	assert.Contains(t, errs, "firstName")
	assert.Contains(t, errs, "lastName")
	assert.Contains(t, errs, "email")
	assert.Equal(t, 1, m.Step(), "failed validation must not advance")

	require.Empty(t, m.Next(Values{"firstName": "Amina", "lastName": "Bello", "email": "amina@test.test"}))
	assert.Equal(t, 2, m.Step())
	assert.Equal(t, "guardian_info", m.StepName())

	entered := Values{"relationship": "mother", "city": "Lagos", "state": "Lagos"}
	require.Empty(t, m.Next(entered))
	assert.Equal(t, 3, m.Step())

	// Back restores the entered values
	require.True(t, m.Back())
	assert.Equal(t, 2, m.Step())
	assert.Equal(t, entered, m.Entered())

	// merged values landed in the guardian store
	rec := guardianStore.Get()
	assert.Equal(t, "Amina", rec["firstName"])
	assert.Equal(t, "mother", rec["relationship"])
}

func TestGuardianOnboardingTerminalStepWritesChildStore(t *testing.T) {
	validate, trans := newValidator(t)
	storage := newMemStorage()
	guardianStore := profile.NewStore(storage, nopLogger{}, profile.RoleGuardian)
	childStore := profile.NewStore(storage, nopLogger{}, profile.RoleChild)
	session := newSession(t, guardianStore, storage)
	sub := &submitterMock{res: Result{Identifier: "child1"}}

	m := GuardianOnboardingFlow(guardianStore, childStore, session, sub, validate, trans)

	require.Empty(t, m.Next(Values{"firstName": "Amina", "lastName": "Bello", "email": "amina@test.test"}))
	require.Empty(t, m.Next(Values{"relationship": "mother", "city": "Lagos", "state": "Lagos"}))
	require.Empty(t, m.Next(Values{"otp": "123456"}))
	require.True(t, m.OnLastStep())

	route, errs := m.Submit(context.Background(), Values{
		"firstName": "Kofi",
		"lastName":  "Bello",
		"age":       7,
		"interests": []string{"math"},
	})
	require.Empty(t, errs)
	assert.Equal(t, RouteChildDashboard, route)

	assert.Equal(t, "child1", childStore.Get()["childId"])
	assert.Equal(t, "Kofi", childStore.Get()["firstName"])
	_, inGuardian := guardianStore.Get()["childId"]
	assert.False(t, inGuardian, "child identifier must never land in the guardian record")
}

func TestTutorOnboardingFlowOTPValidation(t *testing.T) {
	validate, trans := newValidator(t)
	storage := newMemStorage()
	store := profile.NewStore(storage, nopLogger{}, profile.RoleTutor)
	session := newSession(t, store, storage)
	sub := &submitterMock{res: Result{Identifier: "acct1"}}

	m := TutorOnboardingFlow(store, session, sub, validate, trans)

	require.Empty(t, m.Next(Values{"firstName": "Ngozi", "lastName": "Okafor"}))
	require.Empty(t, m.Next(Values{"city": "Enugu", "state": "Enugu", "subjects": []string{"english"}}))
	require.True(t, m.OnLastStep())

	route, errs := m.Submit(context.Background(), Values{"otp": "12"})
	assert.Empty(t, route)
	assert.Contains(t, errs, "otp")
	assert.Zero(t, sub.calls)

	route, errs = m.Submit(context.Background(), Values{"otp": "123456"})
	require.Empty(t, errs)
	assert.Equal(t, RouteTutorHome, route)
	assert.Equal(t, 1, sub.calls)
}

func TestMachineSubmitRefusedBeforeTerminalStep(t *testing.T) {
	validate, trans := newValidator(t)
	storage := newMemStorage()
	guardianStore := profile.NewStore(storage, nopLogger{}, profile.RoleGuardian)
	childStore := profile.NewStore(storage, nopLogger{}, profile.RoleChild)
	session := newSession(t, guardianStore, storage)
	sub := &submitterMock{res: Result{Identifier: "child1"}}

	m := GuardianOnboardingFlow(guardianStore, childStore, session, sub, validate, trans)

	// a valid terminal-step payload must not shortcut the walk
	vals := Values{
		"firstName": "Kofi",
		"lastName":  "Bello",
		"age":       7,
		"interests": []string{"math"},
	}
	route, errs := m.Submit(context.Background(), vals)
	assert.Empty(t, route)
	assert.Contains(t, errs, APIErrorField)
	assert.Zero(t, sub.calls, "skipped steps must never reach the network")
	assert.Equal(t, 1, m.Step(), "a refused submission must not move the machine")

	assert.Equal(t, "", childStore.Get()["firstName"], "a refused submission must not merge values")

	// mid-flow submission is refused too
	require.Empty(t, m.Next(Values{"firstName": "Amina", "lastName": "Bello"}))
	route, errs = m.Submit(context.Background(), vals)
	assert.Empty(t, route)
	assert.Contains(t, errs, APIErrorField)
	assert.Zero(t, sub.calls)
	assert.Equal(t, 2, m.Step())
}
