package onboarding

import (
	"context"
	"encoding/json"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/tkamau/tunza/core"
	"github.com/tkamau/tunza/core/account"
	"github.com/tkamau/tunza/core/profile"
)

// APIErrorField carries submission failures that are not tied to a single
// input field.
const APIErrorField = "api_error"

type (
	// Values is one step's worth of user input, keyed the way the profile
	// record is keyed.
	Values = profile.Record

	// Result is what a terminal submission yields. Token and Identifier are
	// both optional; the machine branches on which are present.
	Result struct {
		Token      string
		Identifier string
	}

	// Submitter issues the terminal network call with the accumulated
	// profile record.
	Submitter interface {
		Submit(ctx context.Context, rec profile.Record) (Result, error)
	}

	// StepDef binds a step to the struct whose validation tags define it.
	// Bind returns a fresh pointer each call; step values are mapped onto it
	// through a JSON roundtrip so the field names match the record keys.
	// Store, when set, overrides the machine's store for this step: the
	// guardian flow's child profile step writes to the child store, not the
	// guardian's.
	StepDef struct {
		Name  string
		Bind  func() interface{}
		Store *profile.Store
	}

	// Machine walks a linear, non-skippable step sequence. Steps validate
	// locally and merge into the profile store on success; only the terminal
	// step talks to the network. A Machine is not safe for concurrent use.
	Machine struct {
		steps     []StepDef
		store     *profile.Store
		session   *profile.Session
		submitter Submitter
		validate  *validator.Validate
		trans     ut.Translator

		// terminal fork: where to go when the submission yields an
		// identifier, and where to fall through when it does not
		routeNext     string
		routeFallback string
		identifierKey string

		idx         int
		entered     []Values
		fieldErrors map[string]string
		inFlight    bool
	}
)

// Step reports the current 1-based step number.
func (m *Machine) Step() int { return m.idx + 1 }

// Steps reports the total number of steps in the flow.
func (m *Machine) Steps() int { return len(m.steps) }

// StepName names the current step.
func (m *Machine) StepName() string { return m.steps[m.idx].Name }

// OnLastStep reports whether the current step is the terminal one.
func (m *Machine) OnLastStep() bool { return m.idx == len(m.steps)-1 }

// InFlight reports whether a terminal submission is outstanding; renderers
// disable the submit control while it is.
func (m *Machine) InFlight() bool { return m.inFlight }

// Errors returns the field errors from the last Next or Submit.
func (m *Machine) Errors() map[string]string { return m.fieldErrors }

// Entered returns the values previously entered on the current step, so a
// Back re-renders the form as the user left it.
func (m *Machine) Entered() Values {
	if v := m.entered[m.idx]; v != nil {
		return v.Clone()
	}
	// seed from whatever the profile record already holds
	return m.stepStore().Get()
}

func (m *Machine) stepStore() *profile.Store {
	if s := m.steps[m.idx].Store; s != nil {
		return s
	}
	return m.store
}

// Next validates vals against the current step. On failure it returns the
// complete field error map, every failing field at once, and stays put. On
// success it merges vals into the profile store and advances. Next never
// crosses the terminal step; use Submit there.
func (m *Machine) Next(vals Values) map[string]string {
	m.entered[m.idx] = vals.Clone()

	if errs := m.validateStep(vals); len(errs) > 0 {
		m.fieldErrors = errs
		return errs
	}
	m.fieldErrors = nil

	normalizePhone(vals)
	m.capturePhone(vals)
	m.stepStore().Set(vals)
	if !m.OnLastStep() {
		m.idx++
	}
	return nil
}

// Back moves to the previous step, keeping its entered values. It returns
// false from the first step: the flow is exited and the caller navigates
// away.
func (m *Machine) Back() bool {
	if m.idx == 0 {
		return false
	}
	m.idx--
	m.fieldErrors = nil
	return true
}

// Submit validates the terminal step, merges its values, then issues the
// network call. It is only valid on the terminal step: from any earlier step
// it refuses without touching the store or the network, keeping the sequence
// non-skippable. It returns the route to navigate to: routeNext when the
// response carried an identifier (persisted to the store first),
// routeFallback when it did not. On any failure the route is empty, the
// errors map says why, and the machine stays on the terminal step.
func (m *Machine) Submit(ctx context.Context, vals Values) (string, map[string]string) {
	if m.inFlight {
		return "", m.fieldErrors
	}
	if !m.OnLastStep() {
		m.fieldErrors = map[string]string{APIErrorField: "complete the earlier steps first"}
		return "", m.fieldErrors
	}

	m.entered[m.idx] = vals.Clone()

	if errs := m.validateStep(vals); len(errs) > 0 {
		m.fieldErrors = errs
		return "", errs
	}
	m.fieldErrors = nil

	normalizePhone(vals)
	m.capturePhone(vals)
	m.stepStore().Set(vals)

	m.inFlight = true
	defer func() { m.inFlight = false }()

	res, err := m.submitter.Submit(ctx, m.stepStore().Get())
	if err != nil {
		m.fieldErrors = map[string]string{APIErrorField: err.Error()}
		return "", m.fieldErrors
	}

	if res.Token != "" {
		m.session.SetToken(res.Token)
	}
	if res.Identifier == "" {
		return m.routeFallback, nil
	}
	m.stepStore().Set(Values{m.identifierKey: res.Identifier})
	return m.routeNext, nil
}

func (m *Machine) validateStep(vals Values) map[string]string {
	dst := m.steps[m.idx].Bind()

	data, err := json.Marshal(vals)
	if err == nil {
		err = json.Unmarshal(data, dst)
	}
	if err != nil {
		return map[string]string{APIErrorField: "invalid input"}
	}

	if err = m.validate.Struct(dst); err != nil {
		if vErrs, ok := err.(validator.ValidationErrors); ok {
			return core.TranslateErrors(vErrs, m.trans)
		}
		return map[string]string{APIErrorField: err.Error()}
	}
	return nil
}

// capturePhone keeps the phone in the session so an OTP verification flow
// can resume after a restart.
func (m *Machine) capturePhone(vals Values) {
	if phone, ok := vals["phoneNumber"].(string); ok && phone != "" {
		m.session.SetPhone(phone)
	}
}

// normalizePhone rewrites a phone value to E.164 in place. Validity was
// already established by the step's "phone" tag.
func normalizePhone(vals Values) {
	raw, ok := vals["phoneNumber"].(string)
	if !ok || raw == "" {
		return
	}
	if normalized, err := account.NormalizePhone(raw); err == nil {
		vals["phoneNumber"] = normalized
	}
}

func newMachine(
	steps []StepDef,
	store *profile.Store,
	session *profile.Session,
	submitter Submitter,
	validate *validator.Validate,
	trans ut.Translator,
	routeNext, routeFallback, identifierKey string,
) *Machine {
	return &Machine{
		steps:         steps,
		store:         store,
		session:       session,
		submitter:     submitter,
		validate:      validate,
		trans:         trans,
		routeNext:     routeNext,
		routeFallback: routeFallback,
		identifierKey: identifierKey,
		entered:       make([]Values, len(steps)),
	}
}
