package account

import "unicode"

const passwordMinLen = 8

// PasswordChecklist holds the four independent password predicates. The UI
// renders it as a live checklist, so each predicate is reported separately
// rather than collapsed into a single pass/fail.
type PasswordChecklist struct {
	MinLength  bool `json:"min_length"`
	HasUpper   bool `json:"has_upper"`
	HasDigit   bool `json:"has_digit"`
	HasSpecial bool `json:"has_special"`
}

// OK reports whether all four predicates hold; submission is blocked otherwise.
func (c PasswordChecklist) OK() bool {
	return c.MinLength && c.HasUpper && c.HasDigit && c.HasSpecial
}

// CheckPassword recomputes the checklist for pwd. Cheap enough to run on
// every keystroke.
func CheckPassword(pwd string) PasswordChecklist {
	c := PasswordChecklist{MinLength: len(pwd) >= passwordMinLen}
	for _, char := range pwd {
		switch {
		case unicode.IsUpper(char):
			c.HasUpper = true
		case unicode.IsDigit(char):
			c.HasDigit = true
		case !unicode.IsLetter(char) && !unicode.IsDigit(char):
			c.HasSpecial = true
		}
	}
	return c
}
