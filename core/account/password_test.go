package account

import "testing"

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		name string
		pwd  string
		want PasswordChecklist
	}{
		{name: "empty", pwd: "", want: PasswordChecklist{}},
		{name: "short lowercase", pwd: "abc", want: PasswordChecklist{}},
		{name: "length only", pwd: "abcdefgh", want: PasswordChecklist{MinLength: true}},
		{name: "upper only", pwd: "Abc", want: PasswordChecklist{HasUpper: true}},
		{name: "digit only", pwd: "abc1", want: PasswordChecklist{HasDigit: true}},
		{name: "special only", pwd: "abc!", want: PasswordChecklist{HasSpecial: true}},
		{name: "missing special", pwd: "Abcdefg1", want: PasswordChecklist{MinLength: true, HasUpper: true, HasDigit: true}},
		{name: "all", pwd: "Abcdef1!", want: PasswordChecklist{MinLength: true, HasUpper: true, HasDigit: true, HasSpecial: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckPassword(tt.pwd)
			if got != tt.want {
				t.Errorf("CheckPassword() = %+v, want %+v", got, tt.want)
			}
			if got.OK() != (tt.want == PasswordChecklist{true, true, true, true}) {
				t.Errorf("PasswordChecklist.OK() = %v", got.OK())
			}
		})
	}
}

func TestSetCheckPassword(t *testing.T) {
	var acct Account
	if err := acct.SetPassword("Abcdef1!"); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	if err := acct.CheckPassword("Abcdef1!"); err != nil {
		t.Errorf("CheckPassword() with correct password: %v", err)
	}
	if err := acct.CheckPassword("wrong"); err == nil {
		t.Error("CheckPassword() with wrong password: expected error")
	}
}
