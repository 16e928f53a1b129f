package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/tkamau/tunza/core/account"
	inmemdb "github.com/tkamau/tunza/storage/database/inmem"
)

var acctRepo account.Repository

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	acctRepo = inmemdb.NewAccountRepository(inmemdb.NewDB())

	// start CLI
	return &commandLine{
		db:       &sqlx.DB{},
		acctRepo: acctRepo,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "milestone", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_addAccount(t *testing.T) {
	cli := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no phone", args: []string{"addaccount"}, wantErr: errHelp},
		{name: "empty password", args: []string{"addaccount", "-phone", "+2348123456789"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"addaccount", "-phone", "+2348123456789", "-role", "admin"}, extra: extra{pwd: "lol"}, wantErr: account.ErrUnknownRole},
		{name: "invalid phone", args: []string{"addaccount", "-phone", "12345"}, extra: extra{pwd: "lol"}, wantErr: account.ErrInvalidPhone},
		{name: "create guardian", args: []string{"addaccount", "-phone", "08123456789"}, extra: extra{pwd: "lol"}},
		{name: "create tutor", args: []string{"addaccount", "-phone", "+2348123456780", "-role", account.RoleTutor}, extra: extra{pwd: "lol"}},
		{name: "existing account is reactivated", args: []string{"addaccount", "-phone", "08123456789"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				acct, err := acctRepo.GetAccountByPhone(context.Background(), "+2348123456789")
				if err == nil {
					if acct.IsActive == nil || !*acct.IsActive || !acct.PhoneVerified {
						t.Error("account not active and verified")
					}
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("initial"), nil }
	if err := cli.run([]string{"admin", "addaccount", "-phone", "+2348123456789"}); err != nil {
		t.Fatalf("seeding account: %v", err)
	}
	seeded, err := acctRepo.GetAccountByPhone(context.Background(), "+2348123456789")
	if err != nil {
		t.Fatalf("GetAccountByPhone() failed, %v", err)
	}

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "phone but no password", args: []string{"resetpassword", "-phone", "+2348123456789"}, wantErr: errHelp},
		{name: "account not found", args: []string{"resetpassword", "-phone", "+2348100000000"}, extra: extra{pwd: "lol"}, wantErr: account.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-phone", "+2348123456789"}, extra: extra{pwd: "lol"}},
		{name: "reset with national format", args: []string{"resetpassword", "-phone", "08123456789"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshed, err := acctRepo.GetAccountByPhone(context.Background(), seeded.Phone)
				if err != nil {
					t.Fatalf("GetAccountByPhone() failed, %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, seeded.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
