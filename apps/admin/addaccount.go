package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tkamau/tunza/core/account"
)

// addAccount creates an account, or reactivates and reverifies an existing
// one. Accounts created here skip OTP verification.
func (cli *commandLine) addAccount(phone, role, pwd string) error {
	ctx := context.Background()

	if role != account.RoleGuardian && role != account.RoleTutor {
		return account.ErrUnknownRole
	}

	normalized, err := account.NormalizePhone(phone)
	if err != nil {
		return err
	}

	acct, err := cli.acctRepo.GetAccountByPhone(ctx, normalized)
	if err != nil {
		if err != account.ErrNotFound {
			return err
		}
		now := time.Now().UTC()
		acct = account.Account{
			ID:        uuid.New().String(),
			Role:      role,
			Phone:     normalized,
			CreatedAt: now,
			UpdatedAt: now,
		}
		acct.SetActive(true)
		acct.PhoneVerified = true
		if err = acct.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.acctRepo.CreateAccount(ctx, acct)
		return err
	}

	acct.SetActive(true)
	acct.PhoneVerified = true
	if err = acct.SetPassword(pwd); err != nil {
		return err
	}
	acct.UpdatedAt = time.Now().UTC()
	_, err = cli.acctRepo.UpdateAccount(ctx, acct)
	return err
}
