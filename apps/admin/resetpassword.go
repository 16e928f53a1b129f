package main

import (
	"context"
	"time"

	"github.com/tkamau/tunza/core/account"
)

func (cli *commandLine) resetPassword(phone, pwd string) error {
	ctx := context.Background()

	normalized, err := account.NormalizePhone(phone)
	if err != nil {
		return err
	}

	acct, err := cli.acctRepo.GetAccountByPhone(ctx, normalized)
	if err != nil {
		return err
	}
	if err = acct.SetPassword(pwd); err != nil {
		return err
	}
	acct.UpdatedAt = time.Now().UTC()
	_, err = cli.acctRepo.UpdateAccount(ctx, acct)
	return err
}
