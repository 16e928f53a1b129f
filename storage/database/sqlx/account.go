package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tkamau/tunza/core"
	"github.com/tkamau/tunza/core/account"
)

type accountRepository struct {
	db *sqlx.DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *sqlx.DB) *accountRepository {
	return &accountRepository{db: db}
}

type accountRow struct {
	ID              string         `db:"id"`
	Role            string         `db:"role"`
	Phone           string         `db:"phone"`
	Email           null.String    `db:"email"`
	FirstName       null.String    `db:"first_name"`
	LastName        null.String    `db:"last_name"`
	City            null.String    `db:"city"`
	State           null.String    `db:"state"`
	AvatarURL       null.String    `db:"avatar_url"`
	Bio             null.String    `db:"bio"`
	Relationship    null.String    `db:"relationship"`
	Subjects        pq.StringArray `db:"subjects"`
	Levels          pq.StringArray `db:"levels"`
	RateMin         null.Int       `db:"rate_min"`
	RateMax         null.Int       `db:"rate_max"`
	IsActive        null.Bool      `db:"is_active"`
	PhoneVerified   bool           `db:"phone_verified"`
	EmailVerified   bool           `db:"email_verified"`
	ProfileComplete bool           `db:"profile_complete"`
	PasswordHash    null.Bytes     `db:"password_hash"`
	OTPHash         null.Bytes     `db:"otp_hash"`
	OTPExpiresAt    null.Time      `db:"otp_expires_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	LastLogin       null.Time      `db:"last_login"`
}

func (repo accountRepository) row(acct account.Account) accountRow {
	return accountRow{
		ID:              acct.ID,
		Role:            acct.Role,
		Phone:           acct.Phone,
		Email:           null.NewString(acct.Email, acct.Email != ""),
		FirstName:       null.NewString(acct.FirstName, acct.FirstName != ""),
		LastName:        null.NewString(acct.LastName, acct.LastName != ""),
		City:            null.NewString(acct.City, acct.City != ""),
		State:           null.NewString(acct.State, acct.State != ""),
		AvatarURL:       null.NewString(acct.AvatarURL, acct.AvatarURL != ""),
		Bio:             null.NewString(acct.Bio, acct.Bio != ""),
		Relationship:    null.NewString(acct.Relationship, acct.Relationship != ""),
		Subjects:        pq.StringArray(acct.Subjects),
		Levels:          pq.StringArray(acct.Levels),
		RateMin:         null.NewInt(acct.Rate.Min, acct.Rate.Min > 0),
		RateMax:         null.NewInt(acct.Rate.Max, acct.Rate.Max > 0),
		IsActive:        null.BoolFromPtr(acct.IsActive),
		PhoneVerified:   acct.PhoneVerified,
		EmailVerified:   acct.EmailVerified,
		ProfileComplete: acct.ProfileComplete,
		PasswordHash:    null.BytesFrom(acct.PasswordHash),
		OTPHash:         null.NewBytes(acct.OTPHash, len(acct.OTPHash) > 0),
		OTPExpiresAt:    null.NewTime(acct.OTPExpiresAt.UTC(), !acct.OTPExpiresAt.IsZero()),
		CreatedAt:       acct.CreatedAt.UTC(),
		UpdatedAt:       acct.UpdatedAt.UTC(),
		LastLogin:       null.NewTime(acct.LastLogin.UTC(), !acct.LastLogin.IsZero()),
	}
}

func (repo accountRepository) unrow(row accountRow) account.Account {
	return account.Account{
		ID:              row.ID,
		Role:            row.Role,
		Phone:           row.Phone,
		Email:           row.Email.String,
		FirstName:       row.FirstName.String,
		LastName:        row.LastName.String,
		City:            row.City.String,
		State:           row.State.String,
		AvatarURL:       row.AvatarURL.String,
		Bio:             row.Bio.String,
		Relationship:    row.Relationship.String,
		Subjects:        []string(row.Subjects),
		Levels:          []string(row.Levels),
		Rate:            account.RateRange{Min: row.RateMin.Int, Max: row.RateMax.Int},
		IsActive:        row.IsActive.Ptr(),
		PhoneVerified:   row.PhoneVerified,
		EmailVerified:   row.EmailVerified,
		ProfileComplete: row.ProfileComplete,
		PasswordHash:    row.PasswordHash.Bytes,
		OTPHash:         row.OTPHash.Bytes,
		OTPExpiresAt:    row.OTPExpiresAt.Time,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		LastLogin:       row.LastLogin.Time,
	}
}

func (repo accountRepository) unrowSlice(rows []accountRow) []account.Account {
	accts := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		accts = append(accts, repo.unrow(row))
	}
	return accts
}

// trapNoRowsErr maps psql "no rows" err to account.ErrNotFound
func (repo accountRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return account.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo accountRepository) CheckPhoneUniqueness(ctx context.Context, phone, email string, excludedAccounts ...account.Account) error {
	q := `SELECT phone, email FROM account WHERE (phone = $1 OR (email != '' AND email = $2))`
	args := []interface{}{phone, email}
	if len(excludedAccounts) > 0 {
		ids := make([]string, 0, len(excludedAccounts))
		for _, acct := range excludedAccounts {
			ids = append(ids, acct.ID)
		}
		q += ` AND NOT (id = ANY($3))`
		args = append(args, pq.StringArray(ids))
	}
	q += ` LIMIT 1`

	var row accountRow
	err := repo.db.GetContext(ctx, &row, q, args...)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "checking account uniqueness")
	}
	if row.Phone == phone {
		return account.ErrPhoneExists
	}
	return account.ErrEmailExists
}

func (repo accountRepository) CreateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	q := `
INSERT INTO account (
    id, role, phone, email, first_name, last_name, city, state, avatar_url, bio,
    relationship, subjects, levels, rate_min, rate_max, is_active, phone_verified,
    email_verified, profile_complete, password_hash, otp_hash, otp_expires_at,
    created_at, updated_at, last_login
) VALUES (
    :id, :role, :phone, :email, :first_name, :last_name, :city, :state, :avatar_url, :bio,
    :relationship, :subjects, :levels, :rate_min, :rate_max, :is_active, :phone_verified,
    :email_verified, :profile_complete, :password_hash, :otp_hash, :otp_expires_at,
    :created_at, :updated_at, :last_login
)`
	if _, err := repo.db.NamedExecContext(ctx, q, repo.row(acct)); err != nil {
		return account.Account{}, errors.Wrap(err, "inserting account")
	}
	return acct, nil
}

func (repo accountRepository) GetAccountByID(ctx context.Context, id string) (account.Account, error) {
	var row accountRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM account WHERE id = $1`, id); err != nil {
		return account.Account{}, repo.trapNoRowsErr(err, "getting account by id")
	}
	return repo.unrow(row), nil
}

func (repo accountRepository) GetAccountByPhone(ctx context.Context, phone string) (account.Account, error) {
	var row accountRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM account WHERE phone = $1`, phone); err != nil {
		return account.Account{}, repo.trapNoRowsErr(err, "getting account by phone")
	}
	return repo.unrow(row), nil
}

func (repo accountRepository) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	var row accountRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM account WHERE email = $1`, email); err != nil {
		return account.Account{}, repo.trapNoRowsErr(err, "getting account by email")
	}
	return repo.unrow(row), nil
}

func (repo accountRepository) FilterTutors(ctx context.Context, filter *account.TutorFilter, ordering []core.DBOrdering) ([]account.Account, error) {
	q := `SELECT * FROM account WHERE role = $1`
	args := []interface{}{account.RoleTutor}

	if filter != nil {
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			q += ` AND (first_name ILIKE $2 OR last_name ILIKE $2 OR bio ILIKE $2)`
		}
		if filter.Subject != "" {
			args = append(args, filter.Subject)
			q += ` AND $` + strconv.Itoa(len(args)) + ` = ANY(subjects)`
		}
	}

	q += orderBy(ordering, "created_at DESC")

	var rows []accountRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering tutors")
	}
	return repo.unrowSlice(rows), nil
}

func (repo accountRepository) UpdateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	q := `
UPDATE account SET
    email = :email, first_name = :first_name, last_name = :last_name, city = :city,
    state = :state, avatar_url = :avatar_url, bio = :bio, relationship = :relationship,
    subjects = :subjects, levels = :levels, rate_min = :rate_min, rate_max = :rate_max,
    is_active = :is_active, phone_verified = :phone_verified, email_verified = :email_verified,
    profile_complete = :profile_complete, password_hash = :password_hash, otp_hash = :otp_hash,
    otp_expires_at = :otp_expires_at, updated_at = :updated_at, last_login = :last_login
WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, repo.row(acct))
	if err != nil {
		return account.Account{}, errors.Wrap(err, "updating account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.Account{}, account.ErrNotFound
	}
	return acct, nil
}

func (repo accountRepository) DeleteAccountsByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM account WHERE id = ANY($1)`, pq.StringArray(ids))
	return errors.Wrap(err, "deleting accounts")
}

// orderBy renders an ORDER BY clause from the requested ordering, falling
// back to fallback when none was requested. Fields were validated upstream.
func orderBy(ordering []core.DBOrdering, fallback string) string {
	if len(ordering) == 0 {
		return " ORDER BY " + fallback
	}
	terms := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		terms = append(terms, ord.String())
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}
