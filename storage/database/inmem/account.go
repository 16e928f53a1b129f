package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/tkamau/tunza/core"
	"github.com/tkamau/tunza/core/account"
)

type accountRepository struct {
	db *DB
}

var _ account.Repository = (*accountRepository)(nil)

func NewAccountRepository(db *DB) *accountRepository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) query() []account.Account {
	accts := make([]account.Account, 0, len(repo.db.accounts))
	for _, acct := range repo.db.accounts {
		accts = append(accts, *acct)
	}
	return accts
}

func (repo *accountRepository) CheckPhoneUniqueness(_ context.Context, phone, email string, excludedAccounts ...account.Account) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]bool, len(excludedAccounts))
	for _, acct := range excludedAccounts {
		excluded[acct.ID] = true
	}

	for _, acct := range repo.query() {
		if excluded[acct.ID] {
			continue
		}
		if acct.Phone == phone {
			return account.ErrPhoneExists
		}
		if email != "" && acct.Email == email {
			return account.ErrEmailExists
		}
	}
	return nil
}

func (repo *accountRepository) CreateAccount(_ context.Context, acct account.Account) (account.Account, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.accounts[acct.ID] = &acct
	return acct, nil
}

func (repo *accountRepository) GetAccountByID(_ context.Context, id string) (account.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if acct, ok := repo.db.accounts[id]; ok {
		return *acct, nil
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) GetAccountByPhone(_ context.Context, phone string) (account.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, acct := range repo.query() {
		if acct.Phone == phone {
			return acct, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) GetAccountByEmail(_ context.Context, email string) (account.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, acct := range repo.query() {
		if acct.Email == email {
			return acct, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) FilterTutors(_ context.Context, filter *account.TutorFilter, _ []core.DBOrdering) ([]account.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tutors := make([]account.Account, 0)
	for _, acct := range repo.query() {
		if !acct.IsTutor() {
			continue
		}
		if filter != nil && !matchTutor(acct, filter) {
			continue
		}
		tutors = append(tutors, acct)
	}
	sort.Slice(tutors, func(i, j int) bool { return tutors[i].CreatedAt.After(tutors[j].CreatedAt) })
	return tutors, nil
}

func matchTutor(acct account.Account, filter *account.TutorFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		haystack := strings.ToLower(acct.FirstName + " " + acct.LastName + " " + acct.Bio)
		if !strings.Contains(haystack, search) {
			return false
		}
	}
	if filter.Subject != "" {
		var found bool
		for _, subj := range acct.Subjects {
			if strings.EqualFold(subj, filter.Subject) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (repo *accountRepository) UpdateAccount(_ context.Context, acct account.Account) (account.Account, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.accounts[acct.ID]; !ok {
		return account.Account{}, account.ErrNotFound
	}
	repo.db.accounts[acct.ID] = &acct
	return acct, nil
}

func (repo *accountRepository) DeleteAccountsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.accounts, id)
	}
	return nil
}
