package fakeuserrepo

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/coffee-shop-web/internal/errors"
	"github.com/jrsteele09/coffee-shop-web/users"
)

var _ users.AccountRepo = (*FakeAccountRepo)(nil)

// FakeAccountRepo keeps accounts in memory. Emails are matched case-insensitively.
type FakeAccountRepo struct {
	accounts map[string]*users.Account
	emailIds map[string]string // email to account id
	lock     sync.RWMutex
}

func NewFakeAccountRepo() *FakeAccountRepo {
	return &FakeAccountRepo{
		accounts: make(map[string]*users.Account),
		emailIds: make(map[string]string),
	}
}

func (ar *FakeAccountRepo) Upsert(account *users.Account) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	copied := *account
	ar.accounts[account.ID] = &copied
	ar.emailIds[strings.ToLower(account.Email)] = account.ID
	return nil
}

func (ar *FakeAccountRepo) GetByEmail(email string) (*users.Account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	id, ok := ar.emailIds[strings.ToLower(email)]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	copied := *ar.accounts[id]
	return &copied, nil
}

func (ar *FakeAccountRepo) GetByID(id string) (*users.Account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	account, ok := ar.accounts[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	copied := *account
	return &copied, nil
}
