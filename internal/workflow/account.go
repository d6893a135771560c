package workflow

import (
	"log/slog"

	"github.com/homevest/backoffice/internal/models"
	"github.com/homevest/backoffice/internal/repository"
)

// AccountManager is the only writer of the is_default flag. It maintains
// the invariant that an owner with at least one bank account has exactly
// one default, and an owner with none has zero.
//
// Two layers keep the invariant safe under concurrency: commands for the
// same owner serialize on the owner lock table, and the repository runs
// the clear-siblings + set-target sequence inside a single transaction
// with row locks. The in-process lock closes the count-then-insert race
// for an owner's first account, which row locks alone cannot cover since
// there are no rows to lock yet.
type AccountManager struct {
	Accounts repository.BankAccountRepository
	Locks    *OwnerLocks
	Logger   *slog.Logger
}

func NewAccountManager(manager *AccountManager) *AccountManager {
	if manager.Locks == nil {
		manager.Locks = NewOwnerLocks()
	}
	return &AccountManager{
		Accounts: manager.Accounts,
		Locks:    manager.Locks,
		Logger:   manager.Logger,
	}
}

type AddAccountInput struct {
	AccountName   string
	AccountNumber string
	BankName      string
	RoutingNumber string
	SwiftCode     string
	MakeDefault   bool
}

func (m *AccountManager) AddAccount(ownerID string, input *AddAccountInput) (*models.BankAccount, error) {
	m.Locks.Lock(ownerID)
	defer m.Locks.Unlock(ownerID)

	exists, err := m.Accounts.ExistsDuplicate(ownerID, input.AccountNumber, input.BankName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateAccount
	}

	account := &models.BankAccount{
		UserID:        ownerID,
		AccountName:   input.AccountName,
		AccountNumber: input.AccountNumber,
		BankName:      input.BankName,
		RoutingNumber: input.RoutingNumber,
		SwiftCode:     input.SwiftCode,
	}

	id, becameDefault, err := m.Accounts.Insert(account, input.MakeDefault)
	if err != nil {
		return nil, err
	}

	account.ID = id
	account.IsDefault = becameDefault

	return account, nil
}

// UpdateAccount applies field changes and, when makeDefault is set and the
// account is not already the default, runs the clear-then-set sequence
// first under the same per-owner serialization as every other operation.
func (m *AccountManager) UpdateAccount(ownerID, id string, fields *models.BankAccountFields, makeDefault *bool) (*models.BankAccount, error) {
	m.Locks.Lock(ownerID)
	defer m.Locks.Unlock(ownerID)

	account, found, err := m.Accounts.GetOne(ownerID, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	if makeDefault != nil && *makeDefault && !account.IsDefault {
		ok, err := m.Accounts.SetDefault(ownerID, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotFound
		}
	}

	ok, err := m.Accounts.Update(ownerID, id, fields)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	account, _, err = m.Accounts.GetOne(ownerID, id)
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (m *AccountManager) DeleteAccount(ownerID, id string) error {
	m.Locks.Lock(ownerID)
	defer m.Locks.Unlock(ownerID)

	found, err := m.Accounts.Delete(ownerID, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	return nil
}

func (m *AccountManager) SetDefault(ownerID, id string) error {
	m.Locks.Lock(ownerID)
	defer m.Locks.Unlock(ownerID)

	found, err := m.Accounts.SetDefault(ownerID, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	return nil
}

func (m *AccountManager) ListAccounts(ownerID string) ([]models.BankAccount, error) {
	return m.Accounts.GetAllByOwner(ownerID)
}
