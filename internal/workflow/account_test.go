package workflow

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/homevest/backoffice/internal/models"
	"github.com/stretchr/testify/require"
)

// fakeAccountStore is an in-memory BankAccountRepository with the same
// default-flag semantics as the postgres implementation. The per-call
// mutex stands in for the transaction row locks; it does NOT cover
// sequences of calls, which is exactly what the manager's owner lock is
// there for.
type fakeAccountStore struct {
	mu       sync.Mutex
	nextID   int
	accounts []*models.BankAccount
}

func (s *fakeAccountStore) Insert(account *models.BankAccount, requestedDefault bool) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, existing := range s.accounts {
		if existing.UserID == account.UserID {
			count++
		}
	}

	makeDefault := count == 0 || requestedDefault
	if makeDefault {
		for _, existing := range s.accounts {
			if existing.UserID == account.UserID {
				existing.IsDefault = false
			}
		}
	}

	s.nextID++
	stored := *account
	stored.ID = fmt.Sprintf("acct-%d", s.nextID)
	stored.IsDefault = makeDefault
	s.accounts = append(s.accounts, &stored)

	return stored.ID, makeDefault, nil
}

func (s *fakeAccountStore) GetOne(ownerID, id string) (*models.BankAccount, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.UserID == ownerID && existing.ID == id {
			account := *existing
			return &account, true, nil
		}
	}
	return nil, false, nil
}

func (s *fakeAccountStore) GetAllByOwner(ownerID string) ([]models.BankAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var accounts []models.BankAccount
	for _, existing := range s.accounts {
		if existing.UserID == ownerID {
			accounts = append(accounts, *existing)
		}
	}
	return accounts, nil
}

func (s *fakeAccountStore) ExistsDuplicate(ownerID, accountNumber, bankName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.UserID == ownerID && existing.AccountNumber == accountNumber && existing.BankName == bankName {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeAccountStore) Update(ownerID, id string, fields *models.BankAccountFields) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.UserID != ownerID || existing.ID != id {
			continue
		}
		if fields.AccountName != nil {
			existing.AccountName = *fields.AccountName
		}
		if fields.AccountNumber != nil {
			existing.AccountNumber = *fields.AccountNumber
		}
		if fields.BankName != nil {
			existing.BankName = *fields.BankName
		}
		if fields.RoutingNumber != nil {
			existing.RoutingNumber = *fields.RoutingNumber
		}
		if fields.SwiftCode != nil {
			existing.SwiftCode = *fields.SwiftCode
		}
		return true, nil
	}
	return false, nil
}

func (s *fakeAccountStore) SetDefault(ownerID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *models.BankAccount
	for _, existing := range s.accounts {
		if existing.UserID == ownerID && existing.ID == id {
			target = existing
			break
		}
	}
	if target == nil {
		return false, nil
	}

	for _, existing := range s.accounts {
		if existing.UserID == ownerID {
			existing.IsDefault = false
		}
	}
	target.IsDefault = true

	return true, nil
}

func (s *fakeAccountStore) Delete(ownerID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasDefault := false
	index := -1
	for i, existing := range s.accounts {
		if existing.UserID == ownerID && existing.ID == id {
			wasDefault = existing.IsDefault
			index = i
			break
		}
	}
	if index < 0 {
		return false, nil
	}

	s.accounts = append(s.accounts[:index], s.accounts[index+1:]...)

	if wasDefault {
		for _, existing := range s.accounts {
			if existing.UserID == ownerID {
				existing.IsDefault = true
				break
			}
		}
	}

	return true, nil
}

func newTestAccountManager() (*AccountManager, *fakeAccountStore) {
	store := &fakeAccountStore{}
	manager := NewAccountManager(&AccountManager{
		Accounts: store,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return manager, store
}

func addAccountInput(number string, makeDefault bool) *AddAccountInput {
	return &AddAccountInput{
		AccountName:   "John Doe",
		AccountNumber: number,
		BankName:      "First Bank",
		RoutingNumber: "021000021",
		SwiftCode:     "FBNINGLA",
		MakeDefault:   makeDefault,
	}
}

func defaultAccounts(t *testing.T, manager *AccountManager, ownerID string) []models.BankAccount {
	t.Helper()

	accounts, err := manager.ListAccounts(ownerID)
	require.NoError(t, err)

	var defaults []models.BankAccount
	for _, account := range accounts {
		if account.IsDefault {
			defaults = append(defaults, account)
		}
	}
	return defaults
}

func TestAddAccount_FirstAccountBecomesDefault(t *testing.T) {
	manager, _ := newTestAccountManager()

	account, err := manager.AddAccount("owner-1", addAccountInput("0123456789", false))
	require.NoError(t, err)
	require.True(t, account.IsDefault, "first account must be default even when not requested")
}

func TestAddAccount_SecondAccountIsNotDefaultUnlessRequested(t *testing.T) {
	manager, _ := newTestAccountManager()

	first, err := manager.AddAccount("owner-1", addAccountInput("0123456789", false))
	require.NoError(t, err)

	second, err := manager.AddAccount("owner-1", addAccountInput("9876543210", false))
	require.NoError(t, err)
	require.False(t, second.IsDefault)

	third, err := manager.AddAccount("owner-1", addAccountInput("5555555555", true))
	require.NoError(t, err)
	require.True(t, third.IsDefault)

	// The old default must have been cleared.
	reread, found, err := manager.Accounts.GetOne("owner-1", first.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.False(t, reread.IsDefault)

	require.Len(t, defaultAccounts(t, manager, "owner-1"), 1)
}

func TestAddAccount_RejectsDuplicate(t *testing.T) {
	manager, _ := newTestAccountManager()

	_, err := manager.AddAccount("owner-1", addAccountInput("0123456789", false))
	require.NoError(t, err)

	_, err = manager.AddAccount("owner-1", addAccountInput("0123456789", false))
	require.ErrorIs(t, err, ErrDuplicateAccount)

	// Same number at a different bank is a different account.
	input := addAccountInput("0123456789", false)
	input.BankName = "Second Bank"
	_, err = manager.AddAccount("owner-1", input)
	require.NoError(t, err)
}

func TestDeleteAccount_PromotesOldestRemaining(t *testing.T) {
	manager, _ := newTestAccountManager()

	first, err := manager.AddAccount("owner-1", addAccountInput("0123456789", false))
	require.NoError(t, err)
	second, err := manager.AddAccount("owner-1", addAccountInput("9876543210", false))
	require.NoError(t, err)
	_, err = manager.AddAccount("owner-1", addAccountInput("5555555555", false))
	require.NoError(t, err)

	require.NoError(t, manager.DeleteAccount("owner-1", first.ID))

	defaults := defaultAccounts(t, manager, "owner-1")
	require.Len(t, defaults, 1)
	require.Equal(t, second.ID, defaults[0].ID)
}

func TestDeleteAccount_NonDefaultKeepsDefault(t *testing.T) {
	manager, _ := newTestAccountManager()

	first, err := manager.AddAccount("owner-1", addAccountInput("0123456789", false))
	require.NoError(t, err)
	second, err := manager.AddAccount("owner-1", addAccountInput("9876543210", false))
	require.NoError(t, err)

	require.NoError(t, manager.DeleteAccount("owner-1", second.ID))

	defaults := defaultAccounts(t, manager, "owner-1")
	require.Len(t, defaults, 1)
	require.Equal(t, first.ID, defaults[0].ID)
}

func TestDeleteAccount_LastAccountLeavesNoDefault(t *testing.T) {
	manager, _ := newTestAccountManager()

	account, err := manager.AddAccount("owner-1", addAccountInput("0123456789", false))
	require.NoError(t, err)

	require.NoError(t, manager.DeleteAccount("owner-1", account.ID))
	require.Empty(t, defaultAccounts(t, manager, "owner-1"))
}

func TestDeleteAccount_NotFound(t *testing.T) {
	manager, _ := newTestAccountManager()

	err := manager.DeleteAccount("owner-1", "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetDefault_MovesTheFlag(t *testing.T) {
	manager, _ := newTestAccountManager()

	_, err := manager.AddAccount("owner-1", addAccountInput("0123456789", false))
	require.NoError(t, err)
	second, err := manager.AddAccount("owner-1", addAccountInput("9876543210", false))
	require.NoError(t, err)

	require.NoError(t, manager.SetDefault("owner-1", second.ID))

	defaults := defaultAccounts(t, manager, "owner-1")
	require.Len(t, defaults, 1)
	require.Equal(t, second.ID, defaults[0].ID)

	require.ErrorIs(t, manager.SetDefault("owner-1", "missing"), ErrNotFound)
}

func TestUpdateAccount_MakeDefaultAndFieldChanges(t *testing.T) {
	manager, _ := newTestAccountManager()

	first, err := manager.AddAccount("owner-1", addAccountInput("0123456789", false))
	require.NoError(t, err)
	second, err := manager.AddAccount("owner-1", addAccountInput("9876543210", false))
	require.NoError(t, err)

	newName := "Jane Doe"
	makeDefault := true
	updated, err := manager.UpdateAccount("owner-1", second.ID, &models.BankAccountFields{AccountName: &newName}, &makeDefault)
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", updated.AccountName)
	require.True(t, updated.IsDefault)
	require.Equal(t, "9876543210", updated.AccountNumber, "untouched fields must survive the update")

	reread, _, err := manager.Accounts.GetOne("owner-1", first.ID)
	require.NoError(t, err)
	require.False(t, reread.IsDefault)
}

func TestUpdateAccount_NotFound(t *testing.T) {
	manager, _ := newTestAccountManager()

	_, err := manager.UpdateAccount("owner-1", "missing", &models.BankAccountFields{}, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAccountManager_ConcurrentAddsLeaveOneDefault(t *testing.T) {
	manager, _ := newTestAccountManager()

	const goroutines = 30

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := manager.AddAccount("owner-1", addAccountInput(fmt.Sprintf("%010d", n), n%3 == 0))
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	accounts, err := manager.ListAccounts("owner-1")
	require.NoError(t, err)
	require.Len(t, accounts, goroutines)
	require.Len(t, defaultAccounts(t, manager, "owner-1"), 1)
}

func TestAccountManager_ConcurrentSetDefaultLeavesOneDefault(t *testing.T) {
	manager, _ := newTestAccountManager()

	var ids []string
	for i := 0; i < 10; i++ {
		account, err := manager.AddAccount("owner-1", addAccountInput(fmt.Sprintf("%010d", i), false))
		require.NoError(t, err)
		ids = append(ids, account.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			require.NoError(t, manager.SetDefault("owner-1", id))
		}(id)
	}
	wg.Wait()

	require.Len(t, defaultAccounts(t, manager, "owner-1"), 1)
}
