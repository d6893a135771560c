package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/homevest/backoffice/internal/models"
	"github.com/jmoiron/sqlx"
)

type BankAccountRepository interface {
	// Insert creates the account and reports whether it became the default.
	// The first account of an owner is always promoted to default.
	Insert(account *models.BankAccount, requestedDefault bool) (string, bool, error)
	GetOne(ownerID, id string) (*models.BankAccount, bool, error)
	GetAllByOwner(ownerID string) ([]models.BankAccount, error)
	ExistsDuplicate(ownerID, accountNumber, bankName string) (bool, error)
	Update(ownerID, id string, fields *models.BankAccountFields) (bool, error)
	SetDefault(ownerID, id string) (bool, error)
	Delete(ownerID, id string) (bool, error)
}

type BankAccountRepositoryImpl struct {
	db *sqlx.DB
}

func NewBankAccountRepository(db *sqlx.DB) BankAccountRepository {
	return &BankAccountRepositoryImpl{db: db}
}

// lockOwnerAccounts takes row locks on every account of the owner so that
// the clear-siblings + set-target sequence cannot interleave with another
// writer working on the same owner's set.
func lockOwnerAccounts(ctx context.Context, tx *sqlx.Tx, ownerID string) error {
	var ids []string

	query := `SELECT id FROM bank_accounts WHERE user_id=$1 FOR UPDATE`

	return tx.SelectContext(ctx, &ids, query, ownerID)
}

func (repo *BankAccountRepositoryImpl) Insert(account *models.BankAccount, requestedDefault bool) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", false, err
	}

	defer tx.Rollback()

	if err := lockOwnerAccounts(ctx, tx, account.UserID); err != nil {
		return "", false, err
	}

	var count int
	err = tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM bank_accounts WHERE user_id=$1`, account.UserID)
	if err != nil {
		return "", false, err
	}

	makeDefault := count == 0 || requestedDefault

	if makeDefault {
		query := `UPDATE bank_accounts SET is_default=FALSE, updated_at=NOW() WHERE user_id=$1 AND is_default`

		_, err = tx.ExecContext(ctx, query, account.UserID)
		if err != nil {
			return "", false, err
		}
	}

	var id string

	query := `
		INSERT INTO bank_accounts (user_id, account_name, account_number, bank_name, routing_number, swift_code, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err = tx.GetContext(ctx, &id, query,
		account.UserID,
		account.AccountName,
		account.AccountNumber,
		account.BankName,
		account.RoutingNumber,
		account.SwiftCode,
		makeDefault,
	)
	if err != nil {
		return "", false, err
	}

	err = tx.Commit()
	if err != nil {
		return "", false, err
	}

	return id, makeDefault, nil
}

func (repo *BankAccountRepositoryImpl) GetOne(ownerID, id string) (*models.BankAccount, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var account models.BankAccount

	query := `
        SELECT id, user_id, account_name, account_number, bank_name, routing_number, swift_code, is_default, created_at, updated_at
		FROM bank_accounts WHERE id=$1 AND user_id=$2`

	err := repo.db.GetContext(ctx, &account, query, id, ownerID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &account, true, nil
}

func (repo *BankAccountRepositoryImpl) GetAllByOwner(ownerID string) ([]models.BankAccount, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var accounts []models.BankAccount

	query := `
        SELECT id, user_id, account_name, account_number, bank_name, routing_number, swift_code, is_default, created_at, updated_at
		FROM bank_accounts WHERE user_id=$1 ORDER BY created_at`

	err := repo.db.SelectContext(ctx, &accounts, query, ownerID)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

func (repo *BankAccountRepositoryImpl) ExistsDuplicate(ownerID, accountNumber, bankName string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var exists bool

	query := `
		SELECT EXISTS (
			SELECT 1 FROM bank_accounts WHERE user_id=$1 AND account_number=$2 AND bank_name=$3
		)`

	err := repo.db.GetContext(ctx, &exists, query, ownerID, accountNumber, bankName)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (repo *BankAccountRepositoryImpl) Update(ownerID, id string, fields *models.BankAccountFields) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE bank_accounts
		SET account_name=COALESCE($1, account_name),
		    account_number=COALESCE($2, account_number),
		    bank_name=COALESCE($3, bank_name),
		    routing_number=COALESCE($4, routing_number),
		    swift_code=COALESCE($5, swift_code),
		    updated_at=NOW()
		WHERE id=$6 AND user_id=$7`

	result, err := repo.db.ExecContext(ctx, query,
		fields.AccountName,
		fields.AccountNumber,
		fields.BankName,
		fields.RoutingNumber,
		fields.SwiftCode,
		id,
		ownerID,
	)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// SetDefault clears is_default on every sibling account and sets it on the
// target, all inside a single transaction so no interleaving can leave two
// defaults or zero defaults behind.
func (repo *BankAccountRepositoryImpl) SetDefault(ownerID, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}

	defer tx.Rollback()

	if err := lockOwnerAccounts(ctx, tx, ownerID); err != nil {
		return false, err
	}

	var targetID string
	err = tx.GetContext(ctx, &targetID, `SELECT id FROM bank_accounts WHERE id=$1 AND user_id=$2`, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	query := `UPDATE bank_accounts SET is_default=FALSE, updated_at=NOW() WHERE user_id=$1 AND is_default AND id <> $2`

	_, err = tx.ExecContext(ctx, query, ownerID, id)
	if err != nil {
		return false, err
	}

	query = `UPDATE bank_accounts SET is_default=TRUE, updated_at=NOW() WHERE id=$1`

	_, err = tx.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}

	err = tx.Commit()
	if err != nil {
		return false, err
	}

	return true, nil
}

// Delete removes the account. If the deleted account was the default, the
// oldest remaining account of the same owner is promoted in the same
// transaction so the owner is never left without a default.
func (repo *BankAccountRepositoryImpl) Delete(ownerID, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}

	defer tx.Rollback()

	if err := lockOwnerAccounts(ctx, tx, ownerID); err != nil {
		return false, err
	}

	var wasDefault bool
	err = tx.GetContext(ctx, &wasDefault, `SELECT is_default FROM bank_accounts WHERE id=$1 AND user_id=$2`, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM bank_accounts WHERE id=$1`, id)
	if err != nil {
		return false, err
	}

	if wasDefault {
		query := `
			UPDATE bank_accounts SET is_default=TRUE, updated_at=NOW()
			WHERE id=(SELECT id FROM bank_accounts WHERE user_id=$1 ORDER BY created_at LIMIT 1)`

		_, err = tx.ExecContext(ctx, query, ownerID)
		if err != nil {
			return false, err
		}
	}

	err = tx.Commit()
	if err != nil {
		return false, err
	}

	return true, nil
}
