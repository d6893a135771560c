package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/homevest/backoffice/internal/models"
	"github.com/jmoiron/sqlx"
)

type UserRepository interface {
	GetOne(id string) (*models.User, bool, error)
	GetByEmail(email string) (*models.User, bool, error)
	SetVerificationStatus(id, status string) error
	Lock(id string) error
}

type UserRepositoryImpl struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (repo *UserRepositoryImpl) GetOne(id string) (*models.User, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var user models.User

	query := `
        SELECT id, first_name, last_name, email, phone_number, hashed_password, role, verification_status, status, created_at, updated_at
		FROM users WHERE id=$1`

	err := repo.db.GetContext(ctx, &user, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &user, true, nil
}

func (repo *UserRepositoryImpl) GetByEmail(email string) (*models.User, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var user models.User

	query := `
        SELECT id, first_name, last_name, email, phone_number, hashed_password, role, verification_status, status, created_at, updated_at
		FROM users WHERE email=$1`

	err := repo.db.GetContext(ctx, &user, query, email)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &user, true, nil
}

func (repo *UserRepositoryImpl) SetVerificationStatus(id, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET verification_status=$1, updated_at=NOW() WHERE id=$2`

	_, err := repo.db.ExecContext(ctx, query, status, id)
	return err
}

func (repo *UserRepositoryImpl) Lock(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET status=$1, updated_at=NOW() WHERE id=$2`

	_, err := repo.db.ExecContext(ctx, query, models.UserAccountLockedStatus, id)
	return err
}
