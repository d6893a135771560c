package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/homevest/backoffice/internal/models"
	"github.com/jmoiron/sqlx"
)

type KycSubmissionRepository interface {
	GetOne(id string) (*models.KYCSubmission, bool, error)
	GetByOwner(ownerID string) (*models.KYCSubmission, bool, error)
	Insert(submission *models.KYCSubmission) (string, error)

	// Resubmit overwrites a rejected submission in place, resetting it back
	// to pending and clearing the reviewer fields. Returns false if the
	// record is no longer in the rejected state.
	Resubmit(id string, submission *models.KYCSubmission) (bool, error)

	// Decide moves a pending submission to approved/rejected. The status
	// precondition is part of the UPDATE itself, so a submission that has
	// already been processed is left untouched and false is returned.
	Decide(id, status, reviewerID, rejectionReason string) (bool, error)
}

type KycSubmissionRepositoryImpl struct {
	db *sqlx.DB
}

func NewKycSubmissionRepository(db *sqlx.DB) KycSubmissionRepository {
	return &KycSubmissionRepositoryImpl{db: db}
}

const kycColumns = `id, user_id, id_type, id_number, id_image, selfie_image, address_proof_type, address_proof_image, status, rejection_reason, verified_by, verified_at, submitted_at, updated_at`

func (repo *KycSubmissionRepositoryImpl) GetOne(id string) (*models.KYCSubmission, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var submission models.KYCSubmission

	query := `SELECT ` + kycColumns + ` FROM kyc_submissions WHERE id=$1`

	err := repo.db.GetContext(ctx, &submission, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &submission, true, nil
}

func (repo *KycSubmissionRepositoryImpl) GetByOwner(ownerID string) (*models.KYCSubmission, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var submission models.KYCSubmission

	query := `SELECT ` + kycColumns + ` FROM kyc_submissions WHERE user_id=$1`

	err := repo.db.GetContext(ctx, &submission, query, ownerID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &submission, true, nil
}

func (repo *KycSubmissionRepositoryImpl) Insert(submission *models.KYCSubmission) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO kyc_submissions (user_id, id_type, id_number, id_image, selfie_image, address_proof_type, address_proof_image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := repo.db.GetContext(ctx, &id, query,
		submission.UserID,
		submission.IDType,
		submission.IDNumber,
		submission.IDImage,
		submission.SelfieImage,
		submission.AddressProofType,
		submission.AddressProofImage,
	)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *KycSubmissionRepositoryImpl) Resubmit(id string, submission *models.KYCSubmission) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE kyc_submissions
		SET id_type=$1, id_number=$2, id_image=$3, selfie_image=$4,
		    address_proof_type=$5, address_proof_image=$6,
		    status=$7, rejection_reason=NULL, verified_by=NULL, verified_at=NULL,
		    submitted_at=NOW(), updated_at=NOW()
		WHERE id=$8 AND status=$9`

	result, err := repo.db.ExecContext(ctx, query,
		submission.IDType,
		submission.IDNumber,
		submission.IDImage,
		submission.SelfieImage,
		submission.AddressProofType,
		submission.AddressProofImage,
		models.KycStatusPending,
		id,
		models.KycStatusRejected,
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

func (repo *KycSubmissionRepositoryImpl) Decide(id, status, reviewerID, rejectionReason string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE kyc_submissions
		SET status=$1, rejection_reason=NULLIF($2, ''), verified_by=$3, verified_at=NOW(), updated_at=NOW()
		WHERE id=$4 AND status=$5`

	result, err := repo.db.ExecContext(ctx, query,
		status,
		rejectionReason,
		reviewerID,
		id,
		models.KycStatusPending,
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
