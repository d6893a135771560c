package models

import (
	"database/sql"
	"time"
)

type KYCSubmission struct {
	ID                string         `db:"id"`
	UserID            string         `db:"user_id"`
	IDType            string         `db:"id_type"`
	IDNumber          string         `db:"id_number"`
	IDImage           string         `db:"id_image"`
	SelfieImage       string         `db:"selfie_image"`
	AddressProofType  string         `db:"address_proof_type"`
	AddressProofImage string         `db:"address_proof_image"`
	Status            string         `db:"status"`
	RejectionReason   sql.NullString `db:"rejection_reason"`
	VerifiedBy        sql.NullString `db:"verified_by"`
	VerifiedAt        sql.NullTime   `db:"verified_at"`
	SubmittedAt       time.Time      `db:"submitted_at"`
	UpdatedAt         sql.NullTime   `db:"updated_at"`
}
