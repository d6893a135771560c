// Every state transition in the back-office should leave a trail.
// The activity log table is polymorphic over entity and entity_id so the
// same table serves bank accounts, KYC submissions and tickets.
package repository

import (
	"context"

	"github.com/homevest/backoffice/internal/models"
	"github.com/jmoiron/sqlx"
)

type ActivityRepository interface {
	Insert(log *models.ActivityLog) (*models.ActivityLog, error)
	CountConsecutiveFailedLoginAttempts(userID, actionDesc string) int
}

const (
	// ActivityLogBankAccountEntity is used in actions that has to do with bank accounts
	ActivityLogBankAccountEntity = "bank_account"

	// ActivityLogKycEntity is used in actions that has to do with KYC submissions
	ActivityLogKycEntity = "kyc_submission"

	// ActivityLogTicketEntity is used in actions that has to do with support tickets
	ActivityLogTicketEntity = "ticket"

	// ActivityLogUserEntity is used in activites that has to do with user account
	ActivityLogUserEntity = "user"
)

type ActivityRepositoryImpl struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) ActivityRepository {
	return &ActivityRepositoryImpl{db: db}
}

func (repo *ActivityRepositoryImpl) Insert(log *models.ActivityLog) (*models.ActivityLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var inserted models.ActivityLog

	query := `
		INSERT INTO activity_logs (user_id, entity, entity_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, entity, entity_id, description, created_at`

	err := repo.db.GetContext(ctx, &inserted, query,
		log.UserID,
		log.Entity,
		log.EntityId,
		log.Description,
	)

	if err != nil {
		return nil, err
	}

	return &inserted, nil
}

// CountConsecutiveFailedLoginAttempts counts failed login attempts since the
// last successful login, looking at the most recent user-entity entries. The
// login handler locks the account once this reaches the limit.
func (repo *ActivityRepositoryImpl) CountConsecutiveFailedLoginAttempts(userID, actionDesc string) int {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var descriptions []string

	query := `
		SELECT description
		FROM activity_logs
		WHERE user_id = $1 AND entity = $2
		ORDER BY created_at DESC
		LIMIT 3`

	err := repo.db.SelectContext(ctx, &descriptions, query, userID, ActivityLogUserEntity)
	if err != nil {
		return 0
	}

	count := 0
	for _, desc := range descriptions {
		if desc != actionDesc {
			break
		}
		count++
	}

	return count
}
