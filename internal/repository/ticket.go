package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/homevest/backoffice/internal/models"
	"github.com/jmoiron/sqlx"
)

// AppendMessageResult reports what happened inside the atomic append.
type AppendMessageResult struct {
	Found      bool
	Closed     bool
	Status     string
	AssignedTo sql.NullString
}

type TicketRepository interface {
	// Insert creates the ticket together with its first message in one
	// transaction. A ticket always starts its life with a message.
	Insert(ticket *models.Ticket, firstMessage *models.TicketMessage) (string, error)
	GetOne(id string) (*models.Ticket, bool, error)
	GetAllByOwner(ownerID string) ([]models.Ticket, error)
	Messages(ticketID string) ([]models.TicketMessage, error)

	// AppendMessage re-checks the closed guard under a row lock before
	// inserting, so a reply can never land on a ticket that was closed
	// concurrently. A reviewer replying to an open ticket moves it to
	// in-progress and claims the assignment if nobody owns it yet.
	AppendMessage(message *models.TicketMessage, actorIsReviewer bool) (*AppendMessageResult, error)

	UpdateStatus(id, status, reviewerID string) (bool, error)
	Assign(id, assigneeID string) (bool, error)
}

type TicketRepositoryImpl struct {
	db *sqlx.DB
}

func NewTicketRepository(db *sqlx.DB) TicketRepository {
	return &TicketRepositoryImpl{db: db}
}

const ticketColumns = `id, user_id, subject, category, status, priority, assigned_to, created_at, updated_at, closed_at, closed_by`

func (repo *TicketRepositoryImpl) Insert(ticket *models.Ticket, firstMessage *models.TicketMessage) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}

	defer tx.Rollback()

	var id string

	query := `
		INSERT INTO tickets (user_id, subject, category, priority)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err = tx.GetContext(ctx, &id, query,
		ticket.UserID,
		ticket.Subject,
		ticket.Category,
		ticket.Priority,
	)
	if err != nil {
		return "", err
	}

	query = `
		INSERT INTO ticket_messages (ticket_id, sender_id, body, attachments)
		VALUES ($1, $2, $3, $4)`

	_, err = tx.ExecContext(ctx, query,
		id,
		firstMessage.SenderID,
		firstMessage.Body,
		firstMessage.Attachments,
	)
	if err != nil {
		return "", err
	}

	err = tx.Commit()
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *TicketRepositoryImpl) GetOne(id string) (*models.Ticket, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var ticket models.Ticket

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`

	err := repo.db.GetContext(ctx, &ticket, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	messages, err := repo.Messages(id)
	if err != nil {
		return nil, false, err
	}
	ticket.Messages = messages

	return &ticket, true, nil
}

func (repo *TicketRepositoryImpl) GetAllByOwner(ownerID string) ([]models.Ticket, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var tickets []models.Ticket

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE user_id=$1 ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &tickets, query, ownerID)
	if err != nil {
		return nil, err
	}

	return tickets, nil
}

func (repo *TicketRepositoryImpl) Messages(ticketID string) ([]models.TicketMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var messages []models.TicketMessage

	query := `
		SELECT id, ticket_id, sender_id, body, attachments, created_at
		FROM ticket_messages WHERE ticket_id=$1 ORDER BY created_at`

	err := repo.db.SelectContext(ctx, &messages, query, ticketID)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (repo *TicketRepositoryImpl) AppendMessage(message *models.TicketMessage, actorIsReviewer bool) (*AppendMessageResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer tx.Rollback()

	result := &AppendMessageResult{}

	query := `SELECT status, assigned_to FROM tickets WHERE id=$1 FOR UPDATE`

	row := tx.QueryRowxContext(ctx, query, message.TicketID)
	err = row.Scan(&result.Status, &result.AssignedTo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, nil
		}
		return nil, err
	}

	result.Found = true

	if result.Status == models.TicketStatusClosed {
		result.Closed = true
		return result, nil
	}

	query = `
		INSERT INTO ticket_messages (ticket_id, sender_id, body, attachments)
		VALUES ($1, $2, $3, $4)`

	_, err = tx.ExecContext(ctx, query,
		message.TicketID,
		message.SenderID,
		message.Body,
		message.Attachments,
	)
	if err != nil {
		return nil, err
	}

	if actorIsReviewer && result.Status == models.TicketStatusOpen {
		// first responder takes the ticket
		query = `
			UPDATE tickets
			SET status=$1, assigned_to=COALESCE(assigned_to, $2), updated_at=NOW()
			WHERE id=$3`

		_, err = tx.ExecContext(ctx, query, models.TicketStatusInProgress, message.SenderID, message.TicketID)
		if err != nil {
			return nil, err
		}

		result.Status = models.TicketStatusInProgress
		if !result.AssignedTo.Valid {
			result.AssignedTo = sql.NullString{String: message.SenderID, Valid: true}
		}
	} else {
		_, err = tx.ExecContext(ctx, `UPDATE tickets SET updated_at=NOW() WHERE id=$1`, message.TicketID)
		if err != nil {
			return nil, err
		}
	}

	err = tx.Commit()
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (repo *TicketRepositoryImpl) UpdateStatus(id, status, reviewerID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE tickets
		SET status=$1,
		    closed_at=CASE WHEN $1=$2 THEN NOW() ELSE NULL END,
		    closed_by=CASE WHEN $1=$2 THEN $3::uuid ELSE NULL END,
		    updated_at=NOW()
		WHERE id=$4`

	result, err := repo.db.ExecContext(ctx, query, status, models.TicketStatusClosed, reviewerID, id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (repo *TicketRepositoryImpl) Assign(id, assigneeID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE tickets
		SET assigned_to=$1,
		    status=CASE WHEN status=$2 THEN $3 ELSE status END,
		    updated_at=NOW()
		WHERE id=$4`

	result, err := repo.db.ExecContext(ctx, query, assigneeID, models.TicketStatusOpen, models.TicketStatusInProgress, id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}
