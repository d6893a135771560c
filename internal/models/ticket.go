package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type Ticket struct {
	ID         string         `db:"id"`
	UserID     string         `db:"user_id"`
	Subject    string         `db:"subject"`
	Category   string         `db:"category"`
	Status     string         `db:"status"`
	Priority   string         `db:"priority"`
	AssignedTo sql.NullString `db:"assigned_to"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  sql.NullTime   `db:"updated_at"`
	ClosedAt   sql.NullTime   `db:"closed_at"`
	ClosedBy   sql.NullString `db:"closed_by"`

	Messages []TicketMessage `db:"-"`
}

type TicketMessage struct {
	ID          string         `db:"id"`
	TicketID    string         `db:"ticket_id"`
	SenderID    string         `db:"sender_id"`
	Body        string         `db:"body"`
	Attachments pq.StringArray `db:"attachments"`
	CreatedAt   time.Time      `db:"created_at"`
}
