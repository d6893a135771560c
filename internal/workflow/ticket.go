package workflow

import (
	"log/slog"

	"github.com/homevest/backoffice/internal/models"
	"github.com/homevest/backoffice/internal/repository"
	"github.com/homevest/backoffice/internal/validator"
)

// TicketEngine owns the support ticket lifecycle:
//
//	open -> in-progress -> {resolved, closed}
//	in-progress -> closed   (admin may close without resolving)
//
// The message thread is append-only; once a ticket is closed no further
// reply can be appended. SetStatus is deliberately permissive for admins:
// any of the four statuses can be applied, including reopening a closed
// ticket, which is the only way back out of closed.
type TicketEngine struct {
	Tickets repository.TicketRepository
	Users   repository.UserRepository
	Stream  EventStream
	Logger  *slog.Logger
}

func NewTicketEngine(engine *TicketEngine) *TicketEngine {
	return &TicketEngine{
		Tickets: engine.Tickets,
		Users:   engine.Users,
		Stream:  engine.Stream,
		Logger:  engine.Logger,
	}
}

type CreateTicketInput struct {
	Subject     string
	Category    string
	Priority    string
	Message     string
	Attachments []string
}

func (in *CreateTicketInput) validate() error {
	var v validator.Validator

	v.Check(validator.NotBlank(in.Subject), "Subject is required")
	v.Check(validator.In(in.Category, models.TicketCategories()...), "Category must be one of: general, account, payments, kyc, technical")
	v.Check(validator.NotBlank(in.Message), "Message is required")
	if in.Priority != "" {
		v.Check(validator.In(in.Priority, models.TicketPriorities()...), "Priority must be one of: low, medium, high, urgent")
	}

	if v.HasErrors() {
		return NewValidationError(v.Errors...)
	}

	return nil
}

func (e *TicketEngine) CreateTicket(ownerID string, input *CreateTicketInput) (*models.Ticket, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = models.TicketPriorityMedium
	}

	ticket := &models.Ticket{
		UserID:   ownerID,
		Subject:  input.Subject,
		Category: input.Category,
		Priority: priority,
	}

	firstMessage := &models.TicketMessage{
		SenderID:    ownerID,
		Body:        input.Message,
		Attachments: input.Attachments,
	}

	id, err := e.Tickets.Insert(ticket, firstMessage)
	if err != nil {
		return nil, err
	}

	created, _, err := e.Tickets.GetOne(id)
	if err != nil {
		return nil, err
	}

	return created, nil
}

// AppendReply adds a message to the thread. Only the ticket owner and
// reviewers may reply. A reviewer replying to an open ticket moves it to
// in-progress and, if nobody is assigned yet, becomes the assignee.
func (e *TicketEngine) AppendReply(actor *models.User, ticketID, text string, attachments []string) (*models.Ticket, error) {
	if !validator.NotBlank(text) {
		return nil, NewValidationError("Message is required")
	}

	ticket, found, err := e.Tickets.GetOne(ticketID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	if actor.ID != ticket.UserID && !actor.IsReviewer() {
		return nil, ErrForbidden
	}

	message := &models.TicketMessage{
		TicketID:    ticketID,
		SenderID:    actor.ID,
		Body:        text,
		Attachments: attachments,
	}

	result, err := e.Tickets.AppendMessage(message, actor.IsReviewer())
	if err != nil {
		return nil, err
	}
	if !result.Found {
		return nil, ErrNotFound
	}
	if result.Closed {
		return nil, ErrTicketClosed
	}

	e.notifyReply(actor, ticket, result, text)

	updated, _, err := e.Tickets.GetOne(ticketID)
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// SetStatus applies any of the four statuses without further edge checks.
// This is an admin override; closing stamps closed_at/closed_by.
func (e *TicketEngine) SetStatus(reviewerID, ticketID, newStatus string) (*models.Ticket, error) {
	if !validator.In(newStatus, models.TicketStatuses()...) {
		return nil, NewValidationError("Status must be one of: open, in-progress, resolved, closed")
	}

	ticket, found, err := e.Tickets.GetOne(ticketID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	ok, err := e.Tickets.UpdateStatus(ticketID, newStatus, reviewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	if owner, found, err := e.Users.GetOne(ticket.UserID); err == nil && found {
		emitEvent(e.Stream, e.Logger, TicketStatusTopic, &TicketStatusEvent{
			TicketID:   ticketID,
			Subject:    ticket.Subject,
			OwnerName:  owner.FullName(),
			OwnerEmail: owner.Email,
			Status:     newStatus,
		})
	} else {
		e.Logger.Error("could not load owner for ticket status notification", "ticket_id", ticketID, "error", err)
	}

	updated, _, err := e.Tickets.GetOne(ticketID)
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (e *TicketEngine) AssignTicket(reviewerID, ticketID, assigneeID string) (*models.Ticket, error) {
	assignee, found, err := e.Users.GetOne(assigneeID)
	if err != nil {
		return nil, err
	}
	if !found || !assignee.IsReviewer() {
		return nil, NewValidationError("Assignee must be an admin user")
	}

	ok, err := e.Tickets.Assign(ticketID, assigneeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	updated, _, err := e.Tickets.GetOne(ticketID)
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (e *TicketEngine) ListTickets(ownerID string) ([]models.Ticket, error) {
	return e.Tickets.GetAllByOwner(ownerID)
}

func (e *TicketEngine) GetTicket(actor *models.User, ticketID string) (*models.Ticket, error) {
	ticket, found, err := e.Tickets.GetOne(ticketID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	if actor.ID != ticket.UserID && !actor.IsReviewer() {
		return nil, ErrForbidden
	}

	return ticket, nil
}

// notifyReply alerts the party on the other side of the conversation: the
// owner when a reviewer replied, otherwise the assignee if there is one.
func (e *TicketEngine) notifyReply(actor *models.User, ticket *models.Ticket, result *repository.AppendMessageResult, text string) {
	var recipientID string

	if actor.IsReviewer() {
		recipientID = ticket.UserID
	} else if result.AssignedTo.Valid {
		recipientID = result.AssignedTo.String
	} else {
		return
	}

	recipient, found, err := e.Users.GetOne(recipientID)
	if err != nil || !found {
		e.Logger.Error("could not load recipient for ticket reply notification", "ticket_id", ticket.ID, "error", err)
		return
	}

	emitEvent(e.Stream, e.Logger, TicketReplyTopic, &TicketReplyEvent{
		TicketID:       ticket.ID,
		Subject:        ticket.Subject,
		SenderName:     actor.FullName(),
		RecipientName:  recipient.FullName(),
		RecipientEmail: recipient.Email,
		Body:           text,
	})
}
