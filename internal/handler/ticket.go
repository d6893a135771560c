package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/homevest/backoffice/internal/context"
	"github.com/homevest/backoffice/internal/errHandler"
	"github.com/homevest/backoffice/internal/helper"
	"github.com/homevest/backoffice/internal/models"
	"github.com/homevest/backoffice/internal/repository"
	"github.com/homevest/backoffice/internal/request"
	"github.com/homevest/backoffice/internal/response"
	"github.com/homevest/backoffice/internal/workflow"
)

const (
	TicketActivityLogCreatedDescription  = "Opened support ticket"
	TicketActivityLogRepliedDescription  = "Replied to support ticket"
	TicketActivityLogStatusDescription   = "Changed support ticket status"
	TicketActivityLogAssignedDescription = "Assigned support ticket"
)

type TicketMessageResponseData struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	Body        string    `json:"body"`
	Attachments []string  `json:"attachments,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type TicketResponseData struct {
	ID         string                      `json:"id"`
	Subject    string                      `json:"subject"`
	Category   string                      `json:"category"`
	Status     string                      `json:"status"`
	Priority   string                      `json:"priority"`
	AssignedTo string                      `json:"assigned_to,omitempty"`
	CreatedAt  time.Time                   `json:"created_at"`
	ClosedAt   *time.Time                  `json:"closed_at,omitempty"`
	ClosedBy   string                      `json:"closed_by,omitempty"`
	Messages   []TicketMessageResponseData `json:"messages,omitempty"`
}

func newTicketResponse(ticket *models.Ticket) *TicketResponseData {
	data := &TicketResponseData{
		ID:        ticket.ID,
		Subject:   ticket.Subject,
		Category:  ticket.Category,
		Status:    ticket.Status,
		Priority:  ticket.Priority,
		CreatedAt: ticket.CreatedAt,
	}

	if ticket.AssignedTo.Valid {
		data.AssignedTo = ticket.AssignedTo.String
	}
	if ticket.ClosedAt.Valid {
		closedAt := ticket.ClosedAt.Time
		data.ClosedAt = &closedAt
	}
	if ticket.ClosedBy.Valid {
		data.ClosedBy = ticket.ClosedBy.String
	}

	data.Messages = make([]TicketMessageResponseData, len(ticket.Messages))
	for i, message := range ticket.Messages {
		data.Messages[i] = TicketMessageResponseData{
			ID:          message.ID,
			SenderID:    message.SenderID,
			Body:        message.Body,
			Attachments: message.Attachments,
			CreatedAt:   message.CreatedAt,
		}
	}

	return data
}

type TicketHandler struct {
	Engine       *workflow.TicketEngine
	ActivityRepo repository.ActivityRepository
	Helper       helper.Helper
	ErrHandler   *errHandler.ErrorHandler
}

func NewTicketHandler(handler *TicketHandler) *TicketHandler {
	return &TicketHandler{
		Engine:       handler.Engine,
		ActivityRepo: handler.ActivityRepo,
		Helper:       handler.Helper,
		ErrHandler:   handler.ErrHandler,
	}
}

func (h *TicketHandler) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Subject     string   `json:"subject"`
		Category    string   `json:"category"`
		Priority    string   `json:"priority"`
		Message     string   `json:"message"`
		Attachments []string `json:"attachments"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	ticket, err := h.Engine.CreateTicket(user.ID, &workflow.CreateTicketInput{
		Subject:     input.Subject,
		Category:    input.Category,
		Priority:    input.Priority,
		Message:     input.Message,
		Attachments: input.Attachments,
	})
	if err != nil {
		respondWorkflowError(h.ErrHandler, w, r, err)
		return
	}

	h.logActivity(r, user.ID, ticket.ID, TicketActivityLogCreatedDescription)

	message := "Support ticket created successfully"
	err = response.JSONCreatedResponse(w, newTicketResponse(ticket), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *TicketHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	tickets, err := h.Engine.ListTickets(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*TicketResponseData, len(tickets))
	for i := range tickets {
		data[i] = newTicketResponse(&tickets[i])
	}

	message := "Tickets retrieved successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *TicketHandler) HandleTicketDetails(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	ticketID := r.PathValue("id")

	ticket, err := h.Engine.GetTicket(user, ticketID)
	if err != nil {
		respondWorkflowError(h.ErrHandler, w, r, err)
		return
	}

	message := "Ticket retrieved successfully"
	err = response.JSONOkResponse(w, newTicketResponse(ticket), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *TicketHandler) HandleAppendReply(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Message     string   `json:"message"`
		Attachments []string `json:"attachments"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)
	ticketID := r.PathValue("id")

	ticket, err := h.Engine.AppendReply(user, ticketID, input.Message, input.Attachments)
	if err != nil {
		respondWorkflowError(h.ErrHandler, w, r, err)
		return
	}

	h.logActivity(r, user.ID, ticket.ID, TicketActivityLogRepliedDescription)

	message := "Reply added successfully"
	err = response.JSONCreatedResponse(w, newTicketResponse(ticket), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *TicketHandler) HandleSetTicketStatus(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Status string `json:"status"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	reviewer := context.ContextGetAuthenticatedUser(r)
	ticketID := r.PathValue("id")

	ticket, err := h.Engine.SetStatus(reviewer.ID, ticketID, input.Status)
	if err != nil {
		respondWorkflowError(h.ErrHandler, w, r, err)
		return
	}

	h.logActivity(r, reviewer.ID, ticket.ID, TicketActivityLogStatusDescription)

	message := "Ticket status updated successfully"
	err = response.JSONOkResponse(w, newTicketResponse(ticket), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *TicketHandler) HandleAssignTicket(w http.ResponseWriter, r *http.Request) {
	var input struct {
		AssigneeID string `json:"assignee_id"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	reviewer := context.ContextGetAuthenticatedUser(r)
	ticketID := r.PathValue("id")

	ticket, err := h.Engine.AssignTicket(reviewer.ID, ticketID, input.AssigneeID)
	if err != nil {
		respondWorkflowError(h.ErrHandler, w, r, err)
		return
	}

	h.logActivity(r, reviewer.ID, ticket.ID, TicketActivityLogAssignedDescription)

	message := "Ticket assigned successfully"
	err = response.JSONOkResponse(w, newTicketResponse(ticket), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *TicketHandler) logActivity(r *http.Request, userID, ticketID, description string) {
	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&models.ActivityLog{
			UserID:      userID,
			Entity:      repository.ActivityLogTicketEntity,
			EntityId:    ticketID,
			Description: description,
		})

		if err != nil {
			log.Printf("Error logging ticket action: %v", err)
			return err
		}

		return nil
	})
}
