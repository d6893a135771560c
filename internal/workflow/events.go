// The engines never deliver notifications themselves. After a successful
// transition they emit an event to the stream and move on; the workers in
// internal/worker own delivery. A failed produce is logged and dropped --
// the state change is already durable and must not be rolled back over a
// notification problem.
package workflow

import (
	"encoding/json"
	"log/slog"
	"time"
)

const (
	// KycDecidedTopic carries approve/reject decisions on KYC submissions.
	KycDecidedTopic = "kyc.decided"

	// TicketReplyTopic carries new replies on support tickets.
	TicketReplyTopic = "ticket.reply"

	// TicketStatusTopic carries ticket status changes.
	TicketStatusTopic = "ticket.status"
)

// EventStream is the slice of the kafka stream the engines need.
type EventStream interface {
	ProduceMessage(topic, message string) error
}

// StatusCache mirrors the owner's verification status for cheap reads on
// list screens.
type StatusCache interface {
	Set(key string, value string, expiration time.Duration) error
}

const verificationStatusCacheTTL = 24 * time.Hour

func VerificationStatusCacheKey(ownerID string) string {
	return "kyc_status:" + ownerID
}

type KycDecidedEvent struct {
	SubmissionID string `json:"submission_id"`
	OwnerID      string `json:"owner_id"`
	OwnerName    string `json:"owner_name"`
	OwnerEmail   string `json:"owner_email"`
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
}

type TicketReplyEvent struct {
	TicketID       string `json:"ticket_id"`
	Subject        string `json:"subject"`
	SenderName     string `json:"sender_name"`
	RecipientName  string `json:"recipient_name"`
	RecipientEmail string `json:"recipient_email"`
	Body           string `json:"body"`
}

type TicketStatusEvent struct {
	TicketID   string `json:"ticket_id"`
	Subject    string `json:"subject"`
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
	Status     string `json:"status"`
}

// emitEvent serializes and produces the event, logging failures instead of
// returning them.
func emitEvent(stream EventStream, logger *slog.Logger, topic string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("failed to encode event", "topic", topic, "error", err)
		return
	}

	if err := stream.ProduceMessage(topic, string(payload)); err != nil {
		logger.Error("failed to produce event", "topic", topic, "error", err)
	}
}
