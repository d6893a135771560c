package worker

import (
	"context"

	"github.com/homevest/backoffice/internal/helper"
	"github.com/homevest/backoffice/internal/smtp"
	"github.com/homevest/backoffice/internal/stream"
)

type Worker struct {
	KafkaStream *stream.KafkaStream
	Mailer      smtp.MailerInterface
	Helper      helper.Helper
	Ctx         context.Context
}

const (
	// kycDecidedGroupID is used for workers that act on KYC approve/reject decisions
	kycDecidedGroupID = "kyc-decided-group"

	// ticketReplyGroupID is used for workers that act on new ticket replies
	ticketReplyGroupID = "ticket-reply-group"

	// ticketStatusGroupID is used for workers that act on ticket status changes
	ticketStatusGroupID = "ticket-status-group"
)

// Our workers typically needs access to the event stream and the mailer
// worker-specific dependency can be passed as argument to the worker
func New(wk *Worker) *Worker {
	return &Worker{
		KafkaStream: wk.KafkaStream,
		Mailer:      wk.Mailer,
		Helper:      wk.Helper,
		Ctx:         wk.Ctx,
	}
}
