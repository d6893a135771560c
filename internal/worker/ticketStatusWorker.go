package worker

import (
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/homevest/backoffice/internal/stream"
	"github.com/homevest/backoffice/internal/workflow"
)

// TicketStatusWorker informs the ticket owner that an admin changed the
// status of their ticket.
func (wk *Worker) TicketStatusWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: ticketStatusGroupID,
		Topic:   workflow.TicketStatusTopic,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}
	defer consumer.Close()

	for {
		select {
		case <-wk.Ctx.Done():
			log.Println("TicketStatusWorker received cancellation signal, shutting down...")
			return
		default:
			event := consumer.Poll(100)
			switch e := event.(type) {
			case *kafka.Message:
				var change *workflow.TicketStatusEvent
				if err := json.Unmarshal(e.Value, &change); err != nil {
					log.Printf("Error decoding ticket status event: %v", err)
					continue
				}

				wk.Helper.BackgroundTask(nil, func() error {
					emailData := wk.Helper.NewEmailData()
					emailData["Name"] = change.OwnerName
					emailData["Subject"] = change.Subject
					emailData["Status"] = change.Status

					err := wk.Mailer.Send(change.OwnerEmail, emailData, "ticket-status.tmpl")
					if err != nil {
						log.Printf("Error sending ticket status alert: %v", err)
						return err
					}

					return nil
				})
			case kafka.Error:
				log.Printf("Error: %v\n", e)
			case *kafka.AssignedPartitions:
				consumer.Assign(e.Partitions)
			case *kafka.RevokedPartitions:
				consumer.Unassign()
			}
		}
	}
}
