package worker

import (
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/homevest/backoffice/internal/stream"
	"github.com/homevest/backoffice/internal/workflow"
)

// TicketReplyWorker alerts the party on the other side of a ticket
// conversation whenever a new reply lands.
func (wk *Worker) TicketReplyWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: ticketReplyGroupID,
		Topic:   workflow.TicketReplyTopic,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}
	defer consumer.Close()

	for {
		select {
		case <-wk.Ctx.Done():
			log.Println("TicketReplyWorker received cancellation signal, shutting down...")
			return
		default:
			event := consumer.Poll(100)
			switch e := event.(type) {
			case *kafka.Message:
				var reply *workflow.TicketReplyEvent
				if err := json.Unmarshal(e.Value, &reply); err != nil {
					log.Printf("Error decoding ticket reply event: %v", err)
					continue
				}

				wk.Helper.BackgroundTask(nil, func() error {
					emailData := wk.Helper.NewEmailData()
					emailData["Name"] = reply.RecipientName
					emailData["SenderName"] = reply.SenderName
					emailData["Subject"] = reply.Subject
					emailData["Body"] = reply.Body

					err := wk.Mailer.Send(reply.RecipientEmail, emailData, "ticket-reply.tmpl")
					if err != nil {
						log.Printf("Error sending ticket reply alert: %v", err)
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
