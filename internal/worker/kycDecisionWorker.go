// KYC decisions are final the moment the engine commits them; this worker
// only owns telling the owner about it. Delivery failures are retried by
// the mailer and ultimately logged, never fed back into the workflow.
package worker

import (
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/homevest/backoffice/internal/models"
	"github.com/homevest/backoffice/internal/stream"
	"github.com/homevest/backoffice/internal/workflow"
)

func (wk *Worker) KycDecisionWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: kycDecidedGroupID,
		Topic:   workflow.KycDecidedTopic,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}
	defer consumer.Close()

	for {
		select {
		case <-wk.Ctx.Done():
			log.Println("KycDecisionWorker received cancellation signal, shutting down...")
			return
		default:
			event := consumer.Poll(100)
			switch e := event.(type) {
			case *kafka.Message:
				var decision *workflow.KycDecidedEvent
				if err := json.Unmarshal(e.Value, &decision); err != nil {
					log.Printf("Error decoding kyc decision event: %v", err)
					continue
				}

				wk.sendKycDecisionAlert(decision)
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

func (wk *Worker) sendKycDecisionAlert(decision *workflow.KycDecidedEvent) {
	template := "kyc-approved.tmpl"
	if decision.Status == models.KycStatusRejected {
		template = "kyc-rejected.tmpl"
	}

	wk.Helper.BackgroundTask(nil, func() error {
		emailData := wk.Helper.NewEmailData()
		emailData["Name"] = decision.OwnerName
		emailData["Reason"] = decision.Reason

		err := wk.Mailer.Send(decision.OwnerEmail, emailData, template)
		if err != nil {
			log.Printf("Error sending kyc decision alert: %v", err)
			return err
		}

		return nil
	})
}
