package worker

import (
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/shamsfin/shamsi/internal/handler"
	"github.com/shamsfin/shamsi/internal/stream"
)

// NotificationWorker emails borrowers about decisions on their KYC
// documents. Decisions are made in the admin review queue; the email goes
// through the topic so a slow SMTP server never blocks the reviewer.
func (wk *Worker) NotificationWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: kycDecisionGroupID,
		Topic:   KycDecisionTopic,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}
	for {
		select {
		case <-wk.Ctx.Done():
			consumer.Close()
			return
		default:
		}

		event := consumer.Poll(100) // Poll every 100ms
		switch e := event.(type) {
		case *kafka.Message:
			var decision handler.KycDecisionEvent
			if err := json.Unmarshal(e.Value, &decision); err != nil {
				log.Printf("Error decoding kyc decision event: %v", err)
				continue
			}

			wk.sendDecisionEmail(&decision)
		case kafka.Error:
			log.Printf("Error: %v\n", e)
		default:
			// Handle other events if needed
		}
	}
}

func (wk *Worker) sendDecisionEmail(decision *handler.KycDecisionEvent) bool {
	user, found, err := wk.DB.User().GetOne(decision.UserID)
	if err != nil || !found {
		log.Printf("Error loading user for decision email: %v", err)
		return false
	}

	doc, found, err := wk.DB.KycDocument().GetOne(decision.DocumentID)
	if err != nil || !found {
		log.Printf("Error loading document for decision email: %v", err)
		return false
	}

	emailData := wk.Helper.NewEmailData()
	emailData["Name"] = user.FirstName + " " + user.LastName
	emailData["Requirement"] = doc.RequirementTitle
	emailData["Decision"] = decision.Decision
	emailData["Note"] = decision.Note

	err = wk.Mailer.Send(user.Email, emailData, "kyc-decision.tmpl")
	if err != nil {
		log.Printf("Error sending decision email: %v", err)
		return false
	}

	return true
}
