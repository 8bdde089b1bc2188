package worker

import (
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/shamsfin/shamsi/internal/handler"
	"github.com/shamsfin/shamsi/internal/models"
	"github.com/shamsfin/shamsi/internal/stream"
)

// AuditWorker drains the audit.trail topic into the audit_logs table.
// Persisting the trail off the request path keeps the write out of user
// latency while the topic guarantees nothing is dropped on restart.
func (wk *Worker) AuditWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: auditTrailGroupID,
		Topic:   AuditTrailTopic,
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
			var auditEvent handler.AuditTrailEvent
			if err := json.Unmarshal(e.Value, &auditEvent); err != nil {
				log.Printf("Error decoding audit event: %v", err)
				continue
			}

			wk.persistAuditEvent(&auditEvent)
		case kafka.Error:
			log.Printf("Error: %v\n", e)
		default:
			// Handle other events if needed
		}
	}
}

func (wk *Worker) persistAuditEvent(event *handler.AuditTrailEvent) bool {
	_, err := wk.DB.Audit().Insert(&models.AuditLog{
		ActorID:  event.ActorID,
		Entity:   event.Entity,
		EntityId: event.EntityID,
		Action:   event.Action,
	})

	if err != nil {
		log.Printf("Error persisting audit event: %v", err)
		return false
	}

	return true
}
