package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/shamsfin/shamsi/internal/stream"
)

const PlatformName = "Shamsi"

const auditTrailTopic = "audit.trail"

// AuditTrailEvent is published for every sensitive action outside the
// login flow; the audit worker persists it. Login-related entries are
// written synchronously instead because the lockout check reads them back
// immediately.
type AuditTrailEvent struct {
	ActorID  string `json:"actor_id"`
	Entity   string `json:"entity"`
	EntityID string `json:"entity_id"`
	Action   string `json:"action"`
}

func publishAudit(kafkaStream *stream.KafkaStream, event *AuditTrailEvent) {
	jsonMessage, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error encoding audit event: %v", err)
		return
	}

	go kafkaStream.ProduceMessage(auditTrailTopic, string(jsonMessage))
}

type queryStringValues struct {
	Status string
	Search string
	Entity string
	Limit  int
	Offset int
}

func retrieveUrlQueryValues(r *http.Request) *queryStringValues {
	var queryValues = &queryStringValues{}

	// Parse pagination params
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("page")

	// Default pagination values
	offset := 0
	limit := 10

	if limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}
	queryValues.Limit = limit

	if offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil && parsedOffset >= 1 {
			offset = (parsedOffset - 1) * limit
		}
	}
	queryValues.Offset = offset

	queryValues.Status = r.URL.Query().Get("status")
	queryValues.Search = r.URL.Query().Get("search")
	queryValues.Entity = r.URL.Query().Get("entity")

	return queryValues
}
