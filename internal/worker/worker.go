package worker

import (
	"context"

	"github.com/shamsfin/shamsi/internal/helper"
	"github.com/shamsfin/shamsi/internal/repository"
	"github.com/shamsfin/shamsi/internal/smtp"
	"github.com/shamsfin/shamsi/internal/stream"
)

type Worker struct {
	KafkaStream *stream.KafkaStream
	DB          repository.Database
	Mailer      smtp.MailerInterface
	Ctx         context.Context
	Helper      *helper.HelperRepository
}

const (
	// auditTrailGroupID is used for workers that persist audit events into the append-only trail
	auditTrailGroupID = "audit-trail-group"

	// kycDecisionGroupID is used for workers that notify borrowers about document decisions
	kycDecisionGroupID = "kyc-decision-group"

	// Topics
	// AuditTrailTopic carries audit events emitted by the API handlers for sensitive actions.
	AuditTrailTopic = "audit.trail"

	// KycDecisionTopic carries admin decisions on KYC documents so borrowers can be notified.
	KycDecisionTopic = "kyc.decision"
)

// Our workers typically need access to the database and the kafka event stream.
// Worker-specific dependencies can be passed as argument to the worker.
func New(wk *Worker) *Worker {
	return &Worker{
		KafkaStream: wk.KafkaStream,
		DB:          wk.DB,
		Mailer:      wk.Mailer,
		Ctx:         wk.Ctx,
		Helper:      wk.Helper,
	}
}
