// Package verification holds the account verification rules: the profile
// completion checklist and the roll-up of document decisions into the
// account's verification status. Keeping it free of HTTP and SQL makes the
// lifecycle testable on its own.
package verification

import (
	"github.com/shamsfin/shamsi/internal/models"
)

const FullCompletion = 100

// ProfileCompletion scores the borrower profile against a fixed checklist
// of equally-weighted items and returns an integer percentage.
func ProfileCompletion(user *models.User) int {
	checks := []bool{
		user.FirstName != "" && user.LastName != "",
		user.PhoneNumber != "",
		user.NationalID != "",
		user.EmailVerifiedAt.Valid,
		user.DateOfBirth.Valid,
		user.City.Valid && user.City.String != "",
		user.Address.Valid && user.Address.String != "",
		user.MonthlyIncomeSAR.Valid && user.MonthlyIncomeSAR.Float64 > 0,
	}

	completed := 0
	for _, ok := range checks {
		if ok {
			completed++
		}
	}

	return completed * FullCompletion / len(checks)
}

// Checklist describes the completion items by name so the profile endpoint
// can show the borrower what is still missing.
func Checklist(user *models.User) map[string]bool {
	return map[string]bool{
		"full_name":      user.FirstName != "" && user.LastName != "",
		"phone_number":   user.PhoneNumber != "",
		"national_id":    user.NationalID != "",
		"email_verified": user.EmailVerifiedAt.Valid,
		"date_of_birth":  user.DateOfBirth.Valid,
		"city":           user.City.Valid && user.City.String != "",
		"address":        user.Address.Valid && user.Address.String != "",
		"monthly_income": user.MonthlyIncomeSAR.Valid && user.MonthlyIncomeSAR.Float64 > 0,
	}
}

// ComputeStatus rolls profile completion and the live documents up into the
// account verification status.
//
// The lifecycle is one-way except for re-submission:
//
//	not_verified -> pending    every required document is on file
//	pending      -> verified   admin approved all documents, checklist complete
//	pending      -> rejected   admin rejected a document
//	rejected     -> pending    the rejected document was replaced
//
// verified is terminal: once an admin has verified an account it never
// downgrades automatically, whatever later happens to profile fields.
func ComputeStatus(current string, completion int, docs []models.KYCDocument, requiredCount int) string {
	if current == models.VerificationVerified {
		return models.VerificationVerified
	}

	approved := 0
	rejected := 0
	for _, doc := range docs {
		switch doc.Status {
		case models.DocumentStatusApproved:
			approved++
		case models.DocumentStatusRejected:
			rejected++
		}
	}

	switch {
	case rejected > 0:
		return models.VerificationRejected
	case len(docs) < requiredCount:
		return models.VerificationNotVerified
	case approved == requiredCount && completion == FullCompletion:
		return models.VerificationVerified
	default:
		return models.VerificationPending
	}
}
