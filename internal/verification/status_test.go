package verification

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shamsfin/shamsi/internal/models"
	"github.com/stretchr/testify/require"
)

func registeredUser() *models.User {
	return &models.User{
		FirstName:   "Abdullah",
		LastName:    "Alqahtani",
		Email:       "abdullah@example.com",
		PhoneNumber: "+966512345678",
		NationalID:  "1023456789",
	}
}

func completeUser() *models.User {
	user := registeredUser()
	user.EmailVerifiedAt = sql.NullTime{Time: time.Now(), Valid: true}
	user.DateOfBirth = sql.NullTime{Time: time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC), Valid: true}
	user.City = sql.NullString{String: "Riyadh", Valid: true}
	user.Address = sql.NullString{String: "King Fahd Rd 12", Valid: true}
	user.MonthlyIncomeSAR = sql.NullFloat64{Float64: 18000, Valid: true}
	return user
}

func docs(statuses ...string) []models.KYCDocument {
	list := make([]models.KYCDocument, len(statuses))
	for i, status := range statuses {
		list[i] = models.KYCDocument{Status: status}
	}
	return list
}

func TestProfileCompletion_FreshRegistration(t *testing.T) {
	// names, phone and national ID are set at registration: 3 of 8 items
	require.Equal(t, 37, ProfileCompletion(registeredUser()))
}

func TestProfileCompletion_CompleteProfile(t *testing.T) {
	require.Equal(t, FullCompletion, ProfileCompletion(completeUser()))
}

func TestProfileCompletion_IgnoresZeroIncome(t *testing.T) {
	user := completeUser()
	user.MonthlyIncomeSAR = sql.NullFloat64{Float64: 0, Valid: true}

	require.Less(t, ProfileCompletion(user), FullCompletion)
}

func TestChecklist_NamesMissingItems(t *testing.T) {
	items := Checklist(registeredUser())

	require.False(t, items["email_verified"])
	require.False(t, items["monthly_income"])
	require.True(t, items["national_id"])
	require.Len(t, items, 8)
}

func TestComputeStatus(t *testing.T) {
	const required = 3

	tests := []struct {
		name       string
		current    string
		completion int
		docs       []models.KYCDocument
		want       string
	}{
		{
			name:       "no documents stays not_verified",
			current:    models.VerificationNotVerified,
			completion: 37,
			docs:       nil,
			want:       models.VerificationNotVerified,
		},
		{
			name:       "partial documents stays not_verified",
			current:    models.VerificationNotVerified,
			completion: FullCompletion,
			docs:       docs(models.DocumentStatusSubmitted),
			want:       models.VerificationNotVerified,
		},
		{
			name:       "all documents submitted moves to pending",
			current:    models.VerificationNotVerified,
			completion: 62,
			docs:       docs(models.DocumentStatusSubmitted, models.DocumentStatusSubmitted, models.DocumentStatusSubmitted),
			want:       models.VerificationPending,
		},
		{
			name:       "approved documents but incomplete profile stays pending",
			current:    models.VerificationPending,
			completion: 87,
			docs:       docs(models.DocumentStatusApproved, models.DocumentStatusApproved, models.DocumentStatusApproved),
			want:       models.VerificationPending,
		},
		{
			name:       "approved documents and complete profile verifies",
			current:    models.VerificationPending,
			completion: FullCompletion,
			docs:       docs(models.DocumentStatusApproved, models.DocumentStatusApproved, models.DocumentStatusApproved),
			want:       models.VerificationVerified,
		},
		{
			name:       "a single rejection rejects the account",
			current:    models.VerificationPending,
			completion: FullCompletion,
			docs:       docs(models.DocumentStatusApproved, models.DocumentStatusRejected, models.DocumentStatusApproved),
			want:       models.VerificationRejected,
		},
		{
			name:       "replacing the rejected document returns to pending",
			current:    models.VerificationRejected,
			completion: FullCompletion,
			docs:       docs(models.DocumentStatusApproved, models.DocumentStatusSubmitted, models.DocumentStatusApproved),
			want:       models.VerificationPending,
		},
		{
			name:       "verified never downgrades",
			current:    models.VerificationVerified,
			completion: 25,
			docs:       nil,
			want:       models.VerificationVerified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStatus(tt.current, tt.completion, tt.docs, required)
			require.Equal(t, tt.want, got)
		})
	}
}
