// workflow/readiness_test.go
package workflow

import (
	"testing"

	"github.com/brahimcontact64-ctrl/E-vizza/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCheckReadinessAllRequiredCovered(t *testing.T) {
	passport := primitive.NewObjectID()
	photo := primitive.NewObjectID()
	itinerary := primitive.NewObjectID()

	reqs := []models.DocumentRequirement{
		{ID: passport, DocumentType: "passport", IsRequired: true},
		{ID: photo, DocumentType: "photo", IsRequired: true},
		{ID: itinerary, DocumentType: "itinerary", IsRequired: false},
	}
	docs := []models.Document{
		{DocumentRequirementID: passport, Status: models.DocumentStatusApproved},
		{DocumentRequirementID: photo, Status: models.DocumentStatusPending},
	}

	report := CheckReadiness(reqs, docs)
	assert.True(t, report.Ready)
	assert.Empty(t, report.Missing)
	assert.NoError(t, report.Err())
}

func TestCheckReadinessMissingRequired(t *testing.T) {
	passport := primitive.NewObjectID()
	photo := primitive.NewObjectID()

	reqs := []models.DocumentRequirement{
		{ID: passport, DocumentType: "passport", IsRequired: true},
		{ID: photo, DocumentType: "photo", IsRequired: true},
	}
	docs := []models.Document{
		{DocumentRequirementID: passport, Status: models.DocumentStatusPending},
	}

	report := CheckReadiness(reqs, docs)
	require.False(t, report.Ready)
	assert.Equal(t, []primitive.ObjectID{photo}, report.MissingRequirements())

	var incomplete *DocumentsIncompleteError
	require.ErrorAs(t, report.Err(), &incomplete)
	assert.Equal(t, []string{photo.Hex()}, incomplete.MissingIDs())
}

func TestCheckReadinessRejectedDocumentDoesNotCount(t *testing.T) {
	passport := primitive.NewObjectID()
	reqs := []models.DocumentRequirement{
		{ID: passport, DocumentType: "passport", IsRequired: true},
	}

	for _, status := range []string{models.DocumentStatusRejected, models.DocumentStatusReuploadRequired} {
		docs := []models.Document{{DocumentRequirementID: passport, Status: status}}
		report := CheckReadiness(reqs, docs)
		assert.False(t, report.Ready, status)
		assert.Equal(t, []primitive.ObjectID{passport}, report.MissingRequirements(), status)
	}
}

func TestCheckReadinessOptionalOnly(t *testing.T) {
	reqs := []models.DocumentRequirement{
		{ID: primitive.NewObjectID(), DocumentType: "cover_letter", IsRequired: false},
	}
	report := CheckReadiness(reqs, nil)
	assert.True(t, report.Ready)
}

func TestCheckReadinessNoRequirements(t *testing.T) {
	report := CheckReadiness(nil, nil)
	assert.True(t, report.Ready)
	assert.NoError(t, report.Err())
}
