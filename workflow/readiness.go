// workflow/readiness.go
package workflow

import (
	"github.com/brahimcontact64-ctrl/E-vizza/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReadinessReport tells whether an application may advance past the
// processing gate and, if not, which required requirements are unmet.
type ReadinessReport struct {
	Ready   bool     `json:"ready"`
	Missing []string `json:"missing_requirement_ids,omitempty"`

	missing []primitive.ObjectID
}

// MissingRequirements returns the unmet requirement ids.
func (r ReadinessReport) MissingRequirements() []primitive.ObjectID {
	return r.missing
}

// Err returns a DocumentsIncompleteError when the report is not ready,
// nil otherwise.
func (r ReadinessReport) Err() error {
	if r.Ready {
		return nil
	}
	return &DocumentsIncompleteError{Missing: r.missing}
}

// CheckReadiness reports whether every required document requirement
// of the visa type is covered by an uploaded document that has not
// been rejected. Optional requirements never block. A document whose
// status is reupload_required or rejected does not count as covering
// its requirement.
func CheckReadiness(reqs []models.DocumentRequirement, docs []models.Document) ReadinessReport {
	covered := make(map[primitive.ObjectID]bool, len(docs))
	for _, doc := range docs {
		if doc.Status == models.DocumentStatusRejected || doc.Status == models.DocumentStatusReuploadRequired {
			continue
		}
		covered[doc.DocumentRequirementID] = true
	}

	report := ReadinessReport{Ready: true}
	for _, req := range reqs {
		if !req.IsRequired {
			continue
		}
		if covered[req.ID] {
			continue
		}
		report.Ready = false
		report.missing = append(report.missing, req.ID)
		report.Missing = append(report.Missing, req.ID.Hex())
	}
	return report
}
