// workflow/errors.go
package workflow

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrUnknownStatus means the proposed status is not declared in the
	// visa type's status flow.
	ErrUnknownStatus = errors.New("status not declared in visa type status flow")

	// ErrInvalidTransition means the proposed status is an earlier step
	// of the flow and no administrator override was given.
	ErrInvalidTransition = errors.New("backward status transition requires override")

	// ErrTerminalState means the application is already in a terminal
	// state (approved, rejected or cancelled) and cannot move again.
	ErrTerminalState = errors.New("application is in a terminal state")

	// ErrStaleWrite means the application changed between the caller's
	// read and this write; the caller must re-fetch and retry.
	ErrStaleWrite = errors.New("application was modified since it was read")

	// ErrDuplicateNumber means the reserved application number collided
	// with an existing one; the submission retries with a fresh number.
	ErrDuplicateNumber = errors.New("application number already exists")

	// ErrUploadFailure means one document in a submission batch failed
	// to reach blob storage; the whole batch is rolled back.
	ErrUploadFailure = errors.New("document upload failed")
)

// DocumentsIncompleteError reports which required document
// requirements are not yet satisfied by an upload.
type DocumentsIncompleteError struct {
	Missing []primitive.ObjectID
}

func (e *DocumentsIncompleteError) Error() string {
	return fmt.Sprintf("required documents missing for %d requirement(s)", len(e.Missing))
}

// MissingIDs returns the unmet requirement ids as hex strings for API
// responses.
func (e *DocumentsIncompleteError) MissingIDs() []string {
	ids := make([]string, 0, len(e.Missing))
	for _, id := range e.Missing {
		ids = append(ids, id.Hex())
	}
	return ids
}

// FlowError reports an invalid status flow declaration on a visa type
// save.
type FlowError struct {
	Reason string
}

func (e *FlowError) Error() string {
	return "invalid status flow: " + e.Reason
}
