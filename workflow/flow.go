// workflow/flow.go
package workflow

import (
	"fmt"
	"sort"

	"github.com/brahimcontact64-ctrl/E-vizza/models"
)

// Canonical status codes. A visa type's flow may add steps between
// these, but the checkpoint codes must always be present.
const (
	StatusSubmitted         = "submitted"
	StatusAwaitingPayment   = "awaiting_payment"
	StatusPaymentConfirmed  = "payment_confirmed"
	StatusProcessing        = "processing"
	StatusDocumentsPrepared = "documents_prepared"
	StatusApproved          = "approved"
	StatusRejected          = "rejected"
	StatusCancelled         = "cancelled"
)

// checkpoints must appear in every flow, in this relative order.
var checkpoints = []string{
	StatusSubmitted,
	StatusAwaitingPayment,
	StatusPaymentConfirmed,
	StatusProcessing,
	StatusApproved,
}

// IsExitStatus reports whether status is one of the two exit states
// reachable from any non-terminal step even when the flow does not
// list them.
func IsExitStatus(status string) bool {
	return status == StatusRejected || status == StatusCancelled
}

// IsTerminalStatus reports whether an application in this status can
// never move again.
func IsTerminalStatus(status string) bool {
	return status == StatusApproved || IsExitStatus(status)
}

// Flow is a validated, order-indexed view of a visa type's status
// flow. Build one with NewFlow; the zero value is not usable.
type Flow struct {
	steps   []models.StatusFlowStep
	orderOf map[string]int
}

// NewFlow validates steps and returns an indexed flow. It rejects
// empty flows, duplicate status codes, duplicate or non-increasing
// order values, and flows missing any checkpoint status.
func NewFlow(steps []models.StatusFlowStep) (*Flow, error) {
	if len(steps) == 0 {
		return nil, &FlowError{Reason: "flow has no steps"}
	}

	sorted := make([]models.StatusFlowStep, len(steps))
	copy(sorted, steps)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	orderOf := make(map[string]int, len(sorted))
	prevOrder := 0
	for i, step := range sorted {
		if step.Status == "" {
			return nil, &FlowError{Reason: fmt.Sprintf("step %d has an empty status code", i+1)}
		}
		if _, dup := orderOf[step.Status]; dup {
			return nil, &FlowError{Reason: fmt.Sprintf("duplicate status %q", step.Status)}
		}
		if i > 0 && step.Order <= prevOrder {
			return nil, &FlowError{Reason: fmt.Sprintf("order values must be strictly increasing, got %d after %d", step.Order, prevOrder)}
		}
		if step.Order <= 0 {
			return nil, &FlowError{Reason: fmt.Sprintf("status %q has non-positive order %d", step.Status, step.Order)}
		}
		orderOf[step.Status] = step.Order
		prevOrder = step.Order
	}

	prev := 0
	for _, cp := range checkpoints {
		ord, ok := orderOf[cp]
		if !ok {
			return nil, &FlowError{Reason: fmt.Sprintf("missing checkpoint status %q", cp)}
		}
		if ord <= prev {
			return nil, &FlowError{Reason: fmt.Sprintf("checkpoint %q is out of order", cp)}
		}
		prev = ord
	}

	return &Flow{steps: sorted, orderOf: orderOf}, nil
}

// ValidateFlow checks a status flow declaration without keeping the
// index. Used when saving a visa type.
func ValidateFlow(steps []models.StatusFlowStep) error {
	_, err := NewFlow(steps)
	return err
}

// Steps returns the flow steps sorted by order.
func (f *Flow) Steps() []models.StatusFlowStep {
	return f.steps
}

// First returns the status code of the first step.
func (f *Flow) First() string {
	return f.steps[0].Status
}

// OrderOf returns the order value of status and whether it is part of
// the flow.
func (f *Flow) OrderOf(status string) (int, bool) {
	ord, ok := f.orderOf[status]
	return ord, ok
}

// RequiresReadiness reports whether moving an application to status
// needs every required document present: true for the processing
// checkpoint and every later flow step. Exit states never require
// readiness.
func (f *Flow) RequiresReadiness(status string) bool {
	ord, ok := f.orderOf[status]
	if !ok {
		return false
	}
	return ord >= f.orderOf[StatusProcessing]
}

// ValidateTransition checks whether an application currently in
// current may move to proposed. Forward moves and same-state re-saves
// are allowed; backward moves need override; exit states are reachable
// from any non-terminal state; terminal states admit no move at all.
func (f *Flow) ValidateTransition(current, proposed string, override bool) error {
	if IsTerminalStatus(current) {
		return ErrTerminalState
	}
	if IsExitStatus(proposed) {
		return nil
	}
	proposedOrder, ok := f.orderOf[proposed]
	if !ok {
		return ErrUnknownStatus
	}
	currentOrder, ok := f.orderOf[current]
	if !ok {
		// The stored status predates a flow edit. Any declared step is
		// reachable so an administrator can bring the application back
		// onto the flow.
		return nil
	}
	if proposedOrder >= currentOrder {
		return nil
	}
	if override {
		return nil
	}
	return ErrInvalidTransition
}
