// workflow/flow_test.go
package workflow

import (
	"testing"

	"github.com/brahimcontact64-ctrl/E-vizza/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standardFlow() []models.StatusFlowStep {
	return []models.StatusFlowStep{
		{Status: StatusSubmitted, NameEn: "Submitted", Order: 1},
		{Status: StatusAwaitingPayment, NameEn: "Awaiting Payment", Order: 2},
		{Status: StatusPaymentConfirmed, NameEn: "Payment Confirmed", Order: 3},
		{Status: StatusProcessing, NameEn: "Processing", Order: 4},
		{Status: StatusDocumentsPrepared, NameEn: "Documents Prepared", Order: 5},
		{Status: StatusApproved, NameEn: "Approved", Order: 6},
	}
}

func TestNewFlowAcceptsStandardFlow(t *testing.T) {
	flow, err := NewFlow(standardFlow())
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, flow.First())

	ord, ok := flow.OrderOf(StatusProcessing)
	assert.True(t, ok)
	assert.Equal(t, 4, ord)
}

func TestNewFlowAcceptsUnsortedInput(t *testing.T) {
	steps := standardFlow()
	steps[0], steps[5] = steps[5], steps[0]

	flow, err := NewFlow(steps)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, flow.First())
}

func TestNewFlowRejectsBadDeclarations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]models.StatusFlowStep) []models.StatusFlowStep
	}{
		{
			name:   "empty flow",
			mutate: func([]models.StatusFlowStep) []models.StatusFlowStep { return nil },
		},
		{
			name: "duplicate order",
			mutate: func(s []models.StatusFlowStep) []models.StatusFlowStep {
				s[1].Order = s[0].Order
				return s
			},
		},
		{
			name: "duplicate status",
			mutate: func(s []models.StatusFlowStep) []models.StatusFlowStep {
				s[1].Status = s[0].Status
				return s
			},
		},
		{
			name: "missing processing checkpoint",
			mutate: func(s []models.StatusFlowStep) []models.StatusFlowStep {
				return append(s[:3], s[4:]...)
			},
		},
		{
			name: "empty status code",
			mutate: func(s []models.StatusFlowStep) []models.StatusFlowStep {
				s[2].Status = ""
				return s
			},
		},
		{
			name: "zero order",
			mutate: func(s []models.StatusFlowStep) []models.StatusFlowStep {
				s[0].Order = 0
				return s
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFlow(tc.mutate(standardFlow()))
			require.Error(t, err)
			var flowErr *FlowError
			assert.ErrorAs(t, err, &flowErr)
		})
	}
}

func TestValidateTransitionForward(t *testing.T) {
	flow, err := NewFlow(standardFlow())
	require.NoError(t, err)

	assert.NoError(t, flow.ValidateTransition(StatusSubmitted, StatusAwaitingPayment, false))
	assert.NoError(t, flow.ValidateTransition(StatusAwaitingPayment, StatusProcessing, false))
	// Same-state re-save is allowed, e.g. to attach fresh notes.
	assert.NoError(t, flow.ValidateTransition(StatusProcessing, StatusProcessing, false))
}

func TestValidateTransitionBackwardNeedsOverride(t *testing.T) {
	flow, err := NewFlow(standardFlow())
	require.NoError(t, err)

	err = flow.ValidateTransition(StatusProcessing, StatusAwaitingPayment, false)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.NoError(t, flow.ValidateTransition(StatusProcessing, StatusAwaitingPayment, true))
}

func TestValidateTransitionUnknownStatus(t *testing.T) {
	flow, err := NewFlow(standardFlow())
	require.NoError(t, err)

	err = flow.ValidateTransition(StatusSubmitted, "interview_scheduled", false)
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestValidateTransitionExitStates(t *testing.T) {
	flow, err := NewFlow(standardFlow())
	require.NoError(t, err)

	// rejected and cancelled are reachable from any non-terminal state
	// even though the flow does not list them.
	for _, current := range []string{StatusSubmitted, StatusProcessing, StatusDocumentsPrepared} {
		assert.NoError(t, flow.ValidateTransition(current, StatusRejected, false), current)
		assert.NoError(t, flow.ValidateTransition(current, StatusCancelled, false), current)
	}
}

func TestValidateTransitionTerminalStatesAreFinal(t *testing.T) {
	flow, err := NewFlow(standardFlow())
	require.NoError(t, err)

	for _, terminal := range []string{StatusApproved, StatusRejected, StatusCancelled} {
		err := flow.ValidateTransition(terminal, StatusProcessing, true)
		assert.ErrorIs(t, err, ErrTerminalState, terminal)
	}
}

func TestRequiresReadiness(t *testing.T) {
	flow, err := NewFlow(standardFlow())
	require.NoError(t, err)

	assert.False(t, flow.RequiresReadiness(StatusSubmitted))
	assert.False(t, flow.RequiresReadiness(StatusPaymentConfirmed))
	assert.True(t, flow.RequiresReadiness(StatusProcessing))
	assert.True(t, flow.RequiresReadiness(StatusDocumentsPrepared))
	assert.True(t, flow.RequiresReadiness(StatusApproved))
	assert.False(t, flow.RequiresReadiness(StatusRejected))
}
