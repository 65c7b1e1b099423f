package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StepRetrieve, StepSelect))
	assert.True(t, CanTransition(StepSubmit, StepAlreadyOnboarded))
	assert.True(t, CanTransition(StepVerifyAddress, StepError))
	assert.True(t, CanTransition(StepConfirm, StepSessionExpired))

	assert.False(t, CanTransition(StepSelect, StepError), "selection makes no backend call")
	assert.False(t, CanTransition(StepDone, StepError), "terminal steps are sinks")
	assert.False(t, CanTransition(StepRetrieve, StepSubmit))
	assert.False(t, CanTransition(StepConfirm, StepSubmit))
}

func TestEdges_EndInKnownSteps(t *testing.T) {
	for _, e := range Edges {
		assert.False(t, e.From.Terminal(), "%s leaves a terminal step", e.On)
		assert.NotEmpty(t, e.On)
	}
}
