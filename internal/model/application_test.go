package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplicationStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, ApplicationStatusPending.CanTransitionTo(ApplicationStatusReviewed))
	assert.True(t, ApplicationStatusPending.CanTransitionTo(ApplicationStatusAccepted))
	assert.True(t, ApplicationStatusPending.CanTransitionTo(ApplicationStatusRejected))
	assert.True(t, ApplicationStatusReviewed.CanTransitionTo(ApplicationStatusAccepted))
	assert.True(t, ApplicationStatusAccepted.CanTransitionTo(ApplicationStatusAccepted))

	assert.False(t, ApplicationStatusReviewed.CanTransitionTo(ApplicationStatusPending))
	assert.False(t, ApplicationStatusAccepted.CanTransitionTo(ApplicationStatusPending))
	assert.False(t, ApplicationStatusRejected.CanTransitionTo(ApplicationStatusAccepted))
}

func TestApplicationStatus_Valid(t *testing.T) {
	assert.True(t, ApplicationStatusReviewed.Valid())
	assert.False(t, ApplicationStatus("in consideration").Valid())
	assert.True(t, ApplicationStatusRejected.Terminal())
	assert.False(t, ApplicationStatusPending.Terminal())
}

func TestJobPosting_DeadlinePassed(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	past := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, (&JobPosting{}).DeadlinePassed(now))
	assert.True(t, (&JobPosting{EditableJobPostingInfo: EditableJobPostingInfo{ApplicationDeadline: &past}}).DeadlinePassed(now))
	assert.False(t, (&JobPosting{EditableJobPostingInfo: EditableJobPostingInfo{ApplicationDeadline: &future}}).DeadlinePassed(now))
}

func TestTransitionSources(t *testing.T) {
	assert.ElementsMatch(t,
		[]ApplicationStatus{ApplicationStatusPending, ApplicationStatusReviewed, ApplicationStatusAccepted},
		TransitionSources(ApplicationStatusAccepted))
	assert.Equal(t, []ApplicationStatus{ApplicationStatusPending}, TransitionSources(ApplicationStatusPending))
}
