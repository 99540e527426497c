package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatePending(t *testing.T) {
	assert.True(t, JobQueued.Pending())
	assert.True(t, JobInProgress.Pending())
	assert.True(t, JobRequiresAction.Pending())
	assert.False(t, JobCompleted.Pending())
	assert.False(t, JobFailed.Pending())
}
