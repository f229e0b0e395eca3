package mashup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageTransitions(t *testing.T) {
	valid := []struct{ from, to Stage }{
		{StageResolving, StagePipelining},
		{StageResolving, StageCleaningUp},
		{StagePipelining, StageMerging},
		{StagePipelining, StageCleaningUp},
		{StageMerging, StageCleaningUp},
		{StageCleaningUp, StageDone},
		{StageCleaningUp, StageFailed},
	}
	for _, tt := range valid {
		assert.True(t, isValidTransition(tt.from, tt.to), "%s -> %s should be allowed", tt.from, tt.to)
	}

	invalid := []struct{ from, to Stage }{
		{StageResolving, StageMerging},
		{StageResolving, StageDone},
		{StageMerging, StagePipelining},
		{StageCleaningUp, StageResolving},
		{StageDone, StageResolving},
		{StageFailed, StageDone},
	}
	for _, tt := range invalid {
		assert.False(t, isValidTransition(tt.from, tt.to), "%s -> %s should be rejected", tt.from, tt.to)
	}
}
