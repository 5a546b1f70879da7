package agent

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/bunsho/internal/model"
)

func TestGuardPassesConfidentAnswer(t *testing.T) {
	guard := NewConfidenceGuard(slog.Default())
	answer := model.AnswerAction{
		Answer:          "Refunds take 14 days.",
		ConfidenceScore: 0.9,
		Citations:       []string{"policy.md"},
		Rationale:       "context covers the question",
	}

	got := guard.EvaluateAnswer(answer, "Content: ...\nSource: policy.md (v1)\n")
	require.Equal(t, model.ActionAnswer, got.Kind())
	assert.Equal(t, answer, got)
}

func TestGuardPassesAtThreshold(t *testing.T) {
	guard := NewConfidenceGuard(slog.Default())
	answer := model.AnswerAction{Answer: "ok", ConfidenceScore: 0.5}
	got := guard.EvaluateAnswer(answer, "")
	assert.Equal(t, model.ActionAnswer, got.Kind())
}

func TestGuardRefusesLowConfidence(t *testing.T) {
	guard := NewConfidenceGuard(slog.Default())
	answer := model.AnswerAction{Answer: "maybe?", ConfidenceScore: 0.3}

	got := guard.EvaluateAnswer(answer, "")
	refusal, ok := got.(model.RefuseAction)
	require.True(t, ok)
	assert.Equal(t, "confidence score too low", refusal.Reason)
	assert.Contains(t, refusal.Rationale, "0.30")
}

func TestGuardMissingCitationsNotEnforced(t *testing.T) {
	// The citation-presence check is computed but never acted upon.
	guard := NewConfidenceGuard(slog.Default())
	answer := model.AnswerAction{Answer: "ok", ConfidenceScore: 0.8}
	got := guard.EvaluateAnswer(answer, "Content: ...\nSource: policy.md (v1)\n")
	assert.Equal(t, model.ActionAnswer, got.Kind())
}
