// Package agent implements the bounded reasoning loop: the tool adapter,
// the answer guard, and the runner that drives decision cycles against an
// LLM completion backend.
package agent

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashita-ai/bunsho/internal/model"
)

// confidenceThreshold is the minimum self-reported confidence an answer
// needs to reach the caller.
const confidenceThreshold = 0.5

// ConfidenceGuard validates answer actions before they are surfaced.
type ConfidenceGuard struct {
	logger *slog.Logger
}

// NewConfidenceGuard creates a guard.
func NewConfidenceGuard(logger *slog.Logger) *ConfidenceGuard {
	return &ConfidenceGuard{logger: logger}
}

// EvaluateAnswer returns the answer unchanged when it passes, or a
// RefuseAction carrying the numeric score when confidence is below
// threshold.
//
// The citation-presence check over the retrieval context is computed but
// deliberately not enforced: it only feeds a debug log. Stronger grading
// would need an LLM grader, which this guard intentionally is not.
func (g *ConfidenceGuard) EvaluateAnswer(answer model.AnswerAction, context string) model.Action {
	if answer.ConfidenceScore < confidenceThreshold {
		return model.RefuseAction{
			Reason:    "confidence score too low",
			Rationale: fmt.Sprintf("model confidence %.2f < %.2f", answer.ConfidenceScore, confidenceThreshold),
		}
	}

	if context != "" && strings.Contains(context, "Source:") && len(answer.Citations) == 0 {
		g.logger.Debug("guard: answer cites nothing despite sourced context",
			"confidence", answer.ConfidenceScore)
	}

	return answer
}
