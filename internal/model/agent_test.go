package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/bunsho/internal/model"
)

func TestParseAction_Retrieve(t *testing.T) {
	raw := []byte(`{"action_type":"retrieve","query":"leave policy","rationale":"need context"}`)
	action, err := model.ParseAction(raw)
	require.NoError(t, err)

	retrieve, ok := action.(model.RetrieveAction)
	require.True(t, ok, "expected RetrieveAction, got %T", action)
	assert.Equal(t, "leave policy", retrieve.Query)
	assert.Equal(t, "need context", retrieve.Rationale)
	assert.Equal(t, model.ActionRetrieve, action.Kind())
}

func TestParseAction_Answer(t *testing.T) {
	raw := []byte(`{"action_type":"answer","answer":"42","confidence_score":0.9,"citations":["doc.txt"],"rationale":"found it"}`)
	action, err := model.ParseAction(raw)
	require.NoError(t, err)

	answer, ok := action.(model.AnswerAction)
	require.True(t, ok, "expected AnswerAction, got %T", action)
	assert.Equal(t, "42", answer.Answer)
	assert.InDelta(t, 0.9, answer.ConfidenceScore, 1e-9)
	assert.Equal(t, []string{"doc.txt"}, answer.Citations)
}

func TestParseAction_UnknownTagSubstitutesRefuse(t *testing.T) {
	raw := []byte(`{"action_type":"dance","rationale":"feeling it"}`)
	action, err := model.ParseAction(raw)
	require.NoError(t, err)

	refuse, ok := action.(model.RefuseAction)
	require.True(t, ok, "expected RefuseAction, got %T", action)
	assert.Equal(t, "invalid action generated", refuse.Reason)
}

func TestParseAction_MalformedJSON(t *testing.T) {
	_, err := model.ParseAction([]byte(`{"action_type":`))
	require.Error(t, err)
}

func TestParseAction_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"retrieve without query", `{"action_type":"retrieve","rationale":"r"}`},
		{"clarify without question", `{"action_type":"clarify","rationale":"r"}`},
		{"refuse without reason", `{"action_type":"refuse","rationale":"r"}`},
		{"answer without answer", `{"action_type":"answer","confidence_score":0.8}`},
		{"answer without confidence", `{"action_type":"answer","answer":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.ParseAction([]byte(tt.raw))
			require.Error(t, err, "expected parse failure for %s", tt.raw)
		})
	}
}

func TestParseAction_ZeroConfidenceIsPresent(t *testing.T) {
	// confidence_score: 0 is a present (if dismal) score, not a missing field.
	raw := []byte(`{"action_type":"answer","answer":"guess","confidence_score":0}`)
	action, err := model.ParseAction(raw)
	require.NoError(t, err)
	answer := action.(model.AnswerAction)
	assert.Zero(t, answer.ConfidenceScore)
}

func TestMarshalAction_RoundTrip(t *testing.T) {
	original := model.AnswerAction{
		Answer:          "yes",
		ConfidenceScore: 0.72,
		Citations:       []string{"policy.txt"},
		Rationale:       "context supports it",
	}
	raw, err := model.MarshalAction(original)
	require.NoError(t, err)

	parsed, err := model.ParseAction(raw)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestAgentStepMarshalJSON(t *testing.T) {
	step := model.AgentStep{
		State:   model.StateAnalyzing,
		Thought: "decided to retrieve",
		Action:  model.RetrieveAction{Query: "q", Rationale: "r"},
	}
	raw, err := json.Marshal(step)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "analyzing", decoded["state"])

	action, ok := decoded["action"].(map[string]any)
	require.True(t, ok, "action should be an embedded object")
	assert.Equal(t, "retrieve", action["action_type"])
	assert.Equal(t, "q", action["query"])
}

func TestStateTerminal(t *testing.T) {
	assert.True(t, model.StateDone.Terminal())
	assert.True(t, model.StateRefusing.Terminal())
	assert.True(t, model.StateClarifying.Terminal())
	assert.False(t, model.StateThinking.Terminal())
	assert.False(t, model.StateAnalyzing.Terminal())
	assert.False(t, model.StateRetrieving.Terminal())
}
