package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AgentState is the reasoning loop's per-step state.
type AgentState string

const (
	StateThinking   AgentState = "thinking"   // planning before any decision
	StateRetrieving AgentState = "retrieving" // executing a retrieve action
	StateAnalyzing  AgentState = "analyzing"  // decision made, not yet executed
	StateRefusing   AgentState = "refusing"   // terminal: declined to answer
	StateClarifying AgentState = "clarifying" // terminal: waiting on the user
	StateDone       AgentState = "done"       // terminal: answer delivered
)

// Terminal reports whether the state ends the invocation.
func (s AgentState) Terminal() bool {
	return s == StateDone || s == StateRefusing || s == StateClarifying
}

// ActionKind discriminates the closed set of agent actions.
type ActionKind string

const (
	ActionRetrieve  ActionKind = "retrieve"
	ActionSummarize ActionKind = "summarize"
	ActionClarify   ActionKind = "clarify"
	ActionRefuse    ActionKind = "refuse"
	ActionAnswer    ActionKind = "answer"
)

// Action is one typed decision emitted by the reasoning loop per cycle.
// The set of implementations is closed: RetrieveAction, SummarizeAction,
// ClarifyAction, RefuseAction, AnswerAction.
type Action interface {
	Kind() ActionKind
	// Rationale is the model's stated reasoning for choosing this action.
	ActionRationale() string
}

// RetrieveAction asks the tool layer to search documents.
type RetrieveAction struct {
	Query     string `json:"query"`
	Rationale string `json:"rationale"`
}

func (RetrieveAction) Kind() ActionKind          { return ActionRetrieve }
func (a RetrieveAction) ActionRationale() string { return a.Rationale }

// SummarizeAction requests summaries of specific documents.
// Reserved: the loop accepts it but does not execute it.
type SummarizeAction struct {
	DocIDs    []string `json:"doc_ids,omitempty"`
	Rationale string   `json:"rationale"`
}

func (SummarizeAction) Kind() ActionKind          { return ActionSummarize }
func (a SummarizeAction) ActionRationale() string { return a.Rationale }

// ClarifyAction asks the user for more detail before continuing.
type ClarifyAction struct {
	Question  string `json:"question"`
	Rationale string `json:"rationale"`
}

func (ClarifyAction) Kind() ActionKind          { return ActionClarify }
func (a ClarifyAction) ActionRationale() string { return a.Rationale }

// RefuseAction declines to answer.
type RefuseAction struct {
	Reason    string `json:"reason"`
	Rationale string `json:"rationale"`
}

func (RefuseAction) Kind() ActionKind          { return ActionRefuse }
func (a RefuseAction) ActionRationale() string { return a.Rationale }

// AnswerAction delivers a final answer with a self-reported confidence
// score and the cited source filenames.
type AnswerAction struct {
	Answer          string   `json:"answer"`
	ConfidenceScore float64  `json:"confidence_score"`
	Citations       []string `json:"citations"`
	Rationale       string   `json:"rationale"`
}

func (AnswerAction) Kind() ActionKind          { return ActionAnswer }
func (a AnswerAction) ActionRationale() string { return a.Rationale }

// actionEnvelope is the wire form: the variant's fields flattened next to
// an action_type discriminant.
type actionEnvelope struct {
	ActionType ActionKind `json:"action_type"`

	Query     string   `json:"query,omitempty"`
	DocIDs    []string `json:"doc_ids,omitempty"`
	Question  string   `json:"question,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Answer    string   `json:"answer,omitempty"`
	Rationale string   `json:"rationale,omitempty"`

	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	Citations       []string `json:"citations,omitempty"`
}

// ParseAction decodes a raw LLM response into an Action.
//
// Malformed JSON and well-formed JSON missing required fields are parse
// failures and return an error: the caller must not continue as if the
// model had produced a usable decision. An unknown action_type on otherwise
// valid JSON is recovered locally by substituting a refusal, mirroring a
// model that chose to refuse.
func ParseAction(raw []byte) (Action, error) {
	var env actionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("model: decode action: %w", err)
	}

	switch env.ActionType {
	case ActionRetrieve:
		if env.Query == "" {
			return nil, fmt.Errorf("model: retrieve action missing query")
		}
		return RetrieveAction{Query: env.Query, Rationale: env.Rationale}, nil

	case ActionSummarize:
		return SummarizeAction{DocIDs: env.DocIDs, Rationale: env.Rationale}, nil

	case ActionClarify:
		if env.Question == "" {
			return nil, fmt.Errorf("model: clarify action missing question")
		}
		return ClarifyAction{Question: env.Question, Rationale: env.Rationale}, nil

	case ActionRefuse:
		if env.Reason == "" {
			return nil, fmt.Errorf("model: refuse action missing reason")
		}
		return RefuseAction{Reason: env.Reason, Rationale: env.Rationale}, nil

	case ActionAnswer:
		if env.Answer == "" {
			return nil, fmt.Errorf("model: answer action missing answer")
		}
		if env.ConfidenceScore == nil {
			return nil, fmt.Errorf("model: answer action missing confidence_score")
		}
		return AnswerAction{
			Answer:          env.Answer,
			ConfidenceScore: *env.ConfidenceScore,
			Citations:       env.Citations,
			Rationale:       env.Rationale,
		}, nil

	default:
		return RefuseAction{
			Reason:    "invalid action generated",
			Rationale: "model emitted an unrecognized action_type",
		}, nil
	}
}

// MarshalAction encodes an Action into its wire form with the
// action_type discriminant.
func MarshalAction(a Action) ([]byte, error) {
	env := actionEnvelope{ActionType: a.Kind()}
	switch v := a.(type) {
	case RetrieveAction:
		env.Query, env.Rationale = v.Query, v.Rationale
	case SummarizeAction:
		env.DocIDs, env.Rationale = v.DocIDs, v.Rationale
	case ClarifyAction:
		env.Question, env.Rationale = v.Question, v.Rationale
	case RefuseAction:
		env.Reason, env.Rationale = v.Reason, v.Rationale
	case AnswerAction:
		env.Answer, env.Rationale = v.Answer, v.Rationale
		score := v.ConfidenceScore
		env.ConfidenceScore = &score
		env.Citations = v.Citations
	default:
		return nil, fmt.Errorf("model: unknown action kind %q", a.Kind())
	}
	return json.Marshal(env)
}

// AgentStep is one immutable record in a loop invocation's audit trail.
//
// A single decision cycle may yield two steps sharing a StepID: first the
// decided snapshot (StateAnalyzing), then the executed snapshot carrying
// the final state and any observation. The last snapshot yielded for a
// StepID is authoritative.
type AgentStep struct {
	StepID      uuid.UUID  `json:"step_id"`
	State       AgentState `json:"state"`
	Thought     string     `json:"thought"`
	Action      Action     `json:"-"`
	Observation string     `json:"observation,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
}

// MarshalJSON flattens the action into its envelope form so step records
// serialize with a stable action_type discriminant.
func (s AgentStep) MarshalJSON() ([]byte, error) {
	type alias AgentStep
	var action json.RawMessage
	if s.Action != nil {
		raw, err := MarshalAction(s.Action)
		if err != nil {
			return nil, err
		}
		action = raw
	}
	return json.Marshal(struct {
		alias
		Action json.RawMessage `json:"action,omitempty"`
	}{alias(s), action})
}
