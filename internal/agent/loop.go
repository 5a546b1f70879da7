package agent

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ashita-ai/bunsho/internal/model"
	"github.com/ashita-ai/bunsho/internal/service/completion"
)

var tracer = otel.Tracer("bunsho/agent")

// maxSteps bounds the number of decision cycles per invocation. Exceeding
// it produces a forced refusal, never an unbounded loop.
const maxSteps = 5

// Runner drives the reasoning loop: one LLM decision per cycle, executed
// against the tool adapter, yielded to the caller as immutable step
// snapshots.
type Runner struct {
	completer completion.Completer
	tools     *ToolAdapter
	guard     *ConfidenceGuard
	logger    *slog.Logger
}

// NewRunner creates a Runner. All collaborators are owned by the caller.
func NewRunner(completer completion.Completer, tools *ToolAdapter, logger *slog.Logger) *Runner {
	return &Runner{
		completer: completer,
		tools:     tools,
		guard:     NewConfidenceGuard(logger),
		logger:    logger,
	}
}

// Run executes one loop invocation for query and returns a finite,
// one-shot sequence of steps. The sequence is not restartable: a follow-up
// turn needs a fresh Run call.
//
// A decision cycle yields two snapshots sharing a StepID: the decided
// record in StateAnalyzing, then the executed record carrying the final
// state and any observation. Collaborator or parse failure terminates the
// invocation with a single refusing step carrying the error as its thought.
func (r *Runner) Run(ctx context.Context, query string) iter.Seq[model.AgentStep] {
	return func(yield func(model.AgentStep) bool) {
		ctx, span := tracer.Start(ctx, "agent.Run",
			trace.WithAttributes(attribute.Int("bunsho.query_len", len(query))),
		)
		defer span.End()

		var history []model.AgentStep
		var contextBuf strings.Builder

		if !yield(model.AgentStep{
			StepID:    uuid.New(),
			State:     model.StateThinking,
			Thought:   "received query, planning next step",
			Timestamp: time.Now().UTC(),
		}) {
			return
		}

		for cycle := 0; cycle < maxSteps; cycle++ {
			raw, err := r.completer.Complete(ctx, r.buildTranscript(history, query, contextBuf.String()))
			if err != nil {
				r.logger.Warn("agent: completion failed", "cycle", cycle, "error", err)
				yield(refusingStep(fmt.Sprintf("llm error: %v", err)))
				return
			}

			action, err := model.ParseAction([]byte(raw))
			if err != nil {
				r.logger.Warn("agent: unparseable action", "cycle", cycle, "error", err)
				yield(refusingStep(fmt.Sprintf("invalid response: %v", err)))
				return
			}

			decided := model.AgentStep{
				StepID:    uuid.New(),
				State:     model.StateAnalyzing,
				Thought:   fmt.Sprintf("decided to %s", action.Kind()),
				Action:    action,
				Timestamp: time.Now().UTC(),
			}
			if !yield(decided) {
				return
			}
			history = append(history, decided)

			executed := decided
			executed.Timestamp = time.Now().UTC()

			switch a := action.(type) {
			case model.RetrieveAction:
				observation, err := r.tools.RetrieveContext(ctx, a.Query)
				if err != nil {
					r.logger.Warn("agent: retrieval failed", "cycle", cycle, "error", err)
					yield(refusingStep(fmt.Sprintf("tool error: %v", err)))
					return
				}
				executed.State = model.StateRetrieving
				executed.Observation = observation
				if !yield(executed) {
					return
				}
				history[len(history)-1] = executed
				fmt.Fprintf(&contextBuf, "\nRetrieval for %q:\n%s", a.Query, observation)

			case model.AnswerAction:
				validated := r.guard.EvaluateAnswer(a, contextBuf.String())
				executed.Action = validated
				if refusal, ok := validated.(model.RefuseAction); ok {
					executed.State = model.StateRefusing
					executed.Thought += fmt.Sprintf(" (guard: %s)", refusal.Reason)
				} else {
					executed.State = model.StateDone
				}
				span.SetAttributes(attribute.String("bunsho.outcome", string(executed.State)))
				yield(executed)
				return

			case model.ClarifyAction:
				executed.State = model.StateClarifying
				span.SetAttributes(attribute.String("bunsho.outcome", string(executed.State)))
				yield(executed)
				return

			case model.RefuseAction:
				executed.State = model.StateRefusing
				span.SetAttributes(attribute.String("bunsho.outcome", string(executed.State)))
				yield(executed)
				return

			case model.SummarizeAction:
				// Reserved action: accepted by the schema, not executed.
				// Terminates without an observation.
				executed.State = model.StateDone
				span.SetAttributes(attribute.String("bunsho.outcome", string(executed.State)))
				yield(executed)
				return
			}
		}

		span.SetAttributes(attribute.String("bunsho.outcome", "step_budget"))
		yield(model.AgentStep{
			StepID:  uuid.New(),
			State:   model.StateRefusing,
			Thought: "max steps reached",
			Action: model.RefuseAction{
				Reason:    "too many steps",
				Rationale: "could not resolve the query within the step budget",
			},
			Timestamp: time.Now().UTC(),
		})
	}
}

// buildTranscript assembles the chat history for one decision: the fixed
// system contract, one assistant/tool-output pair per prior step, then the
// user query with the accumulated retrieval context.
func (r *Runner) buildTranscript(history []model.AgentStep, query, currentContext string) []completion.Message {
	messages := []completion.Message{{Role: completion.RoleSystem, Content: systemPrompt}}

	for _, step := range history {
		if step.Action != nil {
			messages = append(messages, completion.Message{
				Role:    completion.RoleAssistant,
				Content: fmt.Sprintf("Action: %s\nRationale: %s", step.Action.Kind(), step.Action.ActionRationale()),
			})
		}
		if step.Observation != "" {
			messages = append(messages, completion.Message{
				Role:    completion.RoleUser,
				Content: "Tool Output: " + step.Observation,
			})
		}
	}

	messages = append(messages, completion.Message{
		Role:    completion.RoleUser,
		Content: fmt.Sprintf("User Query: %s\nCurrent Context: %s", query, currentContext),
	})
	return messages
}

func refusingStep(thought string) model.AgentStep {
	return model.AgentStep{
		StepID:    uuid.New(),
		State:     model.StateRefusing,
		Thought:   thought,
		Timestamp: time.Now().UTC(),
	}
}
