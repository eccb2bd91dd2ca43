package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iblflow/orchestrator/domain"
	"github.com/iblflow/orchestrator/subagent"
)

// HandleTurn processes one user message on a thread and returns every message
// produced by the turn, the incoming user message first. The turn either
// completes fully or leaves the session at its pre-turn state plus the user
// message and a single error notice.
func (s *Service) HandleTurn(ctx context.Context, threadID, userMessage string) ([]domain.Message, error) {
	lock := s.lockThread(threadID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.store.GetOrCreateSession(ctx, threadID); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	history, err := s.store.ListMessages(ctx, threadID, 0)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	userMsg := domain.NewMessage(threadID, domain.RoleUser, userMessage)
	history = append(history, userMsg)
	turn := []domain.Message{userMsg}

	// Supervisor loop. Each round is one routing call; execute_tools rounds
	// feed observations back and re-route. The bound keeps a confused oracle
	// from spinning forever.
	var decision *domain.RoutingDecision
	for round := 0; ; round++ {
		if round >= s.maxRounds {
			return s.failTurn(ctx, threadID, userMsg,
				&domain.LoopBoundExceededError{ThreadID: threadID, Bound: s.maxRounds})
		}

		var toolCalls []domain.ToolRequest
		decision, toolCalls, err = s.router.Route(ctx, history)
		if err != nil {
			return s.failTurn(ctx, threadID, userMsg, err)
		}

		if decision.DelegateTo == domain.DelegateExecuteTools {
			observations, err := s.bridge.Execute(ctx, threadID, toolCalls)
			if err != nil {
				return s.failTurn(ctx, threadID, userMsg, err)
			}
			turn = append(turn, observations...)
			history = append(history, observations...)
			continue
		}
		break
	}

	var wfResult *subagent.TurnResult
	var wfDomain domain.Domain

	switch decision.DelegateTo {
	case domain.DelegateClarifyUser:
		turn = append(turn, domain.NewMessage(threadID, domain.RoleAssistant, decision.Question))

	case domain.DelegateTerminate:
		// Nothing to say; the user message is still recorded.

	default:
		d, _ := decision.DelegateTo.Domain()
		wf, ok := s.agents[d]
		if !ok {
			return s.failTurn(ctx, threadID, userMsg,
				fmt.Errorf("no workflow registered for domain %s", d))
		}

		// A record only carries over within the same domain. Switching
		// domains starts the new workflow from an empty record.
		prior := domain.Record{}
		state, err := s.store.GetAgentState(ctx, threadID)
		if err != nil {
			return nil, fmt.Errorf("load agent state: %w", err)
		}
		if state != nil && state.Domain == d {
			prior = state.Record
		}

		res, err := wf.RunTurn(ctx, threadID, decision.AgentBrief, prior, domain.LastUserMessage(history))
		if err != nil {
			return s.failTurn(ctx, threadID, userMsg, err)
		}
		turn = append(turn, res.Messages...)
		wfResult = res
		wfDomain = d
	}

	// Messages first, state second: a persistence failure here leaves the
	// record and session exactly as they were before the turn.
	if err := s.store.AppendMessages(ctx, turn); err != nil {
		return nil, fmt.Errorf("persist turn: %w", err)
	}

	if wfResult != nil {
		if wfResult.Committed {
			if err := s.store.ClearAgentState(ctx, threadID); err != nil {
				return nil, fmt.Errorf("clear agent state: %w", err)
			}
			if err := s.store.UpdateSessionDomain(ctx, threadID, ""); err != nil {
				return nil, fmt.Errorf("update session domain: %w", err)
			}
		} else {
			if err := s.store.PutAgentState(ctx, &domain.AgentState{
				ThreadID:  threadID,
				Domain:    wfDomain,
				Record:    wfResult.Record,
				UpdatedAt: time.Now(),
			}); err != nil {
				return nil, fmt.Errorf("save agent state: %w", err)
			}
			if err := s.store.UpdateSessionDomain(ctx, threadID, wfDomain); err != nil {
				return nil, fmt.Errorf("update session domain: %w", err)
			}
		}
	}

	if raw, err := json.Marshal(decision); err == nil {
		if err := s.store.UpdateSessionDecision(ctx, threadID, raw); err != nil {
			return nil, fmt.Errorf("persist decision: %w", err)
		}
	}
	return turn, nil
}

// failTurn records a turn failure conversationally: the user message plus one
// error notice, nothing else. Tool observations and record changes from the
// failed turn are discarded.
func (s *Service) failTurn(ctx context.Context, threadID string, userMsg domain.Message, cause error) ([]domain.Message, error) {
	log.Printf("ERROR: turn failed for thread %s: %v", threadID, cause)

	notice := domain.NewMessage(threadID, domain.RoleAssistant, failureNotice(cause))
	msgs := []domain.Message{userMsg, notice}
	if err := s.store.AppendMessages(ctx, msgs); err != nil {
		return nil, fmt.Errorf("persist failure notice: %w", err)
	}
	return msgs, nil
}

// failureNotice maps an internal failure to a user-facing sentence. Saved
// progress is never touched by a failed turn, and the notice says so.
func failureNotice(cause error) string {
	var loopErr *domain.LoopBoundExceededError
	var valErr *domain.DecisionValidationError
	switch {
	case errors.As(cause, &loopErr):
		return "I could not finish processing that request: it took too many internal steps. Your saved progress is unchanged; please try rephrasing."
	case errors.As(cause, &valErr):
		return "I had trouble interpreting that message. Your saved progress is unchanged; could you rephrase it?"
	default:
		return "Something went wrong while processing your message. Your saved progress is unchanged; please try again."
	}
}
