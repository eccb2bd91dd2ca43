// Package service implements the per-turn orchestration engine that ties the
// supervisor router, the sub-agent workflows, and the session store together.
package service

import (
	"sync"

	"github.com/iblflow/orchestrator/domain"
	"github.com/iblflow/orchestrator/store"
	"github.com/iblflow/orchestrator/subagent"
	"github.com/iblflow/orchestrator/supervisor"
	"github.com/iblflow/orchestrator/tools"
)

// Service processes user turns. Turns on the same thread are serialized; turns
// on different threads run independently.
type Service struct {
	store     store.Store
	router    *supervisor.Router
	agents    map[domain.Domain]*subagent.Workflow
	bridge    *tools.Bridge
	maxRounds int

	mu       sync.Mutex
	threadMu map[string]*sync.Mutex
}

// New creates the orchestration service. maxRounds bounds the number of
// supervisor re-entries (routing plus tool execution) within one user turn.
func New(st store.Store, router *supervisor.Router, agents []*subagent.Workflow, bridge *tools.Bridge, maxRounds int) *Service {
	byDomain := make(map[domain.Domain]*subagent.Workflow, len(agents))
	for _, wf := range agents {
		byDomain[wf.Domain()] = wf
	}
	return &Service{
		store:     st,
		router:    router,
		agents:    byDomain,
		bridge:    bridge,
		maxRounds: maxRounds,
		threadMu:  make(map[string]*sync.Mutex),
	}
}

// lockThread returns the mutex serializing turns for one thread, creating it
// on first use. Thread mutexes are never removed; the per-thread footprint is
// one mutex.
func (s *Service) lockThread(threadID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.threadMu[threadID]
	if !ok {
		m = &sync.Mutex{}
		s.threadMu[threadID] = m
	}
	return m
}
