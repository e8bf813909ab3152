package multiagent

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/stratumhq/agentkit/agent"
)

// Repository stores the agents an orchestrator can execute. Lookups are
// hot (once per dispatch) while writes happen at setup time, so
// implementations should favor cheap concurrent reads.
type Repository interface {
	// FindByID returns the agent registered under id.
	FindByID(id string) (agent.Agent, bool)
	// Save registers an agent under its identity's ID.
	Save(ag agent.Agent) error
	// Delete removes the agent registered under id.
	Delete(id string) error
	// List returns the identities of all registered agents.
	List() []agent.Identity
}

// Registry is the in-memory Repository used by default. It is safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]agent.Agent
}

// NewRegistry creates an empty in-memory registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]agent.Agent)}
}

// Save registers ag under its identity's ID. It rejects nil agents, blank
// IDs, and IDs that are already taken.
func (r *Registry) Save(ag agent.Agent) error {
	if ag == nil {
		return fmt.Errorf("agent is required")
	}
	id := strings.TrimSpace(ag.Identity().ID)
	if id == "" {
		return fmt.Errorf("agent id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[id]; exists {
		return fmt.Errorf("agent %q already registered", id)
	}
	r.agents[id] = ag
	return nil
}

// Delete removes the agent registered under id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[id]; !exists {
		return fmt.Errorf("agent %q is not registered", id)
	}
	delete(r.agents, id)
	return nil
}

// FindByID returns the agent registered under id.
func (r *Registry) FindByID(id string) (agent.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ag, ok := r.agents[id]
	return ag, ok
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// List returns the identities of all registered agents, sorted by ID.
func (r *Registry) List() []agent.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]agent.Identity, 0, len(r.agents))
	for _, ag := range r.agents {
		out = append(out, ag.Identity())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var _ Repository = (*Registry)(nil)
