// Package manager provides a registry and router for named pipelines with
// direct dispatch and ordered chaining.
package manager

import (
	"context"
	"sync"

	sferrors "github.com/vnykmshr/stageflow/pkg/common/errors"
	"github.com/vnykmshr/stageflow/pkg/common/validation"
)

// Handler is anything that can process data under a stable identifier.
// Pipelines and format adapters both satisfy it.
type Handler interface {
	// ID returns the handler's unique identifier.
	ID() string

	// Process runs data through the handler and returns the output value.
	// Stage and decode failures are absorbed by the handler; Process always
	// returns a usable value.
	Process(ctx context.Context, data interface{}) interface{}
}

// Manager registers named pipelines and routes data to them, either by
// direct dispatch or by chaining several pipelines in order.
type Manager interface {
	// Register inserts the handler keyed by its identifier. Re-registering
	// under an existing identifier replaces the prior handler
	// (last-write-wins).
	Register(h Handler) error

	// Unregister removes the handler with the given identifier, reporting
	// whether one was registered.
	Unregister(id string) bool

	// Get returns the handler registered under the identifier.
	Get(id string) (Handler, bool)

	// IDs returns the identifiers of all registered handlers.
	IDs() []string

	// Len returns the number of registered handlers.
	Len() int

	// Dispatch routes data to the handler registered under the identifier.
	// Dispatching to an unknown identifier returns a NotFoundError; it is
	// the one failure surfaced to the caller.
	Dispatch(ctx context.Context, id string, data interface{}) (interface{}, error)

	// SetChain stores the ordered chain plan used by ExecuteChain.
	SetChain(ids ...string)

	// ChainPlan returns a copy of the stored chain plan.
	ChainPlan() []string

	// ExecuteChain runs data through the stored chain plan.
	ExecuteChain(ctx context.Context, data interface{}) interface{}

	// Chain runs data through the named pipelines in order, feeding each
	// pipeline's output into the next. Identifiers with no registered
	// handler are silently skipped; a chain through missing identifiers
	// behaves exactly like the same chain without them.
	Chain(ctx context.Context, data interface{}, ids ...string) interface{}

	// Close releases the registry. Further Register and Dispatch calls fail
	// with ErrClosed; chain execution returns its input unchanged.
	Close() error
}

// manager implements the Manager interface.
type manager struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	chain    []string
	closed   bool
}

// New creates an empty manager. Managers have an explicit lifecycle: create
// one, register pipelines, and Close it when done; there is no process-wide
// instance.
func New() Manager {
	return &manager{
		handlers: make(map[string]Handler),
	}
}

// Register inserts the handler keyed by its identifier.
func (m *manager) Register(h Handler) error {
	if h == nil {
		return validation.ValidateNotNil("manager", "handler", nil)
	}
	if err := validation.ValidateNotEmpty("manager", "id", h.ID()); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return sferrors.ErrClosed
	}

	m.handlers[h.ID()] = h
	return nil
}

// Unregister removes the handler with the given identifier.
func (m *manager) Unregister(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.handlers[id]; !exists {
		return false
	}
	delete(m.handlers, id)
	return true
}

// Get returns the handler registered under the identifier.
func (m *manager) Get(id string) (Handler, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, exists := m.handlers[id]
	return h, exists
}

// IDs returns the identifiers of all registered handlers.
func (m *manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.handlers))
	for id := range m.handlers {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of registered handlers.
func (m *manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers)
}

// Dispatch routes data to the handler registered under the identifier.
func (m *manager) Dispatch(ctx context.Context, id string, data interface{}) (interface{}, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, sferrors.ErrClosed
	}
	h, exists := m.handlers[id]
	m.mu.RUnlock()

	if !exists {
		return nil, sferrors.NewNotFoundError(id)
	}

	return h.Process(ctx, data), nil
}

// SetChain stores the ordered chain plan used by ExecuteChain.
func (m *manager) SetChain(ids ...string) {
	plan := make([]string, len(ids))
	copy(plan, ids)

	m.mu.Lock()
	m.chain = plan
	m.mu.Unlock()
}

// ChainPlan returns a copy of the stored chain plan.
func (m *manager) ChainPlan() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plan := make([]string, len(m.chain))
	copy(plan, m.chain)
	return plan
}

// ExecuteChain runs data through the stored chain plan.
func (m *manager) ExecuteChain(ctx context.Context, data interface{}) interface{} {
	return m.Chain(ctx, data, m.ChainPlan()...)
}

// Chain runs data through the named pipelines in strict left-to-right order.
func (m *manager) Chain(ctx context.Context, data interface{}, ids ...string) interface{} {
	current := data
	for _, id := range ids {
		m.mu.RLock()
		if m.closed {
			m.mu.RUnlock()
			return current
		}
		h, exists := m.handlers[id]
		m.mu.RUnlock()

		if !exists {
			// Unregistered identifiers are skipped, not an error.
			continue
		}

		current = h.Process(ctx, current)
	}
	return current
}

// Close releases the registry.
func (m *manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return sferrors.ErrClosed
	}

	m.closed = true
	m.handlers = make(map[string]Handler)
	m.chain = nil
	return nil
}
