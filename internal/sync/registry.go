package sync

import (
	"context"
)

// Registry holds the fixed, ordered set of synchronizable categories and
// fans bulk pull/push requests out across them.
type Registry struct {
	categories []string
	engines    map[string]*Engine
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]*Engine)}
}

// Register adds a category in iteration order. Registering the same category
// twice replaces the engine without changing the order.
func (r *Registry) Register(category string, engine *Engine) {
	if _, exists := r.engines[category]; !exists {
		r.categories = append(r.categories, category)
	}
	r.engines[category] = engine
}

// Categories returns the registered category names in registration order.
func (r *Registry) Categories() []string {
	out := make([]string, len(r.categories))
	copy(out, r.categories)
	return out
}

// Engine returns the engine for a category, nil when unregistered.
func (r *Registry) Engine(category string) *Engine {
	return r.engines[category]
}

// PullAll pulls every registered category for the tenant. Every category is
// present in the result, possibly with an empty slice.
func (r *Registry) PullAll(ctx context.Context, customerAPIID string, includeRemoved bool) (map[string][]Record, error) {
	bulks := make(map[string][]Record, len(r.categories))
	for _, category := range r.categories {
		records, err := r.engines[category].Pull(ctx, customerAPIID, includeRemoved)
		if err != nil {
			return nil, err
		}
		bulks[category] = records
	}
	return bulks, nil
}

// PushAll pushes the categories present in the input, each independently.
// Categories absent from the input, and unregistered category keys, are
// omitted from the output; outcome order mirrors input record order.
func (r *Registry) PushAll(ctx context.Context, customerAPIID string, bulks map[string][]Record) map[string][]PushResult {
	results := make(map[string][]PushResult)
	for _, category := range r.categories {
		records, present := bulks[category]
		if !present {
			continue
		}
		results[category] = r.engines[category].Push(ctx, customerAPIID, records)
	}
	return results
}
