package translate

import (
	"fmt"
	"slices"
	"sync"

	"github.com/GeekSage/Machete/internal/ir"
)

// Registry holds compiled translators by name. Registration is open until
// Freeze; lookups are safe from any goroutine.
type Registry struct {
	mu          sync.RWMutex
	translators map[string]any
	frozen      bool
}

// NewRegistry returns an empty, open registry.
func NewRegistry() *Registry {
	return &Registry{translators: make(map[string]any)}
}

// Register adds t under its specification name.
func Register[R, I ir.Entity, S any](reg *Registry, t *Translator[R, I, S]) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.frozen {
		return fmt.Errorf("register %s: registry is frozen", t.name)
	}
	if _, exists := reg.translators[t.name]; exists {
		return fmt.Errorf("register %s: already registered", t.name)
	}
	reg.translators[t.name] = t
	return nil
}

// Lookup returns the translator registered under name with the requested
// types.
func Lookup[R, I ir.Entity, S any](reg *Registry, name string) (*Translator[R, I, S], error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	entry, ok := reg.translators[name]
	if !ok {
		return nil, fmt.Errorf("translator %s: not registered", name)
	}
	t, ok := entry.(*Translator[R, I, S])
	if !ok {
		return nil, fmt.Errorf("translator %s: registered as %T", name, entry)
	}
	return t, nil
}

// Describe returns the rules of the translator registered under name.
func (reg *Registry) Describe(name string) ([]RuleInfo, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	entry, ok := reg.translators[name]
	if !ok {
		return nil, false
	}
	d, ok := entry.(interface{ Rules() []RuleInfo })
	if !ok {
		return nil, false
	}
	return d.Rules(), true
}

// Freeze closes the registry to further registration.
func (reg *Registry) Freeze() {
	reg.mu.Lock()
	reg.frozen = true
	reg.mu.Unlock()
}

// Names lists registered translators in sorted order.
func (reg *Registry) Names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	names := make([]string, 0, len(reg.translators))
	for name := range reg.translators {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
