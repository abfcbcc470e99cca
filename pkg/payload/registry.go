package payload

import (
	"fmt"
	"sync"
)

// Constructor builds a concrete Payload from its decoded fields.
// sender and id are the required wire keys; fields contains everything
// else present in the decoded JSON object (transaction_type removed).
type Constructor func(sender, id string, fields map[string]any) (Payload, error)

// Registry maps transaction_type tags to payload constructors. It is
// process-wide, read-mostly state: populate it at startup (typically from
// package init() functions of the concrete application), then treat it as
// read-only. Registry is safe for concurrent reads; concurrent registration
// is not a supported usage pattern (mirrors consensus.Factory, but
// registration errors are fatal rather than override-on-conflict, per the
// payload registry's "duplicate tags are a fatal configuration error"
// invariant).
type Registry struct {
	mu  sync.RWMutex
	ctr map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctr: make(map[string]Constructor)}
}

// Register adds a constructor for the given transaction_type tag.
// Returns an error if the tag is already registered; two payload variants
// registered under the same process must never share a tag.
func (r *Registry) Register(tag string, ctor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctr[tag]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTransactionType, tag)
	}
	r.ctr[tag] = ctor
	return nil
}

// MustRegister is like Register but panics on error. Intended for use in
// package init() where a duplicate tag is a build-time configuration bug,
// not a runtime condition to recover from.
func (r *Registry) MustRegister(tag string, ctor Constructor) {
	if err := r.Register(tag, ctor); err != nil {
		panic(err)
	}
}

// Lookup returns the constructor registered for tag, if any.
func (r *Registry) Lookup(tag string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.ctr[tag]
	return ctor, ok
}

// Tags returns all registered transaction_type tags.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.ctr))
	for tag := range r.ctr {
		tags = append(tags, tag)
	}
	return tags
}

// DefaultRegistry is the global registry used by the package-level
// Encode/Decode helpers. Concrete applications register their payload
// variants against it, typically from an init() function.
var DefaultRegistry = NewRegistry()

// RegisterPayload registers a constructor with DefaultRegistry.
func RegisterPayload(tag string, ctor Constructor) {
	DefaultRegistry.MustRegister(tag, ctor)
}
