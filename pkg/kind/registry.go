package kind

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/matzehuels/vardump/pkg/errors"
	"github.com/matzehuels/vardump/pkg/value"
)

// Registry is an ordered collection of kinds.
//
// A Registry is safe for concurrent use. It is sealed by its first call to
// Classify; from then on it is read-only and Register and Insert fail.
type Registry struct {
	mu     sync.RWMutex
	kinds  []*Kind
	byName map[string]*Kind
	sealed atomic.Bool
}

// NewRegistry creates a registry holding kinds in the given order.
func NewRegistry(kinds ...Kind) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Kind, len(kinds))}
	for _, k := range kinds {
		if err := r.Register(k); err != nil {
			return nil, err
		}
	}
	return r, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry(Builtins()...)
	if err != nil {
		panic(fmt.Sprintf("kind: invalid built-in registry: %v", err))
	}
	return r
})

// Default returns the process-wide registry holding [Builtins].
func Default() *Registry {
	return defaultRegistry()
}

// Register appends k, giving it the lowest priority so far.
// It rejects invalid descriptors, duplicate names, and registrations after
// the registry has been sealed.
func (r *Registry) Register(k Kind) error {
	return r.insert("", k)
}

// Insert adds k immediately before the kind named before, so that k takes
// priority over it. Use it to claim values a built-in kind would otherwise
// match, such as uuid.UUID arrays that would classify as sequences.
func (r *Registry) Insert(before string, k Kind) error {
	if before == "" {
		return errors.New(errors.ErrCodeInvalidKind, "insert position for kind %q is empty", k.Name)
	}
	return r.insert(before, k)
}

// insert places k before the named kind, or appends it when before is empty.
func (r *Registry) insert(before string, k Kind) error {
	if err := k.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return errors.New(errors.ErrCodeRegistrySealed, "cannot register kind %q: registry already in use", k.Name)
	}
	if _, exists := r.byName[k.Name]; exists {
		return errors.New(errors.ErrCodeDuplicateKind, "kind %q already registered", k.Name)
	}

	kp := &k
	if before == "" {
		r.kinds = append(r.kinds, kp)
	} else {
		idx := slices.IndexFunc(r.kinds, func(x *Kind) bool { return x.Name == before })
		if idx < 0 {
			return errors.New(errors.ErrCodeNotFound, "kind %q not registered", before)
		}
		r.kinds = slices.Insert(r.kinds, idx, kp)
	}
	r.byName[k.Name] = kp
	return nil
}

// All returns the registered kinds in priority order.
func (r *Registry) All() []*Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.kinds)
}

// Lookup returns the kind registered under name.
func (r *Registry) Lookup(name string) (*Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.byName[name]
	return k, ok
}

// Len returns the number of registered kinds.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.kinds)
}

// Sealed reports whether the registry has been used for classification.
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

// Classify returns the first kind, in registration order, whose predicate
// matches v. Pointers and interfaces are followed first (see
// [value.Indirect]). Repeated calls with the same value return the same
// kind.
func (r *Registry) Classify(v any) (*Kind, error) {
	r.sealed.Store(true)
	v = value.Indirect(v)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, k := range r.kinds {
		if k.Check(v) {
			return k, nil
		}
	}
	return nil, &UnclassifiedValueError{Type: fmt.Sprintf("%T", v)}
}

// Classify classifies v with the [Default] registry.
func Classify(v any) (*Kind, error) {
	return Default().Classify(v)
}
