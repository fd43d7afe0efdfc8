package platform

import (
	"fmt"
	"sync"

	"github.com/chatrouter/chatrouter/internal/message"
)

// Registry holds the registered platforms and dispatches capability
// lookups. It must be created via NewRegistry and passed explicitly to
// components that need it.
type Registry struct {
	mu        sync.RWMutex
	platforms map[message.Platform]Platform
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{platforms: map[message.Platform]Platform{}}
}

// Register adds a platform to the registry.
func (r *Registry) Register(p Platform) error {
	if p == nil {
		return fmt.Errorf("platform is nil")
	}
	name := p.Name()
	if name == "" {
		return fmt.Errorf("platform name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.platforms[name]; exists {
		return fmt.Errorf("platform already registered: %s", name)
	}
	r.platforms[name] = p
	return nil
}

// MustRegister calls Register and panics on error.
func (r *Registry) MustRegister(p Platform) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Get returns the platform registered under name.
func (r *Registry) Get(name message.Platform) (Platform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.platforms[name]
	return p, ok
}

// Names returns all registered platform names.
func (r *Registry) Names() []message.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]message.Platform, 0, len(r.platforms))
	for name := range r.platforms {
		names = append(names, name)
	}
	return names
}

// GetPreProcessor returns the PreProcessor capability for name, or nil
// if the platform does not preprocess.
func (r *Registry) GetPreProcessor(name message.Platform) (PreProcessor, bool) {
	p, ok := r.Get(name)
	if !ok {
		return nil, false
	}
	pre, ok := p.(PreProcessor)
	return pre, ok
}

// GetBinaryCarrier returns the BinaryCarrier capability for name.
func (r *Registry) GetBinaryCarrier(name message.Platform) (BinaryCarrier, bool) {
	p, ok := r.Get(name)
	if !ok {
		return nil, false
	}
	carrier, ok := p.(BinaryCarrier)
	return carrier, ok
}

// GetPostProcessor returns the PostProcessor capability for name.
func (r *Registry) GetPostProcessor(name message.Platform) (PostProcessor, bool) {
	p, ok := r.Get(name)
	if !ok {
		return nil, false
	}
	post, ok := p.(PostProcessor)
	return post, ok
}
