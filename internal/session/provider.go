package session

import (
	"sync"

	"github.com/google/uuid"
)

// Identity is an authenticated user as seen by a view or request.
type Identity struct {
	UserID uuid.UUID `json:"user_id"`
	Label  string    `json:"label"`
}

// Provider holds the current identity of one viewer and notifies listeners
// when it changes. The zero identity state means anonymous.
type Provider struct {
	mu        sync.RWMutex
	current   *Identity
	listeners map[int]func(*Identity)
	nextID    int
}

func NewProvider(initial *Identity) *Provider {
	p := &Provider{listeners: make(map[int]func(*Identity))}
	if initial != nil {
		id := *initial
		p.current = &id
	}
	return p
}

func (p *Provider) Current() (Identity, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return Identity{}, false
	}
	return *p.current, true
}

// UserID returns the current user id, or nil when anonymous.
func (p *Provider) UserID() *uuid.UUID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return nil
	}
	id := p.current.UserID
	return &id
}

func (p *Provider) SignIn(identity Identity) {
	p.set(&identity)
}

func (p *Provider) SignOut() {
	p.set(nil)
}

func (p *Provider) set(identity *Identity) {
	p.mu.Lock()
	if sameIdentity(p.current, identity) {
		p.mu.Unlock()
		return
	}
	p.current = identity
	listeners := make([]func(*Identity), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	for _, fn := range listeners {
		var snapshot *Identity
		if identity != nil {
			c := *identity
			snapshot = &c
		}
		fn(snapshot)
	}
}

// OnChange registers fn for login and logout transitions. The returned
// function unregisters it.
func (p *Provider) OnChange(fn func(*Identity)) func() {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

func sameIdentity(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UserID == b.UserID
}
