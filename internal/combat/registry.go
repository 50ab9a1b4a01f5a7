package combat

import (
	"sync"

	"github.com/arvenwood/loomfall/internal/apperr"
)

// Registry holds in-memory encounters, namespaced by session id so distinct
// sessions never observe each other's state.
//
// Access within a session is serialized by the single-threaded scheduling
// model; the mutex only guards against separate sessions sharing one
// registry instance.
type Registry struct {
	mu         sync.Mutex
	encounters map[string]*Encounter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{encounters: map[string]*Encounter{}}
}

func registryKey(sessionID, encounterID string) string {
	return sessionID + ":" + encounterID
}

// Put stores an encounter under its session namespace.
func (r *Registry) Put(encounter *Encounter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.encounters[registryKey(encounter.SessionID, encounter.ID)] = encounter
}

// Get resolves an encounter within a session.
func (r *Registry) Get(sessionID, encounterID string) (*Encounter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	encounter, ok := r.encounters[registryKey(sessionID, encounterID)]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "encounter %q is not active in this session", encounterID)
	}
	return encounter, nil
}

// Remove drops an encounter from the registry.
func (r *Registry) Remove(sessionID, encounterID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.encounters, registryKey(sessionID, encounterID))
}
