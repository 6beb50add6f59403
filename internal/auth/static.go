package auth

import (
	"context"
	"slices"
	"sync"

	"github.com/Martig3/valorant-matchbot/internal/engine"
)

// Static is a fixed in-memory Membership, used when no chat platform is
// connected and in tests.
type Static struct {
	mu    sync.RWMutex
	roles map[engine.Actor][]string
	names map[string]string
	// Err, when set, is returned from every HasRole call.
	Err error
}

func NewStatic() *Static {
	return &Static{roles: map[engine.Actor][]string{}, names: map[string]string{}}
}

func (s *Static) Grant(actor engine.Actor, roles ...string) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[actor] = append(s.roles[actor], roles...)
	return s
}

func (s *Static) Name(role, name string) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[role] = name
	return s
}

func (s *Static) HasRole(_ context.Context, actor engine.Actor, role string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return false, s.Err
	}
	return slices.Contains(s.roles[actor], role), nil
}

func (s *Static) RoleName(_ context.Context, role string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if name, ok := s.names[role]; ok {
		return name
	}
	return role
}
