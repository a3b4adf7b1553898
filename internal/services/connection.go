package services

import (
	"context"
	"fmt"
)

// ConnectionStore is the storage collaborator for acquaintance edges
type ConnectionStore interface {
	NeighborLister
	Insert(ctx context.Context, a, b int64) (bool, error)
}

// ConnectionService manages the acquaintance edge set
type ConnectionService struct {
	store ConnectionStore
	users UserGetter
}

// NewConnectionService creates a new connection service
func NewConnectionService(store ConnectionStore, users UserGetter) *ConnectionService {
	return &ConnectionService{store: store, users: users}
}

// Connect records an acquaintance edge between two users. Adding an edge that
// already exists, in either order, succeeds without effect. It reports
// whether a new edge was created.
func (s *ConnectionService) Connect(ctx context.Context, u1, u2 int64) (bool, error) {
	if u1 == u2 {
		return false, invalid("user_id", "cannot connect a user to themselves")
	}
	if _, err := s.users.GetByID(ctx, u1); err != nil {
		return false, fmt.Errorf("failed to resolve user %d: %w", u1, err)
	}
	if _, err := s.users.GetByID(ctx, u2); err != nil {
		return false, fmt.Errorf("failed to resolve user %d: %w", u2, err)
	}
	return s.store.Insert(ctx, u1, u2)
}
