package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectionRepository handles database operations for acquaintance edges
type ConnectionRepository struct {
	db *pgxpool.Pool
}

// NewConnectionRepository creates a new connection repository
func NewConnectionRepository(db *pgxpool.Pool) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// Insert stores the undirected edge (a, b). Inserting an edge that already
// exists, in either order, is a no-op. It reports whether a new edge was
// created.
func (r *ConnectionRepository) Insert(ctx context.Context, a, b int64) (bool, error) {
	if a > b {
		a, b = b, a
	}
	ct, err := r.db.Exec(ctx,
		`INSERT INTO connections (user_a, user_b) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		a, b,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert connection: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// Neighbors returns the users one edge away from the given user
func (r *ConnectionRepository) Neighbors(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT user_b FROM connections WHERE user_a = $1
		UNION
		SELECT user_a FROM connections WHERE user_b = $1
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list neighbors: %w", err)
	}
	defer rows.Close()

	var neighbors []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan neighbor: %w", err)
		}
		neighbors = append(neighbors, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read neighbors: %w", err)
	}
	return neighbors, nil
}
