package repository

import (
	"context"
	"errors"
	"fmt"

	"campus-rides-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CandidateFilter is the coarse pre-filter pushed down to the candidate
// query; fine filtering happens in the matcher.
type CandidateFilter struct {
	ExcludeFemaleOnly bool
	MinCapacity       int
}

// GroupRepository handles database operations for groups
type GroupRepository struct {
	db *pgxpool.Pool
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{db: db}
}

const groupColumns = `id, origin, stops, destination, departure_time, capacity, preference, creator_id, created_at`

// Create inserts a new group and, when autoJoinCreator is set, the creator's
// membership, in a single transaction. A failure after the group insert rolls
// the group back too.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group, autoJoinCreator bool) error {
	err := pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		query := `
			INSERT INTO groups (origin, stops, destination, departure_time, capacity, preference, creator_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at
		`
		err := tx.QueryRow(ctx, query,
			group.Origin, group.Stops, group.Destination, group.DepartureTime,
			group.Capacity, group.Preference, group.CreatorID,
		).Scan(&group.ID, &group.CreatedAt)
		if err != nil {
			return err
		}
		if autoJoinCreator {
			_, err = tx.Exec(ctx,
				`INSERT INTO group_members (group_id, user_id, is_admin) VALUES ($1, $2, TRUE)`,
				group.ID, group.CreatorID,
			)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// GetByID retrieves a group by id
func (r *GroupRepository) GetByID(ctx context.Context, id int64) (*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE id = $1`
	var group models.Group
	err := r.db.QueryRow(ctx, query, id).Scan(
		&group.ID, &group.Origin, &group.Stops, &group.Destination,
		&group.DepartureTime, &group.Capacity, &group.Preference,
		&group.CreatorID, &group.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("group: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &group, nil
}

// DeleteCascade removes all memberships for the group and then the group
// itself, in one transaction.
func (r *GroupRepository) DeleteCascade(ctx context.Context, id int64) error {
	err := pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1`, id); err != nil {
			return err
		}
		ct, err := tx.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("group: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

// ListCandidates retrieves the candidate pool for a search
func (r *GroupRepository) ListCandidates(ctx context.Context, filter CandidateFilter) ([]models.Group, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM groups
		WHERE ($1 = FALSE OR preference <> 'FEMALE_ONLY')
		  AND ($2 = 0 OR capacity >= $2)
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, filter.ExcludeFemaleOnly, filter.MinCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate groups: %w", err)
	}
	defer rows.Close()
	return scanGroups(rows)
}

// ListCreatedBy retrieves the groups a user created
func (r *GroupRepository) ListCreatedBy(ctx context.Context, userID int64) ([]models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE creator_id = $1 ORDER BY id`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list created groups: %w", err)
	}
	defer rows.Close()
	return scanGroups(rows)
}

// ListJoinedBy retrieves the groups a user is a member of but did not create
func (r *GroupRepository) ListJoinedBy(ctx context.Context, userID int64) ([]models.Group, error) {
	query := `
		SELECT g.id, g.origin, g.stops, g.destination, g.departure_time,
		       g.capacity, g.preference, g.creator_id, g.created_at
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = $1 AND g.creator_id <> $1
		ORDER BY g.id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list joined groups: %w", err)
	}
	defer rows.Close()
	return scanGroups(rows)
}

func scanGroups(rows pgx.Rows) ([]models.Group, error) {
	var groups []models.Group
	for rows.Next() {
		var group models.Group
		err := rows.Scan(
			&group.ID, &group.Origin, &group.Stops, &group.Destination,
			&group.DepartureTime, &group.Capacity, &group.Preference,
			&group.CreatorID, &group.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read groups: %w", err)
	}
	return groups, nil
}
