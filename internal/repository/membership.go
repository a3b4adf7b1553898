package repository

import (
	"context"
	"errors"
	"fmt"

	"campus-rides-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MembershipRepository handles database operations for group memberships
type MembershipRepository struct {
	db *pgxpool.Pool
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// CountMembers returns the current member count of a group
func (r *MembershipRepository) CountMembers(ctx context.Context, groupID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = $1`, groupID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

// ListMembers returns the members of a group with their profile fields
func (r *MembershipRepository) ListMembers(ctx context.Context, groupID int64) ([]models.Member, error) {
	query := `
		SELECT u.id, u.name, u.year, gm.is_admin, gm.joined_at
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at, u.id
	`
	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.UserID, &m.Name, &m.Year, &m.IsAdmin, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read members: %w", err)
	}
	return members, nil
}

// IsMember checks whether a user belongs to a group
func (r *MembershipRepository) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`,
		groupID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

// Delete removes a membership. Deleting a membership that does not exist is
// a no-op, not an error.
func (r *MembershipRepository) Delete(ctx context.Context, groupID, userID int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return nil
}

// JoinGroup runs the join decision and the membership insert as one
// transaction holding a row lock on the group, so two concurrent joins can
// never both observe the last free seat. The decide callback sees the locked
// group row, the member count, and whether the user already belongs; a nil
// result admits the user.
func (r *MembershipRepository) JoinGroup(
	ctx context.Context,
	groupID, userID int64,
	decide func(group *models.Group, memberCount int, alreadyMember bool) *models.Denial,
) (*models.Denial, error) {
	var denial *models.Denial
	err := pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		query := `SELECT ` + groupColumns + ` FROM groups WHERE id = $1 FOR UPDATE`
		var group models.Group
		err := tx.QueryRow(ctx, query, groupID).Scan(
			&group.ID, &group.Origin, &group.Stops, &group.Destination,
			&group.DepartureTime, &group.Capacity, &group.Preference,
			&group.CreatorID, &group.CreatedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		var count int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM group_members WHERE group_id = $1`, groupID,
		).Scan(&count)
		if err != nil {
			return err
		}

		var already bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`,
			groupID, userID,
		).Scan(&already)
		if err != nil {
			return err
		}

		if denial = decide(&group, count, already); denial != nil {
			return nil
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`,
			groupID, userID,
		)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("group: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to join group: %w", err)
	}
	return denial, nil
}
