package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/riverlog/riverlog/internal/model"
)

// Common errors for river repository operations.
var (
	ErrRiverNotFound = errors.New("river not found")
)

// CreateRiver inserts a new river into the database.
func (r *Repository) CreateRiver(ctx context.Context, river *model.River) error {
	coords, err := json.Marshal(river.Coordinates)
	if err != nil {
		return fmt.Errorf("failed to encode coordinates: %w", err)
	}

	query := `
		INSERT INTO rivers (id, owner_id, name, feature, state, region, miles, geometry_type, coordinates, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.pool.Exec(ctx, query,
		river.ID,
		river.OwnerID,
		river.Name,
		river.Feature,
		river.State,
		river.Region,
		river.Miles,
		river.GeometryType,
		coords,
		river.CreatedAt,
		river.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create river: %w", err)
	}

	return nil
}

// GetRiverByID retrieves a river by its ID.
func (r *Repository) GetRiverByID(ctx context.Context, id string) (*model.River, error) {
	query := `
		SELECT id, owner_id, name, feature, state, region, miles, geometry_type, coordinates, created_at, updated_at
		FROM rivers
		WHERE id = $1
	`

	river, err := r.scanRiver(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRiverNotFound
		}
		return nil, fmt.Errorf("failed to get river by ID: %w", err)
	}

	return river, nil
}

// ListRivers retrieves all rivers ordered by descending id. IDs are ULIDs,
// so descending id is newest first. Listing is global: there is
// deliberately no owner filter here, visibility is decided by the access
// policy alone.
func (r *Repository) ListRivers(ctx context.Context) ([]*model.River, error) {
	query := `
		SELECT id, owner_id, name, feature, state, region, miles, geometry_type, coordinates, created_at, updated_at
		FROM rivers
		ORDER BY id DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rivers: %w", err)
	}
	defer rows.Close()

	var rivers []*model.River
	for rows.Next() {
		river, err := r.scanRiver(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan river: %w", err)
		}
		rivers = append(rivers, river)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rivers: %w", err)
	}

	return rivers, nil
}

// UpdateRiver updates a river's mutable fields. The owner column is never
// part of the update set.
func (r *Repository) UpdateRiver(ctx context.Context, river *model.River) error {
	coords, err := json.Marshal(river.Coordinates)
	if err != nil {
		return fmt.Errorf("failed to encode coordinates: %w", err)
	}

	query := `
		UPDATE rivers
		SET name = $2, feature = $3, state = $4, region = $5, miles = $6, geometry_type = $7, coordinates = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		river.ID,
		river.Name,
		river.Feature,
		river.State,
		river.Region,
		river.Miles,
		river.GeometryType,
		coords,
		river.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update river: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrRiverNotFound
	}

	return nil
}

// DeleteRiver removes a river.
func (r *Repository) DeleteRiver(ctx context.Context, id string) error {
	query := `DELETE FROM rivers WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete river: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrRiverNotFound
	}

	return nil
}

// scanRiver scans a single row into a River model.
func (r *Repository) scanRiver(row pgx.Row) (*model.River, error) {
	var river model.River
	var coords []byte
	err := row.Scan(
		&river.ID,
		&river.OwnerID,
		&river.Name,
		&river.Feature,
		&river.State,
		&river.Region,
		&river.Miles,
		&river.GeometryType,
		&coords,
		&river.CreatedAt,
		&river.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(coords, &river.Coordinates); err != nil {
		return nil, fmt.Errorf("failed to decode coordinates: %w", err)
	}

	return &river, nil
}
