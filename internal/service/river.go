// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/riverlog/riverlog/internal/model"
	"github.com/riverlog/riverlog/internal/repository"
)

// River service errors.
var (
	ErrRiverNotFound = errors.New("river not found")
	ErrOwnerRequired = errors.New("owner is required")
)

// RiverService handles river business logic.
type RiverService struct {
	repo *repository.Repository
}

// NewRiverService creates a new RiverService.
func NewRiverService(repo *repository.Repository) *RiverService {
	return &RiverService{repo: repo}
}

// CreateRiverInput defines input for creating a river. OwnerID always
// comes from the authenticated caller, never from a request payload.
type CreateRiverInput struct {
	OwnerID      string
	Name         string
	Feature      string
	State        string
	Region       int
	Miles        float64
	GeometryType string
	Coordinates  [][]float64
}

// CreateRiver validates and persists a new river.
func (s *RiverService) CreateRiver(ctx context.Context, input CreateRiverInput) (*model.River, error) {
	if input.OwnerID == "" {
		return nil, ErrOwnerRequired
	}
	if err := model.ValidateCoordinates(input.Coordinates); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	river := &model.River{
		ID:           ulid.Make().String(),
		OwnerID:      input.OwnerID,
		Name:         input.Name,
		Feature:      input.Feature,
		State:        input.State,
		Region:       input.Region,
		Miles:        input.Miles,
		GeometryType: input.GeometryType,
		Coordinates:  input.Coordinates,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateRiver(ctx, river); err != nil {
		return nil, err
	}

	return river, nil
}

// GetRiver retrieves a river by ID.
func (s *RiverService) GetRiver(ctx context.Context, id string) (*model.River, error) {
	river, err := s.repo.GetRiverByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRiverNotFound) {
			return nil, ErrRiverNotFound
		}
		return nil, err
	}
	return river, nil
}

// ListRivers retrieves all rivers, newest first.
func (s *RiverService) ListRivers(ctx context.Context) ([]*model.River, error) {
	return s.repo.ListRivers(ctx)
}

// UpdateRiverInput defines input for updating a river. Nil fields are left
// untouched; a full update supplies every field. There is no owner field:
// the stored owner never changes.
type UpdateRiverInput struct {
	Name         *string
	Feature      *string
	State        *string
	Region       *int
	Miles        *float64
	GeometryType *string
	Coordinates  [][]float64
}

// UpdateRiver applies the provided fields to a river and persists it.
func (s *RiverService) UpdateRiver(ctx context.Context, id string, input UpdateRiverInput) (*model.River, error) {
	river, err := s.GetRiver(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		river.Name = *input.Name
	}
	if input.Feature != nil {
		river.Feature = *input.Feature
	}
	if input.State != nil {
		river.State = *input.State
	}
	if input.Region != nil {
		river.Region = *input.Region
	}
	if input.Miles != nil {
		river.Miles = *input.Miles
	}
	if input.GeometryType != nil {
		river.GeometryType = *input.GeometryType
	}
	if input.Coordinates != nil {
		if err := model.ValidateCoordinates(input.Coordinates); err != nil {
			return nil, err
		}
		river.Coordinates = input.Coordinates
	}

	river.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateRiver(ctx, river); err != nil {
		if errors.Is(err, repository.ErrRiverNotFound) {
			return nil, ErrRiverNotFound
		}
		return nil, err
	}

	return river, nil
}

// DeleteRiver removes a river.
func (s *RiverService) DeleteRiver(ctx context.Context, id string) error {
	if err := s.repo.DeleteRiver(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRiverNotFound) {
			return ErrRiverNotFound
		}
		return err
	}
	return nil
}
