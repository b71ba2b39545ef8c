// Package dto provides Data Transfer Objects for API requests and responses.
//
// Rivers have two projections: Summary (list) omits the coordinate path,
// Detail (everything else) includes it. Request DTOs carry no owner field,
// so an owner supplied in a payload is dropped during decoding.
package dto

import (
	"github.com/riverlog/riverlog/internal/model"
)

// CreateRiverRequest represents the request body for creating a river.
// Numeric fields are pointers so that absent and zero can be told apart.
type CreateRiverRequest struct {
	Name         string      `json:"name"`
	Feature      string      `json:"feature"`
	State        string      `json:"state"`
	Region       *int        `json:"region"`
	Miles        *float64    `json:"miles"`
	GeometryType string      `json:"geometry_type"`
	Coordinates  [][]float64 `json:"coordinates"`
}

// Validate checks the request and returns per-field error messages.
// An empty map means the request is valid.
func (r *CreateRiverRequest) Validate() map[string]string {
	fields := make(map[string]string)

	if r.Name == "" {
		fields["name"] = "this field is required"
	}
	if r.Feature == "" {
		fields["feature"] = "this field is required"
	}
	if r.State == "" {
		fields["state"] = "this field is required"
	}
	if r.Region == nil {
		fields["region"] = "this field is required"
	}
	if r.Miles == nil {
		fields["miles"] = "this field is required"
	}
	if r.GeometryType == "" {
		fields["geometry_type"] = "this field is required"
	}
	if msg := validateCoordinates(r.Coordinates); msg != "" {
		fields["coordinates"] = msg
	}

	return fields
}

// UpdateRiverRequest represents the request body for updating a river.
// Nil fields were absent from the payload.
type UpdateRiverRequest struct {
	Name         *string     `json:"name"`
	Feature      *string     `json:"feature"`
	State        *string     `json:"state"`
	Region       *int        `json:"region"`
	Miles        *float64    `json:"miles"`
	GeometryType *string     `json:"geometry_type"`
	Coordinates  [][]float64 `json:"coordinates"`
}

// Validate checks the supplied fields. When full is true every writable
// field must be present (PUT); otherwise any subset is accepted (PATCH).
func (r *UpdateRiverRequest) Validate(full bool) map[string]string {
	fields := make(map[string]string)

	if full {
		if r.Name == nil {
			fields["name"] = "this field is required"
		}
		if r.Feature == nil {
			fields["feature"] = "this field is required"
		}
		if r.State == nil {
			fields["state"] = "this field is required"
		}
		if r.Region == nil {
			fields["region"] = "this field is required"
		}
		if r.Miles == nil {
			fields["miles"] = "this field is required"
		}
		if r.GeometryType == nil {
			fields["geometry_type"] = "this field is required"
		}
		if r.Coordinates == nil {
			fields["coordinates"] = "this field is required"
		}
	}

	if r.Coordinates != nil {
		if msg := validateCoordinates(r.Coordinates); msg != "" {
			fields["coordinates"] = msg
		}
	}

	return fields
}

// validateCoordinates renders a coordinate validation failure as a wire
// message, or "" when the path is valid.
func validateCoordinates(coords [][]float64) string {
	switch err := model.ValidateCoordinates(coords); err {
	case nil:
		return ""
	case model.ErrCoordinatesEmpty:
		return "coordinates must not be empty"
	case model.ErrCoordinatePair:
		return "each coordinate must be a [longitude, latitude] pair"
	default:
		return "invalid coordinates"
	}
}

// RiverSummary is the list projection of a river: no coordinates.
type RiverSummary struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Feature      string  `json:"feature"`
	State        string  `json:"state"`
	Region       int     `json:"region"`
	Miles        float64 `json:"miles"`
	GeometryType string  `json:"geometry_type"`
}

// RiverDetail is the full projection of a river, including coordinates.
type RiverDetail struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Feature      string      `json:"feature"`
	State        string      `json:"state"`
	Region       int         `json:"region"`
	Miles        float64     `json:"miles"`
	GeometryType string      `json:"geometry_type"`
	Coordinates  [][]float64 `json:"coordinates"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ValidationErrorResponse is a 400 response with per-field messages.
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

// ToRiverSummary converts a River model to its summary projection.
func ToRiverSummary(river *model.River) RiverSummary {
	return RiverSummary{
		ID:           river.ID,
		Name:         river.Name,
		Feature:      river.Feature,
		State:        river.State,
		Region:       river.Region,
		Miles:        river.Miles,
		GeometryType: river.GeometryType,
	}
}

// ToRiverSummaries converts a slice of rivers to summary projections.
func ToRiverSummaries(rivers []*model.River) []RiverSummary {
	summaries := make([]RiverSummary, len(rivers))
	for i, river := range rivers {
		summaries[i] = ToRiverSummary(river)
	}
	return summaries
}

// ToRiverDetail converts a River model to its detail projection.
func ToRiverDetail(river *model.River) RiverDetail {
	return RiverDetail{
		ID:           river.ID,
		Name:         river.Name,
		Feature:      river.Feature,
		State:        river.State,
		Region:       river.Region,
		Miles:        river.Miles,
		GeometryType: river.GeometryType,
		Coordinates:  river.Coordinates,
	}
}
