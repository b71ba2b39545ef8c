// Package model defines domain entities for the application.
package model

import (
	"errors"
	"time"
)

// Geometry type tags commonly found in the source data.
const (
	GeometryLineString = "LineString"
	GeometryPoint      = "Point"
)

// Coordinate validation errors.
var (
	ErrCoordinatesEmpty = errors.New("coordinates must not be empty")
	ErrCoordinatePair   = errors.New("each coordinate must have exactly 2 components")
)

// River represents a named geographic line feature with a coordinate path.
// The owner is fixed at creation time and controls write access.
type River struct {
	ID           string      `json:"id"`
	OwnerID      string      `json:"owner_id"`
	Name         string      `json:"name"`
	Feature      string      `json:"feature"`
	State        string      `json:"state"`
	Region       int         `json:"region"`
	Miles        float64     `json:"miles"`
	GeometryType string      `json:"geometry_type"`
	Coordinates  [][]float64 `json:"coordinates"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// ValidateCoordinates checks that a coordinate path is non-empty and that
// every element is a [longitude, latitude] pair.
func ValidateCoordinates(coords [][]float64) error {
	if len(coords) == 0 {
		return ErrCoordinatesEmpty
	}
	for _, pair := range coords {
		if len(pair) != 2 {
			return ErrCoordinatePair
		}
	}
	return nil
}
