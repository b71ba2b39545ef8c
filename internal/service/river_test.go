package service

import (
	"context"
	"errors"
	"testing"

	"github.com/riverlog/riverlog/internal/model"
)

func TestCreateRiver_ValidationErrors(t *testing.T) {
	t.Parallel()

	svc := &RiverService{}

	valid := CreateRiverInput{
		OwnerID:      "user-a",
		Name:         "Rogue River",
		Feature:      "Stream",
		State:        "OR",
		Region:       1,
		Miles:        47.3,
		GeometryType: model.GeometryLineString,
		Coordinates:  [][]float64{{-159.556, 63.897}},
	}

	tests := []struct {
		name    string
		mutate  func(*CreateRiverInput)
		wantErr error
	}{
		{"missing_owner", func(in *CreateRiverInput) { in.OwnerID = "" }, ErrOwnerRequired},
		{"empty_coordinates", func(in *CreateRiverInput) { in.Coordinates = nil }, model.ErrCoordinatesEmpty},
		{"single_component", func(in *CreateRiverInput) { in.Coordinates = [][]float64{{-159.556}} }, model.ErrCoordinatePair},
		{"three_components", func(in *CreateRiverInput) { in.Coordinates = [][]float64{{1, 2, 3}} }, model.ErrCoordinatePair},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			input := valid
			test.mutate(&input)
			if _, err := svc.CreateRiver(context.Background(), input); !errors.Is(err, test.wantErr) {
				t.Errorf("CreateRiver() error = %v, want %v", err, test.wantErr)
			}
		})
	}
}
