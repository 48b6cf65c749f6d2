package providers

import (
	"context"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/entities"
)

// DrugLabelProvider searches approved drug labels by indication text
type DrugLabelProvider interface {
	// SearchByIndication returns up to limit parsed label rows whose
	// indications field matches term. No matches is an empty slice, not an error.
	SearchByIndication(ctx context.Context, term string, limit int) ([]entities.TreatmentEntry, error)
}
