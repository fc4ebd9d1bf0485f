// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/ahrav/go-caliper/internal/domain"
)

// Unit is the building block of the evaluation pipeline. Each Unit performs
// one transformation on the evaluation State: querying the model, judging
// correctness, counting hedge markers, or aggregating results.
// Units must be stateless between calls; every output is a pure function of
// the input State and the unit's immutable configuration.
type Unit interface {
	// Name returns a unique identifier for this unit, used for logging,
	// tracing, and configuration.
	Name() string

	// Execute performs the unit's transformation on the provided State.
	// It returns a new State containing the results; the original State
	// is never modified. Errors are returned, never panicked.
	//
	// The context allows cancellation and deadline propagation for units
	// that block (in practice only the model-query unit; the scoring
	// units are pure computation and never suspend).
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// Validate checks that the unit is properly configured and ready for
	// execution. It is called during pipeline construction. Return nil if
	// validation passes, or an error describing what is invalid.
	Validate() error
}
