package xpbd

import (
	"errors"
	"fmt"
)

// Construction-time errors. The solver itself never returns errors: degenerate
// geometry during a substep is skipped locally.
var (
	// ErrUnknownParticle indicates a constraint referencing a particle id that
	// is not in the scene.
	ErrUnknownParticle = errors.New("xpbd: unknown particle id")

	// ErrDuplicateParticle indicates a two-particle constraint whose ends are
	// the same particle.
	ErrDuplicateParticle = errors.New("xpbd: constraint endpoints are the same particle")

	// ErrDegenerateRing indicates a volume ring with fewer than three particles.
	ErrDegenerateRing = errors.New("xpbd: volume ring needs at least three particles")

	// ErrDegeneratePolygon indicates a polygon with fewer than three vertices.
	ErrDegeneratePolygon = errors.New("xpbd: polygon needs at least three vertices")

	// ErrInvalidParams indicates solver parameters outside their valid range.
	ErrInvalidParams = errors.New("xpbd: invalid solver parameters")
)

// BuildError wraps a construction error with the offending element.
type BuildError struct {
	Kind    string
	Index   int
	Wrapped error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Kind, e.Index, e.Wrapped)
}

func (e *BuildError) Unwrap() error {
	return e.Wrapped
}
