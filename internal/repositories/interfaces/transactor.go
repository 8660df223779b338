package interfaces

import "context"

// Transactor runs fn as one atomic unit. Repositories called with the ctx
// passed to fn take part in the unit.
type Transactor interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
}
