package port

import "context"

// Stores bundles the repositories bound to one transaction.
type Stores struct {
	Users      UserRepository
	ResetCodes ResetCodeRepository
}

// UnitOfWork executes a function within a single store transaction. Every
// write issued through the supplied Stores either commits as a unit when fn
// returns nil or rolls back entirely when fn returns an error. The
// transaction handle is explicit: repositories outside fn never observe it.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}
