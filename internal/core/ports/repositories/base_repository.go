package repositories

import (
	"context"
)

// TransactionManager runs work atomically. Repositories called with the ctx handed to fn
// join the same transaction; calls made with any other ctx do not.
type TransactionManager interface {
	// WithinTx runs fn in a transaction, committing if fn returns nil and rolling back otherwise.
	// Nested calls reuse the outer transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	// WithoutTx returns a ctx whose writes bypass any transaction carried by ctx.
	// Used for side effects that must persist even when the surrounding unit rolls back.
	WithoutTx(ctx context.Context) context.Context
}
