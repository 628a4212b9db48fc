package repository

import "context"

// TxRunner executes fn inside a single multi-document transaction when the
// storage deployment supports sessions, so a state mutation and its audit
// append either both commit or neither does. Implementations without
// transaction support run fn directly.
type TxRunner interface {
	RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
