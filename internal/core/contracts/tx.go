package contracts

import "context"

// TxManager runs fn inside one store transaction. Repository calls made with
// the context fn receives join that transaction.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
