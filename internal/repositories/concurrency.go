package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/aftras/crm/internal/docstore"
	"github.com/aftras/crm/internal/metrics"
	"github.com/aftras/crm/internal/utils"
)

// DefaultMaxRetries bounds WithRetry for the workflows.
const DefaultMaxRetries = 3

/*
WithRetry runs fn in a store transaction, re-running it when the commit
loses a write conflict. Any other error ends the loop.
*/
func WithRetry(
	ctx context.Context,
	store docstore.Store,
	maxRetries int,
	fn func(ctx context.Context, tx docstore.Tx) error,
) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = store.RunInTransaction(ctx, fn)
		if !errors.Is(err, docstore.ErrConflict) {
			return err
		}
		metrics.TransactionRetries.Inc()
		utils.Logger.WithError(err).Debugf("Transaction conflict on attempt %d/%d", attempt+1, maxRetries)
		// someone else committed first – retry
	}
	return fmt.Errorf("too much contention after %d attempts: %w", maxRetries, err)
}
