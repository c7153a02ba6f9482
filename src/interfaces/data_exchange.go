package interfaces

import (
	"context"

	"tsetmc-pusher/src/models"
)

// -----------------------------------------------------------------------------
// IDataExchanger defines the contract for pushing repository changes to subscribers.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	IChangePublisher

	// -----------------------------------------------------------------------------
	// Start serves subscribers until ctx is done, then closes every connection.
	Start(ctx context.Context) error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}

// -----------------------------------------------------------------------------
// IChangePublisher is the hand-off from repository merges to the broadcast path.
// -----------------------------------------------------------------------------

type IChangePublisher interface {
	// Publish hands a batch of changes to the broadcast path. It must not block
	// the caller on slow subscribers.
	Publish(changes []models.MChange)
}
