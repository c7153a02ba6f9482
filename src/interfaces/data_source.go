package interfaces

import (
	"context"

	"tsetmc-pusher/src/models"
)

// -----------------------------------------------------------------------------
// IMarketSource fetches incremental snapshots from the exchange.
// -----------------------------------------------------------------------------

type IMarketSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchTradeSnapshot returns trade candles and order books newer than cursor.
	// A zero cursor requests a full snapshot.
	FetchTradeSnapshot(ctx context.Context, cursor models.MFetchCursor) ([]models.MTradeRecord, error)

	// -----------------------------------------------------------------------------

	// FetchClientTypeSnapshot returns the legal/natural aggregates per instrument.
	FetchClientTypeSnapshot(ctx context.Context, cursor models.MFetchCursor) ([]models.MClientTypeRecord, error)
}
