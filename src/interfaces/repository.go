package interfaces

import "tsetmc-pusher/src/models"

// -----------------------------------------------------------------------------
// IMarketRepository owns per-instrument state and reports what a merge changed.
// -----------------------------------------------------------------------------

type IMarketRepository interface {
	IInstrumentReader

	// -----------------------------------------------------------------------------

	// ApplyTradeSnapshot merges candles and order books.
	ApplyTradeSnapshot(batch []models.MTradeRecord) []models.MChange

	// -----------------------------------------------------------------------------

	// ApplyClientTypeSnapshot replaces client type aggregates.
	ApplyClientTypeSnapshot(batch []models.MClientTypeRecord) []models.MChange
}

// -----------------------------------------------------------------------------
// IInstrumentReader is the read side used to build snapshots.
// -----------------------------------------------------------------------------

type IInstrumentReader interface {

	// GetInstrument returns a copy of the instrument state, if any.
	GetInstrument(isin string) (models.MInstrument, bool)

	// -----------------------------------------------------------------------------

	// Len returns the number of known instruments.
	Len() int
}
