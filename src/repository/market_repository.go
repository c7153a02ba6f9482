package repository

import (
	"sync"

	"tsetmc-pusher/src/models"
)

// MarketRepository owns the per-ISIN market state. Every merge runs under the
// write lock; readers get deep copies under the read lock.
type MarketRepository struct {
	mu          sync.RWMutex
	instruments map[string]*models.MInstrument
}

// -----------------------------------------------------------------------------

func NewMarketRepository() *MarketRepository {
	return &MarketRepository{
		instruments: make(map[string]*models.MInstrument),
	}
}

// -----------------------------------------------------------------------------

// ApplyTradeSnapshot merges trade candles and order books and returns one
// change per (ISIN, topic) that actually moved.
func (r *MarketRepository) ApplyTradeSnapshot(batch []models.MTradeRecord) []models.MChange {
	r.mu.Lock()
	defer r.mu.Unlock()

	var changes []models.MChange
	for _, rec := range batch {
		if rec.Identification.ISIN == "" {
			continue
		}
		inst, created := r.findOrCreate(rec.Identification)

		switch {
		case created:
			// an untraded instrument still carries its reference prices
			inst.Trade = rec.Trade
			if !emptyCandle(rec.Trade) {
				changes = append(changes, models.MChange{ISIN: inst.Identification.ISIN, Topic: models.TopicTrade})
			}
		case !inst.Trade.LastTradeTime.Equal(rec.Trade.LastTradeTime):
			inst.Trade = rec.Trade
			changes = append(changes, models.MChange{ISIN: inst.Identification.ISIN, Topic: models.TopicTrade})
		}

		if len(rec.OrderBook) > 0 {
			var updated int
			inst.OrderBook, updated = mergeOrderBook(inst.OrderBook, rec.OrderBook)
			if updated > 0 {
				changes = append(changes, models.MChange{ISIN: inst.Identification.ISIN, Topic: models.TopicOrderBook})
			}
		}
	}
	return changes
}

// -----------------------------------------------------------------------------

// ApplyClientTypeSnapshot replaces the client type aggregate of each instrument.
// Identical aggregates are not reported.
func (r *MarketRepository) ApplyClientTypeSnapshot(batch []models.MClientTypeRecord) []models.MChange {
	r.mu.Lock()
	defer r.mu.Unlock()

	var changes []models.MChange
	for _, rec := range batch {
		if rec.ISIN == "" {
			continue
		}
		inst, _ := r.findOrCreate(models.MInstrumentIdentification{ISIN: rec.ISIN, TseCode: rec.TseCode})
		if inst.ClientType == rec.ClientType {
			continue
		}
		inst.ClientType = rec.ClientType
		changes = append(changes, models.MChange{ISIN: rec.ISIN, Topic: models.TopicClientType})
	}
	return changes
}

// -----------------------------------------------------------------------------

// GetInstrument returns a copy of the instrument, or false when the ISIN has
// not been observed yet.
func (r *MarketRepository) GetInstrument(isin string) (models.MInstrument, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inst, ok := r.instruments[isin]
	if !ok {
		return models.MInstrument{}, false
	}
	return inst.Clone(), true
}

// Len returns the number of known instruments.
func (r *MarketRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instruments)
}

// -----------------------------------------------------------------------------

// findOrCreate must be called with the write lock held. It reports whether
// the instrument was created.
func (r *MarketRepository) findOrCreate(id models.MInstrumentIdentification) (*models.MInstrument, bool) {
	if inst, ok := r.instruments[id.ISIN]; ok {
		return inst, false
	}
	inst := &models.MInstrument{Identification: id}
	r.instruments[id.ISIN] = inst
	return inst, true
}

// emptyCandle reports whether c carries no prices and no trade time.
func emptyCandle(c models.MTradeCandle) bool {
	return c.LastTradeTime.IsZero() && c == models.MTradeCandle{LastTradeTime: c.LastTradeTime}
}
