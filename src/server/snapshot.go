package server

import (
	"time"

	"tsetmc-pusher/src/models"
)

// Wire shapes of per-topic snapshots. A message maps ISIN to topic name to
// one of these arrays, e.g. {"IRO1FOLD0001":{"trade":[...]}}.

type InstrumentPayload map[string]interface{}

type SnapshotMessage map[string]InstrumentPayload

// -----------------------------------------------------------------------------

// TradeSnapshot is [close, last, last trade time, max, min, open, previous,
// trade count, trade value, trade volume].
func TradeSnapshot(t models.MTradeCandle) []interface{} {
	lastTime := ""
	if !t.LastTradeTime.IsZero() {
		lastTime = t.LastTradeTime.Format(time.DateTime)
	}
	return []interface{}{
		t.ClosePrice,
		t.LastPrice,
		lastTime,
		t.MaxPrice,
		t.MinPrice,
		t.OpenPrice,
		t.PreviousPrice,
		t.TradeNum,
		t.TradeValue,
		t.TradeVolume,
	}
}

// OrderBookSnapshot encodes each row as [rank, demand count, demand volume,
// demand price, supply price, supply volume, supply count], in rank order.
func OrderBookSnapshot(rows []models.MOrderBookRow) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		out = append(out, []interface{}{
			r.Rank,
			r.Demand.Num,
			r.Demand.Volume,
			r.Demand.Price,
			r.Supply.Price,
			r.Supply.Volume,
			r.Supply.Num,
		})
	}
	return out
}

// ClientTypeSnapshot is legal buy/sell then natural buy/sell, count before volume.
func ClientTypeSnapshot(ct models.MClientType) []int64 {
	return []int64{
		ct.Legal.Buy.Num,
		ct.Legal.Buy.Volume,
		ct.Legal.Sell.Num,
		ct.Legal.Sell.Volume,
		ct.Natural.Buy.Num,
		ct.Natural.Buy.Volume,
		ct.Natural.Sell.Num,
		ct.Natural.Sell.Volume,
	}
}

// -----------------------------------------------------------------------------

// TopicSnapshot builds the snapshot of one topic.
func TopicSnapshot(inst models.MInstrument, topic models.Topic) interface{} {
	switch topic {
	case models.TopicTrade:
		return TradeSnapshot(inst.Trade)
	case models.TopicOrderBook:
		return OrderBookSnapshot(inst.OrderBook)
	case models.TopicClientType:
		return ClientTypeSnapshot(inst.ClientType)
	}
	return nil
}

// InstrumentSnapshot builds the payload of inst for the given topics.
func InstrumentSnapshot(inst models.MInstrument, topics []models.Topic) InstrumentPayload {
	payload := make(InstrumentPayload, len(topics))
	for _, t := range topics {
		payload[t.String()] = TopicSnapshot(inst, t)
	}
	return payload
}
