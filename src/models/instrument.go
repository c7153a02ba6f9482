package models

import "time"

// ISINLength is the fixed length of an instrument ISIN.
const ISINLength = 12

// MInstrumentIdentification is created once per ISIN and never mutated.
type MInstrumentIdentification struct {
	ISIN    string `json:"isin"`
	TseCode string `json:"tse_code"`
	Ticker  string `json:"ticker"`
	Name    string `json:"name"`
}

// MTradeCandle is the intraday trade summary of an instrument.
type MTradeCandle struct {
	PreviousPrice float64   `json:"previous_price"`
	OpenPrice     float64   `json:"open_price"`
	ClosePrice    float64   `json:"close_price"`
	LastPrice     float64   `json:"last_price"`
	MinPrice      float64   `json:"min_price"`
	MaxPrice      float64   `json:"max_price"`
	TradeVolume   int64     `json:"trade_volume"`
	TradeValue    int64     `json:"trade_value"`
	TradeNum      int64     `json:"trade_num"`
	LastTradeTime time.Time `json:"last_trade_time"`
}

// MOrderBookSide is one side (demand or supply) of a book row.
type MOrderBookSide struct {
	Num    int64   `json:"num"`
	Volume int64   `json:"volume"`
	Price  float64 `json:"price"`
}

// MOrderBookRow is a ranked row of an instrument's order book.
// Rank is 1-based; RowID is the upstream row identifier used for the cursor.
type MOrderBookRow struct {
	Rank   int            `json:"rank"`
	RowID  int64          `json:"row_id"`
	Demand MOrderBookSide `json:"demand"`
	Supply MOrderBookSide `json:"supply"`
}

// SameQuote reports whether two rows carry identical demand and supply values.
func (r MOrderBookRow) SameQuote(o MOrderBookRow) bool {
	return r.Demand == o.Demand && r.Supply == o.Supply
}

type MClientTypeSide struct {
	Num    int64 `json:"num"`
	Volume int64 `json:"volume"`
}

type MClientTypeClass struct {
	Buy  MClientTypeSide `json:"buy"`
	Sell MClientTypeSide `json:"sell"`
}

// MClientType aggregates trades by investor class.
type MClientType struct {
	Legal   MClientTypeClass `json:"legal"`
	Natural MClientTypeClass `json:"natural"`
}

// MInstrument is the full realtime state kept per ISIN.
type MInstrument struct {
	Identification MInstrumentIdentification `json:"identification"`
	Trade          MTradeCandle              `json:"trade"`
	OrderBook      []MOrderBookRow           `json:"orderbook"`
	ClientType     MClientType               `json:"client_type"`
}

// Clone returns a deep copy safe to read outside the repository lock.
func (i *MInstrument) Clone() MInstrument {
	c := *i
	c.OrderBook = make([]MOrderBookRow, len(i.OrderBook))
	copy(c.OrderBook, i.OrderBook)
	return c
}
