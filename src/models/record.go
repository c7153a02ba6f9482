package models

// MTradeRecord is one instrument entry of an upstream trade snapshot.
type MTradeRecord struct {
	Identification MInstrumentIdentification
	Trade          MTradeCandle
	OrderBook      []MOrderBookRow
}

// MClientTypeRecord is one instrument entry of an upstream client-type snapshot.
type MClientTypeRecord struct {
	ISIN       string
	TseCode    string
	ClientType MClientType
}

// MFetchCursor is the watermark sent upstream to request only newer data.
// TradeTime is encoded as HH*10000+MM*100+SS.
type MFetchCursor struct {
	TradeTime      int   `json:"trade_time"`
	OrderBookRowID int64 `json:"orderbook_row_id"`
}
