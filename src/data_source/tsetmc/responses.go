package tsetmc

// Response payloads of the TSETMC CDN JSON API. Field names follow the
// upstream keys.

type MarketWatchResponse struct {
	MarketWatch []MarketWatchItem `json:"marketwatch"`
}

type MarketWatchItem struct {
	InsCode        string         `json:"insCode"`
	InsID          string         `json:"insID"`
	Ticker         string         `json:"lVal18AFC"`
	Name           string         `json:"lVal30"`
	PClosing       float64        `json:"pClosing"`
	PDrCotVal      float64        `json:"pDrCotVal"`
	PriceYesterday float64        `json:"priceYesterday"`
	PriceFirst     float64        `json:"priceFirst"`
	PriceMin       float64        `json:"priceMin"`
	PriceMax       float64        `json:"priceMax"`
	ZTotTran       int64          `json:"zTotTran"`
	QTotTran5J     int64          `json:"qTotTran5J"`
	QTotCap        float64        `json:"qTotCap"`
	HEven          int            `json:"hEven"`
	BestLimits     []BestLimitRow `json:"blDs"`
}

type BestLimitRow struct {
	Number    int     `json:"number"`
	QTitMeDem int64   `json:"qTitMeDem"`
	ZOrdMeDem int64   `json:"zOrdMeDem"`
	PMeDem    float64 `json:"pMeDem"`
	PMeOf     float64 `json:"pMeOf"`
	QTitMeOf  int64   `json:"qTitMeOf"`
	ZOrdMeOf  int64   `json:"zOrdMeOf"`
	RefID     int64   `json:"refID"`
}

type ClientTypeResponse struct {
	ClientTypes []ClientTypeItem `json:"clientTypeAllDto"`
}

// ClientTypeItem uses the upstream naming: "I" is individual (natural),
// "N" is non-individual (legal).
type ClientTypeItem struct {
	InsCode     string `json:"insCode"`
	BuyCountI   int64  `json:"buy_CountI"`
	BuyCountN   int64  `json:"buy_CountN"`
	BuyIVolume  int64  `json:"buy_I_Volume"`
	BuyNVolume  int64  `json:"buy_N_Volume"`
	SellCountI  int64  `json:"sell_CountI"`
	SellCountN  int64  `json:"sell_CountN"`
	SellIVolume int64  `json:"sell_I_Volume"`
	SellNVolume int64  `json:"sell_N_Volume"`
}
