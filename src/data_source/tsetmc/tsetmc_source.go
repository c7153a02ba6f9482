package tsetmc

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"tsetmc-pusher/src/helpers"
	"tsetmc-pusher/src/interfaces"
	"tsetmc-pusher/src/logger"
	"tsetmc-pusher/src/models"
	"tsetmc-pusher/src/utils"
)

const (
	MarketWatchPath = "/api/ClosingPrice/GetMarketWatch"
	ClientTypePath  = "/api/ClientType/GetClientTypeAll"
)

// TsetmcSource fetches market watch and client type snapshots from the
// TSETMC CDN. It learns the insCode to ISIN mapping from market watch
// responses, since client type rows carry only the insCode.
type TsetmcSource struct {
	Config   *models.MConfig
	Network  interfaces.INetworkManager
	Logger   *logger.Logger
	Location *time.Location

	registryMu sync.RWMutex
	registry   map[string]string // insCode -> ISIN

	now func() time.Time
}

// -----------------------------------------------------------------------------

func NewTsetmcSource(cfg *models.MConfig, netMgr interfaces.INetworkManager, loc *time.Location, log *logger.Logger) *TsetmcSource {
	if loc == nil {
		loc = time.FixedZone("IRST", utils.IranStandardOffset)
	}
	return &TsetmcSource{
		Config:   cfg,
		Network:  netMgr,
		Logger:   log,
		Location: loc,
		registry: make(map[string]string),
		now:      time.Now,
	}
}

// -----------------------------------------------------------------------------

func (s *TsetmcSource) Name() string {
	return "tsetmc"
}

// -----------------------------------------------------------------------------

// FetchTradeSnapshot requests market watch rows newer than cursor.
func (s *TsetmcSource) FetchTradeSnapshot(ctx context.Context, cursor models.MFetchCursor) ([]models.MTradeRecord, error) {
	params := map[string]string{
		"market":          "0",
		"industrialGroup": "",
		"paperTypes[0]":   "1",
		"paperTypes[1]":   "2",
		"paperTypes[2]":   "3",
		"paperTypes[3]":   "4",
		"paperTypes[4]":   "5",
		"paperTypes[5]":   "6",
		"paperTypes[6]":   "7",
		"paperTypes[7]":   "8",
		"paperTypes[8]":   "9",
		"showTraded":      "false",
		"withBestLimits":  "true",
		"hEven":           strconv.Itoa(cursor.TradeTime),
		"RefID":           strconv.FormatInt(cursor.OrderBookRowID, 10),
	}

	body, err := s.Network.Get(ctx, s.url(MarketWatchPath), params)
	if err != nil {
		return nil, err
	}

	var resp MarketWatchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, helpers.NewDataSourceError("market watch payload", err)
	}

	day := s.now().In(s.Location)
	depth := s.Config.DataSource.OrderBookDepth

	records := make([]models.MTradeRecord, 0, len(resp.MarketWatch))
	for _, item := range resp.MarketWatch {
		if len(item.InsID) != models.ISINLength {
			continue
		}
		s.remember(item.InsCode, item.InsID)
		records = append(records, item.toRecord(day, depth))
	}

	s.Logger.Debug("Market watch: %d records (hEven=%d RefID=%d)", len(records), cursor.TradeTime, cursor.OrderBookRowID)
	return records, nil
}

// -----------------------------------------------------------------------------

// FetchClientTypeSnapshot requests the client type table. The endpoint always
// returns the full table; rows of instruments not yet seen in market watch
// are skipped.
func (s *TsetmcSource) FetchClientTypeSnapshot(ctx context.Context, _ models.MFetchCursor) ([]models.MClientTypeRecord, error) {
	body, err := s.Network.Get(ctx, s.url(ClientTypePath), nil)
	if err != nil {
		return nil, err
	}

	var resp ClientTypeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, helpers.NewDataSourceError("client type payload", err)
	}

	records := make([]models.MClientTypeRecord, 0, len(resp.ClientTypes))
	skipped := 0
	for _, item := range resp.ClientTypes {
		isin, ok := s.lookup(item.InsCode)
		if !ok {
			skipped++
			continue
		}
		records = append(records, item.toRecord(isin))
	}

	if skipped > 0 {
		s.Logger.Debug("Client type: skipped %d unknown instrument codes", skipped)
	}
	return records, nil
}

// -----------------------------------------------------------------------------

func (s *TsetmcSource) url(path string) string {
	return strings.TrimRight(s.Config.DataSource.BaseURL, "/") + path
}

func (s *TsetmcSource) remember(insCode, isin string) {
	if insCode == "" {
		return
	}
	s.registryMu.Lock()
	s.registry[insCode] = isin
	s.registryMu.Unlock()
}

func (s *TsetmcSource) lookup(insCode string) (string, bool) {
	s.registryMu.RLock()
	defer s.registryMu.RUnlock()
	isin, ok := s.registry[insCode]
	return isin, ok
}

// -----------------------------------------------------------------------------
// Payload mapping
// -----------------------------------------------------------------------------

func (item MarketWatchItem) toRecord(day time.Time, depth int) models.MTradeRecord {
	rec := models.MTradeRecord{
		Identification: models.MInstrumentIdentification{
			ISIN:    item.InsID,
			TseCode: item.InsCode,
			Ticker:  strings.TrimSpace(item.Ticker),
			Name:    strings.TrimSpace(item.Name),
		},
		Trade: models.MTradeCandle{
			PreviousPrice: item.PriceYesterday,
			OpenPrice:     item.PriceFirst,
			ClosePrice:    item.PClosing,
			LastPrice:     item.PDrCotVal,
			MinPrice:      item.PriceMin,
			MaxPrice:      item.PriceMax,
			TradeVolume:   item.QTotTran5J,
			TradeValue:    int64(item.QTotCap),
			TradeNum:      item.ZTotTran,
		},
	}
	if item.HEven > 0 {
		rec.Trade.LastTradeTime = utils.DecodeHEven(day, item.HEven)
	}

	for _, bl := range item.BestLimits {
		if bl.Number <= 0 || bl.Number > depth {
			continue
		}
		rec.OrderBook = append(rec.OrderBook, models.MOrderBookRow{
			Rank:   bl.Number,
			RowID:  bl.RefID,
			Demand: models.MOrderBookSide{Num: bl.ZOrdMeDem, Volume: bl.QTitMeDem, Price: bl.PMeDem},
			Supply: models.MOrderBookSide{Num: bl.ZOrdMeOf, Volume: bl.QTitMeOf, Price: bl.PMeOf},
		})
	}
	return rec
}

func (item ClientTypeItem) toRecord(isin string) models.MClientTypeRecord {
	return models.MClientTypeRecord{
		ISIN:    isin,
		TseCode: item.InsCode,
		ClientType: models.MClientType{
			Legal: models.MClientTypeClass{
				Buy:  models.MClientTypeSide{Num: item.BuyCountN, Volume: item.BuyNVolume},
				Sell: models.MClientTypeSide{Num: item.SellCountN, Volume: item.SellNVolume},
			},
			Natural: models.MClientTypeClass{
				Buy:  models.MClientTypeSide{Num: item.BuyCountI, Volume: item.BuyIVolume},
				Sell: models.MClientTypeSide{Num: item.SellCountI, Volume: item.SellIVolume},
			},
		},
	}
}
