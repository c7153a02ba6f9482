package tsetmc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsetmc-pusher/src/config"
	"tsetmc-pusher/src/helpers"
	"tsetmc-pusher/src/logger"
	"tsetmc-pusher/src/models"
	"tsetmc-pusher/src/network"
)

const marketWatchJSON = `{"marketwatch":[
  {"insCode":"46348559193224090","insID":"IRO1FOLD0001","lVal18AFC":"FOLD ","lVal30":"Foolad","pClosing":990,"pDrCotVal":1000,
   "priceYesterday":980,"priceFirst":985,"priceMin":970,"priceMax":1010,"zTotTran":42,"qTotTran5J":500,"qTotCap":500000,"hEven":93015,
   "blDs":[
     {"number":1,"qTitMeDem":100,"zOrdMeDem":3,"pMeDem":995,"pMeOf":1000,"qTitMeOf":200,"zOrdMeOf":4,"refID":7001},
     {"number":2,"qTitMeDem":50,"zOrdMeDem":1,"pMeDem":990,"pMeOf":1005,"qTitMeOf":20,"zOrdMeOf":1,"refID":7002},
     {"number":9,"qTitMeDem":1,"zOrdMeDem":1,"pMeDem":900,"pMeOf":1100,"qTitMeOf":1,"zOrdMeOf":1,"refID":7009}
   ]},
  {"insCode":"1","insID":"BAD","lVal18AFC":"X","hEven":93000}
]}`

const clientTypeJSON = `{"clientTypeAllDto":[
  {"insCode":"46348559193224090","buy_CountI":10,"buy_CountN":2,"buy_I_Volume":1000,"buy_N_Volume":200,
   "sell_CountI":8,"sell_CountN":1,"sell_I_Volume":900,"sell_N_Volume":300},
  {"insCode":"999","buy_CountI":1}
]}`

func newTestSource(t *testing.T, handler http.HandlerFunc) *TsetmcSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.DataSource.BaseURL = srv.URL + "/"
	cfg.DataSource.OrderBookDepth = 5
	cfg.Network.RequestsPerSecond = 1000
	log := logger.NewLogger("ERROR", "tsetmc")

	src := NewTsetmcSource(cfg, network.NewAsyncNetworkManager(cfg, log), time.UTC, log)
	src.now = func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }
	return src
}

func routes(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case MarketWatchPath:
		w.Write([]byte(marketWatchJSON))
	case ClientTypePath:
		w.Write([]byte(clientTypeJSON))
	default:
		http.NotFound(w, r)
	}
}

func TestFetchTradeSnapshot(t *testing.T) {
	var query map[string]string
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{"hEven": r.URL.Query().Get("hEven"), "RefID": r.URL.Query().Get("RefID")}
		routes(w, r)
	})

	records, err := src.FetchTradeSnapshot(context.Background(), models.MFetchCursor{TradeTime: 93000, OrderBookRowID: 6999})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"hEven": "93000", "RefID": "6999"}, query)

	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "IRO1FOLD0001", rec.Identification.ISIN)
	assert.Equal(t, "FOLD", rec.Identification.Ticker)
	assert.Equal(t, 1000.0, rec.Trade.LastPrice)
	assert.Equal(t, 990.0, rec.Trade.ClosePrice)
	assert.Equal(t, int64(500), rec.Trade.TradeVolume)
	assert.Equal(t, int64(42), rec.Trade.TradeNum)
	assert.Equal(t, time.Date(2026, 10, 17, 9, 30, 15, 0, time.UTC), rec.Trade.LastTradeTime)

	// rows deeper than the configured depth are dropped
	require.Len(t, rec.OrderBook, 2)
	assert.Equal(t, models.MOrderBookSide{Num: 3, Volume: 100, Price: 995}, rec.OrderBook[0].Demand)
	assert.Equal(t, models.MOrderBookSide{Num: 4, Volume: 200, Price: 1000}, rec.OrderBook[0].Supply)
	assert.Equal(t, int64(7002), rec.OrderBook[1].RowID)
}

func TestFetchClientTypeSnapshotUsesRegistry(t *testing.T) {
	src := newTestSource(t, routes)

	records, err := src.FetchClientTypeSnapshot(context.Background(), models.MFetchCursor{})
	require.NoError(t, err)
	assert.Empty(t, records, "codes are unknown before the first market watch")

	_, err = src.FetchTradeSnapshot(context.Background(), models.MFetchCursor{})
	require.NoError(t, err)

	records, err = src.FetchClientTypeSnapshot(context.Background(), models.MFetchCursor{})
	require.NoError(t, err)
	require.Len(t, records, 1)

	ct := records[0].ClientType
	assert.Equal(t, "IRO1FOLD0001", records[0].ISIN)
	assert.Equal(t, models.MClientTypeSide{Num: 2, Volume: 200}, ct.Legal.Buy)
	assert.Equal(t, models.MClientTypeSide{Num: 1, Volume: 300}, ct.Legal.Sell)
	assert.Equal(t, models.MClientTypeSide{Num: 10, Volume: 1000}, ct.Natural.Buy)
	assert.Equal(t, models.MClientTypeSide{Num: 8, Volume: 900}, ct.Natural.Sell)
}

func TestMalformedPayloadIsTransient(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"marketwatch":[`))
	})

	_, err := src.FetchTradeSnapshot(context.Background(), models.MFetchCursor{})
	require.Error(t, err)

	var srcErr *helpers.DataSourceError
	assert.ErrorAs(t, err, &srcErr)
	assert.True(t, helpers.IsTransient(err))
}

func TestUpstreamFailureIsNetworkError(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := src.FetchClientTypeSnapshot(context.Background(), models.MFetchCursor{})
	var netErr *helpers.NetworkError
	assert.ErrorAs(t, err, &netErr)
}
