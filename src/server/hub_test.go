package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsetmc-pusher/src/config"
	"tsetmc-pusher/src/logger"
	"tsetmc-pusher/src/models"
	"tsetmc-pusher/src/repository"
)

const (
	fold = "IRO1FOLD0001"
	ikco = "IRO1IKCO0001"
)

func newTestServer(t *testing.T) (*PusherServer, *repository.MarketRepository) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Gateway.SendBufferSize = 8
	repo := repository.NewMarketRepository()
	return NewPusherServer(cfg, repo, logger.NewLogger("ERROR", "gateway")), repo
}

func trade(isin string, last float64) models.MTradeRecord {
	return models.MTradeRecord{
		Identification: models.MInstrumentIdentification{ISIN: isin},
		Trade: models.MTradeCandle{
			LastPrice:     last,
			TradeVolume:   500,
			LastTradeTime: time.Date(2026, 10, 17, 9, 0, int(last)%60, 0, time.UTC),
		},
	}
}

// drain returns every frame queued for c without blocking.
func drain(c *Client) []SnapshotMessage {
	var out []SnapshotMessage
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				return out
			}
			var msg SnapshotMessage
			if err := json.Unmarshal(raw, &msg); err == nil {
				out = append(out, msg)
			}
		default:
			return out
		}
	}
}

func TestChannelIdentity(t *testing.T) {
	s, repo := newTestServer(t)
	foldClient := newClient(s, nil, 8)
	ikcoClient := newClient(s, nil, 8)

	s.HandleClientMessage(foldClient, "1.trade."+fold)
	s.HandleClientMessage(ikcoClient, "1.trade."+ikco)

	require.Len(t, s.channels, 2)
	assert.NotSame(t, s.channels[fold], s.channels[ikco])
	assert.Equal(t, fold, s.channels[fold].ISIN)
	assert.True(t, s.channels[ikco].Has(ikcoClient, models.TopicTrade))
	assert.False(t, s.channels[ikco].Has(foldClient, models.TopicTrade))

	s.dispatch(repo.ApplyTradeSnapshot([]models.MTradeRecord{trade(ikco, 2000)}))

	assert.Empty(t, drain(foldClient))
	got := drain(ikcoClient)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], ikco)
}

func TestProtocolErrorsLeaveStateUntouched(t *testing.T) {
	s, _ := newTestServer(t)
	c := newClient(s, nil, 8)

	for _, msg := range []string{"2.trade." + fold, "1.bogus." + fold, "1.trade.SHORT", "1.trade." + fold + ",SHORT"} {
		s.HandleClientMessage(c, msg)
	}

	assert.Empty(t, s.channels)
	assert.Empty(t, c.channels)
	assert.False(t, c.isClosed())
}

func TestSubscribeBeforeData(t *testing.T) {
	s, repo := newTestServer(t)
	c := newClient(s, nil, 8)

	s.HandleClientMessage(c, "1.all."+fold)
	assert.Empty(t, drain(c), "no snapshot before the repository knows the isin")

	s.dispatch(repo.ApplyTradeSnapshot([]models.MTradeRecord{trade(fold, 1000)}))

	got := drain(c)
	require.Len(t, got, 1)
	snapshot := got[0][fold]["trade"].([]interface{})
	assert.Equal(t, 1000.0, snapshot[1])
	assert.Equal(t, 500.0, snapshot[9])
}

func TestSubscribeReturnsInitialSnapshot(t *testing.T) {
	s, repo := newTestServer(t)
	repo.ApplyTradeSnapshot([]models.MTradeRecord{trade(fold, 1000)})
	c := newClient(s, nil, 8)

	s.HandleClientMessage(c, "1.trade,clienttype."+fold)
	assert.Empty(t, drain(c), "comma separated topics are not part of the grammar")

	s.HandleClientMessage(c, "1.all."+fold+","+ikco)
	got := drain(c)
	require.Len(t, got, 1)
	require.Contains(t, got[0], fold)
	assert.NotContains(t, got[0], ikco)
	assert.Len(t, got[0][fold], 3)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s, repo := newTestServer(t)
	c := newClient(s, nil, 8)

	s.HandleClientMessage(c, "1.all."+fold)
	s.HandleClientMessage(c, "0.trade."+fold)
	// unsubscribing from a channel never joined is not an error
	s.HandleClientMessage(c, "0.all."+ikco)

	s.dispatch(repo.ApplyTradeSnapshot([]models.MTradeRecord{trade(fold, 1000)}))
	assert.Empty(t, drain(c))
	assert.True(t, s.channels[fold].Has(c, models.TopicOrderBook))
}

func TestCleanupOnDisconnect(t *testing.T) {
	s, repo := newTestServer(t)
	c := newClient(s, nil, 8)
	other := newClient(s, nil, 8)

	s.HandleClientMessage(c, "1.all."+fold+","+ikco)
	s.HandleClientMessage(other, "1.trade."+fold)
	s.disconnect(c)

	for _, ch := range s.channels {
		for _, topic := range models.AllTopics {
			assert.False(t, ch.Has(c, topic), "%s %s", ch.ISIN, topic)
		}
	}

	s.dispatch(repo.ApplyTradeSnapshot([]models.MTradeRecord{trade(fold, 1000)}))
	assert.Empty(t, drain(c))
	assert.Len(t, drain(other), 1)

	// a late subscribe from the read pump must not resurrect the client
	s.HandleClientMessage(c, "1.all."+fold)
	assert.False(t, s.channels[fold].Has(c, models.TopicTrade))
}

func TestSlowClientIsDropped(t *testing.T) {
	s, repo := newTestServer(t)
	slow := newClient(s, nil, 1)
	fast := newClient(s, nil, 8)

	s.HandleClientMessage(slow, "1.trade."+fold)
	s.HandleClientMessage(fast, "1.trade."+fold)
	require.True(t, slow.enqueue([]byte(`{}`)))

	s.dispatch(repo.ApplyTradeSnapshot([]models.MTradeRecord{trade(fold, 1000)}))

	assert.True(t, slow.isClosed())
	assert.False(t, s.channels[fold].Has(slow, models.TopicTrade))
	assert.Len(t, drain(fast), 1)
}

func TestPublishDoesNotBlock(t *testing.T) {
	s, _ := newTestServer(t)
	changes := []models.MChange{{ISIN: fold, Topic: models.TopicTrade}}

	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(s.broadcast)+10; i++ {
			s.Publish(changes)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
	assert.Len(t, s.broadcast, cap(s.broadcast))
}
