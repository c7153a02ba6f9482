package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsetmc-pusher/src/helpers"
	"tsetmc-pusher/src/models"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		message string
		action  models.Action
		topics  []models.Topic
		isins   []string
	}{
		{"1.trade.IRO1FOLD0001", models.ActionSubscribe, []models.Topic{models.TopicTrade}, []string{"IRO1FOLD0001"}},
		{"0.orderbook.IRO1FOLD0001,IRO1IKCO0001", models.ActionUnsubscribe, []models.Topic{models.TopicOrderBook}, []string{"IRO1FOLD0001", "IRO1IKCO0001"}},
		{"1.clienttype.IRO1IKCO0001", models.ActionSubscribe, []models.Topic{models.TopicClientType}, []string{"IRO1IKCO0001"}},
		{"1.all.IRO1FOLD0001", models.ActionSubscribe, models.AllTopics, []string{"IRO1FOLD0001"}},
		{"1.trade.IRO1FOLD0001,IRO1FOLD0001\n", models.ActionSubscribe, []models.Topic{models.TopicTrade}, []string{"IRO1FOLD0001"}},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			req, err := ParseRequest(tt.message)
			require.NoError(t, err)
			assert.Equal(t, tt.action, req.Action)
			assert.Equal(t, tt.topics, req.Topics)
			assert.Equal(t, tt.isins, req.ISINs)
		})
	}
}

func TestParseRequestRejects(t *testing.T) {
	tests := []string{
		"2.trade.IRO1FOLD0001",
		"1.bogus.IRO1FOLD0001",
		"1.trade.SHORT",
		"1.trade.IRO1FOLD0001,SHORT",
		"1.trade.",
		"1.trade",
		"1.trade.IRO1FOLD0001.extra",
		"",
		"subscribe",
	}

	for _, message := range tests {
		t.Run(message, func(t *testing.T) {
			_, err := ParseRequest(message)
			require.Error(t, err)
			assert.True(t, helpers.IsProtocolError(err))
		})
	}
}
