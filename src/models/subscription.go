package models

// -----------------------------------------------------------------------------
// Topics
// -----------------------------------------------------------------------------

// Topic is a concrete per-instrument stream a client can subscribe to.
type Topic int

const (
	TopicTrade Topic = iota
	TopicOrderBook
	TopicClientType

	// NumTopics is the number of concrete topics.
	NumTopics = iota
)

// AllTopics lists the concrete topics in wire order.
var AllTopics = []Topic{TopicTrade, TopicOrderBook, TopicClientType}

func (t Topic) String() string {
	switch t {
	case TopicTrade:
		return "trade"
	case TopicOrderBook:
		return "orderbook"
	case TopicClientType:
		return "clienttype"
	}
	return "unknown"
}

// -----------------------------------------------------------------------------
// Subscription requests
// -----------------------------------------------------------------------------

// Action is the verb of a client request.
type Action int

const (
	ActionUnsubscribe Action = iota
	ActionSubscribe
)

func (a Action) String() string {
	switch a {
	case ActionSubscribe:
		return "subscribe"
	case ActionUnsubscribe:
		return "unsubscribe"
	}
	return "unknown"
}

// MSubscriptionRequest is a parsed "<action>.<topic>.<isin>,..." frame.
// Topics is already expanded ("all" becomes every concrete topic).
type MSubscriptionRequest struct {
	Action Action
	Topics []Topic
	ISINs  []string
}

// -----------------------------------------------------------------------------
// Change notifications
// -----------------------------------------------------------------------------

// MChange reports that a topic of an instrument changed during a merge.
type MChange struct {
	ISIN  string
	Topic Topic
}
