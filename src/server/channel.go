package server

import "tsetmc-pusher/src/models"

// InstrumentChannel holds the subscriber sets of one ISIN, one per topic.
// It is only touched while the server's channel lock is held.
type InstrumentChannel struct {
	ISIN        string
	subscribers [models.NumTopics]map[*Client]struct{}
}

// -----------------------------------------------------------------------------

func NewInstrumentChannel(isin string) *InstrumentChannel {
	ch := &InstrumentChannel{ISIN: isin}
	for i := range ch.subscribers {
		ch.subscribers[i] = make(map[*Client]struct{})
	}
	return ch
}

// -----------------------------------------------------------------------------

func (ch *InstrumentChannel) Subscribe(c *Client, topic models.Topic) {
	ch.subscribers[topic][c] = struct{}{}
}

func (ch *InstrumentChannel) Unsubscribe(c *Client, topic models.Topic) {
	delete(ch.subscribers[topic], c)
}

// UnsubscribeAll removes c from every topic of the channel.
func (ch *InstrumentChannel) UnsubscribeAll(c *Client) {
	for i := range ch.subscribers {
		delete(ch.subscribers[i], c)
	}
}

// Subscribers returns a copy of the subscriber set of topic.
func (ch *InstrumentChannel) Subscribers(topic models.Topic) []*Client {
	out := make([]*Client, 0, len(ch.subscribers[topic]))
	for c := range ch.subscribers[topic] {
		out = append(out, c)
	}
	return out
}

// Has reports whether c is subscribed to topic.
func (ch *InstrumentChannel) Has(c *Client, topic models.Topic) bool {
	_, ok := ch.subscribers[topic][c]
	return ok
}
