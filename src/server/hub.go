package server

import (
	"context"
	"encoding/json"
	"net/http"

	"tsetmc-pusher/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop. At the end of the session every
// connected client is closed.
func (s *PusherServer) handleWebsockets(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.connections.Add(1)
			gatewayConnections.Inc()

		case client := <-s.unregister:
			s.disconnect(client)

		case changes := <-s.broadcast:
			s.dispatch(changes)

		case <-ctx.Done():
			s.Logger.Info("Session ended, closing %d connection(s)", len(s.clients))
			for client := range s.clients {
				s.disconnect(client)
			}
			return
		}
	}
}

// -----------------------------------------------------------------------------

// disconnect forgets a client. Only the hub goroutine calls it.
func (s *PusherServer) disconnect(c *Client) {
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		s.connections.Add(-1)
		gatewayConnections.Dec()
	}
	s.removeFromChannels(c)
}

// unregisterClient is called by the read pump once the connection is gone.
func (s *PusherServer) unregisterClient(c *Client) {
	select {
	case s.unregister <- c:
	case <-s.done:
		s.removeFromChannels(c)
	}
}

// -----------------------------------------------------------------------------

// removeFromChannels drops c from every channel it joined and stops its
// writer. Marking the client closed under the channel lock keeps a racing
// subscribe from re-adding it.
func (s *PusherServer) removeFromChannels(c *Client) {
	s.channelsMu.Lock()
	defer s.channelsMu.Unlock()

	c.closeSend()
	for isin := range c.channels {
		if ch, ok := s.channels[isin]; ok {
			ch.UnsubscribeAll(c)
		}
	}
	c.channels = make(map[string]struct{})
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Publish queues repository changes for broadcast without blocking. When the
// queue is full the batch is dropped.
func (s *PusherServer) Publish(changes []models.MChange) {
	if len(changes) == 0 {
		return
	}
	select {
	case s.broadcast <- changes:
	default:
		gatewayBroadcastDropped.Inc()
		s.Logger.Warning("Broadcast queue full, dropped %d change(s)", len(changes))
	}
}

// -----------------------------------------------------------------------------

// dispatch sends one snapshot per change to the subscribers of that ISIN and
// topic. Subscribers whose queue is full are disconnected.
func (s *PusherServer) dispatch(changes []models.MChange) {
	var slow []*Client

	for _, change := range changes {
		targets := s.subscribersOf(change.ISIN, change.Topic)
		if len(targets) == 0 {
			continue
		}

		inst, ok := s.Repository.GetInstrument(change.ISIN)
		if !ok {
			continue
		}
		payload, err := json.Marshal(SnapshotMessage{
			change.ISIN: InstrumentPayload{change.Topic.String(): TopicSnapshot(inst, change.Topic)},
		})
		if err != nil {
			s.Logger.Error("Encoding %s %s snapshot: %v", change.ISIN, change.Topic, err)
			continue
		}

		for _, c := range targets {
			if c.enqueue(payload) {
				gatewayMessagesSent.WithLabelValues(change.Topic.String()).Inc()
				continue
			}
			if !c.isClosed() {
				slow = append(slow, c)
			}
		}
	}

	for _, c := range slow {
		// Client too slow, disconnect to keep the broadcast moving
		s.Logger.Warning("Dropping slow client [%s]", c.ID)
		gatewaySlowClientsDropped.Inc()
		s.disconnect(c)
		c.closeConn()
	}
}

// -----------------------------------------------------------------------------

func (s *PusherServer) subscribersOf(isin string, topic models.Topic) []*Client {
	s.channelsMu.Lock()
	defer s.channelsMu.Unlock()

	ch, ok := s.channels[isin]
	if !ok {
		return nil
	}
	return ch.Subscribers(topic)
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage applies one request frame. Malformed frames are logged
// and ignored; the connection stays open.
func (s *PusherServer) HandleClientMessage(c *Client, message string) {
	s.Logger.Debug("Received message [%s] from [%s]", message, c.ID)

	req, err := ParseRequest(message)
	if err != nil {
		gatewayProtocolErrors.Inc()
		s.Logger.Warning("Rejected message from [%s]: %v", c.ID, err)
		return
	}

	switch req.Action {
	case models.ActionSubscribe:
		if !s.subscribe(c, req) {
			return
		}
		reply := s.initialSnapshot(req)
		if len(reply) == 0 {
			return
		}
		payload, err := json.Marshal(reply)
		if err != nil {
			s.Logger.Error("Encoding initial snapshot: %v", err)
			return
		}
		if !c.enqueue(payload) && !c.isClosed() {
			s.Logger.Warning("Send queue of [%s] is full, closing", c.ID)
			c.closeConn()
		}

	case models.ActionUnsubscribe:
		s.unsubscribe(c, req)
	}
}

// -----------------------------------------------------------------------------

// subscribe adds c to the requested topics of every ISIN, creating channels
// on first use. It reports false when c is already closed.
func (s *PusherServer) subscribe(c *Client, req models.MSubscriptionRequest) bool {
	s.channelsMu.Lock()
	defer s.channelsMu.Unlock()

	if c.isClosed() {
		return false
	}
	for _, isin := range req.ISINs {
		ch, ok := s.channels[isin]
		if !ok {
			ch = NewInstrumentChannel(isin)
			s.channels[isin] = ch
		}
		for _, topic := range req.Topics {
			ch.Subscribe(c, topic)
		}
		c.channels[isin] = struct{}{}
	}
	return true
}

// -----------------------------------------------------------------------------

func (s *PusherServer) unsubscribe(c *Client, req models.MSubscriptionRequest) {
	s.channelsMu.Lock()
	defer s.channelsMu.Unlock()

	for _, isin := range req.ISINs {
		if ch, ok := s.channels[isin]; ok {
			for _, topic := range req.Topics {
				ch.Unsubscribe(c, topic)
			}
		}
	}
}

// -----------------------------------------------------------------------------

// initialSnapshot builds the reply to a subscribe request from the ISINs the
// repository already knows.
func (s *PusherServer) initialSnapshot(req models.MSubscriptionRequest) SnapshotMessage {
	reply := make(SnapshotMessage)
	for _, isin := range req.ISINs {
		inst, ok := s.Repository.GetInstrument(isin)
		if !ok {
			continue
		}
		reply[isin] = InstrumentSnapshot(inst, req.Topics)
	}
	return reply
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *PusherServer) handleWebSocket(c *gin.Context) {
	if !s.serving() {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := newClient(s, conn, s.Config.Gateway.SendBufferSize)
	ack, _ := json.Marshal(map[string]string{"connected": client.ID})
	client.enqueue(ack)

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}
	s.Logger.Info("Connection opened to [%s] from %s", client.ID, c.ClientIP())

	// Start goroutines for reading/writing
	go client.writePump(s.writeWait)
	go client.readPump()
}
