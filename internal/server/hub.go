package server

import (
	"context"
	"sync"

	"github.com/npezzotti/tvdash/internal/registry"
	"github.com/npezzotti/tvdash/internal/stats"
	"github.com/npezzotti/tvdash/internal/types"
	"go.uber.org/zap"
)

type stopRequest struct {
	done chan struct{}
}

// Hub owns every live session and the TV rooms they joined. All membership
// changes and deliveries happen on the Run goroutine, so events reach each
// session in the order they were handed to the hub.
type Hub struct {
	log            *zap.Logger
	registry       registry.Repository
	stats          stats.StatsProvider
	clients        map[*Client]struct{}
	clientsLock    sync.RWMutex
	rooms          map[int]map[*Client]struct{}
	registerChan   chan *Client
	deRegisterChan chan *Client
	joinChan       chan *ClientMessage
	leaveChan      chan *ClientMessage
	zoomChan       chan *ClientMessage
	broadcastChan  chan *ServerMessage
	stop           chan stopRequest
	done           chan struct{}
}

func NewHub(logger *zap.Logger, reg registry.Repository, su stats.StatsProvider) *Hub {
	su.RegisterMetric(stats.NumActiveClients)
	su.RegisterMetric(stats.NumRoomMembers)
	su.RegisterMetric(stats.NumZoomCommands)
	su.RegisterMetric(stats.NumBroadcasts)

	return &Hub{
		log:            logger,
		registry:       reg,
		stats:          su,
		clients:        make(map[*Client]struct{}),
		rooms:          make(map[int]map[*Client]struct{}),
		registerChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		joinChan:       make(chan *ClientMessage, 256),
		leaveChan:      make(chan *ClientMessage, 256),
		zoomChan:       make(chan *ClientMessage, 256),
		broadcastChan:  make(chan *ServerMessage, 256),
		stop:           make(chan stopRequest),
		done:           make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case c := <-h.registerChan:
			h.handleRegister(c)
		case c := <-h.deRegisterChan:
			h.handleDeRegister(c)
		case msg := <-h.joinChan:
			h.handleJoin(msg)
		case msg := <-h.leaveChan:
			h.handleLeave(msg)
		case msg := <-h.zoomChan:
			h.routeZoom(msg)
		case msg := <-h.broadcastChan:
			h.handleBroadcast(msg)
		case req := <-h.stop:
			h.log.Info("stopping sessions")
			for _, c := range h.getClients() {
				c.stopClient()
				h.removeClient(c)
			}
			close(req.done)
			return
		}
	}
}

// RegisterClient adds a new session. The session receives a snapshot of the
// registry before any later broadcast.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.registerChan <- c:
	case <-h.done:
		c.stopClient()
	}
}

func (h *Hub) DeRegisterClient(c *Client) {
	select {
	case h.deRegisterChan <- c:
	case <-h.done:
	}
}

// Broadcast queues msg for delivery to every session.
func (h *Hub) Broadcast(msg *ServerMessage) {
	select {
	case h.broadcastChan <- msg:
	case <-h.done:
		h.log.Debug("hub stopped, dropping broadcast")
	}
}

func (h *Hub) Shutdown(ctx context.Context) error {
	req := stopRequest{done: make(chan struct{})}
	select {
	case h.stop <- req:
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// roomSize reports how many sessions are joined to the room of tvId. It
// must only be called from the Run goroutine or after Run returned.
func (h *Hub) roomSize(tvId int) int {
	return len(h.rooms[tvId])
}

func (h *Hub) handleRegister(c *Client) {
	h.log.Debug("adding connection", zap.String("client_id", c.id))
	h.addClient(c)
	c.queueMessage(SnapshotEvent(h.registry.List()))
}

func (h *Hub) handleDeRegister(c *Client) {
	if _, ok := h.getClient(c); !ok {
		return
	}

	h.log.Debug("removing connection", zap.String("client_id", c.id))
	for _, tvId := range c.joinedRooms() {
		h.removeFromRoom(c, tvId)
	}
	h.removeClient(c)
	c.stopClient()
}

func (h *Hub) handleJoin(msg *ClientMessage) {
	c := msg.client
	if !h.registered(c) {
		return
	}

	tvId := msg.Join.TVId
	if tvId <= 0 {
		c.queueMessage(ErrBadRequest(msg.Id, "tv_id must be a positive integer"))
		return
	}

	if h.addToRoom(c, tvId) {
		h.log.Info("session joined room",
			zap.String("client_id", c.id),
			zap.String("room", types.RoomName(tvId)))
	}
	c.queueMessage(JoinedRoom(msg.Id, tvId))
}

func (h *Hub) handleLeave(msg *ClientMessage) {
	c := msg.client
	if !h.registered(c) {
		return
	}

	tvId := msg.Leave.TVId

	if !h.removeFromRoom(c, tvId) {
		c.queueMessage(ErrNotInRoom(msg.Id))
		return
	}

	h.log.Info("session left room",
		zap.String("client_id", c.id),
		zap.String("room", types.RoomName(tvId)))
	c.queueMessage(NoErrOK(msg.Id, nil))
}

// handleBroadcast queues msg to every session. A session whose queue is full
// has missed a registry event and is closed; it gets a fresh snapshot when
// it reconnects.
func (h *Hub) handleBroadcast(msg *ServerMessage) {
	h.stats.Incr(stats.NumBroadcasts)
	for _, c := range h.getClients() {
		if !c.queueMessage(msg) {
			c.log.Warn("send queue full, closing session")
			h.handleDeRegister(c)
		}
	}
}

// registered reports whether c is still a live session. Requests queued
// before a disconnect can be handled after it and are dropped.
func (h *Hub) registered(c *Client) bool {
	if _, ok := h.getClient(c); !ok {
		h.log.Debug("dropping request from closed session", zap.String("client_id", c.id))
		return false
	}
	return true
}

func (h *Hub) addToRoom(c *Client, tvId int) bool {
	if !c.addRoom(tvId) {
		return false
	}

	members, ok := h.rooms[tvId]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[tvId] = members
	}
	members[c] = struct{}{}
	h.stats.Incr(stats.NumRoomMembers)
	return true
}

func (h *Hub) removeFromRoom(c *Client, tvId int) bool {
	if !c.delRoom(tvId) {
		return false
	}

	if members, ok := h.rooms[tvId]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, tvId)
		}
	}
	h.stats.Decr(stats.NumRoomMembers)
	return true
}

func (h *Hub) addClient(c *Client) {
	h.clientsLock.Lock()
	defer h.clientsLock.Unlock()

	h.clients[c] = struct{}{}
	h.stats.Incr(stats.NumActiveClients)
}

func (h *Hub) removeClient(c *Client) {
	h.clientsLock.Lock()
	defer h.clientsLock.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	h.stats.Decr(stats.NumActiveClients)
}

func (h *Hub) getClient(c *Client) (*Client, bool) {
	h.clientsLock.RLock()
	defer h.clientsLock.RUnlock()
	_, ok := h.clients[c]
	return c, ok
}

func (h *Hub) getClients() []*Client {
	h.clientsLock.RLock()
	defer h.clientsLock.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

// NumClients returns the number of registered sessions.
func (h *Hub) NumClients() int {
	h.clientsLock.RLock()
	defer h.clientsLock.RUnlock()
	return len(h.clients)
}
