package server

import (
	"github.com/npezzotti/tvdash/internal/stats"
	"github.com/npezzotti/tvdash/internal/types"
	"go.uber.org/zap"
)

// routeZoom forwards a zoom command, unmodified, to every session in the
// room of the target TV and reports the number of recipients back to the
// sender. Commands are not queued for sessions that join later.
func (h *Hub) routeZoom(msg *ClientMessage) {
	sender := msg.client
	if !h.registered(sender) {
		return
	}

	tvId := msg.Zoom.TVId

	cmd, err := types.ParseZoomCommand(msg.Zoom.Command)
	if err != nil {
		h.log.Info("rejecting zoom command", zap.String("client_id", sender.id), zap.Error(err))
		sender.queueMessage(ErrBadRequest(msg.Id, err.Error()))
		return
	}
	if tvId <= 0 {
		sender.queueMessage(ErrBadRequest(msg.Id, "tv_id must be a positive integer"))
		return
	}

	delivered := h.roomSize(tvId)
	ev := ZoomCommandEvent(cmd)
	for c := range h.rooms[tvId] {
		if !c.queueMessage(ev) {
			h.log.Warn("zoom command dropped for slow session",
				zap.String("client_id", c.id),
				zap.Int("tv_id", tvId))
		}
	}

	h.stats.Incr(stats.NumZoomCommands)
	h.log.Info("zoom command routed",
		zap.String("command", string(cmd)),
		zap.String("room", types.RoomName(tvId)),
		zap.Int("delivered", delivered))

	sender.queueMessage(ZoomOutcome(msg.Id, tvId, cmd, delivered))
}
