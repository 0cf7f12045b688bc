package server

import (
	"net/http"
	"time"

	"github.com/npezzotti/tvdash/internal/types"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is a request from a session. Exactly one of Join, Leave or
// Zoom is expected to be set.
type ClientMessage struct {
	BaseMessage
	Join   *Join   `json:"join,omitempty"`
	Leave  *Leave  `json:"leave,omitempty"`
	Zoom   *Zoom   `json:"zoom,omitempty"`
	client *Client `json:"-"`
}

type Join struct {
	TVId int `json:"tv_id"`
}

type Leave struct {
	TVId int `json:"tv_id"`
}

type Zoom struct {
	TVId    int    `json:"tv_id"`
	Command string `json:"command"`
}

type ServerMessage struct {
	BaseMessage
	Response *Response    `json:"response,omitempty"`
	Event    *types.Event `json:"event,omitempty"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
	Data         any    `json:"data,omitempty"`
}

func newEvent(ev *types.Event) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Event: ev,
	}
}

func SnapshotEvent(tvs []types.TV) *ServerMessage {
	return newEvent(&types.Event{Type: types.EventSnapshot, TVs: tvs})
}

func AddedEvent(tv types.TV) *ServerMessage {
	return newEvent(&types.Event{Type: types.EventAdded, TVId: tv.Id, TV: &tv})
}

func ImageUpdatedEvent(tv types.TV) *ServerMessage {
	return newEvent(&types.Event{Type: types.EventImageUpdated, TVId: tv.Id, TV: &tv})
}

func LinkUpdatedEvent(tv types.TV) *ServerMessage {
	return newEvent(&types.Event{Type: types.EventLinkUpdated, TVId: tv.Id, TV: &tv})
}

func DeletedEvent(tvId int) *ServerMessage {
	return newEvent(&types.Event{Type: types.EventDeleted, TVId: tvId})
}

func ZoomCommandEvent(cmd types.ZoomCommand) *ServerMessage {
	return newEvent(&types.Event{Type: types.EventZoomCommand, Command: cmd})
}

// JoinedRoom answers a join request with both the response and the
// joined_room confirmation.
func JoinedRoom(id, tvId int) *ServerMessage {
	msg := NoErrOK(id, nil)
	msg.Event = &types.Event{
		Type: types.EventJoinedRoom,
		TVId: tvId,
		Room: types.RoomName(tvId),
	}
	return msg
}

// ZoomOutcome reports to the sender of a zoom command how many display
// sessions were in the room when the command was delivered.
func ZoomOutcome(id, tvId int, cmd types.ZoomCommand, delivered int) *ServerMessage {
	msg := NoErrOK(id, nil)
	msg.Event = &types.Event{
		Type:      types.EventZoomCommandOutcome,
		TVId:      tvId,
		Command:   cmd,
		Delivered: delivered,
	}
	return msg
}

func NoErrOK(id int, data any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func ErrBadRequest(id int, reason string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        reason,
		},
	}
}

func ErrNotInRoom(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusNotFound,
			Error:        "not in room",
		},
	}
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusServiceUnavailable,
			Error:        "service unavailable",
		},
	}
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid message format",
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
