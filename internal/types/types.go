package types

import (
	"errors"
	"fmt"
	"time"
)

type TV struct {
	Id          int        `json:"id"`
	Name        string     `json:"name"`
	Image       *string    `json:"image"`
	YoutubeLink *string    `json:"youtube_link"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// Clone returns a copy of tv that shares no pointers with the original.
func (tv TV) Clone() TV {
	c := tv
	if tv.Image != nil {
		img := *tv.Image
		c.Image = &img
	}
	if tv.YoutubeLink != nil {
		link := *tv.YoutubeLink
		c.YoutubeLink = &link
	}
	if tv.UpdatedAt != nil {
		ts := *tv.UpdatedAt
		c.UpdatedAt = &ts
	}
	return c
}

// Equal reports whether tv and o hold the same values.
func (tv TV) Equal(o TV) bool {
	return tv.Id == o.Id &&
		tv.Name == o.Name &&
		equalPtr(tv.Image, o.Image) &&
		equalPtr(tv.YoutubeLink, o.YoutubeLink) &&
		tv.CreatedAt.Equal(o.CreatedAt) &&
		equalTime(tv.UpdatedAt, o.UpdatedAt)
}

// LastModified is UpdatedAt, or CreatedAt for a record that was never
// changed.
func (tv TV) LastModified() time.Time {
	if tv.UpdatedAt != nil {
		return *tv.UpdatedAt
	}
	return tv.CreatedAt
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// RoomName is the broker room a display for tvId joins.
func RoomName(tvId int) string {
	return fmt.Sprintf("tv-%d", tvId)
}

type EventType string

const (
	EventSnapshot           EventType = "snapshot"
	EventAdded              EventType = "added"
	EventImageUpdated       EventType = "image_updated"
	EventLinkUpdated        EventType = "link_updated"
	EventDeleted            EventType = "deleted"
	EventJoinedRoom         EventType = "joined_room"
	EventZoomCommand        EventType = "zoom_command"
	EventZoomCommandOutcome EventType = "zoom_command_outcome"
)

type Event struct {
	Type      EventType   `json:"type"`
	TVs       []TV        `json:"tvs,omitempty"`
	TV        *TV         `json:"tv,omitempty"`
	TVId      int         `json:"tv_id,omitempty"`
	Room      string      `json:"room,omitempty"`
	Command   ZoomCommand `json:"command,omitempty"`
	Delivered int         `json:"delivered,omitempty"`
}

// ZoomCommand is a presentation instruction routed to the displays of one TV.
type ZoomCommand string

const (
	ZoomIn          ZoomCommand = "zoomIn"
	ZoomOut         ZoomCommand = "zoomOut"
	ResetZoom       ZoomCommand = "resetZoom"
	FitToScreen     ZoomCommand = "fitToScreen"
	StretchToScreen ZoomCommand = "stretchToScreen"
)

var ErrUnknownCommand = errors.New("unknown zoom command")

var zoomCommands = map[ZoomCommand]struct{}{
	ZoomIn:          {},
	ZoomOut:         {},
	ResetZoom:       {},
	FitToScreen:     {},
	StretchToScreen: {},
}

func (c ZoomCommand) Valid() bool {
	_, ok := zoomCommands[c]
	return ok
}

func ParseZoomCommand(s string) (ZoomCommand, error) {
	c := ZoomCommand(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
	}
	return c, nil
}
