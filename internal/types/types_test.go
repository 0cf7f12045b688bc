package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClone(t *testing.T) {
	img := "/uploads/tv-1.png"
	link := "https://youtu.be/abc"
	ts := time.Now().UTC()
	tv := TV{Id: 1, Name: "Lobby", Image: &img, YoutubeLink: &link, UpdatedAt: &ts}

	c := tv.Clone()
	assert.Equal(t, tv, c, "expected clone to equal original")

	*c.Image = "/uploads/other.png"
	*c.YoutubeLink = ""
	assert.Equal(t, "/uploads/tv-1.png", *tv.Image, "expected original image to be unchanged")
	assert.Equal(t, "https://youtu.be/abc", *tv.YoutubeLink, "expected original link to be unchanged")
}

func TestEqual(t *testing.T) {
	img := "/uploads/tv-1.png"
	ts := time.Now().UTC()
	base := TV{Id: 1, Name: "Lobby", Image: &img, UpdatedAt: &ts}

	other := "/uploads/tv-1.jpg"
	later := ts.Add(time.Second)

	tcases := []struct {
		name string
		edit func(tv *TV)
		want bool
	}{
		{name: "clone", edit: func(tv *TV) {}, want: true},
		{name: "name", edit: func(tv *TV) { tv.Name = "Kitchen" }, want: false},
		{name: "image", edit: func(tv *TV) { tv.Image = &other }, want: false},
		{name: "image cleared", edit: func(tv *TV) { tv.Image = nil }, want: false},
		{name: "updated at", edit: func(tv *TV) { tv.UpdatedAt = &later }, want: false},
		{name: "link set", edit: func(tv *TV) { tv.YoutubeLink = &other }, want: false},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			c := base.Clone()
			tc.edit(&c)
			assert.Equal(t, tc.want, base.Equal(c))
		})
	}
}

func TestRoomName(t *testing.T) {
	assert.Equal(t, "tv-1", RoomName(1))
	assert.Equal(t, "tv-42", RoomName(42))
}

func TestParseZoomCommand(t *testing.T) {
	tcases := []struct {
		name    string
		input   string
		want    ZoomCommand
		wantErr bool
	}{
		{name: "zoom in", input: "zoomIn", want: ZoomIn},
		{name: "zoom out", input: "zoomOut", want: ZoomOut},
		{name: "reset", input: "resetZoom", want: ResetZoom},
		{name: "fit", input: "fitToScreen", want: FitToScreen},
		{name: "stretch", input: "stretchToScreen", want: StretchToScreen},
		{name: "unknown", input: "rotate", wantErr: true},
		{name: "wrong case", input: "ZOOMIN", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseZoomCommand(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrUnknownCommand)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLastModified(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	tv := TV{Id: 1, CreatedAt: created}
	assert.Equal(t, created, tv.LastModified(), "expected created_at for a record never changed")

	tv.UpdatedAt = &updated
	assert.Equal(t, updated, tv.LastModified())
}
