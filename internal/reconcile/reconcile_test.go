package reconcile

import (
	"time"

	"github.com/npezzotti/tvdash/internal/types"
)

var t0 = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func newTV(id int, name string) types.TV {
	return types.TV{Id: id, Name: name, CreatedAt: t0}
}

func withImage(tv types.TV, ref string, at time.Time) types.TV {
	tv.Image = strPtr(ref)
	tv.UpdatedAt = timePtr(at)
	return tv
}

func added(tv types.TV) types.Event {
	return types.Event{Type: types.EventAdded, TVId: tv.Id, TV: &tv}
}

func imageUpdated(tv types.TV) types.Event {
	return types.Event{Type: types.EventImageUpdated, TVId: tv.Id, TV: &tv}
}

func linkUpdated(tv types.TV) types.Event {
	return types.Event{Type: types.EventLinkUpdated, TVId: tv.Id, TV: &tv}
}

func deleted(id int) types.Event {
	return types.Event{Type: types.EventDeleted, TVId: id}
}

func snapshot(tvs ...types.TV) types.Event {
	return types.Event{Type: types.EventSnapshot, TVs: tvs}
}
