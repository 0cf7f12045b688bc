// Package reconcile keeps client-side views consistent with the events a
// session receives from the hub.
package reconcile

import (
	"sync"

	"github.com/npezzotti/tvdash/internal/types"
)

type ChangeKind int

const (
	ChangeNone ChangeKind = iota
	ChangeReplaced
	ChangeInserted
	ChangeUpdated
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeReplaced:
		return "replaced"
	case ChangeInserted:
		return "inserted"
	case ChangeUpdated:
		return "updated"
	case ChangeRemoved:
		return "removed"
	default:
		return "none"
	}
}

// Region is the part of a rendered TV that an update touched.
type Region int

const (
	RegionAll Region = iota
	RegionImage
)

// Change describes what applying one event did to the mirror.
type Change struct {
	Kind   ChangeKind
	TVId   int
	Region Region
	// Notify is false when the change was caused by this client's own
	// in-flight operation.
	Notify bool
}

func (c Change) Changed() bool {
	return c.Kind != ChangeNone
}

// Dashboard mirrors the registry list on a dashboard session.
type Dashboard struct {
	mu       sync.RWMutex
	tvs      []types.TV
	inFlight int
}

func NewDashboard() *Dashboard {
	return &Dashboard{}
}

// BeginOperation marks id as the target of a mutation this client started.
// Updates for it are applied but not reported as notifications until
// EndOperation.
func (d *Dashboard) BeginOperation(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inFlight = id
}

func (d *Dashboard) EndOperation() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inFlight = 0
}

func (d *Dashboard) Apply(ev types.Event) Change {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch ev.Type {
	case types.EventSnapshot:
		d.tvs = make([]types.TV, 0, len(ev.TVs))
		for _, tv := range ev.TVs {
			d.tvs = append(d.tvs, tv.Clone())
		}
		return Change{Kind: ChangeReplaced, Notify: true}

	case types.EventAdded:
		if ev.TV == nil || d.index(ev.TV.Id) >= 0 {
			return Change{}
		}
		d.tvs = append(d.tvs, ev.TV.Clone())
		return Change{Kind: ChangeInserted, TVId: ev.TV.Id, Notify: true}

	case types.EventImageUpdated, types.EventLinkUpdated:
		if ev.TV == nil {
			return Change{}
		}
		i := d.index(ev.TV.Id)
		if i < 0 || d.tvs[i].Equal(*ev.TV) {
			return Change{}
		}
		d.tvs[i] = ev.TV.Clone()

		region := RegionAll
		if ev.Type == types.EventImageUpdated {
			region = RegionImage
		}
		return Change{
			Kind:   ChangeUpdated,
			TVId:   ev.TV.Id,
			Region: region,
			Notify: ev.TV.Id != d.inFlight,
		}

	case types.EventDeleted:
		i := d.index(ev.TVId)
		if i < 0 {
			return Change{}
		}
		d.tvs = append(d.tvs[:i], d.tvs[i+1:]...)
		return Change{Kind: ChangeRemoved, TVId: ev.TVId, Notify: true}
	}

	return Change{}
}

// TVs returns a copy of the mirror in registry order.
func (d *Dashboard) TVs() []types.TV {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tvs := make([]types.TV, 0, len(d.tvs))
	for _, tv := range d.tvs {
		tvs = append(tvs, tv.Clone())
	}
	return tvs
}

func (d *Dashboard) Get(id int) (types.TV, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if i := d.index(id); i >= 0 {
		return d.tvs[i].Clone(), true
	}
	return types.TV{}, false
}

func (d *Dashboard) index(id int) int {
	for i, tv := range d.tvs {
		if tv.Id == id {
			return i
		}
	}
	return -1
}
