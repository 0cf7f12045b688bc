package reconcile

import (
	"errors"
	"sync"

	"github.com/npezzotti/tvdash/internal/types"
	"go.uber.org/zap"
)

// ErrNotFound is reported to Refresh when the display's TV does not exist.
var ErrNotFound = errors.New("tv not found")

type Status string

const (
	StatusLoading  Status = "loading"
	StatusNoImage  Status = "no_image"
	StatusShowing  Status = "showing"
	StatusRemoved  Status = "removed"
	StatusNotFound Status = "not_found"
)

// Display is the state of a single TV screen. The record mirror and the
// presentation are kept apart; events only ever touch the mirror and
// commands only ever touch the presentation.
type Display struct {
	tvId     int
	log      *zap.Logger
	mu       sync.RWMutex
	tv       *types.TV
	status   Status
	pres     Presentation
	commands map[types.ZoomCommand]func(*Presentation)
}

func NewDisplay(tvId int, logger *zap.Logger) *Display {
	return &Display{
		tvId:   tvId,
		log:    logger.With(zap.Int("tv_id", tvId)),
		status: StatusLoading,
		pres:   DefaultPresentation(),
		commands: map[types.ZoomCommand]func(*Presentation){
			types.ZoomIn:          (*Presentation).ZoomIn,
			types.ZoomOut:         (*Presentation).ZoomOut,
			types.ResetZoom:       (*Presentation).Reset,
			types.FitToScreen:     (*Presentation).FitToScreen,
			types.StretchToScreen: (*Presentation).StretchToScreen,
		},
	}
}

func (d *Display) TVId() int {
	return d.tvId
}

func (d *Display) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

func (d *Display) TV() (types.TV, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.tv == nil {
		return types.TV{}, false
	}
	return d.tv.Clone(), true
}

func (d *Display) Presentation() Presentation {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pres
}

// Apply folds a hub event into the display and reports whether the
// displayed state changed. Events about other TVs are ignored.
func (d *Display) Apply(ev types.Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch ev.Type {
	case types.EventSnapshot:
		for _, tv := range ev.TVs {
			if tv.Id == d.tvId {
				return d.setRecord(tv, false)
			}
		}
		return d.clear(StatusNotFound)

	case types.EventAdded, types.EventImageUpdated, types.EventLinkUpdated:
		if ev.TV == nil || ev.TV.Id != d.tvId {
			return false
		}
		return d.setRecord(*ev.TV, ev.Type == types.EventImageUpdated)

	case types.EventDeleted:
		if ev.TVId != d.tvId {
			return false
		}
		return d.clear(StatusRemoved)
	}

	return false
}

// Refresh applies the result of re-reading the display's own record.
// Errors other than ErrNotFound leave the display untouched, and so does a
// record older than the one already shown.
func (d *Display) Refresh(tv types.TV, err error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case errors.Is(err, ErrNotFound):
		return d.clear(StatusNotFound)
	case err != nil:
		d.log.Warn("refresh failed", zap.Error(err))
		return false
	case tv.Id != d.tvId:
		d.log.Warn("refresh returned another tv", zap.Int("got_tv_id", tv.Id))
		return false
	case d.tv != nil && tv.LastModified().Before(d.tv.LastModified()):
		d.log.Debug("ignoring stale refresh",
			zap.Time("fetched", tv.LastModified()),
			zap.Time("current", d.tv.LastModified()))
		return false
	}
	return d.setRecord(tv, false)
}

// HandleCommand runs the presentation operation named by name. Unknown
// names are logged and ignored.
func (d *Display) HandleCommand(name string) bool {
	op, ok := d.commands[types.ZoomCommand(name)]
	if !ok {
		d.log.Info("ignoring unknown command", zap.String("command", name))
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	op(&d.pres)
	return true
}

// setRecord replaces the mirror. The presentation goes back to defaults when
// a different image is shown, or when reloaded is set and the record moved.
func (d *Display) setRecord(tv types.TV, reloaded bool) bool {
	status := StatusNoImage
	if tv.Image != nil {
		status = StatusShowing
	}

	if d.tv != nil && d.tv.Equal(tv) && d.status == status {
		return false
	}

	if tv.Image != nil && (reloaded || imageChanged(d.tv, tv)) {
		d.pres.Reset()
	}

	c := tv.Clone()
	d.tv = &c
	d.status = status
	return true
}

func (d *Display) clear(status Status) bool {
	if d.tv == nil && d.status == status {
		return false
	}
	d.tv = nil
	d.status = status
	return true
}

func imageChanged(prev *types.TV, next types.TV) bool {
	if prev == nil || prev.Image == nil || next.Image == nil {
		return true
	}
	return *prev.Image != *next.Image
}
