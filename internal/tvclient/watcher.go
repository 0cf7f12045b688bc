package tvclient

import (
	"context"

	"github.com/npezzotti/tvdash/internal/reconcile"
	"go.uber.org/zap"
)

// Watcher mirrors the TV list of a server, the way a dashboard does.
type Watcher struct {
	baseURL  string
	mirror   *reconcile.Dashboard
	log      *zap.Logger
	onChange func(reconcile.Change)
}

// NewWatcher creates a watcher. onChange, if not nil, runs for every event
// that changed the mirror.
func NewWatcher(baseURL string, logger *zap.Logger, onChange func(reconcile.Change)) *Watcher {
	return &Watcher{
		baseURL:  baseURL,
		mirror:   reconcile.NewDashboard(),
		log:      logger,
		onChange: onChange,
	}
}

func (w *Watcher) Mirror() *reconcile.Dashboard {
	return w.mirror
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	return runWithReconnect(ctx, w.log, w.session)
}

func (w *Watcher) session(ctx context.Context) (bool, error) {
	conn, err := Dial(ctx, w.baseURL, w.log)
	if err != nil {
		return false, err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.ws.Close() })
	defer stop()

	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		if msg.Event == nil {
			continue
		}

		change := w.mirror.Apply(*msg.Event)
		if !change.Changed() {
			continue
		}

		w.log.Info("tv list changed",
			zap.Stringer("change", change.Kind),
			zap.Int("tv_id", change.TVId),
			zap.Int("tvs", len(w.mirror.TVs())))
		if w.onChange != nil {
			w.onChange(change)
		}
	}
}
