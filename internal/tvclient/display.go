package tvclient

import (
	"context"
	"time"

	"github.com/npezzotti/tvdash/internal/reconcile"
	"github.com/npezzotti/tvdash/internal/server"
	"github.com/npezzotti/tvdash/internal/types"
	"go.uber.org/zap"
)

type DisplayOption func(*DisplayRunner)

// WithFetcher replaces the HTTP fetcher used for re-pulls.
func WithFetcher(f Fetcher) DisplayOption {
	return func(r *DisplayRunner) {
		r.fetcher = f
	}
}

// OnDisplayChange registers fn to run after every change to the display.
// fn may be called from more than one goroutine.
func OnDisplayChange(fn func(*reconcile.Display)) DisplayOption {
	return func(r *DisplayRunner) {
		r.onChange = fn
	}
}

// DisplayRunner keeps a reconcile.Display in sync with the server: it
// joins the TV's room on every connection, applies events and commands,
// and re-pulls the record on a fixed interval while visible.
type DisplayRunner struct {
	baseURL    string
	display    *reconcile.Display
	fetcher    Fetcher
	interval   time.Duration
	log        *zap.Logger
	onChange   func(*reconcile.Display)
	visibility chan bool
}

func NewDisplayRunner(baseURL string, tvId int, interval time.Duration, logger *zap.Logger, opts ...DisplayOption) *DisplayRunner {
	r := &DisplayRunner{
		baseURL:    baseURL,
		display:    reconcile.NewDisplay(tvId, logger),
		fetcher:    NewHTTPFetcher(baseURL, nil),
		interval:   interval,
		log:        logger.With(zap.Int("tv_id", tvId)),
		visibility: make(chan bool, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *DisplayRunner) Display() *reconcile.Display {
	return r.display
}

// Suspend stops periodic re-pulls, as when the screen is in the background.
func (r *DisplayRunner) Suspend() {
	r.setVisible(false)
}

// Resume re-pulls immediately and restarts the periodic re-pull.
func (r *DisplayRunner) Resume() {
	r.setVisible(true)
}

func (r *DisplayRunner) setVisible(v bool) {
	for {
		select {
		case r.visibility <- v:
			return
		default:
			// drop a pending value nobody picked up yet; the latest wins
			select {
			case <-r.visibility:
			default:
			}
		}
	}
}

// Run blocks until ctx is done.
func (r *DisplayRunner) Run(ctx context.Context) error {
	go r.refreshLoop(ctx)
	return runWithReconnect(ctx, r.log, r.session)
}

func (r *DisplayRunner) session(ctx context.Context) (bool, error) {
	conn, err := Dial(ctx, r.baseURL, r.log)
	if err != nil {
		return false, err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.ws.Close() })
	defer stop()

	if _, err := conn.Join(r.display.TVId()); err != nil {
		return true, err
	}

	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		r.handle(msg)
	}
}

func (r *DisplayRunner) handle(msg *server.ServerMessage) {
	if err := checkResponse(msg); err != nil {
		r.log.Warn("request rejected", zap.Int("msg_id", msg.Id), zap.Error(err))
		return
	}
	if msg.Event == nil {
		return
	}

	var changed bool
	switch msg.Event.Type {
	case types.EventJoinedRoom:
		r.log.Info("joined room", zap.String("room", msg.Event.Room))
	case types.EventZoomCommand:
		changed = r.display.HandleCommand(string(msg.Event.Command))
	default:
		changed = r.display.Apply(*msg.Event)
	}

	if changed {
		r.changed()
	}
}

func (r *DisplayRunner) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	tick := ticker.C

	r.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			r.refresh(ctx)
		case visible := <-r.visibility:
			if !visible {
				r.log.Debug("display suspended")
				tick = nil
				continue
			}
			r.log.Debug("display resumed")
			r.refresh(ctx)
			ticker.Reset(r.interval)
			tick = ticker.C
		}
	}
}

func (r *DisplayRunner) refresh(ctx context.Context) {
	tv, err := r.fetcher.GetTV(ctx, r.display.TVId())
	if ctx.Err() != nil {
		return
	}
	if r.display.Refresh(tv, err) {
		r.changed()
	}
}

func (r *DisplayRunner) changed() {
	tv, _ := r.display.TV()
	p := r.display.Presentation()
	r.log.Info("display changed",
		zap.String("status", string(r.display.Status())),
		zap.Stringp("image", tv.Image),
		zap.Float64("zoom", p.Zoom),
		zap.String("fit", string(p.Fit)))

	if r.onChange != nil {
		r.onChange(r.display)
	}
}
