package server

import (
	"sync"

	"github.com/npezzotti/tvdash/internal/registry"
	"github.com/npezzotti/tvdash/internal/stats"
	"github.com/npezzotti/tvdash/internal/types"
	"go.uber.org/zap"
)

type Broadcaster interface {
	Broadcast(msg *ServerMessage)
}

// Dashboard is the mutation surface used by the HTTP layer. Every mutation
// and the broadcast derived from it happen under one lock, so broadcasts are
// queued in the same order the registry applied the mutations.
type Dashboard struct {
	mu       sync.Mutex
	registry registry.Repository
	hub      Broadcaster
	stats    stats.StatsProvider
	log      *zap.Logger
}

func NewDashboard(logger *zap.Logger, reg registry.Repository, hub Broadcaster, su stats.StatsProvider) *Dashboard {
	su.RegisterMetric(stats.NumTVs)

	return &Dashboard{
		registry: reg,
		hub:      hub,
		stats:    su,
		log:      logger,
	}
}

func (d *Dashboard) ListTVs() []types.TV {
	return d.registry.List()
}

func (d *Dashboard) GetTV(id int) (types.TV, error) {
	return d.registry.Get(id)
}

func (d *Dashboard) CreateTV(name string) (types.TV, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tv, err := d.registry.Add(name)
	if err != nil {
		return types.TV{}, err
	}

	d.stats.Incr(stats.NumTVs)
	d.log.Info("tv created", zap.Int("tv_id", tv.Id), zap.String("name", tv.Name))
	d.hub.Broadcast(AddedEvent(tv))
	return tv, nil
}

// UploadImage points the TV at a stored asset. The reference the TV held
// before is returned so the caller can release it.
func (d *Dashboard) UploadImage(id int, ref string) (types.TV, *string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tv, prev, err := d.registry.SetImage(id, ref)
	if err != nil {
		return types.TV{}, nil, err
	}

	d.log.Info("tv image updated", zap.Int("tv_id", tv.Id), zap.String("image", ref))
	d.hub.Broadcast(ImageUpdatedEvent(tv))
	return tv, prev, nil
}

func (d *Dashboard) SetYoutubeLink(id int, link *string) (types.TV, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tv, err := d.registry.SetYoutubeLink(id, link)
	if err != nil {
		return types.TV{}, err
	}

	d.log.Info("tv link updated", zap.Int("tv_id", tv.Id), zap.Bool("cleared", tv.YoutubeLink == nil))
	d.hub.Broadcast(LinkUpdatedEvent(tv))
	return tv, nil
}

// DeleteTV removes the TV and returns the removed record. A non-nil Image
// on the result is an asset the caller now has to release.
func (d *Dashboard) DeleteTV(id int) (types.TV, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tv, err := d.registry.Remove(id)
	if err != nil {
		return types.TV{}, err
	}

	d.stats.Decr(stats.NumTVs)
	d.log.Info("tv deleted", zap.Int("tv_id", tv.Id))
	d.hub.Broadcast(DeletedEvent(tv.Id))
	return tv, nil
}
