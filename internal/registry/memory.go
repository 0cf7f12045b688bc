package registry

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/npezzotti/tvdash/internal/types"
)

// IDPolicy selects how new TV ids are allocated.
type IDPolicy string

const (
	// IDMonotonic never hands out an id twice during the process lifetime.
	IDMonotonic IDPolicy = "monotonic"
	// IDLength allocates "number of records + 1", skipping ids still in use.
	// Ids of deleted records can come back under this policy.
	IDLength IDPolicy = "length"
)

func ParseIDPolicy(s string) (IDPolicy, error) {
	switch p := IDPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case IDMonotonic, IDLength:
		return p, nil
	case "":
		return IDMonotonic, nil
	default:
		return "", fmt.Errorf("unknown id policy %q", s)
	}
}

type Option func(*Memory)

func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		m.now = now
	}
}

func WithIDPolicy(p IDPolicy) Option {
	return func(m *Memory) {
		m.policy = p
	}
}

// Memory is an in-process Repository. Records are kept in insertion order.
type Memory struct {
	mu     sync.RWMutex
	tvs    []types.TV
	lastId int
	policy IDPolicy
	now    func() time.Time
}

var _ Repository = (*Memory)(nil)

func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		policy: IDMonotonic,
		now:    Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now is the registry's default clock: UTC with millisecond precision.
func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}

func (m *Memory) Add(name string) (types.TV, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.TV{}, &ValidationError{Field: "name", Message: "name is required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tv := types.TV{
		Id:        m.nextId(),
		Name:      name,
		CreatedAt: m.now(),
	}
	m.tvs = append(m.tvs, tv)

	return tv.Clone(), nil
}

func (m *Memory) SetImage(id int, ref string) (types.TV, *string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return types.TV{}, nil, notFound(id)
	}

	tv := &m.tvs[i]
	prev := tv.Image
	tv.Image = &ref
	m.touch(tv)

	return tv.Clone(), prev, nil
}

func (m *Memory) SetYoutubeLink(id int, link *string) (types.TV, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return types.TV{}, notFound(id)
	}

	tv := &m.tvs[i]
	tv.YoutubeLink = nil
	if link != nil {
		if l := strings.TrimSpace(*link); l != "" {
			tv.YoutubeLink = &l
		}
	}
	m.touch(tv)

	return tv.Clone(), nil
}

func (m *Memory) Remove(id int) (types.TV, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return types.TV{}, notFound(id)
	}

	tv := m.tvs[i]
	m.tvs = append(m.tvs[:i], m.tvs[i+1:]...)

	return tv, nil
}

func (m *Memory) Get(id int) (types.TV, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(id)
	if i < 0 {
		return types.TV{}, notFound(id)
	}

	return m.tvs[i].Clone(), nil
}

func (m *Memory) List() []types.TV {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tvs := make([]types.TV, len(m.tvs))
	for i, tv := range m.tvs {
		tvs[i] = tv.Clone()
	}
	return tvs
}

// nextId must be called with mu held.
func (m *Memory) nextId() int {
	if m.policy == IDLength {
		id := len(m.tvs) + 1
		for m.indexOf(id) >= 0 {
			id++
		}
		return id
	}

	m.lastId++
	return m.lastId
}

func (m *Memory) touch(tv *types.TV) {
	ts := m.now()
	tv.UpdatedAt = &ts
}

func (m *Memory) indexOf(id int) int {
	for i := range m.tvs {
		if m.tvs[i].Id == id {
			return i
		}
	}
	return -1
}
