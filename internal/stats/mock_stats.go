package stats

import "github.com/stretchr/testify/mock"

type MockStatsUpdater struct {
	mock.Mock
}

func (m *MockStatsUpdater) Incr(name string) {
	m.Called(name)
}
func (m *MockStatsUpdater) Decr(name string) {
	m.Called(name)
}
func (m *MockStatsUpdater) Add(name string, delta int) {
	m.Called(name, delta)
}
func (m *MockStatsUpdater) RegisterMetric(name string) {
	m.Called(name)
}

// Discard is a StatsProvider that records nothing.
type Discard struct{}

func (Discard) Incr(string) {}
func (Discard) Decr(string) {}
func (Discard) Add(string, int) {}
func (Discard) RegisterMetric(string) {}
