package registry

import (
	"github.com/npezzotti/tvdash/internal/types"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Add(name string) (types.TV, error) {
	args := m.Called(name)
	return args.Get(0).(types.TV), args.Error(1)
}
func (m *MockRepository) SetImage(id int, ref string) (types.TV, *string, error) {
	args := m.Called(id, ref)
	var prev *string
	if p, ok := args.Get(1).(*string); ok {
		prev = p
	}
	return args.Get(0).(types.TV), prev, args.Error(2)
}
func (m *MockRepository) SetYoutubeLink(id int, link *string) (types.TV, error) {
	args := m.Called(id, link)
	return args.Get(0).(types.TV), args.Error(1)
}
func (m *MockRepository) Remove(id int) (types.TV, error) {
	args := m.Called(id)
	return args.Get(0).(types.TV), args.Error(1)
}
func (m *MockRepository) Get(id int) (types.TV, error) {
	args := m.Called(id)
	return args.Get(0).(types.TV), args.Error(1)
}
func (m *MockRepository) List() []types.TV {
	args := m.Called()
	return args.Get(0).([]types.TV)
}
