package assets

import (
	"io"
	"net/http"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(tvId int, filename string, r io.Reader) (Asset, error) {
	args := m.Called(tvId, filename, r)
	return args.Get(0).(Asset), args.Error(1)
}
func (m *MockStore) Remove(ref string) error {
	args := m.Called(ref)
	return args.Error(0)
}
func (m *MockStore) MaxBytes() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

// Handler serves nothing; tests that need stored files use a real Store.
func (m *MockStore) Handler() http.Handler {
	return http.NotFoundHandler()
}
