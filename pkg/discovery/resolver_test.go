package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockFinder struct {
	mock.Mock
}

func (m *mockFinder) Discover(ctx context.Context, name string) ([]*ServiceInstance, error) {
	args := m.Called(ctx, name)
	instances, _ := args.Get(0).([]*ServiceInstance)
	return instances, args.Error(1)
}

func TestResolverFallsBackWithoutInstances(t *testing.T) {
	f := new(mockFinder)
	f.On("Discover", mock.Anything, "coffee-api").Return(nil, nil)

	r, err := NewResolver(f, "coffee-api", "http://localhost:5000/api", zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000/api", r.BaseURL(context.Background()))
}

func TestResolverRotatesAndCaches(t *testing.T) {
	f := new(mockFinder)
	f.On("Discover", mock.Anything, "coffee-api").Return([]*ServiceInstance{
		{Name: "coffee-api", Host: "10.0.0.1", Port: 5000},
		{Name: "coffee-api", Host: "10.0.0.2", Port: 5000},
	}, nil).Once()

	r, err := NewResolver(f, "coffee-api", "http://localhost:5000/api", zap.NewNop())
	require.NoError(t, err)
	now := time.Unix(0, 0)
	r.now = func() time.Time { return now }

	first := r.BaseURL(context.Background())
	second := r.BaseURL(context.Background())

	assert.NotEqual(t, first, second)
	assert.ElementsMatch(t, []string{"http://10.0.0.1:5000/api", "http://10.0.0.2:5000/api"}, []string{first, second})
	f.AssertNumberOfCalls(t, "Discover", 1)
}

func TestResolverKeepsInstancesOnError(t *testing.T) {
	f := new(mockFinder)
	f.On("Discover", mock.Anything, "coffee-api").Return([]*ServiceInstance{
		{Name: "coffee-api", Host: "10.0.0.1", Port: 5000},
	}, nil).Once()
	f.On("Discover", mock.Anything, "coffee-api").Return(nil, errors.New("etcd down")).Once()

	r, err := NewResolver(f, "coffee-api", "https://fallback/api", zap.NewNop())
	require.NoError(t, err)
	now := time.Unix(0, 0)
	r.now = func() time.Time { return now }

	assert.Equal(t, "https://10.0.0.1:5000/api", r.BaseURL(context.Background()))
	now = now.Add(time.Minute)
	assert.Equal(t, "https://10.0.0.1:5000/api", r.BaseURL(context.Background()))
}

func TestParseInstance(t *testing.T) {
	inst, err := parseInstance("svc", "127.0.0.1:8080")
	require.NoError(t, err)
	assert.Equal(t, 8080, inst.Port)
	assert.Equal(t, "127.0.0.1:8080", inst.Addr())

	_, err = parseInstance("svc", "no-port")
	assert.Error(t, err)
}
