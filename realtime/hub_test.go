package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDependencyWiring(t *testing.T) {
	hub := NewHub(NewCache(nil), nil)

	tests := []struct {
		resource string
		want     []string
	}{
		{ResourceDeals, []string{"analytics:pipeline", "deals:list"}},
		{ResourceStages, []string{"analytics:pipeline", "deals:list", "stages:list"}},
		{ResourceListings, []string{"listings:list"}},
		{ResourceSubmissions, []string{"submissions:list"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, hub.DependenciesOf(tt.resource), "resource %s", tt.resource)
	}

	// Unregistered resources have no dependents.
	assert.Empty(t, hub.DependenciesOf(ResourceNotifications))
}

func TestDependsOnAppends(t *testing.T) {
	hub := NewHub(NewCache(nil), nil)

	hub.DependsOn(ResourceDeals, "reports:weekly")
	deps := hub.DependenciesOf(ResourceDeals)
	require.Len(t, deps, 3)
	assert.Equal(t, "reports:weekly", deps[2])
}

func TestDependenciesOfReturnsCopy(t *testing.T) {
	hub := NewHub(NewCache(nil), nil)

	deps := hub.DependenciesOf(ResourceDeals)
	deps[0] = "mutated"
	assert.Equal(t, "analytics:pipeline", hub.DependenciesOf(ResourceDeals)[0])
}

func TestPublishWithoutSubscribersOrRedis(t *testing.T) {
	hub := NewHub(NewCache(nil), nil)

	// No cache backend, no connections; publishing must still be safe.
	hub.Publish(context.Background(), Event{
		Event:    EventUpdate,
		Resource: ResourceDeals,
		ID:       42,
	})
	assert.Equal(t, 0, hub.SubscriberCount())
}

func TestCacheDisabledWithoutClient(t *testing.T) {
	cache := NewCache(nil)
	ctx := context.Background()

	var dest map[string]string
	hit, err := cache.Get(ctx, "analytics:pipeline:1:residential", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	assert.NoError(t, cache.Set(ctx, "k", map[string]string{"a": "b"}, 0))
	assert.NoError(t, cache.DeletePrefix(ctx, "analytics:pipeline"))
}
