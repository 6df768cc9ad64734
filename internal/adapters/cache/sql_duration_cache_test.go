package cache

import (
	"context"
	"itinerary-service/internal/ports"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSQLDurationCache_NilDB(t *testing.T) {
	c := NewSQLDurationCache(nil)
	ctx := context.Background()

	_, _, err := c.Get(ctx, "WALK|0|a|b")
	require.Error(t, err)
	require.Error(t, c.Put(ctx, "WALK|0|a|b", ports.CachedDuration{}))

	_, err = c.Prune(ctx, time.Hour)
	require.Error(t, err)
}

func TestInitSchema_NilDB(t *testing.T) {
	require.Error(t, InitSchema(context.Background(), nil))
}
