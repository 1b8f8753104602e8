package delta_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Argus/internal/delta"
	"github.com/XavierBriggs/Argus/pkg/models"
	"github.com/XavierBriggs/Argus/pkg/testutil"
)

func newEngine(t *testing.T) (*delta.Engine, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return delta.NewEngine(client, 30*time.Second), mr
}

func quoteSet(quotes ...models.Quote) models.QuoteSet {
	return models.QuoteSet{
		ID:         "set-1",
		RequestKey: "nba:warriors@lakers",
		Sport:      "NBA",
		Source:     "odds-api",
		Quotes:     quotes,
	}
}

func TestDetectChanges_NewOutcome(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	set := quoteSet(testutil.NewTestQuote(models.MarketH2H, "fanduel", "Lakers", 1.91))

	deltas, err := engine.DetectChanges(ctx, set)
	require.NoError(t, err)
	require.Len(t, deltas, 1)
	assert.Equal(t, delta.ChangeTypeNew, deltas[0].ChangeType)
	assert.Equal(t, set.RequestKey, deltas[0].RequestKey)
}

func TestDetectChanges_PriceChange(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.UpdateCache(ctx, quoteSet(testutil.NewTestQuote(models.MarketH2H, "fanduel", "Lakers", 1.91))))

	deltas, err := engine.DetectChanges(ctx, quoteSet(testutil.NewTestQuote(models.MarketH2H, "fanduel", "Lakers", 2.05)))
	require.NoError(t, err)
	require.Len(t, deltas, 1)
	assert.Equal(t, delta.ChangeTypePriceOnly, deltas[0].ChangeType)
	require.NotNil(t, deltas[0].OldPrice)
	assert.Equal(t, 1.91, *deltas[0].OldPrice)
}

func TestDetectChanges_PointChange(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	oldPoint, newPoint := -3.5, -4.5
	before := testutil.NewTestQuote(models.MarketSpreads, "fanduel", "Lakers", 1.91)
	before.Point = &oldPoint
	after := before
	after.Point = &newPoint

	require.NoError(t, engine.UpdateCache(ctx, quoteSet(before)))

	deltas, err := engine.DetectChanges(ctx, quoteSet(after))
	require.NoError(t, err)
	require.Len(t, deltas, 1)
	assert.Equal(t, delta.ChangeTypePointOnly, deltas[0].ChangeType)
	require.NotNil(t, deltas[0].OldPoint)
	assert.Equal(t, -3.5, *deltas[0].OldPoint)
}

func TestDetectChanges_NoChange(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	set := quoteSet(
		testutil.NewTestQuote(models.MarketH2H, "fanduel", "Lakers", 1.91),
		testutil.NewTestQuote(models.MarketH2H, "fanduel", "Warriors", 1.95),
	)
	require.NoError(t, engine.UpdateCache(ctx, set))

	deltas, err := engine.DetectChanges(ctx, set)
	require.NoError(t, err)
	assert.Empty(t, deltas)
}

func TestUpdateCache_AppliesTTL(t *testing.T) {
	engine, mr := newEngine(t)
	ctx := context.Background()

	q := testutil.NewTestQuote(models.MarketH2H, "FanDuel", "Lakers", 1.91)
	require.NoError(t, engine.UpdateCache(ctx, quoteSet(q)))

	key := delta.BuildKey("nba:warriors@lakers", q)
	assert.Equal(t, "quotes:current:nba:warriors@lakers:h2h:fanduel:lakers", key)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 30*time.Second, mr.TTL(key))

	mr.FastForward(31 * time.Second)
	deltas, err := engine.DetectChanges(ctx, quoteSet(q))
	require.NoError(t, err)
	require.Len(t, deltas, 1)
	assert.Equal(t, delta.ChangeTypeNew, deltas[0].ChangeType)
}

func TestDetectChanges_CorruptCacheTreatedAsNew(t *testing.T) {
	engine, mr := newEngine(t)
	ctx := context.Background()

	q := testutil.NewTestQuote(models.MarketH2H, "fanduel", "Lakers", 1.91)
	require.NoError(t, mr.Set(delta.BuildKey("nba:warriors@lakers", q), "{not json"))

	deltas, err := engine.DetectChanges(ctx, quoteSet(q))
	require.NoError(t, err)
	require.Len(t, deltas, 1)
	assert.Equal(t, delta.ChangeTypeNew, deltas[0].ChangeType)
}

func TestDetectChanges_EmptySet(t *testing.T) {
	engine, _ := newEngine(t)

	deltas, err := engine.DetectChanges(context.Background(), models.QuoteSet{})
	require.NoError(t, err)
	assert.Nil(t, deltas)
}
