package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"dataviz/adapters/render"
	"dataviz/domain/chart"
	"dataviz/domain/core"
	"dataviz/domain/table"
	apperrors "dataviz/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New("t.csv", []string{"k", "v"}, [][]string{{"a", "1"}})
	require.NoError(t, err)
	return tbl
}

func TestCreateAndGet(t *testing.T) {
	store := NewStore()
	sess := store.Create()

	assert.False(t, sess.ID.IsEmpty())
	assert.False(t, sess.HasTable())
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	_, err = store.Get(core.NewID())
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
}

func TestSetTableDiscardsPreviousChart(t *testing.T) {
	store := NewStore()
	sess := store.Create()

	tbl := testTable(t)
	require.NoError(t, store.SetTable(sess.ID, tbl))
	require.NoError(t, store.SetChart(sess.ID, tbl, chart.Plan{Kind: chart.KindBar, X: "k"}, &render.Figure{}))

	got, _ := store.Get(sess.ID)
	require.True(t, got.HasChart())

	require.NoError(t, store.SetTable(sess.ID, testTable(t)))
	got, _ = store.Get(sess.ID)
	assert.True(t, got.HasTable())
	assert.False(t, got.HasChart())

	require.NoError(t, store.ClearTable(sess.ID))
	got, _ = store.Get(sess.ID)
	assert.False(t, got.HasTable())
}

func TestSnapshotsAreNotAffectedByLaterUpdates(t *testing.T) {
	store := NewStore()
	sess := store.Create()
	require.NoError(t, store.SetTable(sess.ID, testTable(t)))

	before, _ := store.Get(sess.ID)
	require.NoError(t, store.ClearTable(sess.ID))

	assert.True(t, before.HasTable())
}

func TestSetChartRejectsStaleTable(t *testing.T) {
	store := NewStore()
	sess := store.Create()

	old := testTable(t)
	require.NoError(t, store.SetTable(sess.ID, old))
	require.NoError(t, store.SetTable(sess.ID, testTable(t)))

	err := store.SetChart(sess.ID, old, chart.Plan{Kind: chart.KindBar, X: "k"}, &render.Figure{})
	require.Error(t, err)

	got, _ := store.Get(sess.ID)
	assert.False(t, got.HasChart())

	require.NoError(t, store.ClearTable(sess.ID))
	assert.Error(t, store.SetChart(sess.ID, nil, chart.Plan{}, &render.Figure{}))
}

func TestUpdatesOnUnknownSession(t *testing.T) {
	store := NewStore()
	id := core.NewID()

	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(store.SetTable(id, nil)))
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(store.SetChart(id, nil, chart.Plan{}, nil)))
	store.Delete(id)
}

func TestCleanupExpired(t *testing.T) {
	store := NewStore()
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	stale := store.Create()
	clock = clock.Add(20 * time.Minute)
	fresh := store.Create()
	clock = clock.Add(15 * time.Minute)

	assert.Equal(t, 1, store.CleanupExpired(30*time.Minute))
	_, err := store.Get(stale.ID)
	assert.Error(t, err)
	_, err = store.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestSweeperStopsWithContext(t *testing.T) {
	store := NewStore()
	store.Create()

	ctx, cancel := context.WithCancel(context.Background())
	store.StartSweeper(ctx, time.Nanosecond, time.Millisecond)

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
}

func TestConcurrentAccess(t *testing.T) {
	store := NewStore()
	tbl := testTable(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := store.Create()
			assert.NoError(t, store.SetTable(sess.ID, tbl))
			_, err := store.Get(sess.ID)
			assert.NoError(t, err)
			store.CleanupExpired(time.Hour)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, store.Len())
}
