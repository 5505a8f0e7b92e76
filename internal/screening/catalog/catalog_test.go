package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdnscreen/internal/sdn/models"
	"sdnscreen/internal/sdn/store"
)

func snapshot(records ...models.Record) *models.Snapshot {
	return &models.Snapshot{
		ID:              uuid.New(),
		PublicationDate: "2024-03-05",
		IngestedAt:      time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC),
		Records:         records,
	}
}

func person(entryID int64, name string, aliases ...string) models.Record {
	r := models.Record{
		EntryID:     entryID,
		EntityType:  models.EntityIndividual,
		PrimaryName: &models.Name{FullName: name},
	}
	for _, a := range aliases {
		r.Aliases = append(r.Aliases, models.Alias{FullName: a, AliasType: "A.K.A.", AliasQuality: models.AliasStrong})
	}
	return r
}

func TestView(t *testing.T) {
	snap := snapshot(
		person(36, "SADDAM HUSSEIN", "ABU ALI"),
		person(50, "BIN LADEN"),
		person(36, "DUPLICATE"),
	)
	v := NewView(snap)

	assert.Equal(t, snap.ID, v.Info.ID)
	assert.Equal(t, 3, v.Info.RecordCount)
	assert.Equal(t, 4, v.Index.Len())

	rec, ok := v.Entry(36)
	require.True(t, ok)
	assert.Equal(t, "SADDAM HUSSEIN", rec.PrimaryFullName(), "first record wins on repeated entry ids")

	_, ok = v.Entry(999)
	assert.False(t, ok)

	name := v.Index.Names()[2]
	assert.Equal(t, "BIN LADEN", v.Record(name.Record).PrimaryFullName())
}

func TestCatalogReplace(t *testing.T) {
	c := New()
	assert.Nil(t, c.Current())

	first := c.Replace(snapshot(person(1, "A")))
	held := c.Current()
	second := c.Replace(snapshot(person(2, "B")))

	assert.Same(t, second, c.Current())
	assert.Same(t, first, held)
	_, ok := held.Entry(1)
	assert.True(t, ok, "a held view is unaffected by later swaps")
}

type failingSource struct {
	store.Store
	activeErr error
	loadErr   error
}

func (f failingSource) ActiveID(ctx context.Context) (uuid.UUID, error) {
	if f.activeErr != nil {
		return uuid.Nil, f.activeErr
	}
	return f.Store.ActiveID(ctx)
}

func (f failingSource) Load(ctx context.Context) (*models.Snapshot, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.Store.Load(ctx)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing published", func(t *testing.T) {
		c := New()
		changed, err := NewRefresher(c, store.NewMemory(), time.Minute).Refresh(ctx)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Nil(t, c.Current())
	})

	t.Run("loads and reloads on change only", func(t *testing.T) {
		mem := store.NewMemory()
		c := New()
		var loaded []uuid.UUID
		r := NewRefresher(c, mem, time.Minute, WithOnLoad(func(v *View) {
			loaded = append(loaded, v.Info.ID)
		}))

		first := snapshot(person(1, "A"))
		require.NoError(t, mem.Publish(ctx, first))
		changed, err := r.Refresh(ctx)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = r.Refresh(ctx)
		require.NoError(t, err)
		assert.False(t, changed)

		second := snapshot(person(2, "B"))
		require.NoError(t, mem.Publish(ctx, second))
		changed, err = r.Refresh(ctx)
		require.NoError(t, err)
		assert.True(t, changed)

		assert.Equal(t, []uuid.UUID{first.ID, second.ID}, loaded)
		assert.Equal(t, second.ID, c.Current().Info.ID)
	})

	t.Run("load failure keeps current view", func(t *testing.T) {
		mem := store.NewMemory()
		c := New()
		require.NoError(t, mem.Publish(ctx, snapshot(person(1, "A"))))
		_, err := NewRefresher(c, mem, time.Minute).Refresh(ctx)
		require.NoError(t, err)
		before := c.Current()

		require.NoError(t, mem.Publish(ctx, snapshot(person(2, "B"))))
		boom := errors.New("disk gone")
		_, err = NewRefresher(c, failingSource{Store: mem, loadErr: boom}, time.Minute).Refresh(ctx)
		require.ErrorIs(t, err, boom)
		assert.Same(t, before, c.Current())
	})

	t.Run("active id failure", func(t *testing.T) {
		boom := errors.New("connection refused")
		_, err := NewRefresher(New(), failingSource{Store: store.NewMemory(), activeErr: boom}, time.Minute).Refresh(ctx)
		require.ErrorIs(t, err, boom)
	})
}

func TestStartStopsOnCancel(t *testing.T) {
	mem := store.NewMemory()
	c := New()
	require.NoError(t, mem.Publish(context.Background(), snapshot(person(1, "A"))))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewRefresher(c, mem, 5*time.Millisecond).Start(ctx)
	}()

	require.Eventually(t, func() bool { return c.Current() != nil }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}
