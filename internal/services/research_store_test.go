package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"decentra_research_backend/internal/database"
	"decentra_research_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) ResearchStore {
	t.Helper()
	db, err := database.InitDB(database.Config{Driver: database.DriverSQLite})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewResearchStoreDB(db)
}

var storeFactories = map[string]func(t *testing.T) ResearchStore{
	"memory": func(t *testing.T) ResearchStore { return NewMemoryResearchStore() },
	"gorm":   newSQLiteStore,
}

func sampleResearch(title string, created time.Time) *models.Research {
	return &models.Research{
		Title:     title,
		Abstract:  "An abstract",
		Authors:   []string{"Ada Lovelace", "Alan Turing"},
		Keywords:  []string{"ai"},
		Owner:     "0xabc",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestResearchStore_CreateAndGet(t *testing.T) {
	for name, newStore := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()

			r := sampleResearch("First", time.Now().UTC())
			require.NoError(t, store.Create(ctx, r))
			require.NotEmpty(t, r.ID)

			got, err := store.GetByID(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, "First", got.Title)
			assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, got.Authors)
			assert.Equal(t, []string{"ai"}, got.Keywords)
			assert.Equal(t, int64(0), got.Citations)
			assert.False(t, got.Verified)

			_, err = store.GetByID(ctx, "not-a-uuid")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestResearchStore_ListNewestFirst(t *testing.T) {
	for name, newStore := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()

			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			require.NoError(t, store.Create(ctx, sampleResearch("old", base)))
			require.NoError(t, store.Create(ctx, sampleResearch("new", base.Add(time.Hour))))
			require.NoError(t, store.Create(ctx, sampleResearch("middle", base.Add(time.Minute))))

			list, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, "new", list[0].Title)
			assert.Equal(t, "middle", list[1].Title)
			assert.Equal(t, "old", list[2].Title)
		})
	}
}

func TestResearchStore_UpdateLeavesCitations(t *testing.T) {
	for name, newStore := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()

			r := sampleResearch("Before", time.Now().UTC())
			require.NoError(t, store.Create(ctx, r))
			_, err := store.IncrementCitations(ctx, r.ID, nil)
			require.NoError(t, err)

			stale := *r
			stale.Title = "After"
			stale.Keywords = []string{}
			stale.Citations = 0
			stale.Owner = "0xdef"
			stale.UpdatedAt = time.Now().UTC().Add(time.Minute)
			require.NoError(t, store.Update(ctx, &stale))

			got, err := store.GetByID(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, "After", got.Title)
			assert.Empty(t, got.Keywords)
			assert.Equal(t, int64(1), got.Citations)
			assert.Equal(t, "0xabc", got.Owner)

			missing := sampleResearch("x", time.Now())
			missing.ID = "missing"
			assert.ErrorIs(t, store.Update(ctx, missing), ErrNotFound)
		})
	}
}

func TestResearchStore_Delete(t *testing.T) {
	for name, newStore := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()

			r := sampleResearch("Doomed", time.Now().UTC())
			require.NoError(t, store.Create(ctx, r))
			require.NoError(t, store.Delete(ctx, r.ID))

			_, err := store.GetByID(ctx, r.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, store.Delete(ctx, r.ID), ErrNotFound)
		})
	}
}

func TestResearchStore_IncrementCitations(t *testing.T) {
	for name, newStore := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()

			cited := sampleResearch("Cited", time.Now().UTC())
			citing := sampleResearch("Citing", time.Now().UTC())
			require.NoError(t, store.Create(ctx, cited))
			require.NoError(t, store.Create(ctx, citing))

			for i := 1; i <= 3; i++ {
				got, err := store.IncrementCitations(ctx, cited.ID, nil)
				require.NoError(t, err)
				assert.Equal(t, int64(i), got.Citations)
			}

			got, err := store.IncrementCitations(ctx, cited.ID, &models.Citation{CitingPaper: citing.ID, TransactionHash: "0x01"})
			require.NoError(t, err)
			assert.Equal(t, int64(4), got.Citations)

			ledger, err := store.ListCitations(ctx, cited.ID)
			require.NoError(t, err)
			require.Len(t, ledger, 1)
			assert.Equal(t, citing.ID, ledger[0].CitingPaper)
			assert.Equal(t, cited.ID, ledger[0].CitedPaper)
			assert.Equal(t, "0x01", ledger[0].TransactionHash)
			assert.False(t, ledger[0].RewardClaimed)

			_, err = store.IncrementCitations(ctx, "missing", nil)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestResearchStore_UnknownCitingPaperRollsBack(t *testing.T) {
	for name, newStore := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()

			cited := sampleResearch("Cited", time.Now().UTC())
			require.NoError(t, store.Create(ctx, cited))

			_, err := store.IncrementCitations(ctx, cited.ID, &models.Citation{CitingPaper: "ghost"})
			assert.ErrorIs(t, err, ErrCitingPaperNotFound)

			got, err := store.GetByID(ctx, cited.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(0), got.Citations)

			ledger, err := store.ListCitations(ctx, cited.ID)
			require.NoError(t, err)
			assert.Empty(t, ledger)
		})
	}
}

func TestResearchStore_ConcurrentCitesAreNotLost(t *testing.T) {
	const n = 25
	for name, newStore := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()

			r := sampleResearch("Popular", time.Now().UTC())
			require.NoError(t, store.Create(ctx, r))

			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := store.IncrementCitations(ctx, r.ID, nil); err != nil {
						errs <- err
					}
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Errorf("increment failed: %v", err)
			}

			got, err := store.GetByID(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(n), got.Citations)
		})
	}
}
