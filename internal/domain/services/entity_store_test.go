package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/errs"
)

func ids(findings []entities.Finding) []string {
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = f.ID
	}
	return out
}

func TestEntityStore_ReplaceKeepsFetchOrder(t *testing.T) {
	store := NewFindingStore()
	store.Replace([]entities.Finding{
		{ID: "3", Title: "C"},
		{ID: "1", Title: "A"},
		{ID: "3", Title: "C2"},
		{ID: "2", Title: "B"},
	})

	list := store.List()
	assert.Equal(t, []string{"3", "1", "2"}, ids(list))
	assert.Equal(t, "C2", list[0].Title)
	assert.Equal(t, 3, store.Len())
}

func TestEntityStore_UpsertReplacesOrAppends(t *testing.T) {
	store := NewFindingStore()
	store.Replace([]entities.Finding{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}})

	store.Upsert(entities.Finding{ID: "1", Title: "A2"})
	store.Upsert(entities.Finding{ID: "9", Title: "Z"})

	list := store.List()
	assert.Equal(t, []string{"1", "2", "9"}, ids(list))
	assert.Equal(t, "A2", list[0].Title)
}

func TestEntityStore_RemoveAndGet(t *testing.T) {
	store := NewFindingStore()
	store.Replace([]entities.Finding{{ID: "1"}, {ID: "2"}, {ID: "3"}})

	require.NoError(t, store.Remove("2"))
	assert.Equal(t, []string{"1", "3"}, ids(store.List()))

	f, err := store.Get("3")
	require.NoError(t, err)
	assert.Equal(t, "3", f.ID)

	_, err = store.Get("2")
	assert.True(t, errs.Is(err, errs.KindNotFound))
	assert.True(t, errs.Is(store.Remove("2"), errs.KindNotFound))
	assert.False(t, store.Contains("2"))
}

func TestEntityStore_ValuesDoNotAlias(t *testing.T) {
	store := NewFindingStore()
	report := entities.Report{entities.FieldTitle: "original"}
	store.Upsert(entities.Finding{ID: "1", Report: report})

	report[entities.FieldTitle] = "mutated by caller"
	got, err := store.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "original", got.Report[entities.FieldTitle])

	got.Report[entities.FieldTitle] = "mutated copy"
	again, _ := store.Get("1")
	assert.Equal(t, "original", again.Report[entities.FieldTitle])
}

func TestEntityStore_ConcurrentUse(t *testing.T) {
	store := NewProjectStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			store.Upsert(entities.Project{ID: string(rune('a' + n%5))})
			_ = store.List()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, store.Len())
}
