package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"virtual-economy/pkg/db/option"
	"virtual-economy/pkg/db/pagination"
	"virtual-economy/services/testutil"
)

type widget struct {
	ID        string `gorm:"primaryKey"`
	Owner     string
	Score     int
	CreatedAt time.Time
}

func seedWidgets(t *testing.T, repo Repository[widget]) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, score := range []int{5, 10, 15} {
		require.NoError(t, repo.Create(context.Background(), &widget{
			ID:        string(rune('a' + i)),
			Owner:     "u1",
			Score:     score,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Create(context.Background(), &widget{ID: "z", Owner: "u2", Score: 1, CreatedAt: base}))
}

func TestStoreFindWithOptions(t *testing.T) {
	db := testutil.NewTestDB(t, &widget{})
	repo := ProvideStore[widget](db)
	seedWidgets(t, repo)
	ctx := context.Background()

	rows, err := repo.Find(ctx, &widget{Owner: "u1"},
		option.ApplyOperator(option.Condition{Field: "score", Operator: option.GT, Value: 5}),
		option.WithSortBy(option.QuerySortBy{OrderBy: "desc"}),
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "c", rows[0].ID)
	require.Equal(t, "b", rows[1].ID)

	page, err := repo.Find(ctx, &widget{Owner: "u1"},
		option.WithSortBy(option.QuerySortBy{OrderBy: "asc"}),
		option.ApplyPagination(pagination.Pagination{Page: 2, Limit: 2}),
	)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "c", page[0].ID)
}

func TestStoreFindOneMissing(t *testing.T) {
	db := testutil.NewTestDB(t, &widget{})
	repo := ProvideStore[widget](db)

	got, err := repo.FindOne(context.Background(), &widget{ID: "missing"})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestStoreUpdateCountDelete(t *testing.T) {
	db := testutil.NewTestDB(t, &widget{})
	repo := ProvideStore[widget](db)
	seedWidgets(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.Update(ctx, "a", map[string]any{"score": 50}))
	a, err := repo.FindOne(ctx, &widget{ID: "a"})
	require.NoError(t, err)
	require.Equal(t, 50, a.Score)

	total, err := repo.Count(ctx, &widget{Owner: "u1"})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)

	deleted, err := repo.Delete(ctx, &widget{Owner: "u1"},
		option.ApplyOperator(option.Condition{Field: "score", Operator: option.LT, Value: 20}))
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	total, err = repo.Count(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
}
