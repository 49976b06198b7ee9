package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/crednews/internal/news"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), "sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteSaveArticleFoldsURLCase(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	first := sampleArticle()
	first.URL = "https://A.org/x"
	first.Title = "First title"
	_, err := store.SaveArticle(ctx, first)
	require.NoError(t, err)

	second := sampleArticle()
	second.URL = "https://a.org/x"
	second.Title = "Second title"
	_, err = store.SaveArticle(ctx, second)
	require.NoError(t, err)

	st, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalArticles)

	got, err := store.GetArticlesByDate(ctx, "2024-01-15")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Second title", got[0].Title)
	assert.Equal(t, "https://a.org/x", got[0].URL)
}

func TestSQLiteDailySummaryLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	_, err := store.SaveDailySummary(ctx, DailySummary{Date: "2024-03-02", ArticleCount: 1, SourceCount: 1, Summary: "first"})
	require.NoError(t, err)
	_, err = store.SaveDailySummary(ctx, DailySummary{
		Date:         "2024-03-02",
		ArticleCount: 2,
		SourceCount:  2,
		Summary:      "second",
		CreatedAt:    time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	d, err := store.GetDailySummary(ctx, "2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, 2, d.ArticleCount)
	assert.Equal(t, 2, d.SourceCount)
	assert.Equal(t, "second", d.Summary)

	_, err = store.GetDailySummary(ctx, "2024-03-03")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteSearchEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	for i, title := range []string{"Badges reach 100% adoption", "Badges reach 1000 learners", "Wallet_pilot update"} {
		a := sampleArticle()
		a.URL = "https://example.org/" + strings.Repeat("a", i+1)
		a.Title = title
		a.Description = ""
		_, err := store.SaveArticle(ctx, a)
		require.NoError(t, err)
	}

	got, err := store.SearchArticles(ctx, "100%")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Badges reach 100% adoption", got[0].Title)

	got, err = store.GetArticlesByTopic(ctx, "WALLET_")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Wallet_pilot update", got[0].Title)

	got, err = store.SearchArticles(ctx, "nothing here")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteGetStats(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	st, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.TotalArticles)
	assert.Nil(t, st.EarliestArticle)
	assert.Nil(t, st.LatestArticle)

	rows := []news.Article{
		{Title: "A", URL: "https://one.org/a", PublishedAt: "2024-01-10T00:00:00Z", Source: news.Source{Name: "one.org"}},
		{Title: "B", URL: "https://one.org/b", PublishedAt: "2024-02-20T00:00:00Z", Source: news.Source{Name: "one.org"}},
		{Title: "C", URL: "https://two.org/c", PublishedAt: "", Source: news.Source{Name: "two.org"}},
	}
	for _, a := range rows {
		_, err := store.SaveArticle(ctx, a)
		require.NoError(t, err)
	}

	st, err = store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalArticles)
	assert.Equal(t, 2, st.TotalSources)
	require.NotNil(t, st.EarliestArticle)
	require.NotNil(t, st.LatestArticle)
	assert.Equal(t, "2024-01-10T00:00:00Z", *st.EarliestArticle)
	assert.Equal(t, "2024-02-20T00:00:00Z", *st.LatestArticle)
}
