package news

import (
	"sort"

	"github.com/samber/lo"
)

// Dedupe keeps the first article for each case-insensitive URL, preserving order.
func Dedupe(articles []Article) []Article {
	return lo.UniqBy(articles, func(a Article) string {
		return a.Key()
	})
}

// SortByDate orders articles newest first. The sort is stable and articles
// without a parseable publishedAt go last.
func SortByDate(articles []Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return ParseTime(articles[i].PublishedAt).After(ParseTime(articles[j].PublishedAt))
	})
}

// DedupeAndSort returns a new deduplicated slice ordered newest first.
func DedupeAndSort(articles []Article) []Article {
	out := Dedupe(articles)
	SortByDate(out)
	return out
}
