package summary

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tomakado/containers/set"

	"github.com/deusflow/crednews/internal/news"
)

// ErrNoArticles is returned when a digest is requested for an empty set.
var ErrNoArticles = errors.New("no articles to summarize")

// Section labels of the fallback digest.
const (
	LabelTopics       = "주요 주제"
	LabelSources      = "주요 언론사"
	LabelRecent       = "최근 주요 보도"
	LabelDateRange    = "기사 발행 기간"
	LabelDistribution = "주제별 기사 분포"
	LabelExcerpts     = "주요 기사 내용"

	OtherTopic  = "기타"
	unknownDate = "날짜 미상"
)

const (
	topN          = 5
	minTokenRunes = 4
	excerptRunes  = 300
)

var stopWords = set.New(
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by",
	"is", "are", "was", "were", "be", "been", "being", "have", "has", "had", "do", "does", "did",
	"will", "would", "shall", "should", "can", "could", "may", "might", "must",
)

// Topic is one bucket of the topic distribution.
type Topic struct {
	Name     string
	Keywords []string
}

// Topics is the fixed bucket table, in display priority for equal counts.
var Topics = []Topic{
	{Name: "디지털 크리덴셜", Keywords: []string{"digital credential", "credential", "certificate", "certification"}},
	{Name: "오픈배지", Keywords: []string{"open badge", "badge", "micro-credential"}},
	{Name: "블록체인", Keywords: []string{"blockchain", "web3", "nft", "token"}},
	{Name: "교육", Keywords: []string{"education", "learning", "university", "school", "student"}},
	{Name: "기업", Keywords: []string{"company", "enterprise", "business", "corporate"}},
	{Name: "정책", Keywords: []string{"policy", "government", "regulation", "standard"}},
}

// Count is a label with its frequency.
type Count struct {
	Name  string
	Count int
}

// Digest builds the deterministic local summary used when no remote
// summarizer answers.
type Digest struct {
	loc *time.Location
}

// NewDigest renders dates in loc (UTC when nil).
func NewDigest(loc *time.Location) *Digest {
	if loc == nil {
		loc = time.UTC
	}
	return &Digest{loc: loc}
}

// Summarize renders the digest for a non-empty article list.
func (d *Digest) Summarize(articles []news.Article) (string, error) {
	if len(articles) == 0 {
		return "", ErrNoArticles
	}

	total := len(articles)
	sources := SourceCounts(articles)
	keywords := Keywords(articles, topN)
	topics := "다양한 주제"
	if len(keywords) > 0 {
		topics = strings.Join(keywords, ", ")
	}

	var b strings.Builder

	fmt.Fprintf(&b, "이번 뉴스 모음에서는 %d개의 관련 기사를 수집했습니다. ", total)
	fmt.Fprintf(&b, "%d개의 다양한 언론사에서 보도했으며, %s는 %s입니다.\n\n", len(sources), LabelTopics, topics)

	top := make([]string, 0, topN)
	for _, s := range sources[:min(topN, len(sources))] {
		top = append(top, fmt.Sprintf("%s(%d건)", s.Name, s.Count))
	}
	fmt.Fprintf(&b, "%s로는 %s 등이 있으며, %s로는:\n", LabelSources, strings.Join(top, ", "), LabelRecent)

	recent := make([]string, 0, topN)
	for _, a := range mostRecent(articles, topN) {
		recent = append(recent, fmt.Sprintf("- \"%s\" (%s, %s)", a.Title, a.Source.Name, d.localDate(a.PublishedAt)))
	}
	b.WriteString(strings.Join(recent, "\n"))
	b.WriteString(" 등이 있습니다.")

	earliest, latest := d.dateRange(articles)
	fmt.Fprintf(&b, "\n\n%s: %s ~ %s", LabelDateRange, earliest, latest)

	fmt.Fprintf(&b, "\n\n%s:", LabelDistribution)
	for _, t := range TopicCounts(articles) {
		pct := float64(t.Count) / float64(total) * 100
		fmt.Fprintf(&b, "\n- %s: %d건 (%.1f%%)", t.Name, t.Count, pct)
	}

	var excerpts []string
	for _, a := range articles {
		if len(excerpts) == topN {
			break
		}
		if a.Content == "" {
			continue
		}
		excerpts = append(excerpts, fmt.Sprintf("- %s (%s, %s):\n  %s...",
			a.Title, a.Source.Name, d.localDate(a.PublishedAt), truncateRunes(a.Content, excerptRunes)))
	}
	if len(excerpts) > 0 {
		fmt.Fprintf(&b, "\n\n%s:\n%s", LabelExcerpts, strings.Join(excerpts, "\n\n"))
	}

	return b.String(), nil
}

// Keywords returns the n most frequent tokens longer than three characters
// that are not stop words. Ties keep first-seen order.
func Keywords(articles []news.Article, n int) []string {
	var tokens []string
	for _, a := range articles {
		text := a.Title
		if a.Content != "" {
			text = a.Title + " " + a.Content
		}
		for _, tok := range strings.Fields(strings.ToLower(text)) {
			if utf8.RuneCountInString(tok) < minTokenRunes || stopWords.Contains(tok) {
				continue
			}
			tokens = append(tokens, tok)
		}
	}

	counts := rank(tokens)
	out := make([]string, 0, n)
	for _, c := range counts[:min(n, len(counts))] {
		out = append(out, c.Name)
	}
	return out
}

// SourceCounts counts articles per source name, most frequent first.
func SourceCounts(articles []news.Article) []Count {
	names := make([]string, 0, len(articles))
	for _, a := range articles {
		names = append(names, a.Source.Name)
	}
	return rank(names)
}

// TopicCounts classifies each article into every bucket whose keywords it
// mentions, or OtherTopic when none match. Counts can therefore add up to
// more than the number of articles.
func TopicCounts(articles []news.Article) []Count {
	var hits []string
	for _, a := range articles {
		text := strings.ToLower(a.Title + " " + a.Content)
		matched := false
		for _, t := range Topics {
			if containsAny(text, t.Keywords) {
				hits = append(hits, t.Name)
				matched = true
			}
		}
		if !matched {
			hits = append(hits, OtherTopic)
		}
	}
	return rank(hits)
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// rank counts values and orders them by descending count, first-seen order on ties.
func rank(values []string) []Count {
	index := make(map[string]int)
	var counts []Count
	for _, v := range values {
		if i, ok := index[v]; ok {
			counts[i].Count++
			continue
		}
		index[v] = len(counts)
		counts = append(counts, Count{Name: v, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

func mostRecent(articles []news.Article, n int) []news.Article {
	sorted := make([]news.Article, len(articles))
	copy(sorted, articles)
	news.SortByDate(sorted)
	return sorted[:min(n, len(sorted))]
}

func (d *Digest) dateRange(articles []news.Article) (string, string) {
	var earliest, latest time.Time
	for _, a := range articles {
		t := news.ParseTime(a.PublishedAt)
		if t.IsZero() {
			continue
		}
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
		if latest.IsZero() || t.After(latest) {
			latest = t
		}
	}
	return d.formatTime(earliest), d.formatTime(latest)
}

func (d *Digest) localDate(publishedAt string) string {
	return d.formatTime(news.ParseTime(publishedAt))
}

// formatTime renders t like a Korean locale date: "2024. 1. 15.".
func (d *Digest) formatTime(t time.Time) string {
	if t.IsZero() {
		return unknownDate
	}
	t = t.In(d.loc)
	return fmt.Sprintf("%d. %d. %d.", t.Year(), int(t.Month()), t.Day())
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
